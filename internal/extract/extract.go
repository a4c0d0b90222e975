// Package extract pulls audit signals out of rendered HTML. Extraction is
// pure: it never fetches, never errors, and tolerates arbitrarily broken
// markup by returning zero values for whatever cannot be read.
package extract

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/site-audit/siteaudit/internal/urlutil"
)

// Keyword tables used for conversion signals. Portuguese and English
// variants both match since audited sites span the two.
var (
	ctaKeywords = []string{
		"contato", "fale", "agende", "orcamento", "simule", "comprar",
		"saiba mais", "quero", "whatsapp",
		"contact", "get in touch", "schedule", "quote", "buy now",
		"learn more", "sign up", "get started",
	}
	faqKeywords         = []string{"faq", "perguntas frequentes", "duvidas", "dúvidas", "frequently asked"}
	galleryKeywords     = []string{"galeria", "gallery", "portfolio", "portifolio", "fotos", "imagens"}
	testimonialKeywords = []string{"depoimento", "testemunho", "avaliacoes", "clientes dizem", "testimonial", "reviews"}
	pricingKeywords     = []string{"r$", "preco", "precos", "investimento", "a partir de", "pricing", "price", "$"}
)

var numberPattern = regexp.MustCompile(`\b\d+[.,]?\d*\b`)

var imageExtensions = map[string]bool{
	"jpg": true, "jpeg": true, "png": true, "webp": true, "avif": true, "svg": true,
}

// Signals is everything a single page contributes to classification.
type Signals struct {
	Title           string
	MetaDescription string
	Canonical       string
	RobotsMeta      string
	Indexable       bool
	Lang            string

	HasViewport bool
	HasSchema   bool
	HasOG       bool

	H1Text       string
	H1Count      int
	H2Count      int
	HeadingCount int
	SectionCount int

	WordCount   int
	TextSnippet string

	NavItems []string
	CTATexts []string

	HasForm         bool
	HasVideo        bool
	HasWhatsApp     bool
	HasFAQ          bool
	HasGallery      bool
	HasTestimonials bool
	HasPricing      bool
	HasNumbers      bool
	NumberSamples   []string

	ImagesTotal      int
	ImagesMissingAlt int
	LazyImages       int
	ImageFormats     map[string]int

	InputsTotal        int
	InputsMissingLabel int

	ResourceCount       int
	RenderBlockingCount int
	MixedContentCount   int
	CDNHints            bool

	InternalLinks []string
	ExternalLinks []string

	HTMLSizeBytes int
}

// Extract parses the document and collects signals. pageURL is the final
// URL after redirects; it anchors link resolution and the same-origin
// split. A nil document (unparseable input) yields empty Signals.
func Extract(html, pageURL string) *Signals {
	s := &Signals{
		ImageFormats:  map[string]int{},
		HTMLSizeBytes: len(html),
		Indexable:     true,
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return s
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return s
	}

	s.Title = squeeze(doc.Find("title").First().Text())
	s.MetaDescription = squeeze(doc.Find(`meta[name="description"]`).First().AttrOr("content", ""))
	s.Lang = strings.TrimSpace(doc.Find("html").First().AttrOr("lang", ""))

	doc.Find("link[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if relContains(sel.AttrOr("rel", ""), "canonical") {
			s.Canonical = urlutil.Resolve(base, sel.AttrOr("href", ""))
			return false
		}
		return true
	})

	s.RobotsMeta = strings.ToLower(strings.TrimSpace(doc.Find(`meta[name="robots"]`).First().AttrOr("content", "")))
	if s.RobotsMeta != "" {
		s.Indexable = !strings.Contains(s.RobotsMeta, "noindex") && !strings.Contains(s.RobotsMeta, "none")
	}

	s.HasViewport = doc.Find(`meta[name="viewport"]`).Length() > 0
	s.HasSchema = doc.Find(`script[type="application/ld+json"]`).Length() > 0
	s.HasOG = doc.Find(`meta[property^="og:"]`).Length() > 0

	h1 := doc.Find("h1")
	s.H1Count = h1.Length()
	s.H1Text = squeeze(h1.First().Text())
	s.H2Count = doc.Find("h2").Length()
	s.HeadingCount = s.H1Count + s.H2Count + doc.Find("h3").Length()
	s.SectionCount = doc.Find("section").Length()

	text := visibleText(doc)
	words := strings.Fields(text)
	s.WordCount = len(words)
	if len(words) > 80 {
		words = words[:80]
	}
	s.TextSnippet = strings.Join(words, " ")

	s.collectLinks(doc, base)
	s.collectImages(doc)
	s.collectInputs(doc)
	s.collectResources(doc, base)
	s.NavItems = navItems(doc)
	s.CTATexts = ctaTexts(doc)

	s.HasForm = doc.Find("form").Length() > 0
	s.HasVideo = doc.Find("video").Length() > 0 || hasEmbeddedVideo(doc)

	lower := strings.ToLower(text)
	s.HasFAQ = containsAny(lower, faqKeywords)
	s.HasGallery = containsAny(lower, galleryKeywords)
	s.HasTestimonials = containsAny(lower, testimonialKeywords)
	s.HasPricing = containsAny(lower, pricingKeywords)
	s.NumberSamples = numberPattern.FindAllString(lower, 3)
	s.HasNumbers = len(s.NumberSamples) > 0
	s.HasWhatsApp = strings.Contains(lower, "whatsapp") || strings.Contains(lower, "wa.me")
	if !s.HasWhatsApp {
		for _, link := range s.ExternalLinks {
			l := strings.ToLower(link)
			if strings.Contains(l, "whatsapp") || strings.Contains(l, "wa.me") {
				s.HasWhatsApp = true
				break
			}
		}
	}

	return s
}

func (s *Signals) collectLinks(doc *goquery.Document, base *url.URL) {
	seenInt := map[string]struct{}{}
	seenExt := map[string]struct{}{}
	origin := base.Scheme + "://" + base.Host
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		abs := urlutil.Resolve(base, sel.AttrOr("href", ""))
		if abs == "" || !urlutil.IsHTTP(abs) {
			return
		}
		if urlutil.SameOrigin(abs, origin) {
			if _, ok := seenInt[abs]; !ok {
				seenInt[abs] = struct{}{}
				s.InternalLinks = append(s.InternalLinks, abs)
			}
		} else {
			if _, ok := seenExt[abs]; !ok {
				seenExt[abs] = struct{}{}
				s.ExternalLinks = append(s.ExternalLinks, abs)
			}
		}
	})
}

func (s *Signals) collectImages(doc *goquery.Document) {
	doc.Find("img").Each(func(_ int, sel *goquery.Selection) {
		s.ImagesTotal++
		if strings.TrimSpace(sel.AttrOr("alt", "")) == "" {
			s.ImagesMissingAlt++
		}
		_, hasDataSrc := sel.Attr("data-src")
		if sel.AttrOr("loading", "") == "lazy" || hasDataSrc ||
			strings.Contains(" "+sel.AttrOr("class", "")+" ", " lazy ") {
			s.LazyImages++
		}
		src := sel.AttrOr("src", sel.AttrOr("data-src", ""))
		if ext := imageExtension(src); ext != "" {
			s.ImageFormats[ext]++
		}
	})
}

func (s *Signals) collectInputs(doc *goquery.Document) {
	labelsFor := map[string]struct{}{}
	doc.Find("label[for]").Each(func(_ int, sel *goquery.Selection) {
		if id := strings.TrimSpace(sel.AttrOr("for", "")); id != "" {
			labelsFor[id] = struct{}{}
		}
	})
	doc.Find("input").Each(func(_ int, sel *goquery.Selection) {
		s.InputsTotal++
		typ := strings.ToLower(strings.TrimSpace(sel.AttrOr("type", "text")))
		switch typ {
		case "hidden", "submit", "button", "image", "reset":
			return
		}
		if strings.TrimSpace(sel.AttrOr("aria-label", "")) != "" ||
			strings.TrimSpace(sel.AttrOr("aria-labelledby", "")) != "" {
			return
		}
		if id := strings.TrimSpace(sel.AttrOr("id", "")); id != "" {
			if _, ok := labelsFor[id]; ok {
				return
			}
		}
		if sel.ParentsFiltered("label").Length() > 0 {
			return
		}
		s.InputsMissingLabel++
	})
}

func (s *Signals) collectResources(doc *goquery.Document, base *url.URL) {
	var resources []string
	doc.Find("script, img, iframe, source").Each(func(_ int, sel *goquery.Selection) {
		src := strings.TrimSpace(sel.AttrOr("src", sel.AttrOr("data-src", "")))
		if src != "" {
			if abs := urlutil.Resolve(base, src); abs != "" {
				resources = append(resources, abs)
			}
		}
	})
	doc.Find("link[href]").Each(func(_ int, sel *goquery.Selection) {
		if href := strings.TrimSpace(sel.AttrOr("href", "")); href != "" {
			if abs := urlutil.Resolve(base, href); abs != "" {
				resources = append(resources, abs)
			}
		}
	})
	s.ResourceCount = len(resources)

	if base.Scheme == "https" {
		for _, ref := range resources {
			if strings.HasPrefix(strings.ToLower(ref), "http://") {
				s.MixedContentCount++
			}
		}
	}
	for _, ref := range resources {
		l := strings.ToLower(ref)
		if strings.Contains(l, "cdn") || strings.Contains(l, "cloudflare") || strings.Contains(l, "cloudfront") {
			s.CDNHints = true
			break
		}
	}

	head := doc.Find("head").First()
	head.Find("script[src]").Each(func(_ int, sel *goquery.Selection) {
		_, async := sel.Attr("async")
		_, deferred := sel.Attr("defer")
		if !async && !deferred {
			s.RenderBlockingCount++
		}
	})
	head.Find("link[href]").Each(func(_ int, sel *goquery.Selection) {
		if relContains(sel.AttrOr("rel", ""), "stylesheet") {
			s.RenderBlockingCount++
		}
	})
}

// navItems tries dedicated nav containers first, then elements whose
// class or id hints at navigation, then the most repeated anchor labels.
func navItems(doc *goquery.Document) []string {
	var items []string
	addLinks := func(container *goquery.Selection) {
		container.Find("a").Each(func(_ int, a *goquery.Selection) {
			label := squeeze(a.Text())
			if len(label) >= 2 && len(label) <= 40 {
				items = append(items, label)
			}
		})
	}

	doc.Find(`nav, [role="navigation"]`).Each(func(_ int, sel *goquery.Selection) {
		addLinks(sel)
	})

	if len(items) == 0 {
		doc.Find("header, div, section").Each(func(_ int, sel *goquery.Selection) {
			key := strings.ToLower(sel.AttrOr("class", "") + " " + sel.AttrOr("id", ""))
			for _, token := range []string{"nav", "menu", "navbar", "header", "topbar"} {
				if strings.Contains(key, token) {
					addLinks(sel)
					break
				}
			}
		})
	}

	if len(items) == 0 {
		counts := map[string]int{}
		var order []string
		doc.Find("a").Each(func(_ int, a *goquery.Selection) {
			label := squeeze(a.Text())
			if len(label) >= 2 && len(label) <= 40 {
				if counts[label] == 0 {
					order = append(order, label)
				}
				counts[label]++
			}
		})
		if len(order) > 8 {
			order = order[:8]
		}
		items = order
	}

	return unique(items)
}

func ctaTexts(doc *goquery.Document) []string {
	var texts []string
	doc.Find("a, button, input").Each(func(_ int, sel *goquery.Selection) {
		var text string
		if goquery.NodeName(sel) == "input" {
			typ := sel.AttrOr("type", "")
			if typ == "submit" || typ == "button" {
				text = sel.AttrOr("value", sel.AttrOr("aria-label", ""))
			}
		} else {
			text = squeeze(sel.Text())
		}
		if text == "" {
			return
		}
		if containsAny(strings.ToLower(text), ctaKeywords) {
			texts = append(texts, text)
		}
	})
	return unique(texts)
}

func hasEmbeddedVideo(doc *goquery.Document) bool {
	found := false
	doc.Find("iframe[src]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		src := strings.ToLower(sel.AttrOr("src", ""))
		if strings.Contains(src, "youtube") || strings.Contains(src, "vimeo") {
			found = true
			return false
		}
		return true
	})
	return found
}

// visibleText drops script, style and noscript content before joining
// the remaining text nodes.
func visibleText(doc *goquery.Document) string {
	clone := doc.Clone()
	clone.Find("script, style, noscript").Remove()
	return squeeze(clone.Find("body").Text())
}

func squeeze(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func relContains(rel, want string) bool {
	for _, v := range strings.Fields(strings.ToLower(rel)) {
		if v == want {
			return true
		}
	}
	return false
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

func unique(items []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item == "" {
			continue
		}
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}

func imageExtension(raw string) string {
	if raw == "" {
		return ""
	}
	clean := strings.ToLower(raw)
	if i := strings.IndexAny(clean, "?#"); i >= 0 {
		clean = clean[:i]
	}
	dot := strings.LastIndex(clean, ".")
	if dot < 0 {
		return ""
	}
	ext := clean[dot+1:]
	if imageExtensions[ext] {
		return ext
	}
	return ""
}
