package classify

import (
	"fmt"
	"strings"
	"time"

	"github.com/site-audit/siteaudit/internal/crawler"
	"github.com/site-audit/siteaudit/internal/urlutil"
)

// Signal thresholds. Title and meta-description bounds are the usual
// SERP snippet limits; the rest are light-weight performance proxies.
const (
	titleMinLen       = 15
	titleMaxLen       = 60
	metaMinLen        = 70
	metaMaxLen        = 160
	thinWords         = 120
	slowTTFB          = 1200 * time.Millisecond
	heavyHTML         = 512_000
	manyTargets       = 80
	blockingMax       = 5
	chainHops         = 3
	brokenForCritical = 10
	altForHigh        = 20
	lazyWorthwhile    = 6
	fewSections       = 3
)

type funcRule struct {
	id   string
	eval func(in *Input) *Finding
}

func (r funcRule) ID() string                  { return r.id }
func (r funcRule) Evaluate(in *Input) *Finding { return r.eval(in) }

// Rules is the complete rule set in evaluation order. Order is part of
// the report contract: findings keep this order within equal severity.
var Rules = []Rule{
	// --- seo ---
	funcRule{"seo-title-missing", seoTitleMissing},
	funcRule{"seo-title-length", seoTitleLength},
	funcRule{"seo-meta-description-missing", seoMetaMissing},
	funcRule{"seo-meta-description-length", seoMetaLength},
	funcRule{"seo-canonical-missing", seoCanonicalMissing},
	funcRule{"seo-canonical-cross-origin", seoCanonicalCrossOrigin},
	funcRule{"seo-h1-structure", seoH1Structure},
	funcRule{"seo-noindex-pages", seoNoindex},
	funcRule{"seo-broken-internal-links", seoBrokenLinks},
	funcRule{"seo-robots-missing", seoRobotsMissing},
	funcRule{"seo-sitemap-missing", seoSitemapMissing},
	funcRule{"seo-schema-missing", seoSchemaMissing},
	funcRule{"seo-og-missing", seoOGMissing},
	funcRule{"seo-single-h1-strength", seoSingleH1Strength},
	funcRule{"seo-meta-description-strength", seoMetaStrength},

	// --- accessibility ---
	funcRule{"a11y-image-alt-missing", a11yAltMissing},
	funcRule{"a11y-input-label-missing", a11yLabelMissing},
	funcRule{"a11y-lang-missing", a11yLangMissing},
	funcRule{"a11y-document-title-missing", a11yTitleMissing},
	funcRule{"a11y-alt-coverage-strength", a11yAltStrength},

	// --- performance ---
	funcRule{"perf-slow-ttfb", perfSlowTTFB},
	funcRule{"perf-heavy-html", perfHeavyHTML},
	funcRule{"perf-many-resources", perfManyResources},
	funcRule{"perf-render-blocking", perfRenderBlocking},
	funcRule{"perf-no-lazy-loading", perfNoLazy},
	funcRule{"perf-cdn-opportunity", perfCDNOpportunity},
	funcRule{"perf-https-strength", perfHTTPSStrength},
	funcRule{"perf-no-render-blocking-strength", perfNoBlockingStrength},
	funcRule{"perf-modern-images-strength", perfModernImagesStrength},
	funcRule{"perf-lazy-loading-strength", perfLazyStrength},

	// --- ux ---
	funcRule{"ux-thin-content", uxThinContent},
	funcRule{"ux-missing-viewport", uxMissingViewport},
	funcRule{"ux-few-sections", uxFewSections},
	funcRule{"ux-navigation-missing", uxNavigationMissing},
	funcRule{"ux-faq-missing", uxFAQMissing},
	funcRule{"ux-gallery-missing", uxGalleryMissing},
	funcRule{"ux-viewport-strength", uxViewportStrength},
	funcRule{"ux-navigation-strength", uxNavigationStrength},

	// --- conversion ---
	funcRule{"conv-no-cta", convNoCTA},
	funcRule{"conv-no-testimonials", convNoTestimonials},
	funcRule{"conv-no-pricing", convNoPricing},
	funcRule{"conv-no-numbers", convNoNumbers},
	funcRule{"conv-cta-strength", convCTAStrength},

	// --- critical bottlenecks ---
	funcRule{"critical-http-errors", criticalHTTPErrors},
	funcRule{"critical-redirect-chains", criticalRedirectChains},
	funcRule{"critical-mixed-content", criticalMixedContent},
	funcRule{"critical-partial-crawl", criticalPartialCrawl},
}

func seoTitleMissing(in *Input) *Finding {
	pages := filterPages(htmlPages(in), func(p *crawler.PageRecord) bool {
		return p.Signals.Title == ""
	})
	if len(pages) == 0 {
		return nil
	}
	return &Finding{
		ID:          "seo-title-missing",
		Category:    CategorySEO,
		Kind:        KindWeakness,
		Severity:    SeverityHigh,
		Title:       "Pages without a title tag",
		Description: fmt.Sprintf("%d HTML pages have no <title> tag.", len(pages)),
		Impact:      "Hurts organic relevance and click-through rate.",
		Remediation: "Give every page a unique, descriptive title.",
		Evidence: []Evidence{{
			URL: pages[0].URL, Selector: "title", Metric: len(pages),
		}},
		AffectedURLs: topURLs(pages),
	}
}

func seoTitleLength(in *Input) *Finding {
	pages := filterPages(htmlPages(in), func(p *crawler.PageRecord) bool {
		n := len(p.Signals.Title)
		return n > 0 && (n < titleMinLen || n > titleMaxLen)
	})
	if len(pages) == 0 {
		return nil
	}
	return &Finding{
		ID:          "seo-title-length",
		Category:    CategorySEO,
		Kind:        KindWeakness,
		Severity:    SeverityMedium,
		Title:       "Titles outside the recommended length",
		Description: fmt.Sprintf("%d pages have a title that is too short or too long.", len(pages)),
		Impact:      "Can blur the search snippet.",
		Remediation: fmt.Sprintf("Keep titles between %d and %d characters.", titleMinLen, titleMaxLen),
		Evidence: []Evidence{{
			URL: pages[0].URL, Selector: "title", Value: pages[0].Signals.Title, Metric: len(pages),
		}},
		AffectedURLs: topURLs(pages),
	}
}

func seoMetaMissing(in *Input) *Finding {
	pages := filterPages(htmlPages(in), func(p *crawler.PageRecord) bool {
		return p.Signals.MetaDescription == ""
	})
	if len(pages) == 0 {
		return nil
	}
	return &Finding{
		ID:          "seo-meta-description-missing",
		Category:    CategorySEO,
		Kind:        KindWeakness,
		Severity:    SeverityMedium,
		Title:       "Missing meta descriptions",
		Description: fmt.Sprintf("%d pages have no meta description.", len(pages)),
		Impact:      "Less control over the text shown in search results.",
		Remediation: "Add a unique, concise meta description to each page.",
		Evidence: []Evidence{{
			URL: pages[0].URL, Selector: `meta[name="description"]`, Metric: len(pages),
		}},
		AffectedURLs: topURLs(pages),
	}
}

func seoMetaLength(in *Input) *Finding {
	pages := filterPages(htmlPages(in), func(p *crawler.PageRecord) bool {
		n := len(p.Signals.MetaDescription)
		return n > 0 && (n < metaMinLen || n > metaMaxLen)
	})
	if len(pages) == 0 {
		return nil
	}
	return &Finding{
		ID:          "seo-meta-description-length",
		Category:    CategorySEO,
		Kind:        KindWeakness,
		Severity:    SeverityLow,
		Title:       "Meta descriptions outside the recommended length",
		Description: fmt.Sprintf("%d pages have a meta description that is too short or too long.", len(pages)),
		Impact:      "Can make the snippet harder to read.",
		Remediation: fmt.Sprintf("Keep meta descriptions between %d and %d characters.", metaMinLen, metaMaxLen),
		Evidence: []Evidence{{
			URL: pages[0].URL, Selector: `meta[name="description"]`,
		}},
		AffectedURLs: topURLs(pages),
	}
}

func seoCanonicalMissing(in *Input) *Finding {
	pages := filterPages(htmlPages(in), func(p *crawler.PageRecord) bool {
		return p.Signals.Canonical == ""
	})
	if len(pages) == 0 {
		return nil
	}
	return &Finding{
		ID:          "seo-canonical-missing",
		Category:    CategorySEO,
		Kind:        KindWeakness,
		Severity:    SeverityMedium,
		Title:       "Missing canonical links",
		Description: fmt.Sprintf("%d pages have no canonical link.", len(pages)),
		Impact:      "Makes it harder to consolidate signals for similar URLs.",
		Remediation: "Add <link rel=\"canonical\"> to indexable pages.",
		Evidence: []Evidence{{
			URL: pages[0].URL, Selector: "link[rel=canonical]",
		}},
		AffectedURLs: topURLs(pages),
	}
}

func seoCanonicalCrossOrigin(in *Input) *Finding {
	pages := filterPages(htmlPages(in), func(p *crawler.PageRecord) bool {
		c := p.Signals.Canonical
		return c != "" && !urlutil.SameOrigin(c, in.Origin)
	})
	if len(pages) == 0 {
		return nil
	}
	return &Finding{
		ID:          "seo-canonical-cross-origin",
		Category:    CategorySEO,
		Kind:        KindWeakness,
		Severity:    SeverityHigh,
		Title:       "Canonical pointing at another origin",
		Description: fmt.Sprintf("%d pages declare a canonical on a different host.", len(pages)),
		Impact:      "Can transfer relevance signals to another host.",
		Remediation: "Point each canonical at the correct URL on the same site.",
		Evidence: []Evidence{{
			URL: pages[0].URL, Value: pages[0].Signals.Canonical,
		}},
		AffectedURLs: topURLs(pages),
	}
}

func seoH1Structure(in *Input) *Finding {
	pages := filterPages(htmlPages(in), func(p *crawler.PageRecord) bool {
		return p.Signals.H1Count != 1
	})
	if len(pages) == 0 {
		return nil
	}
	return &Finding{
		ID:          "seo-h1-structure",
		Category:    CategorySEO,
		Kind:        KindWeakness,
		Severity:    SeverityMedium,
		Title:       "Inconsistent H1 structure",
		Description: fmt.Sprintf("%d pages have an H1 count different from 1.", len(pages)),
		Impact:      "Weakens the semantic clarity of the page.",
		Remediation: "Use exactly one main H1 per page.",
		Evidence: []Evidence{{
			URL: pages[0].URL, Selector: "h1", Metric: pages[0].Signals.H1Count,
		}},
		AffectedURLs: topURLs(pages),
	}
}

func seoNoindex(in *Input) *Finding {
	pages := filterPages(htmlPages(in), func(p *crawler.PageRecord) bool {
		return strings.Contains(p.Signals.RobotsMeta, "noindex")
	})
	if len(pages) == 0 {
		return nil
	}
	return &Finding{
		ID:          "seo-noindex-pages",
		Category:    CategorySEO,
		Kind:        KindWeakness,
		Severity:    SeverityMedium,
		Title:       "Pages flagged noindex",
		Description: fmt.Sprintf("%d HTML pages carry a meta robots noindex.", len(pages)),
		Impact:      "Removes pages from organic indexing.",
		Remediation: "Keep noindex only on pages that really must stay out of the index.",
		Evidence: []Evidence{{
			URL: pages[0].URL, Selector: `meta[name="robots"]`, Value: pages[0].Signals.RobotsMeta,
		}},
		AffectedURLs: topURLs(pages),
	}
}

func seoBrokenLinks(in *Input) *Finding {
	if len(in.Broken) == 0 {
		return nil
	}
	severity := SeverityHigh
	if len(in.Broken) >= brokenForCritical {
		severity = SeverityCritical
	}
	urls := make([]string, 0, len(in.Broken))
	for _, b := range in.Broken {
		urls = append(urls, b.URL)
		if len(urls) == 25 {
			break
		}
	}
	return &Finding{
		ID:          "seo-broken-internal-links",
		Category:    CategorySEO,
		Kind:        KindWeakness,
		Severity:    severity,
		Title:       "Broken internal links",
		Description: fmt.Sprintf("%d internal links answer with an error (4xx/5xx/unreachable).", len(in.Broken)),
		Impact:      "Hurts crawlability, user experience and internal authority flow.",
		Remediation: "Fix the broken URLs and update navigation links.",
		Evidence: []Evidence{{
			URL: in.Broken[0].URL, Metric: in.Broken[0].Status,
		}},
		AffectedURLs: urls,
	}
}

func seoRobotsMissing(in *Input) *Finding {
	if in.Robots.RobotsPresent {
		return nil
	}
	return &Finding{
		ID:          "seo-robots-missing",
		Category:    CategorySEO,
		Kind:        KindWeakness,
		Severity:    SeverityHigh,
		Title:       "robots.txt not found",
		Description: "No robots.txt answered with status 200.",
		Impact:      "Bots crawl the site without any guidance.",
		Remediation: "Publish a robots.txt with clear crawl rules.",
		Evidence: []Evidence{{
			URL: in.Robots.RobotsURL, Metric: in.Robots.RobotsStatus,
		}},
		AffectedURLs: []string{in.Robots.RobotsURL},
	}
}

func seoSitemapMissing(in *Input) *Finding {
	if in.Robots.SitemapPresent {
		return nil
	}
	return &Finding{
		ID:          "seo-sitemap-missing",
		Category:    CategorySEO,
		Kind:        KindOpportunity,
		Severity:    SeverityMedium,
		Title:       "Sitemap not found",
		Description: "No sitemap referenced in robots.txt and none served at /sitemap.xml.",
		Impact:      "Relevant URLs are harder to discover.",
		Remediation: "Generate an up-to-date sitemap.xml and reference it from robots.txt.",
		Evidence: []Evidence{{
			URL: in.Robots.SitemapURL,
		}},
		AffectedURLs: []string{in.Robots.SitemapURL},
	}
}

func seoSchemaMissing(in *Input) *Finding {
	p := primaryPage(in)
	if p == nil || p.Signals.HasSchema {
		return nil
	}
	return &Finding{
		ID:           "seo-schema-missing",
		Category:     CategorySEO,
		Kind:         KindOpportunity,
		Severity:     SeverityMedium,
		Title:        "No structured data detected",
		Description:  "No JSON-LD structured data found on the main page.",
		Impact:       "Fewer rich results and less SERP visibility.",
		Remediation:  "Add LocalBusiness/Organization schema matching the segment.",
		Evidence:     []Evidence{{URL: p.URL, Selector: `script[type="application/ld+json"]`}},
		AffectedURLs: []string{p.URL},
	}
}

func seoOGMissing(in *Input) *Finding {
	p := primaryPage(in)
	if p == nil || p.Signals.HasOG {
		return nil
	}
	return &Finding{
		ID:           "seo-og-missing",
		Category:     CategorySEO,
		Kind:         KindOpportunity,
		Severity:     SeverityLow,
		Title:        "Open Graph tags missing",
		Description:  "The main page has no Open Graph metadata.",
		Impact:       "Shared links render without a controlled preview.",
		Remediation:  "Add og:title, og:description and og:image tags.",
		Evidence:     []Evidence{{URL: p.URL, Selector: `meta[property^="og:"]`}},
		AffectedURLs: []string{p.URL},
	}
}

func seoSingleH1Strength(in *Input) *Finding {
	pages := htmlPages(in)
	if len(pages) == 0 {
		return nil
	}
	for _, p := range pages {
		if p.Signals.H1Count != 1 {
			return nil
		}
	}
	return &Finding{
		ID:          "seo-single-h1-strength",
		Category:    CategorySEO,
		Kind:        KindStrength,
		Severity:    SeverityLow,
		Title:       "Single H1 on every page",
		Description: "Every analyzed page carries exactly one main H1.",
		Impact:      "Clear semantic structure for readers and crawlers.",
		Remediation: "Keep the single-H1 convention on new pages.",
		Evidence:    []Evidence{{URL: pages[0].URL, Selector: "h1"}},
	}
}

func seoMetaStrength(in *Input) *Finding {
	p := primaryPage(in)
	if p == nil || p.Signals.MetaDescription == "" {
		return nil
	}
	return &Finding{
		ID:          "seo-meta-description-strength",
		Category:    CategorySEO,
		Kind:        KindStrength,
		Severity:    SeverityLow,
		Title:       "Meta description present on the main page",
		Description: "The main page controls its search snippet with a meta description.",
		Impact:      "Better click-through from organic results.",
		Remediation: "Extend the same care to every indexable page.",
		Evidence:    []Evidence{{URL: p.URL, Value: p.Signals.MetaDescription}},
	}
}

func a11yAltMissing(in *Input) *Finding {
	pages := filterPages(htmlPages(in), func(p *crawler.PageRecord) bool {
		return p.Signals.ImagesMissingAlt > 0
	})
	if len(pages) == 0 {
		return nil
	}
	total := 0
	for _, p := range pages {
		total += p.Signals.ImagesMissingAlt
	}
	severity := SeverityMedium
	if total >= altForHigh {
		severity = SeverityHigh
	}
	return &Finding{
		ID:          "a11y-image-alt-missing",
		Category:    CategoryAccessibility,
		Kind:        KindWeakness,
		Severity:    severity,
		Title:       "Images without alternative text",
		Description: fmt.Sprintf("%d images across %d pages have no alt attribute.", total, len(pages)),
		Impact:      "Screen-reader users lose the image content entirely.",
		Remediation: "Give every meaningful image a descriptive alt attribute.",
		Evidence: []Evidence{{
			URL: pages[0].URL, Selector: "img[alt]", Metric: total,
		}},
		AffectedURLs: topURLs(pages),
	}
}

func a11yLabelMissing(in *Input) *Finding {
	pages := filterPages(htmlPages(in), func(p *crawler.PageRecord) bool {
		return p.Signals.InputsMissingLabel > 0
	})
	if len(pages) == 0 {
		return nil
	}
	total := 0
	for _, p := range pages {
		total += p.Signals.InputsMissingLabel
	}
	return &Finding{
		ID:          "a11y-input-label-missing",
		Category:    CategoryAccessibility,
		Kind:        KindWeakness,
		Severity:    SeverityHigh,
		Title:       "Form fields without labels",
		Description: fmt.Sprintf("%d inputs have no associated label.", total),
		Impact:      "Assistive-technology users cannot tell the fields apart.",
		Remediation: "Associate labels via for/id or use aria-label/aria-labelledby.",
		Evidence: []Evidence{{
			URL: pages[0].URL, Selector: "input", Metric: total,
		}},
		AffectedURLs: topURLs(pages),
	}
}

func a11yLangMissing(in *Input) *Finding {
	pages := filterPages(htmlPages(in), func(p *crawler.PageRecord) bool {
		return p.Signals.Lang == ""
	})
	if len(pages) == 0 {
		return nil
	}
	return &Finding{
		ID:          "a11y-lang-missing",
		Category:    CategoryAccessibility,
		Kind:        KindWeakness,
		Severity:    SeverityMedium,
		Title:       "Missing lang attribute",
		Description: fmt.Sprintf("%d pages have no lang attribute on the html element.", len(pages)),
		Impact:      "Screen readers may pick the wrong pronunciation rules.",
		Remediation: "Set the appropriate lang on the <html> element.",
		Evidence: []Evidence{{
			URL: pages[0].URL, Selector: "html[lang]",
		}},
		AffectedURLs: topURLs(pages),
	}
}

func a11yTitleMissing(in *Input) *Finding {
	pages := filterPages(htmlPages(in), func(p *crawler.PageRecord) bool {
		return p.Signals.Title == ""
	})
	if len(pages) == 0 {
		return nil
	}
	return &Finding{
		ID:          "a11y-document-title-missing",
		Category:    CategoryAccessibility,
		Kind:        KindWeakness,
		Severity:    SeverityMedium,
		Title:       "Document title missing",
		Description: fmt.Sprintf("%d pages have no document title.", len(pages)),
		Impact:      "Assistive users lose navigation context between pages.",
		Remediation: "Add a descriptive <title> tag to every page.",
		Evidence: []Evidence{{
			URL: pages[0].URL, Selector: "title",
		}},
		AffectedURLs: topURLs(pages),
	}
}

func a11yAltStrength(in *Input) *Finding {
	pages := htmlPages(in)
	if len(pages) == 0 {
		return nil
	}
	sawImages := false
	for _, p := range pages {
		if p.Signals.ImagesMissingAlt > 0 {
			return nil
		}
		if p.Signals.ImagesTotal > 0 {
			sawImages = true
		}
	}
	if !sawImages {
		return nil
	}
	return &Finding{
		ID:          "a11y-alt-coverage-strength",
		Category:    CategoryAccessibility,
		Kind:        KindStrength,
		Severity:    SeverityLow,
		Title:       "Full alt coverage on images",
		Description: "Every image on the analyzed pages carries an alt attribute.",
		Impact:      "Image content stays available to screen readers.",
		Remediation: "Keep alt text descriptive when adding new images.",
		Evidence:    []Evidence{{URL: pages[0].URL, Selector: "img[alt]"}},
	}
}

func perfSlowTTFB(in *Input) *Finding {
	pages := filterPages(htmlPages(in), func(p *crawler.PageRecord) bool {
		return p.Elapsed > slowTTFB
	})
	if len(pages) == 0 {
		return nil
	}
	return &Finding{
		ID:          "perf-slow-ttfb",
		Category:    CategoryPerformance,
		Kind:        KindWeakness,
		Severity:    SeverityHigh,
		Title:       "Slow server response",
		Description: fmt.Sprintf("%d pages took more than %dms to respond.", len(pages), slowTTFB.Milliseconds()),
		Impact:      "Raises perceived load time on every visit.",
		Remediation: "Review backend latency, caching and server placement.",
		Evidence: []Evidence{{
			URL: pages[0].URL, Metric: int(pages[0].Elapsed.Milliseconds()),
		}},
		AffectedURLs: topURLs(pages),
	}
}

func perfHeavyHTML(in *Input) *Finding {
	pages := filterPages(htmlPages(in), func(p *crawler.PageRecord) bool {
		return p.Signals.HTMLSizeBytes > heavyHTML
	})
	if len(pages) == 0 {
		return nil
	}
	return &Finding{
		ID:          "perf-heavy-html",
		Category:    CategoryPerformance,
		Kind:        KindWeakness,
		Severity:    SeverityMedium,
		Title:       "Very heavy HTML",
		Description: fmt.Sprintf("%d pages serve more than 500KB of HTML.", len(pages)),
		Impact:      "Longer download and parse times.",
		Remediation: "Trim redundant markup and oversized inline components.",
		Evidence: []Evidence{{
			URL: pages[0].URL, Metric: pages[0].Signals.HTMLSizeBytes,
		}},
		AffectedURLs: topURLs(pages),
	}
}

func perfManyResources(in *Input) *Finding {
	pages := filterPages(htmlPages(in), func(p *crawler.PageRecord) bool {
		return p.Signals.ResourceCount > manyTargets
	})
	if len(pages) == 0 {
		return nil
	}
	return &Finding{
		ID:          "perf-many-resources",
		Category:    CategoryPerformance,
		Kind:        KindWeakness,
		Severity:    SeverityMedium,
		Title:       "Too many resources per page",
		Description: fmt.Sprintf("%d pages reference more than %d resources.", len(pages), manyTargets),
		Impact:      "Raises transfer and render cost.",
		Remediation: "Consolidate and optimize scripts, stylesheets and images.",
		Evidence: []Evidence{{
			URL: pages[0].URL, Metric: pages[0].Signals.ResourceCount,
		}},
		AffectedURLs: topURLs(pages),
	}
}

func perfRenderBlocking(in *Input) *Finding {
	pages := filterPages(htmlPages(in), func(p *crawler.PageRecord) bool {
		return p.Signals.RenderBlockingCount > blockingMax
	})
	if len(pages) == 0 {
		return nil
	}
	return &Finding{
		ID:          "perf-render-blocking",
		Category:    CategoryPerformance,
		Kind:        KindWeakness,
		Severity:    SeverityMedium,
		Title:       "Render-blocking resources",
		Description: fmt.Sprintf("%d pages load more than %d blocking resources in the head.", len(pages), blockingMax),
		Impact:      "Delays above-the-fold content.",
		Remediation: "Defer or async scripts and inline critical CSS.",
		Evidence: []Evidence{{
			URL: pages[0].URL, Metric: pages[0].Signals.RenderBlockingCount,
		}},
		AffectedURLs: topURLs(pages),
	}
}

func perfNoLazy(in *Input) *Finding {
	pages := filterPages(htmlPages(in), func(p *crawler.PageRecord) bool {
		return p.Signals.ImagesTotal >= lazyWorthwhile && p.Signals.LazyImages == 0
	})
	if len(pages) == 0 {
		return nil
	}
	return &Finding{
		ID:          "perf-no-lazy-loading",
		Category:    CategoryPerformance,
		Kind:        KindWeakness,
		Severity:    SeverityLow,
		Title:       "Image-heavy pages without lazy loading",
		Description: fmt.Sprintf("%d pages with %d+ images load everything eagerly.", len(pages), lazyWorthwhile),
		Impact:      "Below-the-fold images compete with visible content.",
		Remediation: "Add loading=\"lazy\" to non-critical images.",
		Evidence: []Evidence{{
			URL: pages[0].URL, Selector: "img", Metric: pages[0].Signals.ImagesTotal,
		}},
		AffectedURLs: topURLs(pages),
	}
}

func perfCDNOpportunity(in *Input) *Finding {
	p := primaryPage(in)
	if p == nil || p.Signals.CDNHints {
		return nil
	}
	return &Finding{
		ID:           "perf-cdn-opportunity",
		Category:     CategoryPerformance,
		Kind:         KindOpportunity,
		Severity:     SeverityLow,
		Title:        "No CDN or edge caching detected",
		Description:  "Asset URLs show no sign of CDN or edge delivery.",
		Impact:       "Every asset is served from origin at full latency.",
		Remediation:  "Put static assets behind a CDN with compression and cache headers.",
		Evidence:     []Evidence{{URL: p.URL}},
		AffectedURLs: []string{p.URL},
	}
}

func perfHTTPSStrength(in *Input) *Finding {
	if !strings.HasPrefix(in.Origin, "https://") {
		return nil
	}
	return &Finding{
		ID:          "perf-https-strength",
		Category:    CategoryPerformance,
		Kind:        KindStrength,
		Severity:    SeverityLow,
		Title:       "HTTPS active",
		Description: "The site serves over HTTPS.",
		Impact:      "Secure transport and no browser security warnings.",
		Remediation: "Keep certificates current and redirect HTTP to HTTPS.",
		Evidence:    []Evidence{{URL: in.Origin}},
	}
}

func perfNoBlockingStrength(in *Input) *Finding {
	p := primaryPage(in)
	if p == nil || p.Signals.RenderBlockingCount != 0 {
		return nil
	}
	return &Finding{
		ID:          "perf-no-render-blocking-strength",
		Category:    CategoryPerformance,
		Kind:        KindStrength,
		Severity:    SeverityLow,
		Title:       "No render-blocking scripts in the head",
		Description: "The main page loads without synchronous head scripts.",
		Impact:      "First paint is not held back by script downloads.",
		Remediation: "Keep new scripts deferred or async.",
		Evidence:    []Evidence{{URL: p.URL}},
	}
}

func perfModernImagesStrength(in *Input) *Finding {
	p := primaryPage(in)
	if p == nil {
		return nil
	}
	if p.Signals.ImageFormats["webp"] == 0 && p.Signals.ImageFormats["avif"] == 0 {
		return nil
	}
	return &Finding{
		ID:          "perf-modern-images-strength",
		Category:    CategoryPerformance,
		Kind:        KindStrength,
		Severity:    SeverityLow,
		Title:       "Modern image formats in use",
		Description: "WebP or AVIF images detected on the main page.",
		Impact:      "Smaller transfers for the same visual quality.",
		Remediation: "Convert remaining JPEG/PNG assets as well.",
		Evidence:    []Evidence{{URL: p.URL, Selector: "img"}},
	}
}

func perfLazyStrength(in *Input) *Finding {
	p := primaryPage(in)
	if p == nil || p.Signals.LazyImages == 0 {
		return nil
	}
	return &Finding{
		ID:          "perf-lazy-loading-strength",
		Category:    CategoryPerformance,
		Kind:        KindStrength,
		Severity:    SeverityLow,
		Title:       "Lazy loading detected on images",
		Description: "The main page defers off-screen images.",
		Impact:      "Initial load carries only the visible images.",
		Remediation: "Keep lazy loading on new galleries and lists.",
		Evidence:    []Evidence{{URL: p.URL, Selector: "img[loading=lazy]", Metric: p.Signals.LazyImages}},
	}
}

func uxThinContent(in *Input) *Finding {
	pages := filterPages(htmlPages(in), func(p *crawler.PageRecord) bool {
		return p.Signals.WordCount < thinWords
	})
	if len(pages) == 0 {
		return nil
	}
	return &Finding{
		ID:          "ux-thin-content",
		Category:    CategoryUX,
		Kind:        KindWeakness,
		Severity:    SeverityMedium,
		Title:       "Very short content",
		Description: fmt.Sprintf("%d pages have fewer than %d words.", len(pages), thinWords),
		Impact:      "Reduces both ranking potential and visitor confidence.",
		Remediation: "Expand useful content with context, proof and a clear call to action.",
		Evidence: []Evidence{{
			URL: pages[0].URL, Metric: pages[0].Signals.WordCount,
		}},
		AffectedURLs: topURLs(pages),
	}
}

func uxMissingViewport(in *Input) *Finding {
	pages := filterPages(htmlPages(in), func(p *crawler.PageRecord) bool {
		return !p.Signals.HasViewport
	})
	if len(pages) == 0 {
		return nil
	}
	return &Finding{
		ID:          "ux-missing-viewport",
		Category:    CategoryUX,
		Kind:        KindWeakness,
		Severity:    SeverityMedium,
		Title:       "Missing viewport meta tag",
		Description: fmt.Sprintf("%d pages render without a responsive viewport.", len(pages)),
		Impact:      "Mobile visitors get a desktop layout scaled down.",
		Remediation: "Add <meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">.",
		Evidence: []Evidence{{
			URL: pages[0].URL, Selector: `meta[name="viewport"]`,
		}},
		AffectedURLs: topURLs(pages),
	}
}

func uxFewSections(in *Input) *Finding {
	p := primaryPage(in)
	if p == nil || p.Signals.SectionCount >= fewSections {
		return nil
	}
	return &Finding{
		ID:           "ux-few-sections",
		Category:     CategoryUX,
		Kind:         KindWeakness,
		Severity:     SeverityLow,
		Title:        "Shallow page structure",
		Description:  fmt.Sprintf("The main page has only %d content sections.", p.Signals.SectionCount),
		Impact:       "Little informational depth for a visitor deciding to engage.",
		Remediation:  "Structure the page into clear sections: offer, proof, process, contact.",
		Evidence:     []Evidence{{URL: p.URL, Selector: "section", Metric: p.Signals.SectionCount}},
		AffectedURLs: []string{p.URL},
	}
}

func uxNavigationMissing(in *Input) *Finding {
	p := primaryPage(in)
	if p == nil || len(p.Signals.NavItems) > 0 {
		return nil
	}
	return &Finding{
		ID:           "ux-navigation-missing",
		Category:     CategoryUX,
		Kind:         KindWeakness,
		Severity:     SeverityMedium,
		Title:        "No recognizable navigation",
		Description:  "No navigation menu could be identified on the main page.",
		Impact:       "Visitors cannot orient themselves or reach deeper content.",
		Remediation:  "Add a consistent navigation menu with the key destinations.",
		Evidence:     []Evidence{{URL: p.URL, Selector: "nav"}},
		AffectedURLs: []string{p.URL},
	}
}

func uxFAQMissing(in *Input) *Finding {
	p := primaryPage(in)
	if p == nil || p.Signals.HasFAQ {
		return nil
	}
	return &Finding{
		ID:           "ux-faq-missing",
		Category:     CategoryUX,
		Kind:         KindOpportunity,
		Severity:     SeverityLow,
		Title:        "No FAQ section",
		Description:  "No frequently-asked-questions content detected.",
		Impact:       "Common objections stay unanswered on the page.",
		Remediation:  "Add a strategic FAQ to capture long-tail searches and resolve doubts.",
		Evidence:     []Evidence{{URL: p.URL}},
		AffectedURLs: []string{p.URL},
	}
}

func uxGalleryMissing(in *Input) *Finding {
	p := primaryPage(in)
	if p == nil || p.Signals.HasGallery {
		return nil
	}
	return &Finding{
		ID:           "ux-gallery-missing",
		Category:     CategoryUX,
		Kind:         KindOpportunity,
		Severity:     SeverityLow,
		Title:        "No gallery or visual proof",
		Description:  "No gallery or portfolio content detected.",
		Impact:       "Visual evidence is missing from the decision journey.",
		Remediation:  "Add a gallery with optimized WebP/AVIF images.",
		Evidence:     []Evidence{{URL: p.URL}},
		AffectedURLs: []string{p.URL},
	}
}

func uxViewportStrength(in *Input) *Finding {
	p := primaryPage(in)
	if p == nil || !p.Signals.HasViewport {
		return nil
	}
	return &Finding{
		ID:          "ux-viewport-strength",
		Category:    CategoryUX,
		Kind:        KindStrength,
		Severity:    SeverityLow,
		Title:       "Responsive viewport configured",
		Description: "The main page declares a responsive viewport.",
		Impact:      "Mobile rendering starts from a correct base.",
		Remediation: "Validate layouts on narrow screens as content grows.",
		Evidence:    []Evidence{{URL: p.URL, Selector: `meta[name="viewport"]`}},
	}
}

func uxNavigationStrength(in *Input) *Finding {
	p := primaryPage(in)
	if p == nil || len(p.Signals.NavItems) == 0 {
		return nil
	}
	return &Finding{
		ID:          "ux-navigation-strength",
		Category:    CategoryUX,
		Kind:        KindStrength,
		Severity:    SeverityLow,
		Title:       "Structured navigation in place",
		Description: fmt.Sprintf("Menu with %d items: %s.", len(p.Signals.NavItems), strings.Join(capped(p.Signals.NavItems, 8), ", ")),
		Impact:      "Visitors can reach the key destinations directly.",
		Remediation: "Keep the menu short and goal-oriented.",
		Evidence:    []Evidence{{URL: p.URL, Selector: "nav", Metric: len(p.Signals.NavItems)}},
	}
}

func convNoCTA(in *Input) *Finding {
	p := primaryPage(in)
	if p == nil {
		return nil
	}
	s := p.Signals
	if len(s.CTATexts) > 0 || s.HasForm || s.HasWhatsApp {
		return nil
	}
	return &Finding{
		ID:           "conv-no-cta",
		Category:     CategoryConversion,
		Kind:         KindWeakness,
		Severity:     SeverityHigh,
		Title:        "No visible conversion point",
		Description:  "No call to action, contact form or WhatsApp contact detected.",
		Impact:       "Interested visitors have no obvious next step.",
		Remediation:  "Place a primary call to action above the fold and a contact form.",
		Evidence:     []Evidence{{URL: p.URL}},
		AffectedURLs: []string{p.URL},
	}
}

func convNoTestimonials(in *Input) *Finding {
	p := primaryPage(in)
	if p == nil || p.Signals.HasTestimonials {
		return nil
	}
	return &Finding{
		ID:           "conv-no-testimonials",
		Category:     CategoryConversion,
		Kind:         KindWeakness,
		Severity:     SeverityMedium,
		Title:        "No social proof",
		Description:  "No testimonials or customer reviews detected.",
		Impact:       "The offer lacks third-party validation.",
		Remediation:  "Add testimonials, case studies or verifiable numbers.",
		Evidence:     []Evidence{{URL: p.URL}},
		AffectedURLs: []string{p.URL},
	}
}

func convNoPricing(in *Input) *Finding {
	p := primaryPage(in)
	if p == nil || p.Signals.HasPricing {
		return nil
	}
	return &Finding{
		ID:           "conv-no-pricing",
		Category:     CategoryConversion,
		Kind:         KindWeakness,
		Severity:     SeverityLow,
		Title:        "No pricing signal",
		Description:  "No price range or investment indication detected.",
		Impact:       "Visitors cannot qualify themselves before contacting.",
		Remediation:  "Show a starting price or investment range.",
		Evidence:     []Evidence{{URL: p.URL}},
		AffectedURLs: []string{p.URL},
	}
}

func convNoNumbers(in *Input) *Finding {
	p := primaryPage(in)
	if p == nil || p.Signals.HasNumbers {
		return nil
	}
	return &Finding{
		ID:           "conv-no-numbers",
		Category:     CategoryConversion,
		Kind:         KindWeakness,
		Severity:     SeverityLow,
		Title:        "No concrete numbers",
		Description:  "No numeric proof points found in the page copy.",
		Impact:       "Rational arguments are missing from the pitch.",
		Remediation:  "Add concrete figures: units, sizes, delivery dates, clients served.",
		Evidence:     []Evidence{{URL: p.URL}},
		AffectedURLs: []string{p.URL},
	}
}

func convCTAStrength(in *Input) *Finding {
	p := primaryPage(in)
	if p == nil {
		return nil
	}
	s := p.Signals
	if len(s.CTATexts) == 0 && !s.HasForm && !s.HasWhatsApp {
		return nil
	}
	var channels []string
	if len(s.CTATexts) > 0 {
		channels = append(channels, "CTAs: "+strings.Join(capped(s.CTATexts, 4), ", "))
	}
	if s.HasForm {
		channels = append(channels, "contact form")
	}
	if s.HasWhatsApp {
		channels = append(channels, "WhatsApp contact")
	}
	return &Finding{
		ID:          "conv-cta-strength",
		Category:    CategoryConversion,
		Kind:        KindStrength,
		Severity:    SeverityLow,
		Title:       "Clear conversion points present",
		Description: strings.Join(channels, "; ") + ".",
		Impact:      "Visitors have a direct path to becoming a lead.",
		Remediation: "Track and A/B test the primary call to action.",
		Evidence:    []Evidence{{URL: p.URL, Metric: len(s.CTATexts)}},
	}
}

func criticalHTTPErrors(in *Input) *Finding {
	var pages []*crawler.PageRecord
	severity := SeverityHigh
	for i := range in.Pages {
		p := &in.Pages[i]
		switch p.Outcome {
		case crawler.OutcomeTimeout, crawler.OutcomeError:
			pages = append(pages, p)
		case crawler.OutcomeSuccess:
			if p.Status >= 400 || p.Status == 0 {
				pages = append(pages, p)
			}
		}
		if p.Status >= 500 {
			severity = SeverityCritical
		}
	}
	if len(pages) == 0 {
		return nil
	}
	return &Finding{
		ID:          "critical-http-errors",
		Category:    CategoryUX,
		Kind:        KindCriticalBottleneck,
		Severity:    severity,
		Title:       "Pages failing with HTTP errors",
		Description: fmt.Sprintf("%d pages answered 4xx/5xx or did not answer at all.", len(pages)),
		Impact:      "Breaks both the visitor journey and crawling.",
		Remediation: "Fix broken routes and server failures first.",
		Evidence: []Evidence{{
			URL: pages[0].URL, Metric: pages[0].Status,
		}},
		AffectedURLs: topURLs(pages),
	}
}

func criticalRedirectChains(in *Input) *Finding {
	pages := filterPages(htmlPages(in), func(p *crawler.PageRecord) bool {
		return p.RedirectHops >= chainHops
	})
	if len(pages) == 0 {
		return nil
	}
	return &Finding{
		ID:          "critical-redirect-chains",
		Category:    CategoryPerformance,
		Kind:        KindCriticalBottleneck,
		Severity:    SeverityHigh,
		Title:       "Long redirect chains",
		Description: fmt.Sprintf("%d pages sit behind %d or more redirects.", len(pages), chainHops),
		Impact:      "Adds latency to every visit and can leak ranking signals.",
		Remediation: "Collapse chains to at most one redirect per URL.",
		Evidence: []Evidence{{
			URL: pages[0].URL, Metric: pages[0].RedirectHops,
		}},
		AffectedURLs: topURLs(pages),
	}
}

func criticalMixedContent(in *Input) *Finding {
	pages := filterPages(htmlPages(in), func(p *crawler.PageRecord) bool {
		return p.Signals.MixedContentCount > 0
	})
	if len(pages) == 0 {
		return nil
	}
	return &Finding{
		ID:          "critical-mixed-content",
		Category:    CategoryPerformance,
		Kind:        KindCriticalBottleneck,
		Severity:    SeverityHigh,
		Title:       "Mixed content on HTTPS pages",
		Description: fmt.Sprintf("%d pages load plain-HTTP resources in an HTTPS context.", len(pages)),
		Impact:      "Browsers block the resources or flag the page as insecure.",
		Remediation: "Serve every referenced resource over HTTPS.",
		Evidence: []Evidence{{
			URL: pages[0].URL, Metric: pages[0].Signals.MixedContentCount,
		}},
		AffectedURLs: topURLs(pages),
	}
}

func criticalPartialCrawl(in *Input) *Finding {
	if !in.IncludeLimitFindings || len(in.LimitNotes) == 0 {
		return nil
	}
	notes := strings.Join(in.LimitNotes, "; ")
	return &Finding{
		ID:          "critical-partial-crawl",
		Category:    CategorySEO,
		Kind:        KindCriticalBottleneck,
		Severity:    SeverityCritical,
		Title:       "Partial crawl due to safety limits",
		Description: "The crawl stopped before covering the whole site: " + notes,
		Impact:      "Results represent a partial sample of the site.",
		Remediation: "Re-run the audit after simplifying crawl paths or reviewing site architecture.",
		Evidence: []Evidence{{
			URL: in.Origin, Value: notes,
		}},
		AffectedURLs: []string{in.Origin},
	}
}

func capped(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}
