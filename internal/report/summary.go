package report

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/site-audit/siteaudit/internal/classify"
	"github.com/site-audit/siteaudit/internal/score"
)

// SummaryKeys lists the executive summary entries in render order.
var SummaryKeys = []string{
	"overall",
	"performance",
	"seo",
	"ux",
	"accessibility",
	"conversion",
	"critical_bottlenecks",
}

var summaryCategories = map[string]classify.Category{
	"performance":   classify.CategoryPerformance,
	"seo":           classify.CategorySEO,
	"ux":            classify.CategoryUX,
	"accessibility": classify.CategoryAccessibility,
	"conversion":    classify.CategoryConversion,
}

// fallbackFocus supplies a theme per key when no finding title is usable.
var fallbackFocus = map[string]string{
	"overall":              "the overall health of the site",
	"performance":          "loading speed",
	"seo":                  "search engine visibility",
	"ux":                   "the visitor experience",
	"accessibility":        "access for all users",
	"conversion":           "turning visitors into contacts",
	"critical_bottlenecks": "blocking problems",
}

var (
	urlPattern    = regexp.MustCompile(`https?://\S+|www\.\S+`)
	tagPattern    = regexp.MustCompile(`<[^>]+>`)
	digitPattern  = regexp.MustCompile(`\d+([.,]\d+)?%?`)
	spacesPattern = regexp.MustCompile(`\s+`)
)

// ExecutiveSummary produces one plain sentence per summary key from the
// deterministic report content. No URLs or raw metrics leak into the
// sentences; they read as advice, not as data.
func ExecutiveSummary(r *Report) map[string]string {
	out := make(map[string]string, len(SummaryKeys))

	out["overall"] = SingleSentence(overallSentence(r))
	for key, cat := range summaryCategories {
		out[key] = SingleSentence(categorySentence(r, key, cat))
	}
	out["critical_bottlenecks"] = SingleSentence(bottleneckSentence(r))
	return out
}

func overallSentence(r *Report) string {
	switch r.Scores.Status {
	case score.StatusCritical:
		return "The site has critical problems that directly hold back results and should be treated as the first priority."
	case score.StatusAttention:
		return "The site works but carries relevant weaknesses whose correction would bring clear gains."
	default:
		return "The site is in good shape overall and the focus can shift to incremental improvements."
	}
}

func categorySentence(r *Report, key string, cat classify.Category) string {
	cs := r.Scores.ByCategory(cat)
	if cs == nil || !cs.Evaluated {
		return "This area could not be evaluated because no pages were analyzed."
	}

	focus := fallbackFocus[key]
	if f := worstFinding(r, cat); f != nil {
		if stripped := stripURLsAndMetrics(f.Title); stripped != "" {
			focus = strings.ToLower(stripped)
		}
	}

	switch cs.Status {
	case score.StatusCritical:
		return fmt.Sprintf("There is a critical problem around %s that needs correction before anything else.", focus)
	case score.StatusAttention:
		return fmt.Sprintf("There is room to improve %s and doing so should be part of the next cycle.", focus)
	default:
		if f := worstFinding(r, cat); f == nil {
			return fmt.Sprintf("No relevant problems were found around %s.", focus)
		}
		return fmt.Sprintf("This area is healthy, with only minor adjustments around %s.", focus)
	}
}

func bottleneckSentence(r *Report) string {
	s := r.Section(SectionCriticalBottlenecks)
	if s == nil || s.Empty || len(s.Findings) == 0 {
		return "No critical bottlenecks were identified in the analyzed pages."
	}
	focus := fallbackFocus["critical_bottlenecks"]
	if stripped := stripURLsAndMetrics(s.Findings[0].Title); stripped != "" {
		focus = strings.ToLower(stripped)
	}
	return fmt.Sprintf("The most urgent bottleneck involves %s and resolving it unlocks the rest of the plan.", focus)
}

// worstFinding returns the highest-severity penalizing finding of a
// category, or nil when the category has none.
func worstFinding(r *Report, cat classify.Category) *classify.Finding {
	var worst *classify.Finding
	for _, s := range r.Sections {
		if categorySections[s.ID] != cat {
			continue
		}
		for i := range s.Findings {
			f := &s.Findings[i]
			if f.Kind != classify.KindWeakness && f.Kind != classify.KindCriticalBottleneck {
				continue
			}
			if worst == nil || classify.SeverityOrder[f.Severity] > classify.SeverityOrder[worst.Severity] {
				worst = f
			}
		}
	}
	return worst
}

// stripURLsAndMetrics removes URLs, markup and numbers so finding text
// can be reused inside prose.
func stripURLsAndMetrics(text string) string {
	text = urlPattern.ReplaceAllString(text, "")
	text = tagPattern.ReplaceAllString(text, "")
	text = digitPattern.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, ".", " ")
	text = spacesPattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// SingleSentence keeps only the first sentence and normalizes its
// terminal punctuation.
func SingleSentence(text string) string {
	text = strings.TrimSpace(spacesPattern.ReplaceAllString(text, " "))
	if text == "" {
		return ""
	}
	for _, sep := range []string{". ", "! ", "? "} {
		if idx := strings.Index(text, sep); idx >= 0 {
			text = text[:idx+1]
			break
		}
	}
	text = strings.TrimRight(text, ".!?,;: ")
	return text + "."
}
