// Package classify turns crawl output into category-tagged findings.
// Rules are a fixed ordered list; each inspects the crawl independently
// and yields at most one finding, so runs over identical crawl results
// always produce identical findings in identical order.
package classify

import (
	"github.com/site-audit/siteaudit/internal/crawler"
	"github.com/site-audit/siteaudit/internal/robots"
)

// Category is one of the five fixed audit dimensions.
type Category string

const (
	CategoryPerformance   Category = "performance"
	CategorySEO           Category = "seo"
	CategoryUX            Category = "ux"
	CategoryAccessibility Category = "accessibility"
	CategoryConversion    Category = "conversion"
)

// Categories lists every category in report order.
var Categories = []Category{
	CategoryPerformance,
	CategorySEO,
	CategoryUX,
	CategoryAccessibility,
	CategoryConversion,
}

// Kind tells the report how to present a finding.
type Kind string

const (
	KindStrength           Kind = "strength"
	KindWeakness           Kind = "weakness"
	KindOpportunity        Kind = "opportunity"
	KindCriticalBottleneck Kind = "critical-bottleneck"
)

// Severity grades how much a finding hurts its category score.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// SeverityOrder ranks severities for sorting; higher sorts first.
var SeverityOrder = map[Severity]int{
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

// Evidence points at the concrete page and value behind a finding.
type Evidence struct {
	URL      string `json:"url"`
	Selector string `json:"selector,omitempty"`
	Value    string `json:"value,omitempty"`
	Metric   int    `json:"metric,omitempty"`
}

// Finding is one classified observation about the site.
type Finding struct {
	ID           string     `json:"id"`
	Category     Category   `json:"category"`
	Kind         Kind       `json:"kind"`
	Severity     Severity   `json:"severity"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Impact       string     `json:"impact"`
	Remediation  string     `json:"remediation"`
	Evidence     []Evidence `json:"evidence,omitempty"`
	AffectedURLs []string   `json:"affected_urls,omitempty"`
}

// Input is the crawl material the rules evaluate.
type Input struct {
	Origin     string
	Pages      []crawler.PageRecord
	Robots     robots.Policy
	Broken     []crawler.BrokenLink
	LimitNotes []string

	// IncludeLimitFindings controls whether a budget-truncated crawl
	// yields a partial-crawl finding. The summary profile always runs
	// truncated, so it suppresses this.
	IncludeLimitFindings bool
}

// Rule inspects a crawl and yields at most one finding.
type Rule interface {
	ID() string
	Evaluate(in *Input) *Finding
}

// Classify runs every rule in fixed order and collects the findings.
func Classify(in *Input) []Finding {
	var findings []Finding
	for _, rule := range Rules {
		if f := rule.Evaluate(in); f != nil {
			findings = append(findings, *f)
		}
	}
	return findings
}

// htmlPages returns the successfully fetched HTML pages, in crawl order.
func htmlPages(in *Input) []*crawler.PageRecord {
	var pages []*crawler.PageRecord
	for i := range in.Pages {
		p := &in.Pages[i]
		if p.Outcome == crawler.OutcomeSuccess && p.Signals != nil {
			pages = append(pages, p)
		}
	}
	return pages
}

// primaryPage is the first successful page, normally the seed.
func primaryPage(in *Input) *crawler.PageRecord {
	pages := htmlPages(in)
	if len(pages) == 0 {
		return nil
	}
	return pages[0]
}

func filterPages(pages []*crawler.PageRecord, keep func(*crawler.PageRecord) bool) []*crawler.PageRecord {
	var out []*crawler.PageRecord
	for _, p := range pages {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

func topURLs(pages []*crawler.PageRecord) []string {
	const limit = 25
	urls := make([]string, 0, len(pages))
	for _, p := range pages {
		urls = append(urls, p.URL)
		if len(urls) == limit {
			break
		}
	}
	return urls
}
