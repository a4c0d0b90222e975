// Package report assembles crawl results, findings and scores into the
// fixed-shape audit report. The section set and order never vary: a
// section with nothing to say still appears, carrying an explicit
// no-findings marker, so consumers can rely on the shape.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/site-audit/siteaudit/internal/classify"
	"github.com/site-audit/siteaudit/internal/config"
	"github.com/site-audit/siteaudit/internal/crawler"
	"github.com/site-audit/siteaudit/internal/score"
)

// SectionID names one fixed report section.
type SectionID string

const (
	SectionCover                   SectionID = "cover"
	SectionSiteOverview            SectionID = "site_overview"
	SectionTechnicalPerformance    SectionID = "technical_performance"
	SectionOnPageSEO               SectionID = "onpage_seo"
	SectionUserExperience          SectionID = "user_experience"
	SectionAccessibility           SectionID = "accessibility"
	SectionConversionCommunication SectionID = "conversion_communication"
	SectionStrengths               SectionID = "strengths"
	SectionCriticalBottlenecks     SectionID = "critical_bottlenecks"
	SectionStrategicOpportunities  SectionID = "strategic_opportunities"
	SectionConsolidatedDiagnosis   SectionID = "consolidated_diagnosis"
	SectionWorstPages              SectionID = "worst_pages"
)

// SectionOrder is the fixed section sequence of every report.
var SectionOrder = []SectionID{
	SectionCover,
	SectionSiteOverview,
	SectionTechnicalPerformance,
	SectionOnPageSEO,
	SectionUserExperience,
	SectionAccessibility,
	SectionConversionCommunication,
	SectionStrengths,
	SectionCriticalBottlenecks,
	SectionStrategicOpportunities,
	SectionConsolidatedDiagnosis,
	SectionWorstPages,
}

var sectionTitles = map[SectionID]string{
	SectionCover:                   "WEBSITE AUDIT",
	SectionSiteOverview:            "SITE OVERVIEW",
	SectionTechnicalPerformance:    "TECHNICAL PERFORMANCE",
	SectionOnPageSEO:               "ON-PAGE SEO",
	SectionUserExperience:          "USER EXPERIENCE (UX)",
	SectionAccessibility:           "ACCESSIBILITY",
	SectionConversionCommunication: "CONVERSION & COMMUNICATION",
	SectionStrengths:               "STRENGTHS",
	SectionCriticalBottlenecks:     "CRITICAL BOTTLENECKS",
	SectionStrategicOpportunities:  "STRATEGIC OPPORTUNITIES",
	SectionConsolidatedDiagnosis:   "CONSOLIDATED DIAGNOSIS",
	SectionWorstPages:              "WORST PAGES",
}

// NoSignificantFindings marks an intentionally empty section.
const NoSignificantFindings = "No significant findings."

// categorySections maps the finding categories onto their sections.
var categorySections = map[SectionID]classify.Category{
	SectionTechnicalPerformance:    classify.CategoryPerformance,
	SectionOnPageSEO:               classify.CategorySEO,
	SectionUserExperience:          classify.CategoryUX,
	SectionAccessibility:           classify.CategoryAccessibility,
	SectionConversionCommunication: classify.CategoryConversion,
}

// Section is one fixed report block.
type Section struct {
	ID       SectionID          `json:"id"`
	Title    string             `json:"title"`
	Summary  string             `json:"summary"`
	Lines    []string           `json:"lines,omitempty"`
	Findings []classify.Finding `json:"findings,omitempty"`

	// Score is set only on category sections.
	Score *score.CategoryScore `json:"score,omitempty"`

	NextActions []string `json:"next_actions,omitempty"`

	// Empty is true when the section carries the no-findings marker.
	Empty bool `json:"empty"`
}

// WorstPage is one appendix row: a page ranked by how many penalizing
// findings reference it.
type WorstPage struct {
	URL         string `json:"url"`
	Status      int    `json:"status"`
	TotalIssues int    `json:"total_issues"`

	IssuesByCategory map[classify.Category]int `json:"issues_by_category"`
}

// CrawlStats summarizes the crawl behind the report.
type CrawlStats struct {
	PagesScanned   int      `json:"pages_scanned"`
	PagesFetched   int      `json:"pages_fetched"`
	PagesFailed    int      `json:"pages_failed"`
	SkippedRobots  int      `json:"skipped_robots"`
	SkippedNonHTML int      `json:"skipped_non_html"`
	RuntimeSeconds float64  `json:"runtime_seconds"`
	LinksChecked   int      `json:"links_checked"`
	BrokenLinks    int      `json:"broken_links"`
	RobotsPresent  bool     `json:"robots_present"`
	SitemapPresent bool     `json:"sitemap_present"`
	LimitNotes     []string `json:"limit_notes,omitempty"`
}

// Report is the complete immutable audit artifact.
type Report struct {
	URL         string         `json:"url"`
	Profile     config.Profile `json:"profile"`
	GeneratedAt time.Time      `json:"generated_at"`
	Crawl       CrawlStats     `json:"crawl"`
	Scores      *score.Result  `json:"scores"`
	Sections    []Section      `json:"sections"`
	WorstPages  []WorstPage    `json:"worst_pages"`
}

// Section returns the section with the given ID; sections always exist.
func (r *Report) Section(id SectionID) *Section {
	for i := range r.Sections {
		if r.Sections[i].ID == id {
			return &r.Sections[i]
		}
	}
	return nil
}

// Assemble builds the fixed-shape report from one crawl's output.
func Assemble(res *crawler.Result, findings []classify.Finding, scores *score.Result, profile config.Profile) *Report {
	r := &Report{
		URL:         res.StartURL,
		Profile:     profile,
		GeneratedAt: time.Now().UTC(),
		Scores:      scores,
		Crawl:       crawlStats(res),
	}

	for _, id := range SectionOrder {
		r.Sections = append(r.Sections, buildSection(id, res, findings, scores, r))
	}
	r.WorstPages = worstPages(res, findings)
	if wp := r.Section(SectionWorstPages); wp != nil {
		wp.Lines = worstPageLines(r.WorstPages)
		if len(wp.Lines) == 0 {
			markEmpty(wp)
		}
	}
	return r
}

func crawlStats(res *crawler.Result) CrawlStats {
	stats := CrawlStats{
		PagesScanned:   len(res.Pages),
		PagesFetched:   res.PagesFetched,
		PagesFailed:    res.PagesFailed,
		RuntimeSeconds: res.Runtime.Seconds(),
		LinksChecked:   res.LinksChecked,
		BrokenLinks:    len(res.BrokenLinks),
		RobotsPresent:  res.Robots.RobotsPresent,
		SitemapPresent: res.Robots.SitemapPresent,
		LimitNotes:     res.LimitNotes,
	}
	for _, p := range res.Pages {
		switch p.Outcome {
		case crawler.OutcomeSkippedRobots:
			stats.SkippedRobots++
		case crawler.OutcomeSkippedHTML:
			stats.SkippedNonHTML++
		}
	}
	return stats
}

func buildSection(id SectionID, res *crawler.Result, findings []classify.Finding, scores *score.Result, r *Report) Section {
	s := Section{ID: id, Title: sectionTitles[id]}

	if cat, ok := categorySections[id]; ok {
		buildCategorySection(&s, cat, findings, scores)
		return s
	}

	switch id {
	case SectionCover:
		buildCover(&s, res, scores, r)
	case SectionSiteOverview:
		buildOverview(&s, res, scores)
	case SectionStrengths:
		buildKindSection(&s, findings, classify.KindStrength,
			"What the site already does well.")
	case SectionCriticalBottlenecks:
		buildKindSection(&s, findings, classify.KindCriticalBottleneck,
			"Problems that interrupt the visitor journey or crawling.")
	case SectionStrategicOpportunities:
		buildOpportunities(&s, findings)
	case SectionConsolidatedDiagnosis:
		buildDiagnosis(&s, findings, scores)
	case SectionWorstPages:
		s.Summary = "Pages with the highest concentration of findings."
	}
	return s
}

func buildCategorySection(s *Section, cat classify.Category, findings []classify.Finding, scores *score.Result) {
	s.Score = scores.ByCategory(cat)

	var catFindings []classify.Finding
	for _, f := range findings {
		if f.Category == cat {
			catFindings = append(catFindings, f)
		}
	}
	sortFindings(catFindings)
	if len(catFindings) > 10 {
		catFindings = catFindings[:10]
	}
	s.Findings = catFindings

	if s.Score != nil && !s.Score.Evaluated {
		s.Summary = "Not evaluated: no HTML pages could be analyzed."
		markEmpty(s)
		return
	}
	if len(catFindings) == 0 {
		markEmpty(s)
		return
	}
	weak := 0
	for _, f := range catFindings {
		if f.Kind == classify.KindWeakness || f.Kind == classify.KindCriticalBottleneck {
			weak++
		}
	}
	s.Summary = fmt.Sprintf("%d findings, %d of them needing correction.", len(catFindings), weak)
	s.NextActions = nextActions(catFindings)
}

func buildCover(s *Section, res *crawler.Result, scores *score.Result, r *Report) {
	s.Summary = "Automated website audit."
	s.Lines = []string{
		"Site: " + res.StartURL,
		"Generated: " + r.GeneratedAt.Format(time.RFC3339),
		fmt.Sprintf("Profile: %s", r.Profile),
		fmt.Sprintf("Overall score: %d (%s)", scores.Overall, scores.Status),
	}
}

func buildOverview(s *Section, res *crawler.Result, scores *score.Result) {
	s.Summary = "Context gathered from the crawl."

	var lines []string
	if strings.HasPrefix(res.Origin, "https://") {
		lines = append(lines, "HTTPS active.")
	} else {
		lines = append(lines, "HTTPS not identified.")
	}

	if p := firstSuccessful(res); p != nil {
		sig := p.Signals
		if sig.Title != "" {
			lines = append(lines, fmt.Sprintf("Apparent proposition: %q", firstNonEmpty(sig.H1Text, sig.Title)))
		}
		if sig.HasViewport {
			lines = append(lines, "Responsive (viewport meta present).")
		} else {
			lines = append(lines, "Responsiveness: needs validation.")
		}
		lines = append(lines, fmt.Sprintf("HTML size ~%.1f KB.", float64(sig.HTMLSizeBytes)/1024))
		if sig.HasOG {
			lines = append(lines, "Open Graph detected (social sharing).")
		}
	}
	lines = append(lines, fmt.Sprintf("Pages analyzed: %d in %.1fs.", res.PagesFetched, res.Runtime.Seconds()))
	if res.Robots.RobotsPresent {
		lines = append(lines, "robots.txt present.")
	}
	if res.Robots.SitemapPresent {
		lines = append(lines, "Sitemap present.")
	}
	lines = append(lines, scoreLine(scores))
	s.Lines = lines
}

func buildKindSection(s *Section, findings []classify.Finding, kind classify.Kind, summary string) {
	var kept []classify.Finding
	for _, f := range findings {
		if f.Kind == kind {
			kept = append(kept, f)
		}
	}
	sortFindings(kept)
	s.Findings = kept
	if len(kept) == 0 {
		markEmpty(s)
		return
	}
	s.Summary = summary
	for _, f := range kept {
		s.Lines = append(s.Lines, f.Title+": "+f.Description)
	}
}

func buildOpportunities(s *Section, findings []classify.Finding) {
	var actions []string
	seen := map[string]struct{}{}
	add := func(action string) {
		if action == "" {
			return
		}
		if _, ok := seen[action]; ok {
			return
		}
		seen[action] = struct{}{}
		actions = append(actions, action)
	}

	var opportunities []classify.Finding
	for _, f := range findings {
		if f.Kind == classify.KindOpportunity {
			opportunities = append(opportunities, f)
		}
	}
	sortFindings(opportunities)
	for _, f := range opportunities {
		add(f.Remediation)
	}
	// High-severity weaknesses are opportunities too once fixed.
	for _, f := range findings {
		if f.Kind == classify.KindWeakness && classify.SeverityOrder[f.Severity] >= classify.SeverityOrder[classify.SeverityHigh] {
			add(f.Remediation)
		}
	}

	if len(actions) > 15 {
		actions = actions[:15]
	}
	s.Findings = opportunities
	if len(actions) == 0 {
		markEmpty(s)
		return
	}
	s.Summary = fmt.Sprintf("%d prioritized actions.", len(actions))
	for i, action := range actions {
		s.Lines = append(s.Lines, fmt.Sprintf("%d) %s", i+1, action))
	}
	s.NextActions = actions
}

func buildDiagnosis(s *Section, findings []classify.Finding, scores *score.Result) {
	s.Summary = fmt.Sprintf("Overall score %d (%s).", scores.Overall, scores.Status)

	strengths, weaknesses, bottlenecks := 0, 0, 0
	for _, f := range findings {
		switch f.Kind {
		case classify.KindStrength:
			strengths++
		case classify.KindWeakness:
			weaknesses++
		case classify.KindCriticalBottleneck:
			bottlenecks++
		}
	}
	s.Lines = append(s.Lines,
		fmt.Sprintf("Current state: %d confirmed strengths.", strengths),
		fmt.Sprintf("Main challenges: %d weaknesses, %d critical bottlenecks.", weaknesses, bottlenecks),
	)
	for _, cs := range scores.Categories {
		if cs.Status == score.StatusCritical {
			s.Lines = append(s.Lines, fmt.Sprintf("Priority: %s requires immediate attention (score %d).", cs.Category, cs.Score))
		}
	}
	if strengths == 0 && weaknesses == 0 && bottlenecks == 0 {
		markEmpty(s)
	}
}

// worstPages ranks pages by how many penalizing findings reference them.
// Ranking ties keep crawl (BFS) order so reports stay deterministic.
func worstPages(res *crawler.Result, findings []classify.Finding) []WorstPage {
	const maxWorst = 20

	type counter struct {
		total  int
		byCat  map[classify.Category]int
		status int
		order  int
	}
	counts := map[string]*counter{}
	for i, p := range res.Pages {
		counts[p.URL] = &counter{byCat: map[classify.Category]int{}, status: p.Status, order: i}
	}

	for _, f := range findings {
		if f.Kind != classify.KindWeakness && f.Kind != classify.KindCriticalBottleneck {
			continue
		}
		for _, u := range f.AffectedURLs {
			if c, ok := counts[u]; ok {
				c.total++
				c.byCat[f.Category]++
			}
		}
	}

	var pages []WorstPage
	orderOf := map[string]int{}
	for url, c := range counts {
		if c.total == 0 {
			continue
		}
		orderOf[url] = c.order
		pages = append(pages, WorstPage{
			URL:              url,
			Status:           c.status,
			TotalIssues:      c.total,
			IssuesByCategory: c.byCat,
		})
	}
	sort.SliceStable(pages, func(a, b int) bool {
		if pages[a].TotalIssues != pages[b].TotalIssues {
			return pages[a].TotalIssues > pages[b].TotalIssues
		}
		return orderOf[pages[a].URL] < orderOf[pages[b].URL]
	})
	if len(pages) > maxWorst {
		pages = pages[:maxWorst]
	}
	return pages
}

func worstPageLines(pages []WorstPage) []string {
	lines := make([]string, 0, len(pages))
	for _, p := range pages {
		lines = append(lines, fmt.Sprintf("%s (status %d): %d findings", p.URL, p.Status, p.TotalIssues))
	}
	return lines
}

// nextActions collects up to five distinct remediations, worst first.
func nextActions(findings []classify.Finding) []string {
	var actions []string
	seen := map[string]struct{}{}
	for _, f := range findings {
		if f.Kind != classify.KindWeakness && f.Kind != classify.KindCriticalBottleneck {
			continue
		}
		if f.Remediation == "" {
			continue
		}
		if _, ok := seen[f.Remediation]; ok {
			continue
		}
		seen[f.Remediation] = struct{}{}
		actions = append(actions, f.Remediation)
		if len(actions) == 5 {
			break
		}
	}
	return actions
}

func sortFindings(findings []classify.Finding) {
	sort.SliceStable(findings, func(a, b int) bool {
		sa, sb := classify.SeverityOrder[findings[a].Severity], classify.SeverityOrder[findings[b].Severity]
		if sa != sb {
			return sa > sb
		}
		return strings.ToLower(findings[a].Title) < strings.ToLower(findings[b].Title)
	})
}

func markEmpty(s *Section) {
	s.Empty = true
	if s.Summary == "" {
		s.Summary = NoSignificantFindings
	}
	s.Lines = append(s.Lines, NoSignificantFindings)
}

func scoreLine(scores *score.Result) string {
	parts := make([]string, 0, len(scores.Categories))
	for _, cs := range scores.Categories {
		parts = append(parts, fmt.Sprintf("%s %d", cs.Category, cs.Score))
	}
	return fmt.Sprintf("Scores: overall %d | %s", scores.Overall, strings.Join(parts, " | "))
}

func firstSuccessful(res *crawler.Result) *crawler.PageRecord {
	for i := range res.Pages {
		if res.Pages[i].Outcome == crawler.OutcomeSuccess && res.Pages[i].Signals != nil {
			return &res.Pages[i]
		}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
