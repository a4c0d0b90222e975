package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/site-audit/siteaudit/internal/classify"
	"github.com/site-audit/siteaudit/internal/config"
	"github.com/site-audit/siteaudit/internal/crawler"
	"github.com/site-audit/siteaudit/internal/extract"
	"github.com/site-audit/siteaudit/internal/robots"
	"github.com/site-audit/siteaudit/internal/score"
)

func sampleCrawl() *crawler.Result {
	sig := &extract.Signals{
		Title:       "Acme Studio",
		H1Text:      "Design that sells",
		HasViewport: true,
		HasOG:       true,

		HTMLSizeBytes: 40_000,
	}
	return &crawler.Result{
		StartURL: "https://acme.example/",
		Origin:   "https://acme.example",
		Runtime:  3 * time.Second,
		Pages: []crawler.PageRecord{
			{URL: "https://acme.example/", FinalURL: "https://acme.example/", Outcome: crawler.OutcomeSuccess, Status: 200, Signals: sig},
			{URL: "https://acme.example/about", FinalURL: "https://acme.example/about", Depth: 1, Outcome: crawler.OutcomeSuccess, Status: 200, Signals: sig},
			{URL: "https://acme.example/old", FinalURL: "https://acme.example/old", Depth: 1, Outcome: crawler.OutcomeError, Status: 503},
		},
		Robots:       robots.Policy{RobotsPresent: true, SitemapPresent: true},
		PagesFetched: 3,
		PagesFailed:  1,
		LinksChecked: 5,
	}
}

func sampleFindings() []classify.Finding {
	return []classify.Finding{
		{
			ID: "seo-missing-title", Category: classify.CategorySEO, Kind: classify.KindWeakness,
			Severity: classify.SeverityHigh, Title: "Pages without a title tag",
			Description:  "2 pages are missing a title.",
			Remediation:  "Write a unique title for each page.",
			AffectedURLs: []string{"https://acme.example/about", "https://acme.example/old"},
		},
		{
			ID: "perf-slow-ttfb", Category: classify.CategoryPerformance, Kind: classify.KindWeakness,
			Severity: classify.SeverityMedium, Title: "Slow server responses",
			Description:  "Some pages take over 1.2s to respond.",
			Remediation:  "Add caching in front of the server.",
			AffectedURLs: []string{"https://acme.example/old"},
		},
		{
			ID: "critical-http-errors", Category: classify.CategoryUX, Kind: classify.KindCriticalBottleneck,
			Severity: classify.SeverityCritical, Title: "Pages returning server errors",
			Description:  "1 page returns HTTP 5xx.",
			Remediation:  "Fix or remove the failing pages.",
			AffectedURLs: []string{"https://acme.example/old"},
		},
		{
			ID: "ux-mobile-ready", Category: classify.CategoryUX, Kind: classify.KindStrength,
			Severity: classify.SeverityLow, Title: "Mobile-ready layout",
			Description: "The viewport meta tag is configured.",
		},
		{
			ID: "seo-add-schema", Category: classify.CategorySEO, Kind: classify.KindOpportunity,
			Severity: classify.SeverityLow, Title: "Structured data opportunity",
			Remediation: "Add schema.org markup to the home page.",
		},
	}
}

func sampleReport(t *testing.T) *Report {
	t.Helper()
	res := sampleCrawl()
	findings := sampleFindings()
	scores := score.Score(findings, 2)
	return Assemble(res, findings, scores, config.ProfileFull)
}

func TestAssembleKeepsFixedSectionOrder(t *testing.T) {
	r := sampleReport(t)

	require.Len(t, r.Sections, len(SectionOrder))
	for i, id := range SectionOrder {
		assert.Equal(t, id, r.Sections[i].ID)
		assert.NotEmpty(t, r.Sections[i].Title)
	}
}

func TestAssembleEmptySectionsCarryMarker(t *testing.T) {
	res := sampleCrawl()
	scores := score.Score(nil, 2)
	r := Assemble(res, nil, scores, config.ProfileFull)

	require.Len(t, r.Sections, len(SectionOrder))
	for _, id := range []SectionID{SectionStrengths, SectionCriticalBottlenecks, SectionStrategicOpportunities} {
		s := r.Section(id)
		require.NotNil(t, s)
		assert.True(t, s.Empty)
		assert.Contains(t, s.Lines, NoSignificantFindings)
	}
}

func TestAssembleCategorySections(t *testing.T) {
	r := sampleReport(t)

	seo := r.Section(SectionOnPageSEO)
	require.NotNil(t, seo)
	require.NotNil(t, seo.Score)
	assert.Equal(t, classify.CategorySEO, seo.Score.Category)
	// The opportunity and the weakness both live in the SEO section,
	// the weakness first.
	require.NotEmpty(t, seo.Findings)
	assert.Equal(t, "seo-missing-title", seo.Findings[0].ID)
	assert.Equal(t, []string{"Write a unique title for each page."}, seo.NextActions)

	ux := r.Section(SectionUserExperience)
	require.NotNil(t, ux)
	require.NotEmpty(t, ux.Findings)
	assert.Equal(t, "critical-http-errors", ux.Findings[0].ID)
}

func TestAssembleKindSections(t *testing.T) {
	r := sampleReport(t)

	strengths := r.Section(SectionStrengths)
	require.NotNil(t, strengths)
	assert.False(t, strengths.Empty)
	require.Len(t, strengths.Findings, 1)
	assert.Equal(t, "ux-mobile-ready", strengths.Findings[0].ID)

	bottlenecks := r.Section(SectionCriticalBottlenecks)
	require.NotNil(t, bottlenecks)
	require.Len(t, bottlenecks.Findings, 1)
	assert.Equal(t, "critical-http-errors", bottlenecks.Findings[0].ID)

	opps := r.Section(SectionStrategicOpportunities)
	require.NotNil(t, opps)
	assert.False(t, opps.Empty)
	// Opportunity remediation first, then high-severity weakness fixes.
	require.NotEmpty(t, opps.NextActions)
	assert.Equal(t, "Add schema.org markup to the home page.", opps.NextActions[0])
	assert.Contains(t, opps.NextActions, "Write a unique title for each page.")
}

func TestWorstPagesRankedByIssueCount(t *testing.T) {
	r := sampleReport(t)

	require.Len(t, r.WorstPages, 2)
	assert.Equal(t, "https://acme.example/old", r.WorstPages[0].URL)
	assert.Equal(t, 3, r.WorstPages[0].TotalIssues)
	assert.Equal(t, 503, r.WorstPages[0].Status)
	assert.Equal(t, "https://acme.example/about", r.WorstPages[1].URL)
	assert.Equal(t, 1, r.WorstPages[1].TotalIssues)

	// The issue-free home page never appears.
	for _, p := range r.WorstPages {
		assert.NotEqual(t, "https://acme.example/", p.URL)
	}
}

func TestWorstPagesTieBreakKeepsCrawlOrder(t *testing.T) {
	res := sampleCrawl()
	findings := []classify.Finding{
		{
			ID: "seo-missing-title", Category: classify.CategorySEO, Kind: classify.KindWeakness,
			Severity: classify.SeverityHigh, Title: "Pages without a title tag",
			AffectedURLs: []string{"https://acme.example/old", "https://acme.example/about"},
		},
	}
	r := Assemble(res, findings, score.Score(findings, 2), config.ProfileFull)

	require.Len(t, r.WorstPages, 2)
	assert.Equal(t, "https://acme.example/about", r.WorstPages[0].URL)
	assert.Equal(t, "https://acme.example/old", r.WorstPages[1].URL)
}

func TestCrawlStats(t *testing.T) {
	res := sampleCrawl()
	res.Pages = append(res.Pages, crawler.PageRecord{URL: "https://acme.example/private", Outcome: crawler.OutcomeSkippedRobots})
	r := Assemble(res, nil, score.Score(nil, 2), config.ProfileSummary)

	assert.Equal(t, 4, r.Crawl.PagesScanned)
	assert.Equal(t, 3, r.Crawl.PagesFetched)
	assert.Equal(t, 1, r.Crawl.SkippedRobots)
	assert.True(t, r.Crawl.RobotsPresent)
	assert.True(t, r.Crawl.SitemapPresent)
	assert.Equal(t, config.ProfileSummary, r.Profile)
}

func TestRenderTextContainsAllHeadings(t *testing.T) {
	r := sampleReport(t)
	text := RenderText(r)

	for _, id := range SectionOrder {
		assert.Contains(t, text, "=== "+sectionTitles[id]+" ===")
	}
	assert.Contains(t, text, "Pages without a title tag")
	assert.Contains(t, text, "Score:")
}

func TestRenderTextNotEvaluated(t *testing.T) {
	res := sampleCrawl()
	r := Assemble(res, nil, score.Score(nil, 0), config.ProfileFull)

	text := RenderText(r)
	assert.Contains(t, text, "Score: not evaluated")
}

func TestExportXLSX(t *testing.T) {
	r := sampleReport(t)

	var buf bytes.Buffer
	require.NoError(t, ExportXLSX(r, &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	assert.Contains(t, sheets, "Scores")
	assert.Contains(t, sheets, "Findings")
	assert.Contains(t, sheets, "Worst Pages")
	assert.NotContains(t, sheets, "Sheet1")

	rows, err := f.GetRows("Findings")
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	assert.Equal(t, "Category", rows[0][0])
	assert.Greater(t, len(rows), 1)
}
