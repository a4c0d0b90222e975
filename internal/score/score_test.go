package score

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/site-audit/siteaudit/internal/classify"
)

func weakness(cat classify.Category, sev classify.Severity, title string) classify.Finding {
	return classify.Finding{
		Category: cat,
		Kind:     classify.KindWeakness,
		Severity: sev,
		Title:    title,
	}
}

func TestScoreNoFindings(t *testing.T) {
	res := Score(nil, 5)

	require.Len(t, res.Categories, len(classify.Categories))
	for _, cs := range res.Categories {
		assert.Equal(t, 100, cs.Score)
		assert.Equal(t, StatusOK, cs.Status)
		assert.True(t, cs.Evaluated)
	}
	assert.Equal(t, 100, res.Overall)
	assert.Equal(t, StatusOK, res.Status)
}

func TestScorePenalties(t *testing.T) {
	findings := []classify.Finding{
		weakness(classify.CategorySEO, classify.SeverityHigh, "a"),   // -20
		weakness(classify.CategorySEO, classify.SeverityMedium, "b"), // -10
		weakness(classify.CategorySEO, classify.SeverityLow, "c"),    // -4
		// strengths and opportunities never penalize
		{Category: classify.CategorySEO, Kind: classify.KindStrength, Severity: classify.SeverityLow},
		{Category: classify.CategorySEO, Kind: classify.KindOpportunity, Severity: classify.SeverityMedium},
	}

	res := Score(findings, 3)
	seo := res.ByCategory(classify.CategorySEO)
	require.NotNil(t, seo)
	assert.Equal(t, 66, seo.Score)
	assert.Equal(t, StatusAttention, seo.Status)
	assert.Equal(t, 3, seo.Findings)
}

func TestScoreCriticalForcesStatus(t *testing.T) {
	findings := []classify.Finding{
		{Category: classify.CategoryUX, Kind: classify.KindCriticalBottleneck, Severity: classify.SeverityCritical, Title: "down"},
	}
	res := Score(findings, 1)

	ux := res.ByCategory(classify.CategoryUX)
	require.NotNil(t, ux)
	assert.Equal(t, 65, ux.Score)
	assert.Equal(t, StatusCritical, ux.Status, "any critical finding forces critical status")
	assert.Equal(t, StatusCritical, res.Status)
}

func TestScoreFloorsAtZero(t *testing.T) {
	var findings []classify.Finding
	for i := 0; i < 10; i++ {
		findings = append(findings, classify.Finding{
			Category: classify.CategoryPerformance,
			Kind:     classify.KindWeakness,
			Severity: classify.SeverityCritical,
			Title:    string(rune('a' + i)),
		})
	}
	res := Score(findings, 1)
	perf := res.ByCategory(classify.CategoryPerformance)
	require.NotNil(t, perf)
	assert.Equal(t, 0, perf.Score)
}

func TestScoreCapsCountedFindings(t *testing.T) {
	var findings []classify.Finding
	for i := 0; i < 30; i++ {
		findings = append(findings, weakness(classify.CategoryConversion, classify.SeverityLow, string(rune('a'+i))))
	}
	res := Score(findings, 1)
	conv := res.ByCategory(classify.CategoryConversion)
	require.NotNil(t, conv)
	assert.Equal(t, 10, conv.Findings)
	assert.Equal(t, 60, conv.Score, "only the ten worst findings count")
}

func TestScoreBoundsAlwaysHold(t *testing.T) {
	findings := []classify.Finding{
		weakness(classify.CategorySEO, classify.SeverityCritical, "x"),
		weakness(classify.CategoryUX, classify.SeverityHigh, "y"),
	}
	res := Score(findings, 2)
	for _, cs := range res.Categories {
		assert.GreaterOrEqual(t, cs.Score, 0)
		assert.LessOrEqual(t, cs.Score, 100)
	}
	assert.GreaterOrEqual(t, res.Overall, 0)
	assert.LessOrEqual(t, res.Overall, 100)
}

func TestScoreNoPagesEvaluated(t *testing.T) {
	res := Score(nil, 0)
	for _, cs := range res.Categories {
		assert.False(t, cs.Evaluated)
	}
	assert.Equal(t, 100, res.Overall)
}
