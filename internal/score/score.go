// Package score folds findings into bounded category scores and one
// consolidated diagnostic score. Scoring is wholesale: every call
// recomputes from the full finding set, so a score can never drift from
// the findings it claims to summarize.
package score

import (
	"sort"
	"strings"

	"github.com/site-audit/siteaudit/internal/classify"
)

// Status grades a score for the report.
type Status string

const (
	StatusOK        Status = "ok"
	StatusAttention Status = "attention"
	StatusCritical  Status = "critical"
)

// severityPenalty is the score cost of one counted finding.
var severityPenalty = map[classify.Severity]int{
	classify.SeverityLow:      4,
	classify.SeverityMedium:   10,
	classify.SeverityHigh:     20,
	classify.SeverityCritical: 35,
}

// categoryWeights drives the consolidated score. All categories weigh
// the same; the table exists so a rebalancing is a data change.
var categoryWeights = map[classify.Category]int{
	classify.CategoryPerformance:   1,
	classify.CategorySEO:           1,
	classify.CategoryUX:            1,
	classify.CategoryAccessibility: 1,
	classify.CategoryConversion:    1,
}

// maxCountedFindings caps how many findings can drag one category down.
const maxCountedFindings = 10

const (
	criticalBelow  = 60
	attentionBelow = 85
)

// CategoryScore is the scored state of one audit category.
type CategoryScore struct {
	Category classify.Category `json:"category"`
	Score    int               `json:"score"`
	Status   Status            `json:"status"`
	Findings int               `json:"findings"`

	// Evaluated is false when the crawl produced no evaluable pages;
	// the Score then defaults to 100 but must be rendered as
	// "not evaluated" rather than as a clean bill of health.
	Evaluated bool `json:"evaluated"`
}

// Result carries all category scores plus the consolidated diagnosis.
type Result struct {
	Categories []CategoryScore `json:"categories"`
	Overall    int             `json:"overall"`
	Status     Status          `json:"status"`
}

// Score computes every category score and the consolidated score.
// pagesEvaluated is the number of successfully analyzed HTML pages.
func Score(findings []classify.Finding, pagesEvaluated int) *Result {
	res := &Result{}
	evaluated := pagesEvaluated > 0

	weightTotal := 0
	weightedSum := 0
	anyCritical := false

	for _, cat := range classify.Categories {
		counted := countedFindings(findings, cat)

		score := 100
		critical := false
		for _, f := range counted {
			score -= severityPenalty[f.Severity]
			if f.Severity == classify.SeverityCritical {
				critical = true
			}
		}
		if score < 0 {
			score = 0
		}

		cs := CategoryScore{
			Category:  cat,
			Score:     score,
			Status:    statusFor(score, critical),
			Findings:  len(counted),
			Evaluated: evaluated,
		}
		res.Categories = append(res.Categories, cs)

		if critical {
			anyCritical = true
		}
		if evaluated {
			w := categoryWeights[cat]
			weightTotal += w
			weightedSum += w * score
		}
	}

	if weightTotal > 0 {
		res.Overall = weightedSum / weightTotal
	} else {
		res.Overall = 100
	}
	res.Status = statusFor(res.Overall, anyCritical)
	return res
}

// countedFindings returns the findings that penalize a category: its
// weaknesses and critical bottlenecks, worst first, capped so a flood of
// minor findings cannot zero a score that a reader should still compare.
func countedFindings(findings []classify.Finding, cat classify.Category) []classify.Finding {
	var counted []classify.Finding
	for _, f := range findings {
		if f.Category != cat {
			continue
		}
		if f.Kind != classify.KindWeakness && f.Kind != classify.KindCriticalBottleneck {
			continue
		}
		counted = append(counted, f)
	}
	sort.SliceStable(counted, func(a, b int) bool {
		sa, sb := classify.SeverityOrder[counted[a].Severity], classify.SeverityOrder[counted[b].Severity]
		if sa != sb {
			return sa > sb
		}
		return strings.ToLower(counted[a].Title) < strings.ToLower(counted[b].Title)
	})
	if len(counted) > maxCountedFindings {
		counted = counted[:maxCountedFindings]
	}
	return counted
}

func statusFor(score int, hasCritical bool) Status {
	switch {
	case hasCritical || score < criticalBelow:
		return StatusCritical
	case score < attentionBelow:
		return StatusAttention
	default:
		return StatusOK
	}
}

// ByCategory returns the score entry for one category.
func (r *Result) ByCategory(cat classify.Category) *CategoryScore {
	for i := range r.Categories {
		if r.Categories[i].Category == cat {
			return &r.Categories[i]
		}
	}
	return nil
}
