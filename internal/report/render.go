package report

import (
	"fmt"
	"strings"

	"github.com/site-audit/siteaudit/internal/classify"
)

// RenderText renders the report as plain text, one block per section in
// the fixed order. Intended for logs, CLIs and snapshot comparison.
func RenderText(r *Report) string {
	var b strings.Builder

	for _, s := range r.Sections {
		fmt.Fprintf(&b, "=== %s ===\n", s.Title)
		if s.Summary != "" {
			b.WriteString(s.Summary)
			b.WriteByte('\n')
		}
		if s.Score != nil {
			if s.Score.Evaluated {
				fmt.Fprintf(&b, "Score: %d (%s)\n", s.Score.Score, s.Score.Status)
			} else {
				b.WriteString("Score: not evaluated\n")
			}
		}
		for _, line := range s.Lines {
			b.WriteString(line)
			b.WriteByte('\n')
		}
		for _, f := range s.Findings {
			renderFinding(&b, f)
		}
		if len(s.NextActions) > 0 {
			b.WriteString("Next actions:\n")
			for _, a := range s.NextActions {
				fmt.Fprintf(&b, "  - %s\n", a)
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func renderFinding(b *strings.Builder, f classify.Finding) {
	fmt.Fprintf(b, "[%s] %s\n", strings.ToUpper(string(f.Severity)), f.Title)
	if f.Description != "" {
		fmt.Fprintf(b, "    %s\n", f.Description)
	}
	if f.Remediation != "" {
		fmt.Fprintf(b, "    Fix: %s\n", f.Remediation)
	}
	if len(f.AffectedURLs) > 0 {
		limit := len(f.AffectedURLs)
		if limit > 3 {
			limit = 3
		}
		fmt.Fprintf(b, "    Affected: %s\n", strings.Join(f.AffectedURLs[:limit], ", "))
	}
}
