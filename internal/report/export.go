package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ExportXLSX writes the report as a spreadsheet with three sheets:
// Scores, Findings and Worst Pages.
func ExportXLSX(r *Report, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	if err := writeScoresSheet(f, r, headerStyle); err != nil {
		return err
	}
	if err := writeFindingsSheet(f, r, headerStyle); err != nil {
		return err
	}
	if err := writeWorstPagesSheet(f, r, headerStyle); err != nil {
		return err
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("delete default sheet: %w", err)
	}
	if idx, err := f.GetSheetIndex("Scores"); err == nil && idx >= 0 {
		f.SetActiveSheet(idx)
	}
	return f.Write(w)
}

func writeScoresSheet(f *excelize.File, r *Report, headerStyle int) error {
	const sheet = "Scores"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}

	headers := []string{"Category", "Score", "Status", "Evaluated"}
	if err := writeHeaderRow(f, sheet, headers, headerStyle); err != nil {
		return err
	}

	row := 2
	setRow(f, sheet, row, []interface{}{"overall", r.Scores.Overall, string(r.Scores.Status), true})
	for _, cs := range r.Scores.Categories {
		row++
		scoreCell := interface{}(cs.Score)
		if !cs.Evaluated {
			scoreCell = "not evaluated"
		}
		setRow(f, sheet, row, []interface{}{string(cs.Category), scoreCell, string(cs.Status), cs.Evaluated})
	}
	return autoWidth(f, sheet, headers)
}

func writeFindingsSheet(f *excelize.File, r *Report, headerStyle int) error {
	const sheet = "Findings"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}

	headers := []string{"Category", "Kind", "Severity", "Title", "Description", "Remediation", "Affected URLs"}
	if err := writeHeaderRow(f, sheet, headers, headerStyle); err != nil {
		return err
	}

	row := 1
	for _, s := range r.Sections {
		for _, fnd := range s.Findings {
			row++
			setRow(f, sheet, row, []interface{}{
				string(fnd.Category),
				string(fnd.Kind),
				string(fnd.Severity),
				fnd.Title,
				fnd.Description,
				fnd.Remediation,
				strings.Join(fnd.AffectedURLs, "\n"),
			})
		}
	}
	return autoWidth(f, sheet, headers)
}

func writeWorstPagesSheet(f *excelize.File, r *Report, headerStyle int) error {
	const sheet = "Worst Pages"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}

	headers := []string{"URL", "HTTP Status", "Total Issues", "Performance", "SEO", "UX", "Accessibility", "Conversion"}
	if err := writeHeaderRow(f, sheet, headers, headerStyle); err != nil {
		return err
	}

	for i, p := range r.WorstPages {
		setRow(f, sheet, i+2, []interface{}{
			p.URL,
			p.Status,
			p.TotalIssues,
			p.IssuesByCategory["performance"],
			p.IssuesByCategory["seo"],
			p.IssuesByCategory["ux"],
			p.IssuesByCategory["accessibility"],
			p.IssuesByCategory["conversion"],
		})
	}
	return autoWidth(f, sheet, headers)
}

func writeHeaderRow(f *excelize.File, sheet string, headers []string, style int) error {
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			continue
		}
		_ = f.SetCellValue(sheet, cell, v)
	}
}

// autoWidth sizes columns from header length, clamped to a sane range.
func autoWidth(f *excelize.File, sheet string, headers []string) error {
	for i, h := range headers {
		width := float64(len(h) + 6)
		if width < 15 {
			width = 15
		}
		if width > 50 {
			width = 50
		}
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return err
		}
	}
	return nil
}
