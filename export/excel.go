package export

import (
	"fmt"
	"io"
	"time"

	"daritana-compliance/models"

	"github.com/xuri/excelize/v2"
)

const (
	summarySheet         = "Summary"
	violationsSheet      = "Violations"
	recommendationsSheet = "Recommendations"
)

// renderExcel writes a workbook with a summary sheet, the violation table
// and the recommendations
func renderExcel(w io.Writer, r *models.ComplianceReport) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}
	for _, name := range []string{violationsSheet, recommendationsSheet} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create %s sheet: %w", name, err)
		}
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	validUntil := ""
	if r.ValidUntil != nil {
		validUntil = r.ValidUntil.UTC().Format(time.RFC3339)
	}
	certifiedBy := ""
	if r.CertifiedBy != nil {
		certifiedBy = *r.CertifiedBy
	}

	summary := [][]interface{}{
		{"Field", "Value"},
		{"Report ID", r.ID.String()},
		{"Check ID", r.CheckID.String()},
		{"Project ID", r.ProjectID},
		{"Project name", r.ProjectName},
		{"Generated", r.GeneratedAt.UTC().Format(time.RFC3339)},
		{"Valid until", validUntil},
		{"Certified by", certifiedBy},
		{"Building type", string(r.Building.Type)},
		{"Building height (m)", r.Building.Height},
		{"Floor area (m²)", r.Building.FloorArea},
		{"Occupancy", r.Building.Occupancy},
		{"Compliance score", r.Score},
		{"Total clauses", r.TotalClauses},
		{"Passed clauses", r.PassedClauses},
		{"Failed clauses", r.FailedClauses},
		{"Violations", len(r.Violations)},
	}
	if r.Summary != nil && *r.Summary != "" {
		summary = append(summary, []interface{}{"Summary", *r.Summary})
	}

	violations := [][]interface{}{{"#", "Clause", "Severity", "Description"}}
	for i, v := range r.Violations {
		violations = append(violations, []interface{}{i + 1, v.ClauseID, string(v.Severity), v.Description})
	}

	recommendations := [][]interface{}{{"Recommendation"}}
	for _, rec := range r.Recommendations {
		recommendations = append(recommendations, []interface{}{rec})
	}

	sheets := []struct {
		name  string
		rows  [][]interface{}
		width float64
	}{
		{summarySheet, summary, 24},
		{violationsSheet, violations, 14},
		{recommendationsSheet, recommendations, 100},
	}
	for _, s := range sheets {
		if err := writeRows(f, s.name, s.rows, header); err != nil {
			return err
		}
		if err := f.SetColWidth(s.name, "A", "B", s.width); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(violationsSheet, "D", "D", 80); err != nil {
		return err
	}
	f.SetActiveSheet(0)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// writeRows fills a sheet from A1 and styles the first row as a header
func writeRows(f *excelize.File, sheet string, rows [][]interface{}, header int) error {
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}

	last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, header)
}
