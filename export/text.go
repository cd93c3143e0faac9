package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"daritana-compliance/models"
)

const timeLayout = "2006-01-02 15:04 MST"

// lines returns the plain text body shared by the text and PDF renderers
func lines(r *models.ComplianceReport) []string {
	out := []string{
		"UBBL COMPLIANCE REPORT",
		"",
		"Report ID:    " + r.ID.String(),
		"Check ID:     " + r.CheckID.String(),
		fmt.Sprintf("Project:      %s (%s)", r.ProjectName, r.ProjectID),
		"Generated:    " + r.GeneratedAt.UTC().Format(timeLayout),
	}
	if r.ValidUntil != nil {
		out = append(out, "Valid until:  "+r.ValidUntil.UTC().Format(timeLayout))
	}
	if r.CertifiedBy != nil {
		out = append(out, "Certified by: "+*r.CertifiedBy)
	}

	out = append(out,
		"",
		"Building:     "+describeBuilding(r.Building),
		fmt.Sprintf("Compliance score: %d/100", r.Score),
		fmt.Sprintf("Clauses checked: %d (passed %d, failed %d)", r.TotalClauses, r.PassedClauses, r.FailedClauses),
		"",
		fmt.Sprintf("Violations (%d):", len(r.Violations)),
	)
	if len(r.Violations) == 0 {
		out = append(out, "  None")
	}
	for i, v := range r.Violations {
		out = append(out, fmt.Sprintf("  %d. [%s] %s - %s", i+1, strings.ToUpper(string(v.Severity)), v.ClauseID, v.Description))
	}

	out = append(out, "", "Recommendations:")
	if len(r.Recommendations) == 0 {
		out = append(out, "  None")
	}
	for _, rec := range r.Recommendations {
		out = append(out, "  - "+rec)
	}

	if r.Summary != nil && *r.Summary != "" {
		out = append(out, "", "Summary:")
		for _, line := range strings.Split(*r.Summary, "\n") {
			out = append(out, "  "+line)
		}
	}
	return out
}

func describeBuilding(b models.BuildingParameters) string {
	return fmt.Sprintf("%s, %g m high, %g m² floor area, %d occupants",
		b.Type, b.Height, b.FloorArea, b.Occupancy)
}

func renderText(w io.Writer, r *models.ComplianceReport) error {
	for _, line := range lines(r) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func renderMarkdown(w io.Writer, r *models.ComplianceReport) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# UBBL Compliance Report: %s\n\n", r.ProjectName)
	fmt.Fprintf(&b, "| Field | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Report ID | `%s` |\n", r.ID)
	fmt.Fprintf(&b, "| Project ID | %s |\n", r.ProjectID)
	fmt.Fprintf(&b, "| Generated | %s |\n", r.GeneratedAt.UTC().Format(timeLayout))
	if r.ValidUntil != nil {
		fmt.Fprintf(&b, "| Valid until | %s |\n", r.ValidUntil.UTC().Format(timeLayout))
	}
	if r.CertifiedBy != nil {
		fmt.Fprintf(&b, "| Certified by | %s |\n", *r.CertifiedBy)
	}
	fmt.Fprintf(&b, "| Building | %s |\n", describeBuilding(r.Building))
	fmt.Fprintf(&b, "| Compliance score | **%d/100** |\n", r.Score)
	fmt.Fprintf(&b, "| Clauses | %d checked, %d passed, %d failed |\n\n", r.TotalClauses, r.PassedClauses, r.FailedClauses)

	fmt.Fprintf(&b, "## Violations (%d)\n\n", len(r.Violations))
	if len(r.Violations) == 0 {
		b.WriteString("No violations.\n\n")
	} else {
		b.WriteString("| # | Clause | Severity | Description |\n|---|---|---|---|\n")
		for i, v := range r.Violations {
			fmt.Fprintf(&b, "| %d | %s | %s | %s |\n", i+1, v.ClauseID, v.Severity, escapePipes(v.Description))
		}
		b.WriteString("\n")
	}

	b.WriteString("## Recommendations\n\n")
	if len(r.Recommendations) == 0 {
		b.WriteString("None.\n")
	}
	for _, rec := range r.Recommendations {
		fmt.Fprintf(&b, "- %s\n", rec)
	}

	if r.Summary != nil && *r.Summary != "" {
		fmt.Fprintf(&b, "\n## Summary\n\n%s\n", *r.Summary)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func escapePipes(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func renderJSON(w io.Writer, r *models.ComplianceReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// renderCSV writes a key/value header block followed by the violation table
func renderCSV(w io.Writer, r *models.ComplianceReport) error {
	cw := csv.NewWriter(w)

	validUntil := ""
	if r.ValidUntil != nil {
		validUntil = r.ValidUntil.UTC().Format(time.RFC3339)
	}
	certifiedBy := ""
	if r.CertifiedBy != nil {
		certifiedBy = *r.CertifiedBy
	}

	records := [][]string{
		{"field", "value"},
		{"report_id", r.ID.String()},
		{"project_id", r.ProjectID},
		{"project_name", r.ProjectName},
		{"generated_date", r.GeneratedAt.UTC().Format(time.RFC3339)},
		{"valid_until", validUntil},
		{"certified_by", certifiedBy},
		{"building_type", string(r.Building.Type)},
		{"building_height_m", strconv.FormatFloat(r.Building.Height, 'f', -1, 64)},
		{"floor_area_m2", strconv.FormatFloat(r.Building.FloorArea, 'f', -1, 64)},
		{"occupancy", strconv.Itoa(r.Building.Occupancy)},
		{"compliance_score", strconv.Itoa(r.Score)},
		{"total_clauses", strconv.Itoa(r.TotalClauses)},
		{"passed_clauses", strconv.Itoa(r.PassedClauses)},
		{"failed_clauses", strconv.Itoa(r.FailedClauses)},
		{"violation_count", strconv.Itoa(len(r.Violations))},
		{},
		{"clause_id", "severity", "description"},
	}
	for _, v := range r.Violations {
		records = append(records, []string{v.ClauseID, string(v.Severity), v.Description})
	}
	records = append(records, []string{}, []string{"recommendation"})
	for _, rec := range r.Recommendations {
		records = append(records, []string{rec})
	}

	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}
