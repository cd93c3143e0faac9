package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

// outputResult writes the result in the specified format.
func outputResult(w io.Writer, result interface{}, format string) error {
	switch format {
	case "json":
		return outputJSON(w, result)
	case "yaml":
		return outputYAML(w, result)
	case "table", "":
		return outputTable(w, result)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func outputJSON(w io.Writer, result interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func outputYAML(w io.Writer, result interface{}) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(result); err != nil {
		return err
	}
	return encoder.Close()
}

func outputTable(out io.Writer, result interface{}) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	switch r := result.(type) {
	case CheckResult:
		return outputCheckTable(w, r)
	case ClausesResult:
		return outputClausesTable(w, r)
	case ExplainResult:
		return outputExplainTable(w, r)
	default:
		// Fall back to JSON for unknown types
		return outputJSON(out, result)
	}
}

func outputCheckTable(w *tabwriter.Writer, r CheckResult) error {
	fmt.Fprintf(w, "BUILDING:\t%s, %g m, %g m², %d occupants\n",
		r.Building.Type, r.Building.Height, r.Building.FloorArea, r.Building.Occupancy)
	fmt.Fprintf(w, "STATUS:\t%s\n", strings.ToUpper(string(r.Status)))
	fmt.Fprintf(w, "SCORE:\t%d/100\n\n", r.Score)

	fmt.Fprintln(w, "CLAUSE\tVERDICT\tTITLE")
	for _, o := range r.Outcomes {
		fmt.Fprintf(w, "%s\t%s\t%s\n", o.ClauseID, o.Verdict, o.Title)
	}

	if len(r.Violations) > 0 {
		fmt.Fprintln(w, "\nVIOLATIONS:")
		fmt.Fprintln(w, "CLAUSE\tSEVERITY\tDESCRIPTION")
		for _, v := range r.Violations {
			fmt.Fprintf(w, "%s\t%s\t%s\n", v.ClauseID, v.Severity, v.Description)
		}
	}

	if len(r.Recommendations) > 0 {
		fmt.Fprintln(w, "\nRECOMMENDATIONS:")
		for _, rec := range r.Recommendations {
			fmt.Fprintf(w, "- %s\n", rec)
		}
	}

	return nil
}

func outputClausesTable(w *tabwriter.Writer, r ClausesResult) error {
	fmt.Fprintf(w, "TOTAL\t%d\n\n", r.Total)

	fmt.Fprintln(w, "ID\tCATEGORY\tSEVERITY\tTITLE")
	for _, c := range r.Clauses {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.ID, c.Category, c.Severity, c.Title)
	}

	return nil
}

func outputExplainTable(w *tabwriter.Writer, r ExplainResult) error {
	fmt.Fprintf(w, "CLAUSE:\t%s %s\n", r.Clause.ID, r.Clause.Title)
	fmt.Fprintf(w, "SECTION:\t%s\n", r.Clause.Section)
	fmt.Fprintf(w, "CATEGORY:\t%s\n", r.Clause.Category)
	fmt.Fprintf(w, "SEVERITY:\t%s (-%d points)\n", r.Clause.Severity.OrDefault(), r.Penalty)
	fmt.Fprintf(w, "APPLIES TO:\t%s\n\n", strings.Join(r.AppliesTo, ", "))

	fmt.Fprintf(w, "%s\n", r.Clause.Description)

	if len(r.Conditions) > 0 {
		fmt.Fprintln(w, "\nONLY WHEN:")
		for _, c := range r.Conditions {
			fmt.Fprintf(w, "- %s\n", c)
		}
	}

	fmt.Fprintln(w, "\nREQUIREMENTS:")
	for _, req := range r.Requirements {
		fmt.Fprintf(w, "- %s\n", req)
	}

	if r.Clause.Recommendation != "" {
		fmt.Fprintf(w, "\nIF VIOLATED:\n%s\n", r.Clause.Recommendation)
	}

	return nil
}
