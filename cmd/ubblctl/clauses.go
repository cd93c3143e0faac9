package main

import (
	"fmt"
	"strings"

	"daritana-compliance/clauses"
	"daritana-compliance/models"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	clausesSearch   string
	clausesType     string
	clausesSection  string
	clausesCategory string
)

// ClauseSummary is one row of the clauses command
type ClauseSummary struct {
	ID       string                `json:"id" yaml:"id"`
	Title    string                `json:"title" yaml:"title"`
	Section  string                `json:"section" yaml:"section"`
	Category models.ClauseCategory `json:"category" yaml:"category"`
	Severity models.Severity       `json:"severity" yaml:"severity"`
}

// ClausesResult is the output of the clauses command
type ClausesResult struct {
	Total   int             `json:"total" yaml:"total"`
	Clauses []ClauseSummary `json:"clauses" yaml:"clauses"`
}

func clausesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clauses",
		Short: "Search the clause table",
		Long: `List clauses matching every given filter.

Examples:
  # All clauses covering industrial buildings
  ubblctl clauses --type industrial

  # Fire clauses mentioning staircases
  ubblctl clauses --section fire --search staircase`,
		RunE: runClauses,
	}

	cmd.Flags().StringVarP(&clausesSearch, "search", "s", "", "Text to match in id, title or description")
	cmd.Flags().StringVarP(&clausesType, "type", "t", "", "Building type")
	cmd.Flags().StringVar(&clausesSection, "section", "", "Section name (substring)")
	cmd.Flags().StringVar(&clausesCategory, "category", "", "Category: mandatory, conditional, recommended")

	return cmd
}

func runClauses(cmd *cobra.Command, args []string) error {
	query := clauses.ClauseQuery{
		Text:         clausesSearch,
		BuildingType: models.BuildingType(strings.ToLower(clausesType)),
		Section:      clausesSection,
		Category:     models.ClauseCategory(strings.ToLower(clausesCategory)),
	}
	if query.BuildingType != "" && !query.BuildingType.IsValid() {
		return fmt.Errorf("unknown building type %q (want one of: %s)", clausesType, buildingTypeList())
	}
	if query.Category != "" && !query.Category.IsValid() {
		return fmt.Errorf("unknown category %q", clausesCategory)
	}

	repo, err := loadClauses()
	if err != nil {
		return err
	}

	result := ClausesResult{Clauses: make([]ClauseSummary, 0)}
	for _, c := range repo.Search(query) {
		result.Clauses = append(result.Clauses, ClauseSummary{
			ID:       c.ID,
			Title:    c.Title,
			Section:  c.Section,
			Category: c.Category,
			Severity: c.Severity.OrDefault(),
		})
	}
	result.Total = len(result.Clauses)

	return outputResult(cmd.OutOrStdout(), result, outputFmt)
}

// loadClauses opens the clause table selected by --clauses
func loadClauses() (*clauses.Repository, error) {
	if clauseFile == "" {
		return clauses.NewDefaultRepository(zap.NewNop())
	}

	table, err := clauses.LoadFile(clauseFile)
	if err != nil {
		return nil, err
	}
	return clauses.NewRepository(table, zap.NewNop()), nil
}
