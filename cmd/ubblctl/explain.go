package main

import (
	"fmt"
	"strings"

	"daritana-compliance/evaluator"
	"daritana-compliance/models"

	"github.com/spf13/cobra"
)

// ExplainResult is the output of the explain command
type ExplainResult struct {
	Clause       models.Clause `json:"clause" yaml:"clause"`
	AppliesTo    []string      `json:"applies_to" yaml:"applies_to"`
	Conditions   []string      `json:"conditions,omitempty" yaml:"conditions,omitempty"`
	Requirements []string      `json:"requirements" yaml:"requirements"`
	Penalty      int           `json:"penalty" yaml:"penalty"`
}

func explainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "explain [clause-id]",
		Short: "Explain a clause in plain language",
		Long: `Show a clause's requirements, the building types it covers and
the score penalty for violating it.

Examples:
  ubblctl explain UBBL-168
  ubblctl explain ubbl-33 -o yaml`,
		Args: cobra.ExactArgs(1),
		RunE: runExplain,
	}
}

func runExplain(cmd *cobra.Command, args []string) error {
	repo, err := loadClauses()
	if err != nil {
		return err
	}

	id := strings.ToUpper(strings.TrimSpace(args[0]))
	clause, ok := repo.GetByID(id)
	if !ok {
		return fmt.Errorf("clause %s not found", id)
	}

	result := ExplainResult{
		Clause:  clause,
		Penalty: evaluator.ScoreDelta(clause.Severity.OrDefault()),
	}
	for _, t := range clause.ApplicableTo {
		if t == models.BuildingAll {
			result.AppliesTo = []string{"all building types"}
			break
		}
		result.AppliesTo = append(result.AppliesTo, string(t))
	}
	for _, p := range clause.Conditions {
		result.Conditions = append(result.Conditions, evaluator.Describe(p))
	}
	for _, p := range clause.Requirements {
		result.Requirements = append(result.Requirements, evaluator.Describe(p))
	}

	return outputResult(cmd.OutOrStdout(), result, outputFmt)
}
