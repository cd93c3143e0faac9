package main

import (
	"strings"

	"daritana-compliance/evaluator"
	"daritana-compliance/models"

	"github.com/spf13/cobra"
)

var (
	checkType      string
	checkHeight    float64
	checkFloorArea float64
	checkOccupancy int
)

// ClauseOutcome is the verdict for one applicable clause
type ClauseOutcome struct {
	ClauseID string `json:"clause_id" yaml:"clause_id"`
	Title    string `json:"title" yaml:"title"`
	Verdict  string `json:"verdict" yaml:"verdict"`
}

// CheckResult is the output of the check command
type CheckResult struct {
	Building          models.BuildingParameters `json:"building" yaml:"building"`
	Status            models.CheckStatus        `json:"status" yaml:"status"`
	Score             int                       `json:"compliance_score" yaml:"compliance_score"`
	ApplicableClauses []string                  `json:"applicable_clauses" yaml:"applicable_clauses"`
	Violations        []models.Violation        `json:"violations" yaml:"violations"`
	Recommendations   []string                  `json:"recommendations" yaml:"recommendations"`
	Outcomes          []ClauseOutcome           `json:"outcomes" yaml:"outcomes"`
}

// Clause verdicts
const (
	VerdictPass         = "PASS"
	VerdictFail         = "FAIL"
	VerdictNotTriggered = "NOT TRIGGERED"
)

func checkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Evaluate a building against the applicable clauses",
		Long: `Evaluate building parameters and print the compliance score,
violations and recommendations.

Examples:
  # Residential building with a single staircase
  ubblctl check --type residential --height 12 --floor-area 500 --occupancy 20

  # Output as JSON
  ubblctl check --type industrial --height 9 --floor-area 8000 --occupancy 60 -o json`,
		RunE: runCheck,
	}

	cmd.Flags().StringVarP(&checkType, "type", "t", "", "Building type (required): "+buildingTypeList())
	cmd.Flags().Float64Var(&checkHeight, "height", 0, "Building height in metres")
	cmd.Flags().Float64Var(&checkFloorArea, "floor-area", 0, "Floor area in square metres")
	cmd.Flags().IntVar(&checkOccupancy, "occupancy", 0, "Number of occupants")
	cmd.MarkFlagRequired("type")

	return cmd
}

func runCheck(cmd *cobra.Command, args []string) error {
	building := models.BuildingParameters{
		Type:      models.BuildingType(strings.ToLower(checkType)),
		Height:    checkHeight,
		FloorArea: checkFloorArea,
		Occupancy: checkOccupancy,
	}
	if err := evaluator.Validate(building); err != nil {
		return err
	}

	repo, err := loadClauses()
	if err != nil {
		return err
	}

	ev := evaluator.New(repo)
	result := ev.Check(building)

	status := models.CheckStatusCompleted
	if len(result.Violations) > 0 {
		status = models.CheckStatusFailed
	}

	out := CheckResult{
		Building:          building,
		Status:            status,
		Score:             result.Score,
		ApplicableClauses: result.ApplicableClauses,
		Violations:        result.Violations,
		Recommendations:   result.Recommendations,
	}
	for _, o := range ev.Evaluate(building) {
		verdict := VerdictPass
		switch {
		case !o.Triggered:
			verdict = VerdictNotTriggered
		case !o.Passed:
			verdict = VerdictFail
		}
		out.Outcomes = append(out.Outcomes, ClauseOutcome{
			ClauseID: o.Clause.ID,
			Title:    o.Clause.Title,
			Verdict:  verdict,
		})
	}

	return outputResult(cmd.OutOrStdout(), out, outputFmt)
}

func buildingTypeList() string {
	names := make([]string, 0, len(models.BuildingTypes))
	for _, t := range models.BuildingTypes {
		names = append(names, string(t))
	}
	return strings.Join(names, ", ")
}
