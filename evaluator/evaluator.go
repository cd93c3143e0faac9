// Package evaluator checks building parameters against the clause table
// and scores the outcome. Evaluation is a pure function of its inputs and
// the immutable clause table.
package evaluator

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"daritana-compliance/models"
)

// Parameter limits accepted by Validate
const (
	MaxHeight    = 1000.0
	MaxFloorArea = 1_000_000.0
	MaxOccupancy = 100_000
)

// ErrInvalidBuilding is returned by Validate for out-of-range parameters
var ErrInvalidBuilding = errors.New("invalid building parameters")

// ClauseSource resolves the clauses applicable to a building type
type ClauseSource interface {
	Applicable(buildingType models.BuildingType) []models.Clause
}

// Outcome is the verdict for one applicable clause
type Outcome struct {
	Clause    models.Clause      `json:"clause"`
	Triggered bool               `json:"triggered"`
	Passed    bool               `json:"passed"`
	Failed    []models.Predicate `json:"failed,omitempty"`
}

// Evaluator runs the threshold checks
type Evaluator struct {
	clauses ClauseSource
}

// New creates an evaluator over a clause source
func New(clauses ClauseSource) *Evaluator {
	return &Evaluator{clauses: clauses}
}

// Validate rejects building parameters that cannot be scored
func Validate(b models.BuildingParameters) error {
	if !b.Type.IsValid() {
		return fmt.Errorf("%w: unknown building type %q", ErrInvalidBuilding, b.Type)
	}
	if math.IsNaN(b.Height) || math.IsNaN(b.FloorArea) {
		return fmt.Errorf("%w: height and floor area must be numbers", ErrInvalidBuilding)
	}
	if b.Height < 0 || b.Height > MaxHeight {
		return fmt.Errorf("%w: building height %g out of range [0, %g]", ErrInvalidBuilding, b.Height, MaxHeight)
	}
	if b.FloorArea <= 0 || b.FloorArea > MaxFloorArea {
		return fmt.Errorf("%w: floor area %g out of range (0, %g]", ErrInvalidBuilding, b.FloorArea, MaxFloorArea)
	}
	if b.Occupancy < 0 || b.Occupancy > MaxOccupancy {
		return fmt.Errorf("%w: occupancy %d out of range [0, %d]", ErrInvalidBuilding, b.Occupancy, MaxOccupancy)
	}
	return nil
}

// Evaluate returns the outcome of every applicable clause, in clause order.
// A clause whose conditions do not all hold is applicable but not
// triggered, and passes.
func (e *Evaluator) Evaluate(b models.BuildingParameters) []Outcome {
	applicable := e.clauses.Applicable(b.Type)
	outcomes := make([]Outcome, 0, len(applicable))

	for _, clause := range applicable {
		outcome := Outcome{Clause: clause, Triggered: true, Passed: true}

		for _, cond := range clause.Conditions {
			if !Holds(cond, b) {
				outcome.Triggered = false
				break
			}
		}

		if outcome.Triggered {
			for _, req := range clause.Requirements {
				if !Holds(req, b) {
					outcome.Passed = false
					outcome.Failed = append(outcome.Failed, req)
				}
			}
		}

		outcomes = append(outcomes, outcome)
	}

	return outcomes
}

// Check evaluates the building and aggregates the outcomes into a scored
// result. Violations are ranked by severity, then clause id; recommendations
// follow the ranked violations.
func (e *Evaluator) Check(b models.BuildingParameters) models.ComplianceResult {
	outcomes := e.Evaluate(b)

	result := models.ComplianceResult{
		ApplicableClauses: make(models.StringList, 0, len(outcomes)),
		Violations:        make(models.Violations, 0),
		Recommendations:   make(models.StringList, 0),
	}

	recommendationFor := make(map[string]string)
	for _, o := range outcomes {
		result.ApplicableClauses = append(result.ApplicableClauses, o.Clause.ID)
		if o.Passed {
			continue
		}
		result.Violations = append(result.Violations, models.Violation{
			ClauseID:    o.Clause.ID,
			Severity:    o.Clause.Severity.OrDefault(),
			Description: describeFailure(o, b),
		})
		recommendationFor[o.Clause.ID] = o.Clause.Recommendation
	}

	RankViolations(result.Violations)

	seen := make(map[string]bool)
	for _, v := range result.Violations {
		rec := recommendationFor[v.ClauseID]
		if rec == "" || seen[rec] {
			continue
		}
		seen[rec] = true
		result.Recommendations = append(result.Recommendations, rec)
	}

	result.Score = Score(result.Violations)
	return result
}

// RankViolations sorts violations most severe first, ties by clause id
func RankViolations(violations []models.Violation) {
	sort.SliceStable(violations, func(i, j int) bool {
		ri, rj := violations[i].Severity.Rank(), violations[j].Severity.Rank()
		if ri != rj {
			return ri < rj
		}
		return violations[i].ClauseID < violations[j].ClauseID
	})
}

func describeFailure(o Outcome, b models.BuildingParameters) string {
	parts := make([]string, 0, len(o.Failed))
	for _, p := range o.Failed {
		actual, _ := parameterValue(p.Parameter, b)
		parts = append(parts, fmt.Sprintf("%s (actual %s %s)", Describe(p), formatNumber(actual), p.Parameter.Unit()))
	}
	return fmt.Sprintf("%s: %s", o.Clause.Title, strings.Join(parts, "; "))
}
