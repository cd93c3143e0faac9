package evaluator

import (
	"errors"
	"math"
	"testing"

	"daritana-compliance/clauses"
	"daritana-compliance/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func defaultEvaluator(t *testing.T) (*Evaluator, *clauses.Repository) {
	t.Helper()
	repo, err := clauses.NewDefaultRepository(zap.NewNop())
	require.NoError(t, err)
	return New(repo), repo
}

// staticSource serves a fixed clause list regardless of building type
type staticSource []models.Clause

func (s staticSource) Applicable(models.BuildingType) []models.Clause { return s }

func residential(height, floorArea float64, occupancy int) models.BuildingParameters {
	return models.BuildingParameters{
		Type:      models.BuildingResidential,
		Height:    height,
		FloorArea: floorArea,
		Occupancy: occupancy,
	}
}

func TestHolds(t *testing.T) {
	b := residential(12, 500, 20)

	tests := []struct {
		name string
		p    models.Predicate
		want bool
	}{
		{"at_most pass", models.Predicate{Parameter: models.ParamHeight, Comparator: models.CompareAtMost, Value: 15}, true},
		{"at_most boundary", models.Predicate{Parameter: models.ParamHeight, Comparator: models.CompareAtMost, Value: 12}, true},
		{"at_most fail", models.Predicate{Parameter: models.ParamOccupancy, Comparator: models.CompareAtMost, Value: 15}, false},
		{"at_least pass", models.Predicate{Parameter: models.ParamFloorArea, Comparator: models.CompareAtLeast, Value: 37}, true},
		{"at_least fail", models.Predicate{Parameter: models.ParamFloorArea, Comparator: models.CompareAtLeast, Value: 501}, false},
		{"equals pass", models.Predicate{Parameter: models.ParamOccupancy, Comparator: models.CompareEquals, Value: 20}, true},
		{"equals fail", models.Predicate{Parameter: models.ParamOccupancy, Comparator: models.CompareEquals, Value: 21}, false},
		{"between inclusive min", models.Predicate{Parameter: models.ParamHeight, Comparator: models.CompareBetween, Min: 12, Max: 20}, true},
		{"between inclusive max", models.Predicate{Parameter: models.ParamFloorArea, Comparator: models.CompareBetween, Min: 100, Max: 500}, true},
		{"between outside", models.Predicate{Parameter: models.ParamHeight, Comparator: models.CompareBetween, Min: 0, Max: 11.9}, false},
		{"unknown comparator", models.Predicate{Parameter: models.ParamHeight, Comparator: "roughly", Value: 12}, false},
		{"unknown parameter", models.Predicate{Parameter: "storeys", Comparator: models.CompareAtMost, Value: 99}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Holds(tt.p, b))
		})
	}
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "occupancy must be at most 15 persons",
		Describe(models.Predicate{Parameter: models.ParamOccupancy, Comparator: models.CompareAtMost, Value: 15}))
	assert.Equal(t, "floor area must be between 50 and 4500 m²",
		Describe(models.Predicate{Parameter: models.ParamFloorArea, Comparator: models.CompareBetween, Min: 50, Max: 4500}))
}

func TestCheck_HeightClausePasses(t *testing.T) {
	clause := models.Clause{
		ID:           "H-1",
		Title:        "Residential height",
		Category:     models.CategoryMandatory,
		Severity:     models.SeverityMajor,
		ApplicableTo: []models.BuildingType{models.BuildingResidential},
		Requirements: []models.Predicate{{Parameter: models.ParamHeight, Comparator: models.CompareAtMost, Value: 15}},
	}
	e := New(staticSource{clause})

	result := e.Check(residential(12, 500, 20))
	assert.Equal(t, 100, result.Score)
	assert.Empty(t, result.Violations)
	assert.Empty(t, result.Recommendations)
	assert.Equal(t, models.StringList{"H-1"}, result.ApplicableClauses)
}

func TestCheck_SingleStaircaseViolation(t *testing.T) {
	e, _ := defaultEvaluator(t)

	result := e.Check(residential(12, 500, 20))
	require.Len(t, result.Violations, 1)

	v := result.Violations[0]
	assert.Equal(t, "UBBL-168", v.ClauseID)
	assert.Equal(t, models.SeverityCritical, v.Severity)
	assert.Contains(t, v.Description, "occupancy must be at most 15 persons (actual 20 persons)")
	assert.Equal(t, 85, result.Score)
	require.Len(t, result.Recommendations, 1)
	assert.Contains(t, result.Recommendations[0], "second protected staircase")
}

func TestCheck_ConditionNotTriggered(t *testing.T) {
	e, _ := defaultEvaluator(t)

	// 30 m is above the single staircase threshold, so UBBL-168 does not
	// trigger, but UBBL-33 (major) and UBBL-225 (minor) fail.
	result := e.Check(residential(30, 500, 20))
	assert.Contains(t, result.ApplicableClauses, "UBBL-168")

	ids := make([]string, 0, len(result.Violations))
	for _, v := range result.Violations {
		ids = append(ids, v.ClauseID)
	}
	assert.Equal(t, []string{"UBBL-33", "UBBL-225"}, ids)
	assert.Equal(t, 100-5-5, result.Score)
}

func TestCheck_MissingSeverityDefaultsToLowestTier(t *testing.T) {
	clause := models.Clause{
		ID:           "X-1",
		Category:     models.CategoryRecommended,
		ApplicableTo: []models.BuildingType{models.BuildingAll},
		Requirements: []models.Predicate{{Parameter: models.ParamOccupancy, Comparator: models.CompareAtMost, Value: 1}},
	}
	e := New(staticSource{clause})

	result := e.Check(residential(3, 100, 5))
	require.Len(t, result.Violations, 1)
	assert.Equal(t, models.SeverityMinor, result.Violations[0].Severity)
	assert.Equal(t, 95, result.Score)
}

func TestCheck_RankingAndRecommendationDedup(t *testing.T) {
	req := []models.Predicate{{Parameter: models.ParamHeight, Comparator: models.CompareAtMost, Value: 1}}
	table := staticSource{
		{ID: "B", Severity: models.SeverityMinor, Requirements: req, Recommendation: "shared"},
		{ID: "A", Severity: models.SeverityMajor, Requirements: req, Recommendation: "shared"},
		{ID: "C", Severity: models.SeverityCritical, Requirements: req, Recommendation: "critical fix"},
	}
	e := New(table)

	result := e.Check(residential(10, 100, 1))
	require.Len(t, result.Violations, 3)
	assert.Equal(t, "C", result.Violations[0].ClauseID)
	assert.Equal(t, "A", result.Violations[1].ClauseID)
	assert.Equal(t, "B", result.Violations[2].ClauseID)
	assert.Equal(t, models.StringList{"critical fix", "shared"}, result.Recommendations)
	assert.Equal(t, 100-15-5-5, result.Score)
}

func TestCheck_Deterministic(t *testing.T) {
	e, _ := defaultEvaluator(t)

	for _, b := range sampleBuildings() {
		first := e.Check(b)
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, e.Check(b))
		}
	}
}

func TestCheck_ScoreBoundsAndApplicabilityClosure(t *testing.T) {
	e, repo := defaultEvaluator(t)

	for _, b := range sampleBuildings() {
		result := e.Check(b)
		assert.GreaterOrEqual(t, result.Score, 0)
		assert.LessOrEqual(t, result.Score, 100)

		applicable := make(map[string]bool)
		for _, c := range repo.Applicable(b.Type) {
			applicable[c.ID] = true
		}
		for _, id := range result.ApplicableClauses {
			assert.True(t, applicable[id], "clause %s not applicable to %s", id, b.Type)
		}
		for _, v := range result.Violations {
			assert.True(t, result.HasClause(v.ClauseID))
		}
	}
}

func TestCheck_ScoreFloorsAtZero(t *testing.T) {
	req := []models.Predicate{{Parameter: models.ParamHeight, Comparator: models.CompareAtMost, Value: 0}}
	var table staticSource
	for _, id := range []string{"A", "B", "C", "D", "E", "F", "G", "H"} {
		table = append(table, models.Clause{ID: id, Severity: models.SeverityCritical, Requirements: req})
	}
	e := New(table)

	result := e.Check(residential(10, 100, 1))
	assert.Len(t, result.Violations, 8)
	assert.Equal(t, 0, result.Score)
}

func TestCheck_UnknownTypeHasNoClauses(t *testing.T) {
	e, _ := defaultEvaluator(t)

	result := e.Check(models.BuildingParameters{Type: "spaceport", Height: 10, FloorArea: 10})
	assert.Empty(t, result.ApplicableClauses)
	assert.Equal(t, 100, result.Score)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		b       models.BuildingParameters
		wantErr bool
	}{
		{"valid", residential(12, 500, 20), false},
		{"zero height allowed", residential(0, 500, 0), false},
		{"unknown type", models.BuildingParameters{Type: "spaceport", Height: 1, FloorArea: 1}, true},
		{"all is not a type", models.BuildingParameters{Type: models.BuildingAll, Height: 1, FloorArea: 1}, true},
		{"negative height", residential(-1, 500, 20), true},
		{"absurd height", residential(1500, 500, 20), true},
		{"zero floor area", residential(12, 0, 20), true},
		{"negative occupancy", residential(12, 500, -3), true},
		{"NaN height", residential(math.NaN(), 500, 20), true},
		{"NaN floor area", residential(12, math.NaN(), 20), true},
		{"infinite height", residential(math.Inf(1), 500, 20), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.b)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidBuilding))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func sampleBuildings() []models.BuildingParameters {
	var out []models.BuildingParameters
	for _, bt := range models.BuildingTypes {
		for _, h := range []float64{0, 12, 18, 24.5, 60, 150, 1000} {
			for _, area := range []float64{20, 500, 3500, 8000, 250000} {
				for _, occ := range []int{0, 15, 20, 1200, 100000} {
					out = append(out, models.BuildingParameters{Type: bt, Height: h, FloorArea: area, Occupancy: occ})
				}
			}
		}
	}
	return out
}
