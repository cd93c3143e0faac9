// Package clauses holds the immutable building by-law clause table and
// answers applicability and search queries over it.
package clauses

import (
	"sort"
	"strings"

	"daritana-compliance/models"

	"go.uber.org/zap"
)

// Repository is a read-only, in-memory clause table. It is safe for
// concurrent use once constructed.
type Repository struct {
	clauses []models.Clause
	byID    map[string]int
	logger  *zap.Logger
}

// NewRepository creates a clause repository over a validated table.
// Clauses are ordered by id.
func NewRepository(table []models.Clause, logger *zap.Logger) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}

	sorted := make([]models.Clause, len(table))
	copy(sorted, table)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ID < sorted[j].ID
	})

	byID := make(map[string]int, len(sorted))
	for i, c := range sorted {
		byID[c.ID] = i
	}

	return &Repository{
		clauses: sorted,
		byID:    byID,
		logger:  logger,
	}
}

// NewDefaultRepository creates a repository over the embedded UBBL table
func NewDefaultRepository(logger *zap.Logger) (*Repository, error) {
	table, err := LoadDefault()
	if err != nil {
		return nil, err
	}
	return NewRepository(table, logger), nil
}

// All returns every clause ordered by id
func (r *Repository) All() []models.Clause {
	out := make([]models.Clause, len(r.clauses))
	copy(out, r.clauses)
	return out
}

// Len returns the number of clauses in the table
func (r *Repository) Len() int {
	return len(r.clauses)
}

// GetByID retrieves a clause by id
func (r *Repository) GetByID(id string) (models.Clause, bool) {
	i, ok := r.byID[id]
	if !ok {
		return models.Clause{}, false
	}
	return r.clauses[i], true
}

// Applicable returns every clause covering the building type, ordered by id.
// An unrecognised building type yields no clauses.
func (r *Repository) Applicable(buildingType models.BuildingType) []models.Clause {
	if !buildingType.IsValid() {
		r.logger.Warn("Unrecognised building type in applicability lookup",
			zap.String("building_type", string(buildingType)),
		)
		return []models.Clause{}
	}

	out := make([]models.Clause, 0, len(r.clauses))
	for _, c := range r.clauses {
		if c.AppliesTo(buildingType) {
			out = append(out, c)
		}
	}
	return out
}

// ClauseQuery filters a clause search. Empty fields match everything.
type ClauseQuery struct {
	Text         string
	BuildingType models.BuildingType
	Section      string
	Category     models.ClauseCategory
}

// Search returns clauses matching every non-empty field of the query.
// Text is matched case-insensitively against id, title and description;
// Section is matched case-insensitively as a substring.
func (r *Repository) Search(q ClauseQuery) []models.Clause {
	text := strings.ToLower(strings.TrimSpace(q.Text))
	section := strings.ToLower(strings.TrimSpace(q.Section))

	out := make([]models.Clause, 0)
	for _, c := range r.clauses {
		if q.BuildingType != "" && !c.AppliesTo(q.BuildingType) {
			continue
		}
		if q.Category != "" && c.Category != q.Category {
			continue
		}
		if section != "" && !strings.Contains(strings.ToLower(c.Section), section) {
			continue
		}
		if text != "" &&
			!strings.Contains(strings.ToLower(c.ID), text) &&
			!strings.Contains(strings.ToLower(c.Title), text) &&
			!strings.Contains(strings.ToLower(c.Description), text) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Sections returns the distinct sections in the table, sorted
func (r *Repository) Sections() []string {
	seen := make(map[string]bool)
	var out []string
	for _, c := range r.clauses {
		if !seen[c.Section] {
			seen[c.Section] = true
			out = append(out, c.Section)
		}
	}
	sort.Strings(out)
	return out
}
