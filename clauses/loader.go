package clauses

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"daritana-compliance/models"

	"gopkg.in/yaml.v3"
)

//go:embed data/ubbl.yaml
var defaultTable []byte

// ErrInvalidClauseTable is returned when clause data cannot be loaded.
// It is never returned by evaluation.
var ErrInvalidClauseTable = errors.New("invalid clause table")

// tableFile is the on-disk shape of a clause table
type tableFile struct {
	Version int             `yaml:"version"`
	Clauses []models.Clause `yaml:"clauses"`
}

// LoadDefault parses the embedded UBBL clause table
func LoadDefault() ([]models.Clause, error) {
	return Parse(bytes.NewReader(defaultTable))
}

// LoadFile parses a clause table from a YAML file
func LoadFile(path string) ([]models.Clause, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidClauseTable, err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse decodes and validates a YAML clause table
func Parse(r io.Reader) ([]models.Clause, error) {
	var table tableFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&table); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidClauseTable, err)
	}

	if len(table.Clauses) == 0 {
		return nil, fmt.Errorf("%w: no clauses defined", ErrInvalidClauseTable)
	}

	seen := make(map[string]bool, len(table.Clauses))
	for i, clause := range table.Clauses {
		if clause.ID == "" {
			return nil, fmt.Errorf("%w: clause %d has no id", ErrInvalidClauseTable, i)
		}
		if seen[clause.ID] {
			return nil, fmt.Errorf("%w: duplicate clause id %s", ErrInvalidClauseTable, clause.ID)
		}
		seen[clause.ID] = true

		if err := validateClause(clause); err != nil {
			return nil, fmt.Errorf("%w: clause %s: %v", ErrInvalidClauseTable, clause.ID, err)
		}
	}

	return table.Clauses, nil
}

func validateClause(c models.Clause) error {
	if !c.Category.IsValid() {
		return fmt.Errorf("unknown category %q", c.Category)
	}
	if c.Severity != "" && !c.Severity.IsValid() {
		return fmt.Errorf("unknown severity %q", c.Severity)
	}
	if len(c.ApplicableTo) == 0 {
		return errors.New("no applicable building types")
	}
	for _, bt := range c.ApplicableTo {
		if bt != models.BuildingAll && !bt.IsValid() {
			return fmt.Errorf("unknown building type %q", bt)
		}
	}
	if len(c.Requirements) == 0 {
		return errors.New("no requirements")
	}
	for _, p := range c.Conditions {
		if err := validatePredicate(p); err != nil {
			return fmt.Errorf("condition: %w", err)
		}
	}
	for _, p := range c.Requirements {
		if err := validatePredicate(p); err != nil {
			return fmt.Errorf("requirement: %w", err)
		}
	}
	return nil
}

func validatePredicate(p models.Predicate) error {
	if !p.Parameter.IsValid() {
		return fmt.Errorf("unknown parameter %q", p.Parameter)
	}
	if !p.Comparator.IsValid() {
		return fmt.Errorf("unknown comparator %q", p.Comparator)
	}
	for _, v := range []float64{p.Value, p.Min, p.Max} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("threshold %v is not a finite number", v)
		}
	}
	if p.Comparator == models.CompareBetween && p.Min > p.Max {
		return fmt.Errorf("range min %v exceeds max %v", p.Min, p.Max)
	}
	return nil
}
