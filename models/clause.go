package models

// BuildingType represents the occupancy classification of a building
type BuildingType string

const (
	BuildingResidential   BuildingType = "residential"
	BuildingCommercial    BuildingType = "commercial"
	BuildingIndustrial    BuildingType = "industrial"
	BuildingInstitutional BuildingType = "institutional"
	BuildingAssembly      BuildingType = "assembly"
	BuildingMixedUse      BuildingType = "mixed_use"

	// BuildingAll marks a clause as applicable to every building type.
	// It is only valid in clause data, never as a building's own type.
	BuildingAll BuildingType = "all"
)

// BuildingTypes lists every concrete building type
var BuildingTypes = []BuildingType{
	BuildingResidential,
	BuildingCommercial,
	BuildingIndustrial,
	BuildingInstitutional,
	BuildingAssembly,
	BuildingMixedUse,
}

// IsValid reports whether t is a concrete building type
func (t BuildingType) IsValid() bool {
	for _, known := range BuildingTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ClauseCategory represents how binding a clause is
type ClauseCategory string

const (
	CategoryMandatory   ClauseCategory = "mandatory"
	CategoryConditional ClauseCategory = "conditional"
	CategoryRecommended ClauseCategory = "recommended"
)

// IsValid reports whether c is a known category
func (c ClauseCategory) IsValid() bool {
	switch c {
	case CategoryMandatory, CategoryConditional, CategoryRecommended:
		return true
	}
	return false
}

// Severity represents the seriousness of a violation
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityMajor    Severity = "major"
	SeverityMinor    Severity = "minor"
)

// IsValid reports whether s is a known severity
func (s Severity) IsValid() bool {
	switch s {
	case SeverityCritical, SeverityMajor, SeverityMinor:
		return true
	}
	return false
}

// OrDefault returns s, or the lowest tier when s is empty
func (s Severity) OrDefault() Severity {
	if s == "" {
		return SeverityMinor
	}
	return s
}

// Rank orders severities from most to least serious (critical = 0)
func (s Severity) Rank() int {
	switch s.OrDefault() {
	case SeverityCritical:
		return 0
	case SeverityMajor:
		return 1
	case SeverityMinor:
		return 2
	}
	return 3
}

// Parameter names a building parameter a predicate constrains
type Parameter string

const (
	ParamHeight    Parameter = "height"
	ParamFloorArea Parameter = "floor_area"
	ParamOccupancy Parameter = "occupancy"
)

// IsValid reports whether p is a known parameter
func (p Parameter) IsValid() bool {
	switch p {
	case ParamHeight, ParamFloorArea, ParamOccupancy:
		return true
	}
	return false
}

// Unit returns the display unit of the parameter
func (p Parameter) Unit() string {
	switch p {
	case ParamHeight:
		return "m"
	case ParamFloorArea:
		return "m²"
	case ParamOccupancy:
		return "persons"
	}
	return ""
}

// Comparator is the relation a predicate checks
type Comparator string

const (
	CompareAtMost  Comparator = "at_most"
	CompareAtLeast Comparator = "at_least"
	CompareEquals  Comparator = "equals"
	CompareBetween Comparator = "between"
)

// IsValid reports whether c is a known comparator
func (c Comparator) IsValid() bool {
	switch c {
	case CompareAtMost, CompareAtLeast, CompareEquals, CompareBetween:
		return true
	}
	return false
}

// Predicate is a single constraint over a named building parameter.
// Value is used by at_most, at_least and equals; Min and Max by between.
type Predicate struct {
	Parameter  Parameter  `json:"parameter" yaml:"parameter"`
	Comparator Comparator `json:"comparator" yaml:"comparator"`
	Value      float64    `json:"value,omitempty" yaml:"value,omitempty"`
	Min        float64    `json:"min,omitempty" yaml:"min,omitempty"`
	Max        float64    `json:"max,omitempty" yaml:"max,omitempty"`
}

// Clause represents a regulatory clause of the building by-laws
type Clause struct {
	ID             string         `json:"id" yaml:"id"`
	Title          string         `json:"title" yaml:"title"`
	Description    string         `json:"description" yaml:"description"`
	Section        string         `json:"section" yaml:"section"`
	Category       ClauseCategory `json:"category" yaml:"category"`
	Severity       Severity       `json:"severity,omitempty" yaml:"severity,omitempty"`
	ApplicableTo   []BuildingType `json:"applicable_to" yaml:"applicable_to"`
	Conditions     []Predicate    `json:"conditions,omitempty" yaml:"conditions,omitempty"`
	Requirements   []Predicate    `json:"requirements" yaml:"requirements"`
	Recommendation string         `json:"recommendation,omitempty" yaml:"recommendation,omitempty"`
}

// AppliesTo reports whether the clause covers the given building type
func (c Clause) AppliesTo(t BuildingType) bool {
	for _, bt := range c.ApplicableTo {
		if bt == BuildingAll || bt == t {
			return true
		}
	}
	return false
}
