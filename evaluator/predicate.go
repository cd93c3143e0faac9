package evaluator

import (
	"fmt"

	"daritana-compliance/models"
)

// parameterValue extracts the building parameter a predicate constrains
func parameterValue(p models.Parameter, b models.BuildingParameters) (float64, bool) {
	switch p {
	case models.ParamHeight:
		return b.Height, true
	case models.ParamFloorArea:
		return b.FloorArea, true
	case models.ParamOccupancy:
		return float64(b.Occupancy), true
	}
	return 0, false
}

// Holds reports whether the building satisfies the predicate. Unknown
// parameters or comparators never hold.
func Holds(p models.Predicate, b models.BuildingParameters) bool {
	v, ok := parameterValue(p.Parameter, b)
	if !ok {
		return false
	}

	switch p.Comparator {
	case models.CompareAtMost:
		return v <= p.Value
	case models.CompareAtLeast:
		return v >= p.Value
	case models.CompareEquals:
		return v == p.Value
	case models.CompareBetween:
		return v >= p.Min && v <= p.Max
	}
	return false
}

// Describe renders the predicate as a human readable requirement
func Describe(p models.Predicate) string {
	unit := p.Parameter.Unit()
	name := parameterLabel(p.Parameter)

	switch p.Comparator {
	case models.CompareAtMost:
		return fmt.Sprintf("%s must be at most %s %s", name, formatNumber(p.Value), unit)
	case models.CompareAtLeast:
		return fmt.Sprintf("%s must be at least %s %s", name, formatNumber(p.Value), unit)
	case models.CompareEquals:
		return fmt.Sprintf("%s must equal %s %s", name, formatNumber(p.Value), unit)
	case models.CompareBetween:
		return fmt.Sprintf("%s must be between %s and %s %s", name, formatNumber(p.Min), formatNumber(p.Max), unit)
	}
	return fmt.Sprintf("%s %s", name, p.Comparator)
}

func parameterLabel(p models.Parameter) string {
	switch p {
	case models.ParamHeight:
		return "building height"
	case models.ParamFloorArea:
		return "floor area"
	case models.ParamOccupancy:
		return "occupancy"
	}
	return string(p)
}

func formatNumber(v float64) string {
	return fmt.Sprintf("%g", v)
}
