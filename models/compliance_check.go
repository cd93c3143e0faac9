package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// CheckStatus represents the workflow status of a compliance check
type CheckStatus string

const (
	CheckStatusPending    CheckStatus = "pending"
	CheckStatusInProgress CheckStatus = "in-progress"
	CheckStatusCompleted  CheckStatus = "completed"
	CheckStatusFailed     CheckStatus = "failed"
)

// IsValid reports whether s is a known status
func (s CheckStatus) IsValid() bool {
	switch s {
	case CheckStatusPending, CheckStatusInProgress, CheckStatusCompleted, CheckStatusFailed:
		return true
	}
	return false
}

// BuildingParameters is the snapshot of a building that a check evaluates
type BuildingParameters struct {
	Type      BuildingType `json:"building_type" yaml:"building_type"`
	Height    float64      `json:"building_height" yaml:"building_height"`
	FloorArea float64      `json:"floor_area" yaml:"floor_area"`
	Occupancy int          `json:"occupancy" yaml:"occupancy"`
}

// Value implements driver.Valuer for JSONB
func (b BuildingParameters) Value() (driver.Value, error) {
	return json.Marshal(b)
}

// Scan implements sql.Scanner for JSONB
func (b *BuildingParameters) Scan(value interface{}) error {
	bytes, ok := jsonBytes(value)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, b)
}

// Violation represents a failed clause on a compliance check
type Violation struct {
	ClauseID    string   `json:"clause_id" yaml:"clause_id"`
	Severity    Severity `json:"severity" yaml:"severity"`
	Description string   `json:"description" yaml:"description"`
}

// Violations represents a list of violations
type Violations []Violation

// Value implements driver.Valuer for JSONB
func (v Violations) Value() (driver.Value, error) {
	if v == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(v)
}

// Scan implements sql.Scanner for JSONB
func (v *Violations) Scan(value interface{}) error {
	bytes, ok := jsonBytes(value)
	if !ok {
		*v = make(Violations, 0)
		return nil
	}
	return json.Unmarshal(bytes, v)
}

// Clone returns a copy of the list
func (v Violations) Clone() Violations {
	if v == nil {
		return nil
	}
	out := make(Violations, len(v))
	copy(out, v)
	return out
}

// StringList represents a list of strings stored as JSON
type StringList []string

// Value implements driver.Valuer for JSONB
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner for JSONB
func (l *StringList) Scan(value interface{}) error {
	bytes, ok := jsonBytes(value)
	if !ok {
		*l = make(StringList, 0)
		return nil
	}
	return json.Unmarshal(bytes, l)
}

// Clone returns a copy of the list
func (l StringList) Clone() StringList {
	if l == nil {
		return nil
	}
	out := make(StringList, len(l))
	copy(out, l)
	return out
}

// ComplianceResult is the outcome of evaluating a building against the
// clause table. It is embedded in a ComplianceCheck.
type ComplianceResult struct {
	Score             int        `json:"compliance_score"`
	ApplicableClauses StringList `json:"applicable_clauses"`
	Violations        Violations `json:"violations"`
	Recommendations   StringList `json:"recommendations"`
}

// Value implements driver.Valuer for JSONB
func (r ComplianceResult) Value() (driver.Value, error) {
	return json.Marshal(r)
}

// Scan implements sql.Scanner for JSONB
func (r *ComplianceResult) Scan(value interface{}) error {
	bytes, ok := jsonBytes(value)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, r)
}

// HasClause reports whether clauseID is in the applicable clause set
func (r ComplianceResult) HasClause(clauseID string) bool {
	for _, id := range r.ApplicableClauses {
		if id == clauseID {
			return true
		}
	}
	return false
}

// ComplianceCheck represents one evaluation run for a project
type ComplianceCheck struct {
	ID          uuid.UUID          `json:"id"`
	ProjectID   string             `json:"project_id"`
	ProjectName string             `json:"project_name"`
	Building    BuildingParameters `json:"building"`
	Result      ComplianceResult   `json:"result"`
	Status      CheckStatus        `json:"status"`
	Reviewer    *string            `json:"reviewer,omitempty"`
	Comments    *string            `json:"comments,omitempty"`
	CheckedAt   time.Time          `json:"checked_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// Clone returns a deep copy of the check
func (c *ComplianceCheck) Clone() *ComplianceCheck {
	out := *c
	out.Result.ApplicableClauses = c.Result.ApplicableClauses.Clone()
	out.Result.Violations = c.Result.Violations.Clone()
	out.Result.Recommendations = c.Result.Recommendations.Clone()
	if c.Reviewer != nil {
		reviewer := *c.Reviewer
		out.Reviewer = &reviewer
	}
	if c.Comments != nil {
		comments := *c.Comments
		out.Comments = &comments
	}
	return &out
}

// jsonBytes normalises the values pgx and database/sql hand to Scan for
// JSON columns
func jsonBytes(value interface{}) ([]byte, bool) {
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil, false
	}
	if len(bytes) == 0 {
		return nil, false
	}
	return bytes, true
}
