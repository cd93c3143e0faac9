package models

import (
	"time"

	"github.com/google/uuid"
)

// ReportValidity is how long a generated report stays valid
const ReportValidity = 90 * 24 * time.Hour

// ComplianceReport is a snapshot of a compliance check issued to a project
type ComplianceReport struct {
	ID              uuid.UUID          `json:"id"`
	CheckID         uuid.UUID          `json:"check_id"`
	ProjectID       string             `json:"project_id"`
	ProjectName     string             `json:"project_name"`
	Building        BuildingParameters `json:"building"`
	GeneratedAt     time.Time          `json:"generated_date"`
	Score           int                `json:"compliance_score"`
	TotalClauses    int                `json:"total_clauses"`
	PassedClauses   int                `json:"passed_clauses"`
	FailedClauses   int                `json:"failed_clauses"`
	Violations      Violations         `json:"violations"`
	Recommendations StringList         `json:"recommendations"`
	Summary         *string            `json:"summary,omitempty"`
	CertifiedBy     *string            `json:"certified_by,omitempty"`
	ValidUntil      *time.Time         `json:"valid_until,omitempty"`
}

// Clone returns a deep copy of the report
func (r *ComplianceReport) Clone() *ComplianceReport {
	out := *r
	out.Violations = r.Violations.Clone()
	out.Recommendations = r.Recommendations.Clone()
	if r.Summary != nil {
		summary := *r.Summary
		out.Summary = &summary
	}
	if r.CertifiedBy != nil {
		certifiedBy := *r.CertifiedBy
		out.CertifiedBy = &certifiedBy
	}
	if r.ValidUntil != nil {
		validUntil := *r.ValidUntil
		out.ValidUntil = &validUntil
	}
	return &out
}
