package repository

import (
	"context"
	"errors"

	"daritana-compliance/models"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a record does not exist
var ErrNotFound = errors.New("record not found")

// CheckRepository persists compliance checks
type CheckRepository interface {
	// Create stores a new check. The check's ID must already be set.
	Create(ctx context.Context, check *models.ComplianceCheck) error

	// GetByID retrieves a check, or ErrNotFound
	GetByID(ctx context.Context, id uuid.UUID) (*models.ComplianceCheck, error)

	// Update replaces the result, status and review fields of a check, or ErrNotFound
	Update(ctx context.Context, check *models.ComplianceCheck) error

	// ListByProject lists checks newest first. An empty projectID lists all checks.
	ListByProject(ctx context.Context, projectID string) ([]*models.ComplianceCheck, error)
}

// ReportRepository persists compliance reports
type ReportRepository interface {
	// Create stores a new report. The report's ID must already be set.
	Create(ctx context.Context, report *models.ComplianceReport) error

	// GetByID retrieves a report, or ErrNotFound
	GetByID(ctx context.Context, id uuid.UUID) (*models.ComplianceReport, error)

	// ListByCheckID lists reports generated from a check, newest first
	ListByCheckID(ctx context.Context, checkID uuid.UUID) ([]*models.ComplianceReport, error)
}
