package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"daritana-compliance/models"

	"github.com/google/uuid"
)

// MemoryCheckRepository keeps compliance checks in process memory
type MemoryCheckRepository struct {
	mu     sync.RWMutex
	checks map[uuid.UUID]*models.ComplianceCheck
}

// NewMemoryCheckRepository creates an empty in-memory check repository
func NewMemoryCheckRepository() *MemoryCheckRepository {
	return &MemoryCheckRepository{checks: make(map[uuid.UUID]*models.ComplianceCheck)}
}

// Create stores a new check
func (r *MemoryCheckRepository) Create(ctx context.Context, check *models.ComplianceCheck) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.checks[check.ID]; exists {
		return fmt.Errorf("compliance check %s already exists", check.ID)
	}
	r.checks[check.ID] = check.Clone()
	return nil
}

// GetByID retrieves a check by ID
func (r *MemoryCheckRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ComplianceCheck, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	check, ok := r.checks[id]
	if !ok {
		return nil, ErrNotFound
	}
	return check.Clone(), nil
}

// Update replaces a stored check
func (r *MemoryCheckRepository) Update(ctx context.Context, check *models.ComplianceCheck) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.checks[check.ID]; !ok {
		return ErrNotFound
	}
	r.checks[check.ID] = check.Clone()
	return nil
}

// ListByProject lists checks newest first
func (r *MemoryCheckRepository) ListByProject(ctx context.Context, projectID string) ([]*models.ComplianceCheck, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	checks := make([]*models.ComplianceCheck, 0)
	for _, check := range r.checks {
		if projectID != "" && check.ProjectID != projectID {
			continue
		}
		checks = append(checks, check.Clone())
	}

	sort.Slice(checks, func(i, j int) bool {
		if !checks[i].CheckedAt.Equal(checks[j].CheckedAt) {
			return checks[i].CheckedAt.After(checks[j].CheckedAt)
		}
		return checks[i].ID.String() > checks[j].ID.String()
	})
	return checks, nil
}

// MemoryReportRepository keeps compliance reports in process memory
type MemoryReportRepository struct {
	mu      sync.RWMutex
	reports map[uuid.UUID]*models.ComplianceReport
}

// NewMemoryReportRepository creates an empty in-memory report repository
func NewMemoryReportRepository() *MemoryReportRepository {
	return &MemoryReportRepository{reports: make(map[uuid.UUID]*models.ComplianceReport)}
}

// Create stores a new report
func (r *MemoryReportRepository) Create(ctx context.Context, report *models.ComplianceReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.reports[report.ID]; exists {
		return fmt.Errorf("compliance report %s already exists", report.ID)
	}
	r.reports[report.ID] = report.Clone()
	return nil
}

// GetByID retrieves a report by ID
func (r *MemoryReportRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ComplianceReport, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	report, ok := r.reports[id]
	if !ok {
		return nil, ErrNotFound
	}
	return report.Clone(), nil
}

// ListByCheckID lists reports for a check newest first
func (r *MemoryReportRepository) ListByCheckID(ctx context.Context, checkID uuid.UUID) ([]*models.ComplianceReport, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reports := make([]*models.ComplianceReport, 0)
	for _, report := range r.reports {
		if report.CheckID == checkID {
			reports = append(reports, report.Clone())
		}
	}

	sort.Slice(reports, func(i, j int) bool {
		if !reports[i].GeneratedAt.Equal(reports[j].GeneratedAt) {
			return reports[i].GeneratedAt.After(reports[j].GeneratedAt)
		}
		return reports[i].ID.String() > reports[j].ID.String()
	})
	return reports, nil
}
