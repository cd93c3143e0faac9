package repository

import (
	"context"
	"errors"
	"fmt"

	"daritana-compliance/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresSchema creates the compliance tables
const PostgresSchema = `
CREATE TABLE IF NOT EXISTS compliance_checks (
    id UUID PRIMARY KEY,
    project_id VARCHAR(100) NOT NULL,
    project_name TEXT NOT NULL DEFAULT '',

    -- Building parameters snapshot
    building_type VARCHAR(50) NOT NULL,
    building_height DOUBLE PRECISION NOT NULL,
    floor_area DOUBLE PRECISION NOT NULL,
    occupancy INTEGER NOT NULL,

    -- Score, applicable clauses, violations and recommendations
    result JSONB NOT NULL DEFAULT '{}'::jsonb,

    status VARCHAR(20) NOT NULL CHECK (status IN ('pending', 'in-progress', 'completed', 'failed')),
    reviewer TEXT,
    comments TEXT,
    checked_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_compliance_checks_project ON compliance_checks (project_id, checked_at DESC);

CREATE TABLE IF NOT EXISTS compliance_reports (
    id UUID PRIMARY KEY,
    check_id UUID NOT NULL REFERENCES compliance_checks(id) ON DELETE CASCADE,
    project_id VARCHAR(100) NOT NULL,
    project_name TEXT NOT NULL DEFAULT '',
    building JSONB NOT NULL DEFAULT '{}'::jsonb,
    generated_at TIMESTAMPTZ NOT NULL,
    compliance_score INTEGER NOT NULL CHECK (compliance_score BETWEEN 0 AND 100),
    total_clauses INTEGER NOT NULL,
    passed_clauses INTEGER NOT NULL,
    failed_clauses INTEGER NOT NULL,
    violations JSONB NOT NULL DEFAULT '[]'::jsonb,
    recommendations JSONB NOT NULL DEFAULT '[]'::jsonb,
    summary TEXT,
    certified_by TEXT,
    valid_until TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_compliance_reports_check ON compliance_reports (check_id, generated_at DESC);
`

// PostgresCheckRepository handles database operations for compliance checks
type PostgresCheckRepository struct {
	db *pgxpool.Pool
}

// NewPostgresCheckRepository creates a new compliance check repository
func NewPostgresCheckRepository(db *pgxpool.Pool) *PostgresCheckRepository {
	return &PostgresCheckRepository{db: db}
}

const checkColumns = `id, project_id, project_name, building_type, building_height,
			floor_area, occupancy, result, status, reviewer, comments,
			checked_at, updated_at`

// Create creates a new compliance check
func (r *PostgresCheckRepository) Create(ctx context.Context, check *models.ComplianceCheck) error {
	query := `
		INSERT INTO compliance_checks (` + checkColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.db.Exec(
		ctx, query,
		check.ID,
		check.ProjectID,
		check.ProjectName,
		check.Building.Type,
		check.Building.Height,
		check.Building.FloorArea,
		check.Building.Occupancy,
		check.Result,
		check.Status,
		check.Reviewer,
		check.Comments,
		check.CheckedAt,
		check.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert compliance check: %w", err)
	}
	return nil
}

// GetByID retrieves a compliance check by ID
func (r *PostgresCheckRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ComplianceCheck, error) {
	query := `
		SELECT ` + checkColumns + `
		FROM compliance_checks
		WHERE id = $1`

	check, err := scanCheck(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load compliance check: %w", err)
	}
	return check, nil
}

// Update updates the result, status and review fields of a compliance check
func (r *PostgresCheckRepository) Update(ctx context.Context, check *models.ComplianceCheck) error {
	query := `
		UPDATE compliance_checks SET
			result = $2,
			status = $3,
			reviewer = $4,
			comments = $5,
			updated_at = $6
		WHERE id = $1`

	tag, err := r.db.Exec(
		ctx, query,
		check.ID,
		check.Result,
		check.Status,
		check.Reviewer,
		check.Comments,
		check.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update compliance check: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByProject retrieves compliance checks newest first
func (r *PostgresCheckRepository) ListByProject(ctx context.Context, projectID string) ([]*models.ComplianceCheck, error) {
	query := `
		SELECT ` + checkColumns + `
		FROM compliance_checks`

	var args []interface{}
	if projectID != "" {
		query += " WHERE project_id = $1"
		args = append(args, projectID)
	}
	query += " ORDER BY checked_at DESC, id DESC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query compliance checks: %w", err)
	}
	defer rows.Close()

	checks := make([]*models.ComplianceCheck, 0)
	for rows.Next() {
		check, err := scanCheck(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan compliance check: %w", err)
		}
		checks = append(checks, check)
	}

	return checks, rows.Err()
}

func scanCheck(row pgx.Row) (*models.ComplianceCheck, error) {
	check := &models.ComplianceCheck{}
	err := row.Scan(
		&check.ID,
		&check.ProjectID,
		&check.ProjectName,
		&check.Building.Type,
		&check.Building.Height,
		&check.Building.FloorArea,
		&check.Building.Occupancy,
		&check.Result,
		&check.Status,
		&check.Reviewer,
		&check.Comments,
		&check.CheckedAt,
		&check.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return check, nil
}

// PostgresReportRepository handles database operations for compliance reports
type PostgresReportRepository struct {
	db *pgxpool.Pool
}

// NewPostgresReportRepository creates a new compliance report repository
func NewPostgresReportRepository(db *pgxpool.Pool) *PostgresReportRepository {
	return &PostgresReportRepository{db: db}
}

const reportColumns = `id, check_id, project_id, project_name, building, generated_at,
			compliance_score, total_clauses, passed_clauses, failed_clauses,
			violations, recommendations, summary, certified_by, valid_until`

// Create creates a new compliance report
func (r *PostgresReportRepository) Create(ctx context.Context, report *models.ComplianceReport) error {
	query := `
		INSERT INTO compliance_reports (` + reportColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err := r.db.Exec(
		ctx, query,
		report.ID,
		report.CheckID,
		report.ProjectID,
		report.ProjectName,
		report.Building,
		report.GeneratedAt,
		report.Score,
		report.TotalClauses,
		report.PassedClauses,
		report.FailedClauses,
		report.Violations,
		report.Recommendations,
		report.Summary,
		report.CertifiedBy,
		report.ValidUntil,
	)
	if err != nil {
		return fmt.Errorf("failed to insert compliance report: %w", err)
	}
	return nil
}

// GetByID retrieves a compliance report by ID
func (r *PostgresReportRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ComplianceReport, error) {
	query := `
		SELECT ` + reportColumns + `
		FROM compliance_reports
		WHERE id = $1`

	report, err := scanReport(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load compliance report: %w", err)
	}
	return report, nil
}

// ListByCheckID retrieves the reports generated from a check, newest first
func (r *PostgresReportRepository) ListByCheckID(ctx context.Context, checkID uuid.UUID) ([]*models.ComplianceReport, error) {
	query := `
		SELECT ` + reportColumns + `
		FROM compliance_reports
		WHERE check_id = $1
		ORDER BY generated_at DESC, id DESC`

	rows, err := r.db.Query(ctx, query, checkID)
	if err != nil {
		return nil, fmt.Errorf("failed to query compliance reports: %w", err)
	}
	defer rows.Close()

	reports := make([]*models.ComplianceReport, 0)
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan compliance report: %w", err)
		}
		reports = append(reports, report)
	}

	return reports, rows.Err()
}

func scanReport(row pgx.Row) (*models.ComplianceReport, error) {
	report := &models.ComplianceReport{}
	err := row.Scan(
		&report.ID,
		&report.CheckID,
		&report.ProjectID,
		&report.ProjectName,
		&report.Building,
		&report.GeneratedAt,
		&report.Score,
		&report.TotalClauses,
		&report.PassedClauses,
		&report.FailedClauses,
		&report.Violations,
		&report.Recommendations,
		&report.Summary,
		&report.CertifiedBy,
		&report.ValidUntil,
	)
	if err != nil {
		return nil, err
	}
	return report, nil
}
