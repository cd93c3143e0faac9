package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"daritana-compliance/models"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS compliance_checks (
    id TEXT PRIMARY KEY,
    project_id TEXT NOT NULL,
    project_name TEXT NOT NULL DEFAULT '',
    building_type TEXT NOT NULL,
    building_height REAL NOT NULL,
    floor_area REAL NOT NULL,
    occupancy INTEGER NOT NULL,
    result TEXT NOT NULL,
    status TEXT NOT NULL,
    reviewer TEXT,
    comments TEXT,
    checked_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_compliance_checks_project ON compliance_checks (project_id, checked_at);

CREATE TABLE IF NOT EXISTS compliance_reports (
    id TEXT PRIMARY KEY,
    check_id TEXT NOT NULL REFERENCES compliance_checks(id) ON DELETE CASCADE,
    project_id TEXT NOT NULL,
    project_name TEXT NOT NULL DEFAULT '',
    building TEXT NOT NULL,
    generated_at TEXT NOT NULL,
    compliance_score INTEGER NOT NULL,
    total_clauses INTEGER NOT NULL,
    passed_clauses INTEGER NOT NULL,
    failed_clauses INTEGER NOT NULL,
    violations TEXT NOT NULL,
    recommendations TEXT NOT NULL,
    summary TEXT,
    certified_by TEXT,
    valid_until TEXT
);

CREATE INDEX IF NOT EXISTS idx_compliance_reports_check ON compliance_reports (check_id, generated_at);
`

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// SQLiteStore holds a SQLite database shared by the check and report
// repositories.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) a SQLite database and applies the schema
func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	// single writer
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA foreign_keys=ON", "PRAGMA busy_timeout=5000"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Checks returns a check repository backed by the store
func (s *SQLiteStore) Checks() *SQLiteCheckRepository {
	return &SQLiteCheckRepository{db: s.db}
}

// Reports returns a report repository backed by the store
func (s *SQLiteStore) Reports() *SQLiteReportRepository {
	return &SQLiteReportRepository{db: s.db}
}

// sqliteTimeLayout has fixed-width fractional seconds so stored values sort lexically
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// SQLiteCheckRepository handles SQLite operations for compliance checks
type SQLiteCheckRepository struct {
	db *sql.DB
}

// Create creates a new compliance check
func (r *SQLiteCheckRepository) Create(ctx context.Context, check *models.ComplianceCheck) error {
	query := `
		INSERT INTO compliance_checks (` + checkColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(
		ctx, query,
		check.ID.String(),
		check.ProjectID,
		check.ProjectName,
		string(check.Building.Type),
		check.Building.Height,
		check.Building.FloorArea,
		check.Building.Occupancy,
		check.Result,
		string(check.Status),
		check.Reviewer,
		check.Comments,
		formatTime(check.CheckedAt),
		formatTime(check.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert compliance check: %w", err)
	}
	return nil
}

// GetByID retrieves a compliance check by ID
func (r *SQLiteCheckRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ComplianceCheck, error) {
	query := `
		SELECT ` + checkColumns + `
		FROM compliance_checks
		WHERE id = ?`

	check, err := scanSQLiteCheck(r.db.QueryRowContext(ctx, query, id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load compliance check: %w", err)
	}
	return check, nil
}

// Update updates the result, status and review fields of a compliance check
func (r *SQLiteCheckRepository) Update(ctx context.Context, check *models.ComplianceCheck) error {
	query := `
		UPDATE compliance_checks SET
			result = ?,
			status = ?,
			reviewer = ?,
			comments = ?,
			updated_at = ?
		WHERE id = ?`

	res, err := r.db.ExecContext(
		ctx, query,
		check.Result,
		string(check.Status),
		check.Reviewer,
		check.Comments,
		formatTime(check.UpdatedAt),
		check.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update compliance check: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update compliance check: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByProject retrieves compliance checks newest first
func (r *SQLiteCheckRepository) ListByProject(ctx context.Context, projectID string) ([]*models.ComplianceCheck, error) {
	query := `
		SELECT ` + checkColumns + `
		FROM compliance_checks`

	var args []interface{}
	if projectID != "" {
		query += " WHERE project_id = ?"
		args = append(args, projectID)
	}
	query += " ORDER BY checked_at DESC, id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query compliance checks: %w", err)
	}
	defer rows.Close()

	checks := make([]*models.ComplianceCheck, 0)
	for rows.Next() {
		check, err := scanSQLiteCheck(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan compliance check: %w", err)
		}
		checks = append(checks, check)
	}

	return checks, rows.Err()
}

type sqlScanner interface {
	Scan(dest ...interface{}) error
}

func scanSQLiteCheck(row sqlScanner) (*models.ComplianceCheck, error) {
	check := &models.ComplianceCheck{}
	var id, checkedAt, updatedAt string
	err := row.Scan(
		&id,
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
		&checkedAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if check.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid check id %q: %w", id, err)
	}
	if check.CheckedAt, err = parseTime(checkedAt); err != nil {
		return nil, fmt.Errorf("invalid checked_at: %w", err)
	}
	if check.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("invalid updated_at: %w", err)
	}
	return check, nil
}

// SQLiteReportRepository handles SQLite operations for compliance reports
type SQLiteReportRepository struct {
	db *sql.DB
}

// Create creates a new compliance report
func (r *SQLiteReportRepository) Create(ctx context.Context, report *models.ComplianceReport) error {
	query := `
		INSERT INTO compliance_reports (` + reportColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	var validUntil *string
	if report.ValidUntil != nil {
		v := formatTime(*report.ValidUntil)
		validUntil = &v
	}

	_, err := r.db.ExecContext(
		ctx, query,
		report.ID.String(),
		report.CheckID.String(),
		report.ProjectID,
		report.ProjectName,
		report.Building,
		formatTime(report.GeneratedAt),
		report.Score,
		report.TotalClauses,
		report.PassedClauses,
		report.FailedClauses,
		report.Violations,
		report.Recommendations,
		report.Summary,
		report.CertifiedBy,
		validUntil,
	)
	if err != nil {
		return fmt.Errorf("failed to insert compliance report: %w", err)
	}
	return nil
}

// GetByID retrieves a compliance report by ID
func (r *SQLiteReportRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ComplianceReport, error) {
	query := `
		SELECT ` + reportColumns + `
		FROM compliance_reports
		WHERE id = ?`

	report, err := scanSQLiteReport(r.db.QueryRowContext(ctx, query, id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load compliance report: %w", err)
	}
	return report, nil
}

// ListByCheckID retrieves the reports generated from a check, newest first
func (r *SQLiteReportRepository) ListByCheckID(ctx context.Context, checkID uuid.UUID) ([]*models.ComplianceReport, error) {
	query := `
		SELECT ` + reportColumns + `
		FROM compliance_reports
		WHERE check_id = ?
		ORDER BY generated_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, checkID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query compliance reports: %w", err)
	}
	defer rows.Close()

	reports := make([]*models.ComplianceReport, 0)
	for rows.Next() {
		report, err := scanSQLiteReport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan compliance report: %w", err)
		}
		reports = append(reports, report)
	}

	return reports, rows.Err()
}

func scanSQLiteReport(row sqlScanner) (*models.ComplianceReport, error) {
	report := &models.ComplianceReport{}
	var id, checkID, generatedAt string
	var validUntil sql.NullString
	err := row.Scan(
		&id,
		&checkID,
		&report.ProjectID,
		&report.ProjectName,
		&report.Building,
		&generatedAt,
		&report.Score,
		&report.TotalClauses,
		&report.PassedClauses,
		&report.FailedClauses,
		&report.Violations,
		&report.Recommendations,
		&report.Summary,
		&report.CertifiedBy,
		&validUntil,
	)
	if err != nil {
		return nil, err
	}

	if report.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid report id %q: %w", id, err)
	}
	if report.CheckID, err = uuid.Parse(checkID); err != nil {
		return nil, fmt.Errorf("invalid check id %q: %w", checkID, err)
	}
	if report.GeneratedAt, err = parseTime(generatedAt); err != nil {
		return nil, fmt.Errorf("invalid generated_at: %w", err)
	}
	if validUntil.Valid {
		t, err := parseTime(validUntil.String)
		if err != nil {
			return nil, fmt.Errorf("invalid valid_until: %w", err)
		}
		report.ValidUntil = &t
	}
	return report, nil
}
