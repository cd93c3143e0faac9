package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"daritana-compliance/clauses"
	"daritana-compliance/evaluator"
	"daritana-compliance/export"
	"daritana-compliance/metrics"
	"daritana-compliance/models"
	"daritana-compliance/repository"
	"daritana-compliance/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrCheckNotFound is returned when a compliance check does not exist
	ErrCheckNotFound = errors.New("compliance check not found")

	// ErrReportNotFound is returned when a compliance report does not exist
	ErrReportNotFound = errors.New("compliance report not found")

	// ErrViolationNotFound is returned when a check has no violation for a clause
	ErrViolationNotFound = errors.New("violation not found")

	// ErrInvalidInput is returned for malformed requests
	ErrInvalidInput = errors.New("invalid input")
)

// DefaultSummaryTimeout bounds a Summarizer call during report generation
const DefaultSummaryTimeout = 10 * time.Second

// Summarizer writes a narrative summary for a generated report
type Summarizer interface {
	Summarize(ctx context.Context, report *models.ComplianceReport) (string, error)
}

// ComplianceService runs compliance checks and manages their lifecycle
type ComplianceService struct {
	checkRepo      repository.CheckRepository
	reportRepo     repository.ReportRepository
	clauseRepo     *clauses.Repository
	evaluator      *evaluator.Evaluator
	storage        storage.Storage
	summarizer     Summarizer
	summaryTimeout time.Duration
	logger         *zap.Logger
	now            func() time.Time
	locks          *checkLocks
}

// ComplianceServiceOption is a functional option for ComplianceService
type ComplianceServiceOption func(*ComplianceService)

// WithCheckRepository sets the check repository
func WithCheckRepository(repo repository.CheckRepository) ComplianceServiceOption {
	return func(s *ComplianceService) {
		s.checkRepo = repo
	}
}

// WithReportRepository sets the report repository
func WithReportRepository(repo repository.ReportRepository) ComplianceServiceOption {
	return func(s *ComplianceService) {
		s.reportRepo = repo
	}
}

// WithClauseRepository sets the clause table used for evaluation
func WithClauseRepository(repo *clauses.Repository) ComplianceServiceOption {
	return func(s *ComplianceService) {
		s.clauseRepo = repo
	}
}

// WithStorage sets where exported artifacts are kept
func WithStorage(store storage.Storage) ComplianceServiceOption {
	return func(s *ComplianceService) {
		s.storage = store
	}
}

// WithSummarizer sets the report narrative generator
func WithSummarizer(summarizer Summarizer) ComplianceServiceOption {
	return func(s *ComplianceService) {
		s.summarizer = summarizer
	}
}

// WithSummaryTimeout bounds each Summarizer call
func WithSummaryTimeout(timeout time.Duration) ComplianceServiceOption {
	return func(s *ComplianceService) {
		s.summaryTimeout = timeout
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) ComplianceServiceOption {
	return func(s *ComplianceService) {
		s.logger = logger
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) ComplianceServiceOption {
	return func(s *ComplianceService) {
		s.now = now
	}
}

// NewComplianceService creates a new compliance service
func NewComplianceService(opts ...ComplianceServiceOption) *ComplianceService {
	s := &ComplianceService{
		summaryTimeout: DefaultSummaryTimeout,
		logger:         zap.NewNop(),
		now:            time.Now,
		locks:          newCheckLocks(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.clauseRepo != nil {
		s.evaluator = evaluator.New(s.clauseRepo)
	}
	return s
}

// timestamp returns the current time at the precision every repository keeps
func (s *ComplianceService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func (s *ComplianceService) requireChecks() error {
	if s.checkRepo == nil {
		return errors.New("check repository not set")
	}
	return nil
}

func (s *ComplianceService) requireReports() error {
	if s.reportRepo == nil {
		return errors.New("report repository not set")
	}
	return nil
}

// loadCheck fetches a check, translating a repository miss
func (s *ComplianceService) loadCheck(ctx context.Context, id uuid.UUID) (*models.ComplianceCheck, error) {
	check, err := s.checkRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrCheckNotFound, id)
		}
		return nil, err
	}
	return check, nil
}

// loadReport fetches a report, translating a repository miss
func (s *ComplianceService) loadReport(ctx context.Context, id uuid.UUID) (*models.ComplianceReport, error) {
	report, err := s.reportRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrReportNotFound, id)
		}
		return nil, err
	}
	return report, nil
}

// RunComplianceCheckRequest represents a request to evaluate a building
type RunComplianceCheckRequest struct {
	ProjectID   string
	ProjectName string
	Building    models.BuildingParameters
}

// RunComplianceCheckResult represents the result of evaluating a building
type RunComplianceCheckResult struct {
	Check *models.ComplianceCheck
}

// RunComplianceCheck evaluates a building and records the check.
// The check is failed when any violation was found and completed otherwise.
func (s *ComplianceService) RunComplianceCheck(ctx context.Context, req RunComplianceCheckRequest) (*RunComplianceCheckResult, error) {
	if err := s.requireChecks(); err != nil {
		return nil, err
	}
	if s.evaluator == nil {
		return nil, errors.New("clause repository not set")
	}

	projectID := strings.TrimSpace(req.ProjectID)
	if projectID == "" {
		return nil, fmt.Errorf("%w: project id is required", ErrInvalidInput)
	}
	if err := evaluator.Validate(req.Building); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate check id: %w", err)
	}

	started := time.Now()
	result := s.evaluator.Check(req.Building)
	took := time.Since(started)

	status := models.CheckStatusCompleted
	if len(result.Violations) > 0 {
		status = models.CheckStatusFailed
	}

	now := s.timestamp()
	check := &models.ComplianceCheck{
		ID:          id,
		ProjectID:   projectID,
		ProjectName: strings.TrimSpace(req.ProjectName),
		Building:    req.Building,
		Result:      result,
		Status:      status,
		CheckedAt:   now,
		UpdatedAt:   now,
	}

	unlock := s.locks.lock(id)
	err = s.checkRepo.Create(ctx, check)
	unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to save compliance check: %w", err)
	}

	metrics.RecordCheck(string(req.Building.Type), string(status), result.Score, took)
	for _, v := range result.Violations {
		metrics.RecordViolation(string(v.Severity), metrics.SourceEvaluator)
	}

	s.logger.Info("Compliance check recorded",
		zap.String("check_id", id.String()),
		zap.String("project_id", projectID),
		zap.String("building_type", string(req.Building.Type)),
		zap.Int("score", result.Score),
		zap.Int("violations", len(result.Violations)),
	)

	return &RunComplianceCheckResult{Check: check}, nil
}

// GetCheckRequest represents a request to get a check
type GetCheckRequest struct {
	ID uuid.UUID
}

// GetCheckResult represents the result of getting a check
type GetCheckResult struct {
	Check *models.ComplianceCheck
}

// GetCheck retrieves a check by ID
func (s *ComplianceService) GetCheck(ctx context.Context, req GetCheckRequest) (*GetCheckResult, error) {
	if err := s.requireChecks(); err != nil {
		return nil, err
	}

	check, err := s.loadCheck(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	return &GetCheckResult{Check: check}, nil
}

// ListChecksRequest represents a request to list checks
type ListChecksRequest struct {
	ProjectID string
}

// ListChecksResult represents the result of listing checks
type ListChecksResult struct {
	Checks []*models.ComplianceCheck
}

// ListChecks lists checks for a project, newest first. An empty project
// lists every check.
func (s *ComplianceService) ListChecks(ctx context.Context, req ListChecksRequest) (*ListChecksResult, error) {
	if err := s.requireChecks(); err != nil {
		return nil, err
	}

	checks, err := s.checkRepo.ListByProject(ctx, strings.TrimSpace(req.ProjectID))
	if err != nil {
		return nil, err
	}

	return &ListChecksResult{Checks: checks}, nil
}

// UpdateCheckStatusRequest represents a reviewer status override
type UpdateCheckStatusRequest struct {
	ID       uuid.UUID
	Status   models.CheckStatus
	Reviewer *string
	Comments *string
}

// UpdateCheckStatusResult represents the result of a status override
type UpdateCheckStatusResult struct {
	Check *models.ComplianceCheck
}

// UpdateCheckStatus sets a check's status and review notes
func (s *ComplianceService) UpdateCheckStatus(ctx context.Context, req UpdateCheckStatusRequest) (*UpdateCheckStatusResult, error) {
	if err := s.requireChecks(); err != nil {
		return nil, err
	}
	if !req.Status.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, req.Status)
	}

	unlock := s.locks.lock(req.ID)
	defer unlock()

	check, err := s.loadCheck(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	check.Status = req.Status
	if req.Reviewer != nil {
		check.Reviewer = req.Reviewer
	}
	if req.Comments != nil {
		check.Comments = req.Comments
	}
	check.UpdatedAt = s.timestamp()

	if err := s.checkRepo.Update(ctx, check); err != nil {
		return nil, fmt.Errorf("failed to update compliance check: %w", err)
	}

	return &UpdateCheckStatusResult{Check: check}, nil
}

// AddViolationRequest represents a request to record a manual violation
type AddViolationRequest struct {
	CheckID   uuid.UUID
	Violation models.Violation
}

// AddViolationResult represents the result of recording a violation
type AddViolationResult struct {
	Check *models.ComplianceCheck
}

// AddViolation appends a violation to a check, deducts its penalty and
// marks the check failed
func (s *ComplianceService) AddViolation(ctx context.Context, req AddViolationRequest) (*AddViolationResult, error) {
	if err := s.requireChecks(); err != nil {
		return nil, err
	}

	violation := req.Violation
	violation.ClauseID = strings.TrimSpace(violation.ClauseID)
	if violation.ClauseID == "" {
		return nil, fmt.Errorf("%w: clause id is required", ErrInvalidInput)
	}
	if violation.Severity != "" && !violation.Severity.IsValid() {
		return nil, fmt.Errorf("%w: unknown severity %q", ErrInvalidInput, violation.Severity)
	}
	violation.Severity = violation.Severity.OrDefault()
	if violation.Description == "" && s.clauseRepo != nil {
		if clause, ok := s.clauseRepo.GetByID(violation.ClauseID); ok {
			violation.Description = clause.Title
		}
	}

	unlock := s.locks.lock(req.CheckID)
	defer unlock()

	check, err := s.loadCheck(ctx, req.CheckID)
	if err != nil {
		return nil, err
	}

	if !check.Result.HasClause(violation.ClauseID) {
		s.logger.Warn("Violation references clause outside applicable set",
			zap.String("check_id", check.ID.String()),
			zap.String("clause_id", violation.ClauseID),
			zap.String("building_type", string(check.Building.Type)),
		)
	}

	check.Result.Violations = append(check.Result.Violations, violation)
	check.Result.Score = evaluator.Deduct(check.Result.Score, violation.Severity)
	check.Status = models.CheckStatusFailed
	check.UpdatedAt = s.timestamp()

	if err := s.checkRepo.Update(ctx, check); err != nil {
		return nil, fmt.Errorf("failed to update compliance check: %w", err)
	}

	metrics.RecordViolation(string(violation.Severity), metrics.SourceManual)

	return &AddViolationResult{Check: check}, nil
}

// ResolveViolationRequest represents a request to resolve a clause's violation
type ResolveViolationRequest struct {
	CheckID  uuid.UUID
	ClauseID string
}

// ResolveViolationResult represents the result of resolving a violation
type ResolveViolationResult struct {
	Check *models.ComplianceCheck
}

// ResolveViolation removes the violations for a clause and restores
// ResolveCredit points. The check is marked completed once at most one
// violation remains.
//
// A check left with a single open violation is still reported completed.
// Callers that need a strict status should re-check len(Violations).
func (s *ComplianceService) ResolveViolation(ctx context.Context, req ResolveViolationRequest) (*ResolveViolationResult, error) {
	if err := s.requireChecks(); err != nil {
		return nil, err
	}

	clauseID := strings.TrimSpace(req.ClauseID)
	if clauseID == "" {
		return nil, fmt.Errorf("%w: clause id is required", ErrInvalidInput)
	}

	unlock := s.locks.lock(req.CheckID)
	defer unlock()

	check, err := s.loadCheck(ctx, req.CheckID)
	if err != nil {
		return nil, err
	}

	remaining := make(models.Violations, 0, len(check.Result.Violations))
	for _, v := range check.Result.Violations {
		if v.ClauseID != clauseID {
			remaining = append(remaining, v)
		}
	}
	if len(remaining) == len(check.Result.Violations) {
		return nil, fmt.Errorf("%w: clause %s on check %s", ErrViolationNotFound, clauseID, check.ID)
	}

	check.Result.Violations = remaining
	check.Result.Score = evaluator.Restore(check.Result.Score)
	if len(remaining) <= 1 {
		check.Status = models.CheckStatusCompleted
	}
	check.UpdatedAt = s.timestamp()

	if err := s.checkRepo.Update(ctx, check); err != nil {
		return nil, fmt.Errorf("failed to update compliance check: %w", err)
	}

	metrics.RecordResolved()

	return &ResolveViolationResult{Check: check}, nil
}

// GenerateReportRequest represents a request to issue a report for a check
type GenerateReportRequest struct {
	CheckID     uuid.UUID
	CertifiedBy *string
}

// GenerateReportResult represents the result of issuing a report
type GenerateReportResult struct {
	Report *models.ComplianceReport
}

// GenerateReport snapshots a check into a report valid for ReportValidity
func (s *ComplianceService) GenerateReport(ctx context.Context, req GenerateReportRequest) (*GenerateReportResult, error) {
	if err := s.requireChecks(); err != nil {
		return nil, err
	}
	if err := s.requireReports(); err != nil {
		return nil, err
	}

	unlock := s.locks.lock(req.CheckID)
	check, err := s.loadCheck(ctx, req.CheckID)
	unlock()
	if err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate report id: %w", err)
	}

	generated := s.timestamp()
	validUntil := generated.Add(models.ReportValidity)

	total := len(check.Result.ApplicableClauses)
	failed := distinctClauses(check.Result.Violations)
	passed := total - failed
	if passed < 0 {
		passed = 0
	}

	var certifiedBy *string
	if req.CertifiedBy != nil {
		if name := strings.TrimSpace(*req.CertifiedBy); name != "" {
			certifiedBy = &name
		}
	}

	report := &models.ComplianceReport{
		ID:              id,
		CheckID:         check.ID,
		ProjectID:       check.ProjectID,
		ProjectName:     check.ProjectName,
		Building:        check.Building,
		GeneratedAt:     generated,
		Score:           check.Result.Score,
		TotalClauses:    total,
		PassedClauses:   passed,
		FailedClauses:   failed,
		Violations:      check.Result.Violations.Clone(),
		Recommendations: check.Result.Recommendations.Clone(),
		CertifiedBy:     certifiedBy,
		ValidUntil:      &validUntil,
	}
	if report.Violations == nil {
		report.Violations = models.Violations{}
	}
	if report.Recommendations == nil {
		report.Recommendations = models.StringList{}
	}

	if s.summarizer != nil {
		s.attachSummary(ctx, report)
	}

	if err := s.reportRepo.Create(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to save compliance report: %w", err)
	}

	metrics.RecordReport()

	return &GenerateReportResult{Report: report}, nil
}

// attachSummary adds a narrative summary to the report. Failures are
// logged and leave the summary empty.
func (s *ComplianceService) attachSummary(ctx context.Context, report *models.ComplianceReport) {
	summaryCtx, cancel := context.WithTimeout(ctx, s.summaryTimeout)
	defer cancel()

	summary, err := s.summarizer.Summarize(summaryCtx, report)
	if err != nil {
		s.logger.Warn("Failed to summarize compliance report",
			zap.String("report_id", report.ID.String()),
			zap.Error(err),
		)
		return
	}

	summary = strings.TrimSpace(summary)
	if summary != "" {
		report.Summary = &summary
	}
}

func distinctClauses(violations models.Violations) int {
	seen := make(map[string]struct{}, len(violations))
	for _, v := range violations {
		seen[v.ClauseID] = struct{}{}
	}
	return len(seen)
}

// GetReportRequest represents a request to get a report
type GetReportRequest struct {
	ID uuid.UUID
}

// GetReportResult represents the result of getting a report
type GetReportResult struct {
	Report *models.ComplianceReport
}

// GetReport retrieves a report by ID
func (s *ComplianceService) GetReport(ctx context.Context, req GetReportRequest) (*GetReportResult, error) {
	if err := s.requireReports(); err != nil {
		return nil, err
	}

	report, err := s.loadReport(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	return &GetReportResult{Report: report}, nil
}

// ListReportsRequest represents a request to list the reports of a check
type ListReportsRequest struct {
	CheckID uuid.UUID
}

// ListReportsResult represents the result of listing reports
type ListReportsResult struct {
	Reports []*models.ComplianceReport
}

// ListReports lists the reports generated from a check, newest first
func (s *ComplianceService) ListReports(ctx context.Context, req ListReportsRequest) (*ListReportsResult, error) {
	if err := s.requireChecks(); err != nil {
		return nil, err
	}
	if err := s.requireReports(); err != nil {
		return nil, err
	}

	if _, err := s.loadCheck(ctx, req.CheckID); err != nil {
		return nil, err
	}

	reports, err := s.reportRepo.ListByCheckID(ctx, req.CheckID)
	if err != nil {
		return nil, err
	}

	return &ListReportsResult{Reports: reports}, nil
}

// ExportReportRequest represents a request to render a report
type ExportReportRequest struct {
	ReportID uuid.UUID
	Format   export.Format
}

// ExportReportResult represents a rendered report
type ExportReportResult struct {
	Artifact *export.Artifact

	// StoragePath is set when the artifact was kept in storage
	StoragePath string
}

// ExportReport renders a report and, when storage is configured, keeps a
// copy of the artifact
func (s *ComplianceService) ExportReport(ctx context.Context, req ExportReportRequest) (*ExportReportResult, error) {
	if err := s.requireReports(); err != nil {
		return nil, err
	}

	format := req.Format
	if format == "" {
		format = export.DefaultFormat
	}

	report, err := s.loadReport(ctx, req.ReportID)
	if err != nil {
		return nil, err
	}

	artifact, err := export.Build(report, format)
	if err != nil {
		metrics.RecordExport(string(format), err)
		return nil, err
	}

	result := &ExportReportResult{Artifact: artifact}
	if s.storage != nil {
		path, err := s.storage.Upload(ctx, report.ID, artifact.Filename, bytes.NewReader(artifact.Data))
		if err != nil {
			metrics.RecordExport(string(format), err)
			return nil, fmt.Errorf("failed to store report artifact: %w", err)
		}
		result.StoragePath = path
	}

	metrics.RecordExport(string(format), nil)

	s.logger.Info("Compliance report exported",
		zap.String("report_id", report.ID.String()),
		zap.String("format", string(format)),
		zap.Int("bytes", len(artifact.Data)),
		zap.String("storage_path", result.StoragePath),
	)

	return result, nil
}

// ComplianceStats summarizes the checks of a project
type ComplianceStats struct {
	TotalChecks    int     `json:"total_checks"`
	Completed      int     `json:"completed"`
	Failed         int     `json:"failed"`
	Pending        int     `json:"pending"`
	InProgress     int     `json:"in_progress"`
	AverageScore   float64 `json:"average_score"`
	OpenViolations int     `json:"open_violations"`
}

// StatsRequest represents a request for project statistics
type StatsRequest struct {
	ProjectID string
}

// StatsResult represents project statistics
type StatsResult struct {
	Stats ComplianceStats
}

// Stats aggregates the checks of a project. An empty project covers every check.
func (s *ComplianceService) Stats(ctx context.Context, req StatsRequest) (*StatsResult, error) {
	if err := s.requireChecks(); err != nil {
		return nil, err
	}

	checks, err := s.checkRepo.ListByProject(ctx, strings.TrimSpace(req.ProjectID))
	if err != nil {
		return nil, err
	}

	var stats ComplianceStats
	totalScore := 0
	for _, check := range checks {
		stats.TotalChecks++
		totalScore += check.Result.Score
		stats.OpenViolations += len(check.Result.Violations)

		switch check.Status {
		case models.CheckStatusCompleted:
			stats.Completed++
		case models.CheckStatusFailed:
			stats.Failed++
		case models.CheckStatusPending:
			stats.Pending++
		case models.CheckStatusInProgress:
			stats.InProgress++
		}
	}
	if stats.TotalChecks > 0 {
		stats.AverageScore = float64(totalScore) / float64(stats.TotalChecks)
	}

	return &StatsResult{Stats: stats}, nil
}
