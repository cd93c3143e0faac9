package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"daritana-compliance/clauses"
	"daritana-compliance/evaluator"
	"daritana-compliance/export"
	"daritana-compliance/models"
	"daritana-compliance/repository"
	"daritana-compliance/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var fixedNow = time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

type fakeSummarizer struct {
	summary string
	err     error
	calls   int
}

func (f *fakeSummarizer) Summarize(ctx context.Context, report *models.ComplianceReport) (string, error) {
	f.calls++
	if _, ok := ctx.Deadline(); !ok {
		return "", errors.New("summarizer called without deadline")
	}
	return f.summary, f.err
}

type fixture struct {
	svc     *ComplianceService
	checks  *repository.MemoryCheckRepository
	reports *repository.MemoryReportRepository
}

func newFixture(t *testing.T, opts ...ComplianceServiceOption) fixture {
	t.Helper()

	clauseRepo, err := clauses.NewDefaultRepository(zap.NewNop())
	require.NoError(t, err)

	f := fixture{
		checks:  repository.NewMemoryCheckRepository(),
		reports: repository.NewMemoryReportRepository(),
	}
	base := []ComplianceServiceOption{
		WithCheckRepository(f.checks),
		WithReportRepository(f.reports),
		WithClauseRepository(clauseRepo),
		WithClock(func() time.Time { return fixedNow }),
	}
	f.svc = NewComplianceService(append(base, opts...)...)
	return f
}

func runCheck(t *testing.T, svc *ComplianceService, b models.BuildingParameters) *models.ComplianceCheck {
	t.Helper()
	res, err := svc.RunComplianceCheck(context.Background(), RunComplianceCheckRequest{
		ProjectID:   "proj-1",
		ProjectName: "Taman Melati Terrace",
		Building:    b,
	})
	require.NoError(t, err)
	return res.Check
}

// residential 12 m, 500 m², 20 occupants: fails the single staircase limit only
var singleViolation = models.BuildingParameters{
	Type: models.BuildingResidential, Height: 12, FloorArea: 500, Occupancy: 20,
}

// passes every residential clause
var compliant = models.BuildingParameters{
	Type: models.BuildingResidential, Height: 12, FloorArea: 500, Occupancy: 10,
}

// 20 m residential with 30 m² units: UBBL-33 (major), UBBL-42 (minor), UBBL-225 (minor)
var threeViolations = models.BuildingParameters{
	Type: models.BuildingResidential, Height: 20, FloorArea: 30, Occupancy: 20,
}

func TestRunComplianceCheck(t *testing.T) {
	t.Run("passing building is completed", func(t *testing.T) {
		f := newFixture(t)
		check := runCheck(t, f.svc, compliant)

		assert.Equal(t, models.CheckStatusCompleted, check.Status)
		assert.Equal(t, 100, check.Result.Score)
		assert.Empty(t, check.Result.Violations)
		assert.Contains(t, check.Result.ApplicableClauses, "UBBL-33")
		assert.Equal(t, fixedNow, check.CheckedAt)

		stored, err := f.checks.GetByID(context.Background(), check.ID)
		require.NoError(t, err)
		assert.Equal(t, check.Result, stored.Result)
	})

	t.Run("critical violation fails the check", func(t *testing.T) {
		f := newFixture(t)
		check := runCheck(t, f.svc, singleViolation)

		assert.Equal(t, models.CheckStatusFailed, check.Status)
		assert.Equal(t, 85, check.Result.Score)
		require.Len(t, check.Result.Violations, 1)
		assert.Equal(t, "UBBL-168", check.Result.Violations[0].ClauseID)
		assert.Equal(t, models.SeverityCritical, check.Result.Violations[0].Severity)
	})

	t.Run("ids are distinct", func(t *testing.T) {
		f := newFixture(t)
		seen := make(map[uuid.UUID]bool)
		for i := 0; i < 20; i++ {
			check := runCheck(t, f.svc, compliant)
			assert.False(t, seen[check.ID])
			seen[check.ID] = true
		}
	})
}

func TestRunComplianceCheckRejectsInvalidInput(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name      string
		projectID string
		building  models.BuildingParameters
	}{
		{"missing project", " ", compliant},
		{"unknown type", "proj-1", models.BuildingParameters{Type: "castle", Height: 10, FloorArea: 100}},
		{"negative height", "proj-1", models.BuildingParameters{Type: models.BuildingCommercial, Height: -1, FloorArea: 100}},
		{"zero floor area", "proj-1", models.BuildingParameters{Type: models.BuildingCommercial, Height: 10}},
		{"negative occupancy", "proj-1", models.BuildingParameters{Type: models.BuildingCommercial, Height: 10, FloorArea: 100, Occupancy: -3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.RunComplianceCheck(context.Background(), RunComplianceCheckRequest{
				ProjectID: tt.projectID,
				Building:  tt.building,
			})
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}

	checks, err := f.checks.ListByProject(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, checks)
}

func TestRunComplianceCheckWrapsValidationError(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.RunComplianceCheck(context.Background(), RunComplianceCheckRequest{
		ProjectID: "proj-1",
		Building:  models.BuildingParameters{Type: "castle", Height: 10, FloorArea: 100},
	})
	assert.ErrorIs(t, err, evaluator.ErrInvalidBuilding)
}

func TestServiceWithoutRepositories(t *testing.T) {
	svc := NewComplianceService()
	_, err := svc.RunComplianceCheck(context.Background(), RunComplianceCheckRequest{ProjectID: "p", Building: compliant})
	assert.Error(t, err)
	_, err = svc.GetReport(context.Background(), GetReportRequest{ID: uuid.New()})
	assert.Error(t, err)
}

func TestResolveViolationSingle(t *testing.T) {
	f := newFixture(t)
	check := runCheck(t, f.svc, singleViolation)

	res, err := f.svc.ResolveViolation(context.Background(), ResolveViolationRequest{
		CheckID:  check.ID,
		ClauseID: "UBBL-168",
	})
	require.NoError(t, err)

	assert.Empty(t, res.Check.Result.Violations)
	assert.Equal(t, 95, res.Check.Result.Score)
	assert.Equal(t, models.CheckStatusCompleted, res.Check.Status)
}

// A check left with one open violation is marked completed. This mirrors
// the long-standing status rule and is pending product clarification.
func TestResolveViolationCompletesWithOneRemaining(t *testing.T) {
	f := newFixture(t)
	check := runCheck(t, f.svc, threeViolations)
	require.Len(t, check.Result.Violations, 3)
	require.Equal(t, 85, check.Result.Score)

	res, err := f.svc.ResolveViolation(context.Background(), ResolveViolationRequest{CheckID: check.ID, ClauseID: "UBBL-33"})
	require.NoError(t, err)
	assert.Len(t, res.Check.Result.Violations, 2)
	assert.Equal(t, 95, res.Check.Result.Score)
	assert.Equal(t, models.CheckStatusFailed, res.Check.Status)

	res, err = f.svc.ResolveViolation(context.Background(), ResolveViolationRequest{CheckID: check.ID, ClauseID: "UBBL-42"})
	require.NoError(t, err)
	require.Len(t, res.Check.Result.Violations, 1)
	assert.Equal(t, "UBBL-225", res.Check.Result.Violations[0].ClauseID)
	assert.Equal(t, models.CheckStatusCompleted, res.Check.Status)
	assert.Equal(t, 100, res.Check.Result.Score, "score is clamped at 100")
}

func TestResolveViolationErrors(t *testing.T) {
	f := newFixture(t)
	check := runCheck(t, f.svc, singleViolation)

	_, err := f.svc.ResolveViolation(context.Background(), ResolveViolationRequest{CheckID: uuid.New(), ClauseID: "UBBL-168"})
	assert.ErrorIs(t, err, ErrCheckNotFound)

	_, err = f.svc.ResolveViolation(context.Background(), ResolveViolationRequest{CheckID: check.ID, ClauseID: "UBBL-33"})
	assert.ErrorIs(t, err, ErrViolationNotFound)

	_, err = f.svc.ResolveViolation(context.Background(), ResolveViolationRequest{CheckID: check.ID})
	assert.ErrorIs(t, err, ErrInvalidInput)

	stored, err := f.checks.GetByID(context.Background(), check.ID)
	require.NoError(t, err)
	assert.Equal(t, 85, stored.Result.Score)
	assert.Len(t, stored.Result.Violations, 1)
}

func TestAddCriticalAfterResolvingAll(t *testing.T) {
	f := newFixture(t)
	check := runCheck(t, f.svc, singleViolation)

	resolved, err := f.svc.ResolveViolation(context.Background(), ResolveViolationRequest{CheckID: check.ID, ClauseID: "UBBL-168"})
	require.NoError(t, err)
	before := resolved.Check.Result.Score

	added, err := f.svc.AddViolation(context.Background(), AddViolationRequest{
		CheckID: check.ID,
		Violation: models.Violation{
			ClauseID:    "UBBL-168",
			Severity:    models.SeverityCritical,
			Description: "Second staircase removed during redesign",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, before-evaluator.CriticalPenalty, added.Check.Result.Score)
	assert.Equal(t, models.CheckStatusFailed, added.Check.Status)
}

func TestAddViolation(t *testing.T) {
	t.Run("defaults severity and fills description", func(t *testing.T) {
		f := newFixture(t)
		check := runCheck(t, f.svc, compliant)

		res, err := f.svc.AddViolation(context.Background(), AddViolationRequest{
			CheckID:   check.ID,
			Violation: models.Violation{ClauseID: "UBBL-42"},
		})
		require.NoError(t, err)

		require.Len(t, res.Check.Result.Violations, 1)
		v := res.Check.Result.Violations[0]
		assert.Equal(t, models.SeverityMinor, v.Severity)
		assert.Equal(t, "Minimum floor area of dwellings", v.Description)
		assert.Equal(t, 95, res.Check.Result.Score)
		assert.Equal(t, models.CheckStatusFailed, res.Check.Status)
	})

	t.Run("unknown check", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.AddViolation(context.Background(), AddViolationRequest{
			CheckID:   uuid.New(),
			Violation: models.Violation{ClauseID: "UBBL-42"},
		})
		assert.ErrorIs(t, err, ErrCheckNotFound)
	})

	t.Run("invalid violation", func(t *testing.T) {
		f := newFixture(t)
		check := runCheck(t, f.svc, compliant)

		_, err := f.svc.AddViolation(context.Background(), AddViolationRequest{CheckID: check.ID})
		assert.ErrorIs(t, err, ErrInvalidInput)

		_, err = f.svc.AddViolation(context.Background(), AddViolationRequest{
			CheckID:   check.ID,
			Violation: models.Violation{ClauseID: "UBBL-42", Severity: "catastrophic"},
		})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("clause outside applicable set is logged", func(t *testing.T) {
		core, logs := observer.New(zapcore.WarnLevel)
		f := newFixture(t, WithLogger(zap.New(core)))
		check := runCheck(t, f.svc, compliant)

		res, err := f.svc.AddViolation(context.Background(), AddViolationRequest{
			CheckID:   check.ID,
			Violation: models.Violation{ClauseID: "UBBL-174", Severity: models.SeverityCritical},
		})
		require.NoError(t, err)
		assert.Len(t, res.Check.Result.Violations, 1)

		entries := logs.FilterMessage("Violation references clause outside applicable set").All()
		require.Len(t, entries, 1)
		assert.Equal(t, "UBBL-174", entries[0].ContextMap()["clause_id"])
	})
}

func TestConcurrentViolationsOnOneCheck(t *testing.T) {
	f := newFixture(t)
	check := runCheck(t, f.svc, compliant)

	const workers = 12
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.AddViolation(context.Background(), AddViolationRequest{
				CheckID:   check.ID,
				Violation: models.Violation{ClauseID: "UBBL-42", Severity: models.SeverityMinor},
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	stored, err := f.checks.GetByID(context.Background(), check.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Result.Violations, workers)
	assert.Equal(t, 100-workers*evaluator.StandardPenalty, stored.Result.Score)
	assert.Zero(t, f.svc.locks.size())
}

func TestUpdateCheckStatus(t *testing.T) {
	f := newFixture(t)
	check := runCheck(t, f.svc, singleViolation)

	reviewer := "Ir. Lim Wei Jie"
	comments := "Second staircase shown on revised drawings"
	res, err := f.svc.UpdateCheckStatus(context.Background(), UpdateCheckStatusRequest{
		ID:       check.ID,
		Status:   models.CheckStatusInProgress,
		Reviewer: &reviewer,
		Comments: &comments,
	})
	require.NoError(t, err)
	assert.Equal(t, models.CheckStatusInProgress, res.Check.Status)

	stored, err := f.checks.GetByID(context.Background(), check.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Reviewer)
	assert.Equal(t, reviewer, *stored.Reviewer)
	assert.Equal(t, comments, *stored.Comments)

	_, err = f.svc.UpdateCheckStatus(context.Background(), UpdateCheckStatusRequest{ID: check.ID, Status: "archived"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.UpdateCheckStatus(context.Background(), UpdateCheckStatusRequest{ID: uuid.New(), Status: models.CheckStatusCompleted})
	assert.ErrorIs(t, err, ErrCheckNotFound)
}

func TestGenerateReport(t *testing.T) {
	summarizer := &fakeSummarizer{summary: "One critical fire escape issue remains."}
	f := newFixture(t, WithSummarizer(summarizer))
	check := runCheck(t, f.svc, singleViolation)

	certifier := "Ar. Nurul Huda"
	res, err := f.svc.GenerateReport(context.Background(), GenerateReportRequest{
		CheckID:     check.ID,
		CertifiedBy: &certifier,
	})
	require.NoError(t, err)
	report := res.Report

	assert.Equal(t, check.ID, report.CheckID)
	assert.Equal(t, check.ProjectID, report.ProjectID)
	assert.Equal(t, 85, report.Score)
	assert.Equal(t, 5, report.TotalClauses)
	assert.Equal(t, 1, report.FailedClauses)
	assert.Equal(t, 4, report.PassedClauses)
	assert.Equal(t, check.Result.Violations, report.Violations)
	assert.Equal(t, check.Result.Recommendations, report.Recommendations)
	require.NotNil(t, report.CertifiedBy)
	assert.Equal(t, certifier, *report.CertifiedBy)
	require.NotNil(t, report.Summary)
	assert.Equal(t, summarizer.summary, *report.Summary)

	require.NotNil(t, report.ValidUntil)
	assert.Equal(t, 90*24*time.Hour, report.ValidUntil.Sub(report.GeneratedAt))

	got, err := f.svc.GetReport(context.Background(), GetReportRequest{ID: report.ID})
	require.NoError(t, err)
	assert.Equal(t, report.ID, got.Report.ID)

	listed, err := f.svc.ListReports(context.Background(), ListReportsRequest{CheckID: check.ID})
	require.NoError(t, err)
	assert.Len(t, listed.Reports, 1)
}

func TestGenerateReportSummaryFailure(t *testing.T) {
	summarizer := &fakeSummarizer{err: errors.New("quota exceeded")}
	core, logs := observer.New(zapcore.WarnLevel)
	f := newFixture(t, WithSummarizer(summarizer), WithLogger(zap.New(core)))
	check := runCheck(t, f.svc, compliant)

	res, err := f.svc.GenerateReport(context.Background(), GenerateReportRequest{CheckID: check.ID})
	require.NoError(t, err)

	assert.Nil(t, res.Report.Summary)
	assert.Nil(t, res.Report.CertifiedBy)
	assert.Equal(t, 1, summarizer.calls)
	assert.Equal(t, 1, logs.FilterMessage("Failed to summarize compliance report").Len())
	assert.NotNil(t, res.Report.Violations)
}

func TestGenerateReportUnknownCheck(t *testing.T) {
	f := newFixture(t)
	missing := uuid.New()

	_, err := f.svc.GenerateReport(context.Background(), GenerateReportRequest{CheckID: missing})
	assert.ErrorIs(t, err, ErrCheckNotFound)

	reports, err := f.reports.ListByCheckID(context.Background(), missing)
	require.NoError(t, err)
	assert.Empty(t, reports)

	_, err = f.svc.ListReports(context.Background(), ListReportsRequest{CheckID: missing})
	assert.ErrorIs(t, err, ErrCheckNotFound)
}

func TestExportReport(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)

	f := newFixture(t, WithStorage(store))
	check := runCheck(t, f.svc, singleViolation)
	generated, err := f.svc.GenerateReport(context.Background(), GenerateReportRequest{CheckID: check.ID})
	require.NoError(t, err)

	res, err := f.svc.ExportReport(context.Background(), ExportReportRequest{
		ReportID: generated.Report.ID,
		Format:   export.FormatText,
	})
	require.NoError(t, err)

	body := string(res.Artifact.Data)
	assert.NotEmpty(t, body)
	assert.Contains(t, body, "Compliance score: 85/100")
	assert.Contains(t, body, "Violations (1):")
	assert.True(t, strings.HasSuffix(res.Artifact.Filename, ".txt"))

	require.NotEmpty(t, res.StoragePath)
	stored, err := os.ReadFile(filepath.Join(dir, res.StoragePath))
	require.NoError(t, err)
	assert.Equal(t, res.Artifact.Data, stored)
}

func TestExportReportDefaultsToPDF(t *testing.T) {
	f := newFixture(t)
	check := runCheck(t, f.svc, compliant)
	generated, err := f.svc.GenerateReport(context.Background(), GenerateReportRequest{CheckID: check.ID})
	require.NoError(t, err)

	res, err := f.svc.ExportReport(context.Background(), ExportReportRequest{ReportID: generated.Report.ID})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(res.Artifact.Data), "%PDF-"))
	assert.Empty(t, res.StoragePath)
}

func TestExportReportErrors(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ExportReport(context.Background(), ExportReportRequest{ReportID: uuid.New(), Format: export.FormatPDF})
	assert.ErrorIs(t, err, ErrReportNotFound)

	check := runCheck(t, f.svc, compliant)
	generated, err := f.svc.GenerateReport(context.Background(), GenerateReportRequest{CheckID: check.ID})
	require.NoError(t, err)

	_, err = f.svc.ExportReport(context.Background(), ExportReportRequest{ReportID: generated.Report.ID, Format: "docx"})
	assert.ErrorIs(t, err, export.ErrUnsupportedFormat)
}

func TestListChecksAndStats(t *testing.T) {
	f := newFixture(t)
	runCheck(t, f.svc, compliant)
	failed := runCheck(t, f.svc, singleViolation)
	runCheck(t, f.svc, threeViolations)

	_, err := f.svc.RunComplianceCheck(context.Background(), RunComplianceCheckRequest{
		ProjectID: "proj-2",
		Building:  compliant,
	})
	require.NoError(t, err)

	reviewing := models.CheckStatusInProgress
	_, err = f.svc.UpdateCheckStatus(context.Background(), UpdateCheckStatusRequest{ID: failed.ID, Status: reviewing})
	require.NoError(t, err)

	listed, err := f.svc.ListChecks(context.Background(), ListChecksRequest{ProjectID: "proj-1"})
	require.NoError(t, err)
	assert.Len(t, listed.Checks, 3)

	all, err := f.svc.ListChecks(context.Background(), ListChecksRequest{})
	require.NoError(t, err)
	assert.Len(t, all.Checks, 4)

	stats, err := f.svc.Stats(context.Background(), StatsRequest{ProjectID: "proj-1"})
	require.NoError(t, err)
	assert.Equal(t, ComplianceStats{
		TotalChecks:    3,
		Completed:      1,
		Failed:         1,
		InProgress:     1,
		AverageScore:   90,
		OpenViolations: 4,
	}, stats.Stats)

	empty, err := f.svc.Stats(context.Background(), StatsRequest{ProjectID: "nobody"})
	require.NoError(t, err)
	assert.Zero(t, empty.Stats.AverageScore)
}
