package narrative

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"daritana-compliance/models"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func sampleReport() *models.ComplianceReport {
	return &models.ComplianceReport{
		ID:          uuid.New(),
		ProjectID:   "proj-7",
		ProjectName: "Bangsar Shophouse",
		Building: models.BuildingParameters{
			Type: models.BuildingResidential, Height: 12, FloorArea: 500, Occupancy: 20,
		},
		Score:         85,
		TotalClauses:  5,
		PassedClauses: 4,
		FailedClauses: 1,
		Violations: models.Violations{
			{ClauseID: "UBBL-168", Severity: models.SeverityCritical, Description: "Single staircase occupancy limit"},
		},
		Recommendations: models.StringList{"Provide a second protected staircase."},
	}
}

func testSummarizer(gen generateFunc) *GeminiSummarizer {
	return &GeminiSummarizer{generate: gen, backoff: time.Millisecond, logger: zap.NewNop()}
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt(sampleReport())

	assert.Contains(t, prompt, "PROJECT: Bangsar Shophouse (proj-7)")
	assert.Contains(t, prompt, "COMPLIANCE SCORE: 85/100")
	assert.Contains(t, prompt, "CLAUSES: 5 checked, 4 passed, 1 failed")
	assert.Contains(t, prompt, "- [critical] UBBL-168: Single staircase occupancy limit")
	assert.Contains(t, prompt, "- Provide a second protected staircase.")
}

func TestBuildPromptNoViolations(t *testing.T) {
	report := sampleReport()
	report.Violations = nil
	report.Recommendations = nil

	prompt := BuildPrompt(report)
	assert.Equal(t, 2, strings.Count(prompt, "- none"))
}

func TestSummarizeRetries(t *testing.T) {
	calls := 0
	s := testSummarizer(func(ctx context.Context, prompt string) (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("503 unavailable")
		}
		return "  The building fails one critical fire clause.  ", nil
	})

	summary, err := s.Summarize(context.Background(), sampleReport())
	require.NoError(t, err)
	assert.Equal(t, "The building fails one critical fire clause.", summary)
	assert.Equal(t, 2, calls)
}

func TestSummarizeGivesUp(t *testing.T) {
	calls := 0
	s := testSummarizer(func(ctx context.Context, prompt string) (string, error) {
		calls++
		return "", nil
	})

	_, err := s.Summarize(context.Background(), sampleReport())
	assert.ErrorIs(t, err, ErrEmptySummary)
	assert.Equal(t, maxRetries, calls)
}

func TestSummarizeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := testSummarizer(func(ctx context.Context, prompt string) (string, error) {
		cancel()
		return "", errors.New("request aborted")
	})

	_, err := s.Summarize(ctx, sampleReport())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTruncatePrompt(t *testing.T) {
	assert.Equal(t, "abm", truncatePrompt("abm²", 4))
	assert.Equal(t, "abm", truncatePrompt("abm²", 3))
	assert.Equal(t, "abm²", truncatePrompt("abm²", 5))
	assert.Equal(t, "short", truncatePrompt("short", 100))
}

func TestSummarizeTruncatesOnRuneBoundary(t *testing.T) {
	report := sampleReport()
	report.Violations = nil
	for i := 0; i < 400; i++ {
		report.Violations = append(report.Violations, models.Violation{
			ClauseID:    "UBBL-33",
			Severity:    models.SeverityMajor,
			Description: strings.Repeat("²", 37),
		})
	}

	var sent string
	s := testSummarizer(func(ctx context.Context, prompt string) (string, error) {
		sent = prompt
		return "Too long to read.", nil
	})

	_, err := s.Summarize(context.Background(), report)
	require.NoError(t, err)
	assert.True(t, utf8.ValidString(sent))
	assert.Contains(t, sent, "[Content truncated due to length...]")
	assert.LessOrEqual(t, len(sent), maxPromptChars+len("\n\n[Content truncated due to length...]"))
}

func TestResponseText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []genai.Part{genai.Text("Score 85. "), genai.Text("One critical issue.")}}},
			{Content: &genai.Content{Parts: []genai.Part{genai.Text("ignored")}}},
		},
	}
	assert.Equal(t, "Score 85. One critical issue.", responseText(resp))
	assert.Empty(t, responseText(nil))
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(context.Background(), "")
	assert.Error(t, err)
}
