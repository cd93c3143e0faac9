// Package narrative writes plain-language summaries of compliance reports
// with Gemini.
package narrative

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"daritana-compliance/models"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

const (
	// DefaultModel is used when no model name is configured
	DefaultModel = "gemini-1.5-flash"

	maxRetries     = 3
	initialBackoff = time.Second
	maxPromptChars = 30000
	temperature    = 0.2

	systemInstruction = "You are a Malaysian building control consultant summarizing UBBL compliance reports for project owners. Use plain, factual language. Do not invent clauses, figures or requirements that are not in the report."
)

// ErrEmptySummary is returned when the model produced no text
var ErrEmptySummary = errors.New("model returned an empty summary")

// generateFunc sends a prompt to the model and returns its text
type generateFunc func(ctx context.Context, prompt string) (string, error)

// GeminiSummarizer summarizes reports with a Gemini model
type GeminiSummarizer struct {
	generate generateFunc
	backoff  time.Duration
	logger   *zap.Logger
	client   *genai.Client
}

// NewClient creates a Gemini client for an API key
func NewClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	return genai.NewClient(ctx, option.WithAPIKey(apiKey))
}

// NewGeminiSummarizer creates a summarizer backed by client
func NewGeminiSummarizer(client *genai.Client, modelName string, logger *zap.Logger) *GeminiSummarizer {
	if modelName == "" {
		modelName = DefaultModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(temperature)
	model.SystemInstruction = genai.NewUserContent(genai.Text(systemInstruction))

	return &GeminiSummarizer{
		generate: func(ctx context.Context, prompt string) (string, error) {
			resp, err := model.GenerateContent(ctx, genai.Text(prompt))
			if err != nil {
				return "", err
			}
			return responseText(resp), nil
		},
		backoff: initialBackoff,
		logger:  logger,
		client:  client,
	}
}

// Close releases the underlying client
func (g *GeminiSummarizer) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}

// Summarize returns a short narrative for the report, retrying transient
// failures with exponential backoff
func (g *GeminiSummarizer) Summarize(ctx context.Context, report *models.ComplianceReport) (string, error) {
	prompt := BuildPrompt(report)
	if len(prompt) > maxPromptChars {
		g.logger.Warn("Summary prompt too long, truncating",
			zap.Int("chars", len(prompt)),
			zap.Int("limit", maxPromptChars),
		)
		prompt = truncatePrompt(prompt, maxPromptChars) + "\n\n[Content truncated due to length...]"
	}

	var lastErr error
	backoff := g.backoff
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		text, err := g.generate(ctx, prompt)
		if err != nil {
			lastErr = err
			g.logger.Warn("Summary generation failed",
				zap.Int("attempt", attempt+1),
				zap.Error(err),
			)
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			continue
		}

		text = strings.TrimSpace(text)
		if text != "" {
			return text, nil
		}
		lastErr = ErrEmptySummary
	}

	return "", fmt.Errorf("failed to summarize report after %d attempts: %w", maxRetries, lastErr)
}

// BuildPrompt renders the report facts the model summarizes
func BuildPrompt(report *models.ComplianceReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Summarize this building code compliance report in at most four sentences for the project owner.\n\n")
	fmt.Fprintf(&b, "PROJECT: %s (%s)\n", report.ProjectName, report.ProjectID)
	fmt.Fprintf(&b, "BUILDING: %s, %g m high, %g m² floor area, %d occupants\n",
		report.Building.Type, report.Building.Height, report.Building.FloorArea, report.Building.Occupancy)
	fmt.Fprintf(&b, "COMPLIANCE SCORE: %d/100\n", report.Score)
	fmt.Fprintf(&b, "CLAUSES: %d checked, %d passed, %d failed\n\n", report.TotalClauses, report.PassedClauses, report.FailedClauses)

	b.WriteString("VIOLATIONS:\n")
	if len(report.Violations) == 0 {
		b.WriteString("- none\n")
	}
	for _, v := range report.Violations {
		fmt.Fprintf(&b, "- [%s] %s: %s\n", v.Severity, v.ClauseID, v.Description)
	}

	b.WriteString("\nRECOMMENDATIONS:\n")
	if len(report.Recommendations) == 0 {
		b.WriteString("- none\n")
	}
	for _, rec := range report.Recommendations {
		fmt.Fprintf(&b, "- %s\n", rec)
	}

	b.WriteString("\nLead with the overall outcome, then the most severe issue and the action it needs.")
	return b.String()
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				b.WriteString(string(text))
			}
		}
		// first candidate with content
		if b.Len() > 0 {
			break
		}
	}
	return b.String()
}

// truncatePrompt cuts s to at most limit bytes on a rune boundary
func truncatePrompt(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}
