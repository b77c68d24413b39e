// Package gemini implements the ScoringClient port on top of the Gemini API.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/repopulse/repopulse/internal/domain/model"
	"github.com/repopulse/repopulse/internal/domain/port/driven"
	"github.com/repopulse/repopulse/internal/retry"
)

var _ driven.ScoringClient = (*Scorer)(nil)

// DefaultModel is the Gemini model used when no override is configured.
const DefaultModel = "gemini-2.0-flash"

const systemInstruction = `You are a senior code reviewer scoring a GitHub pull request.
Score the pull request on exactly six dimensions, each a number from 0 to 10:
- code_quality: clarity, structure, and maintainability of the change
- test_coverage: presence and depth of tests accompanying the change
- documentation: docs, comments, and description quality
- compliance_security: adherence to conventions and absence of security concerns
- impact_scope: how focused and well-bounded the change is (smaller, targeted changes score higher)
- pr_value: how much the change matters to the project

If the pull request is a draft or marked work-in-progress, score its expected
value as if completed rather than penalizing its unfinished state.

Respond with a single JSON object and nothing else:
{"code_quality": <number>, "test_coverage": <number>, "documentation": <number>, "compliance_security": <number>, "impact_scope": <number>, "pr_value": <number>, "advisory": "<one or two sentences of actionable feedback>"}`

// Scorer scores pull requests with the Gemini generative API.
type Scorer struct {
	client *genai.Client
	model  *genai.GenerativeModel
	retry  retry.Policy
}

// NewScorer creates a Gemini-backed scorer. modelName falls back to
// DefaultModel when empty. The caller owns Close.
func NewScorer(ctx context.Context, apiKey, modelName string, policy retry.Policy) (*Scorer, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: API key is required")
	}
	if modelName == "" {
		modelName = DefaultModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	gm := client.GenerativeModel(modelName)
	gm.ResponseMIMEType = "application/json"
	gm.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemInstruction)},
	}

	if policy.Classify == nil {
		policy.Classify = ClassifyError
	}

	return &Scorer{client: client, model: gm, retry: policy}, nil
}

// Close releases the underlying API client.
func (s *Scorer) Close() error {
	return s.client.Close()
}

// ClassifyError is the retry classifier for Gemini API errors: quota
// exhaustion and server-side failures are retried, everything else is not.
func ClassifyError(err error) retry.Verdict {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		retryable := apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= 500
		return retry.Verdict{Retry: retryable}
	}
	// Transport-level failures without an HTTP status.
	return retry.Verdict{Retry: true}
}

// ScorePullRequest sends the assembled pull request context to the model and
// parses the six-dimension response. Invalid or incomplete responses surface
// as model.ErrInvalidScoringResponse; the caller decides whether to fall back.
func (s *Scorer) ScorePullRequest(ctx context.Context, prContext string) (*model.ScoringResult, error) {
	var resp *genai.GenerateContentResponse
	err := s.retry.Do(ctx, func(ctx context.Context) error {
		var genErr error
		resp, genErr = s.model.GenerateContent(ctx, genai.Text(prContext))
		return genErr
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: generating score: %w", err)
	}

	raw := extractText(resp)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty response", model.ErrInvalidScoringResponse)
	}

	result, err := ParseScoringResponse(raw)
	if err != nil {
		slog.Debug("gemini: unparseable scoring response", "response", truncate(raw, 500))
		return nil, err
	}
	return result, nil
}

// scoringPayload mirrors the JSON object the model is instructed to return.
// Pointer fields distinguish a missing dimension from an explicit zero.
type scoringPayload struct {
	CodeQuality        *float64 `json:"code_quality"`
	TestCoverage       *float64 `json:"test_coverage"`
	Documentation      *float64 `json:"documentation"`
	ComplianceSecurity *float64 `json:"compliance_security"`
	ImpactScope        *float64 `json:"impact_scope"`
	PRValue            *float64 `json:"pr_value"`
	Advisory           string   `json:"advisory"`
}

// ParseScoringResponse parses and validates a raw model response. Markdown
// code fences around the JSON are tolerated; missing or out-of-range
// dimensions are not.
func ParseScoringResponse(raw string) (*model.ScoringResult, error) {
	cleaned := stripCodeFence(raw)

	var payload scoringPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidScoringResponse, err)
	}

	for _, dim := range []struct {
		name  string
		value *float64
	}{
		{"code_quality", payload.CodeQuality},
		{"test_coverage", payload.TestCoverage},
		{"documentation", payload.Documentation},
		{"compliance_security", payload.ComplianceSecurity},
		{"impact_scope", payload.ImpactScope},
		{"pr_value", payload.PRValue},
	} {
		if dim.value == nil {
			return nil, fmt.Errorf("%w: missing dimension %s", model.ErrInvalidScoringResponse, dim.name)
		}
	}

	scores := model.DimensionScores{
		CodeQuality:        *payload.CodeQuality,
		TestCoverage:       *payload.TestCoverage,
		Documentation:      *payload.Documentation,
		ComplianceSecurity: *payload.ComplianceSecurity,
		ImpactScope:        *payload.ImpactScope,
		PRValue:            *payload.PRValue,
	}
	if err := scores.Validate(); err != nil {
		return nil, err
	}

	return &model.ScoringResult{
		Scores:   scores,
		Advisory: strings.TrimSpace(payload.Advisory),
	}, nil
}

// extractText concatenates the text parts of the first candidate.
func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return strings.TrimSpace(sb.String())
}

// stripCodeFence removes a surrounding markdown code fence, if present.
func stripCodeFence(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
