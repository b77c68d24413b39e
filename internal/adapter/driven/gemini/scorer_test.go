package gemini_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	"github.com/repopulse/repopulse/internal/adapter/driven/gemini"
	"github.com/repopulse/repopulse/internal/domain/model"
)

const validResponse = `{
	"code_quality": 9,
	"test_coverage": 8.5,
	"documentation": 9,
	"compliance_security": 9,
	"impact_scope": 9,
	"pr_value": 8.5,
	"advisory": "Add a regression test for the empty-input path."
}`

func TestParseScoringResponse(t *testing.T) {
	result, err := gemini.ParseScoringResponse(validResponse)
	require.NoError(t, err)

	assert.Equal(t, 9.0, result.Scores.CodeQuality)
	assert.Equal(t, 8.5, result.Scores.TestCoverage)
	assert.Equal(t, 88.3, result.Scores.Composite())
	assert.Equal(t, "Add a regression test for the empty-input path.", result.Advisory)
}

func TestParseScoringResponseCodeFence(t *testing.T) {
	fenced := "```json\n" + validResponse + "\n```"
	result, err := gemini.ParseScoringResponse(fenced)
	require.NoError(t, err)
	assert.Equal(t, 9.0, result.Scores.CodeQuality)
}

func TestParseScoringResponseMissingDimension(t *testing.T) {
	_, err := gemini.ParseScoringResponse(`{
		"code_quality": 9,
		"test_coverage": 8,
		"documentation": 9,
		"compliance_security": 9,
		"impact_scope": 9
	}`)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrInvalidScoringResponse)
	assert.Contains(t, err.Error(), "pr_value")
}

func TestParseScoringResponseExplicitZero(t *testing.T) {
	result, err := gemini.ParseScoringResponse(`{
		"code_quality": 0,
		"test_coverage": 0,
		"documentation": 0,
		"compliance_security": 0,
		"impact_scope": 0,
		"pr_value": 0,
		"advisory": ""
	}`)
	require.NoError(t, err, "an explicit zero is a valid score, not a missing field")
	assert.Equal(t, 0.0, result.Scores.Composite())
}

func TestParseScoringResponseOutOfRange(t *testing.T) {
	_, err := gemini.ParseScoringResponse(`{
		"code_quality": 11,
		"test_coverage": 8,
		"documentation": 9,
		"compliance_security": 9,
		"impact_scope": 9,
		"pr_value": 8
	}`)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrInvalidScoringResponse)
}

func TestParseScoringResponseMalformed(t *testing.T) {
	for _, raw := range []string{"", "not json", `{"code_quality": "high"}`, "[1,2,3]"} {
		_, err := gemini.ParseScoringResponse(raw)
		assert.ErrorIs(t, err, model.ErrInvalidScoringResponse, "input %q", raw)
	}
}

func TestClassifyError(t *testing.T) {
	quota := &googleapi.Error{Code: http.StatusTooManyRequests}
	assert.True(t, gemini.ClassifyError(quota).Retry)

	server := &googleapi.Error{Code: http.StatusServiceUnavailable}
	assert.True(t, gemini.ClassifyError(server).Retry)

	badRequest := &googleapi.Error{Code: http.StatusBadRequest}
	assert.False(t, gemini.ClassifyError(badRequest).Retry)

	denied := &googleapi.Error{Code: http.StatusForbidden}
	assert.False(t, gemini.ClassifyError(denied).Retry)
}
