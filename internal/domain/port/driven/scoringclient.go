package driven

import (
	"context"

	"github.com/repopulse/repopulse/internal/domain/model"
)

// ScoringClient submits a serialized pull-request context to the external
// scoring model and returns the parsed six-dimension rubric result.
//
// A response missing dimensions, malformed, or out of range surfaces as
// model.ErrInvalidScoringResponse; callers route any error to the fallback
// heuristic so every pull request still receives a composite score.
type ScoringClient interface {
	ScorePullRequest(ctx context.Context, prContext string) (*model.ScoringResult, error)
}
