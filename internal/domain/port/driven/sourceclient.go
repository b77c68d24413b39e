// Package driven defines the outbound ports of the analysis pipeline.
package driven

import (
	"context"

	"github.com/repopulse/repopulse/internal/domain/model"
)

// SourceClient retrieves raw activity from the source repository.
//
// List methods return items filtered to the window and capped to max by
// most-recent-first ordering; exhausting retries on a list call is fatal to
// the run and surfaces as model.ErrSourceUnavailable. FetchPRDetail failure
// surfaces as model.ErrDetailUnavailable and degrades only that item.
type SourceClient interface {
	ListIssues(ctx context.Context, win model.TimeWindow, max int) ([]model.Issue, error)
	ListPullRequests(ctx context.Context, win model.TimeWindow, max int) ([]model.PullRequest, error)
	ListDiscussions(ctx context.Context, win model.TimeWindow, max int) ([]model.Discussion, error)
	FetchPRDetail(ctx context.Context, number int) (*model.PRDetail, error)
}
