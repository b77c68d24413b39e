// Package application contains use-case orchestration services.
package application

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/repopulse/repopulse/internal/domain/model"
	"github.com/repopulse/repopulse/internal/domain/port/driven"
)

// RunLimits caps how many items of each kind a run ingests.
type RunLimits struct {
	MaxIssues      int
	MaxPRs         int
	MaxDiscussions int
}

// RunService orchestrates one analysis run: window resolution, parallel
// ingestion, scoring, and aggregation.
type RunService struct {
	source     driven.SourceClient
	scores     *ScoreService
	aggregator *Aggregator
	repo       string
	limits     RunLimits
	runTimeout time.Duration
}

// NewRunService creates a RunService for one source repository.
func NewRunService(
	source driven.SourceClient,
	scores *ScoreService,
	aggregator *Aggregator,
	repo string,
	limits RunLimits,
	runTimeout time.Duration,
) *RunService {
	return &RunService{
		source:     source,
		scores:     scores,
		aggregator: aggregator,
		repo:       repo,
		limits:     limits,
		runTimeout: runTimeout,
	}
}

// Run executes one analysis over the window the mode resolves to at ref.
// The run deadline degrades the result to Partial rather than failing it;
// only invalid modes and non-timeout ingestion failures return errors.
func (s *RunService) Run(ctx context.Context, mode model.Mode, ref time.Time) (*model.RunResult, error) {
	win, err := model.ResolveWindow(mode, ref)
	if err != nil {
		return nil, err
	}

	if s.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.runTimeout)
		defer cancel()
	}

	slog.Info("starting analysis run",
		"repo", s.repo,
		"mode", mode,
		"window_start", win.Start.Format(time.RFC3339),
		"window_end", win.End.Format(time.RFC3339),
	)

	issues, prs, discussions, partial, err := s.ingest(ctx, win)
	if err != nil {
		return nil, err
	}

	analyzedPRs := s.scores.ScoreAll(ctx, prs)
	if ctx.Err() != nil {
		partial = true
	}

	s.aggregator.RankPullRequests(analyzedPRs)
	analyzedIssues := s.aggregator.AnalyzeIssues(issues)
	analyzedDiscussions := s.aggregator.AnalyzeDiscussions(discussions)

	result := &model.RunResult{
		Repo:         s.repo,
		Mode:         mode,
		Window:       win,
		GeneratedAt:  time.Now().UTC(),
		Partial:      partial,
		PullRequests: analyzedPRs,
		Issues:       analyzedIssues,
		Discussions:  analyzedDiscussions,
		Summary:      s.aggregator.Summarize(analyzedIssues, analyzedPRs, analyzedDiscussions),
	}

	slog.Info("analysis run complete",
		"repo", s.repo,
		"issues", result.Summary.Issues,
		"pull_requests", result.Summary.PullRequests,
		"discussions", result.Summary.Discussions,
		"ai_scored", result.Summary.AIScored,
		"fallback", result.Summary.Fallback,
		"partial", result.Partial,
	)

	return result, nil
}

// ingest fetches the three item kinds in parallel. A source that completes
// before the deadline keeps its items; one cut off by the deadline yields an
// empty set and marks the run partial. Non-timeout failures abort the run.
func (s *RunService) ingest(ctx context.Context, win model.TimeWindow) (issues []model.Issue, prs []model.PullRequest, discussions []model.Discussion, partial bool, err error) {
	g, gctx := errgroup.WithContext(ctx)

	var timedOut [3]bool

	fetch := func(idx int, name string, run func() error) func() error {
		return func() error {
			fetchErr := run()
			if fetchErr == nil {
				return nil
			}
			if errors.Is(fetchErr, context.DeadlineExceeded) {
				slog.Warn("ingestion cut off by run deadline", "source", name)
				timedOut[idx] = true
				return nil
			}
			return fetchErr
		}
	}

	g.Go(fetch(0, "issues", func() error {
		var fetchErr error
		issues, fetchErr = s.source.ListIssues(gctx, win, s.limits.MaxIssues)
		return fetchErr
	}))
	g.Go(fetch(1, "pull_requests", func() error {
		var fetchErr error
		prs, fetchErr = s.source.ListPullRequests(gctx, win, s.limits.MaxPRs)
		return fetchErr
	}))
	g.Go(fetch(2, "discussions", func() error {
		var fetchErr error
		discussions, fetchErr = s.source.ListDiscussions(gctx, win, s.limits.MaxDiscussions)
		return fetchErr
	}))

	if waitErr := g.Wait(); waitErr != nil {
		return nil, nil, nil, false, waitErr
	}

	for idx, cut := range timedOut {
		if cut {
			partial = true
			switch idx {
			case 0:
				issues = nil
			case 1:
				prs = nil
			case 2:
				discussions = nil
			}
		}
	}

	return issues, prs, discussions, partial, nil
}
