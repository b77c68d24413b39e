package report_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repopulse/repopulse/internal/domain/model"
	"github.com/repopulse/repopulse/internal/report"
)

func sampleResult() *model.RunResult {
	window := model.TimeWindow{
		Start: time.Date(2026, 3, 1, 16, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 3, 8, 16, 0, 0, 0, time.UTC),
	}
	created := window.Start.Add(24 * time.Hour)

	return &model.RunResult{
		Repo:        "acme/widgets",
		Mode:        model.ModeWeek,
		Window:      window,
		GeneratedAt: time.Date(2026, 3, 9, 1, 0, 0, 0, time.UTC),
		PullRequests: []model.AnalyzedPR{
			{
				PullRequest: model.PullRequest{
					Number: 42, Title: "feat: streaming uploads", Author: "alice",
					Status: model.PRStatusMerged, MergedAt: created,
					CreatedAt: created, UpdatedAt: created.Add(time.Hour),
					Additions: 300, Deletions: 40, ChangedFiles: 6, Commits: 4,
				},
				Scores: model.DimensionScores{
					CodeQuality: 9, TestCoverage: 8.5, Documentation: 9,
					ComplianceSecurity: 9, ImpactScope: 9, PRValue: 8.5,
				},
				Composite: 88.3, Grade: model.GradeExcellent,
				Type: model.TypeFeat, Priority: model.PriorityP1, Size: model.SizeLarge,
				Advisory:   "Consider splitting the codec change into its own PR.",
				Provenance: model.ProvenanceAI,
			},
			{
				PullRequest: model.PullRequest{
					Number: 43, Title: "chore: bump deps | with pipe", Author: "bob",
					Status: model.PRStatusOpen, CreatedAt: created, UpdatedAt: created,
				},
				Scores:    model.DimensionScores{CodeQuality: 5, TestCoverage: 2, Documentation: 3, ComplianceSecurity: 5, ImpactScope: 7, PRValue: 3},
				Composite: 41.7, Grade: model.GradeFair,
				Type: model.TypeChore, Priority: model.PriorityP3, Size: model.SizeSmall,
				Provenance: model.ProvenanceFallback,
			},
		},
		Issues: []model.AnalyzedIssue{
			{
				Issue:    model.Issue{Number: 7, Title: "Crash on resize", Author: "carol", State: "open", Comments: 3, CreatedAt: created, UpdatedAt: created, CreatedInWindow: true},
				Category: model.CategoryBug,
				Summary:  "Window resize panics the renderer.",
			},
			{
				Issue:    model.Issue{Number: 2, Title: "Old request, new comment", Author: "dave", State: "open", CreatedAt: window.Start.Add(-48 * time.Hour), UpdatedAt: created},
				Category: model.CategoryFeature,
			},
		},
		Discussions: []model.AnalyzedDiscussion{
			{
				Discussion: model.Discussion{Number: 12, Title: "Roadmap", Author: "erin", Category: "Ideas", State: "open", Comments: 9, CreatedAt: created, UpdatedAt: created, CreatedInWindow: true},
				Summary:    "Discussion about the v2 roadmap.",
			},
		},
		Summary: model.RunSummary{
			Issues: 2, OpenIssues: 2, Bugs: 1, Features: 1,
			PullRequests: 2, OpenPRs: 1, MergedPRs: 1,
			Excellent: 1, Fair: 1, AIScored: 1, Fallback: 1,
			Discussions: 1,
		},
	}
}

func TestRender(t *testing.T) {
	content, err := report.Render(sampleResult())
	require.NoError(t, err)

	assert.Contains(t, content, "# Activity Report: acme/widgets")
	assert.Contains(t, content, "**Mode**: week")

	// Score table has both PRs, ranked, with the fallback marker.
	assert.Contains(t, content, "| PR-42 | feat: streaming uploads | alice | feat | P1 | large | 88.3 | excellent | merged |")
	assert.Contains(t, content, "fair* |")
	assert.Contains(t, content, "chore: bump deps \\| with pipe")

	// Detail section for the top PR.
	assert.Contains(t, content, "### PR-42: feat: streaming uploads")
	assert.Contains(t, content, "| Code quality | 9.0 |")
	assert.Contains(t, content, "> Consider splitting the codec change into its own PR.")

	// Issues split by window membership.
	assert.Contains(t, content, "## New Issues")
	assert.Contains(t, content, "| Issue-7 |")
	assert.Contains(t, content, "## Updated Issues")
	assert.Contains(t, content, "| Issue-2 |")

	assert.Contains(t, content, "### Discussion-12: Roadmap")
	assert.NotContains(t, content, "partial run")
}

func TestRenderPartialNote(t *testing.T) {
	result := sampleResult()
	result.Partial = true

	content, err := report.Render(result)
	require.NoError(t, err)
	assert.Contains(t, content, "partial run")
}

func TestRenderEmptyResult(t *testing.T) {
	result := &model.RunResult{
		Repo: "acme/empty",
		Mode: model.ModeDay,
		Window: model.TimeWindow{
			Start: time.Date(2026, 3, 9, 16, 0, 0, 0, time.UTC),
			End:   time.Date(2026, 3, 10, 16, 0, 0, 0, time.UTC),
		},
		GeneratedAt: time.Now().UTC(),
	}

	content, err := report.Render(result)
	require.NoError(t, err)
	assert.Contains(t, content, "# Activity Report: acme/empty")
	assert.NotContains(t, content, "## Pull Request Scores")
	assert.NotContains(t, content, "## New Issues")
	assert.NotContains(t, content, "## Discussions")
}

func TestRenderDeterministic(t *testing.T) {
	first, err := report.Render(sampleResult())
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := report.Render(sampleResult())
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestFilename(t *testing.T) {
	result := sampleResult()
	// The window ends at the exclusive instant 2026-03-08 16:00 UTC; the
	// last covered day is 2026-03-08.
	assert.Equal(t, "week-2026-03-08.md", report.Filename(result))
}

func TestWrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "reports")

	path, err := report.Write(sampleResult(), dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "week-2026-03-08.md"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(content), "# Activity Report: acme/widgets"))
}
