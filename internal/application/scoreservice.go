package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/repopulse/repopulse/internal/domain/model"
	"github.com/repopulse/repopulse/internal/domain/port/driven"
)

// ScoreService enriches and scores pull requests. Detail fetches and scoring
// calls run concurrently under a bounded worker pool; scoring failures degrade
// individual items to heuristic scores instead of failing the run.
type ScoreService struct {
	source      driven.SourceClient
	scorer      driven.ScoringClient // Nil disables AI scoring entirely.
	limiter     *RateLimiter
	taxonomy    Taxonomy
	concurrency int
	callTimeout time.Duration
}

// NewScoreService creates a ScoreService. A nil scorer routes every pull
// request straight to the fallback heuristic.
func NewScoreService(
	source driven.SourceClient,
	scorer driven.ScoringClient,
	limiter *RateLimiter,
	taxonomy Taxonomy,
	concurrency int,
	callTimeout time.Duration,
) *ScoreService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &ScoreService{
		source:      source,
		scorer:      scorer,
		limiter:     limiter,
		taxonomy:    taxonomy,
		concurrency: concurrency,
		callTimeout: callTimeout,
	}
}

// ScoreAll enriches and scores every pull request, preserving input order.
// Each worker writes only its own slot, so no further synchronization is
// needed. The returned slice always has one entry per input.
func (s *ScoreService) ScoreAll(ctx context.Context, prs []model.PullRequest) []model.AnalyzedPR {
	analyzed := make([]model.AnalyzedPR, len(prs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, pr := range prs {
		g.Go(func() error {
			analyzed[i] = s.scoreOne(gctx, pr)
			return nil
		})
	}

	// Workers never return errors; Wait only synchronizes completion.
	_ = g.Wait()

	return analyzed
}

// scoreOne fetches detail, builds the scoring context, and calls the scorer.
// Every failure path lands on the fallback heuristic.
func (s *ScoreService) scoreOne(ctx context.Context, pr model.PullRequest) model.AnalyzedPR {
	detail, err := s.source.FetchPRDetail(ctx, pr.Number)
	if err != nil {
		if !errors.Is(err, model.ErrDetailUnavailable) || ctx.Err() != nil {
			slog.Warn("pr detail fetch aborted", "pr_number", pr.Number, "error", err)
		} else {
			slog.Warn("pr detail unavailable, scoring without diff", "pr_number", pr.Number, "error", err)
		}
		detail = &model.PRDetail{}
	}

	pr.Additions = detail.Additions
	pr.Deletions = detail.Deletions
	pr.ChangedFiles = detail.ChangedFiles
	pr.Commits = detail.Commits

	result := model.AnalyzedPR{
		PullRequest:   pr,
		Type:          s.taxonomy.DetectPRType(pr),
		Priority:      s.taxonomy.PriorityFor(pr),
		Size:          s.taxonomy.SizeFor(pr),
		ExpectedValue: pr.InProgress(),
	}

	scores, advisory, provenance := s.obtainScores(ctx, pr, detail, result.Type)
	result.Scores = scores
	result.Advisory = advisory
	result.Provenance = provenance
	result.Composite = scores.Composite()
	result.Grade = model.GradeFor(result.Composite)

	return result
}

// obtainScores tries the AI scorer and falls back to the structural heuristic
// on any failure. The fallback never fails.
func (s *ScoreService) obtainScores(ctx context.Context, pr model.PullRequest, detail *model.PRDetail, prType model.PRType) (model.DimensionScores, string, model.Provenance) {
	fallback := func(reason string, err error) (model.DimensionScores, string, model.Provenance) {
		if err != nil {
			slog.Warn("falling back to heuristic scores",
				"pr_number", pr.Number,
				"reason", reason,
				"error", err,
			)
		}
		return s.heuristicScores(pr, detail, prType), "", model.ProvenanceFallback
	}

	if s.scorer == nil {
		return fallback("", nil)
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return fallback("rate limiter", err)
	}

	callCtx := ctx
	if s.callTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.callTimeout)
		defer cancel()
	}

	res, err := s.scorer.ScorePullRequest(callCtx, BuildPRContext(pr, detail, prType))
	if err != nil {
		return fallback("scoring call", err)
	}

	return res.Scores, res.Advisory, model.ProvenanceAI
}

// heuristicScores derives deterministic dimension scores from structural
// signals when AI scoring is unavailable.
func (s *ScoreService) heuristicScores(pr model.PullRequest, detail *model.PRDetail, prType model.PRType) model.DimensionScores {
	hasTests := false
	hasDocs := false
	for _, f := range detail.Files {
		if s.taxonomy.IsTestPath(f.Path) {
			hasTests = true
		}
		if s.taxonomy.IsDocPath(f.Path) {
			hasDocs = true
		}
	}

	scores := model.DimensionScores{
		CodeQuality:        5.0,
		ComplianceSecurity: 5.0,
	}

	if hasTests {
		scores.TestCoverage = 7.0
	} else {
		scores.TestCoverage = 2.0
	}

	if hasDocs {
		scores.Documentation = 6.5
	} else {
		scores.Documentation = 3.0
	}
	if len(pr.Body) >= 200 {
		scores.Documentation++
	}

	switch s.taxonomy.SizeFor(pr) {
	case model.SizeSmall:
		scores.ImpactScope = 7.0
	case model.SizeMedium:
		scores.ImpactScope = 6.0
	default:
		scores.ImpactScope = 4.0
	}

	switch prType {
	case model.TypeFeat:
		scores.PRValue = 7.0
	case model.TypeFix, model.TypeRefactor:
		scores.PRValue = 6.0
	case model.TypeDocs, model.TypeTest:
		scores.PRValue = 4.0
	case model.TypeChore:
		scores.PRValue = 3.0
	default:
		scores.PRValue = 5.0
	}

	return clampScores(scores)
}

func clampScores(d model.DimensionScores) model.DimensionScores {
	clamp := func(v float64) float64 {
		if v < 0 {
			return 0
		}
		if v > 10 {
			return 10
		}
		return v
	}
	d.CodeQuality = clamp(d.CodeQuality)
	d.TestCoverage = clamp(d.TestCoverage)
	d.Documentation = clamp(d.Documentation)
	d.ComplianceSecurity = clamp(d.ComplianceSecurity)
	d.ImpactScope = clamp(d.ImpactScope)
	d.PRValue = clamp(d.PRValue)
	return d
}

const (
	maxContextFiles = 50
	maxBodyLen      = 4000
)

var (
	repoRefPattern = regexp.MustCompile(`(\w+)#(\d+)`)
	bareRefPattern = regexp.MustCompile(`#(\d+)`)
)

// scrubReferences rewrites GitHub reference syntax ("#123", "owner#123") into
// plain text so the model does not fabricate cross-links in its advisory.
func scrubReferences(text string) string {
	text = repoRefPattern.ReplaceAllString(text, "$1-$2")
	return bareRefPattern.ReplaceAllString(text, "Item-$1")
}

// BuildPRContext assembles the bounded prompt context for one pull request:
// metadata, diff statistics, the scrubbed description, and up to
// maxContextFiles changed files grouped by change kind.
func BuildPRContext(pr model.PullRequest, detail *model.PRDetail, prType model.PRType) string {
	var sb strings.Builder

	sb.WriteString("## Pull Request\n\n")
	fmt.Fprintf(&sb, "**Title**: %s\n", pr.Title)
	fmt.Fprintf(&sb, "**Author**: %s\n", pr.Author)
	fmt.Fprintf(&sb, "**Type**: %s\n", prType)

	if pr.InProgress() {
		sb.WriteString("**Status**: work in progress. Score the expected value and importance of the completed change; do not penalize its unfinished state.\n")
	} else {
		fmt.Fprintf(&sb, "**Status**: %s", pr.Status)
		if pr.Merged() {
			fmt.Fprintf(&sb, " (merged at %s)", pr.MergedAt.Format(time.RFC3339))
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "**Created**: %s\n", pr.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(&sb, "**Updated**: %s\n", pr.UpdatedAt.Format(time.RFC3339))
	if len(pr.Labels) > 0 {
		fmt.Fprintf(&sb, "**Labels**: %s\n", strings.Join(pr.Labels, ", "))
	}

	sb.WriteString("\n**Diff statistics**:\n")
	fmt.Fprintf(&sb, "- Changed files: %d\n", pr.ChangedFiles)
	fmt.Fprintf(&sb, "- Additions: +%d\n", pr.Additions)
	fmt.Fprintf(&sb, "- Deletions: -%d\n", pr.Deletions)
	fmt.Fprintf(&sb, "- Commits: %d\n", pr.Commits)
	fmt.Fprintf(&sb, "- Comments: %d\n", pr.Comments)

	body := pr.Body
	if body == "" {
		body = "(no description)"
	}
	if len(body) > maxBodyLen {
		body = body[:maxBodyLen] + "..."
	}
	fmt.Fprintf(&sb, "\n**Description**:\n%s\n", scrubReferences(body))

	if len(detail.Files) > 0 {
		sb.WriteString("\n## Changed files\n\n")

		var added, modified, removed []string
		for i, f := range detail.Files {
			if i >= maxContextFiles {
				break
			}
			switch f.Status {
			case "added":
				added = append(added, fmt.Sprintf("- `%s` (+%d)", f.Path, f.Additions))
			case "removed":
				removed = append(removed, fmt.Sprintf("- `%s` (-%d)", f.Path, f.Deletions))
			default:
				modified = append(modified, fmt.Sprintf("- `%s` (+%d/-%d)", f.Path, f.Additions, f.Deletions))
			}
		}

		if len(added) > 0 {
			sb.WriteString("### Added\n" + strings.Join(added, "\n") + "\n\n")
		}
		if len(modified) > 0 {
			sb.WriteString("### Modified\n" + strings.Join(modified, "\n") + "\n\n")
		}
		if len(removed) > 0 {
			sb.WriteString("### Removed\n" + strings.Join(removed, "\n") + "\n\n")
		}

		if len(detail.Files) > maxContextFiles {
			fmt.Fprintf(&sb, "(%d more files omitted)\n", len(detail.Files)-maxContextFiles)
		}
	}

	return sb.String()
}
