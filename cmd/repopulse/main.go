package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	geminiadapter "github.com/repopulse/repopulse/internal/adapter/driven/gemini"
	githubadapter "github.com/repopulse/repopulse/internal/adapter/driven/github"
	"github.com/repopulse/repopulse/internal/application"
	"github.com/repopulse/repopulse/internal/config"
	"github.com/repopulse/repopulse/internal/domain/model"
	"github.com/repopulse/repopulse/internal/domain/port/driven"
	"github.com/repopulse/repopulse/internal/report"
	"github.com/repopulse/repopulse/internal/retry"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on missing required env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"source_repo", cfg.SourceRepo,
		"target_repo", cfg.TargetRepo,
		"report_dir", cfg.ReportDir,
		"score_rpm", cfg.ScoreRPM,
		"score_concurrency", cfg.ScoreConcurrency,
		"ai_scoring", cfg.GeminiAPIKey != "",
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Resolve the run mode: explicit env override or scheduler default.
	now := time.Now()
	mode := model.DefaultMode(now)
	if cfg.Mode != "" {
		mode, err = model.ParseMode(cfg.Mode)
		if err != nil {
			return err
		}
	}

	policy := retry.Policy{
		MaxAttempts:     cfg.RetryAttempts,
		InitialInterval: time.Second,
		MaxInterval:     time.Minute,
	}

	// 4. Wire adapters.
	source, err := githubadapter.NewClient(cfg.GitHubToken, cfg.SourceRepo, policy)
	if err != nil {
		return err
	}

	var scorer *geminiadapter.Scorer
	if cfg.GeminiAPIKey != "" {
		scorer, err = geminiadapter.NewScorer(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, policy)
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := scorer.Close(); closeErr != nil {
				slog.Error("error closing scorer", "error", closeErr)
			}
		}()
	} else {
		slog.Info("no gemini api key configured, using heuristic scoring")
	}

	// 5. Wire services.
	taxonomy := application.DefaultTaxonomy()
	limiter := application.NewRateLimiter(cfg.ScoreRPM, time.Minute)

	scoreSvc := application.NewScoreService(
		source,
		scoringClient(scorer),
		limiter,
		taxonomy,
		cfg.ScoreConcurrency,
		cfg.CallTimeout,
	)
	runSvc := application.NewRunService(
		source,
		scoreSvc,
		application.NewAggregator(taxonomy),
		cfg.SourceRepo,
		application.RunLimits{
			MaxIssues:      cfg.MaxIssues,
			MaxPRs:         cfg.MaxPRs,
			MaxDiscussions: cfg.MaxDiscussions,
		},
		cfg.RunTimeout,
	)

	// 6. Execute one analysis run.
	result, err := runSvc.Run(ctx, mode, now)
	if err != nil {
		return err
	}

	// 7. Render and write the report.
	path, err := report.Write(result, cfg.ReportDir)
	if err != nil {
		return err
	}
	slog.Info("report written", "path", path)

	// 8. Optionally publish the report as an issue on the target repo.
	if cfg.CreateIssue {
		target, err := githubadapter.NewClient(cfg.TargetToken, cfg.TargetRepo, policy)
		if err != nil {
			return err
		}

		content, err := report.Render(result)
		if err != nil {
			return err
		}

		day := result.Window.End.Add(-time.Second).UTC().Format("2006-01-02")
		title := fmt.Sprintf("Activity report: %s (%s, %s)", cfg.SourceRepo, result.Mode, day)
		labels := append(append([]string{}, cfg.IssueLabels...), modeLabel(result.Mode))
		number, err := target.CreateIssue(ctx, title, content, labels)
		if err != nil {
			return err
		}
		slog.Info("report issue created", "repo", cfg.TargetRepo, "issue_number", number)
	}

	return nil
}

// modeLabel maps a run mode to the label attached to published report issues.
func modeLabel(mode model.Mode) string {
	switch mode {
	case model.ModeDay:
		return "daily"
	case model.ModeWeek:
		return "weekly"
	default:
		return "today"
	}
}

// scoringClient converts a possibly nil *Scorer into the port type without
// producing a non-nil interface wrapping a nil pointer.
func scoringClient(s *geminiadapter.Scorer) driven.ScoringClient {
	if s == nil {
		return nil
	}
	return s
}
