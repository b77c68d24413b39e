// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	SourceRepo  string // "owner/repo" to analyze.
	TargetRepo  string // "owner/repo" to publish the report issue to; empty disables publishing.
	GitHubToken string
	TargetToken string // Falls back to GitHubToken when empty.

	GeminiAPIKey string // Empty disables AI scoring; every PR gets heuristic scores.
	GeminiModel  string

	Mode string // "today", "day", "week", or empty for the scheduler default.

	MaxIssues      int
	MaxPRs         int
	MaxDiscussions int

	ScoreRPM         int
	ScoreConcurrency int
	CallTimeout      time.Duration
	RunTimeout       time.Duration
	RetryAttempts    int

	ReportDir   string
	CreateIssue bool
	IssueLabels []string
}

// Load reads configuration from environment variables and returns a validated
// Config. REPOPULSE_SOURCE_REPO and REPOPULSE_GITHUB_TOKEN are required.
// Everything else has a default: mode picked by the scheduler, caps of
// 300/200/100 items, 30 scoring calls per minute across 3 workers, a 60s call
// timeout, a 30m run timeout, 4 retry attempts, and reports under ./reports.
func Load() (*Config, error) {
	sourceRepo := os.Getenv("REPOPULSE_SOURCE_REPO")
	if sourceRepo == "" {
		return nil, fmt.Errorf("REPOPULSE_SOURCE_REPO is required")
	}
	if !strings.Contains(sourceRepo, "/") {
		return nil, fmt.Errorf("REPOPULSE_SOURCE_REPO %q must be owner/repo", sourceRepo)
	}

	token := os.Getenv("REPOPULSE_GITHUB_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("REPOPULSE_GITHUB_TOKEN is required")
	}

	targetToken := os.Getenv("REPOPULSE_TARGET_TOKEN")
	if targetToken == "" {
		targetToken = token
	}

	cfg := &Config{
		SourceRepo:  sourceRepo,
		TargetRepo:  os.Getenv("REPOPULSE_TARGET_REPO"),
		GitHubToken: token,
		TargetToken: targetToken,

		GeminiAPIKey: os.Getenv("REPOPULSE_GEMINI_API_KEY"),
		GeminiModel:  os.Getenv("REPOPULSE_GEMINI_MODEL"),

		Mode: os.Getenv("REPOPULSE_MODE"),

		MaxIssues:      300,
		MaxPRs:         200,
		MaxDiscussions: 100,

		ScoreRPM:         30,
		ScoreConcurrency: 3,
		CallTimeout:      60 * time.Second,
		RunTimeout:       30 * time.Minute,
		RetryAttempts:    4,

		ReportDir: "reports",
	}

	for _, ev := range []struct {
		name string
		dst  *int
	}{
		{"REPOPULSE_MAX_ISSUES", &cfg.MaxIssues},
		{"REPOPULSE_MAX_PRS", &cfg.MaxPRs},
		{"REPOPULSE_MAX_DISCUSSIONS", &cfg.MaxDiscussions},
		{"REPOPULSE_SCORE_RPM", &cfg.ScoreRPM},
		{"REPOPULSE_SCORE_CONCURRENCY", &cfg.ScoreConcurrency},
		{"REPOPULSE_RETRY_ATTEMPTS", &cfg.RetryAttempts},
	} {
		if raw, ok := os.LookupEnv(ev.name); ok {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 0 {
				return nil, fmt.Errorf("%s has invalid value %q: expected a non-negative integer", ev.name, raw)
			}
			*ev.dst = parsed
		}
	}

	for _, ev := range []struct {
		name string
		dst  *time.Duration
	}{
		{"REPOPULSE_CALL_TIMEOUT", &cfg.CallTimeout},
		{"REPOPULSE_RUN_TIMEOUT", &cfg.RunTimeout},
	} {
		if raw, ok := os.LookupEnv(ev.name); ok {
			parsed, err := time.ParseDuration(raw)
			if err != nil {
				return nil, fmt.Errorf("%s has invalid duration %q: %w", ev.name, raw, err)
			}
			*ev.dst = parsed
		}
	}

	if raw, ok := os.LookupEnv("REPOPULSE_REPORT_DIR"); ok && raw != "" {
		cfg.ReportDir = raw
	}

	if raw, ok := os.LookupEnv("REPOPULSE_CREATE_ISSUE"); ok {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("REPOPULSE_CREATE_ISSUE has invalid value %q: %w", raw, err)
		}
		cfg.CreateIssue = parsed
	}

	var labels []string
	if raw, ok := os.LookupEnv("REPOPULSE_ISSUE_LABELS"); ok && raw != "" {
		for _, label := range strings.Split(raw, ",") {
			label = strings.TrimSpace(label)
			if label != "" {
				labels = append(labels, label)
			}
		}
	}
	if labels == nil {
		labels = []string{}
	}
	cfg.IssueLabels = labels

	if cfg.CreateIssue && cfg.TargetRepo == "" {
		return nil, fmt.Errorf("REPOPULSE_CREATE_ISSUE requires REPOPULSE_TARGET_REPO")
	}

	return cfg, nil
}
