package model

import "time"

// RunSummary holds the single-pass counts over the analyzed sets.
type RunSummary struct {
	Issues       int
	OpenIssues   int
	ClosedIssues int
	Bugs         int
	Features     int
	OtherIssues  int

	PullRequests int
	OpenPRs      int
	MergedPRs    int
	ClosedPRs    int
	Excellent    int
	Good         int
	Fair         int
	AIScored     int
	Fallback     int

	Discussions int
}

// RunResult is the complete output of one analysis run, owned solely by the
// invocation that produced it. Pull requests are ranked; the report assembler
// never re-derives a score, classification, or ranking.
type RunResult struct {
	Repo        string
	Mode        Mode
	Window      TimeWindow
	GeneratedAt time.Time

	// Partial marks a run whose deadline or resource budget expired before
	// every item could be fully fetched and enriched.
	Partial bool

	PullRequests []AnalyzedPR // Ranked: composite desc, updated desc, number asc.
	Issues       []AnalyzedIssue
	Discussions  []AnalyzedDiscussion
	Summary      RunSummary
}
