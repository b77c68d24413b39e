package model

import "time"

// Issue represents a GitHub issue that had activity inside the analysis window.
type Issue struct {
	Number    int
	Title     string
	Body      string
	Author    string
	State     string // "open" or "closed"
	Labels    []string
	Assignees []string
	Comments  int
	CreatedAt time.Time
	UpdatedAt time.Time
	ClosedAt  time.Time // Zero if still open.

	// CreatedInWindow distinguishes issues opened inside the window from
	// pre-existing issues that merely saw activity.
	CreatedInWindow bool
}

// IssueCategory is the coarse classification of an issue.
type IssueCategory string

const (
	CategoryBug     IssueCategory = "bug"
	CategoryFeature IssueCategory = "feature"
	CategoryOther   IssueCategory = "other"
)

// AnalyzedIssue is an issue plus its classification and generated summary.
type AnalyzedIssue struct {
	Issue
	Category IssueCategory
	Summary  string
}
