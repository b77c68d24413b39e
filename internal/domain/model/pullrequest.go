package model

import (
	"strings"
	"time"
)

// PRStatus represents the state of a pull request.
type PRStatus string

const (
	PRStatusOpen   PRStatus = "open"
	PRStatusClosed PRStatus = "closed"
	PRStatusMerged PRStatus = "merged"
)

// PullRequest represents a pull request created inside the analysis window.
// Diff statistics are zero until enriched from a PRDetail fetch.
type PullRequest struct {
	Number    int
	Title     string
	Body      string
	Author    string
	Status    PRStatus
	IsDraft   bool
	Labels    []string
	Comments  int
	CreatedAt time.Time
	UpdatedAt time.Time
	MergedAt  time.Time // Zero if not merged.

	Additions    int
	Deletions    int
	ChangedFiles int
	Commits      int
}

// ChangedLines returns the total diff size.
func (pr PullRequest) ChangedLines() int {
	return pr.Additions + pr.Deletions
}

// Merged reports whether the pull request was merged.
func (pr PullRequest) Merged() bool {
	return !pr.MergedAt.IsZero()
}

// InProgress reports whether the pull request is an open work-in-progress:
// draft, or carrying a WIP marker in its title or labels. Such PRs are scored
// against stated intent rather than the current diff.
func (pr PullRequest) InProgress() bool {
	if pr.Status != PRStatusOpen {
		return false
	}
	if pr.IsDraft {
		return true
	}
	title := strings.ToLower(pr.Title)
	if strings.HasPrefix(title, "wip") || strings.Contains(title, "[wip]") {
		return true
	}
	for _, label := range pr.Labels {
		if strings.EqualFold(label, "wip") || strings.EqualFold(label, "work-in-progress") {
			return true
		}
	}
	return false
}

// ChangedFile is one file entry from a pull request's diff.
type ChangedFile struct {
	Path      string
	Status    string // "added", "modified", "removed", ...
	Additions int
	Deletions int
}

// Commit is one commit entry from a pull request.
type Commit struct {
	SHA     string
	Message string
	Author  string
}

// PRDetail carries per-PR diff statistics, the file-change list, and the
// commit list. The zero value stands in when the detail fetch failed.
type PRDetail struct {
	Additions    int
	Deletions    int
	ChangedFiles int
	Commits      int
	Files        []ChangedFile
	CommitLog    []Commit
}

// PRType is the change classification derived from title and labels.
type PRType string

const (
	TypeFeat     PRType = "feat"
	TypeFix      PRType = "fix"
	TypeDocs     PRType = "docs"
	TypeRefactor PRType = "refactor"
	TypeTest     PRType = "test"
	TypeChore    PRType = "chore"
	TypeOther    PRType = "other"
)

// Priority is the urgency band inferred from the label taxonomy.
type Priority string

const (
	PriorityP0 Priority = "P0"
	PriorityP1 Priority = "P1"
	PriorityP2 Priority = "P2"
	PriorityP3 Priority = "P3"
)

// PRSize is the size band derived from changed-line count.
type PRSize string

const (
	SizeSmall  PRSize = "small"
	SizeMedium PRSize = "medium"
	SizeLarge  PRSize = "large"
)

// AnalyzedPR is a pull request plus its scores and derived attributes.
type AnalyzedPR struct {
	PullRequest

	Scores    DimensionScores
	Composite float64
	Grade     Grade
	Type      PRType
	Priority  Priority
	Size      PRSize
	Advisory  string

	Provenance Provenance
	// ExpectedValue marks an in-progress PR scored against stated intent
	// rather than the current diff (lower confidence).
	ExpectedValue bool
}
