package model

import "time"

// Discussion represents a GitHub discussion thread that had activity inside
// the analysis window. Discussions pass through without scoring.
type Discussion struct {
	Number    int
	Title     string
	Body      string
	Author    string
	Category  string // Discussion category name as configured on the repo.
	State     string // "open" or "closed"
	Labels    []string
	Comments  int
	CreatedAt time.Time
	UpdatedAt time.Time

	CreatedInWindow bool
}

// AnalyzedDiscussion is a discussion plus its generated summary.
type AnalyzedDiscussion struct {
	Discussion
	Summary string
}
