package application

import (
	"regexp"
	"sort"
	"strings"

	"github.com/repopulse/repopulse/internal/domain/model"
)

// Aggregator derives classifications, summaries, rankings, and counts from
// fetched items. Aggregation is pure and idempotent: the same inputs always
// produce the same RunResult fields.
type Aggregator struct {
	taxonomy Taxonomy
}

// NewAggregator creates an Aggregator using the given classification rules.
func NewAggregator(taxonomy Taxonomy) *Aggregator {
	return &Aggregator{taxonomy: taxonomy}
}

// AnalyzeIssues classifies each issue and attaches a body-derived summary.
func (a *Aggregator) AnalyzeIssues(issues []model.Issue) []model.AnalyzedIssue {
	analyzed := make([]model.AnalyzedIssue, 0, len(issues))
	for _, issue := range issues {
		analyzed = append(analyzed, model.AnalyzedIssue{
			Issue:    issue,
			Category: a.taxonomy.ClassifyIssue(issue),
			Summary:  summarizeBody(issue.Body),
		})
	}
	return analyzed
}

// AnalyzeDiscussions attaches a body-derived summary to each discussion.
func (a *Aggregator) AnalyzeDiscussions(discussions []model.Discussion) []model.AnalyzedDiscussion {
	analyzed := make([]model.AnalyzedDiscussion, 0, len(discussions))
	for _, disc := range discussions {
		analyzed = append(analyzed, model.AnalyzedDiscussion{
			Discussion: disc,
			Summary:    summarizeBody(disc.Body),
		})
	}
	return analyzed
}

// RankPullRequests orders analyzed PRs by composite score descending,
// breaking ties by update recency and finally by ascending number so the
// ordering is total and stable across runs.
func (a *Aggregator) RankPullRequests(prs []model.AnalyzedPR) {
	sort.Slice(prs, func(i, j int) bool {
		if prs[i].Composite != prs[j].Composite {
			return prs[i].Composite > prs[j].Composite
		}
		if !prs[i].UpdatedAt.Equal(prs[j].UpdatedAt) {
			return prs[i].UpdatedAt.After(prs[j].UpdatedAt)
		}
		return prs[i].Number < prs[j].Number
	})
}

// Summarize computes all counts in a single pass per item set.
func (a *Aggregator) Summarize(issues []model.AnalyzedIssue, prs []model.AnalyzedPR, discussions []model.AnalyzedDiscussion) model.RunSummary {
	sum := model.RunSummary{
		Issues:       len(issues),
		PullRequests: len(prs),
		Discussions:  len(discussions),
	}

	for _, issue := range issues {
		if issue.State == "open" {
			sum.OpenIssues++
		} else {
			sum.ClosedIssues++
		}
		switch issue.Category {
		case model.CategoryBug:
			sum.Bugs++
		case model.CategoryFeature:
			sum.Features++
		default:
			sum.OtherIssues++
		}
	}

	for _, pr := range prs {
		switch pr.Status {
		case model.PRStatusMerged:
			sum.MergedPRs++
		case model.PRStatusClosed:
			sum.ClosedPRs++
		default:
			sum.OpenPRs++
		}
		switch pr.Grade {
		case model.GradeExcellent:
			sum.Excellent++
		case model.GradeGood:
			sum.Good++
		default:
			sum.Fair++
		}
		if pr.Provenance == model.ProvenanceAI {
			sum.AIScored++
		} else {
			sum.Fallback++
		}
	}

	return sum
}

const summaryMaxLen = 200

var (
	htmlCommentPattern = regexp.MustCompile(`(?s)<!--.*?-->`)
	codeFencePattern   = regexp.MustCompile("(?s)```.*?```")
)

// summarizeBody reduces an issue or discussion body to a short plain-text
// summary: template noise stripped, first meaningful lines kept, truncated on
// a rune boundary.
func summarizeBody(body string) string {
	if body == "" {
		return ""
	}

	cleaned := htmlCommentPattern.ReplaceAllString(body, "")
	cleaned = codeFencePattern.ReplaceAllString(cleaned, "")

	var parts []string
	for _, line := range strings.Split(cleaned, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		// Drop markdown headings and images, common in issue templates.
		if strings.HasPrefix(line, "#") || strings.HasPrefix(line, "![") {
			continue
		}
		line = strings.TrimPrefix(line, "- ")
		line = strings.TrimPrefix(line, "* ")
		line = strings.Trim(line, "*_`>")
		if line == "" {
			continue
		}
		parts = append(parts, line)
		if len(strings.Join(parts, " ")) >= summaryMaxLen {
			break
		}
	}

	summary := strings.Join(parts, " ")
	runes := []rune(summary)
	if len(runes) > summaryMaxLen {
		summary = string(runes[:summaryMaxLen]) + "..."
	}
	return summary
}
