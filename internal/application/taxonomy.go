package application

import (
	"strings"

	"github.com/repopulse/repopulse/internal/domain/model"
)

// Taxonomy holds the label and keyword rules used to classify issues and pull
// requests. Labels always win over title keywords.
type Taxonomy struct {
	BugLabels       []string
	BugKeywords     []string
	FeatureLabels   []string
	FeatureKeywords []string

	TypeLabels   map[string]model.PRType
	TypeKeywords map[string]model.PRType

	PriorityLabels map[string]model.Priority

	SmallMaxLines  int
	MediumMaxLines int

	DocPathHints  []string
	TestPathHints []string
}

// typeKeywordOrder fixes the precedence of title keyword matches.
var typeKeywordOrder = []string{"refactor", "feat", "fix", "docs", "doc", "test", "chore", "build", "ci"}

// DefaultTaxonomy returns the standard classification rules.
func DefaultTaxonomy() Taxonomy {
	return Taxonomy{
		BugLabels:       []string{"bug", "defect", "regression"},
		BugKeywords:     []string{"bug", "fix", "error", "crash", "broken", "fail"},
		FeatureLabels:   []string{"enhancement", "feature", "feature-request"},
		FeatureKeywords: []string{"feature", "add", "support", "implement", "request"},

		TypeLabels: map[string]model.PRType{
			"bug":           model.TypeFix,
			"fix":           model.TypeFix,
			"enhancement":   model.TypeFeat,
			"feature":       model.TypeFeat,
			"documentation": model.TypeDocs,
			"docs":          model.TypeDocs,
			"refactor":      model.TypeRefactor,
			"test":          model.TypeTest,
			"tests":         model.TypeTest,
			"chore":         model.TypeChore,
			"dependencies":  model.TypeChore,
		},
		TypeKeywords: map[string]model.PRType{
			"feat":     model.TypeFeat,
			"fix":      model.TypeFix,
			"docs":     model.TypeDocs,
			"doc":      model.TypeDocs,
			"refactor": model.TypeRefactor,
			"test":     model.TypeTest,
			"chore":    model.TypeChore,
			"build":    model.TypeChore,
			"ci":       model.TypeChore,
		},

		PriorityLabels: map[string]model.Priority{
			"p0":       model.PriorityP0,
			"critical": model.PriorityP0,
			"urgent":   model.PriorityP0,
			"p1":       model.PriorityP1,
			"high":     model.PriorityP1,
			"p2":       model.PriorityP2,
			"medium":   model.PriorityP2,
			"p3":       model.PriorityP3,
			"low":      model.PriorityP3,
		},

		SmallMaxLines:  50,
		MediumMaxLines: 200,

		DocPathHints:  []string{".md", ".rst", ".txt", "docs/", "doc/"},
		TestPathHints: []string{"_test.go", "test_", ".test.", "spec.", "tests/", "test/", "__tests__/"},
	}
}

// ClassifyIssue buckets an issue as bug, feature, or other. Labels are
// checked first; title keywords only apply when no label matched.
func (t Taxonomy) ClassifyIssue(issue model.Issue) model.IssueCategory {
	for _, label := range issue.Labels {
		l := strings.ToLower(label)
		if containsString(t.BugLabels, l) {
			return model.CategoryBug
		}
		if containsString(t.FeatureLabels, l) {
			return model.CategoryFeature
		}
	}

	title := strings.ToLower(issue.Title)
	for _, kw := range t.BugKeywords {
		if strings.Contains(title, kw) {
			return model.CategoryBug
		}
	}
	for _, kw := range t.FeatureKeywords {
		if strings.Contains(title, kw) {
			return model.CategoryFeature
		}
	}

	return model.CategoryOther
}

// DetectPRType derives a pull request's type from its labels, then from a
// conventional-commit style title prefix, then from title keywords.
func (t Taxonomy) DetectPRType(pr model.PullRequest) model.PRType {
	for _, label := range pr.Labels {
		if typ, ok := t.TypeLabels[strings.ToLower(label)]; ok {
			return typ
		}
	}

	title := strings.ToLower(pr.Title)

	// Conventional commit prefix: "feat:", "fix(scope):", etc.
	if idx := strings.IndexAny(title, ":("); idx > 0 {
		if typ, ok := t.TypeKeywords[strings.TrimSpace(title[:idx])]; ok {
			return typ
		}
	}

	// Keyword fallback scans in a fixed order so classification is
	// deterministic when several keywords appear in one title.
	for _, kw := range typeKeywordOrder {
		typ, ok := t.TypeKeywords[kw]
		if !ok {
			continue
		}
		if strings.Contains(title, kw) {
			return typ
		}
	}

	return model.TypeOther
}

// PriorityFor derives a pull request's priority from its labels, defaulting
// to P3.
func (t Taxonomy) PriorityFor(pr model.PullRequest) model.Priority {
	for _, label := range pr.Labels {
		if p, ok := t.PriorityLabels[strings.ToLower(label)]; ok {
			return p
		}
	}
	return model.PriorityP3
}

// SizeFor buckets a pull request by total changed lines: under SmallMaxLines
// is small, up to MediumMaxLines is medium, the rest is large.
func (t Taxonomy) SizeFor(pr model.PullRequest) model.PRSize {
	lines := pr.ChangedLines()
	switch {
	case lines < t.SmallMaxLines:
		return model.SizeSmall
	case lines <= t.MediumMaxLines:
		return model.SizeMedium
	default:
		return model.SizeLarge
	}
}

// IsDocPath reports whether a changed file path looks like documentation.
func (t Taxonomy) IsDocPath(path string) bool {
	p := strings.ToLower(path)
	for _, hint := range t.DocPathHints {
		if strings.Contains(p, hint) {
			return true
		}
	}
	return false
}

// IsTestPath reports whether a changed file path looks like a test.
func (t Taxonomy) IsTestPath(path string) bool {
	p := strings.ToLower(path)
	for _, hint := range t.TestPathHints {
		if strings.Contains(p, hint) {
			return true
		}
	}
	return false
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
