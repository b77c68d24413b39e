package application_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/repopulse/repopulse/internal/application"
	"github.com/repopulse/repopulse/internal/domain/model"
)

func TestClassifyIssueLabelsWinOverKeywords(t *testing.T) {
	taxonomy := application.DefaultTaxonomy()

	// Title says feature, label says bug: the label wins.
	issue := model.Issue{
		Title:  "Add support for custom themes",
		Labels: []string{"Bug"},
	}
	assert.Equal(t, model.CategoryBug, taxonomy.ClassifyIssue(issue))
}

func TestClassifyIssueKeywordFallback(t *testing.T) {
	taxonomy := application.DefaultTaxonomy()

	cases := []struct {
		title string
		want  model.IssueCategory
	}{
		{"Crash when opening settings", model.CategoryBug},
		{"Fix broken pagination", model.CategoryBug},
		{"Add dark mode support", model.CategoryFeature},
		{"Question about licensing", model.CategoryOther},
	}
	for _, tc := range cases {
		got := taxonomy.ClassifyIssue(model.Issue{Title: tc.title})
		assert.Equal(t, tc.want, got, "title %q", tc.title)
	}
}

func TestDetectPRTypeFromLabels(t *testing.T) {
	taxonomy := application.DefaultTaxonomy()

	pr := model.PullRequest{
		Title:  "Update parser",
		Labels: []string{"documentation"},
	}
	assert.Equal(t, model.TypeDocs, taxonomy.DetectPRType(pr))
}

func TestDetectPRTypeFromConventionalPrefix(t *testing.T) {
	taxonomy := application.DefaultTaxonomy()

	cases := []struct {
		title string
		want  model.PRType
	}{
		{"feat: add retry budget", model.TypeFeat},
		{"fix(parser): handle empty input", model.TypeFix},
		{"docs: clarify install steps", model.TypeDocs},
		{"refactor: extract window logic", model.TypeRefactor},
		{"chore: bump dependencies", model.TypeChore},
		{"Improve the widget layout", model.TypeOther},
	}
	for _, tc := range cases {
		got := taxonomy.DetectPRType(model.PullRequest{Title: tc.title})
		assert.Equal(t, tc.want, got, "title %q", tc.title)
	}
}

func TestDetectPRTypeDeterministicOnMultipleKeywords(t *testing.T) {
	taxonomy := application.DefaultTaxonomy()

	pr := model.PullRequest{Title: "refactor the fix for the docs build"}
	first := taxonomy.DetectPRType(pr)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, taxonomy.DetectPRType(pr))
	}
}

func TestPriorityFor(t *testing.T) {
	taxonomy := application.DefaultTaxonomy()

	assert.Equal(t, model.PriorityP0, taxonomy.PriorityFor(model.PullRequest{Labels: []string{"critical"}}))
	assert.Equal(t, model.PriorityP1, taxonomy.PriorityFor(model.PullRequest{Labels: []string{"High"}}))
	assert.Equal(t, model.PriorityP3, taxonomy.PriorityFor(model.PullRequest{Labels: []string{"question"}}))
	assert.Equal(t, model.PriorityP3, taxonomy.PriorityFor(model.PullRequest{}))
}

func TestSizeFor(t *testing.T) {
	taxonomy := application.DefaultTaxonomy()

	assert.Equal(t, model.SizeSmall, taxonomy.SizeFor(model.PullRequest{Additions: 30, Deletions: 19}))
	assert.Equal(t, model.SizeMedium, taxonomy.SizeFor(model.PullRequest{Additions: 50, Deletions: 0}))
	assert.Equal(t, model.SizeMedium, taxonomy.SizeFor(model.PullRequest{Additions: 150, Deletions: 50}))
	assert.Equal(t, model.SizeLarge, taxonomy.SizeFor(model.PullRequest{Additions: 200, Deletions: 1}))
}

func TestPathHints(t *testing.T) {
	taxonomy := application.DefaultTaxonomy()

	assert.True(t, taxonomy.IsTestPath("internal/server/server_test.go"))
	assert.True(t, taxonomy.IsTestPath("tests/integration.py"))
	assert.False(t, taxonomy.IsTestPath("internal/server/server.go"))

	assert.True(t, taxonomy.IsDocPath("README.md"))
	assert.True(t, taxonomy.IsDocPath("docs/guide.html"))
	assert.False(t, taxonomy.IsDocPath("internal/model/score.go"))
}
