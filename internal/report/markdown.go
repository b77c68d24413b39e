// Package report renders a RunResult into a markdown activity report.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/repopulse/repopulse/internal/domain/model"
)

var funcMap = template.FuncMap{
	"trunc": func(n int, s string) string {
		runes := []rune(s)
		if len(runes) <= n {
			return s
		}
		return string(runes[:n]) + "..."
	},
	"cell": func(s string) string {
		s = strings.ReplaceAll(s, "|", "\\|")
		return strings.ReplaceAll(s, "\n", " ")
	},
	"date": func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return t.UTC().Format("2006-01-02")
	},
	"datetime": func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return t.UTC().Format("2006-01-02 15:04 MST")
	},
	"score": func(v float64) string {
		return fmt.Sprintf("%.1f", v)
	},
	"join": strings.Join,
	"add":  func(a, b int) int { return a + b },
}

const reportTemplate = `# Activity Report: {{.Repo}}

- **Mode**: {{.Mode}}
- **Window**: {{datetime .Window.Start}} to {{datetime .Window.End}}
- **Generated**: {{datetime .GeneratedAt}}{{if .Partial}}
- **Note**: partial run; some items could not be fetched before the deadline{{end}}
- **Issues**: {{.Summary.Issues}} ({{.Summary.OpenIssues}} open, {{.Summary.ClosedIssues}} closed; {{.Summary.Bugs}} bugs, {{.Summary.Features}} features)
- **Pull requests**: {{.Summary.PullRequests}} ({{.Summary.OpenPRs}} open, {{.Summary.MergedPRs}} merged, {{.Summary.ClosedPRs}} closed)
- **Discussions**: {{.Summary.Discussions}}
- **Scoring**: {{.Summary.AIScored}} AI-scored, {{.Summary.Fallback}} heuristic
{{- if .PullRequests}}

## Pull Request Scores

| # | Title | Author | Type | Priority | Size | Score | Grade | Status |
| --- | --- | --- | --- | --- | --- | --- | --- | --- |
{{- range $i, $pr := .PullRequests}}{{if lt $i 10}}
| PR-{{$pr.Number}} | {{cell (trunc 40 $pr.Title)}} | {{$pr.Author}} | {{$pr.Type}} | {{$pr.Priority}} | {{$pr.Size}} | {{score $pr.Composite}} | {{$pr.Grade}}{{if eq $pr.Provenance "fallback-heuristic"}}*{{end}} | {{$pr.Status}} |
{{- end}}{{end}}
{{- if gt (len .PullRequests) 10}}

({{add (len .PullRequests) -10}} more pull requests omitted from the table){{end}}

Grades: excellent (>80), good (60-80), fair (<60). Scores marked * come from the structural fallback heuristic.

## Top Pull Requests
{{- range $i, $pr := .PullRequests}}{{if lt $i 5}}

### PR-{{$pr.Number}}: {{$pr.Title}}

- Author: {{$pr.Author}}
- Status: {{$pr.Status}}{{if $pr.ExpectedValue}} (in progress; scored on expected value){{end}}
- Created: {{date $pr.CreatedAt}}, updated: {{date $pr.UpdatedAt}}
- Changes: {{$pr.ChangedFiles}} files, +{{$pr.Additions}}/-{{$pr.Deletions}}, {{$pr.Commits}} commits
- Type: {{$pr.Type}}, priority: {{$pr.Priority}}, size: {{$pr.Size}}

| Dimension | Score |
| --- | --- |
| Code quality | {{score $pr.Scores.CodeQuality}} |
| Test coverage | {{score $pr.Scores.TestCoverage}} |
| Documentation | {{score $pr.Scores.Documentation}} |
| Compliance & security | {{score $pr.Scores.ComplianceSecurity}} |
| Impact scope | {{score $pr.Scores.ImpactScope}} |
| PR value | {{score $pr.Scores.PRValue}} |

**Composite: {{score $pr.Composite}} ({{$pr.Grade}}, {{$pr.Provenance}})**
{{- if $pr.Advisory}}

> {{$pr.Advisory}}
{{- end}}
{{- end}}{{end}}
{{- end}}
{{- if .CreatedIssues}}

## New Issues

| # | Title | Author | State | Category | Comments | Created |
| --- | --- | --- | --- | --- | --- | --- |
{{- range .CreatedIssues}}
| Issue-{{.Number}} | {{cell (trunc 40 .Title)}} | {{.Author}} | {{.State}} | {{.Category}} | {{.Comments}} | {{date .CreatedAt}} |
{{- end}}
{{- range .CreatedIssues}}{{if .Summary}}

**Issue-{{.Number}}** ({{.Category}}): {{.Summary}}
{{- end}}{{end}}
{{- end}}
{{- if .UpdatedIssues}}

## Updated Issues

| # | Title | Author | State | Category | Comments | Updated |
| --- | --- | --- | --- | --- | --- | --- |
{{- range .UpdatedIssues}}
| Issue-{{.Number}} | {{cell (trunc 40 .Title)}} | {{.Author}} | {{.State}} | {{.Category}} | {{.Comments}} | {{date .UpdatedAt}} |
{{- end}}
{{- end}}
{{- if .Discussions}}

## Discussions
{{- range .Discussions}}

### Discussion-{{.Number}}: {{.Title}}

- Author: {{.Author}}, category: {{.Category}}, state: {{.State}}{{if not .CreatedInWindow}} (pre-existing, active in window){{end}}
- Comments: {{.Comments}}, created: {{date .CreatedAt}}, updated: {{date .UpdatedAt}}
{{- if .Summary}}

{{.Summary}}
{{- end}}
{{- end}}
{{- end}}
`

var tmpl = template.Must(template.New("report").Funcs(funcMap).Parse(reportTemplate))

// reportData is RunResult reshaped for the template: issues split into those
// opened inside the window and pre-existing ones that saw activity.
type reportData struct {
	*model.RunResult
	CreatedIssues []model.AnalyzedIssue
	UpdatedIssues []model.AnalyzedIssue
}

// Render produces the markdown report for a run. It never re-derives scores
// or rankings; it only formats what the run produced.
func Render(result *model.RunResult) (string, error) {
	data := reportData{RunResult: result}
	for _, issue := range result.Issues {
		if issue.CreatedInWindow {
			data.CreatedIssues = append(data.CreatedIssues, issue)
		} else {
			data.UpdatedIssues = append(data.UpdatedIssues, issue)
		}
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("rendering report: %w", err)
	}
	return sb.String(), nil
}

// Filename returns the report file name for a run: "<mode>-<end date>.md",
// dated by the window's last covered day.
func Filename(result *model.RunResult) string {
	day := result.Window.End.Add(-time.Second).UTC().Format("2006-01-02")
	return fmt.Sprintf("%s-%s.md", result.Mode, day)
}

// Write renders the report and writes it under dir, creating the directory
// as needed. It returns the full path of the written file.
func Write(result *model.RunResult, dir string) (string, error) {
	content, err := Render(result)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating report dir: %w", err)
	}

	path := filepath.Join(dir, Filename(result))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}
	return path, nil
}
