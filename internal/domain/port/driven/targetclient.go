package driven

import "context"

// TargetClient publishes a rendered report to the target repository.
type TargetClient interface {
	// CreateIssue opens an issue carrying the report and returns its number.
	CreateIssue(ctx context.Context, title, body string, labels []string) (int, error)
}
