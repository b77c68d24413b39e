// Package github implements the SourceClient and TargetClient ports using the
// go-github library.
package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	gh "github.com/google/go-github/v82/github"
	"github.com/gregjones/httpcache"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"

	"github.com/repopulse/repopulse/internal/domain/model"
	"github.com/repopulse/repopulse/internal/domain/port/driven"
	"github.com/repopulse/repopulse/internal/retry"
)

// Compile-time interface satisfaction checks.
var (
	_ driven.SourceClient = (*Client)(nil)
	_ driven.TargetClient = (*Client)(nil)
)

const pageSize = 100

// Client talks to one GitHub repository over REST and GraphQL.
type Client struct {
	gh         *gh.Client
	owner      string
	repo       string
	token      string // Stored for the GraphQL Authorization header.
	graphqlURL string // "https://api.github.com/graphql" in production; derived from baseURL in tests.
	retry      retry.Policy
}

// NewClient creates a GitHub API client for repoFullName ("owner/repo") with
// the following transport stack:
//  1. httpcache (ETag-based conditional request caching)
//  2. go-github-ratelimit (secondary rate limit middleware, sleeps on 429)
//  3. go-github (GitHub REST API client with PAT auth)
func NewClient(token, repoFullName string, policy retry.Policy) (*Client, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return nil, err
	}

	cacheTransport := httpcache.NewMemoryCacheTransport()
	rateLimitClient := github_ratelimit.NewClient(cacheTransport)
	client := gh.NewClient(rateLimitClient).WithAuthToken(token)

	if policy.Classify == nil {
		policy.Classify = ClassifyError
	}

	return &Client{
		gh:         client,
		owner:      owner,
		repo:       repo,
		token:      token,
		graphqlURL: "https://api.github.com/graphql",
		retry:      policy,
	}, nil
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base
// URL. This constructor is intended for testing, allowing injection of an
// httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL, repoFullName, token string, policy retry.Policy) (*Client, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return nil, err
	}

	client := gh.NewClient(httpClient)

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	client.BaseURL = u

	// Derive graphqlURL from baseURL so httptest servers can intercept
	// GraphQL requests.
	graphqlU := *u
	graphqlU.Path = "/graphql"

	if policy.Classify == nil {
		policy.Classify = ClassifyError
	}

	return &Client{
		gh:         client,
		owner:      owner,
		repo:       repo,
		token:      token,
		graphqlURL: graphqlU.String(),
		retry:      policy,
	}, nil
}

// ClassifyError is the retry classifier for GitHub API errors: transient
// network failures, 5xx, and rate exhaustion (403/429) are retried, with the
// server's reset/retry-after honored as a floor on the next delay.
func ClassifyError(err error) retry.Verdict {
	var rateErr *gh.RateLimitError
	if errors.As(err, &rateErr) {
		return retry.Verdict{Retry: true, After: time.Until(rateErr.Rate.Reset.Time)}
	}

	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		v := retry.Verdict{Retry: true}
		if abuseErr.RetryAfter != nil {
			v.After = *abuseErr.RetryAfter
		}
		return v
	}

	var respErr *gh.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		code := respErr.Response.StatusCode
		retryable := code >= 500 ||
			code == http.StatusForbidden ||
			code == http.StatusTooManyRequests
		return retry.Verdict{Retry: retryable}
	}

	// Anything else that reached us without an HTTP status is assumed to be
	// a transport-level failure.
	return retry.Verdict{Retry: true}
}

// ListIssues retrieves issues with activity inside the window, most recent
// first, capped to max. The issues endpoint also returns pull requests; those
// are filtered out. Pagination stops early once an item older than the window
// start appears (lists are ordered by update recency); a final local filter
// still enforces window membership.
func (c *Client) ListIssues(ctx context.Context, win model.TimeWindow, max int) ([]model.Issue, error) {
	opts := &gh.IssueListByRepoOptions{
		State:       "all",
		Sort:        "updated",
		Direction:   "desc",
		Since:       win.Start,
		ListOptions: gh.ListOptions{PerPage: pageSize},
	}

	var raw []model.Issue

	for {
		var (
			issues []*gh.Issue
			resp   *gh.Response
		)
		err := c.retry.Do(ctx, func(ctx context.Context) error {
			var listErr error
			issues, resp, listErr = c.gh.Issues.ListByRepo(ctx, c.owner, c.repo, opts)
			return listErr
		})
		if err != nil {
			return nil, fmt.Errorf("%w: listing issues for %s/%s (page %d): %w", model.ErrSourceUnavailable, c.owner, c.repo, opts.ListOptions.Page, err)
		}

		logRateLimit(resp, c.owner+"/"+c.repo+"/issues", opts.ListOptions.Page, len(issues))

		pastWindow := false
		for _, issue := range issues {
			if issue.IsPullRequest() {
				continue
			}
			m := mapIssue(issue)
			if m.UpdatedAt.Before(win.Start) {
				pastWindow = true
				break
			}
			raw = append(raw, m)
		}

		if pastWindow || resp.NextPage == 0 {
			break
		}
		opts.ListOptions.Page = resp.NextPage
	}

	var filtered []model.Issue
	for _, issue := range raw {
		issue.CreatedInWindow = win.Contains(issue.CreatedAt)
		updatedInWindow := win.Contains(issue.UpdatedAt) && !issue.UpdatedAt.Equal(issue.CreatedAt)
		if issue.CreatedInWindow || updatedInWindow {
			filtered = append(filtered, issue)
		}
	}

	sort.Slice(filtered, func(i, j int) bool {
		if !filtered[i].UpdatedAt.Equal(filtered[j].UpdatedAt) {
			return filtered[i].UpdatedAt.After(filtered[j].UpdatedAt)
		}
		return filtered[i].Number > filtered[j].Number
	})
	if max > 0 && len(filtered) > max {
		filtered = filtered[:max]
	}

	return filtered, nil
}

// ListPullRequests retrieves pull requests created inside the window, most
// recently updated first, capped to max. Diff statistics stay zero until a
// PRDetail fetch enriches them.
func (c *Client) ListPullRequests(ctx context.Context, win model.TimeWindow, max int) ([]model.PullRequest, error) {
	opts := &gh.PullRequestListOptions{
		State:       "all",
		Sort:        "created",
		Direction:   "desc",
		ListOptions: gh.ListOptions{PerPage: pageSize},
	}

	var raw []model.PullRequest

	for {
		var (
			prs  []*gh.PullRequest
			resp *gh.Response
		)
		err := c.retry.Do(ctx, func(ctx context.Context) error {
			var listErr error
			prs, resp, listErr = c.gh.PullRequests.List(ctx, c.owner, c.repo, opts)
			return listErr
		})
		if err != nil {
			return nil, fmt.Errorf("%w: listing pull requests for %s/%s (page %d): %w", model.ErrSourceUnavailable, c.owner, c.repo, opts.Page, err)
		}

		logRateLimit(resp, c.owner+"/"+c.repo+"/pulls", opts.Page, len(prs))

		pastWindow := false
		for _, pr := range prs {
			m := mapPullRequest(pr)
			if m.CreatedAt.Before(win.Start) {
				pastWindow = true
				break
			}
			raw = append(raw, m)
		}

		if pastWindow || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	var filtered []model.PullRequest
	for _, pr := range raw {
		if win.Contains(pr.CreatedAt) {
			filtered = append(filtered, pr)
		}
	}

	sort.Slice(filtered, func(i, j int) bool {
		if !filtered[i].UpdatedAt.Equal(filtered[j].UpdatedAt) {
			return filtered[i].UpdatedAt.After(filtered[j].UpdatedAt)
		}
		return filtered[i].Number > filtered[j].Number
	})
	if max > 0 && len(filtered) > max {
		filtered = filtered[:max]
	}

	return filtered, nil
}

// FetchPRDetail retrieves diff statistics, the file-change list, and the
// commit list for a single pull request. Retry exhaustion surfaces as
// model.ErrDetailUnavailable; the caller degrades the item instead of failing
// the run.
func (c *Client) FetchPRDetail(ctx context.Context, number int) (*model.PRDetail, error) {
	var pr *gh.PullRequest
	err := c.retry.Do(ctx, func(ctx context.Context) error {
		var getErr error
		pr, _, getErr = c.gh.PullRequests.Get(ctx, c.owner, c.repo, number)
		return getErr
	})
	if err != nil {
		return nil, fmt.Errorf("%w: fetching %s/%s#%d: %w", model.ErrDetailUnavailable, c.owner, c.repo, number, err)
	}

	detail := &model.PRDetail{
		Additions:    pr.GetAdditions(),
		Deletions:    pr.GetDeletions(),
		ChangedFiles: pr.GetChangedFiles(),
		Commits:      pr.GetCommits(),
	}

	fileOpts := &gh.ListOptions{PerPage: pageSize}
	for {
		var (
			files []*gh.CommitFile
			resp  *gh.Response
		)
		err := c.retry.Do(ctx, func(ctx context.Context) error {
			var listErr error
			files, resp, listErr = c.gh.PullRequests.ListFiles(ctx, c.owner, c.repo, number, fileOpts)
			return listErr
		})
		if err != nil {
			return nil, fmt.Errorf("%w: listing files for %s/%s#%d: %w", model.ErrDetailUnavailable, c.owner, c.repo, number, err)
		}

		for _, f := range files {
			detail.Files = append(detail.Files, model.ChangedFile{
				Path:      f.GetFilename(),
				Status:    f.GetStatus(),
				Additions: f.GetAdditions(),
				Deletions: f.GetDeletions(),
			})
		}

		if resp.NextPage == 0 {
			break
		}
		fileOpts.Page = resp.NextPage
	}

	commitOpts := &gh.ListOptions{PerPage: pageSize}
	for {
		var (
			commits []*gh.RepositoryCommit
			resp    *gh.Response
		)
		err := c.retry.Do(ctx, func(ctx context.Context) error {
			var listErr error
			commits, resp, listErr = c.gh.PullRequests.ListCommits(ctx, c.owner, c.repo, number, commitOpts)
			return listErr
		})
		if err != nil {
			return nil, fmt.Errorf("%w: listing commits for %s/%s#%d: %w", model.ErrDetailUnavailable, c.owner, c.repo, number, err)
		}

		for _, commit := range commits {
			detail.CommitLog = append(detail.CommitLog, model.Commit{
				SHA:     commit.GetSHA(),
				Message: commit.GetCommit().GetMessage(),
				Author:  commit.GetAuthor().GetLogin(),
			})
		}

		if resp.NextPage == 0 {
			break
		}
		commitOpts.Page = resp.NextPage
	}

	return detail, nil
}

// CreateIssue opens an issue on the repository and returns its number.
func (c *Client) CreateIssue(ctx context.Context, title, body string, labels []string) (int, error) {
	req := &gh.IssueRequest{
		Title: gh.Ptr(title),
		Body:  gh.Ptr(body),
	}
	if len(labels) > 0 {
		req.Labels = &labels
	}

	var issue *gh.Issue
	err := c.retry.Do(ctx, func(ctx context.Context) error {
		var createErr error
		issue, _, createErr = c.gh.Issues.Create(ctx, c.owner, c.repo, req)
		return createErr
	})
	if err != nil {
		return 0, fmt.Errorf("creating issue on %s/%s: %w", c.owner, c.repo, err)
	}

	return issue.GetNumber(), nil
}

// mapIssue converts a go-github Issue to a domain model Issue.
// It uses GetXxx() helper methods exclusively to avoid nil pointer panics.
func mapIssue(issue *gh.Issue) model.Issue {
	labels := make([]string, 0, len(issue.Labels))
	for _, l := range issue.Labels {
		labels = append(labels, l.GetName())
	}

	assignees := make([]string, 0, len(issue.Assignees))
	for _, a := range issue.Assignees {
		assignees = append(assignees, a.GetLogin())
	}

	return model.Issue{
		Number:    issue.GetNumber(),
		Title:     issue.GetTitle(),
		Body:      issue.GetBody(),
		Author:    issue.GetUser().GetLogin(),
		State:     issue.GetState(),
		Labels:    labels,
		Assignees: assignees,
		Comments:  issue.GetComments(),
		CreatedAt: issue.GetCreatedAt().Time,
		UpdatedAt: issue.GetUpdatedAt().Time,
		ClosedAt:  issue.GetClosedAt().Time,
	}
}

// mapPullRequest converts a go-github PullRequest to a domain model
// PullRequest.
func mapPullRequest(pr *gh.PullRequest) model.PullRequest {
	status := model.PRStatusOpen
	if !pr.GetMergedAt().Time.IsZero() {
		status = model.PRStatusMerged
	} else if pr.GetState() == "closed" {
		status = model.PRStatusClosed
	}

	labels := make([]string, 0, len(pr.Labels))
	for _, l := range pr.Labels {
		labels = append(labels, l.GetName())
	}

	return model.PullRequest{
		Number:    pr.GetNumber(),
		Title:     pr.GetTitle(),
		Body:      pr.GetBody(),
		Author:    pr.GetUser().GetLogin(),
		Status:    status,
		IsDraft:   pr.GetDraft(),
		Labels:    labels,
		Comments:  pr.GetComments(),
		CreatedAt: pr.GetCreatedAt().Time,
		UpdatedAt: pr.GetUpdatedAt().Time,
		MergedAt:  pr.GetMergedAt().Time,
	}
}

// logRateLimit logs the GitHub API rate limit status after each call.
func logRateLimit(resp *gh.Response, endpoint string, page, count int) {
	if resp == nil {
		return
	}

	slog.Debug("github api call",
		"endpoint", endpoint,
		"page", page,
		"count", count,
		"rate_remaining", resp.Rate.Remaining,
		"rate_limit", resp.Rate.Limit,
	)

	if resp.Rate.Remaining < 100 {
		slog.Warn("github rate limit low",
			"remaining", resp.Rate.Remaining,
			"reset_in", time.Until(resp.Rate.Reset.Time).Round(time.Second),
		)
	}
}

// splitRepo splits a "owner/repo" string into its two components.
func splitRepo(fullName string) (string, string, error) {
	parts := strings.SplitN(fullName, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repo name %q: expected owner/repo", fullName)
	}
	return parts[0], parts[1], nil
}
