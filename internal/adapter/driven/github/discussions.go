package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/repopulse/repopulse/internal/domain/model"
)

// graphqlHTTPClient is the HTTP client used for GraphQL requests.
// It enforces a 30-second timeout as a safety net alongside context cancellation.
var graphqlHTTPClient = &http.Client{Timeout: 30 * time.Second}

const discussionsQuery = `query($owner: String!, $repo: String!, $first: Int!, $after: String) {
	repository(owner: $owner, name: $repo) {
		discussions(first: $first, after: $after, orderBy: {field: UPDATED_AT, direction: DESC}) {
			pageInfo {
				hasNextPage
				endCursor
			}
			nodes {
				number
				title
				body
				closed
				createdAt
				updatedAt
				author { login }
				comments { totalCount }
				category { name }
				labels(first: 10) {
					nodes { name }
				}
			}
		}
	}
}`

// graphqlRequest is the JSON body sent to the GitHub GraphQL API.
type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

// discussionsResponse represents the expected shape of a GitHub GraphQL
// response for the discussions query.
type discussionsResponse struct {
	Data struct {
		Repository *struct {
			Discussions struct {
				PageInfo struct {
					HasNextPage bool   `json:"hasNextPage"`
					EndCursor   string `json:"endCursor"`
				} `json:"pageInfo"`
				Nodes []discussionNode `json:"nodes"`
			} `json:"discussions"`
		} `json:"repository"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

type discussionNode struct {
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Closed    bool      `json:"closed"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Author    struct {
		Login string `json:"login"`
	} `json:"author"`
	Comments struct {
		TotalCount int `json:"totalCount"`
	} `json:"comments"`
	Category struct {
		Name string `json:"name"`
	} `json:"category"`
	Labels struct {
		Nodes []struct {
			Name string `json:"name"`
		} `json:"nodes"`
	} `json:"labels"`
}

// ListDiscussions retrieves discussions with activity inside the window via
// the GraphQL API, most recent first, capped to max. Repositories without
// discussions enabled (or anonymous clients) yield an empty list rather than
// an error; transport-level retry exhaustion is still fatal.
func (c *Client) ListDiscussions(ctx context.Context, win model.TimeWindow, max int) ([]model.Discussion, error) {
	if c.token == "" {
		slog.Debug("graphql: no token configured, skipping discussions")
		return []model.Discussion{}, nil
	}

	var raw []model.Discussion
	cursor := ""

	for {
		page, err := c.fetchDiscussionPage(ctx, cursor)
		if err != nil {
			return nil, err
		}
		if page == nil {
			// Discussions disabled or repository not visible over GraphQL.
			return []model.Discussion{}, nil
		}

		pastWindow := false
		for _, node := range page.Nodes {
			if node.UpdatedAt.Before(win.Start) {
				pastWindow = true
				break
			}
			raw = append(raw, mapDiscussion(node))
		}

		if pastWindow || !page.PageInfo.HasNextPage {
			break
		}
		cursor = page.PageInfo.EndCursor
	}

	var filtered []model.Discussion
	for _, disc := range raw {
		disc.CreatedInWindow = win.Contains(disc.CreatedAt)
		updatedInWindow := win.Contains(disc.UpdatedAt) && !disc.UpdatedAt.Equal(disc.CreatedAt)
		if disc.CreatedInWindow || updatedInWindow {
			filtered = append(filtered, disc)
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
	if filtered == nil {
		filtered = []model.Discussion{}
	}

	return filtered, nil
}

// discussionPage is one page of discussion nodes plus pagination state.
type discussionPage struct {
	PageInfo struct {
		HasNextPage bool   `json:"hasNextPage"`
		EndCursor   string `json:"endCursor"`
	}
	Nodes []discussionNode
}

// fetchDiscussionPage runs one GraphQL query under the shared retry policy.
// A nil page with nil error means the repository has no discussions surface.
func (c *Client) fetchDiscussionPage(ctx context.Context, cursor string) (*discussionPage, error) {
	variables := map[string]any{
		"owner": c.owner,
		"repo":  c.repo,
		"first": pageSize,
	}
	if cursor != "" {
		variables["after"] = cursor
	}

	bodyBytes, err := json.Marshal(graphqlRequest{Query: discussionsQuery, Variables: variables})
	if err != nil {
		return nil, fmt.Errorf("marshaling discussions query: %w", err)
	}

	var gqlResp discussionsResponse
	err = c.retry.Do(ctx, func(ctx context.Context) error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.graphqlURL, bytes.NewReader(bodyBytes))
		if err != nil {
			return err
		}
		httpReq.Header.Set("Authorization", fmt.Sprintf("bearer %s", c.token))
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := graphqlHTTPClient.Do(httpReq)
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("graphql: HTTP %d", resp.StatusCode)
		}

		gqlResp = discussionsResponse{}
		if err := json.NewDecoder(resp.Body).Decode(&gqlResp); err != nil {
			return fmt.Errorf("graphql: decoding response: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: listing discussions for %s/%s: %w", model.ErrSourceUnavailable, c.owner, c.repo, err)
	}

	if len(gqlResp.Errors) > 0 {
		// Typically "Discussions are not enabled on this repository".
		slog.Warn("graphql: discussions query rejected",
			"repo", c.owner+"/"+c.repo,
			"error", gqlResp.Errors[0].Message,
		)
		return nil, nil
	}
	if gqlResp.Data.Repository == nil {
		return nil, nil
	}

	page := &discussionPage{Nodes: gqlResp.Data.Repository.Discussions.Nodes}
	page.PageInfo = gqlResp.Data.Repository.Discussions.PageInfo
	return page, nil
}

// mapDiscussion converts a GraphQL discussion node to a domain model Discussion.
func mapDiscussion(node discussionNode) model.Discussion {
	state := "open"
	if node.Closed {
		state = "closed"
	}

	labels := make([]string, 0, len(node.Labels.Nodes))
	for _, l := range node.Labels.Nodes {
		labels = append(labels, l.Name)
	}

	return model.Discussion{
		Number:    node.Number,
		Title:     node.Title,
		Body:      node.Body,
		Author:    node.Author.Login,
		Category:  node.Category.Name,
		State:     state,
		Labels:    labels,
		Comments:  node.Comments.TotalCount,
		CreatedAt: node.CreatedAt,
		UpdatedAt: node.UpdatedAt,
	}
}
