package jira

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/alekspetrov/ticketpilot/internal/logging"
	"github.com/alekspetrov/ticketpilot/internal/tracker"
)

// Client is a Jira API client with bounded retry on transient failures.
type Client struct {
	baseURL       string
	username      string
	apiToken      string
	platform      string
	retryAttempts uint64
	retryDelay    time.Duration
	httpClient    *http.Client
}

// NewClient creates a new Jira client. retryAttempts is the number of extra
// attempts after the first; retryDelay is the initial backoff interval.
func NewClient(baseURL, username, apiToken, platform string, retryAttempts int, retryDelay time.Duration) *Client {
	baseURL = strings.TrimSuffix(baseURL, "/")
	if retryAttempts < 0 {
		retryAttempts = 0
	}
	if retryDelay <= 0 {
		retryDelay = time.Second
	}

	return &Client{
		baseURL:       baseURL,
		username:      username,
		apiToken:      apiToken,
		platform:      platform,
		retryAttempts: uint64(retryAttempts),
		retryDelay:    retryDelay,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// apiPath returns the correct API path based on platform
func (c *Client) apiPath() string {
	if c.platform == PlatformCloud {
		return "/rest/api/3"
	}
	return "/rest/api/2"
}

// doRequest performs an HTTP request to the Jira API, retrying transient
// failures with exponential backoff. Permanent rejections stop immediately.
func (c *Client) doRequest(ctx context.Context, method, path string, body any, result any) error {
	var bodyBytes []byte
	if body != nil {
		var err error
		bodyBytes, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	op := method + " " + path

	attempt := func() error {
		var bodyReader io.Reader
		if bodyBytes != nil {
			bodyReader = bytes.NewReader(bodyBytes)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+c.apiPath()+path, bodyReader)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}

		auth := base64.StdEncoding.EncodeToString([]byte(c.username + ":" + c.apiToken))
		req.Header.Set("Authorization", "Basic "+auth)
		req.Header.Set("Accept", "application/json")
		if bodyBytes != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return &NetworkError{Op: op, Err: err}
		}
		defer func() { _ = resp.Body.Close() }()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return &NetworkError{Op: op, Err: err}
		}

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			// fall through to decode
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return &NetworkError{Op: op, Err: fmt.Errorf("status %d", resp.StatusCode)}
		default:
			return backoff.Permanent(&RemoteRejectedError{
				Op:         op,
				StatusCode: resp.StatusCode,
				Reason:     sanitizeReason(respBody, resp.StatusCode),
			})
		}

		if result != nil && len(respBody) > 0 {
			if err := json.Unmarshal(respBody, result); err != nil {
				return backoff.Permanent(fmt.Errorf("failed to parse response: %w", err))
			}
		}
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.retryDelay

	return backoff.RetryNotify(
		attempt,
		backoff.WithContext(backoff.WithMaxRetries(policy, c.retryAttempts), ctx),
		func(err error, wait time.Duration) {
			logging.WithComponent("jira").Warn("Retrying request",
				"op", op, "wait", wait.Round(time.Millisecond).String(), "error", err)
		},
	)
}

// sanitizeReason extracts a displayable message from a Jira error body
// without leaking the raw payload.
func sanitizeReason(body []byte, status int) string {
	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err == nil {
		if len(parsed.ErrorMessages) > 0 {
			return parsed.ErrorMessages[0]
		}
		for _, msg := range parsed.Errors {
			return msg
		}
	}
	return fmt.Sprintf("request rejected by tracker (status %d)", status)
}

// CreateIssue creates an issue and returns its remote key and browse URL.
// The reporter's chat identity is carried as a label since bot-created
// issues are all reported by the service account.
func (c *Client) CreateIssue(ctx context.Context, projectKey, summary, description string, priority tracker.Priority, issueType tracker.IssueType, reporterID string) (*CreatedIssue, error) {
	fields := map[string]any{
		"project":   map[string]string{"key": projectKey},
		"summary":   summary,
		"issuetype": map[string]string{"name": string(issueType)},
		"priority":  map[string]string{"name": string(priority)},
	}
	if description != "" {
		fields["description"] = c.descriptionBody(description)
	}
	if reporterID != "" {
		fields["labels"] = []string{"ticketpilot", "reporter-" + reporterID}
	}

	var created CreatedIssue
	if err := c.doRequest(ctx, http.MethodPost, "/issue", map[string]any{"fields": fields}, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// AddComment adds a comment to an issue.
func (c *Client) AddComment(ctx context.Context, issueKey, body string) (*Comment, error) {
	path := fmt.Sprintf("/issue/%s/comment", issueKey)

	var reqBody any
	if c.platform == PlatformCloud {
		reqBody = map[string]any{"body": c.descriptionBody(body)}
	} else {
		reqBody = map[string]string{"body": body}
	}

	var comment Comment
	if err := c.doRequest(ctx, http.MethodPost, path, reqBody, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

// GetIssue fetches an issue by key (e.g. "PROJ-42").
func (c *Client) GetIssue(ctx context.Context, issueKey string) (*Issue, error) {
	var issue Issue
	if err := c.doRequest(ctx, http.MethodGet, "/issue/"+issueKey, nil, &issue); err != nil {
		return nil, err
	}
	return &issue, nil
}

// GetTransitions lists the workflow transitions currently available on an
// issue.
func (c *Client) GetTransitions(ctx context.Context, issueKey string) ([]Transition, error) {
	var resp transitionsResponse
	if err := c.doRequest(ctx, http.MethodGet, "/issue/"+issueKey+"/transitions", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Transitions, nil
}

// TransitionIssue moves an issue through the transition with the given ID.
func (c *Client) TransitionIssue(ctx context.Context, issueKey, transitionID string) error {
	body := map[string]any{"transition": map[string]string{"id": transitionID}}
	return c.doRequest(ctx, http.MethodPost, "/issue/"+issueKey+"/transitions", body, nil)
}

// AssignIssue assigns an issue. Cloud identifies the assignee by account ID,
// server by username.
func (c *Client) AssignIssue(ctx context.Context, issueKey, assignee string) error {
	var body any
	if c.platform == PlatformCloud {
		body = map[string]string{"accountId": assignee}
	} else {
		body = map[string]string{"name": assignee}
	}
	return c.doRequest(ctx, http.MethodPut, "/issue/"+issueKey+"/assignee", body, nil)
}

// UpdateIssue updates fields on an issue. A plain-string description value
// is rendered in the platform's description format.
func (c *Client) UpdateIssue(ctx context.Context, issueKey string, fields map[string]any) error {
	if desc, ok := fields["description"].(string); ok {
		fields["description"] = c.descriptionBody(desc)
	}
	return c.doRequest(ctx, http.MethodPut, "/issue/"+issueKey, map[string]any{"fields": fields}, nil)
}

// GetProject fetches project info.
func (c *Client) GetProject(ctx context.Context, projectKey string) (*Project, error) {
	var project Project
	if err := c.doRequest(ctx, http.MethodGet, "/project/"+projectKey, nil, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// SearchIssues searches for issues using JQL.
func (c *Client) SearchIssues(ctx context.Context, jql string, maxResults int) ([]*Issue, error) {
	if maxResults <= 0 {
		maxResults = 50
	}

	path := fmt.Sprintf("/search?jql=%s&maxResults=%d", url.QueryEscape(jql), maxResults)
	var resp searchResponse
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Issues, nil
}

// ProjectIssues fetches issues of a project for cache reconciliation,
// optionally limited to issues updated since the given time.
func (c *Client) ProjectIssues(ctx context.Context, projectKey string, updatedSince *time.Time, maxResults int) ([]*Issue, error) {
	jql := fmt.Sprintf("project = %s", projectKey)
	if updatedSince != nil {
		jql += fmt.Sprintf(` AND updated >= "%s"`, updatedSince.Format("2006-01-02 15:04"))
	}
	jql += " ORDER BY updated DESC"
	return c.SearchIssues(ctx, jql, maxResults)
}

// BrowseURL returns the user-facing URL of an issue.
func (c *Client) BrowseURL(issueKey string) string {
	return c.baseURL + "/browse/" + issueKey
}

// descriptionBody renders text as ADF on cloud, plain text on server.
func (c *Client) descriptionBody(text string) any {
	if c.platform != PlatformCloud {
		return text
	}
	return map[string]any{
		"type":    "doc",
		"version": 1,
		"content": []map[string]any{
			{
				"type": "paragraph",
				"content": []map[string]any{
					{"type": "text", "text": text},
				},
			},
		},
	}
}
