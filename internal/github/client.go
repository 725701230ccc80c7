package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultBaseURL is the public API host. Overridable for GHE and tests.
	DefaultBaseURL = "https://api.github.com"

	// PageSize is the page size used for listing and search requests.
	PageSize = 100
)

// Client is a read-only client for the GitHub REST API, authenticated
// with a personal access token.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger

	mu            sync.Mutex
	rateRemaining int
	rateReset     time.Time
}

func NewClient(baseURL, token string, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		token:         token,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		logger:        logger,
		rateRemaining: -1,
	}
}

// RateLimit returns the last-seen remaining quota and its reset time.
// Remaining is -1 until the first response has been observed.
func (c *Client) RateLimit() (int, time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rateRemaining, c.rateReset
}

// CurrentUser resolves the authenticated identity.
func (c *Client) CurrentUser(ctx context.Context) (User, error) {
	var u User
	if _, err := c.get(ctx, "/user", nil, &u); err != nil {
		return User{}, err
	}
	return u, nil
}

// Scopes issues one authenticated request and returns the scopes granted
// to the token, as advertised in the X-OAuth-Scopes response header. The
// header value is comma-separated and may be whitespace-padded.
func (c *Client) Scopes(ctx context.Context) ([]string, error) {
	var u User
	header, err := c.get(ctx, "/user", nil, &u)
	if err != nil {
		return nil, err
	}
	raw := header.Get("X-OAuth-Scopes")
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	scopes := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			scopes = append(scopes, s)
		}
	}
	return scopes, nil
}

// UserRepos lists repositories the authenticated user owns or collaborates on.
func (c *Client) UserRepos(ctx context.Context) ([]Repo, error) {
	q := url.Values{"per_page": {strconv.Itoa(PageSize)}}
	var payload []repoPayload
	if _, err := c.get(ctx, "/user/repos", q, &payload); err != nil {
		return nil, err
	}
	return toRepos(payload), nil
}

// UserOrgs lists the authenticated user's organization memberships.
func (c *Client) UserOrgs(ctx context.Context) ([]Org, error) {
	q := url.Values{"per_page": {strconv.Itoa(PageSize)}}
	var orgs []Org
	if _, err := c.get(ctx, "/user/orgs", q, &orgs); err != nil {
		return nil, err
	}
	return orgs, nil
}

// OrgRepos lists an organization's repositories.
func (c *Client) OrgRepos(ctx context.Context, org string) ([]Repo, error) {
	q := url.Values{"per_page": {strconv.Itoa(PageSize)}}
	var payload []repoPayload
	if _, err := c.get(ctx, "/orgs/"+url.PathEscape(org)+"/repos", q, &payload); err != nil {
		return nil, err
	}
	return toRepos(payload), nil
}

// RepoPulls lists a repository's pull requests in every state.
func (c *Client) RepoPulls(ctx context.Context, owner, name string) ([]PullRequest, error) {
	q := url.Values{
		"state":    {"all"},
		"per_page": {strconv.Itoa(PageSize)},
	}
	path := "/repos/" + url.PathEscape(owner) + "/" + url.PathEscape(name) + "/pulls"
	var payload []pullPayload
	if _, err := c.get(ctx, path, q, &payload); err != nil {
		return nil, err
	}
	pulls := make([]PullRequest, 0, len(payload))
	for _, p := range payload {
		pulls = append(pulls, p.toPullRequest(owner, name))
	}
	return pulls, nil
}

// SearchPulls returns one page of issue-search results, sorted by last
// update descending. Pages start at 1.
func (c *Client) SearchPulls(ctx context.Context, query string, page, perPage int) ([]SearchItem, error) {
	q := url.Values{
		"q":        {query},
		"page":     {strconv.Itoa(page)},
		"per_page": {strconv.Itoa(perPage)},
		"sort":     {"updated"},
		"order":    {"desc"},
	}
	var resp searchResponse
	if _, err := c.get(ctx, "/search/issues", q, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) (http.Header, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &APIError{Err: err}
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &APIError{Err: fmt.Errorf("GET %s: %w", path, err)}
	}
	defer resp.Body.Close()

	c.recordRateLimit(resp.Header)
	c.logger.Debug("api request", "path", path, "status", resp.StatusCode)

	if resp.StatusCode >= 400 {
		return nil, c.statusError(path, resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, ErrInvalidResponse)
	}
	return resp.Header, nil
}

func (c *Client) statusError(path string, resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("GET %s: %w", path, ErrNotAuthenticated)
	case http.StatusForbidden, http.StatusTooManyRequests:
		if resp.Header.Get("X-RateLimit-Remaining") == "0" {
			return &RateLimitError{ResetAt: resetTime(resp.Header)}
		}
	}

	msg := struct {
		Message string `json:"message"`
	}{}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	_ = json.Unmarshal(body, &msg)
	return &APIError{StatusCode: resp.StatusCode, Message: msg.Message}
}

func (c *Client) recordRateLimit(header http.Header) {
	remaining, err := strconv.Atoi(header.Get("X-RateLimit-Remaining"))
	if err != nil {
		return
	}
	c.mu.Lock()
	c.rateRemaining = remaining
	c.rateReset = resetTime(header)
	c.mu.Unlock()
}

func resetTime(header http.Header) time.Time {
	epoch, err := strconv.ParseInt(header.Get("X-RateLimit-Reset"), 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(epoch, 0)
}

func toRepos(payload []repoPayload) []Repo {
	repos := make([]Repo, 0, len(payload))
	for _, p := range payload {
		repos = append(repos, p.toRepo())
	}
	return repos
}
