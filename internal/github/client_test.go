package github

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestScopesParsing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		w.Header().Set("X-OAuth-Scopes", " public_repo , read:org ")
		w.Write([]byte(`{"login":"octocat"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "tok-123", testLogger())
	scopes, err := client.Scopes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"public_repo", "read:org"}, scopes)
}

func TestScopesEmptyHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"login":"octocat"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "tok", testLogger())
	scopes, err := client.Scopes(context.Background())
	require.NoError(t, err)
	assert.Empty(t, scopes)
}

func TestUnauthorizedMapsToNotAuthenticated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Bad credentials"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "expired", testLogger())
	_, err := client.CurrentUser(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.True(t, IsAuthFailure(err))
}

func TestExhaustedQuotaMapsToRateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("X-RateLimit-Reset", "1767225600")
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := NewClient(server.URL, "tok", testLogger())
	_, err := client.CurrentUser(context.Background())
	require.Error(t, err)

	var rl *RateLimitError
	require.True(t, errors.As(err, &rl))
	assert.Equal(t, int64(1767225600), rl.ResetAt.Unix())
}

func TestForbiddenWithQuotaLeftIsAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Remaining", "37")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message":"SSO required"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "tok", testLogger())
	_, err := client.CurrentUser(context.Background())

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Equal(t, "SSO required", apiErr.Message)
}

func TestMalformedPayloadIsInvalidResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"login":`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "tok", testLogger())
	_, err := client.CurrentUser(context.Background())
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestRateLimitTracking(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Remaining", "4999")
		w.Header().Set("X-RateLimit-Reset", "1767225600")
		w.Write([]byte(`{"login":"octocat"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "tok", testLogger())

	remaining, _ := client.RateLimit()
	assert.Equal(t, -1, remaining, "no quota observed before the first request")

	_, err := client.CurrentUser(context.Background())
	require.NoError(t, err)

	remaining, reset := client.RateLimit()
	assert.Equal(t, 4999, remaining)
	assert.Equal(t, int64(1767225600), reset.Unix())
}

func TestRepoPullsRequestsAllStates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/acme/gateway/pulls", r.URL.Path)
		assert.Equal(t, "all", r.URL.Query().Get("state"))
		w.Write([]byte(`[
			{"id":1,"number":7,"title":"one","state":"open","draft":true,
			 "user":{"login":"alice"},"html_url":"https://github.com/acme/gateway/pull/7",
			 "created_at":"2026-02-01T10:00:00Z","updated_at":"2026-02-02T10:00:00Z"},
			{"id":2,"number":8,"title":"two","state":"closed","merged_at":"2026-02-03T10:00:00Z",
			 "user":{"login":"bob"},"html_url":"https://github.com/acme/gateway/pull/8",
			 "created_at":"2026-02-01T10:00:00Z","updated_at":"2026-02-03T10:00:00Z"}
		]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "tok", testLogger())
	pulls, err := client.RepoPulls(context.Background(), "acme", "gateway")
	require.NoError(t, err)
	require.Len(t, pulls, 2)

	assert.Equal(t, StateOpen, pulls[0].State)
	assert.True(t, pulls[0].Draft)
	assert.Equal(t, "acme", pulls[0].RepoOwner)
	assert.Equal(t, "gateway", pulls[0].RepoName)
	assert.Equal(t, StateMerged, pulls[1].State)
}

func TestSearchPullsQueryParameters(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/issues", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "is:pr author:octocat", q.Get("q"))
		assert.Equal(t, "3", q.Get("page"))
		assert.Equal(t, "100", q.Get("per_page"))
		assert.Equal(t, "updated", q.Get("sort"))
		assert.Equal(t, "desc", q.Get("order"))
		w.Write([]byte(`{"total_count":1,"items":[{"id":11,"number":5,"title":"x","state":"open",
			"user":{"login":"octocat"},"html_url":"https://github.com/acme/nexus/pull/5",
			"created_at":"2026-02-01T10:00:00Z","updated_at":"2026-02-02T10:00:00Z"}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "tok", testLogger())
	items, err := client.SearchPulls(context.Background(), "is:pr author:octocat", 3, 100)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(11), items[0].ID)
}
