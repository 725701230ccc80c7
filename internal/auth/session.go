package auth

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/marcin-skalski/prwatch/internal/github"
)

// Scopes the session validates. The repo scope is required for private
// repository access; the org-read scope is advisory only.
const (
	requiredScope = "repo"
	advisoryScope = "read:org"
)

// ScopeCheck is the result of validating a token's granted scopes.
// The check passes when Missing is empty; Warnings are advisory.
type ScopeCheck struct {
	Missing  []string
	Warnings []string
}

func (c ScopeCheck) OK() bool { return len(c.Missing) == 0 }

// Session owns the access token, the API client derived from it, and the
// resolved identity. All mutation goes through the session's mutex; the
// token never leaves this package except into the credential store.
type Session struct {
	baseURL string
	creds   CredentialStore
	logger  *slog.Logger

	mu     sync.Mutex
	token  string
	client *github.Client
	user   *github.User
}

func NewSession(baseURL string, creds CredentialStore, logger *slog.Logger) *Session {
	return &Session{
		baseURL: baseURL,
		creds:   creds,
		logger:  logger,
	}
}

// Configure stores the token and builds the API client. No network call
// is made; calling it again overwrites the previous configuration.
func (s *Session) Configure(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.client = github.NewClient(s.baseURL, token, s.logger)
	s.user = nil
	s.token = token
}

// Restore configures the session from a previously saved credential.
// Returns false when no credential is stored.
func (s *Session) Restore() (bool, error) {
	token, found, err := s.creds.Retrieve(CredentialKey)
	if err != nil {
		return false, fmt.Errorf("restore credential: %w", err)
	}
	if !found {
		return false, nil
	}
	s.Configure(token)
	return true, nil
}

// Authenticated reports whether the session holds a configured client.
func (s *Session) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client != nil
}

// Client returns the configured API client, or ErrNotAuthenticated.
func (s *Session) Client() (*github.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		return nil, github.ErrNotAuthenticated
	}
	return s.client, nil
}

// ValidateScopes checks the token's granted scopes against what the
// sync engine needs. A passing check is the only path that persists the
// credential; a failing one deletes any stored credential and drops the
// session.
func (s *Session) ValidateScopes(ctx context.Context) (ScopeCheck, error) {
	s.mu.Lock()
	client := s.client
	token := s.token
	s.mu.Unlock()

	if client == nil {
		return ScopeCheck{}, github.ErrNotConfigured
	}

	scopes, err := client.Scopes(ctx)
	if err != nil {
		return ScopeCheck{}, fmt.Errorf("fetch scopes: %w", err)
	}

	var check ScopeCheck
	if !scopeGranted(scopes, requiredScope) {
		check.Missing = append(check.Missing, requiredScope)
	}
	if !scopeGranted(scopes, advisoryScope) {
		check.Warnings = append(check.Warnings, advisoryScope)
	}

	if !check.OK() {
		s.logger.Warn("token missing required scopes", "missing", check.Missing)
		if err := s.SignOut(); err != nil {
			return check, err
		}
		return check, nil
	}

	if err := s.creds.Save(CredentialKey, token); err != nil {
		return check, fmt.Errorf("persist credential: %w", err)
	}
	return check, nil
}

// CurrentUser resolves and caches the authenticated identity.
func (s *Session) CurrentUser(ctx context.Context) (github.User, error) {
	s.mu.Lock()
	client := s.client
	if s.user != nil {
		u := *s.user
		s.mu.Unlock()
		return u, nil
	}
	s.mu.Unlock()

	if client == nil {
		return github.User{}, github.ErrNotAuthenticated
	}

	user, err := client.CurrentUser(ctx)
	if err != nil {
		return github.User{}, fmt.Errorf("resolve identity: %w", err)
	}

	s.mu.Lock()
	// Configure may have replaced the client while we were on the wire;
	// only cache the identity for the client that produced it.
	if s.client == client {
		s.user = &user
	}
	s.mu.Unlock()
	return user, nil
}

// SignOut deletes the stored credential and clears the session. Deleting
// an absent credential is a no-op.
func (s *Session) SignOut() error {
	s.mu.Lock()
	s.client = nil
	s.user = nil
	s.token = ""
	s.mu.Unlock()

	if err := s.creds.Delete(CredentialKey); err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	return nil
}

// scopeGranted reports whether the granted scopes satisfy want. A granted
// scope satisfies a narrower requirement it is a class prefix of, so
// "repo" grants "repo:status" but "public_repo" does not grant "repo".
func scopeGranted(granted []string, want string) bool {
	for _, s := range granted {
		if s == want {
			return true
		}
		if len(want) > len(s) && want[:len(s)] == s && want[len(s)] == ':' {
			return true
		}
	}
	return false
}
