package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/marcin-skalski/prwatch/internal/github"
)

const (
	// maxSearchPages bounds worst-case latency and memory on the search
	// path to ~1000 items. Hitting the cap is reported via Result.Truncated.
	maxSearchPages = 10
)

// Result is the outcome of one fetch pass.
type Result struct {
	Pulls     []github.PullRequest
	Truncated bool
}

// Fetcher retrieves the user's pull requests, either through the search
// endpoint (primary) or by listing every discovered repository.
type Fetcher struct {
	api       API
	discovery *Discovery
	logger    *slog.Logger
}

func NewFetcher(api API, discovery *Discovery, logger *slog.Logger) *Fetcher {
	return &Fetcher{api: api, discovery: discovery, logger: logger}
}

// Search pages through the issue search endpoint for PRs authored by
// login, newest-updated first. Pages are requested strictly in order:
// a short page means the listing is complete, so page n+1 is only asked
// for once page n has been seen in full.
func (f *Fetcher) Search(ctx context.Context, login string) (Result, error) {
	query := fmt.Sprintf("is:pr author:%s", login)

	var res Result
	for page := 1; page <= maxSearchPages; page++ {
		items, err := f.api.SearchPulls(ctx, query, page, github.PageSize)
		if err != nil {
			return Result{}, fmt.Errorf("search page %d: %w", page, err)
		}

		for _, item := range items {
			pr, ok := fromSearchItem(item)
			if !ok {
				f.logger.Warn("dropping search item with unexpected URL", "url", item.HTMLURL)
				continue
			}
			res.Pulls = append(res.Pulls, pr)
		}

		if len(items) < github.PageSize {
			return res, nil
		}
	}

	f.logger.Warn("search result truncated at page cap", "pages", maxSearchPages, "items", len(res.Pulls))
	res.Truncated = true
	return res, nil
}

// ByRepository discovers every accessible repository and lists its pull
// requests concurrently. Unlike discovery, this path has no partial
// failure tolerance: one failing repository fails the whole pass.
func (f *Fetcher) ByRepository(ctx context.Context) (Result, error) {
	repos, err := f.discovery.Discover(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("discover repositories: %w", err)
	}

	pulls := make([][]github.PullRequest, len(repos))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fanOutLimit)
	for i, repo := range repos {
		g.Go(func() error {
			repoPulls, err := f.api.RepoPulls(gctx, repo.Owner, repo.Name)
			if err != nil {
				return fmt.Errorf("list pulls for %s: %w", repo.FullName(), err)
			}
			pulls[i] = repoPulls
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	var res Result
	for _, p := range pulls {
		res.Pulls = append(res.Pulls, p...)
	}
	return res, nil
}

// fromSearchItem normalizes one search result into the domain model. The
// owning repository is carried only in the canonical URL, at fixed path
// positions: https://host/owner/repo/pull/number. Items whose URL does
// not have that shape are dropped rather than failing the fetch.
func fromSearchItem(item github.SearchItem) (github.PullRequest, bool) {
	parts := strings.Split(item.HTMLURL, "/")
	if len(parts) != 7 {
		return github.PullRequest{}, false
	}
	owner, name := parts[3], parts[4]
	if owner == "" || name == "" {
		return github.PullRequest{}, false
	}

	return github.PullRequest{
		ID:        item.ID,
		Number:    item.Number,
		Title:     item.Title,
		State:     github.ResolveState(item.State, item.PullRequest.MergedAt),
		Draft:     item.Draft,
		RepoOwner: owner,
		RepoName:  name,
		Author:    item.User.Login,
		AvatarURL: item.User.AvatarURL,
		Comments:  item.Comments,
		URL:       item.HTMLURL,
		CreatedAt: item.CreatedAt,
		UpdatedAt: item.UpdatedAt,
	}, true
}
