package fetch

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/marcin-skalski/prwatch/internal/github"
)

// fanOutLimit caps concurrent listing requests so a user in many
// organizations does not open an unbounded number of connections.
const fanOutLimit = 8

// API is the slice of the GitHub client the fetch layer uses.
type API interface {
	UserRepos(ctx context.Context) ([]github.Repo, error)
	UserOrgs(ctx context.Context) ([]github.Org, error)
	OrgRepos(ctx context.Context, org string) ([]github.Repo, error)
	RepoPulls(ctx context.Context, owner, name string) ([]github.PullRequest, error)
	SearchPulls(ctx context.Context, query string, page, perPage int) ([]github.SearchItem, error)
}

// Discovery enumerates every repository the user can access: their own
// plus those of each organization they belong to.
type Discovery struct {
	api    API
	logger *slog.Logger
}

func NewDiscovery(api API, logger *slog.Logger) *Discovery {
	return &Discovery{api: api, logger: logger}
}

// Discover returns the union of the user's own repositories and all
// organization repositories. A failing organization listing contributes
// zero repositories and is logged; it never aborts the rest. Failures of
// the own-repos or membership calls do propagate.
func (d *Discovery) Discover(ctx context.Context) ([]github.Repo, error) {
	own, err := d.api.UserRepos(ctx)
	if err != nil {
		return nil, err
	}

	orgs, err := d.api.UserOrgs(ctx)
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	repos := append([]github.Repo(nil), own...)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fanOutLimit)
	for _, org := range orgs {
		g.Go(func() error {
			orgRepos, err := d.api.OrgRepos(gctx, org.Login)
			if err != nil {
				d.logger.Warn("org listing failed, skipping", "org", org.Login, "err", err)
				return nil
			}
			mu.Lock()
			repos = append(repos, orgRepos...)
			mu.Unlock()
			return nil
		})
	}
	// Workers only return nil, the group is just the join point.
	_ = g.Wait()

	d.logger.Debug("discovery complete", "own", len(own), "orgs", len(orgs), "repos", len(repos))
	return repos, nil
}
