package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcin-skalski/prwatch/internal/github"
)

type fakeAPI struct {
	mu sync.Mutex

	userRepos    []github.Repo
	userReposErr error
	userOrgs     []github.Org
	userOrgsErr  error
	orgRepos     map[string][]github.Repo
	orgErrs      map[string]error
	repoPulls    map[string][]github.PullRequest
	repoErrs     map[string]error

	searchPages [][]github.SearchItem
	searchErr   error
	searchCalls int
}

func (f *fakeAPI) UserRepos(ctx context.Context) ([]github.Repo, error) {
	return f.userRepos, f.userReposErr
}

func (f *fakeAPI) UserOrgs(ctx context.Context) ([]github.Org, error) {
	return f.userOrgs, f.userOrgsErr
}

func (f *fakeAPI) OrgRepos(ctx context.Context, org string) ([]github.Repo, error) {
	if err := f.orgErrs[org]; err != nil {
		return nil, err
	}
	return f.orgRepos[org], nil
}

func (f *fakeAPI) RepoPulls(ctx context.Context, owner, name string) ([]github.PullRequest, error) {
	key := owner + "/" + name
	if err := f.repoErrs[key]; err != nil {
		return nil, err
	}
	return f.repoPulls[key], nil
}

func (f *fakeAPI) SearchPulls(ctx context.Context, query string, page, perPage int) ([]github.SearchItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchCalls++
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if page < 1 || page > len(f.searchPages) {
		return nil, fmt.Errorf("unexpected page %d", page)
	}
	return f.searchPages[page-1], nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func repoNames(repos []github.Repo) []string {
	names := make([]string, len(repos))
	for i, r := range repos {
		names[i] = r.FullName()
	}
	return names
}

func TestDiscoverUnionsOwnAndOrgRepos(t *testing.T) {
	api := &fakeAPI{
		userRepos: []github.Repo{{Owner: "octocat", Name: "dotfiles"}},
		userOrgs:  []github.Org{{Login: "acme"}, {Login: "umbrella"}},
		orgRepos: map[string][]github.Repo{
			"acme":     {{Owner: "acme", Name: "gateway"}},
			"umbrella": {{Owner: "umbrella", Name: "labs"}},
		},
	}

	d := NewDiscovery(api, discardLogger())
	repos, err := d.Discover(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t,
		[]string{"octocat/dotfiles", "acme/gateway", "umbrella/labs"},
		repoNames(repos))
}

func TestDiscoverToleratesFailingOrg(t *testing.T) {
	api := &fakeAPI{
		userRepos: []github.Repo{{Owner: "octocat", Name: "dotfiles"}},
		userOrgs:  []github.Org{{Login: "acme"}, {Login: "umbrella"}},
		orgRepos: map[string][]github.Repo{
			"acme": {{Owner: "acme", Name: "gateway"}},
		},
		orgErrs: map[string]error{
			"umbrella": errors.New("boom"),
		},
	}

	d := NewDiscovery(api, discardLogger())
	repos, err := d.Discover(context.Background())
	require.NoError(t, err, "a failing org never aborts discovery")
	assert.ElementsMatch(t,
		[]string{"octocat/dotfiles", "acme/gateway"},
		repoNames(repos))
}

func TestDiscoverPropagatesOwnRepoFailure(t *testing.T) {
	api := &fakeAPI{userReposErr: errors.New("boom")}

	d := NewDiscovery(api, discardLogger())
	_, err := d.Discover(context.Background())
	assert.Error(t, err)
}

func TestDiscoverPropagatesMembershipFailure(t *testing.T) {
	api := &fakeAPI{
		userRepos:   []github.Repo{{Owner: "octocat", Name: "dotfiles"}},
		userOrgsErr: errors.New("boom"),
	}

	d := NewDiscovery(api, discardLogger())
	_, err := d.Discover(context.Background())
	assert.Error(t, err)
}
