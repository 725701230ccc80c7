package aggregate

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/marcin-skalski/prwatch/internal/github"
)

// Snapshot is the current merged view of the user's pull requests. It is
// replaced wholesale on every successful refresh and handed out by copy;
// nothing patches it incrementally.
type Snapshot struct {
	Pulls       []github.PullRequest
	RefreshedAt time.Time

	// Truncated is set when the search pagination cap was reached and
	// the list is known to be incomplete.
	Truncated bool

	// LastError carries the message of a failed refresh while an older
	// snapshot is still being shown. Empty after a successful refresh.
	LastError string
}

// StateFilter selects which lifecycle states Filter keeps.
type StateFilter int

const (
	FilterAll StateFilter = iota
	FilterOpen            // open and not draft
	FilterMerged
	FilterClosed
	FilterDraft
)

func (f StateFilter) String() string {
	switch f {
	case FilterOpen:
		return "open"
	case FilterMerged:
		return "merged"
	case FilterClosed:
		return "closed"
	case FilterDraft:
		return "draft"
	}
	return "all"
}

// RepoGroup is one repository's slice of a filtered listing.
type RepoGroup struct {
	Repo  string // owner/name
	Pulls []github.PullRequest
}

// Merge deduplicates by id and stable-sorts by updatedAt descending.
// Last-seen wins on duplicate ids, which is immaterial here because each
// refresh replaces the full set from a single fetch.
func Merge(pulls []github.PullRequest, truncated bool, now time.Time) Snapshot {
	byID := make(map[int64]int, len(pulls))
	merged := make([]github.PullRequest, 0, len(pulls))
	for _, pr := range pulls {
		if i, seen := byID[pr.ID]; seen {
			merged[i] = pr
			continue
		}
		byID[pr.ID] = len(merged)
		merged = append(merged, pr)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].UpdatedAt.After(merged[j].UpdatedAt)
	})

	return Snapshot{
		Pulls:       merged,
		RefreshedAt: now,
		Truncated:   truncated,
	}
}

// Filter restricts the snapshot to one state class and an optional text
// query. A non-empty query matches an exact PR number, a case-insensitive
// title substring, or a case-insensitive repository-name substring.
func Filter(snap Snapshot, state StateFilter, query string) []github.PullRequest {
	query = strings.TrimSpace(query)
	number, numeric := parseNumber(query)
	lowered := strings.ToLower(query)

	var out []github.PullRequest
	for _, pr := range snap.Pulls {
		if !matchState(pr, state) {
			continue
		}
		if query != "" && !matchQuery(pr, lowered, number, numeric) {
			continue
		}
		out = append(out, pr)
	}
	return out
}

// GroupByRepository groups a filtered listing by owner/name. Groups come
// back alphabetically; items inside a group keep their snapshot order.
func GroupByRepository(pulls []github.PullRequest) []RepoGroup {
	byRepo := make(map[string][]github.PullRequest)
	for _, pr := range pulls {
		key := pr.RepoFullName()
		byRepo[key] = append(byRepo[key], pr)
	}

	keys := make([]string, 0, len(byRepo))
	for key := range byRepo {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	groups := make([]RepoGroup, 0, len(keys))
	for _, key := range keys {
		groups = append(groups, RepoGroup{Repo: key, Pulls: byRepo[key]})
	}
	return groups
}

func matchState(pr github.PullRequest, state StateFilter) bool {
	switch state {
	case FilterOpen:
		return pr.State == github.StateOpen && !pr.Draft
	case FilterMerged:
		return pr.State == github.StateMerged
	case FilterClosed:
		return pr.State == github.StateClosed
	case FilterDraft:
		return pr.Draft
	}
	return true
}

func matchQuery(pr github.PullRequest, lowered string, number int, numeric bool) bool {
	if numeric && pr.Number == number {
		return true
	}
	if strings.Contains(strings.ToLower(pr.Title), lowered) {
		return true
	}
	return strings.Contains(strings.ToLower(pr.RepoName), lowered)
}

func parseNumber(query string) (int, bool) {
	n, err := strconv.Atoi(query)
	return n, err == nil
}
