package github

import (
	"strings"
	"time"
)

// State is the lifecycle state of a pull request. Draft is tracked
// separately: a draft PR is still "open".
type State string

const (
	StateOpen   State = "open"
	StateClosed State = "closed"
	StateMerged State = "merged"
)

type User struct {
	Login     string `json:"login"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}

type Org struct {
	Login string `json:"login"`
}

type Repo struct {
	Owner string
	Name  string
}

func (r Repo) FullName() string {
	return r.Owner + "/" + r.Name
}

type PullRequest struct {
	ID        int64
	Number    int
	Title     string
	State     State
	Draft     bool
	RepoOwner string
	RepoName  string
	Author    string
	AvatarURL string
	Comments  int
	URL       string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (p PullRequest) RepoFullName() string {
	return p.RepoOwner + "/" + p.RepoName
}

// ResolveState maps the raw API state plus the merge timestamp onto the
// closed/merged/open triple. GitHub reports merged PRs as "closed" with a
// non-null merged_at.
func ResolveState(rawState string, mergedAt *time.Time) State {
	if strings.EqualFold(rawState, "closed") {
		if mergedAt != nil {
			return StateMerged
		}
		return StateClosed
	}
	return StateOpen
}

// repoPayload is the repository shape returned by the listing endpoints.
type repoPayload struct {
	Name  string `json:"name"`
	Owner struct {
		Login string `json:"login"`
	} `json:"owner"`
}

func (r repoPayload) toRepo() Repo {
	return Repo{Owner: r.Owner.Login, Name: r.Name}
}

// pullPayload is the shape of /repos/{owner}/{repo}/pulls items.
type pullPayload struct {
	ID     int64  `json:"id"`
	Number int    `json:"number"`
	Title  string `json:"title"`
	State  string `json:"state"`
	Draft  bool   `json:"draft"`
	User   struct {
		Login     string `json:"login"`
		AvatarURL string `json:"avatar_url"`
	} `json:"user"`
	HTMLURL   string     `json:"html_url"`
	Comments  int        `json:"comments"`
	MergedAt  *time.Time `json:"merged_at"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (p pullPayload) toPullRequest(owner, name string) PullRequest {
	return PullRequest{
		ID:        p.ID,
		Number:    p.Number,
		Title:     p.Title,
		State:     ResolveState(p.State, p.MergedAt),
		Draft:     p.Draft,
		RepoOwner: owner,
		RepoName:  name,
		Author:    p.User.Login,
		AvatarURL: p.User.AvatarURL,
		Comments:  p.Comments,
		URL:       p.HTMLURL,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// SearchItem is one result from the issue search endpoint. Pull requests
// come back as issues with a pull_request sub-object.
type SearchItem struct {
	ID     int64  `json:"id"`
	Number int    `json:"number"`
	Title  string `json:"title"`
	State  string `json:"state"`
	Draft  bool   `json:"draft"`
	User   struct {
		Login     string `json:"login"`
		AvatarURL string `json:"avatar_url"`
	} `json:"user"`
	HTMLURL     string `json:"html_url"`
	Comments    int    `json:"comments"`
	PullRequest struct {
		MergedAt *time.Time `json:"merged_at"`
	} `json:"pull_request"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type searchResponse struct {
	TotalCount int          `json:"total_count"`
	Items      []SearchItem `json:"items"`
}
