package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/marcin-skalski/prwatch/internal/aggregate"
	"github.com/marcin-skalski/prwatch/internal/daemon"
	"github.com/marcin-skalski/prwatch/internal/github"
)

func renderView(view daemon.View, filter aggregate.StateFilter, query string, searching bool) string {
	var b strings.Builder

	header := fmt.Sprintf("prwatch │ %s │ %d PRs │ filter: %s",
		loginOrDash(view.Login), len(view.Snapshot.Pulls), filter)
	if view.Refreshing {
		header += " │ refreshing…"
	}
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")

	if !view.Authenticated {
		b.WriteString(emptyStyle.Render("  Signed out. Run `prwatch login` to get started."))
		b.WriteString("\n")
		return b.String()
	}

	if !view.HasSnapshot {
		if view.Err != "" {
			b.WriteString(errorStyle.Render("  " + view.Err))
		} else {
			b.WriteString(emptyStyle.Render("  Waiting for the first refresh..."))
		}
		b.WriteString("\n")
		return b.String()
	}

	if view.Snapshot.LastError != "" {
		b.WriteString(errorStyle.Render("  last refresh failed: " + view.Snapshot.LastError))
		b.WriteString("\n")
	}
	if view.Snapshot.Truncated {
		b.WriteString(warnStyle.Render("  listing truncated, showing the most recently updated PRs"))
		b.WriteString("\n")
	}

	pulls := aggregate.Filter(view.Snapshot, filter, query)
	b.WriteString(renderGroups(aggregate.GroupByRepository(pulls)))

	footer := fmt.Sprintf("Last refresh: %s │ q:quit r:refresh f:filter /:search",
		view.Snapshot.RefreshedAt.Format("15:04:05"))
	if searching || query != "" {
		footer += fmt.Sprintf(" │ search: %s", query)
		if searching {
			footer += "▌"
		}
	}
	b.WriteString(footerStyle.Render(footer))

	return b.String()
}

func renderGroups(groups []aggregate.RepoGroup) string {
	if len(groups) == 0 {
		return emptyStyle.Render("  (no matching pull requests)") + "\n"
	}

	var b strings.Builder
	for i, group := range groups {
		isLast := i == len(groups)-1
		prefix := "├─"
		if isLast {
			prefix = "└─"
		}

		b.WriteString(repoStyle.Render(fmt.Sprintf("%s %s [%d]", prefix, group.Repo, len(group.Pulls))))
		b.WriteString("\n")

		childPrefix := "│  "
		if isLast {
			childPrefix = "   "
		}
		for j, pr := range group.Pulls {
			prPrefix := "├─"
			if j == len(group.Pulls)-1 {
				prPrefix = "└─"
			}

			title := pr.Title
			if runewidth.StringWidth(title) > 60 {
				title = runewidth.Truncate(title, 57, "...")
			}

			line := fmt.Sprintf("%s%s %s #%d %s %s",
				childPrefix, prPrefix, stateIcon(pr), pr.Number, title, relativeTime(pr.UpdatedAt))
			b.WriteString(stateStyle(pr).Render(line))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func loginOrDash(login string) string {
	if login == "" {
		return "—"
	}
	return login
}

func relativeTime(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	}
	return fmt.Sprintf("%dd ago", int(d.Hours()/24))
}

func stateIcon(pr github.PullRequest) string {
	switch {
	case pr.Draft:
		return "◌"
	case pr.State == github.StateMerged:
		return "⇌"
	case pr.State == github.StateClosed:
		return "⊘"
	}
	return "●"
}
