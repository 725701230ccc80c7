package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/marcin-skalski/prwatch/internal/github"
)

var (
	colorOpen   = lipgloss.Color("46")  // green
	colorDraft  = lipgloss.Color("240") // gray
	colorMerged = lipgloss.Color("135") // purple
	colorClosed = lipgloss.Color("196") // red

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			PaddingLeft(1).
			PaddingRight(1)

	repoStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("cyan"))

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1)

	emptyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))
)

func stateStyle(pr github.PullRequest) lipgloss.Style {
	color := colorOpen
	switch {
	case pr.Draft:
		color = colorDraft
	case pr.State == github.StateMerged:
		color = colorMerged
	case pr.State == github.StateClosed:
		color = colorClosed
	}
	return lipgloss.NewStyle().Foreground(color)
}
