package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/marcin-skalski/prwatch/internal/aggregate"
	"github.com/marcin-skalski/prwatch/internal/daemon"
)

// Provider is the daemon surface the TUI consumes: read-only snapshots
// plus the visibility and manual-refresh signals.
type Provider interface {
	GetSnapshot() daemon.View
	SetVisible(visible bool)
	RefreshNow()
}

type Model struct {
	provider        Provider
	view            daemon.View
	refreshInterval time.Duration

	filter    aggregate.StateFilter
	query     string
	searching bool // true while the user is typing a query
}

type tickMsg time.Time

func NewModel(provider Provider, refreshInterval time.Duration) Model {
	return Model{
		provider:        provider,
		view:            provider.GetSnapshot(),
		refreshInterval: refreshInterval,
		filter:          aggregate.FilterAll,
	}
}

func (m Model) Init() tea.Cmd {
	return tickCmd(m.refreshInterval)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.FocusMsg:
		m.provider.SetVisible(true)
		return m, nil

	case tea.BlurMsg:
		m.provider.SetVisible(false)
		return m, nil

	case tickMsg:
		m.view = m.provider.GetSnapshot()
		return m, tickCmd(m.refreshInterval)

	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			m.provider.RefreshNow()
			m.view = m.provider.GetSnapshot()
			return m, nil
		case "f":
			m.filter = nextFilter(m.filter)
			return m, nil
		case "/":
			m.searching = true
			return m, nil
		case "esc":
			m.query = ""
			return m, nil
		}
	}
	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searching = false
	case "esc":
		m.searching = false
		m.query = ""
	case "backspace":
		if len(m.query) > 0 {
			m.query = m.query[:len(m.query)-1]
		}
	default:
		if msg.Type == tea.KeyRunes {
			m.query += string(msg.Runes)
		}
	}
	return m, nil
}

func (m Model) View() string {
	return renderView(m.view, m.filter, m.query, m.searching)
}

func nextFilter(f aggregate.StateFilter) aggregate.StateFilter {
	switch f {
	case aggregate.FilterAll:
		return aggregate.FilterOpen
	case aggregate.FilterOpen:
		return aggregate.FilterMerged
	case aggregate.FilterMerged:
		return aggregate.FilterClosed
	case aggregate.FilterClosed:
		return aggregate.FilterDraft
	}
	return aggregate.FilterAll
}

func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
