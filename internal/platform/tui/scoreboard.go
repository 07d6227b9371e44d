package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/arena-pong/internal/storage"
)

// Scoreboard layout constants
const (
	maxResults = 100 // Max rows to load per view
)

// ResultsView selects what the results screen lists.
type ResultsView int

const (
	ResultsRecent ResultsView = iota
	ResultsLeaderboard
)

func (v ResultsView) String() string {
	if v == ResultsLeaderboard {
		return "LEADERBOARD"
	}
	return "RECENT MATCHES"
}

// ScoreboardKeyMap defines the key bindings for the results screen.
type ScoreboardKeyMap struct {
	Up         key.Binding
	Down       key.Binding
	SwitchView key.Binding
	Back       key.Binding
	Quit       key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k ScoreboardKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.SwitchView, k.Back}
}

// FullHelp returns key bindings for the full help view.
func (k ScoreboardKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.SwitchView},
		{k.Back, k.Quit},
	}
}

// DefaultScoreboardKeyMap returns default key bindings.
func DefaultScoreboardKeyMap() ScoreboardKeyMap {
	return ScoreboardKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "scroll down"),
		),
		SwitchView: key.NewBinding(
			key.WithKeys("tab", "left", "right", "h", "l"),
			key.WithHelp("tab", "switch view"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "b"),
			key.WithHelp("esc/b", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ScoreboardModel is the Bubble Tea model for the results screen.
type ScoreboardModel struct {
	store     *storage.Store
	view      ResultsView
	rows      []table.Row
	loadErr   error
	table     table.Model
	help      help.Model
	keys      ScoreboardKeyMap
	width     int
	height    int
	quitting  bool
	goingBack bool // True if user pressed back (not quit)
	exitBack  bool // Back ends the program when not embedded in a session
}

// NewScoreboardModel creates a new results model.
func NewScoreboardModel(store *storage.Store, width, height int) ScoreboardModel {
	h := help.New()
	h.ShowAll = false

	m := ScoreboardModel{
		store:  store,
		keys:   DefaultScoreboardKeyMap(),
		help:   h,
		width:  width,
		height: height,
	}
	m.table = m.createTable()
	m.load()
	return m
}

func (m *ScoreboardModel) columns() []table.Column {
	if m.view == ResultsLeaderboard {
		return []table.Column{
			{Title: "Rank", Width: 6},
			{Title: "Player", Width: 18},
			{Title: "Wins", Width: 6},
			{Title: "Played", Width: 8},
			{Title: "Best", Width: 6},
		}
	}
	return []table.Column{
		{Title: "Match", Width: 7},
		{Title: "Map", Width: 10},
		{Title: "Winner", Width: 18},
		{Title: "Players", Width: 8},
		{Title: "Time", Width: 8},
		{Title: "Date", Width: 14},
	}
}

// createTable creates a new table with the columns of the current view.
func (m *ScoreboardModel) createTable() table.Model {
	t := table.New(
		table.WithColumns(m.columns()),
		table.WithFocused(true),
		table.WithHeight(max(m.height-8, 3)), // Leave room for header, help, and margins
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return t
}

// load reads the rows for the current view.
func (m *ScoreboardModel) load() {
	m.rows, m.loadErr = nil, nil
	if m.store == nil {
		m.table.SetRows(nil)
		return
	}

	switch m.view {
	case ResultsLeaderboard:
		m.rows, m.loadErr = leaderboardRows(m.store)
	default:
		m.rows, m.loadErr = recentRows(m.store)
	}
	m.table.SetRows(m.rows)
	m.table.GotoTop()
}

func recentRows(store *storage.Store) ([]table.Row, error) {
	recs, err := store.RecentMatches(maxResults)
	if err != nil {
		return nil, err
	}
	rows := make([]table.Row, len(recs))
	for i, r := range recs {
		winner := r.WinnerAlias
		if winner == "" {
			winner = "-"
		}
		rows[i] = table.Row{
			fmt.Sprintf("#%d", r.MatchID),
			r.MapID,
			winner,
			fmt.Sprintf("%d", len(r.Placements)),
			fmt.Sprintf("%ds", r.DurationSecs),
			r.FinishedAt.Format("Jan 02 15:04"),
		}
	}
	return rows, nil
}

func leaderboardRows(store *storage.Store) ([]table.Row, error) {
	stats, err := store.Leaderboard(maxResults)
	if err != nil {
		return nil, err
	}
	rows := make([]table.Row, len(stats))
	for i, s := range stats {
		name := s.Alias
		if name == "" {
			name = s.PlayerID
		}
		rows[i] = table.Row{
			fmt.Sprintf("#%d", i+1),
			name,
			fmt.Sprintf("%d", s.Wins),
			fmt.Sprintf("%d", s.Matches),
			fmt.Sprintf("%d", s.BestPlace),
		}
	}
	return rows, nil
}

// Init initializes the results model.
func (m ScoreboardModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the results screen.
func (m ScoreboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Back):
			m.goingBack = true
			if m.exitBack {
				return m, tea.Quit
			}
			return m, nil

		case key.Matches(msg, m.keys.SwitchView):
			m.view = (m.view + 1) % 2
			m.table = m.createTable()
			m.load()
			return m, nil

		case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.Down):
			m.table, cmd = m.table.Update(msg)
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table = m.createTable()
		m.table.SetRows(m.rows)
		m.help.Width = msg.Width
		return m, nil
	}

	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the results screen.
func (m ScoreboardModel) View() string {
	if m.quitting || m.goingBack {
		return ""
	}

	var b strings.Builder

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("229")).
		MarginBottom(1)
	b.WriteString(titleStyle.Render(centerText(m.view.String(), m.width)))
	b.WriteString("\n\n")

	tableStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)
	b.WriteString(tableStyle.Render(m.renderTableContent()))

	b.WriteString("\n")
	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))
	b.WriteString(helpStyle.Render(m.help.View(m.keys)))

	return b.String()
}

// renderTableContent renders the table or an empty message.
func (m ScoreboardModel) renderTableContent() string {
	emptyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		Italic(true).
		Padding(2, 4)

	switch {
	case m.store == nil:
		return emptyStyle.Render("Results are not being recorded.")
	case m.loadErr != nil:
		return emptyStyle.Render("Could not load results:\n" + m.loadErr.Error())
	case len(m.rows) == 0:
		return emptyStyle.Render("No matches recorded yet.\nFinish a match to get on the board!")
	}
	return m.table.View()
}

// IsGoingBack returns true if user wants to go back to menu.
func (m ScoreboardModel) IsGoingBack() bool {
	return m.goingBack
}

// IsQuitting returns true if user wants to quit entirely.
func (m ScoreboardModel) IsQuitting() bool {
	return m.quitting
}

// RunScoreboard runs the results screen as a standalone program.
func RunScoreboard(store *storage.Store, width, height int) error {
	model := NewScoreboardModel(store, width, height)
	model.exitBack = true

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
	)

	_, err := p.Run()
	return err
}
