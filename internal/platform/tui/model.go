package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/arena-pong/internal/client"
	"github.com/vovakirdan/arena-pong/internal/core"
	"github.com/vovakirdan/arena-pong/internal/world"
)

// DefaultHoldWindow is how long a direction key counts as held after its
// last key press. Terminals report presses and auto-repeats but never
// releases.
const DefaultHoldWindow = 250 * time.Millisecond

// MatchOptions configures a MatchModel.
type MatchOptions struct {
	Client      client.Config
	Map         world.Map
	PaddleWidth float64
	TickRate    int // Render and input sampling rate
	HoldWindow  time.Duration
	Width       int
	Height      int
	QuitOnBack  bool // Standalone programs exit instead of returning to a menu
}

// stateMsg carries one snapshot from the link. ok is false once the link
// has closed.
type stateMsg struct {
	state core.GameState
	ok    bool
}

// sendErrMsg reports a failed action send.
type sendErrMsg struct{ err error }

// MatchModel is the Bubble Tea model for playing one match through a
// client.Link.
type MatchModel struct {
	game     *client.ClientGame
	link     client.Link
	view     *ArenaView
	screen   *core.Screen
	keys     ArenaKeyMap
	help     help.Model
	tickRate int
	hold     time.Duration
	pressed  map[string]time.Time
	quitBack bool

	linkClosed bool
	err        error
	quitting   bool
	backToMenu bool
}

// NewMatchModel creates a model that plays over link.
func NewMatchModel(link client.Link, opts MatchOptions) MatchModel {
	if opts.TickRate <= 0 {
		opts.TickRate = 60
	}
	if opts.HoldWindow <= 0 {
		opts.HoldWindow = DefaultHoldWindow
	}

	keys := DefaultArenaKeyMap()
	opts.Client.UpKeys = keys.Up.Keys()
	opts.Client.DownKeys = keys.Down.Keys()

	view := NewArenaView(opts.Map, opts.PaddleWidth)
	return MatchModel{
		game:     client.New(opts.Client, link, view),
		link:     link,
		view:     view,
		screen:   core.NewScreen(opts.Width, max(opts.Height-1, 0)),
		keys:     keys,
		help:     help.New(),
		tickRate: opts.TickRate,
		hold:     opts.HoldWindow,
		pressed:  make(map[string]time.Time),
		quitBack: opts.QuitOnBack,
	}
}

// Init starts the render loop and the snapshot reader.
func (m MatchModel) Init() tea.Cmd {
	return tea.Batch(tickCmd(m.tickRate), waitForState(m.link))
}

// waitForState returns a command that blocks on the next snapshot.
func waitForState(link client.Link) tea.Cmd {
	return func() tea.Msg {
		state, ok := <-link.States()
		return stateMsg{state: state, ok: ok}
	}
}

// Update handles messages.
func (m MatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.screen.Resize(msg.Width, max(msg.Height-1, 0))
		m.help.Width = msg.Width
		return m, nil
	case stateMsg:
		if !msg.ok {
			m.linkClosed = true
			return m, nil
		}
		m.game.Apply(msg.state)
		return m, waitForState(m.link)
	case sendErrMsg:
		m.err = msg.err
		return m, nil
	case TickMsg:
		return m.handleTick(time.Time(msg))
	}
	return m, nil
}

func (m MatchModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		m.link.Close()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Back):
		m.backToMenu = true
		m.link.Close()
		if m.quitBack {
			return m, tea.Quit
		}
		return m, nil

	case key.Matches(msg, m.keys.Ready):
		return m, sendCmd(m.game.ToggleReady)

	case key.Matches(msg, m.keys.Pause):
		return m, sendCmd(m.game.TogglePause)

	case key.Matches(msg, m.keys.Up):
		m.press(msg.String(), m.keys.Down.Keys())
	case key.Matches(msg, m.keys.Down):
		m.press(msg.String(), m.keys.Up.Keys())
	}
	return m, nil
}

// press holds k and releases the opposite direction at once.
func (m MatchModel) press(k string, opposite []string) {
	for _, o := range opposite {
		m.game.KeyUp(o)
		delete(m.pressed, o)
	}
	m.game.KeyDown(k)
	m.pressed[k] = time.Now()
}

func sendCmd(fn func() error) tea.Cmd {
	if err := fn(); err != nil {
		return func() tea.Msg { return sendErrMsg{err: err} }
	}
	return nil
}

func (m MatchModel) handleTick(now time.Time) (tea.Model, tea.Cmd) {
	if m.backToMenu || m.quitting {
		return m, nil
	}

	for k, at := range m.pressed {
		if now.Sub(at) > m.hold {
			m.game.KeyUp(k)
			delete(m.pressed, k)
		}
	}

	m.game.Frame(now)
	if _, err := m.game.SampleInput(now); err != nil {
		m.err = err
	}
	return m, tickCmd(m.tickRate)
}

// View renders the arena and the help line.
func (m MatchModel) View() string {
	if m.quitting {
		return ""
	}

	m.view.TickRate = m.tickRate
	m.view.Draw(m.screen, m.game.State(), m.game.PlayerID())

	footer := m.help.View(m.keys)
	switch {
	case m.err != nil:
		footer = "error: " + m.err.Error()
	case m.linkClosed && m.game.Phase() != client.PhaseFinished:
		footer = "connection closed  (esc: back)"
	}
	return RenderScreen(m.screen) + "\n" + footer
}

// Phase returns the client phase of the match.
func (m MatchModel) Phase() client.Phase {
	return m.game.Phase()
}

// State returns the latest snapshot.
func (m MatchModel) State() core.GameState {
	return m.game.State()
}

// IsQuitting returns true if user requested to quit entirely.
func (m MatchModel) IsQuitting() bool {
	return m.quitting
}

// BackToMenu returns true if user requested to go back to menu.
func (m MatchModel) BackToMenu() bool {
	return m.backToMenu
}

// RunMatch runs a standalone match program in the current terminal.
func RunMatch(link client.Link, opts MatchOptions) (core.GameState, error) {
	opts.QuitOnBack = true
	model := NewMatchModel(link, opts)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
	)

	finalModel, err := p.Run()
	if err != nil {
		return core.GameState{}, err
	}
	link.Close()

	m, ok := finalModel.(MatchModel)
	if !ok {
		return core.GameState{}, nil
	}
	return m.State(), nil
}
