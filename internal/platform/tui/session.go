package tui

import (
	"fmt"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/vovakirdan/arena-pong/internal/bots"
	"github.com/vovakirdan/arena-pong/internal/client"
	"github.com/vovakirdan/arena-pong/internal/core"
	"github.com/vovakirdan/arena-pong/internal/multiplayer"
	"github.com/vovakirdan/arena-pong/internal/registry"
	"github.com/vovakirdan/arena-pong/internal/storage"
)

// Services are the server-side components a session drives.
type Services struct {
	Manager     *multiplayer.StateManager
	Matchmaker  *multiplayer.Matchmaker // Nil disables online play
	Store       *storage.Store          // Nil hides results
	Client      client.Config           // Send interval and fly-in
	PaddleWidth float64
	TickRate    int
	BotSkill    float64
	Logger      *log.Logger
}

type sessionScreen int

const (
	screenMenu sessionScreen = iota
	screenLobby
	screenMatch
	screenResults
)

// SessionModel manages the full session flow:
// menu -> (lobby ->) match -> menu, with the results screen reachable from
// the menu. It is the top-level model for both SSH and local play.
type SessionModel struct {
	services Services
	session  *multiplayer.ChannelSession
	width    int
	height   int

	screen     sessionScreen
	menu       MenuModel
	lobby      LobbyModel
	match      MatchModel
	scoreboard ScoreboardModel

	matchID  core.MatchID
	mode     PlayMode
	err      error
	quitting bool
}

// NewSessionModel creates a session for one player. session may be nil when
// Matchmaker is nil.
func NewSessionModel(svc Services, session *multiplayer.ChannelSession, width, height int) SessionModel {
	if svc.Logger == nil {
		svc.Logger = log.Default()
	}
	modes := []PlayMode{PlayModeVsCPU}
	if svc.Matchmaker != nil && session != nil {
		modes = append(modes, PlayModeOnline)
	}

	return SessionModel{
		services: svc,
		session:  session,
		width:    width,
		height:   height,
		menu:     NewMenuModel(width, height, modes...),
	}
}

// Init initializes the session.
func (m SessionModel) Init() tea.Cmd {
	return m.menu.Init()
}

// Update handles messages for the session.
func (m SessionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if wsm, ok := msg.(tea.WindowSizeMsg); ok {
		m.width = wsm.Width
		m.height = wsm.Height
		// Screens not on display pick the size up when they are rebuilt.
		m.menu, _ = updateAs[MenuModel](m.menu, msg)
	}

	switch m.screen {
	case screenLobby:
		return m.updateLobby(msg)
	case screenMatch:
		return m.updateMatch(msg)
	case screenResults:
		return m.updateResults(msg)
	default:
		return m.updateMenu(msg)
	}
}

// updateAs runs Update on a concrete model and returns it with its type.
func updateAs[T tea.Model](model T, msg tea.Msg) (T, tea.Cmd) {
	next, cmd := model.Update(msg)
	if typed, ok := next.(T); ok {
		return typed, cmd
	}
	return model, cmd
}

// updateMenu handles updates when in menu mode.
func (m SessionModel) updateMenu(msg tea.Msg) (tea.Model, tea.Cmd) {
	if _, ok := msg.(tea.WindowSizeMsg); ok {
		return m, nil
	}

	var cmd tea.Cmd
	m.menu, cmd = updateAs(m.menu, msg)

	if m.menu.IsQuitting() {
		m.quitting = true
		return m, tea.Quit
	}

	if m.menu.WantsScoreboard() {
		m.scoreboard = NewScoreboardModel(m.services.Store, m.width, m.height)
		m.screen = screenResults
		return m, m.scoreboard.Init()
	}

	if selected := m.menu.Selected(); selected != nil {
		m.err = nil
		m.mode = m.menu.Mode()
		if m.mode == PlayModeOnline {
			return m.enqueue(selected.MapID)
		}
		return m.startVsCPU(selected.MapID)
	}

	return m, cmd
}

// enqueue joins the matchmaking queue for mapID.
func (m SessionModel) enqueue(mapID string) (tea.Model, tea.Cmd) {
	m.lobby = NewLobbyModel(mapID, m.session.ID(), m.services.Matchmaker, m.session.Events(), m.width, m.height)
	m.screen = screenLobby
	// Enqueue reports failures as a QueueErrorEvent too, which the lobby shows.
	if _, err := m.services.Matchmaker.Enqueue(m.session.ID(), mapID); err != nil {
		m.services.Logger.Debug("enqueue", "session", m.session.ID(), "map", mapID, "error", err)
	}
	return m, m.lobby.Init()
}

// startVsCPU creates a private match with bots in every other seat.
func (m SessionModel) startVsCPU(mapID string) (tea.Model, tea.Cmd) {
	svc := m.services
	info, ok := registry.Info(mapID)
	if !ok {
		return m.backToMenu(fmt.Errorf("unknown map %q", mapID)), nil
	}

	matchID := svc.Manager.NextMatchID()
	self := m.playerInfo()
	roster := []core.PlayerInfo{self}
	botIDs := make([]string, 0, info.Players-1)
	for i := 1; i < info.Players; i++ {
		id := fmt.Sprintf("cpu-%d-%d", matchID, i)
		botIDs = append(botIDs, id)
		roster = append(roster, core.PlayerInfo{ID: id, Alias: "CPU " + strconv.Itoa(i)})
	}

	if _, err := svc.Manager.InitGameState(matchID, mapID, roster); err != nil {
		return m.backToMenu(err), nil
	}
	if _, err := bots.Attach(svc.Manager, matchID, mapID, botIDs, svc.BotSkill); err != nil {
		svc.Manager.Dispose(matchID) //nolint:errcheck
		return m.backToMenu(err), nil
	}
	return m.openMatch(matchID, mapID, self.ID)
}

func (m SessionModel) playerInfo() core.PlayerInfo {
	if m.session != nil {
		return core.PlayerInfo{ID: string(m.session.ID()), Alias: m.session.Alias()}
	}
	return core.PlayerInfo{ID: "player", Alias: "You"}
}

// openMatch subscribes to a running match and switches to the arena.
func (m SessionModel) openMatch(matchID core.MatchID, mapID, playerID string) (tea.Model, tea.Cmd) {
	svc := m.services
	arena, err := registry.Create(mapID)
	if err != nil {
		return m.backToMenu(err), nil
	}
	link, err := client.NewLocalLink(svc.Manager, matchID, 16)
	if err != nil {
		return m.backToMenu(err), nil
	}

	cfg := svc.Client
	cfg.PlayerID = playerID
	cfg.MatchID = matchID

	m.matchID = matchID
	m.match = NewMatchModel(link, MatchOptions{
		Client:      cfg,
		Map:         arena,
		PaddleWidth: svc.PaddleWidth,
		TickRate:    svc.TickRate,
		Width:       m.width,
		Height:      m.height,
	})
	m.screen = screenMatch
	return m, m.match.Init()
}

// updateLobby handles updates while queued.
func (m SessionModel) updateLobby(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.lobby, cmd = updateAs(m.lobby, msg)

	if m.lobby.IsQuitting() {
		m.quitting = true
		return m, tea.Quit
	}
	if m.lobby.BackToMenu() {
		return m.backToMenu(nil), nil
	}
	if a, ok := m.lobby.Assignment(); ok {
		return m.openMatch(a.MatchID, a.MapID, a.PlayerID)
	}
	return m, cmd
}

// updateMatch handles updates while playing.
func (m SessionModel) updateMatch(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.match, cmd = updateAs(m.match, msg)

	if m.match.IsQuitting() {
		m.leaveMatch()
		m.quitting = true
		return m, tea.Quit
	}
	if m.match.BackToMenu() {
		m.leaveMatch()
		return m.backToMenu(nil), nil
	}
	return m, cmd
}

// leaveMatch forfeits an unfinished match. A private match is torn down.
func (m SessionModel) leaveMatch() {
	if m.match.Phase() == client.PhaseFinished {
		return
	}
	svc := m.services
	if m.mode == PlayModeOnline && svc.Matchmaker != nil {
		svc.Matchmaker.Disconnect(m.session.ID())
		return
	}
	if err := svc.Manager.Dispose(m.matchID); err != nil {
		svc.Logger.Debug("dispose", "match", m.matchID, "error", err)
	}
}

// updateResults handles updates on the results screen.
func (m SessionModel) updateResults(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.scoreboard, cmd = updateAs(m.scoreboard, msg)

	if m.scoreboard.IsQuitting() {
		m.quitting = true
		return m, tea.Quit
	}
	if m.scoreboard.IsGoingBack() {
		return m.backToMenu(nil), nil
	}
	return m, cmd
}

func (m SessionModel) backToMenu(err error) SessionModel {
	if err != nil {
		m.services.Logger.Warn("session", "error", err)
	}
	m.err = err
	m.menu = NewMenuModel(m.width, m.height, m.menu.modes...)
	m.screen = screenMenu
	return m
}

// View renders the current view.
func (m SessionModel) View() string {
	if m.quitting {
		return ""
	}

	switch m.screen {
	case screenLobby:
		return m.lobby.View()
	case screenMatch:
		return m.match.View()
	case screenResults:
		return m.scoreboard.View()
	}

	view := m.menu.View()
	if m.err != nil {
		view += "\n" + centerText("Error: "+m.err.Error(), m.width)
	}
	return view
}

// RunLocal runs a session in the current terminal against svc.
func RunLocal(svc Services, width, height int) error {
	model := NewSessionModel(svc, nil, width, height)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
	)

	_, err := p.Run()
	return err
}
