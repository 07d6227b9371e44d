package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/arena-pong/internal/multiplayer"
)

// LobbyState represents the current state of the matchmaking flow.
type LobbyState int

const (
	LobbyStateQueued   LobbyState = iota // Waiting for the roster to fill
	LobbyStateAssigned                   // A match was created for this session
	LobbyStateFailed                     // The queue rejected or expired the ticket
)

// LobbyModel shows queue progress while the matchmaker fills a roster.
type LobbyModel struct {
	state      LobbyState
	width      int
	height     int
	keyMapper  *KeyMapper
	mapID      string
	sessionID  multiplayer.SessionID
	matchmaker *multiplayer.Matchmaker
	events     <-chan multiplayer.SessionEvent

	waiting    int
	needed     int
	errMessage string
	assignment multiplayer.MatchAssignedEvent

	backToMenu bool
	quitting   bool
}

// NewLobbyModel creates a lobby for a session that has already been
// enqueued for mapID.
func NewLobbyModel(
	mapID string,
	sessionID multiplayer.SessionID,
	matchmaker *multiplayer.Matchmaker,
	events <-chan multiplayer.SessionEvent,
	width, height int,
) LobbyModel {
	return LobbyModel{
		state:      LobbyStateQueued,
		width:      width,
		height:     height,
		keyMapper:  NewKeyMapper(),
		mapID:      mapID,
		sessionID:  sessionID,
		matchmaker: matchmaker,
		events:     events,
	}
}

// Init initializes the lobby model.
func (m LobbyModel) Init() tea.Cmd {
	return waitForEvent(m.events)
}

// waitForEvent returns a command that waits for matchmaker events.
func waitForEvent(events <-chan multiplayer.SessionEvent) tea.Cmd {
	return func() tea.Msg {
		if events == nil {
			return nil
		}
		evt, ok := <-events
		if !ok {
			return nil
		}
		return evt
	}
}

// Update handles messages.
func (m LobbyModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case multiplayer.QueuedEvent:
		m.waiting = msg.Waiting
		m.needed = msg.Needed
		return m, waitForEvent(m.events)
	case multiplayer.QueueErrorEvent:
		m.errMessage = msg.Message
		m.state = LobbyStateFailed
		return m, nil
	case multiplayer.MatchAssignedEvent:
		m.assignment = msg
		m.state = LobbyStateAssigned
		return m, nil
	case multiplayer.SessionEvent:
		// Events for an earlier match may still be buffered.
		return m, waitForEvent(m.events)
	}
	return m, nil
}

func (m LobbyModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.keyMapper.MapKeyToMenuAction(msg) {
	case MenuActionQuit:
		m.matchmaker.Cancel(m.sessionID)
		m.quitting = true
		return m, tea.Quit
	case MenuActionBack:
		m.matchmaker.Cancel(m.sessionID)
		m.backToMenu = true
	}
	return m, nil
}

// View renders the current state.
func (m LobbyModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(centerText(fmt.Sprintf("ONLINE - %s", strings.ToUpper(m.mapID)), m.width))
	b.WriteString("\n\n")

	switch m.state {
	case LobbyStateQueued:
		if m.needed > 0 {
			b.WriteString(centerText(fmt.Sprintf("Players in queue: %d/%d", m.waiting, m.needed), m.width))
		} else {
			b.WriteString(centerText("Joining queue...", m.width))
		}
		b.WriteString("\n\n")
		b.WriteString(centerText("Waiting for opponents...", m.width))
		b.WriteString("\n\n")
		b.WriteString(centerText("Esc: Cancel  |  Q: Quit", m.width))
	case LobbyStateAssigned:
		b.WriteString(centerText(fmt.Sprintf("Match %d found, slot %d", m.assignment.MatchID, m.assignment.Slot+1), m.width))
		b.WriteString("\n\n")
		b.WriteString(centerText("Get ready!", m.width))
	case LobbyStateFailed:
		b.WriteString(centerText(fmt.Sprintf("Error: %s", m.errMessage), m.width))
		b.WriteString("\n\n")
		b.WriteString(centerText("Esc: Back  |  Q: Quit", m.width))
	}

	return b.String()
}

// State returns the current lobby state.
func (m LobbyModel) State() LobbyState {
	return m.state
}

// Assignment returns the match the session was placed in.
func (m LobbyModel) Assignment() (multiplayer.MatchAssignedEvent, bool) {
	return m.assignment, m.state == LobbyStateAssigned
}

// BackToMenu returns true if user wants to go back to menu.
func (m LobbyModel) BackToMenu() bool {
	return m.backToMenu
}

// IsQuitting returns true if user wants to quit entirely.
func (m LobbyModel) IsQuitting() bool {
	return m.quitting
}
