package tui

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/arena-pong/internal/client"
	"github.com/vovakirdan/arena-pong/internal/core"
	"github.com/vovakirdan/arena-pong/internal/multiplayer"
	"github.com/vovakirdan/arena-pong/internal/registry"
	"github.com/vovakirdan/arena-pong/internal/storage"
)

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

type fakeLink struct {
	states  chan core.GameState
	sent    []core.PlayerAction
	sendErr error
	closed  bool
}

func newFakeLink() *fakeLink {
	return &fakeLink{states: make(chan core.GameState, 4)}
}

func (l *fakeLink) States() <-chan core.GameState { return l.states }

func (l *fakeLink) Send(a core.PlayerAction) error {
	if l.sendErr != nil {
		return l.sendErr
	}
	l.sent = append(l.sent, a)
	return nil
}

func (l *fakeLink) Close() error {
	l.closed = true
	return nil
}

func duelState(status core.Status) core.GameState {
	return core.GameState{
		MatchID: 1,
		Status:  status,
		Tick:    10,
		Players: []core.PlayerState{
			{ID: "p1", Alias: "alice", Lives: 3, IsAlive: true, Position: core.Position{X: 0, Z: -3.75}},
			{ID: "p2", Alias: "bob", Lives: 1, IsAlive: status != core.StatusFinished, Position: core.Position{X: 1, Z: 3.75}},
		},
		Balls: []core.BallState{{X: 0, Z: 0}},
	}
}

func TestKeyMapperMenuActions(t *testing.T) {
	km := NewKeyMapper()
	tests := []struct {
		msg  tea.KeyMsg
		want MenuAction
	}{
		{runeKey('q'), MenuActionQuit},
		{tea.KeyMsg{Type: tea.KeyUp}, MenuActionUp},
		{runeKey('k'), MenuActionUp},
		{runeKey('j'), MenuActionDown},
		{tea.KeyMsg{Type: tea.KeyEnter}, MenuActionSelect},
		{tea.KeyMsg{Type: tea.KeyEsc}, MenuActionBack},
		{tea.KeyMsg{Type: tea.KeyTab}, MenuActionScoreboard},
		{runeKey('x'), MenuActionNone},
	}
	for _, tt := range tests {
		t.Run(tt.msg.String(), func(t *testing.T) {
			if got := km.MapKeyToMenuAction(tt.msg); got != tt.want {
				t.Errorf("MapKeyToMenuAction(%q) = %v, want %v", tt.msg.String(), got, tt.want)
			}
		})
	}
}

func TestArenaViewDraw(t *testing.T) {
	m, err := registry.Create("duel")
	if err != nil {
		t.Fatal(err)
	}
	view := NewArenaView(m, 2)
	screen := core.NewScreen(80, 24)

	state := duelState(core.StatusInProgress)
	view.SetBalls(state.Balls)
	for slot, p := range state.Players {
		view.SetPaddle(slot, p.Position, p.IsAlive)
	}
	view.SetPaddle(9, core.Position{}, true) // Out of range slots are ignored

	view.Draw(screen, state, "p1")
	out := screen.String()

	for _, want := range []string{"*alice ♥♥♥", "bob ♥", string(runeBall), string(runePaddle), string(runeWall)} {
		if !strings.Contains(out, want) {
			t.Errorf("arena view missing %q:\n%s", want, out)
		}
	}

	// The ball at the origin sits in the middle of the arena area.
	p := view.projection(screen)
	x, y := p.cell(0, 0)
	if got := screen.Get(x, y); got != runeBall {
		t.Errorf("cell at origin = %q, want ball", got)
	}
}

func TestArenaViewSealsEliminatedGoal(t *testing.T) {
	m, err := registry.Create("duel")
	if err != nil {
		t.Fatal(err)
	}
	view := NewArenaView(m, 2)
	screen := core.NewScreen(80, 24)

	view.Draw(screen, duelState(core.StatusFinished), "p1")
	if !strings.Contains(screen.String(), string(runeSealed)) {
		t.Error("eliminated goal is not drawn sealed")
	}
}

func TestArenaViewBanner(t *testing.T) {
	m, err := registry.Create("duel")
	if err != nil {
		t.Fatal(err)
	}
	view := NewArenaView(m, 2)

	paused := duelState(core.StatusInProgress)
	paused.Paused = true

	tests := []struct {
		name  string
		state core.GameState
		want  string
	}{
		{"paused", paused, "PAUSED"},
		{"finished", duelState(core.StatusFinished), "VICTORY!"},
		{"playing", duelState(core.StatusInProgress), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			screen := core.NewScreen(80, 24)
			view.Draw(screen, tt.state, "p1")
			out := screen.String()
			if tt.want == "" {
				if strings.Contains(out, "┌") {
					t.Errorf("unexpected banner:\n%s", out)
				}
				return
			}
			if !strings.Contains(out, "┌") || !strings.Contains(out, "│  "+tt.want+"  │") {
				t.Errorf("banner %q missing:\n%s", tt.want, out)
			}
		})
	}
}

func TestStatusLine(t *testing.T) {
	waiting := duelState(core.StatusWaiting)
	waiting.Players[0].IsReady = true
	countdown := duelState(core.StatusInProgress)
	countdown.Countdown = 90
	paused := duelState(core.StatusInProgress)
	paused.Paused = true

	tests := []struct {
		name  string
		state core.GameState
		self  string
		want  string
	}{
		{"connecting", core.GameState{}, "p1", "Connecting..."},
		{"waiting", waiting, "p1", "Waiting: 1/2 ready"},
		{"countdown", countdown, "p1", "Get ready... 2"},
		{"paused", paused, "p1", "PAUSED"},
		{"playing", duelState(core.StatusInProgress), "p1", ""},
		{"won", duelState(core.StatusFinished), "p1", "VICTORY!"},
		{"lost", duelState(core.StatusFinished), "p2", "alice wins"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := statusLine(tt.state, tt.self, 60)
			if !strings.HasPrefix(got, tt.want) {
				t.Errorf("statusLine() = %q, want prefix %q", got, tt.want)
			}
		})
	}
}

func TestMenuModelSelectsMapAndMode(t *testing.T) {
	menu := NewMenuModel(80, 24, PlayModeVsCPU, PlayModeOnline)

	menu, _ = updateAs(menu, tea.KeyMsg{Type: tea.KeyDown})
	menu, _ = updateAs(menu, tea.KeyMsg{Type: tea.KeyRight})
	menu, _ = updateAs(menu, tea.KeyMsg{Type: tea.KeyEnter})

	sel := menu.Selected()
	if sel == nil {
		t.Fatal("no map selected")
	}
	if want := registry.List()[1].ID; sel.MapID != want {
		t.Errorf("selected %q, want %q", sel.MapID, want)
	}
	if menu.Mode() != PlayModeOnline {
		t.Errorf("mode = %v, want online", menu.Mode())
	}
	if !strings.Contains(menu.View(), "Mode: < Online >") {
		t.Error("menu view does not show the mode")
	}
}

func TestMatchModelSendsHeldDirection(t *testing.T) {
	m, err := registry.Create("duel")
	if err != nil {
		t.Fatal(err)
	}
	link := newFakeLink()
	model := NewMatchModel(link, MatchOptions{
		Client: client.Config{PlayerID: "p1", MatchID: 1},
		Map:    m,
		Width:  80,
		Height: 24,
	})

	model, _ = updateAs(model, stateMsg{state: duelState(core.StatusInProgress), ok: true})
	if model.Phase() != client.PhasePlaying {
		t.Fatalf("phase = %v, want playing", model.Phase())
	}

	model, _ = updateAs(model, runeKey('w'))
	now := time.Now()
	model, _ = updateAs(model, TickMsg(now))
	if len(link.sent) != 1 || link.sent[0].Action != core.ActionUp {
		t.Fatalf("sent = %+v, want one up", link.sent)
	}

	// Without a repeat the key is released once the hold window passes.
	model, _ = updateAs(model, TickMsg(now.Add(time.Second)))
	if len(link.sent) != 2 || link.sent[1].Action != core.ActionStop {
		t.Fatalf("sent = %+v, want up then stop", link.sent)
	}

	model, _ = updateAs(model, stateMsg{ok: false})
	if !strings.Contains(model.View(), "connection closed") {
		t.Error("closed link not reported")
	}

	model, cmd := updateAs(model, tea.KeyMsg{Type: tea.KeyEsc})
	if !model.BackToMenu() || !link.closed || cmd != nil {
		t.Errorf("back: BackToMenu=%v closed=%v cmd=%v", model.BackToMenu(), link.closed, cmd)
	}
}

func TestMatchModelReportsSendError(t *testing.T) {
	m, err := registry.Create("duel")
	if err != nil {
		t.Fatal(err)
	}
	link := newFakeLink()
	link.sendErr = errors.New("boom")
	model := NewMatchModel(link, MatchOptions{Client: client.Config{PlayerID: "p1", MatchID: 1}, Map: m, Width: 80, Height: 24})

	model, _ = updateAs(model, stateMsg{state: duelState(core.StatusWaiting), ok: true})
	model, cmd := updateAs(model, tea.KeyMsg{Type: tea.KeySpace})
	if cmd == nil {
		t.Fatal("ready with failing link returned no command")
	}
	model, _ = updateAs(model, cmd())
	if !strings.Contains(model.View(), "error: boom") {
		t.Error("send error not shown")
	}
}

func TestLobbyModelEvents(t *testing.T) {
	tests := []struct {
		name  string
		event multiplayer.SessionEvent
		want  LobbyState
		view  string
	}{
		{"queued", multiplayer.QueuedEvent{MapID: "duel", Waiting: 1, Needed: 2}, LobbyStateQueued, "1/2"},
		{"stale end", multiplayer.MatchEndedEvent{MatchID: 3}, LobbyStateQueued, "Joining queue"},
		{"error", multiplayer.QueueErrorEvent{Message: "Queue expired"}, LobbyStateFailed, "Queue expired"},
		{"assigned", multiplayer.MatchAssignedEvent{MatchID: 4, MapID: "duel", PlayerID: "s1", Slot: 1}, LobbyStateAssigned, "Match 4 found, slot 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lobby := NewLobbyModel("duel", "s1", nil, nil, 80, 24)
			lobby, _ = updateAs(lobby, tt.event)
			if lobby.State() != tt.want {
				t.Errorf("state = %v, want %v", lobby.State(), tt.want)
			}
			if !strings.Contains(lobby.View(), tt.view) {
				t.Errorf("view missing %q:\n%s", tt.view, lobby.View())
			}
		})
	}
}

func TestScoreboardModel(t *testing.T) {
	store, err := storage.Open(filepath.Join(t.TempDir(), "results.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	err = store.SaveMatchResult(multiplayer.MatchResultData{
		MatchID:     9,
		MapID:       "duel",
		WinnerID:    "p1",
		WinnerAlias: "alice",
		EndReason:   "completed",
		FinishedAt:  time.Now(),
		Placements: []multiplayer.PlacementData{
			{PlayerID: "p1", Alias: "alice", Place: 1, Lives: 2},
			{PlayerID: "p2", Alias: "bob", Place: 2},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	board := NewScoreboardModel(store, 100, 30)
	if !strings.Contains(board.View(), "#9") {
		t.Errorf("recent view missing match:\n%s", board.View())
	}

	board, _ = updateAs(board, tea.KeyMsg{Type: tea.KeyTab})
	view := board.View()
	if !strings.Contains(view, "LEADERBOARD") || !strings.Contains(view, "alice") {
		t.Errorf("leaderboard view:\n%s", view)
	}

	board, _ = updateAs(board, tea.KeyMsg{Type: tea.KeyEsc})
	if !board.IsGoingBack() {
		t.Error("esc did not go back")
	}

	empty := NewScoreboardModel(nil, 100, 30)
	if !strings.Contains(empty.View(), "not being recorded") {
		t.Error("nil store not reported")
	}
}

func TestSessionModelVsCPU(t *testing.T) {
	manager := multiplayer.NewStateManager(multiplayer.ManagerConfig{})
	defer manager.Stop()

	session := NewSessionModel(Services{Manager: manager, PaddleWidth: 2, BotSkill: 0.5}, nil, 80, 24)
	if got := len(session.menu.modes); got != 1 {
		t.Fatalf("offline session offers %d modes, want 1", got)
	}

	model, _ := updateAs(session, tea.KeyMsg{Type: tea.KeyEnter})
	if model.screen != screenMatch {
		t.Fatalf("screen = %v, want match", model.screen)
	}
	if manager.MatchCount() != 1 {
		t.Fatalf("MatchCount() = %d, want 1", manager.MatchCount())
	}
	state, ok := manager.GetGameState(model.matchID)
	if !ok || len(state.Players) != 2 || state.Players[0].ID != "player" {
		t.Fatalf("match state = %+v", state)
	}

	model, _ = updateAs(model, tea.KeyMsg{Type: tea.KeyEsc})
	if model.screen != screenMenu {
		t.Errorf("screen = %v, want menu", model.screen)
	}
	if manager.MatchCount() != 0 {
		t.Errorf("abandoned private match still tracked")
	}
}
