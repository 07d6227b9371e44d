package bots

import (
	"testing"
	"time"

	"github.com/vovakirdan/arena-pong/internal/core"
	"github.com/vovakirdan/arena-pong/internal/multiplayer"
	"github.com/vovakirdan/arena-pong/internal/registry"
)

func newDuelBot(t *testing.T, skill float64) (*Bot, *[]core.PlayerAction) {
	t.Helper()
	m, err := registry.Create("duel")
	if err != nil {
		t.Fatalf("registry.Create() error = %v", err)
	}
	var sent []core.PlayerAction
	b, err := New("cpu", 1, m, 0, skill, func(a core.PlayerAction) error {
		sent = append(sent, a)
		return nil
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return b, &sent
}

func duelState(status core.Status, balls ...core.BallState) core.GameState {
	return core.GameState{
		MatchID: 1,
		Status:  status,
		Players: []core.PlayerState{
			{ID: "cpu", Lives: 3, IsAlive: true, Position: core.Position{X: 0, Z: -3.75}},
			{ID: "human", Lives: 3, IsAlive: true, Position: core.Position{X: 0, Z: 3.75}},
		},
		Balls: balls,
	}
}

func TestBotReadiesOnce(t *testing.T) {
	b, sent := newDuelBot(t, MaxSkill)

	b.Observe(duelState(core.StatusWaiting))
	b.Observe(duelState(core.StatusWaiting))

	if len(*sent) != 1 || (*sent)[0].Action != core.ActionReady || (*sent)[0].PlayerID != "cpu" {
		t.Errorf("sent = %+v, want one ready", *sent)
	}
}

func TestBotTracksIncomingBall(t *testing.T) {
	tests := []struct {
		name string
		side float64 // Offset of the ball along the paddle rail
		want core.Action
	}{
		{"ball on up side", 2, core.ActionUp},
		{"ball on down side", -2, core.ActionDown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, _ := newDuelBot(t, MaxSkill)
			along := b.up.Scale(tt.side)

			// Ball moves toward the bot's goal (decreasing z).
			b.Decide(duelState(core.StatusInProgress, core.BallState{X: along.X, Z: along.Z}))
			got, ok := b.Decide(duelState(core.StatusInProgress, core.BallState{X: along.X, Z: along.Z - 0.2}))
			if !ok || got != tt.want {
				t.Errorf("Decide() = %q, %v, want %q", got, ok, tt.want)
			}
		})
	}
}

func TestBotIgnoresOutgoingBall(t *testing.T) {
	b, _ := newDuelBot(t, MaxSkill)
	along := b.up.Scale(3)

	b.Decide(duelState(core.StatusInProgress, core.BallState{X: along.X, Z: 0}))
	// Moving away: the bot stays centred, which is already its last action.
	if got, ok := b.Decide(duelState(core.StatusInProgress, core.BallState{X: along.X, Z: 0.2})); ok {
		t.Errorf("Decide() = %q for an outgoing ball", got)
	}
}

func TestBotSilentWhenEliminated(t *testing.T) {
	b, sent := newDuelBot(t, MaxSkill)
	s := duelState(core.StatusInProgress, core.BallState{X: 2, Z: -3})
	s.Players[0].IsAlive = false
	s.Players[0].Lives = 0

	b.Observe(s)
	b.Observe(duelState(core.StatusFinished))
	if len(*sent) != 0 {
		t.Errorf("sent = %+v", *sent)
	}
}

func TestNewRejectsBadSlot(t *testing.T) {
	m, _ := registry.Create("duel")
	if _, err := New("cpu", 1, m, 5, DefaultSkill, nil); err == nil {
		t.Error("New() with slot 5 succeeded")
	}
}

func TestAttachPlaysMatch(t *testing.T) {
	cfg := multiplayer.DefaultManagerConfig()
	cfg.TickRate = 1000
	cfg.StartCountdown = 0
	s := multiplayer.NewStateManager(cfg)
	defer s.Stop()

	roster := []core.PlayerInfo{{ID: "bot-1"}, {ID: "bot-2"}}
	if _, err := s.InitGameState(1, "duel", roster); err != nil {
		t.Fatalf("InitGameState() error = %v", err)
	}
	bots, err := Attach(s, 1, "duel", []string{"bot-1", "bot-2"}, DefaultSkill)
	if err != nil {
		t.Fatalf("Attach() error = %v", err)
	}
	if len(bots) != 2 {
		t.Fatalf("Attach() returned %d bots", len(bots))
	}
	if _, err := Attach(s, 1, "duel", []string{"ghost"}, DefaultSkill); err == nil {
		t.Error("Attach() with unknown player succeeded")
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if st, _ := s.GetGameState(1); st.Status != core.StatusWaiting {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Error("bots never readied up")
}

func TestBotsDoNotKeepMatchAlive(t *testing.T) {
	cfg := multiplayer.DefaultManagerConfig()
	cfg.IdleTimeout = 50 * time.Millisecond
	cfg.CleanupPeriod = 10 * time.Millisecond
	s := multiplayer.NewStateManager(cfg)
	s.Start()
	defer s.Stop()

	// The human never connects.
	roster := []core.PlayerInfo{{ID: "human"}, {ID: "bot-1"}}
	if _, err := s.InitGameState(1, "duel", roster); err != nil {
		t.Fatalf("InitGameState() error = %v", err)
	}
	if _, err := Attach(s, 1, "duel", []string{"bot-1"}, DefaultSkill); err != nil {
		t.Fatalf("Attach() error = %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := s.GetGameState(1); !ok {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Error("match watched only by bots was never disposed")
}

func TestAttachFailureDetachesBots(t *testing.T) {
	cfg := multiplayer.DefaultManagerConfig()
	s := multiplayer.NewStateManager(cfg)
	defer s.Stop()

	roster := []core.PlayerInfo{{ID: "bot-1"}, {ID: "human"}}
	if _, err := s.InitGameState(1, "duel", roster); err != nil {
		t.Fatalf("InitGameState() error = %v", err)
	}
	if _, err := Attach(s, 1, "duel", []string{"bot-1", "ghost"}, DefaultSkill); err == nil {
		t.Fatal("Attach() with unknown player succeeded")
	}
	if n := s.SubscriberCount(1); n != 0 {
		t.Errorf("SubscriberCount() = %d after failed Attach, want 0", n)
	}
}
