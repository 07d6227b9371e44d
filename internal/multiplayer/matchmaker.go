package multiplayer

import (
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/vovakirdan/arena-pong/internal/core"
	"github.com/vovakirdan/arena-pong/internal/registry"
)

// SeatCounter returns how many players a map seats.
type SeatCounter func(mapID string) (int, error)

// MatchmakerConfig holds configuration for the matchmaker.
type MatchmakerConfig struct {
	LobbyTimeout  time.Duration // How long a ticket may wait before it expires
	BotFillAfter  time.Duration // Fill empty seats with bots after this wait; zero disables
	CleanupPeriod time.Duration // How often queues are swept
	Seats         SeatCounter
	OnBots        func(matchID core.MatchID, mapID string, botIDs []string) // Called after a match with bots starts
	Logger        *log.Logger
	Clock         func() time.Time
}

// DefaultMatchmakerConfig returns sensible defaults.
func DefaultMatchmakerConfig() MatchmakerConfig {
	return MatchmakerConfig{
		LobbyTimeout:  2 * time.Minute,
		CleanupPeriod: 5 * time.Second,
	}
}

// Ticket is one session waiting for a match.
type Ticket struct {
	ID       string
	Session  SessionHandle
	MapID    string
	QueuedAt time.Time
}

// Assignment records where matchmaking placed a session.
type Assignment struct {
	MatchID  core.MatchID
	MapID    string
	PlayerID string
	Slot     int
}

// Matchmaker groups queued sessions per map and starts a match through the
// state manager once a roster is complete.
type Matchmaker struct {
	config   MatchmakerConfig
	manager  *StateManager
	sessions *SessionRegistry
	logger   *log.Logger

	mu       sync.Mutex
	queues   map[string][]*Ticket
	tickets  map[SessionID]*Ticket
	assigned map[SessionID]Assignment
	botSeq   int

	done     chan struct{}
	stopOnce sync.Once
}

// NewMatchmaker creates a matchmaker feeding the given state manager.
func NewMatchmaker(cfg MatchmakerConfig, manager *StateManager, sessions *SessionRegistry) *Matchmaker {
	def := DefaultMatchmakerConfig()
	if cfg.LobbyTimeout <= 0 {
		cfg.LobbyTimeout = def.LobbyTimeout
	}
	if cfg.CleanupPeriod <= 0 {
		cfg.CleanupPeriod = def.CleanupPeriod
	}
	if cfg.Seats == nil {
		cfg.Seats = func(mapID string) (int, error) {
			info, ok := registry.Info(mapID)
			if !ok {
				return 0, fmt.Errorf("map %q: %w", mapID, core.ErrNotFound)
			}
			return info.Players, nil
		}
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	mm := &Matchmaker{
		config:   cfg,
		manager:  manager,
		sessions: sessions,
		logger:   logger.WithPrefix("matchmaker"),
		queues:   make(map[string][]*Ticket),
		tickets:  make(map[SessionID]*Ticket),
		assigned: make(map[SessionID]Assignment),
		done:     make(chan struct{}),
	}
	manager.OnMatchEnded(mm.handleMatchEnded)
	return mm
}

// Start begins background queue sweeping.
func (mm *Matchmaker) Start() {
	go mm.cleanupLoop()
}

// Stop ends background sweeping.
func (mm *Matchmaker) Stop() {
	mm.stopOnce.Do(func() {
		close(mm.done)
	})
}

// Enqueue puts a registered session in the queue for mapID and returns its
// ticket id. The match starts as soon as the map's seats are filled.
func (mm *Matchmaker) Enqueue(sessionID SessionID, mapID string) (string, error) {
	session, ok := mm.sessions.Get(sessionID)
	if !ok {
		return "", fmt.Errorf("session %q: %w", sessionID, core.ErrNotFound)
	}

	seats, err := mm.config.Seats(mapID)
	if err != nil {
		session.Send(QueueErrorEvent{Message: err.Error()})
		return "", err
	}

	mm.mu.Lock()
	defer mm.mu.Unlock()

	if _, queued := mm.tickets[sessionID]; queued {
		session.Send(QueueErrorEvent{Message: "Already queued"})
		return "", fmt.Errorf("session %q already queued", sessionID)
	}
	if _, playing := mm.assigned[sessionID]; playing {
		session.Send(QueueErrorEvent{Message: "Already in a match"})
		return "", fmt.Errorf("session %q already in a match", sessionID)
	}

	t := &Ticket{
		ID:       uuid.New().String(),
		Session:  session,
		MapID:    mapID,
		QueuedAt: mm.config.Clock(),
	}
	mm.tickets[sessionID] = t
	mm.queues[mapID] = append(mm.queues[mapID], t)

	if len(mm.queues[mapID]) >= seats {
		mm.startMatch(mapID, seats, 0)
	} else {
		mm.announce(mapID, seats)
	}
	return t.ID, nil
}

// Cancel removes a session from its queue.
func (mm *Matchmaker) Cancel(sessionID SessionID) {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	mm.dropTicket(sessionID)
}

// Disconnect handles a session that went away: it leaves its queue or
// forfeits its match.
func (mm *Matchmaker) Disconnect(sessionID SessionID) {
	mm.mu.Lock()
	mm.dropTicket(sessionID)
	a, playing := mm.assigned[sessionID]
	delete(mm.assigned, sessionID)
	mm.mu.Unlock()

	if playing {
		if err := mm.manager.Leave(a.MatchID, a.PlayerID); err != nil {
			mm.logger.Debug("leave on disconnect", "match", a.MatchID, "player", a.PlayerID, "error", err)
		}
	}
}

// Assignment returns the match a session was placed in.
func (mm *Matchmaker) Assignment(sessionID SessionID) (Assignment, bool) {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	a, ok := mm.assigned[sessionID]
	return a, ok
}

// QueueLength returns the number of sessions waiting for mapID.
func (mm *Matchmaker) QueueLength(mapID string) int {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	return len(mm.queues[mapID])
}

// dropTicket must be called with the lock held.
func (mm *Matchmaker) dropTicket(sessionID SessionID) {
	t, ok := mm.tickets[sessionID]
	if !ok {
		return
	}
	delete(mm.tickets, sessionID)

	q := mm.queues[t.MapID]
	for i, other := range q {
		if other == t {
			mm.queues[t.MapID] = append(q[:i:i], q[i+1:]...)
			break
		}
	}
	if len(mm.queues[t.MapID]) == 0 {
		delete(mm.queues, t.MapID)
	}
}

// announce must be called with the lock held.
func (mm *Matchmaker) announce(mapID string, seats int) {
	q := mm.queues[mapID]
	for _, t := range q {
		t.Session.Send(QueuedEvent{
			Ticket:  t.ID,
			MapID:   mapID,
			Waiting: len(q),
			Needed:  seats,
		})
	}
}

// startMatch pops a roster off the queue and starts it, padding with bots
// count times. Must be called with the lock held.
func (mm *Matchmaker) startMatch(mapID string, seats, bots int) {
	humans := seats - bots
	q := mm.queues[mapID]
	group := q[:humans]
	mm.queues[mapID] = q[humans:]
	if len(mm.queues[mapID]) == 0 {
		delete(mm.queues, mapID)
	}

	roster := make([]core.PlayerInfo, 0, seats)
	for _, t := range group {
		delete(mm.tickets, t.Session.ID())
		roster = append(roster, core.PlayerInfo{
			ID:    string(t.Session.ID()),
			Alias: t.Session.Alias(),
		})
	}
	botIDs := make([]string, 0, bots)
	for range bots {
		mm.botSeq++
		id := "bot-" + strconv.Itoa(mm.botSeq)
		botIDs = append(botIDs, id)
		roster = append(roster, core.PlayerInfo{ID: id, Alias: "CPU " + strconv.Itoa(mm.botSeq)})
	}

	matchID := mm.manager.NextMatchID()
	if _, err := mm.manager.InitGameState(matchID, mapID, roster); err != nil {
		mm.logger.Error("start match", "map", mapID, "error", err)
		for _, t := range group {
			t.Session.Send(QueueErrorEvent{Message: "Failed to create match"})
		}
		return
	}

	for slot, t := range group {
		a := Assignment{
			MatchID:  matchID,
			MapID:    mapID,
			PlayerID: string(t.Session.ID()),
			Slot:     slot,
		}
		mm.assigned[t.Session.ID()] = a
		t.Session.Send(MatchAssignedEvent(a))
	}

	if len(botIDs) > 0 && mm.config.OnBots != nil {
		mm.config.OnBots(matchID, mapID, botIDs)
	}
	mm.logger.Info("match assigned", "match", matchID, "map", mapID, "humans", len(group), "bots", len(botIDs))
}

func (mm *Matchmaker) handleMatchEnded(result MatchResult) {
	evt := MatchEndedEvent{
		MatchID:  result.MatchID,
		Reason:   result.Reason,
		WinnerID: result.WinnerID,
	}
	if w, ok := result.Winner(); ok {
		evt.WinnerAlias = w.Alias
	}

	mm.mu.Lock()
	var notify []SessionID
	for id, a := range mm.assigned {
		if a.MatchID == result.MatchID {
			notify = append(notify, id)
			delete(mm.assigned, id)
		}
	}
	mm.mu.Unlock()

	for _, id := range notify {
		if s, ok := mm.sessions.Get(id); ok {
			s.Send(evt)
		}
	}
}

func (mm *Matchmaker) cleanupLoop() {
	ticker := time.NewTicker(mm.config.CleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			mm.sweep(mm.config.Clock())
		case <-mm.done:
			return
		}
	}
}

// sweep fills long-waiting queues with bots and expires stale tickets.
func (mm *Matchmaker) sweep(now time.Time) {
	mm.mu.Lock()
	defer mm.mu.Unlock()

	if mm.config.BotFillAfter > 0 {
		for mapID, q := range mm.queues {
			if len(q) == 0 || now.Sub(q[0].QueuedAt) < mm.config.BotFillAfter {
				continue
			}
			seats, err := mm.config.Seats(mapID)
			if err != nil || len(q) >= seats {
				continue
			}
			mm.startMatch(mapID, seats, seats-len(q))
		}
	}

	for id, t := range mm.tickets {
		if now.Sub(t.QueuedAt) > mm.config.LobbyTimeout {
			t.Session.Send(QueueErrorEvent{Message: "Queue expired"})
			mm.dropTicket(id)
		}
	}
}
