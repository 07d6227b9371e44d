package multiplayer

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/arena-pong/internal/core"
	"github.com/vovakirdan/arena-pong/internal/games/arena"
	"github.com/vovakirdan/arena-pong/internal/physics"
	"github.com/vovakirdan/arena-pong/internal/registry"
	"github.com/vovakirdan/arena-pong/internal/world"
)

// MapSource resolves a map id to a fresh map description.
type MapSource func(id string) (world.Map, error)

// ManagerConfig holds configuration for the state manager.
type ManagerConfig struct {
	TickRate          int           // Simulation ticks per second
	IdleTimeout       time.Duration // Matches without subscribers are disposed after this
	FinishedRetention time.Duration // Finished matches stay queryable this long
	CleanupPeriod     time.Duration // How often idle and finished matches are reaped
	StartCountdown    int           // Ticks between all ready and the first serve
	ServeDelay        int           // Ticks balls wait after a respawn
	Tuning            physics.Tuning
	Seed              int64 // Non-zero makes every match deterministic per id
	Maps              MapSource
	Logger            *log.Logger
	Clock             func() time.Time
}

// DefaultManagerConfig returns sensible defaults.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		TickRate:          60,
		IdleTimeout:       2 * time.Minute,
		FinishedRetention: 30 * time.Second,
		CleanupPeriod:     10 * time.Second,
		StartCountdown:    arena.DefaultStartCountdown,
		ServeDelay:        arena.DefaultServeDelay,
		Tuning:            physics.DefaultTuning(),
	}
}

// StateManager owns every live match, keyed by id. At most one game runs
// per match id.
type StateManager struct {
	config      ManagerConfig
	logger      *log.Logger
	resultSaver MatchResultSaver // Optional, can be nil

	mu        sync.RWMutex
	matches   map[core.MatchID]*OnlineMatch
	listeners []func(MatchResult)

	nextID atomic.Int64

	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	done     chan struct{}
	stopOnce sync.Once
}

// NewStateManager creates a state manager. Zero config fields fall back to
// DefaultManagerConfig values.
func NewStateManager(cfg ManagerConfig) *StateManager {
	def := DefaultManagerConfig()
	if cfg.TickRate <= 0 {
		cfg.TickRate = def.TickRate
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = def.IdleTimeout
	}
	if cfg.FinishedRetention <= 0 {
		cfg.FinishedRetention = def.FinishedRetention
	}
	if cfg.CleanupPeriod <= 0 {
		cfg.CleanupPeriod = def.CleanupPeriod
	}
	if cfg.Tuning == (physics.Tuning{}) {
		cfg.Tuning = def.Tuning
	}
	if cfg.Maps == nil {
		cfg.Maps = registry.Create
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &StateManager{
		config:  cfg,
		logger:  logger.WithPrefix("state"),
		matches: make(map[core.MatchID]*OnlineMatch),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
}

// SetResultSaver sets the optional match result saver.
func (s *StateManager) SetResultSaver(saver MatchResultSaver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resultSaver = saver
}

// OnMatchEnded registers fn to be called after any match loop exits.
func (s *StateManager) OnMatchEnded(fn func(MatchResult)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Start begins background cleanup of idle and finished matches.
func (s *StateManager) Start() {
	go s.cleanupLoop()
}

// Stop ends every match loop and waits for them to release their games.
func (s *StateManager) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
		s.cancel()
	})
	s.wg.Wait()
}

// NextMatchID returns an id no match of this manager has used.
func (s *StateManager) NextMatchID() core.MatchID {
	for {
		id := core.MatchID(s.nextID.Add(1))
		s.mu.RLock()
		_, taken := s.matches[id]
		s.mu.RUnlock()
		if !taken {
			return id
		}
	}
}

// InitGameState creates the match and starts its loop. Calling it again
// for a live match id returns the current state without creating a
// second game. Map and roster problems wrap core.ErrConfiguration.
func (s *StateManager) InitGameState(matchID core.MatchID, mapID string, roster []core.PlayerInfo) (core.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.matches[matchID]; ok {
		if existing.MapID() != mapID {
			s.logger.Warn("init for existing match with another map", "match", matchID, "map", existing.MapID(), "requested", mapID)
		}
		return existing.State(), nil
	}

	select {
	case <-s.done:
		return core.GameState{}, fmt.Errorf("state manager stopped: %w", core.ErrMatchFinished)
	default:
	}

	m, err := s.config.Maps(mapID)
	if err != nil {
		return core.GameState{}, err
	}

	runtime := core.DefaultConfig()
	runtime.TickRate = s.config.TickRate
	if s.config.Seed != 0 {
		runtime.Seed = s.config.Seed + int64(matchID)
	}

	game, err := arena.New(arena.Options{
		MatchID:        matchID,
		Map:            m,
		Roster:         roster,
		Tuning:         s.config.Tuning,
		Runtime:        runtime,
		StartCountdown: s.config.StartCountdown,
		ServeDelay:     s.config.ServeDelay,
		Clock:          s.config.Clock,
	})
	if err != nil {
		return core.GameState{}, err
	}

	match := NewOnlineMatch(mapID, game, s.config.TickRate, s.config.Clock)
	match.notify = func(state core.GameState) {
		s.NotifySubs(matchID, state)
	}
	s.matches[matchID] = match

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		match.Run(s.ctx, func(result MatchResult) {
			s.handleMatchEnded(match, result)
		})
	}()

	s.logger.Info("match created", "match", matchID, "map", mapID, "players", len(roster))
	return match.State(), nil
}

// GetGameState returns the latest published snapshot of a match.
func (s *StateManager) GetGameState(matchID core.MatchID) (core.GameState, bool) {
	m, ok := s.match(matchID)
	if !ok {
		return core.GameState{}, false
	}
	return m.State(), true
}

// HandlePlayerAction routes an action to its match. Unknown matches and
// players wrap core.ErrNotFound.
func (s *StateManager) HandlePlayerAction(a core.PlayerAction) error {
	m, ok := s.match(a.MatchID)
	if !ok {
		return fmt.Errorf("match %d: %w", a.MatchID, core.ErrNotFound)
	}
	if m.Finished() {
		return fmt.Errorf("match %d: %w", a.MatchID, core.ErrMatchFinished)
	}
	return m.Enqueue(a)
}

// Leave forfeits a player's remaining lives.
func (s *StateManager) Leave(matchID core.MatchID, playerID string) error {
	m, ok := s.match(matchID)
	if !ok {
		return fmt.Errorf("match %d: %w", matchID, core.ErrNotFound)
	}
	if m.Finished() {
		return nil
	}
	return m.Forfeit(playerID)
}

// Subscribe registers fn for every snapshot the match publishes from now
// on, in tick order. The returned function removes the subscription.
func (s *StateManager) Subscribe(matchID core.MatchID, fn Subscriber) (func(), error) {
	m, ok := s.match(matchID)
	if !ok {
		return nil, fmt.Errorf("match %d: %w", matchID, core.ErrNotFound)
	}
	if m.Finished() {
		return nil, fmt.Errorf("match %d: %w", matchID, core.ErrMatchFinished)
	}
	return m.Subscribe(fn), nil
}

// SubscribeObserver is Subscribe for in-process watchers. Observers do not
// keep a match from being disposed as idle.
func (s *StateManager) SubscribeObserver(matchID core.MatchID, fn Subscriber) (func(), error) {
	m, ok := s.match(matchID)
	if !ok {
		return nil, fmt.Errorf("match %d: %w", matchID, core.ErrNotFound)
	}
	if m.Finished() {
		return nil, fmt.Errorf("match %d: %w", matchID, core.ErrMatchFinished)
	}
	return m.SubscribeObserver(fn), nil
}

// NotifySubs delivers state to every subscriber of the match. Match loops
// call it after each tick; callers outside a loop must not race with it.
func (s *StateManager) NotifySubs(matchID core.MatchID, state core.GameState) {
	m, ok := s.match(matchID)
	if !ok {
		return
	}
	m.publish(state)
}

// Dispose stops a match and forgets it. Its game is released by the loop.
func (s *StateManager) Dispose(matchID core.MatchID) error {
	return s.remove(matchID, MatchEndReasonDisposed)
}

func (s *StateManager) remove(matchID core.MatchID, reason MatchEndReason) error {
	s.mu.Lock()
	m, ok := s.matches[matchID]
	delete(s.matches, matchID)
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("match %d: %w", matchID, core.ErrNotFound)
	}
	m.Stop(reason)
	return nil
}

// SubscriberCount returns the number of subscribers of a match, observers
// included. Unknown matches have none.
func (s *StateManager) SubscriberCount(matchID core.MatchID) int {
	m, ok := s.match(matchID)
	if !ok {
		return 0
	}
	return m.SubscriberCount()
}

// MatchCount returns the number of tracked matches, finished ones included.
func (s *StateManager) MatchCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.matches)
}

// MatchIDs returns the ids of all tracked matches.
func (s *StateManager) MatchIDs() []core.MatchID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]core.MatchID, 0, len(s.matches))
	for id := range s.matches {
		ids = append(ids, id)
	}
	return ids
}

func (s *StateManager) match(id core.MatchID) (*OnlineMatch, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.matches[id]
	return m, ok
}

func (s *StateManager) handleMatchEnded(match *OnlineMatch, result MatchResult) {
	s.mu.RLock()
	saver := s.resultSaver
	listeners := s.listeners
	s.mu.RUnlock()

	s.logger.Info("match ended",
		"match", result.MatchID,
		"reason", result.Reason,
		"winner", result.WinnerID,
		"ticks", result.Ticks,
	)

	if saver != nil && result.Reason == MatchEndReasonCompleted {
		data := s.resultData(match, result)
		// Best effort save, the loop has already exited
		go func() {
			if err := saver.SaveMatchResult(data); err != nil {
				s.logger.Error("save match result", "match", data.MatchID, "error", err)
			}
		}()
	}

	for _, fn := range listeners {
		fn(result)
	}
}

func (s *StateManager) resultData(match *OnlineMatch, result MatchResult) MatchResultData {
	tickRate := max(1, s.config.TickRate)
	data := MatchResultData{
		MatchID:      result.MatchID,
		MapID:        result.MapID,
		WinnerID:     result.WinnerID,
		Placements:   result.Placements,
		EndReason:    result.Reason.String(),
		DurationSecs: int(result.Ticks / uint64(tickRate)), //nolint:gosec // tickRate is clamped positive
		Ticks:        result.Ticks,
		FinishedAt:   s.config.Clock(),
	}
	if w, ok := result.Winner(); ok {
		data.WinnerAlias = w.Alias
	}
	match.stateMu.RLock()
	if !match.finishedAt.IsZero() {
		data.FinishedAt = match.finishedAt
	}
	match.stateMu.RUnlock()
	return data
}

func (s *StateManager) cleanupLoop() {
	ticker := time.NewTicker(s.config.CleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup(s.config.Clock())
		case <-s.done:
			return
		}
	}
}

// cleanup reaps finished matches past retention and disposes idle ones.
func (s *StateManager) cleanup(now time.Time) {
	type reap struct {
		id     core.MatchID
		reason MatchEndReason
	}
	var targets []reap

	s.mu.RLock()
	for id, m := range s.matches {
		m.stateMu.RLock()
		finished, finishedAt := m.finished, m.finishedAt
		m.stateMu.RUnlock()

		switch {
		case finished && now.Sub(finishedAt) > s.config.FinishedRetention:
			targets = append(targets, reap{id, MatchEndReasonCompleted})
		case !finished && m.idleFor(now) > s.config.IdleTimeout:
			targets = append(targets, reap{id, MatchEndReasonIdle})
		}
	}
	s.mu.RUnlock()

	for _, t := range targets {
		if t.reason == MatchEndReasonIdle {
			s.logger.Info("disposing idle match", "match", t.id)
		}
		_ = s.remove(t.id, t.reason) //nolint:errcheck // concurrent Dispose may win
	}
}
