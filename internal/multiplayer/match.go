package multiplayer

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vovakirdan/arena-pong/internal/core"
	"github.com/vovakirdan/arena-pong/internal/games/arena"
)

// MatchResult contains the outcome of a match loop.
type MatchResult struct {
	MatchID    core.MatchID
	MapID      string
	Reason     MatchEndReason
	WinnerID   string
	Placements []PlacementData
	Ticks      uint64
	Final      core.GameState
}

// Winner returns the placement of the first-place player, if any.
func (r MatchResult) Winner() (PlacementData, bool) {
	if r.WinnerID == "" {
		return PlacementData{}, false
	}
	for _, p := range r.Placements {
		if p.PlayerID == r.WinnerID {
			return p, true
		}
	}
	return PlacementData{}, false
}

type subscription struct {
	id       uint64
	fn       Subscriber
	observer bool // Does not keep the match alive
}

// OnlineMatch drives one arena.Game on its own goroutine and publishes a
// snapshot after every tick.
type OnlineMatch struct {
	id        core.MatchID
	mapID     string
	game      *arena.Game
	tickRate  int
	createdAt time.Time
	clock     func() time.Time

	// Subscriber list is replaced, never mutated, so the tick goroutine can
	// read it without locking.
	subMu   sync.Mutex
	subs    atomic.Pointer[[]subscription]
	nextSub uint64

	stateMu    sync.RWMutex
	latest     core.GameState
	idleSince  time.Time
	finished   bool
	finishedAt time.Time
	stopReason MatchEndReason

	// notify publishes a tick's snapshot. Defaults to the match's own fan-out.
	notify func(core.GameState)

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	doneOnce sync.Once
}

// NewOnlineMatch wraps a freshly built game. The loop is not started.
func NewOnlineMatch(mapID string, game *arena.Game, tickRate int, clock func() time.Time) *OnlineMatch {
	if tickRate <= 0 {
		tickRate = 60
	}
	if clock == nil {
		clock = time.Now
	}
	now := clock()
	m := &OnlineMatch{
		id:        game.ID(),
		mapID:     mapID,
		game:      game,
		tickRate:  tickRate,
		createdAt: now,
		clock:     clock,
		latest:    game.Snapshot(),
		idleSince: now,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	m.subs.Store(&[]subscription{})
	m.notify = m.publish
	return m
}

// ID returns the match identifier.
func (m *OnlineMatch) ID() core.MatchID {
	return m.id
}

// MapID returns the map the match is played on.
func (m *OnlineMatch) MapID() string {
	return m.mapID
}

// State returns the most recently published snapshot.
func (m *OnlineMatch) State() core.GameState {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.latest
}

// Finished reports whether the loop has published its final snapshot.
func (m *OnlineMatch) Finished() bool {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.finished
}

// Done is closed once Run has returned and the game is released.
func (m *OnlineMatch) Done() <-chan struct{} {
	return m.done
}

// Enqueue forwards a player action to the simulation.
func (m *OnlineMatch) Enqueue(a core.PlayerAction) error {
	return m.game.EnqueueAction(a)
}

// Forfeit removes a player at the next tick.
func (m *OnlineMatch) Forfeit(playerID string) error {
	return m.game.Forfeit(playerID)
}

// Subscribe registers fn for every snapshot published from now on and
// returns a function that removes it.
func (m *OnlineMatch) Subscribe(fn Subscriber) func() {
	return m.subscribe(fn, false)
}

// SubscribeObserver is Subscribe for in-process watchers such as bots. An
// observer receives every snapshot but a match watched only by observers
// counts as idle.
func (m *OnlineMatch) SubscribeObserver(fn Subscriber) func() {
	return m.subscribe(fn, true)
}

func (m *OnlineMatch) subscribe(fn Subscriber, observer bool) func() {
	m.subMu.Lock()
	m.nextSub++
	id := m.nextSub
	old := *m.subs.Load()
	next := make([]subscription, len(old), len(old)+1)
	copy(next, old)
	next = append(next, subscription{id: id, fn: fn, observer: observer})
	m.subs.Store(&next)
	m.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { m.unsubscribe(id) })
	}
}

func (m *OnlineMatch) unsubscribe(id uint64) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	old := *m.subs.Load()
	next := make([]subscription, 0, len(old))
	wasClient := false
	for _, s := range old {
		if s.id != id {
			next = append(next, s)
		} else if !s.observer {
			wasClient = true
		}
	}
	m.subs.Store(&next)

	if wasClient && clientCount(next) == 0 {
		m.stateMu.Lock()
		m.idleSince = m.clock()
		m.stateMu.Unlock()
	}
}

// SubscriberCount returns the number of registered subscribers, observers
// included.
func (m *OnlineMatch) SubscriberCount() int {
	return len(*m.subs.Load())
}

// ClientCount returns the number of subscribers that are not observers.
func (m *OnlineMatch) ClientCount() int {
	return clientCount(*m.subs.Load())
}

func clientCount(subs []subscription) int {
	n := 0
	for _, s := range subs {
		if !s.observer {
			n++
		}
	}
	return n
}

// idleFor returns how long the match has had no client subscribers.
func (m *OnlineMatch) idleFor(now time.Time) time.Duration {
	if m.ClientCount() > 0 {
		return 0
	}
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return now.Sub(m.idleSince)
}

// publish calls every subscriber in registration order.
func (m *OnlineMatch) publish(state core.GameState) {
	for _, s := range *m.subs.Load() {
		s.fn(state)
	}
}

// Run starts the authoritative match loop. It returns when the match
// finishes, Stop is called or ctx is cancelled; onComplete is then called
// once with the outcome. The game and every subscription are released
// before Run returns.
func (m *OnlineMatch) Run(ctx context.Context, onComplete func(MatchResult)) {
	defer m.doneOnce.Do(func() {
		close(m.done)
	})

	tickDuration := time.Second / time.Duration(m.tickRate)
	ticker := time.NewTicker(tickDuration)
	defer ticker.Stop()

	var result MatchResult
	for {
		select {
		case <-ticker.C:
			if !m.runTick() {
				continue
			}
			result = m.result(MatchEndReasonCompleted)

		case <-m.stop:
			m.stateMu.RLock()
			reason := m.stopReason
			m.stateMu.RUnlock()
			result = m.result(reason)

		case <-ctx.Done():
			result = m.result(MatchEndReasonDisposed)
		}
		break
	}

	m.game.Dispose()
	m.subMu.Lock()
	m.subs.Store(&[]subscription{})
	m.subMu.Unlock()
	if onComplete != nil {
		onComplete(result)
	}
}

// runTick steps the game once and publishes the snapshot. It reports
// whether the match has finished; the final snapshot is the last one
// published.
func (m *OnlineMatch) runTick() bool {
	state, done := m.game.Step()

	m.stateMu.Lock()
	m.latest = state
	if done {
		m.finished = true
		m.finishedAt = m.clock()
	}
	m.stateMu.Unlock()

	m.notify(state)
	return done
}

func (m *OnlineMatch) result(reason MatchEndReason) MatchResult {
	res := MatchResult{
		MatchID: m.id,
		MapID:   m.mapID,
		Reason:  reason,
		Ticks:   m.game.Ticks(),
		Final:   m.State(),
	}
	if w, ok := m.game.Winner(); ok {
		res.WinnerID = w.ID
	}

	byID := make(map[string]*arena.Player, len(m.game.Players()))
	for _, p := range m.game.Players() {
		byID[p.ID] = p
	}
	for i, id := range m.game.Placements() {
		p := byID[id]
		res.Placements = append(res.Placements, PlacementData{
			PlayerID: p.ID,
			Alias:    p.Alias,
			Place:    i + 1,
			Lives:    p.Lives,
		})
	}
	return res
}

// Stop ends the loop with the given reason. Safe to call multiple times;
// only the first reason is kept.
func (m *OnlineMatch) Stop(reason MatchEndReason) {
	m.stopOnce.Do(func() {
		m.stateMu.Lock()
		m.stopReason = reason
		m.stateMu.Unlock()
		close(m.stop)
	})
}
