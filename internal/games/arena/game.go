// Package arena implements the authoritative arena-Pong match simulation.
// A Game owns one match's bodies and roster. It is advanced by a single
// goroutine calling Step; any goroutine may enqueue player actions.
package arena

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/vovakirdan/arena-pong/internal/core"
	"github.com/vovakirdan/arena-pong/internal/physics"
	"github.com/vovakirdan/arena-pong/internal/world"
)

// Default timing settings, in ticks.
const (
	DefaultStartCountdown = 180 // 3 seconds at 60 Hz
	DefaultServeDelay     = 60
)

// Options configures a new match.
type Options struct {
	MatchID        core.MatchID
	Map            world.Map
	Roster         []core.PlayerInfo
	Tuning         physics.Tuning
	Runtime        core.RuntimeConfig
	StartCountdown int              // Ticks between everyone ready and first serve
	ServeDelay     int              // Ticks balls wait after a respawn
	Clock          func() time.Time // Defaults to time.Now
}

// Game is the simulation of one match.
type Game struct {
	id      core.MatchID
	status  core.Status
	world   *world.World
	players []*Player
	byID    map[string]*Player
	rng     *rand.Rand
	dt      float64
	clock   func() time.Time

	tick           uint64
	countdown      int
	startCountdown int
	serveDelay     int
	paused         bool
	activeCount    int
	eliminated     []string // Player IDs in elimination order
	disposed       bool

	mu      sync.Mutex
	pending map[string]pendingInput
}

// New validates the map and roster and builds a match in the waiting state.
// Configuration problems wrap core.ErrConfiguration.
func New(opts Options) (*Game, error) {
	n := len(opts.Roster)
	if n < 2 || n > core.MaxPlayers {
		return nil, fmt.Errorf("arena: roster of %d players, need 2..%d: %w", n, core.MaxPlayers, core.ErrConfiguration)
	}
	if err := opts.Map.Validate(); err != nil {
		return nil, err
	}
	if goals := opts.Map.PlayerCount(); goals != n {
		return nil, fmt.Errorf("arena: map seats %d players, roster has %d: %w", goals, n, core.ErrConfiguration)
	}

	seed := opts.Runtime.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	w, err := world.Build(opts.Map, opts.Tuning, rng)
	if err != nil {
		return nil, err
	}

	g := &Game{
		id:             opts.MatchID,
		status:         core.StatusWaiting,
		world:          w,
		byID:           make(map[string]*Player, n),
		rng:            rng,
		dt:             opts.Runtime.TickSeconds(),
		clock:          opts.Clock,
		startCountdown: max(opts.StartCountdown, 0),
		serveDelay:     max(opts.ServeDelay, 0),
		activeCount:    n,
		pending:        make(map[string]pendingInput),
	}
	if g.clock == nil {
		g.clock = time.Now
	}

	for i, info := range opts.Roster {
		if info.ID == "" {
			return nil, fmt.Errorf("arena: roster entry %d has no id: %w", i, core.ErrConfiguration)
		}
		if _, dup := g.byID[info.ID]; dup {
			return nil, fmt.Errorf("arena: duplicate player %q: %w", info.ID, core.ErrConfiguration)
		}
		p := newPlayer(info, i)
		g.players = append(g.players, p)
		g.byID[p.ID] = p
	}

	return g, nil
}

// ID returns the match identifier.
func (g *Game) ID() core.MatchID {
	return g.id
}

// Status returns the current lifecycle phase. Only safe from the tick
// goroutine or before the loop starts.
func (g *Game) Status() core.Status {
	return g.status
}

// World exposes the body set for inspection.
func (g *Game) World() *world.World {
	return g.world
}

// Players returns the roster in slot order.
func (g *Game) Players() []*Player {
	return g.players
}

// EnqueueAction records a player's latest intent for the next tick.
// Movement is last-write-wins. Safe for concurrent use.
func (g *Game) EnqueueAction(a core.PlayerAction) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if _, ok := g.byID[a.PlayerID]; !ok {
		return fmt.Errorf("arena: player %q in match %d: %w", a.PlayerID, g.id, core.ErrNotFound)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.disposed {
		return fmt.Errorf("arena: match %d: %w", g.id, core.ErrMatchFinished)
	}

	in := g.pending[a.PlayerID]
	switch a.Action {
	case core.ActionReady:
		in.ready = true
	case core.ActionPause:
		in.pause = true
	default:
		in.move = a.Action
	}
	g.pending[a.PlayerID] = in
	return nil
}

// Forfeit removes a player from the match at the start of the next tick,
// as if they had lost every remaining life.
func (g *Game) Forfeit(playerID string) error {
	if _, ok := g.byID[playerID]; !ok {
		return fmt.Errorf("arena: player %q in match %d: %w", playerID, g.id, core.ErrNotFound)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	in := g.pending[playerID]
	in.forfeit = true
	g.pending[playerID] = in
	return nil
}

// Step advances the match by one tick and returns the new snapshot.
// done is true once the match has finished; later calls change nothing.
func (g *Game) Step() (state core.GameState, done bool) {
	g.mu.Lock()
	disposed := g.disposed
	g.mu.Unlock()
	if g.status == core.StatusFinished || disposed {
		return g.Snapshot(), true
	}
	g.tick++
	for _, goal := range g.world.Goals {
		goal.Tick()
	}

	g.applyPending()

	if g.status == core.StatusFinished {
		return g.Snapshot(), true
	}
	if g.paused {
		return g.Snapshot(), false
	}

	g.updatePaddles()

	if g.status != core.StatusInProgress {
		return g.Snapshot(), false
	}
	if g.countdown > 0 {
		g.countdown--
		return g.Snapshot(), false
	}

	g.updateBalls()
	g.scoreBalls()

	if g.status == core.StatusFinished {
		return g.Snapshot(), true
	}

	if len(g.world.Balls) == 0 {
		g.world.ResetPaddles()
		g.world.SpawnBalls(g.rng)
		g.countdown = g.serveDelay
	}

	return g.Snapshot(), false
}

// applyPending swaps out the inputs gathered since the last tick and
// applies them.
func (g *Game) applyPending() {
	g.mu.Lock()
	pending := g.pending
	g.pending = make(map[string]pendingInput, len(pending))
	g.mu.Unlock()

	// Slot order keeps toggles deterministic. Pause requests collapse into
	// one toggle per tick.
	pause := false
	for _, p := range g.players {
		in, ok := pending[p.ID]
		if !ok || !p.IsAlive {
			continue
		}
		if in.move != core.ActionNone {
			p.Action = in.move
		}
		if in.ready && g.status == core.StatusWaiting {
			p.IsReady = !p.IsReady
		}
		if in.pause {
			pause = true
		}
		if in.forfeit && g.status != core.StatusFinished {
			p.Lives = 1
			g.concede(p.Slot)
		}
	}

	if g.status == core.StatusFinished {
		return
	}
	if pause && g.status == core.StatusInProgress {
		g.paused = !g.paused
	}

	if g.status == core.StatusWaiting && g.allReady() {
		g.status = core.StatusInProgress
		g.countdown = g.startCountdown
	}
}

func (g *Game) allReady() bool {
	for _, p := range g.players {
		if p.IsAlive && !p.IsReady {
			return false
		}
	}
	return true
}

func (g *Game) updatePaddles() {
	colliders := g.world.PaddleColliders()
	for _, p := range g.players {
		g.world.Paddles[p.Slot].Update(p.Action.Direction(), colliders, g.dt)
	}
}

func (g *Game) updateBalls() {
	colliders := g.world.BallColliders()
	for _, b := range g.world.Balls {
		b.Update(g.world.Paddles, colliders, g.rng, g.dt)
	}
}

// scoreBalls tests every ball against every goal. Scoring stops as soon as
// the match is decided.
func (g *Game) scoreBalls() {
	for bi := len(g.world.Balls) - 1; bi >= 0; bi-- {
		ball := g.world.Balls[bi]
		for gi, goal := range g.world.Goals {
			if !goal.Score(ball) {
				continue
			}
			g.world.RemoveBall(bi)
			g.concede(gi)
			break
		}
		if g.status == core.StatusFinished {
			return
		}
	}
}

// concede charges a goal against the player defending slot.
func (g *Game) concede(slot int) {
	p := g.players[slot]
	if !p.loseLife() {
		return
	}

	g.world.Paddles[slot].Freeze()
	g.world.Goals[slot].Eliminate()
	g.eliminated = append(g.eliminated, p.ID)
	g.activeCount--

	if g.activeCount <= 1 {
		g.status = core.StatusFinished
		g.paused = false
	}
}

// Winner returns the last player standing once the match is over.
func (g *Game) Winner() (*Player, bool) {
	if g.status != core.StatusFinished {
		return nil, false
	}
	for _, p := range g.players {
		if p.IsAlive {
			return p, true
		}
	}
	return nil, false
}

// Placements returns player IDs from first to last place. Players still
// alive rank ahead of eliminated ones, the latest eliminated first.
func (g *Game) Placements() []string {
	out := make([]string, 0, len(g.players))
	for _, p := range g.players {
		if p.IsAlive {
			out = append(out, p.ID)
		}
	}
	for i := len(g.eliminated) - 1; i >= 0; i-- {
		out = append(out, g.eliminated[i])
	}
	return out
}

// Ticks returns the number of ticks simulated so far.
func (g *Game) Ticks() uint64 {
	return g.tick
}

// Dispose releases every body. The game cannot be stepped afterwards.
// It must be called from the goroutine that calls Step.
func (g *Game) Dispose() {
	g.mu.Lock()
	g.disposed = true
	g.pending = make(map[string]pendingInput)
	g.mu.Unlock()

	g.world.Clear()
}
