// Package client turns published match snapshots into something a player
// can see and steer. The client never simulates; it copies authoritative
// positions into a Renderer and sends the player's net direction upstream.
package client

import (
	"time"

	"github.com/vovakirdan/arena-pong/internal/core"
)

// Phase is the client-side view of the match lifecycle.
type Phase int

const (
	PhaseConnecting Phase = iota // No snapshot received yet
	PhaseWaiting                 // Waiting for every player to be ready
	PhaseCountdown               // Started, balls not released yet
	PhasePlaying
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhaseConnecting:
		return "connecting"
	case PhaseWaiting:
		return "waiting"
	case PhaseCountdown:
		return "countdown"
	case PhasePlaying:
		return "playing"
	case PhaseFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// PhaseOf derives the client phase from a snapshot.
func PhaseOf(s core.GameState) Phase {
	switch s.Status {
	case core.StatusWaiting:
		return PhaseWaiting
	case core.StatusInProgress:
		if s.Countdown > 0 {
			return PhaseCountdown
		}
		return PhasePlaying
	case core.StatusFinished:
		return PhaseFinished
	default:
		return PhaseConnecting
	}
}

// Renderer receives positions from the latest snapshot.
type Renderer interface {
	SetBalls(balls []core.BallState)
	SetPaddle(slot int, pos core.Position, alive bool)
	SetCamera(progress float64) // 0 at the start of the fly-in, 1 when settled
}

// Config holds client settings.
type Config struct {
	PlayerID     string
	MatchID      core.MatchID
	SendInterval time.Duration // Minimum time between movement sends
	FlyIn        time.Duration // Camera fly-in duration
	UpKeys       []string
	DownKeys     []string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		SendInterval: 50 * time.Millisecond,
		FlyIn:        2 * time.Second,
		UpKeys:       []string{"up", "w", "k"},
		DownKeys:     []string{"down", "s", "j"},
	}
}

// ClientGame is one player's view of a match.
type ClientGame struct {
	config   Config
	link     Link
	renderer Renderer

	state    core.GameState
	phase    Phase
	upKeys   map[string]bool
	downKeys map[string]bool
	held     map[string]bool

	lastSent    time.Time
	lastDir     int
	sentOnce    bool
	flyStart    time.Time
	victoryDone bool

	// OnVictory is called once when the match finishes. won reports whether
	// this client's player is the survivor.
	OnVictory func(winner core.PlayerState, won bool)
}

// New creates a client for one player. renderer may be nil.
func New(cfg Config, link Link, renderer Renderer) *ClientGame {
	def := DefaultConfig()
	if cfg.SendInterval <= 0 {
		cfg.SendInterval = def.SendInterval
	}
	if cfg.FlyIn <= 0 {
		cfg.FlyIn = def.FlyIn
	}
	if len(cfg.UpKeys) == 0 {
		cfg.UpKeys = def.UpKeys
	}
	if len(cfg.DownKeys) == 0 {
		cfg.DownKeys = def.DownKeys
	}

	c := &ClientGame{
		config:   cfg,
		link:     link,
		renderer: renderer,
		upKeys:   make(map[string]bool),
		downKeys: make(map[string]bool),
		held:     make(map[string]bool),
	}
	for _, k := range cfg.UpKeys {
		c.upKeys[k] = true
	}
	for _, k := range cfg.DownKeys {
		c.downKeys[k] = true
	}
	return c
}

// State returns the latest applied snapshot.
func (c *ClientGame) State() core.GameState {
	return c.state
}

// Phase returns the current lifecycle phase.
func (c *ClientGame) Phase() Phase {
	return c.phase
}

// PlayerID returns the id this client plays as.
func (c *ClientGame) PlayerID() string {
	return c.config.PlayerID
}

// Slot returns the roster index of this client's player, or -1.
func (c *ClientGame) Slot() int {
	for i, p := range c.state.Players {
		if p.ID == c.config.PlayerID {
			return i
		}
	}
	return -1
}

// Apply consumes one snapshot. Snapshots older than the current one are
// ignored. It reports whether the phase changed.
func (c *ClientGame) Apply(s core.GameState) bool {
	if c.phase != PhaseConnecting && s.Tick < c.state.Tick {
		return false
	}
	if c.phase == PhaseFinished {
		return false
	}
	c.state = s

	if c.renderer != nil {
		c.renderer.SetBalls(s.Balls)
		for slot, p := range s.Players {
			c.renderer.SetPaddle(slot, p.Position, p.IsAlive)
		}
	}

	prev := c.phase
	c.phase = PhaseOf(s)

	if c.phase == PhaseFinished && !c.victoryDone {
		c.victoryDone = true
		c.held = make(map[string]bool)
		if w, ok := s.Winner(); ok && c.OnVictory != nil {
			c.OnVictory(w, w.ID == c.config.PlayerID)
		}
	}
	return c.phase != prev
}

// KeyDown marks a key as held.
func (c *ClientGame) KeyDown(key string) {
	if c.upKeys[key] || c.downKeys[key] {
		c.held[key] = true
	}
}

// KeyUp releases a held key.
func (c *ClientGame) KeyUp(key string) {
	delete(c.held, key)
}

// ReleaseAll forgets every held key.
func (c *ClientGame) ReleaseAll() {
	c.held = make(map[string]bool)
}

// Direction is the net input: +1 when only up keys are held, -1 when only
// down keys are, 0 otherwise.
func (c *ClientGame) Direction() int {
	up, down := 0, 0
	for k := range c.held {
		if c.upKeys[k] {
			up = 1
		}
		if c.downKeys[k] {
			down = 1
		}
	}
	return up - down
}

// SampleInput sends the current direction if it changed and the send
// interval has elapsed. It reports whether an action was sent.
func (c *ClientGame) SampleInput(now time.Time) (bool, error) {
	if c.phase == PhaseFinished || c.phase == PhaseConnecting {
		return false, nil
	}
	if c.sentOnce && now.Sub(c.lastSent) < c.config.SendInterval {
		return false, nil
	}

	dir := c.Direction()
	if c.sentOnce && dir == c.lastDir {
		return false, nil
	}

	if err := c.send(core.ActionForDirection(dir)); err != nil {
		return false, err
	}
	c.sentOnce = true
	c.lastDir = dir
	c.lastSent = now
	return true, nil
}

// ToggleReady asks the server to flip this player's ready flag.
func (c *ClientGame) ToggleReady() error {
	if c.phase != PhaseWaiting {
		return nil
	}
	return c.send(core.ActionReady)
}

// TogglePause asks the server to pause or resume the match.
func (c *ClientGame) TogglePause() error {
	if c.phase != PhaseCountdown && c.phase != PhasePlaying {
		return nil
	}
	return c.send(core.ActionPause)
}

func (c *ClientGame) send(a core.Action) error {
	return c.link.Send(core.PlayerAction{
		PlayerID: c.config.PlayerID,
		MatchID:  c.config.MatchID,
		Action:   a,
	})
}

// Frame advances the camera fly-in and returns its eased progress.
// The first call starts the transition.
func (c *ClientGame) Frame(now time.Time) float64 {
	if c.flyStart.IsZero() {
		c.flyStart = now
	}
	t := float64(now.Sub(c.flyStart)) / float64(c.config.FlyIn)
	progress := EaseInOut(core.ClampF(t, 0, 1))
	if c.renderer != nil {
		c.renderer.SetCamera(progress)
	}
	return progress
}

// EaseInOut is a cubic ease-in-out curve on [0,1].
func EaseInOut(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	u := -2*t + 2
	return 1 - u*u*u/2
}
