// Package bots provides CPU opponents. A bot is an ordinary match
// subscriber: it reads each snapshot and sends the same actions a human
// client would.
package bots

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/arena-pong/internal/core"
	"github.com/vovakirdan/arena-pong/internal/physics"
	"github.com/vovakirdan/arena-pong/internal/world"
)

// Skill bounds.
const (
	DefaultSkill = 0.6
	MinSkill     = 0.1
	MaxSkill     = 1.0
)

// Bot steers one paddle.
type Bot struct {
	id      string
	matchID core.MatchID
	slot    int
	skill   float64

	up      core.Vec3 // Rail direction of the paddle
	normal  core.Vec3 // Goal normal, into the arena
	goal    core.Vec3 // Goal plate center
	spawn   core.Vec3 // Rest position of the paddle
	halfLen float64

	prev     core.GameState
	hasPrev  bool
	last     core.Action
	readied  bool
	cooldown int
	rng      *rand.Rand

	send   func(core.PlayerAction) error
	detach func()
}

// New creates a bot defending slot of m. send receives every action the
// bot decides on.
func New(id string, matchID core.MatchID, m world.Map, slot int, skill float64, send func(core.PlayerAction) error) (*Bot, error) {
	w, err := world.Build(m, physics.DefaultTuning(), rand.New(rand.NewSource(1)))
	if err != nil {
		return nil, err
	}
	if slot < 0 || slot >= len(w.Paddles) {
		return nil, fmt.Errorf("bots: slot %d out of range: %w", slot, core.ErrConfiguration)
	}

	p := w.Paddles[slot]
	g := w.Goals[slot]
	return &Bot{
		id:      id,
		matchID: matchID,
		slot:    slot,
		skill:   core.ClampF(skill, MinSkill, MaxSkill),
		up:      p.Up,
		normal:  g.Normal,
		goal:    g.Plate.Center,
		spawn:   p.Spawn(),
		halfLen: p.Size.X / 2,
		last:    core.ActionStop,
		rng:     rand.New(rand.NewSource(int64(matchID)*31 + int64(slot))),
		send:    send,
	}, nil
}

// ID returns the player id the bot plays as.
func (b *Bot) ID() string {
	return b.id
}

// Detach removes the bot's match subscription. It is a no-op for a bot
// that was never attached.
func (b *Bot) Detach() {
	if b.detach != nil {
		b.detach()
	}
}

// Observe is the bot's match subscriber.
func (b *Bot) Observe(state core.GameState) {
	action, ok := b.Decide(state)
	if !ok {
		return
	}
	err := b.send(core.PlayerAction{PlayerID: b.id, MatchID: b.matchID, Action: action})
	if err != nil {
		log.Debug("bot action dropped", "bot", b.id, "match", b.matchID, "error", err)
	}
}

// Decide returns the action to send for state, if any.
func (b *Bot) Decide(state core.GameState) (core.Action, bool) {
	defer func() {
		b.prev = state
		b.hasPrev = true
	}()

	me, ok := state.Player(b.id)
	if !ok || !me.IsAlive || state.Status == core.StatusFinished {
		return core.ActionNone, false
	}

	if state.Status == core.StatusWaiting {
		if me.IsReady || b.readied {
			return core.ActionNone, false
		}
		b.readied = true
		return core.ActionReady, true
	}

	// Reaction time: weaker bots reconsider less often.
	if b.cooldown > 0 {
		b.cooldown--
		return core.ActionNone, false
	}
	b.cooldown = int(math.Round((1 - b.skill) * 6))

	paddle := core.V3(me.Position.X, 0, me.Position.Z)
	target := b.spawn
	if ball, ok := b.incoming(state); ok {
		target = ball
	}

	offset := target.Sub(paddle).Dot(b.up)
	deadband := b.halfLen * (1.1 - b.skill)
	action := core.ActionStop
	switch {
	case offset > deadband:
		action = core.ActionUp
	case offset < -deadband:
		action = core.ActionDown
	}

	// Imperfection: occasionally hesitate.
	if b.rng.Float64() > 0.5+b.skill/2 {
		action = core.ActionStop
	}

	if action == b.last {
		return core.ActionNone, false
	}
	b.last = action
	return action, true
}

// incoming returns the closest ball moving toward the bot's goal.
func (b *Bot) incoming(state core.GameState) (core.Vec3, bool) {
	best := math.Inf(1)
	var found core.Vec3
	ok := false

	for i, bs := range state.Balls {
		pos := core.V3(bs.X, 0, bs.Z)
		toward := pos.Sub(b.goal).Dot(b.normal) < 4 // Close to our side by default
		if b.hasPrev && i < len(b.prev.Balls) {
			pb := b.prev.Balls[i]
			v := core.V3(bs.X-pb.X, 0, bs.Z-pb.Z)
			if !v.IsZero() {
				toward = v.Dot(b.normal) < 0
			}
		}
		if !toward {
			continue
		}
		d := pos.Sub(b.goal).LenXZ()
		if d < best {
			best = d
			found = pos
			ok = true
		}
	}
	return found, ok
}
