package arena

import "github.com/vovakirdan/arena-pong/internal/core"

// Player is the server-side record of one roster entry. Slot is the index
// of the goal and paddle the player defends.
type Player struct {
	ID      string
	Alias   string
	Slot    int
	Lives   int
	IsAlive bool
	IsReady bool
	Action  core.Action // Last movement action applied
}

func newPlayer(info core.PlayerInfo, slot int) *Player {
	alias := info.Alias
	if alias == "" {
		alias = info.ID
	}
	return &Player{
		ID:      info.ID,
		Alias:   alias,
		Slot:    slot,
		Lives:   core.MaxLives,
		IsAlive: true,
		Action:  core.ActionStop,
	}
}

// loseLife removes one life and reports whether the player is now out.
func (p *Player) loseLife() bool {
	if !p.IsAlive {
		return false
	}
	p.Lives--
	if p.Lives <= 0 {
		p.Lives = 0
		p.IsAlive = false
		p.Action = core.ActionStop
		return true
	}
	return false
}

// pendingInput collects what a player asked for between two ticks.
// Movement is last-write-wins; ready and pause requests collapse into one
// toggle per tick.
type pendingInput struct {
	move    core.Action
	ready   bool
	pause   bool
	forfeit bool
}
