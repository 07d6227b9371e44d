package arena

import "github.com/vovakirdan/arena-pong/internal/core"

// Snapshot derives the published state from the live bodies.
// Every call allocates fresh slices, so the result can be handed to other
// goroutines and is never written again.
func (g *Game) Snapshot() core.GameState {
	state := core.GameState{
		MatchID:    g.id,
		Status:     g.status,
		Tick:       g.tick,
		Countdown:  g.countdown,
		Paused:     g.paused,
		Players:    make([]core.PlayerState, 0, len(g.players)),
		Balls:      make([]core.BallState, 0, len(g.world.Balls)),
		LastUpdate: g.clock().UnixMilli(),
	}

	for _, p := range g.players {
		ps := core.PlayerState{
			ID:      p.ID,
			Alias:   p.Alias,
			Lives:   p.Lives,
			IsAlive: p.IsAlive,
			IsReady: p.IsReady,
			Action:  p.Action,
		}
		if p.Slot < len(g.world.Paddles) {
			pos := g.world.Paddles[p.Slot].Position
			ps.Position = core.Position{X: pos.X, Z: pos.Z}
		}
		state.Players = append(state.Players, ps)
	}

	for _, b := range g.world.Balls {
		state.Balls = append(state.Balls, core.BallState{X: b.Position.X, Z: b.Position.Z})
	}

	return state
}
