package bots

import (
	"fmt"

	"github.com/vovakirdan/arena-pong/internal/core"
	"github.com/vovakirdan/arena-pong/internal/multiplayer"
	"github.com/vovakirdan/arena-pong/internal/registry"
)

// Attach creates a bot for every id in botIDs and subscribes it to the
// match as an observer, so bots alone never keep a match alive. The
// subscriptions end with the match or on Detach. On error no bot stays
// attached.
func Attach(manager *multiplayer.StateManager, matchID core.MatchID, mapID string, botIDs []string, skill float64) (bots []*Bot, err error) {
	state, ok := manager.GetGameState(matchID)
	if !ok {
		return nil, fmt.Errorf("bots: match %d: %w", matchID, core.ErrNotFound)
	}
	m, err := registry.Create(mapID)
	if err != nil {
		return nil, err
	}

	bots = make([]*Bot, 0, len(botIDs))
	defer func() {
		if err != nil {
			for _, b := range bots {
				b.Detach()
			}
		}
	}()
	for _, id := range botIDs {
		slot := -1
		for i, p := range state.Players {
			if p.ID == id {
				slot = i
				break
			}
		}
		if slot < 0 {
			return bots, fmt.Errorf("bots: player %q in match %d: %w", id, matchID, core.ErrNotFound)
		}

		b, err := New(id, matchID, m, slot, skill, manager.HandlePlayerAction)
		if err != nil {
			return bots, err
		}
		unsubscribe, err := manager.SubscribeObserver(matchID, b.Observe)
		if err != nil {
			return bots, err
		}
		b.detach = unsubscribe
		bots = append(bots, b)
	}
	return bots, nil
}
