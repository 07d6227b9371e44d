package core

import "fmt"

// Action is the canonical wire encoding of a player's intent.
// Paddle movement is always expressed as up/down/stop; numeric directions
// only exist inside the simulation.
type Action string

const (
	ActionNone  Action = ""
	ActionUp    Action = "up"    // Move paddle toward +Up along its rail
	ActionDown  Action = "down"  // Move paddle toward -Up along its rail
	ActionStop  Action = "stop"  // Decelerate to rest
	ActionReady Action = "ready" // Toggle ready while waiting for players
	ActionPause Action = "pause" // Toggle match-wide pause while in progress
)

// ParseAction validates a wire action string.
func ParseAction(s string) (Action, error) {
	a := Action(s)
	switch a {
	case ActionUp, ActionDown, ActionStop, ActionReady, ActionPause:
		return a, nil
	}
	return ActionNone, fmt.Errorf("unknown action %q", s)
}

// IsMovement reports whether the action steers a paddle.
func (a Action) IsMovement() bool {
	return a == ActionUp || a == ActionDown || a == ActionStop
}

// Direction maps a movement action to -1, 0 or +1.
func (a Action) Direction() int {
	switch a {
	case ActionUp:
		return 1
	case ActionDown:
		return -1
	default:
		return 0
	}
}

// ActionForDirection maps a net input direction to its movement action.
func ActionForDirection(dir int) Action {
	switch {
	case dir > 0:
		return ActionUp
	case dir < 0:
		return ActionDown
	default:
		return ActionStop
	}
}

// PlayerAction is the inbound message from a client.
type PlayerAction struct {
	PlayerID string  `json:"playerId"`
	MatchID  MatchID `json:"matchId"`
	Action   Action  `json:"action"`
}

// Validate checks that the action is well formed before it is routed.
func (pa PlayerAction) Validate() error {
	if pa.PlayerID == "" {
		return fmt.Errorf("player action: missing player id")
	}
	if _, err := ParseAction(string(pa.Action)); err != nil {
		return fmt.Errorf("player action: %w", err)
	}
	return nil
}
