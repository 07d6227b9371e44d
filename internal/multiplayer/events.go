package multiplayer

import "github.com/vovakirdan/arena-pong/internal/core"

// SessionEvent represents an event sent from the server to a session.
type SessionEvent interface {
	sessionEvent()
}

// QueuedEvent is sent when a session joins or moves up a matchmaking queue.
type QueuedEvent struct {
	Ticket  string
	MapID   string
	Waiting int // Sessions in the queue including this one
	Needed  int // Roster size of the map
}

func (QueuedEvent) sessionEvent() {}

// QueueErrorEvent is sent when matchmaking fails for a session.
type QueueErrorEvent struct {
	Message string
}

func (QueueErrorEvent) sessionEvent() {}

// MatchAssignedEvent is sent to every roster member when a match is created.
type MatchAssignedEvent struct {
	MatchID  core.MatchID
	MapID    string
	PlayerID string
	Slot     int
}

func (MatchAssignedEvent) sessionEvent() {}

// SnapshotEvent carries a published game state to a session.
type SnapshotEvent struct {
	State core.GameState
}

func (SnapshotEvent) sessionEvent() {}

// MatchEndedEvent is sent when the match a session follows ends.
type MatchEndedEvent struct {
	MatchID     core.MatchID
	Reason      MatchEndReason
	WinnerID    string
	WinnerAlias string
}

func (MatchEndedEvent) sessionEvent() {}
