// Package multiplayer runs arena matches for connected players.
// The StateManager owns every live match, routes player actions to it and
// fans each published snapshot out to the match's subscribers. The
// Matchmaker groups queued sessions into rosters.
package multiplayer

import (
	"time"

	"github.com/vovakirdan/arena-pong/internal/core"
)

// SessionID uniquely identifies a connected client (websocket or SSH).
type SessionID string

// Subscriber receives every snapshot of a match in tick order.
// It is called from the match goroutine and must not block.
type Subscriber func(state core.GameState)

// MatchResultSaver is an interface for saving match results.
// This allows the state manager to save results without depending on the
// storage package.
type MatchResultSaver interface {
	SaveMatchResult(result MatchResultData) error
}

// PlacementData is one player's final standing.
type PlacementData struct {
	PlayerID string
	Alias    string
	Place    int // 1 is the winner
	Lives    int
}

// MatchResultData contains match result data for persistence.
type MatchResultData struct {
	MatchID      core.MatchID
	MapID        string
	WinnerID     string
	WinnerAlias  string
	Placements   []PlacementData
	EndReason    string
	DurationSecs int
	Ticks        uint64
	FinishedAt   time.Time
}

// MatchEndReason describes why a match ended.
type MatchEndReason int

const (
	MatchEndReasonCompleted MatchEndReason = iota // Last player standing
	MatchEndReasonDisposed                        // Torn down before finishing
	MatchEndReasonIdle                            // Reaped with no subscribers
)

func (r MatchEndReason) String() string {
	switch r {
	case MatchEndReasonCompleted:
		return "completed"
	case MatchEndReasonDisposed:
		return "disposed"
	case MatchEndReasonIdle:
		return "idle"
	default:
		return "unknown"
	}
}
