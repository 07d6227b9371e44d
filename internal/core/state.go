package core

// MatchID identifies one running match.
type MatchID int64

// Status is the lifecycle phase of a match.
type Status string

const (
	StatusWaiting    Status = "waiting"
	StatusInProgress Status = "in_progress"
	StatusFinished   Status = "finished"
)

// MaxPlayers is the largest roster a map may declare goals for.
const MaxPlayers = 6

// MaxLives is the number of lives every player starts with.
const MaxLives = 3

// PlayerInfo is a roster entry supplied by matchmaking.
type PlayerInfo struct {
	ID    string `json:"id"`
	Alias string `json:"alias"`
}

// Position is a point on the arena floor.
type Position struct {
	X float64 `json:"x"`
	Z float64 `json:"z"`
}

// PlayerState is the published view of one player.
type PlayerState struct {
	ID       string   `json:"id"`
	Alias    string   `json:"alias"`
	Lives    int      `json:"lives"`
	IsAlive  bool     `json:"isAlive"`
	IsReady  bool     `json:"isReady"`
	Position Position `json:"position"`
	Action   Action   `json:"action"`
}

// BallState is the published view of one ball.
type BallState struct {
	X float64 `json:"x"`
	Z float64 `json:"z"`
}

// GameState is the snapshot published after every tick.
// It is derived from the simulation's bodies and must be treated as
// immutable once handed to subscribers.
type GameState struct {
	MatchID    MatchID       `json:"matchId"`
	Status     Status        `json:"status"`
	Tick       uint64        `json:"tick"`
	Countdown  int           `json:"countdown"` // Ticks left before balls are released
	Paused     bool          `json:"paused"`
	Players    []PlayerState `json:"players"`
	Balls      []BallState   `json:"balls"`
	LastUpdate int64         `json:"lastUpdate"` // Unix milliseconds
}

// Player returns the published state for the given player id.
func (s GameState) Player(id string) (PlayerState, bool) {
	for _, p := range s.Players {
		if p.ID == id {
			return p, true
		}
	}
	return PlayerState{}, false
}

// AliveCount returns the number of players still in the match.
func (s GameState) AliveCount() int {
	n := 0
	for _, p := range s.Players {
		if p.IsAlive {
			n++
		}
	}
	return n
}

// Winner returns the only surviving player of a finished match.
func (s GameState) Winner() (PlayerState, bool) {
	if s.Status != StatusFinished {
		return PlayerState{}, false
	}
	for _, p := range s.Players {
		if p.IsAlive {
			return p, true
		}
	}
	return PlayerState{}, false
}
