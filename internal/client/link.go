package client

import (
	"sync"

	"github.com/vovakirdan/arena-pong/internal/core"
	"github.com/vovakirdan/arena-pong/internal/multiplayer"
)

// Link is a client's connection to an authoritative match.
type Link interface {
	// States delivers snapshots in tick order. It is closed after the
	// finished snapshot or when the link goes away.
	States() <-chan core.GameState

	// Send forwards a player action upstream.
	Send(a core.PlayerAction) error

	// Close releases the link. Safe to call multiple times.
	Close() error
}

// LocalLink connects to a match running in the same process.
type LocalLink struct {
	manager     *multiplayer.StateManager
	unsubscribe func()

	mu     sync.Mutex
	states chan core.GameState
	closed bool
}

// NewLocalLink subscribes to matchID on manager. bufferSize bounds how many
// snapshots wait for the reader; older ones are dropped when it is full.
func NewLocalLink(manager *multiplayer.StateManager, matchID core.MatchID, bufferSize int) (*LocalLink, error) {
	if bufferSize < 1 {
		bufferSize = 8
	}
	l := &LocalLink{
		manager: manager,
		states:  make(chan core.GameState, bufferSize),
	}
	unsub, err := manager.Subscribe(matchID, l.deliver)
	if err != nil {
		return nil, err
	}
	l.unsubscribe = unsub
	return l, nil
}

func (l *LocalLink) deliver(state core.GameState) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}

	select {
	case l.states <- state:
	default:
		select {
		case <-l.states:
		default:
		}
		l.states <- state
	}

	if state.Status == core.StatusFinished {
		l.closed = true
		close(l.states)
	}
}

// States returns the snapshot channel.
func (l *LocalLink) States() <-chan core.GameState {
	return l.states
}

// Send routes an action through the state manager.
func (l *LocalLink) Send(a core.PlayerAction) error {
	return l.manager.HandlePlayerAction(a)
}

// Close unsubscribes from the match.
func (l *LocalLink) Close() error {
	l.unsubscribe()

	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.closed {
		l.closed = true
		close(l.states)
	}
	return nil
}
