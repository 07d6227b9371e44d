package ws

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vovakirdan/arena-pong/internal/core"
)

// ClientLink is the networked side of a match connection. It satisfies
// client.Link.
type ClientLink struct {
	ws     *websocket.Conn
	codec  Codec
	states chan core.GameState

	writeMu   sync.Mutex
	closeOnce sync.Once
	readErr   error
	done      chan struct{}
}

// Dial connects to the match stream at base (for example
// "ws://localhost:8080"). playerID may be empty to spectate.
func Dial(ctx context.Context, base string, matchID core.MatchID, playerID, codecName string) (*ClientLink, error) {
	codec, err := CodecByName(codecName)
	if err != nil {
		return nil, err
	}

	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("ws: parse %q: %w", base, err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = "/ws"
	q := url.Values{}
	q.Set("matchId", strconv.FormatInt(int64(matchID), 10))
	if playerID != "" {
		q.Set("playerId", playerID)
	}
	q.Set("codec", codec.Name())
	u.RawQuery = q.Encode()

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("ws: dial %s: %s: %w", u.Redacted(), resp.Status, err)
		}
		return nil, fmt.Errorf("ws: dial %s: %w", u.Redacted(), err)
	}

	l := &ClientLink{
		ws:     conn,
		codec:  codec,
		states: make(chan core.GameState, 16),
		done:   make(chan struct{}),
	}
	go l.readLoop()
	return l, nil
}

func (l *ClientLink) readLoop() {
	defer close(l.states)
	defer close(l.done)

	for {
		_, data, err := l.ws.ReadMessage()
		if err != nil {
			l.readErr = err
			return
		}
		var state core.GameState
		if err := l.codec.Decode(data, &state); err != nil {
			l.readErr = err
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
			return
		}
	}
}

// States returns the snapshot channel. It is closed after the finished
// snapshot or when the connection drops.
func (l *ClientLink) States() <-chan core.GameState {
	return l.states
}

// Err returns the error that ended the read loop, if any. Only valid once
// States is closed.
func (l *ClientLink) Err() error {
	<-l.done
	return l.readErr
}

// Send writes one action frame.
func (l *ClientLink) Send(a core.PlayerAction) error {
	data, err := l.codec.Encode(a)
	if err != nil {
		return err
	}
	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	_ = l.ws.SetWriteDeadline(time.Now().Add(5 * time.Second)) //nolint:errcheck // write reports it
	return l.ws.WriteMessage(l.codec.MessageType(), data)
}

// Close sends a close frame and tears the connection down.
func (l *ClientLink) Close() error {
	var err error
	l.closeOnce.Do(func() {
		l.writeMu.Lock()
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = l.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second)) //nolint:errcheck // closing anyway
		l.writeMu.Unlock()
		err = l.ws.Close()
	})
	return err
}
