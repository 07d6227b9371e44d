// Package ws serves arena matches over websockets and plain HTTP.
// A connection carries core.PlayerAction frames in and core.GameState
// frames out, in tick order, encoded with the codec the client picked.
package ws

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/vovakirdan/arena-pong/internal/core"
	"github.com/vovakirdan/arena-pong/internal/multiplayer"
)

// ServerConfig holds configuration for the websocket server.
type ServerConfig struct {
	WriteTimeout time.Duration // Deadline for one frame write
	PongWait     time.Duration // Connection is dropped without a pong for this long
	SendBuffer   int           // Snapshots queued per connection before dropping
	BotSkill     float64       // Skill of CPU players requested over HTTP
	Logger       *log.Logger
}

// DefaultServerConfig returns sensible defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		WriteTimeout: 5 * time.Second,
		PongWait:     30 * time.Second,
		SendBuffer:   16,
		BotSkill:     0.6,
	}
}

// Server exposes a state manager to network clients.
type Server struct {
	config   ServerConfig
	manager  *multiplayer.StateManager
	logger   *log.Logger
	upgrader websocket.Upgrader
	mux      *http.ServeMux
}

// NewServer creates a server for manager.
func NewServer(manager *multiplayer.StateManager, cfg ServerConfig) *Server {
	def := DefaultServerConfig()
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	if cfg.PongWait <= 0 {
		cfg.PongWait = def.PongWait
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = def.SendBuffer
	}
	if cfg.BotSkill <= 0 {
		cfg.BotSkill = def.BotSkill
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	s := &Server{
		config:  cfg,
		manager: manager,
		logger:  logger.WithPrefix("ws"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		mux: http.NewServeMux(),
	}
	s.routes()
	return s
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logger.Info("listening", "addr", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// handleWS upgrades /ws?matchId=&playerId=&codec= to a match stream.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	id, err := strconv.ParseInt(q.Get("matchId"), 10, 64)
	if err != nil {
		http.Error(w, "invalid matchId", http.StatusBadRequest)
		return
	}
	matchID := core.MatchID(id)
	playerID := q.Get("playerId")
	codec, err := CodecByName(q.Get("codec"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	state, ok := s.manager.GetGameState(matchID)
	if !ok {
		http.Error(w, "unknown match", http.StatusNotFound)
		return
	}
	// An empty player id joins as a spectator.
	if playerID != "" {
		if _, ok := state.Player(playerID); !ok {
			http.Error(w, "unknown player", http.StatusNotFound)
			return
		}
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrade failed", "match", matchID, "player", playerID, "error", err)
		return
	}

	c := &conn{
		server:   s,
		ws:       ws,
		codec:    codec,
		matchID:  matchID,
		playerID: playerID,
		send:     make(chan core.GameState, s.config.SendBuffer),
		done:     make(chan struct{}),
	}

	unsubscribe, err := s.manager.Subscribe(matchID, c.push)
	if err != nil {
		// Finished between the lookup and the upgrade: hand over the final state.
		if final, ok := s.manager.GetGameState(matchID); ok {
			c.push(final)
			c.writePump()
		}
		ws.Close()
		return
	}

	s.logger.Debug("connected", "match", matchID, "player", playerID, "codec", codec.Name())
	go c.writePump()
	c.readPump()

	unsubscribe()
	c.close()
	s.logger.Debug("disconnected", "match", matchID, "player", playerID)
}

// conn is one websocket client of a match.
type conn struct {
	server   *Server
	ws       *websocket.Conn
	codec    Codec
	matchID  core.MatchID
	playerID string

	send      chan core.GameState
	done      chan struct{}
	closeOnce sync.Once
}

// push is the match subscriber. Slow clients lose the oldest snapshot.
func (c *conn) push(state core.GameState) {
	select {
	case <-c.done:
		return
	default:
	}

	select {
	case c.send <- state:
	default:
		select {
		case <-c.send:
		default:
		}
		select {
		case c.send <- state:
		default:
		}
	}
}

func (c *conn) close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

func (c *conn) readPump() {
	c.ws.SetReadLimit(4096)
	_ = c.ws.SetReadDeadline(time.Now().Add(c.server.config.PongWait)) //nolint:errcheck // next read reports it
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(c.server.config.PongWait))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		if c.playerID == "" {
			continue
		}

		var action core.PlayerAction
		if err := c.codec.Decode(data, &action); err != nil {
			c.server.logger.Debug("discarding malformed action", "match", c.matchID, "player", c.playerID, "error", err)
			continue
		}
		// The connection decides who is acting.
		action.PlayerID = c.playerID
		action.MatchID = c.matchID

		if err := c.server.manager.HandlePlayerAction(action); err != nil {
			if errors.Is(err, core.ErrMatchFinished) {
				continue
			}
			c.server.logger.Debug("action dropped", "match", c.matchID, "player", c.playerID, "error", err)
		}
	}
}

func (c *conn) writePump() {
	ping := time.NewTicker(c.server.config.PongWait * 9 / 10)
	defer func() {
		ping.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case state := <-c.send:
			data, err := c.codec.Encode(state)
			if err != nil {
				c.server.logger.Error("encode state", "match", c.matchID, "error", err)
				return
			}
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.server.config.WriteTimeout)) //nolint:errcheck // write reports it
			if err := c.ws.WriteMessage(c.codec.MessageType(), data); err != nil {
				return
			}
			if state.Status == core.StatusFinished {
				msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "match finished")
				_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(c.server.config.WriteTimeout)) //nolint:errcheck // closing anyway
				return
			}

		case <-ping.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.server.config.WriteTimeout)); err != nil {
				return
			}

		case <-c.done:
			return
		}
	}
}
