package ws

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/vovakirdan/arena-pong/internal/bots"
	"github.com/vovakirdan/arena-pong/internal/core"
	"github.com/vovakirdan/arena-pong/internal/registry"
)

// CreateMatchRequest is the body of POST /matches.
type CreateMatchRequest struct {
	MatchID core.MatchID      `json:"matchId,omitempty"` // Zero picks a fresh id
	Map     string            `json:"map"`
	Players []core.PlayerInfo `json:"players"`
	Bots    []string          `json:"bots,omitempty"` // Roster ids driven by the server
}

// errorResponse is the body of every failed request.
type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("GET /maps", s.handleListMaps)
	s.mux.HandleFunc("GET /maps/{id}", s.handleGetMap)
	s.mux.HandleFunc("POST /matches", s.handleCreateMatch)
	s.mux.HandleFunc("GET /matches/{id}", s.handleGetMatch)
	s.mux.HandleFunc("DELETE /matches/{id}", s.handleDeleteMatch)
	s.mux.HandleFunc("GET /ws", s.handleWS)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"matches": s.manager.MatchCount(),
		"codecs":  CodecNames(),
	})
}

func (s *Server) handleListMaps(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, registry.List())
}

func (s *Server) handleGetMap(w http.ResponseWriter, r *http.Request) {
	m, err := registry.Create(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleCreateMatch(w http.ResponseWriter, r *http.Request) {
	var req CreateMatchRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	id := req.MatchID
	if id == 0 {
		id = s.manager.NextMatchID()
	}

	state, err := s.manager.InitGameState(id, req.Map, req.Players)
	if err != nil {
		s.logger.Warn("create match", "map", req.Map, "error", err)
		writeError(w, err)
		return
	}

	if len(req.Bots) > 0 {
		if _, err := bots.Attach(s.manager, id, req.Map, req.Bots, s.config.BotSkill); err != nil {
			_ = s.manager.Dispose(id) //nolint:errcheck // reporting the attach error
			writeError(w, err)
			return
		}
	}

	s.logger.Info("match created over http", "match", id, "map", req.Map)
	writeJSON(w, http.StatusCreated, state)
}

func (s *Server) handleGetMatch(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid match id"})
		return
	}
	state, ok := s.manager.GetGameState(core.MatchID(id))
	if !ok {
		writeError(w, core.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleDeleteMatch(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid match id"})
		return
	}
	if err := s.manager.Dispose(core.MatchID(id)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrConfiguration):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrMatchFinished):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v) //nolint:errcheck // client went away
}
