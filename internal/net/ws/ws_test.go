package ws

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vovakirdan/arena-pong/internal/client"
	"github.com/vovakirdan/arena-pong/internal/core"
	"github.com/vovakirdan/arena-pong/internal/multiplayer"
	"github.com/vovakirdan/arena-pong/internal/registry"
)

var _ client.Link = (*ClientLink)(nil)

func newTestServer(t *testing.T) (*multiplayer.StateManager, *httptest.Server) {
	t.Helper()
	cfg := multiplayer.DefaultManagerConfig()
	cfg.TickRate = 200
	cfg.StartCountdown = 0
	manager := multiplayer.NewStateManager(cfg)
	srv := httptest.NewServer(NewServer(manager, DefaultServerConfig()).Handler())
	t.Cleanup(func() {
		srv.Close()
		manager.Stop()
	})
	return manager, srv
}

func TestCodecs(t *testing.T) {
	state := core.GameState{
		MatchID: 3,
		Status:  core.StatusInProgress,
		Tick:    42,
		Players: []core.PlayerState{{ID: "p1", Alias: "Ann", Lives: 2, IsAlive: true, Position: core.Position{X: 1.5, Z: -3.75}, Action: core.ActionUp}},
		Balls:   []core.BallState{{X: 0.25, Z: -1}},
	}

	for _, name := range CodecNames() {
		t.Run(name, func(t *testing.T) {
			c, err := CodecByName(name)
			if err != nil {
				t.Fatalf("CodecByName() error = %v", err)
			}
			data, err := c.Encode(state)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			var got core.GameState
			if err := c.Decode(data, &got); err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if got.Tick != 42 || got.Players[0].Position.Z != -3.75 || got.Players[0].Action != core.ActionUp || got.Balls[0].X != 0.25 {
				t.Errorf("decoded = %+v", got)
			}
		})
	}

	if _, err := CodecByName("gzip"); err == nil {
		t.Error("CodecByName(gzip) succeeded")
	}
	if c, _ := CodecByName(""); c.Name() != DefaultCodec {
		t.Errorf("default codec = %s", c.Name())
	}
}

func TestMsgpackUsesJSONNames(t *testing.T) {
	c, _ := CodecByName("msgpack")
	data, err := c.Encode(core.PlayerAction{PlayerID: "p1", MatchID: 1, Action: core.ActionDown})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if !bytes.Contains(data, []byte("playerId")) {
		t.Error("msgpack frame does not use the json field names")
	}
}

func TestHTTPRoutes(t *testing.T) {
	_, srv := newTestServer(t)

	post := func(body string) *http.Response {
		t.Helper()
		resp, err := http.Post(srv.URL+"/matches", "application/json", bytes.NewBufferString(body))
		if err != nil {
			t.Fatalf("POST /matches error = %v", err)
		}
		return resp
	}
	get := func(path string) *http.Response {
		t.Helper()
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s error = %v", path, err)
		}
		return resp
	}

	tests := []struct {
		name string
		resp func() *http.Response
		want int
	}{
		{"health", func() *http.Response { return get("/healthz") }, http.StatusOK},
		{"list maps", func() *http.Response { return get("/maps") }, http.StatusOK},
		{"get map", func() *http.Response { return get("/maps/duel") }, http.StatusOK},
		{"unknown map", func() *http.Response { return get("/maps/nowhere") }, http.StatusNotFound},
		{"bad roster", func() *http.Response {
			return post(`{"map":"duel","players":[{"id":"a"}]}`)
		}, http.StatusBadRequest},
		{"unknown map match", func() *http.Response {
			return post(`{"map":"nowhere","players":[{"id":"a"},{"id":"b"}]}`)
		}, http.StatusNotFound},
		{"unknown field", func() *http.Response {
			return post(`{"map":"duel","colour":"red"}`)
		}, http.StatusBadRequest},
		{"create", func() *http.Response {
			return post(`{"matchId":7,"map":"duel","players":[{"id":"a"},{"id":"b"}]}`)
		}, http.StatusCreated},
		{"get match", func() *http.Response { return get("/matches/7") }, http.StatusOK},
		{"missing match", func() *http.Response { return get("/matches/999") }, http.StatusNotFound},
		{"bad match id", func() *http.Response { return get("/matches/seven") }, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := tt.resp()
			defer resp.Body.Close()
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}

	resp := get("/maps")
	var maps []registry.MapInfo
	if err := json.NewDecoder(resp.Body).Decode(&maps); err != nil {
		t.Fatalf("decode maps: %v", err)
	}
	resp.Body.Close()
	if len(maps) != len(registry.List()) {
		t.Errorf("GET /maps returned %d maps", len(maps))
	}

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/matches/7", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("DELETE status = %d", resp.StatusCode)
	}
}

func TestCreateMatchWithBots(t *testing.T) {
	manager, srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/matches", "application/json",
		bytes.NewBufferString(`{"map":"duel","players":[{"id":"cpu-a"},{"id":"cpu-b"}],"bots":["cpu-a","cpu-b"]}`))
	if err != nil {
		t.Fatalf("POST error = %v", err)
	}
	var state core.GameState
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		t.Fatalf("decode: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated || state.MatchID == 0 {
		t.Fatalf("status = %d, match = %d", resp.StatusCode, state.MatchID)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if st, _ := manager.GetGameState(state.MatchID); st.Status != core.StatusWaiting {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Error("bot match never started")
}

func TestStreamActionsAndFinish(t *testing.T) {
	for _, codec := range []string{"json", "msgpack", "zstd"} {
		t.Run(codec, func(t *testing.T) {
			manager, srv := newTestServer(t)
			roster := []core.PlayerInfo{{ID: "p1"}, {ID: "p2"}}
			if _, err := manager.InitGameState(1, "duel", roster); err != nil {
				t.Fatalf("InitGameState() error = %v", err)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			link, err := Dial(ctx, srv.URL, 1, "p2", codec)
			if err != nil {
				t.Fatalf("Dial() error = %v", err)
			}
			defer link.Close()

			// The connection overrides the player id in the frame.
			if err := link.Send(core.PlayerAction{PlayerID: "p1", Action: core.ActionReady}); err != nil {
				t.Fatalf("Send() error = %v", err)
			}

			var last core.GameState
			readied := false
			for st := range link.States() {
				if st.Tick < last.Tick {
					t.Fatalf("tick went backwards: %d after %d", st.Tick, last.Tick)
				}
				last = st
				if p, _ := st.Player("p2"); p.IsReady && !readied {
					readied = true
					if err := manager.Leave(1, "p1"); err != nil {
						t.Fatalf("Leave() error = %v", err)
					}
				}
				if p, _ := st.Player("p1"); p.IsReady {
					t.Fatal("action was applied to the spoofed player")
				}
			}

			if last.Status != core.StatusFinished {
				t.Fatalf("stream ended at status %s: %v", last.Status, link.Err())
			}
			if w, ok := last.Winner(); !ok || w.ID != "p2" {
				t.Errorf("winner = %+v", w)
			}
		})
	}
}

func TestDialRejectsUnknownPlayer(t *testing.T) {
	manager, srv := newTestServer(t)
	if _, err := manager.InitGameState(1, "duel", []core.PlayerInfo{{ID: "p1"}, {ID: "p2"}}); err != nil {
		t.Fatalf("InitGameState() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := Dial(ctx, srv.URL, 1, "ghost", ""); err == nil {
		t.Error("Dial() as unknown player succeeded")
	}
	if _, err := Dial(ctx, srv.URL, 2, "p1", ""); err == nil {
		t.Error("Dial() to unknown match succeeded")
	}
	if _, err := Dial(ctx, srv.URL, 1, "p1", "gzip"); err == nil {
		t.Error("Dial() with unknown codec succeeded")
	}
}
