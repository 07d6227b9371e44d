package main

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vovakirdan/arena-pong/internal/multiplayer"
	"github.com/vovakirdan/arena-pong/internal/net/ws"
	"github.com/vovakirdan/arena-pong/internal/registry"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadConfigFlags(t *testing.T) {
	path := writeFile(t, "arena.yaml", "match:\n  tick_rate: 30\n")

	tests := []struct {
		name       string
		tick       int
		difficulty string
		db         string
		wantTick   int
		wantRamp   bool
		wantErr    bool
	}{
		{name: "file values", wantTick: 30, wantRamp: true},
		{name: "tick override", tick: 120, wantTick: 120, wantRamp: true},
		{name: "fixed preset", difficulty: "fixed", wantTick: 30, wantRamp: false},
		{name: "db override", db: "/tmp/x.db", wantTick: 30, wantRamp: true},
		{name: "unknown preset", difficulty: "insane", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flagConfig, flagTick, flagDifficulty, flagDBPath = path, tt.tick, tt.difficulty, tt.db
			t.Cleanup(func() {
				flagConfig, flagTick, flagDifficulty, flagDBPath = "", 0, "", ""
			})

			cfg, err := loadConfig()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("loadConfig() error = %v", err)
			}
			if cfg.Match.TickRate != tt.wantTick {
				t.Errorf("tick rate = %d, expected %d", cfg.Match.TickRate, tt.wantTick)
			}
			if cfg.Difficulty.Enabled != tt.wantRamp {
				t.Errorf("difficulty enabled = %v, expected %v", cfg.Difficulty.Enabled, tt.wantRamp)
			}
			if tt.db != "" && cfg.Server.DBPath != tt.db {
				t.Errorf("db path = %q, expected %q", cfg.Server.DBPath, tt.db)
			}
		})
	}
}

func TestNewLoggerRejectsBadLevel(t *testing.T) {
	flagLogLevel = "loud"
	t.Cleanup(func() { flagLogLevel = "info" })

	if _, err := newLogger("test"); err == nil {
		t.Error("expected error for unknown log level")
	}
}

func TestHTTPURL(t *testing.T) {
	tests := []struct {
		base string
		path string
		want string
	}{
		{"ws://localhost:8080", "/matches", "http://localhost:8080/matches"},
		{"wss://arena.example", "/maps/duel", "https://arena.example/maps/duel"},
		{"http://127.0.0.1:9000/ws?matchId=1", "/matches", "http://127.0.0.1:9000/matches"},
	}

	for _, tt := range tests {
		got, err := httpURL(tt.base, tt.path)
		if err != nil {
			t.Errorf("httpURL(%q) error = %v", tt.base, err)
			continue
		}
		if got != tt.want {
			t.Errorf("httpURL(%q, %q) = %q, expected %q", tt.base, tt.path, got, tt.want)
		}
	}
}

func TestValidateMapFile(t *testing.T) {
	good := filepath.Join("..", "..", "internal", "registry", "maps", "duel.json")
	if _, err := validateMapFile(good); err != nil {
		t.Errorf("duel.json error = %v", err)
	}

	bad := writeFile(t, "bad.json", `{"dimensions":{"width":10,"height":10},"balls":[],"goals":[]}`)
	if _, err := validateMapFile(bad); err == nil {
		t.Error("expected error for map without balls")
	}

	if _, err := validateMapFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestRegisterMapFiles(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("..", "..", "internal", "registry", "maps", "square.json"))
	if err != nil {
		t.Fatalf("read square.json: %v", err)
	}
	path := writeFile(t, "cmd-test-square.json", string(data))

	if err := registerMapFiles([]string{path}); err != nil {
		t.Fatalf("registerMapFiles() error = %v", err)
	}
	info, ok := registry.Info("cmd-test-square")
	if !ok {
		t.Fatal("map not registered under its file name")
	}
	if info.Players != 4 {
		t.Errorf("players = %d, expected 4", info.Players)
	}

	if err := registerMapFiles([]string{path}); err == nil {
		t.Error("expected error registering the same id twice")
	}
}

func TestCreateMatchOverHTTP(t *testing.T) {
	cfg := multiplayer.DefaultManagerConfig()
	cfg.StartCountdown = 0
	manager := multiplayer.NewStateManager(cfg)
	srv := httptest.NewServer(ws.NewServer(manager, ws.DefaultServerConfig()).Handler())
	t.Cleanup(func() {
		srv.Close()
		manager.Stop()
	})

	flagPlayer, flagAlias, flagMapID = "alice", "Alice", "square"
	t.Cleanup(func() { flagPlayer, flagAlias, flagMapID = "", "", "duel" })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	base := strings.Replace(srv.URL, "http://", "ws://", 1)
	arena, err := lookupMap(ctx, base, "square")
	if err != nil {
		t.Fatalf("lookupMap() error = %v", err)
	}

	id, err := createMatch(ctx, base, 0, arena)
	if err != nil {
		t.Fatalf("createMatch() error = %v", err)
	}

	state, ok := manager.GetGameState(id)
	if !ok {
		t.Fatalf("match %d not found on server", id)
	}
	if len(state.Players) != 4 {
		t.Fatalf("players = %d, expected 4", len(state.Players))
	}
	if p := state.Players[0]; p.ID != "alice" || p.Alias != "Alice" {
		t.Errorf("slot 0 = %+v, expected alice", p)
	}
	if _, ok := state.Player("cpu-3"); !ok {
		t.Error("expected CPU in the last seat")
	}

	if _, err := lookupMap(ctx, base, "no-such-map"); err == nil || !strings.Contains(err.Error(), "404") {
		t.Errorf("lookupMap(unknown) error = %v, expected 404", err)
	}
}
