package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/arena-pong/internal/core"
	"github.com/vovakirdan/arena-pong/internal/net/ws"
	"github.com/vovakirdan/arena-pong/internal/platform/tui"
	"github.com/vovakirdan/arena-pong/internal/registry"
	"github.com/vovakirdan/arena-pong/internal/world"
)

var (
	flagServer  string
	flagMatch   int64
	flagPlayer  string
	flagAlias   string
	flagCodec   string
	flagMapID   string
	flagCreate  bool
	flagTimeout time.Duration
)

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Join a match on a running server",
	Long: `Connect to an arena server over websocket and play (or watch) a match.

Without --player the connection is a spectator. With --create a new
match is requested first with you in the first seat and CPU players
in the rest.

Codecs: json, msgpack, snappy, zstd

Examples:
  arena connect --match 3 --player alice --map duel
  arena connect --match 3 --map square            # Spectate
  arena connect --create --map hexagon --player alice
  arena connect --server ws://arena.example:8080 --codec zstd --match 7 --player bob`,
	Args: cobra.NoArgs,
	Run:  runConnect,
}

func init() {
	connectCmd.Flags().StringVar(&flagServer, "server", "ws://localhost:8080", "Server base URL")
	connectCmd.Flags().Int64Var(&flagMatch, "match", 0, "Match id to join")
	connectCmd.Flags().StringVar(&flagPlayer, "player", "", "Roster player id (empty = spectate)")
	connectCmd.Flags().StringVar(&flagAlias, "alias", "", "Display name when creating a match")
	connectCmd.Flags().StringVar(&flagCodec, "codec", "", "Snapshot codec (default from config)")
	connectCmd.Flags().StringVar(&flagMapID, "map", "duel", "Map of the match, used to draw the arena")
	connectCmd.Flags().BoolVar(&flagCreate, "create", false, "Create the match before joining")
	connectCmd.Flags().DurationVar(&flagTimeout, "timeout", 10*time.Second, "Connect timeout")
}

func runConnect(_ *cobra.Command, _ []string) {
	cfg := mustConfig()
	codec := flagCodec
	if codec == "" {
		codec = cfg.Client.Codec
	}

	ctx, cancel := context.WithTimeout(context.Background(), flagTimeout)
	defer cancel()

	arena, err := lookupMap(ctx, flagServer, flagMapID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	matchID := core.MatchID(flagMatch)
	if flagCreate {
		if flagPlayer == "" {
			fmt.Fprintln(os.Stderr, "Error: --create needs --player")
			os.Exit(1)
		}
		matchID, err = createMatch(ctx, flagServer, matchID, arena)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating match: %v\n", err)
			os.Exit(1)
		}
	} else if matchID <= 0 {
		fmt.Fprintln(os.Stderr, "Error: --match is required unless --create is set")
		os.Exit(1)
	}

	link, err := ws.Dial(ctx, flagServer, matchID, flagPlayer, codec)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting: %v\n", err)
		os.Exit(1)
	}

	width, height := 80, 24 // Defaults
	if w, h, termErr := term.GetSize(int(os.Stdout.Fd())); termErr == nil {
		width = w
		height = h
	}

	clientCfg := clientConfig(cfg)
	clientCfg.PlayerID = flagPlayer
	clientCfg.MatchID = matchID

	final, err := tui.RunMatch(link, tui.MatchOptions{
		Client:      clientCfg,
		Map:         arena,
		PaddleWidth: cfg.Physics.PaddleWidth,
		TickRate:    cfg.Match.TickRate,
		Width:       width,
		Height:      height,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running match: %v\n", err)
		os.Exit(1)
	}

	if final.Status == core.StatusFinished {
		if w, ok := final.Winner(); ok {
			fmt.Printf("Match %d won by %s\n", matchID, w.Alias)
		}
	}
}

// lookupMap resolves map geometry locally, then from the server.
func lookupMap(ctx context.Context, server, mapID string) (world.Map, error) {
	if registry.Exists(mapID) {
		return registry.Create(mapID)
	}

	u, err := httpURL(server, "/maps/"+url.PathEscape(mapID))
	if err != nil {
		return world.Map{}, err
	}
	body, err := doJSON(ctx, http.MethodGet, u, nil)
	if err != nil {
		return world.Map{}, fmt.Errorf("map %q: %w", mapID, err)
	}
	return world.Parse(body)
}

// createMatch asks the server for a new match with the local player in
// slot 0 and CPU players in every other seat.
func createMatch(ctx context.Context, server string, id core.MatchID, m world.Map) (core.MatchID, error) {
	alias := flagAlias
	if alias == "" {
		alias = flagPlayer
	}
	req := ws.CreateMatchRequest{
		MatchID: id,
		Map:     flagMapID,
		Players: []core.PlayerInfo{{ID: flagPlayer, Alias: alias}},
	}
	for i := 1; i < m.PlayerCount(); i++ {
		botID := "cpu-" + strconv.Itoa(i)
		req.Players = append(req.Players, core.PlayerInfo{ID: botID, Alias: "CPU " + strconv.Itoa(i)})
		req.Bots = append(req.Bots, botID)
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return 0, err
	}
	u, err := httpURL(server, "/matches")
	if err != nil {
		return 0, err
	}
	body, err := doJSON(ctx, http.MethodPost, u, payload)
	if err != nil {
		return 0, err
	}

	var state core.GameState
	if err := json.Unmarshal(body, &state); err != nil {
		return 0, fmt.Errorf("decode match: %w", err)
	}
	return state.MatchID, nil
}

// httpURL turns a ws:// or http:// base into an HTTP endpoint URL.
func httpURL(base, path string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse %q: %w", base, err)
	}
	switch u.Scheme {
	case "ws":
		u.Scheme = "http"
	case "wss":
		u.Scheme = "https"
	}
	u.Path = path
	u.RawQuery = ""
	return u.String(), nil
}

func doJSON(ctx context.Context, method, u string, payload []byte) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			return nil, fmt.Errorf("%s: %s", resp.Status, e.Error)
		}
		return nil, fmt.Errorf("%s", resp.Status)
	}
	return data, nil
}
