package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/arena-pong/internal/bots"
	"github.com/vovakirdan/arena-pong/internal/client"
	"github.com/vovakirdan/arena-pong/internal/config"
	"github.com/vovakirdan/arena-pong/internal/core"
	"github.com/vovakirdan/arena-pong/internal/multiplayer"
	"github.com/vovakirdan/arena-pong/internal/net/ws"
	"github.com/vovakirdan/arena-pong/internal/platform/tui"
	"github.com/vovakirdan/arena-pong/internal/storage"
)

var (
	flagAddr     string
	flagSSHAddr  string
	flagHostKey  string
	flagNoDB     bool
	flagMapFiles []string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the arena match server",
	Long: `Start the match server.

The HTTP listener serves the match API and the websocket stream:
  GET  /healthz          - liveness and match count
  GET  /maps             - built-in and registered maps
  POST /matches          - create a match from a roster
  GET  /matches/{id}     - current match snapshot
  GET  /ws?matchId=&playerId=&codec=  - live snapshots in, actions out

With --ssh every SSH connection gets a menu to play against CPU
opponents or queue for an online match. Finished matches are recorded
in the results database (all users share the same leaderboard).

Examples:
  arena serve                            # HTTP on :8080
  arena serve --addr :9000 --ssh :2222   # Also accept SSH players
  arena serve --map-file ./maps/ring.json
  arena serve --no-db                    # Do not record results

Users can connect with:
  ssh localhost -p 2222`,
	Run: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagAddr, "addr", "", "HTTP/websocket address (default from config)")
	serveCmd.Flags().StringVar(&flagSSHAddr, "ssh", "", "SSH server address, empty disables SSH (default from config)")
	serveCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to SSH host key file (auto-generated if not specified)")
	serveCmd.Flags().BoolVar(&flagNoDB, "no-db", false, "Do not record match results")
	serveCmd.Flags().StringSliceVar(&flagMapFiles, "map-file", nil, "Extra map JSON files to register (id = file name)")
}

// newManager builds a state manager from config.
func newManager(cfg config.ArenaConfig, logger *log.Logger) *multiplayer.StateManager {
	return multiplayer.NewStateManager(multiplayer.ManagerConfig{
		TickRate:          cfg.Match.TickRate,
		IdleTimeout:       cfg.Match.IdleTimeout,
		FinishedRetention: cfg.Match.FinishedRetention,
		CleanupPeriod:     cfg.Match.CleanupPeriod,
		StartCountdown:    cfg.Match.StartCountdown,
		ServeDelay:        cfg.Match.ServeDelay,
		Tuning:            cfg.Tuning(),
		Seed:              flagSeed,
		Logger:            logger,
	})
}

// clientConfig builds the client settings from config.
func clientConfig(cfg config.ArenaConfig) client.Config {
	c := client.DefaultConfig()
	c.SendInterval = cfg.Client.SendInterval
	c.FlyIn = cfg.Client.FlyIn
	return c
}

func runServe(_ *cobra.Command, _ []string) {
	cfg := mustConfig()
	if flagAddr != "" {
		cfg.Server.Addr = flagAddr
	}
	if flagSSHAddr != "" {
		cfg.Server.SSHAddr = flagSSHAddr
	}
	if flagHostKey != "" {
		cfg.Server.HostKeyPath = flagHostKey
	}

	logger, err := newLogger("arena")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := registerMapFiles(flagMapFiles); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading map: %v\n", err)
		os.Exit(1)
	}

	if err := serve(cfg, logger); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}

// serve runs the listeners until interrupted or one of them fails.
func serve(cfg config.ArenaConfig, logger *log.Logger) error {
	manager := newManager(cfg, logger)

	var store *storage.Store
	if !flagNoDB {
		var err error
		store, err = storage.Open(cfg.Server.DBPath)
		if err != nil {
			// Continue without storage - matches still run
			logger.Warn("could not open results database", "path", cfg.Server.DBPath, "error", err)
			store = nil
		} else {
			defer store.Close()
			manager.SetResultSaver(store)
		}
	}

	skill := cfg.BotSkill()
	sessions := multiplayer.NewSessionRegistry()
	matchmaker := multiplayer.NewMatchmaker(multiplayer.MatchmakerConfig{
		LobbyTimeout:  cfg.Server.LobbyTimeout,
		BotFillAfter:  cfg.Server.BotFillAfter,
		CleanupPeriod: cfg.Match.CleanupPeriod,
		OnBots: func(matchID core.MatchID, mapID string, botIDs []string) {
			if _, err := bots.Attach(manager, matchID, mapID, botIDs, skill); err != nil {
				logger.Warn("attach bots", "match", matchID, "error", err)
			}
		},
		Logger: logger,
	}, manager, sessions)

	var sshServer *tui.SSHServer
	if cfg.Server.SSHAddr != "" {
		sshCfg := tui.DefaultSSHServerConfig()
		sshCfg.Address = cfg.Server.SSHAddr
		sshCfg.HostKeyPath = cfg.Server.HostKeyPath

		var err error
		sshServer, err = tui.NewSSHServer(sshCfg, tui.Services{
			Manager:     manager,
			Matchmaker:  matchmaker,
			Store:       store,
			Client:      clientConfig(cfg),
			PaddleWidth: cfg.Physics.PaddleWidth,
			TickRate:    cfg.Match.TickRate,
			BotSkill:    skill,
			Logger:      logger,
		}, sessions)
		if err != nil {
			return fmt.Errorf("creating SSH server: %w", err)
		}
	}

	manager.Start()
	matchmaker.Start()
	defer func() {
		matchmaker.Stop()
		manager.Stop()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	server := ws.NewServer(manager, ws.ServerConfig{
		BotSkill: skill,
		Logger:   logger,
	})

	errCh := make(chan error, 2)
	listeners := 1
	go func() {
		errCh <- server.ListenAndServe(ctx, cfg.Server.Addr)
	}()
	fmt.Printf("Arena server listening on %s\n", cfg.Server.Addr)

	if sshServer != nil {
		listeners++
		go func() {
			errCh <- sshServer.ListenAndServe(ctx)
		}()
		fmt.Printf("SSH lobby on %s\n", sshServer.Addr())
	}
	fmt.Println("Press Ctrl+C to stop")

	// The first listener to fail stops the others.
	var failed error
	for range listeners {
		if err := <-errCh; err != nil && failed == nil {
			failed = err
			cancel()
		}
	}
	if failed != nil {
		return failed
	}
	logger.Info("server stopped")
	return nil
}
