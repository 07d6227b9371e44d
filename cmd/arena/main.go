// arena is a multiplayer paddle-and-ball arena game server and terminal client.
//
// Usage:
//
//	arena serve                  - Start the HTTP/websocket server (and optional SSH lobby)
//	arena play                   - Play against CPU opponents in this terminal
//	arena connect                - Join a match on a running server
//	arena maps                   - List or validate arena maps
//	arena results                - Show recorded matches and the leaderboard
//
// Global flags:
//
//	--tick <rate>          - Override the simulation tick rate
//	--seed <value>         - Set RNG seed for reproducible matches
//	--db <path>            - Set results database path
//	--config <path>        - Load a custom arena.yaml
//	--difficulty <preset>  - easy, normal, hard or fixed
//	--log-level <level>    - debug, info, warn or error
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/arena-pong/internal/config"
)

var (
	// Global flags
	flagTick       int
	flagSeed       int64
	flagDBPath     string
	flagConfig     string
	flagDifficulty string
	flagLogLevel   string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "arena",
	Short: "Arena Pong - multiplayer paddle battles in your terminal",
	Long: `Arena Pong is a last-player-standing paddle game for two to six players.
Every player guards a goal; a ball in your goal costs a life.

Available commands:
  serve    - Start the match server
  play     - Play against CPU opponents locally
  connect  - Join a match on a running server
  maps     - List or validate arena maps
  results  - View recorded matches and the leaderboard

Examples:
  arena serve --ssh :2222
  arena play --map hexagon
  arena connect --server ws://localhost:8080 --match 1 --player alice
  arena maps list
  arena results --leaderboard`,
	SilenceUsage: true,
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().IntVar(&flagTick, "tick", 0, "Simulation tick rate (0 = from config)")
	rootCmd.PersistentFlags().Int64Var(&flagSeed, "seed", 0, "RNG seed (0 = random based on time)")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Path to results database (default from config)")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to custom arena config YAML")
	rootCmd.PersistentFlags().StringVar(&flagDifficulty, "difficulty", "", "Difficulty preset: easy, normal, hard, fixed")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level: debug, info, warn, error")

	// Add subcommands
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(connectCmd)
	rootCmd.AddCommand(mapsCmd)
	rootCmd.AddCommand(resultsCmd)
}

// loadConfig reads the arena config and applies the global flag overrides.
func loadConfig() (config.ArenaConfig, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return cfg, err
	}

	if flagDifficulty != "" {
		preset, ok := config.ParsePreset(flagDifficulty)
		if !ok {
			return cfg, fmt.Errorf("unknown difficulty %q (want easy, normal, hard or fixed)", flagDifficulty)
		}
		config.ApplyPreset(&cfg, preset)
	}
	if flagTick > 0 {
		cfg.Match.TickRate = flagTick
	}
	if flagDBPath != "" {
		cfg.Server.DBPath = flagDBPath
	}
	return cfg, cfg.Validate()
}

// newLogger builds the stderr logger shared by every component.
func newLogger(prefix string) (*log.Logger, error) {
	level, err := log.ParseLevel(flagLogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", flagLogLevel, err)
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          prefix,
		Level:           level,
	}), nil
}

// mustConfig loads config or exits.
func mustConfig() config.ArenaConfig {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}
