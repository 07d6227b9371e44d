package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/arena-pong/internal/platform/tui"
	"github.com/vovakirdan/arena-pong/internal/storage"
)

var flagPlayNoDB bool

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play against CPU opponents",
	Long: `Start a local session: pick a map and fight CPU opponents in
this terminal. Finished matches are recorded in the results database.

Controls:
  Up/W/K, Down/S/J  - Move paddle
  Space/Enter       - Ready
  P                 - Pause
  Esc/B             - Back to menu
  Tab               - Results (from the menu)
  Q/Ctrl+C          - Quit

Difficulty options:
  easy   - Base ball speed, weaker CPU
  normal - 30% difficulty
  hard   - 70% difficulty, sharper CPU
  fixed  - No speed ramp on paddle hits

Examples:
  arena play
  arena play --difficulty hard
  arena play --seed 42 --no-db`,
	Args: cobra.NoArgs,
	Run:  runPlay,
}

func init() {
	playCmd.Flags().BoolVar(&flagPlayNoDB, "no-db", false, "Do not record match results")
	playCmd.Flags().StringSliceVar(&flagMapFiles, "map-file", nil, "Extra map JSON files to offer (id = file name)")
}

func runPlay(_ *cobra.Command, _ []string) {
	cfg := mustConfig()

	if err := registerMapFiles(flagMapFiles); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading map: %v\n", err)
		os.Exit(1)
	}

	// Get terminal size early for the menu
	width, height := 80, 24 // Defaults
	if w, h, termErr := term.GetSize(int(os.Stdout.Fd())); termErr == nil {
		width = w
		height = h
	}

	// Logs would corrupt the alt screen
	logger := log.New(io.Discard)
	manager := newManager(cfg, logger)

	// Open results storage
	var store *storage.Store
	if !flagPlayNoDB {
		s, err := storage.Open(cfg.Server.DBPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not open results database: %v\n", err)
			// Continue without storage - matches still work
		} else {
			store = s
			manager.SetResultSaver(store)
		}
	}

	manager.Start()
	runErr := tui.RunLocal(tui.Services{
		Manager:     manager,
		Store:       store,
		Client:      clientConfig(cfg),
		PaddleWidth: cfg.Physics.PaddleWidth,
		TickRate:    cfg.Match.TickRate,
		BotSkill:    cfg.BotSkill(),
		Logger:      logger,
	}, width, height)
	manager.Stop()

	// Close store before potential exit
	if store != nil {
		store.Close()
	}

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error running arena: %v\n", runErr)
		os.Exit(1)
	}
}
