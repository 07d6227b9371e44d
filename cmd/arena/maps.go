package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/arena-pong/internal/registry"
	"github.com/vovakirdan/arena-pong/internal/world"
)

var mapsCmd = &cobra.Command{
	Use:   "maps",
	Short: "List or validate arena maps",
	Long: `Work with arena maps.

Maps are JSON files describing the arena size, ball spawns, walls and
one goal per player. Built-in maps are always available; extra files
can be registered with --map-file on serve and play.

Examples:
  arena maps list
  arena maps validate ./maps/ring.json ./maps/cross.json`,
}

var mapsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all available maps",
	Long:  `Shows every built-in map with its player and ball counts.`,
	Args:  cobra.NoArgs,
	Run:   runMapsList,
}

var mapsValidateCmd = &cobra.Command{
	Use:   "validate <file>...",
	Short: "Check map files",
	Long: `Parses each map file and checks the rules every playable map must
satisfy. Exits with status 1 if any file is invalid.`,
	Args: cobra.MinimumNArgs(1),
	Run:  runMapsValidate,
}

func init() {
	mapsCmd.AddCommand(mapsListCmd)
	mapsCmd.AddCommand(mapsValidateCmd)
}

func runMapsList(_ *cobra.Command, _ []string) {
	maps := registry.List()

	if len(maps) == 0 {
		fmt.Println("No maps available.")
		return
	}

	fmt.Println("Available maps:")
	fmt.Println()

	// Calculate column widths
	maxIDLen := 2 // "ID" header
	for _, m := range maps {
		if len(m.ID) > maxIDLen {
			maxIDLen = len(m.ID)
		}
	}

	// Print header
	fmt.Printf("  %-*s  %-7s  %-5s  %s\n", maxIDLen, "ID", "Players", "Balls", "Description")
	fmt.Printf("  %-*s  %-7s  %-5s  %s\n", maxIDLen, "--", "-------", "-----", "-----------")

	// Print maps
	for _, m := range maps {
		fmt.Printf("  %-*s  %-7d  %-5d  %s\n", maxIDLen, m.ID, m.Players, m.Balls, m.Description)
	}

	fmt.Println()
	fmt.Println("Run 'arena play' to pick a map.")
}

func runMapsValidate(_ *cobra.Command, args []string) {
	failed := 0
	for _, filename := range args {
		m, err := validateMapFile(filename)
		if err != nil {
			failed++
			fmt.Printf("FAIL  %s: %v\n", filename, err)
			continue
		}
		fmt.Printf("ok    %s (%d players, %d balls, %d walls)\n", filename, m.PlayerCount(), len(m.Balls), len(m.Walls))
	}

	if failed > 0 {
		os.Exit(1)
	}
}

func validateMapFile(filename string) (world.Map, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return world.Map{}, err
	}
	return world.Parse(data)
}

// registerMapFiles adds map files to the registry, named after the file.
func registerMapFiles(files []string) error {
	for _, filename := range files {
		id := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
		if err := registry.RegisterFile(id, filename); err != nil {
			return err
		}
	}
	return nil
}
