package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/arena-pong/internal/core"
	"github.com/vovakirdan/arena-pong/internal/platform/tui"
	"github.com/vovakirdan/arena-pong/internal/storage"
)

var (
	flagLeaderboard bool
	flagResultsFor  string
	flagResultMatch int64
	flagLimit       int
	flagInteractive bool
	flagClear       bool
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Show recorded matches and the leaderboard",
	Long: `Display finished matches from the results database.

Examples:
  arena results                    # Most recent matches
  arena results --leaderboard      # Players ranked by wins
  arena results --player alice     # One player's matches
  arena results --match 12         # Placements of one match
  arena results -i                 # Browse in the terminal UI
  arena results --clear            # Delete every recorded match`,
	Args: cobra.NoArgs,
	Run:  runResults,
}

func init() {
	resultsCmd.Flags().BoolVarP(&flagLeaderboard, "leaderboard", "l", false, "Show players ranked by wins")
	resultsCmd.Flags().StringVar(&flagResultsFor, "player", "", "Show matches of one player")
	resultsCmd.Flags().Int64Var(&flagResultMatch, "match", 0, "Show placements of one match")
	resultsCmd.Flags().IntVarP(&flagLimit, "limit", "n", 10, "Maximum rows to show")
	resultsCmd.Flags().BoolVarP(&flagInteractive, "interactive", "i", false, "Browse results in the terminal UI")
	resultsCmd.Flags().BoolVar(&flagClear, "clear", false, "Delete all recorded results")
}

func runResults(_ *cobra.Command, _ []string) {
	cfg := mustConfig()

	store, err := storage.Open(cfg.Server.DBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening results database: %v\n", err)
		os.Exit(1)
	}

	err = showResults(store)
	store.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error retrieving results: %v\n", err)
		os.Exit(1)
	}
}

func showResults(store *storage.Store) error {
	switch {
	case flagClear:
		if err := store.ClearResults(); err != nil {
			return err
		}
		fmt.Println("All results deleted.")
		return nil

	case flagInteractive:
		width, height := 80, 24 // Defaults
		if w, h, termErr := term.GetSize(int(os.Stdout.Fd())); termErr == nil {
			width = w
			height = h
		}
		return tui.RunScoreboard(store, width, height)

	case flagResultMatch > 0:
		return printMatch(store, core.MatchID(flagResultMatch))

	case flagLeaderboard:
		return printLeaderboard(store)

	case flagResultsFor != "":
		recs, err := store.PlayerHistory(flagResultsFor, flagLimit)
		if err != nil {
			return err
		}
		fmt.Printf("Matches - %s\n", flagResultsFor)
		fmt.Println()
		printMatches(recs)
		return nil
	}

	recs, err := store.RecentMatches(flagLimit)
	if err != nil {
		return err
	}
	fmt.Println("Recent matches")
	fmt.Println()
	printMatches(recs)
	return nil
}

func printMatches(recs []storage.MatchRecord) {
	if len(recs) == 0 {
		fmt.Println("No matches recorded yet.")
		fmt.Println()
		fmt.Println("Play 'arena play' to finish the first match!")
		return
	}

	// Print header
	fmt.Printf("  %-6s  %-10s  %-18s  %-7s  %-6s  %s\n", "Match", "Map", "Winner", "Players", "Time", "Date")
	fmt.Printf("  %-6s  %-10s  %-18s  %-7s  %-6s  %s\n", "-----", "---", "------", "-------", "----", "----")

	// Print matches
	for _, r := range recs {
		winner := r.WinnerAlias
		if winner == "" {
			winner = "-"
		}
		dateStr := r.FinishedAt.Format("2006-01-02 15:04")
		fmt.Printf("  %-6d  %-10s  %-18s  %-7d  %-6s  %s\n",
			r.MatchID, r.MapID, winner, len(r.Placements), fmt.Sprintf("%ds", r.DurationSecs), dateStr)
	}
}

func printLeaderboard(store *storage.Store) error {
	stats, err := store.Leaderboard(flagLimit)
	if err != nil {
		return err
	}

	fmt.Println("Leaderboard")
	fmt.Println()

	if len(stats) == 0 {
		fmt.Println("No matches recorded yet.")
		return nil
	}

	// Print header
	fmt.Printf("  %-4s  %-18s  %-4s  %-6s  %-4s  %s\n", "Rank", "Player", "Wins", "Played", "Best", "Last played")
	fmt.Printf("  %-4s  %-18s  %-4s  %-6s  %-4s  %s\n", "----", "------", "----", "------", "----", "-----------")

	// Print players
	for i, s := range stats {
		name := s.Alias
		if name == "" {
			name = s.PlayerID
		}
		fmt.Printf("  %-4d  %-18s  %-4d  %-6d  %-4d  %s\n",
			i+1, name, s.Wins, s.Matches, s.BestPlace, s.LastPlayed.Format("2006-01-02 15:04"))
	}
	return nil
}

func printMatch(store *storage.Store, id core.MatchID) error {
	rec, err := store.MatchByID(id)
	if err != nil {
		return err
	}
	if rec == nil {
		fmt.Printf("Match %d has no recorded result.\n", id)
		return nil
	}

	fmt.Printf("Match %d - %s (%s)\n", rec.MatchID, rec.MapID, rec.EndReason)
	fmt.Printf("Finished %s after %ds, %d ticks\n",
		rec.FinishedAt.Format("2006-01-02 15:04"), rec.DurationSecs, rec.Ticks)
	fmt.Println()

	fmt.Printf("  %-5s  %-18s  %-18s  %s\n", "Place", "Player", "ID", "Lives")
	fmt.Printf("  %-5s  %-18s  %-18s  %s\n", "-----", "------", "--", "-----")
	for _, p := range rec.Placements {
		fmt.Printf("  %-5d  %-18s  %-18s  %d\n", p.Place, p.Alias, p.PlayerID, p.Lives)
	}
	return nil
}
