// Package storage provides SQLite-based persistence for match results.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/vovakirdan/arena-pong/internal/core"
	"github.com/vovakirdan/arena-pong/internal/multiplayer"
)

// Store manages the SQLite database connection for result persistence.
type Store struct {
	db *sql.DB
}

// MatchRecord is a stored match outcome.
type MatchRecord struct {
	ID           int64
	MatchID      core.MatchID
	MapID        string
	WinnerID     string // Empty if nobody was left standing
	WinnerAlias  string
	EndReason    string
	DurationSecs int
	Ticks        uint64
	FinishedAt   time.Time
	CreatedAt    time.Time
	Placements   []Placement
}

// Placement is one player's final standing in a stored match.
type Placement struct {
	PlayerID string
	Alias    string
	Place    int
	Lives    int
}

// PlayerStats contains aggregated results for one player.
type PlayerStats struct {
	PlayerID   string
	Alias      string
	Matches    int
	Wins       int
	BestPlace  int
	LastPlayed time.Time
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	// Results are written from the match goroutines; serialise them.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
// Match ids restart with every server run, so match_id is not unique.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS match_results (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			match_id INTEGER NOT NULL,
			map_id TEXT NOT NULL,
			winner_id TEXT,
			winner_alias TEXT,
			end_reason TEXT NOT NULL,
			duration_secs INTEGER NOT NULL DEFAULT 0,
			ticks INTEGER NOT NULL DEFAULT 0,
			finished_at INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_match_results_match_id ON match_results(match_id);
		CREATE INDEX IF NOT EXISTS idx_match_results_map_id ON match_results(map_id);

		CREATE TABLE IF NOT EXISTS match_placements (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			result_id INTEGER NOT NULL REFERENCES match_results(id) ON DELETE CASCADE,
			player_id TEXT NOT NULL,
			alias TEXT NOT NULL DEFAULT '',
			place INTEGER NOT NULL,
			lives INTEGER NOT NULL DEFAULT 0
		);
		CREATE INDEX IF NOT EXISTS idx_match_placements_result ON match_placements(result_id);
		CREATE INDEX IF NOT EXISTS idx_match_placements_player ON match_placements(player_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveMatch records a match and its placements in one transaction.
// Returns the ID of the inserted record.
func (s *Store) SaveMatch(rec MatchRecord) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.Exec(
		`INSERT INTO match_results
		 (match_id, map_id, winner_id, winner_alias, end_reason, duration_secs, ticks, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		int64(rec.MatchID),
		rec.MapID,
		rec.WinnerID,
		rec.WinnerAlias,
		rec.EndReason,
		rec.DurationSecs,
		int64(rec.Ticks),
		rec.FinishedAt.UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save match: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}

	for _, p := range rec.Placements {
		if _, err := tx.Exec(
			`INSERT INTO match_placements (result_id, player_id, alias, place, lives)
			 VALUES (?, ?, ?, ?, ?)`,
			id, p.PlayerID, p.Alias, p.Place, p.Lives,
		); err != nil {
			return 0, fmt.Errorf("storage: cannot save placement: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("storage: cannot commit match: %w", err)
	}
	return id, nil
}

// SaveMatchResult implements multiplayer.MatchResultSaver.
func (s *Store) SaveMatchResult(data multiplayer.MatchResultData) error {
	rec := MatchRecord{
		MatchID:      data.MatchID,
		MapID:        data.MapID,
		WinnerID:     data.WinnerID,
		WinnerAlias:  data.WinnerAlias,
		EndReason:    data.EndReason,
		DurationSecs: data.DurationSecs,
		Ticks:        data.Ticks,
		FinishedAt:   data.FinishedAt,
	}
	for _, p := range data.Placements {
		rec.Placements = append(rec.Placements, Placement{
			PlayerID: p.PlayerID,
			Alias:    p.Alias,
			Place:    p.Place,
			Lives:    p.Lives,
		})
	}
	_, err := s.SaveMatch(rec)
	return err
}

// Ensure Store implements MatchResultSaver
var _ multiplayer.MatchResultSaver = (*Store)(nil)

const matchColumns = `id, match_id, map_id, winner_id, winner_alias, end_reason,
	duration_secs, ticks, finished_at, created_at`

// MatchByID retrieves the most recent stored match with the given match ID.
// Returns nil if none exists.
func (s *Store) MatchByID(matchID core.MatchID) (*MatchRecord, error) {
	row := s.db.QueryRow(
		`SELECT `+matchColumns+`
		 FROM match_results
		 WHERE match_id = ?
		 ORDER BY id DESC
		 LIMIT 1`,
		int64(matchID),
	)
	rec, err := scanMatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query match: %w", err)
	}

	if rec.Placements, err = s.placements(rec.ID); err != nil {
		return nil, err
	}
	return &rec, nil
}

// RecentMatches retrieves the most recent matches, newest first.
func (s *Store) RecentMatches(limit int) ([]MatchRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT `+matchColumns+`
		 FROM match_results
		 ORDER BY id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query matches: %w", err)
	}
	return s.collectMatches(rows)
}

// PlayerHistory retrieves the matches a player took part in, newest first.
func (s *Store) PlayerHistory(playerID string, limit int) ([]MatchRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT `+matchColumns+`
		 FROM match_results
		 WHERE id IN (SELECT result_id FROM match_placements WHERE player_id = ?)
		 ORDER BY id DESC
		 LIMIT ?`,
		playerID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query player matches: %w", err)
	}
	return s.collectMatches(rows)
}

// Leaderboard ranks players by wins, then by matches played.
func (s *Store) Leaderboard(limit int) ([]PlayerStats, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.Query(
		`SELECT p.player_id, MAX(p.alias), COUNT(*),
		        SUM(CASE WHEN p.place = 1 THEN 1 ELSE 0 END),
		        MIN(p.place), MAX(r.finished_at)
		 FROM match_placements p
		 JOIN match_results r ON r.id = p.result_id
		 GROUP BY p.player_id
		 ORDER BY 4 DESC, 3 DESC, p.player_id
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query leaderboard: %w", err)
	}
	defer rows.Close()

	var stats []PlayerStats
	for rows.Next() {
		var st PlayerStats
		var lastPlayed int64
		if err := rows.Scan(&st.PlayerID, &st.Alias, &st.Matches, &st.Wins, &st.BestPlace, &lastPlayed); err != nil {
			return nil, fmt.Errorf("storage: cannot scan stats row: %w", err)
		}
		st.LastPlayed = time.UnixMilli(lastPlayed)
		stats = append(stats, st)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return stats, nil
}

// ClearResults deletes every stored match.
func (s *Store) ClearResults() error {
	if _, err := s.db.Exec("DELETE FROM match_placements"); err != nil {
		return fmt.Errorf("storage: cannot clear placements: %w", err)
	}
	if _, err := s.db.Exec("DELETE FROM match_results"); err != nil {
		return fmt.Errorf("storage: cannot clear results: %w", err)
	}
	return nil
}

func (s *Store) collectMatches(rows *sql.Rows) ([]MatchRecord, error) {
	var results []MatchRecord
	for rows.Next() {
		rec, err := scanMatch(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		results = append(results, rec)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	rows.Close()

	// Placements are loaded after the cursor is released; the pool holds
	// a single connection.
	for i := range results {
		p, err := s.placements(results[i].ID)
		if err != nil {
			return nil, err
		}
		results[i].Placements = p
	}
	return results, nil
}

func (s *Store) placements(resultID int64) ([]Placement, error) {
	rows, err := s.db.Query(
		`SELECT player_id, alias, place, lives
		 FROM match_placements
		 WHERE result_id = ?
		 ORDER BY place`,
		resultID,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query placements: %w", err)
	}
	defer rows.Close()

	var out []Placement
	for rows.Next() {
		var p Placement
		if err := rows.Scan(&p.PlayerID, &p.Alias, &p.Place, &p.Lives); err != nil {
			return nil, fmt.Errorf("storage: cannot scan placement: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMatch(row rowScanner) (MatchRecord, error) {
	var rec MatchRecord
	var matchID, ticks, finishedAt int64
	var winnerID, winnerAlias sql.NullString
	var createdAt any

	if err := row.Scan(
		&rec.ID,
		&matchID,
		&rec.MapID,
		&winnerID,
		&winnerAlias,
		&rec.EndReason,
		&rec.DurationSecs,
		&ticks,
		&finishedAt,
		&createdAt,
	); err != nil {
		return rec, err
	}

	rec.MatchID = core.MatchID(matchID)
	rec.Ticks = uint64(ticks)
	rec.FinishedAt = time.UnixMilli(finishedAt)
	rec.WinnerID = winnerID.String
	rec.WinnerAlias = winnerAlias.String
	rec.CreatedAt = parseTime(createdAt)
	return rec, nil
}

// parseTime handles both time.Time and string datetimes from the driver.
func parseTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse("2006-01-02 15:04:05", t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
