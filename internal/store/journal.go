// Package store persists episode traces in a SQLite journal.
//
// Only outcomes and step traces are written. Knowledge is never reloaded from the
// journal into a new episode; every agent starts from an empty fact store.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"wumpus/internal/core"
	"wumpus/internal/logging"
	"wumpus/internal/types"
	"wumpus/internal/world"
)

// ErrEpisodeNotFound is returned when no episode has the requested ID.
var ErrEpisodeNotFound = errors.New("episode not found")

// Journal is the SQLite-backed episode journal.
type Journal struct {
	db   *sql.DB
	mu   sync.RWMutex
	path string
}

// EpisodeRecord is one journaled episode.
type EpisodeRecord struct {
	ID         string       `json:"id"`
	Seed       uint64       `json:"seed"`
	Layout     world.Layout `json:"layout"`
	Outcome    string       `json:"outcome"` // empty while the episode is running
	Steps      int          `json:"steps"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at,omitempty"`
}

// Finished reports whether FinishEpisode has been called for the episode.
func (e EpisodeRecord) Finished() bool { return !e.FinishedAt.IsZero() }

// StepEntry is one journaled step.
type StepEntry struct {
	EpisodeID string         `json:"episode_id"`
	N         int            `json:"n"`
	Location  types.Location `json:"location"`
	Percept   types.Percept  `json:"percept"`
	Action    string         `json:"action"`
	Reason    string         `json:"reason"`
	Outcome   string         `json:"outcome"`
	Message   string         `json:"message"`
	After     types.Location `json:"after"`
	Added     []string       `json:"added"`
	Retracted []string       `json:"retracted"`
	Duration  time.Duration  `json:"duration"`
}

// Open opens (creating if needed) the journal database at path.
func Open(path string) (*Journal, error) {
	timer := logging.StartTimer(logging.CategoryStore, "Open")
	defer timer.Stop()

	logging.Store("Opening journal at path: %s", path)

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			logging.Get(logging.CategoryStore).Error("Failed to create directory %s: %v", dir, err)
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to open database at %s: %v", path, err)
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.StoreDebug("Failed to set sqlite busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.StoreDebug("Failed to set sqlite journal_mode=WAL: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		logging.StoreDebug("Failed to enable foreign keys: %v", err)
	}

	j := &Journal{db: db, path: path}
	if err := j.ensureSchema(); err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to initialize schema: %v", err)
		db.Close()
		return nil, err
	}
	return j, nil
}

func (j *Journal) ensureSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS episodes (
			id TEXT PRIMARY KEY,
			seed INTEGER NOT NULL,
			layout_json TEXT NOT NULL,
			outcome TEXT NOT NULL DEFAULT '',
			steps INTEGER NOT NULL DEFAULT 0,
			started_at INTEGER NOT NULL,
			finished_at INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_episodes_started ON episodes(started_at)`,
		`CREATE TABLE IF NOT EXISTS steps (
			episode_id TEXT NOT NULL REFERENCES episodes(id) ON DELETE CASCADE,
			n INTEGER NOT NULL,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			stench INTEGER NOT NULL,
			breeze INTEGER NOT NULL,
			glitter INTEGER NOT NULL,
			action TEXT NOT NULL,
			reason TEXT NOT NULL,
			outcome TEXT NOT NULL,
			message TEXT NOT NULL,
			after_x INTEGER NOT NULL,
			after_y INTEGER NOT NULL,
			added_json TEXT NOT NULL,
			retracted_json TEXT NOT NULL,
			duration_us INTEGER NOT NULL,
			PRIMARY KEY (episode_id, n)
		)`,
	}
	for _, stmt := range statements {
		if _, err := j.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	logging.StoreDebug("Journal schema ready")
	return nil
}

// Path returns the database path.
func (j *Journal) Path() string { return j.path }

// Close closes the database.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.db.Close()
}

// BeginEpisode records the start of an episode.
func (j *Journal) BeginEpisode(id string, seed uint64, layout world.Layout) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	layoutJSON, err := json.Marshal(layout)
	if err != nil {
		return fmt.Errorf("failed to marshal layout: %w", err)
	}

	_, err = j.db.Exec(
		`INSERT INTO episodes (id, seed, layout_json, started_at) VALUES (?, ?, ?, ?)`,
		id, int64(seed), string(layoutJSON), time.Now().UnixNano(),
	)
	if err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to begin episode %s: %v", id, err)
		return err
	}
	logging.StoreDebug("Episode begun: id=%s seed=%d", id, seed)
	return nil
}

// RecordStep appends one step trace. Re-recording the same step number is ignored.
func (j *Journal) RecordStep(id string, rec core.StepRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	added, err := json.Marshal(datalog(rec.Added))
	if err != nil {
		return err
	}
	retracted, err := json.Marshal(datalog(rec.Retracted))
	if err != nil {
		return err
	}

	_, err = j.db.Exec(
		`INSERT OR IGNORE INTO steps (episode_id, n, x, y, stench, breeze, glitter, action, reason,
		 outcome, message, after_x, after_y, added_json, retracted_json, duration_us)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, rec.N, rec.Location.X, rec.Location.Y,
		rec.Percept.Stench, rec.Percept.Breeze, rec.Percept.Glitter,
		rec.Action.String(), string(rec.Reason), rec.Result.Outcome.String(), rec.Result.Message,
		rec.After.X, rec.After.Y, string(added), string(retracted), rec.Duration.Microseconds(),
	)
	if err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to record step: episode=%s step=%d: %v", id, rec.N, err)
		return err
	}
	return nil
}

// FinishEpisode stores the final outcome and step count.
func (j *Journal) FinishEpisode(id, outcome string, steps int) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	res, err := j.db.Exec(
		`UPDATE episodes SET outcome = ?, steps = ?, finished_at = ? WHERE id = ?`,
		outcome, steps, time.Now().UnixNano(), id,
	)
	if err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to finish episode %s: %v", id, err)
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrEpisodeNotFound, id)
	}
	logging.Store("Episode finished: id=%s outcome=%s steps=%d", id, outcome, steps)
	return nil
}

// ListEpisodes returns the most recent episodes first.
func (j *Journal) ListEpisodes(limit int) ([]EpisodeRecord, error) {
	timer := logging.StartTimer(logging.CategoryStore, "ListEpisodes")
	defer timer.Stop()

	j.mu.RLock()
	defer j.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}

	rows, err := j.db.Query(
		`SELECT id, seed, layout_json, outcome, steps, started_at, finished_at
		 FROM episodes
		 ORDER BY started_at DESC, rowid DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to list episodes: %v", err)
		return nil, err
	}
	defer rows.Close()

	var episodes []EpisodeRecord
	for rows.Next() {
		ep, err := scanEpisode(rows)
		if err != nil {
			return nil, err
		}
		episodes = append(episodes, ep)
	}
	return episodes, rows.Err()
}

// Episode returns one episode by ID.
func (j *Journal) Episode(id string) (EpisodeRecord, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	row := j.db.QueryRow(
		`SELECT id, seed, layout_json, outcome, steps, started_at, finished_at
		 FROM episodes WHERE id = ?`,
		id,
	)
	ep, err := scanEpisode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return EpisodeRecord{}, fmt.Errorf("%w: %s", ErrEpisodeNotFound, id)
	}
	return ep, err
}

// Steps returns the step trace of an episode in order.
func (j *Journal) Steps(id string) ([]StepEntry, error) {
	timer := logging.StartTimer(logging.CategoryStore, "Steps")
	defer timer.Stop()

	j.mu.RLock()
	defer j.mu.RUnlock()

	var exists int
	if err := j.db.QueryRow(`SELECT COUNT(*) FROM episodes WHERE id = ?`, id).Scan(&exists); err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEpisodeNotFound, id)
	}

	rows, err := j.db.Query(
		`SELECT n, x, y, stench, breeze, glitter, action, reason, outcome, message,
		 after_x, after_y, added_json, retracted_json, duration_us
		 FROM steps WHERE episode_id = ? ORDER BY n`,
		id,
	)
	if err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to query steps for %s: %v", id, err)
		return nil, err
	}
	defer rows.Close()

	var entries []StepEntry
	for rows.Next() {
		e := StepEntry{EpisodeID: id}
		var addedJSON, retractedJSON string
		var durationUS int64
		if err := rows.Scan(&e.N, &e.Location.X, &e.Location.Y,
			&e.Percept.Stench, &e.Percept.Breeze, &e.Percept.Glitter,
			&e.Action, &e.Reason, &e.Outcome, &e.Message,
			&e.After.X, &e.After.Y, &addedJSON, &retractedJSON, &durationUS); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(addedJSON), &e.Added); err != nil {
			logging.StoreDebug("Malformed added_json for %s step %d: %v", id, e.N, err)
		}
		if err := json.Unmarshal([]byte(retractedJSON), &e.Retracted); err != nil {
			logging.StoreDebug("Malformed retracted_json for %s step %d: %v", id, e.N, err)
		}
		e.Duration = time.Duration(durationUS) * time.Microsecond
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// OutcomeCounts returns how many finished episodes ended with each outcome.
func (j *Journal) OutcomeCounts() (map[string]int, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	rows, err := j.db.Query(
		`SELECT outcome, COUNT(*) FROM episodes WHERE finished_at IS NOT NULL GROUP BY outcome`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var outcome string
		var n int
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, err
		}
		counts[outcome] = n
	}
	return counts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEpisode(row rowScanner) (EpisodeRecord, error) {
	var (
		ep         EpisodeRecord
		seed       int64
		layoutJSON string
		started    int64
		finished   sql.NullInt64
	)
	if err := row.Scan(&ep.ID, &seed, &layoutJSON, &ep.Outcome, &ep.Steps, &started, &finished); err != nil {
		return EpisodeRecord{}, err
	}
	if err := json.Unmarshal([]byte(layoutJSON), &ep.Layout); err != nil {
		return EpisodeRecord{}, fmt.Errorf("corrupt layout for episode %s: %w", ep.ID, err)
	}
	ep.Seed = uint64(seed)
	ep.StartedAt = time.Unix(0, started)
	if finished.Valid {
		ep.FinishedAt = time.Unix(0, finished.Int64)
	}
	return ep, nil
}

func datalog(facts []types.Fact) []string {
	out := make([]string, 0, len(facts))
	for _, f := range facts {
		out = append(out, f.Datalog())
	}
	return out
}
