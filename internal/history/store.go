// Package history keeps an append-only SQLite ledger of finished runs.
//
// The ledger is read by the "stitcher history" commands only. The engine
// never consults it, so a run always starts from the input directory alone.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"stitcher/internal/stitch"
	"stitcher/internal/stitcherr"
)

// ErrNotFound is returned when no run matches an id or id prefix.
var ErrNotFound = errors.New("run not found")

// ErrAmbiguous is returned when an id prefix matches more than one run.
var ErrAmbiguous = errors.New("run id prefix is ambiguous")

// Run is one stored run.
type Run struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	Reason    string    `json:"reason,omitempty"`
	ErrorKind string    `json:"error_kind,omitempty"`
	InputDir  string    `json:"input_dir"`
	OutputDir string    `json:"output_dir"`
	Workers   int       `json:"workers"`
	Started   time.Time `json:"started"`
	Finished  time.Time `json:"finished"`
	Total     int       `json:"total"`
	Stitched  int       `json:"stitched"`
	Failed    int       `json:"failed"`
	Cancelled int       `json:"cancelled"`
	Skipped   int       `json:"skipped"`
	Warnings  []string  `json:"warnings,omitempty"`
}

// Duration is the wall time of the run.
func (r Run) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}

// Group is one stored group outcome.
type Group struct {
	Identifier   string
	Status       string
	Worker       int
	Tiles        int
	GridWidth    int
	GridHeight   int
	CanvasWidth  int
	CanvasHeight int
	Output       string
	Duration     time.Duration
	ErrorKind    string
	ErrorMessage string
}

// Store manages run history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or connects to the history database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure history directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Pragmas below are per connection; a single connection keeps foreign keys on.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record stores a finished run and its group outcomes in one transaction.
func (s *Store) Record(ctx context.Context, result stitch.Result) error {
	warnings := result.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	warningsJSON, err := json.Marshal(warnings)
	if err != nil {
		return fmt.Errorf("marshal warnings: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin record tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (
            id, status, reason, error_kind, input_dir, output_dir, workers,
            started_at, finished_at, total, stitched, failed, cancelled, skipped, warnings_json
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.RunID,
		result.Status.String(),
		nullableString(result.Reason),
		nullableString(stitcherr.Kind(result.Err)),
		result.InputDir,
		result.OutputDir,
		result.Workers,
		formatTime(result.Started),
		formatTime(result.Finished),
		result.Total(),
		result.Count(stitch.GroupStitched),
		result.Count(stitch.GroupFailed),
		result.Count(stitch.GroupCancelled),
		result.Count(stitch.GroupSkipped),
		string(warningsJSON),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO run_groups (
            run_id, identifier, status, worker, tiles, grid_width, grid_height,
            canvas_width, canvas_height, output_path, duration_ms, error_kind, error_message
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare group insert: %w", err)
	}
	defer stmt.Close()

	for _, g := range result.Groups {
		var message string
		if g.Err != nil {
			message = g.Err.Error()
		}
		if _, err := stmt.ExecContext(ctx,
			result.RunID, g.Identifier, string(g.Status), g.Worker, g.Tiles,
			g.Grid.X, g.Grid.Y, g.Canvas.X, g.Canvas.Y, g.Output,
			g.Duration.Milliseconds(),
			nullableString(stitcherr.Kind(g.Err)),
			nullableString(message),
		); err != nil {
			return fmt.Errorf("insert group %s: %w", g.Identifier, err)
		}
	}
	return tx.Commit()
}

const runColumns = `id, status, reason, error_kind, input_dir, output_dir, workers,
    started_at, finished_at, total, stitched, failed, cancelled, skipped, warnings_json`

// List returns the most recent runs first. A non-positive limit returns all runs.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	query := "SELECT " + runColumns + " FROM runs ORDER BY started_at DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Get loads one run by full id or unique id prefix, with its groups sorted
// by identifier.
func (s *Store) Get(ctx context.Context, idOrPrefix string) (Run, []Group, error) {
	idOrPrefix = strings.TrimSpace(idOrPrefix)
	if idOrPrefix == "" {
		return Run{}, nil, ErrNotFound
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+runColumns+" FROM runs WHERE id = ? OR id LIKE ? ESCAPE '\\' LIMIT 2",
		idOrPrefix, escapeLike(idOrPrefix)+"%")
	if err != nil {
		return Run{}, nil, fmt.Errorf("get run: %w", err)
	}
	var matches []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			rows.Close()
			return Run{}, nil, err
		}
		matches = append(matches, run)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return Run{}, nil, err
	}
	switch {
	case len(matches) == 0:
		return Run{}, nil, fmt.Errorf("%w: %s", ErrNotFound, idOrPrefix)
	case len(matches) > 1:
		exact := false
		for _, m := range matches {
			if m.ID == idOrPrefix {
				matches, exact = []Run{m}, true
				break
			}
		}
		if !exact {
			return Run{}, nil, fmt.Errorf("%w: %s", ErrAmbiguous, idOrPrefix)
		}
	}

	run := matches[0]
	groups, err := s.groups(ctx, run.ID)
	if err != nil {
		return Run{}, nil, err
	}
	return run, groups, nil
}

// Prune deletes runs that started before cutoff and returns how many were removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM runs WHERE started_at < ?", formatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) groups(ctx context.Context, runID string) ([]Group, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT identifier, status, worker, tiles, grid_width, grid_height,
            canvas_width, canvas_height, output_path, duration_ms, error_kind, error_message
        FROM run_groups WHERE run_id = ? ORDER BY identifier`, runID)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()

	var groups []Group
	for rows.Next() {
		var (
			g          Group
			durationMS int64
			kind, msg  sql.NullString
		)
		if err := rows.Scan(&g.Identifier, &g.Status, &g.Worker, &g.Tiles, &g.GridWidth, &g.GridHeight,
			&g.CanvasWidth, &g.CanvasHeight, &g.Output, &durationMS, &kind, &msg); err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		g.Duration = time.Duration(durationMS) * time.Millisecond
		g.ErrorKind = kind.String
		g.ErrorMessage = msg.String
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run               Run
		reason, kind      sql.NullString
		started, finished string
		warningsJSON      string
	)
	if err := row.Scan(&run.ID, &run.Status, &reason, &kind, &run.InputDir, &run.OutputDir, &run.Workers,
		&started, &finished, &run.Total, &run.Stitched, &run.Failed, &run.Cancelled, &run.Skipped, &warningsJSON); err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.Reason = reason.String
	run.ErrorKind = kind.String
	run.Started = parseTime(started)
	run.Finished = parseTime(finished)
	if err := json.Unmarshal([]byte(warningsJSON), &run.Warnings); err != nil {
		return Run{}, fmt.Errorf("decode warnings for %s: %w", run.ID, err)
	}
	return run, nil
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

// formatTime uses a fixed-width layout so started_at sorts lexically.
func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000000Z07:00")
}

func parseTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}
