package history_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"stitcher/internal/history"
	"stitcher/internal/stitch"
	"stitcher/internal/stitcherr"
	"stitcher/internal/testsupport"
)

func openStore(t *testing.T) *history.Store {
	t.Helper()
	store, err := history.Open(filepath.Join(t.TempDir(), "state", "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleResult(id string, started time.Time) stitch.Result {
	decodeErr := stitcherr.Wrap(stitcherr.ErrDecodeFailure, "compose", "decode tile", "b_x1_y0.png", errors.New("unexpected EOF"))
	return stitch.Result{
		RunID:     id,
		Status:    stitch.StatusCompleted,
		InputDir:  "/in",
		OutputDir: "/out",
		Workers:   4,
		Started:   started,
		Finished:  started.Add(1500 * time.Millisecond),
		Groups: []stitch.GroupOutcome{
			{Identifier: "a", Status: stitch.GroupStitched, Worker: 0, Tiles: 4, Grid: image.Pt(2, 2), Canvas: image.Pt(20, 20), Output: "/out/a.jpg", Duration: 120 * time.Millisecond},
			{Identifier: "b", Status: stitch.GroupFailed, Worker: 1, Tiles: 2, Grid: image.Pt(2, 1), Output: "/out/b.jpg", Err: decodeErr},
		},
		Warnings: []string{"duplicate cell"},
	}
}

func TestRecordAndGet(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if err := store.Record(ctx, sampleResult("6f1c2d3e-0000-4000-8000-000000000001", started)); err != nil {
		t.Fatalf("Record: %v", err)
	}

	run, groups, err := store.Get(ctx, "6f1c")
	if err != nil {
		t.Fatalf("Get by prefix: %v", err)
	}
	if run.Status != "completed" || run.Total != 2 || run.Stitched != 1 || run.Failed != 1 {
		t.Fatalf("unexpected run: %+v", run)
	}
	if !run.Started.Equal(started) || run.Duration() != 1500*time.Millisecond {
		t.Fatalf("unexpected timing: %v %v", run.Started, run.Duration())
	}
	if len(run.Warnings) != 1 || run.Warnings[0] != "duplicate cell" {
		t.Fatalf("warnings = %v", run.Warnings)
	}
	if len(groups) != 2 {
		t.Fatalf("groups = %d", len(groups))
	}
	if groups[0].Identifier != "a" || groups[0].CanvasWidth != 20 || groups[0].Duration != 120*time.Millisecond {
		t.Fatalf("group a = %+v", groups[0])
	}
	if groups[1].ErrorKind != "decode_failed" || groups[1].ErrorMessage == "" {
		t.Fatalf("group b = %+v", groups[1])
	}
}

func TestListNewestFirstWithLimit(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		if err := store.Record(ctx, sampleResult(fmt.Sprintf("run-%d", i), base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("Record %d: %v", i, err)
		}
	}

	runs, err := store.List(ctx, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "run-2" || runs[1].ID != "run-1" {
		t.Fatalf("unexpected order: %+v", runs)
	}
	all, err := store.List(ctx, 0)
	if err != nil || len(all) != 3 {
		t.Fatalf("List all: %d %v", len(all), err)
	}
}

func TestGetErrors(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	now := time.Now()
	for _, id := range []string{"abc-1", "abc-2"} {
		if err := store.Record(ctx, sampleResult(id, now)); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	if _, _, err := store.Get(ctx, "abc"); !errors.Is(err, history.ErrAmbiguous) {
		t.Fatalf("expected ErrAmbiguous, got %v", err)
	}
	if _, _, err := store.Get(ctx, "zzz"); !errors.Is(err, history.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, _, err := store.Get(ctx, "abc_"); !errors.Is(err, history.ErrNotFound) {
		t.Fatalf("underscore must not act as a wildcard, got %v", err)
	}
	if run, _, err := store.Get(ctx, "abc-2"); err != nil || run.ID != "abc-2" {
		t.Fatalf("exact get: %+v %v", run, err)
	}
}

func TestRecordAbortedRun(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	err := stitcherr.Wrap(stitcherr.ErrMalformedInput, "scan", "parse name", `"bad.png"`, nil)
	result := stitch.Result{
		RunID: "aborted-1", Status: stitch.StatusAborted, Err: err, Reason: err.Error(),
		InputDir: "/in", OutputDir: "/out", Workers: 2, Started: time.Now(), Finished: time.Now(),
	}
	if err := store.Record(ctx, result); err != nil {
		t.Fatalf("Record: %v", err)
	}
	run, groups, err := store.Get(ctx, "aborted-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if run.Status != "aborted" || run.ErrorKind != "malformed_input" || len(groups) != 0 || len(run.Warnings) != 0 {
		t.Fatalf("unexpected aborted run: %+v groups=%d", run, len(groups))
	}
}

func TestPruneCascadesGroups(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	old := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	recent := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	if err := store.Record(ctx, sampleResult("old", old)); err != nil {
		t.Fatalf("Record old: %v", err)
	}
	if err := store.Record(ctx, sampleResult("recent", recent)); err != nil {
		t.Fatalf("Record recent: %v", err)
	}

	removed, err := store.Prune(ctx, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil || removed != 1 {
		t.Fatalf("Prune: removed=%d err=%v", removed, err)
	}
	if _, _, err := store.Get(ctx, "old"); !errors.Is(err, history.ErrNotFound) {
		t.Fatalf("old run should be gone: %v", err)
	}

	db, err := sql.Open("sqlite", store.Path())
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	defer db.Close()
	var orphans int
	if err := db.QueryRow("SELECT COUNT(1) FROM run_groups WHERE run_id = 'old'").Scan(&orphans); err != nil {
		t.Fatalf("count orphans: %v", err)
	}
	if orphans != 0 {
		t.Fatalf("expected cascade delete, found %d orphan groups", orphans)
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := history.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	_ = store.Close()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	_ = db.Close()

	if _, err := history.Open(path); !errors.Is(err, history.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestRecordRealRun(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	in := t.TempDir()
	testsupport.WriteGrid(t, in, "shotA", 2, 2, 6)
	testsupport.WriteCorrupt(t, filepath.Join(in, "shotB_x0_y0.png"), 16)

	result := stitch.NewEngine(stitch.OptionsFromConfig(cfg), nil).Run(context.Background(), in, cfg.Paths.OutputDir, nil)
	store := testsupport.MustOpenHistory(t, cfg)
	if err := store.Record(context.Background(), result); err != nil {
		t.Fatalf("Record: %v", err)
	}

	run, groups, err := store.Get(context.Background(), result.RunID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if run.Stitched != 1 || run.Failed != 1 || run.Total != 2 {
		t.Fatalf("run counters = %+v", run)
	}
	if len(groups) != 2 || groups[0].CanvasWidth != 12 || groups[1].ErrorKind != "decode_failed" {
		t.Fatalf("groups = %+v", groups)
	}
}
