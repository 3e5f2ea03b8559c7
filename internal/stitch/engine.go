package stitch

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"stitcher/internal/compositor"
	"stitcher/internal/config"
	"stitcher/internal/fileutil"
	"stitcher/internal/logging"
	"stitcher/internal/outlock"
	"stitcher/internal/preflight"
	"stitcher/internal/runctx"
	"stitcher/internal/stitcherr"
	"stitcher/internal/tiles"
)

// Options configures an Engine.
type Options struct {
	// Workers is the pool size. Zero or less means runtime.NumCPU().
	Workers    int
	Scheme     tiles.NamingScheme
	Ignore     []string
	Compositor compositor.Options
	// LockOutput takes an exclusive flock on the output directory for the
	// duration of the run.
	LockOutput bool
}

// OptionsFromConfig maps configuration sections onto engine options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Workers: cfg.Stitch.Workers,
		Scheme: tiles.NamingScheme{
			Delimiter:    cfg.Naming.Delimiter,
			ColumnPrefix: cfg.Naming.ColumnPrefix,
			RowPrefix:    cfg.Naming.RowPrefix,
		},
		Ignore: cfg.Scan.Ignore,
		Compositor: compositor.Options{
			JPEGQuality:      cfg.Stitch.JPEGQuality,
			StrictDimensions: cfg.Stitch.StrictDimensions,
			MaxCanvasPixels:  cfg.Stitch.MaxCanvasPixels,
		},
		LockOutput: true,
	}
}

// Engine runs stitch jobs. An Engine may run several times, but each Run is
// independent.
type Engine struct {
	opts       Options
	logger     *slog.Logger
	compositor *compositor.Compositor
}

// NewEngine constructs an engine.
func NewEngine(opts Options, logger *slog.Logger) *Engine {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.Scheme == (tiles.NamingScheme{}) {
		opts.Scheme = tiles.DefaultScheme()
	}
	return &Engine{
		opts:       opts,
		logger:     logging.NewComponentLogger(logger, "engine"),
		compositor: compositor.New(opts.Compositor),
	}
}

// Workers returns the pool size used by Run.
func (e *Engine) Workers() int {
	return e.opts.Workers
}

// Scan lists inputDir into a registry without decoding anything.
func (e *Engine) Scan(inputDir string) (*tiles.Registry, error) {
	return tiles.BuildRegistry(inputDir, tiles.ScanOptions{
		Scheme: e.opts.Scheme,
		Ignore: e.opts.Ignore,
		Logger: e.logger,
	})
}

// Run stitches every group in inputDir into outputDir. Cancelling ctx stops
// workers at the next tile boundary; groups already written stay on disk.
// A nil sink discards progress.
func (e *Engine) Run(ctx context.Context, inputDir, outputDir string, sink ProgressSink) Result {
	return e.RunWithState(ctx, NewRunState(), inputDir, outputDir, sink)
}

// RunWithState is Run with a caller-owned RunState, so the caller can cancel
// without owning the context.
func (e *Engine) RunWithState(ctx context.Context, state *RunState, inputDir, outputDir string, sink ProgressSink) Result {
	if sink == nil {
		sink = NopSink{}
	}
	runID := uuid.NewString()
	ctx = runctx.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, e.logger)

	result := Result{
		RunID:     runID,
		InputDir:  inputDir,
		OutputDir: outputDir,
		Workers:   e.opts.Workers,
		Started:   time.Now(),
	}
	abort := func(err error) Result {
		state.Cancel()
		result.Status = StatusAborted
		result.Err = err
		result.Reason = err.Error()
		result.Finished = time.Now()
		logging.ErrorWithContext(logger, "run aborted", "run_aborted",
			logging.String(logging.FieldErrorKind, stitcherr.Kind(err)),
			logging.String(logging.FieldErrorHint, "fix the reported problem and rerun; nothing was written"),
			logging.Error(err),
		)
		return result
	}

	registry, err := e.Scan(inputDir)
	if err != nil {
		return abort(err)
	}
	groups := registry.Groups()
	result.Groups = make([]GroupOutcome, len(groups))
	for i, g := range groups {
		result.Groups[i] = GroupOutcome{
			Identifier: g.Identifier,
			Status:     GroupSkipped,
			Worker:     -1,
			Tiles:      g.Count(),
			Grid:       image.Pt(g.Width(), g.Height()),
			Output:     compositor.OutputPath(outputDir, g.Identifier),
		}
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return abort(stitcherr.Wrap(stitcherr.ErrConfiguration, "setup", "create output directory", outputDir, err))
	}

	if len(groups) == 0 {
		msg := fmt.Sprintf("no tiles found in %s", inputDir)
		result.Warnings = append(result.Warnings, msg)
		logging.WarnWithContext(logger, "no tiles found", "empty_input",
			logging.String("input_dir", inputDir),
			logging.String(logging.FieldImpact, "no composites were written"),
			logging.String(logging.FieldErrorHint, "check the input directory and the [naming] settings"),
		)
		sink.ReportOverall(0, 0)
		result.Status = StatusCompleted
		result.Finished = time.Now()
		return result
	}

	if err := preflight.Err(preflight.RunAll(inputDir, outputDir)); err != nil {
		return abort(stitcherr.Wrap(stitcherr.ErrConfiguration, "setup", "preflight", "", err))
	}
	if e.opts.LockOutput {
		lock, err := outlock.Acquire(outputDir)
		if err != nil {
			return abort(stitcherr.Wrap(stitcherr.ErrConfiguration, "setup", "lock output", "", err))
		}
		defer func() {
			if err := lock.Release(); err != nil {
				logging.WarnWithContext(logger, "failed to release output lock", "lock_release_failed",
					logging.String("lock", lock.Path()), logging.Error(err))
			}
		}()
	}
	if removed, err := fileutil.RemoveStaleTemps(outputDir); err == nil && removed > 0 {
		logger.Info("removed stale temp files", logging.Int("count", removed))
	}

	active := func() bool {
		return state.Active() && ctx.Err() == nil
	}
	stop := context.AfterFunc(ctx, state.Cancel)
	defer stop()

	index := make(map[string]int, len(groups))
	for i, g := range groups {
		index[g.Identifier] = i
	}
	pending := append([]GroupOutcome(nil), result.Groups...)

	logger.Info("run started",
		logging.String("input_dir", inputDir),
		logging.String("output_dir", outputDir),
		logging.Int("groups", len(groups)),
		logging.Int("workers", e.opts.Workers),
	)

	total := len(groups)
	sink.ReportOverall(0, total)

	var (
		queue     = tiles.NewJobQueue(groups)
		completed atomic.Int64
		mu        sync.Mutex
		wg        sync.WaitGroup
	)
	record := func(outcome GroupOutcome, warning string) {
		mu.Lock()
		defer mu.Unlock()
		result.Groups[index[outcome.Identifier]] = outcome
		if warning != "" {
			result.Warnings = append(result.Warnings, warning)
		}
	}

	for id := 0; id < e.opts.Workers; id++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			wctx := runctx.WithWorkerID(ctx, workerID)
			for active() {
				group, ok := queue.TakeNext()
				if !ok {
					return
				}
				outcome, warning := e.safeProcess(wctx, workerID, group, pending[index[group.Identifier]], active, sink)
				record(outcome, warning)
				if outcome.Status == GroupStitched {
					sink.ReportOverall(int(completed.Add(1)), total)
				}
			}
		}(id)
	}
	wg.Wait()

	result.Finished = time.Now()
	result.Status = StatusCompleted
	if !active() && result.Count(GroupCancelled)+result.Count(GroupSkipped) > 0 {
		result.Status = StatusCancelled
		result.Reason = "cancelled"
		if cause := context.Cause(ctx); cause != nil && !errors.Is(cause, context.Canceled) {
			result.Reason = cause.Error()
		}
	}

	logger.Info("run finished",
		logging.String("status", result.Status.String()),
		logging.Int("stitched", result.Count(GroupStitched)),
		logging.Int("failed", result.Count(GroupFailed)),
		logging.Int("cancelled", result.Count(GroupCancelled)),
		logging.Int("skipped", result.Count(GroupSkipped)),
		logging.Duration("duration", result.Duration()),
	)
	return result
}

// safeProcess converts a worker panic into a failed group so the remaining
// groups still run.
func (e *Engine) safeProcess(ctx context.Context, workerID int, group *tiles.Group, base GroupOutcome, active func() bool, sink ProgressSink) (outcome GroupOutcome, warning string) {
	defer func() {
		if r := recover(); r != nil {
			err := stitcherr.Wrap(stitcherr.ErrInterrupted, "worker", group.Identifier, fmt.Sprintf("panic: %v", r), nil)
			outcome = base
			outcome.Status = GroupFailed
			outcome.Worker = workerID
			outcome.Err = err
			warning = err.Error()
			logging.WarnWithContext(logging.WithContext(runctx.WithGroup(ctx, group.Identifier), e.logger),
				"worker recovered from panic", "worker_panic",
				logging.Error(err),
				logging.String("stack", string(debug.Stack())),
				logging.String(logging.FieldImpact, "group skipped; remaining groups continue"),
			)
		}
	}()
	return e.process(ctx, workerID, group, base, active, sink), ""
}

func (e *Engine) process(ctx context.Context, workerID int, group *tiles.Group, outcome GroupOutcome, active func() bool, sink ProgressSink) GroupOutcome {
	ctx = runctx.WithGroup(ctx, group.Identifier)
	logger := logging.WithContext(ctx, e.logger)
	started := time.Now()
	outcome.Worker = workerID

	finish := func(status GroupStatus, err error) GroupOutcome {
		outcome.Status = status
		outcome.Err = err
		outcome.Duration = time.Since(started)
		return outcome
	}

	canvas, layout, err := e.compositor.Compose(group, compositor.Hooks{
		Active: active,
		BeforeTile: func(index, total int) {
			sink.ReportWorker(workerID, index, total)
		},
	})
	if errors.Is(err, compositor.ErrCancelled) {
		logger.Info("group abandoned on cancellation")
		return finish(GroupCancelled, nil)
	}
	if err != nil {
		e.logGroupFailure(logger, err)
		return finish(GroupFailed, err)
	}
	outcome.Canvas = layout.Canvas

	if !active() {
		logger.Info("group abandoned on cancellation before encode")
		return finish(GroupCancelled, nil)
	}
	if err := e.compositor.Write(outcome.Output, canvas); err != nil {
		e.logGroupFailure(logger, err)
		return finish(GroupFailed, err)
	}
	sink.ReportWorker(workerID, group.Count(), group.Count())

	outcome = finish(GroupStitched, nil)
	logger.Info("group stitched",
		logging.Int("tiles", group.Count()),
		logging.String("grid", fmt.Sprintf("%dx%d", outcome.Grid.X, outcome.Grid.Y)),
		logging.String("canvas", fmt.Sprintf("%dx%d", layout.Canvas.X, layout.Canvas.Y)),
		logging.String("output", outcome.Output),
		logging.Duration("duration", outcome.Duration),
	)
	return outcome
}

func (e *Engine) logGroupFailure(logger *slog.Logger, err error) {
	hint := "inspect the tile files for this group"
	switch {
	case errors.Is(err, stitcherr.ErrEncodeFailure):
		hint = "check free space and permissions in the output directory"
	case errors.Is(err, stitcherr.ErrDimensionMismatch):
		hint = "recapture the mismatched tile or disable stitch.strict_dimensions"
	case errors.Is(err, stitcherr.ErrCanvasTooLarge):
		hint = "raise stitch.max_canvas_pixels if the machine has memory for it"
	}
	logging.ErrorWithContext(logger, "group failed", "group_failed",
		logging.String(logging.FieldErrorKind, stitcherr.Kind(err)),
		logging.String(logging.FieldErrorHint, hint),
		logging.String(logging.FieldImpact, "no composite written for this group; other groups continue"),
		logging.Error(err),
	)
}

// Plan describes what Run would do for one group, without decoding anything.
type Plan struct {
	Identifier string
	Tiles      int
	Grid       image.Point
	Duplicates []image.Point
	Missing    int
	Output     string
}

// PlanGroups scans inputDir and describes each group in identifier order.
func (e *Engine) PlanGroups(inputDir, outputDir string) ([]Plan, error) {
	registry, err := e.Scan(inputDir)
	if err != nil {
		return nil, err
	}
	groups := registry.Groups()
	plans := make([]Plan, 0, len(groups))
	for _, g := range groups {
		plans = append(plans, Plan{
			Identifier: g.Identifier,
			Tiles:      g.Count(),
			Grid:       image.Pt(g.Width(), g.Height()),
			Duplicates: g.DuplicateCells(),
			Missing:    g.MissingCells(),
			Output:     compositor.OutputPath(outputDir, g.Identifier),
		})
	}
	return plans, nil
}
