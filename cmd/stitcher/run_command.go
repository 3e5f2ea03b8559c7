package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"stitcher/internal/config"
	"stitcher/internal/history"
	"stitcher/internal/logging"
	"stitcher/internal/stitch"
	"stitcher/internal/stitcherr"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var outputDir string
	var workers int
	var quality int
	var noProgress bool
	var strict bool

	cmd := &cobra.Command{
		Use:   "run <input-dir>",
		Short: "Stitch every tile group in a directory",
		Long: "Scan <input-dir> for tiles named <id>_x<col>_y<row>.<ext>, stitch each group into\n" +
			"<output-dir>/<id>.jpg, and print a summary. SIGINT or SIGTERM stops workers\n" +
			"at the next tile; finished composites stay on disk.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.newLogger(cmd)
			if err != nil {
				return err
			}

			opts := stitch.OptionsFromConfig(cfg)
			if cmd.Flags().Changed("workers") {
				if workers < 1 {
					return fmt.Errorf("--workers must be at least 1")
				}
				opts.Workers = workers
			}
			if cmd.Flags().Changed("quality") {
				if quality < 1 || quality > 100 {
					return fmt.Errorf("--quality must be between 1 and 100")
				}
				opts.Compositor.JPEGQuality = quality
			}
			if cmd.Flags().Changed("strict") {
				opts.Compositor.StrictDimensions = strict
			}

			target := cfg.Paths.OutputDir
			if strings.TrimSpace(outputDir) != "" {
				expanded, err := config.ExpandPath(strings.TrimSpace(outputDir))
				if err != nil {
					return fmt.Errorf("resolve output directory: %w", err)
				}
				target = expanded
			}
			input, err := config.ExpandPath(strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("resolve input directory: %w", err)
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			engine := stitch.NewEngine(opts, logger)
			var sink stitch.ProgressSink = stitch.NewLogSink(logger)
			var bar *progressBarSink
			if !noProgress && shouldColorize(cmd.ErrOrStderr()) {
				bar = newProgressBarSink(cmd.ErrOrStderr())
				sink = bar
			}

			result := engine.Run(signalCtx, input, target, sink)
			if bar != nil {
				bar.Close()
			}

			if cfg.History.Enabled {
				recordHistory(cmd.Context(), cfg.Paths.HistoryDB, result, logger)
			}

			out := cmd.OutOrStdout()
			printRunSummary(out, result, shouldColorize(out))
			return runOutcomeError(result)
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory (defaults to paths.output_dir)")
	cmd.Flags().IntVarP(&workers, "workers", "j", 0, "Number of concurrent workers (defaults to stitch.workers or CPU count)")
	cmd.Flags().IntVar(&quality, "quality", 0, "JPEG quality 1-100 (defaults to stitch.jpeg_quality)")
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail groups whose tiles differ in size")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Log progress instead of drawing a progress bar")
	return cmd
}

// recordHistory stores the result in the run ledger. Ledger failures are
// logged and never change the exit code.
func recordHistory(ctx context.Context, path string, result stitch.Result, logger *slog.Logger) {
	store, err := history.Open(path)
	if err != nil {
		logging.WarnWithContext(logger, "history unavailable", "history_open_failed",
			logging.String("path", path),
			logging.String(logging.FieldImpact, "run was not recorded"),
			logging.Error(err),
		)
		return
	}
	defer store.Close()
	if err := store.Record(context.WithoutCancel(ctx), result); err != nil {
		logging.WarnWithContext(logger, "history record failed", "history_record_failed",
			logging.String(logging.FieldRunID, result.RunID),
			logging.String(logging.FieldImpact, "run was not recorded"),
			logging.Error(err),
		)
	}
}

func runOutcomeError(result stitch.Result) error {
	switch result.Status {
	case stitch.StatusAborted:
		err := result.Err
		if err == nil {
			err = errors.New(result.Reason)
		}
		return &exitError{code: exitFailure, err: fmt.Errorf("run aborted: %w", err)}
	case stitch.StatusCancelled:
		return &exitError{code: exitCancelled, err: fmt.Errorf("run cancelled: %w", context.Canceled)}
	}
	if result.Failed() {
		return &exitError{
			code: exitFailure,
			err:  fmt.Errorf("completed with failures: %d of %d groups failed", result.Count(stitch.GroupFailed), result.Total()),
		}
	}
	return nil
}

func printRunSummary(out io.Writer, result stitch.Result, colorize bool) {
	kind, message := runStatusLine(result)
	fmt.Fprintln(out, renderStatusLine("Run", kind, message, colorize))
	if result.RunID != "" {
		fmt.Fprintln(out, renderStatusLine("Run ID", statusInfo, result.RunID, colorize))
	}
	fmt.Fprintln(out, renderStatusLine("Output", statusInfo, result.OutputDir, colorize))
	fmt.Fprintln(out, renderStatusLine("Duration", statusInfo, formatDuration(result.Duration()), colorize))
	for _, warning := range result.Warnings {
		fmt.Fprintln(out, renderStatusLine("Warning", statusWarn, warning, colorize))
	}
	if len(result.Groups) == 0 {
		return
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, renderOutcomeTable(result.Groups))
}

func runStatusLine(result stitch.Result) (statusKind, string) {
	switch result.Status {
	case stitch.StatusAborted:
		return statusError, fmt.Sprintf("aborted: %s", result.Reason)
	case stitch.StatusCancelled:
		return statusWarn, fmt.Sprintf("cancelled after %d of %d groups", result.Count(stitch.GroupStitched), result.Total())
	}
	if result.Failed() {
		return statusError, fmt.Sprintf("completed with failures: %d stitched, %d failed",
			result.Count(stitch.GroupStitched), result.Count(stitch.GroupFailed))
	}
	return statusOK, fmt.Sprintf("completed: %d of %d groups stitched", result.Count(stitch.GroupStitched), result.Total())
}

func renderOutcomeTable(groups []stitch.GroupOutcome) string {
	headers := []string{"Group", "Status", "Worker", "Tiles", "Grid", "Canvas", "Duration", "Error"}
	aligns := []columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignLeft}
	rows := make([][]string, 0, len(groups))
	tiles, stitched := 0, 0
	for _, g := range groups {
		tiles += g.Tiles
		if g.Status == stitch.GroupStitched {
			stitched++
		}
		worker := "-"
		if g.Worker >= 0 {
			worker = strconv.Itoa(g.Worker)
		}
		errText := "-"
		if g.Err != nil {
			errText = fmt.Sprintf("%s: %s", stitcherr.Kind(g.Err), truncate(g.Err.Error(), 60))
		}
		rows = append(rows, []string{
			g.Identifier,
			titleLabel(string(g.Status)),
			worker,
			strconv.Itoa(g.Tiles),
			formatSize(g.Grid),
			formatSize(g.Canvas),
			formatDuration(g.Duration),
			errText,
		})
	}
	footer := []string{"Total", fmt.Sprintf("%d/%d", stitched, len(groups)), "", strconv.Itoa(tiles)}
	return renderTable(tableSpec{headers: headers, aligns: aligns, rows: rows, footer: footer})
}

func truncate(value string, limit int) string {
	if limit <= 3 || len(value) <= limit {
		return value
	}
	return value[:limit-3] + "..."
}
