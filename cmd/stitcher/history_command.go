package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"stitcher/internal/config"
	"stitcher/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect the ledger of finished runs",
	}

	historyCmd.AddCommand(newHistoryListCommand(ctx))
	historyCmd.AddCommand(newHistoryShowCommand(ctx))
	historyCmd.AddCommand(newHistoryPruneCommand(ctx))

	return historyCmd
}

func (c *commandContext) withHistory(fn func(*history.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	if !cfg.History.Enabled {
		return errors.New("run history is disabled; set [history] enabled = true to record runs")
	}
	store, err := history.Open(cfg.Paths.HistoryDB)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func newHistoryListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(store *history.Store) error {
				runs, err := store.List(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, runs)
				}
				out := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs recorded")
					return nil
				}
				fmt.Fprintln(out, renderRunTable(runs))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit runs as JSON")
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run and its per-group outcomes",
		Long:  "Show one run. Any unique prefix of the run id is accepted.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(store *history.Store) error {
				run, groups, err := store.Get(cmd.Context(), args[0])
				switch {
				case errors.Is(err, history.ErrNotFound):
					return fmt.Errorf("run %q not found", args[0])
				case errors.Is(err, history.ErrAmbiguous):
					return fmt.Errorf("run id prefix %q matches several runs; use more characters", args[0])
				case err != nil:
					return err
				}

				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				fmt.Fprintln(out, renderStatusLine("Run", historyStatusKind(run), run.ID, colorize))
				fmt.Fprintln(out, renderStatusLine("Status", historyStatusKind(run), titleLabel(run.Status), colorize))
				if run.Reason != "" {
					fmt.Fprintln(out, renderStatusLine("Reason", statusInfo, run.Reason, colorize))
				}
				fmt.Fprintln(out, renderStatusLine("Input", statusInfo, run.InputDir, colorize))
				fmt.Fprintln(out, renderStatusLine("Output", statusInfo, run.OutputDir, colorize))
				fmt.Fprintln(out, renderStatusLine("Started", statusInfo, formatTimestamp(run.Started), colorize))
				fmt.Fprintln(out, renderStatusLine("Duration", statusInfo, formatDuration(run.Duration()), colorize))
				fmt.Fprintln(out, renderStatusLine("Workers", statusInfo, strconv.Itoa(run.Workers), colorize))
				for _, warning := range run.Warnings {
					fmt.Fprintln(out, renderStatusLine("Warning", statusWarn, warning, colorize))
				}
				if len(groups) > 0 {
					fmt.Fprintln(out)
					fmt.Fprintln(out, renderHistoryGroupTable(groups))
				}
				return nil
			})
		},
	}
}

func newHistoryPruneCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete runs older than a cutoff",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 {
				return errors.New("--older-than must be positive")
			}
			return ctx.withHistory(func(store *history.Store) error {
				removed, err := store.Prune(cmd.Context(), time.Now().Add(-olderThan))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d runs older than %s\n", removed, olderThan)
				return nil
			})
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Age cutoff, e.g. 720h")
	return cmd
}

func historyStatusKind(run history.Run) statusKind {
	switch {
	case run.Status == "aborted" || run.Failed > 0:
		return statusError
	case run.Status == "cancelled":
		return statusWarn
	default:
		return statusOK
	}
}

func renderRunTable(runs []history.Run) string {
	headers := []string{"ID", "Started", "Status", "Groups", "Stitched", "Failed", "Duration", "Input"}
	aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft}
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			shortID(run.ID),
			formatTimestamp(run.Started),
			titleLabel(run.Status),
			strconv.Itoa(run.Total),
			strconv.Itoa(run.Stitched),
			strconv.Itoa(run.Failed),
			formatDuration(run.Duration()),
			shortenHome(run.InputDir),
		})
	}
	return renderTable(tableSpec{headers: headers, aligns: aligns, rows: rows})
}

func renderHistoryGroupTable(groups []history.Group) string {
	headers := []string{"Group", "Status", "Tiles", "Grid", "Canvas", "Duration", "Error"}
	aligns := []columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft}
	rows := make([][]string, 0, len(groups))
	for _, g := range groups {
		errText := "-"
		if g.ErrorKind != "" {
			errText = fmt.Sprintf("%s: %s", g.ErrorKind, truncate(g.ErrorMessage, 60))
		}
		rows = append(rows, []string{
			g.Identifier,
			titleLabel(g.Status),
			strconv.Itoa(g.Tiles),
			fmt.Sprintf("%dx%d", g.GridWidth, g.GridHeight),
			fmt.Sprintf("%dx%d", g.CanvasWidth, g.CanvasHeight),
			formatDuration(g.Duration),
			errText,
		})
	}
	return renderTable(tableSpec{headers: headers, aligns: aligns, rows: rows})
}

// shortenHome replaces the home directory prefix with ~ for display.
func shortenHome(path string) string {
	home, err := config.ExpandPath("~")
	if err != nil || home == "" || !strings.HasPrefix(path, home) {
		return orDash(path)
	}
	return "~" + strings.TrimPrefix(path, home)
}
