package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"stitcher/internal/config"
	"stitcher/internal/stitch"
)

type planView struct {
	Identifier string   `json:"identifier"`
	Tiles      int      `json:"tiles"`
	Columns    int      `json:"columns"`
	Rows       int      `json:"rows"`
	Missing    int      `json:"missing"`
	Duplicates []string `json:"duplicates,omitempty"`
	Output     string   `json:"output"`
}

func newPlanCommand(ctx *commandContext) *cobra.Command {
	var outputDir string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "plan <input-dir>",
		Short: "List the groups a run would stitch without decoding or writing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.newLogger(cmd)
			if err != nil {
				return err
			}
			target := cfg.Paths.OutputDir
			if strings.TrimSpace(outputDir) != "" {
				if target, err = config.ExpandPath(strings.TrimSpace(outputDir)); err != nil {
					return fmt.Errorf("resolve output directory: %w", err)
				}
			}
			input, err := config.ExpandPath(strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("resolve input directory: %w", err)
			}

			engine := stitch.NewEngine(stitch.OptionsFromConfig(cfg), logger)
			plans, err := engine.PlanGroups(input, target)
			if err != nil {
				return fmt.Errorf("plan %s: %w", input, err)
			}

			views := make([]planView, 0, len(plans))
			for _, p := range plans {
				views = append(views, toPlanView(p))
			}
			if asJSON {
				return writeJSON(cmd, views)
			}

			out := cmd.OutOrStdout()
			if len(views) == 0 {
				fmt.Fprintf(out, "No tile groups found in %s\n", input)
				return nil
			}
			fmt.Fprintln(out, renderPlanTable(views))
			fmt.Fprintf(out, "%d groups, %d workers, output %s\n", len(views), engine.Workers(), target)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory used for the listed paths")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the plan as JSON")
	return cmd
}

func toPlanView(p stitch.Plan) planView {
	view := planView{
		Identifier: p.Identifier,
		Tiles:      p.Tiles,
		Columns:    p.Grid.X,
		Rows:       p.Grid.Y,
		Missing:    p.Missing,
		Output:     p.Output,
	}
	for _, cell := range p.Duplicates {
		view.Duplicates = append(view.Duplicates, fmt.Sprintf("x%d,y%d", cell.X, cell.Y))
	}
	return view
}

func renderPlanTable(views []planView) string {
	headers := []string{"Group", "Tiles", "Grid", "Missing", "Duplicates", "Output"}
	aligns := []columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignLeft, alignLeft}
	rows := make([][]string, 0, len(views))
	for _, v := range views {
		dups := "-"
		if len(v.Duplicates) > 0 {
			dups = strings.Join(v.Duplicates, " ")
		}
		rows = append(rows, []string{
			v.Identifier,
			strconv.Itoa(v.Tiles),
			fmt.Sprintf("%dx%d", v.Columns, v.Rows),
			strconv.Itoa(v.Missing),
			dups,
			v.Output,
		})
	}
	return renderTable(tableSpec{headers: headers, aligns: aligns, rows: rows})
}
