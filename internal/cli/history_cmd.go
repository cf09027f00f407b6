package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/limaJavier/timetableplus/internal/store"
	"github.com/limaJavier/timetableplus/pkg/export"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func newHistoryCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect saved solve runs",
	}
	cmd.PersistentFlags().String("db-path", "", "History database path")

	cmd.AddCommand(
		newHistoryListCmd(app),
		newHistoryShowCmd(app),
	)

	return cmd
}

func newHistoryListCmd(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the most recent runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			history, err := app.openHistory(cmd)
			if err != nil {
				return err
			}
			defer history.Close()

			runs, err := history.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
				return nil
			}

			rows := lo.Map(runs, func(run store.Run, _ int) []string {
				stats, _ := run.DecodeStats()
				return []string{
					run.ID,
					run.CreatedAt.Local().Format(time.DateTime),
					run.Solver,
					string(run.Status),
					fmt.Sprintf("%d/%d", run.PeriodsPerWeek, run.PeriodsPerDay),
					strconv.Itoa(stats.Nodes),
					(time.Duration(stats.DurationMs) * time.Millisecond).String(),
				}
			})

			rendered := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("ID", "Created", "Solver", "Status", "Grid", "Nodes", "Time").
				Rows(rows...).
				Render()
			fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs")

	return cmd
}

func newHistoryShowCmd(app *App) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Print the timetable kept for a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resolved, err := resolveFormat(format, "")
			if err != nil {
				return err
			} else if resolved.Binary() {
				return fmt.Errorf("%s cannot be shown, use \"solve --out\" to write it", resolved)
			}

			history, err := app.openHistory(cmd)
			if err != nil {
				return err
			}
			defer history.Close()

			run, timetable, err := history.GetRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "Run %s (%s, %s) created %s\n", run.ID, run.Solver, run.Status, run.CreatedAt.Local().Format(time.DateTime))
			if timetable == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Run %s is %s and has no timetable.\n", run.ID, run.Status)
				return nil
			}

			exporter, err := export.New(resolved, export.Options{Color: isTerminal(cmd.OutOrStdout())})
			if err != nil {
				return err
			}
			return exporter.Export(cmd.OutOrStdout(), timetable, run.Shape())
		},
	}

	cmd.Flags().StringVar(&format, "format", "ascii", "Output format: ascii, json or csv")

	return cmd
}

func (app *App) openHistory(cmd *cobra.Command) (*store.Store, error) {
	cfg, log, err := app.setup(cmd)
	if err != nil {
		return nil, err
	}
	defer func() { _ = log.Sync() }()

	return store.Open(cfg.Store.Path)
}
