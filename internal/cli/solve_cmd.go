package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	engine "github.com/limaJavier/timetableplus/internal/app"
	"github.com/limaJavier/timetableplus/internal/store"
	"github.com/limaJavier/timetableplus/pkg/config"
	"github.com/limaJavier/timetableplus/pkg/export"
	"github.com/limaJavier/timetableplus/pkg/input"
	"github.com/limaJavier/timetableplus/pkg/model"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type solveFlags struct {
	file   string
	count  int
	format string
	out    string
	save   bool
}

func newSolveCmd(app *App) *cobra.Command {
	var flags solveFlags

	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Build timetables for an input file",
		Long: fmt.Sprintf(`Build up to --count timetables for a JSON or XLSX input file.

Exits with %d when at least one timetable was produced and %d when no
timetable exists for the input.`, ExitSolved, ExitInfeasible),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runSolve(cmd, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.file, "file", "f", "", "Input file (.json or .xlsx)")
	cmd.Flags().IntVarP(&flags.count, "count", "n", 1, "Number of timetables to produce")
	cmd.Flags().StringVar(&flags.format, "format", "", "Output format: ascii, json, csv, xlsx or pdf (guessed from --out when empty)")
	cmd.Flags().StringVarP(&flags.out, "out", "o", "", "Output file; further timetables get a -2, -3... suffix")
	cmd.Flags().BoolVar(&flags.save, "save", false, "Record the run in the history database")
	addModelFlags(cmd)
	cmd.Flags().String("solver", "", fmt.Sprintf("Solver: %s", strings.Join(config.Solvers, ", ")))
	cmd.Flags().Int("step-budget", 0, "Maximum search steps before giving up (0 means unlimited)")
	cmd.Flags().Duration("timeout", 0, "Maximum search time (0 means unlimited)")
	cmd.Flags().String("db-path", "", "History database path")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

// addModelFlags registers the flags that shape how inputs are read and modelled
func addModelFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("include-teachers", false, "Constrain teachers as well as students")
	cmd.Flags().String("subject-policy", "", "Duplicate subject handling: reject or coalesce")
	cmd.Flags().Int("periods-per-week", 0, "Periods per week when the input does not say")
	cmd.Flags().Int("periods-per-day", 0, "Periods per day when the input does not say")
}

func (app *App) runSolve(cmd *cobra.Command, flags solveFlags) error {
	if flags.count < 1 {
		return fmt.Errorf("count must be positive: %d", flags.count)
	}

	format, err := resolveFormat(flags.format, flags.out)
	if err != nil {
		return err
	}

	cfg, log, err := app.setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	//** Load input
	modelInput, err := input.Load(flags.file, defaultShape(cfg))
	if err != nil {
		return err
	}

	timetabler, err := engine.NewTimetabler(cfg.Solver, log)
	if err != nil {
		return err
	}
	options, err := engine.BuildOptions(cfg.Model, log)
	if err != nil {
		return err
	}

	//** Solve
	ctx := cmd.Context()
	if cfg.Solver.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Solver.Timeout)
		defer cancel()
	}

	outcome, solveErr := engine.Solve(ctx, timetabler, modelInput, options, flags.count)
	fmt.Fprintf(cmd.ErrOrStderr(), "Status: %s  Solutions: %d  Nodes: %d  Backtracks: %d  Time: %s\n",
		outcome.Status, len(outcome.Timetables), outcome.Stats.Nodes, outcome.Stats.Backtracks, outcome.Duration.Round(time.Millisecond))

	//** Record run
	if flags.save && (solveErr == nil || errors.Is(solveErr, model.ErrInfeasible)) {
		if err := saveRun(cmd, cfg, modelInput, options, outcome); err != nil {
			return err
		}
	}

	if errors.Is(solveErr, model.ErrInfeasible) {
		return &ExitError{Code: ExitInfeasible, Err: solveErr}
	} else if solveErr != nil {
		return solveErr
	}

	//** Verify and write
	for i, timetable := range outcome.Timetables {
		if err := model.Validate(timetable, modelInput, options); err != nil {
			log.Error("produced timetable failed verification", zap.Int("timetable", i+1), zap.Error(err))
			return &ExitError{Code: ExitInvalid, Err: err}
		}
	}

	if err := writeTimetables(cmd.OutOrStdout(), outcome.Timetables, modelInput.Shape, format, flags.out); err != nil {
		return err
	}

	app.exitCode = ExitSolved
	return nil
}

func saveRun(cmd *cobra.Command, cfg *config.Config, modelInput model.ModelInput, options model.BuildOptions, outcome engine.Outcome) error {
	history, err := store.Open(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer history.Close()

	digest, err := store.InputDigest(modelInput, cfg.Solver.Name, strconv.FormatBool(options.IncludeTeachers), string(options.SubjectPolicy))
	if err != nil {
		return err
	}

	run, timetable, err := outcome.Run(digest, cfg.Solver.Name, modelInput.Shape)
	if err != nil {
		return err
	}
	if err := history.SaveRun(cmd.Context(), run, timetable); err != nil {
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Saved run %s\n", run.ID)
	return nil
}

// resolveFormat prefers the explicit format, then the output extension
func resolveFormat(format, out string) (export.Format, error) {
	if format != "" {
		candidate := export.Format(strings.ToLower(format))
		for _, known := range export.Formats {
			if candidate == known {
				return candidate, nil
			}
		}
		return "", fmt.Errorf("unknown format %q", format)
	}

	if out != "" {
		if guessed, ok := export.FormatFromPath(out); ok {
			return guessed, nil
		}
	}
	return export.ASCII, nil
}

func writeTimetables(stdout io.Writer, timetables []model.Timetable, shape model.GridShape, format export.Format, out string) error {
	if out == "" {
		if file, ok := stdout.(*os.File); ok && format.Binary() && export.IsTerminal(file) {
			return fmt.Errorf("refusing to write %s to a terminal, use --out", format)
		}

		exporter, err := export.New(format, export.Options{Color: isTerminal(stdout), Title: "Timetable"})
		if err != nil {
			return err
		}
		for i, timetable := range timetables {
			if len(timetables) > 1 && format == export.ASCII {
				fmt.Fprintf(stdout, "Timetable %d\n", i+1)
			}
			if err := exporter.Export(stdout, timetable, shape); err != nil {
				return err
			}
		}
		return nil
	}

	for i, timetable := range timetables {
		title := "Timetable"
		if len(timetables) > 1 {
			title = fmt.Sprintf("Timetable %d", i+1)
		}
		exporter, err := export.New(format, export.Options{Title: title})
		if err != nil {
			return err
		}
		if err := exportToFile(exporter, numberedPath(out, i), timetable, shape); err != nil {
			return err
		}
	}
	return nil
}

func exportToFile(exporter export.Exporter, path string, timetable model.Timetable, shape model.GridShape) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); err == nil {
			err = closeErr
		}
	}()

	return exporter.Export(file, timetable, shape)
}

// numberedPath keeps the first path and suffixes later ones: out.json, out-2.json
func numberedPath(path string, index int) string {
	if index == 0 {
		return path
	}
	extension := filepath.Ext(path)
	return fmt.Sprintf("%s-%d%s", strings.TrimSuffix(path, extension), index+1, extension)
}

func isTerminal(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	return ok && export.IsTerminal(file)
}

func defaultShape(cfg *config.Config) model.GridShape {
	return model.GridShape{PeriodsPerWeek: cfg.Grid.PeriodsPerWeek, PeriodsPerDay: cfg.Grid.PeriodsPerDay}
}
