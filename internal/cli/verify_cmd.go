package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	engine "github.com/limaJavier/timetableplus/internal/app"
	"github.com/limaJavier/timetableplus/pkg/input"
	"github.com/limaJavier/timetableplus/pkg/model"

	"github.com/spf13/cobra"
)

func newVerifyCmd(app *App) *cobra.Command {
	var file, timetablePath string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check a timetable against an input file",
		Long: fmt.Sprintf(`Check that a timetable (as written by "solve --format json") schedules every
subject of the input with no participant clash. Exits with %d when it does not.`, ExitInvalid),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := app.setup(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			modelInput, err := input.Load(file, defaultShape(cfg))
			if err != nil {
				return err
			}
			options, err := engine.BuildOptions(cfg.Model, log)
			if err != nil {
				return err
			}
			timetable, err := readTimetable(timetablePath)
			if err != nil {
				return err
			}

			if err := model.Validate(timetable, modelInput, options); err != nil {
				return &ExitError{Code: ExitInvalid, Err: fmt.Errorf("timetable is not valid: %w", err)}
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Timetable is valid")
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Input file (.json or .xlsx)")
	cmd.Flags().StringVarP(&timetablePath, "timetable", "t", "", "Timetable JSON file")
	addModelFlags(cmd)
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("timetable")

	return cmd
}

// readTimetable accepts an exported JSON document or a bare list of entries
func readTimetable(path string) (model.Timetable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var timetable model.Timetable
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '[' {
		err = json.Unmarshal(trimmed, &timetable)
	} else {
		var document struct {
			Timetable model.Timetable `json:"timetable"`
		}
		err = json.Unmarshal(trimmed, &document)
		timetable = document.Timetable
	}
	if err != nil {
		return nil, fmt.Errorf("cannot parse timetable %s: %w", path, err)
	}
	return timetable, nil
}
