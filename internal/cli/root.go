// Package cli implements the timetable command line.
package cli

import (
	"errors"
	"fmt"

	"github.com/limaJavier/timetableplus/pkg/config"
	"github.com/limaJavier/timetableplus/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Exit codes follow SAT solver conventions
const (
	ExitSolved     = 10
	ExitInvalid    = 15
	ExitInfeasible = 20
)

// ExitError carries a process exit code along with its cause
type ExitError struct {
	Code int
	Err  error
}

func (err *ExitError) Error() string { return err.Err.Error() }

func (err *ExitError) Unwrap() error { return err.Err }

// App holds the state shared by all commands of one invocation
type App struct {
	ConfigFile string

	exitCode int
}

// NewRootCmd creates the top-level "timetable" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "timetable",
		Short:         "Weekly school timetable generator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&app.ConfigFile, "config", "", "Configuration file (defaults to ./timetable.yaml when present)")
	root.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")

	root.AddCommand(
		newSolveCmd(app),
		newVerifyCmd(app),
		newTemplateCmd(app),
		newHistoryCmd(app),
		newServeCmd(app),
	)

	return root
}

// ExitCode maps the result of Execute to a process exit code
func (app *App) ExitCode(err error) int {
	var exit *ExitError
	switch {
	case errors.As(err, &exit):
		return exit.Code
	case err != nil:
		return 1
	}
	return app.exitCode
}

func (app *App) setup(cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(app.ConfigFile, cmd.Flags())
	if err != nil {
		return nil, nil, err
	}

	log, err := logger.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot build logger: %w", err)
	}
	return cfg, log, nil
}
