// Package app wires configuration into timetablers and runs solves for the
// CLI and the HTTP server.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/limaJavier/timetableplus/internal/store"
	"github.com/limaJavier/timetableplus/pkg/config"
	"github.com/limaJavier/timetableplus/pkg/csp"
	"github.com/limaJavier/timetableplus/pkg/model"
	"github.com/limaJavier/timetableplus/pkg/sat"

	"go.uber.org/zap"
)

// NewTimetabler builds the timetabler named by the solver configuration
func NewTimetabler(cfg config.SolverConfig, logger *zap.Logger) (model.Timetabler, error) {
	switch cfg.Name {
	case config.SolverBacktracking, "":
		return model.NewBacktrackingTimetabler(csp.Options{
			StepBudget:    cfg.StepBudget,
			MatchingCheck: cfg.MatchingCheck,
			Logger:        logger,
		}), nil
	case config.SolverGini:
		return satTimetabler(sat.NewGiniSolver(), logger), nil
	case config.SolverKissat:
		return satTimetabler(sat.NewKissatSolver(cfg.KissatPath), logger), nil
	case config.SolverCadical:
		return satTimetabler(sat.NewCadicalSolver(cfg.CadicalPath), logger), nil
	case config.SolverMinisat:
		return satTimetabler(sat.NewMinisatSolver(cfg.MinisatPath), logger), nil
	default:
		return nil, fmt.Errorf("unknown solver %q", cfg.Name)
	}
}

func satTimetabler(solver sat.SATSolver, logger *zap.Logger) model.Timetabler {
	return model.NewTimetabler(csp.NewSatSolver(solver), csp.Options{Logger: logger})
}

func BuildOptions(cfg config.ModelConfig, logger *zap.Logger) (model.BuildOptions, error) {
	policy, err := model.ParseSubjectPolicy(cfg.SubjectPolicy)
	if err != nil {
		return model.BuildOptions{}, err
	}
	return model.BuildOptions{IncludeTeachers: cfg.IncludeTeachers, SubjectPolicy: policy, Logger: logger}, nil
}

// Outcome summarises one solve
type Outcome struct {
	Timetables []model.Timetable
	Status     store.Status
	Stats      csp.Stats
	Duration   time.Duration
}

// Solve collects up to count timetables. A search stopped by its budget or
// context after at least one timetable still counts as solved.
func Solve(ctx context.Context, timetabler model.Timetabler, input model.ModelInput, options model.BuildOptions, count int) (Outcome, error) {
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	start := time.Now()

	timetables, err := timetabler.Build(ctx, input, options)
	if err != nil {
		return Outcome{Status: store.StatusFailed, Duration: time.Since(start)}, err
	}
	constraintModel := timetables.Model()
	logger.Debug("constraint model built",
		zap.Int("slots", len(constraintModel.Slots)),
		zap.Int("participants", len(constraintModel.Participants)),
		zap.Int("groups", len(constraintModel.CSP.Groups)),
	)

	collected, err := timetables.Collect(ctx, max(count, 1))
	outcome := Outcome{
		Timetables: collected,
		Stats:      timetables.Stats(),
		Duration:   time.Since(start),
	}

	switch {
	case len(collected) > 0:
		outcome.Status = store.StatusSolved
		if err != nil {
			logger.Warn("search stopped before the requested count", zap.Int("found", len(collected)), zap.Error(err))
		}
		return outcome, nil
	case errors.Is(err, model.ErrInfeasible):
		outcome.Status = store.StatusInfeasible
	default:
		outcome.Status = store.StatusFailed
	}

	logger.Info("solve finished",
		zap.String("status", string(outcome.Status)),
		zap.Int("nodes", outcome.Stats.Nodes),
		zap.Duration("duration", outcome.Duration),
	)
	return outcome, err
}

// Run describes the outcome as a history record; the first timetable is the one kept
func (outcome Outcome) Run(digest, solver string, shape model.GridShape) (*store.Run, model.Timetable, error) {
	run := &store.Run{
		InputDigest:    digest,
		Solver:         solver,
		Status:         outcome.Status,
		PeriodsPerWeek: shape.PeriodsPerWeek,
		PeriodsPerDay:  shape.PeriodsPerDay,
	}
	err := run.SetStats(store.RunStats{
		Nodes:      outcome.Stats.Nodes,
		Backtracks: outcome.Stats.Backtracks,
		Solutions:  outcome.Stats.Solutions,
		DurationMs: outcome.Duration.Milliseconds(),
	})

	var timetable model.Timetable
	if len(outcome.Timetables) > 0 {
		timetable = outcome.Timetables[0]
	}
	return run, timetable, err
}
