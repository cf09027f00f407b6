package model

import (
	"context"

	"github.com/limaJavier/timetableplus/pkg/csp"
	"github.com/limaJavier/timetableplus/pkg/sat"

	"go.uber.org/zap"
)

type Timetabler interface {
	Build(
		ctx context.Context,
		modelInput ModelInput,
		options BuildOptions,
	) (*Timetables, error)

	Verify(
		timetable Timetable,
		modelInput ModelInput,
		options BuildOptions,
	) bool
}

type cspTimetabler struct {
	solver  csp.Solver
	options csp.Options
}

// NewTimetabler schedules with any csp.Solver
func NewTimetabler(solver csp.Solver, options csp.Options) Timetabler {
	return &cspTimetabler{solver: solver, options: options}
}

func NewBacktrackingTimetabler(options csp.Options) Timetabler {
	return NewTimetabler(csp.NewBacktrackingSolver(), options)
}

func NewSatTimetabler(solver sat.SATSolver) Timetabler {
	return NewTimetabler(csp.NewSatSolver(solver), csp.Options{})
}

func (timetabler *cspTimetabler) Build(ctx context.Context, modelInput ModelInput, options BuildOptions) (*Timetables, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	model, err := Build(modelInput, options)
	if err != nil {
		return nil, err
	}

	solverOptions := timetabler.options
	if solverOptions.Logger == nil {
		solverOptions.Logger = options.Logger
	}

	return &Timetables{
		model:      model,
		enumerator: timetabler.solver.Solve(model.CSP, solverOptions),
		logger:     options.logger(),
	}, nil
}

func (timetabler *cspTimetabler) Verify(timetable Timetable, modelInput ModelInput, options BuildOptions) bool {
	return Validate(timetable, modelInput, options) == nil
}

// Timetables is a lazy stream of timetables for one model. It follows the
// enumerator protocol: call Next until it returns false, then inspect Err and
// Infeasible.
type Timetables struct {
	model      *ConstraintModel
	enumerator csp.Enumerator
	current    Timetable
	err        error
	logger     *zap.Logger
}

func (timetables *Timetables) Next(ctx context.Context) bool {
	if timetables.err != nil || !timetables.enumerator.Next(ctx) {
		return false
	}

	timetable, err := Map(timetables.model, timetables.enumerator.Assignment())
	if err != nil {
		timetables.err = err
		return false
	}
	timetables.current = timetable
	return true
}

func (timetables *Timetables) Timetable() Timetable {
	return timetables.current
}

func (timetables *Timetables) Err() error {
	if timetables.err != nil {
		return timetables.err
	}
	return timetables.enumerator.Err()
}

// Infeasible reports an exhausted search that never produced a timetable
func (timetables *Timetables) Infeasible() bool {
	return timetables.enumerator.Exhausted() && timetables.enumerator.Stats().Solutions == 0
}

func (timetables *Timetables) Exhausted() bool {
	return timetables.enumerator.Exhausted()
}

func (timetables *Timetables) Stats() csp.Stats {
	return timetables.enumerator.Stats()
}

func (timetables *Timetables) Model() *ConstraintModel {
	return timetables.model
}

// First returns the next timetable, or ErrInfeasible when none exists
func (timetables *Timetables) First(ctx context.Context) (Timetable, error) {
	if timetables.Next(ctx) {
		return timetables.current, nil
	} else if err := timetables.Err(); err != nil {
		return nil, err
	}
	timetables.logger.Debug("no timetable found", zap.Int("nodes", timetables.Stats().Nodes))
	return nil, ErrInfeasible
}

// Collect gathers up to limit timetables (limit <= 0 gathers all of them)
func (timetables *Timetables) Collect(ctx context.Context, limit int) ([]Timetable, error) {
	collected := make([]Timetable, 0)
	for (limit <= 0 || len(collected) < limit) && timetables.Next(ctx) {
		collected = append(collected, timetables.current)
	}
	if err := timetables.Err(); err != nil {
		return collected, err
	} else if len(collected) == 0 && timetables.Infeasible() {
		return nil, ErrInfeasible
	}
	return collected, nil
}
