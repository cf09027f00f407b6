package csp

import (
	"context"
	"fmt"

	"github.com/limaJavier/timetableplus/pkg/sat"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

type satBackedSolver struct {
	solver sat.SATSolver
}

// NewSatSolver delegates the search to a SAT solver through a one-hot encoding.
// Successive solutions are obtained by blocking the previous ones, so the order
// of solutions is whatever the SAT solver produces.
func NewSatSolver(solver sat.SATSolver) Solver {
	return &satBackedSolver{solver: solver}
}

func (solver *satBackedSolver) Solve(problem CSP, options Options) Enumerator {
	return &satSearch{
		problem: problem,
		solver:  solver.solver,
		logger:  options.logger(),
	}
}

type constraintState struct {
	problem CSP
	indexer indexer
}

type satSearch struct {
	problem CSP
	solver  sat.SATSolver
	logger  *zap.Logger
	state   constraintState

	instance  sat.SAT
	started   bool
	exhausted bool
	current   Assignment
	err       error
	stats     Stats
}

func (search *satSearch) Next(ctx context.Context) bool {
	search.err = nil
	if search.exhausted {
		return false
	}
	if err := ctx.Err(); err != nil {
		search.err = err
		return false
	}

	if !search.started {
		search.started = true
		if !rootFeasible(search.problem, initialDomains(search.problem)) {
			search.finish()
			return false
		}
		search.state = constraintState{
			problem: search.problem,
			indexer: newIndexer(uint64(len(search.problem.Variables)), uint64(max(search.problem.Width(), 1))),
		}
		search.instance = buildSat(search.state, []func(state constraintState) [][]int64{
			exactlyOneConstraints,
			allDifferentConstraints,
		})
		search.logger.Debug("sat instance built",
			zap.Uint64("variables", search.instance.Variables),
			zap.Int("clauses", len(search.instance.Clauses)),
		)
	}

	//** Solve SAT instance
	search.stats.Nodes++
	solution, err := search.solver.Solve(search.instance)
	if err != nil {
		search.err = fmt.Errorf("sat solver failed: %w", err)
		return false
	} else if solution == nil { // No further solution
		search.finish()
		return false
	}

	assignment, err := search.decode(solution)
	if err != nil {
		search.err = err
		return false
	}

	// Block the solution so the next call yields a different one
	search.instance.Clauses = append(search.instance.Clauses, sat.Block(solution, func(literal int64) bool {
		return uint64(literal) <= search.instance.Variables
	}))
	search.current = assignment
	search.stats.Solutions++
	return true
}

func (search *satSearch) Assignment() Assignment {
	return search.current
}

func (search *satSearch) Err() error {
	return search.err
}

func (search *satSearch) Exhausted() bool {
	return search.exhausted
}

func (search *satSearch) Stats() Stats {
	return search.stats
}

func (search *satSearch) finish() {
	search.exhausted = true
	search.current = nil
	search.logger.Debug("search exhausted", zap.Int("solutions", search.stats.Solutions))
}

// decode reads, for every variable, the domain value whose literal is true
func (search *satSearch) decode(solution sat.SATSolution) (Assignment, error) {
	positives := lo.SliceToMap(lo.Filter(solution, func(literal int64, _ int) bool { return literal > 0 }), func(literal int64) (int64, bool) {
		return literal, true
	})

	assignment := make(Assignment, len(search.problem.Variables))
	for variable, definition := range search.problem.Variables {
		value, ok := lo.Find(definition.Domain, func(value int) bool {
			return positives[int64(search.state.indexer.Index(uint64(variable), uint64(value)))]
		})
		if !ok {
			return nil, fmt.Errorf("sat solution leaves variable %q without a value", definition.Name)
		}
		assignment[variable] = value
	}
	return assignment, nil
}

func buildSat(state constraintState, constraints []func(state constraintState) [][]int64) sat.SAT {
	satInstance := sat.SAT{
		Variables: uint64(len(state.problem.Variables)) * uint64(max(state.problem.Width(), 1)),
		Clauses:   [][]int64{},
	}

	type result struct {
		position int
		clauses  [][]int64
	}
	constraintsChannel := make(chan result) // Channel to collect constraints

	// Execute constraints functions on different goroutines to improve performance
	for position, constraint := range constraints {
		go func() {
			constraintsChannel <- result{position: position, clauses: constraint(state)}
		}()
	}

	// Collect generated constraints, keeping the declaration order so the instance is deterministic
	collected := make([][][]int64, len(constraints))
	for range constraints {
		r := <-constraintsChannel
		collected[r.position] = r.clauses
	}
	for _, clauses := range collected {
		satInstance.Clauses = append(satInstance.Clauses, clauses...)
	}

	return satInstance
}

// exactlyOneConstraints: every variable takes exactly one of its domain values
func exactlyOneConstraints(state constraintState) [][]int64 {
	clauses := make([][]int64, 0)
	for variable, definition := range state.problem.Variables {
		literals := lo.Map(definition.Domain, func(value int, _ int) int64 {
			return int64(state.indexer.Index(uint64(variable), uint64(value)))
		})
		clauses = append(clauses, literals) // At least one

		for i := range len(literals) - 1 { // At most one
			for j := i + 1; j < len(literals); j++ {
				clauses = append(clauses, []int64{-literals[i], -literals[j]})
			}
		}
	}
	return clauses
}

// allDifferentConstraints: two members of a group never share a value
func allDifferentConstraints(state constraintState) [][]int64 {
	clauses := make([][]int64, 0)
	for _, group := range state.problem.Groups {
		for i := range len(group) - 1 {
			for j := i + 1; j < len(group); j++ {
				variable1, variable2 := group[i], group[j]
				for _, value := range state.problem.Variables[variable1].Domain {
					if !lo.Contains(state.problem.Variables[variable2].Domain, value) {
						continue
					}
					clauses = append(clauses, []int64{
						-int64(state.indexer.Index(uint64(variable1), uint64(value))),
						-int64(state.indexer.Index(uint64(variable2), uint64(value))),
					})
				}
			}
		}
	}
	return clauses
}
