package csp

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// ErrStepBudget is reported by Enumerator.Err when a Next call spent its step budget.
// The enumerator keeps its state, so calling Next again resumes the search.
var ErrStepBudget = errors.New("search step budget exhausted")

// Solver is the capability the scheduler needs from a constraint solver: given
// variables with domains and all-different groups, produce a lazy sequence of
// assignments.
type Solver interface {
	Solve(problem CSP, options Options) Enumerator
}

// Enumerator is a pull iterator over the solutions of a CSP.
//
//	for enumerator.Next(ctx) {
//		use(enumerator.Assignment())
//	}
//	if err := enumerator.Err(); err != nil { ... }
//	if enumerator.Exhausted() && enumerator.Stats().Solutions == 0 { /* infeasible */ }
type Enumerator interface {
	// Next advances to the next solution; false means exhaustion or a stop reported by Err
	Next(ctx context.Context) bool
	// Assignment returns the solution produced by the last successful Next
	Assignment() Assignment
	Err() error
	// Exhausted reports whether the whole search space has been explored
	Exhausted() bool
	Stats() Stats
}

type Options struct {
	// StepBudget bounds the search steps of a single Next call; zero means unlimited
	StepBudget int
	// MatchingCheck prunes with a bipartite matching over every group touched by an assignment
	MatchingCheck bool
	Logger        *zap.Logger
}

type Stats struct {
	Nodes      int
	Backtracks int
	Solutions  int
}

func (options Options) logger() *zap.Logger {
	if options.Logger == nil {
		return zap.NewNop()
	}
	return options.Logger
}

// Collect drains up to limit solutions (limit <= 0 drains everything)
func Collect(ctx context.Context, enumerator Enumerator, limit int) ([]Assignment, error) {
	assignments := make([]Assignment, 0)
	for (limit <= 0 || len(assignments) < limit) && enumerator.Next(ctx) {
		assignments = append(assignments, enumerator.Assignment())
	}
	return assignments, enumerator.Err()
}
