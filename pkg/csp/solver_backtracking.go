package csp

import (
	"context"
	"slices"

	"go.uber.org/zap"
)

// contextCheckInterval is the number of steps between two polls of the context
const contextCheckInterval = 256

type backtrackingSolver struct{}

// NewBacktrackingSolver returns a depth-first solver that picks the unassigned
// variable with the fewest remaining values (smallest maximum on ties) and tries
// values from the middle of its domain outwards.
func NewBacktrackingSolver() Solver {
	return &backtrackingSolver{}
}

func (solver *backtrackingSolver) Solve(problem CSP, options Options) Enumerator {
	return newBacktrackingSearch(problem, options)
}

// removal records a value pruned from a domain so it can be restored on backtrack
type removal struct {
	variable int
	value    int
}

type choicePoint struct {
	variable   int
	candidates []int // Values not tried yet, in trial order
	mark       int   // Trail length before the variable was assigned
}

type backtrackingSearch struct {
	problem CSP
	options Options
	logger  *zap.Logger

	peers    [][]int // Variables sharing at least one group, per variable
	groupsOf [][]int // Groups containing the variable, per variable

	domains []domain
	values  []int
	stack   []choicePoint
	trail   []removal

	started   bool
	exhausted bool
	advance   bool // The top choice point must move to its next candidate

	current Assignment
	err     error
	stats   Stats
}

func newBacktrackingSearch(problem CSP, options Options) *backtrackingSearch {
	search := &backtrackingSearch{
		problem:  problem,
		options:  options,
		logger:   options.logger(),
		peers:    make([][]int, len(problem.Variables)),
		groupsOf: make([][]int, len(problem.Variables)),
		values:   make([]int, len(problem.Variables)),
	}

	for i := range search.values {
		search.values[i] = Unassigned
	}

	for groupIndex, group := range problem.Groups {
		for _, variable := range group {
			search.groupsOf[variable] = append(search.groupsOf[variable], groupIndex)
			for _, peer := range group {
				if peer != variable {
					search.peers[variable] = append(search.peers[variable], peer)
				}
			}
		}
	}
	for variable := range search.peers {
		slices.Sort(search.peers[variable])
		search.peers[variable] = slices.Compact(search.peers[variable])
	}

	return search
}

func (search *backtrackingSearch) Next(ctx context.Context) bool {
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
		search.domains = initialDomains(search.problem)
		search.logger.Debug("search started",
			zap.Int("variables", len(search.problem.Variables)),
			zap.Int("groups", len(search.problem.Groups)),
		)
		if !rootFeasible(search.problem, search.domains) {
			search.finish()
			return false
		}
	}

	for steps := 1; ; steps++ {
		if steps%contextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				search.err = err
				return false
			}
		}
		if search.options.StepBudget > 0 && steps > search.options.StepBudget {
			search.err = ErrStepBudget
			return false
		}

		if search.advance {
			if len(search.stack) == 0 {
				search.finish()
				return false
			}

			top := &search.stack[len(search.stack)-1]
			search.undo(top)
			if len(top.candidates) == 0 {
				search.stack = search.stack[:len(search.stack)-1]
				search.stats.Backtracks++
				continue
			}

			value := top.candidates[0]
			top.candidates = top.candidates[1:]
			search.stats.Nodes++
			if search.assign(top.variable, value) {
				search.advance = false
			}
			continue
		}

		variable := search.selectVariable()
		if variable == Unassigned {
			search.current = slices.Clone(search.values)
			search.stats.Solutions++
			search.advance = true // Resuming continues from the deepest choice point
			return true
		}

		search.stack = append(search.stack, choicePoint{
			variable:   variable,
			candidates: search.orderValues(variable),
			mark:       len(search.trail),
		})
		search.advance = true
	}
}

func (search *backtrackingSearch) Assignment() Assignment {
	return search.current
}

func (search *backtrackingSearch) Err() error {
	return search.err
}

func (search *backtrackingSearch) Exhausted() bool {
	return search.exhausted
}

func (search *backtrackingSearch) Stats() Stats {
	return search.stats
}

func (search *backtrackingSearch) finish() {
	search.exhausted = true
	search.current = nil
	search.stack = nil
	search.trail = nil
	search.logger.Debug("search exhausted",
		zap.Int("solutions", search.stats.Solutions),
		zap.Int("nodes", search.stats.Nodes),
		zap.Int("backtracks", search.stats.Backtracks),
	)
}

// selectVariable applies minimum-remaining-values, breaking ties by the smallest domain maximum and then by declaration order
func (search *backtrackingSearch) selectVariable() int {
	best := Unassigned
	bestSize, bestMax := 0, 0
	for variable, value := range search.values {
		if value != Unassigned {
			continue
		}
		size, maximum := search.domains[variable].size, search.domains[variable].max()
		if best == Unassigned || size < bestSize || (size == bestSize && maximum < bestMax) {
			best, bestSize, bestMax = variable, size, maximum
		}
	}
	return best
}

// orderValues sorts the current domain by distance to its midpoint, lower value first on ties
func (search *backtrackingSearch) orderValues(variable int) []int {
	d := &search.domains[variable]
	values := d.values()
	if len(values) == 0 {
		return values
	}
	center := (d.min() + d.max()) / 2

	distance := func(value int) int {
		if value < center {
			return center - value
		}
		return value - center
	}
	slices.SortStableFunc(values, func(a, b int) int {
		if da, db := distance(a), distance(b); da != db {
			return da - db
		}
		return a - b
	})
	return values
}

// assign sets the value and prunes it from the unassigned peers; false means the value is inconsistent.
// A false return may leave pruned values on the trail, undo restores them.
func (search *backtrackingSearch) assign(variable, value int) bool {
	// Consistency check against assigned members of the same groups
	for _, peer := range search.peers[variable] {
		if search.values[peer] == value {
			return false
		}
	}

	search.values[variable] = value
	for _, peer := range search.peers[variable] {
		if search.values[peer] != Unassigned {
			continue
		}
		if search.domains[peer].remove(value) {
			search.trail = append(search.trail, removal{variable: peer, value: value})
			if search.domains[peer].size == 0 {
				return false
			}
		}
	}

	if search.options.MatchingCheck {
		for _, group := range search.groupsOf[variable] {
			if !groupFeasible(search.problem.Groups[group], search.values, search.domains) {
				return false
			}
		}
	}
	return true
}

// undo clears the choice point's variable and restores every value pruned since it was assigned
func (search *backtrackingSearch) undo(point *choicePoint) {
	for i := len(search.trail) - 1; i >= point.mark; i-- {
		search.domains[search.trail[i].variable].restore(search.trail[i].value)
	}
	search.trail = search.trail[:point.mark]
	search.values[point.variable] = Unassigned
}
