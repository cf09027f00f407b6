package csp

import (
	"github.com/onsi/gomega/matchers/support/goraph/bipartitegraph"
	"github.com/samber/lo"
)

// groupFeasible checks Hall's condition for the unassigned members of a group:
// every one of them must be matched to a distinct value still in its domain.
func groupFeasible(group []int, values []int, domains []domain) bool {
	members := lo.Filter(group, func(variable int, _ int) bool { return values[variable] == Unassigned })
	if len(members) < 2 {
		return len(members) == 0 || domains[members[0]].size > 0
	}

	union := make(map[int]bool)
	for _, variable := range members {
		for _, value := range domains[variable].values() {
			union[value] = true
		}
	}
	// Pigeonhole: more variables than values left
	if len(members) > len(union) {
		return false
	}

	candidates := lo.Keys(union)
	neighbours := func(variableAny any, valueAny any) (bool, error) {
		return domains[variableAny.(int)].has(valueAny.(int)), nil
	}

	graph, err := bipartitegraph.NewBipartiteGraph(
		lo.Map(members, func(variable int, _ int) any { return variable }),
		lo.Map(candidates, func(value int, _ int) any { return value }),
		neighbours,
	)
	if err != nil {
		return false
	}

	return len(graph.LargestMatching()) == len(members)
}

// rootFeasible runs the Hall check on every group with fresh domains
func rootFeasible(problem CSP, domains []domain) bool {
	values := make([]int, len(problem.Variables))
	for i := range values {
		values[i] = Unassigned
	}
	for variable := range problem.Variables {
		if domains[variable].size == 0 {
			return false
		}
	}
	return lo.EveryBy(problem.Groups, func(group []int) bool {
		return groupFeasible(group, values, domains)
	})
}

func initialDomains(problem CSP) []domain {
	width := problem.Width()
	return lo.Map(problem.Variables, func(variable Variable, _ int) domain {
		return newDomain(width, variable.Domain)
	})
}
