package sat

import (
	"github.com/go-air/gini"
	"github.com/go-air/gini/z"
)

type giniSolver struct{}

// NewGiniSolver returns an in-process solver which needs no external executable
func NewGiniSolver() SATSolver {
	return &giniSolver{}
}

func (solver *giniSolver) Solve(sat SAT) (SATSolution, error) {
	g := gini.NewV(int(sat.Variables))

	// Variables that appear in no clause are unknown to gini and reported as false
	var maxVariable int64
	for _, clause := range sat.Clauses {
		for _, literal := range clause {
			maxVariable = max(maxVariable, literal, -literal)
			g.Add(z.Dimacs2Lit(int(literal)))
		}
		g.Add(z.LitNull)
	}

	// 1 stands for satisfiable, -1 for unsatisfiable and 0 for unknown
	switch g.Solve() {
	case -1:
		return nil, nil
	case 0:
		return nil, errUnknown
	}

	solution := make(SATSolution, 0, sat.Variables)
	for variable := int64(1); variable <= int64(sat.Variables); variable++ {
		if variable <= maxVariable && g.Value(z.Dimacs2Lit(int(variable))) {
			solution = append(solution, variable)
		} else {
			solution = append(solution, -variable)
		}
	}
	return solution, nil
}
