package sat

import (
	"fmt"
	"strings"
)

// SATSolution holds the literals of a model (positive = true, negative = false)
type SATSolution []int64

type SAT struct {
	Variables uint64
	Clauses   [][]int64
}

func (s SAT) ToDIMACS() string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "p cnf %d %d\n", s.Variables, len(s.Clauses))
	for _, clause := range s.Clauses {
		for _, literal := range clause {
			fmt.Fprintf(&builder, "%d ", literal)
		}
		builder.WriteString("0\n")
	}
	return builder.String()
}

type SATSolver interface {
	// Returns a solution of the SAT instance if satisfiable, else returns nil (these are valid outputs where error shall be nil)
	Solve(SAT) (SATSolution, error)
}

// Block returns the clause that forbids the positive part of the solution restricted to the given variables
func Block(solution SATSolution, relevant func(variable int64) bool) []int64 {
	clause := make([]int64, 0)
	for _, literal := range solution {
		if literal > 0 && relevant(literal) {
			clause = append(clause, -literal)
		}
	}
	return clause
}
