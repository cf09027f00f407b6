package sat

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

var errUnknown = errors.New("solver finished without deciding satisfiability")

// Exit-code of 10 stands for satisfiable and exit-code 20 stands for unsatisfiable
const (
	exitSatisfiable   = 10
	exitUnsatisfiable = 20
)

// parseSolution reads the "v ..." lines of a competition-format output
func parseSolution(solverOutput string) (SATSolution, error) {
	lines := lo.Filter(strings.Split(solverOutput, "\n"), func(line string, _ int) bool {
		return len(line) > 0 && line[0] == 'v'
	})
	fields := lo.FlatMap(lines, func(line string, _ int) []string {
		return strings.Fields(line[1:])
	})
	return parseLiterals(fields)
}

// parseLiterals converts literal tokens, stopping at the terminating 0
func parseLiterals(fields []string) (SATSolution, error) {
	solution := make(SATSolution, 0, len(fields))
	for _, field := range fields {
		value, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid literal in solver output: %w", err)
		}
		if value == 0 {
			break
		}
		solution = append(solution, value)
	}
	return solution, nil
}
