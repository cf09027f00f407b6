package sat

import "os/exec"

type cadicalSolver struct {
	path string
}

func NewCadicalSolver(path string) SATSolver {
	if path == "" {
		path = "cadical"
	}
	return &cadicalSolver{path: path}
}

func (solver *cadicalSolver) Solve(sat SAT) (SATSolution, error) {
	return runCompetitionSolver("cadical", exec.Command(solver.path, "-q"), sat)
}
