package sat

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"
)

type kissatSolver struct {
	path string
}

func NewKissatSolver(path string) SATSolver {
	if path == "" {
		path = "kissat"
	}
	return &kissatSolver{path: path}
}

func (solver *kissatSolver) Solve(sat SAT) (SATSolution, error) {
	return runCompetitionSolver("kissat", exec.Command(solver.path, "-q", "--relaxed"), sat)
}

// runCompetitionSolver feeds DIMACS through the standard input and reads the model from the standard output
func runCompetitionSolver(name string, cmd *exec.Cmd, sat SAT) (SATSolution, error) {
	dimacs := sat.ToDIMACS() // Transform SAT into DIMACS-CNF string format
	cmd.Stdin = strings.NewReader(dimacs)

	var stdOut bytes.Buffer
	cmd.Stdout = &stdOut
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if cmd.ProcessState == nil {
		return nil, fmt.Errorf("cannot start %v: %w", name, err)
	}
	exitCode := cmd.ProcessState.ExitCode()
	if err != nil && exitCode != exitSatisfiable && exitCode != exitUnsatisfiable {
		return nil, fmt.Errorf("an error occurred during %v execution: %v : %v", name, err.Error(), stderr.String())
	} else if exitCode == exitUnsatisfiable {
		return nil, nil
	}

	return parseSolution(stdOut.String())
}
