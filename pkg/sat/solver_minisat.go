package sat

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

type minisatSolver struct {
	path string
}

func NewMinisatSolver(path string) SATSolver {
	if path == "" {
		path = "minisat"
	}
	return &minisatSolver{path: path}
}

func (solver *minisatSolver) Solve(sat SAT) (SATSolution, error) {
	dimacs := sat.ToDIMACS() // Transform SAT into DIMACS-CNF string format

	// Minisat reads the instance from a file and writes the model into another one
	inputTempFile, err := os.CreateTemp("", "dimacs-*.cnf")
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(inputTempFile.Name())

	outputTempFile, err := os.CreateTemp("", "minisat_output-*.cnf")
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(outputTempFile.Name())
	outputTempFile.Close()

	if _, err := inputTempFile.WriteString(dimacs); err != nil {
		return nil, fmt.Errorf("failed to write DIMACS to temporary file: %w", err)
	}
	if err := inputTempFile.Close(); err != nil {
		return nil, fmt.Errorf("failed to close temporary file: %w", err)
	}

	cmd := exec.Command(solver.path, "-verb=0", inputTempFile.Name(), outputTempFile.Name())
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err = cmd.Run()
	if cmd.ProcessState == nil {
		return nil, fmt.Errorf("cannot start minisat: %w", err)
	}
	exitCode := cmd.ProcessState.ExitCode()
	if err != nil && exitCode != exitSatisfiable && exitCode != exitUnsatisfiable {
		return nil, fmt.Errorf("an error occurred during minisat execution: %v : %v", err.Error(), stderr.String())
	} else if exitCode == exitUnsatisfiable {
		return nil, nil
	}

	output, err := os.ReadFile(outputTempFile.Name())
	if err != nil {
		return nil, fmt.Errorf("failed to read output file: %w", err)
	}
	return solver.parseSolution(string(output))
}

func (solver *minisatSolver) parseSolution(solverOutput string) (SATSolution, error) {
	lines := strings.Split(solverOutput, "\n")
	if len(lines) < 2 || strings.TrimSpace(lines[0]) != "SAT" {
		return nil, fmt.Errorf("unexpected minisat output header: %q", lines[0])
	}
	return parseLiterals(strings.Fields(lines[1])) // The first line is the header, we only need the second line
}
