package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand/v2"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/limaJavier/timetableplus/pkg/csp"
	"github.com/limaJavier/timetableplus/pkg/model"
	"github.com/limaJavier/timetableplus/pkg/sat"

	"github.com/samber/lo"
	"github.com/spf13/pflag"
)

type ResultType int

const (
	solved ResultType = iota
	infeasible
	timeout
	failed
)

var resultTypes = map[ResultType]string{
	solved:     "solved",
	infeasible: "infeasible",
	timeout:    "timeout",
	failed:     "failed",
}

type TestMetadata struct {
	Name         string
	Seed         uint64
	Students     int
	Subjects     int
	Teachers     int
	Periods      int
	Instance     model.ModelInput
	SubjectsEach int
}

type SolverMetadata struct {
	Name string
	New  func() model.Timetabler
}

type BenchmarkResult struct {
	Solver   string
	Test     TestMetadata
	Duration int64
	Nodes    int
	Result   ResultType
}

func main() {
	out := pflag.StringP("out", "o", "benchmark_results.csv", "CSV file to write")
	instances := pflag.IntP("instances", "n", 5, "Instances per size")
	seed := pflag.Uint64("seed", 1, "Seed of the first instance")
	limit := pflag.Duration("timeout", 30*time.Second, "Time limit per solve")
	pflag.Parse()

	tests := getTests(*instances, *seed)
	solvers := getSolvers()
	results := make([]BenchmarkResult, 0, len(tests)*len(solvers))

	for _, test := range tests {
		for _, solver := range solvers {
			fmt.Printf("Benchmarking test \"%v\" with solver \"%v\"\n", test.Name, solver.Name)
			results = append(results, measure(solver, test, *limit))
		}
	}

	file, err := os.Create(*out)
	if err != nil {
		log.Fatalf("cannot create CSV file: %v", err)
	}
	defer file.Close()

	if err := toCsv(file, results); err != nil {
		log.Fatalf("cannot write CSV: %v", err)
	}
}

// getTests generates instances of growing size; each student takes
// SubjectsEach subjects drawn from the catalogue
func getTests(perSize int, seed uint64) []TestMetadata {
	sizes := []struct{ students, subjects, teachers, each int }{
		{20, 8, 4, 4},
		{60, 14, 7, 5},
		{150, 20, 10, 6},
		{400, 28, 14, 6},
	}

	tests := make([]TestMetadata, 0, len(sizes)*perSize)
	for _, size := range sizes {
		for i := range perSize {
			test := TestMetadata{
				Name:         fmt.Sprintf("s%d-c%d-%d", size.students, size.subjects, i),
				Seed:         seed + uint64(i),
				Students:     size.students,
				Subjects:     size.subjects,
				Teachers:     size.teachers,
				SubjectsEach: size.each,
			}
			test.Instance = generateInstance(test)
			test.Periods = lo.SumBy(test.Instance.Subjects, func(subject model.Subject) int { return subject.PeriodsPerWeek })
			tests = append(tests, test)
		}
	}
	return tests
}

func generateInstance(test TestMetadata) model.ModelInput {
	random := rand.New(rand.NewPCG(test.Seed, uint64(test.Students)))

	subjects := make([]model.Subject, test.Subjects)
	for i := range subjects {
		level, periods := "SL", 2
		if i%3 == 0 {
			level, periods = "HL", 3
		}
		subjects[i] = model.Subject{
			Name:           fmt.Sprintf("Subject %d %s", i+1, level),
			PeriodsPerWeek: periods,
			Teacher:        fmt.Sprintf("Teacher %d", i%test.Teachers+1),
		}
	}

	for student := range test.Students {
		name := fmt.Sprintf("Student %d", student+1)
		for _, subject := range random.Perm(test.Subjects)[:min(test.SubjectsEach, test.Subjects)] {
			subjects[subject].Roster = append(subjects[subject].Roster, name)
		}
	}

	return model.ModelInput{Subjects: subjects, Shape: model.DefaultGridShape()}
}

// getSolvers lists the in-process solvers plus the external SAT solvers found on PATH
func getSolvers() []SolverMetadata {
	solvers := []SolverMetadata{
		{Name: "backtracking", New: func() model.Timetabler {
			return model.NewBacktrackingTimetabler(csp.Options{MatchingCheck: true})
		}},
		{Name: "backtracking-plain", New: func() model.Timetabler {
			return model.NewBacktrackingTimetabler(csp.Options{})
		}},
		{Name: "gini", New: func() model.Timetabler { return model.NewSatTimetabler(sat.NewGiniSolver()) }},
	}

	external := map[string]func(string) sat.SATSolver{
		"kissat":  sat.NewKissatSolver,
		"cadical": sat.NewCadicalSolver,
		"minisat": sat.NewMinisatSolver,
	}
	for _, name := range []string{"kissat", "cadical", "minisat"} {
		path, err := exec.LookPath(name)
		if err != nil {
			continue
		}
		constructor := external[name]
		solvers = append(solvers, SolverMetadata{Name: name, New: func() model.Timetabler {
			return model.NewSatTimetabler(constructor(path))
		}})
	}
	return solvers
}

func measure(solver SolverMetadata, test TestMetadata, limit time.Duration) BenchmarkResult {
	ctx, cancel := context.WithTimeout(context.Background(), limit)
	defer cancel()

	result := BenchmarkResult{Solver: solver.Name, Test: test}
	start := time.Now()

	timetables, err := solver.New().Build(ctx, test.Instance, model.BuildOptions{})
	if err == nil {
		_, err = timetables.First(ctx)
		result.Nodes = timetables.Stats().Nodes
	}
	result.Duration = time.Since(start).Milliseconds()
	result.Result = classify(err)
	return result
}

func classify(err error) ResultType {
	switch {
	case err == nil:
		return solved
	case errors.Is(err, model.ErrInfeasible):
		return infeasible
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, csp.ErrStepBudget):
		return timeout
	default:
		return failed
	}
}

func toCsv(writer io.Writer, results []BenchmarkResult) error {
	csvWriter := csv.NewWriter(writer)

	header := []string{"Solver", "Test", "Seed", "Students", "Subjects", "Teachers", "SubjectsPerStudent", "Periods", "Duration(ms)", "Nodes", "Result"}
	if err := csvWriter.Write(header); err != nil {
		return err
	}

	for _, result := range results {
		record := []string{
			result.Solver,
			result.Test.Name,
			strconv.FormatUint(result.Test.Seed, 10),
			strconv.Itoa(result.Test.Students),
			strconv.Itoa(result.Test.Subjects),
			strconv.Itoa(result.Test.Teachers),
			strconv.Itoa(result.Test.SubjectsEach),
			strconv.Itoa(result.Test.Periods),
			strconv.FormatInt(result.Duration, 10),
			strconv.Itoa(result.Nodes),
			resultTypes[result.Result],
		}
		if err := csvWriter.Write(record); err != nil {
			return err
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}
