// Package csp models finite-domain constraint-satisfaction problems whose only
// constraint kind is all-different, and enumerates their solutions lazily.
package csp

import (
	"fmt"
	"slices"
)

// Unassigned marks a variable without a value inside a partial assignment
const Unassigned = -1

type Variable struct {
	Name   string
	Domain []int // Non-negative and strictly increasing
}

// CSP is an immutable description once handed to a Solver
type CSP struct {
	Variables []Variable
	Groups    [][]int // All-different groups over variable indices
}

// Assignment holds one value per variable, indexed as CSP.Variables
type Assignment []int

// AddVariable declares a variable with domain [lo, hi] and returns its index
func (problem *CSP) AddVariable(name string, lo, hi int) int {
	domain := make([]int, 0, max(hi-lo+1, 0))
	for value := lo; value <= hi; value++ {
		domain = append(domain, value)
	}
	return problem.AddVariableValues(name, domain)
}

// AddVariableValues declares a variable with an explicit domain and returns its index
func (problem *CSP) AddVariableValues(name string, values []int) int {
	domain := slices.Clone(values)
	slices.Sort(domain)
	domain = slices.Compact(domain)
	problem.Variables = append(problem.Variables, Variable{Name: name, Domain: domain})
	return len(problem.Variables) - 1
}

// AllDifferent registers an all-different constraint; groups with fewer than two members impose nothing and are dropped
func (problem *CSP) AllDifferent(variables ...int) error {
	group := slices.Clone(variables)
	slices.Sort(group)
	if len(slices.Compact(slices.Clone(group))) != len(group) {
		return fmt.Errorf("all-different group %v repeats a variable", variables)
	}
	for _, variable := range group {
		if variable < 0 || variable >= len(problem.Variables) {
			return fmt.Errorf("all-different group references unknown variable %d", variable)
		}
	}
	if len(group) < 2 {
		return nil
	}
	problem.Groups = append(problem.Groups, group)
	return nil
}

// Width returns one more than the greatest value of any domain
func (problem CSP) Width() int {
	width := 0
	for _, variable := range problem.Variables {
		if len(variable.Domain) > 0 {
			width = max(width, variable.Domain[len(variable.Domain)-1]+1)
		}
	}
	return width
}

// Check reports the first constraint the assignment violates
func Check(problem CSP, assignment Assignment) error {
	if len(assignment) != len(problem.Variables) {
		return fmt.Errorf("assignment holds %d values for %d variables", len(assignment), len(problem.Variables))
	}
	for variable, value := range assignment {
		if _, ok := slices.BinarySearch(problem.Variables[variable].Domain, value); !ok {
			return fmt.Errorf("variable %q takes %d outside its domain", problem.Variables[variable].Name, value)
		}
	}
	for _, group := range problem.Groups {
		seen := make(map[int]int, len(group))
		for _, variable := range group {
			if other, ok := seen[assignment[variable]]; ok {
				return fmt.Errorf("variables %q and %q share value %d", problem.Variables[other].Name, problem.Variables[variable].Name, assignment[variable])
			}
			seen[assignment[variable]] = variable
		}
	}
	return nil
}
