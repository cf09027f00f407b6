package sat

import "math/rand/v2"

func generateSATInstance(random *rand.Rand, literals uint64, clauses int) SAT {
	satInstance := SAT{
		Variables: literals,
		Clauses:   make([][]int64, clauses),
	}

	sign := func() int64 {
		if random.Float32() < 0.5 {
			return -1
		}
		return 1
	}

	for i := range clauses {
		satInstance.Clauses[i] = make([]int64, 0, literals)
		for j := range literals {
			if random.Float32() < 0.3 {
				satInstance.Clauses[i] = append(satInstance.Clauses[i], sign()*(1+int64(j)))
			}
		}

		if len(satInstance.Clauses[i]) == 0 {
			satInstance.Clauses[i] = append(satInstance.Clauses[i], sign()*(1+random.Int64N(int64(literals))))
		}
	}

	return satInstance
}

func assertSATSolution(satInstance SAT, satSolution SATSolution) bool {
	// Make sure there are no duplicates nor contradictions
	literals := make(map[int64]bool)
	for _, literal := range satSolution {
		if literals[literal] || literals[-literal] {
			return false
		}
		literals[literal] = true
	}

	// Check that all clauses are satisfied
	for _, clause := range satInstance.Clauses {
		satisfied := false
		for _, literal := range clause {
			if literals[literal] {
				satisfied = true
				break
			}
		}
		if !satisfied {
			return false
		}
	}

	return true
}
