package csp

// indexer gives a unique SAT variable to every (variable, value) pair and vice versa
type indexer interface {
	// Returns a unique, 1-based index for the pair
	Index(variable, value uint64) uint64
	// Returns the pair behind a unique index
	Attributes(index uint64) (variable uint64, value uint64)
}

func newIndexer(variables, values uint64) indexer {
	return &indexerImplementation{
		variables: variables,
		values:    values,
	}
}

type indexerImplementation struct {
	variables uint64
	values    uint64
}

func (indexer *indexerImplementation) Index(variable, value uint64) uint64 {
	return value + indexer.values*variable + 1
}

func (indexer *indexerImplementation) Attributes(index uint64) (variable, value uint64) {
	index = index - 1
	value = index % indexer.values
	variable = index / indexer.values
	return variable, value
}
