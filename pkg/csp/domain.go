package csp

import "math/bits"

// domain is a bitset over [0, width) that keeps its cardinality
type domain struct {
	words []uint64
	size  int
}

func newDomain(width int, values []int) domain {
	d := domain{words: make([]uint64, (width+63)/64)}
	for _, value := range values {
		d.restore(value)
	}
	return d
}

func (d *domain) has(value int) bool {
	word := value / 64
	return value >= 0 && word < len(d.words) && d.words[word]&(1<<(value%64)) != 0
}

// remove returns false when the value was already absent
func (d *domain) remove(value int) bool {
	if !d.has(value) {
		return false
	}
	d.words[value/64] &^= 1 << (value % 64)
	d.size--
	return true
}

func (d *domain) restore(value int) {
	if d.has(value) {
		return
	}
	d.words[value/64] |= 1 << (value % 64)
	d.size++
}

func (d *domain) min() int {
	for i, word := range d.words {
		if word != 0 {
			return i*64 + bits.TrailingZeros64(word)
		}
	}
	return -1
}

func (d *domain) max() int {
	for i := len(d.words) - 1; i >= 0; i-- {
		if d.words[i] != 0 {
			return i*64 + 63 - bits.LeadingZeros64(d.words[i])
		}
	}
	return -1
}

func (d *domain) values() []int {
	values := make([]int, 0, d.size)
	for i, word := range d.words {
		for word != 0 {
			offset := bits.TrailingZeros64(word)
			values = append(values, i*64+offset)
			word &^= 1 << offset
		}
	}
	return values
}
