// Package selection chooses the next item to administer to an examinee:
// the maximum-information pick, bounded by an exposure-control rule, with
// same-cluster substitution when the pick is over-exposed.
package selection

// Exposure counts item administrations across all examinees within one
// exposure-cap pass. The counters are shared mutable state scoped to the
// pass: reset when a new cap starts, incremented once per administration,
// and read by the selector's exposure check and by the overlap metric.
type Exposure struct {
	counts []int
	total  int
}

// NewExposure returns zeroed counters for a bank of the given size.
func NewExposure(bankSize int) *Exposure {
	return &Exposure{counts: make([]int, bankSize)}
}

// Reset zeroes every counter for the next cap pass.
func (e *Exposure) Reset() {
	for i := range e.counts {
		e.counts[i] = 0
	}
	e.total = 0
}

// Count returns the number of times item i has been administered.
func (e *Exposure) Count(i int) int { return e.counts[i] }

// Record registers one administration of item i.
func (e *Exposure) Record(i int) {
	e.counts[i]++
	e.total++
}

// Counts returns a copy of the per-item administration counts.
func (e *Exposure) Counts() []int {
	out := make([]int, len(e.counts))
	copy(out, e.counts)
	return out
}

// Administrations returns the total count of recorded administrations.
func (e *Exposure) Administrations() int { return e.total }
