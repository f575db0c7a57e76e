package synth

import "github.com/reoring/aspskema/domain"

// Accumulators holds the running values of every aggregate, keyed by fact
// and aggregate id. It is owned by the runtime and shared by all classes.
type Accumulators struct {
	values map[accKey]int64
}

type accKey struct {
	fact domain.PredicateName
	id   string
}

// NewAccumulators returns an empty registry.
func NewAccumulators() *Accumulators {
	return &Accumulators{values: map[accKey]int64{}}
}

// Reset sets the aggregate back to zero.
func (a *Accumulators) Reset(fact domain.PredicateName, id string) {
	a.values[accKey{fact, id}] = 0
}

// Value returns the current value of the aggregate.
func (a *Accumulators) Value(fact domain.PredicateName, id string) int64 {
	return a.values[accKey{fact, id}]
}

func (a *Accumulators) set(fact domain.PredicateName, id string, v int64) {
	a.values[accKey{fact, id}] = v
}
