// Package metrics summarises a design search as it runs.
package metrics

import "github.com/san-kum/murphybed/internal/search"

type Metric interface {
	Name() string
	Observe(it search.Iteration)
	Value() float64
	Reset()
}

// Set fans one iteration out to several metrics.
type Set []Metric

func Default() Set {
	return Set{NewBestPenalty(), NewAcceptanceRate(), NewStepEffort(), NewFailureRate()}
}

func (s Set) Observe(it search.Iteration) {
	for _, m := range s {
		m.Observe(it)
	}
}

func (s Set) Reset() {
	for _, m := range s {
		m.Reset()
	}
}

// Values maps metric names to their current value.
func (s Set) Values() map[string]float64 {
	out := make(map[string]float64, len(s))
	for _, m := range s {
		out[m.Name()] = m.Value()
	}
	return out
}
