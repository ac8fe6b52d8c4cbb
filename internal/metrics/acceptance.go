package metrics

import "github.com/san-kum/murphybed/internal/search"

type AcceptanceRate struct {
	name     string
	accepted int
	samples  int
}

func NewAcceptanceRate() *AcceptanceRate {
	return &AcceptanceRate{name: "acceptance_rate"}
}

func (a *AcceptanceRate) Name() string {
	return a.name
}

func (a *AcceptanceRate) Observe(it search.Iteration) {
	a.samples++
	if it.Accepted {
		a.accepted++
	}
}

func (a *AcceptanceRate) Value() float64 {
	if a.samples == 0 {
		return 0
	}
	return float64(a.accepted) / float64(a.samples)
}

func (a *AcceptanceRate) Reset() {
	a.accepted = 0
	a.samples = 0
}

// FailureRate is the share of iterations with at least one trial sweep
// that did not assemble.
type FailureRate struct {
	name    string
	failed  int
	samples int
}

func NewFailureRate() *FailureRate {
	return &FailureRate{name: "failure_rate"}
}

func (f *FailureRate) Name() string {
	return f.name
}

func (f *FailureRate) Observe(it search.Iteration) {
	f.samples++
	if it.Failures > 0 {
		f.failed++
	}
}

func (f *FailureRate) Value() float64 {
	if f.samples == 0 {
		return 0
	}
	return float64(f.failed) / float64(f.samples)
}

func (f *FailureRate) Reset() {
	f.failed = 0
	f.samples = 0
}
