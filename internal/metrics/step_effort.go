package metrics

import (
	"math"

	"github.com/san-kum/murphybed/internal/search"
)

// StepEffort is the mean size of accepted steps.
type StepEffort struct {
	name    string
	sum     float64
	samples int
}

func NewStepEffort() *StepEffort {
	return &StepEffort{
		name: "step_effort",
	}
}

func (s *StepEffort) Name() string {
	return s.name
}

func (s *StepEffort) Observe(it search.Iteration) {
	if !it.Accepted {
		return
	}
	s.sum += math.Abs(it.Step)
	s.samples++
}

func (s *StepEffort) Value() float64 {
	if s.samples == 0 {
		return 0
	}
	return s.sum / float64(s.samples)
}

func (s *StepEffort) Reset() {
	s.sum = 0
	s.samples = 0
}
