package design

import (
	"context"
	"sync"
)

// Ensemble sweeps several independent designs concurrently. Each bed is
// touched by exactly one goroutine, so no locking is needed.
type Ensemble struct {
	beds []*Bed
}

func NewEnsemble(beds ...*Bed) *Ensemble {
	return &Ensemble{beds: beds}
}

// Outcome is the result of one member; Err is nil when Breakdown is valid.
type Outcome struct {
	Breakdown Breakdown
	Err       error
}

// Evaluate sweeps every member over angles. Member failures are reported
// per member; only a cancelled context fails the whole call.
func (e *Ensemble) Evaluate(ctx context.Context, angles []float64) ([]Outcome, error) {
	out := make([]Outcome, len(e.beds))

	var wg sync.WaitGroup
	for i, bed := range e.beds {
		wg.Add(1)
		go func(idx int, b *Bed) {
			defer wg.Done()
			out[idx].Breakdown, out[idx].Err = b.Evaluate(ctx, angles)
		}(i, bed)
	}

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return out, err
	}
	return out, nil
}
