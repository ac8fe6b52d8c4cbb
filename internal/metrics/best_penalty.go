package metrics

import (
	"math"

	"github.com/san-kum/murphybed/internal/search"
)

type BestPenalty struct {
	name    string
	best    float64
	samples int
}

func NewBestPenalty() *BestPenalty {
	return &BestPenalty{name: "best_penalty", best: math.Inf(1)}
}

func (b *BestPenalty) Name() string { return b.name }

func (b *BestPenalty) Observe(it search.Iteration) {
	b.best = math.Min(b.best, math.Min(it.Before, it.After))
	b.samples++
}

func (b *BestPenalty) Value() float64 {
	if b.samples == 0 {
		return 0
	}
	return b.best
}

func (b *BestPenalty) Reset() {
	b.best = math.Inf(1)
	b.samples = 0
}
