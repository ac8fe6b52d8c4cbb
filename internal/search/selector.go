package search

import (
	"fmt"
	"math/rand/v2"
)

// Strategy picks which menu entry the next iteration tunes.
type Strategy int

const (
	RoundRobin Strategy = iota
	Random
)

func (s Strategy) String() string {
	switch s {
	case RoundRobin:
		return "round-robin"
	case Random:
		return "random"
	}
	return fmt.Sprintf("strategy(%d)", int(s))
}

func ParseStrategy(name string) (Strategy, error) {
	switch name {
	case "round-robin", "roundrobin", "":
		return RoundRobin, nil
	case "random":
		return Random, nil
	}
	return 0, fmt.Errorf("search: unknown strategy %q", name)
}

func (s Strategy) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Strategy) UnmarshalText(b []byte) error {
	v, err := ParseStrategy(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// selector hands out menu indices. Draws counts every index handed out so
// a restored search can replay to the same position.
type selector struct {
	strategy Strategy
	seed     uint64
	n        int
	draws    uint64
	rng      *rand.Rand
}

func newSelector(strategy Strategy, seed uint64, n int) *selector {
	s := &selector{strategy: strategy, seed: seed, n: n}
	s.reset()
	return s
}

func (s *selector) reset() {
	s.draws = 0
	s.rng = rand.New(rand.NewPCG(s.seed, s.seed^0x9e3779b97f4a7c15))
}

func (s *selector) next() int {
	i := int(s.draws % uint64(s.n))
	if s.strategy == Random {
		i = s.rng.IntN(s.n)
	}
	s.draws++
	return i
}

// replay resets the selector and discards draws picks.
func (s *selector) replay(draws uint64) {
	s.reset()
	for s.draws < draws {
		s.next()
	}
}
