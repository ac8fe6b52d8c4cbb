// Package optim holds the gradient-free numeric search used at both levels
// of the solver: closing the linkage at one angle and tuning the design
// across a sweep. It knows nothing about beds.
package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// Scheme picks how a coordinate's slope is estimated.
type Scheme int

const (
	// Central samples x±StepUp and takes a Newton step when the sampled
	// curvature is positive, a LearningRate-scaled gradient step otherwise.
	Central Scheme = iota
	// Forward samples x+StepUp only.
	Forward
	// Asymmetric is the classic two-sample rule: sample x+StepUp,
	// then StepDown back from there, and move by LearningRate times the
	// raw difference of the two errors.
	Asymmetric
)

var schemeNames = map[Scheme]string{Central: "central", Forward: "forward", Asymmetric: "asymmetric"}

func (s Scheme) String() string {
	if name, ok := schemeNames[s]; ok {
		return name
	}
	return fmt.Sprintf("scheme(%d)", int(s))
}

func ParseScheme(name string) (Scheme, error) {
	for s, n := range schemeNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("optim: unknown scheme %q", name)
}

// curvatureFloor keeps Newton steps away from samples that are flat to
// within rounding.
const curvatureFloor = 1e-12

type Config struct {
	Scheme       Scheme
	StepUp       float64 // first sample offset
	StepDown     float64 // second sample offset, Asymmetric only
	LearningRate float64 // negative: steps run against the slope
	MaxStep      float64 // cap on |step|
	MaxRounds    int
	Threshold    float64 // residual below which Descend reports convergence
	Backtrack    int     // halvings tried when a step makes things worse; 0 accepts every step
}

func DefaultConfig() Config {
	return Config{
		Scheme:       Central,
		StepUp:       0.5,
		StepDown:     1,
		LearningRate: -0.1,
		MaxStep:      10,
		MaxRounds:    10000,
		Threshold:    0.125,
		Backtrack:    8,
	}
}

var ErrBadConfig = errors.New("optim: invalid config")

func (c Config) Validate() error {
	switch {
	case !(c.StepUp > 0):
		return fmt.Errorf("%w: step_up must be positive, got %v", ErrBadConfig, c.StepUp)
	case c.Scheme == Asymmetric && !(c.StepDown > 0):
		return fmt.Errorf("%w: step_down must be positive, got %v", ErrBadConfig, c.StepDown)
	case !(c.LearningRate < 0):
		return fmt.Errorf("%w: learning_rate must be negative, got %v", ErrBadConfig, c.LearningRate)
	case !(c.MaxStep > 0):
		return fmt.Errorf("%w: max_step must be positive, got %v", ErrBadConfig, c.MaxStep)
	case c.MaxRounds <= 0:
		return fmt.Errorf("%w: max_rounds must be positive, got %d", ErrBadConfig, c.MaxRounds)
	case c.Threshold < 0 || math.IsNaN(c.Threshold):
		return fmt.Errorf("%w: threshold must be non-negative, got %v", ErrBadConfig, c.Threshold)
	case c.Backtrack < 0:
		return fmt.Errorf("%w: backtrack must be non-negative, got %d", ErrBadConfig, c.Backtrack)
	}
	if _, ok := schemeNames[c.Scheme]; !ok {
		return fmt.Errorf("%w: %v", ErrBadConfig, c.Scheme)
	}
	return nil
}

// Line is an objective restricted to one coordinate.
type Line func(x float64) float64

// Propose returns the step for one coordinate currently at x with value fx.
// It may call f at sample points; the caller restores x afterwards. A zero
// step means no usable slope was found.
func (c Config) Propose(f Line, x, fx float64) float64 {
	var step float64
	switch c.Scheme {
	case Forward:
		g := (f(x+c.StepUp) - fx) / c.StepUp
		step = c.LearningRate * g
	case Asymmetric:
		up := f(x + c.StepUp)
		back := f(x + c.StepUp - c.StepDown)
		step = c.LearningRate * (up - back)
	default:
		h := c.StepUp
		fp, fm := f(x+h), f(x-h)
		g := (fp - fm) / (2 * h)
		curv := (fp - 2*fx + fm) / (h * h)
		if curv > curvatureFloor {
			step = -g / curv
		} else {
			step = c.LearningRate * g
		}
	}
	if math.IsNaN(step) || math.IsInf(step, 0) {
		return 0
	}
	return math.Max(-c.MaxStep, math.Min(c.MaxStep, step))
}

// Settle applies step to a coordinate at x, halving it up to Backtrack
// times while the objective gets worse. It returns the accepted position
// and its value; when nothing helps it returns x and fx unchanged.
func (c Config) Settle(f Line, x, fx, step float64) (float64, float64) {
	if step == 0 {
		return x, fx
	}
	if c.Backtrack == 0 {
		return x + step, f(x + step)
	}
	for i := 0; i <= c.Backtrack; i++ {
		if fn := f(x + step); fn <= fx {
			return x + step, fn
		}
		step /= 2
	}
	return x, fx
}

// Variable is one coordinate of a problem, read and written through closures.
type Variable struct {
	Name string
	Get  func() float64
	Set  func(float64)
}

type Result struct {
	Rounds    int
	Objective float64
	Residual  float64
	Converged bool
}

// Descend minimises objective by coordinate rounds over vars, in order,
// until residual drops below Threshold or MaxRounds pass. residual may be
// nil, in which case the objective itself is tested. Context cancellation
// is checked between rounds.
func (c Config) Descend(ctx context.Context, vars []Variable, objective, residual func() float64) (res Result, err error) {
	if err := c.Validate(); err != nil {
		return Result{}, err
	}
	if residual == nil {
		residual = objective
	}
	fx := objective()
	res = Result{Objective: fx, Residual: residual()}
	if res.Residual < c.Threshold {
		res.Converged = true
		return res, nil
	}

	best := make([]float64, len(vars))
	bestFx := fx
	for i, v := range vars {
		best[i] = v.Get()
	}
	// Without backtracking a round can end worse than it started, so the
	// best round seen is restored when the budget runs out.
	defer func() {
		if res.Converged || bestFx >= res.Objective {
			return
		}
		for i, v := range vars {
			v.Set(best[i])
		}
		res.Objective = bestFx
		res.Residual = residual()
	}()

	for round := 1; round <= c.MaxRounds; round++ {
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		default:
		}

		for _, v := range vars {
			x := v.Get()
			line := func(t float64) float64 {
				v.Set(t)
				return objective()
			}
			step := c.Propose(line, x, fx)
			x, fx = c.Settle(line, x, fx, step)
			v.Set(x)
		}

		res.Rounds = round
		res.Objective = fx
		res.Residual = residual()
		if res.Residual < c.Threshold {
			res.Converged = true
			break
		}
		if fx < bestFx {
			bestFx = fx
			for i, v := range vars {
				best[i] = v.Get()
			}
		}
	}
	return res, nil
}
