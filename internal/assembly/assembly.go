// Package assembly closes the linkage: for a commanded bedframe angle it
// moves the bedframe position and every link angle until each link's tip
// sits on its attachment point.
package assembly

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/san-kum/murphybed/internal/mechanism"
	"github.com/san-kum/murphybed/internal/optim"
)

// ErrNotConverged is wrapped by every ConvergenceError.
var ErrNotConverged = errors.New("assembly: pin error above threshold")

// ConvergenceError means the round budget ran out before the pins closed.
// Best is the lowest-error pose found; the live assembly is left there too.
type ConvergenceError struct {
	Angle    float64
	Residual float64
	Rounds   int
	Best     mechanism.Snapshot
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("assembly: no closure at %.4g deg after %d rounds (pin error %.4g)", e.Angle, e.Rounds, e.Residual)
}

func (e *ConvergenceError) Unwrap() error { return ErrNotConverged }

type Config struct {
	Optim optim.Config
	// CoGBias weights the links' centre-of-gravity height in the
	// objective. It only breaks ties between equally closed poses.
	CoGBias float64
}

func DefaultConfig() Config {
	return Config{Optim: optim.DefaultConfig(), CoGBias: 1e-3}
}

type Result struct {
	optim.Result
	Angle float64
	Pose  mechanism.Snapshot
}

type Solver struct {
	cfg Config
	log *slog.Logger
}

func New(cfg Config, log *slog.Logger) (*Solver, error) {
	if err := cfg.Optim.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	return &Solver{cfg: cfg, log: log}, nil
}

func (s *Solver) Config() Config { return s.cfg }

// Threshold is the pin error below which a pose counts as assembled.
func (s *Solver) Threshold() float64 { return s.cfg.Optim.Threshold }

func variables(m *mechanism.Murphy) []optim.Variable {
	params := m.PoseParams()
	vars := make([]optim.Variable, len(params))
	for i, p := range params {
		vars[i] = optim.Variable{
			Name: m.Label(p),
			Get: func() float64 {
				v, _ := m.Get(p)
				return v
			},
			Set: func(v float64) { _ = m.Set(p, v) },
		}
	}
	return vars
}

// Assemble holds the bedframe angle fixed and searches the remaining pose
// from wherever m currently sits.
func (s *Solver) Assemble(ctx context.Context, m *mechanism.Murphy) (Result, error) {
	if err := m.Validate(); err != nil {
		return Result{}, err
	}
	angle := m.Bed.Angle

	objective := func() float64 { return m.IkeaError(s.cfg.CoGBias) }
	res, err := s.cfg.Optim.Descend(ctx, variables(m), objective, m.FitError)
	if err != nil {
		return Result{}, err
	}
	if err := m.Validate(); err != nil {
		return Result{}, fmt.Errorf("assembly at %.4g deg diverged: %w", angle, err)
	}

	out := Result{Result: res, Angle: angle, Pose: m.Freeze()}
	if !res.Converged {
		s.log.Debug("assembly did not converge", "angle", angle, "rounds", res.Rounds, "residual", res.Residual)
		return out, &ConvergenceError{Angle: angle, Residual: res.Residual, Rounds: res.Rounds, Best: out.Pose}
	}
	s.log.Debug("assembled", "angle", angle, "rounds", res.Rounds, "residual", res.Residual)
	return out, nil
}

// Resolve starts from seed with the bedframe at angle and assembles. Two
// calls with the same seed and design give bit-identical poses.
func (s *Solver) Resolve(ctx context.Context, m *mechanism.Murphy, angle float64, seed mechanism.Pose) (Result, error) {
	m.SetPose(seed)
	m.Bed.Angle = angle
	return s.Assemble(ctx, m)
}
