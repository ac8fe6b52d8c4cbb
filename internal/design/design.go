// Package design sweeps an assembly from deployed to stowed, caches every
// resolved pose and scores the whole sweep.
package design

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/san-kum/murphybed/internal/assembly"
	"github.com/san-kum/murphybed/internal/mechanism"
	"github.com/san-kum/murphybed/internal/optim"
)

const (
	Deployed = 0.0
	Stowed   = 90.0
)

type Options struct {
	Targets Targets
	Balance Balance
	// WarmStart seeds each angle from the previous angle's solution
	// instead of the seed pose.
	WarmStart bool
	// FloorPolicy measures link floor openings for the penalty.
	FloorPolicy mechanism.FloorOpeningPolicy
}

func DefaultOptions() Options {
	return Options{Balance: DefaultBalance(), WarmStart: true}
}

// Bed is one design instance: the live assembly, the pose every sweep
// starts from, and the cache of poses solved for the current design.
type Bed struct {
	murphy  *mechanism.Murphy
	seed    mechanism.Pose
	targets Targets
	balance Balance
	warm    bool
	floor   mechanism.FloorOpeningPolicy
	solver  *assembly.Solver
	cache   map[float64]mechanism.Snapshot
	log     *slog.Logger
}

// New takes a copy of m; its current pose becomes the sweep seed.
func New(m *mechanism.Murphy, solver *assembly.Solver, opts Options, log *slog.Logger) (*Bed, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if err := opts.Balance.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	return &Bed{
		murphy:  m.Clone(),
		seed:    m.Pose(),
		targets: opts.Targets,
		balance: opts.Balance,
		warm:    opts.WarmStart,
		floor:   opts.FloorPolicy,
		solver:  solver,
		log:     log,
	}, nil
}

// Angles returns n evenly spaced angles from deployed to stowed, both
// endpoints exact.
func Angles(n int) ([]float64, error) {
	if n < 2 {
		return nil, fmt.Errorf("design: a sweep needs at least 2 angles, got %d", n)
	}
	return optim.Linspace(Deployed, Stowed, n), nil
}

func (b *Bed) Targets() Targets { return b.targets }

func (b *Bed) Balance() Balance { return b.balance }

func (b *Bed) Solver() *assembly.Solver { return b.solver }

// Design returns a copy of the live assembly.
func (b *Bed) Design() *mechanism.Murphy { return b.murphy.Clone() }

func (b *Bed) Seed() mechanism.Pose { return copyPose(b.seed) }

func (b *Bed) SetSeed(p mechanism.Pose) { b.seed = copyPose(p) }

func (b *Bed) Menu() []mechanism.Param { return b.murphy.DesignMenu() }

func (b *Bed) Label(p mechanism.Param) string { return b.murphy.Label(p) }

func (b *Bed) ParseParam(s string) (mechanism.Param, error) { return b.murphy.ParseParam(s) }

func (b *Bed) Get(p mechanism.Param) (float64, error) { return b.murphy.Get(p) }

// Set changes one design parameter and drops the cache. Pose parameters
// are owned by the solver and refused.
func (b *Bed) Set(p mechanism.Param, v float64) error {
	if p.IsPose() {
		return fmt.Errorf("design: %s is solved per angle, not designed", b.murphy.Label(p))
	}
	if err := b.murphy.Set(p, v); err != nil {
		return err
	}
	b.Invalidate()
	return nil
}

// Invalidate forgets every cached pose.
func (b *Bed) Invalidate() { b.cache = nil }

// Cached lists the cached angles in ascending order.
func (b *Bed) Cached() []float64 {
	angles := make([]float64, 0, len(b.cache))
	for a := range b.cache {
		angles = append(angles, a)
	}
	sort.Float64s(angles)
	return angles
}

func (b *Bed) Snapshot(angle float64) (mechanism.Snapshot, bool) {
	s, ok := b.cache[angle]
	return s, ok
}

// Snapshots returns the cached poses in angle order.
func (b *Bed) Snapshots() []mechanism.Snapshot {
	out := make([]mechanism.Snapshot, 0, len(b.cache))
	for _, a := range b.Cached() {
		out = append(out, b.cache[a])
	}
	return out
}

func missingBoundaries(angles []float64) []float64 {
	var deployed, stowed bool
	for _, a := range angles {
		deployed = deployed || a == Deployed
		stowed = stowed || a == Stowed
	}
	var missing []float64
	if !deployed {
		missing = append(missing, Deployed)
	}
	if !stowed {
		missing = append(missing, Stowed)
	}
	return missing
}

// Sweep resolves every angle in order and replaces the cache. On any
// failure the previous cache is kept and the error names the angle.
func (b *Bed) Sweep(ctx context.Context, angles []float64) error {
	if missing := missingBoundaries(angles); missing != nil {
		return &PrerequisiteError{Missing: missing}
	}
	cache := make(map[float64]mechanism.Snapshot, len(angles))
	start := b.seed
	for i, angle := range angles {
		if i > 0 && b.warm {
			start = b.murphy.Pose()
		}
		res, err := b.solver.Resolve(ctx, b.murphy, angle, start)
		if err != nil {
			return &SweepError{Angle: angle, Err: err}
		}
		cache[angle] = res.Pose
	}
	b.cache = cache
	b.log.Debug("swept", "angles", len(angles))
	return nil
}

// Resolve solves one angle from the seed pose and caches it.
func (b *Bed) Resolve(ctx context.Context, angle float64) (mechanism.Snapshot, error) {
	res, err := b.solver.Resolve(ctx, b.murphy, angle, b.seed)
	if err != nil {
		return mechanism.Snapshot{}, &SweepError{Angle: angle, Err: err}
	}
	if b.cache == nil {
		b.cache = make(map[float64]mechanism.Snapshot)
	}
	b.cache[angle] = res.Pose
	return res.Pose, nil
}

// Evaluate sweeps and scores in one go.
func (b *Bed) Evaluate(ctx context.Context, angles []float64) (Breakdown, error) {
	if err := b.Sweep(ctx, angles); err != nil {
		return Breakdown{}, err
	}
	return b.MurphyError()
}

// State is everything needed to put a Bed back exactly where it was.
type State struct {
	Design mechanism.Snapshot   `json:"design"`
	Seed   mechanism.Pose       `json:"seed"`
	Cache  []mechanism.Snapshot `json:"cache"`
}

// Commit captures the current design, seed and cache.
func (b *Bed) Commit() State {
	return State{Design: b.murphy.Freeze(), Seed: b.Seed(), Cache: b.Snapshots()}
}

// Restore puts the bed back to a committed State. Cache entries are keyed
// by their bedframe angle.
func (b *Bed) Restore(s State) error {
	m := s.Design.Murphy()
	if len(m.Links) != len(b.murphy.Links) {
		return fmt.Errorf("design: state has %d links, design has %d", len(m.Links), len(b.murphy.Links))
	}
	b.murphy = m
	b.seed = copyPose(s.Seed)
	b.cache = nil
	if len(s.Cache) > 0 {
		b.cache = make(map[float64]mechanism.Snapshot, len(s.Cache))
		for _, snap := range s.Cache {
			b.cache[snap.Angle()] = snap
		}
	}
	return nil
}

func copyPose(p mechanism.Pose) mechanism.Pose {
	p.LinkAngles = append([]float64(nil), p.LinkAngles...)
	return p
}
