// Package search tunes the structural parameters of a design one at a
// time, keeping a step only when it lowers the murphy error of the full
// sweep.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/san-kum/murphybed/internal/design"
	"github.com/san-kum/murphybed/internal/mechanism"
	"github.com/san-kum/murphybed/internal/optim"
)

type Config struct {
	Iterations int
	// Optim supplies the sample step, learning rate, step clamp and
	// backtracking used on the one-parameter penalty curve.
	Optim optim.Config
	// Menu names the tunable parameters, e.g. "A.length". Empty means
	// every structural parameter of the design.
	Menu            []string
	Strategy        Strategy
	Seed            uint64
	CheckpointEvery int
	// Target stops the search once the penalty is at or below it. Zero
	// disables it.
	Target float64
	Angles []float64
}

func DefaultConfig() Config {
	oc := optim.DefaultConfig()
	oc.MaxStep = 2
	oc.Backtrack = 2
	angles, _ := design.Angles(10)
	return Config{
		Iterations:      100,
		Optim:           oc,
		Strategy:        RoundRobin,
		Seed:            1,
		CheckpointEvery: 10,
		Angles:          angles,
	}
}

// Iteration records one outer step.
type Iteration struct {
	Index    int     `json:"index"`
	Param    string  `json:"param"`
	Value    float64 `json:"value"`
	Step     float64 `json:"step"`
	Before   float64 `json:"before"`
	After    float64 `json:"after"`
	Accepted bool    `json:"accepted"`
	// Failures counts trial sweeps that did not assemble.
	Failures int    `json:"failures"`
	Err      string `json:"err,omitempty"`
}

// Observer is told about every finished iteration.
type Observer func(Iteration)

// Checkpointer persists the committed search state.
type Checkpointer interface {
	Checkpoint(ctx context.Context, st State) error
}

// State is a resumable search: the committed bed plus the selector
// position and the history so far.
type State struct {
	Iteration int          `json:"iteration"`
	Draws     uint64       `json:"draws"`
	Best      float64      `json:"best"`
	Bed       design.State `json:"bed"`
	History   []Iteration  `json:"history"`
	Terms     []float64    `json:"terms"`
}

type Stop string

const (
	StopBudget   Stop = "budget"
	StopTarget   Stop = "target"
	StopCanceled Stop = "canceled"
)

type Summary struct {
	Iterations int
	Accepted   int
	Best       float64
	Stopped    Stop
}

type Search struct {
	bed          *design.Bed
	cfg          Config
	menu         []mechanism.Param
	sel          *selector
	observers    []Observer
	checkpointer Checkpointer
	log          *slog.Logger

	ready     bool
	iteration int
	best      design.Breakdown
	committed design.State
	history   []Iteration
}

func New(bed *design.Bed, cfg Config, log *slog.Logger) (*Search, error) {
	if cfg.Iterations < 0 {
		return nil, fmt.Errorf("search: iterations must be non-negative, got %d", cfg.Iterations)
	}
	if err := cfg.Optim.Validate(); err != nil {
		return nil, err
	}
	if len(cfg.Angles) == 0 {
		cfg.Angles, _ = design.Angles(10)
	}
	menu := bed.Menu()
	if len(cfg.Menu) > 0 {
		menu = make([]mechanism.Param, len(cfg.Menu))
		for i, name := range cfg.Menu {
			p, err := bed.ParseParam(name)
			if err != nil {
				return nil, err
			}
			if p.IsPose() {
				return nil, fmt.Errorf("search: %s is a pose parameter", name)
			}
			menu[i] = p
		}
	}
	if len(menu) == 0 {
		return nil, errors.New("search: nothing to tune")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Search{
		bed:  bed,
		cfg:  cfg,
		menu: menu,
		sel:  newSelector(cfg.Strategy, cfg.Seed, len(menu)),
		log:  log,
	}, nil
}

func (s *Search) Observe(o Observer) { s.observers = append(s.observers, o) }

func (s *Search) SetCheckpointer(c Checkpointer) { s.checkpointer = c }

func (s *Search) Bed() *design.Bed { return s.bed }

// Best is the breakdown of the committed design.
func (s *Search) Best() design.Breakdown { return s.best }

func (s *Search) History() []Iteration { return append([]Iteration(nil), s.history...) }

func (s *Search) State() State {
	return State{
		Iteration: s.iteration,
		Draws:     s.sel.draws,
		Best:      s.best.Total(),
		Bed:       s.committed,
		History:   s.History(),
		Terms:     s.best.Terms(),
	}
}

// Restore continues from st. The committed cache must hold the boundary
// poses; the penalty is recomputed from it.
func (s *Search) Restore(st State) error {
	if err := s.bed.Restore(st.Bed); err != nil {
		return err
	}
	best, err := s.bed.MurphyError()
	if err != nil {
		return fmt.Errorf("search: restored cache unusable: %w", err)
	}
	s.best = best
	s.committed = st.Bed
	s.iteration = st.Iteration
	s.history = append([]Iteration(nil), st.History...)
	s.sel.replay(st.Draws)
	s.ready = true
	return nil
}

func (s *Search) init(ctx context.Context) error {
	if s.ready {
		return nil
	}
	best, err := s.bed.Evaluate(ctx, s.cfg.Angles)
	if err != nil {
		return fmt.Errorf("search: starting design does not sweep: %w", err)
	}
	s.best = best
	s.committed = s.bed.Commit()
	s.ready = true
	return nil
}

// Run iterates until the budget is spent, the target is reached or ctx is
// cancelled. The committed design is intact whichever way it stops.
func (s *Search) Run(ctx context.Context) (Summary, error) {
	if err := s.init(ctx); err != nil {
		return Summary{}, err
	}
	sum := Summary{Stopped: StopBudget}
	for s.iteration < s.cfg.Iterations {
		if s.cfg.Target > 0 && s.best.Total() <= s.cfg.Target {
			sum.Stopped = StopTarget
			break
		}
		if ctx.Err() != nil {
			sum.Stopped = StopCanceled
			break
		}

		draws := s.sel.draws
		it := s.step(ctx)
		if ctx.Err() != nil && !it.Accepted {
			// an interrupted step leaves no trace, so a resumed run
			// retries it
			s.iteration--
			s.sel.replay(draws)
			sum.Stopped = StopCanceled
			break
		}
		s.history = append(s.history, it)
		sum.Iterations++
		if it.Accepted {
			sum.Accepted++
		}
		for _, o := range s.observers {
			o(it)
		}
		if s.checkpointer != nil && s.cfg.CheckpointEvery > 0 && s.iteration%s.cfg.CheckpointEvery == 0 {
			if err := s.checkpointer.Checkpoint(ctx, s.State()); err != nil {
				return sum, err
			}
		}
	}
	if s.cfg.Target > 0 && s.best.Total() <= s.cfg.Target {
		sum.Stopped = StopTarget
	}
	sum.Best = s.best.Total()
	if s.checkpointer != nil {
		if err := s.checkpointer.Checkpoint(context.WithoutCancel(ctx), s.State()); err != nil {
			return sum, err
		}
	}
	if sum.Stopped == StopCanceled {
		return sum, ctx.Err()
	}
	return sum, nil
}

// step tunes one parameter. Whatever happens the bed ends on either the
// accepted design or the previously committed one.
func (s *Search) step(ctx context.Context) Iteration {
	p := s.menu[s.sel.next()]
	s.iteration++
	label := s.bed.Label(p)
	before := s.best.Total()
	it := Iteration{Index: s.iteration, Param: label, Before: before, After: before}

	x, err := s.bed.Get(p)
	if err != nil {
		it.Err = err.Error()
		return it
	}
	it.Value = x

	var (
		last    = x
		lastErr error
		trial   design.Breakdown
	)
	line := func(v float64) float64 {
		last = v
		if err := s.bed.Set(p, v); err != nil {
			lastErr = err
			it.Failures++
			return math.Inf(1)
		}
		b, err := s.bed.Evaluate(ctx, s.cfg.Angles)
		if err != nil {
			lastErr = err
			it.Failures++
			s.logFailure(label, v, err)
			return math.Inf(1)
		}
		lastErr = nil
		trial = b
		return b.Total()
	}

	step := s.cfg.Optim.Propose(line, x, before)
	nx, after := s.cfg.Optim.Settle(line, x, before, step)
	if step != 0 && nx != x && after < before && last != nx {
		after = line(nx)
	}
	it.Step = nx - x

	if step == 0 || nx == x || !(after < before) || lastErr != nil {
		if lastErr != nil {
			it.Err = lastErr.Error()
		}
		if err := s.bed.Restore(s.committed); err != nil {
			it.Err = err.Error()
		}
		s.log.Debug("step rejected", "iteration", it.Index, "param", label, "step", it.Step)
		return it
	}

	it.Accepted = true
	it.After = after
	it.Value = nx
	s.best = trial
	if deployed, ok := s.bed.Snapshot(design.Deployed); ok {
		s.bed.SetSeed(deployed.Murphy().Pose())
	}
	s.committed = s.bed.Commit()
	s.log.Info("step accepted", "iteration", it.Index, "param", label, "value", nx, "penalty", after)
	return it
}

func (s *Search) logFailure(label string, v float64, err error) {
	var serr *design.SweepError
	if errors.As(err, &serr) {
		s.log.Warn("trial sweep failed", "param", label, "value", v, "angle", serr.Angle, "err", serr.Err)
		return
	}
	s.log.Warn("trial sweep failed", "param", label, "value", v, "err", err)
}
