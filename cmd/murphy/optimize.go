package main

import (
	"context"
	"fmt"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/murphybed/internal/config"
	"github.com/san-kum/murphybed/internal/metrics"
	"github.com/san-kum/murphybed/internal/search"
	"github.com/san-kum/murphybed/internal/storage"
	"github.com/san-kum/murphybed/internal/viz"
	"github.com/spf13/cobra"
)

// session is a search wired to its run directory and metrics.
type session struct {
	run     *storage.Run
	search  *search.Search
	metrics metrics.Set
	// remaining iterations in this invocation
	cycles int
}

func applySearchFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("strategy") {
		cfg.Search.Strategy = strategy
	}
	if cmd.Flags().Changed("seed") {
		cfg.Search.Seed = searchSeed
	}
	if cmd.Flags().Changed("checkpoint-every") {
		cfg.Search.CheckpointEvery = checkpointEvery
	}
	if cmd.Flags().Changed("target") {
		cfg.Search.Target = target
	}
	if cmd.Flags().Changed("angles") {
		cfg.Sweep.Angles = angles
	}
}

// openSession creates a new run, or reopens --resume and extends its
// budget by cycles.
func openSession(cmd *cobra.Command, args []string, log *slog.Logger) (*session, error) {
	cycles := parseCycles(args)
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return nil, err
	}

	var (
		run *storage.Run
		cp  *storage.Checkpoint
		cfg *config.Config
		err error
	)
	if resume != "" {
		var id string
		if id, err = st.Find(resume); err != nil {
			return nil, err
		}
		run, cp, err = st.Resume(id)
		if err != nil {
			return nil, err
		}
		// the stored config defines the run; only the search knobs that
		// do not change its trajectory may be overridden
		cfg = run.Config()
		if cmd.Flags().Changed("checkpoint-every") {
			cfg.Search.CheckpointEvery = checkpointEvery
		}
		if cmd.Flags().Changed("target") {
			cfg.Search.Target = target
		}
		cfg.Search.Iterations = cp.State.Iteration + cycles
	} else {
		var name string
		cfg, name, err = loadConfig()
		if err != nil {
			return nil, err
		}
		applySearchFlags(cmd, cfg)
		cfg.Search.Iterations = cycles
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		run, err = st.Create(name, cfg)
		if err != nil {
			return nil, err
		}
		// Create keeps its own copy
		cfg = run.Config()
	}

	bed, err := cfg.Bed(log)
	if err != nil {
		return nil, err
	}
	scfg, err := cfg.SearchConfig()
	if err != nil {
		return nil, err
	}
	s, err := search.New(bed, scfg, log)
	if err != nil {
		return nil, err
	}

	set := metrics.Default()
	if cp != nil {
		if err := s.Restore(cp.State); err != nil {
			return nil, fmt.Errorf("resume %s: %w", run.ID(), err)
		}
		for _, it := range cp.State.History {
			set.Observe(it)
		}
		log.Info("resuming", "run", run.ID(), "iteration", cp.State.Iteration, "best", cp.State.Best)
	} else {
		log.Info("new run", "run", run.ID(), "iterations", cycles)
	}
	s.Observe(set.Observe)
	run.Track(set)
	s.SetCheckpointer(run)

	return &session{
		run:     run,
		search:  s,
		metrics: set,
		cycles:  cycles,
	}, nil
}

func optimize(cmd *cobra.Command, args []string) error {
	sess, err := openSession(cmd, args, slog.Default())
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	sum, err := sess.search.Run(ctx)
	if err != nil && !interrupted(err) {
		return err
	}
	fmt.Println(viz.Report(sess.run.ID(), sess.search.Best(), sess.search.Bed().Snapshots()))
	fmt.Printf("%d iterations, %d accepted, stopped: %s\n", sum.Iterations, sum.Accepted, sum.Stopped)
	if interrupted(err) {
		fmt.Printf("interrupted; continue with: murphy optimize --resume %s\n", sess.run.ID()[:8])
	}
	return nil
}

func watch(cmd *cobra.Command, args []string) error {
	// log records would tear the full-screen view
	quiet := slog.New(slog.DiscardHandler)
	sess, err := openSession(cmd, args, quiet)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan tea.Msg, 16)
	sess.search.Observe(func(it search.Iteration) {
		events <- viz.ProgressMsg{
			Iteration: it,
			Sweep:     sess.search.Bed().Snapshots(),
			Metrics:   sess.metrics.Values(),
		}
	})

	result := make(chan viz.DoneMsg, 1)
	go func() {
		defer close(events)
		sum, err := sess.search.Run(ctx)
		done := viz.DoneMsg{Summary: sum, Err: err}
		result <- done
		events <- done
	}()

	model := viz.NewWatch(sess.run.ID()[:8], sess.cycles, sess.search.Bed().Snapshots(), events, cancel)
	_, runErr := tea.NewProgram(model, tea.WithAltScreen()).Run()

	// stop the search if the view went away first and let it checkpoint
	cancel()
	for range events {
	}
	done := <-result
	if runErr != nil {
		return runErr
	}
	if done.Err != nil && !interrupted(done.Err) {
		return done.Err
	}
	fmt.Printf("run %s: best %.6g after %d iterations (%s)\n",
		sess.run.ID(), sess.search.Best().Total(), done.Summary.Iterations, done.Summary.Stopped)
	return nil
}
