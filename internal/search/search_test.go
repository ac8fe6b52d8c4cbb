package search_test

import (
	"context"
	"encoding/json"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/murphybed/internal/assembly"
	"github.com/san-kum/murphybed/internal/design"
	"github.com/san-kum/murphybed/internal/mechanism"
	"github.com/san-kum/murphybed/internal/search"
)

func newBed(attachX float64) *design.Bed {
	bedframe, err := mechanism.NewBedframe(mechanism.BedframeSpec{Thickness: 10, Length: 72, HeadHeight: 24, HeadDepth: 10})
	Expect(err).NotTo(HaveOccurred())
	m, err := mechanism.New(bedframe,
		mechanism.NewLink("A", 0, 5, 12, 4, 45).Attach(attachX, 2),
		mechanism.NewLink("B", 2, -10, 30, 4, 20),
	)
	Expect(err).NotTo(HaveOccurred())
	solver, err := assembly.New(assembly.DefaultConfig(), nil)
	Expect(err).NotTo(HaveOccurred())
	opts := design.DefaultOptions()
	opts.Targets = design.Targets{DeployedHeight: 18, StowedHeight: 84}
	bed, err := design.New(m, solver, opts, nil)
	Expect(err).NotTo(HaveOccurred())
	return bed
}

func testConfig(iterations int) search.Config {
	cfg := search.DefaultConfig()
	cfg.Iterations = iterations
	cfg.Angles = []float64{0, 45, 90}
	cfg.CheckpointEvery = 0
	return cfg
}

type recorder struct {
	states []search.State
}

func (r *recorder) Checkpoint(_ context.Context, st search.State) error {
	r.states = append(r.states, st)
	return nil
}

var _ = Describe("Search", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	It("never lets the committed penalty rise", func() {
		bed := newBed(10)
		s, err := search.New(bed, testConfig(8), nil)
		Expect(err).NotTo(HaveOccurred())

		sum, err := s.Run(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(sum.Iterations).To(Equal(8))
		Expect(sum.Stopped).To(Equal(search.StopBudget))

		history := s.History()
		Expect(history).To(HaveLen(8))
		for i, it := range history {
			Expect(it.Index).To(Equal(i + 1))
			Expect(it.After).To(BeNumerically("<=", it.Before))
			if !it.Accepted {
				Expect(it.After).To(Equal(it.Before))
			}
			if i > 0 {
				Expect(it.Before).To(Equal(history[i-1].After))
			}
		}
		Expect(sum.Best).To(Equal(history[7].After))
	})

	It("visits the menu round-robin", func() {
		bed := newBed(10)
		cfg := testConfig(4)
		cfg.Menu = []string{"A.length", "B.x"}
		s, err := search.New(bed, cfg, nil)
		Expect(err).NotTo(HaveOccurred())
		_, err = s.Run(ctx)
		Expect(err).NotTo(HaveOccurred())

		var params []string
		for _, it := range s.History() {
			params = append(params, it.Param)
		}
		Expect(params).To(Equal([]string{"A.length", "B.x", "A.length", "B.x"}))
	})

	It("leaves the bed on the committed design", func() {
		bed := newBed(10)
		s, err := search.New(bed, testConfig(6), nil)
		Expect(err).NotTo(HaveOccurred())
		_, err = s.Run(ctx)
		Expect(err).NotTo(HaveOccurred())

		b, err := bed.MurphyError()
		Expect(err).NotTo(HaveOccurred())
		Expect(b.Total()).To(Equal(s.Best().Total()))
		Expect(bed.Cached()).To(Equal([]float64{0, 45, 90}))
	})

	It("treats a failed trial sweep as infinitely bad", func() {
		// the lower central sample lands on attach_x = 0
		bed := newBed(0.5)
		cfg := testConfig(1)
		cfg.Menu = []string{"A.attach_x"}
		s, err := search.New(bed, cfg, nil)
		Expect(err).NotTo(HaveOccurred())

		_, err = s.Run(ctx)
		Expect(err).NotTo(HaveOccurred())
		it := s.History()[0]
		Expect(it.Failures).To(Equal(1))
		Expect(it.Accepted).To(BeFalse())
		Expect(it.Err).NotTo(BeEmpty())

		v, err := bed.Get(mustParam(bed, "A.attach_x"))
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(0.5))
	})

	It("checkpoints on the cadence and at the end", func() {
		bed := newBed(10)
		cfg := testConfig(5)
		cfg.CheckpointEvery = 2
		s, err := search.New(bed, cfg, nil)
		Expect(err).NotTo(HaveOccurred())
		rec := &recorder{}
		s.SetCheckpointer(rec)

		_, err = s.Run(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(rec.states).To(HaveLen(3))
		Expect(rec.states[0].Iteration).To(Equal(2))
		Expect(rec.states[1].Iteration).To(Equal(4))
		Expect(rec.states[2].Iteration).To(Equal(5))
		Expect(rec.states[2].History).To(HaveLen(5))
	})

	It("stops between iterations when cancelled", func() {
		bed := newBed(10)
		s, err := search.New(bed, testConfig(10), nil)
		Expect(err).NotTo(HaveOccurred())
		cctx, cancel := context.WithCancel(ctx)
		defer cancel()
		s.Observe(func(it search.Iteration) {
			if it.Index == 2 {
				cancel()
			}
		})

		sum, err := s.Run(cctx)
		Expect(errors.Is(err, context.Canceled)).To(BeTrue())
		Expect(sum.Stopped).To(Equal(search.StopCanceled))
		Expect(s.History()).To(HaveLen(2))

		b, err := bed.MurphyError()
		Expect(err).NotTo(HaveOccurred())
		Expect(b.Total()).To(Equal(s.Best().Total()))
	})

	It("stops once the target is met", func() {
		bed := newBed(10)
		cfg := testConfig(10)
		cfg.Target = 1e12
		s, err := search.New(bed, cfg, nil)
		Expect(err).NotTo(HaveOccurred())
		sum, err := s.Run(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(sum.Stopped).To(Equal(search.StopTarget))
		Expect(sum.Iterations).To(BeZero())
	})

	It("resumes a random search exactly", func() {
		cfg := testConfig(6)
		cfg.Strategy = search.Random
		cfg.Seed = 7

		whole, err := search.New(newBed(10), cfg, nil)
		Expect(err).NotTo(HaveOccurred())
		_, err = whole.Run(ctx)
		Expect(err).NotTo(HaveOccurred())

		half := cfg
		half.Iterations = 3
		first, err := search.New(newBed(10), half, nil)
		Expect(err).NotTo(HaveOccurred())
		_, err = first.Run(ctx)
		Expect(err).NotTo(HaveOccurred())

		data, err := json.Marshal(first.State())
		Expect(err).NotTo(HaveOccurred())
		var st search.State
		Expect(json.Unmarshal(data, &st)).To(Succeed())

		resumed, err := search.New(newBed(10), cfg, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(resumed.Restore(st)).To(Succeed())
		_, err = resumed.Run(ctx)
		Expect(err).NotTo(HaveOccurred())

		Expect(resumed.History()).To(Equal(whole.History()))
		Expect(resumed.Best()).To(Equal(whole.Best()))
	})

	It("rejects pose parameters and unknown names in the menu", func() {
		cfg := testConfig(1)
		cfg.Menu = []string{"A.angle"}
		_, err := search.New(newBed(10), cfg, nil)
		Expect(err).To(HaveOccurred())

		cfg.Menu = []string{"C.length"}
		_, err = search.New(newBed(10), cfg, nil)
		Expect(errors.Is(err, mechanism.ErrUnknownParam)).To(BeTrue())
	})
})

func mustParam(bed *design.Bed, name string) mechanism.Param {
	p, err := bed.ParseParam(name)
	Expect(err).NotTo(HaveOccurred())
	return p
}
