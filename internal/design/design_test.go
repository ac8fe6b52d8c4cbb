package design_test

import (
	"context"
	"encoding/json"
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/murphybed/internal/assembly"
	"github.com/san-kum/murphybed/internal/design"
	"github.com/san-kum/murphybed/internal/mechanism"
)

func referenceBed() *design.Bed {
	bedframe, err := mechanism.NewBedframe(mechanism.BedframeSpec{Thickness: 10, Length: 72, HeadHeight: 24, HeadDepth: 10})
	Expect(err).NotTo(HaveOccurred())
	m, err := mechanism.New(bedframe,
		mechanism.NewLink("A", 0, 5, 12, 4, 45).Attach(10, 2),
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

var _ = Describe("Angles", func() {
	It("hits both boundaries exactly", func() {
		angles, err := design.Angles(5)
		Expect(err).NotTo(HaveOccurred())
		Expect(angles).To(Equal([]float64{0, 22.5, 45, 67.5, 90}))
	})

	It("rejects fewer than two angles", func() {
		_, err := design.Angles(1)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Bed", func() {
	var (
		bed    *design.Bed
		ctx    context.Context
		angles []float64
	)

	BeforeEach(func() {
		bed = referenceBed()
		ctx = context.Background()
		angles = []float64{0, 22.5, 45, 67.5, 90}
	})

	Describe("Sweep", func() {
		It("caches one pose per angle", func() {
			Expect(bed.Sweep(ctx, angles)).To(Succeed())
			Expect(bed.Cached()).To(Equal(angles))
			for _, a := range angles {
				snap, ok := bed.Snapshot(a)
				Expect(ok).To(BeTrue())
				Expect(snap.Angle()).To(Equal(a))
				Expect(snap.FitError()).To(BeNumerically("<", 0.125))
			}
		})

		It("refuses a sweep without both boundaries", func() {
			err := bed.Sweep(ctx, []float64{10, 20, 90})
			var perr *design.PrerequisiteError
			Expect(errors.As(err, &perr)).To(BeTrue())
			Expect(perr.Missing).To(Equal([]float64{0}))
			Expect(errors.Is(err, design.ErrMissingBoundary)).To(BeTrue())
		})

		It("keeps the committed cache when an angle fails", func() {
			Expect(bed.Sweep(ctx, angles)).To(Succeed())
			before, _ := bed.Snapshot(45)

			cctx, cancel := context.WithCancel(ctx)
			cancel()
			err := bed.Sweep(cctx, []float64{0, 30, 90})
			var serr *design.SweepError
			Expect(errors.As(err, &serr)).To(BeTrue())
			Expect(serr.Angle).To(Equal(0.0))
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())

			Expect(bed.Cached()).To(Equal(angles))
			after, _ := bed.Snapshot(45)
			Expect(after).To(Equal(before))
		})

		It("tags geometry failures with their angle", func() {
			a, err := bed.ParseParam("A.attach_x")
			Expect(err).NotTo(HaveOccurred())
			Expect(bed.Set(a, 0)).To(Succeed())
			err = bed.Sweep(ctx, angles)
			var gerr *mechanism.GeometryError
			Expect(errors.As(err, &gerr)).To(BeTrue())
			var serr *design.SweepError
			Expect(errors.As(err, &serr)).To(BeTrue())
			Expect(serr.Angle).To(Equal(0.0))
		})

		It("is repeatable", func() {
			Expect(bed.Sweep(ctx, angles)).To(Succeed())
			first := bed.Snapshots()
			Expect(bed.Sweep(ctx, angles)).To(Succeed())
			Expect(bed.Snapshots()).To(Equal(first))
		})
	})

	Describe("cache ownership", func() {
		It("is not disturbed by later solving", func() {
			Expect(bed.Sweep(ctx, angles)).To(Succeed())
			deployed, _ := bed.Snapshot(0)
			x := deployed.Bedframe().X

			_, err := bed.Resolve(ctx, 45)
			Expect(err).NotTo(HaveOccurred())
			again, _ := bed.Snapshot(0)
			Expect(again.Bedframe().X).To(Equal(x))
		})

		It("is dropped by a design change", func() {
			Expect(bed.Sweep(ctx, angles)).To(Succeed())
			p, err := bed.ParseParam("A.length")
			Expect(err).NotTo(HaveOccurred())
			Expect(bed.Set(p, 13)).To(Succeed())
			Expect(bed.Cached()).To(BeEmpty())
		})

		It("refuses pose parameters", func() {
			p, err := bed.ParseParam("bedframe.x")
			Expect(err).NotTo(HaveOccurred())
			Expect(bed.Set(p, 3)).NotTo(Succeed())
		})
	})

	Describe("MurphyError", func() {
		It("needs the deployed and stowed poses", func() {
			_, err := bed.MurphyError()
			var perr *design.PrerequisiteError
			Expect(errors.As(err, &perr)).To(BeTrue())
			Expect(perr.Missing).To(ConsistOf(0.0, 90.0))

			_, err = bed.Resolve(ctx, 90)
			Expect(err).NotTo(HaveOccurred())
			_, err = bed.MurphyError()
			Expect(errors.As(err, &perr)).To(BeTrue())
			Expect(perr.Missing).To(Equal([]float64{0}))
		})

		It("returns a finite total that matches its terms", func() {
			Expect(bed.Sweep(ctx, angles)).To(Succeed())
			b, err := bed.MurphyError()
			Expect(err).NotTo(HaveOccurred())
			Expect(b.Terms()).To(HaveLen(design.NumTerms))
			sum := 0.0
			for _, v := range b.Terms() {
				Expect(v).To(BeNumerically(">=", 0))
				sum += v
			}
			Expect(math.IsInf(b.Total(), 0) || math.IsNaN(b.Total())).To(BeFalse())
			Expect(b.Total()).To(BeNumerically("~", sum, 1e-9))
			Expect(b.Named()).To(HaveKey("floor_opening"))
		})

		It("scores the boundary terms from the cached poses", func() {
			Expect(bed.Sweep(ctx, angles)).To(Succeed())
			b, err := bed.MurphyError()
			Expect(err).NotTo(HaveOccurred())
			deployed, _ := bed.Snapshot(0)
			stowed, _ := bed.Snapshot(90)

			dx := deployed.Bedframe().X
			Expect(b.Raw[design.TermDeployedWall]).To(Equal(dx * dx))
			dh := deployed.Bedframe().Y + 10 - 18
			Expect(b.Raw[design.TermDeployedHeight]).To(BeNumerically("~", dh*dh, 1e-9))
			sf := stowed.Bedframe().X - 24
			Expect(b.Raw[design.TermStowedFlush]).To(BeNumerically("~", sf*sf, 1e-9))
			Expect(b.Raw[design.TermAttachment]).To(Equal(0.0))
		})

		It("divides each term by its balance weight", func() {
			bedframe, err := mechanism.NewBedframe(mechanism.BedframeSpec{Thickness: 10, Length: 72, HeadHeight: 24, HeadDepth: 10})
			Expect(err).NotTo(HaveOccurred())
			m, err := mechanism.New(bedframe, mechanism.NewLink("A", 0, 5, 12, 4, 45).Attach(10, 2))
			Expect(err).NotTo(HaveOccurred())
			solver, err := assembly.New(assembly.DefaultConfig(), nil)
			Expect(err).NotTo(HaveOccurred())
			opts := design.DefaultOptions()
			opts.Balance[design.TermDeployedWall] = 4
			weighted, err := design.New(m, solver, opts, nil)
			Expect(err).NotTo(HaveOccurred())

			Expect(weighted.Sweep(ctx, angles)).To(Succeed())
			b, err := weighted.MurphyError()
			Expect(err).NotTo(HaveOccurred())
			Expect(b.Weighted[design.TermDeployedWall]).To(Equal(b.Raw[design.TermDeployedWall] / 4))
		})

		It("penalises an attachment off the frame", func() {
			p, err := bed.ParseParam("A.attach_y")
			Expect(err).NotTo(HaveOccurred())
			Expect(bed.Set(p, 40)).To(Succeed())
			Expect(bed.Sweep(ctx, angles)).To(Succeed())
			b, err := bed.MurphyError()
			Expect(err).NotTo(HaveOccurred())
			// local CoG (36, 5) to (10, 40)
			Expect(b.Raw[design.TermAttachment]).To(BeNumerically("~", 26*26+35*35, 1e-9))
		})
	})

	Describe("Commit and Restore", func() {
		It("brings back design and cache", func() {
			Expect(bed.Sweep(ctx, angles)).To(Succeed())
			committed := bed.Commit()
			want, err := bed.MurphyError()
			Expect(err).NotTo(HaveOccurred())

			p, err := bed.ParseParam("B.length")
			Expect(err).NotTo(HaveOccurred())
			Expect(bed.Set(p, 40)).To(Succeed())
			Expect(bed.Restore(committed)).To(Succeed())

			v, err := bed.Get(p)
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal(30.0))
			got, err := bed.MurphyError()
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(want))
		})

		It("survives a JSON round trip", func() {
			Expect(bed.Sweep(ctx, angles)).To(Succeed())
			want, err := bed.MurphyError()
			Expect(err).NotTo(HaveOccurred())

			data, err := json.Marshal(bed.Commit())
			Expect(err).NotTo(HaveOccurred())
			var state design.State
			Expect(json.Unmarshal(data, &state)).To(Succeed())

			other := referenceBed()
			Expect(other.Restore(state)).To(Succeed())
			Expect(other.Cached()).To(Equal(angles))
			got, err := other.MurphyError()
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(want))
		})
	})
})

var _ = Describe("Ensemble", func() {
	angles := []float64{0, 45, 90}

	It("matches evaluating each member alone", func() {
		want, err := referenceBed().Evaluate(context.Background(), angles)
		Expect(err).NotTo(HaveOccurred())

		broken := referenceBed()
		a, err := broken.ParseParam("A.attach_x")
		Expect(err).NotTo(HaveOccurred())
		Expect(broken.Set(a, 0)).To(Succeed())

		out, err := design.NewEnsemble(referenceBed(), broken, referenceBed()).Evaluate(context.Background(), angles)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(HaveLen(3))
		Expect(out[0].Err).NotTo(HaveOccurred())
		Expect(out[0].Breakdown).To(Equal(want))
		Expect(out[2].Breakdown).To(Equal(want))

		var serr *design.SweepError
		Expect(errors.As(out[1].Err, &serr)).To(BeTrue())
	})

	It("fails as a whole only when cancelled", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := design.NewEnsemble(referenceBed(), referenceBed()).Evaluate(ctx, angles)
		Expect(err).To(MatchError(context.Canceled))
	})
})
