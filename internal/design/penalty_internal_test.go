package design

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/murphybed/internal/assembly"
	"github.com/san-kum/murphybed/internal/mechanism"
)

// posedBed caches two hand-placed poses so every term has a value that can
// be worked out on paper.
//
//	bedframe t=10 l=72 h=24 d=10, targets 18 / 84
//	deployed bed at (2, 9, 0°), stowed bed at (25, 6, 90°)
//	A: pivot (-3, 20), length 40, width 2, 0° in both poses, attached at (10, 2)
//	B: pivot (bx, -5), length 32, width 2, 90° in both poses
func posedBed(bx float64, policy mechanism.FloorOpeningPolicy) *Bed {
	frame, err := mechanism.NewBedframe(mechanism.BedframeSpec{Thickness: 10, Length: 72, HeadHeight: 24, HeadDepth: 10})
	Expect(err).NotTo(HaveOccurred())
	m, err := mechanism.New(frame,
		mechanism.NewLink("A", -3, 20, 40, 2, 0).Attach(10, 2),
		mechanism.NewLink("B", bx, -5, 32, 2, 90),
	)
	Expect(err).NotTo(HaveOccurred())

	m.SetPose(mechanism.Pose{X: 2, Y: 9, Angle: 0, LinkAngles: []float64{0, 90}})
	deployed := m.Freeze()
	m.SetPose(mechanism.Pose{X: 25, Y: 6, Angle: 90, LinkAngles: []float64{0, 90}})
	stowed := m.Freeze()

	solver, err := assembly.New(assembly.DefaultConfig(), nil)
	Expect(err).NotTo(HaveOccurred())
	opts := DefaultOptions()
	opts.Targets = Targets{DeployedHeight: 18, StowedHeight: 84}
	opts.FloorPolicy = policy
	b, err := New(m, solver, opts, nil)
	Expect(err).NotTo(HaveOccurred())
	b.cache = map[float64]mechanism.Snapshot{Deployed: deployed, Stowed: stowed}
	return b
}

var _ = Describe("murphy-error terms", func() {
	It("matches the hand-worked values for every term", func() {
		b, err := posedBed(30, mechanism.ConservativeBound).MurphyError()
		Expect(err).NotTo(HaveOccurred())

		want := map[int]float64{
			// 9 + 10 - 18
			TermDeployedHeight: 1,
			TermDeployedWall:   4,
			// 25 - 24
			TermStowedFlush: 1,
			// 6 + 72 - 84
			TermStowedHeight: 36,
			// A's left edge at -3 - 1
			TermOutOfHouse: 16,
			// A reaches x = 38 above the floor, face at 25
			TermStowedEncroachment: 169,
			// B's top at 27 + 1 against a mattress at 19
			TermDeployedEncroachment: 81,
			// B crosses at 30 + 1, stowed x 25
			TermFloorOpening: 36,
			// A deployed: tip (37, 20) against (12, 11), 25² + 9²
			TermBuildability: 706 * 706,
			TermAttachment:   0,
		}
		for term, v := range want {
			Expect(b.Raw[term]).To(BeNumerically("~", v, 1e-6), termNames[term])
			Expect(b.Weighted[term]).To(Equal(b.Raw[term]), termNames[term])
		}
	})

	It("agrees with the snapshot queries", func() {
		bed := posedBed(30, mechanism.ConservativeBound)
		b, err := bed.MurphyError()
		Expect(err).NotTo(HaveOccurred())

		left, opening, fit := 0.0, 0.0, 0.0
		for _, s := range bed.cache {
			left = min(left, s.Left())
			opening = max(opening, s.FloorOpening())
			fit = max(fit, s.WorstFit())
		}
		stowedX := bed.cache[Stowed].Bedframe().X
		Expect(b.Raw[TermOutOfHouse]).To(Equal(left * left))
		Expect(b.Raw[TermFloorOpening]).To(Equal((opening - stowedX) * (opening - stowedX)))
		Expect(b.Raw[TermBuildability]).To(Equal(fit * fit))
	})

	It("does not charge a floor opening inside the stowed setback", func() {
		bed := posedBed(20, mechanism.ConservativeBound)
		Expect(bed.cache[Stowed].FloorOpening()).To(BeNumerically("~", 21, 1e-9))

		b, err := bed.MurphyError()
		Expect(err).NotTo(HaveOccurred())
		Expect(b.Raw[TermFloorOpening]).To(Equal(0.0))
		// B no longer reaches past the stowed face; A still does
		Expect(b.Raw[TermStowedEncroachment]).To(BeNumerically("~", 169, 1e-6))
	})

	It("measures the floor opening with the configured policy", func() {
		// lying on the floor the two policies disagree: 10+√3 against 10
		frame, err := mechanism.NewBedframe(mechanism.BedframeSpec{Thickness: 10, Length: 72, HeadHeight: 24, HeadDepth: 10})
		Expect(err).NotTo(HaveOccurred())
		m, err := mechanism.New(frame, mechanism.NewLink("L", 0, 1, 30, 4, 0))
		Expect(err).NotTo(HaveOccurred())
		m.SetPose(mechanism.Pose{X: 2, Y: 9, Angle: 0})
		deployed := m.Freeze()
		m.SetPose(mechanism.Pose{X: 25, Y: 6, Angle: 90})
		stowed := m.Freeze()

		solver, err := assembly.New(assembly.DefaultConfig(), nil)
		Expect(err).NotTo(HaveOccurred())
		opts := DefaultOptions()
		opts.FloorPolicy = mechanism.Footprint
		footprint, err := New(m, solver, opts, nil)
		Expect(err).NotTo(HaveOccurred())
		footprint.cache = map[float64]mechanism.Snapshot{Deployed: deployed, Stowed: stowed}

		b, err := footprint.MurphyError()
		Expect(err).NotTo(HaveOccurred())
		// 30 - 25
		Expect(b.Raw[TermFloorOpening]).To(BeNumerically("~", 25, 1e-9))
	})
})
