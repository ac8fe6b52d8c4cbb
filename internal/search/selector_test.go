package search

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("selector", func() {
	It("cycles in menu order for round-robin", func() {
		s := newSelector(RoundRobin, 1, 3)
		var got []int
		for i := 0; i < 7; i++ {
			got = append(got, s.next())
		}
		Expect(got).To(Equal([]int{0, 1, 2, 0, 1, 2, 0}))
	})

	It("replays random draws from the seed", func() {
		a := newSelector(Random, 42, 5)
		var want []int
		for i := 0; i < 20; i++ {
			want = append(want, a.next())
		}

		b := newSelector(Random, 42, 5)
		for i := 0; i < 11; i++ {
			b.next()
		}
		b.replay(8)
		var got []int
		for i := 8; i < 20; i++ {
			got = append(got, b.next())
		}
		Expect(got).To(Equal(want[8:]))
		for _, i := range want {
			Expect(i).To(BeNumerically(">=", 0))
			Expect(i).To(BeNumerically("<", 5))
		}
	})

	DescribeTable("ParseStrategy",
		func(name string, want Strategy, ok bool) {
			got, err := ParseStrategy(name)
			if !ok {
				Expect(err).To(HaveOccurred())
				return
			}
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(want))
			Expect(ParseStrategy(got.String())).To(Equal(want))
		},
		Entry("round-robin", "round-robin", RoundRobin, true),
		Entry("empty", "", RoundRobin, true),
		Entry("random", "random", Random, true),
		Entry("unknown", "annealing", RoundRobin, false),
	)
})
