package loop_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/loopkit/internal/loop"
)

var _ = Describe("Setpoints", func() {
	DescribeTable("At",
		func(sp loop.Setpoint, t, want float64) {
			Expect(sp.At(t)).To(Equal(want))
		},
		Entry("constant", loop.Constant(2), 100.0, 2.0),
		Entry("step before", loop.Step{Before: 0, After: 1, Time: 1}, 0.5, 0.0),
		Entry("step at", loop.Step{Before: 0, After: 1, Time: 1}, 1.0, 1.0),
		Entry("square high", loop.Square{Low: -1, High: 1, Period: 2}, 0.5, 1.0),
		Entry("square low", loop.Square{Low: -1, High: 1, Period: 2}, 1.5, -1.0),
		Entry("square wraps", loop.Square{Low: -1, High: 1, Period: 2}, 2.25, 1.0),
		Entry("square without period", loop.Square{Low: -1, High: 1}, 3.0, 1.0),
		Entry("func", loop.SetpointFunc(func(t float64) float64 { return 2 * t }), 3.0, 6.0),
	)
})

var _ = Describe("Trace", func() {
	It("reports setpoint minus measurement as the error", func() {
		tr := &loop.Trace{Setpoints: []float64{1, 2}, Measurements: []float64{0.5, 3}}
		Expect(tr.Errors()).To(Equal([]float64{0.5, -1}))
	})
})
