package autotune_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/loopkit/internal/angle"
	"github.com/san-kum/loopkit/internal/autotune"
	"github.com/san-kum/loopkit/internal/clock"
	"github.com/san-kum/loopkit/internal/control"
	"github.com/san-kum/loopkit/internal/filter"
	"github.com/san-kum/loopkit/internal/plant"
	"github.com/san-kum/loopkit/internal/tunable"
)

// relayRun drives a three-lag plant with the calculator for duration seconds.
func relayRun(calc *autotune.Calculator, src *clock.Manual, lag *plant.Lag, duration float64) {
	const dt = 0.001
	rk := plant.NewRK4()
	x := plant.State{0.3, 0.3, 0.3}
	steps := int(duration / dt)
	for i := 0; i < steps; i++ {
		src.Advance(dt)
		u := calc.Update(0, lag.Output(x))
		x = rk.Step(lag, x, u, float64(i)*dt, dt)
	}
}

var _ = Describe("Calculator", func() {
	var (
		src  *clock.Manual
		calc *autotune.Calculator
	)

	BeforeEach(func() {
		var err error
		src = clock.NewManual()
		calc, err = autotune.NewCalculator(tunable.Const(1), autotune.WithClock(src))
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("relay output", func() {
		It("commands the relay magnitude toward the setpoint", func() {
			src.Advance(0.01)
			Expect(calc.Update(1, 0)).To(Equal(1.0))
			src.Advance(0.01)
			Expect(calc.Update(0, 1)).To(Equal(-1.0))
			src.Advance(0.01)
			Expect(calc.Update(1, 1)).To(BeZero())
		})
	})

	Describe("before an oscillation", func() {
		It("reports sentinel gains", func() {
			Expect(calc.Ready()).To(BeFalse())
			Expect(calc.Gains(autotune.ZieglerNicholsPID)).To(Equal(autotune.NotReady))
			Expect(calc.K()).To(BeZero())
		})

		It("hands out a PID that commands nothing", func() {
			pid, err := calc.PIDController(autotune.ZieglerNicholsPID)
			Expect(err).NotTo(HaveOccurred())
			for i := 0; i < 5; i++ {
				src.Advance(0.01)
				Expect(pid.Update(3, -1)).To(BeZero())
			}
		})
	})

	Describe("on a third order lag", func() {
		const (
			tau  = 1.0
			gain = 1.0
		)
		var (
			wantTu = 2 * math.Pi * tau / math.Sqrt(3)
			wantKu = 8 / gain
		)

		BeforeEach(func() {
			relayRun(calc, src, plant.NewLag(3, gain, tau), 60)
		})

		It("estimates the ultimate period and gain", func() {
			Expect(calc.Ready()).To(BeTrue())
			Expect(calc.T()).To(BeNumerically("~", wantTu, 0.05*wantTu))
			Expect(calc.K()).To(BeNumerically("~", wantKu, 0.05*wantKu))
			Expect(calc.Amplitude()).To(BeNumerically("~", gain/(2*math.Pi), 0.05*gain/(2*math.Pi)))
		})

		It("maps the estimate through a rule", func() {
			g := calc.Gains(autotune.ZieglerNicholsPID)
			Expect(g.Kp).To(BeNumerically("~", 0.6*calc.K(), 1e-12))
			Expect(g.Ki).To(BeNumerically("~", 1.2*calc.K()/calc.T(), 1e-12))
			Expect(g.Kd).To(BeNumerically("~", 0.075*calc.K()*calc.T(), 1e-12))
		})

		It("feeds the estimate to its PID live", func() {
			pid, err := calc.PIDController(autotune.TyreusLuybenPI)
			Expect(err).NotTo(HaveOccurred())
			kp, ki, kd := pid.Gains()
			Expect(kp).To(BeNumerically("~", 0.3125*calc.K(), 1e-12))
			Expect(ki).To(BeNumerically(">", 0))
			Expect(kd).To(BeZero())
		})

		It("stabilises the plant with the tuned controller", func() {
			pid, err := calc.PIDController(autotune.TyreusLuybenPID)
			Expect(err).NotTo(HaveOccurred())

			lag := plant.NewLag(3, gain, tau)
			rk := plant.NewRK4()
			x := plant.State{0, 0, 0}
			const dt = 0.001
			for i := 0; i < 60000; i++ {
				src.Advance(dt)
				u := pid.Update(1, lag.Output(x))
				x = rk.Step(lag, x, u, 0, dt)
			}
			Expect(lag.Output(x)).To(BeNumerically("~", 1, 0.01))
		})
	})

	Describe("at the first ready tick", func() {
		const dt = 0.001
		wantTu := 2 * math.Pi / math.Sqrt(3)
		const wantKu = 8.0

		// untilReady steps the three-lag plant until calc reports ready.
		untilReady := func(calc *autotune.Calculator) {
			lag := plant.NewLag(3, 1, 1)
			rk := plant.NewRK4()
			x := plant.State{0.3, 0.3, 0.3}
			for i := 0; i < 60000 && !calc.Ready(); i++ {
				src.Advance(dt)
				u := calc.Update(0, lag.Output(x))
				x = rk.Step(lag, x, u, float64(i)*dt, dt)
			}
			Expect(calc.Ready()).To(BeTrue())
		}

		It("starts the default smoothers from the first cycle", func() {
			untilReady(calc)
			Expect(calc.Cycles()).To(Equal(1))
			Expect(calc.T()).To(BeNumerically("~", wantTu, 0.1*wantTu))
			Expect(calc.K()).To(BeNumerically("~", wantKu, 0.2*wantKu))

			g := calc.Gains(autotune.ZieglerNicholsPID)
			Expect(g.Kp).To(BeNumerically("~", 0.6*wantKu, 0.2*0.6*wantKu))
		})

		It("waits for the configured number of cycles", func() {
			var err error
			calc, err = autotune.NewCalculator(tunable.Const(1), autotune.WithClock(src), autotune.WithMinCycles(3))
			Expect(err).NotTo(HaveOccurred())
			untilReady(calc)
			Expect(calc.Cycles()).To(Equal(3))
			Expect(calc.K()).To(BeNumerically("~", wantKu, 0.15*wantKu))
		})
	})

	Describe("stale ticks", func() {
		It("discards the half cycle spanning a gap", func() {
			src.Advance(0.01)
			calc.Update(1, 0)
			src.Advance(0.2)
			calc.Update(0, 1)
			Expect(calc.Running()).To(BeTrue())

			src.Advance(1)
			calc.Update(1, 0)
			Expect(calc.Cycles()).To(BeZero())
			Expect(calc.Running()).To(BeTrue())

			src.Advance(0.2)
			calc.Update(0, 1)
			Expect(calc.Cycles()).To(Equal(1))
		})

		It("ignores half cycles shorter than the minimum period", func() {
			src.Advance(0.01)
			calc.Update(1, 0)
			src.Advance(0.01)
			calc.Update(0, 1)
			src.Advance(0.01)
			calc.Update(1, 0)
			Expect(calc.Cycles()).To(BeZero())
		})
	})

	Describe("smoothing", func() {
		It("uses the supplied filters", func() {
			var err error
			calc, err = autotune.NewCalculator(tunable.Const(2),
				autotune.WithClock(src),
				autotune.WithPeriodFilter(filter.Identity()),
				autotune.WithAmplitudeFilter(filter.Identity()),
			)
			Expect(err).NotTo(HaveOccurred())

			src.Advance(0.01)
			calc.Update(0.5, 0)
			src.Advance(0.25)
			calc.Update(0, 0.25)
			src.Advance(0.25)
			calc.Update(0.5, 0)

			Expect(calc.T()).To(BeNumerically("~", 0.5, 1e-9))
			Expect(calc.Amplitude()).To(BeNumerically("~", 0.25, 1e-12))
			Expect(calc.K()).To(BeNumerically("~", 8/(math.Pi*0.25), 1e-9))
		})
	})

	Describe("angle calculator", func() {
		It("relays along the shortest rotation", func() {
			ac, err := autotune.NewAngleCalculator(tunable.Const(1), autotune.WithClock(src))
			Expect(err).NotTo(HaveOccurred())
			src.Advance(0.01)
			Expect(ac.Update(angle.FromDegrees(179), angle.FromDegrees(-179))).To(Equal(-1.0))
		})
	})

	Describe("configuration", func() {
		It("rejects a nil relay magnitude", func() {
			_, err := autotune.NewCalculator(nil)
			Expect(err).To(MatchError(autotune.ErrInvalidConfiguration))
		})

		It("rejects a minimum cycle count below one", func() {
			_, err := autotune.NewCalculator(tunable.Const(1), autotune.WithMinCycles(0))
			Expect(err).To(MatchError(autotune.ErrInvalidConfiguration))
		})

		It("rejects a non-positive stale threshold", func() {
			_, err := autotune.NewCalculator(tunable.Const(1), autotune.WithStaleAfter(0))
			Expect(err).To(MatchError(autotune.ErrInvalidConfiguration))
		})

		It("passes control options through", func() {
			scaled, err := autotune.NewCalculator(tunable.Const(1),
				autotune.WithClock(src),
				autotune.WithControlOptions(control.WithOutputFilter(filter.Func(func(x float64) float64 { return 3 * x }))),
			)
			Expect(err).NotTo(HaveOccurred())
			src.Advance(0.01)
			Expect(scaled.Update(1, 0)).To(Equal(3.0))
		})
	})
})

var _ = Describe("Rules", func() {
	It("looks rules up by name", func() {
		r, err := autotune.RuleByName("zn-pid")
		Expect(err).NotTo(HaveOccurred())
		Expect(r).To(Equal(autotune.ZieglerNicholsPID))

		_, err = autotune.RuleByName("cohen-coon")
		Expect(err).To(MatchError(autotune.ErrUnknownRule))
	})

	It("lists every rule once", func() {
		Expect(autotune.Rules()).To(HaveLen(11))
	})

	It("applies the Ziegler-Nichols table", func() {
		g := autotune.ZieglerNicholsPID.Apply(10, 2)
		Expect(g.Kp).To(BeNumerically("~", 6, 1e-12))
		Expect(g.Ki).To(BeNumerically("~", 6, 1e-12))
		Expect(g.Kd).To(BeNumerically("~", 1.5, 1e-12))
	})
})
