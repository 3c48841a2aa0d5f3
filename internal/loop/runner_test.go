package loop_test

import (
	"context"
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/loopkit/internal/clock"
	"github.com/san-kum/loopkit/internal/control"
	"github.com/san-kum/loopkit/internal/loop"
	"github.com/san-kum/loopkit/internal/metrics"
	"github.com/san-kum/loopkit/internal/plant"
	"github.com/san-kum/loopkit/internal/tunable"
)

type exploding struct{}

func (exploding) Derive(x plant.State, u, t float64) plant.State { return plant.State{math.NaN()} }
func (exploding) StateDim() int                                  { return 1 }
func (exploding) Output(x plant.State) float64                   { return x[0] }

var _ = Describe("Runner", func() {
	var (
		src *clock.Manual
		pid *control.PID
		r   *loop.Runner
		cfg loop.Config
	)

	BeforeEach(func() {
		var err error
		src = clock.NewManual()
		pid, err = control.NewPID(tunable.Const(4), nil, tunable.Const(0.2), control.WithClock(src))
		Expect(err).NotTo(HaveOccurred())
		r = loop.New(plant.NewMotor(), plant.NewRK4(), pid, src)
		cfg = loop.Config{Dt: 0.01, Duration: 5, Setpoint: loop.Constant(1), ValidateState: true}
	})

	It("drives a motor to the setpoint", func() {
		for _, m := range metrics.Defaults() {
			r.AddMetric(m)
		}
		trace, err := r.Run(context.Background(), cfg)
		Expect(err).NotTo(HaveOccurred())

		Expect(trace.Len()).To(Equal(500))
		Expect(trace.StepsTaken).To(Equal(500))
		Expect(trace.Measurements[trace.Len()-1]).To(BeNumerically("~", 1, 1e-3))
		Expect(trace.Metrics).To(HaveKey("iae"))
		Expect(trace.Metrics["stability"]).To(Equal(1.0))
		Expect(src.Elapsed()).To(BeNumerically("~", 5, 1e-9))
	})

	It("saturates commands", func() {
		cfg.OutputLimit = 0.5
		trace, err := r.Run(context.Background(), cfg)
		Expect(err).NotTo(HaveOccurred())
		for _, u := range trace.Outputs {
			Expect(math.Abs(u)).To(BeNumerically("<=", 0.5))
		}
		Expect(trace.Outputs[0]).To(Equal(0.5))
	})

	It("stops when the context is canceled", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		trace, err := r.Run(ctx, cfg)
		Expect(err).To(MatchError(context.Canceled))
		Expect(trace.Len()).To(BeZero())
	})

	It("notifies observers every tick", func() {
		ticks := 0
		r.AddObserver(loop.ObserverFunc(func(s metrics.Sample) { ticks++ }))
		_, err := r.Run(context.Background(), cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(ticks).To(Equal(500))
	})

	DescribeTable("rejects invalid configuration",
		func(mutate func(*loop.Config)) {
			mutate(&cfg)
			_, err := r.Run(context.Background(), cfg)
			Expect(err).To(MatchError(loop.ErrInvalidConfig))
		},
		Entry("zero dt", func(c *loop.Config) { c.Dt = 0 }),
		Entry("negative dt", func(c *loop.Config) { c.Dt = -0.1 }),
		Entry("zero duration", func(c *loop.Config) { c.Duration = 0 }),
		Entry("jitter of one", func(c *loop.Config) { c.Jitter = 1 }),
		Entry("oversized initial state", func(c *loop.Config) { c.X0 = plant.State{1, 2, 3} }),
	)

	It("reports where the plant state went invalid", func() {
		bad := loop.New(exploding{}, plant.NewEuler(), pid, src)
		trace, err := bad.Run(context.Background(), cfg)

		var simErr *loop.SimError
		Expect(errors.As(err, &simErr)).To(BeTrue())
		Expect(simErr.Step).To(BeZero())
		Expect(err).To(MatchError(loop.ErrInvalidState))
		Expect(trace.Len()).To(Equal(1))
	})

	Describe("jitter", func() {
		run := func(seed int64) []float64 {
			s := clock.NewManual()
			p, err := control.NewPID(tunable.Const(1), nil, nil, control.WithClock(s))
			Expect(err).NotTo(HaveOccurred())
			c := cfg
			c.Jitter = 0.5
			c.Seed = seed
			trace, err := loop.New(plant.NewLag(1, 1, 1), nil, p, s).Run(context.Background(), c)
			Expect(err).NotTo(HaveOccurred())
			return trace.Times
		}

		It("spaces ticks irregularly and reproducibly", func() {
			a, b := run(7), run(7)
			Expect(a).To(Equal(b))
			Expect(a[2] - a[1]).NotTo(BeNumerically("~", a[1]-a[0], 1e-12))
			Expect(run(8)).NotTo(Equal(a))
		})
	})

	Describe("sessions", func() {
		It("steps one tick at a time", func() {
			cfg.Duration = 0.03
			s, err := r.Start(cfg)
			Expect(err).NotTo(HaveOccurred())

			for i := 0; i < 3; i++ {
				sample, err := s.Step()
				Expect(err).NotTo(HaveOccurred())
				Expect(sample.Setpoint).To(Equal(1.0))
			}
			Expect(s.Done()).To(BeTrue())
			_, err = s.Step()
			Expect(err).To(MatchError(loop.ErrFinished))
			Expect(s.Finish().Len()).To(Equal(3))
		})
	})
})
