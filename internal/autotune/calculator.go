package autotune

import (
	"math"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/san-kum/loopkit/internal/clock"
	"github.com/san-kum/loopkit/internal/control"
	"github.com/san-kum/loopkit/internal/filter"
	"github.com/san-kum/loopkit/internal/tunable"
)

const (
	DefaultStaleAfter = 0.5
	DefaultMinPeriod  = 0.05
	DefaultMinCycles  = 1
	defaultWindow     = 4
)

type Option func(*config)

type config struct {
	src        clock.Source
	log        *zap.Logger
	staleAfter float64
	minPeriod  float64
	minCycles  int
	periodF    filter.Filter
	amplitudeF filter.Filter
	control    []control.Option
}

func WithClock(src clock.Source) Option {
	return func(c *config) { c.src = src }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *config) { c.log = l }
}

// WithStaleAfter sets the tick gap, in seconds, that invalidates the
// half-cycle being measured.
func WithStaleAfter(seconds float64) Option {
	return func(c *config) { c.staleAfter = seconds }
}

// WithMinPeriod ignores half-cycles shorter than seconds, which are sensor
// chatter around the setpoint rather than oscillation.
func WithMinPeriod(seconds float64) Option {
	return func(c *config) { c.minPeriod = seconds }
}

// WithMinCycles holds Ready back until n cycles have been measured.
func WithMinCycles(n int) Option {
	return func(c *config) { c.minCycles = n }
}

// WithPeriodFilter smooths successive period estimates. A filter that
// implements filter.Primer is primed with the first estimate.
func WithPeriodFilter(f filter.Filter) Option {
	return func(c *config) { c.periodF = f }
}

// WithAmplitudeFilter smooths successive amplitude estimates.
func WithAmplitudeFilter(f filter.Filter) Option {
	return func(c *config) { c.amplitudeF = f }
}

// WithControlOptions passes options such as error filters to the
// underlying controller.
func WithControlOptions(opts ...control.Option) Option {
	return func(c *config) { c.control = append(c.control, opts...) }
}

// Calculator drives a relay and measures the resulting limit cycle.
type Calculator struct {
	*control.Base

	speed      tunable.Number
	staleAfter float64
	minPeriod  float64
	minCycles  int
	periodF    filter.Filter
	amplitudeF filter.Filter
	wrap       bool
	src        clock.Source
	log        *zap.Logger

	tick      *clock.StopWatch
	half      *clock.StopWatch
	running   bool
	maxErr    float64
	lastSign  float64
	period    float64
	amplitude float64
	cycles    int
}

// NewCalculator builds a relay of magnitude speed.
func NewCalculator(speed tunable.Number, opts ...Option) (*Calculator, error) {
	return newCalculator(speed, false, opts)
}

// NewAngleCalculator works on wrapped angles in radians and hands out
// angle PIDs.
func NewAngleCalculator(speed tunable.Number, opts ...Option) (*Calculator, error) {
	return newCalculator(speed, true, opts)
}

func newCalculator(speed tunable.Number, wrap bool, opts []Option) (*Calculator, error) {
	if speed == nil {
		return nil, errors.Wrap(ErrInvalidConfiguration, "nil relay magnitude")
	}
	cfg := config{
		src:        clock.System{},
		log:        zap.NewNop(),
		staleAfter: DefaultStaleAfter,
		minPeriod:  DefaultMinPeriod,
		minCycles:  DefaultMinCycles,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.src == nil {
		cfg.src = clock.System{}
	}
	if cfg.log == nil {
		cfg.log = zap.NewNop()
	}
	if !(cfg.staleAfter > 0) {
		return nil, errors.Wrapf(ErrInvalidConfiguration, "stale threshold %g must be > 0", cfg.staleAfter)
	}
	if cfg.minPeriod < 0 {
		return nil, errors.Wrapf(ErrInvalidConfiguration, "minimum period %g must be >= 0", cfg.minPeriod)
	}
	if cfg.minCycles < 1 {
		return nil, errors.Wrapf(ErrInvalidConfiguration, "minimum cycles %d must be >= 1", cfg.minCycles)
	}

	var err error
	if cfg.periodF == nil {
		if cfg.periodF, err = defaultSmoother(); err != nil {
			return nil, err
		}
	}
	if cfg.amplitudeF == nil {
		if cfg.amplitudeF, err = defaultSmoother(); err != nil {
			return nil, err
		}
	}

	c := &Calculator{
		speed:      speed,
		staleAfter: cfg.staleAfter,
		minPeriod:  cfg.minPeriod,
		minCycles:  cfg.minCycles,
		periodF:    cfg.periodF,
		amplitudeF: cfg.amplitudeF,
		wrap:       wrap,
		src:        cfg.src,
		log:        cfg.log,
		tick:       clock.NewStopWatch(cfg.src),
		half:       clock.NewStopWatch(cfg.src),
	}

	ctrlOpts := append([]control.Option{control.WithClock(cfg.src)}, cfg.control...)
	if wrap {
		ctrlOpts = append(ctrlOpts, control.WithAngleWrap())
	}
	if c.Base, err = control.NewBase(c, ctrlOpts...); err != nil {
		return nil, errors.Wrap(err, "autotune")
	}
	return c, nil
}

// defaultSmoother is two cascaded 4-sample moving averages.
func defaultSmoother() (filter.Filter, error) {
	a, err := filter.NewMovingAverage(defaultWindow)
	if err != nil {
		return nil, err
	}
	b, err := filter.NewMovingAverage(defaultWindow)
	if err != nil {
		return nil, err
	}
	return filter.NewGroup(a, b), nil
}

// Calculate implements control.Core with the relay.
func (c *Calculator) Calculate(_, _, e float64) float64 {
	if gap := c.tick.Reset(); gap > c.staleAfter {
		if c.running {
			c.log.Debug("relay tick gap, discarding half cycle", zap.Float64("gap", gap))
		}
		c.running = false
	}

	s := sign(e)
	if s != 0 && c.lastSign != 0 && s != c.lastSign {
		c.crossing()
	}
	c.maxErr = math.Max(c.maxErr, math.Abs(e))

	if s != 0 {
		c.lastSign = s
	}
	return s * c.speed.Value()
}

func (c *Calculator) crossing() {
	half := c.half.Reset()
	if c.running && half >= c.minPeriod {
		first := c.cycles == 0
		c.period = smooth(c.periodF, 2*half, first)
		c.amplitude = smooth(c.amplitudeF, c.maxErr, first)
		c.cycles++

		c.log.Debug("relay cycle",
			zap.Int("cycle", c.cycles),
			zap.Float64("half_period", half),
			zap.Float64("peak_error", c.maxErr),
			zap.Float64("period", c.period),
			zap.Float64("amplitude", c.amplitude),
		)
		if c.cycles == 1 {
			c.log.Info("relay oscillation established", zap.Float64("period", c.period))
		}
	}
	c.maxErr = 0
	c.running = true
}

// smooth feeds v to f. The first estimate primes f when it can be primed.
func smooth(f filter.Filter, v float64, first bool) float64 {
	if p, ok := f.(filter.Primer); ok && first {
		p.Prime(v)
	}
	return f.Apply(v)
}

// Ready reports whether enough oscillation cycles have produced an
// estimate.
func (c *Calculator) Ready() bool {
	return c.cycles >= c.minCycles && c.period > 0 && c.amplitude > 0
}

// K is the ultimate gain estimate.
func (c *Calculator) K() float64 {
	if !c.Ready() {
		return 0
	}
	return 4 * c.speed.Value() / (math.Pi * c.amplitude)
}

// T is the ultimate period estimate in seconds.
func (c *Calculator) T() float64 { return c.period }

func (c *Calculator) Amplitude() float64 { return c.amplitude }

// Cycles counts half-cycles that contributed to the estimate.
func (c *Calculator) Cycles() int { return c.cycles }

func (c *Calculator) Running() bool { return c.running }

// Gains applies rule to the current estimate, or returns NotReady.
func (c *Calculator) Gains(rule Rule) Gains {
	if !c.Ready() {
		return NotReady
	}
	return rule.Apply(c.K(), c.T())
}

// PIDController returns a PID whose gains follow this calculator. Until the
// calculator is ready its gains read negative and the PID commands zero.
func (c *Calculator) PIDController(rule Rule, opts ...control.Option) (*control.PID, error) {
	kp := tunable.Func(func() float64 { return c.Gains(rule).Kp })
	ki := tunable.Func(func() float64 { return c.Gains(rule).Ki })
	kd := tunable.Func(func() float64 { return c.Gains(rule).Kd })

	opts = append([]control.Option{control.WithClock(c.src)}, opts...)
	if c.wrap {
		return control.NewAnglePID(kp, ki, kd, opts...)
	}
	return control.NewPID(kp, ki, kd, opts...)
}

// Estimate is a snapshot of the calculator for reporting.
type Estimate struct {
	Ku, Tu    float64
	Amplitude float64
	Cycles    int
	Ready     bool
}

func (c *Calculator) Estimate() Estimate {
	return Estimate{Ku: c.K(), Tu: c.T(), Amplitude: c.amplitude, Cycles: c.cycles, Ready: c.Ready()}
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
