package control

import (
	"math"

	"github.com/pkg/errors"

	"github.com/san-kum/loopkit/internal/angle"
	"github.com/san-kum/loopkit/internal/clock"
	"github.com/san-kum/loopkit/internal/filter"
)

type Controller interface {
	Update(setpoint, measurement float64) float64
}

// Core turns a filtered error into a raw command.
type Core interface {
	Calculate(setpoint, measurement, err float64) float64
}

type CoreFunc func(setpoint, measurement, err float64) float64

func (f CoreFunc) Calculate(setpoint, measurement, err float64) float64 {
	return f(setpoint, measurement, err)
}

const DefaultStaleAfter = 0.5

type Option func(*options)

type options struct {
	errorFilters   []filter.Filter
	outputFilters  []filter.Filter
	src            clock.Source
	staleAfter     float64
	integralFilter filter.Filter
	integralBand   float64
	wrap           bool
}

// WithErrorFilter appends filters applied to the error before the core.
func WithErrorFilter(fs ...filter.Filter) Option {
	return func(o *options) { o.errorFilters = append(o.errorFilters, fs...) }
}

// WithOutputFilter appends filters applied to the core's result.
func WithOutputFilter(fs ...filter.Filter) Option {
	return func(o *options) { o.outputFilters = append(o.outputFilters, fs...) }
}

func WithClock(src clock.Source) Option {
	return func(o *options) { o.src = src }
}

// WithStaleAfter sets the update gap, in seconds, beyond which a PID drops
// its integral and derivative terms for one update.
func WithStaleAfter(seconds float64) Option {
	return func(o *options) { o.staleAfter = seconds }
}

// WithIntegralFilter passes the accumulated integral through f on every
// update. A Clamp here bounds windup.
func WithIntegralFilter(f filter.Filter) Option {
	return func(o *options) { o.integralFilter = f }
}

// WithIntegralBand only integrates while |error| <= band.
func WithIntegralBand(band float64) Option {
	return func(o *options) { o.integralBand = band }
}

// WithAngleWrap makes the error the shortest signed rotation from the
// measurement to the setpoint, in radians.
func WithAngleWrap() Option {
	return func(o *options) { o.wrap = true }
}

func buildOptions(opts []Option) (options, error) {
	o := options{src: clock.System{}, staleAfter: DefaultStaleAfter}
	for _, opt := range opts {
		opt(&o)
	}
	if o.src == nil {
		o.src = clock.System{}
	}
	if !(o.staleAfter > 0) {
		return o, errors.Wrapf(ErrInvalidConfiguration, "stale threshold %g must be > 0", o.staleAfter)
	}
	if o.integralBand < 0 || math.IsNaN(o.integralBand) {
		return o, errors.Wrapf(ErrInvalidConfiguration, "integral band %g must be >= 0", o.integralBand)
	}
	return o, nil
}

// Base runs error filter, core and output filter in that order and keeps
// the last values for introspection.
type Base struct {
	core        Core
	errFilter   filter.Group
	outFilter   filter.Group
	wrap        bool
	setpoint    float64
	measurement float64
	err         float64
	out         float64
}

func NewBase(core Core, opts ...Option) (*Base, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}
	return newBase(core, o)
}

func newBase(core Core, o options) (*Base, error) {
	if core == nil {
		return nil, errors.Wrap(ErrInvalidConfiguration, "nil core")
	}
	return &Base{
		core:      core,
		errFilter: filter.NewGroup(o.errorFilters...),
		outFilter: filter.NewGroup(o.outputFilters...),
		wrap:      o.wrap,
	}, nil
}

func (b *Base) Update(setpoint, measurement float64) float64 {
	e := setpoint - measurement
	if b.wrap {
		e = angle.Diff(setpoint, measurement)
	}
	e = b.errFilter.Apply(e)

	out := b.outFilter.Apply(b.core.Calculate(setpoint, measurement, e))

	b.setpoint = setpoint
	b.measurement = measurement
	b.err = e
	b.out = out
	return out
}

func (b *Base) Setpoint() float64    { return b.setpoint }
func (b *Base) Measurement() float64 { return b.measurement }

// Error returns the last filtered error.
func (b *Base) Error() float64  { return b.err }
func (b *Base) Output() float64 { return b.out }

// NewInline wraps fn as the core of a Base.
func NewInline(fn func(setpoint, measurement float64) float64, opts ...Option) (*Base, error) {
	if fn == nil {
		return nil, errors.Wrap(ErrInvalidConfiguration, "inline: nil function")
	}
	return NewBase(CoreFunc(func(setpoint, measurement, _ float64) float64 {
		return fn(setpoint, measurement)
	}), opts...)
}
