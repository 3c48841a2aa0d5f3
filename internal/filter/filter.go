package filter

import (
	"math"

	"github.com/san-kum/loopkit/internal/clock"
)

type Filter interface {
	Apply(next float64) float64
}

// Primer is a Filter whose history can be filled with a single value, so
// that its next outputs start from v instead of from zero.
type Primer interface {
	Prime(v float64)
}

// Func adapts a stateless function to a Filter.
type Func func(float64) float64

func (f Func) Apply(next float64) float64 { return f(next) }

func Identity() Filter { return Func(func(x float64) float64 { return x }) }

// Group applies its members in order. An empty group is the identity.
type Group []Filter

// NewGroup builds a group, skipping nil members.
func NewGroup(filters ...Filter) Group {
	g := make(Group, 0, len(filters))
	for _, f := range filters {
		if f != nil {
			g = append(g, f)
		}
	}
	return g
}

// Prime primes every member that implements Primer.
func (g Group) Prime(v float64) {
	for _, f := range g {
		if p, ok := f.(Primer); ok {
			p.Prime(v)
		}
	}
}

func (g Group) Apply(next float64) float64 {
	for _, f := range g {
		next = f.Apply(next)
	}
	return next
}

// Option configures time-aware filters.
type Option func(*options)

type options struct {
	src   clock.Source
	steps int
}

// WithClock sets the clock the filter's stopwatch reads.
func WithClock(src clock.Source) Option {
	return func(o *options) { o.src = src }
}

// WithSteps sets the sub-step count of MotionProfile and SpeedProfile.
func WithSteps(n int) Option {
	return func(o *options) { o.steps = n }
}

const defaultSteps = 64

func buildOptions(opts []Option) options {
	o := options{src: clock.System{}, steps: defaultSteps}
	for _, opt := range opts {
		opt(&o)
	}
	if o.src == nil {
		o.src = clock.System{}
	}
	return o
}

// ClockOf resolves the clock opts select, for filters built outside this
// package that share its options.
func ClockOf(opts ...Option) clock.Source {
	return buildOptions(opts).src
}

func clamp(v, limit float64) float64 {
	return math.Max(-limit, math.Min(limit, v))
}
