// Package vfilter mirrors the scalar filters for planar vectors.
package vfilter

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"

	"github.com/san-kum/loopkit/internal/clock"
	"github.com/san-kum/loopkit/internal/filter"
	"github.com/san-kum/loopkit/internal/tunable"
)

type Filter interface {
	Apply(next r2.Point) r2.Point
}

type Func func(r2.Point) r2.Point

func (f Func) Apply(next r2.Point) r2.Point { return f(next) }

func Identity() Filter { return Func(func(p r2.Point) r2.Point { return p }) }

// Group applies its members in order.
type Group []Filter

func NewGroup(filters ...Filter) Group {
	g := make(Group, 0, len(filters))
	for _, f := range filters {
		if f != nil {
			g = append(g, f)
		}
	}
	return g
}

func (g Group) Apply(next r2.Point) r2.Point {
	for _, f := range g {
		next = f.Apply(next)
	}
	return next
}

// PerAxis runs an independent scalar filter on each component.
type PerAxis struct {
	X, Y filter.Filter
}

// NewPerAxis builds both axis filters from the same constructor.
func NewPerAxis(build func() (filter.Filter, error)) (*PerAxis, error) {
	x, err := build()
	if err != nil {
		return nil, errors.Wrap(err, "x axis")
	}
	y, err := build()
	if err != nil {
		return nil, errors.Wrap(err, "y axis")
	}
	return &PerAxis{X: x, Y: y}, nil
}

func (f *PerAxis) Apply(next r2.Point) r2.Point {
	return r2.Point{X: f.X.Apply(next.X), Y: f.Y.Apply(next.Y)}
}

// RateLimit bounds the length of the per-second change of the vector, so
// the output moves in a straight line toward the input.
type RateLimit struct {
	limit tunable.Number
	out   r2.Point
	watch *clock.StopWatch
}

// NewRateLimit takes the same options as filter.NewRateLimit.
func NewRateLimit(limit tunable.Number, opts ...filter.Option) *RateLimit {
	return &RateLimit{limit: tunable.Or(limit, 0), watch: clock.NewStopWatch(filter.ClockOf(opts...))}
}

func (f *RateLimit) Apply(next r2.Point) r2.Point {
	dt := f.watch.Reset()
	limit := f.limit.Value()
	if limit <= 0 {
		f.out = next
		return f.out
	}
	f.out = f.out.Add(clampNorm(next.Sub(f.out), limit*dt))
	return f.out
}

func (f *RateLimit) Reset(p r2.Point) { f.out = p }

// MagnitudeClamp scales vectors longer than max down to length max.
type MagnitudeClamp struct {
	max tunable.Number
}

func NewMagnitudeClamp(max tunable.Number) *MagnitudeClamp {
	return &MagnitudeClamp{max: tunable.Or(max, math.Inf(1))}
}

func (f *MagnitudeClamp) Apply(next r2.Point) r2.Point {
	return clampNorm(next, f.max.Value())
}

// DeadZone zeroes vectors shorter than radius and rescales the rest so the
// output grows continuously from zero at the edge of the zone.
type DeadZone struct {
	radius tunable.Number
}

func NewDeadZone(radius tunable.Number) *DeadZone {
	return &DeadZone{radius: tunable.Or(radius, 0)}
}

func (f *DeadZone) Apply(next r2.Point) r2.Point {
	r := f.radius.Value()
	n := next.Norm()
	if n <= r || n == 0 {
		return r2.Point{}
	}
	return next.Mul((n - r) / n)
}

func clampNorm(p r2.Point, max float64) r2.Point {
	if max < 0 {
		max = 0
	}
	n := p.Norm()
	if n <= max {
		return p
	}
	return p.Mul(max / n)
}
