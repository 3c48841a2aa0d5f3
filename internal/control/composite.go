package control

import (
	"github.com/pkg/errors"

	"github.com/san-kum/loopkit/internal/filter"
)

// Group sums the outputs of its members.
type Group []Controller

func NewGroup(cs ...Controller) (Group, error) {
	for i, c := range cs {
		if c == nil {
			return nil, errors.Wrapf(ErrNilController, "group member %d", i)
		}
	}
	return append(Group(nil), cs...), nil
}

// And returns a new group with c appended.
func (g Group) And(c Controller) (Group, error) {
	if c == nil {
		return nil, errors.Wrapf(ErrNilController, "group member %d", len(g))
	}
	out := make(Group, 0, len(g)+1)
	out = append(out, g...)
	return append(out, c), nil
}

func (g Group) Update(setpoint, measurement float64) float64 {
	var sum float64
	for _, c := range g {
		sum += c.Update(setpoint, measurement)
	}
	return sum
}

// Binary sums exactly two controllers, for example feedforward plus PID.
type Binary struct {
	First, Second Controller
}

func NewBinary(first, second Controller) (*Binary, error) {
	if first == nil || second == nil {
		return nil, errors.Wrap(ErrNilController, "binary")
	}
	return &Binary{First: first, Second: second}, nil
}

func (b *Binary) Update(setpoint, measurement float64) float64 {
	return b.First.Update(setpoint, measurement) + b.Second.Update(setpoint, measurement)
}

// RateOf closes a loop on the rate of change of the measurement: the
// setpoint is a target rate and inner sees the differentiated measurement.
type RateOf struct {
	inner Controller
	deriv *filter.Derivative
	rate  float64
}

func NewRateOf(inner Controller, opts ...Option) (*RateOf, error) {
	if inner == nil {
		return nil, errors.Wrap(ErrNilController, "rate")
	}
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}
	return &RateOf{inner: inner, deriv: filter.NewDerivative(filter.WithClock(o.src))}, nil
}

func (r *RateOf) Update(setpoint, measurement float64) float64 {
	r.rate = r.deriv.Apply(measurement)
	return r.inner.Update(setpoint, r.rate)
}

// Rate is the last measured rate.
func (r *RateOf) Rate() float64 { return r.rate }

// Prime sets the previous measurement so the first rate is not a spike.
func (r *RateOf) Prime(measurement float64) { r.deriv.Reset(measurement) }
