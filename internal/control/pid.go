package control

import (
	"math"

	"github.com/pkg/errors"

	"github.com/san-kum/loopkit/internal/angle"
	"github.com/san-kum/loopkit/internal/clock"
	"github.com/san-kum/loopkit/internal/filter"
	"github.com/san-kum/loopkit/internal/tunable"
)

// PID is a proportional-integral-derivative controller.
//
// Gains are read on every update and negative values are treated as zero.
// If more than the stale threshold passes between updates the integral is
// dropped and that update returns the proportional term alone.
type PID struct {
	*Base

	kp, ki, kd     tunable.Number
	integral       float64
	lastErr        float64
	integralFilter filter.Filter
	band           float64
	staleAfter     float64
	wrap           bool
	watch          *clock.StopWatch
	terms          Terms
}

// Terms are the contributions of the last update.
type Terms struct {
	P, I, D float64
}

func NewPID(kp, ki, kd tunable.Number, opts ...Option) (*PID, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return nil, errors.Wrap(err, "pid")
	}
	p := &PID{
		kp:             tunable.Or(kp, 0),
		ki:             tunable.Or(ki, 0),
		kd:             tunable.Or(kd, 0),
		integralFilter: o.integralFilter,
		band:           o.integralBand,
		staleAfter:     o.staleAfter,
		wrap:           o.wrap,
		watch:          clock.NewStopWatch(o.src),
	}
	p.Base, err = newBase(p, o)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// NewAnglePID is a PID whose error and derivative take the shortest path
// around the circle. Setpoint and measurement are radians.
func NewAnglePID(kp, ki, kd tunable.Number, opts ...Option) (*PID, error) {
	return NewPID(kp, ki, kd, append(opts, WithAngleWrap())...)
}

func (p *PID) Calculate(_, _, e float64) float64 {
	dt := p.watch.Reset()
	kp := math.Max(0, p.kp.Value())

	if dt > p.staleAfter {
		p.integral = 0
		p.lastErr = e
		p.terms = Terms{P: kp * e}
		return p.terms.P
	}

	ki := math.Max(0, p.ki.Value())
	kd := math.Max(0, p.kd.Value())

	if p.band == 0 || math.Abs(e) <= p.band {
		p.integral += e * dt
	}
	if p.integralFilter != nil {
		p.integral = p.integralFilter.Apply(p.integral)
	}

	de := e - p.lastErr
	if p.wrap {
		de = angle.Normalize(de)
	}
	p.lastErr = e

	p.terms = Terms{P: kp * e, I: ki * p.integral, D: kd * de / dt}
	return p.terms.P + p.terms.I + p.terms.D
}

// SetGains replaces the gains with constants. Negative values become zero.
func (p *PID) SetGains(kp, ki, kd float64) {
	p.kp = tunable.Const(math.Max(0, kp))
	p.ki = tunable.Const(math.Max(0, ki))
	p.kd = tunable.Const(math.Max(0, kd))
}

// Gains returns the current gain values as read from their sources.
func (p *PID) Gains() (kp, ki, kd float64) {
	return p.kp.Value(), p.ki.Value(), p.kd.Value()
}

func (p *PID) Integral() float64 { return p.integral }

func (p *PID) Terms() Terms { return p.terms }

// Reset clears integral and derivative state.
func (p *PID) Reset() {
	p.integral = 0
	p.lastErr = 0
	p.terms = Terms{}
}

// GetParams returns tunable parameters for live adjustment.
func (p *PID) GetParams() map[string]float64 {
	kp, ki, kd := p.Gains()
	return map[string]float64{"Kp": kp, "Ki": ki, "Kd": kd}
}

// SetParam adjusts one gain by name, leaving the other sources untouched.
func (p *PID) SetParam(name string, value float64) error {
	v := tunable.Const(math.Max(0, value))
	switch name {
	case "Kp":
		p.kp = v
	case "Ki":
		p.ki = v
	case "Kd":
		p.kd = v
	default:
		return errors.Wrapf(ErrInvalidConfiguration, "unknown parameter %q", name)
	}
	return nil
}
