package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// IAE integrates the absolute tracking error over time.
type IAE struct {
	sum   float64
	lastT float64
	seen  bool
}

func NewIAE() *IAE { return &IAE{} }

func (m *IAE) Name() string { return "iae" }

func (m *IAE) Observe(s Sample) {
	if m.seen {
		m.sum += math.Abs(s.Error()) * (s.T - m.lastT)
	}
	m.lastT = s.T
	m.seen = true
}

func (m *IAE) Value() float64 { return m.sum }

func (m *IAE) Reset() { *m = IAE{} }

// RMSError is the root mean square tracking error.
type RMSError struct {
	sq []float64
}

func NewRMSError() *RMSError { return &RMSError{} }

func (m *RMSError) Name() string { return "rms_error" }

func (m *RMSError) Observe(s Sample) {
	e := s.Error()
	m.sq = append(m.sq, e*e)
}

func (m *RMSError) Value() float64 {
	if len(m.sq) == 0 {
		return 0
	}
	return math.Sqrt(stat.Mean(m.sq, nil))
}

func (m *RMSError) Reset() { m.sq = m.sq[:0] }

// Overshoot is the largest excursion past the setpoint, in the direction of
// the last setpoint change, as a fraction of that change.
type Overshoot struct {
	start    float64
	setpoint float64
	peak     float64
	started  bool
}

func NewOvershoot() *Overshoot { return &Overshoot{} }

func (m *Overshoot) Name() string { return "overshoot" }

func (m *Overshoot) Observe(s Sample) {
	if !m.started || s.Setpoint != m.setpoint {
		m.start = s.Measurement
		m.setpoint = s.Setpoint
		m.started = true
	}
	step := m.setpoint - m.start
	if step == 0 {
		return
	}
	excess := (s.Measurement - m.setpoint) / step
	m.peak = math.Max(m.peak, excess)
}

func (m *Overshoot) Value() float64 { return m.peak }

func (m *Overshoot) Reset() { *m = Overshoot{} }

// Summary describes a signal.
type Summary struct {
	Mean, Std float64
	Min, Max  float64
}

func Summarize(xs []float64) Summary {
	if len(xs) == 0 {
		return Summary{}
	}
	mean, std := stat.MeanStdDev(xs, nil)
	return Summary{Mean: mean, Std: std, Min: floats.Min(xs), Max: floats.Max(xs)}
}

// SettlingTime returns the time after which |error| stays within band, or
// -1 if it never settles.
func SettlingTime(times, errs []float64, band float64) float64 {
	for i := len(errs) - 1; i >= 0; i-- {
		if math.Abs(errs[i]) > band {
			if i == len(errs)-1 {
				return -1
			}
			return times[i+1]
		}
	}
	if len(times) == 0 {
		return -1
	}
	return times[0]
}
