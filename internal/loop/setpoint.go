package loop

import "math"

// Setpoint is the reference signal over simulated time.
type Setpoint interface {
	At(t float64) float64
}

type SetpointFunc func(t float64) float64

func (f SetpointFunc) At(t float64) float64 { return f(t) }

type Constant float64

func (c Constant) At(float64) float64 { return float64(c) }

// Step switches from Before to After at time Time.
type Step struct {
	Before, After float64
	Time          float64
}

func (s Step) At(t float64) float64 {
	if t < s.Time {
		return s.Before
	}
	return s.After
}

// Square alternates between Low and High, starting High, every half Period.
type Square struct {
	Low, High float64
	Period    float64
}

func (s Square) At(t float64) float64 {
	if s.Period <= 0 {
		return s.High
	}
	if math.Mod(t, s.Period) < s.Period/2 {
		return s.High
	}
	return s.Low
}
