package plant

import "math"

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

type System interface {
	// Derive returns dx/dt in a new slice. It must not keep x, which
	// integrators reuse between stages.
	Derive(x State, u float64, t float64) State
	StateDim() int
	Output(x State) float64
}

type Integrator interface {
	Step(sys System, x State, u float64, t float64, dt float64) State
}

// Configurable plants expose physical parameters for live adjustment.
type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64)
}
