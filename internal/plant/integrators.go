package plant

// RK4 is the classic fourth-order Runge-Kutta step. The command is held
// constant across the interval (zero-order hold).
type RK4 struct {
	probe State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) Step(sys System, x State, u, t, dt float64) State {
	h := dt / 2
	k1 := sys.Derive(x, u, t)
	k2 := sys.Derive(r.offset(x, k1, h), u, t+h)
	k3 := sys.Derive(r.offset(x, k2, h), u, t+h)
	k4 := sys.Derive(r.offset(x, k3, dt), u, t+dt)

	next := make(State, len(x))
	for i := range x {
		next[i] = x[i] + dt/6*(k1[i]+2*(k2[i]+k3[i])+k4[i])
	}
	return next
}

// offset returns x + h*k in a buffer shared by the stages of one step.
func (r *RK4) offset(x, k State, h float64) State {
	if len(r.probe) != len(x) {
		r.probe = make(State, len(x))
	}
	for i := range x {
		r.probe[i] = x[i] + h*k[i]
	}
	return r.probe
}

// Euler is the explicit first-order step.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (Euler) Step(sys System, x State, u, t, dt float64) State {
	dx := sys.Derive(x, u, t)
	next := make(State, len(x))
	for i := range x {
		next[i] = x[i] + dt*dx[i]
	}
	return next
}
