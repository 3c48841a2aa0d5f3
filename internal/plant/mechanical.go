package plant

import (
	"math"

	"github.com/san-kum/loopkit/internal/angle"
)

const (
	DefaultMass      = 1.0
	DefaultStiffness = 10.0
	DefaultDamping   = 0.5
)

// MassSpring is a damped mass on a spring driven by a force. Output is
// position.
type MassSpring struct {
	Mass      float64
	Stiffness float64
	Damping   float64
}

func NewMassSpring() *MassSpring {
	return &MassSpring{Mass: DefaultMass, Stiffness: DefaultStiffness, Damping: DefaultDamping}
}

func (s *MassSpring) StateDim() int { return 2 }

func (s *MassSpring) Derive(x State, u, t float64) State {
	pos, vel := x[0], x[1]
	return State{vel, (u - s.Stiffness*pos - s.Damping*vel) / s.Mass}
}

func (s *MassSpring) Output(x State) float64 { return x[0] }

// Energy is kinetic plus spring potential energy.
func (s *MassSpring) Energy(x State) float64 {
	return 0.5*s.Mass*x[1]*x[1] + 0.5*s.Stiffness*x[0]*x[0]
}

func (s *MassSpring) GetParams() map[string]float64 {
	return map[string]float64{"mass": s.Mass, "stiffness": s.Stiffness, "damping": s.Damping}
}

func (s *MassSpring) SetParam(name string, value float64) {
	switch name {
	case "mass":
		if value > 0 {
			s.Mass = value
		}
	case "stiffness":
		s.Stiffness = value
	case "damping":
		s.Damping = value
	}
}

// Motor is a DC motor with viscous friction, commanded in volts. Output is
// shaft position, or shaft speed when Speed is set.
type Motor struct {
	Inertia  float64
	Friction float64
	Torque   float64 // torque per volt
	Speed    bool
}

func NewMotor() *Motor {
	return &Motor{Inertia: 0.01, Friction: 0.1, Torque: 0.5}
}

func (m *Motor) StateDim() int { return 2 }

func (m *Motor) Derive(x State, u, t float64) State {
	return State{x[1], (m.Torque*u - m.Friction*x[1]) / m.Inertia}
}

func (m *Motor) Output(x State) float64 {
	if m.Speed {
		return x[1]
	}
	return x[0]
}

func (m *Motor) GetParams() map[string]float64 {
	return map[string]float64{"inertia": m.Inertia, "friction": m.Friction, "torque": m.Torque}
}

func (m *Motor) SetParam(name string, value float64) {
	switch name {
	case "inertia":
		if value > 0 {
			m.Inertia = value
		}
	case "friction":
		m.Friction = value
	case "torque":
		m.Torque = value
	}
}

// Turret is a free rotating inertia. Its heading sensor wraps into
// (-pi, pi].
type Turret struct {
	Inertia  float64
	Friction float64
}

func NewTurret() *Turret {
	return &Turret{Inertia: 0.5, Friction: 0.2}
}

func (r *Turret) StateDim() int { return 2 }

func (r *Turret) Derive(x State, u, t float64) State {
	return State{x[1], (u - r.Friction*x[1]) / r.Inertia}
}

func (r *Turret) Output(x State) float64 { return angle.Normalize(x[0]) }

// Pendulum is a damped pendulum driven by a torque at the pivot. Output is
// the angle from hanging straight down.
type Pendulum struct {
	Mass    float64
	Length  float64
	Damping float64
	Gravity float64
}

func NewPendulum() *Pendulum {
	return &Pendulum{Mass: 1.0, Length: 1.0, Damping: 0.1, Gravity: 9.81}
}

func (p *Pendulum) StateDim() int { return 2 }

func (p *Pendulum) Derive(x State, u, t float64) State {
	theta, omega := x[0], x[1]
	alpha := (-p.Damping*omega - p.Mass*p.Gravity*p.Length*math.Sin(theta) + u) / (p.Mass * p.Length * p.Length)
	return State{omega, alpha}
}

func (p *Pendulum) Output(x State) float64 { return x[0] }

// Energy is kinetic plus potential energy relative to the bottom.
func (p *Pendulum) Energy(x State) float64 {
	v := p.Length * x[1]
	return 0.5*p.Mass*v*v + p.Mass*p.Gravity*p.Length*(1.0-math.Cos(x[0]))
}

func (p *Pendulum) GetParams() map[string]float64 {
	return map[string]float64{"mass": p.Mass, "length": p.Length, "damping": p.Damping, "gravity": p.Gravity}
}

func (p *Pendulum) SetParam(name string, value float64) {
	switch name {
	case "mass":
		if value > 0 {
			p.Mass = value
		}
	case "length":
		if value > 0 {
			p.Length = value
		}
	case "damping":
		p.Damping = value
	case "gravity":
		p.Gravity = value
	}
}
