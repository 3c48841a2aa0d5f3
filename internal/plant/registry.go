package plant

import (
	"sort"

	"github.com/pkg/errors"
)

// ErrUnknown is returned for names missing from a Registry.
var ErrUnknown = errors.New("plant: unknown name")

type Factory func(params map[string]float64) System

type Registry struct {
	systems     map[string]Factory
	integrators map[string]func() Integrator
}

func NewRegistry() *Registry {
	r := &Registry{
		systems:     make(map[string]Factory),
		integrators: make(map[string]func() Integrator),
	}

	r.systems["lag"] = func(p map[string]float64) System {
		return NewLag(int(param(p, "stages", 3)), param(p, "gain", 1), param(p, "tau", 1))
	}
	r.systems["mass-spring"] = func(p map[string]float64) System { return configure(NewMassSpring(), p) }
	r.systems["motor"] = func(p map[string]float64) System { return configure(NewMotor(), p) }
	r.systems["motor-speed"] = func(p map[string]float64) System {
		m := NewMotor()
		m.Speed = true
		return configure(m, p)
	}
	r.systems["turret"] = func(p map[string]float64) System {
		t := NewTurret()
		t.Inertia = param(p, "inertia", t.Inertia)
		t.Friction = param(p, "friction", t.Friction)
		return t
	}
	r.systems["pendulum"] = func(p map[string]float64) System { return configure(NewPendulum(), p) }

	r.integrators["rk4"] = func() Integrator { return NewRK4() }
	r.integrators["euler"] = func() Integrator { return NewEuler() }

	return r
}

// Register adds or replaces a plant factory.
func (r *Registry) Register(name string, f Factory) {
	r.systems[name] = f
}

func (r *Registry) System(name string, params map[string]float64) (System, error) {
	fn, ok := r.systems[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknown, "plant %q", name)
	}
	return fn(params), nil
}

func (r *Registry) Integrator(name string) (Integrator, error) {
	if name == "" {
		name = "rk4"
	}
	fn, ok := r.integrators[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknown, "integrator %q", name)
	}
	return fn(), nil
}

func (r *Registry) ListSystems() []string {
	names := make([]string, 0, len(r.systems))
	for name := range r.systems {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func param(p map[string]float64, name string, fallback float64) float64 {
	if v, ok := p[name]; ok {
		return v
	}
	return fallback
}

func configure[T interface {
	System
	Configurable
}](sys T, p map[string]float64) System {
	for name, v := range p {
		sys.SetParam(name, v)
	}
	return sys
}
