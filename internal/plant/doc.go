// Package plant simulates the processes a controller drives.
//
// A [System] is a single-input, single-output ODE: the command enters
// through Derive and the sensor reading leaves through Output. Systems are
// stepped by an [Integrator]:
//
//	lag := plant.NewLag(3, 1.0, 1.0)
//	rk := plant.NewRK4()
//	x := plant.State{0.3, 0.3, 0.3}
//	x = rk.Step(lag, x, u, t, dt)
//
// Available plants: [Lag], [MassSpring], [Motor], [Turret], [Pendulum].
// Use [NewRegistry] to look them up by name.
package plant
