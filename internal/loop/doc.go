// Package loop closes a control loop around a simulated plant.
//
// A [Runner] owns a manual clock. Each tick it advances the clock, reads
// the plant's sensor, asks the controller for a command and integrates the
// plant across the tick with that command held:
//
//	src := clock.NewManual()
//	pid, _ := control.NewPID(kp, ki, kd, control.WithClock(src))
//	r := loop.New(plant.NewMotor(), plant.NewRK4(), pid, src)
//	trace, err := r.Run(ctx, loop.Config{Dt: 0.01, Duration: 5, Setpoint: loop.Constant(1)})
//
// Controllers must read the same clock as the runner for their time-aware
// parts to see simulated time.
package loop
