// Package control provides feedback controllers built on filters.
//
// Every controller implements [Controller]. [Base] computes the error,
// runs it through an error filter, hands it to a [Core] and runs the result
// through an output filter:
//
//   - [PID]: proportional-integral-derivative with stale-input reset
//   - [NewAnglePID]: PID on wrapped angles, taking the shortest rotation
//   - [Group], [Binary]: sum of several controllers
//   - [NewInline]: a plain function as the core
//   - [RateOf]: closes a loop on the rate of the measurement
//   - [NewFeedforward], [NewTakeBackHalf], [NewBangBang]
//
// # Usage
//
//	pid, err := control.NewPID(tunable.Const(1.2), tunable.Const(0.4), tunable.Const(0.05),
//		control.WithOutputFilter(clampFilter))
//	u := pid.Update(target, sensor)
//
// Gains are [tunable.Number] values read on every update, so a controller
// can be retuned while running. Controllers are not safe for concurrent use.
package control
