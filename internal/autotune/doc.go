// Package autotune estimates PID gains from relay feedback.
//
// A [Calculator] is itself a controller: it drives the plant with a relay,
// +speed or -speed depending on the sign of the error, which makes most
// plants settle into a limit cycle. From the cycle's period Tu and error
// amplitude a it estimates the ultimate gain Ku = 4*speed/(pi*a) and maps
// (Ku, Tu) to gains with a tuning [Rule].
//
//	calc, _ := autotune.NewCalculator(tunable.Const(0.5),
//		autotune.WithClock(src), autotune.WithMinCycles(3))
//	for !calc.Ready() {
//		u := calc.Update(target, sensor())
//		...
//	}
//	pid, _ := calc.PIDController(autotune.ZieglerNicholsPID)
//
// The default smoothers are primed with the first measured cycle, so the
// estimate is usable as soon as Ready reports true.
//
// PIDController returns a controller whose gains track the calculator, so
// it can be swapped in while the relay keeps refining the estimate.
package autotune
