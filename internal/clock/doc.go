// Package clock measures elapsed time for filters and controllers.
//
// Every time-aware component owns a [StopWatch]. The wall clock itself is
// injected as a [Source] so the same code runs against the monotonic system
// clock in production and against a [Manual] clock in tests and simulation:
//
//	src := clock.NewManual()
//	lp, _ := filter.NewLowPass(tunable.Const(0.2), filter.WithClock(src))
//	src.Advance(0.01)
//	y := lp.Apply(1.0)
//
// Sources may be shared between components; stopwatches must not be, or the
// elapsed-time accounting of both owners is corrupted.
package clock
