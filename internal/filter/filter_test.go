package filter

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/loopkit/internal/clock"
	"github.com/san-kum/loopkit/internal/tunable"
)

func TestGroup(t *testing.T) {
	if got := NewGroup().Apply(4.5); got != 4.5 {
		t.Errorf("empty group should be identity, got %f", got)
	}

	add := Func(func(x float64) float64 { return x + 1 })
	double := Func(func(x float64) float64 { return x * 2 })

	if got := NewGroup(add, nil, double).Apply(3); got != 8 {
		t.Errorf("add then double: got %f, want 8", got)
	}
	if got := NewGroup(double, add).Apply(3); got != 7 {
		t.Errorf("double then add: got %f, want 7", got)
	}
}

func TestConfigurationErrors(t *testing.T) {
	src := clock.NewManual()
	cases := []struct {
		name string
		err  error
	}{
		{"moving average size 0", second(NewMovingAverage(0))},
		{"weighted size -1", second(NewWeightedMovingAverage(-1))},
		{"timed window 0", second(NewTimedMovingAverage(0, WithClock(src)))},
		{"low pass negative rc", second(NewLowPass(tunable.Const(-1), WithClock(src)))},
		{"low pass nil rc", second(NewLowPass(nil))},
		{"clamp inverted", second(NewClamp(1, -1))},
		{"motion profile steps", second(NewMotionProfile(tunable.Const(1), tunable.Const(1), WithSteps(0)))},
		{"speed profile steps", second(NewSpeedProfile(tunable.Const(1), tunable.Const(1), WithSteps(-3)))},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if !errors.Is(tc.err, ErrInvalidConfiguration) {
				t.Errorf("expected ErrInvalidConfiguration, got %v", tc.err)
			}
		})
	}
}

func second[T any](_ T, err error) error { return err }

// run feeds input(t) to f at the given rate for duration seconds and returns
// the last output.
func run(src *clock.Manual, f Filter, hz, duration float64, input func(t float64) float64) float64 {
	dt := 1 / hz
	n := int(math.Round(duration * hz))
	var out float64
	for i := 1; i <= n; i++ {
		src.Advance(dt)
		out = f.Apply(input(float64(i) * dt))
	}
	return out
}

func step(float64) float64 { return 1 }

func TestLowPassStepResponse(t *testing.T) {
	src := clock.NewManual()
	lp, err := NewLowPass(tunable.Const(1), WithClock(src))
	if err != nil {
		t.Fatal(err)
	}

	got := run(src, lp, 1000, 1, step)
	want := 1 - math.Exp(-1)
	if math.Abs(got-want) > 5e-3 {
		t.Errorf("step response at t=rc: got %f, want %f", got, want)
	}
}

func TestLowPassZeroTimeConstantPassesThrough(t *testing.T) {
	src := clock.NewManual()
	lp, _ := NewLowPass(tunable.Const(0), WithClock(src))
	src.Advance(0.01)
	if got := lp.Apply(3.25); got != 3.25 {
		t.Errorf("rc=0 should pass input through, got %f", got)
	}
}

func TestHighPassRejectsConstant(t *testing.T) {
	src := clock.NewManual()
	hp, _ := NewHighPass(tunable.Const(0.1), WithClock(src))
	got := run(src, hp, 1000, 2, step)
	if math.Abs(got) > 1e-6 {
		t.Errorf("high pass of a constant should decay to 0, got %g", got)
	}
}

func TestRateIndependence(t *testing.T) {
	ramp := func(t float64) float64 { return 2 * t }
	constant := func(float64) float64 { return 3 }

	cases := []struct {
		name  string
		build func(src clock.Source) Filter
		input func(float64) float64
		tol   float64
	}{
		{"low pass", func(src clock.Source) Filter {
			lp, _ := NewLowPass(tunable.Const(1), WithClock(src))
			return lp
		}, step, 5e-3},
		{"derivative", func(src clock.Source) Filter { return NewDerivative(WithClock(src)) }, ramp, 1e-9},
		{"integral", func(src clock.Source) Filter { return NewIntegral(WithClock(src)) }, constant, 1e-9},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			slowSrc, fastSrc := clock.NewManual(), clock.NewManual()
			slow := run(slowSrc, tc.build(slowSrc), 100, 1, tc.input)
			fast := run(fastSrc, tc.build(fastSrc), 1000, 1, tc.input)
			if math.Abs(slow-fast) > tc.tol {
				t.Errorf("100 Hz gave %f, 1000 Hz gave %f", slow, fast)
			}
		})
	}
}

func TestDerivativeOfRampIsExact(t *testing.T) {
	src := clock.NewManual()
	d := NewDerivative(WithClock(src))
	got := run(src, d, 100, 0.5, func(t float64) float64 { return 2 * t })
	if math.Abs(got-2) > 1e-9 {
		t.Errorf("derivative of 2t: got %f, want 2", got)
	}
}

func TestIntegralOfConstant(t *testing.T) {
	src := clock.NewManual()
	in := NewIntegral(WithClock(src))
	got := run(src, in, 1000, 1, func(float64) float64 { return 3 })
	if math.Abs(got-3) > 1e-9 {
		t.Errorf("integral of 3 over 1s: got %f, want 3", got)
	}
	in.Reset(0)
	if in.Value() != 0 {
		t.Errorf("Reset should clear the sum")
	}
}

func TestMovingAverage(t *testing.T) {
	for _, v := range []float64{0.5, 3, -2.25} {
		ma, _ := NewMovingAverage(5)
		if got := ma.Apply(v); got != v/5 {
			t.Errorf("first sample of %f: got %f, want %f (zero prefill)", v, got, v/5)
		}
		var got float64
		for i := 0; i < 12; i++ {
			got = ma.Apply(v)
		}
		if got != v {
			t.Errorf("constant %f: got %f", v, got)
		}
	}

	ma, _ := NewMovingAverage(3)
	var got float64
	for _, x := range []float64{1, 2, 3, 4} {
		got = ma.Apply(x)
	}
	if got != 3 {
		t.Errorf("mean of 2,3,4: got %f, want 3", got)
	}
}

func TestWeightedMovingAverage(t *testing.T) {
	wma, _ := NewWeightedMovingAverage(3)
	wma.Apply(1)
	wma.Apply(2)
	if got := wma.Apply(3); math.Abs(got-14.0/6) > 1e-12 {
		t.Errorf("got %f, want %f", got, 14.0/6)
	}
	if got := wma.Apply(4); math.Abs(got-20.0/6) > 1e-12 {
		t.Errorf("got %f, want %f", got, 20.0/6)
	}

	// cross-check against a direct weighted sum
	const size = 7
	wma, _ = NewWeightedMovingAverage(size)
	var history []float64
	for i := 0; i < 100; i++ {
		x := math.Sin(float64(i)*0.37) * 10
		history = append(history, x)
		got := wma.Apply(x)

		var want float64
		for k := 0; k < size; k++ {
			j := len(history) - 1 - k
			if j < 0 {
				break
			}
			want += float64(size-k) * history[j]
		}
		want /= size * (size + 1) / 2
		if math.Abs(got-want) > 1e-9 {
			t.Fatalf("sample %d: got %f, want %f", i, got, want)
		}
	}
}

func TestPrimedAveragesStartFromValue(t *testing.T) {
	ma, _ := NewMovingAverage(4)
	wma, _ := NewWeightedMovingAverage(4)
	for _, f := range []interface {
		Filter
		Primer
	}{ma, wma} {
		f.Prime(2.5)
		if got := f.Apply(2.5); math.Abs(got-2.5) > 1e-12 {
			t.Errorf("%T primed with 2.5: got %f", f, got)
		}
		// the primed history ages out like real samples
		var got float64
		for i := 0; i < 4; i++ {
			got = f.Apply(1)
		}
		if math.Abs(got-1) > 1e-12 {
			t.Errorf("%T after a full window of 1: got %f", f, got)
		}
	}

	a, _ := NewMovingAverage(4)
	b, _ := NewMovingAverage(4)
	g := NewGroup(a, Func(func(x float64) float64 { return x }), b)
	g.Prime(3)
	if got := g.Apply(3); math.Abs(got-3) > 1e-12 {
		t.Errorf("primed cascade: got %f, want 3", got)
	}
}

func TestTimedMovingAverage(t *testing.T) {
	src := clock.NewManual()
	tma, err := NewTimedMovingAverage(1, WithClock(src))
	if err != nil {
		t.Fatal(err)
	}

	run(src, tma, 100, 1, func(float64) float64 { return 0 })
	got := run(src, tma, 100, 0.5, func(float64) float64 { return 1 })
	if math.Abs(got-0.5) > 1e-6 {
		t.Errorf("half window of ones: got %f, want 0.5", got)
	}

	got = run(src, tma, 100, 2, func(float64) float64 { return 4 })
	if math.Abs(got-4) > 1e-6 {
		t.Errorf("constant: got %f, want 4", got)
	}
	if tma.Len() > 102 {
		t.Errorf("buffer should stay bounded by the window, holds %d", tma.Len())
	}
}

func TestTimedMovingAverageWeightsByInterval(t *testing.T) {
	src := clock.NewManual()
	tma, _ := NewTimedMovingAverage(10, WithClock(src))

	src.Advance(0.75)
	tma.Apply(2)
	src.Advance(0.25)
	if got := tma.Apply(6); math.Abs(got-3) > 1e-9 {
		t.Errorf("got %f, want 3", got)
	}
}

func TestTimedMovingAverageLongRun(t *testing.T) {
	src := clock.NewManual()
	tma, _ := NewTimedMovingAverage(0.1, WithClock(src))
	got := run(src, tma, 1000, 5, func(t float64) float64 { return 1.5 })
	if math.Abs(got-1.5) > 1e-9 {
		t.Errorf("after many recounts: got %f, want 1.5", got)
	}
}

func TestRateLimit(t *testing.T) {
	src := clock.NewManual()
	rl := NewRateLimit(tunable.Const(2), WithClock(src))
	got := run(src, rl, 100, 1, func(float64) float64 { return 10 })
	if math.Abs(got-2) > 1e-9 {
		t.Errorf("after 1s at 2/s: got %f, want 2", got)
	}

	unlimited := NewRateLimit(tunable.Const(0), WithClock(src))
	src.Advance(0.01)
	if got := unlimited.Apply(10); got != 10 {
		t.Errorf("limit 0 should pass through, got %f", got)
	}
}

func TestClampAndDeadband(t *testing.T) {
	c, err := NewClamp(-1, 2)
	if err != nil {
		t.Fatal(err)
	}
	for in, want := range map[float64]float64{-5: -1, 0.5: 0.5, 9: 2} {
		if got := c.Apply(in); got != want {
			t.Errorf("clamp(%f) = %f, want %f", in, got, want)
		}
	}

	db := NewDeadband(tunable.Const(0.1))
	if got := db.Apply(0.05); got != 0 {
		t.Errorf("inside band: got %f", got)
	}
	if got := db.Apply(-0.2); got != -0.2 {
		t.Errorf("outside band: got %f", got)
	}
}
