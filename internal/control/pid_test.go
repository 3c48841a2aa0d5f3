package control

import (
	"errors"
	"math"
	"testing"
	"time"

	"go.einride.tech/pid"

	"github.com/san-kum/loopkit/internal/angle"
	"github.com/san-kum/loopkit/internal/clock"
	"github.com/san-kum/loopkit/internal/filter"
	"github.com/san-kum/loopkit/internal/tunable"
)

func newTestPID(t *testing.T, src clock.Source, kp, ki, kd float64, opts ...Option) *PID {
	t.Helper()
	p, err := NewPID(tunable.Const(kp), tunable.Const(ki), tunable.Const(kd), append(opts, WithClock(src))...)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func within(t *testing.T, name string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %g, want %g", name, got, want)
	}
}

func TestPIDMatchesReferenceController(t *testing.T) {
	const dt = 10 * time.Millisecond
	src := clock.NewManual()
	ours := newTestPID(t, src, 1.2, 0.5, 0.05)
	ref := &pid.Controller{Config: pid.ControllerConfig{
		ProportionalGain: 1.2,
		IntegralGain:     0.5,
		DerivativeGain:   0.05,
	}}

	for i := 0; i < 500; i++ {
		tt := float64(i) * dt.Seconds()
		setpoint := math.Sin(tt)
		measurement := 0.8 * math.Sin(tt-0.3)

		src.Advance(dt.Seconds())
		got := ours.Update(setpoint, measurement)
		ref.Update(pid.ControllerInput{
			ReferenceSignal:  setpoint,
			ActualSignal:     measurement,
			SamplingInterval: dt,
		})
		if math.Abs(got-ref.State.ControlSignal) > 1e-9 {
			t.Fatalf("tick %d: got %g, reference %g", i, got, ref.State.ControlSignal)
		}
	}
}

func TestPIDStaleInputResetsIntegral(t *testing.T) {
	src := clock.NewManual()
	p := newTestPID(t, src, 2, 1, 0.5)

	for i := 0; i < 50; i++ {
		src.Advance(0.01)
		p.Update(1, 0)
	}
	if p.Integral() <= 0 {
		t.Fatalf("integral should have grown, got %f", p.Integral())
	}

	src.Advance(0.75)
	if got := p.Update(1, 0.25); got != 2*0.75 {
		t.Errorf("stale update: got %f, want proportional only %f", got, 2*0.75)
	}
	if p.Integral() != 0 {
		t.Errorf("stale update should clear the integral, got %f", p.Integral())
	}
	if got := p.Terms(); got != (Terms{P: 1.5}) {
		t.Errorf("terms: got %+v", got)
	}
}

func TestPIDStaleThresholdOption(t *testing.T) {
	src := clock.NewManual()
	p := newTestPID(t, src, 1, 1, 0, WithStaleAfter(2))

	src.Advance(1)
	p.Update(1, 0)
	if p.Integral() != 1 {
		t.Errorf("a 1s gap under a 2s threshold should integrate, got %f", p.Integral())
	}

	if _, err := NewPID(nil, nil, nil, WithStaleAfter(0)); !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("zero threshold: got %v", err)
	}
}

func TestPIDGainsNeverNegative(t *testing.T) {
	src := clock.NewManual()
	p := newTestPID(t, src, 1, 1, 1)

	p.SetGains(-1, 2, -3)
	if kp, ki, kd := p.Gains(); kp != 0 || ki != 2 || kd != 0 {
		t.Errorf("got %f %f %f, want 0 2 0", kp, ki, kd)
	}

	live, err := NewPID(tunable.Const(-1), tunable.Const(-1), tunable.Const(-1), WithClock(src))
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		src.Advance(0.01)
		if got := live.Update(5, 1); got != 0 {
			t.Fatalf("negative live gains should command zero, got %f", got)
		}
	}
}

func TestPIDLiveGain(t *testing.T) {
	src := clock.NewManual()
	kp := tunable.NewVar(1)
	p, err := NewPID(kp, nil, nil, WithClock(src))
	if err != nil {
		t.Fatal(err)
	}

	src.Advance(0.01)
	if got := p.Update(2, 0); got != 2 {
		t.Errorf("kp=1: got %f", got)
	}
	kp.Set(3)
	src.Advance(0.01)
	if got := p.Update(2, 0); got != 6 {
		t.Errorf("kp=3: got %f", got)
	}
}

func TestPIDIntegralBandAndFilter(t *testing.T) {
	src := clock.NewManual()
	banded := newTestPID(t, src, 0, 1, 0, WithIntegralBand(0.5))
	src.Advance(0.1)
	banded.Update(1, 0)
	if banded.Integral() != 0 {
		t.Errorf("error outside the band should not integrate, got %f", banded.Integral())
	}
	src.Advance(0.1)
	banded.Update(0.25, 0)
	within(t, "banded integral", banded.Integral(), 0.025, 1e-12)

	limit, err := filter.NewClamp(-0.1, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	clamped := newTestPID(t, src, 0, 1, 0, WithIntegralFilter(limit))
	for i := 0; i < 100; i++ {
		src.Advance(0.01)
		clamped.Update(1, 0)
	}
	within(t, "clamped integral", clamped.Integral(), 0.1, 1e-12)
	src.Advance(0.01)
	// unwinds immediately once the error reverses
	clamped.Update(-1, 0)
	within(t, "unwound integral", clamped.Integral(), 0.09, 1e-12)
}

func TestPIDResetAndParams(t *testing.T) {
	src := clock.NewManual()
	p := newTestPID(t, src, 1, 1, 1)
	src.Advance(0.01)
	p.Update(1, 0)

	p.Reset()
	if p.Integral() != 0 {
		t.Errorf("Reset should clear the integral, got %f", p.Integral())
	}

	if err := p.SetParam("Ki", 0.25); err != nil {
		t.Fatal(err)
	}
	if got := p.GetParams()["Ki"]; got != 0.25 {
		t.Errorf("Ki: got %f", got)
	}
	if err := p.SetParam("Kx", 1); !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("unknown param: got %v", err)
	}
}

func TestAnglePIDTakesShortestPath(t *testing.T) {
	src := clock.NewManual()
	p, err := NewAnglePID(tunable.Const(1), nil, nil, WithClock(src))
	if err != nil {
		t.Fatal(err)
	}

	src.Advance(0.01)
	got := p.Update(angle.FromDegrees(179), angle.FromDegrees(-179))
	within(t, "output", got, angle.FromDegrees(-2), 1e-9)
	within(t, "error", math.Abs(angle.ToDegrees(p.Error())), 2, 1e-9)
}

func TestAnglePIDDerivativeAcrossWrap(t *testing.T) {
	src := clock.NewManual()
	p, err := NewAnglePID(nil, nil, tunable.Const(1), WithClock(src))
	if err != nil {
		t.Fatal(err)
	}

	src.Advance(0.01)
	p.Update(angle.FromDegrees(179), 0)
	src.Advance(0.01)
	got := p.Update(angle.FromDegrees(-179), 0)

	// the error moved 2 degrees forward, not 358 back
	within(t, "derivative", got, angle.FromDegrees(2)/0.01, 1e-6)
}
