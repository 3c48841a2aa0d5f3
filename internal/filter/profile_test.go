package filter

import (
	"math"
	"testing"

	"github.com/san-kum/loopkit/internal/clock"
	"github.com/san-kum/loopkit/internal/tunable"
)

const profileTol = 1e-9

func TestMotionProfileBounds(t *testing.T) {
	cases := []struct {
		name       string
		vel, accel float64
	}{
		{"both limits", 1, 2},
		{"slow accel", 3, 0.5},
		{"accel only", 0, 2},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			src := clock.NewManual()
			mp, err := NewMotionProfile(tunable.Const(tc.vel), tunable.Const(tc.accel), WithClock(src))
			if err != nil {
				t.Fatal(err)
			}

			const dt = 0.01
			var peak float64
			lastV := 0.0
			for i := 0; i < 2000; i++ {
				src.Advance(dt)
				x := mp.Apply(1)
				peak = math.Max(peak, x)

				v := mp.Velocity()
				if a := math.Abs(v-lastV) / dt; a > tc.accel+profileTol {
					t.Fatalf("tick %d: acceleration %f exceeds %f", i, a, tc.accel)
				}
				if tc.vel > 0 && math.Abs(v) > tc.vel+profileTol {
					t.Fatalf("tick %d: velocity %f exceeds %f", i, v, tc.vel)
				}
				lastV = v
			}

			if peak > 1+profileTol {
				t.Errorf("overshoot: peak %f", peak)
			}
			if math.Abs(mp.Position()-1) > 1e-3 {
				t.Errorf("did not settle: %f", mp.Position())
			}
		})
	}
}

func TestMotionProfileReverse(t *testing.T) {
	src := clock.NewManual()
	mp, _ := NewMotionProfile(tunable.Const(1), tunable.Const(2), WithClock(src))

	const dt = 0.01
	lastV := 0.0
	for i := 0; i < 600; i++ {
		target := 1.0
		if i >= 60 {
			target = -1
		}
		src.Advance(dt)
		mp.Apply(target)
		if a := math.Abs(mp.Velocity()-lastV) / dt; a > 2+profileTol {
			t.Fatalf("tick %d: acceleration %f exceeds 2", i, a)
		}
		lastV = mp.Velocity()
	}
	if math.Abs(mp.Position()+1) > 1e-3 {
		t.Errorf("did not reach reversed target: %f", mp.Position())
	}
}

func TestMotionProfileWithoutAccelLimitIsRateLimit(t *testing.T) {
	src := clock.NewManual()
	mp, _ := NewMotionProfile(tunable.Const(2), tunable.Const(0), WithClock(src))
	src.Advance(0.5)
	if got := mp.Apply(5); math.Abs(got-1) > 1e-9 {
		t.Errorf("got %f, want 1", got)
	}

	mp.Reset(3)
	if mp.Position() != 3 || mp.Velocity() != 0 {
		t.Errorf("Reset should place the profile at rest")
	}
}

func TestSpeedProfileJerkBound(t *testing.T) {
	const (
		accel = 2.0
		jerk  = 4.0
		dt    = 0.01
	)
	src := clock.NewManual()
	sp, err := NewSpeedProfile(tunable.Const(accel), tunable.Const(jerk), WithClock(src))
	if err != nil {
		t.Fatal(err)
	}

	var peak float64
	lastA := 0.0
	for i := 0; i < 1000; i++ {
		src.Advance(dt)
		s := sp.Apply(3)
		peak = math.Max(peak, s)

		a := sp.Acceleration()
		if math.Abs(a) > accel+profileTol {
			t.Fatalf("tick %d: acceleration %f exceeds %f", i, a, accel)
		}
		if math.Abs(a-lastA) > jerk*dt+profileTol {
			t.Fatalf("tick %d: acceleration changed by %f, limit %f", i, a-lastA, jerk*dt)
		}
		lastA = a
	}

	if peak > 3+profileTol {
		t.Errorf("speed overshoot: %f", peak)
	}
	if math.Abs(sp.Speed()-3) > 1e-3 {
		t.Errorf("did not settle: %f", sp.Speed())
	}
}

func TestSpeedProfileWithoutJerkLimit(t *testing.T) {
	src := clock.NewManual()
	sp, _ := NewSpeedProfile(tunable.Const(4), nil, WithClock(src))
	src.Advance(0.25)
	if got := sp.Apply(10); math.Abs(got-1) > 1e-9 {
		t.Errorf("got %f, want 1", got)
	}
}
