package filter

import (
	"math"

	"github.com/san-kum/loopkit/internal/clock"
	"github.com/san-kum/loopkit/internal/tunable"
)

// rateToward returns the largest rate, signed toward err, from which err can
// still be closed without overshoot when the rate may change by at most
// limit*h per sub-step of length h. A limit <= 0 closes err in one sub-step.
func rateToward(err, limit, h float64) float64 {
	if err == 0 {
		return 0
	}
	if limit <= 0 {
		return err / h
	}
	mag := math.Abs(err)
	step := limit * h * h
	m := (-1 + math.Sqrt(1+8*mag/step)) / 2
	v := math.Min(m*limit*h, mag/h)
	return math.Copysign(v, err)
}

// MotionProfile moves its output toward the input under velocity and
// acceleration limits, starting to brake early enough to stop on target.
// Each interval is split into sub-steps so the result depends little on the
// sampling rate.
type MotionProfile struct {
	vel, accel tunable.Number
	steps      int
	pos        float64
	v          float64
	watch      *clock.StopWatch
}

// NewMotionProfile takes limits in units per second and per second squared.
// A limit <= 0 disables it.
func NewMotionProfile(vel, accel tunable.Number, opts ...Option) (*MotionProfile, error) {
	o := buildOptions(opts)
	if o.steps < 1 {
		return nil, invalid("motion profile: steps %d must be >= 1", o.steps)
	}
	return &MotionProfile{
		vel:   tunable.Or(vel, 0),
		accel: tunable.Or(accel, 0),
		steps: o.steps,
		watch: clock.NewStopWatch(o.src),
	}, nil
}

func (f *MotionProfile) Apply(target float64) float64 {
	dt := f.watch.Reset()
	h := dt / float64(f.steps)
	vel, accel := f.vel.Value(), f.accel.Value()

	for i := 0; i < f.steps; i++ {
		want := rateToward(target-f.pos, accel, h)
		if vel > 0 {
			want = clamp(want, vel)
		}
		if accel > 0 {
			f.v += clamp(want-f.v, accel*h)
		} else {
			f.v = want
		}
		f.pos += f.v * h
	}
	return f.pos
}

func (f *MotionProfile) Position() float64 { return f.pos }

func (f *MotionProfile) Velocity() float64 { return f.v }

// Reset places the profile at rest at pos.
func (f *MotionProfile) Reset(pos float64) {
	f.pos = pos
	f.v = 0
}

// SpeedProfile shapes a speed command: acceleration is bounded by accel and
// its change by jerk. With jerk <= 0 it is a plain rate limit on the speed.
type SpeedProfile struct {
	accel, jerk tunable.Number
	steps       int
	speed       float64
	a           float64
	watch       *clock.StopWatch
}

func NewSpeedProfile(accel, jerk tunable.Number, opts ...Option) (*SpeedProfile, error) {
	o := buildOptions(opts)
	if o.steps < 1 {
		return nil, invalid("speed profile: steps %d must be >= 1", o.steps)
	}
	return &SpeedProfile{
		accel: tunable.Or(accel, 0),
		jerk:  tunable.Or(jerk, 0),
		steps: o.steps,
		watch: clock.NewStopWatch(o.src),
	}, nil
}

func (f *SpeedProfile) Apply(target float64) float64 {
	dt := f.watch.Reset()
	h := dt / float64(f.steps)
	accel, jerk := f.accel.Value(), f.jerk.Value()

	for i := 0; i < f.steps; i++ {
		want := rateToward(target-f.speed, jerk, h)
		if accel > 0 {
			want = clamp(want, accel)
		}
		if jerk > 0 {
			f.a += clamp(want-f.a, jerk*h)
		} else {
			f.a = want
		}
		f.speed += f.a * h
	}
	return f.speed
}

func (f *SpeedProfile) Speed() float64 { return f.speed }

func (f *SpeedProfile) Acceleration() float64 { return f.a }

// Reset sets the speed with zero acceleration.
func (f *SpeedProfile) Reset(speed float64) {
	f.speed = speed
	f.a = 0
}
