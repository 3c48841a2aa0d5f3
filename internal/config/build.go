package config

import (
	"sort"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/san-kum/loopkit/internal/angle"
	"github.com/san-kum/loopkit/internal/autotune"
	"github.com/san-kum/loopkit/internal/clock"
	"github.com/san-kum/loopkit/internal/control"
	"github.com/san-kum/loopkit/internal/filter"
	"github.com/san-kum/loopkit/internal/loop"
	"github.com/san-kum/loopkit/internal/plant"
	"github.com/san-kum/loopkit/internal/tunable"
)

type filterBuilder func(fc FilterConfig, src clock.Source) (filter.Filter, error)

var filters = map[string]filterBuilder{
	"lowpass": func(fc FilterConfig, src clock.Source) (filter.Filter, error) {
		return filter.NewLowPass(tunable.Const(fc.RC), filter.WithClock(src))
	},
	"highpass": func(fc FilterConfig, src clock.Source) (filter.Filter, error) {
		return filter.NewHighPass(tunable.Const(fc.RC), filter.WithClock(src))
	},
	"moving-average": func(fc FilterConfig, _ clock.Source) (filter.Filter, error) {
		return filter.NewMovingAverage(fc.Size)
	},
	"weighted-moving-average": func(fc FilterConfig, _ clock.Source) (filter.Filter, error) {
		return filter.NewWeightedMovingAverage(fc.Size)
	},
	"timed-moving-average": func(fc FilterConfig, src clock.Source) (filter.Filter, error) {
		return filter.NewTimedMovingAverage(fc.Window, filter.WithClock(src))
	},
	"derivative": func(_ FilterConfig, src clock.Source) (filter.Filter, error) {
		return filter.NewDerivative(filter.WithClock(src)), nil
	},
	"integral": func(_ FilterConfig, src clock.Source) (filter.Filter, error) {
		return filter.NewIntegral(filter.WithClock(src)), nil
	},
	"slew": func(fc FilterConfig, src clock.Source) (filter.Filter, error) {
		return filter.NewRateLimit(tunable.Const(fc.Limit), filter.WithClock(src)), nil
	},
	"clamp": func(fc FilterConfig, _ clock.Source) (filter.Filter, error) {
		return filter.NewClamp(fc.Min, fc.Max)
	},
	"deadband": func(fc FilterConfig, _ clock.Source) (filter.Filter, error) {
		return filter.NewDeadband(tunable.Const(fc.Width)), nil
	},
	"motion-profile": func(fc FilterConfig, src clock.Source) (filter.Filter, error) {
		return filter.NewMotionProfile(tunable.Const(fc.Vel), tunable.Const(fc.Accel), profileOpts(fc, src)...)
	},
	"speed-profile": func(fc FilterConfig, src clock.Source) (filter.Filter, error) {
		return filter.NewSpeedProfile(tunable.Const(fc.Accel), tunable.Const(fc.Jerk), profileOpts(fc, src)...)
	},
}

func profileOpts(fc FilterConfig, src clock.Source) []filter.Option {
	opts := []filter.Option{filter.WithClock(src)}
	if fc.Steps != 0 {
		opts = append(opts, filter.WithSteps(fc.Steps))
	}
	return opts
}

// FilterTypes lists the filter names BuildFilter accepts.
func FilterTypes() []string {
	names := make([]string, 0, len(filters))
	for name := range filters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func BuildFilter(fc FilterConfig, src clock.Source) (filter.Filter, error) {
	build, ok := filters[fc.Type]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownType, "filter %q", fc.Type)
	}
	f, err := build(fc, src)
	return f, errors.Wrapf(err, "filter %q", fc.Type)
}

func BuildFilters(fcs []FilterConfig, src clock.Source) (filter.Group, error) {
	out := make([]filter.Filter, 0, len(fcs))
	for i, fc := range fcs {
		f, err := BuildFilter(fc, src)
		if err != nil {
			return nil, errors.Wrapf(err, "filter %d", i)
		}
		out = append(out, f)
	}
	return filter.NewGroup(out...), nil
}

// ControllerTypes lists the controller names Build accepts.
func ControllerTypes() []string {
	return []string{"angle-pid", "bang-bang", "feedforward", "feedforward+pid", "pid", "rate-pid", "relay", "take-back-half"}
}

// Built is a configuration turned into live objects sharing one clock.
type Built struct {
	System     plant.System
	Integrator plant.Integrator
	Controller control.Controller
	// PID is set for pid-based controllers, for live tuning.
	PID        *control.PID
	Calculator *autotune.Calculator
	Gains      *tunable.File
	Clock      *clock.Manual
}

// Close stops the gain file watcher, if any.
func (b *Built) Close() error {
	if b.Gains == nil {
		return nil
	}
	return b.Gains.Close()
}

// Runner wires the built objects into a loop runner.
func (b *Built) Runner(opts ...loop.Option) *loop.Runner {
	return loop.New(b.System, b.Integrator, b.Controller, b.Clock, opts...)
}

func (c *Config) Build(reg *plant.Registry, log *zap.Logger) (*Built, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if reg == nil {
		reg = plant.NewRegistry()
	}

	sys, err := reg.System(c.Plant.Name, c.Plant.Params)
	if err != nil {
		return nil, err
	}
	integ, err := reg.Integrator(c.Plant.Integrator)
	if err != nil {
		return nil, err
	}

	b := &Built{System: sys, Integrator: integ, Clock: clock.NewManual()}
	if err := c.buildController(b, log); err != nil {
		return nil, errors.Wrapf(err, "controller %q", c.Controller.Type)
	}
	return b, nil
}

func (c *Config) controlOptions(src clock.Source) ([]control.Option, error) {
	cc := c.Controller
	opts := []control.Option{control.WithClock(src)}

	errFilters, err := BuildFilters(cc.ErrorFilters, src)
	if err != nil {
		return nil, errors.Wrap(err, "error filters")
	}
	outFilters, err := BuildFilters(cc.OutputFilters, src)
	if err != nil {
		return nil, errors.Wrap(err, "output filters")
	}
	if len(errFilters) > 0 {
		opts = append(opts, control.WithErrorFilter(errFilters))
	}
	if len(outFilters) > 0 {
		opts = append(opts, control.WithOutputFilter(outFilters))
	}
	if cc.StaleAfter > 0 {
		opts = append(opts, control.WithStaleAfter(cc.StaleAfter))
	}
	if cc.IntegralBand > 0 {
		opts = append(opts, control.WithIntegralBand(cc.IntegralBand))
	}
	if cc.IntegralLimit > 0 {
		limit, err := filter.NewClamp(-cc.IntegralLimit, cc.IntegralLimit)
		if err != nil {
			return nil, err
		}
		opts = append(opts, control.WithIntegralFilter(limit))
	}
	return opts, nil
}

func (c *Config) gains(b *Built, log *zap.Logger) (kp, ki, kd tunable.Number, err error) {
	cc := c.Controller
	if cc.GainFile == "" {
		return tunable.Const(cc.Kp), tunable.Const(cc.Ki), tunable.Const(cc.Kd), nil
	}
	f, err := tunable.OpenFile(cc.GainFile, tunable.WithLogger(log))
	if err != nil {
		return nil, nil, nil, err
	}
	kp, ki, kd = f.Number("kp", cc.Kp), f.Number("ki", cc.Ki), f.Number("kd", cc.Kd)
	if err := f.Watch(); err != nil {
		return nil, nil, nil, err
	}
	b.Gains = f
	return kp, ki, kd, nil
}

func (c *Config) buildController(b *Built, log *zap.Logger) error {
	cc := c.Controller
	opts, err := c.controlOptions(b.Clock)
	if err != nil {
		return err
	}

	switch cc.Type {
	case "pid", "angle-pid", "rate-pid":
		kp, ki, kd, err := c.gains(b, log)
		if err != nil {
			return err
		}
		newPID := control.NewPID
		if cc.Type == "angle-pid" {
			newPID = control.NewAnglePID
		}
		if b.PID, err = newPID(kp, ki, kd, opts...); err != nil {
			return err
		}
		b.Controller = b.PID
		if cc.Type == "rate-pid" {
			b.Controller, err = control.NewRateOf(b.PID, control.WithClock(b.Clock))
		}
		return err

	case "feedforward":
		b.Controller, err = control.NewFeedforward(tunable.Const(cc.KS), tunable.Const(cc.KV), tunable.Const(cc.KA), opts...)
		return err

	case "feedforward+pid":
		ff, err := control.NewFeedforward(tunable.Const(cc.KS), tunable.Const(cc.KV), tunable.Const(cc.KA), control.WithClock(b.Clock))
		if err != nil {
			return err
		}
		kp, ki, kd, err := c.gains(b, log)
		if err != nil {
			return err
		}
		if b.PID, err = control.NewPID(kp, ki, kd, opts...); err != nil {
			return err
		}
		b.Controller, err = control.NewBinary(ff, b.PID)
		return err

	case "bang-bang":
		b.Controller, err = control.NewBangBang(tunable.Const(cc.Magnitude), opts...)
		return err

	case "take-back-half":
		b.Controller, err = control.NewTakeBackHalf(tunable.Const(cc.Gain), opts...)
		return err

	case "relay":
		b.Calculator, err = c.BuildCalculator(b.Clock, log, opts...)
		b.Controller = b.Calculator
		return err
	}
	return errors.Wrapf(ErrUnknownType, "controller %q", cc.Type)
}

// BuildCalculator builds the relay autotuner described by c.Autotune.
func (c *Config) BuildCalculator(src clock.Source, log *zap.Logger, opts ...control.Option) (*autotune.Calculator, error) {
	ac := c.Autotune
	speed := ac.Speed
	if speed == 0 {
		speed = DefaultSpeed
	}
	topts := []autotune.Option{
		autotune.WithClock(src),
		autotune.WithLogger(log),
		autotune.WithControlOptions(opts...),
	}
	if ac.MinPeriod > 0 {
		topts = append(topts, autotune.WithMinPeriod(ac.MinPeriod))
	}
	if ac.StaleAfter > 0 {
		topts = append(topts, autotune.WithStaleAfter(ac.StaleAfter))
	}
	if ac.MinCycles > 0 {
		topts = append(topts, autotune.WithMinCycles(ac.MinCycles))
	}
	if ac.Angular {
		return autotune.NewAngleCalculator(tunable.Const(speed), topts...)
	}
	return autotune.NewCalculator(tunable.Const(speed), topts...)
}

// TuningRule resolves c.Autotune.Rule, defaulting to Ziegler-Nichols PID.
func (c *Config) TuningRule() (autotune.Rule, error) {
	name := c.Autotune.Rule
	if name == "" {
		name = DefaultRule
	}
	return autotune.RuleByName(name)
}

func BuildSetpoint(sc SetpointConfig) (loop.Setpoint, error) {
	conv := func(v float64) float64 {
		if sc.Degrees {
			return angle.FromDegrees(v)
		}
		return v
	}
	switch sc.Type {
	case "", "constant":
		return loop.Constant(conv(sc.Value)), nil
	case "step":
		return loop.Step{Before: conv(sc.Before), After: conv(sc.After), Time: sc.Time}, nil
	case "square":
		return loop.Square{Low: conv(sc.Low), High: conv(sc.High), Period: sc.Period}, nil
	}
	return nil, errors.Wrapf(ErrUnknownType, "setpoint %q", sc.Type)
}

// LoopConfig converts the run section for loop.Runner.
func (c *Config) LoopConfig() (loop.Config, error) {
	sp, err := BuildSetpoint(c.Run.Setpoint)
	if err != nil {
		return loop.Config{}, err
	}
	return loop.Config{
		Dt:            c.Run.Dt,
		Duration:      c.Run.Duration,
		Setpoint:      sp,
		X0:            append([]float64(nil), c.Plant.Initial...),
		OutputLimit:   c.Run.OutputLimit,
		Jitter:        c.Run.Jitter,
		Seed:          c.Run.Seed,
		ValidateState: true,
	}, nil
}
