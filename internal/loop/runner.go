package loop

import (
	"context"
	"math"
	"math/rand"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/san-kum/loopkit/internal/clock"
	"github.com/san-kum/loopkit/internal/control"
	"github.com/san-kum/loopkit/internal/metrics"
	"github.com/san-kum/loopkit/internal/plant"
)

type Observer interface {
	OnTick(s metrics.Sample)
}

type ObserverFunc func(s metrics.Sample)

func (f ObserverFunc) OnTick(s metrics.Sample) { f(s) }

type Config struct {
	Dt       float64
	Duration float64
	Setpoint Setpoint
	// X0 is the initial plant state; zero when nil.
	X0 plant.State
	// OutputLimit saturates commands to +/- the limit when > 0.
	OutputLimit float64
	// Jitter spreads tick spacing uniformly over Dt*(1 +/- Jitter).
	Jitter        float64
	Seed          int64
	ValidateState bool
}

func DefaultConfig() Config {
	return Config{
		Dt:            0.01,
		Duration:      10.0,
		Setpoint:      Constant(1),
		Seed:          42,
		ValidateState: true,
	}
}

// Trace records every tick of a run.
type Trace struct {
	Times        []float64
	Setpoints    []float64
	Measurements []float64
	Outputs      []float64
	Metrics      map[string]float64
	StepsTaken   int
	Final        plant.State
}

// Errors returns setpoint minus measurement for every tick.
func (tr *Trace) Errors() []float64 {
	out := make([]float64, len(tr.Setpoints))
	for i := range out {
		out[i] = tr.Setpoints[i] - tr.Measurements[i]
	}
	return out
}

func (tr *Trace) Len() int { return len(tr.Times) }

type Runner struct {
	sys        plant.System
	integrator plant.Integrator
	controller control.Controller
	src        *clock.Manual
	metrics    []metrics.Metric
	observers  []Observer
	log        *zap.Logger
}

type Option func(*Runner)

func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.log = l
		}
	}
}

// New builds a runner. src must be the clock the controller reads; nil
// creates a private one.
func New(sys plant.System, integrator plant.Integrator, controller control.Controller, src *clock.Manual, opts ...Option) *Runner {
	if src == nil {
		src = clock.NewManual()
	}
	if integrator == nil {
		integrator = plant.NewRK4()
	}
	r := &Runner{
		sys:        sys,
		integrator: integrator,
		controller: controller,
		src:        src,
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Runner) AddMetric(m metrics.Metric)     { r.metrics = append(r.metrics, m) }
func (r *Runner) AddObserver(o Observer)         { r.observers = append(r.observers, o) }
func (r *Runner) Clock() *clock.Manual           { return r.src }
func (r *Runner) Controller() control.Controller { return r.controller }
func (r *Runner) System() plant.System           { return r.sys }

// Run executes cfg to completion or until ctx is done. On cancellation the
// partial trace is returned with the context's error.
func (r *Runner) Run(ctx context.Context, cfg Config) (*Trace, error) {
	s, err := r.Start(cfg)
	if err != nil {
		return nil, err
	}

	for !s.Done() {
		select {
		case <-ctx.Done():
			return s.Finish(), ctx.Err()
		default:
		}

		if _, err := s.Step(); err != nil {
			return s.Finish(), err
		}
	}
	return s.Finish(), nil
}

// Session is a run advanced one tick at a time.
type Session struct {
	r     *Runner
	cfg   Config
	rng   *rand.Rand
	x     plant.State
	t     float64
	step  int
	steps int
	trace *Trace
}

func (r *Runner) Start(cfg Config) (*Session, error) {
	if err := validateConfig(cfg, r.sys); err != nil {
		return nil, err
	}
	if cfg.Setpoint == nil {
		cfg.Setpoint = Constant(0)
	}

	steps := int(math.Round(cfg.Duration / cfg.Dt))
	x := make(plant.State, r.sys.StateDim())
	copy(x, cfg.X0)

	for _, m := range r.metrics {
		m.Reset()
	}

	r.log.Debug("run starting",
		zap.Float64("dt", cfg.Dt),
		zap.Float64("duration", cfg.Duration),
		zap.Int("steps", steps),
		zap.Float64("jitter", cfg.Jitter),
	)

	return &Session{
		r:     r,
		cfg:   cfg,
		rng:   rand.New(rand.NewSource(cfg.Seed)),
		x:     x,
		steps: steps,
		trace: &Trace{
			Times:        make([]float64, 0, steps),
			Setpoints:    make([]float64, 0, steps),
			Measurements: make([]float64, 0, steps),
			Outputs:      make([]float64, 0, steps),
			Metrics:      make(map[string]float64),
		},
	}, nil
}

func (s *Session) Done() bool { return s.step >= s.steps }

// Step runs one tick and returns what the controller saw and did.
func (s *Session) Step() (metrics.Sample, error) {
	if s.Done() {
		return metrics.Sample{}, ErrFinished
	}
	r := s.r

	h := s.cfg.Dt
	if s.cfg.Jitter > 0 {
		h *= 1 + s.cfg.Jitter*(2*s.rng.Float64()-1)
	}
	r.src.Advance(h)

	y := r.sys.Output(s.x)
	sp := s.cfg.Setpoint.At(s.t)
	u := r.controller.Update(sp, y)
	if lim := s.cfg.OutputLimit; lim > 0 {
		u = math.Max(-lim, math.Min(lim, u))
	}

	sample := metrics.Sample{T: s.t, Setpoint: sp, Measurement: y, Output: u}
	for _, m := range r.metrics {
		m.Observe(sample)
	}
	for _, obs := range r.observers {
		obs.OnTick(sample)
	}

	tr := s.trace
	tr.Times = append(tr.Times, s.t)
	tr.Setpoints = append(tr.Setpoints, sp)
	tr.Measurements = append(tr.Measurements, y)
	tr.Outputs = append(tr.Outputs, u)

	next := r.integrator.Step(r.sys, s.x, u, s.t, h)
	if s.cfg.ValidateState && !next.IsValid() {
		err := &SimError{Time: s.t, Step: s.step, Wrapped: ErrInvalidState}
		r.log.Warn("run aborted", zap.Error(err))
		s.step = s.steps
		return sample, err
	}

	s.x = next
	s.t += h
	s.step++
	tr.StepsTaken++
	return sample, nil
}

// State returns the current plant state.
func (s *Session) State() plant.State { return s.x.Clone() }

// Finish collects metric values into the trace.
func (s *Session) Finish() *Trace {
	for _, m := range s.r.metrics {
		s.trace.Metrics[m.Name()] = m.Value()
	}
	s.trace.Final = s.x.Clone()
	return s.trace
}

func validateConfig(cfg Config, sys plant.System) error {
	if !(cfg.Dt > 0) {
		return errors.Wrapf(ErrInvalidConfig, "dt must be positive, got %f", cfg.Dt)
	}
	if !(cfg.Duration > 0) {
		return errors.Wrapf(ErrInvalidConfig, "duration must be positive, got %f", cfg.Duration)
	}
	if cfg.Jitter < 0 || cfg.Jitter >= 1 {
		return errors.Wrapf(ErrInvalidConfig, "jitter must be in [0, 1), got %f", cfg.Jitter)
	}
	if len(cfg.X0) > sys.StateDim() {
		return errors.Wrapf(ErrInvalidConfig, "initial state has %d values, plant has %d", len(cfg.X0), sys.StateDim())
	}
	return nil
}
