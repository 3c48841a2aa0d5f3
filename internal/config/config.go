package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDt       = 0.01
	DefaultDuration = 10.0
	DefaultKp       = 1.0
	DefaultKi       = 0.1
	DefaultKd       = 0.05
	DefaultSpeed    = 1.0
	DefaultRule     = "zn-pid"
)

type Config struct {
	Plant      PlantConfig      `yaml:"plant"`
	Controller ControllerConfig `yaml:"controller"`
	Autotune   AutotuneConfig   `yaml:"autotune"`
	Run        RunConfig        `yaml:"run"`
}

type PlantConfig struct {
	Name       string             `yaml:"name"`
	Integrator string             `yaml:"integrator"`
	Params     map[string]float64 `yaml:"params,omitempty"`
	Initial    []float64          `yaml:"initial,omitempty"`
}

type ControllerConfig struct {
	Type string `yaml:"type"`

	Kp float64 `yaml:"kp"`
	Ki float64 `yaml:"ki"`
	Kd float64 `yaml:"kd"`
	// GainFile is a YAML file with kp, ki and kd keys, watched for edits.
	GainFile      string  `yaml:"gain_file,omitempty"`
	StaleAfter    float64 `yaml:"stale_after,omitempty"`
	IntegralBand  float64 `yaml:"integral_band,omitempty"`
	IntegralLimit float64 `yaml:"integral_limit,omitempty"`

	KS        float64 `yaml:"ks,omitempty"`
	KV        float64 `yaml:"kv,omitempty"`
	KA        float64 `yaml:"ka,omitempty"`
	Magnitude float64 `yaml:"magnitude,omitempty"`
	Gain      float64 `yaml:"gain,omitempty"`

	ErrorFilters  []FilterConfig `yaml:"error_filters,omitempty"`
	OutputFilters []FilterConfig `yaml:"output_filters,omitempty"`
}

type FilterConfig struct {
	Type   string  `yaml:"type"`
	Size   int     `yaml:"size,omitempty"`
	RC     float64 `yaml:"rc,omitempty"`
	Window float64 `yaml:"window,omitempty"`
	Limit  float64 `yaml:"limit,omitempty"`
	Min    float64 `yaml:"min,omitempty"`
	Max    float64 `yaml:"max,omitempty"`
	Width  float64 `yaml:"width,omitempty"`
	Vel    float64 `yaml:"vel,omitempty"`
	Accel  float64 `yaml:"accel,omitempty"`
	Jerk   float64 `yaml:"jerk,omitempty"`
	Steps  int     `yaml:"steps,omitempty"`
}

type AutotuneConfig struct {
	Speed      float64 `yaml:"speed"`
	Rule       string  `yaml:"rule"`
	MinPeriod  float64 `yaml:"min_period,omitempty"`
	StaleAfter float64 `yaml:"stale_after,omitempty"`
	MinCycles  int     `yaml:"min_cycles,omitempty"`
	Angular    bool    `yaml:"angular,omitempty"`
}

type RunConfig struct {
	Dt          float64        `yaml:"dt"`
	Duration    float64        `yaml:"duration"`
	Seed        int64          `yaml:"seed"`
	Jitter      float64        `yaml:"jitter,omitempty"`
	OutputLimit float64        `yaml:"output_limit,omitempty"`
	Setpoint    SetpointConfig `yaml:"setpoint"`
}

type SetpointConfig struct {
	Type   string  `yaml:"type"`
	Value  float64 `yaml:"value"`
	Before float64 `yaml:"before,omitempty"`
	After  float64 `yaml:"after,omitempty"`
	Time   float64 `yaml:"time,omitempty"`
	Low    float64 `yaml:"low,omitempty"`
	High   float64 `yaml:"high,omitempty"`
	Period float64 `yaml:"period,omitempty"`
	// Degrees marks setpoint values as degrees for angular plants.
	Degrees bool `yaml:"degrees,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Plant: PlantConfig{Name: "motor", Integrator: "rk4"},
		Controller: ControllerConfig{
			Type: "pid",
			Kp:   DefaultKp,
			Ki:   DefaultKi,
			Kd:   DefaultKd,
		},
		Autotune: AutotuneConfig{Speed: DefaultSpeed, Rule: DefaultRule},
		Run: RunConfig{
			Dt:       DefaultDt,
			Duration: DefaultDuration,
			Setpoint: SetpointConfig{Type: "constant", Value: 1},
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading config")
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "validating %s", path)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "encoding config")
	}
	return errors.Wrap(os.WriteFile(path, data, 0644), "writing config")
}

// Validate checks the fields that have no usable zero value.
func (c *Config) Validate() error {
	if c.Plant.Name == "" {
		return errors.Wrap(ErrInvalid, "plant name is empty")
	}
	if c.Run.Dt <= 0 {
		return errors.Wrapf(ErrInvalid, "run.dt must be positive, got %f", c.Run.Dt)
	}
	if c.Run.Duration <= 0 {
		return errors.Wrapf(ErrInvalid, "run.duration must be positive, got %f", c.Run.Duration)
	}
	if c.Controller.Type == "" {
		return errors.Wrap(ErrInvalid, "controller type is empty")
	}
	return nil
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	if c.Plant.Params != nil {
		out.Plant.Params = make(map[string]float64, len(c.Plant.Params))
		for k, v := range c.Plant.Params {
			out.Plant.Params[k] = v
		}
	}
	out.Plant.Initial = append([]float64(nil), c.Plant.Initial...)
	out.Controller.ErrorFilters = append([]FilterConfig(nil), c.Controller.ErrorFilters...)
	out.Controller.OutputFilters = append([]FilterConfig(nil), c.Controller.OutputFilters...)
	return &out
}
