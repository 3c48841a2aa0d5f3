package config

import "sort"

var Presets = map[string]map[string]*Config{
	"lag": {
		"relay": {
			Plant:      PlantConfig{Name: "lag", Integrator: "rk4", Params: map[string]float64{"stages": 3, "gain": 1, "tau": 1}, Initial: []float64{0.3, 0.3, 0.3}},
			Controller: ControllerConfig{Type: "relay"},
			Autotune:   AutotuneConfig{Speed: 1, Rule: "zn-pid", MinCycles: 3},
			Run:        RunConfig{Dt: 0.001, Duration: 60, Setpoint: SetpointConfig{Type: "constant"}},
		},
		"tuned": {
			Plant:      PlantConfig{Name: "lag", Integrator: "rk4", Params: map[string]float64{"stages": 3, "gain": 1, "tau": 1}},
			Controller: ControllerConfig{Type: "pid", Kp: 3.5, Ki: 0.44, Kd: 2.1},
			Autotune:   AutotuneConfig{Speed: 1, Rule: "tl-pid"},
			Run:        RunConfig{Dt: 0.001, Duration: 60, Setpoint: SetpointConfig{Type: "step", Before: 0, After: 1, Time: 1}},
		},
	},
	"motor": {
		"pid": {
			Plant:      PlantConfig{Name: "motor", Integrator: "rk4"},
			Controller: ControllerConfig{Type: "pid", Kp: 4, Kd: 0.2},
			Run:        RunConfig{Dt: 0.01, Duration: 5, Setpoint: SetpointConfig{Type: "constant", Value: 1}},
		},
		"profiled": {
			Plant: PlantConfig{Name: "motor", Integrator: "rk4"},
			Controller: ControllerConfig{
				Type: "pid", Kp: 4, Ki: 0.5, Kd: 0.2, IntegralLimit: 0.5,
				OutputFilters: []FilterConfig{
					{Type: "slew", Limit: 40},
					{Type: "clamp", Min: -12, Max: 12},
				},
			},
			Run: RunConfig{Dt: 0.01, Duration: 10, Jitter: 0.2, Seed: 1, Setpoint: SetpointConfig{Type: "square", Low: -1, High: 1, Period: 4}},
		},
		"noisy": {
			Plant: PlantConfig{Name: "motor", Integrator: "rk4"},
			Controller: ControllerConfig{
				Type: "pid", Kp: 4, Kd: 0.2,
				ErrorFilters: []FilterConfig{{Type: "lowpass", RC: 0.02}},
			},
			Run: RunConfig{Dt: 0.005, Duration: 5, Jitter: 0.5, Seed: 3, Setpoint: SetpointConfig{Type: "constant", Value: 1}},
		},
	},
	"motor-speed": {
		"feedforward": {
			Plant:      PlantConfig{Name: "motor-speed", Integrator: "rk4"},
			Controller: ControllerConfig{Type: "feedforward+pid", KV: 0.2, Kp: 0.05, Ki: 0.5},
			Run:        RunConfig{Dt: 0.01, Duration: 5, Setpoint: SetpointConfig{Type: "step", Before: 0, After: 10, Time: 0.5}},
		},
		"take-back-half": {
			Plant:      PlantConfig{Name: "motor-speed", Integrator: "rk4"},
			Controller: ControllerConfig{Type: "take-back-half", Gain: 0.05},
			Run:        RunConfig{Dt: 0.01, Duration: 10, Setpoint: SetpointConfig{Type: "constant", Value: 10}},
		},
	},
	"turret": {
		"angle": {
			Plant:      PlantConfig{Name: "turret", Integrator: "rk4", Initial: []float64{3.0}},
			Controller: ControllerConfig{Type: "angle-pid", Kp: 5, Kd: 1.5},
			Run:        RunConfig{Dt: 0.01, Duration: 8, Setpoint: SetpointConfig{Type: "constant", Value: -179, Degrees: true}},
		},
		"relay": {
			Plant:      PlantConfig{Name: "turret", Integrator: "rk4", Initial: []float64{0.5}},
			Controller: ControllerConfig{Type: "relay", ErrorFilters: []FilterConfig{{Type: "lowpass", RC: 0.2}}},
			Autotune:   AutotuneConfig{Speed: 0.5, Rule: "no-overshoot", MinCycles: 3, Angular: true},
			Run:        RunConfig{Dt: 0.005, Duration: 30, Setpoint: SetpointConfig{Type: "constant"}},
		},
	},
	"mass-spring": {
		"bang-bang": {
			Plant:      PlantConfig{Name: "mass-spring", Integrator: "rk4"},
			Controller: ControllerConfig{Type: "bang-bang", Magnitude: 5},
			Run:        RunConfig{Dt: 0.01, Duration: 10, Setpoint: SetpointConfig{Type: "constant", Value: 0.25}},
		},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(plant, preset string) *Config {
	plantPresets, ok := Presets[plant]
	if !ok {
		return nil
	}
	cfg, ok := plantPresets[preset]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets(plant string) []string {
	plantPresets, ok := Presets[plant]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(plantPresets))
	for name := range plantPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListPlants returns the plants that have presets.
func ListPlants() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
