package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/san-kum/loopkit/internal/config"
	"github.com/san-kum/loopkit/internal/storage"
)

// resolveConfig layers the loop description: config file, else preset,
// else defaults; flags given explicitly on the command line win.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	plantName := ""
	if len(args) > 0 {
		plantName = args[0]
	}

	var cfg *config.Config
	switch {
	case configFile != "":
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	case preset != "":
		if plantName == "" {
			return nil, fmt.Errorf("--preset needs a plant (available: %v)", config.ListPlants())
		}
		cfg = config.GetPreset(plantName, preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(plantName))
		}
	default:
		cfg = config.DefaultConfig()
	}
	if plantName != "" {
		cfg.Plant.Name = plantName
	}

	fl := cmd.Flags()
	if fl.Changed("dt") {
		cfg.Run.Dt = dt
	}
	if fl.Changed("time") {
		cfg.Run.Duration = duration
	}
	if fl.Changed("seed") {
		cfg.Run.Seed = seed
	}
	if fl.Changed("integrator") {
		cfg.Plant.Integrator = integrator
	}
	if fl.Changed("controller") {
		cfg.Controller.Type = controller
	}
	if fl.Changed("kp") {
		cfg.Controller.Kp = kp
	}
	if fl.Changed("ki") {
		cfg.Controller.Ki = ki
	}
	if fl.Changed("kd") {
		cfg.Controller.Kd = kd
	}
	if fl.Changed("setpoint") {
		cfg.Run.Setpoint = config.SetpointConfig{Type: "constant", Value: setpoint}
	}
	if fl.Changed("gain-file") {
		cfg.Controller.GainFile = gainFile
	}
	if fl.Changed("jitter") {
		cfg.Run.Jitter = jitter
	}
	if fl.Changed("limit") {
		cfg.Run.OutputLimit = limit
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openStore() (*storage.Store, error) {
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return nil, err
	}
	return st, nil
}

func openGainBook() (*storage.GainBook, error) {
	if _, err := openStore(); err != nil {
		return nil, err
	}
	return storage.OpenGainBook(filepath.Join(dataDir, "gains.db"))
}
