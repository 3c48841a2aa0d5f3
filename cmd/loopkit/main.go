package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	dataDir  string
	logLevel string

	configFile string
	preset     string
	dt         float64
	duration   float64
	seed       int64
	integrator string
	controller string
	kp         float64
	ki         float64
	kd         float64
	setpoint   float64
	gainFile   string
	jitter     float64
	limit      float64

	rule      string
	speed     float64
	minCycles int

	canIface string
	canID    uint32
	canScale float64

	stepsPerFrame int
	noSave        bool
)

var log = zap.NewNop()

// main registers the loopkit commands and exits with status 1 on error.
func main() {
	rootCmd := &cobra.Command{
		Use:           "loopkit",
		Short:         "feedback control loops: filters, pid, relay autotuning",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := newLogger(logLevel)
			if err != nil {
				return err
			}
			log = l
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".loopkit", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run [plant]",
		Short: "run a closed loop and store the trace",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLoop,
	}
	addLoopFlags(runCmd)
	runCmd.Flags().StringVar(&canIface, "can", "", "also send outputs as CAN frames on this interface (linux)")
	runCmd.Flags().Uint32Var(&canID, "can-id", 0x200, "CAN frame id for the command")
	runCmd.Flags().Float64Var(&canScale, "can-scale", 0.001, "CAN command resolution per bit")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	stepCmd := &cobra.Command{
		Use:   "step [plant]",
		Short: "step response with overshoot and settling time",
		Args:  cobra.MaximumNArgs(1),
		RunE:  stepResponse,
	}
	addLoopFlags(stepCmd)

	tuneCmd := &cobra.Command{
		Use:   "tune [plant]",
		Short: "relay autotune a plant and record the gains",
		Args:  cobra.MaximumNArgs(1),
		RunE:  tunePlant,
	}
	addLoopFlags(tuneCmd)
	tuneCmd.Flags().StringVar(&rule, "rule", "", "tuning rule (see 'loopkit rules')")
	tuneCmd.Flags().Float64Var(&speed, "speed", 0, "relay output magnitude")
	tuneCmd.Flags().IntVar(&minCycles, "min-cycles", 0, "relay cycles required before gains are reported")

	liveCmd := &cobra.Command{
		Use:   "live [plant]",
		Short: "step a loop live in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addLoopFlags(liveCmd)
	liveCmd.Flags().IntVar(&stepsPerFrame, "steps", 2, "loop ticks per frame")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "error spectrum and phase plane of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id] [file]",
		Short: "export run trace to CSV",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id] [file]",
		Short: "export run to JSON (stdout when no file)",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  exportJSON,
	}

	gainsCmd := &cobra.Command{
		Use:   "gains [plant]",
		Short: "show recorded autotuning results",
		Args:  cobra.MaximumNArgs(1),
		RunE:  showGains,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [plant]",
		Short: "list presets",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	rulesCmd := &cobra.Command{
		Use:   "rules",
		Short: "list tuning rules",
		RunE:  listRules,
	}

	rootCmd.AddCommand(runCmd, stepCmd, tuneCmd, newSearchCmd(), liveCmd, listCmd, plotCmd, analyzeCmd,
		exportCSVCmd, exportJSONCmd, gainsCmd, presetsCmd, rulesCmd)

	err := rootCmd.Execute()
	_ = log.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addLoopFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().Float64Var(&dt, "dt", 0.01, "tick period")
	cmd.Flags().Float64Var(&duration, "time", 10.0, "duration")
	cmd.Flags().Int64Var(&seed, "seed", 42, "random seed for tick jitter")
	cmd.Flags().StringVar(&integrator, "integrator", "rk4", "integrator")
	cmd.Flags().StringVar(&controller, "controller", "pid", "controller type")
	cmd.Flags().Float64Var(&kp, "kp", 1.0, "pid kp")
	cmd.Flags().Float64Var(&ki, "ki", 0.1, "pid ki")
	cmd.Flags().Float64Var(&kd, "kd", 0.05, "pid kd")
	cmd.Flags().Float64Var(&setpoint, "setpoint", 1.0, "constant setpoint")
	cmd.Flags().StringVar(&gainFile, "gain-file", "", "yaml file with kp/ki/kd, reloaded on change")
	cmd.Flags().Float64Var(&jitter, "jitter", 0, "tick spacing jitter as a fraction of dt")
	cmd.Flags().Float64Var(&limit, "limit", 0, "output saturation (0 = none)")
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = lvl
	cfg.DisableStacktrace = true
	return cfg.Build()
}
