package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/loopkit/internal/actuator"
	"github.com/san-kum/loopkit/internal/config"
	"github.com/san-kum/loopkit/internal/loop"
	"github.com/san-kum/loopkit/internal/metrics"
	"github.com/san-kum/loopkit/internal/storage"
	"github.com/san-kum/loopkit/internal/tui"
)

type prepared struct {
	cfg    *config.Config
	built  *config.Built
	runner *loop.Runner
	loop   loop.Config
}

func prepare(cmd *cobra.Command, args []string) (*prepared, error) {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return nil, err
	}
	built, err := cfg.Build(nil, log)
	if err != nil {
		return nil, err
	}
	lc, err := cfg.LoopConfig()
	if err != nil {
		return nil, err
	}
	runner := built.Runner(loop.WithLogger(log))
	for _, m := range metrics.Defaults() {
		runner.AddMetric(m)
	}
	return &prepared{cfg: cfg, built: built, runner: runner, loop: lc}, nil
}

func runLoop(cmd *cobra.Command, args []string) error {
	p, err := prepare(cmd, args)
	if err != nil {
		return err
	}
	defer p.built.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var sink *actuator.Sink
	if canIface != "" {
		bus, err := actuator.DialSocketCAN(ctx, canIface)
		if err != nil {
			return err
		}
		defer bus.Close()
		enc, err := actuator.NewEncoder(canID, 8, actuator.Signal{Name: "command", Length: 16, Factor: canScale})
		if err != nil {
			return err
		}
		sink = actuator.NewSink(ctx, enc, bus, log)
		p.runner.AddObserver(sink)
	}

	fmt.Printf("running %s / %s...\n", p.cfg.Plant.Name, p.cfg.Controller.Type)
	start := time.Now()
	tr, err := p.runner.Run(ctx, p.loop)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	elapsed := time.Since(start)

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("steps: %d\n", tr.StepsTaken)
	printMetrics(tr.Metrics)
	if sink != nil {
		fmt.Printf("\ncan frames sent: %d\n", sink.Frames())
		if err := sink.Err(); err != nil {
			fmt.Printf("can error: %v\n", err)
		}
	}

	if c := p.built.Calculator; c != nil {
		if err := reportTuning(p.cfg, c, tr, !noSave); err != nil {
			return err
		}
	}

	if noSave {
		return nil
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	runID, err := st.Save(runMetadata(p.cfg), tr)
	if err != nil {
		return err
	}
	fmt.Printf("\nrun id: %s\n", runID)
	return nil
}

func stepResponse(cmd *cobra.Command, args []string) error {
	p, err := prepare(cmd, args)
	if err != nil {
		return err
	}
	defer p.built.Close()
	tr, err := p.runner.Run(cmd.Context(), p.loop)
	if err != nil {
		return err
	}

	errs := tr.Errors()
	final := tr.Measurements[len(tr.Measurements)-1]
	target := tr.Setpoints[len(tr.Setpoints)-1]
	band := 0.02 * abs(target)
	if band == 0 {
		band = 0.02
	}

	fmt.Printf("%s / %s step response\n\n", p.cfg.Plant.Name, p.cfg.Controller.Type)
	fmt.Println(asciigraph.PlotMany([][]float64{tr.Setpoints, tr.Measurements},
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.SeriesColors(asciigraph.Yellow, asciigraph.Green),
		asciigraph.Caption("setpoint / measurement"),
	))
	fmt.Println()
	fmt.Printf("  final value:   %.6f\n", final)
	fmt.Printf("  overshoot:     %.2f%%\n", 100*tr.Metrics["overshoot"])
	if ts := metrics.SettlingTime(tr.Times, errs, band); ts >= 0 {
		fmt.Printf("  settling (2%%): %.3fs\n", ts)
	} else {
		fmt.Println("  settling (2%): not settled")
	}
	fmt.Printf("  iae:           %.6f\n", tr.Metrics["iae"])
	out := metrics.Summarize(tr.Outputs)
	fmt.Printf("  output:        min %.4f  max %.4f  mean %.4f\n", out.Min, out.Max, out.Mean)
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	// log lines would corrupt the alternate screen
	log = zap.NewNop()
	p, err := prepare(cmd, args)
	if err != nil {
		return err
	}
	defer p.built.Close()
	session, err := p.runner.Start(p.loop)
	if err != nil {
		return err
	}
	r, _ := p.cfg.TuningRule()
	return tui.Run(tui.New(session, tui.Options{
		Title:         fmt.Sprintf("%s / %s", p.cfg.Plant.Name, p.cfg.Controller.Type),
		PID:           p.built.PID,
		Calculator:    p.built.Calculator,
		Rule:          r,
		StepsPerFrame: stepsPerFrame,
	}))
}

func runMetadata(cfg *config.Config) storage.RunMetadata {
	return storage.RunMetadata{
		Plant:      cfg.Plant.Name,
		Preset:     preset,
		Controller: cfg.Controller.Type,
		Integrator: cfg.Plant.Integrator,
		Seed:       cfg.Run.Seed,
		Dt:         cfg.Run.Dt,
		Duration:   cfg.Run.Duration,
	}
}

func printMetrics(m map[string]float64) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Println("\nmetrics:")
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, m[name])
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
