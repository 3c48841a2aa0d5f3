package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/loopkit/internal/analysis"
	"github.com/san-kum/loopkit/internal/autotune"
	"github.com/san-kum/loopkit/internal/config"
	"github.com/san-kum/loopkit/internal/loop"
)

func tunePlant(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		args = []string{"lag"}
	}
	if configFile == "" && preset == "" && config.GetPreset(args[0], "relay") != nil {
		preset = "relay"
	}
	p, err := prepareTune(cmd, args)
	if err != nil {
		return err
	}
	defer p.built.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("relay tuning %s for %.1fs...\n", p.cfg.Plant.Name, p.loop.Duration)
	tr, err := p.runner.Run(ctx, p.loop)
	if err != nil {
		return err
	}
	return reportTuning(p.cfg, p.built.Calculator, tr, true)
}

func prepareTune(cmd *cobra.Command, args []string) (*prepared, error) {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return nil, err
	}
	cfg.Controller.Type = "relay"
	if rule != "" {
		cfg.Autotune.Rule = rule
	}
	if speed > 0 {
		cfg.Autotune.Speed = speed
	}
	if minCycles > 0 {
		cfg.Autotune.MinCycles = minCycles
	}
	if _, err := cfg.TuningRule(); err != nil {
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
	return &prepared{cfg: cfg, built: built, runner: built.Runner(loop.WithLogger(log)), loop: lc}, nil
}

// reportTuning prints the relay estimate and the gains of every rule,
// and records the configured rule's gains when record is set.
func reportTuning(cfg *config.Config, c *autotune.Calculator, tr *loop.Trace, record bool) error {
	est := c.Estimate()
	fmt.Println("\nrelay estimate:")
	if !est.Ready {
		fmt.Printf("  %d relay cycles measured, not enough for an estimate; run longer or raise the relay speed\n", est.Cycles)
		return nil
	}
	fmt.Printf("  Ku: %.6f\n", est.Ku)
	fmt.Printf("  Tu: %.6fs\n", est.Tu)
	fmt.Printf("  amplitude: %.6f over %d cycles\n", est.Amplitude, est.Cycles)

	if tr != nil && tr.Len() > 0 {
		half := tr.Len() / 2
		sig, sdt := analysis.Resample(tr.Times[half:], tr.Errors()[half:], 0)
		if period, err := analysis.DominantPeriod(sig, sdt); err == nil && period > 0 {
			fmt.Printf("  spectral period: %.6fs (%+.2f%%)\n", period, 100*(period-est.Tu)/est.Tu)
		}
	}

	chosen, err := cfg.TuningRule()
	if err != nil {
		return err
	}

	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RULE\tKP\tKI\tKD\t")
	for _, r := range autotune.Rules() {
		g := c.Gains(r)
		mark := ""
		if r.Name == chosen.Name {
			mark = "*"
		}
		fmt.Fprintf(w, "%s\t%.6g\t%.6g\t%.6g\t%s\n", r.Name, g.Kp, g.Ki, g.Kd, mark)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if !record {
		return nil
	}
	book, err := openGainBook()
	if err != nil {
		return err
	}
	defer book.Close()
	rec, err := book.Record(cfg.Plant.Name, chosen, c.Gains(chosen), est)
	if err != nil {
		return err
	}
	fmt.Printf("\nrecorded %s gains for %s (%s)\n", chosen.Name, cfg.Plant.Name, rec.ID)
	return nil
}

func showGains(cmd *cobra.Command, args []string) error {
	plantName := ""
	if len(args) > 0 {
		plantName = args[0]
	}
	book, err := openGainBook()
	if err != nil {
		return err
	}
	defer book.Close()

	history, err := book.History(plantName)
	if err != nil {
		return err
	}
	if len(history) == 0 {
		fmt.Println("no gains recorded")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tPLANT\tRULE\tKP\tKI\tKD\tKU\tTU")
	for _, r := range history {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.6g\t%.6g\t%.6g\t%.6g\t%.4fs\n",
			r.Time().Format("2006-01-02 15:04:05"),
			r.Plant, r.Rule, r.Kp, r.Ki, r.Kd, r.Ku, r.Tu,
		)
	}
	return w.Flush()
}

func listRules(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RULE\tP\tI\tD")
	for _, r := range autotune.Rules() {
		fmt.Fprintf(w, "%s\t%g\t%g\t%g\n", r.Name, r.P, r.I, r.D)
	}
	return w.Flush()
}

func listPresets(cmd *cobra.Command, args []string) error {
	plants := config.ListPlants()
	if len(args) > 0 {
		plants = args
	}
	for _, plantName := range plants {
		presets := config.ListPresets(plantName)
		if len(presets) == 0 {
			fmt.Printf("no presets for plant: %s\n", plantName)
			continue
		}
		fmt.Printf("presets for %s:\n", plantName)
		for _, p := range presets {
			fmt.Printf("  %s\n", p)
		}
	}
	return nil
}
