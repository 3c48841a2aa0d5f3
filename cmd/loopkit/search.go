package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/loopkit/internal/loop"
	"github.com/san-kum/loopkit/internal/metrics"
	"github.com/san-kum/loopkit/internal/optim"
)

var (
	searchMetric string
	searchPoints int
	searchSeeds  int
	kpRange      []float64
	kiRange      []float64
	kdRange      []float64
)

func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search [plant]",
		Short: "grid search pid gains against a metric",
		Args:  cobra.MaximumNArgs(1),
		RunE:  searchGains,
	}
	addLoopFlags(cmd)
	cmd.Flags().StringVar(&searchMetric, "metric", "iae", "metric to minimise")
	cmd.Flags().IntVar(&searchPoints, "points", 5, "grid points per gain")
	cmd.Flags().IntVar(&searchSeeds, "seeds", 1, "runs per candidate with consecutive seeds")
	cmd.Flags().Float64SliceVar(&kpRange, "kp-range", []float64{0.5, 5}, "kp search range")
	cmd.Flags().Float64SliceVar(&kiRange, "ki-range", []float64{0, 1}, "ki search range")
	cmd.Flags().Float64SliceVar(&kdRange, "kd-range", []float64{0, 0.5}, "kd search range")
	return cmd
}

func searchGains(cmd *cobra.Command, args []string) error {
	base, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	ranges := [][]float64{}
	for name, r := range map[string][]float64{"kp-range": kpRange, "ki-range": kiRange, "kd-range": kdRange} {
		if len(r) != 2 {
			return fmt.Errorf("--%s needs two values, got %v", name, r)
		}
	}
	for _, r := range [][]float64{kpRange, kiRange, kdRange} {
		ranges = append(ranges, optim.Linspace(r[0], r[1], searchPoints))
	}

	build := func(params map[string]float64) (*loop.Runner, loop.Config, error) {
		cfg := base.Clone()
		cfg.Controller.GainFile = ""
		cfg.Controller.Kp = params["kp"]
		cfg.Controller.Ki = params["ki"]
		cfg.Controller.Kd = params["kd"]
		built, err := cfg.Build(nil, nil)
		if err != nil {
			return nil, loop.Config{}, err
		}
		lc, err := cfg.LoopConfig()
		if err != nil {
			return nil, loop.Config{}, err
		}
		runner := built.Runner()
		for _, m := range metrics.Defaults() {
			runner.AddMetric(m)
		}
		return runner, lc, nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	g := optim.NewGridSearch([]string{"kp", "ki", "kd"}, ranges)
	g.Seeds = searchSeeds
	fmt.Printf("searching %d candidates on %s / %s...\n", searchPoints*searchPoints*searchPoints, base.Plant.Name, base.Controller.Type)
	results, err := g.Search(ctx, build, searchMetric)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "KP\tKI\tKD\t%s\n", searchMetric)
	for i, c := range results {
		if i >= 10 {
			break
		}
		fmt.Fprintf(w, "%.4g\t%.4g\t%.4g\t%.6g\n", c.Params["kp"], c.Params["ki"], c.Params["kd"], c.Score)
	}
	return w.Flush()
}
