package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/loopkit/internal/analysis"
	"github.com/san-kum/loopkit/internal/loop"
	"github.com/san-kum/loopkit/internal/metrics"
	"github.com/san-kum/loopkit/internal/storage"
)

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPLANT\tCTRL\tTIME\tDURATION\tDT\tIAE")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2fs\t%.4fs\t%.4f\n",
			run.ID,
			run.Plant,
			run.Controller,
			run.Timestamp.Local().Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Metrics["iae"],
		)
	}
	return w.Flush()
}

func loadRun(runID string) (*storage.RunMetadata, *loop.Trace, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	tr, err := st.LoadTrace(runID)
	if err != nil {
		return nil, nil, err
	}
	if tr.Len() == 0 {
		return nil, nil, fmt.Errorf("no data in run %s", runID)
	}
	return meta, tr, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, tr, err := loadRun(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("plant: %s  controller: %s\n", meta.Plant, meta.Controller)
	fmt.Printf("samples: %d\n\n", tr.Len())

	fmt.Println(asciigraph.PlotMany([][]float64{tr.Setpoints, tr.Measurements},
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.SeriesColors(asciigraph.Yellow, asciigraph.Green),
		asciigraph.Caption("setpoint / measurement"),
	))
	fmt.Println()
	fmt.Println(asciigraph.Plot(tr.Outputs,
		asciigraph.Height(8),
		asciigraph.Width(80),
		asciigraph.Caption("controller output"),
	))
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	meta, tr, err := loadRun(args[0])
	if err != nil {
		return err
	}

	errs := tr.Errors()
	sig, sdt := analysis.Resample(tr.Times, errs, 0)
	sp, err := analysis.PowerSpectrum(sig, sdt)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s (%s / %s)\n\n", meta.ID, meta.Plant, meta.Controller)

	s := metrics.Summarize(errs)
	fmt.Printf("error: mean %.6f  std %.6f  min %.6f  max %.6f\n", s.Mean, s.Std, s.Min, s.Max)
	if period, err := analysis.DominantPeriod(sig, sdt); err == nil && period > 0 {
		bin, _ := sp.Peak()
		fmt.Printf("dominant period: %.4fs (bin %.2f)\n", period, bin)
	}
	fmt.Println()

	// lower half of the band
	bins := sp.Power[1:]
	if len(bins) > 160 {
		bins = bins[:len(bins)/2]
	}
	fmt.Println(asciigraph.Plot(bins,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("error power spectrum (%.3f Hz/bin)", sp.Freqs[1])),
	))
	fmt.Println()

	if portrait := analysis.ErrorPortrait(tr); portrait != nil {
		fmt.Printf("phase plane: %s vs %s\n", portrait.YLabel, portrait.XLabel)
		fmt.Print(analysis.PhasePortraitToASCII(portrait, 70, 20))
	}
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	_, tr, err := loadRun(args[0])
	if err != nil {
		return err
	}
	path := args[0] + ".csv"
	if len(args) > 1 {
		path = args[1]
	}
	if err := storage.WriteTraceCSV(path, tr); err != nil {
		return err
	}
	fmt.Printf("exported to %s\n", path)
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	meta, tr, err := loadRun(args[0])
	if err != nil {
		return err
	}
	path := "-"
	if len(args) > 1 {
		path = args[1]
	}
	if err := storage.ExportJSON(path, *meta, tr); err != nil {
		return err
	}
	if path != "-" {
		fmt.Printf("exported to %s\n", path)
	}
	return nil
}
