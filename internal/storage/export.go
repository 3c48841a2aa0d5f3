package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/loopkit/internal/loop"
)

type ExportData struct {
	Plant        string             `json:"plant"`
	Controller   string             `json:"controller"`
	Integrator   string             `json:"integrator"`
	Dt           float64            `json:"dt"`
	Duration     float64            `json:"duration"`
	Steps        int                `json:"steps"`
	Times        []float64          `json:"times"`
	Setpoints    []float64          `json:"setpoints"`
	Measurements []float64          `json:"measurements"`
	Outputs      []float64          `json:"outputs"`
	Metrics      map[string]float64 `json:"metrics"`
}

func NewExportData(meta RunMetadata, tr *loop.Trace) ExportData {
	return ExportData{
		Plant:        meta.Plant,
		Controller:   meta.Controller,
		Integrator:   meta.Integrator,
		Dt:           meta.Dt,
		Duration:     meta.Duration,
		Steps:        tr.Len(),
		Times:        tr.Times,
		Setpoints:    tr.Setpoints,
		Measurements: tr.Measurements,
		Outputs:      tr.Outputs,
		Metrics:      tr.Metrics,
	}
}

// ExportJSON writes the run to path, or to stdout when path is "-".
func ExportJSON(path string, meta RunMetadata, tr *loop.Trace) error {
	if path == "-" {
		return EncodeJSON(os.Stdout, meta, tr)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return EncodeJSON(f, meta, tr)
}

func EncodeJSON(w io.Writer, meta RunMetadata, tr *loop.Trace) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewExportData(meta, tr))
}
