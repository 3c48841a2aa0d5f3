package storage

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/san-kum/loopkit/internal/loop"
)

const (
	metadataFile = "metadata.json"
	traceFile    = "trace.csv"
)

var traceHeader = []string{"time", "setpoint", "measurement", "output"}

// Store keeps one directory per run under baseDir.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Plant      string             `json:"plant"`
	Preset     string             `json:"preset,omitempty"`
	Controller string             `json:"controller"`
	Integrator string             `json:"integrator"`
	Timestamp  time.Time          `json:"timestamp"`
	Seed       int64              `json:"seed"`
	Dt         float64            `json:"dt"`
	Duration   float64            `json:"duration"`
	Steps      int                `json:"steps"`
	Metrics    map[string]float64 `json:"metrics"`
}

// Save writes meta and the trace under a fresh run id and returns it.
// meta.ID, Timestamp, Steps and Metrics are filled in from the run.
func (s *Store) Save(meta RunMetadata, tr *loop.Trace) (string, error) {
	if tr == nil {
		return "", errors.Wrap(ErrBadTrace, "nil trace")
	}
	meta.ID = uuid.NewString()
	meta.Timestamp = time.Now().UTC()
	meta.Steps = tr.StepsTaken
	meta.Metrics = tr.Metrics

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", errors.Wrapf(err, "create run dir %s", runDir)
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := WriteTraceCSV(filepath.Join(runDir, traceFile), tr); err != nil {
		return "", err
	}
	return meta.ID, nil
}

// List returns all runs, newest first. Directories without readable
// metadata are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, errors.Wrap(err, "read store")
	}

	runs := make([]RunMetadata, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	sort.SliceStable(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrRunNotFound, "run %q", runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, errors.Wrapf(err, "decode metadata for %s", runID)
	}
	return &meta, nil
}

// LoadTrace reads back the per-tick samples of a run. Metrics are taken
// from the run's metadata.
func (s *Store) LoadTrace(runID string) (*loop.Trace, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	tr, err := ReadTraceCSV(filepath.Join(s.baseDir, runID, traceFile))
	if err != nil {
		return nil, err
	}
	tr.Metrics = meta.Metrics
	tr.StepsTaken = meta.Steps
	return tr, nil
}

// WriteTraceCSV writes one row per tick: time, setpoint, measurement, output.
func WriteTraceCSV(path string, tr *loop.Trace) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(traceHeader); err != nil {
		return err
	}
	for i := range tr.Times {
		row := []string{
			formatFloat(tr.Times[i]),
			formatFloat(tr.Setpoints[i]),
			formatFloat(tr.Measurements[i]),
			formatFloat(tr.Outputs[i]),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func ReadTraceCSV(path string) (*loop.Trace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(traceHeader)
	records, err := r.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(ErrBadTrace, "%s: %v", path, err)
	}

	tr := &loop.Trace{}
	if len(records) < 2 {
		return tr, nil
	}
	for n, record := range records[1:] {
		var vals [4]float64
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, errors.Wrapf(ErrBadTrace, "%s row %d: %v", path, n+2, err)
			}
			vals[j] = v
		}
		tr.Times = append(tr.Times, vals[0])
		tr.Setpoints = append(tr.Setpoints, vals[1])
		tr.Measurements = append(tr.Measurements, vals[2])
		tr.Outputs = append(tr.Outputs, vals[3])
	}
	return tr, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
