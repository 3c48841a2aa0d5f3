// Package metrics scores closed-loop runs.
package metrics

// Sample is one controller tick as seen by a metric.
type Sample struct {
	T           float64
	Setpoint    float64
	Measurement float64
	Output      float64
}

// Error is setpoint minus measurement.
func (s Sample) Error() float64 { return s.Setpoint - s.Measurement }

type Metric interface {
	Name() string
	Observe(s Sample)
	Value() float64
	Reset()
}

// Defaults returns a fresh set of the standard metrics.
func Defaults() []Metric {
	return []Metric{
		NewControlEffort(),
		NewStability(10.0),
		NewIAE(),
		NewRMSError(),
		NewOvershoot(),
	}
}
