package analysis

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"
)

// MinSamples is the shortest signal Spectrum accepts.
const MinSamples = 8

// Spectrum holds power per frequency bin, DC first.
type Spectrum struct {
	Freqs []float64
	Power []float64
}

// PowerSpectrum returns the one-sided power of data sampled every dt
// seconds. The mean is removed and a Hann window applied first.
func PowerSpectrum(data []float64, dt float64) (Spectrum, error) {
	n := len(data)
	if n < MinSamples {
		return Spectrum{}, errors.Wrapf(ErrTooShort, "%d samples, need %d", n, MinSamples)
	}
	if dt <= 0 {
		return Spectrum{}, errors.Errorf("sample period must be positive, got %g", dt)
	}

	mean := stat.Mean(data, nil)
	w := window.Hann(n)
	x := make([]float64, n)
	for i, v := range data {
		x[i] = (v - mean) * w[i]
	}

	coeffs := fft.FFTReal(x)
	bins := n/2 + 1
	sp := Spectrum{Freqs: make([]float64, bins), Power: make([]float64, bins)}
	for k := 0; k < bins; k++ {
		mag := cmplx.Abs(coeffs[k])
		sp.Freqs[k] = float64(k) / (float64(n) * dt)
		sp.Power[k] = mag * mag / float64(n)
	}
	return sp, nil
}

// Peak returns the strongest non-DC bin with parabolic interpolation
// between its neighbours, as a fractional bin index.
func (s Spectrum) Peak() (bin float64, power float64) {
	best := 1
	for k := 2; k < len(s.Power); k++ {
		if s.Power[k] > s.Power[best] {
			best = k
		}
	}
	bin = float64(best)
	if best > 1 && best < len(s.Power)-1 {
		a, b, c := s.Power[best-1], s.Power[best], s.Power[best+1]
		if d := a - 2*b + c; d != 0 {
			bin += 0.5 * (a - c) / d
		}
	}
	return bin, s.Power[best]
}

// DominantPeriod estimates the period of the strongest oscillation in
// data. It returns 0 when the signal carries no oscillating power.
func DominantPeriod(data []float64, dt float64) (float64, error) {
	sp, err := PowerSpectrum(data, dt)
	if err != nil {
		return 0, err
	}
	bin, power := sp.Peak()
	if power == 0 || bin <= 0 {
		return 0, nil
	}
	return float64(len(data)) * dt / bin, nil
}

// Resample linearly interpolates (times, values) onto a uniform grid.
// dt <= 0 uses the mean spacing of times.
func Resample(times, values []float64, dt float64) ([]float64, float64) {
	n := len(times)
	if n < 2 || len(values) != n {
		return append([]float64(nil), values...), dt
	}
	span := times[n-1] - times[0]
	if dt <= 0 {
		dt = span / float64(n-1)
	}
	m := int(math.Floor(span/dt+1e-9)) + 1
	out := make([]float64, m)
	j := 0
	for i := range out {
		t := times[0] + float64(i)*dt
		for j < n-2 && times[j+1] < t {
			j++
		}
		t0, t1 := times[j], times[j+1]
		frac := 0.0
		if t1 > t0 {
			frac = math.Max(0, math.Min(1, (t-t0)/(t1-t0)))
		}
		out[i] = values[j] + frac*(values[j+1]-values[j])
	}
	return out, dt
}
