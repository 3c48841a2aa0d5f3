// Package analysis inspects recorded loop traces.
//
//   - [Spectrum]: one-sided power spectrum of a uniformly sampled signal
//   - [DominantPeriod]: period of the strongest oscillation, used to
//     cross-check the relay autotuner's Tu
//   - [ErrorPortrait]: the (error, error rate) phase plane of a run;
//     a sustained relay oscillation shows up as a closed orbit
//
// Traces recorded with tick jitter are not uniformly sampled; resample
// them with [Resample] before taking a spectrum:
//
//	sig, dt := analysis.Resample(tr.Times, tr.Errors(), 0)
//	period, err := analysis.DominantPeriod(sig, dt)
package analysis
