// Package filter implements stateful, time-aware scalar filters.
//
// A [Filter] consumes one sample per call and returns the filtered value.
// Filters that depend on the sampling interval measure it with their own
// [clock.StopWatch], so a filter behaves the same at 50 Hz as at 1 kHz and
// tolerates irregular tick spacing. Filters compose with [Group], which
// feeds each member's output into the next.
//
// Constructors that take a size, window or range validate it and return an
// error wrapping [ErrInvalidConfiguration]. Runtime input never errors.
//
// No filter is safe for concurrent use.
package filter
