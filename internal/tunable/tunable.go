// Package tunable provides value sources read on every tick, so gains and
// filter constants can be changed while a loop is running.
package tunable

import "go.uber.org/atomic"

// Number is a live scalar. Implementations must be cheap to read.
type Number interface {
	Value() float64
}

// Const is a fixed value.
type Const float64

func (c Const) Value() float64 { return float64(c) }

// Func adapts a function to a Number.
type Func func() float64

func (f Func) Value() float64 { return f() }

// Var is a Number that may be written from another goroutine.
type Var struct {
	v atomic.Float64
}

func NewVar(initial float64) *Var {
	n := &Var{}
	n.v.Store(initial)
	return n
}

func (n *Var) Value() float64 { return n.v.Load() }

func (n *Var) Set(value float64) { n.v.Store(value) }

// Add adjusts the value by delta and returns the result.
func (n *Var) Add(delta float64) float64 { return n.v.Add(delta) }

// Or returns n, or Const(fallback) when n is nil.
func Or(n Number, fallback float64) Number {
	if n == nil {
		return Const(fallback)
	}
	return n
}
