package actuator

import (
	"math"

	"github.com/pkg/errors"
	"go.einride.tech/can"
)

// Signal is a signed little-endian field: physical = raw*Factor + Offset.
type Signal struct {
	Name   string
	Start  uint8
	Length uint8
	Factor float64
	Offset float64
	// Min and Max bound the physical value when Max > Min.
	Min, Max float64
}

func (s Signal) validate(frameLen uint8) error {
	if s.Length < 2 || s.Length > 63 {
		return errors.Wrapf(ErrInvalidSignal, "%s: length %d outside [2, 63]", s.Name, s.Length)
	}
	if int(s.Start)+int(s.Length) > 8*int(frameLen) {
		return errors.Wrapf(ErrInvalidSignal, "%s: bits %d..%d exceed %d-byte frame", s.Name, s.Start, int(s.Start)+int(s.Length)-1, frameLen)
	}
	if s.Factor == 0 || math.IsNaN(s.Factor) {
		return errors.Wrapf(ErrInvalidSignal, "%s: factor must be non-zero", s.Name)
	}
	return nil
}

func (s Signal) rawRange() (lo, hi int64) {
	hi = int64(1)<<(s.Length-1) - 1
	return -hi - 1, hi
}

// Encoder writes one command signal into frames with a fixed id.
type Encoder struct {
	id     uint32
	length uint8
	signal Signal
}

func NewEncoder(id uint32, length uint8, signal Signal) (*Encoder, error) {
	if length == 0 || length > 8 {
		return nil, errors.Wrapf(ErrInvalidSignal, "frame length %d", length)
	}
	if id > 0x7ff {
		return nil, errors.Wrapf(ErrInvalidSignal, "standard id 0x%x out of range", id)
	}
	if err := signal.validate(length); err != nil {
		return nil, err
	}
	return &Encoder{id: id, length: length, signal: signal}, nil
}

func (e *Encoder) ID() uint32 { return e.id }

func (e *Encoder) Signal() Signal { return e.signal }

// Encode scales v into a frame. Values outside the signal or raw range
// saturate; NaN is rejected.
func (e *Encoder) Encode(v float64) (can.Frame, error) {
	if math.IsNaN(v) {
		return can.Frame{}, errors.Wrapf(ErrInvalidSignal, "%s: NaN command", e.signal.Name)
	}
	s := e.signal
	if s.Max > s.Min {
		v = math.Max(s.Min, math.Min(s.Max, v))
	}
	lo, hi := s.rawRange()
	scaled := math.Round((v - s.Offset) / s.Factor)
	var raw int64
	switch {
	case scaled <= float64(lo):
		raw = lo
	case scaled >= float64(hi):
		raw = hi
	default:
		raw = int64(scaled)
	}

	f := can.Frame{ID: e.id, Length: e.length}
	f.Data.SetSignedBitsLittleEndian(s.Start, s.Length, raw)
	if err := f.Validate(); err != nil {
		return can.Frame{}, errors.Wrap(err, "encode frame")
	}
	return f, nil
}

// Decode reads the physical value back out of f.
func (e *Encoder) Decode(f can.Frame) (float64, error) {
	if f.ID != e.id || f.Length != e.length {
		return 0, errors.Wrapf(ErrWrongFrame, "got id 0x%x len %d, want id 0x%x len %d", f.ID, f.Length, e.id, e.length)
	}
	raw := f.Data.SignedBitsLittleEndian(e.signal.Start, e.signal.Length)
	return float64(raw)*e.signal.Factor + e.signal.Offset, nil
}
