package actuator

import (
	"context"
	"sync"

	"go.einride.tech/can"
	"go.uber.org/zap"

	"github.com/san-kum/loopkit/internal/metrics"
)

type FrameWriter interface {
	WriteFrame(ctx context.Context, f can.Frame) error
}

// Sink encodes the output of every loop tick and hands it to a writer.
// It satisfies loop.Observer. The first error stops further writes.
type Sink struct {
	ctx    context.Context
	enc    *Encoder
	out    FrameWriter
	log    *zap.Logger
	mu     sync.Mutex
	frames int
	err    error
}

func NewSink(ctx context.Context, enc *Encoder, out FrameWriter, log *zap.Logger) *Sink {
	if log == nil {
		log = zap.NewNop()
	}
	return &Sink{ctx: ctx, enc: enc, out: out, log: log}
}

func (s *Sink) OnTick(sample metrics.Sample) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return
	}
	f, err := s.enc.Encode(sample.Output)
	if err == nil {
		err = s.out.WriteFrame(s.ctx, f)
	}
	if err != nil {
		s.err = err
		s.log.Warn("actuator frame dropped", zap.Float64("t", sample.T), zap.Error(err))
		return
	}
	s.frames++
}

func (s *Sink) Frames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

func (s *Sink) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Recorder is an in-memory FrameWriter.
type Recorder struct {
	mu     sync.Mutex
	frames []can.Frame
}

func (r *Recorder) WriteFrame(ctx context.Context, f can.Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	r.frames = append(r.frames, f)
	r.mu.Unlock()
	return nil
}

func (r *Recorder) Frames() []can.Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]can.Frame(nil), r.frames...)
}
