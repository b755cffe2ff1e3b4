// Package process implements the per-frame processing stage applied before
// frames are written.
package process

import (
	"context"
	"fmt"

	"github.com/user/seqwrite/pkg/frame"
	"github.com/user/seqwrite/pkg/pipeline"
	"github.com/user/seqwrite/pkg/ports"
)

// Stage applies a list of operations to each frame, in order.
type Stage struct {
	ops    []pipeline.Operation
	logger ports.Logger
}

// NewStage creates a new process stage.
func NewStage(ops []pipeline.Operation, logger ports.Logger) *Stage {
	return &Stage{
		ops:    ops,
		logger: logger.WithComponent("process"),
	}
}

// Execute processes f. Operations that change the geometry return a new
// frame and release f.
func (s *Stage) Execute(ctx context.Context, f *frame.Frame) (*frame.Frame, error) {
	if f == nil {
		return nil, nil
	}
	for _, op := range s.ops {
		if err := ctx.Err(); err != nil {
			return f, err
		}
		switch op {
		case pipeline.OpNormalize:
			normalize(f)
		case pipeline.OpInvert:
			invert(f)
		case pipeline.OpBin2:
			f = bin2(f)
		case pipeline.OpGray:
			f = gray(f)
		default:
			return f, fmt.Errorf("process: unknown operation %q", op)
		}
	}
	return f, nil
}

func normalize(f *frame.Frame) {
	for c := 0; c < f.Channels; c++ {
		lo, hi := float32(1), float32(0)
		for y := 0; y < f.Height; y++ {
			for x := 0; x < f.Width; x++ {
				v := f.Value(c, x, y)
				lo = min(lo, v)
				hi = max(hi, v)
			}
		}
		if hi <= lo {
			continue
		}
		scale := 1 / (hi - lo)
		for y := 0; y < f.Height; y++ {
			for x := 0; x < f.Width; x++ {
				f.SetValue(c, x, y, (f.Value(c, x, y)-lo)*scale)
			}
		}
	}
}

func invert(f *frame.Frame) {
	if f.Depth == frame.Depth16 {
		for i, v := range f.U16 {
			f.U16[i] = 65535 - v
		}
		return
	}
	for i, v := range f.F32 {
		f.F32[i] = 1 - v
	}
}

// bin2 drops a trailing odd row or column.
func bin2(f *frame.Frame) *frame.Frame {
	w, h := f.Width/2, f.Height/2
	if w == 0 || h == 0 {
		return f
	}
	out := frame.New(w, h, f.Channels, f.Depth)
	out.TimestampMs = f.TimestampMs
	for c := 0; c < f.Channels; c++ {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				sum := f.Value(c, 2*x, 2*y) + f.Value(c, 2*x+1, 2*y) +
					f.Value(c, 2*x, 2*y+1) + f.Value(c, 2*x+1, 2*y+1)
				out.SetValue(c, x, y, sum/4)
			}
		}
	}
	f.Release()
	return out
}

func gray(f *frame.Frame) *frame.Frame {
	if f.Channels == 1 {
		return f
	}
	out := frame.New(f.Width, f.Height, 1, f.Depth)
	out.TimestampMs = f.TimestampMs
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			var sum float32
			for c := 0; c < f.Channels; c++ {
				sum += f.Value(c, x, y)
			}
			out.SetValue(0, x, y, sum/float32(f.Channels))
		}
	}
	f.Release()
	return out
}

var _ pipeline.Stage[*frame.Frame, *frame.Frame] = (*Stage)(nil)
