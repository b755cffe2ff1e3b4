// Package preview derives the reduced frames of the preview output from the
// main frames.
package preview

import (
	"context"
	"fmt"

	"github.com/user/seqwrite/pkg/frame"
	"github.com/user/seqwrite/pkg/pipeline"
	"github.com/user/seqwrite/pkg/ports"
)

// Stage resamples frames to a fixed width. The input frame is left intact
// and a new frame is returned.
type Stage struct {
	renderer ports.Renderer
	width    int
	logger   ports.Logger
}

// NewStage creates a preview stage producing frames width pixels wide.
func NewStage(renderer ports.Renderer, width int, logger ports.Logger) *Stage {
	return &Stage{
		renderer: renderer,
		width:    width,
		logger:   logger.WithComponent("preview"),
	}
}

// Execute returns the preview of f, or nil for a missing frame.
func (s *Stage) Execute(ctx context.Context, f *frame.Frame) (*frame.Frame, error) {
	if f == nil {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img, err := f.ToImage()
	if err != nil {
		return nil, fmt.Errorf("preview: %w", err)
	}

	size := pipeline.Dimension{Width: f.Width, Height: f.Height}
	if s.width > 0 && s.width < f.Width {
		size = size.Fit(s.width)
		img = s.renderer.ResizeImage(img, size.Width, size.Height)
	}

	out := frame.FromImage(img, f.Depth)
	out.TimestampMs = f.TimestampMs
	return out, nil
}

var _ pipeline.Stage[*frame.Frame, *frame.Frame] = (*Stage)(nil)
