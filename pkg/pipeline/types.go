package pipeline

import (
	"fmt"
	"strings"
)

// Operation is a per-frame processing step.
type Operation string

const (
	// OpNormalize stretches each channel so its minimum maps to 0 and its
	// maximum to full scale.
	OpNormalize Operation = "normalize"
	// OpInvert replaces every sample v by full scale minus v.
	OpInvert Operation = "invert"
	// OpBin2 averages 2x2 pixel blocks, halving width and height.
	OpBin2 Operation = "bin2"
	// OpGray averages the channels of a colour frame into one.
	OpGray Operation = "gray"
)

// ParseOperation parses an operation name.
func ParseOperation(s string) (Operation, error) {
	op := Operation(strings.ToLower(strings.TrimSpace(s)))
	switch op {
	case OpNormalize, OpInvert, OpBin2, OpGray:
		return op, nil
	default:
		return "", fmt.Errorf("unknown operation %q", s)
	}
}

// ParseOperations parses a list of operation names.
func ParseOperations(names []string) ([]Operation, error) {
	ops := make([]Operation, 0, len(names))
	for _, n := range names {
		op, err := ParseOperation(n)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, nil
}

// Dimension represents width and height.
type Dimension struct {
	Width  int
	Height int
}

// Fit scales d to the given width, keeping the aspect ratio. Heights are
// at least one pixel.
func (d Dimension) Fit(width int) Dimension {
	if d.Width <= 0 || width <= 0 {
		return d
	}
	h := d.Height * width / d.Width
	if h < 1 {
		h = 1
	}
	return Dimension{Width: width, Height: h}
}
