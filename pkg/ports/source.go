package ports

import (
	"context"
	"errors"

	"github.com/user/seqwrite/pkg/frame"
)

// ErrEndOfSource is returned by Load past the last frame of a source whose
// length is unknown.
var ErrEndOfSource = errors.New("end of source")

// FrameSource produces input frames by index. Load is called concurrently.
type FrameSource interface {
	// Len returns the number of frames, or -1 when unknown.
	Len() int

	// Load produces the frame at index. A nil frame with a nil error marks
	// an intentionally missing frame.
	Load(ctx context.Context, index int) (*frame.Frame, error)
}
