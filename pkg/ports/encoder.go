package ports

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/user/seqwrite/pkg/frame"
)

// ContainerKind identifies the single-file sequence format.
type ContainerKind int

const (
	// ContainerFITSeq is a multi-extension FITS file, one image per HDU.
	ContainerFITSeq ContainerKind = iota
	// ContainerSER is a SER video file.
	ContainerSER
	// ContainerMP4 is a fragmented MP4 with one JPEG sample per fragment.
	ContainerMP4
)

// String returns the string representation of the container kind.
func (k ContainerKind) String() string {
	switch k {
	case ContainerFITSeq:
		return "fitseq"
	case ContainerSER:
		return "ser"
	case ContainerMP4:
		return "mp4"
	default:
		return "unknown"
	}
}

// Extension returns the usual file extension for the container.
func (k ContainerKind) Extension() string {
	switch k {
	case ContainerSER:
		return ".ser"
	case ContainerMP4:
		return ".mp4"
	default:
		return ".fits"
	}
}

// ParseContainerKind parses a container name.
func ParseContainerKind(s string) (ContainerKind, error) {
	switch strings.ToLower(s) {
	case "fitseq", "fits", "fit":
		return ContainerFITSeq, nil
	case "ser":
		return ContainerSER, nil
	case "mp4":
		return ContainerMP4, nil
	default:
		return 0, fmt.Errorf("unknown container kind %q", s)
	}
}

// Sequence describes one output sequence.
type Sequence struct {
	// ID identifies the sequence in the shared memory pool.
	ID   uuid.UUID
	Name string
	Kind ContainerKind

	// AllowHeterogeneous lets a FITS sequence hold images of different
	// width and height. Ignored for other containers.
	AllowHeterogeneous bool
}

// NewSequence creates a sequence with a fresh identity.
func NewSequence(name string, kind ContainerKind) Sequence {
	return Sequence{
		ID:   uuid.New(),
		Name: name,
		Kind: kind,
	}
}

// RelaxedGeometry reports whether width and height may vary between frames.
func (s Sequence) RelaxedGeometry() bool {
	return s.Kind == ContainerFITSeq && s.AllowHeterogeneous
}

// FrameWriter appends one frame to a sequence container. It is called from
// a single goroutine, in ascending index order, and must not retain f after
// returning. ordinal is the number of frames written before this one.
type FrameWriter interface {
	WriteFrame(f *frame.Frame, ordinal int) error
}

// FrameWriterFunc is a function adapter for FrameWriter.
type FrameWriterFunc func(f *frame.Frame, ordinal int) error

// WriteFrame implements FrameWriter.
func (fn FrameWriterFunc) WriteFrame(f *frame.Frame, ordinal int) error {
	return fn(f, ordinal)
}

// SequenceEncoder is a FrameWriter bound to an output file.
type SequenceEncoder interface {
	FrameWriter

	// Close finalizes the container. frameCount is the number of frames
	// actually written.
	Close(frameCount int) error
}

// EncoderOptions configures container encoding.
type EncoderOptions struct {
	FPS         float64 // MP4 frame rate
	JPEGQuality int     // MP4 sample quality (1-100)
}

// SequenceInfo summarizes an existing sequence file.
type SequenceInfo struct {
	Kind     ContainerKind
	Frames   int
	Width    int // of the first frame
	Height   int
	Channels int
	Bits     int

	// Heterogeneous is set when frames do not all share the first
	// frame's width and height.
	Heterogeneous bool
}
