package ports

import (
	"image"
)

// DebugSink abstracts debug output for intermediate results.
type DebugSink interface {
	// Enabled returns true if debug output is enabled.
	Enabled() bool

	// SaveConfigJSON saves the effective run configuration.
	SaveConfigJSON(data []byte) error

	// SaveFrame saves a frame of the named output as it is committed.
	SaveFrame(output string, index int, img image.Image) error
}
