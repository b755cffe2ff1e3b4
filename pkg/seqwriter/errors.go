package seqwriter

import "errors"

var (
	// ErrNoHook is returned by Start when the writer has no FrameWriter.
	ErrNoHook = errors.New("seqwriter: no frame writer configured")

	// ErrNoSequence is returned by Start when the sequence has no identity.
	ErrNoSequence = errors.New("seqwriter: no target sequence configured")

	// ErrAlreadyStarted is returned by a second call to Start.
	ErrAlreadyStarted = errors.New("seqwriter: writer already started")

	// ErrNotStarted is returned by Stop on a writer that was never started.
	ErrNotStarted = errors.New("seqwriter: writer not started")

	// ErrWriterFailed is returned by Submit once the writer hit a write error.
	// The caller keeps ownership of the frame and its memory slot.
	ErrWriterFailed = errors.New("seqwriter: writer failed")

	// ErrWriterClosed is returned by Submit after the writer goroutine has
	// exited. The caller keeps ownership of the frame and its memory slot.
	ErrWriterClosed = errors.New("seqwriter: writer closed")

	// ErrWriteFailed wraps an error returned by the frame writer.
	ErrWriteFailed = errors.New("seqwriter: frame write failed")

	// ErrGeometryMismatch is returned when an image does not match the
	// geometry, depth or channel count of the first image.
	ErrGeometryMismatch = errors.New("seqwriter: image properties differ from the sequence")

	// ErrIndexOrder is returned when an image arrives for an index the
	// writer has already passed.
	ErrIndexOrder = errors.New("seqwriter: image index below the write cursor")

	// ErrDuplicateIndex is returned when two images are submitted for the
	// same pending index.
	ErrDuplicateIndex = errors.New("seqwriter: image index submitted twice")

	// ErrIncomplete is returned by Stop when the run ended before all
	// expected images were written.
	ErrIncomplete = errors.New("seqwriter: incomplete sequence")
)
