package seqwriter

// Status is the terminal outcome of a writer.
type Status int

const (
	// StatusOK means every expected frame was written, or the true count
	// of a sequence of unknown length was discovered.
	StatusOK Status = iota
	// StatusWriteError means a frame write failed or an inconsistent image
	// was received. The file must be considered corrupt.
	StatusWriteError
	// StatusIncomplete means the run stopped early or left unwritten gaps.
	// What was written is valid, only shorter than requested.
	StatusIncomplete
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusWriteError:
		return "write error"
	case StatusIncomplete:
		return "incomplete"
	default:
		return "unknown"
	}
}

// State is the position of the write worker in its lifecycle.
type State int32

const (
	StateIdle State = iota
	StateRunning
	// StateDraining is entered when a termination signal is received and
	// lasts until remaining images are accounted for.
	StateDraining
	StateDone
	StateFailed
	StateIncomplete
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	case StateIncomplete:
		return "incomplete"
	default:
		return "unknown"
	}
}

// Result describes how a writer ended.
type Result struct {
	Status Status

	// FramesWritten is the number of frames committed to the container.
	FramesWritten int

	// FrameCount is the final expected count: the requested count minus
	// holes, or FramesWritten when the count was unknown.
	FrameCount int

	// Holes is the number of indices deliberately skipped.
	Holes int

	// Abandoned is the number of received images dropped without being
	// written, including one refused by validation.
	Abandoned int

	// Missing is FrameCount minus FramesWritten when the count was known.
	Missing int

	// Err is the error returned by Stop.
	Err error
}
