package seqwriter

import "github.com/user/seqwrite/pkg/frame"

// NextIndex submits a frame for whatever index the writer is waiting for.
const NextIndex = -1

// task is one pending write. A nil frame is a deliberate hole.
type task struct {
	frame    *frame.Frame
	index    int
	disposed bool
}

// Termination signals, recognized by identity.
var (
	stopGraceful = &task{index: -1}
	stopAbort    = &task{index: -1}
)

func isStop(t *task) bool {
	return t == stopGraceful || t == stopAbort
}
