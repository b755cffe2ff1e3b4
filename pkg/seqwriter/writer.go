// Package seqwriter saves images produced by many goroutines into a
// single-file sequence using one goroutine for writing.
//
// Producers submit images tagged with their index, in any order. The write
// worker reorders them and hands them to the container's FrameWriter from
// first to last. Every index must eventually be submitted, either with an
// image or with nil to mark it missing: the resulting file then simply has
// one image less. Images held by the writer count against a throttle.Pool,
// so producers should not run further ahead of the slowest index than the
// pool's ceiling allows.
package seqwriter

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/user/seqwrite/pkg/adapters/logger"
	"github.com/user/seqwrite/pkg/frame"
	"github.com/user/seqwrite/pkg/ports"
	"github.com/user/seqwrite/pkg/throttle"
)

// Config configures a Writer.
type Config struct {
	Sequence ports.Sequence
	Hook     ports.FrameWriter

	// Pool receives every slot release. Nil gives the writer a private
	// unlimited pool.
	Pool   *throttle.Pool
	Logger ports.Logger
}

// Writer commits the images of one sequence in index order.
type Writer struct {
	seq    ports.Sequence
	hook   ports.FrameWriter
	pool   *throttle.Pool
	logger ports.Logger

	queue    *taskQueue
	done     chan struct{}
	started  atomic.Bool
	failed   atomic.Bool
	state    atomic.Int32
	stopOnce sync.Once
	result   Result

	written atomic.Int64
	cursor  atomic.Int64

	// Owned by the worker goroutine.
	meta       frame.Geometry
	depth      frame.Depth
	haveMeta   bool
	expected   int
	countKnown bool
	holes      int
	pending    map[int]*task

	// rejected holds the task that failed validation until dropRemaining
	// hands it back with the rest. last is the highest index given back
	// through the output registry.
	rejected *task
	last     int
}

// New creates a writer. Submissions are accepted right away and processed
// once Start is called.
func New(cfg Config) *Writer {
	log := cfg.Logger
	if log == nil {
		log = logger.NewNoop()
	}
	pool := cfg.Pool
	if pool == nil {
		pool = throttle.New(0, log)
	}
	name := cfg.Sequence.Name
	if name == "" {
		name = "writer"
	}
	return &Writer{
		seq:     cfg.Sequence,
		hook:    cfg.Hook,
		pool:    pool,
		logger:  log.WithComponent(name),
		queue:   newTaskQueue(),
		done:    make(chan struct{}),
		pending: make(map[int]*task),
		last:    -1,
	}
}

// Start launches the write worker. expected is the number of images the
// sequence will hold; zero or less means unknown, in which case the writer
// runs until stopped.
func (w *Writer) Start(expected int) error {
	if w.hook == nil {
		return ErrNoHook
	}
	if w.seq.ID == uuid.Nil {
		return ErrNoSequence
	}
	if !w.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	w.expected = expected
	w.countKnown = expected > 0
	if w.countKnown {
		w.logger.Debug("Writer started with %d expected frames", expected)
	} else {
		w.logger.Debug("Writer started with an unknown frame count")
	}
	w.setState(StateRunning)
	go w.run()
	return nil
}

// Submit hands f over to the writer for the given index. A nil f marks the
// index as missing. Submit never blocks. On success the writer owns f and
// the memory slot reserved for it; on error both stay with the caller, who
// reports the refused index with Pool.NotifySkipped when the pool is shared.
func (w *Writer) Submit(f *frame.Frame, index int) error {
	if w.failed.Load() {
		return ErrWriterFailed
	}
	return w.queue.push(&task{frame: f, index: index})
}

// Stop asks the worker to terminate and waits for it. With abort false every
// image already submitted is written first; with abort true the worker stops
// at its next step and drops whatever is still pending. Calling Stop again
// returns the same result.
func (w *Writer) Stop(abort bool) (Result, error) {
	if !w.started.Load() {
		return Result{}, ErrNotStarted
	}
	w.stopOnce.Do(func() {
		if abort {
			_ = w.queue.pushFront(stopAbort)
		} else {
			_ = w.queue.push(stopGraceful)
		}
		w.logger.Debug("Writer notified, waiting for exit")
		<-w.done
	})
	return w.result, w.result.Err
}

// Done is closed when the worker has exited.
func (w *Writer) Done() <-chan struct{} {
	return w.done
}

// State returns the worker's lifecycle state.
func (w *Writer) State() State {
	return State(w.state.Load())
}

// Sequence returns the target sequence.
func (w *Writer) Sequence() ports.Sequence {
	return w.seq
}

// Progress returns the number of frames written and the index the worker is
// waiting for.
func (w *Writer) Progress() (written, cursor int) {
	return int(w.written.Load()), int(w.cursor.Load())
}

func (w *Writer) setState(s State) {
	w.state.Store(int32(s))
}

// ending tells why the ordering loop returned.
type ending int

const (
	endComplete ending = iota
	endGraceful
	endAbort
	endError
)

func (w *Writer) run() {
	defer close(w.done)

	end, err := w.loop()
	if end == endError {
		w.failed.Store(true)
	}
	if end == endGraceful || end == endAbort {
		w.setState(StateDraining)
	}
	abandoned := w.dropRemaining()
	written := int(w.written.Load())

	res := Result{
		FramesWritten: written,
		Holes:         w.holes,
		Abandoned:     abandoned,
	}
	switch {
	case end == endError:
		res.Status = StatusWriteError
		res.Err = err
	case end == endComplete:
		res.Status = StatusOK
		if abandoned > 0 {
			w.logger.Warn("%d image(s) received beyond the expected count were dropped", abandoned)
		}
	case abandoned > 0:
		w.logger.Error("Incomplete file creation: %d file(s) remained to be written", abandoned)
		res.Status = StatusIncomplete
		res.Err = fmt.Errorf("%w: %d image(s) remained to be written", ErrIncomplete, abandoned)
	case !w.countKnown || end == endGraceful:
		w.logger.Info("Saved %d images in the sequence", written)
		res.Status = StatusOK
	default:
		w.logger.Debug("Write aborted, expected %d images, got %d", w.expected, written)
		res.Status = StatusIncomplete
		res.Err = fmt.Errorf("%w: expected %d images, got %d", ErrIncomplete, w.expected, written)
	}

	if w.countKnown {
		res.FrameCount = w.expected
		res.Missing = max(w.expected-written, 0)
	} else {
		res.FrameCount = written
	}
	if res.Status == StatusOK && end != endComplete {
		// A short success redefines the sequence length.
		res.FrameCount = written
	}

	switch res.Status {
	case StatusOK:
		w.setState(StateDone)
	case StatusWriteError:
		w.setState(StateFailed)
	default:
		w.setState(StateIncomplete)
	}
	w.logger.Debug("Writer exits with status %s", res.Status)
	w.result = res
}

// loop writes images in index order until the expected count is reached, a
// termination signal arrives or an error occurs.
func (w *Writer) loop() (ending, error) {
	for !w.countKnown || int(w.written.Load()) < w.expected {
		t, ok := w.takePending()
		if !ok {
			var err error
			t, err = w.receive()
			if err != nil {
				return endError, err
			}
			switch t {
			case stopGraceful:
				w.logger.Debug("Stop message")
				return endGraceful, nil
			case stopAbort:
				w.logger.Debug("Abort message")
				return endAbort, nil
			}
		}
		if err := w.commit(t); err != nil {
			return endError, err
		}
	}
	return endComplete, nil
}

// takePending removes the task for the current index from the out-of-order
// buffer, if it is there.
func (w *Writer) takePending() (*task, bool) {
	cursor := int(w.cursor.Load())
	t, ok := w.pending[cursor]
	if ok {
		delete(w.pending, cursor)
		w.logger.Debug("Image %d obtained from waiting list", cursor)
	}
	return t, ok
}

// receive pops tasks until one matches the current index or a termination
// signal arrives. Tasks ahead of the cursor are parked in the buffer.
func (w *Writer) receive() (*task, error) {
	for {
		cursor := int(w.cursor.Load())
		w.logger.Debug("Waiting for message %d", cursor)
		t := w.queue.pop()
		if t == nil {
			// Only reachable if the queue was closed under the worker.
			return stopAbort, nil
		}
		if isStop(t) {
			return t, nil
		}

		if t.index < 0 {
			t.index = cursor
		}
		if err := w.checkProperties(t.frame); err != nil {
			if _, dup := w.pending[t.index]; dup || t.index < cursor {
				w.dispose(t, releaseDirect)
			} else {
				w.rejected = t
			}
			return nil, err
		}

		switch {
		case t.index < cursor:
			w.logger.Error("Invalid image index %d requested for write (current %d), aborting file creation", t.index, cursor)
			idx := t.index
			w.dispose(t, releaseDirect)
			return nil, fmt.Errorf("%w: index %d, current %d", ErrIndexOrder, idx, cursor)
		case t.index > cursor:
			if _, dup := w.pending[t.index]; dup {
				w.logger.Error("Image index %d submitted twice, aborting file creation", t.index)
				idx := t.index
				w.dispose(t, releaseDirect)
				return nil, fmt.Errorf("%w: index %d", ErrDuplicateIndex, idx)
			}
			w.logger.Debug("Image %d stored for later use", t.index)
			w.pending[t.index] = t
		default:
			w.logger.Debug("Image %d received", t.index)
			return t, nil
		}
	}
}

// checkProperties enforces that every image matches the first one received.
// Width and height may differ only for relaxed FITS sequences; channel count
// and depth never may.
func (w *Writer) checkProperties(f *frame.Frame) error {
	if f == nil {
		return nil
	}
	if !w.haveMeta {
		w.meta = f.Geometry()
		w.depth = f.Depth
		w.haveMeta = true
		return nil
	}
	g := f.Geometry()
	sizeDiffers := g.Width != w.meta.Width || g.Height != w.meta.Height
	if (sizeDiffers && !w.seq.RelaxedGeometry()) ||
		g.Channels != w.meta.Channels ||
		f.Depth != w.depth {
		w.logger.Error("Cannot add an image with different properties to an existing sequence")
		return fmt.Errorf("%w: got %s %s, sequence is %s %s",
			ErrGeometryMismatch, g, f.Depth, w.meta, w.depth)
	}
	return nil
}

// commit writes or skips the task at the current index.
func (w *Writer) commit(t *task) error {
	if t.frame == nil {
		w.logger.Debug("Skipping image %d", t.index)
		w.dispose(t, releaseInOrder)
		w.cursor.Add(1)
		w.holes++
		if w.countKnown {
			w.expected--
		}
		return nil
	}

	f := t.frame
	w.logger.Info("Saving image %d, %d layer(s), %dx%d pixels, %d bits",
		t.index, f.Channels, f.Width, f.Height, f.Depth.Bits())

	err := w.hook.WriteFrame(f, int(w.written.Load()))
	idx := t.index
	w.dispose(t, releaseInOrder)
	if err != nil {
		w.logger.Error("Failed to write image %d: %s", idx, err)
		return fmt.Errorf("%w: image %d: %w", ErrWriteFailed, idx, err)
	}
	w.written.Add(1)
	w.cursor.Add(1)
	return nil
}

// release tells dispose how a task's slot goes back to the pool.
type release int

const (
	// releaseInOrder notifies the registry of the next index.
	releaseInOrder release = iota
	// releaseAbandoned notifies the registry of a dropped index; indices
	// still ascend but may have gaps.
	releaseAbandoned
	// releaseDirect frees a second reservation for an index the registry
	// has already been notified of, or will be.
	releaseDirect
)

// dispose is the single point where a received task gives up its image and
// its memory slot.
func (w *Writer) dispose(t *task, how release) {
	if t.disposed {
		w.logger.Error("Image %d released twice", t.index)
		return
	}
	t.disposed = true
	if t.frame != nil {
		t.frame.Release()
		t.frame = nil
	}
	switch how {
	case releaseDirect:
		w.pool.Release()
	case releaseAbandoned:
		w.pool.NotifyAbandoned(w.seq.ID, t.index)
		w.last = t.index
	default:
		w.pool.Notify(w.seq.ID, t.index)
		w.last = t.index
	}
}

// dropRemaining closes the queue and releases every image that will never be
// written, in ascending index order. Duplicates and indices already given
// back free their slot directly. It returns how many images there were.
func (w *Writer) dropRemaining() int {
	var drop []*task
	if w.rejected != nil {
		drop = append(drop, w.rejected)
		w.rejected = nil
	}
	for _, t := range w.pending {
		drop = append(drop, t)
	}
	clear(w.pending)
	for _, t := range w.queue.close() {
		if isStop(t) {
			continue
		}
		if t.index < 0 {
			t.index = int(w.cursor.Load())
		}
		drop = append(drop, t)
	}

	sort.SliceStable(drop, func(i, j int) bool {
		return drop[i].index < drop[j].index
	})
	for _, t := range drop {
		w.logger.Debug("Dropping image %d", t.index)
		if t.index <= w.last {
			w.dispose(t, releaseDirect)
		} else {
			w.dispose(t, releaseAbandoned)
		}
	}
	return len(drop)
}
