package seqwriter

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/seqwrite/pkg/adapters/logger"
	"github.com/user/seqwrite/pkg/frame"
	"github.com/user/seqwrite/pkg/mocks"
	"github.com/user/seqwrite/pkg/ports"
	"github.com/user/seqwrite/pkg/throttle"
)

type harness struct {
	t    *testing.T
	pool *throttle.Pool
	hook *mocks.SequenceEncoder
	w    *Writer

	mu     sync.Mutex
	frames []*frame.Frame
}

func newHarness(t *testing.T, kind ports.ContainerKind) *harness {
	t.Helper()
	h := &harness{
		t:    t,
		pool: throttle.New(0, logger.NewNoop()),
		hook: &mocks.SequenceEncoder{},
	}
	seq := ports.NewSequence("test", kind)
	h.w = New(Config{Sequence: seq, Hook: h.hook, Pool: h.pool, Logger: logger.NewNoop()})
	return h
}

// image reserves a slot and builds a tagged frame, as a producer would.
func (h *harness) image(index, width, height int) *frame.Frame {
	require.NoError(h.t, h.pool.Reserve(context.Background()))
	f := frame.New(width, height, 1, frame.Depth16)
	f.TimestampMs = int64(index)
	h.mu.Lock()
	h.frames = append(h.frames, f)
	h.mu.Unlock()
	return f
}

func (h *harness) submit(index int) {
	h.t.Helper()
	require.NoError(h.t, h.w.Submit(h.image(index, 4, 4), index))
}

func (h *harness) hole(index int) {
	h.t.Helper()
	require.NoError(h.t, h.pool.Reserve(context.Background()))
	require.NoError(h.t, h.w.Submit(nil, index))
}

// assertAllReleased checks that every frame handed to the writer was freed
// and every slot given back.
func (h *harness) assertAllReleased() {
	h.t.Helper()
	assert.Equal(h.t, 0, h.pool.Active(), "memory slots still reserved")
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, f := range h.frames {
		assert.True(h.t, f.Released(), "frame %d not released", f.TimestampMs)
	}
}

func (h *harness) waitWritten(n int) {
	h.t.Helper()
	require.Eventually(h.t, func() bool {
		written, _ := h.w.Progress()
		return written == n
	}, 2*time.Second, time.Millisecond)
}

func tags(n int) []int64 {
	out := make([]int64, n)
	for i := range out {
		out[i] = int64(i)
	}
	return out
}

func TestWriter_WritesInIndexOrder(t *testing.T) {
	const n = 64
	h := newHarness(t, ports.ContainerSER)
	require.NoError(t, h.w.Start(n))

	order := rand.Perm(n)
	var wg sync.WaitGroup
	for _, idx := range order {
		f := h.image(idx, 4, 4)
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			assert.NoError(t, h.w.Submit(f, idx))
		}(idx)
	}
	wg.Wait()

	res, err := h.w.Stop(false)
	require.NoError(t, err)
	assert.Equal(t, StatusOK, res.Status)
	assert.Equal(t, n, res.FramesWritten)
	assert.Equal(t, tags(n), h.hook.Tags())
	assert.Zero(t, h.hook.ConcurrentCalls())

	for i, c := range h.hook.Calls() {
		assert.Equal(t, i, c.Ordinal)
	}
	h.assertAllReleased()
}

func TestWriter_CompletesOnExpectedCount(t *testing.T) {
	h := newHarness(t, ports.ContainerFITSeq)
	require.NoError(t, h.w.Start(3))

	h.submit(2)
	h.submit(0)
	h.submit(1)

	select {
	case <-h.w.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("writer did not finish after the expected count")
	}
	assert.Equal(t, StateDone, h.w.State())

	res, err := h.w.Stop(false)
	require.NoError(t, err)
	assert.Equal(t, StatusOK, res.Status)
	assert.Equal(t, 3, res.FrameCount)
	h.assertAllReleased()
}

func TestWriter_HoleSkipsIndex(t *testing.T) {
	h := newHarness(t, ports.ContainerSER)
	require.NoError(t, h.w.Start(5))

	h.submit(4)
	h.submit(3)
	h.hole(2)
	h.submit(1)
	h.submit(0)

	<-h.w.Done()
	res, err := h.w.Stop(false)
	require.NoError(t, err)
	assert.Equal(t, StatusOK, res.Status)
	assert.Equal(t, 4, res.FramesWritten)
	assert.Equal(t, 4, res.FrameCount)
	assert.Equal(t, 1, res.Holes)
	assert.Equal(t, []int64{0, 1, 3, 4}, h.hook.Tags())

	for i, c := range h.hook.Calls() {
		assert.Equal(t, i, c.Ordinal, "ordinal counts written frames only")
	}
	h.assertAllReleased()
}

func TestWriter_IndexBelowCursorFails(t *testing.T) {
	h := newHarness(t, ports.ContainerSER)
	require.NoError(t, h.w.Start(0))

	h.submit(0)
	h.submit(1)
	h.waitWritten(2)

	h.submit(1)
	<-h.w.Done()

	res, err := h.w.Stop(false)
	assert.ErrorIs(t, err, ErrIndexOrder)
	assert.Equal(t, StatusWriteError, res.Status)
	assert.Equal(t, StateFailed, h.w.State())
	assert.Equal(t, []int64{0, 1}, h.hook.Tags(), "no encode after the violation")
}

func TestWriter_SubmitFailsFastAfterFailure(t *testing.T) {
	h := newHarness(t, ports.ContainerSER)
	require.NoError(t, h.w.Start(0))

	h.submit(0)
	h.waitWritten(1)
	h.submit(0)
	<-h.w.Done()

	f := h.image(1, 4, 4)
	assert.ErrorIs(t, h.w.Submit(f, 1), ErrWriterFailed)

	// The rejected frame and slot still belong to the caller.
	assert.False(t, f.Released())
	assert.Equal(t, 1, h.pool.Active())
	h.pool.Release()
	f.Release()
	h.assertAllReleased()
}

func TestWriter_GeometryMismatch(t *testing.T) {
	tests := []struct {
		name          string
		kind          ports.ContainerKind
		heterogeneous bool
		second        func() *frame.Frame
		wantErr       bool
	}{
		{
			name:    "strict FITS rejects new size",
			kind:    ports.ContainerFITSeq,
			second:  func() *frame.Frame { return frame.New(6, 4, 1, frame.Depth16) },
			wantErr: true,
		},
		{
			name:          "relaxed FITS accepts new size",
			kind:          ports.ContainerFITSeq,
			heterogeneous: true,
			second:        func() *frame.Frame { return frame.New(6, 4, 1, frame.Depth16) },
		},
		{
			name:          "SER never relaxes",
			kind:          ports.ContainerSER,
			heterogeneous: true,
			second:        func() *frame.Frame { return frame.New(6, 4, 1, frame.Depth16) },
			wantErr:       true,
		},
		{
			name:          "channel count always checked",
			kind:          ports.ContainerFITSeq,
			heterogeneous: true,
			second:        func() *frame.Frame { return frame.New(4, 4, 3, frame.Depth16) },
			wantErr:       true,
		},
		{
			name:          "depth always checked",
			kind:          ports.ContainerFITSeq,
			heterogeneous: true,
			second:        func() *frame.Frame { return frame.New(4, 4, 1, frame.Depth32F) },
			wantErr:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := throttle.New(0, logger.NewNoop())
			hook := &mocks.SequenceEncoder{}
			seq := ports.NewSequence("geom", tt.kind)
			seq.AllowHeterogeneous = tt.heterogeneous
			w := New(Config{Sequence: seq, Hook: hook, Pool: pool})
			require.NoError(t, w.Start(2))

			require.NoError(t, pool.Reserve(context.Background()))
			require.NoError(t, w.Submit(frame.New(4, 4, 1, frame.Depth16), 0))
			second := tt.second()
			require.NoError(t, pool.Reserve(context.Background()))
			require.NoError(t, w.Submit(second, 1))

			<-w.Done()
			res, err := w.Stop(false)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrGeometryMismatch)
				assert.Equal(t, StatusWriteError, res.Status)
				assert.Len(t, hook.Calls(), 1, "mismatching image must not be written")
			} else {
				require.NoError(t, err)
				assert.Len(t, hook.Calls(), 2)
			}
			assert.True(t, second.Released())
			assert.Equal(t, 0, pool.Active())
		})
	}
}

func TestWriter_MetadataFromFirstImageNotFirstIndex(t *testing.T) {
	h := newHarness(t, ports.ContainerSER)
	require.NoError(t, h.w.Start(2))

	// Index 1 arrives first and fixes the geometry.
	require.NoError(t, h.w.Submit(h.image(1, 8, 8), 1))
	require.Eventually(t, func() bool { return h.w.queue.len() == 0 }, time.Second, time.Millisecond)
	require.NoError(t, h.w.Submit(h.image(0, 4, 4), 0))

	<-h.w.Done()
	_, err := h.w.Stop(false)
	assert.ErrorIs(t, err, ErrGeometryMismatch)
	assert.Empty(t, h.hook.Calls())
	h.assertAllReleased()
}

func TestWriter_HookFailureReleasesEverything(t *testing.T) {
	h := newHarness(t, ports.ContainerMP4)
	errDisk := errors.New("disk full")
	h.hook.WriteFrameFunc = func(f *frame.Frame, ordinal int) error {
		if ordinal == 1 {
			return errDisk
		}
		return nil
	}
	require.NoError(t, h.w.Start(4))

	h.submit(3)
	h.submit(2)
	h.submit(1)
	h.submit(0)

	<-h.w.Done()
	res, err := h.w.Stop(false)
	assert.ErrorIs(t, err, ErrWriteFailed)
	assert.ErrorIs(t, err, errDisk)
	assert.Equal(t, StatusWriteError, res.Status)
	assert.Equal(t, 1, res.FramesWritten)
	h.assertAllReleased()
}

func TestWriter_AbortWithGap(t *testing.T) {
	h := newHarness(t, ports.ContainerSER)
	require.NoError(t, h.w.Start(4))

	h.submit(0)
	h.submit(1)
	h.submit(3)
	h.waitWritten(2)
	require.Eventually(t, func() bool { return h.w.queue.len() == 0 }, time.Second, time.Millisecond)

	res, err := h.w.Stop(true)
	assert.ErrorIs(t, err, ErrIncomplete)
	assert.Equal(t, StatusIncomplete, res.Status)
	assert.Equal(t, StateIncomplete, h.w.State())
	assert.Equal(t, 2, res.FramesWritten)
	assert.Equal(t, 1, res.Abandoned)
	assert.Equal(t, 2, res.Missing)
	assert.Equal(t, []int64{0, 1}, h.hook.Tags())
	h.assertAllReleased()
}

func TestWriter_AbortSkipsQueuedTasks(t *testing.T) {
	h := newHarness(t, ports.ContainerSER)
	entered := make(chan struct{})
	gate := make(chan struct{})
	h.hook.WriteFrameFunc = func(f *frame.Frame, ordinal int) error {
		if ordinal == 0 {
			close(entered)
			<-gate
		}
		return nil
	}
	require.NoError(t, h.w.Start(0))

	h.submit(0)
	<-entered
	for i := 1; i < 5; i++ {
		h.submit(i)
	}

	resCh := make(chan Result, 1)
	go func() {
		res, _ := h.w.Stop(true)
		resCh <- res
	}()
	require.Eventually(t, func() bool { return h.w.queue.len() == 5 }, time.Second, time.Millisecond)
	close(gate)

	res := <-resCh
	assert.Equal(t, StatusIncomplete, res.Status)
	assert.Equal(t, 1, res.FramesWritten)
	assert.Equal(t, 4, res.Abandoned)
	assert.Equal(t, []int64{0}, h.hook.Tags())
	h.assertAllReleased()
}

func TestWriter_GracefulStopDrainsQueue(t *testing.T) {
	h := newHarness(t, ports.ContainerFITSeq)
	require.NoError(t, h.w.Start(0))

	for _, idx := range rand.Perm(10) {
		h.submit(idx)
	}
	res, err := h.w.Stop(false)
	require.NoError(t, err)
	assert.Equal(t, StatusOK, res.Status)
	assert.Equal(t, 10, res.FramesWritten)
	assert.Equal(t, 10, res.FrameCount)
	h.assertAllReleased()
}

func TestWriter_GracefulStopWithGapIsIncomplete(t *testing.T) {
	h := newHarness(t, ports.ContainerFITSeq)
	require.NoError(t, h.w.Start(0))

	h.submit(0)
	h.submit(1)
	h.submit(3)

	res, err := h.w.Stop(false)
	assert.ErrorIs(t, err, ErrIncomplete)
	assert.Equal(t, 2, res.FramesWritten)
	assert.Equal(t, 1, res.Abandoned)
	h.assertAllReleased()
}

func TestWriter_AbortUnknownCountIsSuccess(t *testing.T) {
	h := newHarness(t, ports.ContainerSER)
	require.NoError(t, h.w.Start(0))

	h.submit(0)
	h.submit(1)
	h.waitWritten(2)

	res, err := h.w.Stop(true)
	require.NoError(t, err)
	assert.Equal(t, StatusOK, res.Status)
	assert.Equal(t, 2, res.FrameCount)
}

func TestWriter_AbortKnownCountIsIncomplete(t *testing.T) {
	h := newHarness(t, ports.ContainerSER)
	require.NoError(t, h.w.Start(5))

	h.submit(0)
	h.waitWritten(1)

	res, err := h.w.Stop(true)
	assert.ErrorIs(t, err, ErrIncomplete)
	assert.Equal(t, StatusIncomplete, res.Status)
	assert.Equal(t, 0, res.Abandoned)
	assert.Equal(t, 4, res.Missing)
}

func TestWriter_DuplicateIndexFails(t *testing.T) {
	h := newHarness(t, ports.ContainerSER)
	require.NoError(t, h.w.Start(0))

	h.submit(2)
	h.submit(2)

	<-h.w.Done()
	_, err := h.w.Stop(false)
	assert.ErrorIs(t, err, ErrDuplicateIndex)
	assert.Empty(t, h.hook.Calls())
	h.assertAllReleased()
}

func TestWriter_NextIndexAppends(t *testing.T) {
	h := newHarness(t, ports.ContainerSER)
	require.NoError(t, h.w.Start(3))

	for i := 0; i < 3; i++ {
		require.NoError(t, h.w.Submit(h.image(i, 4, 4), NextIndex))
	}
	<-h.w.Done()

	res, err := h.w.Stop(false)
	require.NoError(t, err)
	assert.Equal(t, 3, res.FramesWritten)
	assert.Equal(t, []int64{0, 1, 2}, h.hook.Tags())
}

func TestWriter_SubmitAfterExitIsRejected(t *testing.T) {
	h := newHarness(t, ports.ContainerSER)
	require.NoError(t, h.w.Start(1))
	h.submit(0)
	<-h.w.Done()

	err := h.w.Submit(nil, 1)
	assert.ErrorIs(t, err, ErrWriterClosed)
}

func TestWriter_SubmitBeforeStartIsKept(t *testing.T) {
	h := newHarness(t, ports.ContainerSER)
	h.submit(1)
	h.submit(0)
	require.NoError(t, h.w.Start(2))

	<-h.w.Done()
	assert.Equal(t, []int64{0, 1}, h.hook.Tags())
}

func TestWriter_StartValidation(t *testing.T) {
	noHook := New(Config{Sequence: ports.NewSequence("a", ports.ContainerSER)})
	assert.ErrorIs(t, noHook.Start(1), ErrNoHook)

	noSeq := New(Config{Hook: &mocks.SequenceEncoder{}})
	assert.ErrorIs(t, noSeq.Start(1), ErrNoSequence)

	_, err := noSeq.Stop(false)
	assert.ErrorIs(t, err, ErrNotStarted)

	h := newHarness(t, ports.ContainerSER)
	require.NoError(t, h.w.Start(0))
	assert.ErrorIs(t, h.w.Start(0), ErrAlreadyStarted)
	_, err = h.w.Stop(false)
	require.NoError(t, err)
}

func TestWriter_StopIsIdempotent(t *testing.T) {
	h := newHarness(t, ports.ContainerSER)
	require.NoError(t, h.w.Start(0))
	h.submit(0)

	first, err1 := h.w.Stop(false)
	second, err2 := h.w.Stop(true)
	assert.Equal(t, first, second)
	assert.Equal(t, err1, err2)
}

func TestWriter_TwoOutputsShareOnePool(t *testing.T) {
	const (
		n       = 40
		ceiling = 3
		workers = 6
	)
	pool := throttle.New(ceiling, logger.NewNoop())
	pool.SetOutputCount(2)

	fast := &mocks.SequenceEncoder{}
	slow := &mocks.SequenceEncoder{WriteFrameFunc: func(f *frame.Frame, ordinal int) error {
		time.Sleep(200 * time.Microsecond)
		return nil
	}}
	wa := New(Config{Sequence: ports.NewSequence("a", ports.ContainerSER), Hook: fast, Pool: pool})
	wb := New(Config{Sequence: ports.NewSequence("b", ports.ContainerSER), Hook: slow, Pool: pool})
	require.NoError(t, wa.Start(n))
	require.NoError(t, wb.Start(n))

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		next    int
		maxSeen int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if err := pool.Reserve(context.Background()); !assert.NoError(t, err) {
					return
				}
				mu.Lock()
				idx := next
				next++
				maxSeen = max(maxSeen, pool.Active())
				mu.Unlock()
				if idx >= n {
					pool.Release()
					return
				}
				fa := frame.New(4, 4, 1, frame.Depth16)
				fa.TimestampMs = int64(idx)
				fb := fa.Clone()
				assert.NoError(t, wa.Submit(fa, idx))
				assert.NoError(t, wb.Submit(fb, idx))
			}
		}()
	}
	wg.Wait()

	resA, errA := wa.Stop(false)
	resB, errB := wb.Stop(false)
	require.NoError(t, errA)
	require.NoError(t, errB)
	assert.Equal(t, n, resA.FramesWritten)
	assert.Equal(t, n, resB.FramesWritten)
	assert.Equal(t, tags(n), fast.Tags())
	assert.Equal(t, tags(n), slow.Tags())
	assert.LessOrEqual(t, maxSeen, ceiling)
	assert.Equal(t, 0, pool.Active())
}

func TestWriter_NilLoggerAndPool(t *testing.T) {
	w := New(Config{
		Sequence: ports.Sequence{ID: uuid.New()},
		Hook:     &mocks.SequenceEncoder{},
	})
	require.NoError(t, w.Start(1))
	require.NoError(t, w.Submit(frame.New(2, 2, 1, frame.Depth16), 0))
	<-w.Done()
	_, err := w.Stop(false)
	require.NoError(t, err)
}

// sharedPool sets up two writers feeding one synchronized pool.
func sharedPool(t *testing.T) (*throttle.Pool, *Writer, *Writer, *mocks.SequenceEncoder) {
	t.Helper()
	pool := throttle.New(0, logger.NewNoop())
	pool.SetOutputCount(2)
	encA := &mocks.SequenceEncoder{}
	wa := New(Config{Sequence: ports.NewSequence("a", ports.ContainerSER), Hook: encA, Pool: pool})
	wb := New(Config{Sequence: ports.NewSequence("b", ports.ContainerSER), Hook: &mocks.SequenceEncoder{}, Pool: pool})
	return pool, wa, wb, encA
}

// reserveAll takes one slot per index, as the producers of one pass would.
func reserveAll(t *testing.T, pool *throttle.Pool, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, pool.Reserve(context.Background()))
	}
}

func newFrame(index, size int) *frame.Frame {
	f := frame.New(size, size, 1, frame.Depth16)
	f.TimestampMs = int64(index)
	return f
}

func TestWriter_SharedPoolGeometryErrorReleasesEverySlot(t *testing.T) {
	pool, wa, wb, _ := sharedPool(t)
	require.NoError(t, wa.Start(3))
	require.NoError(t, wb.Start(3))
	reserveAll(t, pool, 3)

	for i := 0; i < 3; i++ {
		require.NoError(t, wb.Submit(newFrame(i, 4), i))
	}
	// A buffers 1, then fails on a frame of another size at 2.
	require.NoError(t, wa.Submit(newFrame(1, 4), 1))
	require.NoError(t, wa.Submit(newFrame(2, 6), 2))
	<-wa.Done()

	// A refuses 0; the caller keeps the frame and reports the skip.
	refused := newFrame(0, 4)
	require.Error(t, wa.Submit(refused, 0))
	refused.Release()
	pool.NotifySkipped(wa.Sequence().ID, 0)

	resB, err := wb.Stop(false)
	require.NoError(t, err)
	assert.Equal(t, 3, resB.FramesWritten)

	resA, err := wa.Stop(true)
	assert.ErrorIs(t, err, ErrGeometryMismatch)
	assert.Equal(t, StatusWriteError, resA.Status)
	assert.Equal(t, 2, resA.Abandoned)
	assert.Equal(t, 0, pool.Active(), "memory slots still reserved")
}

func TestWriter_SharedPoolStaleIndexReleasesItsSlot(t *testing.T) {
	pool, wa, wb, encA := sharedPool(t)
	require.NoError(t, wa.Start(0))
	require.NoError(t, wb.Start(0))
	reserveAll(t, pool, 2)

	for i := 0; i < 2; i++ {
		require.NoError(t, wa.Submit(newFrame(i, 4), i))
		require.NoError(t, wb.Submit(newFrame(i, 4), i))
	}
	require.Eventually(t, func() bool {
		written, _ := wa.Progress()
		return written == 2
	}, 2*time.Second, time.Millisecond)

	// A second image for index 0 carries its own reservation.
	reserveAll(t, pool, 1)
	require.NoError(t, wa.Submit(newFrame(0, 4), 0))
	<-wa.Done()

	_, err := wa.Stop(false)
	assert.ErrorIs(t, err, ErrIndexOrder)
	_, err = wb.Stop(false)
	require.NoError(t, err)
	assert.Equal(t, tags(2), encA.Tags())
	assert.Equal(t, 0, pool.Active(), "memory slots still reserved")
}

func TestWriter_SharedPoolAbortReleasesEverySlot(t *testing.T) {
	pool, wa, wb, _ := sharedPool(t)
	require.NoError(t, wa.Start(4))
	require.NoError(t, wb.Start(4))
	reserveAll(t, pool, 4)

	for i := 0; i < 4; i++ {
		require.NoError(t, wb.Submit(newFrame(i, 4), i))
	}
	for _, i := range []int{0, 2, 3} {
		require.NoError(t, wa.Submit(newFrame(i, 4), i))
	}
	require.Eventually(t, func() bool {
		written, _ := wa.Progress()
		return written == 1
	}, 2*time.Second, time.Millisecond)

	resA, err := wa.Stop(true)
	assert.ErrorIs(t, err, ErrIncomplete)
	assert.Equal(t, 2, resA.Abandoned)

	late := newFrame(1, 4)
	require.Error(t, wa.Submit(late, 1))
	late.Release()
	pool.NotifySkipped(wa.Sequence().ID, 1)

	_, err = wb.Stop(false)
	require.NoError(t, err)
	assert.Equal(t, 0, pool.Active(), "memory slots still reserved")
}

func TestWriter_DrainingOnlyAfterStopSignal(t *testing.T) {
	// The state is sampled while buffered images are dropped, after the
	// ordering loop has ended.
	run := func(t *testing.T, fail bool) []State {
		log := mocks.NewLogger()
		w := New(Config{
			Sequence: ports.NewSequence("test", ports.ContainerSER),
			Hook:     &mocks.SequenceEncoder{},
			Logger:   log,
		})
		var (
			mu   sync.Mutex
			seen []State
		)
		log.OnLog = func(e mocks.LogEntry) {
			if e.Msg == "Dropping image %d" {
				mu.Lock()
				seen = append(seen, w.State())
				mu.Unlock()
			}
		}
		require.NoError(t, w.Start(0))
		require.NoError(t, w.Submit(newFrame(1, 4), 1))
		if fail {
			require.NoError(t, w.Submit(newFrame(0, 6), 0))
			<-w.Done()
		}
		w.Stop(true)

		mu.Lock()
		defer mu.Unlock()
		return seen
	}

	t.Run("error", func(t *testing.T) {
		seen := run(t, true)
		require.NotEmpty(t, seen)
		for _, s := range seen {
			assert.Equal(t, StateRunning, s)
		}
	})
	t.Run("abort", func(t *testing.T) {
		seen := run(t, false)
		require.NotEmpty(t, seen)
		for _, s := range seen {
			assert.Equal(t, StateDraining, s)
		}
	})
}
