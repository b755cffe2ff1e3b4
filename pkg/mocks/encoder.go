package mocks

import (
	"sync"

	"github.com/user/seqwrite/pkg/frame"
	"github.com/user/seqwrite/pkg/ports"
)

// SequenceEncoder is a mock implementation of ports.SequenceEncoder.
type SequenceEncoder struct {
	WriteFrameFunc func(f *frame.Frame, ordinal int) error
	CloseFunc      func(frameCount int) error

	mu              sync.Mutex
	inCall          bool
	concurrentCalls int

	// Recorded calls for verification
	WriteFrameCalls []WriteFrameCall
	CloseCalled     bool
	ClosedCount     int
}

// WriteFrameCall records a call to WriteFrame. Tag is the frame's
// TimestampMs, which tests use to carry the submitted index.
type WriteFrameCall struct {
	Tag      int64
	Ordinal  int
	Geometry frame.Geometry
}

func (m *SequenceEncoder) WriteFrame(f *frame.Frame, ordinal int) error {
	m.mu.Lock()
	if m.inCall {
		m.concurrentCalls++
	}
	m.inCall = true
	m.WriteFrameCalls = append(m.WriteFrameCalls, WriteFrameCall{
		Tag:      f.TimestampMs,
		Ordinal:  ordinal,
		Geometry: f.Geometry(),
	})
	m.mu.Unlock()

	var err error
	if m.WriteFrameFunc != nil {
		err = m.WriteFrameFunc(f, ordinal)
	}

	m.mu.Lock()
	m.inCall = false
	m.mu.Unlock()
	return err
}

func (m *SequenceEncoder) Close(frameCount int) error {
	m.mu.Lock()
	m.CloseCalled = true
	m.ClosedCount = frameCount
	m.mu.Unlock()
	if m.CloseFunc != nil {
		return m.CloseFunc(frameCount)
	}
	return nil
}

// Calls returns a copy of the recorded WriteFrame calls.
func (m *SequenceEncoder) Calls() []WriteFrameCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]WriteFrameCall(nil), m.WriteFrameCalls...)
}

// Tags returns the tags of the written frames, in write order.
func (m *SequenceEncoder) Tags() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	tags := make([]int64, len(m.WriteFrameCalls))
	for i, c := range m.WriteFrameCalls {
		tags[i] = c.Tag
	}
	return tags
}

// ConcurrentCalls returns how many times WriteFrame was entered while
// another call was still running.
func (m *SequenceEncoder) ConcurrentCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.concurrentCalls
}

var _ ports.SequenceEncoder = (*SequenceEncoder)(nil)
