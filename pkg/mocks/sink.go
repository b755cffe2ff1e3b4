package mocks

import (
	"image"
	"sync"

	"github.com/user/seqwrite/pkg/ports"
)

// DebugSink is a mock implementation of ports.DebugSink.
type DebugSink struct {
	mu sync.RWMutex

	enabled bool

	ConfigJSON []byte
	Frames     map[string]map[int]image.Image
}

// NewDebugSink creates a new mock DebugSink.
func NewDebugSink(enabled bool) *DebugSink {
	return &DebugSink{
		enabled: enabled,
		Frames:  make(map[string]map[int]image.Image),
	}
}

func (m *DebugSink) Enabled() bool {
	return m.enabled
}

func (m *DebugSink) SaveConfigJSON(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ConfigJSON = data
	return nil
}

func (m *DebugSink) SaveFrame(output string, index int, img image.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Frames[output] == nil {
		m.Frames[output] = make(map[int]image.Image)
	}
	m.Frames[output][index] = img
	return nil
}

// FrameCount returns the number of frames saved for an output.
func (m *DebugSink) FrameCount(output string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.Frames[output])
}

var _ ports.DebugSink = (*DebugSink)(nil)
