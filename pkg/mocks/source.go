package mocks

import (
	"context"
	"sync"

	"github.com/user/seqwrite/pkg/frame"
	"github.com/user/seqwrite/pkg/ports"
)

// FrameSource is a mock implementation of ports.FrameSource. By default it
// returns Count frames of Width x Height, tagged with their index.
type FrameSource struct {
	Count  int
	Width  int
	Height int

	LoadFunc func(ctx context.Context, index int) (*frame.Frame, error)

	mu    sync.Mutex
	Loads []int
}

func (m *FrameSource) Len() int {
	return m.Count
}

func (m *FrameSource) Load(ctx context.Context, index int) (*frame.Frame, error) {
	m.mu.Lock()
	m.Loads = append(m.Loads, index)
	m.mu.Unlock()

	if m.LoadFunc != nil {
		return m.LoadFunc(ctx, index)
	}
	if m.Count >= 0 && index >= m.Count {
		return nil, ports.ErrEndOfSource
	}
	w, h := m.Width, m.Height
	if w == 0 {
		w = 8
	}
	if h == 0 {
		h = 8
	}
	f := frame.New(w, h, 1, frame.Depth16)
	f.TimestampMs = int64(index)
	return f, nil
}

var _ ports.FrameSource = (*FrameSource)(nil)
