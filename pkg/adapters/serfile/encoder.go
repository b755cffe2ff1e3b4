// Package serfile writes SER video files: a fixed 178-byte header, raw
// 16-bit frames and an optional trailer of per-frame timestamps.
package serfile

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/user/seqwrite/pkg/frame"
	"github.com/user/seqwrite/pkg/ports"
)

var (
	ErrClosed            = errors.New("serfile: encoder closed")
	ErrUnsupportedLayout = errors.New("serfile: only 1 or 3 channels can be stored")
	ErrGeometry          = errors.New("serfile: frame size differs from the first frame")
	ErrInvalidFile       = errors.New("serfile: not a SER file")
)

const (
	headerSize = 178
	fileID     = "LUCAM-RECORDER"

	colorMono = 0
	colorRGB  = 100

	// Readers in the wild treat 0 as little-endian data.
	littleEndianFlag = 0

	frameCountOffset = 38
	dateTimeOffset   = 162

	// ticksAtUnixEpoch is 1970-01-01 in 100ns units since 0001-01-01.
	ticksAtUnixEpoch = 621355968000000000
)

// Options are the free-text header fields.
type Options struct {
	Observer   string
	Instrument string
	Telescope  string
}

// Encoder appends frames to a SER file. The header is completed from the
// first frame and its count patched on Close.
type Encoder struct {
	file   ports.File
	logger ports.Logger
	opts   Options

	width, height, channels int
	frames                  int
	timestamps              []int64
	closed                  bool
	buf                     []byte
}

// New creates path and reserves room for the header.
func New(fsys ports.FileSystem, path string, opts Options, logger ports.Logger) (*Encoder, error) {
	f, err := fsys.Create(path)
	if err != nil {
		return nil, fmt.Errorf("serfile: create %s: %w", path, err)
	}
	e := &Encoder{file: f, opts: opts, logger: logger.WithComponent("serfile")}
	if _, err := f.Write(make([]byte, headerSize)); err != nil {
		f.Close()
		return nil, fmt.Errorf("serfile: write header: %w", err)
	}
	return e, nil
}

// WriteFrame appends f. Float frames are stored scaled to 16 bits.
func (e *Encoder) WriteFrame(f *frame.Frame, ordinal int) error {
	if e.closed {
		return ErrClosed
	}
	if f.Released() {
		return frame.ErrReleased
	}
	if f.Channels != 1 && f.Channels != 3 {
		return fmt.Errorf("%w: got %d", ErrUnsupportedLayout, f.Channels)
	}
	if e.frames == 0 {
		e.width, e.height, e.channels = f.Width, f.Height, f.Channels
	} else if f.Width != e.width || f.Height != e.height || f.Channels != e.channels {
		return fmt.Errorf("%w: %s", ErrGeometry, f.Geometry())
	}

	n := f.Width * f.Height * f.Channels * 2
	if cap(e.buf) < n {
		e.buf = make([]byte, n)
	}
	buf := e.buf[:n]
	i := 0
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			// RGB is stored interleaved.
			for c := 0; c < f.Channels; c++ {
				binary.LittleEndian.PutUint16(buf[i:], f.Uint16At(c, x, y))
				i += 2
			}
		}
	}
	if _, err := e.file.Write(buf); err != nil {
		return fmt.Errorf("serfile: write frame %d: %w", ordinal, err)
	}
	e.timestamps = append(e.timestamps, f.TimestampMs)
	e.frames++
	return nil
}

// Close writes the timestamp trailer when every frame carried a time, then
// the final header.
func (e *Encoder) Close(frameCount int) error {
	if e.closed {
		return nil
	}
	e.closed = true
	if frameCount != e.frames {
		e.logger.Warn("Sequence closed with %d frames, %d were written", frameCount, e.frames)
	}

	if err := e.finish(); err != nil {
		e.file.Close()
		return err
	}
	return e.file.Close()
}

func (e *Encoder) finish() error {
	var first int64
	if e.frames > 0 && allSet(e.timestamps) {
		trailer := make([]byte, 8*len(e.timestamps))
		for i, ms := range e.timestamps {
			binary.LittleEndian.PutUint64(trailer[i*8:], uint64(toTicks(ms)))
		}
		if _, err := e.file.Write(trailer); err != nil {
			return fmt.Errorf("serfile: write trailer: %w", err)
		}
		first = toTicks(e.timestamps[0])
	}

	if _, err := e.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("serfile: seek header: %w", err)
	}
	if _, err := e.file.Write(e.header(first)); err != nil {
		return fmt.Errorf("serfile: write header: %w", err)
	}
	return nil
}

func (e *Encoder) header(dateTime int64) []byte {
	h := make([]byte, headerSize)
	copy(h, fileID)
	color := colorMono
	if e.channels == 3 {
		color = colorRGB
	}
	le := binary.LittleEndian
	le.PutUint32(h[18:], uint32(color))
	le.PutUint32(h[22:], littleEndianFlag)
	le.PutUint32(h[26:], uint32(e.width))
	le.PutUint32(h[30:], uint32(e.height))
	le.PutUint32(h[34:], 16)
	le.PutUint32(h[frameCountOffset:], uint32(e.frames))
	copy(h[42:82], e.opts.Observer)
	copy(h[82:122], e.opts.Instrument)
	copy(h[122:162], e.opts.Telescope)
	le.PutUint64(h[dateTimeOffset:], uint64(dateTime))
	le.PutUint64(h[dateTimeOffset+8:], uint64(dateTime))
	return h
}

func allSet(ts []int64) bool {
	for _, t := range ts {
		if t <= 0 {
			return false
		}
	}
	return true
}

func toTicks(ms int64) int64 {
	return ms*10000 + ticksAtUnixEpoch
}

var _ ports.SequenceEncoder = (*Encoder)(nil)
