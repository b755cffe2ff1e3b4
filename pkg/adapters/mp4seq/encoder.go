// Package mp4seq writes sequences as fragmented MP4 files with one JPEG
// sample per fragment, so the file is playable while it grows.
package mp4seq

import (
	"errors"
	"fmt"

	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/user/seqwrite/pkg/frame"
	"github.com/user/seqwrite/pkg/ports"
)

var (
	ErrClosed   = errors.New("mp4seq: encoder closed")
	ErrGeometry = errors.New("mp4seq: frame size differs from the first frame")
)

const (
	trackID            = 1
	defaultFPS         = 25
	defaultJPEGQuality = 90
)

// Encoder appends frames to a fragmented MP4 file.
type Encoder struct {
	file     ports.File
	renderer ports.Renderer
	logger   ports.Logger

	fps     float64
	quality int

	started       bool
	width, height int
	timescale     uint32
	sampleDur     uint32
	decodeTime    uint64
	frames        int
	closed        bool
}

// New creates path. The init segment is written with the first frame, once
// the picture size is known.
func New(fsys ports.FileSystem, path string, renderer ports.Renderer, opts ports.EncoderOptions, logger ports.Logger) (*Encoder, error) {
	f, err := fsys.Create(path)
	if err != nil {
		return nil, fmt.Errorf("mp4seq: create %s: %w", path, err)
	}
	e := &Encoder{
		file:     f,
		renderer: renderer,
		logger:   logger.WithComponent("mp4seq"),
		fps:      opts.FPS,
		quality:  opts.JPEGQuality,
	}
	if e.fps <= 0 {
		e.fps = defaultFPS
	}
	if e.quality <= 0 || e.quality > 100 {
		e.quality = defaultJPEGQuality
	}
	e.timescale = uint32(e.fps * 1000)
	e.sampleDur = 1000
	return e, nil
}

func (e *Encoder) writeInit(width, height int) error {
	init := mp4.CreateEmptyInit()
	init.AddEmptyTrack(e.timescale, "video", "und")
	trak := init.Moov.Trak

	entry := mp4.CreateVisualSampleEntryBox("jpeg", uint16(width), uint16(height), nil)
	trak.Mdia.Minf.Stbl.Stsd.AddChild(entry)
	trak.Tkhd.Width = mp4.Fixed32(width << 16)
	trak.Tkhd.Height = mp4.Fixed32(height << 16)

	ftyp := mp4.NewFtyp("isom", 0x200, []string{"isom", "iso6", "mp41"})
	if err := ftyp.Encode(e.file); err != nil {
		return fmt.Errorf("mp4seq: encode ftyp: %w", err)
	}
	if err := init.Moov.Encode(e.file); err != nil {
		return fmt.Errorf("mp4seq: encode moov: %w", err)
	}
	return nil
}

// WriteFrame compresses f to JPEG and appends it as a new fragment.
func (e *Encoder) WriteFrame(f *frame.Frame, ordinal int) error {
	if e.closed {
		return ErrClosed
	}
	img, err := f.ToImage()
	if err != nil {
		return fmt.Errorf("mp4seq: frame %d: %w", ordinal, err)
	}

	if !e.started {
		if err := e.writeInit(f.Width, f.Height); err != nil {
			return err
		}
		e.width, e.height = f.Width, f.Height
		e.started = true
	} else if f.Width != e.width || f.Height != e.height {
		return fmt.Errorf("%w: %s", ErrGeometry, f.Geometry())
	}

	data, err := e.renderer.EncodeImage(img, ports.FormatJPEG, e.quality)
	if err != nil {
		return fmt.Errorf("mp4seq: frame %d: %w", ordinal, err)
	}

	frag, err := mp4.CreateFragment(uint32(e.frames+1), trackID)
	if err != nil {
		return fmt.Errorf("mp4seq: create fragment: %w", err)
	}
	frag.AddFullSample(mp4.FullSample{
		Sample: mp4.Sample{
			Flags: mp4.SyncSampleFlags,
			Size:  uint32(len(data)),
			Dur:   e.sampleDur,
		},
		DecodeTime: e.decodeTime,
		Data:       data,
	})
	if err := frag.Encode(e.file); err != nil {
		return fmt.Errorf("mp4seq: encode fragment %d: %w", ordinal, err)
	}

	e.decodeTime += uint64(e.sampleDur)
	e.frames++
	return nil
}

// Close closes the file. Fragmented files need no index, so nothing is
// rewritten.
func (e *Encoder) Close(frameCount int) error {
	if e.closed {
		return nil
	}
	e.closed = true
	if frameCount != e.frames {
		e.logger.Warn("Sequence closed with %d frames, %d were written", frameCount, e.frames)
	}
	return e.file.Close()
}

var _ ports.SequenceEncoder = (*Encoder)(nil)
