// Package fitsseq stores a sequence as one FITS file holding one image HDU
// per frame: the first frame in the primary HDU, the others as IMAGE
// extensions.
package fitsseq

import (
	"errors"
	"fmt"
	"time"

	"github.com/astrogo/fitsio"

	"github.com/user/seqwrite/pkg/frame"
	"github.com/user/seqwrite/pkg/ports"
)

var (
	ErrClosed      = errors.New("fitsseq: encoder closed")
	ErrInvalidFile = errors.New("fitsseq: not a FITS sequence")
)

// bzero is the offset that stores unsigned 16-bit samples as FITS signed
// integers.
const bzero = 32768

// Encoder appends frames to a FITS sequence file.
type Encoder struct {
	file   ports.File
	fits   *fitsio.File
	logger ports.Logger
	frames int
	closed bool
}

// New creates path. Nothing is written before the first frame.
func New(fsys ports.FileSystem, path string, logger ports.Logger) (*Encoder, error) {
	f, err := fsys.Create(path)
	if err != nil {
		return nil, fmt.Errorf("fitsseq: create %s: %w", path, err)
	}
	ff, err := fitsio.Create(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("fitsseq: %w", err)
	}
	return &Encoder{file: f, fits: ff, logger: logger.WithComponent("fitsseq")}, nil
}

// WriteFrame appends f as a new image HDU.
func (e *Encoder) WriteFrame(f *frame.Frame, ordinal int) error {
	if e.closed {
		return ErrClosed
	}
	if f.Released() {
		return frame.ErrReleased
	}

	axes := []int{f.Width, f.Height}
	if f.Channels > 1 {
		axes = append(axes, f.Channels)
	}
	bitpix, data := samples(f)
	img := fitsio.NewImage(bitpix, axes)
	defer img.Close()

	cards := []fitsio.Card{
		{Name: "EXTNAME", Value: fmt.Sprintf("FRAME%d", ordinal+1)},
	}
	if f.Depth == frame.Depth16 {
		cards = append(cards,
			fitsio.Card{Name: "BZERO", Value: bzero, Comment: "unsigned 16-bit data"},
			fitsio.Card{Name: "BSCALE", Value: 1},
		)
	}
	if f.TimestampMs > 0 {
		ts := time.UnixMilli(f.TimestampMs).UTC().Format("2006-01-02T15:04:05.000")
		cards = append(cards, fitsio.Card{Name: "DATE-OBS", Value: ts, Comment: "UTC"})
	}
	if err := img.Header().Append(cards...); err != nil {
		return fmt.Errorf("fitsseq: header of frame %d: %w", ordinal, err)
	}
	if err := img.Write(data); err != nil {
		return fmt.Errorf("fitsseq: encode frame %d: %w", ordinal, err)
	}
	if err := e.fits.Write(img); err != nil {
		return fmt.Errorf("fitsseq: write frame %d: %w", ordinal, err)
	}
	e.frames++
	return nil
}

// samples returns the BITPIX and the data slice of f. FITS order is the
// frame's planar order.
func samples(f *frame.Frame) (int, any) {
	if f.Depth == frame.Depth32F {
		return -32, f.F32
	}
	out := make([]int16, len(f.U16))
	for i, v := range f.U16 {
		// Flipping the sign bit subtracts BZERO.
		out[i] = int16(v ^ 0x8000)
	}
	return 16, out
}

// Close finishes the file. A sequence without frames still gets an empty
// primary HDU.
func (e *Encoder) Close(frameCount int) error {
	if e.closed {
		return nil
	}
	e.closed = true
	if frameCount != e.frames {
		e.logger.Warn("Sequence closed with %d frames, %d were written", frameCount, e.frames)
	}

	var err error
	if e.frames == 0 {
		empty := fitsio.NewImage(8, nil)
		err = e.fits.Write(empty)
		empty.Close()
	}
	err = errors.Join(err, e.fits.Close(), e.file.Close())
	if err != nil {
		return fmt.Errorf("fitsseq: close: %w", err)
	}
	return nil
}

var _ ports.SequenceEncoder = (*Encoder)(nil)
