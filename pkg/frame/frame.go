// Package frame defines the in-memory image exchanged between producers and
// sequence writers.
package frame

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

// Depth is the sample storage of a frame.
type Depth int

const (
	// Depth16 stores unsigned 16-bit samples.
	Depth16 Depth = iota
	// Depth32F stores float32 samples normalised to [0,1].
	Depth32F
)

// String returns the string representation of the depth.
func (d Depth) String() string {
	switch d {
	case Depth16:
		return "16-bit"
	case Depth32F:
		return "32-bit float"
	default:
		return "unknown"
	}
}

// Bits returns the number of bits per sample.
func (d Depth) Bits() int {
	if d == Depth32F {
		return 32
	}
	return 16
}

// ErrReleased is returned when pixel data is accessed after Release.
var ErrReleased = errors.New("frame: pixel data already released")

// Geometry is the pixel layout of a frame.
type Geometry struct {
	Width    int
	Height   int
	Channels int
}

// String formats the geometry as WxHxC.
func (g Geometry) String() string {
	return fmt.Sprintf("%dx%dx%d", g.Width, g.Height, g.Channels)
}

// Frame is a planar image: all samples of channel 0, then channel 1, ...
// Rows go top to bottom. Exactly one of U16 or F32 holds the samples,
// depending on Depth.
type Frame struct {
	Width    int
	Height   int
	Channels int
	Depth    Depth

	U16 []uint16
	F32 []float32

	// TimestampMs is an optional acquisition time carried into containers
	// that record one.
	TimestampMs int64
}

// New allocates a zeroed frame.
func New(width, height, channels int, depth Depth) *Frame {
	f := &Frame{
		Width:    width,
		Height:   height,
		Channels: channels,
		Depth:    depth,
	}
	n := width * height * channels
	if depth == Depth32F {
		f.F32 = make([]float32, n)
	} else {
		f.U16 = make([]uint16, n)
	}
	return f
}

// Geometry returns the frame's pixel layout.
func (f *Frame) Geometry() Geometry {
	return Geometry{Width: f.Width, Height: f.Height, Channels: f.Channels}
}

// Len returns the number of samples.
func (f *Frame) Len() int {
	return f.Width * f.Height * f.Channels
}

// Bytes returns the memory held by the pixel buffer.
func (f *Frame) Bytes() int64 {
	return int64(f.Len()) * int64(f.Depth.Bits()/8)
}

// Released reports whether the pixel buffer has been dropped.
func (f *Frame) Released() bool {
	return f.U16 == nil && f.F32 == nil
}

// Release drops the pixel buffer. The frame must not be used afterwards.
func (f *Frame) Release() {
	f.U16 = nil
	f.F32 = nil
}

// Value returns the sample at (c, x, y) normalised to [0,1].
func (f *Frame) Value(c, x, y int) float32 {
	i := (c*f.Height+y)*f.Width + x
	if f.Depth == Depth32F {
		return f.F32[i]
	}
	return float32(f.U16[i]) / 65535
}

// SetValue stores a normalised sample at (c, x, y), clamping to [0,1].
func (f *Frame) SetValue(c, x, y int, v float32) {
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	i := (c*f.Height+y)*f.Width + x
	if f.Depth == Depth32F {
		f.F32[i] = v
		return
	}
	f.U16[i] = uint16(v*65535 + 0.5)
}

// Uint16At returns the sample at (c, x, y) scaled to 16 bits.
func (f *Frame) Uint16At(c, x, y int) uint16 {
	if f.Depth == Depth16 {
		return f.U16[(c*f.Height+y)*f.Width+x]
	}
	v := f.Value(c, x, y)
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	return uint16(v*65535 + 0.5)
}

// Clone returns a deep copy.
func (f *Frame) Clone() *Frame {
	out := *f
	if f.U16 != nil {
		out.U16 = append([]uint16(nil), f.U16...)
	}
	if f.F32 != nil {
		out.F32 = append([]float32(nil), f.F32...)
	}
	return &out
}

// ToImage converts the frame into an image.Image: Gray16 for one channel,
// RGBA64 for three.
func (f *Frame) ToImage() (image.Image, error) {
	if f.Released() {
		return nil, ErrReleased
	}
	rect := image.Rect(0, 0, f.Width, f.Height)
	switch f.Channels {
	case 1:
		img := image.NewGray16(rect)
		for y := 0; y < f.Height; y++ {
			for x := 0; x < f.Width; x++ {
				img.SetGray16(x, y, color.Gray16{Y: f.Uint16At(0, x, y)})
			}
		}
		return img, nil
	case 3:
		img := image.NewRGBA64(rect)
		for y := 0; y < f.Height; y++ {
			for x := 0; x < f.Width; x++ {
				img.SetRGBA64(x, y, color.RGBA64{
					R: f.Uint16At(0, x, y),
					G: f.Uint16At(1, x, y),
					B: f.Uint16At(2, x, y),
					A: 0xffff,
				})
			}
		}
		return img, nil
	default:
		return nil, fmt.Errorf("frame: cannot convert %d channels to an image", f.Channels)
	}
}

// FromImage builds a frame from an image. Gray images give one channel,
// anything else three.
func FromImage(img image.Image, depth Depth) *Frame {
	b := img.Bounds()
	channels := 3
	switch img.(type) {
	case *image.Gray, *image.Gray16:
		channels = 1
	}
	f := New(b.Dx(), b.Dy(), channels, depth)
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			if channels == 1 {
				f.SetValue(0, x, y, float32(r)/65535)
				continue
			}
			f.SetValue(0, x, y, float32(r)/65535)
			f.SetValue(1, x, y, float32(g)/65535)
			f.SetValue(2, x, y, float32(bl)/65535)
		}
	}
	return f
}
