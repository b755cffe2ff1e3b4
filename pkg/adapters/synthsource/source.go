// Package synthsource generates deterministic star-field frames, for demos
// and for exercising the writer without input files.
package synthsource

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math/rand"
	"time"

	"golang.org/x/image/draw"

	"github.com/user/seqwrite/pkg/frame"
	"github.com/user/seqwrite/pkg/ports"
)

// Options configures the generated sequence.
type Options struct {
	Width    int
	Height   int
	Channels int // 1 or 3
	Depth    frame.Depth

	// Count is the number of frames; zero or less gives an endless source.
	Count int

	Stars int
	Seed  int64

	// DriftX and DriftY move every star by this many pixels per frame.
	DriftX float64
	DriftY float64

	// DropEvery makes every Nth frame missing. Zero disables it.
	DropEvery int

	// Label draws the frame number in the top-left corner.
	Label bool

	Start    time.Time
	Interval time.Duration
}

type star struct {
	x, y, radius float64
	level        uint8
}

// Source implements ports.FrameSource with synthetic frames.
type Source struct {
	opts     Options
	renderer ports.Renderer
	stars    []star
}

// New validates opts and places the stars.
func New(renderer ports.Renderer, opts Options) (*Source, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("synthsource: invalid size %dx%d", opts.Width, opts.Height)
	}
	if opts.Channels != 1 && opts.Channels != 3 {
		return nil, fmt.Errorf("synthsource: channels must be 1 or 3, got %d", opts.Channels)
	}
	if opts.Interval <= 0 {
		opts.Interval = 40 * time.Millisecond
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	stars := make([]star, opts.Stars)
	for i := range stars {
		stars[i] = star{
			x:      rng.Float64() * float64(opts.Width),
			y:      rng.Float64() * float64(opts.Height),
			radius: 1.5 + rng.Float64()*3,
			level:  uint8(96 + rng.Intn(160)),
		}
	}
	return &Source{opts: opts, renderer: renderer, stars: stars}, nil
}

// Len returns the frame count, or -1 for an endless source.
func (s *Source) Len() int {
	if s.opts.Count <= 0 {
		return -1
	}
	return s.opts.Count
}

// Load renders frame index.
func (s *Source) Load(ctx context.Context, index int) (*frame.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.opts.Count > 0 && index >= s.opts.Count {
		return nil, ports.ErrEndOfSource
	}
	if s.opts.DropEvery > 0 && (index+1)%s.opts.DropEvery == 0 {
		return nil, nil
	}

	canvas := s.renderer.CreateCanvas(s.opts.Width, s.opts.Height, color.Black)
	dx := s.opts.DriftX * float64(index)
	dy := s.opts.DriftY * float64(index)
	for _, st := range s.stars {
		c := color.RGBA{R: st.level, G: st.level, B: st.level, A: 255}
		canvas.DrawStar(st.x+dx, st.y+dy, st.radius, c)
	}
	if s.opts.Label {
		canvas.DrawText(fmt.Sprintf("frame %d", index), 4, 4, color.White)
	}

	img := canvas.ToImage()
	if s.opts.Channels == 1 {
		gray := image.NewGray16(img.Bounds())
		draw.Draw(gray, gray.Bounds(), img, img.Bounds().Min, draw.Src)
		img = gray
	}
	f := frame.FromImage(img, s.opts.Depth)
	if !s.opts.Start.IsZero() {
		f.TimestampMs = s.opts.Start.Add(time.Duration(index) * s.opts.Interval).UnixMilli()
	}
	return f, nil
}

var _ ports.FrameSource = (*Source)(nil)
