// Package dirsource reads the images of a directory, in name order, as a
// frame source.
package dirsource

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/user/seqwrite/pkg/frame"
	"github.com/user/seqwrite/pkg/ports"
)

// ErrNoImages is returned when the directory holds no supported image.
var ErrNoImages = errors.New("dirsource: no PNG or JPEG file found")

var extensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// Source implements ports.FrameSource over a directory of images.
type Source struct {
	fs       ports.FileSystem
	renderer ports.Renderer
	logger   ports.Logger
	dir      string
	names    []string
	depth    frame.Depth
}

// New lists dir and keeps the supported images.
func New(fsys ports.FileSystem, renderer ports.Renderer, dir string, depth frame.Depth, logger ports.Logger) (*Source, error) {
	all, err := fsys.List(dir)
	if err != nil {
		return nil, fmt.Errorf("dirsource: list %s: %w", dir, err)
	}
	var names []string
	for _, name := range all {
		if extensions[strings.ToLower(path.Ext(name))] {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoImages, dir)
	}
	return &Source{
		fs:       fsys,
		renderer: renderer,
		logger:   logger.WithComponent("dirsource"),
		dir:      dir,
		names:    names,
		depth:    depth,
	}, nil
}

// Len returns the number of images found.
func (s *Source) Len() int {
	return len(s.names)
}

// Name returns the file name of the image at index.
func (s *Source) Name(index int) string {
	return s.names[index]
}

// Load decodes the image at index. A file that cannot be decoded yields a
// missing frame rather than an error, so the sequence simply skips it.
func (s *Source) Load(ctx context.Context, index int) (*frame.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if index < 0 || index >= len(s.names) {
		return nil, ports.ErrEndOfSource
	}

	p := filepath.Join(s.dir, s.names[index])
	data, err := s.fs.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("dirsource: read %s: %w", p, err)
	}
	img, err := s.renderer.DecodeImage(data, ports.FormatAuto)
	if err != nil {
		s.logger.Warn("Cannot decode %s, frame %d skipped: %v", s.names[index], index, err)
		return nil, nil
	}
	return frame.FromImage(img, s.depth), nil
}

var _ ports.FrameSource = (*Source)(nil)
