package fitsseq

import (
	"fmt"
	"io"

	"github.com/astrogo/fitsio"

	"github.com/user/seqwrite/pkg/ports"
)

// Inspect reads every HDU of a FITS file and counts the image HDUs that
// hold at least two axes.
func Inspect(r io.ReadSeeker) (ports.SequenceInfo, error) {
	info := ports.SequenceInfo{Kind: ports.ContainerFITSeq}
	f, err := fitsio.Open(r)
	if err != nil {
		return info, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	defer f.Close()

	for _, hdu := range f.HDUs() {
		if hdu.Type() != fitsio.IMAGE_HDU {
			continue
		}
		hdr := hdu.Header()
		axes := hdr.Axes()
		if len(axes) < 2 {
			continue
		}
		channels := 1
		if len(axes) > 2 {
			channels = axes[2]
		}
		if info.Frames == 0 {
			info.Width, info.Height, info.Channels = axes[0], axes[1], channels
			info.Bits = hdr.Bitpix()
			if info.Bits < 0 {
				info.Bits = -info.Bits
			}
		} else if axes[0] != info.Width || axes[1] != info.Height {
			info.Heterogeneous = true
		}
		info.Frames++
	}
	return info, nil
}
