package serfile

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/user/seqwrite/pkg/ports"
)

// Header is the decoded fixed part of a SER file.
type Header struct {
	ColorID    int
	Width      int
	Height     int
	Depth      int
	FrameCount int
	Observer   string
	Instrument string
	Telescope  string
	DateTime   int64
}

// ReadHeader decodes the header at the start of r.
func ReadHeader(r io.Reader) (Header, error) {
	buf := make([]byte, headerSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return Header{}, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	if string(buf[:len(fileID)]) != fileID {
		return Header{}, fmt.Errorf("%w: bad file id", ErrInvalidFile)
	}
	le := binary.LittleEndian
	return Header{
		ColorID:    int(le.Uint32(buf[18:])),
		Width:      int(le.Uint32(buf[26:])),
		Height:     int(le.Uint32(buf[30:])),
		Depth:      int(le.Uint32(buf[34:])),
		FrameCount: int(le.Uint32(buf[frameCountOffset:])),
		Observer:   cstring(buf[42:82]),
		Instrument: cstring(buf[82:122]),
		Telescope:  cstring(buf[122:162]),
		DateTime:   int64(le.Uint64(buf[dateTimeOffset:])),
	}, nil
}

// Inspect reads the header of a SER file.
func Inspect(r io.Reader) (ports.SequenceInfo, error) {
	h, err := ReadHeader(r)
	if err != nil {
		return ports.SequenceInfo{}, err
	}
	channels := 1
	if h.ColorID >= colorRGB {
		channels = 3
	}
	return ports.SequenceInfo{
		Kind:     ports.ContainerSER,
		Frames:   h.FrameCount,
		Width:    h.Width,
		Height:   h.Height,
		Channels: channels,
		Bits:     h.Depth,
	}, nil
}

func cstring(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
