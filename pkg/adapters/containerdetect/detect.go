// Package containerdetect identifies the container of a sequence file from
// its content.
package containerdetect

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/user/seqwrite/pkg/ports"
)

var (
	// ErrUnknownFormat is returned when no supported signature is found.
	ErrUnknownFormat = errors.New("containerdetect: unknown file format")

	// ErrUnsupportedCodec is returned for MP4 files whose video track does
	// not hold JPEG samples.
	ErrUnsupportedCodec = errors.New("containerdetect: MP4 video track is not JPEG")
)

const sniffSize = 16

// DetectFromFile detects the container of the file at path.
func DetectFromFile(fs ports.FileSystem, path string) (ports.ContainerKind, error) {
	f, err := fs.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	return DetectFromReader(f)
}

// DetectFromReader detects the container from an io.ReadSeeker. The reader
// is left at the start.
func DetectFromReader(reader io.ReadSeeker) (ports.ContainerKind, error) {
	head := make([]byte, sniffSize)
	n, err := io.ReadFull(reader, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("read signature: %w", err)
	}
	head = head[:n]
	if _, err := reader.Seek(0, io.SeekStart); err != nil {
		return 0, fmt.Errorf("seek: %w", err)
	}

	switch {
	case bytes.HasPrefix(head, []byte("SIMPLE  =")):
		return ports.ContainerFITSeq, nil
	case bytes.HasPrefix(head, []byte("LUCAM-RECORDER")):
		return ports.ContainerSER, nil
	case len(head) >= 8 && string(head[4:8]) == "ftyp":
		return detectMP4(reader)
	}
	return 0, ErrUnknownFormat
}

func detectMP4(reader io.ReadSeeker) (ports.ContainerKind, error) {
	mp4File, err := mp4.DecodeFile(reader)
	if err != nil {
		return 0, fmt.Errorf("decode mp4: %w", err)
	}
	if _, err := reader.Seek(0, io.SeekStart); err != nil {
		return 0, fmt.Errorf("seek: %w", err)
	}

	var moov *mp4.MoovBox
	if mp4File.IsFragmented() && mp4File.Init != nil {
		moov = mp4File.Init.Moov
	} else {
		moov = mp4File.Moov
	}
	if moov != nil {
		for _, trak := range moov.Traks {
			if isJPEGTrack(trak) {
				return ports.ContainerMP4, nil
			}
		}
	}
	return 0, ErrUnsupportedCodec
}

func isJPEGTrack(trak *mp4.TrakBox) bool {
	if trak.Mdia == nil || trak.Mdia.Hdlr == nil || trak.Mdia.Hdlr.HandlerType != "vide" {
		return false
	}
	if trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil || trak.Mdia.Minf.Stbl.Stsd == nil {
		return false
	}
	for _, child := range trak.Mdia.Minf.Stbl.Stsd.Children {
		if child.Type() == "jpeg" {
			return true
		}
	}
	return false
}
