package containerdetect

import (
	"bytes"
	"errors"
	"testing"

	"github.com/user/seqwrite/pkg/adapters/fitsseq"
	"github.com/user/seqwrite/pkg/adapters/ggrenderer"
	"github.com/user/seqwrite/pkg/adapters/logger"
	"github.com/user/seqwrite/pkg/adapters/mp4seq"
	"github.com/user/seqwrite/pkg/adapters/serfile"
	"github.com/user/seqwrite/pkg/frame"
	"github.com/user/seqwrite/pkg/mocks"
	"github.com/user/seqwrite/pkg/ports"
)

func writeSequence(t *testing.T, fs ports.FileSystem, path string, kind ports.ContainerKind) {
	t.Helper()
	var (
		enc ports.SequenceEncoder
		err error
	)
	switch kind {
	case ports.ContainerFITSeq:
		enc, err = fitsseq.New(fs, path, logger.NewNoop())
	case ports.ContainerSER:
		enc, err = serfile.New(fs, path, serfile.Options{}, logger.NewNoop())
	case ports.ContainerMP4:
		enc, err = mp4seq.New(fs, path, ggrenderer.New(), ports.EncoderOptions{}, logger.NewNoop())
	}
	if err != nil {
		t.Fatal(err)
	}
	if err := enc.WriteFrame(frame.New(8, 8, 1, frame.Depth16), 0); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(1); err != nil {
		t.Fatal(err)
	}
}

func TestDetectFromFile(t *testing.T) {
	kinds := []ports.ContainerKind{ports.ContainerFITSeq, ports.ContainerSER, ports.ContainerMP4}
	for _, kind := range kinds {
		t.Run(kind.String(), func(t *testing.T) {
			fs := mocks.NewFileSystem()
			// No extension: detection must rely on content.
			writeSequence(t, fs, "/seq", kind)

			got, err := DetectFromFile(fs, "/seq")
			if err != nil {
				t.Fatalf("DetectFromFile failed: %v", err)
			}
			if got != kind {
				t.Errorf("expected %s, got %s", kind, got)
			}
		})
	}
}

func TestDetectFromReader_RewindsReader(t *testing.T) {
	r := bytes.NewReader([]byte("LUCAM-RECORDER and more"))
	if _, err := DetectFromReader(r); err != nil {
		t.Fatal(err)
	}
	if pos, _ := r.Seek(0, 1); pos != 0 {
		t.Errorf("expected reader at 0, got %d", pos)
	}
}

func TestDetectFromReader_Unknown(t *testing.T) {
	for _, data := range [][]byte{nil, []byte("GIF89a"), bytes.Repeat([]byte{0}, 64)} {
		if _, err := DetectFromReader(bytes.NewReader(data)); !errors.Is(err, ErrUnknownFormat) {
			t.Errorf("%q: expected ErrUnknownFormat, got %v", data, err)
		}
	}
}
