package mp4seq

import (
	"fmt"
	"io"

	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/user/seqwrite/pkg/ports"
)

// Sample is one stored picture.
type Sample struct {
	Data        []byte
	TimestampMs int
	DurationMs  int
}

type track struct {
	id            uint32
	timescale     uint32
	width, height int
	trex          *mp4.TrexBox
}

func findVideoTrack(f *mp4.File) (track, error) {
	var t track
	if f.Init == nil || f.Init.Moov == nil {
		return t, fmt.Errorf("mp4seq: no init segment")
	}
	for _, trak := range f.Init.Moov.Traks {
		if trak.Mdia != nil && trak.Mdia.Hdlr != nil && trak.Mdia.Hdlr.HandlerType == "vide" {
			t.id = trak.Tkhd.TrackID
			t.width = int(trak.Tkhd.Width >> 16)
			t.height = int(trak.Tkhd.Height >> 16)
			t.timescale = 1000
			if trak.Mdia.Mdhd != nil && trak.Mdia.Mdhd.Timescale > 0 {
				t.timescale = trak.Mdia.Mdhd.Timescale
			}
			break
		}
	}
	if t.id == 0 {
		return t, fmt.Errorf("mp4seq: no video track found")
	}
	if f.Init.Moov.Mvex != nil {
		for _, trex := range f.Init.Moov.Mvex.Trexs {
			if trex.TrackID == t.id {
				t.trex = trex
				break
			}
		}
	}
	return t, nil
}

// ReadSamples returns every sample of the video track in decode order.
func ReadSamples(r io.ReadSeeker) ([]Sample, error) {
	_, samples, err := decode(r)
	return samples, err
}

// Inspect counts the samples of a fragmented MP4 file.
func Inspect(r io.ReadSeeker) (ports.SequenceInfo, error) {
	info := ports.SequenceInfo{Kind: ports.ContainerMP4, Channels: 3, Bits: 8}
	t, samples, err := decode(r)
	if err != nil {
		return info, err
	}
	info.Width, info.Height = t.width, t.height
	info.Frames = len(samples)
	return info, nil
}

func decode(r io.ReadSeeker) (track, []Sample, error) {
	f, err := mp4.DecodeFile(r)
	if err != nil {
		return track{}, nil, fmt.Errorf("mp4seq: decode: %w", err)
	}
	if !f.IsFragmented() {
		return track{}, nil, fmt.Errorf("mp4seq: progressive MP4 not supported")
	}
	t, err := findVideoTrack(f)
	if err != nil {
		return t, nil, err
	}

	var samples []Sample
	for _, seg := range f.Segments {
		for _, frag := range seg.Fragments {
			if frag.Moof == nil {
				continue
			}
			for _, traf := range frag.Moof.Trafs {
				if traf.Tfhd.TrackID != t.id {
					continue
				}
				full, err := frag.GetFullSamples(t.trex)
				if err != nil {
					return t, nil, fmt.Errorf("mp4seq: get samples: %w", err)
				}
				for _, s := range full {
					samples = append(samples, Sample{
						Data:        s.Data,
						TimestampMs: int(s.DecodeTime * 1000 / uint64(t.timescale)),
						DurationMs:  int(uint64(s.Dur) * 1000 / uint64(t.timescale)),
					})
				}
			}
		}
	}
	return t, samples, nil
}
