package main

import (
	"fmt"

	"github.com/user/seqwrite/pkg/adapters/fitsseq"
	"github.com/user/seqwrite/pkg/adapters/mp4seq"
	"github.com/user/seqwrite/pkg/adapters/serfile"
	"github.com/user/seqwrite/pkg/config"
	"github.com/user/seqwrite/pkg/orchestrator"
	"github.com/user/seqwrite/pkg/ports"
)

// newEncoderFactory opens the container adapter matching each sequence.
func newEncoderFactory(fs ports.FileSystem, renderer ports.Renderer, cfg config.Config, log ports.Logger) orchestrator.EncoderFactory {
	return orchestrator.EncoderFactoryFunc(func(seq ports.Sequence, path string) (ports.SequenceEncoder, error) {
		var (
			enc ports.SequenceEncoder
			err error
		)
		switch seq.Kind {
		case ports.ContainerFITSeq:
			enc, err = fitsseq.New(fs, path, log)
		case ports.ContainerSER:
			enc, err = serfile.New(fs, path, cfg.SEROptions(), log)
		case ports.ContainerMP4:
			enc, err = mp4seq.New(fs, path, renderer, cfg.EncoderOptions(), log)
		default:
			return nil, fmt.Errorf("unsupported container %s", seq.Kind)
		}
		if err != nil {
			return nil, err
		}
		return enc, nil
	})
}
