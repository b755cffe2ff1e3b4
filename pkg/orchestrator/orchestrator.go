// Package orchestrator runs producers and sequence writers together: frames
// are loaded and processed concurrently, then committed in order to one main
// output and an optional preview output sharing the same memory pool.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/user/seqwrite/pkg/frame"
	"github.com/user/seqwrite/pkg/pipeline"
	"github.com/user/seqwrite/pkg/ports"
	"github.com/user/seqwrite/pkg/seqwriter"
	"github.com/user/seqwrite/pkg/throttle"
)

// Config contains all configuration for a run.
type Config struct {
	// Main output
	OutputPath         string
	Kind               ports.ContainerKind
	AllowHeterogeneous bool

	// Preview output, disabled when PreviewPath is empty.
	PreviewPath string
	PreviewKind ports.ContainerKind

	// Limit caps the number of frames taken from the source. Zero takes
	// them all; endless sources then run until cancelled.
	Limit int

	// Concurrency
	Workers int

	// MaxActive is the ceiling of images held between production and
	// writing. Zero derives it from MemoryBudgetBytes, or from Workers when
	// no budget is set. Negative means unlimited.
	MaxActive         int
	MemoryBudgetBytes int64
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Kind:        ports.ContainerFITSeq,
		PreviewKind: ports.ContainerMP4,
		Workers:     runtime.NumCPU(),
	}
}

// EncoderFactory opens the container of a sequence.
type EncoderFactory interface {
	Create(seq ports.Sequence, path string) (ports.SequenceEncoder, error)
}

// EncoderFactoryFunc is a function adapter for EncoderFactory.
type EncoderFactoryFunc func(seq ports.Sequence, path string) (ports.SequenceEncoder, error)

// Create implements EncoderFactory.
func (f EncoderFactoryFunc) Create(seq ports.Sequence, path string) (ports.SequenceEncoder, error) {
	return f(seq, path)
}

// Orchestrator wires a frame source to the sequence writers.
type Orchestrator struct {
	source       ports.FrameSource
	processStage pipeline.Stage[*frame.Frame, *frame.Frame]
	previewStage pipeline.Stage[*frame.Frame, *frame.Frame]
	encoders     EncoderFactory
	sink         ports.DebugSink
	logger       ports.Logger
}

// New creates a new Orchestrator. previewStage may be nil when no preview
// output is configured.
func New(
	source ports.FrameSource,
	processStage pipeline.Stage[*frame.Frame, *frame.Frame],
	previewStage pipeline.Stage[*frame.Frame, *frame.Frame],
	encoders EncoderFactory,
	sink ports.DebugSink,
	logger ports.Logger,
) *Orchestrator {
	if processStage == nil {
		processStage = pipeline.Identity[*frame.Frame]()
	}
	return &Orchestrator{
		source:       source,
		processStage: processStage,
		previewStage: previewStage,
		encoders:     encoders,
		sink:         sink,
		logger:       logger.WithComponent("orchestrator"),
	}
}

// output is one sequence being written during a run.
type output struct {
	name    string
	path    string
	seq     ports.Sequence
	encoder ports.SequenceEncoder
	writer  *seqwriter.Writer
}

// run holds the state shared by the producers of one Run call.
type run struct {
	cfg     Config
	total   int
	pool    *throttle.Pool
	outputs []*output
	cancel  context.CancelFunc

	next      atomic.Int64
	loaded    atomic.Int64
	skipped   atomic.Int64
	ended     atomic.Bool
	estimated sync.Once
}

// Run loads every frame of the source and writes the outputs. Cancelling
// ctx aborts the writers; the files then hold the frames written so far.
func (o *Orchestrator) Run(ctx context.Context, cfg Config) (RunResult, error) {
	started := time.Now()
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.PreviewPath != "" && o.previewStage == nil {
		return RunResult{}, errors.New("orchestrator: preview output configured without a preview stage")
	}

	r := &run{cfg: cfg, total: o.source.Len()}
	if cfg.Limit > 0 && (r.total < 0 || cfg.Limit < r.total) {
		r.total = cfg.Limit
	}
	r.pool = throttle.New(initialCeiling(cfg), o.logger)

	o.logger.Info("Starting run: %d workers, %s output %s", cfg.Workers, cfg.Kind, cfg.OutputPath)
	if o.sink.Enabled() {
		if data, err := json.MarshalIndent(cfg, "", "  "); err == nil {
			o.sink.SaveConfigJSON(data)
		}
	}

	if err := o.openOutputs(r); err != nil {
		return RunResult{}, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	r.cancel = cancel

	expected := max(r.total, 0)
	for _, out := range r.outputs {
		if err := out.writer.Start(expected); err != nil {
			o.closeOutputs(r, nil)
			return RunResult{}, fmt.Errorf("start writer %s: %w", out.name, err)
		}
	}

	// A writer that fails stops consuming; cancelling unblocks producers
	// waiting for slots it would have released.
	for _, out := range r.outputs {
		go func(w *seqwriter.Writer) {
			select {
			case <-w.Done():
				if w.State() == seqwriter.StateFailed {
					cancel()
				}
			case <-runCtx.Done():
			}
		}(out.writer)
	}

	var wg sync.WaitGroup
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			o.produce(runCtx, r)
		}()
	}
	wg.Wait()

	abort := runCtx.Err() != nil
	if abort {
		o.logger.Warn("Interrupted, aborting writers...")
	}

	// A write error is reported before the incomplete outputs it caused.
	results := make([]seqwriter.Result, len(r.outputs))
	var firstErr error
	writeFailed := false
	for i, out := range r.outputs {
		res, err := out.writer.Stop(abort)
		results[i] = res
		if err == nil {
			continue
		}
		failed := res.Status == seqwriter.StatusWriteError
		if firstErr == nil || (failed && !writeFailed) {
			firstErr = fmt.Errorf("output %s: %w", out.name, err)
			writeFailed = failed
		}
	}
	if err := o.closeOutputs(r, results); err != nil && firstErr == nil {
		firstErr = err
	}
	held := r.pool.Active()
	if held > 0 {
		o.logger.Error("%d memory slot(s) still reserved after the run", held)
	}

	result := RunResult{
		Requested: r.total,
		Loaded:    int(r.loaded.Load()),
		Skipped:   int(r.skipped.Load()),
		Workers:   cfg.Workers,
		Ceiling:   r.pool.Ceiling(),
		Aborted:   abort,
		Duration:  time.Since(started),
		SlotsHeld: held,
	}
	for i, out := range r.outputs {
		result.Outputs = append(result.Outputs, OutputResult{
			Name:   out.name,
			Path:   out.path,
			Kind:   out.seq.Kind,
			Result: results[i],
		})
	}

	if firstErr == nil && ctx.Err() != nil {
		firstErr = ctx.Err()
	}
	if firstErr == nil {
		o.logger.Info("Run completed: %d frames written to %s", results[0].FramesWritten, cfg.OutputPath)
	}
	return result, firstErr
}

func initialCeiling(cfg Config) int {
	switch {
	case cfg.MaxActive != 0:
		return cfg.MaxActive
	case cfg.MemoryBudgetBytes > 0:
		// Raised once the size of a frame is known.
		return 1
	default:
		return 2 * cfg.Workers
	}
}

type outputSpec struct {
	seq  ports.Sequence
	path string
}

func (o *Orchestrator) openOutputs(r *run) error {
	mainSeq := ports.NewSequence("main", r.cfg.Kind)
	mainSeq.AllowHeterogeneous = r.cfg.AllowHeterogeneous
	specs := []outputSpec{{mainSeq, r.cfg.OutputPath}}
	if r.cfg.PreviewPath != "" {
		specs = append(specs, outputSpec{ports.NewSequence("preview", r.cfg.PreviewKind), r.cfg.PreviewPath})
	}
	r.pool.SetOutputCount(len(specs))

	for _, spec := range specs {
		enc, err := o.encoders.Create(spec.seq, spec.path)
		if err != nil {
			o.closeOutputs(r, nil)
			return fmt.Errorf("open %s: %w", spec.path, err)
		}
		r.pool.Register(spec.seq.ID)
		out := &output{
			name:    spec.seq.Name,
			path:    spec.path,
			seq:     spec.seq,
			encoder: enc,
		}
		out.writer = seqwriter.New(seqwriter.Config{
			Sequence: spec.seq,
			Hook:     o.hook(out),
			Pool:     r.pool,
			Logger:   o.logger,
		})
		r.outputs = append(r.outputs, out)
	}
	return nil
}

// hook writes a frame to the output's container and mirrors it to the
// debug sink.
func (o *Orchestrator) hook(out *output) ports.FrameWriter {
	return ports.FrameWriterFunc(func(f *frame.Frame, ordinal int) error {
		if err := out.encoder.WriteFrame(f, ordinal); err != nil {
			return err
		}
		if o.sink.Enabled() {
			if img, err := f.ToImage(); err == nil {
				o.sink.SaveFrame(out.name, ordinal, img)
			}
		}
		return nil
	})
}

// closeOutputs finalizes every opened container. results may be nil when
// the run never started.
func (o *Orchestrator) closeOutputs(r *run, results []seqwriter.Result) error {
	var firstErr error
	for i, out := range r.outputs {
		n := 0
		if results != nil {
			n = results[i].FramesWritten
		}
		if err := out.encoder.Close(n); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close %s: %w", out.path, err)
		}
		if results != nil {
			o.logger.Info("Output saved to %s", out.path)
		}
	}
	return firstErr
}

// produce reserves a slot, takes the next index and hands the resulting
// frames to every output, until the source is exhausted or ctx ends.
func (o *Orchestrator) produce(ctx context.Context, r *run) {
	for {
		if r.ended.Load() {
			return
		}
		if err := r.pool.Reserve(ctx); err != nil {
			return
		}
		idx := int(r.next.Add(1) - 1)
		if r.total >= 0 && idx >= r.total {
			r.pool.Release()
			return
		}

		f, err := o.source.Load(ctx, idx)
		switch {
		case errors.Is(err, ports.ErrEndOfSource):
			r.ended.Store(true)
			r.pool.Release()
			return
		case err != nil && ctx.Err() != nil:
			r.pool.Release()
			return
		case err != nil:
			o.logger.Warn("Frame %d could not be produced, skipping: %s", idx, err)
			f = nil
		}
		if f != nil {
			r.loaded.Add(1)
			o.estimate(r, f)
		}

		frames := o.derive(ctx, r, idx, f)
		if frames[0] == nil {
			r.skipped.Add(1)
		}
		if !o.submit(r, idx, frames) {
			return
		}
	}
}

// derive runs the processing stages and returns one frame per output. A nil
// entry marks the index as missing in that output.
func (o *Orchestrator) derive(ctx context.Context, r *run, idx int, f *frame.Frame) []*frame.Frame {
	frames := make([]*frame.Frame, 1, 2)
	if f != nil {
		p, err := o.processStage.Execute(ctx, f)
		if err != nil {
			o.logger.Warn("Frame %d could not be produced, skipping: %s", idx, err)
			if p != nil {
				p.Release()
			}
			p = nil
		}
		frames[0] = p
	}
	if len(r.outputs) < 2 {
		return frames
	}
	var pv *frame.Frame
	if frames[0] != nil {
		var err error
		if pv, err = o.previewStage.Execute(ctx, frames[0]); err != nil {
			o.logger.Warn("Frame %d could not be produced, skipping: %s", idx, err)
			pv = nil
		}
	}
	return append(frames, pv)
}

// submit hands frames[i] to output i. It reports false when a writer
// refused the frame, in which case the run is cancelled.
func (o *Orchestrator) submit(r *run, idx int, frames []*frame.Frame) bool {
	for i, out := range r.outputs {
		if err := out.writer.Submit(frames[i], idx); err != nil {
			// The outputs from i on never get the index; the slot is
			// freed once the ones before are done with it.
			for j, rest := range r.outputs[i:] {
				if f := frames[i+j]; f != nil {
					f.Release()
				}
				r.pool.NotifySkipped(rest.seq.ID, idx)
			}
			r.cancel()
			return false
		}
	}
	return true
}

// estimate sizes the pool from the first frame when a memory budget is set.
func (o *Orchestrator) estimate(r *run, f *frame.Frame) {
	if r.cfg.MaxActive != 0 || r.cfg.MemoryBudgetBytes <= 0 {
		return
	}
	r.estimated.Do(func() {
		perSlot := f.Bytes()
		if len(r.outputs) > 1 {
			perSlot += perSlot / 4
		}
		n := throttle.EstimateCeiling(perSlot, r.cfg.MemoryBudgetBytes)
		n = max(n, 1)
		o.logger.Info("Memory budget allows %d images in flight", n)
		r.pool.SetCeiling(n)
	})
}

// OutputResult is the outcome of one output sequence.
type OutputResult struct {
	Name   string
	Path   string
	Kind   ports.ContainerKind
	Result seqwriter.Result
}

// RunResult contains the results of a run for summary generation.
type RunResult struct {
	Outputs []OutputResult

	Requested int // -1 when the source length was unknown
	Loaded    int
	Skipped   int // indices written as missing frames

	Workers  int
	Ceiling  int
	Aborted  bool
	Duration time.Duration

	// SlotsHeld is the number of memory slots still reserved once every
	// writer has stopped. Anything but zero is a leak.
	SlotsHeld int
}
