// Package main provides the CLI entry point for seqwrite.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/seqwrite/pkg/adapters/containerdetect"
	"github.com/user/seqwrite/pkg/adapters/dirsource"
	"github.com/user/seqwrite/pkg/adapters/filesink"
	"github.com/user/seqwrite/pkg/adapters/fitsseq"
	"github.com/user/seqwrite/pkg/adapters/ggrenderer"
	"github.com/user/seqwrite/pkg/adapters/logger"
	"github.com/user/seqwrite/pkg/adapters/mp4seq"
	"github.com/user/seqwrite/pkg/adapters/nullsink"
	"github.com/user/seqwrite/pkg/adapters/osfilesystem"
	"github.com/user/seqwrite/pkg/adapters/serfile"
	"github.com/user/seqwrite/pkg/adapters/synthsource"
	"github.com/user/seqwrite/pkg/config"
	"github.com/user/seqwrite/pkg/frame"
	"github.com/user/seqwrite/pkg/orchestrator"
	"github.com/user/seqwrite/pkg/pipeline"
	"github.com/user/seqwrite/pkg/ports"
	"github.com/user/seqwrite/pkg/stages/preview"
	"github.com/user/seqwrite/pkg/stages/process"
	"github.com/user/seqwrite/pkg/summarizer"
)

var version = "dev"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "seqwrite",
		Usage:   l10n.T("Write image sequences into single-file containers"),
		Version: version,
		Commands: []*cli.Command{
			{
				Name:      "convert",
				Usage:     l10n.T("Convert a directory of PNG/JPEG images into a sequence"),
				ArgsUsage: "<input-dir>",
				Flags:     runFlags(),
				Action:    convertAction,
			},
			{
				Name:   "synth",
				Usage:  l10n.T("Write a generated star field sequence"),
				Flags:  append(runFlags(), synthFlags()...),
				Action: synthAction,
			},
			{
				Name:      "inspect",
				Usage:     l10n.T("Show the frame count and geometry of a sequence file"),
				ArgsUsage: "<file>",
				Action:    inspectAction,
			},
			{
				Name:  "version",
				Usage: l10n.T("Show version information"),
				Action: func(c *cli.Context) error {
					fmt.Println(l10n.F("seqwrite version %s", version))
					return nil
				},
			},
		},
	}
}

func runFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "config", Usage: l10n.T("YAML configuration file"), Category: l10n.T("Input")},
		&cli.StringFlag{Name: "depth", Usage: l10n.T("Sample depth (16 or 32f)"), Category: l10n.T("Input")},
		&cli.IntFlag{Name: "limit", Usage: l10n.T("Maximum number of frames to take from the input"), Category: l10n.T("Input")},

		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: l10n.T("Output sequence file path (required)"), Category: l10n.T("Output")},
		&cli.StringFlag{Name: "container", Aliases: []string{"c"}, Usage: l10n.T("Container format (fitseq, ser, mp4); guessed from the output extension when omitted"), Category: l10n.T("Output")},
		&cli.BoolFlag{Name: "allow-heterogeneous", Usage: l10n.T("Allow FITS frames of different sizes"), Category: l10n.T("Output")},
		&cli.StringFlag{Name: "preview", Usage: l10n.T("Also write a reduced preview sequence to this path"), Category: l10n.T("Output")},
		&cli.StringFlag{Name: "preview-container", Usage: l10n.T("Container format of the preview"), Category: l10n.T("Output")},
		&cli.IntFlag{Name: "preview-width", Usage: l10n.T("Width of the preview frames in pixels"), Category: l10n.T("Output")},
		&cli.StringFlag{Name: "summary", Usage: l10n.T("Output execution summary to file (Markdown format)"), Category: l10n.T("Output")},

		&cli.StringSliceFlag{Name: "op", Usage: l10n.T("Processing operation (normalize, invert, bin2, gray); repeatable"), Category: l10n.T("Processing")},
		&cli.IntFlag{Name: "workers", Aliases: []string{"w"}, Usage: l10n.T("Number of producer goroutines"), Category: l10n.T("Processing")},
		&cli.IntFlag{Name: "max-active", Usage: l10n.T("Maximum images held in memory (0 = from memory budget, negative = unlimited)"), Category: l10n.T("Processing")},
		&cli.IntFlag{Name: "memory-budget", Usage: l10n.T("Memory budget in MiB for images in flight"), Category: l10n.T("Processing")},

		&cli.Float64Flag{Name: "fps", Usage: l10n.T("Frame rate of MP4 outputs"), Category: l10n.T("Encoding")},
		&cli.IntFlag{Name: "quality", Aliases: []string{"q"}, Usage: l10n.T("JPEG quality of MP4 samples (1-100)"), Category: l10n.T("Encoding")},
		&cli.StringFlag{Name: "observer", Usage: l10n.T("Observer name stored in SER headers"), Category: l10n.T("Encoding")},
		&cli.StringFlag{Name: "telescope", Usage: l10n.T("Telescope name stored in SER headers"), Category: l10n.T("Encoding")},

		&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: l10n.T("Save every written frame as PNG"), Category: l10n.T("Debug")},
		&cli.StringFlag{Name: "debug-dir", Usage: l10n.T("Directory for debug output"), Category: l10n.T("Debug")},

		&cli.StringFlag{Name: "log-level", Aliases: []string{"l"}, Value: "info", Usage: l10n.T("Log level (debug, info, warn, error)"), Category: l10n.T("Logging")},
		&cli.BoolFlag{Name: "quiet", Aliases: []string{"Q"}, Usage: l10n.T("Suppress all log output"), Category: l10n.T("Logging")},
	}
}

func synthFlags() []cli.Flag {
	cat := l10n.T("Synthetic frames")
	return []cli.Flag{
		&cli.IntFlag{Name: "width", Usage: l10n.T("Frame width in pixels"), Category: cat},
		&cli.IntFlag{Name: "height", Usage: l10n.T("Frame height in pixels"), Category: cat},
		&cli.IntFlag{Name: "channels", Usage: l10n.T("1 for mono, 3 for colour"), Category: cat},
		&cli.IntFlag{Name: "count", Usage: l10n.T("Number of frames (0 = until interrupted)"), Category: cat},
		&cli.IntFlag{Name: "stars", Usage: l10n.T("Number of stars"), Category: cat},
		&cli.Int64Flag{Name: "seed", Usage: l10n.T("Random seed for star placement"), Category: cat},
		&cli.IntFlag{Name: "drop-every", Usage: l10n.T("Make every Nth frame missing"), Category: cat},
		&cli.BoolFlag{Name: "label", Usage: l10n.T("Draw the frame number on each frame"), Category: cat},
	}
}

// loadConfig reads the YAML file given by --config, then applies the flags
// set on the command line.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Defaults()
	if path := c.String("config"); path != "" {
		var err error
		if cfg, err = config.LoadFromFile(path); err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
	}

	setString := func(name string, dst *string) {
		if c.IsSet(name) {
			*dst = c.String(name)
		}
	}
	setInt := func(name string, dst *int) {
		if c.IsSet(name) {
			*dst = c.Int(name)
		}
	}

	setString("output", &cfg.OutputPath)
	setString("container", &cfg.Container)
	setString("depth", &cfg.Depth)
	setString("preview", &cfg.Preview.Path)
	setString("preview-container", &cfg.Preview.Container)
	setString("debug-dir", &cfg.DebugDir)
	setString("observer", &cfg.SER.Observer)
	setString("telescope", &cfg.SER.Telescope)
	setInt("limit", &cfg.Limit)
	setInt("preview-width", &cfg.Preview.Width)
	setInt("workers", &cfg.Workers)
	setInt("max-active", &cfg.MaxActiveBlocks)
	setInt("memory-budget", &cfg.MemoryBudgetMB)
	setInt("quality", &cfg.JPEGQuality)
	if c.IsSet("allow-heterogeneous") {
		cfg.AllowHeterogeneous = c.Bool("allow-heterogeneous")
	}
	if c.IsSet("op") {
		cfg.Operations = c.StringSlice("op")
	}
	if c.IsSet("fps") {
		cfg.FPS = c.Float64("fps")
	}
	if c.IsSet("debug") {
		cfg.Debug = c.Bool("debug")
	}

	// The container follows the output extension unless given explicitly.
	if !c.IsSet("container") && cfg.OutputPath != "" {
		if kind, err := ports.ParseContainerKind(strings.TrimPrefix(filepath.Ext(cfg.OutputPath), ".")); err == nil {
			cfg.Container = kind.String()
		}
	}

	// Synthetic source
	setInt("width", &cfg.Synth.Width)
	setInt("height", &cfg.Synth.Height)
	setInt("channels", &cfg.Synth.Channels)
	setInt("count", &cfg.Synth.Count)
	setInt("stars", &cfg.Synth.Stars)
	setInt("drop-every", &cfg.Synth.DropEvery)
	if c.IsSet("seed") {
		cfg.Synth.Seed = c.Int64("seed")
	}
	if c.IsSet("label") {
		cfg.Synth.Label = c.Bool("label")
	}

	return cfg, cfg.Validate()
}

func newLogger(c *cli.Context) ports.Logger {
	if c.Bool("quiet") {
		return logger.NewNoop()
	}
	return logger.NewConsole(ports.ParseLogLevel(c.String("log-level")))
}

func convertAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New(l10n.T("convert requires exactly one input directory"))
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	cfg.InputDir = c.Args().First()

	log := newLogger(c)
	fs := osfilesystem.New()
	renderer := ggrenderer.New()
	depth, _ := config.ParseDepth(cfg.Depth)

	src, err := dirsource.New(fs, renderer, cfg.InputDir, depth, log)
	if err != nil {
		return err
	}
	return run(c, cfg, src, cfg.InputDir, log)
}

func synthAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	log := newLogger(c)

	src, err := synthsource.New(ggrenderer.New(), cfg.SynthOptions(time.Now()))
	if err != nil {
		return err
	}
	desc := fmt.Sprintf("synthetic %dx%dx%d, %d stars", cfg.Synth.Width, cfg.Synth.Height, cfg.Synth.Channels, cfg.Synth.Stars)
	return run(c, cfg, src, desc, log)
}

// run wires the adapters and stages around the orchestrator and reports
// the outcome.
func run(c *cli.Context, cfg config.Config, src ports.FrameSource, desc string, log ports.Logger) error {
	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	// The first signal aborts the writers; files keep what was written.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			log.Warn(l10n.T("Interrupted, shutting down..."))
			cancel()
		case <-ctx.Done():
		}
	}()

	fs := osfilesystem.New()
	renderer := ggrenderer.New()

	var sink ports.DebugSink
	if cfg.Debug {
		if err := fs.MkdirAll(cfg.DebugDir); err != nil {
			return fmt.Errorf("create debug directory: %w", err)
		}
		sink = filesink.New(cfg.DebugDir, fs, renderer)
	} else {
		sink = nullsink.New()
	}

	var previewStage pipeline.Stage[*frame.Frame, *frame.Frame]
	if cfg.Preview.Path != "" {
		previewStage = preview.NewStage(renderer, cfg.Preview.Width, log)
	}

	orch := orchestrator.New(
		src,
		process.NewStage(cfg.ProcessOperations(), log),
		previewStage,
		newEncoderFactory(fs, renderer, cfg, log),
		sink,
		log,
	)

	result, runErr := orch.Run(ctx, cfg.ToOrchestratorConfig())

	if path := c.String("summary"); path != "" && len(result.Outputs) > 0 {
		s := buildSummary(cfg, desc, result)
		w := summarizer.NewWriter(summarizer.NewMarkdownFormatter(
			summarizer.WithTranslator(l10n.T),
			summarizer.WithVersion(version),
		), fs)
		if err := w.Write(path, s); err != nil {
			log.Error(l10n.F("Failed to write summary: %s", err))
		} else {
			log.Info(l10n.F("Summary saved to %s", path))
		}
	}
	return runErr
}

func buildSummary(cfg config.Config, desc string, result orchestrator.RunResult) *summarizer.Summary {
	b := summarizer.NewBuilder().
		WithSource(summarizer.SourceInfo{
			Description: desc,
			Requested:   result.Requested,
			Loaded:      result.Loaded,
			Skipped:     result.Skipped,
		}).
		WithTiming(result.Duration, result.Aborted).
		WithSettings(summarizer.Settings{
			Workers:           result.Workers,
			Ceiling:           result.Ceiling,
			MemoryBudgetBytes: int64(cfg.MemoryBudgetMB) << 20,
			Operations:        cfg.Operations,
			PreviewWidth:      cfg.Preview.Width,
		})
	for _, out := range result.Outputs {
		info := summarizer.OutputInfo{
			Name:          out.Name,
			Path:          out.Path,
			Container:     out.Kind.String(),
			Status:        out.Result.Status.String(),
			FramesWritten: out.Result.FramesWritten,
			FrameCount:    out.Result.FrameCount,
			Holes:         out.Result.Holes,
			Abandoned:     out.Result.Abandoned,
			Missing:       out.Result.Missing,
		}
		if st, err := os.Stat(out.Path); err == nil {
			info.FileSize = st.Size()
		}
		if out.Result.Err != nil {
			info.Error = out.Result.Err.Error()
		}
		b.WithOutput(info)
	}
	return b.Build()
}

func inspectAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New(l10n.T("inspect requires exactly one file"))
	}
	path := c.Args().First()
	fs := osfilesystem.New()
	kind, err := containerdetect.DetectFromFile(fs, path)
	if errors.Is(err, containerdetect.ErrUnknownFormat) {
		// Fall back to the extension, the reader then reports the problem.
		kind, err = ports.ParseContainerKind(strings.TrimPrefix(filepath.Ext(path), "."))
	}
	if err != nil {
		return err
	}

	r, err := fs.Open(path)
	if err != nil {
		return err
	}
	defer r.Close()

	var info ports.SequenceInfo
	switch kind {
	case ports.ContainerSER:
		info, err = serfile.Inspect(r)
	case ports.ContainerMP4:
		info, err = mp4seq.Inspect(r)
	default:
		info, err = fitsseq.Inspect(r)
	}
	if err != nil {
		return err
	}

	fmt.Println(l10n.F("%s: %s sequence, %d frames", path, info.Kind, info.Frames))
	if info.Frames > 0 {
		fmt.Println(l10n.F("First frame: %dx%d, %d channel(s), %d bits", info.Width, info.Height, info.Channels, info.Bits))
	}
	if info.Heterogeneous {
		fmt.Println(l10n.T("Frames have different sizes"))
	}
	return nil
}
