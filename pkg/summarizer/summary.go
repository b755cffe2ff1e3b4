package summarizer

import "time"

// Summary contains all data collected during a run.
type Summary struct {
	// Metadata
	GeneratedAt time.Time

	// Input information
	Source SourceInfo

	// One entry per written sequence, main output first
	Outputs []OutputInfo

	// Timing results
	Timing TimingInfo

	// Run settings
	Settings Settings
}

// SourceInfo describes where the frames came from.
type SourceInfo struct {
	Description string

	Requested int // -1 when the length was unknown
	Loaded    int
	Skipped   int
}

// OutputInfo describes one written sequence.
type OutputInfo struct {
	Name      string
	Path      string
	Container string
	Status    string

	FramesWritten int
	FrameCount    int
	Holes         int
	Abandoned     int
	Missing       int

	FileSize int64
	Error    string
}

// TimingInfo contains timing measurements.
type TimingInfo struct {
	DurationMs int
	Aborted    bool
}

// FramesPerSecond returns the write throughput of n frames.
func (t TimingInfo) FramesPerSecond(n int) float64 {
	if t.DurationMs <= 0 {
		return 0
	}
	return float64(n) * 1000 / float64(t.DurationMs)
}

// Settings contains the run configuration.
type Settings struct {
	Workers           int
	Ceiling           int // 0 = unlimited
	MemoryBudgetBytes int64
	Operations        []string
	PreviewWidth      int
}

// NewSummary creates a new Summary with the current timestamp.
func NewSummary() *Summary {
	return &Summary{
		GeneratedAt: time.Now(),
	}
}

// Builder provides a fluent interface for building a Summary.
type Builder struct {
	summary *Summary
}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{
		summary: NewSummary(),
	}
}

// WithSource sets input information.
func (b *Builder) WithSource(source SourceInfo) *Builder {
	b.summary.Source = source
	return b
}

// WithOutput appends an output sequence.
func (b *Builder) WithOutput(output OutputInfo) *Builder {
	b.summary.Outputs = append(b.summary.Outputs, output)
	return b
}

// WithTiming sets timing information.
func (b *Builder) WithTiming(duration time.Duration, aborted bool) *Builder {
	b.summary.Timing = TimingInfo{
		DurationMs: int(duration.Milliseconds()),
		Aborted:    aborted,
	}
	return b
}

// WithSettings sets run settings.
func (b *Builder) WithSettings(settings Settings) *Builder {
	b.summary.Settings = settings
	return b
}

// Build returns the constructed Summary.
func (b *Builder) Build() *Summary {
	return b.summary
}
