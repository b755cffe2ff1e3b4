package summarizer

import (
	"fmt"
	"strings"
)

// MarkdownFormatter renders a Summary as a Markdown document.
type MarkdownFormatter struct {
	translate func(string) string
	version   string
}

// MarkdownOption configures a MarkdownFormatter.
type MarkdownOption func(*MarkdownFormatter)

// WithTranslator sets the function used to translate labels.
func WithTranslator(t func(string) string) MarkdownOption {
	return func(f *MarkdownFormatter) {
		f.translate = t
	}
}

// WithVersion sets the version shown in the footer.
func WithVersion(v string) MarkdownOption {
	return func(f *MarkdownFormatter) {
		f.version = v
	}
}

// NewMarkdownFormatter creates a formatter. Labels are left untranslated
// unless WithTranslator is given.
func NewMarkdownFormatter(opts ...MarkdownOption) *MarkdownFormatter {
	f := &MarkdownFormatter{
		translate: func(s string) string { return s },
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format implements Formatter.
func (f *MarkdownFormatter) Format(s *Summary) string {
	t := f.translate
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", t("Run Summary"))

	// Source
	fmt.Fprintf(&b, "## %s\n\n", t("Source"))
	if s.Source.Description != "" {
		fmt.Fprintf(&b, "- **%s**: %s\n", t("Input"), s.Source.Description)
	}
	requested := t("Unknown")
	if s.Source.Requested >= 0 {
		requested = fmt.Sprintf("%d", s.Source.Requested)
	}
	fmt.Fprintf(&b, "- **%s**: %s\n", t("Requested Frames"), requested)
	fmt.Fprintf(&b, "- **%s**: %d\n", t("Loaded Frames"), s.Source.Loaded)
	fmt.Fprintf(&b, "- **%s**: %d\n\n", t("Skipped Frames"), s.Source.Skipped)

	// Outputs
	if len(s.Outputs) > 0 {
		fmt.Fprintf(&b, "## %s\n\n", t("Outputs"))
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s | %s |\n",
			t("Name"), t("Path"), t("Container"), t("Status"),
			t("Written"), t("Holes"), t("Missing"), t("File Size"))
		b.WriteString("|---|---|---|---|---:|---:|---:|---:|\n")
		for _, o := range s.Outputs {
			fmt.Fprintf(&b, "| %s | `%s` | %s | %s | %d / %d | %d | %d | %s |\n",
				o.Name, o.Path, o.Container, t(o.Status),
				o.FramesWritten, o.FrameCount, o.Holes, o.Missing, formatBytes(o.FileSize))
		}
		b.WriteString("\n")
		for _, o := range s.Outputs {
			if o.Error != "" {
				fmt.Fprintf(&b, "> **%s** (%s): %s\n\n", t("Error"), o.Name, o.Error)
			}
		}
	}

	// Timing
	fmt.Fprintf(&b, "## %s\n\n", t("Timing"))
	fmt.Fprintf(&b, "- **%s**: %d ms\n", t("Duration"), s.Timing.DurationMs)
	if len(s.Outputs) > 0 {
		fps := s.Timing.FramesPerSecond(s.Outputs[0].FramesWritten)
		fmt.Fprintf(&b, "- **%s**: %.1f fps\n", t("Throughput"), fps)
	}
	if s.Timing.Aborted {
		fmt.Fprintf(&b, "- **%s**: %s\n", t("Interrupted"), t("Yes"))
	}
	b.WriteString("\n")

	// Settings
	fmt.Fprintf(&b, "## %s\n\n", t("Settings"))
	fmt.Fprintf(&b, "- **%s**: %d\n", t("Workers"), s.Settings.Workers)
	ceiling := t("Unlimited")
	if s.Settings.Ceiling > 0 {
		ceiling = fmt.Sprintf("%d", s.Settings.Ceiling)
	}
	fmt.Fprintf(&b, "- **%s**: %s\n", t("Images in Flight"), ceiling)
	if s.Settings.MemoryBudgetBytes > 0 {
		fmt.Fprintf(&b, "- **%s**: %s\n", t("Memory Budget"), formatBytes(s.Settings.MemoryBudgetBytes))
	}
	if len(s.Settings.Operations) > 0 {
		fmt.Fprintf(&b, "- **%s**: %s\n", t("Operations"), strings.Join(s.Settings.Operations, ", "))
	}
	if s.Settings.PreviewWidth > 0 {
		fmt.Fprintf(&b, "- **%s**: %d px\n", t("Preview Width"), s.Settings.PreviewWidth)
	}
	b.WriteString("\n---\n\n")

	generated := s.GeneratedAt.Format("2006-01-02 15:04:05 MST")
	if f.version != "" {
		fmt.Fprintf(&b, "*%s seqwrite %s, %s*\n", t("Generated by"), f.version, generated)
	} else {
		fmt.Fprintf(&b, "*%s seqwrite, %s*\n", t("Generated by"), generated)
	}
	return b.String()
}

// formatBytes renders a size with binary units.
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit && exp < 2; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(n)/float64(div), "KMG"[exp])
}

var _ Formatter = (*MarkdownFormatter)(nil)
