// Package e2e contains end-to-end tests for the seqwrite CLI.
// This package has no CGO dependencies so it can run with pre-built binaries.
package e2e

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// getBinaryName returns the test binary name with platform-specific extension
func getBinaryName() string {
	if runtime.GOOS == "windows" {
		return "seqwrite-test.exe"
	}
	return "seqwrite-test"
}

// getBinaryPath returns the path to execute the test binary
// If SEQWRITE_BINARY env var is set, use that instead (for CI with pre-built binaries)
func getBinaryPath(t *testing.T) string {
	if path := os.Getenv("SEQWRITE_BINARY"); path != "" {
		return path
	}
	return filepath.Join(getProjectRoot(t), getBinaryName())
}

func getProjectRoot(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	return filepath.Join(wd, "..", "..")
}

// setup builds the CLI unless a pre-built binary is provided.
func setup(t *testing.T) {
	t.Helper()
	if os.Getenv("SEQWRITE_E2E") != "1" {
		t.Skip("Skipping E2E test (set SEQWRITE_E2E=1 to run)")
	}
	if os.Getenv("SEQWRITE_BINARY") != "" {
		return
	}
	buildCmd := exec.Command("go", "build", "-o", getBinaryName(), "./cmd/seqwrite")
	buildCmd.Dir = getProjectRoot(t)
	if out, err := buildCmd.CombinedOutput(); err != nil {
		t.Fatalf("Failed to build CLI: %v\n%s", err, out)
	}
	t.Cleanup(func() { os.Remove(filepath.Join(getProjectRoot(t), getBinaryName())) })
}

func run(t *testing.T, args ...string) string {
	t.Helper()
	cmd := exec.Command(getBinaryPath(t), args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		t.Fatalf("%v failed: %v\nstdout: %s\nstderr: %s", args, err, stdout.String(), stderr.String())
	}
	return stdout.String()
}

// TestSynthAndInspect writes a SER sequence with an MP4 preview and reads
// both back with the inspect command.
func TestSynthAndInspect(t *testing.T) {
	setup(t)
	dir := t.TempDir()
	ser := filepath.Join(dir, "stars.ser")
	mp4 := filepath.Join(dir, "stars.mp4")

	run(t, "synth",
		"-o", ser,
		"--preview", mp4,
		"--preview-width", "64",
		"--width", "128", "--height", "96",
		"--count", "30", "--drop-every", "10",
		"--summary", filepath.Join(dir, "summary.md"),
		"-Q",
	)

	if out := run(t, "inspect", ser); !strings.Contains(out, "27 frames") {
		t.Errorf("unexpected SER inspection: %s", out)
	}
	if out := run(t, "inspect", mp4); !strings.Contains(out, "27 frames") {
		t.Errorf("unexpected MP4 inspection: %s", out)
	}

	summary, err := os.ReadFile(filepath.Join(dir, "summary.md"))
	if err != nil {
		t.Fatalf("summary not written: %v", err)
	}
	if !strings.Contains(string(summary), "stars.ser") {
		t.Error("summary does not mention the output")
	}
}

// TestVersion checks the version command.
func TestVersion(t *testing.T) {
	setup(t)
	if out := run(t, "version"); !strings.Contains(out, "seqwrite") {
		t.Errorf("unexpected version output: %s", out)
	}
}
