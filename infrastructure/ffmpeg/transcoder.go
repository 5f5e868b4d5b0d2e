package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"match-highlights/domain/media"
)

// CommandRunner defines the interface for running external commands
// This allows mocking exec.Command in tests
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) error
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecCommandRunner is the production implementation using os/exec
type ExecCommandRunner struct{}

// Run executes a command. Stderr is captured and attached to the error.
func (r *ExecCommandRunner) Run(ctx context.Context, name string, args ...string) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: %s", err, lastLine(stderr.String()))
	}
	return nil
}

// Output executes a command and returns its output
func (r *ExecCommandRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.Output()
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}

// Transcoder implements media.Transcoder using ffmpeg stream copy
type Transcoder struct {
	ffmpegPath string
	runner     CommandRunner
}

// Option is a functional option for configuring Transcoder
type Option func(*Transcoder)

// WithFFmpegPath sets a custom ffmpeg executable path
func WithFFmpegPath(path string) Option {
	return func(t *Transcoder) {
		t.ffmpegPath = path
	}
}

// WithCommandRunner sets a custom command runner (for testing)
func WithCommandRunner(runner CommandRunner) Option {
	return func(t *Transcoder) {
		t.runner = runner
	}
}

// NewTranscoder creates a new FFmpeg-based transcoder
func NewTranscoder(opts ...Option) *Transcoder {
	t := &Transcoder{
		ffmpegPath: "ffmpeg",
		runner:     &ExecCommandRunner{},
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Trim copies durationSec seconds of inputPath starting at startOffsetSec
// into outputPath without re-encoding
func (t *Transcoder) Trim(ctx context.Context, inputPath, outputPath string, startOffsetSec, durationSec float64) error {
	args := []string{
		"-ss", media.FormatOffset(startOffsetSec),
		"-i", inputPath,
		"-t", media.FormatOffset(durationSec),
		"-c", "copy",
		"-y", // Overwrite output file if it exists
		outputPath,
	}

	if err := t.runner.Run(ctx, t.ffmpegPath, args...); err != nil {
		return fmt.Errorf("ffmpeg trim failed: %w", err)
	}

	return nil
}

// Concat joins inputPaths in order into outputPath using the concat demuxer.
// The list file is written next to outputPath.
func (t *Transcoder) Concat(ctx context.Context, inputPaths []string, outputPath string) error {
	if len(inputPaths) == 0 {
		return fmt.Errorf("ffmpeg concat: no inputs")
	}

	listPath := outputPath + ".txt"
	if err := os.WriteFile(listPath, []byte(concatList(inputPaths)), 0644); err != nil {
		return fmt.Errorf("failed to write concat list: %w", err)
	}
	defer os.Remove(listPath)

	args := []string{
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		"-y",
		outputPath,
	}

	if err := t.runner.Run(ctx, t.ffmpegPath, args...); err != nil {
		return fmt.Errorf("ffmpeg concat failed: %w", err)
	}

	return nil
}

// concatList renders the concat demuxer input list. Paths are made absolute
// since ffmpeg resolves them relative to the list file.
func concatList(paths []string) string {
	var b strings.Builder
	for _, p := range paths {
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		fmt.Fprintf(&b, "file '%s'\n", strings.ReplaceAll(p, "'", `'\''`))
	}
	return b.String()
}

// VerifyInstalled checks that ffmpeg is available
func (t *Transcoder) VerifyInstalled(ctx context.Context) error {
	_, err := t.runner.Output(ctx, t.ffmpegPath, "-version")
	if err != nil {
		return fmt.Errorf("ffmpeg not found or not executable: %w", err)
	}
	return nil
}

// Ensure Transcoder implements media.Transcoder
var _ media.Transcoder = (*Transcoder)(nil)
