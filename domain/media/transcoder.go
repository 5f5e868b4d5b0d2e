package media

import "context"

// Transcoder defines the lossless media operations clip assembly relies on.
// This is a port that can be implemented by different infrastructure adapters
type Transcoder interface {
	// Trim copies durationSec seconds of inputPath starting at startOffsetSec into outputPath
	Trim(ctx context.Context, inputPath, outputPath string, startOffsetSec, durationSec float64) error

	// Concat joins inputPaths in order into outputPath without re-encoding
	Concat(ctx context.Context, inputPaths []string, outputPath string) error
}

// Workspace hands out scratch directories for a single assembly
type Workspace interface {
	// Create returns a new, uniquely named directory
	Create(prefix string) (string, error)

	// Remove deletes the directory and everything in it
	Remove(dir string) error
}
