package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	appdist "match-highlights/application/distribution"
	"match-highlights/domain/distribution"

	"github.com/spf13/cobra"
)

var (
	segmentPath     string
	segmentMatchID  string
	segmentStart    string
	segmentDuration string
)

var uploadSegmentCmd = &cobra.Command{
	Use:   "upload-segment",
	Short: "Upload a raw recording segment to Google Drive",
	Long: `Upload one recorded segment into the full clips folder and share it.

The first segment of a match (start 0) opens a session: the stored match id
becomes <match-id>_<unix millis>. Sessions only live as long as the process,
so later segments of a CLI upload keep the match id they are given.

Example:
  match-highlights upload-segment --file seg-000.webm --match-id m1 --start 0
  match-highlights upload-segment --file seg-001.webm --match-id m1_1718000000000 --start 20 --duration 20`,
	RunE: runUploadSegment,
}

func init() {
	rootCmd.AddCommand(uploadSegmentCmd)
	uploadSegmentCmd.Flags().StringVar(&segmentPath, "file", "", "Path to the segment file (required)")
	uploadSegmentCmd.Flags().StringVar(&segmentMatchID, "match-id", "", "Match id the segment belongs to (required)")
	uploadSegmentCmd.Flags().StringVar(&segmentStart, "start", "0", "Segment start in the game, seconds or HH:MM:SS")
	uploadSegmentCmd.Flags().StringVar(&segmentDuration, "duration", "", "Segment duration, seconds or HH:MM:SS (default 20s)")
	uploadSegmentCmd.MarkFlagRequired("file")
	uploadSegmentCmd.MarkFlagRequired("match-id")
}

func runUploadSegment(cmd *cobra.Command, args []string) error {
	cfg, err := requireConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	return RunUploadSegmentWithDependencies(cmd.Context(), a.uploads, segmentPath, segmentMatchID, segmentStart, segmentDuration, DefaultOutput)
}

// SegmentUploader stores raw segments
type SegmentUploader interface {
	UploadSegment(ctx context.Context, input appdist.SegmentInput) (*appdist.SegmentResult, error)
}

// RunUploadSegmentWithDependencies runs the upload-segment command with injected dependencies (for testing)
func RunUploadSegmentWithDependencies(ctx context.Context, uploader SegmentUploader, path, matchID, start, duration string, out OutputWriter) error {
	startSec, err := parseSecondsFlag("start", start)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open segment: %w", err)
	}
	defer f.Close()

	fmt.Fprintf(out, "Uploading segment: %s...\n", filepath.Base(path))

	result, err := uploader.UploadSegment(ctx, appdist.SegmentInput{
		MatchID:         matchID,
		StartTimeInGame: startSec,
		Duration:        duration,
		FileName:        filepath.Base(path),
		Body:            f,
	})
	if err != nil {
		return fmt.Errorf("segment upload failed: %w", err)
	}

	fmt.Fprintf(out, "Segment uploaded successfully!\n")
	printClip(out, result.Clip)
	fmt.Fprintf(out, "  Match ID: %s\n", result.MatchID)
	return nil
}

// printClip renders the links of a stored clip
func printClip(out OutputWriter, c *distribution.Clip) {
	if c == nil {
		return
	}
	fmt.Fprintf(out, "  File ID: %s\n", c.GoogleFileID)
	fmt.Fprintf(out, "  Name: %s\n", c.Name)
	fmt.Fprintf(out, "  View URL: %s\n", c.ViewURL)
	fmt.Fprintf(out, "  Download URL: %s\n", c.DownloadURL)
}
