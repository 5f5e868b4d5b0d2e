package cmd

import (
	"context"
	"fmt"

	"match-highlights/application/clip"
	"match-highlights/domain/distribution"
	"match-highlights/domain/media"

	"github.com/spf13/cobra"
)

var (
	cutFileID     string
	cutStart      string
	cutDuration   string
	cutMatchID    string
	cutActionType string
)

var cutCmd = &cobra.Command{
	Use:   "cut",
	Short: "Cut a clip out of one stored file",
	Long: `Cut a clip out of a single file already stored in Google Drive, without
segment resolution. The clip is uploaded to the short clips folder.

Example:
  match-highlights cut --file-id 1AbC --start 00:01:05 --duration 8 --match-id m1`,
	RunE: runCut,
}

func init() {
	rootCmd.AddCommand(cutCmd)
	cutCmd.Flags().StringVar(&cutFileID, "file-id", "", "Drive file id of the source (required)")
	cutCmd.Flags().StringVar(&cutStart, "start", "", "Offset into the file, seconds or HH:MM:SS (required)")
	cutCmd.Flags().StringVar(&cutDuration, "duration", "8", "Clip duration, seconds or HH:MM:SS")
	cutCmd.Flags().StringVar(&cutMatchID, "match-id", "test-match", "Match id recorded on the clip")
	cutCmd.Flags().StringVar(&cutActionType, "action-type", "manual", "Action type recorded on the clip")
	cutCmd.MarkFlagRequired("file-id")
	cutCmd.MarkFlagRequired("start")
}

func runCut(cmd *cobra.Command, args []string) error {
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

	return RunCutWithDependencies(cmd.Context(), a.clips, cutFileID, cutStart, cutDuration, cutMatchID, cutActionType, DefaultOutput)
}

// Cutter cuts a clip out of one stored file
type Cutter interface {
	Cut(ctx context.Context, input clip.CutInput) (*distribution.Clip, error)
}

// RunCutWithDependencies runs the cut command with injected dependencies (for testing)
func RunCutWithDependencies(ctx context.Context, cutter Cutter, fileID, start, duration, matchID, actionType string, out OutputWriter) error {
	startSec, err := parseSecondsFlag("start", start)
	if err != nil {
		return err
	}
	durationSec, err := parseSecondsFlag("duration", duration)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Cutting %s from %s for %s...\n",
		media.FormatOffset(durationSec), media.FormatOffset(startSec), fileID)

	c, err := cutter.Cut(ctx, clip.CutInput{
		FileID:      fileID,
		StartSec:    startSec,
		DurationSec: durationSec,
		MatchID:     matchID,
		ActionType:  actionType,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Clip created successfully!\n")
	printClip(out, c)
	return nil
}

// parseSecondsFlag parses a seconds or HH:MM:SS flag value
func parseSecondsFlag(name, value string) (float64, error) {
	sec, err := media.ParseSeconds(value)
	if err != nil {
		return 0, fmt.Errorf("invalid --%s: %w", name, err)
	}
	return sec, nil
}
