package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"match-highlights/application/batch"
	"match-highlights/domain/media"

	"github.com/spf13/cobra"
)

var (
	clipBatchFile string
	clipJSON      bool
)

var clipCmd = &cobra.Command{
	Use:   "clip",
	Short: "Cut clips for a batch of actions",
	Long: `Read a batch of actions and segments from a JSON file and cut one clip
per action, waiting for the whole batch to finish.

The file has the same shape as the body of POST /auto-generate-clips:

  {
    "match_id": "m1",
    "actions":  [{"timestamp_in_game": 22, "action_type": "goal"}],
    "segments": [{"file_id": "abc", "segment_start_time_in_game": 0, "duration": 20}]
  }

Use "-" to read the batch from stdin.

Example:
  match-highlights clip --file batch.json
  cat batch.json | match-highlights clip --file - --json`,
	RunE: runClip,
}

func init() {
	rootCmd.AddCommand(clipCmd)
	clipCmd.Flags().StringVarP(&clipBatchFile, "file", "f", "", "Path to the batch JSON file, or - for stdin (required)")
	clipCmd.Flags().BoolVar(&clipJSON, "json", false, "Print the finished job as JSON")
	clipCmd.MarkFlagRequired("file")
}

func runClip(cmd *cobra.Command, args []string) error {
	cfg, err := requireConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}

	b, err := readBatch(clipBatchFile, os.Stdin)
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	return RunClipWithDependencies(cmd.Context(), a.orchestrator, b, clipJSON, DefaultOutput)
}

// BatchRunner processes a batch inline
type BatchRunner interface {
	Run(ctx context.Context, b batch.Batch) (*batch.Job, error)
}

// readBatch decodes a batch from path, or from stdin when path is "-"
func readBatch(path string, stdin io.Reader) (batch.Batch, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return batch.Batch{}, fmt.Errorf("failed to open batch file: %w", err)
		}
		defer f.Close()
		r = f
	}

	var b batch.Batch
	if err := json.NewDecoder(r).Decode(&b); err != nil {
		return batch.Batch{}, fmt.Errorf("failed to parse batch: %w", err)
	}
	return b, nil
}

// RunClipWithDependencies runs the clip command with injected dependencies (for testing)
func RunClipWithDependencies(ctx context.Context, runner BatchRunner, b batch.Batch, asJSON bool, out OutputWriter) error {
	if !asJSON {
		fmt.Fprintf(out, "Cutting %d clip(s) for match %s...\n", len(b.Actions), b.MatchID)
	}

	job, err := runner.Run(ctx, b)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(job)
	}

	printJob(out, job)

	if job.Status == batch.StatusFailed {
		return fmt.Errorf("batch failed: %s", job.Error)
	}
	return nil
}

// printJob renders a job and its per-action results as a table
func printJob(out OutputWriter, job *batch.Job) {
	fmt.Fprintf(out, "Job %s (match %s): %s, %d/%d clip(s) created\n",
		job.ID, job.MatchID, job.Status, job.Succeeded(), job.Total)
	if job.Error != "" {
		fmt.Fprintf(out, "  Error: %s\n", job.Error)
	}
	if len(job.Results) == 0 {
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tTIMESTAMP\tRESULT\tDETAIL")
	for _, r := range job.Results {
		ts := media.TimestampFromSeconds(r.TimestampInGame).String()
		if r.Success && r.Clip != nil {
			fmt.Fprintf(w, "%d\t%s\tok\t%s\n", r.Index, ts, r.Clip.ViewURL)
			continue
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", r.Index, ts, r.ErrorKind, r.Error)
	}
	w.Flush()
}
