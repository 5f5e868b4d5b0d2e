package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"match-highlights/domain/distribution"

	"github.com/spf13/cobra"
)

var (
	clipsMatchID      string
	clipsCreatedAfter string
	clipsSince        time.Duration
	clipsJSON         bool
)

var clipsCmd = &cobra.Command{
	Use:   "clips",
	Short: "List generated clips",
	Long: `List the clips in the short clips folder, newest first.

Example:
  match-highlights clips --match-id m1_1718000000000
  match-highlights clips --since 2h
  match-highlights clips --created-after 2025-06-01T14:00:00Z --json`,
	RunE: runClips,
}

func init() {
	rootCmd.AddCommand(clipsCmd)
	clipsCmd.Flags().StringVar(&clipsMatchID, "match-id", "", "Only clips of this match")
	clipsCmd.Flags().StringVar(&clipsCreatedAfter, "created-after", "", "Only clips created after this RFC3339 time")
	clipsCmd.Flags().DurationVar(&clipsSince, "since", 0, "Only clips created within this duration, e.g. 2h")
	clipsCmd.Flags().BoolVar(&clipsJSON, "json", false, "Print clips as JSON")
	clipsCmd.MarkFlagsMutuallyExclusive("created-after", "since")
}

func runClips(cmd *cobra.Command, args []string) error {
	cfg, err := requireConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}

	filter, err := clipsFilter(clipsMatchID, clipsCreatedAfter, clipsSince, time.Now())
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	return RunClipsWithDependencies(cmd.Context(), a.uploads, filter, clipsJSON, DefaultOutput)
}

// clipsFilter builds the list filter from the command flags
func clipsFilter(matchID, createdAfter string, since time.Duration, now time.Time) (distribution.ListFilter, error) {
	filter := distribution.ListFilter{MatchID: matchID}
	switch {
	case createdAfter != "":
		t, err := time.Parse(time.RFC3339, createdAfter)
		if err != nil {
			return filter, fmt.Errorf("invalid --created-after: %w", err)
		}
		filter.CreatedAfter = t
	case since > 0:
		filter.CreatedAfter = now.Add(-since)
	}
	return filter, nil
}

// ClipLister lists stored clips
type ClipLister interface {
	ListClips(ctx context.Context, filter distribution.ListFilter) ([]distribution.Clip, error)
}

// RunClipsWithDependencies runs the clips command with injected dependencies (for testing)
func RunClipsWithDependencies(ctx context.Context, lister ClipLister, filter distribution.ListFilter, asJSON bool, out OutputWriter) error {
	clips, err := lister.ListClips(ctx, filter)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(clips)
	}

	if len(clips) == 0 {
		fmt.Fprintln(out, "No clips found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CREATED\tMATCH\tACTION\tPLAYER\tDURATION\tURL")
	for _, c := range clips {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", c.CreatedDate, c.MatchID, c.ActionType, c.PlayerName, c.Duration, c.ViewURL)
	}
	return w.Flush()
}
