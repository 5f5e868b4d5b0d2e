package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"

	"match-highlights/application/batch"
	"match-highlights/infrastructure/jobstore"

	"github.com/spf13/cobra"
)

var (
	jobListLimit int
	jobJSON      bool
)

var jobCmd = &cobra.Command{
	Use:   "job",
	Short: "Inspect batch jobs",
	Long: `Read batch jobs from the job database.

Examples:
  match-highlights job list
  match-highlights job get 3f2c9a6e-...`,
}

var jobGetCmd = &cobra.Command{
	Use:   "get <job-id>",
	Short: "Show a job and its per-action results",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobGet,
}

var jobListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent jobs, newest first",
	RunE:  runJobList,
}

func init() {
	rootCmd.AddCommand(jobCmd)
	jobCmd.AddCommand(jobGetCmd)
	jobCmd.AddCommand(jobListCmd)

	jobCmd.PersistentFlags().BoolVar(&jobJSON, "json", false, "Print as JSON")
	jobListCmd.Flags().IntVar(&jobListLimit, "limit", 20, "Maximum number of jobs to show (0 for all)")
}

// JobReader reads stored jobs
type JobReader interface {
	Get(ctx context.Context, id string) (*batch.Job, error)
	List(ctx context.Context, limit int) ([]*batch.Job, error)
}

var errJobsInMemory = errors.New("paths.job_database is empty: jobs live in the memory of the running server, query GET /jobs/{id} instead")

func openJobStore() (*jobstore.Store, error) {
	cfg, err := requireConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Paths.JobDatabase == "" {
		return nil, errJobsInMemory
	}
	log, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}
	return jobstore.Open(cfg.Paths.JobDatabase, log)
}

func runJobGet(cmd *cobra.Command, args []string) error {
	store, err := openJobStore()
	if err != nil {
		return err
	}
	defer store.Close()

	return RunJobGetWithDependencies(cmd.Context(), store, args[0], jobJSON, DefaultOutput)
}

func runJobList(cmd *cobra.Command, args []string) error {
	store, err := openJobStore()
	if err != nil {
		return err
	}
	defer store.Close()

	return RunJobListWithDependencies(cmd.Context(), store, jobListLimit, jobJSON, DefaultOutput)
}

// RunJobGetWithDependencies runs the job get command with injected dependencies (for testing)
func RunJobGetWithDependencies(ctx context.Context, jobs JobReader, id string, asJSON bool, out OutputWriter) error {
	job, err := jobs.Get(ctx, id)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(job)
	}

	printJob(out, job)
	return nil
}

// RunJobListWithDependencies runs the job list command with injected dependencies (for testing)
func RunJobListWithDependencies(ctx context.Context, jobs JobReader, limit int, asJSON bool, out OutputWriter) error {
	list, err := jobs.List(ctx, limit)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(list)
	}

	if len(list) == 0 {
		fmt.Fprintln(out, "No jobs recorded.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "JOB\tMATCH\tSTATUS\tCLIPS\tCREATED")
	for _, j := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d/%d\t%s\n",
			j.ID, j.MatchID, j.Status, j.Succeeded(), j.Total, j.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}
