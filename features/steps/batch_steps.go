//go:build integration

package steps

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"match-highlights/application/batch"
	"match-highlights/application/session"
	"match-highlights/domain/distribution"
	"match-highlights/domain/media"

	"github.com/cucumber/godog"
)

// batchContext holds test state for batch scenarios
type batchContext struct {
	segments     []media.Segment
	batch        batch.Batch
	producer     *recordingProducer
	store        *batch.MemoryStore
	orchestrator *batch.Orchestrator
	job          *batch.Job
	ack          *batch.Job
	err          error
}

// SharedBatchContext is reset before each scenario via Before hook
var SharedBatchContext *batchContext

func InitializeBatchScenario(ctx *godog.ScenarioContext) {
	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		producer := &recordingProducer{failAt: make(map[float64]error)}
		store := batch.NewMemoryStore()
		SharedBatchContext = &batchContext{
			producer:     producer,
			store:        store,
			orchestrator: batch.NewOrchestrator(media.NewResolver(0, 0), producer, session.NewRegistry(), store),
		}
		return c, nil
	})

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		SharedBatchContext.orchestrator.Stop()
		return c, nil
	})

	ctx.Step(`^the following batch segments:$`, theFollowingBatchSegments)
	ctx.Step(`^a batch for match "([^"]*)" with actions at ([\d., ]+)$`, aBatchForMatchWithActionsAt)
	ctx.Step(`^uploads fail for the action at (\d+(?:\.\d+)?)$`, uploadsFailForTheActionAt)
	ctx.Step(`^the batch is run$`, theBatchIsRun)
	ctx.Step(`^the batch is submitted to (\d+) workers?$`, theBatchIsSubmittedToWorkers)
	ctx.Step(`^the job status is "([^"]*)"$`, theJobStatusIs)
	ctx.Step(`^(\d+) of (\d+) clips are created$`, clipsAreCreated)
	ctx.Step(`^no clips are created$`, noClipsAreCreated)
	ctx.Step(`^action (\d+) failed with "([^"]*)"$`, actionFailedWith)
	ctx.Step(`^clips were produced for actions at ([\d., ]+) in that order$`, clipsWereProducedInOrder)
	ctx.Step(`^the submission is "([^"]*)"$`, theSubmissionIs)
	ctx.Step(`^the job eventually reaches "([^"]*)"$`, theJobEventuallyReaches)
}

func parseTimestamps(list string) ([]float64, error) {
	var out []float64
	for _, part := range strings.Split(list, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid timestamp %q: %w", part, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func theFollowingBatchSegments(table *godog.Table) error {
	segments, err := parseSegments(table)
	if err != nil {
		return err
	}
	SharedBatchContext.segments = segments
	return nil
}

func aBatchForMatchWithActionsAt(matchID, list string) error {
	timestamps, err := parseTimestamps(list)
	if err != nil {
		return err
	}
	actions := make([]media.Action, 0, len(timestamps))
	for _, ts := range timestamps {
		actions = append(actions, media.Action{TimestampInGame: media.Seconds(ts), ActionType: "goal"})
	}
	SharedBatchContext.batch = batch.Batch{MatchID: matchID, Actions: actions}
	return nil
}

func uploadsFailForTheActionAt(ts float64) error {
	SharedBatchContext.producer.failAt[ts] = fmt.Errorf("%w: quota exceeded", distribution.ErrUploadFailure)
	return nil
}

func theBatchIsRun() error {
	c := SharedBatchContext
	c.batch.Segments = c.segments
	c.job, c.err = c.orchestrator.Run(context.Background(), c.batch)
	return c.err
}

func theBatchIsSubmittedToWorkers(workers int) error {
	c := SharedBatchContext
	c.batch.Segments = c.segments
	c.orchestrator.Start(workers, 4)
	c.ack, c.err = c.orchestrator.Submit(context.Background(), c.batch)
	return c.err
}

func theJobStatusIs(status string) error {
	if got := string(SharedBatchContext.job.Status); got != status {
		return fmt.Errorf("expected status %q, got %q (%s)", status, got, SharedBatchContext.job.Error)
	}
	return nil
}

func clipsAreCreated(succeeded, total int) error {
	job := SharedBatchContext.job
	if job.Succeeded() != succeeded || job.Total != total {
		return fmt.Errorf("expected %d of %d clips, got %d of %d", succeeded, total, job.Succeeded(), job.Total)
	}
	return nil
}

func noClipsAreCreated() error {
	if n := len(SharedBatchContext.producer.produced); n != 0 {
		return fmt.Errorf("expected no clips, got %d", n)
	}
	return nil
}

func actionFailedWith(index int, kind string) error {
	results := SharedBatchContext.job.Results
	if index >= len(results) {
		return fmt.Errorf("no result for action %d", index)
	}
	r := results[index]
	if r.Success || r.ErrorKind != kind {
		return fmt.Errorf("expected action %d to fail with %q, got success=%v kind=%q", index, kind, r.Success, r.ErrorKind)
	}
	return nil
}

func clipsWereProducedInOrder(list string) error {
	want, err := parseTimestamps(list)
	if err != nil {
		return err
	}
	got := SharedBatchContext.producer.produced
	if fmt.Sprint(got) != fmt.Sprint(want) {
		return fmt.Errorf("expected clips for %v, got %v", want, got)
	}
	return nil
}

func theSubmissionIs(status string) error {
	if got := string(SharedBatchContext.ack.Status); got != status {
		return fmt.Errorf("expected submission status %q, got %q", status, got)
	}
	return nil
}

func theJobEventuallyReaches(status string) error {
	c := SharedBatchContext
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, err := c.orchestrator.Get(context.Background(), c.ack.ID)
		if err != nil {
			return err
		}
		if string(job.Status) == status {
			return nil
		}
		time.Sleep(10 * time.Millisecond)
	}
	return fmt.Errorf("job %s did not reach %q", c.ack.ID, status)
}
