//go:build integration

package steps

import (
	"context"
	"fmt"
	"strings"
	"time"

	"match-highlights/application/batch"
	appdist "match-highlights/application/distribution"
	"match-highlights/application/session"
	"match-highlights/domain/distribution"
	"match-highlights/domain/media"

	"github.com/cucumber/godog"
)

// sessionContext holds test state for session scenarios
type sessionContext struct {
	registry *session.Registry
	matchID  string
}

// SharedSessionContext is reset before each scenario via Before hook
var SharedSessionContext *sessionContext

func InitializeSessionScenario(ctx *godog.ScenarioContext) {
	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		SharedSessionContext = &sessionContext{registry: session.NewRegistry()}
		return c, nil
	})

	ctx.Step(`^the clock reads (\d+) milliseconds$`, theClockReadsMilliseconds)
	ctx.Step(`^a segment of "([^"]*)" starting at (\d+) is uploaded$`, aSegmentOfStartingAtIsUploaded)
	ctx.Step(`^the effective match id is "([^"]*)"$`, theEffectiveMatchIDIs)
	ctx.Step(`^a batch for "([^"]*)" is tagged "([^"]*)"$`, aBatchForIsTagged)
}

func theClockReadsMilliseconds(ms int64) error {
	SharedSessionContext.registry = session.NewRegistry(session.WithClock(func() time.Time {
		return time.UnixMilli(ms)
	}))
	return nil
}

func aSegmentOfStartingAtIsUploaded(matchID string, start int) error {
	c := SharedSessionContext
	tagger := distribution.NewTagger("full", "short", ".webm")
	uploads := appdist.NewUploadService(&memoryBlobStore{}, tagger, c.registry, distribution.MimeTypeWebM, nil)

	result, err := uploads.UploadSegment(context.Background(), appdist.SegmentInput{
		MatchID:         matchID,
		StartTimeInGame: float64(start),
		Body:            strings.NewReader("segment"),
	})
	if err != nil {
		return err
	}
	if got := result.Clip.MatchID; got != result.MatchID {
		return fmt.Errorf("segment stored under %q but session is %q", got, result.MatchID)
	}
	c.matchID = result.MatchID
	return nil
}

func theEffectiveMatchIDIs(expected string) error {
	if SharedSessionContext.matchID != expected {
		return fmt.Errorf("expected effective match id %q, got %q", expected, SharedSessionContext.matchID)
	}
	return nil
}

func aBatchForIsTagged(callerID, expected string) error {
	o := batch.NewOrchestrator(media.NewResolver(0, 0), &recordingProducer{}, SharedSessionContext.registry, batch.NewMemoryStore())
	job, err := o.Run(context.Background(), batch.Batch{MatchID: callerID})
	if err != nil {
		return err
	}
	if job.MatchID != expected {
		return fmt.Errorf("expected batch match id %q, got %q", expected, job.MatchID)
	}
	return nil
}
