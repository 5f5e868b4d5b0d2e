//go:build integration

package steps

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"match-highlights/domain/media"

	"github.com/cucumber/godog"
)

// resolverContext holds test state for resolution scenarios
type resolverContext struct {
	resolver *media.Resolver
	segments []media.Segment
	cut      media.ResolvedCut
	err      error
}

// SharedResolverContext is reset before each scenario via Before hook
var SharedResolverContext *resolverContext

func InitializeResolverScenario(ctx *godog.ScenarioContext) {
	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		SharedResolverContext = &resolverContext{resolver: media.NewResolver(0, 0)}
		return c, nil
	})

	ctx.Step(`^the backward offset is (\d+(?:\.\d+)?) seconds and the clip duration is (\d+(?:\.\d+)?) seconds$`, theBackwardOffsetAndClipDurationAre)
	ctx.Step(`^the following segments:$`, theFollowingSegments)
	ctx.Step(`^I resolve an action at (\d+(?:\.\d+)?) seconds$`, iResolveAnActionAt)
	ctx.Step(`^I resolve an action at (\d+(?:\.\d+)?) seconds asking for (\d+(?:\.\d+)?) seconds$`, iResolveAnActionAskingFor)
	ctx.Step(`^the clip is cut from "([^"]*)" at offset (\d+\.\d{3})$`, theClipIsCutFromAtOffset)
	ctx.Step(`^no previous segment is merged$`, noPreviousSegmentIsMerged)
	ctx.Step(`^"([^"]*)" is merged before it$`, isMergedBeforeIt)
	ctx.Step(`^resolution fails with no matching segment$`, resolutionFailsWithNoMatchingSegment)
	ctx.Step(`^the clip is (\d+\.\d{3}) seconds long$`, theClipIsSecondsLong)
}

func theBackwardOffsetAndClipDurationAre(offset, duration float64) error {
	SharedResolverContext.resolver = media.NewResolver(offset, duration)
	return nil
}

func theFollowingSegments(table *godog.Table) error {
	segments, err := parseSegments(table)
	if err != nil {
		return err
	}
	SharedResolverContext.segments = segments
	return nil
}

// parseSegments reads a file_id | start | duration table
func parseSegments(table *godog.Table) ([]media.Segment, error) {
	var segments []media.Segment
	for i, row := range table.Rows {
		if i == 0 {
			continue
		}
		start, err := strconv.ParseFloat(row.Cells[1].Value, 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		duration, err := strconv.ParseFloat(row.Cells[2].Value, 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		segments = append(segments, media.Segment{
			FileRef:         row.Cells[0].Value,
			StartTimeInGame: media.Seconds(start),
			DurationSec:     media.Seconds(duration),
		})
	}
	return segments, nil
}

func resolve(action media.Action) error {
	c := SharedResolverContext
	index, err := media.NewSegmentIndex(c.segments)
	if err != nil {
		return err
	}
	c.cut, c.err = c.resolver.Resolve(action, index)
	return nil
}

func iResolveAnActionAt(ts float64) error {
	return resolve(media.Action{TimestampInGame: media.Seconds(ts)})
}

func iResolveAnActionAskingFor(ts, duration float64) error {
	return resolve(media.Action{TimestampInGame: media.Seconds(ts), RequestedDurationSec: media.Seconds(duration)})
}

func theClipIsCutFromAtOffset(file, offset string) error {
	c := SharedResolverContext
	if c.err != nil {
		return fmt.Errorf("unexpected resolution error: %w", c.err)
	}
	if c.cut.Segment.FileRef != file {
		return fmt.Errorf("expected segment %q, got %q", file, c.cut.Segment.FileRef)
	}
	if got := media.FormatOffset(c.cut.StartOffsetSec); got != offset {
		return fmt.Errorf("expected offset %s, got %s", offset, got)
	}
	return nil
}

func noPreviousSegmentIsMerged() error {
	if prev := SharedResolverContext.cut.PreviousSegment; prev != nil {
		return fmt.Errorf("expected no merge, got previous segment %q", prev.FileRef)
	}
	return nil
}

func isMergedBeforeIt(file string) error {
	prev := SharedResolverContext.cut.PreviousSegment
	if prev == nil {
		return fmt.Errorf("expected %q to be merged, got no previous segment", file)
	}
	if prev.FileRef != file {
		return fmt.Errorf("expected previous segment %q, got %q", file, prev.FileRef)
	}
	return nil
}

func resolutionFailsWithNoMatchingSegment() error {
	if !errors.Is(SharedResolverContext.err, media.ErrNoMatchingSegment) {
		return fmt.Errorf("expected no matching segment error, got %v", SharedResolverContext.err)
	}
	return nil
}

func theClipIsSecondsLong(duration string) error {
	c := SharedResolverContext
	if c.err != nil {
		return fmt.Errorf("unexpected resolution error: %w", c.err)
	}
	if got := media.FormatOffset(c.cut.DurationSec); got != duration {
		return fmt.Errorf("expected duration %s, got %s", duration, got)
	}
	return nil
}
