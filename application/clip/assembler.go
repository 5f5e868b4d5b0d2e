package clip

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"match-highlights/domain/distribution"
	"match-highlights/domain/media"

	"github.com/sirupsen/logrus"
)

// Assembler fetches segment media and produces the trimmed clip bytes
type Assembler struct {
	store      distribution.BlobStore
	transcoder media.Transcoder
	workspace  media.Workspace
	extension  string
	log        logrus.FieldLogger
}

// NewAssembler creates a new Assembler. extension names the container of
// the stored segments, e.g. ".webm".
func NewAssembler(store distribution.BlobStore, transcoder media.Transcoder, workspace media.Workspace, extension string, log logrus.FieldLogger) *Assembler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Assembler{
		store:      store,
		transcoder: transcoder,
		workspace:  workspace,
		extension:  extension,
		log:        log.WithField("component", "assembler"),
	}
}

// Assemble cuts the clip described by cut and returns its bytes.
// Every file created on the way lives in one scratch directory that is
// removed before Assemble returns, whatever the outcome.
func (a *Assembler) Assemble(ctx context.Context, cut media.ResolvedCut) ([]byte, error) {
	dir, err := a.workspace.Create("clip")
	if err != nil {
		return nil, &media.TranscodeError{Step: media.StepFetch, Cause: fmt.Errorf("create scratch directory: %w", err)}
	}
	defer func() {
		if err := a.workspace.Remove(dir); err != nil {
			a.log.WithError(err).WithField("dir", dir).Error("failed to remove scratch directory")
		}
	}()

	source := filepath.Join(dir, "current"+a.extension)

	if cut.PreviousSegment != nil {
		previous := filepath.Join(dir, "previous"+a.extension)
		if err := a.fetch(ctx, cut.PreviousSegment.FileRef, previous); err != nil {
			return nil, err
		}
		if err := a.fetch(ctx, cut.Segment.FileRef, source); err != nil {
			return nil, err
		}

		merged := filepath.Join(dir, "merged"+a.extension)
		if err := a.transcoder.Concat(ctx, []string{previous, source}, merged); err != nil {
			return nil, &media.TranscodeError{Step: media.StepConcat, Cause: err}
		}
		source = merged
	} else if err := a.fetch(ctx, cut.Segment.FileRef, source); err != nil {
		return nil, err
	}

	output := filepath.Join(dir, "clip"+a.extension)
	if err := a.transcoder.Trim(ctx, source, output, cut.StartOffsetSec, cut.DurationSec); err != nil {
		return nil, &media.TranscodeError{Step: media.StepTrim, Cause: err}
	}

	data, err := os.ReadFile(output)
	if err != nil {
		return nil, &media.TranscodeError{Step: media.StepRead, Cause: err}
	}

	a.log.WithFields(logrus.Fields{
		"segment": cut.Segment.FileRef,
		"merged":  cut.NeedsMerge(),
		"offset":  media.FormatOffset(cut.StartOffsetSec),
		"bytes":   len(data),
	}).Debug("clip assembled")

	return data, nil
}

// fetch downloads a stored file to path
func (a *Assembler) fetch(ctx context.Context, fileID, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return &media.TranscodeError{Step: media.StepFetch, Cause: err}
	}

	if err := a.store.Download(ctx, fileID, f); err != nil {
		f.Close()
		return &media.TranscodeError{Step: media.StepFetch, Cause: fmt.Errorf("download %s: %w", fileID, err)}
	}

	if err := f.Close(); err != nil {
		return &media.TranscodeError{Step: media.StepFetch, Cause: err}
	}
	return nil
}
