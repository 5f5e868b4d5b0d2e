package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"match-highlights/application/batch"
	"match-highlights/application/clip"
	appdist "match-highlights/application/distribution"
	"match-highlights/application/session"
	"match-highlights/domain/distribution"
	"match-highlights/domain/media"
	"match-highlights/infrastructure/config"
	"match-highlights/infrastructure/drive"
	"match-highlights/infrastructure/ffmpeg"
	"match-highlights/infrastructure/filesystem"
	"match-highlights/infrastructure/jobstore"
	"match-highlights/infrastructure/logging"

	"github.com/sirupsen/logrus"
)

// app holds the production object graph shared by the commands
type app struct {
	cfg          *config.Config
	log          *logrus.Logger
	sessions     *session.Registry
	uploads      *appdist.UploadService
	clips        *clip.Service
	orchestrator *batch.Orchestrator
	jobs         batch.JobStore
}

// interruptRecoverer is implemented by job stores that outlive the process
type interruptRecoverer interface {
	MarkInterrupted(ctx context.Context) (int64, error)
}

// newLogger builds the logger described by the config, writing to stderr
func newLogger(cfg *config.Config) (*logrus.Logger, error) {
	return logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
}

// newApp wires the blob store, transcoder, scratch workspace and job store
// into the clip services. Close releases the job store.
func newApp(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	transcoder := ffmpeg.NewTranscoder()
	verifyCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := transcoder.VerifyInstalled(verifyCtx); err != nil {
		return nil, fmt.Errorf("ffmpeg verification failed: %w", err)
	}

	store, err := drive.Open(ctx, drive.Settings{
		AuthMode:        cfg.Google.AuthMode,
		CredentialsFile: cfg.Google.CredentialsFile,
		TokenFile:       cfg.Google.TokenFile,
		CallbackPort:    cfg.Google.OAuthCallbackPort,
		Scopes:          cfg.Google.OAuthScopes,
		Prompt:          DefaultOutput,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Google Drive client: %w", err)
	}

	workspace, err := filesystem.NewWorkspace(cfg.Paths.ScratchDirectory)
	if err != nil {
		return nil, err
	}

	jobs, err := openJobs(cfg, log)
	if err != nil {
		return nil, err
	}

	return wireApp(cfg, log, store, transcoder, workspace, jobs), nil
}

// openJobs opens the SQLite job database, or keeps jobs in memory for the
// life of the process when paths.job_database is empty
func openJobs(cfg *config.Config, log logrus.FieldLogger) (batch.JobStore, error) {
	if cfg.Paths.JobDatabase == "" {
		log.Warn("paths.job_database is empty, job status is kept in memory and lost on exit")
		return batch.NewMemoryStore(), nil
	}
	return jobstore.Open(cfg.Paths.JobDatabase, log)
}

// wireApp assembles the services over the given infrastructure
func wireApp(cfg *config.Config, log *logrus.Logger, store distribution.BlobStore, transcoder media.Transcoder, workspace media.Workspace, jobs batch.JobStore) *app {
	sessions := session.NewRegistry()
	tagger := distribution.NewTagger(cfg.Google.FullFolderID, cfg.Google.ShortFolderID, cfg.Clips.Extension)
	uploads := appdist.NewUploadService(store, tagger, sessions, cfg.Clips.MimeType, log)
	assembler := clip.NewAssembler(store, transcoder, workspace, cfg.Clips.Extension, log)
	clips := clip.NewService(assembler, tagger, uploads)
	resolver := media.NewResolver(cfg.Clips.BackwardOffset, cfg.Clips.ClipDuration)

	return &app{
		cfg:          cfg,
		log:          log,
		sessions:     sessions,
		uploads:      uploads,
		clips:        clips,
		orchestrator: batch.NewOrchestrator(resolver, clips, sessions, jobs, batch.WithLogger(log)),
		jobs:         jobs,
	}
}

// Close releases resources held by the app
func (a *app) Close() error {
	if c, ok := a.jobs.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
