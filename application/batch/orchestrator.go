// Package batch drives batches of actions through resolution, assembly and
// upload, either inline or on a pool of background workers.
package batch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"match-highlights/domain/distribution"
	"match-highlights/domain/media"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Producer turns a resolved cut into a stored clip
type Producer interface {
	Produce(ctx context.Context, matchID string, action media.Action, cut media.ResolvedCut) (*distribution.Clip, error)
}

// SessionLookup returns the effective match id for a caller id
type SessionLookup interface {
	Lookup(callerID string) string
}

// Orchestrator runs batches. Actions of one batch are processed strictly in
// order; separate batches run concurrently on the worker pool.
type Orchestrator struct {
	resolver *media.Resolver
	producer Producer
	sessions SessionLookup
	store    JobStore
	log      logrus.FieldLogger
	now      func() time.Time
	newID    func() string

	mu      sync.RWMutex
	queue   chan queuedJob
	running bool
	wg      sync.WaitGroup
}

type queuedJob struct {
	job   *Job
	batch Batch
}

// Option is a functional option for configuring Orchestrator
type Option func(*Orchestrator)

// WithClock sets the time source for job timestamps and generated match ids
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// WithJobIDGenerator sets the job id generator
func WithJobIDGenerator(newID func() string) Option {
	return func(o *Orchestrator) {
		o.newID = newID
	}
}

// WithLogger sets the logger
func WithLogger(log logrus.FieldLogger) Option {
	return func(o *Orchestrator) {
		o.log = log
	}
}

// NewOrchestrator creates a new Orchestrator
func NewOrchestrator(resolver *media.Resolver, producer Producer, sessions SessionLookup, store JobStore, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		resolver: resolver,
		producer: producer,
		sessions: sessions,
		store:    store,
		log:      logrus.StandardLogger(),
		now:      time.Now,
		newID:    uuid.NewString,
	}

	for _, opt := range opts {
		opt(o)
	}

	o.log = o.log.WithField("component", "batch")
	return o
}

// Start launches workers consuming up to queueSize pending jobs
func (o *Orchestrator) Start(workers, queueSize int) {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.running {
		return
	}

	o.queue = make(chan queuedJob, queueSize)
	o.running = true
	for i := 1; i <= workers; i++ {
		o.wg.Add(1)
		go o.work(i, o.queue)
	}
	o.log.WithField("workers", workers).Info("batch workers started")
}

// Stop stops accepting jobs and waits for queued and in-flight jobs to finish
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if !o.running {
		o.mu.Unlock()
		return
	}
	o.running = false
	close(o.queue)
	o.mu.Unlock()

	o.wg.Wait()
	o.log.Info("batch workers stopped")
}

// Submit records the batch and queues it for background processing.
// It returns as soon as the job is acknowledged; per-action results are
// available later through Get.
func (o *Orchestrator) Submit(ctx context.Context, batch Batch) (*Job, error) {
	job, err := o.receive(ctx, batch)
	if err != nil {
		return nil, err
	}

	o.mu.RLock()
	defer o.mu.RUnlock()

	if !o.running {
		o.fail(ctx, job, ErrNotAccepting)
		return nil, ErrNotAccepting
	}

	o.setStatus(ctx, job, StatusAcknowledged, "")
	// the worker owns job from here on; callers get a snapshot
	ack := cloneJob(job)

	select {
	case o.queue <- queuedJob{job: job, batch: batch}:
	default:
		o.fail(ctx, job, ErrJobQueueFull)
		return nil, fmt.Errorf("%w: job %s", ErrJobQueueFull, job.ID)
	}

	return ack, nil
}

// Run processes the batch inline and returns the finished job
func (o *Orchestrator) Run(ctx context.Context, batch Batch) (*Job, error) {
	job, err := o.receive(ctx, batch)
	if err != nil {
		return nil, err
	}
	o.process(ctx, job, batch)
	return job, nil
}

// Get returns a job with its results
func (o *Orchestrator) Get(ctx context.Context, id string) (*Job, error) {
	return o.store.Get(ctx, id)
}

// receive creates the job record for a batch
func (o *Orchestrator) receive(ctx context.Context, batch Batch) (*Job, error) {
	now := o.now().UTC()

	callerID := batch.MatchID
	if callerID == "" {
		callerID = fmt.Sprintf("auto_match_%d", now.UnixMilli())
	}

	job := &Job{
		ID:            o.newID(),
		CallerMatchID: callerID,
		MatchID:       o.sessions.Lookup(callerID),
		Status:        StatusReceived,
		Total:         len(batch.Actions),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := o.store.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to record job: %w", err)
	}

	o.log.WithFields(logrus.Fields{
		"job_id":   job.ID,
		"match_id": job.MatchID,
		"actions":  len(batch.Actions),
		"segments": len(batch.Segments),
	}).Info("batch received")

	return job, nil
}

func (o *Orchestrator) work(id int, queue <-chan queuedJob) {
	defer o.wg.Done()
	for q := range queue {
		o.runQueued(id, q)
	}
}

func (o *Orchestrator) runQueued(worker int, q queuedJob) {
	ctx := context.Background()
	defer func() {
		if r := recover(); r != nil {
			o.fail(ctx, q.job, fmt.Errorf("panic: %v", r))
		}
	}()

	o.log.WithFields(logrus.Fields{"worker": worker, "job_id": q.job.ID}).Debug("job picked up")
	o.process(ctx, q.job, q.batch)
}

// process runs every action of the batch in order. A failing action is
// recorded and skipped; it never stops the remaining actions.
func (o *Orchestrator) process(ctx context.Context, job *Job, batch Batch) {
	log := o.log.WithFields(logrus.Fields{"job_id": job.ID, "match_id": job.MatchID})

	index, err := media.NewSegmentIndex(batch.Segments)
	if err != nil {
		o.fail(ctx, job, fmt.Errorf("%w: %v", ErrBatchValidation, err))
		return
	}
	for _, ov := range index.Overlaps() {
		log.WithFields(logrus.Fields{
			"earlier": ov.Earlier.FileRef,
			"later":   ov.Later.FileRef,
			"from":    ov.Start(),
			"to":      ov.End(),
		}).Warn("segments overlap; actions inside the overlap will fail")
	}

	o.setStatus(ctx, job, StatusProcessing, "")

	for i, action := range batch.Actions {
		result := o.processAction(ctx, job.MatchID, i, action, index)
		job.Results = append(job.Results, result)
		if err := o.store.AppendResult(ctx, job.ID, result); err != nil {
			log.WithError(err).Warn("failed to record action result")
		}

		entry := log.WithFields(logrus.Fields{
			"action_index":      i,
			"timestamp_in_game": result.TimestampInGame,
		})
		if result.Success {
			entry.WithField("file_id", result.Clip.GoogleFileID).Info("clip created")
		} else {
			entry.WithField("error_kind", result.ErrorKind).Warn(result.Error)
		}
	}

	o.setStatus(ctx, job, StatusDone, "")
	log.WithFields(logrus.Fields{
		"succeeded": job.Succeeded(),
		"total":     job.Total,
	}).Info("batch done")
}

func (o *Orchestrator) processAction(ctx context.Context, matchID string, i int, action media.Action, index *media.SegmentIndex) ActionResult {
	result := ActionResult{Index: i, TimestampInGame: action.Timestamp()}

	cut, err := o.resolver.Resolve(action, index)
	if err == nil {
		var clip *distribution.Clip
		clip, err = o.producer.Produce(ctx, matchID, action, cut)
		if err == nil {
			result.Success = true
			result.Clip = clip
			return result
		}
	}

	result.ErrorKind = errorKind(err)
	result.Error = err.Error()
	return result
}

func (o *Orchestrator) setStatus(ctx context.Context, job *Job, status Status, errMsg string) {
	job.Status = status
	job.Error = errMsg
	job.UpdatedAt = o.now().UTC()
	if err := o.store.UpdateStatus(ctx, job.ID, status, errMsg); err != nil {
		o.log.WithError(err).WithField("job_id", job.ID).Warn("failed to record job status")
	}
}

func (o *Orchestrator) fail(ctx context.Context, job *Job, err error) {
	o.log.WithError(err).WithField("job_id", job.ID).Error("batch failed")
	o.setStatus(ctx, job, StatusFailed, err.Error())
}
