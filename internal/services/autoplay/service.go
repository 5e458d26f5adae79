package autoplay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/gomoku-arena/internal/dependencies/clock"
	"github.com/mcoot/gomoku-arena/internal/dependencies/idgen"
	"github.com/mcoot/gomoku-arena/internal/model"
	"github.com/mcoot/gomoku-arena/internal/services/match"
)

// Stepper is the part of the match controller autoplay drives
type Stepper interface {
	Step(ctx context.Context, id model.RoomID, username string) (model.Position, error)
	ConfirmMove(ctx context.Context, id model.RoomID, username string) (match.ConfirmResult, error)
}

// Policy bounds how hard StepWithRetry tries
type Policy struct {
	MaxAttempts int
	// Deadline caps the total time across attempts, zero means no cap
	Deadline time.Duration
	// Backoff is the pause between attempts
	Backoff time.Duration
}

// DefaultPolicy returns the default retry policy
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 5,
		Deadline:    5 * time.Minute,
		Backoff:     time.Second,
	}
}

// Result reports what StepWithRetry did
type Result struct {
	Move     model.Position
	Attempts int
	Errors   []string
}

// JobState is the lifecycle state of an autostep job
type JobState string

const (
	JobRunning   JobState = "running"
	JobSucceeded JobState = "succeeded"
	JobFailed    JobState = "failed"
	JobCancelled JobState = "cancelled"
)

// Job is a snapshot of a background autostep run
type Job struct {
	ID          string
	RoomID      model.RoomID
	Username    string
	AutoConfirm bool
	State       JobState
	Attempts    int
	LastError   string
	Move        *model.Position
	Confirmed   bool
	StartedAt   time.Time
	FinishedAt  *time.Time
}

// Config holds configuration for the autoplay service
type Config struct {
	// JobRetention is how long finished jobs stay queryable
	JobRetention time.Duration
}

// DefaultConfig returns default autoplay configuration
func DefaultConfig() Config {
	return Config{
		JobRetention: 10 * time.Minute,
	}
}

type jobKey struct {
	room     model.RoomID
	username string
}

type jobEntry struct {
	job    Job
	cancel context.CancelFunc
}

// Service retries steps on behalf of players, either inline or as
// background jobs
type Service struct {
	stepper Stepper
	clock   clock.Clock
	ids     idgen.Generator
	cfg     Config
	logger  *slog.Logger

	root     context.Context
	shutdown context.CancelFunc
	wg       sync.WaitGroup

	mu     sync.Mutex
	jobs   map[string]*jobEntry
	active map[jobKey]string
}

// New creates a new autoplay service
func New(stepper Stepper, clock clock.Clock, ids idgen.Generator, cfg Config, logger *slog.Logger) *Service {
	if cfg.JobRetention == 0 {
		cfg.JobRetention = DefaultConfig().JobRetention
	}
	root, shutdown := context.WithCancel(context.Background())
	return &Service{
		stepper:  stepper,
		clock:    clock,
		ids:      ids,
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "autoplay")),
		root:     root,
		shutdown: shutdown,
		jobs:     make(map[string]*jobEntry),
		active:   make(map[jobKey]string),
	}
}

// StepWithRetry repeats Step while it fails with a proposal failure, up to
// the policy's attempt and time limits. Any other failure ends it at once.
func (s *Service) StepWithRetry(ctx context.Context, id model.RoomID, username string, policy Policy) (Result, error) {
	return s.retry(ctx, id, username, policy, nil)
}

func (s *Service) retry(ctx context.Context, id model.RoomID, username string, policy Policy, onAttempt func(Result)) (Result, error) {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = DefaultPolicy().MaxAttempts
	}
	if policy.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, policy.Deadline)
		defer cancel()
	}

	var result Result
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		move, err := s.stepper.Step(ctx, id, username)
		result.Attempts = attempt
		if err == nil {
			result.Move = move
			if onAttempt != nil {
				onAttempt(result)
			}
			return result, nil
		}

		result.Errors = append(result.Errors, err.Error())
		if onAttempt != nil {
			onAttempt(result)
		}
		if !model.IsProposalFailure(err) {
			return result, err
		}

		s.logger.Debug("step attempt failed",
			slog.String("room_id", string(id)),
			slog.String("username", username),
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()),
		)

		if attempt == policy.MaxAttempts {
			break
		}
		if err := sleep(ctx, policy.Backoff); err != nil {
			return result, stopReason(ctx, err)
		}
	}

	return result, fmt.Errorf("%w after %d attempts: %s",
		model.ErrRetriesExhausted, result.Attempts, result.Errors[len(result.Errors)-1])
}

// stopReason maps the end of a retry context to an autoplay error
func stopReason(ctx context.Context, err error) error {
	if errors.Is(context.Cause(ctx), model.ErrJobCancelled) {
		return model.ErrJobCancelled
	}
	return fmt.Errorf("%w: %w", model.ErrRetriesExhausted, err)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Start runs StepWithRetry in the background, confirming the proposal when
// autoConfirm is set. A player has at most one running job per room.
func (s *Service) Start(id model.RoomID, username string, policy Policy, autoConfirm bool) (Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked()

	key := jobKey{room: id, username: username}
	if _, ok := s.active[key]; ok {
		return Job{}, model.ErrJobRunning
	}

	ctx, cancel := context.WithCancelCause(s.root)
	entry := &jobEntry{
		job: Job{
			ID:          s.ids.NewID(),
			RoomID:      id,
			Username:    username,
			AutoConfirm: autoConfirm,
			State:       JobRunning,
			StartedAt:   s.clock.Now(),
		},
		cancel: func() { cancel(model.ErrJobCancelled) },
	}
	s.jobs[entry.job.ID] = entry
	s.active[key] = entry.job.ID

	s.logger.Info("autostep started",
		slog.String("job_id", entry.job.ID),
		slog.String("room_id", string(id)),
		slog.String("username", username),
		slog.Int("max_attempts", policy.MaxAttempts),
		slog.Bool("auto_confirm", autoConfirm),
	)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel(nil)
		s.run(ctx, entry.job.ID, key, policy, autoConfirm)
	}()

	return entry.job, nil
}

func (s *Service) run(ctx context.Context, jobID string, key jobKey, policy Policy, autoConfirm bool) {
	result, err := s.retry(ctx, key.room, key.username, policy, func(r Result) {
		s.update(jobID, func(job *Job) {
			job.Attempts = r.Attempts
			if len(r.Errors) > 0 {
				job.LastError = r.Errors[len(r.Errors)-1]
			}
		})
	})

	confirmed := false
	if err == nil && autoConfirm {
		_, err = s.stepper.ConfirmMove(context.WithoutCancel(ctx), key.room, key.username)
		confirmed = err == nil
	}
	if err != nil && errors.Is(context.Cause(ctx), model.ErrJobCancelled) {
		err = model.ErrJobCancelled
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, key)

	entry, ok := s.jobs[jobID]
	if !ok {
		return
	}
	now := s.clock.Now()
	job := &entry.job
	job.FinishedAt = &now
	job.Attempts = result.Attempts

	switch {
	case err == nil:
		move := result.Move
		job.Move = &move
		job.Confirmed = confirmed
		job.State = JobSucceeded
	case errors.Is(err, model.ErrJobCancelled):
		job.State = JobCancelled
		job.LastError = err.Error()
	default:
		job.State = JobFailed
		job.LastError = err.Error()
	}

	s.logger.Info("autostep finished",
		slog.String("job_id", jobID),
		slog.String("room_id", string(key.room)),
		slog.String("username", key.username),
		slog.String("state", string(job.State)),
		slog.Int("attempts", job.Attempts),
	)
}

func (s *Service) update(jobID string, fn func(job *Job)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.jobs[jobID]; ok {
		fn(&entry.job)
	}
}

// Job returns a snapshot of the job
func (s *Service) Job(jobID string) (Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.jobs[jobID]
	if !ok {
		return Job{}, model.ErrJobNotFound
	}
	return snapshot(entry.job), nil
}

// Cancel asks a running job to stop. The job reports cancelled once its
// current attempt returns.
func (s *Service) Cancel(jobID string) (Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.jobs[jobID]
	if !ok {
		return Job{}, model.ErrJobNotFound
	}
	if entry.job.State == JobRunning {
		entry.cancel()
	}
	return snapshot(entry.job), nil
}

// Close cancels every running job and waits for them to finish
func (s *Service) Close() {
	s.shutdown()
	s.wg.Wait()
}

// pruneLocked forgets jobs that finished longer ago than the retention
func (s *Service) pruneLocked() {
	cutoff := s.clock.Now().Add(-s.cfg.JobRetention)
	for id, entry := range s.jobs {
		if entry.job.FinishedAt != nil && entry.job.FinishedAt.Before(cutoff) {
			delete(s.jobs, id)
		}
	}
}

func snapshot(job Job) Job {
	if job.Move != nil {
		move := *job.Move
		job.Move = &move
	}
	if job.FinishedAt != nil {
		t := *job.FinishedAt
		job.FinishedAt = &t
	}
	return job
}
