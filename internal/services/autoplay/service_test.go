package autoplay

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/gomoku-arena/internal/dependencies/mocks"
	"github.com/mcoot/gomoku-arena/internal/model"
	"github.com/mcoot/gomoku-arena/internal/services/match"
	"github.com/mcoot/gomoku-arena/internal/testutil"
)

// scriptedStepper returns queued step errors, then succeeds at (7,7)
type scriptedStepper struct {
	mu       sync.Mutex
	errs     []error
	steps    int
	confirms int
	block    bool
}

func (s *scriptedStepper) Step(ctx context.Context, id model.RoomID, username string) (model.Position, error) {
	s.mu.Lock()
	s.steps++
	block := s.block
	var err error
	if len(s.errs) > 0 {
		err = s.errs[0]
		s.errs = s.errs[1:]
	}
	s.mu.Unlock()

	if block {
		<-ctx.Done()
		return model.Position{}, &model.OracleError{Message: ctx.Err().Error()}
	}
	if err != nil {
		return model.Position{}, err
	}
	return model.Position{X: 7, Y: 7}, nil
}

func (s *scriptedStepper) ConfirmMove(ctx context.Context, id model.RoomID, username string) (match.ConfirmResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.confirms++
	return match.ConfirmResult{Move: model.Move{X: 7, Y: 7, Player: model.StoneBlack}}, nil
}

func (s *scriptedStepper) stepCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.steps
}

type ServiceSuite struct {
	suite.Suite
	stepper *scriptedStepper
	clock   *mocks.MockClock
	service *Service
	ctx     context.Context
	policy  Policy
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.stepper = &scriptedStepper{}
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.service = New(s.stepper, s.clock, mocks.NewMockIDGenerator(), DefaultConfig(), testutil.NopLogger())
	s.ctx = context.Background()
	s.policy = Policy{MaxAttempts: 3}
}

func (s *ServiceSuite) TearDownTest() {
	s.service.Close()
}

func (s *ServiceSuite) waitFor(jobID string, state JobState) Job {
	var job Job
	s.Require().Eventually(func() bool {
		current, err := s.service.Job(jobID)
		if err != nil {
			return false
		}
		job = current
		return job.State == state
	}, time.Second, 5*time.Millisecond)
	return job
}

// StepWithRetry tests

func (s *ServiceSuite) TestSucceedsFirstTime() {
	result, err := s.service.StepWithRetry(s.ctx, "room-1", "alice", s.policy)
	s.Require().NoError(err)
	s.Equal(1, result.Attempts)
	s.Equal(model.Position{X: 7, Y: 7}, result.Move)
	s.Empty(result.Errors)
}

func (s *ServiceSuite) TestRetriesProposalFailures() {
	s.stepper.errs = []error{&model.OracleError{Message: "bad reply"}, model.ErrCellOccupied}

	result, err := s.service.StepWithRetry(s.ctx, "room-1", "alice", s.policy)
	s.Require().NoError(err)
	s.Equal(3, result.Attempts)
	s.Len(result.Errors, 2)
	s.Equal(model.ErrCellOccupied.Error(), result.Errors[1])
}

func (s *ServiceSuite) TestStopsOnStateConflict() {
	s.stepper.errs = []error{model.ErrNotYourTurn}

	result, err := s.service.StepWithRetry(s.ctx, "room-1", "alice", s.policy)
	s.ErrorIs(err, model.ErrNotYourTurn)
	s.Equal(1, result.Attempts)
	s.Equal(1, s.stepper.stepCount())
}

func (s *ServiceSuite) TestGivesUpAfterMaxAttempts() {
	s.stepper.errs = []error{model.ErrMoveOutOfRange, model.ErrCellOccupied, model.ErrStaleProposal, nil}

	result, err := s.service.StepWithRetry(s.ctx, "room-1", "alice", s.policy)
	s.ErrorIs(err, model.ErrRetriesExhausted)
	s.Contains(err.Error(), model.ErrStaleProposal.Error())
	s.Equal(3, result.Attempts)
	s.Equal(3, s.stepper.stepCount())
}

func (s *ServiceSuite) TestGivesUpAtDeadline() {
	s.stepper.errs = []error{model.ErrCellOccupied, model.ErrCellOccupied}
	policy := Policy{MaxAttempts: 10, Deadline: 20 * time.Millisecond, Backoff: time.Second}

	result, err := s.service.StepWithRetry(s.ctx, "room-1", "alice", policy)
	s.ErrorIs(err, model.ErrRetriesExhausted)
	s.Equal(1, result.Attempts)
}

// Job tests

func (s *ServiceSuite) TestJobSucceedsAndConfirms() {
	job, err := s.service.Start("room-1", "alice", s.policy, true)
	s.Require().NoError(err)
	s.Equal(JobRunning, job.State)
	s.Equal(model.RoomID("room-1"), job.RoomID)

	done := s.waitFor(job.ID, JobSucceeded)
	s.Require().NotNil(done.Move)
	s.Equal(model.Position{X: 7, Y: 7}, *done.Move)
	s.True(done.Confirmed)
	s.Equal(1, done.Attempts)
	s.NotNil(done.FinishedAt)
}

func (s *ServiceSuite) TestJobWithoutAutoConfirm() {
	job, err := s.service.Start("room-1", "alice", s.policy, false)
	s.Require().NoError(err)

	done := s.waitFor(job.ID, JobSucceeded)
	s.False(done.Confirmed)
	s.Equal(0, s.stepper.confirms)
}

func (s *ServiceSuite) TestJobFailureIsReported() {
	s.stepper.errs = []error{model.ErrNotReady}

	job, err := s.service.Start("room-1", "alice", s.policy, true)
	s.Require().NoError(err)

	done := s.waitFor(job.ID, JobFailed)
	s.Equal(model.ErrNotReady.Error(), done.LastError)
	s.Nil(done.Move)
}

func (s *ServiceSuite) TestOneRunningJobPerPlayer() {
	s.stepper.block = true

	first, err := s.service.Start("room-1", "alice", s.policy, false)
	s.Require().NoError(err)

	_, err = s.service.Start("room-1", "alice", s.policy, false)
	s.ErrorIs(err, model.ErrJobRunning)

	// Another player in the same room is independent
	other, err := s.service.Start("room-1", "bob", s.policy, false)
	s.Require().NoError(err)

	_, err = s.service.Cancel(first.ID)
	s.Require().NoError(err)
	_, err = s.service.Cancel(other.ID)
	s.Require().NoError(err)
	s.waitFor(first.ID, JobCancelled)

	// A finished job frees the slot
	s.stepper.mu.Lock()
	s.stepper.block = false
	s.stepper.mu.Unlock()
	_, err = s.service.Start("room-1", "alice", s.policy, false)
	s.NoError(err)
}

func (s *ServiceSuite) TestCancelStopsJob() {
	s.stepper.block = true

	job, err := s.service.Start("room-1", "alice", Policy{MaxAttempts: 100}, false)
	s.Require().NoError(err)
	s.Require().Eventually(func() bool { return s.stepper.stepCount() == 1 }, time.Second, 5*time.Millisecond)

	_, err = s.service.Cancel(job.ID)
	s.Require().NoError(err)

	done := s.waitFor(job.ID, JobCancelled)
	s.Equal(model.ErrJobCancelled.Error(), done.LastError)
	s.Equal(1, s.stepper.stepCount())
}

func (s *ServiceSuite) TestUnknownJob() {
	_, err := s.service.Job("missing")
	s.ErrorIs(err, model.ErrJobNotFound)

	_, err = s.service.Cancel("missing")
	s.ErrorIs(err, model.ErrJobNotFound)
}

func (s *ServiceSuite) TestFinishedJobsArePruned() {
	job, err := s.service.Start("room-1", "alice", s.policy, false)
	s.Require().NoError(err)
	s.waitFor(job.ID, JobSucceeded)

	s.clock.Advance(DefaultConfig().JobRetention + time.Minute)
	_, err = s.service.Start("room-2", "alice", s.policy, false)
	s.Require().NoError(err)

	_, err = s.service.Job(job.ID)
	s.ErrorIs(err, model.ErrJobNotFound)
}
