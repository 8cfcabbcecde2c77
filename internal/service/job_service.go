package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/proceso-api/internal/dto"
	appErrors "github.com/noah-isme/proceso-api/pkg/errors"
	"github.com/noah-isme/proceso-api/pkg/jobs"
)

// JobService exposes run state of background jobs.
type JobService struct {
	runs   jobs.RunStore
	logger *zap.Logger
}

// NewJobService constructs a job service over the run registry.
func NewJobService(runs jobs.RunStore, logger *zap.Logger) *JobService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JobService{runs: runs, logger: logger}
}

// Status returns the current state of a run.
func (s *JobService) Status(ctx context.Context, runID string) (*dto.JobRunResponse, error) {
	run, err := s.runs.Retrieve(ctx, runID)
	if err != nil {
		return nil, s.mapError(err, "failed to load job run")
	}
	return toJobRunResponse(run), nil
}

// Cancel stops a queued or executing run. Pending notices of a cancelled run
// are refused by the dispatcher.
func (s *JobService) Cancel(ctx context.Context, runID string) (*dto.JobRunResponse, error) {
	run, err := jobs.Cancel(ctx, s.runs, runID)
	if err != nil {
		if errors.Is(err, jobs.ErrRunFinished) {
			return nil, appErrors.Clone(appErrors.ErrJobFinished, "job run "+runID+" is "+string(run.Status))
		}
		return nil, s.mapError(err, "failed to cancel job run")
	}
	s.logger.Sugar().Infow("job run cancelled", "run_id", runID, "type", run.Type)
	return toJobRunResponse(run), nil
}

func (s *JobService) mapError(err error, message string) error {
	if errors.Is(err, jobs.ErrRunNotFound) {
		return appErrors.Clone(appErrors.ErrNotFound, "job run not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func toJobRunResponse(run *jobs.Run) *dto.JobRunResponse {
	return &dto.JobRunResponse{
		ID:          run.ID,
		Type:        run.Type,
		Status:      string(run.Status),
		IsExecuting: run.IsExecuting(),
		Attempt:     run.Attempt,
		Error:       run.Error,
		CreatedAt:   run.CreatedAt,
		UpdatedAt:   run.UpdatedAt,
	}
}
