package service

import (
	"context"
	"fmt"
	"time"

	"github.com/2601-ai-team4/ContentShield/internal/models"
	"github.com/2601-ai-team4/ContentShield/internal/repository"
	"github.com/2601-ai-team4/ContentShield/internal/validation"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// runErrorPreview is how many errors are inlined in a run response
const runErrorPreview = 10

// runService is the concrete implementation of RunService. It also records
// the ledger for the ingest pipeline; ledger writes are best effort and never
// fail a run.
type runService struct {
	runRepo   repository.RunRepository
	maxErrors int
	log       zerolog.Logger
}

// newRunService creates a new RunService
func newRunService(runRepo repository.RunRepository, maxErrors int, log zerolog.Logger) *runService {
	return &runService{
		runRepo:   runRepo,
		maxErrors: maxErrors,
		log:       log.With().Str("service", "run").Logger(),
	}
}

// GetRun returns the run with a preview of its errors
func (s *runService) GetRun(ctx context.Context, userID int64, id string) (*models.RunResponse, error) {
	run, err := s.owned(ctx, userID, id)
	if err != nil || run == nil {
		return nil, err
	}

	resp := &models.RunResponse{IngestRun: *run}

	errs, err := s.runRepo.GetErrors(ctx, id, 0)
	if err != nil {
		return nil, err
	}
	if len(errs) > 0 {
		resp.ErrorCount = len(errs)
		if len(errs) > runErrorPreview {
			resp.Errors = errs[:runErrorPreview]
			resp.ErrorsURL = fmt.Sprintf("/api/ingestions/%s/errors", id)
		} else {
			resp.Errors = errs
		}
	}

	return resp, nil
}

// GetRunErrors returns every recorded error of a run
func (s *runService) GetRunErrors(ctx context.Context, userID int64, id string) ([]models.RunError, error) {
	run, err := s.owned(ctx, userID, id)
	if err != nil || run == nil {
		return nil, err
	}
	errs, err := s.runRepo.GetErrors(ctx, id, 0)
	if err != nil {
		return nil, err
	}
	if errs == nil {
		errs = []models.RunError{}
	}
	return errs, nil
}

// owned returns the run only when it belongs to userID
func (s *runService) owned(ctx context.Context, userID int64, id string) (*models.IngestRun, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	run, err := s.runRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if run == nil || run.UserID != userID {
		return nil, nil
	}
	return run, nil
}

// replay returns the latest completed run for an idempotency key
func (s *runService) replay(ctx context.Context, userID int64, key string) *models.IngestRun {
	run, err := s.runRepo.GetByIdempotencyKey(ctx, userID, key)
	if err != nil {
		s.log.Warn().Err(err).Str("idempotency_key", key).Msg("Idempotency lookup failed, running again")
		return nil
	}
	return run
}

// start records a new running run
func (s *runService) start(ctx context.Context, req *models.CrawlRequest, w validation.Window, now time.Time) *models.IngestRun {
	run := &models.IngestRun{
		ID:             uuid.New().String(),
		UserID:         req.UserID,
		ContentURL:     req.URL,
		WindowStart:    w.Start,
		WindowEnd:      w.End,
		Phase:          models.PhaseIdle,
		Status:         models.RunStatusRunning,
		IdempotencyKey: req.IdempotencyKey,
		CreatedAt:      now,
	}
	if err := s.runRepo.Create(ctx, run); err != nil {
		s.log.Warn().Err(err).Str("run_id", run.ID).Msg("Failed to record run")
	}
	return run
}

// advance moves the run to phase
func (s *runService) advance(ctx context.Context, run *models.IngestRun, phase models.RunPhase) {
	run.Phase = phase
	s.save(ctx, run)
}

// finish records the aggregated counts and per-record errors
func (s *runService) finish(ctx context.Context, run *models.IngestRun, result *models.CrawlResult, errs []models.RunError, elapsed time.Duration) {
	completed := time.Now()
	run.Phase = models.PhaseAggregated
	run.Status = models.RunStatusCompleted
	run.TotalCrawled = result.TotalCrawled
	run.SavedCount = result.SavedCount
	run.SkippedCount = result.SkippedCount
	run.Skipped = result.Skipped
	run.FailCount = result.FailCount
	run.PersistFailCount = result.PersistFailCount
	run.AnalyzeFailCount = result.AnalyzeFailCount
	run.DurationMs = elapsed.Milliseconds()
	if secs := elapsed.Seconds(); secs > 0 {
		run.RowsPerSec = float64(result.TotalCrawled) / secs
	}
	run.CompletedAt = &completed
	s.save(ctx, run)

	if len(errs) == 0 {
		return
	}
	if s.maxErrors > 0 && len(errs) > s.maxErrors {
		errs = errs[:s.maxErrors]
	}
	if err := s.runRepo.AddErrors(ctx, run.ID, errs); err != nil {
		s.log.Warn().Err(err).Str("run_id", run.ID).Int("count", len(errs)).Msg("Failed to record run errors")
	}
}

// fail marks the run as failed with cause
func (s *runService) fail(ctx context.Context, run *models.IngestRun, cause error, elapsed time.Duration) {
	completed := time.Now()
	run.Phase = models.PhaseFailed
	run.Status = models.RunStatusFailed
	run.ErrorMessage = cause.Error()
	run.DurationMs = elapsed.Milliseconds()
	run.CompletedAt = &completed
	s.save(ctx, run)
}

func (s *runService) save(ctx context.Context, run *models.IngestRun) {
	if err := s.runRepo.Update(ctx, run); err != nil {
		s.log.Warn().Err(err).Str("run_id", run.ID).Str("phase", string(run.Phase)).Msg("Failed to update run")
	}
}
