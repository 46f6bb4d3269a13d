package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/2601-ai-team4/ContentShield/internal/blocklist"
	"github.com/2601-ai-team4/ContentShield/internal/crawler"
	"github.com/2601-ai-team4/ContentShield/internal/dateparse"
	"github.com/2601-ai-team4/ContentShield/internal/models"
	"github.com/2601-ai-team4/ContentShield/internal/repository"
	"github.com/2601-ai-team4/ContentShield/internal/validation"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ingestService is the concrete implementation of IngestService
type ingestService struct {
	repos      *repository.Repositories
	crawler    crawler.Client
	analysis   AnalysisService
	runs       *runService
	windowDays int
	now        func() time.Time
	log        zerolog.Logger
}

// newIngestService creates a new IngestService
func newIngestService(
	repos *repository.Repositories,
	client crawler.Client,
	analysis AnalysisService,
	runs *runService,
	windowDays int,
	now func() time.Time,
	log zerolog.Logger,
) *ingestService {
	return &ingestService{
		repos:      repos,
		crawler:    client,
		analysis:   analysis,
		runs:       runs,
		windowDays: windowDays,
		now:        now,
		log:        log.With().Str("service", "ingest").Logger(),
	}
}

// pendingComment is a record that passed windowing and awaits persistence
type pendingComment struct {
	index   int
	comment *models.Comment
}

// ingestRun carries the mutable state of one CrawlAndAnalyze call
type ingestRun struct {
	req    *models.CrawlRequest
	window validation.Window
	now    time.Time
	result *models.CrawlResult
	errs   []models.RunError
	log    zerolog.Logger
}

func (r *ingestRun) recordError(index int, stage, externalID string, err error) {
	r.errs = append(r.errs, models.RunError{
		RecordIndex: index,
		Stage:       stage,
		Message:     err.Error(),
		ExternalID:  externalID,
	})
}

// CrawlAndAnalyze replaces the user's staged comments with a fresh crawl of
// req.URL, then analyzes every newly stored comment. Only a failed fetch is
// returned as an error; per-record failures are folded into the counts.
func (s *ingestService) CrawlAndAnalyze(ctx context.Context, req *models.CrawlRequest) (*models.CrawlResult, error) {
	now := s.now().Truncate(time.Second)

	window, errs := validation.ParseWindow(req.StartDate, req.EndDate, now.AddDate(0, 0, -s.windowDays), now)
	if len(errs) > 0 {
		return nil, validation.Errors(errs)
	}

	if req.IdempotencyKey != "" {
		if prev := s.runs.replay(ctx, req.UserID, req.IdempotencyKey); prev != nil {
			s.log.Info().Str("run_id", prev.ID).Str("idempotency_key", req.IdempotencyKey).Msg("Replaying completed run")
			result := prev.Summary()
			result.Replayed = true
			return result, nil
		}
	}

	started := time.Now()
	run := s.runs.start(ctx, req, window, now)
	st := &ingestRun{
		req:    req,
		window: window,
		now:    now,
		result: &models.CrawlResult{RunID: run.ID, Results: []models.AnalysisResult{}},
		log:    s.log.With().Str("run_id", run.ID).Int64("user_id", req.UserID).Logger(),
	}

	st.log.Info().
		Str("url", req.URL).
		Time("window_start", window.Start).
		Time("window_end", window.End).
		Msg("Starting ingestion")

	// Phase 1: clear the user's staging area
	s.runs.advance(ctx, run, models.PhaseCleaning)
	s.clean(ctx, st)

	// Phase 2: fetch
	s.runs.advance(ctx, run, models.PhaseFetching)
	raw, err := s.crawler.Fetch(ctx, req.URL)
	if err != nil {
		st.log.Error().Err(err).Msg("Fetch failed")
		s.runs.fail(ctx, run, err, time.Since(started))
		return nil, err
	}
	st.result.TotalCrawled = len(raw)

	// Phase 3: window, dedup and blocklist
	s.runs.advance(ctx, run, models.PhaseWindowing)
	pending := s.filter(ctx, st, raw)

	// Phase 4: persist
	s.runs.advance(ctx, run, models.PhasePersisting)
	saved := s.persist(ctx, st, pending)

	// Phase 5: analyze
	s.runs.advance(ctx, run, models.PhaseAnalyzing)
	s.analyze(ctx, st, saved)

	// Phase 6: aggregate
	res := st.result
	res.AnalyzedCount = res.SavedCount
	res.SkippedCount = res.Skipped.Total()
	res.FailCount = res.PersistFailCount + res.AnalyzeFailCount

	elapsed := time.Since(started)
	s.runs.finish(ctx, run, res, st.errs, elapsed)

	st.log.Info().
		Int("total", res.TotalCrawled).
		Int("saved", res.SavedCount).
		Int("skipped", res.SkippedCount).
		Int("failed", res.FailCount).
		Dur("duration", elapsed).
		Msg("Ingestion completed")

	return res, nil
}

// clean removes the user's staged comments. The dedup ledger is untouched.
func (s *ingestService) clean(ctx context.Context, st *ingestRun) {
	var cleared int64
	err := s.repos.Tx.InTx(ctx, func(tx *repository.Repositories) error {
		n, err := tx.Comment.DeleteByUser(ctx, st.req.UserID)
		cleared = n
		return err
	})
	if err != nil {
		st.log.Warn().Err(err).Msg("Failed to clear staged comments, continuing")
		return
	}
	st.log.Debug().Int64("cleared", cleared).Msg("Staged comments cleared")
}

// filter applies blank, window and duplicate checks in that order and builds
// the comments that should be stored.
func (s *ingestService) filter(ctx context.Context, st *ingestRun, raw []models.RawComment) []pendingComment {
	matcher := blocklist.NewMatcher(activeWords(ctx, s.repos, st.req.UserID, st.log))
	seen := make(map[string]struct{}, len(raw))
	pending := make([]pendingComment, 0, len(raw))
	skipped := &st.result.Skipped

	for i, rc := range raw {
		if strings.TrimSpace(rc.Text) == "" {
			skipped.Blank++
			continue
		}

		commentedAt := dateparse.Normalize(rc.PublishDate, st.now)
		if !st.window.Contains(commentedAt) {
			skipped.OutOfWindow++
			continue
		}

		externalID := strings.TrimSpace(rc.ExternalID)
		sourceKeyed := externalID != ""
		if sourceKeyed {
			if _, dup := seen[externalID]; dup {
				skipped.Duplicate++
				continue
			}
			exists, err := s.repos.Comment.KeyExists(ctx, st.req.UserID, externalID)
			if err != nil {
				st.result.PersistFailCount++
				st.recordError(i, models.StageDedup, externalID, err)
				continue
			}
			if exists {
				skipped.Duplicate++
				continue
			}
			seen[externalID] = struct{}{}
		} else {
			externalID = uuid.NewString()
		}

		matched, word := matcher.Match(rc.Text)
		pending = append(pending, pendingComment{
			index: i,
			comment: &models.Comment{
				UserID:              st.req.UserID,
				Platform:            models.PlatformYouTube,
				ContentURL:          st.req.URL,
				AuthorName:          rc.Author,
				ExternalCommentID:   externalID,
				Content:             rc.Text,
				CommentedAt:         commentedAt,
				IsMalicious:         matched,
				ContainsBlockedWord: matched,
				MatchedBlockedWord:  word,
				SourceKeyed:         sourceKeyed,
			},
		})
	}

	st.log.Debug().
		Int("pending", len(pending)).
		Int("blank", skipped.Blank).
		Int("out_of_window", skipped.OutOfWindow).
		Int("duplicate", skipped.Duplicate).
		Int("blocked_words", matcher.Len()).
		Msg("Records filtered")

	return pending
}

// persist stores pending comments in one transaction with a savepoint per
// row. A row that collides with an existing key counts as a duplicate skip.
func (s *ingestService) persist(ctx context.Context, st *ingestRun, pending []pendingComment) []pendingComment {
	if len(pending) == 0 {
		return nil
	}

	var (
		saved      []pendingComment
		duplicates int
		rowErrs    []models.RunError
	)

	err := s.repos.Tx.InTx(ctx, func(tx *repository.Repositories) error {
		saved, duplicates, rowErrs = saved[:0], 0, rowErrs[:0]
		for _, p := range pending {
			err := tx.Tx.InTx(ctx, func(sp *repository.Repositories) error {
				return sp.Comment.Create(ctx, p.comment)
			})
			if errors.Is(err, repository.ErrDuplicate) {
				duplicates++
				continue
			}
			if err != nil {
				rowErrs = append(rowErrs, models.RunError{
					RecordIndex: p.index,
					Stage:       models.StagePersist,
					Message:     err.Error(),
					ExternalID:  p.comment.ExternalCommentID,
				})
				continue
			}
			saved = append(saved, p)
		}
		return nil
	})
	if err != nil {
		st.log.Error().Err(err).Int("rows", len(pending)).Msg("Persist transaction failed")
		st.result.PersistFailCount += len(pending)
		for _, p := range pending {
			p.comment.ID = 0
			st.recordError(p.index, models.StagePersist, p.comment.ExternalCommentID, err)
		}
		return nil
	}

	st.result.Skipped.Duplicate += duplicates
	st.result.PersistFailCount += len(rowErrs)
	st.errs = append(st.errs, rowErrs...)
	return saved
}

// analyze scores each stored comment. Each analysis commits on its own.
func (s *ingestService) analyze(ctx context.Context, st *ingestRun, saved []pendingComment) {
	for _, p := range saved {
		result, err := s.analysis.AnalyzeComment(ctx, st.req.UserID, p.comment.ID)
		if err != nil {
			st.result.AnalyzeFailCount++
			st.recordError(p.index, models.StageAnalyze, p.comment.ExternalCommentID, err)
			st.log.Warn().Err(err).Int64("comment_id", p.comment.ID).Msg("Analysis failed")
			continue
		}
		st.result.SavedCount++
		st.result.Results = append(st.result.Results, *result)
	}
}
