package service

import (
	"context"
	"time"

	"github.com/2601-ai-team4/ContentShield/internal/blocklist"
	"github.com/2601-ai-team4/ContentShield/internal/models"
	"github.com/2601-ai-team4/ContentShield/internal/repository"
	"github.com/2601-ai-team4/ContentShield/internal/validation"
	"github.com/rs/zerolog"
)

// commentService is the concrete implementation of CommentService
type commentService struct {
	repos        *repository.Repositories
	lookbackDays int
	now          func() time.Time
	log          zerolog.Logger
}

// newCommentService creates a new CommentService
func newCommentService(repos *repository.Repositories, lookbackDays int, now func() time.Time, log zerolog.Logger) *commentService {
	return &commentService{
		repos:        repos,
		lookbackDays: lookbackDays,
		now:          now,
		log:          log.With().Str("service", "comment").Logger(),
	}
}

// List returns one page of the user's comments with blocked-word fields
// recomputed against the current active blocklist.
func (s *commentService) List(ctx context.Context, userID int64, req models.ListCommentsRequest) (*models.CommentPage, error) {
	q, err := s.query(userID, req)
	if err != nil {
		return nil, err
	}

	page, err := s.repos.Comment.Find(ctx, q)
	if err != nil {
		return nil, err
	}

	page.Items = blocklist.Project(page.Items, activeWords(ctx, s.repos, userID, s.log))
	return page, nil
}

// query resolves request filters into a repository query
func (s *commentService) query(userID int64, req models.ListCommentsRequest) (models.CommentQuery, error) {
	now := s.now()
	w, errs := validation.ParseWindow(req.StartDate, req.EndDate, now.AddDate(0, 0, -s.lookbackDays), now)
	if len(errs) > 0 {
		return models.CommentQuery{}, validation.Errors(errs)
	}

	size := req.Size
	if size <= 0 {
		size = models.DefaultPageSize
	}
	if size > models.MaxPageSize {
		size = models.MaxPageSize
	}
	page := req.Page
	if page < 0 {
		page = 0
	}
	if page > models.MaxPage {
		page = models.MaxPage
	}

	return models.CommentQuery{
		UserID:      userID,
		URL:         req.URL,
		IsMalicious: req.IsMalicious,
		Start:       w.Start,
		End:         w.End,
		Page:        page,
		Size:        size,
	}, nil
}

// Delete removes one comment owned by userID
func (s *commentService) Delete(ctx context.Context, userID, commentID int64) error {
	deleted, err := s.repos.Comment.DeleteByID(ctx, userID, commentID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrCommentNotFound
	}
	return nil
}

// DeleteMany removes the listed comments owned by userID and reports how many went
func (s *commentService) DeleteMany(ctx context.Context, userID int64, commentIDs []int64) (int64, error) {
	n, err := s.repos.Comment.DeleteByIDs(ctx, userID, commentIDs)
	if err != nil {
		return 0, err
	}
	s.log.Info().Int64("user_id", userID).Int64("deleted", n).Int("requested", len(commentIDs)).Msg("Comments deleted")
	return n, nil
}

// DeleteByURL removes all of the user's comments for one content URL
func (s *commentService) DeleteByURL(ctx context.Context, userID int64, url string) (int64, error) {
	n, err := s.repos.Comment.DeleteByUserAndURL(ctx, userID, url)
	if err != nil {
		return 0, err
	}
	s.log.Info().Int64("user_id", userID).Str("url", url).Int64("deleted", n).Msg("Comments deleted by url")
	return n, nil
}

// DeleteAll removes every comment of the user and forgets their ingest keys,
// so the next crawl stages everything again. Analysis results are kept.
func (s *commentService) DeleteAll(ctx context.Context, userID int64) (int64, error) {
	var n int64
	err := s.repos.Tx.InTx(ctx, func(tx *repository.Repositories) error {
		var err error
		n, err = tx.Comment.PurgeByUser(ctx, userID)
		return err
	})
	if err != nil {
		return 0, err
	}
	s.log.Info().Int64("user_id", userID).Int64("deleted", n).Msg("All comments deleted")
	return n, nil
}

// GetCount returns the number of staged comments
func (s *commentService) GetCount(ctx context.Context) (int, error) {
	return s.repos.Comment.Count(ctx)
}

// activeWords loads the user's blocklist. A failed load degrades to an empty
// list so reads and ingestion keep working.
func activeWords(ctx context.Context, repos *repository.Repositories, userID int64, log zerolog.Logger) []models.BlockedWord {
	words, err := repos.BlockedWord.GetActive(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Int64("user_id", userID).Msg("Failed to load blocked words, matching against an empty list")
		return nil
	}
	return words
}
