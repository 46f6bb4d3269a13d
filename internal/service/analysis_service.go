package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/2601-ai-team4/ContentShield/internal/analyzer"
	"github.com/2601-ai-team4/ContentShield/internal/models"
	"github.com/2601-ai-team4/ContentShield/internal/repository"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// analysisService is the concrete implementation of AnalysisService
type analysisService struct {
	repos     *repository.Repositories
	scorer    analyzer.Scorer
	threshold decimal.Decimal
	log       zerolog.Logger
}

// newAnalysisService creates a new AnalysisService
func newAnalysisService(repos *repository.Repositories, scorer analyzer.Scorer, threshold decimal.Decimal, log zerolog.Logger) *analysisService {
	return &analysisService{
		repos:     repos,
		scorer:    scorer,
		threshold: threshold,
		log:       log.With().Str("service", "analysis").Logger(),
	}
}

// AnalyzeComment scores one comment and records the result. A comment that
// already has a result is returned as is without calling the scorer again.
func (s *analysisService) AnalyzeComment(ctx context.Context, userID, commentID int64) (*models.AnalysisResult, error) {
	comment, err := s.repos.Comment.GetByID(ctx, commentID)
	if err != nil {
		return nil, fmt.Errorf("load comment %d: %w", commentID, err)
	}
	if comment == nil || comment.UserID != userID {
		return nil, ErrCommentNotFound
	}

	existing, err := s.repos.Analysis.GetByCommentID(ctx, commentID)
	if err != nil {
		return nil, fmt.Errorf("load analysis for comment %d: %w", commentID, err)
	}
	if existing != nil {
		return existing, nil
	}

	// Scoring is a remote call and stays outside the transaction
	score, err := s.scorer.Score(ctx, comment.Content)
	if err != nil {
		return nil, fmt.Errorf("score comment %d: %w", commentID, err)
	}

	result := &models.AnalysisResult{
		CommentID:     comment.ID,
		UserID:        comment.UserID,
		ToxicityScore: score.Toxicity,
		Category:      score.Category,
		IsMalicious:   score.IsMalicious(s.threshold),
	}

	// A blocked-word verdict set at ingest is never cleared here
	malicious := comment.IsMalicious || result.IsMalicious

	err = s.repos.Tx.InTx(ctx, func(tx *repository.Repositories) error {
		if err := tx.Analysis.Create(ctx, result); err != nil {
			return err
		}
		return tx.Comment.MarkAnalyzed(ctx, comment.ID, malicious)
	})
	if errors.Is(err, repository.ErrDuplicate) {
		// Lost a race with a concurrent analysis of the same comment
		stored, lookupErr := s.repos.Analysis.GetByCommentID(ctx, commentID)
		if lookupErr == nil && stored != nil {
			return stored, nil
		}
	}
	if err != nil {
		return nil, fmt.Errorf("store analysis for comment %d: %w", commentID, err)
	}

	s.log.Debug().
		Int64("comment_id", comment.ID).
		Str("score", result.ToxicityScore.String()).
		Bool("malicious", result.IsMalicious).
		Msg("Comment analyzed")

	return result, nil
}

// AnalyzeBulk analyzes each id independently. Failures are counted and do
// not stop the batch.
func (s *analysisService) AnalyzeBulk(ctx context.Context, userID int64, commentIDs []int64) (*models.BulkAnalysisResult, error) {
	out := &models.BulkAnalysisResult{Results: []models.AnalysisResult{}}

	for _, id := range commentIDs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result, err := s.AnalyzeComment(ctx, userID, id)
		if err != nil {
			out.ErrorCount++
			s.log.Warn().Err(err).Int64("comment_id", id).Msg("Bulk analysis item failed")
			continue
		}
		out.AnalyzedCount++
		out.Results = append(out.Results, *result)
	}

	s.log.Info().
		Int64("user_id", userID).
		Int("analyzed", out.AnalyzedCount).
		Int("errors", out.ErrorCount).
		Msg("Bulk analysis completed")

	return out, nil
}

// History returns the user's most recent analysis results
func (s *analysisService) History(ctx context.Context, userID int64, limit int) ([]models.AnalysisResult, error) {
	results, err := s.repos.Analysis.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []models.AnalysisResult{}
	}
	return results, nil
}

// GetCount returns the number of stored analysis results
func (s *analysisService) GetCount(ctx context.Context) (int, error) {
	return s.repos.Analysis.Count(ctx)
}
