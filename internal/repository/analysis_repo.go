package repository

import (
	"context"
	"database/sql"

	"github.com/2601-ai-team4/ContentShield/internal/database"
	"github.com/2601-ai-team4/ContentShield/internal/models"
)

// analysisRepo is the concrete implementation of AnalysisRepository
type analysisRepo struct {
	db database.Executor
}

// NewAnalysisRepo creates a new analysis result repository
func NewAnalysisRepo(db database.Executor) AnalysisRepository {
	return &analysisRepo{db: db}
}

// Create inserts an analysis result. Results are never updated.
func (r *analysisRepo) Create(ctx context.Context, result *models.AnalysisResult) error {
	query := `
		INSERT INTO analysis_results (comment_id, user_id, toxicity_score, category, is_malicious)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, analyzed_at
	`
	err := r.db.QueryRowContext(ctx, query,
		result.CommentID, result.UserID, result.ToxicityScore, result.Category, result.IsMalicious,
	).Scan(&result.ID, &result.AnalyzedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// GetByCommentID retrieves the result recorded for a comment
func (r *analysisRepo) GetByCommentID(ctx context.Context, commentID int64) (*models.AnalysisResult, error) {
	query := `
		SELECT id, comment_id, user_id, toxicity_score, category, is_malicious, analyzed_at
		FROM analysis_results WHERE comment_id = $1
	`
	var res models.AnalysisResult
	err := r.db.QueryRowContext(ctx, query, commentID).Scan(
		&res.ID, &res.CommentID, &res.UserID, &res.ToxicityScore,
		&res.Category, &res.IsMalicious, &res.AnalyzedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// ListByUser returns the user's most recent results, newest first
func (r *analysisRepo) ListByUser(ctx context.Context, userID int64, limit int) ([]models.AnalysisResult, error) {
	query := `
		SELECT id, comment_id, user_id, toxicity_score, category, is_malicious, analyzed_at
		FROM analysis_results WHERE user_id = $1
		ORDER BY analyzed_at DESC, id DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]models.AnalysisResult, 0)
	for rows.Next() {
		var res models.AnalysisResult
		if err := rows.Scan(
			&res.ID, &res.CommentID, &res.UserID, &res.ToxicityScore,
			&res.Category, &res.IsMalicious, &res.AnalyzedAt,
		); err != nil {
			return nil, err
		}
		results = append(results, res)
	}

	return results, rows.Err()
}

// Count returns the total number of analysis results
func (r *analysisRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM analysis_results").Scan(&count)
	return count, err
}
