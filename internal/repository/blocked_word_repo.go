package repository

import (
	"context"

	"github.com/2601-ai-team4/ContentShield/internal/database"
	"github.com/2601-ai-team4/ContentShield/internal/models"
)

type blockedWordRepo struct {
	db database.Executor
}

// NewBlockedWordRepo creates a new blocked word repository
func NewBlockedWordRepo(db database.Executor) BlockedWordRepository {
	return &blockedWordRepo{db: db}
}

func (r *blockedWordRepo) GetActive(ctx context.Context, userID int64) ([]models.BlockedWord, error) {
	query := `
		SELECT id, user_id, word, is_active, created_at
		FROM blocked_words
		WHERE user_id = $1 AND is_active
		ORDER BY created_at, id
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	words := make([]models.BlockedWord, 0)
	for rows.Next() {
		var w models.BlockedWord
		if err := rows.Scan(&w.ID, &w.UserID, &w.Word, &w.IsActive, &w.CreatedAt); err != nil {
			return nil, err
		}
		words = append(words, w)
	}

	return words, rows.Err()
}
