package repository

import (
	"context"
	"errors"

	"github.com/2601-ai-team4/ContentShield/internal/database"
	"github.com/2601-ai-team4/ContentShield/internal/models"
)

// ErrDuplicate is returned when an insert collides with an existing
// (user_id, external_comment_id) pair.
var ErrDuplicate = errors.New("duplicate comment")

// CommentRepository defines the interface for staged comment operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id int64) (*models.Comment, error)
	KeyExists(ctx context.Context, userID int64, externalID string) (bool, error)
	Find(ctx context.Context, q models.CommentQuery) (*models.CommentPage, error)
	StreamByUser(ctx context.Context, q models.CommentQuery, callback func(*models.Comment) error) error
	MarkAnalyzed(ctx context.Context, id int64, malicious bool) error
	DeleteByID(ctx context.Context, userID, id int64) (bool, error)
	DeleteByIDs(ctx context.Context, userID int64, ids []int64) (int64, error)
	DeleteByUserAndURL(ctx context.Context, userID int64, url string) (int64, error)
	DeleteByUser(ctx context.Context, userID int64) (int64, error)
	PurgeByUser(ctx context.Context, userID int64) (int64, error)
	Count(ctx context.Context) (int, error)
}

// AnalysisRepository defines the interface for analysis result operations
type AnalysisRepository interface {
	Create(ctx context.Context, result *models.AnalysisResult) error
	GetByCommentID(ctx context.Context, commentID int64) (*models.AnalysisResult, error)
	ListByUser(ctx context.Context, userID int64, limit int) ([]models.AnalysisResult, error)
	Count(ctx context.Context) (int, error)
}

// BlockedWordRepository reads the blocked words owned by the settings service
type BlockedWordRepository interface {
	// GetActive returns the user's active words ordered by (created_at, id)
	GetActive(ctx context.Context, userID int64) ([]models.BlockedWord, error)
}

// RunRepository defines the interface for ingest run bookkeeping
type RunRepository interface {
	Create(ctx context.Context, run *models.IngestRun) error
	Update(ctx context.Context, run *models.IngestRun) error
	GetByID(ctx context.Context, id string) (*models.IngestRun, error)
	GetByIdempotencyKey(ctx context.Context, userID int64, key string) (*models.IngestRun, error)
	AddErrors(ctx context.Context, runID string, errors []models.RunError) error
	GetErrors(ctx context.Context, runID string, limit int) ([]models.RunError, error)
}

// Transactor runs fn against repositories bound to one transaction.
// Calling InTx on a transaction-scoped Transactor opens a savepoint, so a
// failing nested fn rolls back only its own writes.
type Transactor interface {
	InTx(ctx context.Context, fn func(tx *Repositories) error) error
}

// Repositories holds all repository interfaces
type Repositories struct {
	Comment     CommentRepository
	Analysis    AnalysisRepository
	BlockedWord BlockedWordRepository
	Run         RunRepository
	Tx          Transactor
}

// New creates all repositories with the given database connection
func New(db *database.DB) *Repositories {
	runRepo := NewRunRepo(db)
	return &Repositories{
		Comment:     NewCommentRepo(db),
		Analysis:    NewAnalysisRepo(db),
		BlockedWord: NewBlockedWordRepo(db),
		Run:         runRepo,
		Tx:          NewTransactor(db, runRepo),
	}
}

// bind returns repositories that execute against ex. Run bookkeeping is never
// transactional and always uses run.
func bind(ex database.Executor, run RunRepository) *Repositories {
	return &Repositories{
		Comment:     NewCommentRepo(ex),
		Analysis:    NewAnalysisRepo(ex),
		BlockedWord: NewBlockedWordRepo(ex),
		Run:         run,
	}
}
