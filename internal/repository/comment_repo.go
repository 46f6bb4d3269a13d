package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/2601-ai-team4/ContentShield/internal/database"
	"github.com/2601-ai-team4/ContentShield/internal/models"
	"github.com/lib/pq"
)

const commentColumns = `id, user_id, platform, content_url, author_name, author_identifier,
	external_comment_id, content, commented_at, is_analyzed, is_malicious,
	contains_blocked_word, matched_blocked_word, created_at`

const pgUniqueViolation = "23505"

// commentRepo is the concrete implementation of CommentRepository
type commentRepo struct {
	db database.Executor
}

// NewCommentRepo creates a new comment repository
func NewCommentRepo(db database.Executor) CommentRepository {
	return &commentRepo{db: db}
}

// Create inserts a comment and, for source-keyed comments, its ingest key.
// Callers wanting both writes to be atomic run Create inside InTx.
func (r *commentRepo) Create(ctx context.Context, comment *models.Comment) error {
	query := `
		INSERT INTO comments (user_id, platform, content_url, author_name, author_identifier,
			external_comment_id, content, commented_at, is_analyzed, is_malicious,
			contains_blocked_word, matched_blocked_word)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		comment.UserID, comment.Platform, comment.ContentURL, nullString(comment.AuthorName),
		nullString(comment.AuthorIdentifier), comment.ExternalCommentID, comment.Content,
		comment.CommentedAt, comment.IsAnalyzed, comment.IsMalicious,
		comment.ContainsBlockedWord, nullString(comment.MatchedBlockedWord),
	).Scan(&comment.ID, &comment.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrDuplicate, comment.ExternalCommentID)
		}
		return err
	}

	if !comment.SourceKeyed {
		return nil
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO comment_ingest_keys (user_id, external_comment_id, first_seen_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, external_comment_id) DO NOTHING
	`, comment.UserID, comment.ExternalCommentID, comment.CreatedAt)
	return err
}

// GetByID retrieves a comment by ID
func (r *commentRepo) GetByID(ctx context.Context, id int64) (*models.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments WHERE id = $1`

	comment, err := scanComment(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return comment, nil
}

// KeyExists reports whether the user has ever ingested externalID
func (r *commentRepo) KeyExists(ctx context.Context, userID int64, externalID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM comment_ingest_keys WHERE user_id = $1 AND external_comment_id = $2)",
		userID, externalID,
	).Scan(&exists)
	return exists, err
}

// Find returns one page of the user's comments, newest first
func (r *commentRepo) Find(ctx context.Context, q models.CommentQuery) (*models.CommentPage, error) {
	where, args := commentFilter(q)

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM comments WHERE "+where, args...).Scan(&total); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(
		"SELECT %s FROM comments WHERE %s ORDER BY commented_at DESC, id DESC LIMIT $%d OFFSET $%d",
		commentColumns, where, len(args)+1, len(args)+2,
	)
	rows, err := r.db.QueryContext(ctx, query, append(args, q.Size, q.Offset())...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	page := &models.CommentPage{
		Items:      make([]models.Comment, 0, q.Size),
		Page:       q.Page,
		Size:       q.Size,
		TotalCount: total,
	}
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		page.Items = append(page.Items, *comment)
	}

	return page, rows.Err()
}

// StreamByUser streams every comment matching q for export
func (r *commentRepo) StreamByUser(ctx context.Context, q models.CommentQuery, callback func(*models.Comment) error) error {
	where, args := commentFilter(q)
	query := "SELECT " + commentColumns + " FROM comments WHERE " + where + " ORDER BY commented_at DESC, id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return err
		}
		if err := callback(comment); err != nil {
			return err
		}
	}

	return rows.Err()
}

// MarkAnalyzed flags a comment as analyzed and stores its malicious verdict
func (r *commentRepo) MarkAnalyzed(ctx context.Context, id int64, malicious bool) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE comments SET is_analyzed = TRUE, is_malicious = $2 WHERE id = $1",
		id, malicious,
	)
	return err
}

// forgetRemoved deletes the matching comments together with their ingest
// keys, so a later crawl stages them again. It returns the comment count.
const forgetRemoved = `
	WITH removed AS (
		DELETE FROM comments WHERE %s
		RETURNING user_id, external_comment_id
	), forgotten AS (
		DELETE FROM comment_ingest_keys k
		USING removed r
		WHERE k.user_id = r.user_id AND k.external_comment_id = r.external_comment_id
	)
	SELECT COUNT(*) FROM removed
`

func (r *commentRepo) deleteAndForget(ctx context.Context, where string, args ...any) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, fmt.Sprintf(forgetRemoved, where), args...).Scan(&n)
	return n, err
}

// DeleteByID deletes one of the user's comments and its ingest key
func (r *commentRepo) DeleteByID(ctx context.Context, userID, id int64) (bool, error) {
	n, err := r.deleteAndForget(ctx, "id = $1 AND user_id = $2", id, userID)
	return n > 0, err
}

// DeleteByIDs deletes the listed comments owned by the user and their ingest keys
func (r *commentRepo) DeleteByIDs(ctx context.Context, userID int64, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return r.deleteAndForget(ctx, "user_id = $1 AND id = ANY($2)", userID, pq.Array(ids))
}

// DeleteByUserAndURL deletes the user's comments for one content URL and their ingest keys
func (r *commentRepo) DeleteByUserAndURL(ctx context.Context, userID int64, url string) (int64, error) {
	return r.deleteAndForget(ctx, "user_id = $1 AND content_url = $2", userID, url)
}

// DeleteByUser clears every staged comment of the user. The ingest ledger is
// left alone so the next crawl still skips what was already seen.
func (r *commentRepo) DeleteByUser(ctx context.Context, userID int64) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM comments WHERE user_id = $1", userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// PurgeByUser deletes every comment of the user and forgets every ingest key
func (r *commentRepo) PurgeByUser(ctx context.Context, userID int64) (int64, error) {
	n, err := r.DeleteByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	if _, err := r.db.ExecContext(ctx, "DELETE FROM comment_ingest_keys WHERE user_id = $1", userID); err != nil {
		return 0, err
	}
	return n, nil
}

// Count returns the total number of comments
func (r *commentRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM comments").Scan(&count)
	return count, err
}

// commentFilter builds the WHERE clause shared by Find and StreamByUser
func commentFilter(q models.CommentQuery) (string, []any) {
	clauses := []string{"user_id = $1"}
	args := []any{q.UserID}

	add := func(clause string, arg any) {
		args = append(args, arg)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if q.URL != "" {
		add("content_url = $%d", q.URL)
	}
	if q.IsMalicious != nil {
		add("is_malicious = $%d", *q.IsMalicious)
	}
	if !q.Start.IsZero() {
		add("commented_at >= $%d", q.Start)
	}
	if !q.End.IsZero() {
		add("commented_at <= $%d", q.End)
	}

	return strings.Join(clauses, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanComment(row rowScanner) (*models.Comment, error) {
	var c models.Comment
	var authorName, authorIdentifier, matched sql.NullString

	err := row.Scan(
		&c.ID, &c.UserID, &c.Platform, &c.ContentURL, &authorName, &authorIdentifier,
		&c.ExternalCommentID, &c.Content, &c.CommentedAt, &c.IsAnalyzed, &c.IsMalicious,
		&c.ContainsBlockedWord, &matched, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.AuthorName = authorName.String
	c.AuthorIdentifier = authorIdentifier.String
	c.MatchedBlockedWord = matched.String
	return &c, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation
}

// helper to convert empty string to NULL
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
