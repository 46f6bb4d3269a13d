package repository

import (
	"context"
	"database/sql"

	"github.com/2601-ai-team4/ContentShield/internal/database"
	"github.com/2601-ai-team4/ContentShield/internal/models"
	"github.com/lib/pq"
)

const runColumns = `id, user_id, content_url, window_start, window_end, phase, status,
	idempotency_key, total_crawled, saved_count, skipped_count, skipped_blank,
	skipped_out_of_window, skipped_duplicate, fail_count,
	persist_fail_count, analyze_fail_count, error_message, duration_ms, rows_per_sec,
	created_at, completed_at`

// runRepo is the concrete implementation of RunRepository
type runRepo struct {
	db *database.DB
}

// NewRunRepo creates a new ingest run repository
func NewRunRepo(db *database.DB) RunRepository {
	return &runRepo{db: db}
}

// Create inserts a new run
func (r *runRepo) Create(ctx context.Context, run *models.IngestRun) error {
	query := `
		INSERT INTO ingest_runs (id, user_id, content_url, window_start, window_end, phase,
			status, idempotency_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query,
		run.ID, run.UserID, run.ContentURL, run.WindowStart, run.WindowEnd, run.Phase,
		run.Status, nullString(run.IdempotencyKey), run.CreatedAt,
	)
	return err
}

// Update updates run phase, status and counters
func (r *runRepo) Update(ctx context.Context, run *models.IngestRun) error {
	query := `
		UPDATE ingest_runs SET
			phase = $1, status = $2, total_crawled = $3, saved_count = $4, skipped_count = $5,
			skipped_blank = $6, skipped_out_of_window = $7, skipped_duplicate = $8,
			fail_count = $9, persist_fail_count = $10, analyze_fail_count = $11,
			error_message = $12, duration_ms = $13, rows_per_sec = $14, completed_at = $15
		WHERE id = $16
	`
	_, err := r.db.ExecContext(ctx, query,
		run.Phase, run.Status, run.TotalCrawled, run.SavedCount, run.SkippedCount,
		run.Skipped.Blank, run.Skipped.OutOfWindow, run.Skipped.Duplicate,
		run.FailCount, run.PersistFailCount, run.AnalyzeFailCount,
		nullString(run.ErrorMessage), run.DurationMs, run.RowsPerSec, run.CompletedAt, run.ID,
	)
	return err
}

// GetByID retrieves a run by ID
func (r *runRepo) GetByID(ctx context.Context, id string) (*models.IngestRun, error) {
	query := `SELECT ` + runColumns + ` FROM ingest_runs WHERE id = $1`
	return r.scanRun(r.db.QueryRowContext(ctx, query, id))
}

// GetByIdempotencyKey retrieves the latest completed run the user started with key
func (r *runRepo) GetByIdempotencyKey(ctx context.Context, userID int64, key string) (*models.IngestRun, error) {
	query := `
		SELECT ` + runColumns + ` FROM ingest_runs
		WHERE user_id = $1 AND idempotency_key = $2 AND status = 'completed'
		ORDER BY created_at DESC
		LIMIT 1
	`
	return r.scanRun(r.db.QueryRowContext(ctx, query, userID, key))
}

func (r *runRepo) scanRun(row *sql.Row) (*models.IngestRun, error) {
	var run models.IngestRun
	var idempotencyKey, errorMessage sql.NullString
	var completedAt sql.NullTime

	err := row.Scan(
		&run.ID, &run.UserID, &run.ContentURL, &run.WindowStart, &run.WindowEnd, &run.Phase,
		&run.Status, &idempotencyKey, &run.TotalCrawled, &run.SavedCount, &run.SkippedCount,
		&run.Skipped.Blank, &run.Skipped.OutOfWindow, &run.Skipped.Duplicate,
		&run.FailCount, &run.PersistFailCount, &run.AnalyzeFailCount, &errorMessage,
		&run.DurationMs, &run.RowsPerSec, &run.CreatedAt, &completedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	run.IdempotencyKey = idempotencyKey.String
	run.ErrorMessage = errorMessage.String
	if completedAt.Valid {
		run.CompletedAt = &completedAt.Time
	}

	return &run, nil
}

// AddErrors records per-record failures using the COPY protocol
func (r *runRepo) AddErrors(ctx context.Context, runID string, errors []models.RunError) error {
	if len(errors) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("ingest_run_errors",
		"run_id", "record_index", "stage", "message", "external_id",
	))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range errors {
		if _, err := stmt.ExecContext(ctx, runID, e.RecordIndex, e.Stage, e.Message, nullString(e.ExternalID)); err != nil {
			return err
		}
	}

	// Flush the COPY buffer
	if _, err := stmt.ExecContext(ctx); err != nil {
		return err
	}

	return tx.Commit()
}

// GetErrors retrieves the failures recorded for a run
func (r *runRepo) GetErrors(ctx context.Context, runID string, limit int) ([]models.RunError, error) {
	query := `SELECT record_index, stage, message, external_id FROM ingest_run_errors WHERE run_id = $1 ORDER BY record_index, id`
	args := []any{runID}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var errors []models.RunError
	for rows.Next() {
		var e models.RunError
		var externalID sql.NullString
		if err := rows.Scan(&e.RecordIndex, &e.Stage, &e.Message, &externalID); err != nil {
			return nil, err
		}
		e.ExternalID = externalID.String
		errors = append(errors, e)
	}

	return errors, rows.Err()
}
