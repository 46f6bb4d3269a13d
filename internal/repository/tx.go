package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/2601-ai-team4/ContentShield/internal/database"
)

// sqlTransactor opens a database transaction per InTx call
type sqlTransactor struct {
	db  *database.DB
	run RunRepository
}

// NewTransactor creates a Transactor over db
func NewTransactor(db *database.DB, run RunRepository) Transactor {
	return &sqlTransactor{db: db, run: run}
}

func (t *sqlTransactor) InTx(ctx context.Context, fn func(tx *Repositories) error) error {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	scoped := bind(tx, t.run)
	scoped.Tx = &savepointTransactor{tx: tx, repos: scoped, seq: new(int)}

	if err := fn(scoped); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return errors.Join(err, fmt.Errorf("rollback failed: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// savepointTransactor nests inside an open transaction
type savepointTransactor struct {
	tx    *sql.Tx
	repos *Repositories
	seq   *int
}

func (s *savepointTransactor) InTx(ctx context.Context, fn func(tx *Repositories) error) error {
	*s.seq++
	name := fmt.Sprintf("sp_%d", *s.seq)

	if _, err := s.tx.ExecContext(ctx, "SAVEPOINT "+name); err != nil {
		return fmt.Errorf("failed to create savepoint: %w", err)
	}

	if err := fn(s.repos); err != nil {
		if _, rbErr := s.tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+name); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback to savepoint failed: %w", rbErr))
		}
		return err
	}

	if _, err := s.tx.ExecContext(ctx, "RELEASE SAVEPOINT "+name); err != nil {
		return fmt.Errorf("failed to release savepoint: %w", err)
	}
	return nil
}
