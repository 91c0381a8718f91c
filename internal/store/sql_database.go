// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/go-account-keeper/internal/logger"
	"github.com/MKhiriev/go-account-keeper/migrations"
)

// DB is an open SQL connection together with the driver-specific pieces the
// repository needs: the goose dialect, the placeholder format, and the error
// classifier.
type DB struct {
	*sql.DB
	dialect            string
	builder            sq.StatementBuilderType
	errorClassificator ErrorClassificator
	logger             *logger.Logger
}

// Migrate applies the embedded schema migrations.
func (db *DB) Migrate() error {
	return migrations.Migrate(db.DB, db.dialect)
}

// isPostgres reports whether the connection uses the PostgreSQL dialect.
func (db *DB) isPostgres() bool {
	return db.dialect == migrations.DialectPostgres
}

// inTx runs fn inside a transaction and commits it. fn is retried once when
// the classifier marks its failure as retryable (deadlock, serialization
// failure, busy database).
func (db *DB) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	err := db.runTx(ctx, fn)
	if err != nil && db.errorClassificator != nil && db.errorClassificator.Classify(err) == Retryable {
		logger.FromContext(ctx).Warn().Err(err).Str("func", "DB.inTx").Msg("retrying transaction")
		err = db.runTx(ctx, fn)
	}
	return err
}

func (db *DB) runTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %w: %w", ErrUnavailable, ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %w: %w", ErrUnavailable, ErrCommitingTransaction, err)
	}
	return nil
}

// lockOwner takes the per-owner transaction lock on PostgreSQL. SQLite
// transactions are opened with BEGIN IMMEDIATE and need nothing more.
func (db *DB) lockOwner(ctx context.Context, tx *sql.Tx, ownerID int64) error {
	if !db.isPostgres() {
		return nil
	}
	if _, err := tx.ExecContext(ctx, advisoryLockQuery, ownerID); err != nil {
		return fmt.Errorf("%w: %w: %w", ErrUnavailable, ErrExecutingStatement, err)
	}
	return nil
}
