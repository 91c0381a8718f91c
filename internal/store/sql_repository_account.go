// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/go-account-keeper/internal/logger"
	"github.com/MKhiriev/go-account-keeper/internal/utils"
	"github.com/MKhiriev/go-account-keeper/models"
)

// accountRepository is the SQL implementation of [AccountRepository] and
// [SecretRepository], shared by SQLite and PostgreSQL.
//
// Every mutation holds the in-process lock of its owner and runs inside a
// transaction that also takes the engine-level owner lock, so the
// single-active invariant holds across processes too.
type accountRepository struct {
	*DB
	locks *utils.KeyedMutex
	now   func() time.Time
}

// NewAccountRepository constructs the SQL account repository over db. locks
// is shared with any other writer in the process.
func NewAccountRepository(db *DB, locks *utils.KeyedMutex) Repository {
	return &accountRepository{
		DB:    db,
		locks: locks,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// UpsertAndActivate implements [AccountRepository].
func (r *accountRepository) UpsertAndActivate(ctx context.Context, ownerID int64, label, token string, secret models.SecretMaterial) error {
	log := logger.FromContext(ctx)

	if label == "" {
		return ErrEmptyLabel
	}

	deactivate, deactivateArgs, err := buildDeactivateOthersQuery(r.builder, ownerID, label)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	upsert, upsertArgs, err := buildUpsertActiveQuery(r.builder, ownerID, label, token, secret, r.now())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	unlock := r.locks.Lock(ownerID)
	defer unlock()

	err = r.inTx(ctx, func(tx *sql.Tx) error {
		if err := r.lockOwner(ctx, tx, ownerID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, deactivate, deactivateArgs...); err != nil {
			return fmt.Errorf("%w: %w: %w", ErrUnavailable, ErrExecutingStatement, err)
		}
		if _, err := tx.ExecContext(ctx, upsert, upsertArgs...); err != nil {
			return fmt.Errorf("%w: %w: %w", ErrUnavailable, ErrExecutingStatement, err)
		}
		return nil
	})
	if err != nil {
		log.Err(err).
			Str("func", "accountRepository.UpsertAndActivate").
			Int64("owner_id", ownerID).
			Str("label", label).
			Msg("failed to store and activate identity")
		return err
	}

	return nil
}

// GetActive implements [AccountRepository].
func (r *accountRepository) GetActive(ctx context.Context, ownerID int64) (models.Identity, bool, error) {
	log := logger.FromContext(ctx)

	query, args, err := buildSelectActiveQuery(r.builder, ownerID)
	if err != nil {
		return models.Identity{}, false, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	identity, err := scanIdentity(r.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Identity{}, false, nil
	}
	if err != nil {
		log.Err(err).
			Str("func", "accountRepository.GetActive").
			Int64("owner_id", ownerID).
			Msg("failed to get active identity")
		return models.Identity{}, false, fmt.Errorf("%w: %w: %w", ErrUnavailable, ErrScanningRow, err)
	}

	return identity, true, nil
}

// Get implements [AccountRepository].
func (r *accountRepository) Get(ctx context.Context, ownerID int64, label string) (models.Identity, bool, error) {
	query, args, err := buildSelectIdentityQuery(r.builder, ownerID, label)
	if err != nil {
		return models.Identity{}, false, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	identity, err := scanIdentity(r.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Identity{}, false, nil
	}
	if err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "accountRepository.Get").
			Int64("owner_id", ownerID).
			Str("label", label).
			Msg("failed to get identity")
		return models.Identity{}, false, fmt.Errorf("%w: %w: %w", ErrUnavailable, ErrScanningRow, err)
	}

	return identity, true, nil
}

// List implements [AccountRepository].
func (r *accountRepository) List(ctx context.Context, ownerID int64) ([]models.AccountSummary, error) {
	log := logger.FromContext(ctx)

	query, args, err := buildListQuery(r.builder, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := r.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "accountRepository.List").
			Int64("owner_id", ownerID).
			Msg("failed to execute query for listing identities")
		return nil, fmt.Errorf("%w: %w: %w", ErrUnavailable, ErrExecutingQuery, err)
	}
	defer rows.Close()

	accounts := make([]models.AccountSummary, 0, 4)
	for rows.Next() {
		var a models.AccountSummary
		if err := rows.Scan(&a.Label, &a.IsActive); err != nil {
			log.Err(err).
				Str("func", "accountRepository.List").
				Int64("owner_id", ownerID).
				Msg("failed to scan identity row")
			return nil, fmt.Errorf("%w: %w: %w", ErrUnavailable, ErrScanningRow, err)
		}
		accounts = append(accounts, a)
	}

	if err := rows.Err(); err != nil {
		log.Err(err).
			Str("func", "accountRepository.List").
			Int64("owner_id", ownerID).
			Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("%w: %w: %w", ErrUnavailable, ErrScanningRows, err)
	}

	return accounts, nil
}

// SetActive implements [AccountRepository].
func (r *accountRepository) SetActive(ctx context.Context, ownerID int64, label string) error {
	log := logger.FromContext(ctx)

	if label == "" {
		return ErrNotFound
	}

	count, countArgs, err := buildCountQuery(r.builder, ownerID, label)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	deactivate, deactivateArgs, err := buildDeactivateOthersQuery(r.builder, ownerID, label)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	activate, activateArgs, err := buildActivateQuery(r.builder, ownerID, label)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	unlock := r.locks.Lock(ownerID)
	defer unlock()

	err = r.inTx(ctx, func(tx *sql.Tx) error {
		if err := r.lockOwner(ctx, tx, ownerID); err != nil {
			return err
		}

		var n int
		if err := tx.QueryRowContext(ctx, count, countArgs...).Scan(&n); err != nil {
			return fmt.Errorf("%w: %w: %w", ErrUnavailable, ErrScanningRow, err)
		}
		if n == 0 {
			return ErrNotFound
		}

		if _, err := tx.ExecContext(ctx, deactivate, deactivateArgs...); err != nil {
			return fmt.Errorf("%w: %w: %w", ErrUnavailable, ErrExecutingStatement, err)
		}
		res, err := tx.ExecContext(ctx, activate, activateArgs...)
		if err != nil {
			return fmt.Errorf("%w: %w: %w", ErrUnavailable, ErrExecutingStatement, err)
		}
		// rolls back the deactivation when the row vanished after the count
		return requireAffected(res, ErrNotFound)
	})
	if err != nil && !errors.Is(err, ErrNotFound) {
		log.Err(err).
			Str("func", "accountRepository.SetActive").
			Int64("owner_id", ownerID).
			Str("label", label).
			Msg("failed to switch active identity")
	}

	return err
}

// Delete implements [AccountRepository].
func (r *accountRepository) Delete(ctx context.Context, ownerID int64, label string) error {
	query, args, err := buildDeleteQuery(r.builder, ownerID, label)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return r.execLocked(ctx, "accountRepository.Delete", ownerID, query, args)
}

// DeleteAll implements [AccountRepository].
func (r *accountRepository) DeleteAll(ctx context.Context, ownerID int64) error {
	query, args, err := buildDeleteAllQuery(r.builder, ownerID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return r.execLocked(ctx, "accountRepository.DeleteAll", ownerID, query, args)
}

// HasAny implements [AccountRepository].
func (r *accountRepository) HasAny(ctx context.Context, ownerID int64) (bool, error) {
	query, args, err := buildCountOwnerQuery(r.builder, ownerID)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var n int
	if err := r.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "accountRepository.HasAny").
			Int64("owner_id", ownerID).
			Msg("failed to count identities")
		return false, fmt.Errorf("%w: %w: %w", ErrUnavailable, ErrScanningRow, err)
	}

	return n > 0, nil
}

// UpdateToken implements [AccountRepository].
func (r *accountRepository) UpdateToken(ctx context.Context, ownerID int64, label, token string) error {
	query, args, err := buildUpdateTokenQuery(r.builder, ownerID, label, token, r.now())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	unlock := r.locks.Lock(ownerID)
	defer unlock()

	res, err := r.ExecContext(ctx, query, args...)
	if err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "accountRepository.UpdateToken").
			Int64("owner_id", ownerID).
			Str("label", label).
			Msg("failed to update session token")
		return fmt.Errorf("%w: %w: %w", ErrUnavailable, ErrExecutingStatement, err)
	}

	return requireAffected(res, ErrNotFound)
}

// ListSecrets implements [SecretRepository].
func (r *accountRepository) ListSecrets(ctx context.Context) ([]models.SecretRecord, error) {
	log := logger.FromContext(ctx)

	query, args, err := buildListSecretsQuery(r.builder)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := r.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", "accountRepository.ListSecrets").Msg("failed to execute query for listing secrets")
		return nil, fmt.Errorf("%w: %w: %w", ErrUnavailable, ErrExecutingQuery, err)
	}
	defer rows.Close()

	records := make([]models.SecretRecord, 0, 50)
	for rows.Next() {
		var rec models.SecretRecord
		if err := rows.Scan(&rec.OwnerID, &rec.Label, &rec.Secret.Kind, &rec.Secret.Value); err != nil {
			log.Err(err).Str("func", "accountRepository.ListSecrets").Msg("failed to scan secret row")
			return nil, fmt.Errorf("%w: %w: %w", ErrUnavailable, ErrScanningRow, err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		log.Err(err).Str("func", "accountRepository.ListSecrets").Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("%w: %w: %w", ErrUnavailable, ErrScanningRows, err)
	}

	return records, nil
}

// ReplaceSecret implements [SecretRepository].
func (r *accountRepository) ReplaceSecret(ctx context.Context, ownerID int64, label string, from, to models.SecretMaterial) error {
	query, args, err := buildReplaceSecretQuery(r.builder, ownerID, label, from, to, r.now())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	unlock := r.locks.Lock(ownerID)
	defer unlock()

	res, err := r.ExecContext(ctx, query, args...)
	if err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "accountRepository.ReplaceSecret").
			Int64("owner_id", ownerID).
			Str("label", label).
			Msg("failed to replace secret")
		return fmt.Errorf("%w: %w: %w", ErrUnavailable, ErrExecutingStatement, err)
	}

	return requireAffected(res, ErrSecretChanged)
}

func (r *accountRepository) execLocked(ctx context.Context, fn string, ownerID int64, query string, args []any) error {
	unlock := r.locks.Lock(ownerID)
	defer unlock()

	if _, err := r.ExecContext(ctx, query, args...); err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", fn).
			Int64("owner_id", ownerID).
			Msg("failed to execute statement")
		return fmt.Errorf("%w: %w: %w", ErrUnavailable, ErrExecutingStatement, err)
	}
	return nil
}

func requireAffected(res sql.Result, none error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w: %w", ErrUnavailable, ErrExecutingStatement, err)
	}
	if n == 0 {
		return none
	}
	return nil
}

func scanIdentity(row *sql.Row) (models.Identity, error) {
	var (
		identity  models.Identity
		updatedAt sql.NullTime
	)
	err := row.Scan(
		&identity.OwnerID,
		&identity.Label,
		&identity.SessionToken,
		&identity.Secret.Kind,
		&identity.Secret.Value,
		&identity.IsActive,
		&updatedAt,
	)
	if err != nil {
		return models.Identity{}, err
	}
	identity.UpdatedAt = updatedAt.Time
	return identity, nil
}
