// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package service holds the business logic of the account keeper: the
// session façade used by the chat front-end and the one-shot migration of
// stored secrets into the current encrypted scheme.
package service

import (
	"context"

	"github.com/MKhiriev/go-account-keeper/models"
)

// SessionOp is an upstream operation run with the bearer token of the active
// identity. It should return adapter.ErrUnauthenticated (possibly wrapped)
// when the upstream rejects the token.
type SessionOp func(ctx context.Context, token string) error

// AccountService is the public API of the keeper for the chat front-end.
//
// All methods are safe for concurrent use. Errors distinguish not found
// ([store.ErrNotFound], [ErrNoActiveAccount]), invalid credentials
// ([ErrInvalidCredentials]), unavailable backends ([store.ErrUnavailable],
// [ErrUpstreamUnavailable]) and expired sessions ([ErrSessionExpired]).
type AccountService interface {
	// AuthenticateAndStore logs in upstream with creds and, on success,
	// stores the identity labelled creds.Username as the active one. The
	// password is kept, encrypted, only when creds.RememberPassword is set.
	AuthenticateAndStore(ctx context.Context, ownerID int64, creds models.Credentials) error

	// WithActiveSession runs op with the token of the active identity. When
	// the token is rejected and an encrypted password is stored, the
	// identity is re-authenticated once, its token updated and op retried
	// once.
	WithActiveSession(ctx context.Context, ownerID int64, op SessionOp) error

	// GetActive returns the active identity. ok is false when there is none.
	GetActive(ctx context.Context, ownerID int64) (identity models.Identity, ok bool, err error)

	// List returns the identities of the owner ordered by label.
	List(ctx context.Context, ownerID int64) ([]models.AccountSummary, error)

	// SetActive switches the active identity.
	SetActive(ctx context.Context, ownerID int64, label string) error

	// Delete removes one identity. Idempotent.
	Delete(ctx context.Context, ownerID int64, label string) error

	// DeleteAll removes every identity of the owner. Idempotent.
	DeleteAll(ctx context.Context, ownerID int64) error

	// HasAny reports whether the owner has at least one identity.
	HasAny(ctx context.Context, ownerID int64) (bool, error)

	// VerifyLegacyPassword checks password against whatever secret the
	// identity stored under label holds, including legacy one-way hashes.
	// The identity need not be active.
	VerifyLegacyPassword(ctx context.Context, ownerID int64, label, password string) (bool, error)
}

// MigrationService rewrites stored secrets into the current encrypted
// scheme.
type MigrationService interface {
	// MigrateAll scans every stored secret once. A failure on one record is
	// reported and does not stop the run. Returns [ErrMigrationInProgress]
	// when another run is active.
	MigrateAll(ctx context.Context) (models.MigrationReport, error)

	// MigrateIdentity upgrades the secret of a single identity read by the
	// façade and returns the identity as now stored.
	MigrateIdentity(ctx context.Context, identity models.Identity) (models.Identity, error)
}
