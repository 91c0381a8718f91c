package store

import (
	"context"

	"github.com/MKhiriev/go-account-keeper/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/store_mock.go -package=mock

// AccountRepository is the persistent map from (owner, label) to identity.
//
// After every call at most one identity per owner is active and labels are
// unique within an owner. Mutations of the same owner are serialized;
// different owners never block each other. Engine failures are returned as
// [ErrUnavailable], never as empty results.
type AccountRepository interface {
	// UpsertAndActivate stores the identity (replacing token and secret if
	// it exists) and makes it the only active identity of the owner, as a
	// single atomic step. An empty label is rejected with [ErrEmptyLabel].
	UpsertAndActivate(ctx context.Context, ownerID int64, label, token string, secret models.SecretMaterial) error

	// GetActive returns the active identity of the owner. ok is false when
	// the owner has none.
	GetActive(ctx context.Context, ownerID int64) (identity models.Identity, ok bool, err error)

	// Get returns the identity stored under label, active or not. ok is
	// false when the owner has no such identity.
	Get(ctx context.Context, ownerID int64, label string) (identity models.Identity, ok bool, err error)

	// List returns all identities of the owner ordered by label.
	List(ctx context.Context, ownerID int64) ([]models.AccountSummary, error)

	// SetActive makes label the only active identity of the owner.
	// Returns [ErrNotFound] when the owner has no such identity, including
	// for an empty label.
	SetActive(ctx context.Context, ownerID int64, label string) error

	// Delete removes one identity. Deleting a missing identity is not an
	// error. Deleting the active identity leaves the owner without one.
	Delete(ctx context.Context, ownerID int64, label string) error

	// DeleteAll removes every identity of the owner. Idempotent.
	DeleteAll(ctx context.Context, ownerID int64) error

	// HasAny reports whether the owner has at least one identity.
	HasAny(ctx context.Context, ownerID int64) (bool, error)

	// UpdateToken replaces the session token of an identity without
	// touching the active flag. Returns [ErrNotFound] when the identity was
	// deleted meanwhile.
	UpdateToken(ctx context.Context, ownerID int64, label, token string) error
}

// SecretRepository gives the secret migration access to stored secrets
// across all owners.
type SecretRepository interface {
	// ListSecrets returns every identity whose secret is not empty.
	ListSecrets(ctx context.Context) ([]models.SecretRecord, error)

	// ReplaceSecret atomically swaps the secret of one identity from `from`
	// to `to`. Returns [ErrSecretChanged] if the stored secret is no longer
	// `from`.
	ReplaceSecret(ctx context.Context, ownerID int64, label string, from, to models.SecretMaterial) error
}

// Repository is implemented by every storage backend.
type Repository interface {
	AccountRepository
	SecretRepository
}

// ErrorClassificator decides whether a failed database operation may be
// retried.
type ErrorClassificator interface {
	Classify(err error) ErrorClassification
}
