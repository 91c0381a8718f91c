// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/go-account-keeper/internal/adapter"
	"github.com/MKhiriev/go-account-keeper/internal/config"
	"github.com/MKhiriev/go-account-keeper/internal/crypto"
	"github.com/MKhiriev/go-account-keeper/internal/logger"
	"github.com/MKhiriev/go-account-keeper/internal/store"
	"github.com/MKhiriev/go-account-keeper/internal/utils"
	"github.com/MKhiriev/go-account-keeper/internal/validators"
	"github.com/MKhiriev/go-account-keeper/models"
)

// tokenExpiryLeeway treats a JWT that expires within this window as already
// expired, so the upstream call is not wasted on it.
const tokenExpiryLeeway = 30 * time.Second

// accountService is the concrete implementation of AccountService.
type accountService struct {
	// accounts is the owned repository instance; the façade never reaches
	// storage through anything else.
	accounts store.AccountRepository

	// upstream authenticates credentials and is the target of session ops.
	upstream adapter.UpstreamAdapter

	// cipher encrypts remembered passwords and decrypts them for re-auth.
	cipher crypto.CipherService

	// hasher verifies legacy one-way hashes.
	hasher crypto.PasswordHasher

	// migrator upgrades legacy plaintext secrets when they are read.
	migrator MigrationService

	validator validators.Validator

	// hashKey keys the token fingerprints written to logs.
	hashKey string

	now    func() time.Time
	logger *logger.Logger
}

// NewAccountService constructs the session façade. migrator may be nil, in
// which case legacy secrets are left for the startup migration.
func NewAccountService(
	accounts store.AccountRepository,
	upstream adapter.UpstreamAdapter,
	cipher crypto.CipherService,
	hasher crypto.PasswordHasher,
	migrator MigrationService,
	validator validators.Validator,
	cfg config.App,
	logger *logger.Logger,
) AccountService {
	return &accountService{
		accounts:  accounts,
		upstream:  upstream,
		cipher:    cipher,
		hasher:    hasher,
		migrator:  migrator,
		validator: validator,
		hashKey:   cfg.HashKey,
		now:       time.Now,
		logger:    logger,
	}
}

// AuthenticateAndStore implements [AccountService].
//
// Returns:
//   - ErrInvalidDataProvided if creds fail validation.
//   - crypto.ErrKeyNotConfigured if the password should be remembered but
//     no cipher key is configured. Nothing is sent upstream in that case.
//   - ErrInvalidCredentials if the upstream rejects creds.
//   - ErrUpstreamUnavailable for any other upstream failure.
//   - store.ErrUnavailable if the identity cannot be persisted.
func (a *accountService) AuthenticateAndStore(ctx context.Context, ownerID int64, creds models.Credentials) error {
	log := logger.FromContext(ctx).WithOwner(ownerID)

	if err := a.validator.Validate(ctx, creds); err != nil {
		log.Debug().Err(err).Str("func", "accountService.AuthenticateAndStore").Msg("invalid credentials provided")
		return fmt.Errorf("%w: %w", ErrInvalidDataProvided, err)
	}

	secret := models.NoSecret()
	if creds.RememberPassword {
		ciphertext, err := a.cipher.Encrypt(creds.Password)
		if err != nil {
			log.Err(err).Str("func", "accountService.AuthenticateAndStore").Msg("cannot encrypt password")
			return fmt.Errorf("error encrypting password: %w", err)
		}
		secret = models.EncryptedSecret(ciphertext.String())
	}

	token, err := a.authenticate(ctx, creds.Username, creds.Password)
	if err != nil {
		log.Info().Err(err).Str("func", "accountService.AuthenticateAndStore").
			Str("label", creds.Username).
			Msg("upstream login failed")
		return err
	}

	if err = a.accounts.UpsertAndActivate(ctx, ownerID, creds.Username, token, secret); err != nil {
		return fmt.Errorf("error storing identity: %w", err)
	}

	log.Info().Str("func", "accountService.AuthenticateAndStore").
		Str("label", creds.Username).
		Bool("remember_password", creds.RememberPassword).
		Str("token_fp", utils.TokenFingerprint(token, a.hashKey)).
		Msg("identity stored and activated")

	return nil
}

// WithActiveSession implements [AccountService].
//
// The protocol is explicit: run op with the stored token; if the token is
// rejected (or is a JWT already past its exp), re-authenticate once with the
// stored encrypted password, persist the new token, and run op once more. A
// second rejection, or no stored password, yields ErrSessionExpired.
func (a *accountService) WithActiveSession(ctx context.Context, ownerID int64, op SessionOp) error {
	ctx = utils.ContextWithOwnerID(ctx, ownerID)
	log := logger.FromContext(ctx).WithOwner(ownerID)

	identity, err := a.activeIdentity(ctx, ownerID)
	if err != nil {
		return err
	}

	token := identity.SessionToken
	reauthenticated := false

	if utils.TokenExpired(token, a.now(), tokenExpiryLeeway) {
		log.Debug().Str("func", "accountService.WithActiveSession").
			Str("token_fp", utils.TokenFingerprint(token, a.hashKey)).
			Msg("stored token already expired")

		if token, err = a.reauthenticate(ctx, identity); err != nil {
			return err
		}
		reauthenticated = true
	}

	err = op(ctx, token)
	if !errors.Is(err, adapter.ErrUnauthenticated) {
		return err
	}
	if reauthenticated {
		return fmt.Errorf("%w: fresh token rejected", ErrSessionExpired)
	}

	log.Debug().Str("func", "accountService.WithActiveSession").
		Str("token_fp", utils.TokenFingerprint(token, a.hashKey)).
		Msg("token rejected by upstream")

	if token, err = a.reauthenticate(ctx, identity); err != nil {
		return err
	}

	err = op(ctx, token)
	if errors.Is(err, adapter.ErrUnauthenticated) {
		return fmt.Errorf("%w: fresh token rejected", ErrSessionExpired)
	}
	return err
}

// reauthenticate replays the stored password of identity and persists the
// new token. Any failure to obtain a new token is ErrSessionExpired.
func (a *accountService) reauthenticate(ctx context.Context, identity models.Identity) (string, error) {
	log := logger.FromContext(ctx).WithOwner(identity.OwnerID)

	if !identity.HasFallbackSecret() {
		return "", ErrSessionExpired
	}

	ciphertext, err := crypto.ParseCiphertext(identity.Secret.Value)
	if err != nil {
		log.Err(err).Str("func", "accountService.reauthenticate").Msg("stored secret is malformed")
		return "", fmt.Errorf("%w: %w", ErrSessionExpired, err)
	}
	password, err := a.cipher.Decrypt(ciphertext)
	if err != nil {
		log.Err(err).Str("func", "accountService.reauthenticate").Msg("cannot decrypt stored secret")
		return "", fmt.Errorf("%w: %w", ErrSessionExpired, err)
	}

	token, err := a.authenticate(ctx, identity.Label, password)
	if err != nil {
		// the cause stays matchable: ErrInvalidCredentials when the password
		// changed upstream, ErrUpstreamUnavailable when the login did not go through
		log.Info().Err(err).Str("func", "accountService.reauthenticate").
			Str("label", identity.Label).
			Msg("silent re-authentication failed")
		return "", fmt.Errorf("%w: %w", ErrSessionExpired, err)
	}

	err = a.accounts.UpdateToken(ctx, identity.OwnerID, identity.Label, token)
	if errors.Is(err, store.ErrNotFound) {
		log.Info().Str("func", "accountService.reauthenticate").
			Str("label", identity.Label).
			Msg("identity removed during re-authentication")
		return "", fmt.Errorf("%w: %w", ErrNoActiveAccount, err)
	}
	if err != nil {
		return "", fmt.Errorf("error storing refreshed token: %w", err)
	}

	log.Info().Str("func", "accountService.reauthenticate").
		Str("label", identity.Label).
		Str("token_fp", utils.TokenFingerprint(token, a.hashKey)).
		Msg("session silently re-authenticated")

	return token, nil
}

// authenticate calls the upstream login and maps its errors.
func (a *accountService) authenticate(ctx context.Context, username, password string) (string, error) {
	token, err := a.upstream.Authenticate(ctx, username, password)
	switch {
	case err == nil:
		return token, nil
	case errors.Is(err, adapter.ErrInvalidCredentials):
		return "", fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	default:
		return "", fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}
}

// activeIdentity loads the active identity and upgrades a legacy plaintext
// secret on the way. A failed upgrade is logged and the identity is used as
// stored.
func (a *accountService) activeIdentity(ctx context.Context, ownerID int64) (models.Identity, error) {
	identity, ok, err := a.accounts.GetActive(ctx, ownerID)
	if err != nil {
		return models.Identity{}, fmt.Errorf("error getting active identity: %w", err)
	}
	if !ok {
		return models.Identity{}, ErrNoActiveAccount
	}

	if a.migrator == nil || identity.Secret.Kind != models.SecretLegacyPlaintext {
		return identity, nil
	}

	upgraded, err := a.migrator.MigrateIdentity(ctx, identity)
	if err != nil {
		logger.FromContext(ctx).Warn().Err(err).
			Str("func", "accountService.activeIdentity").
			Object("identity", identity).
			Msg("lazy secret migration failed")
		return identity, nil
	}
	return upgraded, nil
}

// GetActive implements [AccountService].
func (a *accountService) GetActive(ctx context.Context, ownerID int64) (models.Identity, bool, error) {
	identity, err := a.activeIdentity(ctx, ownerID)
	if errors.Is(err, ErrNoActiveAccount) {
		return models.Identity{}, false, nil
	}
	if err != nil {
		return models.Identity{}, false, err
	}
	return identity, true, nil
}

// List implements [AccountService].
func (a *accountService) List(ctx context.Context, ownerID int64) ([]models.AccountSummary, error) {
	return a.accounts.List(ctx, ownerID)
}

// SetActive implements [AccountService].
func (a *accountService) SetActive(ctx context.Context, ownerID int64, label string) error {
	if err := a.accounts.SetActive(ctx, ownerID, label); err != nil {
		return err
	}

	logger.FromContext(ctx).Info().
		Str("func", "accountService.SetActive").
		Int64("owner_id", ownerID).
		Str("label", label).
		Msg("active identity switched")
	return nil
}

// Delete implements [AccountService].
func (a *accountService) Delete(ctx context.Context, ownerID int64, label string) error {
	return a.accounts.Delete(ctx, ownerID, label)
}

// DeleteAll implements [AccountService].
func (a *accountService) DeleteAll(ctx context.Context, ownerID int64) error {
	return a.accounts.DeleteAll(ctx, ownerID)
}

// HasAny implements [AccountService].
func (a *accountService) HasAny(ctx context.Context, ownerID int64) (bool, error) {
	return a.accounts.HasAny(ctx, ownerID)
}

// VerifyLegacyPassword implements [AccountService].
//
// Identities without a stored secret never verify. Returns
// store.ErrNotFound when the owner has no identity under label.
func (a *accountService) VerifyLegacyPassword(ctx context.Context, ownerID int64, label, password string) (bool, error) {
	identity, ok, err := a.accounts.Get(ctx, ownerID, label)
	if err != nil {
		return false, fmt.Errorf("error getting identity: %w", err)
	}
	if !ok {
		return false, store.ErrNotFound
	}

	switch identity.Secret.Kind {
	case models.SecretLegacyHash:
		return a.hasher.Verify(password, identity.Secret.Value)

	case models.SecretLegacyPlaintext:
		return subtle.ConstantTimeCompare([]byte(password), []byte(identity.Secret.Value)) == 1, nil

	case models.SecretEncrypted:
		ciphertext, err := crypto.ParseCiphertext(identity.Secret.Value)
		if err != nil {
			return false, err
		}
		stored, err := a.cipher.Decrypt(ciphertext)
		if err != nil {
			return false, err
		}
		return subtle.ConstantTimeCompare([]byte(password), []byte(stored)) == 1, nil
	}

	return false, nil
}
