// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/MKhiriev/go-account-keeper/internal/crypto"
	"github.com/MKhiriev/go-account-keeper/internal/logger"
	"github.com/MKhiriev/go-account-keeper/internal/store"
	"github.com/MKhiriev/go-account-keeper/internal/utils"
	"github.com/MKhiriev/go-account-keeper/models"
)

// recordOutcome is the result of migrating a single secret record.
type recordOutcome int

const (
	outcomeMigrated recordOutcome = iota
	outcomeAlreadyCurrent
	outcomeUnmigratable
	outcomeFailed
)

// migrationService is the concrete implementation of MigrationService.
type migrationService struct {
	secrets store.SecretRepository
	cipher  crypto.CipherService

	// running admits a single MigrateAll at a time.
	running sync.Mutex

	logger *logger.Logger
}

// NewMigrationService constructs the secret migration over secrets.
func NewMigrationService(secrets store.SecretRepository, cipher crypto.CipherService, logger *logger.Logger) MigrationService {
	return &migrationService{
		secrets: secrets,
		cipher:  cipher,
		logger:  logger,
	}
}

// MigrateAll implements [MigrationService].
//
// Records already encrypted with the current scheme are skipped, legacy
// hashes are counted as unmigratable and never touched, and legacy
// plaintext is encrypted and swapped in with a compare-and-swap. Running
// it again after a complete run changes nothing.
func (m *migrationService) MigrateAll(ctx context.Context) (models.MigrationReport, error) {
	if !m.running.TryLock() {
		return models.MigrationReport{}, ErrMigrationInProgress
	}
	defer m.running.Unlock()

	report := models.MigrationReport{RunID: utils.NewRunID()}
	log := logger.FromContext(ctx).With().Str("run_id", report.RunID).Logger()

	records, err := m.secrets.ListSecrets(ctx)
	if err != nil {
		log.Err(err).Str("func", "migrationService.MigrateAll").Msg("cannot list stored secrets")
		return report, fmt.Errorf("error listing secrets: %w", err)
	}

	for _, record := range records {
		if err := ctx.Err(); err != nil {
			log.Warn().Err(err).Object("report", report).Msg("secret migration interrupted")
			return report, err
		}

		report.Scanned++

		outcome, reason := m.migrateRecord(ctx, record)
		switch outcome {
		case outcomeMigrated:
			report.Migrated++
		case outcomeAlreadyCurrent:
			report.SkippedAlreadyCurrent++
		case outcomeUnmigratable:
			report.Unmigratable++
			log.Warn().
				Int64("owner_id", record.OwnerID).
				Str("label", record.Label).
				Msg("legacy hash kept, identity cannot re-authenticate silently")
		case outcomeFailed:
			report.Failed = append(report.Failed, models.MigrationFailure{
				OwnerID: record.OwnerID,
				Label:   record.Label,
				Reason:  reason.Error(),
			})
			log.Err(reason).
				Int64("owner_id", record.OwnerID).
				Str("label", record.Label).
				Msg("secret migration failed for record")
		}
	}

	log.Info().Object("report", report).Msg("secret migration finished")
	return report, nil
}

func (m *migrationService) migrateRecord(ctx context.Context, record models.SecretRecord) (recordOutcome, error) {
	switch record.Secret.Kind {
	case models.SecretEncrypted:
		if crypto.IsCurrentScheme(record.Secret.Value) {
			return outcomeAlreadyCurrent, nil
		}
		return outcomeFailed, ErrUnsupportedScheme

	case models.SecretLegacyHash:
		return outcomeUnmigratable, nil

	case models.SecretLegacyPlaintext:
		// a hash stored without its kind tag cannot be decrypted into a password
		if crypto.IsHash(record.Secret.Value) {
			return outcomeUnmigratable, nil
		}

		_, err := m.upgrade(ctx, record.OwnerID, record.Label, record.Secret)
		if errors.Is(err, store.ErrSecretChanged) {
			// rewritten since it was listed; whoever wrote it stored the current form
			return outcomeAlreadyCurrent, nil
		}
		if err != nil {
			return outcomeFailed, err
		}
		return outcomeMigrated, nil
	}

	return outcomeFailed, fmt.Errorf("%w: %q", ErrUnknownSecretKind, record.Secret.Kind)
}

// upgrade encrypts a legacy plaintext secret and swaps it in.
func (m *migrationService) upgrade(ctx context.Context, ownerID int64, label string, from models.SecretMaterial) (models.SecretMaterial, error) {
	ciphertext, err := m.cipher.Encrypt(from.Value)
	if err != nil {
		return from, fmt.Errorf("error encrypting secret: %w", err)
	}

	to := models.EncryptedSecret(ciphertext.String())
	if err = m.secrets.ReplaceSecret(ctx, ownerID, label, from, to); err != nil {
		return from, err
	}
	return to, nil
}

// MigrateIdentity implements [MigrationService]. Identities whose secret is
// not legacy plaintext are returned unchanged.
func (m *migrationService) MigrateIdentity(ctx context.Context, identity models.Identity) (models.Identity, error) {
	if identity.Secret.Kind != models.SecretLegacyPlaintext || crypto.IsHash(identity.Secret.Value) {
		return identity, nil
	}

	secret, err := m.upgrade(ctx, identity.OwnerID, identity.Label, identity.Secret)
	if err != nil {
		return identity, err
	}

	logger.FromContext(ctx).Info().
		Str("func", "migrationService.MigrateIdentity").
		Object("identity", identity).
		Msg("legacy secret encrypted on read")

	identity.Secret = secret
	return identity, nil
}
