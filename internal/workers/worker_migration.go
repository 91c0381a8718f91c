// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package workers

import (
	"context"
	"errors"

	"github.com/MKhiriev/go-account-keeper/internal/logger"
	"github.com/MKhiriev/go-account-keeper/internal/service"
)

// MigrationWorker runs the secret migration once.
type MigrationWorker struct {
	migrations service.MigrationService
	skip       bool
	logger     *logger.Logger
}

func NewMigrationWorker(migrations service.MigrationService, skip bool, logger *logger.Logger) *MigrationWorker {
	return &MigrationWorker{
		migrations: migrations,
		skip:       skip,
		logger:     logger,
	}
}

// Run migrates every stored secret. Failed records are logged and do not
// fail the worker; only a run that could not scan the store does.
func (m *MigrationWorker) Run(ctx context.Context) error {
	if m.skip {
		m.logger.Info().Str("func", "MigrationWorker.Run").Msg("secret migration skipped by configuration")
		return nil
	}

	report, err := m.migrations.MigrateAll(m.logger.ToContext(ctx))
	if errors.Is(err, service.ErrMigrationInProgress) {
		m.logger.Warn().Str("func", "MigrationWorker.Run").Msg("secret migration already running")
		return nil
	}
	if err != nil {
		m.logger.Err(err).Str("func", "MigrationWorker.Run").Msg("secret migration aborted")
		return err
	}

	if len(report.Failed) > 0 {
		m.logger.Warn().
			Str("func", "MigrationWorker.Run").
			Int("failed", len(report.Failed)).
			Msg("some secrets stay in legacy form until the next run")
	}
	return nil
}
