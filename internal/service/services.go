package service

import (
	"github.com/MKhiriev/go-account-keeper/internal/adapter"
	"github.com/MKhiriev/go-account-keeper/internal/config"
	"github.com/MKhiriev/go-account-keeper/internal/crypto"
	"github.com/MKhiriev/go-account-keeper/internal/logger"
	"github.com/MKhiriev/go-account-keeper/internal/store"
	"github.com/MKhiriev/go-account-keeper/internal/validators"
)

type Services struct {
	AccountService   AccountService
	MigrationService MigrationService
}

func NewServices(storages *store.Storages, upstream adapter.UpstreamAdapter, cipher crypto.CipherService, cfg config.App, logger *logger.Logger) *Services {
	hasher := crypto.NewPasswordHasher()
	migration := NewMigrationService(storages.Secrets, cipher, logger)

	return &Services{
		AccountService: NewAccountService(
			storages.Accounts,
			upstream,
			cipher,
			hasher,
			migration,
			validators.NewCredentialsValidator(),
			cfg,
			logger,
		),
		MigrationService: migration,
	}
}
