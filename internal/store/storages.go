package store

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-account-keeper/internal/config"
	"github.com/MKhiriev/go-account-keeper/internal/logger"
	"github.com/MKhiriev/go-account-keeper/internal/utils"
)

// Storages groups the repositories of the selected backend together with
// the function that releases its connection.
type Storages struct {
	Accounts AccountRepository
	Secrets  SecretRepository

	close func(ctx context.Context) error
}

// NewStorages connects the backend named by cfg.Driver. SQL schemas are
// migrated before the repositories are returned.
func NewStorages(ctx context.Context, cfg config.DB, log *logger.Logger) (*Storages, error) {
	locks := &utils.KeyedMutex{}

	switch cfg.Driver {
	case config.DriverSQLite, config.DriverPostgres:
		var (
			db  *DB
			err error
		)
		if cfg.Driver == config.DriverSQLite {
			db, err = NewConnectSQLite(ctx, cfg, log)
		} else {
			db, err = NewConnectPostgres(ctx, cfg, log)
		}
		if err != nil {
			return nil, err
		}

		if err = db.Migrate(); err != nil {
			log.Err(err).Str("func", "NewStorages").Msg("error migrating database")
			db.Close()
			return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}

		repo := NewAccountRepository(db, locks)
		return &Storages{
			Accounts: repo,
			Secrets:  repo,
			close:    func(context.Context) error { return db.Close() },
		}, nil

	case config.DriverMongo:
		db, err := NewConnectMongo(ctx, cfg, log)
		if err != nil {
			return nil, err
		}

		repo := NewMongoAccountRepository(db, locks)
		return &Storages{
			Accounts: repo,
			Secrets:  repo,
			close:    db.Close,
		}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Driver)
}

// Close releases the backend connection.
func (s *Storages) Close(ctx context.Context) error {
	if s == nil || s.close == nil {
		return nil
	}
	return s.close(ctx)
}
