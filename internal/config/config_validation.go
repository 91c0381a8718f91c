// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"fmt"
	"net/url"
)

// validate checks that the final merged [StructuredConfig] satisfies all
// application invariants before it is used at startup.
//
// The cipher key is not required here: a missing key is reported by the
// crypto package on first use.
func (cfg *StructuredConfig) validate() error {
	switch cfg.Storage.DB.Driver {
	case DriverSQLite, DriverPostgres:
		if cfg.Storage.DB.DSN == "" {
			return fmt.Errorf("%w: empty dsn", ErrInvalidStorageConfigs)
		}
	case DriverMongo:
		if cfg.Storage.DB.DSN == "" || cfg.Storage.DB.Name == "" || cfg.Storage.DB.Collection == "" {
			return fmt.Errorf("%w: mongo requires dsn, name and collection", ErrInvalidStorageConfigs)
		}
	default:
		return fmt.Errorf("%w: unsupported driver %q", ErrInvalidStorageConfigs, cfg.Storage.DB.Driver)
	}

	if cfg.Adapter.HTTPAddress == "" || cfg.Adapter.RequestTimeout <= 0 {
		return ErrInvalidAdapterConfigs
	}
	if u, err := url.Parse(cfg.Adapter.HTTPAddress); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: bad address %q", ErrInvalidAdapterConfigs, cfg.Adapter.HTTPAddress)
	}

	if cfg.App.LogLevel == "" {
		return ErrInvalidAppConfigs
	}

	return nil
}
