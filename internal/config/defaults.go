// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import "time"

// Default values applied before any configuration source.
const (
	DefaultDriver         = DriverSQLite
	DefaultSQLiteDSN      = "accounts.db"
	DefaultMongoName      = "journalbot"
	DefaultMongoColl      = "accounts"
	DefaultConnectTimeout = 5 * time.Second

	DefaultUpstreamAddress = "https://msapi.top-academy.ru"
	DefaultRequestTimeout  = 15 * time.Second
	DefaultApplicationKey  = "6a56a5df2667e65aab73ce76d1dd737f7d1faef9c52e8b8c55ac75f565d8e8a6"

	DefaultLogLevel = "info"
)

func defaultConfig() *StructuredConfig {
	return &StructuredConfig{
		App: App{
			LogLevel: DefaultLogLevel,
		},
		Storage: Storage{
			DB: DB{
				Driver:         DefaultDriver,
				DSN:            DefaultSQLiteDSN,
				Name:           DefaultMongoName,
				Collection:     DefaultMongoColl,
				ConnectTimeout: DefaultConnectTimeout,
			},
		},
		Adapter: Adapter{
			HTTPAddress:    DefaultUpstreamAddress,
			RequestTimeout: DefaultRequestTimeout,
			ApplicationKey: DefaultApplicationKey,
		},
	}
}
