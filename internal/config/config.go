// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"time"
)

// Supported values of [DB.Driver].
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// StructuredConfig is the top-level configuration container for the account
// keeper. It aggregates all sub-configurations and is populated by merging
// values from a JSON file, environment variables and command-line flags.
//
// Struct tags:
//   - envPrefix — prefix applied to all nested env tag lookups (caarlos0/env).
//   - env       — direct environment variable name for scalar fields.
type StructuredConfig struct {
	// App holds application-level settings such as cryptographic keys and
	// the log level.
	App App `envPrefix:"APP_"`

	// Storage holds configuration of the account storage backend.
	Storage Storage `envPrefix:"STORAGE_"`

	// Adapter holds settings of the upstream journal API client.
	Adapter Adapter `envPrefix:"ADAPTER_"`

	// Workers holds settings of the startup jobs.
	Workers Workers `envPrefix:"WORKERS_"`

	// JSONFilePath is the optional path to a JSON configuration file.
	// Populated via the CONFIG environment variable or the -c / -config flag.
	JSONFilePath string `env:"CONFIG"`

	// Command holds the positional command-line arguments left after flag
	// parsing (e.g. "migrate", "keygen").
	Command []string
}

// App holds application-level configuration values.
type App struct {
	// CipherKey is the base64-encoded 32-byte key used to encrypt stored
	// upstream passwords. Must be kept confidential.
	// Env: APP_CIPHER_KEY
	CipherKey string `env:"CIPHER_KEY"`

	// HashKey is the HMAC key used to fingerprint session tokens in logs.
	// Env: APP_HASH_KEY
	HashKey string `env:"HASH_KEY"`

	// LogLevel is the minimal zerolog level ("debug", "info", ...).
	// Env: APP_LOG_LEVEL
	LogLevel string `env:"LOG_LEVEL"`
}

// Storage groups the configuration of the storage backend.
type Storage struct {
	// DB holds the database connection settings.
	DB DB `envPrefix:"DB_"`
}

// DB holds connection settings for the account storage.
type DB struct {
	// Driver selects the backend: "sqlite", "postgres" or "mongo".
	// Env: STORAGE_DB_DRIVER
	Driver string `env:"DRIVER"`

	// DSN is the connection string: a file path for SQLite, a PostgreSQL
	// URL, or a MongoDB URI.
	// Env: STORAGE_DB_DATABASE_URI
	DSN string `env:"DATABASE_URI"`

	// Name is the MongoDB database name. Ignored by SQL drivers.
	// Env: STORAGE_DB_NAME
	Name string `env:"NAME"`

	// Collection is the MongoDB collection name. Ignored by SQL drivers.
	// Env: STORAGE_DB_COLLECTION
	Collection string `env:"COLLECTION"`

	// ConnectTimeout bounds the initial connection and ping.
	// Env: STORAGE_DB_CONNECT_TIMEOUT
	ConnectTimeout time.Duration `env:"CONNECT_TIMEOUT"`
}

// Adapter holds settings of the upstream journal API client.
type Adapter struct {
	// HTTPAddress is the base URL of the upstream API
	// (e.g. "https://msapi.top-academy.ru").
	// Env: ADAPTER_ADDRESS
	HTTPAddress string `env:"ADDRESS"`

	// RequestTimeout bounds a single upstream request (e.g. "15s").
	// Env: ADAPTER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`

	// ApplicationKey is the static application key expected by the upstream
	// login endpoint.
	// Env: ADAPTER_APPLICATION_KEY
	ApplicationKey string `env:"APPLICATION_KEY"`
}

// Workers holds configuration of the jobs run at process start.
type Workers struct {
	// SkipMigration disables the secret migration normally run once before
	// the store is used.
	// Env: WORKERS_SKIP_MIGRATION
	SkipMigration bool `env:"SKIP_MIGRATION"`
}

// GetStructuredConfig loads, merges, and validates the application
// configuration. args are the command-line arguments without the program
// name. Sources are applied in the following order, later ones winning for
// non-zero fields:
//  1. JSON file (path resolved from env and flags)
//  2. Environment variables
//  3. Command-line flags
func GetStructuredConfig(args []string) (*StructuredConfig, error) {
	return newConfigBuilder().
		withEnv().
		withFlags(args).
		withJSON().
		build()
}
