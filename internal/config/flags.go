// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"flag"
	"fmt"
	"time"
)

// ParseFlags parses the configuration flags from args.
//
// Flags:
//
//	-d database DSN
//	-driver storage driver (sqlite, postgres, mongo)
//	-db-name mongo database name
//	-collection mongo collection name
//	-c/-config json file path with configs
//	-cipher-key base64 cipher key
//	-hash-key token fingerprint key
//	-log-level log level
//	-a upstream API address
//	-request-timeout upstream request timeout (e.g., "15s")
//	-application-key upstream application key
//	-skip-migration do not run the secret migration at start
//
// Positional arguments left after the flags are returned in
// [StructuredConfig.Command].
func ParseFlags(args []string) (*StructuredConfig, error) {
	fs := flag.NewFlagSet("account-keeper", flag.ContinueOnError)

	var cfg StructuredConfig
	fs.StringVar(&cfg.Storage.DB.DSN, "d", "", "Database DSN")
	fs.StringVar(&cfg.Storage.DB.Driver, "driver", "", "Storage driver: sqlite, postgres or mongo")
	fs.StringVar(&cfg.Storage.DB.Name, "db-name", "", "MongoDB database name")
	fs.StringVar(&cfg.Storage.DB.Collection, "collection", "", "MongoDB collection name")
	fs.DurationVar(&cfg.Storage.DB.ConnectTimeout, "connect-timeout", 0, "Storage connect timeout (e.g., 5s)")
	fs.StringVar(&cfg.JSONFilePath, "c", "", "JSON config file path")
	fs.StringVar(&cfg.JSONFilePath, "config", "", "JSON config file path (alias)")
	fs.StringVar(&cfg.App.CipherKey, "cipher-key", "", "Base64 encoded 32 byte cipher key")
	fs.StringVar(&cfg.App.HashKey, "hash-key", "", "Token fingerprint hash key")
	fs.StringVar(&cfg.App.LogLevel, "log-level", "", "Log level")
	fs.StringVar(&cfg.Adapter.HTTPAddress, "a", "", "Upstream API address")
	fs.DurationVar(&cfg.Adapter.RequestTimeout, "request-timeout", 0, "Upstream request timeout (e.g., 15s)")
	fs.StringVar(&cfg.Adapter.ApplicationKey, "application-key", "", "Upstream application key")
	fs.BoolVar(&cfg.Workers.SkipMigration, "skip-migration", false, "Skip the secret migration at start")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("error parsing flags: %w", err)
	}
	cfg.Command = fs.Args()

	return &cfg, nil
}

// durationOrZero is used by the JSON source where durations arrive as
// strings.
func durationOrZero(d Duration) time.Duration {
	return time.Duration(d)
}
