// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "github.com/rs/zerolog"

// MigrationReport summarises one run of the secret migration.
type MigrationReport struct {
	// RunID identifies the run in logs.
	RunID string `json:"run_id"`

	// Scanned is the number of records with a non-empty secret.
	Scanned int `json:"scanned"`

	// Migrated is the number of legacy plaintext secrets rewritten into the
	// current encrypted scheme.
	Migrated int `json:"migrated"`

	// SkippedAlreadyCurrent is the number of records already encrypted with
	// the current scheme.
	SkippedAlreadyCurrent int `json:"skipped_already_current"`

	// Unmigratable is the number of legacy hashes left untouched.
	Unmigratable int `json:"unmigratable"`

	// Failed lists the records whose migration failed. The run carries on
	// after a failure.
	Failed []MigrationFailure `json:"failed,omitempty"`
}

// MigrationFailure describes a single record that could not be migrated.
type MigrationFailure struct {
	OwnerID int64  `json:"owner_id"`
	Label   string `json:"label"`
	Reason  string `json:"reason"`
}

// MarshalZerologObject implements [zerolog.LogObjectMarshaler].
func (r MigrationReport) MarshalZerologObject(e *zerolog.Event) {
	e.Str("run_id", r.RunID).
		Int("scanned", r.Scanned).
		Int("migrated", r.Migrated).
		Int("skipped_already_current", r.SkippedAlreadyCurrent).
		Int("unmigratable", r.Unmigratable).
		Int("failed", len(r.Failed))
}
