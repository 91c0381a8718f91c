// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"time"

	"github.com/rs/zerolog"
)

// Identity is one stored third-party account of an owner: the unit of
// storage of the account repository.
//
// An owner (an end-user of the chat front-end) may hold several identities,
// at most one of which is active at any moment. The active identity is the
// one whose session token is used for upstream calls.
type Identity struct {
	// OwnerID identifies the end-user. It is supplied by the chat front-end
	// and is stable for the lifetime of the user.
	OwnerID int64 `json:"owner_id"`

	// Label identifies the third-party account within the owner, usually the
	// upstream username. It is never empty and (OwnerID, Label) is unique.
	Label string `json:"label"`

	// SessionToken is the opaque bearer token issued by the upstream service.
	// It is never logged and never written into Secret.
	SessionToken string `json:"-"`

	// Secret optionally holds the upstream password used for silent
	// re-authentication, in one of the encodings described by [SecretKind].
	Secret SecretMaterial `json:"-"`

	// IsActive marks the identity used for upstream calls.
	IsActive bool `json:"is_active"`

	// UpdatedAt is the time of the last mutation of the record.
	UpdatedAt time.Time `json:"updated_at"`
}

// HasFallbackSecret reports whether the identity carries a secret that can be
// decrypted and replayed against the upstream authenticator.
func (i Identity) HasFallbackSecret() bool {
	return i.Secret.Kind == SecretEncrypted && i.Secret.Value != ""
}

// MarshalZerologObject implements [zerolog.LogObjectMarshaler]. The session
// token and the secret value are deliberately left out.
func (i Identity) MarshalZerologObject(e *zerolog.Event) {
	e.Int64("owner_id", i.OwnerID).
		Str("label", i.Label).
		Bool("is_active", i.IsActive).
		Str("secret_kind", string(i.Secret.Kind))
}

// AccountSummary is the listing view of an identity shown to the owner when
// choosing which account should be active.
type AccountSummary struct {
	Label    string `json:"label"`
	IsActive bool   `json:"is_active"`
}
