// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

// SecretKind tags the encoding of [SecretMaterial.Value].
type SecretKind string

const (
	// SecretNone means no secret is stored; silent re-authentication is
	// impossible for the identity.
	SecretNone SecretKind = "none"

	// SecretLegacyPlaintext is a password stored in clear text by an old
	// version of the bot. It is rewritten into [SecretEncrypted] by migration.
	SecretLegacyPlaintext SecretKind = "legacy_plaintext"

	// SecretLegacyHash is a one-way (bcrypt or argon2) hash of a password
	// stored by an old version of the bot. A hash cannot be turned back into
	// a password, so such records are kept as they are.
	SecretLegacyHash SecretKind = "legacy_hash"

	// SecretEncrypted is a password encrypted with the current cipher scheme.
	SecretEncrypted SecretKind = "encrypted"
)

// Valid reports whether k is one of the known kinds.
func (k SecretKind) Valid() bool {
	switch k {
	case SecretNone, SecretLegacyPlaintext, SecretLegacyHash, SecretEncrypted:
		return true
	}
	return false
}

// SecretMaterial is the tagged secret of an identity. A record holds exactly
// one kind at a time, so a legacy value and an encrypted value can never
// coexist on the same identity.
type SecretMaterial struct {
	Kind  SecretKind `json:"kind" bson:"kind"`
	Value string     `json:"-" bson:"value,omitempty"`
}

// NoSecret returns the empty secret material.
func NoSecret() SecretMaterial {
	return SecretMaterial{Kind: SecretNone}
}

// EncryptedSecret wraps an encoded ciphertext as secret material.
func EncryptedSecret(ciphertext string) SecretMaterial {
	return SecretMaterial{Kind: SecretEncrypted, Value: ciphertext}
}

// IsEmpty reports whether no secret is stored.
func (s SecretMaterial) IsEmpty() bool {
	return s.Kind == "" || s.Kind == SecretNone || s.Value == ""
}

// SecretRecord addresses the secret of a single identity. It is what the
// migration scans and rewrites; tokens and active flags are not part of it.
type SecretRecord struct {
	OwnerID int64
	Label   string
	Secret  SecretMaterial
}
