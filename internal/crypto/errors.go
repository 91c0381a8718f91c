// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package crypto

import "errors"

var (
	// ErrKeyNotConfigured is returned by every cipher operation when no key
	// was provided at startup.
	ErrKeyNotConfigured = errors.New("cipher key is not configured")
	// ErrInvalidOrTampered is returned when a ciphertext fails authentication,
	// was sealed under another key, or cannot be parsed.
	ErrInvalidOrTampered = errors.New("ciphertext is invalid or tampered")
	// ErrInvalidKey is returned when the configured key is not a base64
	// encoded 32-byte value.
	ErrInvalidKey = errors.New("cipher key must be 32 bytes encoded as base64")
	// ErrUnsupportedHash is returned by Verify for an unknown hash encoding.
	ErrUnsupportedHash = errors.New("unsupported hash encoding")
)
