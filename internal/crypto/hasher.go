// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package crypto

import (
	"errors"
	"fmt"
	"strings"

	"github.com/matthewhartstonge/argon2"
	"golang.org/x/crypto/bcrypt"
)

const argon2idPrefix = "$argon2id$"

var bcryptPrefixes = []string{"$2a$", "$2b$", "$2y$"}

type passwordHasher struct {
	argon argon2.Config
}

// NewPasswordHasher constructs a [PasswordHasher] using the argon2id
// defaults of github.com/matthewhartstonge/argon2.
func NewPasswordHasher() PasswordHasher {
	return &passwordHasher{argon: argon2.DefaultConfig()}
}

// Hash implements [PasswordHasher].
func (h *passwordHasher) Hash(secret string) (string, error) {
	encoded, err := h.argon.HashEncoded([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("hash secret: %w", err)
	}
	return string(encoded), nil
}

// Verify implements [PasswordHasher]. A mismatch is (false, nil); only a
// malformed hash produces an error.
func (h *passwordHasher) Verify(secret, hashed string) (bool, error) {
	switch {
	case strings.HasPrefix(hashed, argon2idPrefix):
		ok, err := argon2.VerifyEncoded([]byte(secret), []byte(hashed))
		if err != nil {
			return false, fmt.Errorf("verify argon2id: %w", err)
		}
		return ok, nil
	case isBcrypt(hashed):
		err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(secret))
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("verify bcrypt: %w", err)
		}
		return true, nil
	default:
		return false, ErrUnsupportedHash
	}
}

// IsHash reports whether value looks like an encoded password hash this
// package can verify. Used to classify legacy secret columns.
func IsHash(value string) bool {
	return strings.HasPrefix(value, argon2idPrefix) || isBcrypt(value)
}

func isBcrypt(value string) bool {
	for _, p := range bcryptPrefixes {
		if strings.HasPrefix(value, p) {
			return true
		}
	}
	return false
}
