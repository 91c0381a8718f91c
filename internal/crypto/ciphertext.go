// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package crypto

import (
	"fmt"
	"strings"
)

// SchemeAESGCMv1 tags blobs sealed with AES-256-GCM, laid out as
// nonce ‖ sealed, base64 encoded.
const SchemeAESGCMv1 = "aesgcm-v1"

// CurrentScheme is the scheme used by Encrypt.
const CurrentScheme = SchemeAESGCMv1

// Ciphertext is an encrypted secret together with the scheme that produced
// it. Its string form "<scheme>:<blob>" is what the repositories persist.
type Ciphertext struct {
	Scheme string
	Blob   string
}

// String encodes the ciphertext for storage.
func (c Ciphertext) String() string {
	return c.Scheme + ":" + c.Blob
}

// IsCurrentScheme reports whether the ciphertext was produced by the scheme
// Encrypt uses today.
func (c Ciphertext) IsCurrentScheme() bool {
	return c.Scheme == CurrentScheme
}

// ParseCiphertext decodes the stored "<scheme>:<blob>" form.
func ParseCiphertext(s string) (Ciphertext, error) {
	scheme, blob, ok := strings.Cut(s, ":")
	if !ok || scheme == "" || blob == "" {
		return Ciphertext{}, fmt.Errorf("%w: missing scheme tag", ErrInvalidOrTampered)
	}
	return Ciphertext{Scheme: scheme, Blob: blob}, nil
}

// IsCurrentScheme reports whether a stored value is a ciphertext of the
// current scheme.
func IsCurrentScheme(s string) bool {
	c, err := ParseCiphertext(s)
	return err == nil && c.IsCurrentScheme()
}
