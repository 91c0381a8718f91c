// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
)

// KeySize is the AES-256 key length in bytes.
const KeySize = 32

// cipherService is the private implementation of [CipherService].
// aead is nil when no key was configured.
type cipherService struct {
	aead cipher.AEAD
}

// NewCipherService builds a [CipherService] from a base64 encoded 32-byte
// key. Standard and URL-safe alphabets are accepted, padded or not.
//
// An empty key is not an error here: the returned service fails every
// operation with [ErrKeyNotConfigured], so a deployment without a key can
// still serve accounts that never stored a password.
func NewCipherService(encodedKey string) (CipherService, error) {
	encodedKey = strings.TrimSpace(encodedKey)
	if encodedKey == "" {
		return &cipherService{}, nil
	}

	key, err := decodeKey(encodedKey)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}

	return &cipherService{aead: gcm}, nil
}

// GenerateKey returns a fresh random key in the encoding NewCipherService
// expects.
func GenerateKey() (string, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(key), nil
}

// Encrypt implements [CipherService]. The blob is nonce (12 bytes) ‖
// ciphertext, base64 (standard encoding).
func (c *cipherService) Encrypt(plaintext string) (Ciphertext, error) {
	if c.aead == nil {
		return Ciphertext{}, ErrKeyNotConfigured
	}

	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return Ciphertext{}, fmt.Errorf("generate nonce: %w", err)
	}

	blob := c.aead.Seal(nonce, nonce, []byte(plaintext), []byte(CurrentScheme))

	return Ciphertext{
		Scheme: CurrentScheme,
		Blob:   base64.StdEncoding.EncodeToString(blob),
	}, nil
}

// Decrypt implements [CipherService].
func (c *cipherService) Decrypt(ciphertext Ciphertext) (string, error) {
	if c.aead == nil {
		return "", ErrKeyNotConfigured
	}
	if !ciphertext.IsCurrentScheme() {
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidOrTampered, ciphertext.Scheme)
	}

	blob, err := base64.StdEncoding.DecodeString(ciphertext.Blob)
	if err != nil {
		return "", fmt.Errorf("%w: decode base64: %w", ErrInvalidOrTampered, err)
	}

	nonceSize := c.aead.NonceSize()
	if len(blob) < nonceSize+c.aead.Overhead() {
		return "", fmt.Errorf("%w: ciphertext too short", ErrInvalidOrTampered)
	}
	nonce, sealed := blob[:nonceSize], blob[nonceSize:]

	plaintext, err := c.aead.Open(nil, nonce, sealed, []byte(CurrentScheme))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidOrTampered, err)
	}

	return string(plaintext), nil
}

func decodeKey(encodedKey string) ([]byte, error) {
	encodings := []*base64.Encoding{
		base64.StdEncoding,
		base64.URLEncoding,
		base64.RawStdEncoding,
		base64.RawURLEncoding,
	}
	for _, enc := range encodings {
		key, err := enc.DecodeString(encodedKey)
		if err == nil && len(key) == KeySize {
			return key, nil
		}
	}
	return nil, ErrInvalidKey
}
