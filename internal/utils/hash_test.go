// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"
)

const testHashKey = "test-secret-key"

func TestHashString_MatchesHMAC(t *testing.T) {
	mac := hmac.New(sha256.New, []byte(testHashKey))
	mac.Write([]byte("payload"))
	want := hex.EncodeToString(mac.Sum(nil))

	if got := HashString("payload", testHashKey); got != want {
		t.Errorf("HashString mismatch:\n  got:  %s\n  want: %s", got, want)
	}
}

func TestHashString_DifferentKeys(t *testing.T) {
	if HashString("payload", "key-one") == HashString("payload", "key-two") {
		t.Error("different keys must produce different hashes for the same data")
	}
}

func TestTokenFingerprint(t *testing.T) {
	token := "eyJhbGciOiJIUzI1NiJ9.e30.sig"

	fp := TokenFingerprint(token, testHashKey)

	if len(fp) != fingerprintLen {
		t.Fatalf("expected %d chars, got %d", fingerprintLen, len(fp))
	}
	if !strings.HasPrefix(HashString(token, testHashKey), fp) {
		t.Error("fingerprint must be a prefix of the full digest")
	}
	if strings.Contains(fp, token) {
		t.Error("fingerprint must not contain the token")
	}
}

func TestTokenFingerprint_Empty(t *testing.T) {
	if fp := TokenFingerprint("", testHashKey); fp != "" {
		t.Errorf("expected empty fingerprint, got %q", fp)
	}
}
