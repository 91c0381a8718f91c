package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// fingerprintLen is the number of hex characters kept by TokenFingerprint.
const fingerprintLen = 12

// HashString computes an HMAC-SHA256 signature over the given string
// using the provided hash key and returns the result as a hex-encoded string.
//
// Example usage:
//
//	signature := utils.HashString("some data", "my-secret-key")
func HashString(data string, hashKey string) string {
	return hex.EncodeToString(hashString([]byte(data), hashKey))
}

// TokenFingerprint returns a short keyed digest of a session token, safe to
// write to logs. Empty tokens yield an empty fingerprint.
func TokenFingerprint(token string, hashKey string) string {
	if token == "" {
		return ""
	}
	return HashString(token, hashKey)[:fingerprintLen]
}

func hashString(data []byte, hashKey string) []byte {
	hasher := hmac.New(sha256.New, []byte(hashKey))
	hasher.Write(data)
	return hasher.Sum(nil)
}
