package crypto

//go:generate mockgen -source=interfaces.go -destination=../mock/crypto_mock.go -package=mock

// CipherService encrypts stored upstream passwords with the single
// process-wide key. It holds no state beyond the key and is safe for
// concurrent use.
type CipherService interface {
	// Encrypt seals plaintext with a fresh random nonce. The result embeds
	// everything needed to decrypt it except the key.
	// Returns ErrKeyNotConfigured when the service was built without a key.
	Encrypt(plaintext string) (Ciphertext, error)

	// Decrypt opens a ciphertext produced by Encrypt.
	// Returns ErrInvalidOrTampered when authentication fails, the key does not
	// match, or the blob is malformed, and ErrKeyNotConfigured when the
	// service was built without a key.
	Decrypt(ciphertext Ciphertext) (string, error)
}

// PasswordHasher produces and verifies one-way salted password hashes.
// It only backs the legacy verification flow; stored secrets are never
// written as hashes by the current code.
type PasswordHasher interface {
	// Hash returns an encoded argon2id hash of secret using a random salt.
	Hash(secret string) (string, error)

	// Verify reports whether secret matches hashed. Both argon2id and legacy
	// bcrypt encodings are accepted. Returns ErrUnsupportedHash for any
	// other encoding.
	Verify(secret, hashed string) (bool, error)
}
