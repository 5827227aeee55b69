package utils

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"

	"golang.org/x/crypto/pbkdf2"
)

// passwordKeyLen matches the SHA-384 digest size, so stored hashes are 96
// hex characters.
const passwordKeyLen = sha512.Size384

// PasswordHasher derives password hashes with PBKDF2-HMAC-SHA384 using a
// deployment-wide salt and iteration count (PASSWORD_SALT and
// NUMBER_OF_ITERATIONS).
type PasswordHasher struct {
	Salt       string
	Iterations int
}

// Hash returns the hex encoded derived key for plain.
func (h PasswordHasher) Hash(plain string) string {
	key := pbkdf2.Key([]byte(plain), []byte(h.Salt), h.Iterations, passwordKeyLen, sha512.New384)
	return hex.EncodeToString(key)
}

// Verify safely compares a stored hash and a plain password.
func (h PasswordHasher) Verify(hash, plain string) bool {
	return subtle.ConstantTimeCompare([]byte(h.Hash(plain)), []byte(hash)) == 1
}
