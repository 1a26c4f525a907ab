package utils

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword generates a bcrypt hash. Used only by the out-of-band
// rotation tool; this service never writes hashes on the request path.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPasswordHash verifies a password against a stored bcrypt hash.
// Any verification error counts as a mismatch.
func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// IsBcryptHash reports whether a stored hash looks bcrypt-shaped. Hashes are
// produced out-of-band, so a malformed one means data corruption, not a user
// error.
func IsBcryptHash(hash string) bool {
	return strings.HasPrefix(hash, "$2")
}
