package utils

import (
	"crypto/rand"
	"encoding/base64"
)

// GenerateSlug returns a URL-safe token from 16 bytes of cryptographically
// secure randomness (22 characters, no padding). Uniqueness is additionally
// enforced by the unique constraint on pages.public_slug.
func GenerateSlug() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
