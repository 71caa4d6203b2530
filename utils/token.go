// utils/token.go
package utils

import (
	"crypto/rand"
	"encoding/base64"
)

// GenerateOpaqueToken returns a URL-safe unguessable token. Used for
// follow-up links handed out to clients.
func GenerateOpaqueToken() (string, error) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(key), nil
}
