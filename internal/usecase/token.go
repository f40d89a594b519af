package usecase

import (
	"crypto/rand"
	"encoding/hex"
)

// newVerificationToken returns 32 random bytes hex-encoded. Unguessable and
// unique for any practical purpose; the store still enforces uniqueness.
func newVerificationToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
