package oauth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// StateLength is the length of a generated state parameter: 32 bytes of
// entropy as lowercase hex.
const StateLength = 64

// GenerateState generates a cryptographically random state parameter for
// CSRF protection. Callers are responsible for persisting the value.
func GenerateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("%w: %v", ErrEntropyUnavailable, err)
	}
	return hex.EncodeToString(b), nil
}
