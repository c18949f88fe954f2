package cryptox

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// TokenSize256 is 256 bits of entropy, 43 characters once encoded. It is the
// size used for PKCE state and code verifiers.
const TokenSize256 = 32

// GenerateToken returns size random bytes as base64url without padding. The
// result only uses A-Z, a-z, 0-9, '-' and '_', so it is a valid PKCE code
// verifier whenever it is 43 to 128 characters long.
func GenerateToken(size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("token size must be positive, got %d", size)
	}

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random token: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}
