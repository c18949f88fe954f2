package kinde

import (
	"fmt"

	"github.com/aussiebroadwan/kinde/pkg/cryptox"
	"golang.org/x/oauth2"
)

// DefaultRandomLength is the number of random bytes behind state and code
// verifier values.
const DefaultRandomLength = cryptox.TokenSize256

// PKCEChallenge is generated fresh for every login or register attempt.
// State and CodeVerifier are persisted across the redirect; CodeChallenge is
// only ever sent on the authorize URL.
type PKCEChallenge struct {
	State         string
	CodeVerifier  string
	CodeChallenge string
}

// GenerateRandomString returns byteLength random bytes encoded as unpadded
// base64url.
func GenerateRandomString(byteLength int) (string, error) {
	return cryptox.GenerateToken(byteLength)
}

// GenerateChallenge creates an independent state and verifier and derives the
// S256 challenge from the verifier.
func GenerateChallenge() (*PKCEChallenge, error) {
	state, err := GenerateRandomString(DefaultRandomLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate state: %w", err)
	}

	verifier, err := GenerateRandomString(DefaultRandomLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate PKCE verifier: %w", err)
	}

	return &PKCEChallenge{
		State:         state,
		CodeVerifier:  verifier,
		CodeChallenge: oauth2.S256ChallengeFromVerifier(verifier),
	}, nil
}
