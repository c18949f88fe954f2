package kinde

import (
	"crypto/sha256"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateRandomString(t *testing.T) {
	t.Parallel()

	for _, n := range []int{16, DefaultRandomLength, 64} {
		s, err := GenerateRandomString(n)
		require.NoError(t, err)
		require.False(t, strings.ContainsAny(s, "+/="), "unexpected characters in %q", s)

		decoded, err := base64.RawURLEncoding.DecodeString(s)
		require.NoError(t, err)
		require.Len(t, decoded, n)
	}

	_, err := GenerateRandomString(0)
	require.Error(t, err)
}

func TestGenerateChallenge(t *testing.T) {
	t.Parallel()

	c, err := GenerateChallenge()
	require.NoError(t, err)

	require.NotEqual(t, c.State, c.CodeVerifier)
	require.Len(t, c.CodeVerifier, 43)

	sum := sha256.Sum256([]byte(c.CodeVerifier))
	require.Equal(t, base64.RawURLEncoding.EncodeToString(sum[:]), c.CodeChallenge)

	other, err := GenerateChallenge()
	require.NoError(t, err)
	require.NotEqual(t, c.State, other.State)
	require.NotEqual(t, c.CodeVerifier, other.CodeVerifier)
}
