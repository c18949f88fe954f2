package cryptox_test

import (
	"testing"

	"github.com/aussiebroadwan/kinde/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestSealOpen(t *testing.T) {
	t.Parallel()

	sealer, err := cryptox.NewSealer([]byte("test-store-secret"), "session-store")
	require.NoError(t, err)

	plaintext := []byte(`{"access_token":"abc","expires_in":3600}`)

	sealed, err := sealer.Seal(plaintext, []byte("token"))
	require.NoError(t, err)
	require.NotEqual(t, plaintext, sealed)

	opened, err := sealer.Open(sealed, []byte("token"))
	require.NoError(t, err)
	require.Equal(t, plaintext, opened)
}

func TestSealProducesDistinctCiphertexts(t *testing.T) {
	t.Parallel()

	sealer, err := cryptox.NewSealer([]byte("test-store-secret"), "session-store")
	require.NoError(t, err)

	a, err := sealer.Seal([]byte("same"), nil)
	require.NoError(t, err)
	b, err := sealer.Seal([]byte("same"), nil)
	require.NoError(t, err)

	require.NotEqual(t, a, b, "random nonce should make ciphertexts differ")
}

func TestOpenRejectsTampering(t *testing.T) {
	t.Parallel()

	sealer, err := cryptox.NewSealer([]byte("test-store-secret"), "session-store")
	require.NoError(t, err)

	sealed, err := sealer.Seal([]byte("refresh-token"), []byte("token"))
	require.NoError(t, err)

	t.Run("wrong additional data", func(t *testing.T) {
		_, err := sealer.Open(sealed, []byte("state"))
		require.ErrorIs(t, err, cryptox.ErrDecrypt)
	})

	t.Run("flipped byte", func(t *testing.T) {
		tampered := append([]byte(nil), sealed...)
		tampered[len(tampered)-1] ^= 0xff
		_, err := sealer.Open(tampered, []byte("token"))
		require.ErrorIs(t, err, cryptox.ErrDecrypt)
	})

	t.Run("too short", func(t *testing.T) {
		_, err := sealer.Open([]byte("short"), []byte("token"))
		require.ErrorIs(t, err, cryptox.ErrCiphertextTooShort)
	})

	t.Run("different secret", func(t *testing.T) {
		other, err := cryptox.NewSealer([]byte("another-secret"), "session-store")
		require.NoError(t, err)
		_, err = other.Open(sealed, []byte("token"))
		require.Error(t, err)
	})
}

func TestNewSealerRequiresSecret(t *testing.T) {
	t.Parallel()

	_, err := cryptox.NewSealer(nil, "session-store")
	require.Error(t, err)
}
