// Package storetest holds the behaviour every store.Backend must share.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/aussiebroadwan/kinde/pkg/store"
	"github.com/stretchr/testify/require"
)

// RunBackendTests exercises a Backend implementation. newBackend must return
// an empty backend for each call.
func RunBackendTests(t *testing.T, newBackend func(t *testing.T) store.Backend) {
	t.Helper()

	ctx := context.Background()

	t.Run("get missing key", func(t *testing.T) {
		b := newBackend(t)

		v, ok, err := b.Get(ctx, store.KeyToken)
		require.NoError(t, err)
		require.False(t, ok)
		require.Empty(t, v)
	})

	t.Run("set then get", func(t *testing.T) {
		b := newBackend(t)

		require.NoError(t, b.Set(ctx, map[string]string{
			store.KeyState:        "state-1",
			store.KeyCodeVerifier: "verifier-1",
		}))

		v, ok, err := b.Get(ctx, store.KeyState)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "state-1", v)

		v, ok, err = b.Get(ctx, store.KeyCodeVerifier)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "verifier-1", v)
	})

	t.Run("overwrite", func(t *testing.T) {
		b := newBackend(t)

		require.NoError(t, b.Set(ctx, map[string]string{store.KeyState: "a"}))
		require.NoError(t, b.Set(ctx, map[string]string{store.KeyState: "b"}))

		v, _, err := b.Get(ctx, store.KeyState)
		require.NoError(t, err)
		require.Equal(t, "b", v)
	})

	t.Run("empty value deletes", func(t *testing.T) {
		b := newBackend(t)

		require.NoError(t, b.Set(ctx, map[string]string{
			store.KeyUserProfile: `{"id":"kp_1"}`,
			store.KeyState:       "keep",
		}))
		require.NoError(t, b.Set(ctx, map[string]string{store.KeyUserProfile: ""}))

		_, ok, err := b.Get(ctx, store.KeyUserProfile)
		require.NoError(t, err)
		require.False(t, ok)

		v, ok, err := b.Get(ctx, store.KeyState)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "keep", v)
	})

	t.Run("clear removes every key", func(t *testing.T) {
		b := newBackend(t)

		values := make(map[string]string, len(store.Keys))
		for _, k := range store.Keys {
			values[k] = "value-of-" + k
		}
		require.NoError(t, b.Set(ctx, values))
		require.NoError(t, b.Clear(ctx))

		for _, k := range store.Keys {
			_, ok, err := b.Get(ctx, k)
			require.NoError(t, err)
			require.False(t, ok, "key %s survived Clear", k)
		}

		// Clearing an empty session is not an error.
		require.NoError(t, b.Clear(ctx))
	})

	t.Run("concurrent batches are never torn", func(t *testing.T) {
		b := newBackend(t)

		var wg sync.WaitGroup
		for i := range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				v := fmt.Sprintf("writer-%d", i)
				_ = b.Set(ctx, map[string]string{
					store.KeyState:        v,
					store.KeyCodeVerifier: v,
				})
			}()
		}
		wg.Wait()

		state, _, err := b.Get(ctx, store.KeyState)
		require.NoError(t, err)
		verifier, _, err := b.Get(ctx, store.KeyCodeVerifier)
		require.NoError(t, err)
		require.Equal(t, state, verifier)
	})
}
