package idx_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/kinde/pkg/idx"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/require"
)

func TestNewIsValidULID(t *testing.T) {
	id := idx.New()
	require.False(t, id.IsZero())
	require.True(t, idx.Zero.IsZero())

	_, err := ulid.ParseStrict(id.String())
	require.NoError(t, err)
}

func TestMonotonicOrdering(t *testing.T) {
	at := time.Unix(1700000000, 0).UTC()
	a := idx.NewAt(at)
	b := idx.NewAt(at)

	require.Less(t, a.String(), b.String(), "ids in the same millisecond keep creation order")
}

func TestNewAtStampsTime(t *testing.T) {
	tm := time.Unix(1700000000, 0).UTC()
	u, err := ulid.ParseStrict(idx.NewAt(tm).String())
	require.NoError(t, err)

	require.WithinDuration(t, tm, ulid.Time(u.Time()), time.Millisecond)
}
