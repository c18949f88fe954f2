package store

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/aussiebroadwan/kinde/pkg/cryptox"
)

// Sealed encrypts every value before it reaches the wrapped Backend. The key
// name is bound as additional data, so a ciphertext copied to another key
// fails to open.
type Sealed struct {
	inner  Backend
	sealer *cryptox.Sealer
}

func NewSealed(inner Backend, sealer *cryptox.Sealer) *Sealed {
	return &Sealed{inner: inner, sealer: sealer}
}

func (s *Sealed) Get(ctx context.Context, key string) (string, bool, error) {
	raw, ok, err := s.inner.Get(ctx, key)
	if err != nil || !ok {
		return "", ok, err
	}

	sealed, err := base64.RawStdEncoding.DecodeString(raw)
	if err != nil {
		return "", false, fmt.Errorf("decode sealed %s: %w", key, err)
	}

	plain, err := s.sealer.Open(sealed, []byte(key))
	if err != nil {
		return "", false, fmt.Errorf("open sealed %s: %w", key, err)
	}
	return string(plain), true, nil
}

func (s *Sealed) Set(ctx context.Context, values map[string]string) error {
	out := make(map[string]string, len(values))
	for k, v := range values {
		if v == "" {
			out[k] = ""
			continue
		}

		sealed, err := s.sealer.Seal([]byte(v), []byte(k))
		if err != nil {
			return fmt.Errorf("seal %s: %w", k, err)
		}
		out[k] = base64.RawStdEncoding.EncodeToString(sealed)
	}
	return s.inner.Set(ctx, out)
}

func (s *Sealed) Clear(ctx context.Context) error { return s.inner.Clear(ctx) }

func (s *Sealed) Close() error { return s.inner.Close() }
