package app

import (
	"context"
	"fmt"

	"github.com/aussiebroadwan/kinde/pkg/cryptox"
	"github.com/aussiebroadwan/kinde/pkg/store"
	"github.com/aussiebroadwan/kinde/pkg/store/drivers/redis"
	"github.com/aussiebroadwan/kinde/pkg/store/drivers/sqlite"
)

// sealerInfo separates the store key from any other use of the same secret.
const sealerInfo = "kinde-session-store"

// OpenStore opens the configured backend, wrapped in at-rest encryption when
// a store key is set.
func OpenStore(ctx context.Context, cfg StoreConfig) (*store.Store, error) {
	var backend store.Backend

	switch cfg.Driver {
	case StoreMemory:
		backend = store.NewMemory()

	case StoreSQLite:
		db, err := sqlite.Open(cfg.SQLiteFile, cfg.Session)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		backend = db

	case StoreRedis:
		rdb, err := redis.NewStore(ctx, redis.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Session:  cfg.Session,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open redis store: %w", err)
		}
		backend = rdb

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}

	if cfg.Key != "" {
		sealer, err := cryptox.NewSealer([]byte(cfg.Key), sealerInfo)
		if err != nil {
			_ = backend.Close()
			return nil, fmt.Errorf("failed to initialize store encryption: %w", err)
		}
		backend = store.NewSealed(backend, sealer)
	}

	return store.New(backend), nil
}
