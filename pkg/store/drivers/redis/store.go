// Package redis is a store.Backend keeping each session in one Redis hash.
// Batches are applied inside MULTI/EXEC so readers never see half of one.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const (
	DefaultPrefix  = "kinde:session:"
	DefaultSession = "default"
)

type Config struct {
	Addr     string
	Username string
	Password string
	DB       int

	// Prefix is prepended to the session name to form the hash key.
	Prefix string
	// Session names the hash holding this client's values.
	Session string
	// TTL expires the whole session after the last write. Zero keeps it
	// until cleared.
	TTL time.Duration
}

type Store struct {
	client *goredis.Client
	key    string
	ttl    time.Duration
}

// NewStore connects to Redis and verifies the connection.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis address required")
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return newStore(client, cfg), nil
}

func newStore(client *goredis.Client, cfg Config) *Store {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	session := cfg.Session
	if session == "" {
		session = DefaultSession
	}

	return &Store{
		client: client,
		key:    prefix + session,
		ttl:    cfg.TTL,
	}
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.HGet(ctx, s.key, key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *Store) Set(ctx context.Context, values map[string]string) error {
	set := make(map[string]any, len(values))
	var del []string
	for k, v := range values {
		if v == "" {
			del = append(del, k)
			continue
		}
		set[k] = v
	}

	_, err := s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		if len(set) > 0 {
			pipe.HSet(ctx, s.key, set)
		}
		if len(del) > 0 {
			pipe.HDel(ctx, s.key, del...)
		}
		if s.ttl > 0 && len(set) > 0 {
			pipe.Expire(ctx, s.key, s.ttl)
		}
		return nil
	})
	return err
}

func (s *Store) Clear(ctx context.Context) error {
	return s.client.Del(ctx, s.key).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}
