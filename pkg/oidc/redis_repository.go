package oidc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCodeStore implements AuthorizationCodeStore on Redis so several
// instances can share codes. Entries carry a TTL and are consumed with GETDEL.
type RedisCodeStore struct {
	client    redis.UniversalClient
	keyPrefix string
	ttl       time.Duration
	now       func() time.Time
}

// NewRedisCodeStore creates a Redis-backed code store. keyPrefix namespaces the keys.
func NewRedisCodeStore(client redis.UniversalClient, keyPrefix string, opts ...CodeStoreOption) *RedisCodeStore {
	o := applyCodeStoreOptions(opts)
	return &RedisCodeStore{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       o.ttl,
		now:       o.now,
	}
}

func (s *RedisCodeStore) key(code string) string {
	return s.keyPrefix + "code:" + code
}

// Store saves the context with SETNX so an existing code is never overwritten
func (s *RedisCodeStore) Store(ctx context.Context, code string, reqCtx *AuthorizationRequestContext) error {
	if code == "" {
		return errors.New("authorization code cannot be empty")
	}
	if reqCtx == nil {
		return errors.New("authorization request context cannot be nil")
	}

	stored := *reqCtx
	stored.Code = code
	data, err := json.Marshal(&stored)
	if err != nil {
		return fmt.Errorf("failed to marshal authorization request context: %w", err)
	}

	ok, err := s.client.SetNX(ctx, s.key(code), data, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to store authorization code: %w", err)
	}
	if !ok {
		return ErrCodeExists
	}
	return nil
}

// TryRetrieve consumes the code atomically with GETDEL
func (s *RedisCodeStore) TryRetrieve(ctx context.Context, code string) (*AuthorizationRequestContext, bool, error) {
	if code == "" {
		return nil, false, nil
	}

	data, err := s.client.GetDel(ctx, s.key(code)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to retrieve authorization code: %w", err)
	}

	var reqCtx AuthorizationRequestContext
	if err := json.Unmarshal(data, &reqCtx); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal authorization request context: %w", err)
	}

	if s.now().Sub(reqCtx.IssuedAt) > s.ttl {
		return nil, false, nil
	}
	return &reqCtx, true, nil
}
