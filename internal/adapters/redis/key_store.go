package redis

// Package redis provides a Redis-backed signing key store.

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/target/mmk-cdn-authorizer/internal/domain/authz"
	"github.com/target/mmk-cdn-authorizer/internal/ports"
)

const defaultPrefix = "signing-key:"

var _ ports.KeyStore = (*KeyStore)(nil)

// KeyStore reads PEM key material stored under "<prefix><bucket>:<key>".
type KeyStore struct {
	client redis.UniversalClient
	prefix string
}

// NewKeyStore creates a Redis key store with the default prefix.
func NewKeyStore(client redis.UniversalClient) *KeyStore {
	return NewKeyStoreWithPrefix(client, defaultPrefix)
}

// NewKeyStoreWithPrefix creates a Redis key store with a custom key prefix.
func NewKeyStoreWithPrefix(client redis.UniversalClient, prefix string) *KeyStore {
	return &KeyStore{client: client, prefix: prefix}
}

func (s *KeyStore) redisKey(loc authz.KeyLocation) string {
	return s.prefix + loc.Bucket + ":" + loc.Key
}

func (s *KeyStore) GetKey(ctx context.Context, loc authz.KeyLocation) (authz.SigningKey, error) {
	if loc.Key == "" {
		return nil, ports.ErrKeyNotFound
	}

	data, err := s.client.Get(ctx, s.redisKey(loc)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ports.ErrKeyNotFound
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return authz.SigningKey(data), nil
}

// Put stores key material at loc. Used for provisioning and tests.
func (s *KeyStore) Put(ctx context.Context, loc authz.KeyLocation, pem []byte) error {
	if loc.Key == "" {
		return errors.New("key location cannot be empty")
	}
	return s.client.Set(ctx, s.redisKey(loc), pem, 0).Err()
}
