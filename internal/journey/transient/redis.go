package transient

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/nacl/secretbox"

	"phone-verification/internal/flow"
)

const (
	keyPrefix  = "phoneverify:transient"
	donePrefix = "phoneverify:finished"
	nonceSize  = 24
	SealKeyLen = 32
)

// ErrSealKey is returned for a seal key that is not SealKeyLen bytes.
var ErrSealKey = fmt.Errorf("transient: seal key must be %d bytes", SealKeyLen)

// RedisStore keeps transient state in Redis, sealed with NaCl secretbox so credentials are never
// stored in the clear. Every replica sharing the Redis must use the same seal key.
type RedisStore struct {
	client *redis.Client
	key    [SealKeyLen]byte
}

// NewRedisStore returns a store backed by client that seals records with sealKey.
func NewRedisStore(client *redis.Client, sealKey []byte) (*RedisStore, error) {
	if len(sealKey) != SealKeyLen {
		return nil, ErrSealKey
	}
	s := &RedisStore{client: client}
	copy(s.key[:], sealKey)
	return s, nil
}

func (s *RedisStore) redisKey(flowID string) string {
	return keyPrefix + ":" + flowID
}

func (s *RedisStore) Put(ctx context.Context, flowID string, t *flow.Transient, ttl time.Duration) error {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return fmt.Errorf("transient: nonce: %w", err)
	}
	sealed := secretbox.Seal(nonce[:], encodeTransient(t), &nonce, &s.key)
	if err := s.client.Set(ctx, s.redisKey(flowID), sealed, ttl).Err(); err != nil {
		return fmt.Errorf("transient: redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, flowID string) (*flow.Transient, bool, error) {
	raw, err := s.client.Get(ctx, s.redisKey(flowID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("transient: redis get: %w", err)
	}
	if len(raw) < nonceSize {
		return nil, false, errCorruptRecord
	}
	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])
	plain, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, &s.key)
	if !ok {
		return nil, false, errCorruptRecord
	}
	t, err := decodeTransient(plain)
	if err != nil {
		return nil, false, err
	}
	return t, true, nil
}

func (s *RedisStore) Delete(ctx context.Context, flowID string) error {
	if err := s.client.Del(ctx, s.redisKey(flowID)).Err(); err != nil {
		return fmt.Errorf("transient: redis del: %w", err)
	}
	return nil
}

func (s *RedisStore) MarkFinished(ctx context.Context, flowID string, ttl time.Duration) (bool, error) {
	first, err := s.client.SetNX(ctx, donePrefix+":"+flowID, 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("transient: redis setnx: %w", err)
	}
	return first, nil
}

func (s *RedisStore) Finished(ctx context.Context, flowID string) (bool, error) {
	n, err := s.client.Exists(ctx, donePrefix+":"+flowID).Result()
	if err != nil {
		return false, fmt.Errorf("transient: redis exists: %w", err)
	}
	return n > 0, nil
}
