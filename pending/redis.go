package pending

import (
	"context"
	"encoding/json"
	"path"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
)

// DefaultTTL bounds how long a suspended invocation waits for a decision.
// An entry past the TTL is gone; resuming it returns ErrNotFound.
const DefaultTTL = time.Hour

// The redis store persists pending invocations so that a different process
// can resume a suspended dispatch. Keys are structured as
// `/<prefix>/rocpending/<invocationID>` with JSON values.
type redisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed store with the given key prefix.
func NewRedisStore(client *redis.Client, prefix string) Store {
	return &redisStore{
		client: client,
		prefix: prefix,
		ttl:    DefaultTTL,
	}
}

func (m *redisStore) key(invocationID string) string {
	return path.Join(m.prefix, "rocpending", invocationID)
}

func (m *redisStore) Put(ctx context.Context, p *Pending) error {
	cp := *p
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	data, err := json.Marshal(&cp)
	if err != nil {
		return errors.WithMessage(err, "failed to marshal pending invocation")
	}

	err = m.client.Set(ctx, m.key(p.InvocationID), data, m.ttl).Err()
	if err != nil {
		return errors.WithMessage(err, "failed to store pending invocation in Redis")
	}
	return nil
}

func (m *redisStore) Take(ctx context.Context, invocationID string) (*Pending, error) {
	data, err := m.client.GetDel(ctx, m.key(invocationID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, errors.WithMessage(err, "failed to get pending invocation from Redis")
	}

	var p Pending
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, errors.WithMessage(err, "failed to unmarshal pending invocation")
	}
	return &p, nil
}

func (m *redisStore) List(ctx context.Context) ([]string, error) {
	keyPrefix := path.Join(m.prefix, "rocpending")
	// Use SCAN instead of KEYS for better performance
	iter := m.client.Scan(ctx, 0, keyPrefix+"/*", 0).Iterator()

	var ids []string
	for iter.Next(ctx) {
		ids = append(ids, strings.TrimPrefix(iter.Val(), keyPrefix+"/"))
	}
	if err := iter.Err(); err != nil {
		return nil, errors.WithMessage(err, "failed to scan pending invocations from Redis")
	}
	return ids, nil
}

func (m *redisStore) Delete(ctx context.Context, invocationID string) error {
	err := m.client.Del(ctx, m.key(invocationID)).Err()
	if err != nil {
		return errors.WithMessage(err, "failed to delete pending invocation from Redis")
	}
	return nil
}
