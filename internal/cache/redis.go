package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisOpTimeout = 2 * time.Second

// RedisStore reads and writes a single cache key in Redis with TTL handled
// server-side. It mirrors the Store semantics: misses and write failures are
// silent.
type RedisStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

var _ Cache = (*RedisStore)(nil)

// NewRedisStore connects to the Redis instance at url (redis:// form) and
// returns a store for the given resource key. The connection is verified
// with a ping so callers can fall back to the file store.
func NewRedisStore(url, key, baseURL string, companyID int, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis unreachable: %w", err)
	}

	return &RedisStore{
		client: client,
		key:    redisKey(key, baseURL, companyID),
		ttl:    ttl,
	}, nil
}

// newRedisStoreWithClient wires an existing client, used by tests.
func newRedisStoreWithClient(client *redis.Client, key, baseURL string, companyID int, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		key:    redisKey(key, baseURL, companyID),
		ttl:    ttl,
	}
}

func redisKey(key, baseURL string, companyID int) string {
	hash := sha1.Sum([]byte(baseURL))
	suffix := hex.EncodeToString(hash[:6])
	return fmt.Sprintf("pact-cli:%s:%s:%d", sanitizeKey(key), suffix, companyID)
}

// Get loads cached items into dst. Returns false on miss or when disabled.
func (r *RedisStore) Get(dst any) bool {
	if disabled() {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	data, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(data, dst) == nil
}

// Put writes items with the store TTL. Silently no-ops on error or when disabled.
func (r *RedisStore) Put(items any) {
	if disabled() {
		return
	}
	data, err := json.Marshal(items)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	_ = r.client.Set(ctx, r.key, data, r.ttl).Err()
}

// Clear removes this cache key.
func (r *RedisStore) Clear() {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	_ = r.client.Del(ctx, r.key).Err()
}

// Close releases the underlying Redis connection.
func (r *RedisStore) Close() error {
	return r.client.Close()
}
