package locks

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// releaseScript deletes the lock only when this manager still owns it.
var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// RedisManager implements cross-process locking with SET NX and an owner token.
// It borrows its client; Close leaves the connection open.
type RedisManager struct {
	client  *redis.Client
	prefix  string
	logger  *zap.Logger
	ttl     time.Duration
	ownerID string
}

// NewRedisManager creates a lock manager on an existing Redis client. ttl bounds
// how long a crashed holder can block others.
func NewRedisManager(client *redis.Client, prefix string, ttl time.Duration, logger *zap.Logger) (*RedisManager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	ownerBytes := make([]byte, 16)
	if _, err := rand.Read(ownerBytes); err != nil {
		return nil, fmt.Errorf("failed to generate owner ID: %w", err)
	}

	return &RedisManager{
		client:  client,
		prefix:  prefix,
		logger:  logger,
		ttl:     ttl,
		ownerID: hex.EncodeToString(ownerBytes),
	}, nil
}

func (m *RedisManager) lockKey(key string) string {
	return m.prefix + "lock:" + key
}

// Acquire attempts to take the lock for key
func (m *RedisManager) Acquire(ctx context.Context, key string) (bool, error) {
	acquired, err := m.client.SetNX(ctx, m.lockKey(key), m.ownerID, m.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock for key %s: %w", key, err)
	}

	if acquired {
		m.logger.Debug("Lock acquired",
			zap.String("key", key),
			zap.Duration("ttl", m.ttl))
	}
	return acquired, nil
}

// Release releases a lock held by this manager
func (m *RedisManager) Release(ctx context.Context, key string) error {
	deleted, err := releaseScript.Run(ctx, m.client, []string{m.lockKey(key)}, m.ownerID).Int64()
	if err != nil {
		return fmt.Errorf("failed to release lock for key %s: %w", key, err)
	}
	if deleted == 0 {
		m.logger.Debug("Lock not owned or already expired", zap.String("key", key))
	}
	return nil
}

// Close is a no-op; the client belongs to the caller.
func (m *RedisManager) Close() error {
	return nil
}
