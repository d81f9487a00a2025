package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/pausemo/api/internal/logger"
)

// ErrLockLost is logged when a lease expired before its holder released it
var ErrLockLost = errors.New("lock lease lost")

// unlockScript deletes the key only if it still carries our token
const unlockScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`

// redisCommander is the subset of the go-redis client the locker uses
type redisCommander interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *goredis.Cmd
}

// RedisLocker is a lease-based keyed lock shared by every server instance
type RedisLocker struct {
	rdb    redisCommander
	prefix string
	ttl    time.Duration
	retry  time.Duration
	log    *logger.Logger
}

// RedisLockerConfig holds configuration for the Redis locker
type RedisLockerConfig struct {
	Client *goredis.Client
	// Prefix namespaces every key (default "pausemo:lock:")
	Prefix string
	// TTL is the lease length; a crashed holder frees the key after it
	TTL time.Duration
	// Retry is the polling interval while the key is held elsewhere
	Retry  time.Duration
	Logger *logger.Logger
}

// NewRedisLocker creates a Redis-backed locker
func NewRedisLocker(cfg RedisLockerConfig) *RedisLocker {
	return newRedisLocker(cfg.Client, cfg)
}

func newRedisLocker(rdb redisCommander, cfg RedisLockerConfig) *RedisLocker {
	if cfg.Prefix == "" {
		cfg.Prefix = "pausemo:lock:"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Second
	}
	if cfg.Retry <= 0 {
		cfg.Retry = 25 * time.Millisecond
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNop()
	}
	return &RedisLocker{
		rdb:    rdb,
		prefix: cfg.Prefix,
		ttl:    cfg.TTL,
		retry:  cfg.Retry,
		log:    cfg.Logger,
	}
}

// Lock polls SET NX until the lease is acquired or ctx is done
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	fullKey := l.prefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(l.retry)
	defer ticker.Stop()

	for {
		acquired, err := l.rdb.SetNX(ctx, fullKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("redis setnx %s: %w", fullKey, err)
		}
		if acquired {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}

	return func() {
		// release even if the caller's context is already cancelled
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		n, err := l.rdb.Eval(releaseCtx, unlockScript, []string{fullKey}, token).Int()
		if err != nil {
			l.log.Warn("redis unlock failed", "key", fullKey, "error", err)
			return
		}
		if n == 0 {
			l.log.Warn("redis unlock skipped", "key", fullKey, "error", ErrLockLost)
		}
	}, nil
}
