package cache

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/logflow/alphaminer/pkg/config"
	"github.com/logflow/alphaminer/pkg/errors"
	"github.com/logflow/alphaminer/pkg/petrinet"
)

// RedisConfig configures the Redis net cache.
type RedisConfig struct {
	// Address is the Redis server address (e.g., "localhost:6379")
	Address string

	Password string
	Database int

	// Prefix is prepended to all keys (e.g., "alphaminer:nets:")
	Prefix string

	// TTL is the time-to-live for cached nets (0 = no expiration)
	TTL time.Duration

	// Timeout for Redis operations
	Timeout time.Duration

	PoolSize     int
	MinIdleConns int
}

// DefaultRedisConfig returns sensible defaults.
func DefaultRedisConfig(address string) RedisConfig {
	return RedisConfig{
		Address:      address,
		Prefix:       "alphaminer:nets:",
		TTL:          24 * time.Hour,
		Timeout:      5 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	}
}

// RedisConfigFrom maps the cache section onto RedisConfig.
func RedisConfigFrom(cfg config.CacheConfig) RedisConfig {
	rc := DefaultRedisConfig(cfg.Address)
	rc.Password = cfg.Password
	rc.Database = cfg.Database
	if cfg.Prefix != "" {
		rc.Prefix = cfg.Prefix
	}
	rc.TTL = cfg.TTL
	return rc
}

// Redis stores net documents as JSON strings.
type Redis struct {
	cfg    RedisConfig
	client *redis.Client
}

// NewRedis connects and pings the server.
func NewRedis(cfg RedisConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.Database,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.Timeout,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.Wrap(err, errors.CodeCacheUnavailable, "failed to connect to Redis").
			WithContext("address", cfg.Address)
	}

	return &Redis{cfg: cfg, client: client}, nil
}

// key returns the Redis key for a fingerprint.
func (c *Redis) key(fingerprint string) string {
	return c.cfg.Prefix + sanitizeKey(fingerprint)
}

// sanitizeKey removes characters that may cause issues in Redis keys.
func sanitizeKey(s string) string {
	return strings.NewReplacer("/", "_", " ", "_", "\n", "_").Replace(s)
}

func (c *Redis) Get(ctx context.Context, key string) (petrinet.Document, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if stderrors.Is(err, redis.Nil) {
			return petrinet.Document{}, false, nil
		}
		return petrinet.Document{}, false, errors.Wrap(err, errors.CodeCacheUnavailable, "failed to read net from Redis")
	}

	var doc petrinet.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return petrinet.Document{}, false, errors.Wrap(err, errors.CodeCacheCorrupt, "cached net is not valid JSON").
			WithContext("key", key)
	}
	return doc, true, nil
}

func (c *Redis) Set(ctx context.Context, key string, doc petrinet.Document) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	data, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, errors.CodeEncodeFailed, "failed to encode net")
	}
	if err := c.client.Set(ctx, c.key(key), data, c.cfg.TTL).Err(); err != nil {
		return errors.Wrap(err, errors.CodeCacheUnavailable, "failed to write net to Redis")
	}
	return nil
}

// Ping checks the Redis connection.
func (c *Redis) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()
	return c.client.Ping(ctx).Err()
}

// Name returns "redis".
func (c *Redis) Name() string { return "redis" }

// Close closes the Redis connection.
func (c *Redis) Close() error {
	return c.client.Close()
}

// Open returns a Redis cache when cfg enables it and Noop otherwise.
func Open(cfg config.CacheConfig) (NetCache, error) {
	if !cfg.Enabled {
		return Noop{}, nil
	}
	r, err := NewRedis(RedisConfigFrom(cfg))
	if err != nil {
		return nil, err
	}
	return r, nil
}
