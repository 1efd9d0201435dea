package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client wraps a Redis connection shared across runs, used to dedupe
// repeated contributor-list and GetUser fetches between runs and
// concurrent crawler/enrichment processes.
type Client struct {
	client *redis.Client
	logger *slog.Logger
	ttl    time.Duration // Default TTL for cached items
}

// NewClient creates a Redis client from connection parameters.
func NewClient(ctx context.Context, host string, port int, password string) (*Client, error) {
	if host == "" {
		return nil, fmt.Errorf("redis host missing")
	}

	addr := fmt.Sprintf("%s:%d", host, port)
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password, // Empty string if no password
		DB:       0,        // Use default DB
	})

	// Verify connectivity (fail fast on startup)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}

	logger := slog.Default().With("component", "redis")
	logger.Info("redis client connected", "addr", addr)

	return &Client{
		client: client,
		logger: logger,
		ttl:    15 * time.Minute,
	}, nil
}

// NewClientFromURL builds a Client from a "redis://[:password@]host:port"
// URL, the form cfg.Cache.SharedCacheURL is configured with. It delegates
// to NewClient so both entry points share the same connectivity check.
func NewClientFromURL(ctx context.Context, rawURL string) (*Client, error) {
	if rawURL == "" {
		return nil, fmt.Errorf("redis url missing")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	host := u.Hostname()
	port := 6379
	if p := u.Port(); p != "" {
		if parsed, err := strconv.Atoi(p); err == nil {
			port = parsed
		}
	}
	password := ""
	if u.User != nil {
		password, _ = u.User.Password()
	}

	return NewClient(ctx, host, port, password)
}

// Close closes the Redis client connection
func (c *Client) Close() error {
	if err := c.client.Close(); err != nil {
		return fmt.Errorf("failed to close redis client: %w", err)
	}
	c.logger.Info("redis client closed")
	return nil
}

// HealthCheck verifies Redis connectivity
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}
	return nil
}

// Get retrieves a cached value by key and unmarshals into target.
// Returns false on a cache miss, which is not an error.
func (c *Client) Get(ctx context.Context, key string, target interface{}) (bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		// Cache miss - not an error
		c.logger.Debug("cache miss", "key", key)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get failed for key %s: %w", key, err)
	}

	// Unmarshal JSON into target
	if err := json.Unmarshal([]byte(val), target); err != nil {
		return false, fmt.Errorf("failed to unmarshal cached value for key %s: %w", key, err)
	}

	c.logger.Debug("cache hit", "key", key)
	return true, nil
}

// Set stores a value in cache with the client's default TTL, marshaled
// to JSON.
func (c *Client) Set(ctx context.Context, key string, value interface{}) error {
	return c.SetWithTTL(ctx, key, value, c.ttl)
}

// SetWithTTL stores a value in cache with custom TTL
// Value is marshaled to JSON before storage
func (c *Client) SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	// Marshal value to JSON
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value for key %s: %w", key, err)
	}

	// Store in Redis with TTL
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed for key %s: %w", key, err)
	}

	c.logger.Debug("cache set", "key", key, "ttl", ttl)
	return nil
}

// Delete removes a key from cache
func (c *Client) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis delete failed for key %s: %w", key, err)
	}

	c.logger.Debug("cache delete", "key", key)
	return nil
}

// DeletePattern deletes all keys matching a glob pattern, e.g.
// DeletePattern(ctx, "contributors:org/repo:*").
func (c *Client) DeletePattern(ctx context.Context, pattern string) (int64, error) {
	// Scan for matching keys
	var cursor uint64
	var keys []string

	for {
		var batch []string
		var err error
		batch, cursor, err = c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return 0, fmt.Errorf("redis scan failed for pattern %s: %w", pattern, err)
		}

		keys = append(keys, batch...)

		if cursor == 0 {
			break
		}
	}

	// Delete all matching keys
	if len(keys) == 0 {
		c.logger.Debug("no keys matched pattern", "pattern", pattern)
		return 0, nil
	}

	deleted, err := c.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("redis delete failed for pattern %s: %w", pattern, err)
	}

	c.logger.Info("cache pattern delete", "pattern", pattern, "deleted", deleted)
	return deleted, nil
}

// CacheKey generates a standardized cache key of the form
// "prefix:namespace:identifier".
func CacheKey(prefix, namespace, identifier string) string {
	return fmt.Sprintf("%s:%s:%s", prefix, namespace, identifier)
}

// ProfileCacheKey generates the cache key used to dedupe repeated
// GitHub profile fetches across runs.
func ProfileCacheKey(username string) string {
	return CacheKey("profile", "github", username)
}

// ContributorPageCacheKey generates the cache key used to dedupe
// repeated contributor-list pages during discovery.
func ContributorPageCacheKey(repoFullName string, page int) string {
	return CacheKey("contributors", repoFullName, fmt.Sprintf("page%d", page))
}
