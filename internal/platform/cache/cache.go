package cache

import (
	"context"
	"fmt"
	"time"
)

// Driver identifiers supported by the cache layer.
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

// Store 简单的键值缓存
type Store interface {
	// Get returns the cached value. ok is false on miss or expiry.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	// Set stores a value; ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close(ctx context.Context) error
}

// RedisConfig 连接参数
type RedisConfig struct {
	Addr     string
	Username string
	Password string
	DB       int
	Prefix   string
}

// Config 缓存配置
type Config struct {
	Driver string
	Redis  *RedisConfig
}

// New creates a cache store based on the provided configuration.
func New(cfg Config) (Store, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverMemory
	}

	switch driver {
	case DriverMemory:
		return NewMemory(), nil
	case DriverRedis:
		return NewRedis(cfg)
	default:
		return nil, fmt.Errorf("unsupported cache driver: %s", driver)
	}
}
