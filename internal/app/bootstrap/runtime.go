package bootstrap

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/incident-report-ai/internal/config"
	"github.com/wolfman30/incident-report-ai/internal/validation"
	"github.com/wolfman30/incident-report-ai/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when no address
// is set. When verify is true, a failed ping is returned as an error.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, verify bool) (*redis.Client, error) {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil, nil
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client, nil
	}
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("bootstrap: redis ping: %w", err)
	}
	return client, nil
}

// BuildValidationStore selects the session store backend. The returned Redis
// client is nil for the memory backend; callers own closing it.
func BuildValidationStore(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (validation.Store, *redis.Client, error) {
	if cfg == nil {
		return nil, nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	switch cfg.ValidationStore {
	case appconfig.StoreRedis:
		client, err := BuildRedisClient(ctx, cfg, true)
		if err != nil {
			return nil, nil, err
		}
		if client == nil {
			return nil, nil, fmt.Errorf("bootstrap: REDIS_ADDR is required for the redis validation store")
		}
		logger.Info("validation store: redis", "addr", cfg.RedisAddr, "ttl", cfg.ValidationMaxAge)
		return validation.NewRedisStore(client, cfg.ValidationMaxAge, nil), client, nil
	case appconfig.StoreMemory, "":
		logger.Info("validation store: memory")
		return validation.NewMemoryStore(), nil, nil
	default:
		return nil, nil, fmt.Errorf("bootstrap: unknown validation store %q", cfg.ValidationStore)
	}
}
