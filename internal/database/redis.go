package database

import (
	"context"
	"time"

	"github.com/2601-ai-team4/ContentShield/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// NewRedisClient connects to the blocklist cache. It returns nil when Redis is
// not configured or unreachable; callers then read blocked words from Postgres
// directly.
func NewRedisClient(ctx context.Context, cfg *config.BlocklistConfig, log zerolog.Logger) *redis.Client {
	log = log.With().Str("component", "redis").Logger()

	if cfg.RedisAddr == "" {
		log.Info().Msg("Redis address not configured, blocklist cache disabled")
		return nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("Redis unreachable, blocklist cache disabled")
		rdb.Close()
		return nil
	}

	log.Info().Str("addr", cfg.RedisAddr).Int("db", cfg.RedisDB).Msg("Redis connection established")
	return rdb
}
