package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/2601-ai-team4/ContentShield/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// cachedBlockedWordRepo serves active blocked words from Redis, falling back
// to the wrapped repository on a miss or any Redis error.
type cachedBlockedWordRepo struct {
	next BlockedWordRepository
	rdb  *redis.Client
	ttl  time.Duration
	log  zerolog.Logger
}

// NewCachedBlockedWordRepo wraps next with a Redis read-through cache.
// A nil client or non-positive ttl returns next unchanged.
func NewCachedBlockedWordRepo(next BlockedWordRepository, rdb *redis.Client, ttl time.Duration, log zerolog.Logger) BlockedWordRepository {
	if rdb == nil || ttl <= 0 {
		return next
	}
	return &cachedBlockedWordRepo{
		next: next,
		rdb:  rdb,
		ttl:  ttl,
		log:  log.With().Str("component", "blocklist_cache").Logger(),
	}
}

func blocklistKey(userID int64) string {
	return fmt.Sprintf("blocklist:active:%d", userID)
}

func (r *cachedBlockedWordRepo) GetActive(ctx context.Context, userID int64) ([]models.BlockedWord, error) {
	key := blocklistKey(userID)

	data, err := r.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var words []models.BlockedWord
		if jsonErr := json.Unmarshal(data, &words); jsonErr == nil {
			return words, nil
		}
		r.log.Warn().Str("key", key).Msg("Discarding undecodable cache entry")
	case !errors.Is(err, redis.Nil):
		r.log.Warn().Err(err).Str("key", key).Msg("Blocklist cache read failed")
	}

	words, err := r.next.GetActive(ctx, userID)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(words)
	if err != nil {
		return words, nil
	}
	if err := r.rdb.Set(ctx, key, payload, r.ttl).Err(); err != nil {
		r.log.Warn().Err(err).Str("key", key).Msg("Blocklist cache write failed")
	}

	return words, nil
}
