package banbox

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/KirkDiggler/headsteal/internal/entities"
)

// DefaultRedisKey is the hash holding one JSON record per player id
const DefaultRedisKey = "headsteal:banbox"

type redisRepo struct {
	client redis.UniversalClient
	key    string
}

// RedisConfig configures the Redis repository
type RedisConfig struct {
	Client redis.UniversalClient
	Key    string
}

// NewRedis creates a Redis-backed repository
func NewRedis(cfg *RedisConfig) Repository {
	if cfg == nil || cfg.Client == nil {
		panic("redis client is required")
	}
	key := cfg.Key
	if key == "" {
		key = DefaultRedisKey
	}
	return &redisRepo{client: cfg.Client, key: key}
}

func (r *redisRepo) LoadAll(ctx context.Context) ([]*entities.BanBoxRecord, error) {
	raw, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load banbox records from Redis: %w", err)
	}

	records := make([]*entities.BanBoxRecord, 0, len(raw))
	for playerID, data := range raw {
		var rec entities.BanBoxRecord
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal banbox record %s: %w", playerID, err)
		}
		records = append(records, &rec)
	}

	return sortRecords(records), nil
}

// SaveAll rewrites the hash inside MULTI/EXEC so readers see the old or the new set
func (r *redisRepo) SaveAll(ctx context.Context, records []*entities.BanBoxRecord) error {
	sorted := sortRecords(records)

	fields := make([]any, 0, len(sorted)*2)
	for _, rec := range sorted {
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to marshal banbox record %s: %w", rec.PlayerID, err)
		}
		fields = append(fields, rec.PlayerID, string(data))
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, r.key)
	if len(fields) > 0 {
		pipe.HSet(ctx, r.key, fields...)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save banbox records to Redis: %w", err)
	}

	return nil
}
