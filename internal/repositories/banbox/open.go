package banbox

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	apperr "github.com/KirkDiggler/headsteal/internal/errors"
)

// Backend names reported by Open
const (
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// StoreConfig selects a backend. Redis wins over SQLite; neither means memory.
type StoreConfig struct {
	RedisURL   string
	RedisKey   string
	SQLitePath string
}

// Store is an opened repository plus the handle that must be closed
type Store struct {
	Repository
	Backend string
	close   func() error
}

// Close releases the backend connection
func (s *Store) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// Open connects to the configured backend
func Open(ctx context.Context, cfg StoreConfig) (*Store, error) {
	switch {
	case cfg.RedisURL != "":
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, apperr.WrapWithCode(err, apperr.CodeInvalidArgument, "failed to parse redis url")
		}
		client := redis.NewClient(opts)

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, apperr.WrapWithCode(err, apperr.CodeUnavailable, "failed to connect to redis")
		}
		return &Store{
			Repository: NewRedis(&RedisConfig{Client: client, Key: cfg.RedisKey}),
			Backend:    BackendRedis,
			close:      client.Close,
		}, nil

	case cfg.SQLitePath != "":
		repo, err := OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, apperr.WrapWithCode(err, apperr.CodeUnavailable, "failed to open sqlite store")
		}
		return &Store{Repository: repo, Backend: BackendSQLite, close: repo.Close}, nil

	default:
		return &Store{Repository: NewInMemory(), Backend: BackendMemory}, nil
	}
}
