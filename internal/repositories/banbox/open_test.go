package banbox_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperr "github.com/KirkDiggler/headsteal/internal/errors"
	"github.com/KirkDiggler/headsteal/internal/repositories/banbox"
)

func TestOpen_DefaultsToMemory(t *testing.T) {
	store, err := banbox.Open(context.Background(), banbox.StoreConfig{})
	require.NoError(t, err)
	assert.Equal(t, banbox.BackendMemory, store.Backend)
	assert.NoError(t, store.Close())
}

func TestOpen_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "banbox.db")

	store, err := banbox.Open(context.Background(), banbox.StoreConfig{SQLitePath: path})
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, banbox.BackendSQLite, store.Backend)
	records, err := store.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestOpen_BadRedisURL(t *testing.T) {
	_, err := banbox.Open(context.Background(), banbox.StoreConfig{RedisURL: "://nope", SQLitePath: "ignored.db"})
	assert.True(t, apperr.Is(err, apperr.CodeInvalidArgument))
}
