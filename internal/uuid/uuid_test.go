package uuid_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/KirkDiggler/headsteal/internal/uuid"
)

func TestGoogleUUIDGenerator(t *testing.T) {
	gen := uuid.NewGoogleUUIDGenerator()
	a, b := gen.New(), gen.New()

	assert.True(t, uuid.IsValid(a))
	assert.NotEqual(t, a, b)
	assert.False(t, uuid.IsValid("token-1"))
}

func TestSequentialGenerator_UniqueAcrossGoroutines(t *testing.T) {
	gen := uuid.NewSequentialGenerator("obj")
	assert.Equal(t, "obj-1", gen.New())

	var mu sync.Mutex
	seen := make(map[string]bool)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				id := gen.New()
				mu.Lock()
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 400)
}
