package banbox

import (
	"context"
	"sync"

	"github.com/KirkDiggler/headsteal/internal/entities"
)

// InMemoryRepository keeps records for the life of the process
type InMemoryRepository struct {
	mu      sync.RWMutex
	records []*entities.BanBoxRecord
	saves   int
}

// NewInMemory creates a new in-memory repository
func NewInMemory() *InMemoryRepository {
	return &InMemoryRepository{}
}

// LoadAll returns copies of the stored records
func (r *InMemoryRepository) LoadAll(_ context.Context) ([]*entities.BanBoxRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*entities.BanBoxRecord, len(r.records))
	for i, rec := range r.records {
		out[i] = rec.Clone()
	}
	return out, nil
}

// SaveAll replaces the stored set
func (r *InMemoryRepository) SaveAll(ctx context.Context, records []*entities.BanBoxRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	sorted := sortRecords(records)
	next := make([]*entities.BanBoxRecord, len(sorted))
	for i, rec := range sorted {
		next[i] = rec.Clone()
	}

	r.mu.Lock()
	r.records = next
	r.saves++
	r.mu.Unlock()
	return nil
}

// Saves returns how many times SaveAll succeeded
func (r *InMemoryRepository) Saves() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.saves
}
