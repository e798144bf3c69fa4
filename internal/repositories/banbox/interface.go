// Package banbox persists BanBox records. SaveAll replaces the whole set so a
// failed write leaves the previous version in place.
package banbox

//go:generate mockgen -destination=mock/mock_repository.go -package=mockbanbox -source=interface.go

import (
	"context"
	"sort"

	"github.com/KirkDiggler/headsteal/internal/entities"
)

// Repository defines the interface for BanBox record storage
type Repository interface {
	LoadAll(ctx context.Context) ([]*entities.BanBoxRecord, error)
	SaveAll(ctx context.Context, records []*entities.BanBoxRecord) error
}

// sortRecords orders records by player id so writes are deterministic
func sortRecords(records []*entities.BanBoxRecord) []*entities.BanBoxRecord {
	out := make([]*entities.BanBoxRecord, 0, len(records))
	for _, r := range records {
		if r != nil {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlayerID < out[j].PlayerID })
	return out
}
