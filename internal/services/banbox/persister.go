package banbox

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/KirkDiggler/headsteal/internal/entities"
	apperr "github.com/KirkDiggler/headsteal/internal/errors"
	"github.com/KirkDiggler/headsteal/internal/logger"
	banboxrepo "github.com/KirkDiggler/headsteal/internal/repositories/banbox"
)

// persister keeps only the newest snapshot. A failed write leaves the
// snapshot dirty so the next mutation or Flush writes it again.
type persister struct {
	repo banboxrepo.Repository

	writeMu sync.Mutex

	mu      sync.Mutex
	latest  []*entities.BanBoxRecord
	version uint64
	written uint64

	wake chan struct{}
}

func newPersister(repo banboxrepo.Repository) *persister {
	return &persister{repo: repo, wake: make(chan struct{}, 1)}
}

func (p *persister) submit(snapshot []*entities.BanBoxRecord) {
	p.mu.Lock()
	p.latest = snapshot
	p.version++
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *persister) dirty() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.version != p.written
}

func (p *persister) run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-p.wake:
			_ = p.flush(ctx)
		}
	}
}

func (p *persister) flush(ctx context.Context) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	p.mu.Lock()
	if p.version == p.written {
		p.mu.Unlock()
		return nil
	}
	snapshot, version := p.latest, p.version
	p.mu.Unlock()

	if err := p.repo.SaveAll(ctx, snapshot); err != nil {
		logger.ForComponent("banbox").WithError(err).WithFields(logrus.Fields{
			"records": len(snapshot),
			"version": version,
		}).Error("persisting banbox records failed, in-memory state stays authoritative")
		return apperr.Wrap(err, "failed to persist banbox records")
	}

	p.mu.Lock()
	if version > p.written {
		p.written = version
	}
	p.mu.Unlock()
	return nil
}
