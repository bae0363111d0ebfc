package poller

import (
	"context"
	"log"
	"time"

	"github.com/codedlook/storefront/internal/domain"
)

// Catalog is the engine surface the poller needs.
type Catalog interface {
	LoadCatalog(ctx context.Context) ([]domain.Product, error)
	Busy() bool
}

// Poller periodically re-pulls the remote document so edits made by
// other writers become visible here. A tick is skipped while a local
// mutation is in flight; the engine would refuse the reconcile anyway,
// so pulling mid-mutation is wasted work.
type Poller struct {
	catalog  Catalog
	interval time.Duration
}

func New(catalog Catalog, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Poller{catalog: catalog, interval: interval}
}

func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.refresh(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *Poller) refresh(ctx context.Context) {
	if p.catalog.Busy() {
		return
	}
	if _, err := p.catalog.LoadCatalog(ctx); err != nil {
		log.Printf("catalog refresh failed: %v", err)
	}
}
