package catalog

import (
	"context"
	"errors"
	"log"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/codedlook/storefront/internal/cache"
	"github.com/codedlook/storefront/internal/domain"
	"github.com/codedlook/storefront/internal/orders"
	"github.com/codedlook/storefront/internal/store"
)

// New ids start here when nothing has been observed yet.
const minProductID = 110

var (
	ErrBusy            = errors.New("another operation is in progress")
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidInput    = errors.New("invalid product input")
	ErrClosed          = errors.New("engine is closed")
)

// BaselineSource supplies the immutable deploy-time catalog.
type BaselineSource interface {
	Load(ctx context.Context) ([]domain.Product, error)
}

// RemoteStore is the shared document standing in for a backend. Pull and
// Replace move the whole document; concurrent writers race and the last
// successful Replace wins.
type RemoteStore interface {
	Pull(ctx context.Context) (*domain.Document, error)
	Replace(ctx context.Context, doc *domain.Document) error
}

// Engine reconciles the baseline catalog, the local override store and
// the remote document into one merged product list, and propagates local
// writes outward. One engine instance owns its local store for the
// lifetime of the process.
type Engine struct {
	store    store.Store
	baseline BaselineSource
	remote   RemoteStore
	cache    cache.CatalogCache // optional

	sfg singleflight.Group

	// gate admits one catalog-mutating operation at a time. Overlapping
	// calls are rejected with ErrBusy, not queued; deletes go through
	// their own queue instead.
	gate chan struct{}

	mu          sync.RWMutex
	snapshot    []domain.Product
	byID        map[int64]domain.Product
	baselineIDs map[int64]struct{}
	maxSeen     int64
	loaded      bool

	// pending tracks ids written or tombstoned locally since the last
	// successful push, so a pull that does not yet reflect them cannot
	// make them vanish.
	pendMu         sync.Mutex
	pendingWrites  map[int64]struct{}
	pendingDeletes map[int64]struct{}

	deletes chan deleteRequest
	stop    chan struct{}
	wg      sync.WaitGroup
}

type deleteRequest struct {
	ctx  context.Context
	id   int64
	done chan error
}

func NewEngine(s store.Store, baseline BaselineSource, remote RemoteStore, c cache.CatalogCache) *Engine {
	e := &Engine{
		store:          s,
		baseline:       baseline,
		remote:         remote,
		cache:          c,
		gate:           make(chan struct{}, 1),
		pendingWrites:  make(map[int64]struct{}),
		pendingDeletes: make(map[int64]struct{}),
		deletes:        make(chan deleteRequest),
		stop:           make(chan struct{}),
	}

	e.wg.Add(1)
	go e.deleteLoop()

	return e
}

// Close stops the delete worker and waits for it to finish.
func (e *Engine) Close() error {
	close(e.stop)
	e.wg.Wait()
	return nil
}

// TryAcquire claims the single mutation slot, failing fast when another
// operation is in flight. Also used by the checkout path.
func (e *Engine) TryAcquire() error {
	select {
	case e.gate <- struct{}{}:
		return nil
	default:
		return ErrBusy
	}
}

// Release frees the mutation slot claimed by TryAcquire.
func (e *Engine) Release() {
	<-e.gate
}

// Busy reports whether a mutation is currently in flight. The poller
// checks this to skip refresh ticks whose reconcile would be refused
// anyway.
func (e *Engine) Busy() bool {
	return len(e.gate) > 0
}

// acquire blocks until the mutation slot is free. Only the delete worker
// uses it; everything else fails fast via TryAcquire.
func (e *Engine) acquire() {
	e.gate <- struct{}{}
}

// LoadCatalog pulls the remote document (best effort), reconciles it into
// local storage and publishes the merged catalog. Concurrent calls are
// collapsed into one load.
func (e *Engine) LoadCatalog(ctx context.Context) ([]domain.Product, error) {
	v, err, _ := e.sfg.Do("load", func() (interface{}, error) {
		e.pullRemote(ctx)
		return e.rebuild(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Product), nil
}

// pullRemote reconciles the remote document into the local store. The
// remote is authoritative for tombstones and orders; products are
// unioned with local pending writes preserved. Failures degrade to
// local-only state and never propagate.
func (e *Engine) pullRemote(ctx context.Context) {
	doc, err := e.remote.Pull(ctx)
	if err != nil {
		log.Printf("remote pull failed, continuing with local state: %v", err)
		return
	}

	// Reconciling rewrites the same storage keys mutations write, so it
	// claims the mutation slot for the read-modify-write. A mutation in
	// flight wins; the skipped reconcile is repeated on the next pull.
	if err := e.TryAcquire(); err != nil {
		log.Printf("mutation in flight, skipping remote reconcile")
		return
	}
	defer e.Release()

	tombstones := e.withPendingDeletes(doc.DeletedProducts)
	if err := e.store.SaveTombstones(ctx, tombstones); err != nil {
		log.Printf("save remote tombstones: %v", err)
		return
	}

	localOrders, err := e.store.Orders(ctx)
	if err != nil {
		log.Printf("read local orders: %v", err)
		return
	}
	if err := e.store.SaveOrders(ctx, orders.Merge(localOrders, doc.Orders)); err != nil {
		log.Printf("save merged orders: %v", err)
		return
	}

	local, err := e.store.Products(ctx)
	if err != nil {
		log.Printf("read local products: %v", err)
		return
	}
	if err := e.store.SaveProducts(ctx, e.reconcileProducts(local, doc.Products)); err != nil {
		log.Printf("save reconciled products: %v", err)
	}
}

// withPendingDeletes unions locally tombstoned ids that have not yet
// round-tripped through a successful push into the remote tombstone list.
func (e *Engine) withPendingDeletes(remote []int64) []int64 {
	e.pendMu.Lock()
	defer e.pendMu.Unlock()

	seen := make(map[int64]struct{}, len(remote))
	out := make([]int64, 0, len(remote)+len(e.pendingDeletes))
	for _, id := range remote {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	for id := range e.pendingDeletes {
		if _, dup := seen[id]; dup {
			continue
		}
		out = append(out, id)
	}
	return out
}

// reconcileProducts adopts remote products into the local store while
// keeping local entries the remote does not know about yet. For ids
// present on both sides the remote copy wins unless the local copy is a
// pending write.
func (e *Engine) reconcileProducts(local, remote []domain.Product) []domain.Product {
	e.pendMu.Lock()
	defer e.pendMu.Unlock()

	localByID := make(map[int64]domain.Product, len(local))
	for _, p := range local {
		if p.ID > 0 {
			localByID[p.ID] = p
		}
	}

	out := make([]domain.Product, 0, len(remote)+len(local))
	seen := make(map[int64]struct{}, len(remote))
	for _, rp := range remote {
		if rp.ID <= 0 {
			continue
		}
		if _, dup := seen[rp.ID]; dup {
			continue
		}
		seen[rp.ID] = struct{}{}

		if _, pending := e.pendingWrites[rp.ID]; pending {
			if lp, ok := localByID[rp.ID]; ok {
				out = append(out, lp)
				continue
			}
		}
		out = append(out, rp)
	}

	for _, lp := range local {
		if lp.ID <= 0 {
			continue
		}
		if _, dup := seen[lp.ID]; dup {
			continue
		}
		seen[lp.ID] = struct{}{}
		out = append(out, lp)
	}

	return out
}

// rebuild recomputes the merged catalog from the three sources. It never
// touches the remote; the catalog is always rebuilt wholesale, never
// patched incrementally.
func (e *Engine) rebuild(ctx context.Context) ([]domain.Product, error) {
	base, err := e.baseline.Load(ctx)
	if err != nil {
		log.Printf("baseline load failed, merging without it: %v", err)
		base = nil
	}

	overrides, err := e.store.Products(ctx)
	if err != nil {
		e.invalidateCache(ctx)
		return nil, err
	}
	tombstones, err := e.store.Tombstones(ctx)
	if err != nil {
		e.invalidateCache(ctx)
		return nil, err
	}

	deleted := make(map[int64]struct{}, len(tombstones))
	for _, id := range tombstones {
		deleted[id] = struct{}{}
	}

	baselineIDs := make(map[int64]struct{}, len(base))
	merged := make(map[int64]domain.Product, len(base)+len(overrides))
	order := make([]int64, 0, len(base)+len(overrides))
	var maxSeen int64

	add := func(p domain.Product) {
		if p.ID <= 0 {
			return
		}
		if p.ID > maxSeen {
			maxSeen = p.ID
		}
		if _, exists := merged[p.ID]; !exists {
			order = append(order, p.ID)
		}
		merged[p.ID] = p
	}

	for _, p := range base {
		add(p)
		if p.ID > 0 {
			baselineIDs[p.ID] = struct{}{}
		}
	}
	for _, p := range overrides {
		add(p)
	}

	snapshot := make([]domain.Product, 0, len(order))
	for _, id := range order {
		if _, gone := deleted[id]; gone {
			continue
		}
		snapshot = append(snapshot, merged[id])
	}

	byID := make(map[int64]domain.Product, len(snapshot))
	for _, p := range snapshot {
		byID[p.ID] = p
	}

	e.mu.Lock()
	e.snapshot = snapshot
	e.byID = byID
	e.baselineIDs = baselineIDs
	e.maxSeen = maxSeen
	e.loaded = true
	e.mu.Unlock()

	if e.cache != nil {
		go func(products []domain.Product) {
			if err := e.cache.Set(context.Background(), products); err != nil {
				log.Printf("catalog cache set error: %v", err)
			}
		}(snapshot)
	}

	return snapshot, nil
}

// invalidateCache drops the warm-start snapshot when a rebuild fails
// after the store may have changed; a restarted process must not serve
// a snapshot the store no longer backs.
func (e *Engine) invalidateCache(ctx context.Context) {
	if e.cache == nil {
		return
	}
	if err := e.cache.Delete(ctx); err != nil {
		log.Printf("catalog cache delete error: %v", err)
	}
}

// push mirrors the local store to the remote document. On success the
// pending sets are cleared; on failure the local mutation stands and the
// remote lags until the next push or poll round.
func (e *Engine) push(ctx context.Context) {
	products, err := e.store.Products(ctx)
	if err != nil {
		log.Printf("read products for push: %v", err)
		return
	}
	tombstones, err := e.store.Tombstones(ctx)
	if err != nil {
		log.Printf("read tombstones for push: %v", err)
		return
	}
	orderHistory, err := e.store.Orders(ctx)
	if err != nil {
		log.Printf("read orders for push: %v", err)
		return
	}

	doc := &domain.Document{
		Products:        products,
		DeletedProducts: tombstones,
		Orders:          orderHistory,
	}
	if err := e.remote.Replace(ctx, doc); err != nil {
		log.Printf("remote push failed, changes kept locally: %v", err)
		return
	}

	e.pendMu.Lock()
	e.pendingWrites = make(map[int64]struct{})
	e.pendingDeletes = make(map[int64]struct{})
	e.pendMu.Unlock()
}

func (e *Engine) markPendingWrite(id int64) {
	e.pendMu.Lock()
	e.pendingWrites[id] = struct{}{}
	e.pendMu.Unlock()
}

func (e *Engine) markPendingDelete(id int64) {
	e.pendMu.Lock()
	e.pendingDeletes[id] = struct{}{}
	e.pendMu.Unlock()
}

// ensureLoaded rebuilds the merged view if no load has happened yet, so
// mutations observe baseline membership and the current max id.
func (e *Engine) ensureLoaded(ctx context.Context) error {
	e.mu.RLock()
	loaded := e.loaded
	e.mu.RUnlock()
	if loaded {
		return nil
	}
	_, err := e.rebuild(ctx)
	return err
}
