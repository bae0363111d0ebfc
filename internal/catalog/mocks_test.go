package catalog

import (
	"context"
	"sync"

	"github.com/codedlook/storefront/internal/cache"
	"github.com/codedlook/storefront/internal/domain"
)

type memStore struct {
	mu         sync.Mutex
	products   []domain.Product
	tombstones []int64
	wishlist   []int64
	cart       map[int64]int
	orders     []domain.Order
	err        error
}

func newMemStore() *memStore {
	return &memStore{cart: make(map[int64]int)}
}

func (m *memStore) Products(context.Context) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return append([]domain.Product(nil), m.products...), nil
}

func (m *memStore) SaveProducts(_ context.Context, products []domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.products = append([]domain.Product(nil), products...)
	return nil
}

func (m *memStore) Tombstones(context.Context) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return append([]int64(nil), m.tombstones...), nil
}

func (m *memStore) SaveTombstones(_ context.Context, ids []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.tombstones = append([]int64(nil), ids...)
	return nil
}

func (m *memStore) Wishlist(context.Context) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int64(nil), m.wishlist...), nil
}

func (m *memStore) SaveWishlist(_ context.Context, ids []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wishlist = append([]int64(nil), ids...)
	return nil
}

func (m *memStore) Cart(context.Context) (map[int64]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := make(map[int64]int, len(m.cart))
	for k, v := range m.cart {
		items[k] = v
	}
	return items, nil
}

func (m *memStore) SaveCart(_ context.Context, items map[int64]int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cart = make(map[int64]int, len(items))
	for k, v := range items {
		m.cart[k] = v
	}
	return nil
}

func (m *memStore) Orders(context.Context) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Order(nil), m.orders...), nil
}

func (m *memStore) SaveOrders(_ context.Context, orders []domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders = append([]domain.Order(nil), orders...)
	return nil
}

func (m *memStore) Close() error { return nil }

type mockBaseline struct {
	products []domain.Product
	err      error
}

func (m *mockBaseline) Load(context.Context) ([]domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	return append([]domain.Product(nil), m.products...), nil
}

type mockRemote struct {
	mu         sync.Mutex
	doc        *domain.Document
	pullErr    error
	replaceErr error
	pulls      int
	replaces   int
}

func (m *mockRemote) Pull(context.Context) (*domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pulls++
	if m.pullErr != nil {
		return nil, m.pullErr
	}
	if m.doc == nil {
		return &domain.Document{}, nil
	}
	copied := *m.doc
	return &copied, nil
}

func (m *mockRemote) Replace(_ context.Context, doc *domain.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replaces++
	if m.replaceErr != nil {
		return m.replaceErr
	}
	copied := *doc
	m.doc = &copied
	return nil
}

func (m *mockRemote) lastDoc() *domain.Document {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.doc
}

// blockingStore parks the first armed SaveProducts call until released,
// so a test can hold a write mid-flight and probe what runs alongside it.
type blockingStore struct {
	*memStore
	armMu   sync.Mutex
	armed   bool
	entered chan struct{}
	release chan struct{}
}

func newBlockingStore() *blockingStore {
	return &blockingStore{
		memStore: newMemStore(),
		entered:  make(chan struct{}),
		release:  make(chan struct{}),
	}
}

func (b *blockingStore) arm() {
	b.armMu.Lock()
	b.armed = true
	b.armMu.Unlock()
}

func (b *blockingStore) SaveProducts(ctx context.Context, products []domain.Product) error {
	b.armMu.Lock()
	fire := b.armed
	b.armed = false
	b.armMu.Unlock()

	if fire {
		close(b.entered)
		<-b.release
	}
	return b.memStore.SaveProducts(ctx, products)
}

type mockCache struct {
	mu       sync.Mutex
	products []domain.Product
	sets     int
	dels     int
}

func (m *mockCache) Get(context.Context) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.products == nil {
		return nil, cache.ErrCacheMiss
	}
	return append([]domain.Product(nil), m.products...), nil
}

func (m *mockCache) Set(_ context.Context, products []domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	m.products = append([]domain.Product(nil), products...)
	return nil
}

func (m *mockCache) Delete(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dels++
	m.products = nil
	return nil
}

func (m *mockCache) deletes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dels
}
