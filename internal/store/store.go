package store

import (
	"context"
	"errors"

	"github.com/codedlook/storefront/internal/domain"
)

// Storage keys, one JSON-encoded value each. The names are kept from the
// original deployment so an exported dump stays readable.
const (
	keyProducts = "codedlookProducts"
	keyWishlist = "codedlookWishlist"
	keyCart     = "codedlookCart"
	keyDeleted  = "codedlookDeleted"
	keyOrders   = "codedlookOrders"
)

var ErrNotFound = errors.New("key not found")

// Store is the per-device override storage: seller additions and edits,
// wishlist, cart, deletion tombstones and order history. It is owned
// exclusively by the process running the engine.
type Store interface {
	// Products returns seller-added or edited products.
	Products(ctx context.Context) ([]domain.Product, error)
	SaveProducts(ctx context.Context, products []domain.Product) error

	// Tombstones returns ids of deleted baseline products.
	Tombstones(ctx context.Context) ([]int64, error)
	SaveTombstones(ctx context.Context, ids []int64) error

	Wishlist(ctx context.Context) ([]int64, error)
	SaveWishlist(ctx context.Context, ids []int64) error

	// Cart maps product id to requested quantity.
	Cart(ctx context.Context) (map[int64]int, error)
	SaveCart(ctx context.Context, items map[int64]int) error

	// Orders returns the order history, most recent first.
	Orders(ctx context.Context) ([]domain.Order, error)
	SaveOrders(ctx context.Context, orders []domain.Order) error

	Close() error
}
