package cart

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/codedlook/storefront/internal/domain"
	"github.com/codedlook/storefront/internal/store"
)

var (
	ErrStockLimit     = errors.New("stock limit reached")
	ErrUnknownProduct = errors.New("product not in catalog")
)

// CatalogView resolves products against the current merged catalog.
type CatalogView interface {
	Product(id int64) (domain.Product, bool)
}

// Service owns the cart quantity map and the wishlist id set. Both live
// in the local override store; neither is mirrored to the remote.
type Service struct {
	store   store.Store
	catalog CatalogView
}

func NewService(s store.Store, catalog CatalogView) *Service {
	return &Service{store: s, catalog: catalog}
}

// Add puts one unit of the product into the cart. The quantity can never
// exceed the current stock.
func (s *Service) Add(ctx context.Context, productID int64) error {
	return s.ChangeQuantity(ctx, productID, 1)
}

// ChangeQuantity adjusts the carted quantity by delta. Dropping to zero
// or below removes the line.
func (s *Service) ChangeQuantity(ctx context.Context, productID int64, delta int) error {
	product, ok := s.catalog.Product(productID)
	if !ok {
		return fmt.Errorf("%w: id %d", ErrUnknownProduct, productID)
	}

	items, err := s.store.Cart(ctx)
	if err != nil {
		return fmt.Errorf("read cart: %w", err)
	}

	quantity := items[productID] + delta
	if quantity <= 0 {
		delete(items, productID)
		return s.store.SaveCart(ctx, items)
	}
	if quantity > product.Stock {
		return fmt.Errorf("%w: %s has %d in stock", ErrStockLimit, product.Name, product.Stock)
	}

	items[productID] = quantity
	return s.store.SaveCart(ctx, items)
}

// Remove drops the product from the cart entirely.
func (s *Service) Remove(ctx context.Context, productID int64) error {
	items, err := s.store.Cart(ctx)
	if err != nil {
		return fmt.Errorf("read cart: %w", err)
	}

	delete(items, productID)
	return s.store.SaveCart(ctx, items)
}

// Items returns the quantity map.
func (s *Service) Items(ctx context.Context) (map[int64]int, error) {
	return s.store.Cart(ctx)
}

// Total prices the cart against the current catalog. Lines whose product
// is no longer in the merged view are skipped.
func (s *Service) Total(ctx context.Context) (int64, error) {
	items, err := s.store.Cart(ctx)
	if err != nil {
		return 0, fmt.Errorf("read cart: %w", err)
	}

	var total int64
	for id, quantity := range items {
		product, ok := s.catalog.Product(id)
		if !ok {
			continue
		}
		total += product.Price * int64(quantity)
	}
	return total, nil
}

// ToggleWishlist adds the id to the wishlist, or removes it when already
// present. Returns whether the product is wished after the call.
func (s *Service) ToggleWishlist(ctx context.Context, productID int64) (bool, error) {
	if _, ok := s.catalog.Product(productID); !ok {
		return false, fmt.Errorf("%w: id %d", ErrUnknownProduct, productID)
	}

	ids, err := s.store.Wishlist(ctx)
	if err != nil {
		return false, fmt.Errorf("read wishlist: %w", err)
	}

	kept := make([]int64, 0, len(ids)+1)
	removed := false
	for _, id := range ids {
		if id == productID {
			removed = true
			continue
		}
		kept = append(kept, id)
	}
	if !removed {
		kept = append(kept, productID)
	}

	if err := s.store.SaveWishlist(ctx, kept); err != nil {
		return false, err
	}
	return !removed, nil
}

// Wishlist returns wished ids, opportunistically pruning ids that no
// longer resolve in the merged catalog.
func (s *Service) Wishlist(ctx context.Context) ([]int64, error) {
	ids, err := s.store.Wishlist(ctx)
	if err != nil {
		return nil, fmt.Errorf("read wishlist: %w", err)
	}

	kept := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := s.catalog.Product(id); ok {
			kept = append(kept, id)
		}
	}

	if len(kept) != len(ids) {
		if err := s.store.SaveWishlist(ctx, kept); err != nil {
			log.Printf("prune wishlist: %v", err)
		}
	}
	return kept, nil
}
