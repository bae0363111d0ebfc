package catalog

import (
	"context"
	"errors"
	"log"
	"sort"
	"strings"

	"github.com/codedlook/storefront/internal/cache"
	"github.com/codedlook/storefront/internal/domain"
)

// Products returns the current merged catalog. Before the first load
// completes a warm cache snapshot is served if one exists.
func (e *Engine) Products(ctx context.Context) []domain.Product {
	e.mu.RLock()
	loaded := e.loaded
	snapshot := e.snapshot
	e.mu.RUnlock()

	if loaded {
		return copyProducts(snapshot)
	}

	if e.cache != nil {
		cached, err := e.cache.Get(ctx)
		if err == nil {
			return cached
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Printf("catalog cache get error: %v", err)
		}
	}

	return nil
}

// Product resolves a single id against the merged catalog.
func (e *Engine) Product(id int64) (domain.Product, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	p, ok := e.byID[id]
	return p, ok
}

// FilterByCategory returns the snapshot entries with the given category
// tag; "All" returns everything.
func (e *Engine) FilterByCategory(ctx context.Context, category string) []domain.Product {
	products := e.Products(ctx)
	if category == "" || category == "All" {
		return products
	}

	filtered := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if p.Category == category {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

// Search matches the keyword against product names and tags.
func (e *Engine) Search(ctx context.Context, keyword string) []domain.Product {
	products := e.Products(ctx)
	if strings.TrimSpace(keyword) == "" {
		return products
	}

	results := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if p.MatchesKeyword(keyword) {
			results = append(results, p)
		}
	}
	return results
}

// Sort options for SortBy.
const (
	SortDefault   = "default"
	SortPriceAsc  = "price-asc"
	SortPriceDesc = "price-desc"
	SortNameAsc   = "name-asc"
)

// SortBy returns a sorted copy of the products; unknown options return
// the input order unchanged.
func SortBy(products []domain.Product, option string) []domain.Product {
	sorted := copyProducts(products)
	switch option {
	case SortPriceAsc:
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Price < sorted[j].Price })
	case SortPriceDesc:
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Price > sorted[j].Price })
	case SortNameAsc:
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	}
	return sorted
}

func copyProducts(products []domain.Product) []domain.Product {
	out := make([]domain.Product, len(products))
	copy(out, products)
	return out
}
