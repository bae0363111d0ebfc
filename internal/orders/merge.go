package orders

import "github.com/codedlook/storefront/internal/domain"

// Merge unions two order histories by order id. Local entries keep their
// position, remote-only entries are appended. Merging never drops an
// order; the only way history shrinks is an explicit bulk delete.
func Merge(local, remote []domain.Order) []domain.Order {
	merged := make([]domain.Order, 0, len(local)+len(remote))
	seen := make(map[string]struct{}, len(local))

	for _, o := range local {
		if _, dup := seen[o.ID]; dup {
			continue
		}
		seen[o.ID] = struct{}{}
		merged = append(merged, o)
	}
	for _, o := range remote {
		if _, dup := seen[o.ID]; dup {
			continue
		}
		seen[o.ID] = struct{}{}
		merged = append(merged, o)
	}

	return merged
}
