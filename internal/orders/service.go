package orders

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/codedlook/storefront/internal/domain"
	"github.com/codedlook/storefront/internal/store"
)

const taxRatePercent = 10

var (
	ErrEmptyCart     = errors.New("cart is empty")
	ErrStockLimit    = errors.New("stock limit reached")
	ErrInvalidCoupon = errors.New("unknown coupon code")
)

// CatalogView resolves products against the current merged catalog.
type CatalogView interface {
	Product(id int64) (domain.Product, bool)
}

// Gate is the engine's single-mutation-in-flight guard. Checkout mutates
// the same state as product operations and shares it.
type Gate interface {
	TryAcquire() error
	Release()
}

// RemoteStore mirrors local state outward, whole document at a time.
type RemoteStore interface {
	Replace(ctx context.Context, doc *domain.Document) error
}

// Service records completed checkouts. History is append-only and most
// recent first; remote pushes are best-effort and never roll back a
// locally recorded order.
type Service struct {
	store   store.Store
	catalog CatalogView
	remote  RemoteStore
	gate    Gate
}

func NewService(s store.Store, catalog CatalogView, remote RemoteStore, gate Gate) *Service {
	return &Service{
		store:   s,
		catalog: catalog,
		remote:  remote,
		gate:    gate,
	}
}

// Checkout snapshots the cart into an immutable order, clears the cart
// and mirrors the new history to the remote store.
func (s *Service) Checkout(ctx context.Context, couponCode, cardNumber string) (*domain.Order, error) {
	if err := s.gate.TryAcquire(); err != nil {
		return nil, err
	}
	defer s.gate.Release()

	cart, err := s.store.Cart(ctx)
	if err != nil {
		return nil, fmt.Errorf("read cart: %w", err)
	}
	if len(cart) == 0 {
		return nil, ErrEmptyCart
	}

	ids := make([]int64, 0, len(cart))
	for id := range cart {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var items []domain.OrderItem
	var subtotal int64
	for _, id := range ids {
		product, ok := s.catalog.Product(id)
		if !ok {
			// Product disappeared since it was carted; drop the line.
			continue
		}
		quantity := cart[id]
		if quantity > product.Stock {
			return nil, fmt.Errorf("%w: %s has %d in stock, %d requested",
				ErrStockLimit, product.Name, product.Stock, quantity)
		}

		items = append(items, domain.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Price:     product.Price,
			Quantity:  quantity,
			ImageURL:  product.ImageURL,
		})
		subtotal += product.Price * int64(quantity)
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	order := domain.Order{
		ID:         fmt.Sprintf("ORD-%d", time.Now().UnixNano()),
		PlacedAt:   time.Now(),
		Items:      items,
		Subtotal:   subtotal,
		PaymentRef: maskPayment(cardNumber),
	}

	if couponCode != "" {
		coupon, ok := lookupCoupon(couponCode)
		if !ok {
			return nil, ErrInvalidCoupon
		}
		order.CouponCode = coupon.Code
		order.CouponName = coupon.Name
		order.Discount = coupon.discount(subtotal)
	}

	order.Tax = (subtotal - order.Discount) * taxRatePercent / 100
	order.Total = subtotal - order.Discount + order.Tax

	history, err := s.store.Orders(ctx)
	if err != nil {
		return nil, fmt.Errorf("read order history: %w", err)
	}
	history = append([]domain.Order{order}, history...)

	if err := s.store.SaveOrders(ctx, history); err != nil {
		return nil, fmt.Errorf("save order history: %w", err)
	}
	if err := s.store.SaveCart(ctx, map[int64]int{}); err != nil {
		return nil, fmt.Errorf("clear cart: %w", err)
	}

	s.pushHistory(ctx)
	return &order, nil
}

// History returns recorded orders, most recent first.
func (s *Service) History(ctx context.Context) ([]domain.Order, error) {
	return s.store.Orders(ctx)
}

// ClearAll wipes the order history locally and remotely. Callers confirm
// with the user before invoking this; there is no other way orders
// disappear.
func (s *Service) ClearAll(ctx context.Context) error {
	if err := s.store.SaveOrders(ctx, nil); err != nil {
		return fmt.Errorf("clear order history: %w", err)
	}
	s.pushHistory(ctx)
	return nil
}

// pushHistory mirrors the full local state to the remote document. The
// protocol is whole-document replace, so products and tombstones ride
// along with the orders.
func (s *Service) pushHistory(ctx context.Context) {
	products, err := s.store.Products(ctx)
	if err != nil {
		log.Printf("read products for push: %v", err)
		return
	}
	tombstones, err := s.store.Tombstones(ctx)
	if err != nil {
		log.Printf("read tombstones for push: %v", err)
		return
	}
	orders, err := s.store.Orders(ctx)
	if err != nil {
		log.Printf("read orders for push: %v", err)
		return
	}

	doc := &domain.Document{
		Products:        products,
		DeletedProducts: tombstones,
		Orders:          orders,
	}
	if err := s.remote.Replace(ctx, doc); err != nil {
		log.Printf("order history push failed, remote will catch up on next sync: %v", err)
	}
}

// maskPayment reduces a card number to its last four digits. Checkouts
// without a card get an opaque payment token instead.
func maskPayment(cardNumber string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, cardNumber)

	if len(digits) >= 4 {
		return "****-****-****-" + digits[len(digits)-4:]
	}
	return "tok-" + uuid.NewString()[:8]
}
