package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/codedlook/storefront/internal/domain"
)

// OrdersService is the checkout/history surface the handler consumes.
type OrdersService interface {
	Checkout(ctx context.Context, couponCode, cardNumber string) (*domain.Order, error)
	History(ctx context.Context) ([]domain.Order, error)
	ClearAll(ctx context.Context) error
}

type OrdersHandler struct {
	orders  OrdersService
	timeout time.Duration
}

func NewOrdersHandler(orders OrdersService, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{orders: orders, timeout: timeout}
}

type checkoutRequest struct {
	CouponCode string `json:"coupon_code"`
	CardNumber string `json:"card_number"`
}

func (h *OrdersHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	order, err := h.orders.Checkout(ctx, req.CouponCode, req.CardNumber)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, order)
}

type historyResponse struct {
	Orders []domain.Order `json:"orders"`
}

func (h *OrdersHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	history, err := h.orders.History(ctx)
	if err != nil {
		respondError(w, err)
		return
	}
	if history == nil {
		history = []domain.Order{}
	}
	respondJSON(w, http.StatusOK, historyResponse{Orders: history})
}

// ClearAll wipes the order history. The confirm=true query parameter is
// required; this is the only destructive order operation.
func (h *OrdersHandler) ClearAll(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("confirm") != "true" {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "bulk delete requires confirm=true"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.orders.ClearAll(ctx); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
