package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// CartService is the cart surface the handler consumes.
type CartService interface {
	Add(ctx context.Context, productID int64) error
	ChangeQuantity(ctx context.Context, productID int64, delta int) error
	Remove(ctx context.Context, productID int64) error
	Items(ctx context.Context) (map[int64]int, error)
	Total(ctx context.Context) (int64, error)
	ToggleWishlist(ctx context.Context, productID int64) (bool, error)
	Wishlist(ctx context.Context) ([]int64, error)
}

type CartHandler struct {
	cart    CartService
	timeout time.Duration
}

func NewCartHandler(cart CartService, timeout time.Duration) *CartHandler {
	return &CartHandler{cart: cart, timeout: timeout}
}

type cartResponse struct {
	Items map[int64]int `json:"items"`
	Total int64         `json:"total"`
}

func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	items, err := h.cart.Items(ctx)
	if err != nil {
		respondError(w, err)
		return
	}
	total, err := h.cart.Total(ctx)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, cartResponse{Items: items, Total: total})
}

type addItemRequest struct {
	ProductID int64 `json:"product_id"`
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.cart.Add(ctx, req.ProductID); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type quantityRequest struct {
	Delta int `json:"delta"`
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "product_id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid product id"})
		return
	}

	var req quantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.cart.ChangeQuantity(ctx, id, req.Delta); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "product_id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid product id"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.cart.Remove(ctx, id); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type wishlistResponse struct {
	IDs []int64 `json:"ids"`
}

func (h *CartHandler) GetWishlist(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	ids, err := h.cart.Wishlist(ctx)
	if err != nil {
		respondError(w, err)
		return
	}
	if ids == nil {
		ids = []int64{}
	}
	respondJSON(w, http.StatusOK, wishlistResponse{IDs: ids})
}

type toggleResponse struct {
	Wished bool `json:"wished"`
}

func (h *CartHandler) ToggleWishlist(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "product_id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid product id"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	wished, err := h.cart.ToggleWishlist(ctx, id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toggleResponse{Wished: wished})
}
