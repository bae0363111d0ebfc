package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/codedlook/storefront/internal/cart"
	"github.com/codedlook/storefront/internal/catalog"
	"github.com/codedlook/storefront/internal/orders"
)

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

// respondError maps service errors onto HTTP statuses. The message always
// names what failed; no error escapes uncaught.
func respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, catalog.ErrProductNotFound),
		errors.Is(err, cart.ErrUnknownProduct):
		status = http.StatusNotFound
	case errors.Is(err, catalog.ErrBusy),
		errors.Is(err, cart.ErrStockLimit),
		errors.Is(err, orders.ErrStockLimit):
		status = http.StatusConflict
	case errors.Is(err, catalog.ErrInvalidInput),
		errors.Is(err, orders.ErrInvalidCoupon),
		errors.Is(err, orders.ErrEmptyCart):
		status = http.StatusBadRequest
	}

	respondJSON(w, status, errorResponse{Error: err.Error()})
}
