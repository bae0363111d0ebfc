package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/codedlook/storefront/internal/catalog"
	"github.com/codedlook/storefront/internal/domain"
)

// CatalogEngine is the engine surface the handler consumes.
type CatalogEngine interface {
	LoadCatalog(ctx context.Context) ([]domain.Product, error)
	Products(ctx context.Context) []domain.Product
	FilterByCategory(ctx context.Context, category string) []domain.Product
	Search(ctx context.Context, keyword string) []domain.Product
	CreateProduct(ctx context.Context, in catalog.ProductInput) (domain.Product, error)
	UpdateProduct(ctx context.Context, id int64, in catalog.ProductInput) (domain.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
}

type CatalogHandler struct {
	engine  CatalogEngine
	timeout time.Duration
}

func NewCatalogHandler(engine CatalogEngine, timeout time.Duration) *CatalogHandler {
	return &CatalogHandler{engine: engine, timeout: timeout}
}

type productRequest struct {
	Name     string `json:"name"`
	Price    string `json:"price"`
	Category string `json:"category"`
	Stock    string `json:"stock"`
	Tags     string `json:"tags"`
	Image    string `json:"image"`
}

func (r productRequest) input() catalog.ProductInput {
	return catalog.ProductInput{
		Name:     r.Name,
		Price:    r.Price,
		Category: r.Category,
		Stock:    r.Stock,
		Tags:     r.Tags,
		Image:    r.Image,
	}
}

type productsResponse struct {
	Products []domain.Product `json:"products"`
}

// List serves the merged catalog, optionally filtered by category or
// keyword and sorted.
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var products []domain.Product
	if keyword := r.URL.Query().Get("q"); keyword != "" {
		products = h.engine.Search(ctx, keyword)
	} else {
		products = h.engine.FilterByCategory(ctx, r.URL.Query().Get("category"))
	}

	if option := r.URL.Query().Get("sort"); option != "" {
		products = catalog.SortBy(products, option)
	}
	if products == nil {
		products = []domain.Product{}
	}

	respondJSON(w, http.StatusOK, productsResponse{Products: products})
}

// Refresh forces a reload from the remote document.
func (h *CatalogHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	products, err := h.engine.LoadCatalog(ctx)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, productsResponse{Products: products})
}

func (h *CatalogHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	product, err := h.engine.CreateProduct(ctx, req.input())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, product)
}

func (h *CatalogHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid product id"})
		return
	}

	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	product, err := h.engine.UpdateProduct(ctx, id, req.input())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

func (h *CatalogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid product id"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.engine.DeleteProduct(ctx, id); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseID(raw string) (int64, error) {
	return strconv.ParseInt(raw, 10, 64)
}
