package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/codedlook/storefront/internal/cart"
)

type cartMock struct {
	items    map[int64]int
	total    int64
	wishlist []int64
	wished   bool
	err      error

	addedID   int64
	delta     int
	removedID int64
}

func (c *cartMock) Add(ctx context.Context, productID int64) error {
	c.addedID = productID
	return c.err
}

func (c *cartMock) ChangeQuantity(ctx context.Context, productID int64, delta int) error {
	c.delta = delta
	return c.err
}

func (c *cartMock) Remove(ctx context.Context, productID int64) error {
	c.removedID = productID
	return c.err
}

func (c *cartMock) Items(ctx context.Context) (map[int64]int, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.items, nil
}

func (c *cartMock) Total(ctx context.Context) (int64, error) {
	if c.err != nil {
		return 0, c.err
	}
	return c.total, nil
}

func (c *cartMock) ToggleWishlist(ctx context.Context, productID int64) (bool, error) {
	if c.err != nil {
		return false, c.err
	}
	return c.wished, nil
}

func (c *cartMock) Wishlist(ctx context.Context) ([]int64, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.wishlist, nil
}

func TestGetCart_Success(t *testing.T) {
	mock := &cartMock{items: map[int64]int{101: 2}, total: 50000}
	handler := NewCartHandler(mock, 5*time.Second)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("GET", "/cart", nil)

	handler.Get(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Errorf("Expected status code %d, got %d", http.StatusOK, recorder.Code)
	}

	var response cartResponse
	if err := json.NewDecoder(recorder.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response.Total != 50000 {
		t.Errorf("Expected total 50000, got %d", response.Total)
	}
	if response.Items[101] != 2 {
		t.Errorf("Expected quantity 2 for product 101, got %d", response.Items[101])
	}
}

func TestAddItem_Success(t *testing.T) {
	mock := &cartMock{}
	handler := NewCartHandler(mock, 5*time.Second)

	body, _ := json.Marshal(addItemRequest{ProductID: 101})
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("POST", "/cart/items", bytes.NewReader(body))

	handler.AddItem(recorder, request)

	if recorder.Code != http.StatusNoContent {
		t.Errorf("Expected status code %d, got %d", http.StatusNoContent, recorder.Code)
	}
	if mock.addedID != 101 {
		t.Errorf("Expected add of product 101, got %d", mock.addedID)
	}
}

func TestAddItem_StockLimit(t *testing.T) {
	handler := NewCartHandler(&cartMock{err: cart.ErrStockLimit}, 5*time.Second)

	body, _ := json.Marshal(addItemRequest{ProductID: 101})
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("POST", "/cart/items", bytes.NewReader(body))

	handler.AddItem(recorder, request)

	if recorder.Code != http.StatusConflict {
		t.Errorf("Expected status code %d, got %d", http.StatusConflict, recorder.Code)
	}
}

func TestAddItem_UnknownProduct(t *testing.T) {
	handler := NewCartHandler(&cartMock{err: cart.ErrUnknownProduct}, 5*time.Second)

	body, _ := json.Marshal(addItemRequest{ProductID: 999})
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("POST", "/cart/items", bytes.NewReader(body))

	handler.AddItem(recorder, request)

	if recorder.Code != http.StatusNotFound {
		t.Errorf("Expected status code %d, got %d", http.StatusNotFound, recorder.Code)
	}
}

func TestAddItem_InvalidJSON(t *testing.T) {
	handler := NewCartHandler(&cartMock{}, 5*time.Second)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("POST", "/cart/items", bytes.NewReader([]byte("nope")))

	handler.AddItem(recorder, request)

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("Expected status code %d, got %d", http.StatusBadRequest, recorder.Code)
	}
}

func TestUpdateQuantity_Success(t *testing.T) {
	mock := &cartMock{}
	handler := NewCartHandler(mock, 5*time.Second)

	body, _ := json.Marshal(quantityRequest{Delta: -1})
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("PATCH", "/cart/items/101", bytes.NewReader(body))
	request = withURLParam(request, "product_id", "101")

	handler.UpdateQuantity(recorder, request)

	if recorder.Code != http.StatusNoContent {
		t.Errorf("Expected status code %d, got %d", http.StatusNoContent, recorder.Code)
	}
	if mock.delta != -1 {
		t.Errorf("Expected delta -1, got %d", mock.delta)
	}
}

func TestUpdateQuantity_InvalidProductID(t *testing.T) {
	handler := NewCartHandler(&cartMock{}, 5*time.Second)

	body, _ := json.Marshal(quantityRequest{Delta: 1})
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("PATCH", "/cart/items/abc", bytes.NewReader(body))
	request = withURLParam(request, "product_id", "abc")

	handler.UpdateQuantity(recorder, request)

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("Expected status code %d, got %d", http.StatusBadRequest, recorder.Code)
	}
}

func TestRemoveItem_Success(t *testing.T) {
	mock := &cartMock{}
	handler := NewCartHandler(mock, 5*time.Second)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("DELETE", "/cart/items/101", nil)
	request = withURLParam(request, "product_id", "101")

	handler.RemoveItem(recorder, request)

	if recorder.Code != http.StatusNoContent {
		t.Errorf("Expected status code %d, got %d", http.StatusNoContent, recorder.Code)
	}
	if mock.removedID != 101 {
		t.Errorf("Expected removal of product 101, got %d", mock.removedID)
	}
}

func TestGetWishlist_EmptyIsArrayNotNull(t *testing.T) {
	handler := NewCartHandler(&cartMock{}, 5*time.Second)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("GET", "/wishlist", nil)

	handler.GetWishlist(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Errorf("Expected status code %d, got %d", http.StatusOK, recorder.Code)
	}
	if !bytes.Contains(recorder.Body.Bytes(), []byte(`"ids":[]`)) {
		t.Errorf("Expected empty array in body, got %s", recorder.Body.String())
	}
}

func TestToggleWishlist_Success(t *testing.T) {
	handler := NewCartHandler(&cartMock{wished: true}, 5*time.Second)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("POST", "/wishlist/101", nil)
	request = withURLParam(request, "product_id", "101")

	handler.ToggleWishlist(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Errorf("Expected status code %d, got %d", http.StatusOK, recorder.Code)
	}

	var response toggleResponse
	if err := json.NewDecoder(recorder.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !response.Wished {
		t.Error("Expected wished=true after toggle")
	}
}
