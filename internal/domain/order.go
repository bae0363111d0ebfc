package domain

import "time"

// OrderItem captures a purchased line at checkout time. Fields are copied
// from the product so later catalog edits do not rewrite history.
type OrderItem struct {
	ProductID int64  `json:"productId"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
	ImageURL  string `json:"imageUrl"`
}

// Order is an immutable checkout snapshot.
type Order struct {
	ID         string      `json:"id"`
	PlacedAt   time.Time   `json:"placedAt"`
	Items      []OrderItem `json:"items"`
	Subtotal   int64       `json:"subtotal"`
	CouponCode string      `json:"couponCode,omitempty"`
	CouponName string      `json:"couponName,omitempty"`
	Discount   int64       `json:"discount"`
	Tax        int64       `json:"tax"`
	Total      int64       `json:"total"`
	PaymentRef string      `json:"paymentRef"`
}
