package models

import "time"

// CartItem represents a single line in the user's cart. The unit price is
// captured when the item is added, not looked up live, so totals stay stable
// between coupon preview and order placement.
type CartItem struct {
	UserID    string    `json:"userId" bson:"userId"`
	ProductID string    `json:"productId" bson:"productId"`
	Title     string    `json:"title" bson:"title"`
	Image     string    `json:"image,omitempty" bson:"image,omitempty"`
	Quantity  int       `json:"quantity" bson:"quantity"`
	Price     float64   `json:"price" bson:"price"` // unit price at add time
	AddedAt   time.Time `json:"addedAt" bson:"addedAt"`
}

// Totals is the priced breakdown of a cart, shared by preview, order
// creation and order placement so the three never disagree.
type Totals struct {
	ItemsPrice    float64 `json:"itemsPrice" bson:"itemsPrice"`
	TaxPrice      float64 `json:"taxPrice" bson:"taxPrice"`
	ShippingPrice float64 `json:"shippingPrice" bson:"shippingPrice"`
	TotalPrice    float64 `json:"totalPrice" bson:"totalPrice"`
}
