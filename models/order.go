package models

import "time"

// Order statuses. Transitions are enforced by the orders package.
const (
	OrderPending    = "pending"
	OrderProcessing = "processing"
	OrderShipped    = "shipped"
	OrderDelivered  = "delivered"
	OrderCancelled  = "cancelled"
)

// OrderItem is a denormalized snapshot of a cart line at purchase time.
// Title, price and image are copied so later product edits never alter
// historical orders.
type OrderItem struct {
	ProductID string  `json:"product" bson:"product"`
	Title     string  `json:"title" bson:"title"`
	Quantity  int     `json:"qty" bson:"qty"`
	Price     float64 `json:"price" bson:"price"`
	Image     string  `json:"image,omitempty" bson:"image,omitempty"`
}

type ShippingAddress struct {
	Address    string `json:"address" bson:"address"`
	City       string `json:"city" bson:"city"`
	PostalCode string `json:"postalCode" bson:"postalCode"`
	Country    string `json:"country" bson:"country"`
}

// PaymentResult mirrors what the gateway reported for this order.
type PaymentResult struct {
	ID           string `json:"id" bson:"id"` // gateway order reference
	Status       string `json:"status" bson:"status"`
	UpdateTime   string `json:"update_time,omitempty" bson:"update_time,omitempty"`
	EmailAddress string `json:"email_address,omitempty" bson:"email_address,omitempty"`
	PaymentID    string `json:"paymentId,omitempty" bson:"paymentId,omitempty"`
}

// Order is the central entity of the checkout pipeline. totalPrice is
// computed once at creation (discount absorbed) and never recomputed.
type Order struct {
	OrderID         string          `json:"orderId" bson:"orderId"`
	UserID          string          `json:"userId" bson:"userId"`
	Items           []OrderItem     `json:"orderItems" bson:"orderItems"`
	ShippingAddress ShippingAddress `json:"shippingAddress" bson:"shippingAddress"`
	PaymentMethod   string          `json:"paymentMethod" bson:"paymentMethod"`
	CouponCode      string          `json:"couponCode,omitempty" bson:"couponCode,omitempty"`
	ItemsPrice      float64         `json:"itemsPrice" bson:"itemsPrice"`
	TaxPrice        float64         `json:"taxPrice" bson:"taxPrice"`
	ShippingPrice   float64         `json:"shippingPrice" bson:"shippingPrice"`
	Discount        float64         `json:"discount" bson:"discount"`
	TotalPrice      float64         `json:"totalPrice" bson:"totalPrice"`
	IsPaid          bool            `json:"isPaid" bson:"isPaid"`
	PaidAt          *time.Time      `json:"paidAt,omitempty" bson:"paidAt,omitempty"`
	PaymentResult   PaymentResult   `json:"paymentResult" bson:"paymentResult"`
	Status          string          `json:"status" bson:"status"`
	IsDelivered     bool            `json:"isDelivered" bson:"isDelivered"`
	DeliveredAt     *time.Time      `json:"deliveredAt,omitempty" bson:"deliveredAt,omitempty"`
	CreatedAt       time.Time       `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt" bson:"updatedAt"`
}
