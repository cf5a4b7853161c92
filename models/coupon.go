package models

import "time"

// Coupon is a percentage discount code. Codes are stored uppercase and
// matched case-insensitively by normalizing the lookup.
type Coupon struct {
	CouponID        string    `json:"couponId" bson:"couponId"`
	Code            string    `json:"code" bson:"code"`
	DiscountPercent float64   `json:"discountPercent" bson:"discountPercent"` // 1-90
	MaxDiscount     float64   `json:"maxDiscount" bson:"maxDiscount"` // 0 = uncapped
	MinOrderValue   float64   `json:"minOrderValue" bson:"minOrderValue"`
	ExpiresAt       time.Time `json:"expiresAt,omitempty" bson:"expiresAt,omitempty"`
	Active          bool      `json:"isActive" bson:"isActive"`
	CreatedAt       time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt" bson:"updatedAt"`
}

// PublicCoupon is the safe subset exposed on the unauthenticated listing.
type PublicCoupon struct {
	Code            string    `json:"code" bson:"code"`
	DiscountPercent float64   `json:"discountPercent" bson:"discountPercent"`
	MaxDiscount     float64   `json:"maxDiscount" bson:"maxDiscount"`
	MinOrderValue   float64   `json:"minOrderValue" bson:"minOrderValue"`
	ExpiresAt       time.Time `json:"expiresAt,omitempty" bson:"expiresAt,omitempty"`
}

// CouponPreview is the non-mutating result of applying a code to the
// caller's current cart. Nothing is redeemed until an order is placed.
type CouponPreview struct {
	Code               string  `json:"code"`
	DiscountPercent    float64 `json:"discountPercent"`
	MaxDiscount        float64 `json:"maxDiscount"`
	MinOrderValue      float64 `json:"minOrderValue"`
	ItemsPrice         float64 `json:"itemsPrice"`
	TaxPrice           float64 `json:"taxPrice"`
	ShippingPrice      float64 `json:"shippingPrice"`
	BaseTotal          float64 `json:"baseTotal"`
	Discount           float64 `json:"discount"`
	TotalAfterDiscount float64 `json:"totalAfterDiscount"`
}
