package coupons

import (
	"context"
	"errors"
	"strings"
	"time"

	"scentiva/models"
	"scentiva/pricing"
)

// Failure kinds surfaced to the client, each with its own message.
var (
	ErrNotFound     = errors.New("coupon not found or inactive")
	ErrExpired      = errors.New("coupon has expired")
	ErrAlreadyUsed  = errors.New("coupon already used")
	ErrEmptyCart    = errors.New("cart is empty")
	ErrBelowMinimum = errors.New("cart total below coupon minimum")
)

// CouponStore looks up active coupons by normalized code.
type CouponStore interface {
	FindActiveByCode(ctx context.Context, code string) (*models.Coupon, error)
}

// OrderLookup answers whether a user already placed an order carrying a
// coupon code. Redemption is enforced by querying orders, not a separate
// redemption ledger.
type OrderLookup interface {
	UserHasOrderWithCoupon(ctx context.Context, userID, code string) (bool, error)
}

// CartSnapshot resolves a user's live cart into priced line items.
type CartSnapshot interface {
	Snapshot(ctx context.Context, userID string) ([]models.CartItem, error)
}

// Evaluator computes discount previews without mutating anything. The
// same evaluation runs again at order creation, so the preview is trusted
// as a code, never as an amount.
type Evaluator struct {
	Coupons CouponStore
	Orders  OrderLookup
	Cart    CartSnapshot
	Now     func() time.Time
}

func NewEvaluator(coupons CouponStore, orders OrderLookup, cart CartSnapshot) *Evaluator {
	return &Evaluator{Coupons: coupons, Orders: orders, Cart: cart, Now: time.Now}
}

// NormalizeCode uppercases and trims a user-supplied coupon code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Preview validates the code against the user's current cart and returns
// the discount it would yield. Pure read; safe to retry.
func (e *Evaluator) Preview(ctx context.Context, code, userID string) (*models.CouponPreview, error) {
	coupon, err := e.Coupons.FindActiveByCode(ctx, NormalizeCode(code))
	if err != nil {
		return nil, err
	}

	if !coupon.ExpiresAt.IsZero() && coupon.ExpiresAt.Before(e.Now()) {
		return nil, ErrExpired
	}

	used, err := e.Orders.UserHasOrderWithCoupon(ctx, userID, coupon.Code)
	if err != nil {
		return nil, err
	}
	if used {
		return nil, ErrAlreadyUsed
	}

	items, err := e.Cart.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	itemsPrice := pricing.ItemsPrice(items)
	if itemsPrice < coupon.MinOrderValue {
		return nil, ErrBelowMinimum
	}

	base := pricing.ComputeTotals(items, 0)
	discount := pricing.Discount(itemsPrice, coupon.DiscountPercent, coupon.MaxDiscount)
	after := pricing.ComputeTotals(items, discount)

	return &models.CouponPreview{
		Code:               coupon.Code,
		DiscountPercent:    coupon.DiscountPercent,
		MaxDiscount:        coupon.MaxDiscount,
		MinOrderValue:      coupon.MinOrderValue,
		ItemsPrice:         base.ItemsPrice,
		TaxPrice:           base.TaxPrice,
		ShippingPrice:      base.ShippingPrice,
		BaseTotal:          base.TotalPrice,
		Discount:           discount,
		TotalAfterDiscount: after.TotalPrice,
	}, nil
}
