// Package pricing is the single source of truth for cart arithmetic.
// Coupon preview, payment-order creation and order placement all derive
// their numbers here so they can never diverge.
package pricing

import (
	"scentiva/models"
	"scentiva/utils"
)

const (
	taxRate           = 0.05
	freeShippingAbove = 500.0
	flatShipping      = 50.0
)

// ItemsPrice sums unit price times quantity across the cart lines.
func ItemsPrice(items []models.CartItem) float64 {
	var sum float64
	for _, it := range items {
		sum += it.Price * float64(it.Quantity)
	}
	return utils.Round2(sum)
}

// ComputeTotals derives subtotal, tax, shipping and grand total from the
// cart lines and an already-resolved absolute discount. Shipping is free
// above the threshold and for empty carts; the total is floored at zero.
func ComputeTotals(items []models.CartItem, discount float64) models.Totals {
	itemsPrice := ItemsPrice(items)

	taxPrice := utils.Round2(itemsPrice * taxRate)

	shippingPrice := flatShipping
	if itemsPrice > freeShippingAbove || itemsPrice == 0 {
		shippingPrice = 0
	}

	totalPrice := utils.Round2(itemsPrice + taxPrice + shippingPrice - discount)
	if totalPrice < 0 {
		totalPrice = 0
	}

	return models.Totals{
		ItemsPrice:    itemsPrice,
		TaxPrice:      taxPrice,
		ShippingPrice: shippingPrice,
		TotalPrice:    totalPrice,
	}
}

// Discount resolves the absolute discount a coupon yields on the given
// subtotal: percent of itemsPrice, capped when the coupon carries a cap.
func Discount(itemsPrice, discountPercent, maxDiscount float64) float64 {
	d := itemsPrice * discountPercent / 100
	if maxDiscount > 0 && d > maxDiscount {
		d = maxDiscount
	}
	return utils.Round2(d)
}
