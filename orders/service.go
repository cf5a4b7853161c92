package orders

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"scentiva/models"
	"scentiva/mq"
	"scentiva/pricing"
	"scentiva/razorpay"
	"scentiva/utils"

	"github.com/google/uuid"
)

var (
	ErrEmptyCart          = errors.New("cart is empty")
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrMissingFields      = errors.New("missing payment verification fields")
	ErrInvalidSignature   = errors.New("invalid payment signature")
	ErrNotFound           = errors.New("order not found")
	ErrGatewayMismatch    = errors.New("gateway order reference mismatch")
	ErrInvalidTransition  = errors.New("invalid status transition")
)

const currency = "INR"

// Gateway is the payment provider the service charges through.
type Gateway interface {
	CreateOrder(ctx context.Context, amountPaise int64, currency, receipt string) (*razorpay.GatewayOrder, error)
	VerifySignature(orderID, paymentID, signature string) bool
}

// Store persists orders. MarkPaid must be a conditional write on
// isPaid=false so a second verification of the same order is a no-op.
type Store interface {
	Insert(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, orderID string) (*models.Order, error)
	MarkPaid(ctx context.Context, orderID, paymentID string, at time.Time) (bool, error)
	SetStatus(ctx context.Context, orderID, status string, delivered *time.Time) (*models.Order, error)
}

// CartStore resolves and clears the user's cart.
type CartStore interface {
	Snapshot(ctx context.Context, userID string) ([]models.CartItem, error)
	Clear(ctx context.Context, userID string) error
}

// CouponResolver re-runs the same evaluation the preview endpoint uses,
// so the charged amount can never diverge from the previewed one.
type CouponResolver interface {
	Preview(ctx context.Context, code, userID string) (*models.CouponPreview, error)
}

// StockAdjuster decrements product stock, floored at zero.
type StockAdjuster func(ctx context.Context, productID string, qty int) error

// Users resolves notification addresses.
type Users interface {
	Email(ctx context.Context, userID string) (string, error)
}

// Notifier delivers fire-and-forget emails.
type Notifier interface {
	SendAsync(to, subject, body string)
}

// Service implements the checkout-to-fulfillment pipeline.
type Service struct {
	Cart          CartStore
	Coupons       CouponResolver
	Gateway       Gateway
	Orders        Store
	Stock         StockAdjuster
	Users         Users
	Mail          Notifier
	MerchantEmail string
	RazorpayKeyID string
	Emit          func(ctx context.Context, ev mq.OrderEvent)
	Now           func() time.Time
}

// CreateResult is what the client needs to open the gateway checkout.
type CreateResult struct {
	RazorpayKey     string  `json:"razorpayKey"`
	RazorpayOrderID string  `json:"razorpayOrderId"`
	Amount          int64   `json:"amount"` // minor units
	Currency        string  `json:"currency"`
	OrderID         string  `json:"orderId"`
	TotalPrice      float64 `json:"totalPrice"`
}

// CreateFromCart snapshots the cart, re-resolves the coupon, registers a
// gateway order and persists a pending unpaid order. Stock is not touched
// and the cart survives; both happen only on verified payment, so an
// abandoned checkout costs nothing.
func (s *Service) CreateFromCart(ctx context.Context, userID string, addr models.ShippingAddress, couponCode string) (*CreateResult, error) {
	items, err := s.Cart.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	var discount float64
	var code string
	if couponCode != "" {
		preview, err := s.Coupons.Preview(ctx, couponCode, userID)
		if err != nil {
			return nil, err
		}
		discount = preview.Discount
		code = preview.Code
	}

	totals := pricing.ComputeTotals(items, discount)
	amountPaise := int64(math.Round(totals.TotalPrice * 100))

	receipt := "rcpt_" + uuid.NewString()
	gw, err := s.Gateway.CreateOrder(ctx, amountPaise, currency, receipt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}

	now := s.Now()
	order := &models.Order{
		OrderID:         "ORD" + utils.GenerateID(12),
		UserID:          userID,
		Items:           snapshotItems(items),
		ShippingAddress: addr,
		PaymentMethod:   "razorpay",
		CouponCode:      code,
		ItemsPrice:      totals.ItemsPrice,
		TaxPrice:        totals.TaxPrice,
		ShippingPrice:   totals.ShippingPrice,
		Discount:        discount,
		TotalPrice:      totals.TotalPrice,
		IsPaid:          false,
		PaymentResult:   models.PaymentResult{ID: gw.ID, Status: gw.Status},
		Status:          models.OrderPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.Orders.Insert(ctx, order); err != nil {
		return nil, err
	}

	return &CreateResult{
		RazorpayKey:     s.RazorpayKeyID,
		RazorpayOrderID: gw.ID,
		Amount:          amountPaise,
		Currency:        currency,
		OrderID:         order.OrderID,
		TotalPrice:      totals.TotalPrice,
	}, nil
}

// VerifyInput is the gateway checkout callback.
type VerifyInput struct {
	GatewayOrderID   string
	GatewayPaymentID string
	GatewaySignature string
	OrderID          string
}

// Verify authenticates the payment callback and transitions the order
// pending/unpaid -> paid/processing. The paid flip is a conditional
// write, so a retried callback returns the already-paid order without
// repeating stock or cart side effects. A bad signature changes nothing.
func (s *Service) Verify(ctx context.Context, in VerifyInput) (*models.Order, error) {
	if in.GatewayOrderID == "" || in.GatewayPaymentID == "" || in.GatewaySignature == "" || in.OrderID == "" {
		return nil, ErrMissingFields
	}

	if !s.Gateway.VerifySignature(in.GatewayOrderID, in.GatewayPaymentID, in.GatewaySignature) {
		return nil, ErrInvalidSignature
	}

	order, err := s.Orders.FindByID(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}

	if order.PaymentResult.ID != in.GatewayOrderID {
		return nil, ErrGatewayMismatch
	}

	paidAt := s.Now()
	first, err := s.Orders.MarkPaid(ctx, order.OrderID, in.GatewayPaymentID, paidAt)
	if err != nil {
		return nil, err
	}
	if !first {
		// Duplicate callback; the first one already ran the side effects.
		return s.Orders.FindByID(ctx, in.OrderID)
	}

	order.IsPaid = true
	order.PaidAt = &paidAt
	order.Status = models.OrderProcessing
	order.PaymentResult.Status = "paid"
	order.PaymentResult.PaymentID = in.GatewayPaymentID

	// Fulfillment side effects, best effort. The payment is captured, so
	// failures here are logged rather than surfaced.
	for _, it := range order.Items {
		if err := s.Stock(ctx, it.ProductID, it.Quantity); err != nil {
			log.Printf("orders: stock decrement %s x%d for %s: %v", it.ProductID, it.Quantity, order.OrderID, err)
		}
	}
	if err := s.Cart.Clear(ctx, order.UserID); err != nil {
		log.Printf("orders: cart clear for %s: %v", order.UserID, err)
	}

	s.notifyPaid(ctx, order)
	if s.Emit != nil {
		s.Emit(ctx, mq.OrderEvent{
			Type:    "order_paid",
			OrderID: order.OrderID,
			UserID:  order.UserID,
			Status:  order.Status,
			At:      paidAt,
		})
	}

	return order, nil
}

func (s *Service) notifyPaid(ctx context.Context, order *models.Order) {
	if s.Mail == nil {
		return
	}
	if email, err := s.Users.Email(ctx, order.UserID); err == nil && email != "" {
		s.Mail.SendAsync(email,
			"Your order "+order.OrderID+" is confirmed",
			fmt.Sprintf("We received your payment of %.2f. Your order is now being processed.", order.TotalPrice))
	} else if err != nil {
		log.Printf("orders: lookup email for %s: %v", order.UserID, err)
	}
	if s.MerchantEmail != "" {
		s.Mail.SendAsync(s.MerchantEmail,
			"New paid order "+order.OrderID,
			fmt.Sprintf("Order %s from user %s, total %.2f.", order.OrderID, order.UserID, order.TotalPrice))
	}
}

func snapshotItems(items []models.CartItem) []models.OrderItem {
	out := make([]models.OrderItem, 0, len(items))
	for _, it := range items {
		out = append(out, models.OrderItem{
			ProductID: it.ProductID,
			Title:     it.Title,
			Quantity:  it.Quantity,
			Price:     it.Price,
			Image:     it.Image,
		})
	}
	return out
}
