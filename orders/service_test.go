package orders

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"
	"time"

	"scentiva/models"
	"scentiva/mq"
	"scentiva/razorpay"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock implementations ---

type mockCart struct {
	items   []models.CartItem
	cleared int
}

func (m *mockCart) Snapshot(_ context.Context, _ string) ([]models.CartItem, error) {
	return m.items, nil
}

func (m *mockCart) Clear(_ context.Context, _ string) error {
	m.cleared++
	m.items = nil
	return nil
}

type mockCoupons struct {
	preview *models.CouponPreview
	err     error
}

func (m *mockCoupons) Preview(_ context.Context, _, _ string) (*models.CouponPreview, error) {
	return m.preview, m.err
}

type mockGateway struct {
	secret    string
	createErr error
	created   []int64
	nextID    string
}

func (m *mockGateway) CreateOrder(_ context.Context, amountPaise int64, _, receipt string) (*razorpay.GatewayOrder, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.created = append(m.created, amountPaise)
	id := m.nextID
	if id == "" {
		id = "order_gw1"
	}
	return &razorpay.GatewayOrder{ID: id, Amount: amountPaise, Currency: "INR", Receipt: receipt, Status: "created"}, nil
}

func (m *mockGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return razorpay.VerifySignature(m.secret, orderID, paymentID, signature)
}

type mockStore struct {
	orders map[string]*models.Order
}

func newMockStore() *mockStore {
	return &mockStore{orders: make(map[string]*models.Order)}
}

func (m *mockStore) Insert(_ context.Context, order *models.Order) error {
	cp := *order
	m.orders[order.OrderID] = &cp
	return nil
}

func (m *mockStore) FindByID(_ context.Context, orderID string) (*models.Order, error) {
	order, ok := m.orders[orderID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *order
	return &cp, nil
}

func (m *mockStore) MarkPaid(_ context.Context, orderID, paymentID string, at time.Time) (bool, error) {
	order, ok := m.orders[orderID]
	if !ok || order.IsPaid {
		return false, nil
	}
	order.IsPaid = true
	order.PaidAt = &at
	order.Status = models.OrderProcessing
	order.PaymentResult.Status = "paid"
	order.PaymentResult.PaymentID = paymentID
	return true, nil
}

func (m *mockStore) SetStatus(_ context.Context, orderID, status string, deliveredAt *time.Time) (*models.Order, error) {
	order, ok := m.orders[orderID]
	if !ok {
		return nil, ErrNotFound
	}
	order.Status = status
	if deliveredAt != nil {
		order.IsDelivered = true
		order.DeliveredAt = deliveredAt
	}
	cp := *order
	return &cp, nil
}

type mockUsers struct{}

func (mockUsers) Email(_ context.Context, _ string) (string, error) {
	return "buyer@example.com", nil
}

type mockMailer struct {
	sent []string
}

func (m *mockMailer) SendAsync(to, subject, _ string) {
	m.sent = append(m.sent, to+": "+subject)
}

type stockRecorder struct {
	decrements map[string]int
	err        error
}

func (s *stockRecorder) decrement(_ context.Context, productID string, qty int) error {
	if s.decrements == nil {
		s.decrements = make(map[string]int)
	}
	s.decrements[productID] += qty
	return s.err
}

// --- Helpers ---

const testSecret = "verify_secret"

func testService(cartItems []models.CartItem) (*Service, *mockCart, *mockStore, *mockGateway, *stockRecorder, *mockMailer) {
	cart := &mockCart{items: cartItems}
	store := newMockStore()
	gateway := &mockGateway{secret: testSecret}
	stock := &stockRecorder{}
	mail := &mockMailer{}

	svc := &Service{
		Cart:          cart,
		Coupons:       &mockCoupons{},
		Gateway:       gateway,
		Orders:        store,
		Stock:         stock.decrement,
		Users:         mockUsers{},
		Mail:          mail,
		MerchantEmail: "shop@example.com",
		RazorpayKeyID: "rzp_test_key",
		Emit:          func(context.Context, mq.OrderEvent) {},
		Now:           func() time.Time { return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC) },
	}
	return svc, cart, store, gateway, stock, mail
}

// signFor mirrors the signature the gateway attaches to its callback.
func signFor(gatewayOrderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte(gatewayOrderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func twoLineCart() []models.CartItem {
	return []models.CartItem{
		{ProductID: "p1", Title: "Rose Attar", Quantity: 2, Price: 300},
		{ProductID: "p2", Title: "Oud Oil", Quantity: 1, Price: 120},
	}
}

// --- Tests ---

func TestCreateFromCartEmpty(t *testing.T) {
	svc, _, _, _, _, _ := testService(nil)

	result, err := svc.CreateFromCart(context.Background(), "u1", models.ShippingAddress{}, "")
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestCreateFromCartGatewayDown(t *testing.T) {
	svc, _, store, gateway, _, _ := testService(twoLineCart())
	gateway.createErr = errors.New("connection refused")

	result, err := svc.CreateFromCart(context.Background(), "u1", models.ShippingAddress{}, "")
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrGatewayUnavailable)
	assert.Empty(t, store.orders)
}

func TestCreateFromCartPersistsPendingOrder(t *testing.T) {
	svc, _, store, gateway, stock, _ := testService(twoLineCart())

	result, err := svc.CreateFromCart(context.Background(), "u1", models.ShippingAddress{City: "Pune"}, "")
	require.NoError(t, err)

	// 600 + 120 = 720 items, 36 tax, free shipping -> 756.00
	assert.Equal(t, int64(75600), result.Amount)
	assert.Equal(t, []int64{75600}, gateway.created)
	assert.Equal(t, "INR", result.Currency)
	assert.Equal(t, "rzp_test_key", result.RazorpayKey)

	order, err := store.FindByID(context.Background(), result.OrderID)
	require.NoError(t, err)
	assert.False(t, order.IsPaid)
	assert.Equal(t, models.OrderPending, order.Status)
	assert.Equal(t, "razorpay", order.PaymentMethod)
	assert.Equal(t, result.RazorpayOrderID, order.PaymentResult.ID)
	assert.Equal(t, 756.0, order.TotalPrice)
	require.Len(t, order.Items, 2)
	assert.Equal(t, "Rose Attar", order.Items[0].Title)

	// No fulfillment side effects before payment.
	assert.Empty(t, stock.decrements)
}

func TestCreateFromCartAppliesCouponDiscount(t *testing.T) {
	svc, _, store, _, _, _ := testService(twoLineCart())
	svc.Coupons = &mockCoupons{preview: &models.CouponPreview{Code: "SAVE50", Discount: 50}}

	result, err := svc.CreateFromCart(context.Background(), "u1", models.ShippingAddress{}, "save50")
	require.NoError(t, err)

	// 756 base - 50 discount = 706.00 charged
	assert.Equal(t, int64(70600), result.Amount)

	order, err := store.FindByID(context.Background(), result.OrderID)
	require.NoError(t, err)
	assert.Equal(t, "SAVE50", order.CouponCode)
	assert.Equal(t, 50.0, order.Discount)
	assert.Equal(t, 706.0, order.TotalPrice)
}

func TestCreateFromCartCouponFailurePropagates(t *testing.T) {
	svc, _, store, _, _, _ := testService(twoLineCart())
	couponErr := errors.New("coupon has expired")
	svc.Coupons = &mockCoupons{err: couponErr}

	result, err := svc.CreateFromCart(context.Background(), "u1", models.ShippingAddress{}, "OLD")
	assert.Nil(t, result)
	assert.ErrorIs(t, err, couponErr)
	assert.Empty(t, store.orders)
}

func TestVerifyMissingFields(t *testing.T) {
	svc, _, _, _, _, _ := testService(nil)

	_, err := svc.Verify(context.Background(), VerifyInput{
		GatewayOrderID: "order_gw1", GatewayPaymentID: "pay_1", GatewaySignature: "",
		OrderID: "ORD1",
	})
	assert.ErrorIs(t, err, ErrMissingFields)
}

func TestVerifyTamperedSignatureHasNoSideEffects(t *testing.T) {
	svc, cart, store, _, stock, _ := testService(twoLineCart())

	result, err := svc.CreateFromCart(context.Background(), "u1", models.ShippingAddress{}, "")
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), VerifyInput{
		GatewayOrderID:   result.RazorpayOrderID,
		GatewayPaymentID: "pay_1",
		GatewaySignature: "deadbeef",
		OrderID:          result.OrderID,
	})
	assert.ErrorIs(t, err, ErrInvalidSignature)

	order, err := store.FindByID(context.Background(), result.OrderID)
	require.NoError(t, err)
	assert.False(t, order.IsPaid)
	assert.Equal(t, models.OrderPending, order.Status)
	assert.Empty(t, stock.decrements)
	assert.Zero(t, cart.cleared)
}

func TestVerifyUnknownOrder(t *testing.T) {
	svc, _, _, _, _, _ := testService(nil)

	_, err := svc.Verify(context.Background(), VerifyInput{
		GatewayOrderID:   "order_gw1",
		GatewayPaymentID: "pay_1",
		GatewaySignature: signFor("order_gw1", "pay_1"),
		OrderID:          "ORDnope",
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestVerifyGatewayMismatch(t *testing.T) {
	svc, _, _, _, stock, _ := testService(twoLineCart())

	result, err := svc.CreateFromCart(context.Background(), "u1", models.ShippingAddress{}, "")
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), VerifyInput{
		GatewayOrderID:   "order_other",
		GatewayPaymentID: "pay_1",
		GatewaySignature: signFor("order_other", "pay_1"),
		OrderID:          result.OrderID,
	})
	assert.ErrorIs(t, err, ErrGatewayMismatch)
	assert.Empty(t, stock.decrements)
}

func TestVerifyRoundTrip(t *testing.T) {
	svc, cart, store, _, stock, mail := testService(twoLineCart())

	result, err := svc.CreateFromCart(context.Background(), "u1", models.ShippingAddress{}, "")
	require.NoError(t, err)

	order, err := svc.Verify(context.Background(), VerifyInput{
		GatewayOrderID:   result.RazorpayOrderID,
		GatewayPaymentID: "pay_1",
		GatewaySignature: signFor(result.RazorpayOrderID, "pay_1"),
		OrderID:          result.OrderID,
	})
	require.NoError(t, err)

	assert.True(t, order.IsPaid)
	assert.NotNil(t, order.PaidAt)
	assert.Equal(t, models.OrderProcessing, order.Status)
	assert.Equal(t, "paid", order.PaymentResult.Status)

	// Stock reduced by exactly the order's snapshot quantities.
	assert.Equal(t, map[string]int{"p1": 2, "p2": 1}, stock.decrements)
	assert.Equal(t, 1, cart.cleared)

	// Customer and merchant notifications fired.
	assert.Len(t, mail.sent, 2)

	stored, err := store.FindByID(context.Background(), result.OrderID)
	require.NoError(t, err)
	assert.True(t, stored.IsPaid)
}

func TestVerifyDuplicateIsNoOp(t *testing.T) {
	svc, cart, _, _, stock, _ := testService(twoLineCart())

	result, err := svc.CreateFromCart(context.Background(), "u1", models.ShippingAddress{}, "")
	require.NoError(t, err)

	in := VerifyInput{
		GatewayOrderID:   result.RazorpayOrderID,
		GatewayPaymentID: "pay_1",
		GatewaySignature: signFor(result.RazorpayOrderID, "pay_1"),
		OrderID:          result.OrderID,
	}

	_, err = svc.Verify(context.Background(), in)
	require.NoError(t, err)

	order, err := svc.Verify(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, order.IsPaid)

	// Side effects ran exactly once.
	assert.Equal(t, map[string]int{"p1": 2, "p2": 1}, stock.decrements)
	assert.Equal(t, 1, cart.cleared)
}

func TestVerifyStockFailureDoesNotFailPayment(t *testing.T) {
	svc, _, _, _, stock, _ := testService(twoLineCart())
	stock.err = errors.New("insufficient stock")

	result, err := svc.CreateFromCart(context.Background(), "u1", models.ShippingAddress{}, "")
	require.NoError(t, err)

	order, err := svc.Verify(context.Background(), VerifyInput{
		GatewayOrderID:   result.RazorpayOrderID,
		GatewayPaymentID: "pay_1",
		GatewaySignature: signFor(result.RazorpayOrderID, "pay_1"),
		OrderID:          result.OrderID,
	})
	require.NoError(t, err)
	assert.True(t, order.IsPaid)
}
