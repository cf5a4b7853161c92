package orders

import (
	"context"
	"testing"

	"scentiva/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	valid := [][2]string{
		{models.OrderPending, models.OrderProcessing},
		{models.OrderPending, models.OrderCancelled},
		{models.OrderProcessing, models.OrderShipped},
		{models.OrderProcessing, models.OrderCancelled},
		{models.OrderShipped, models.OrderDelivered},
	}
	for _, edge := range valid {
		assert.True(t, CanTransition(edge[0], edge[1]), "%s -> %s should be allowed", edge[0], edge[1])
	}

	invalid := [][2]string{
		{models.OrderPending, models.OrderShipped},
		{models.OrderPending, models.OrderDelivered},
		{models.OrderProcessing, models.OrderDelivered},
		{models.OrderShipped, models.OrderCancelled},
		{models.OrderShipped, models.OrderProcessing},
		{models.OrderDelivered, models.OrderCancelled},
		{models.OrderCancelled, models.OrderPending},
		{models.OrderDelivered, models.OrderDelivered},
	}
	for _, edge := range invalid {
		assert.False(t, CanTransition(edge[0], edge[1]), "%s -> %s should be rejected", edge[0], edge[1])
	}
}

func TestValidStatus(t *testing.T) {
	for _, s := range []string{
		models.OrderPending, models.OrderProcessing, models.OrderShipped,
		models.OrderDelivered, models.OrderCancelled,
	} {
		assert.True(t, ValidStatus(s))
	}
	assert.False(t, ValidStatus("returned"))
	assert.False(t, ValidStatus(""))
	assert.False(t, ValidStatus("Pending"))
}

func paidOrderService(t *testing.T) (*Service, string) {
	t.Helper()
	svc, _, _, _, _, _ := testService(twoLineCart())

	result, err := svc.CreateFromCart(context.Background(), "u1", models.ShippingAddress{}, "")
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), VerifyInput{
		GatewayOrderID:   result.RazorpayOrderID,
		GatewayPaymentID: "pay_1",
		GatewaySignature: signFor(result.RazorpayOrderID, "pay_1"),
		OrderID:          result.OrderID,
	})
	require.NoError(t, err)
	return svc, result.OrderID
}

func TestSetStatusShipThenDeliver(t *testing.T) {
	svc, orderID := paidOrderService(t)

	shipped, err := svc.SetStatus(context.Background(), orderID, models.OrderShipped)
	require.NoError(t, err)
	assert.Equal(t, models.OrderShipped, shipped.Status)
	assert.False(t, shipped.IsDelivered)
	assert.Nil(t, shipped.DeliveredAt)

	delivered, err := svc.SetStatus(context.Background(), orderID, models.OrderDelivered)
	require.NoError(t, err)
	assert.Equal(t, models.OrderDelivered, delivered.Status)
	assert.True(t, delivered.IsDelivered)
	require.NotNil(t, delivered.DeliveredAt)
	assert.Equal(t, svc.Now(), *delivered.DeliveredAt)
}

func TestSetStatusRejectsIllegalEdge(t *testing.T) {
	svc, orderID := paidOrderService(t)

	// processing -> delivered skips shipped
	_, err := svc.SetStatus(context.Background(), orderID, models.OrderDelivered)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// order untouched
	order, err := svc.Orders.FindByID(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderProcessing, order.Status)
}

func TestSetStatusTerminalStatesAreFinal(t *testing.T) {
	svc, orderID := paidOrderService(t)

	_, err := svc.SetStatus(context.Background(), orderID, models.OrderCancelled)
	require.NoError(t, err)

	_, err = svc.SetStatus(context.Background(), orderID, models.OrderProcessing)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestSetStatusUnknownStatus(t *testing.T) {
	svc, orderID := paidOrderService(t)

	_, err := svc.SetStatus(context.Background(), orderID, "refunded")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestSetStatusUnknownOrder(t *testing.T) {
	svc, _, _, _, _, _ := testService(nil)

	_, err := svc.SetStatus(context.Background(), "ORDnope", models.OrderProcessing)
	assert.ErrorIs(t, err, ErrNotFound)
}
