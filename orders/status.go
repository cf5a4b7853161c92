package orders

import (
	"context"
	"fmt"
	"log"
	"time"

	"scentiva/models"
	"scentiva/mq"
)

// allowedTransitions is the fulfillment state machine. Delivered and
// cancelled are terminal.
var allowedTransitions = map[string][]string{
	models.OrderPending:    {models.OrderProcessing, models.OrderCancelled},
	models.OrderProcessing: {models.OrderShipped, models.OrderCancelled},
	models.OrderShipped:    {models.OrderDelivered},
	models.OrderDelivered:  {},
	models.OrderCancelled:  {},
}

// CanTransition reports whether from -> to is a legal edge.
func CanTransition(from, to string) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidStatus reports whether s names a known order status.
func ValidStatus(s string) bool {
	_, ok := allowedTransitions[s]
	return ok
}

// SetStatus moves an order along the fulfillment state machine and
// notifies the customer, best effort. Delivered stamps deliveredAt.
func (s *Service) SetStatus(ctx context.Context, orderID, newStatus string) (*models.Order, error) {
	if !ValidStatus(newStatus) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, newStatus)
	}

	order, err := s.Orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(order.Status, newStatus) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, newStatus)
	}

	var deliveredAt *time.Time
	if newStatus == models.OrderDelivered {
		t := s.Now()
		deliveredAt = &t
	}

	updated, err := s.Orders.SetStatus(ctx, orderID, newStatus, deliveredAt)
	if err != nil {
		return nil, err
	}

	s.notifyStatus(ctx, updated)
	if s.Emit != nil {
		evType := "status_changed"
		if newStatus == models.OrderCancelled {
			evType = "order_cancelled"
		}
		s.Emit(ctx, mq.OrderEvent{
			Type:    evType,
			OrderID: updated.OrderID,
			UserID:  updated.UserID,
			Status:  updated.Status,
			At:      s.Now(),
		})
	}

	return updated, nil
}

func (s *Service) notifyStatus(ctx context.Context, order *models.Order) {
	if s.Mail == nil {
		return
	}
	email, err := s.Users.Email(ctx, order.UserID)
	if err != nil || email == "" {
		if err != nil {
			log.Printf("orders: lookup email for %s: %v", order.UserID, err)
		}
		return
	}
	s.Mail.SendAsync(email,
		"Order "+order.OrderID+" update",
		"Your order is now "+order.Status+".")
}
