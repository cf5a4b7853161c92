package mq

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"scentiva/rdx"
)

// OrderEvent is broadcast whenever an order changes state. Consumers are
// best-effort listeners (live status stream); emission never blocks or
// fails the request that triggered it.
type OrderEvent struct {
	Type    string    `json:"type"` // "order_paid", "status_changed", "order_cancelled"
	OrderID string    `json:"orderId"`
	UserID  string    `json:"userId"`
	Status  string    `json:"status"`
	At      time.Time `json:"at"`
}

const orderChannel = "order-events"

// EmitOrderEvent publishes the event to Redis. Failures are logged, not
// surfaced; a lost broadcast must never roll back an order write.
func EmitOrderEvent(ctx context.Context, ev OrderEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("[mq] marshal order event: %v", err)
		return
	}
	if err := rdx.Conn.Publish(ctx, orderChannel, data).Err(); err != nil {
		log.Printf("[mq] publish order event: %v", err)
	}
}

// SubscribeOrderEvents returns a channel of decoded order events. The
// channel closes when ctx is cancelled.
func SubscribeOrderEvents(ctx context.Context) <-chan OrderEvent {
	out := make(chan OrderEvent, 16)
	sub := rdx.Conn.Subscribe(ctx, orderChannel)

	go func() {
		defer close(out)
		defer sub.Close()
		for {
			select {
			case msg, ok := <-sub.Channel():
				if !ok {
					return
				}
				var ev OrderEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					log.Printf("[mq] bad order event payload: %v", err)
					continue
				}
				select {
				case out <- ev:
				default:
					log.Printf("[mq] order event channel full, dropping %s", ev.OrderID)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}
