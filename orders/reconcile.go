package orders

import (
	"context"
	"log"
	"time"

	"scentiva/db"
	"scentiva/models"

	"go.mongodb.org/mongo-driver/bson"
)

// ReconcilePendingOrders runs on a ticker and cancels unpaid pending
// orders older than ttl. A checkout abandoned at the gateway leaves such
// an orphan behind; nothing else ever cleans it up.
func ReconcilePendingOrders(ctx context.Context, ttl time.Duration) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cancelOrphans(ctx, ttl)
		case <-ctx.Done():
			return
		}
	}
}

func cancelOrphans(ctx context.Context, ttl time.Duration) {
	cutoff := time.Now().Add(-ttl)
	res, err := db.OrderCollection.UpdateMany(ctx,
		bson.M{
			"status":    models.OrderPending,
			"isPaid":    false,
			"createdAt": bson.M{"$lt": cutoff},
		},
		bson.M{"$set": bson.M{
			"status":    models.OrderCancelled,
			"updatedAt": time.Now(),
		}},
	)
	if err != nil {
		log.Printf("orders: reconcile pending orders: %v", err)
		return
	}
	if res.ModifiedCount > 0 {
		log.Printf("orders: cancelled %d orphaned pending orders", res.ModifiedCount)
	}
}
