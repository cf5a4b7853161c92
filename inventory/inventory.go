// Package inventory owns stock mutation. Stock only ever moves downward
// here, floored at zero, via conditional updates so concurrent checkouts
// cannot oversell.
package inventory

import (
	"context"
	"errors"

	"scentiva/db"

	"go.mongodb.org/mongo-driver/bson"
)

var ErrInsufficientStock = errors.New("insufficient stock")

// DecrementStock atomically subtracts qty from the product's stock. The
// filter expresses stock >= qty, so two concurrent orders for the last
// units cannot both succeed. When stock is short the remainder is clamped
// to zero and ErrInsufficientStock is returned; callers on the payment
// path log it and continue since the charge already happened.
func DecrementStock(ctx context.Context, productID string, qty int) error {
	if qty <= 0 {
		return nil
	}

	res, err := db.ProductCollection.UpdateOne(ctx,
		bson.M{"productId": productID, "stock": bson.M{"$gte": qty}},
		bson.M{"$inc": bson.M{"stock": -qty}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount > 0 {
		return nil
	}

	// Not enough stock (or unknown product). Clamp whatever is left to
	// zero rather than going negative.
	_, err = db.ProductCollection.UpdateOne(ctx,
		bson.M{"productId": productID, "stock": bson.M{"$gt": 0}},
		bson.M{"$set": bson.M{"stock": 0}},
	)
	if err != nil {
		return err
	}
	return ErrInsufficientStock
}

// Remaining computes the post-decrement stock level for a requested
// quantity, floored at zero.
func Remaining(stock, qty int) int {
	if qty >= stock {
		return 0
	}
	return stock - qty
}
