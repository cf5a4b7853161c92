package coupons

import (
	"context"
	"errors"

	"scentiva/db"
	"scentiva/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoCouponStore reads coupons from the coupons collection.
type MongoCouponStore struct{}

func (MongoCouponStore) FindActiveByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	err := db.CouponCollection.FindOne(ctx, bson.M{"code": code, "isActive": true}).Decode(&coupon)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

// MongoOrderLookup checks placed orders for a prior redemption. Any order
// carrying the code counts, whatever its status.
type MongoOrderLookup struct{}

func (MongoOrderLookup) UserHasOrderWithCoupon(ctx context.Context, userID, code string) (bool, error) {
	n, err := db.OrderCollection.CountDocuments(ctx, bson.M{"userId": userID, "couponCode": code})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
