package orders

import (
	"context"
	"errors"
	"time"

	"scentiva/db"
	"scentiva/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore persists orders in the orders collection.
type MongoStore struct{}

func (MongoStore) Insert(ctx context.Context, order *models.Order) error {
	_, err := db.OrderCollection.InsertOne(ctx, order)
	return err
}

func (MongoStore) FindByID(ctx context.Context, orderID string) (*models.Order, error) {
	var order models.Order
	err := db.OrderCollection.FindOne(ctx, bson.M{"orderId": orderID}).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// MarkPaid flips isPaid false -> true atomically. Returns false when the
// order was already paid, which makes duplicate verifications harmless.
func (MongoStore) MarkPaid(ctx context.Context, orderID, paymentID string, at time.Time) (bool, error) {
	res, err := db.OrderCollection.UpdateOne(ctx,
		bson.M{"orderId": orderID, "isPaid": false},
		bson.M{"$set": bson.M{
			"isPaid":                  true,
			"paidAt":                  at,
			"status":                  models.OrderProcessing,
			"paymentResult.status":    "paid",
			"paymentResult.paymentId": paymentID,
			"updatedAt":               at,
		}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

func (MongoStore) SetStatus(ctx context.Context, orderID, status string, deliveredAt *time.Time) (*models.Order, error) {
	set := bson.M{"status": status, "updatedAt": time.Now()}
	if deliveredAt != nil {
		set["isDelivered"] = true
		set["deliveredAt"] = *deliveredAt
	}

	var updated models.Order
	err := db.OrderCollection.FindOneAndUpdate(ctx,
		bson.M{"orderId": orderID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// MongoUsers resolves user emails for notifications.
type MongoUsers struct{}

func (MongoUsers) Email(ctx context.Context, userID string) (string, error) {
	var user struct {
		Email string `bson:"email"`
	}
	err := db.UserCollection.FindOne(ctx, bson.M{"userId": userID}).Decode(&user)
	if err != nil {
		return "", err
	}
	return user.Email, nil
}
