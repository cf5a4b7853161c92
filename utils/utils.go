package utils

import (
	"context"
	"math"
	rndm "math/rand"

	"go.mongodb.org/mongo-driver/mongo"
)

// --- Random ID Generators ---

var letterRunes = []rune("abcdefghijklmnopqrstuvwxyz0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ")

// GenerateID creates a random alphanumeric string of length n.
func GenerateID(n int) string {
	b := make([]rune, n)
	for i := range b {
		b[i] = letterRunes[rndm.Intn(len(letterRunes))]
	}
	return string(b)
}

// --- Money ---

// Round2 rounds to two decimal places, the precision of all price fields.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// --- Mongo helpers ---

// FindAndDecode runs a Find with the given filter and decodes every
// document into a slice of T.
func FindAndDecode[T any](ctx context.Context, col *mongo.Collection, filter interface{}) ([]T, error) {
	cursor, err := col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []T
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
