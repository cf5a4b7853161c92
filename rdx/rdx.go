package rdx

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

// Conn is the shared Redis client, used for coupon-list caching, payment
// verification locks and the order event channel.
var Conn *redis.Client

func init() {
	addr := os.Getenv("REDIS_URL")
	if addr == "" {
		addr = "localhost:6379"
	}
	Conn = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	})
}

func RdxGet(key string) (string, error) {
	return Conn.Get(context.Background(), key).Result()
}

func RdxSet(key, value string, ttl time.Duration) error {
	return Conn.Set(context.Background(), key, value, ttl).Err()
}

func RdxDel(key string) {
	if err := Conn.Del(context.Background(), key).Err(); err != nil {
		log.Printf("rdx: del %s failed: %v", key, err)
	}
}

// AcquireLock takes a short-lived distributed lock; returns false when the
// lock is already held. Used to serialize concurrent payment verifications
// for the same order.
func AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return Conn.SetNX(ctx, "lock:"+key, "1", ttl).Result()
}

func ReleaseLock(ctx context.Context, key string) {
	if err := Conn.Del(ctx, "lock:"+key).Err(); err != nil {
		log.Printf("rdx: release lock %s failed: %v", key, err)
	}
}
