package globals

import (
	"context"
	"os"
)

// JwtSecret signs and verifies access tokens. Must be overridden in production.
var JwtSecret = []byte(EnvOr("JWT_SECRET", "dev_only_secret"))

// Context keys
type ContextKey string

const RoleKey ContextKey = "role"
const UserIDKey ContextKey = "userId"

var Ctx = context.Background()

func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
