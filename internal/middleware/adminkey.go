package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"

	"github.com/taskmandi/backend/internal/httpx"
)

// AdminKeyRepo looks up an active admin API key by its SHA-256 hash.
type AdminKeyRepo interface {
	FindActiveByKeyHash(ctx context.Context, keyHash string) error
}

// AdminKeyAuth guards the /api/admin surface. Admin callers present a raw API
// key as the Bearer token; it is hashed and matched against admin_api_keys.
func AdminKeyAuth(repo AdminKeyRepo) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := extractBearer(r)
			if raw == "" {
				httpx.WriteError(w, http.StatusUnauthorized, httpx.CodeUnauthorized, "missing or malformed Authorization header")
				return
			}
			if err := repo.FindActiveByKeyHash(r.Context(), HashKey(raw)); err != nil {
				httpx.WriteError(w, http.StatusUnauthorized, httpx.CodeUnauthorized, "invalid admin api key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// HashKey returns the hex SHA-256 of a raw API key. Keys are stored hashed only.
func HashKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
