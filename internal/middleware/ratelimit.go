package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nivara-app/nivara-backend/pkg/clientip"
)

const (
	// rateLimitWindow is the fixed counting window.
	rateLimitWindow = 120 * time.Second
	// rateLimitMaxRequests is the per-IP budget within one window.
	rateLimitMaxRequests = 25
	rateLimitKeyPrefix   = "ratelimit:"
	blockedIPKeyPrefix   = "blocked_ip:"
	// blockedIPDuration is how long an offending IP stays blocked.
	blockedIPDuration = 24 * time.Hour
)

// RedisRateLimit provides fixed-window rate limiting with temporary IP
// blocking, shared across instances through Redis. A nil client disables it.
// Redis failures fail open: a broken cache must not take the API down.
func RedisRateLimit(client *redis.Client, trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if client == nil {
				next.ServeHTTP(w, r)
				return
			}

			ip := clientip.RealClientIP(r, trustProxy)
			ctx := context.Background()

			blockedKey := blockedIPKeyPrefix + ip
			if blocked, err := client.Exists(ctx, blockedKey).Result(); err == nil && blocked > 0 {
				tooManyRequests(w, "Your IP has been temporarily blocked due to excessive requests. Please try again later.")
				return
			}

			key := rateLimitKeyPrefix + ip
			count, err := client.Incr(ctx, key).Result()
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			if count == 1 {
				client.Expire(ctx, key, rateLimitWindow)
			}

			if count > rateLimitMaxRequests {
				_ = client.Set(ctx, blockedKey, "1", blockedIPDuration).Err()
				tooManyRequests(w, "Rate limit exceeded. Your IP has been temporarily blocked.")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func tooManyRequests(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_, _ = w.Write([]byte(`{"success":false,"message":"` + message + `"}`))
}
