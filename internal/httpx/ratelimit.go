package httpx

import (
	"net/http"

	"golang.org/x/time/rate"
)

// RateLimit rejects requests beyond the limiter's budget with 429.
func RateLimit(limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				WriteJSON(w, http.StatusTooManyRequests, ErrorEnvelope{
					Error: APIError{Message: "rate limit exceeded", Code: "RATE_LIMITED"},
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
