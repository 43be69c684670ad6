package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// NewLimiter builds an in-memory limiter from a rate such as "300-M".
func NewLimiter(formatted string) (*limiter.Limiter, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, fmt.Errorf("parsing rate %q: %w", formatted, err)
	}

	return limiter.New(memory.NewStore(), rate), nil
}

// RateLimit limits requests per client IP. Run it after chi's RealIP.
func RateLimit(l *limiter.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)

			lctx, err := l.Get(r.Context(), ip)
			if err != nil {
				Logger(r.Context()).Error("failed to get rate limit context", "ip", ip, "error", err)
				http.Error(w, "internal error", http.StatusInternalServerError)

				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))

			if lctx.Reached {
				Logger(r.Context()).Warn("rate limit exceeded", "ip", ip, "limit", lctx.Limit)
				http.Error(w, "too many requests", http.StatusTooManyRequests)

				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}

	return r.RemoteAddr
}
