package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/siamtube/pricing-backend/api/responses"
	pkgerrors "github.com/siamtube/pricing-backend/pkg/errors"
	"github.com/siamtube/pricing-backend/pkg/logger"
)

// RateLimiter counts requests inside a fixed window keyed by scope.
type RateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// RateLimit throttles a surface per client IP. A nil limiter or a
// non-positive limit disables the middleware. Limiter outages never block
// traffic: pricing must stay available when Redis is not.
func RateLimit(scope string, limit int64, window time.Duration, limiter RateLimiter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil || limit <= 0 || window <= 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			ip := clientIP(r)
			key := scope
			if ip != "" {
				key = scope + ":" + ip
			}

			allowed, count, err := limiter.FixedWindowAllow(ctx, key, limit, window)
			if err != nil {
				if logg != nil {
					logg.Warn(logg.WithFields(ctx, map[string]any{
						"scope": scope,
						"error": err.Error(),
					}), "rate_limit.unavailable")
				}
				next.ServeHTTP(w, r)
				return
			}

			if !allowed {
				if logg != nil {
					logg.Warn(logg.WithFields(ctx, map[string]any{
						"scope":          scope,
						"ip":             ip,
						"attempts":       count,
						"limit":          limit,
						"window_seconds": int(window.Seconds()),
					}), "rate_limit.blocked")
				}
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		for _, part := range strings.Split(header, ",") {
			if ip := strings.TrimSpace(part); ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}
