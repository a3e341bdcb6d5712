package ratelimit

import (
	"log/slog"
	"net/http"
	"strconv"

	"civitas/pkg/platform/httputil"
	"civitas/pkg/requestcontext"
)

// Middleware limits by authenticated actor, or by client IP before auth.
// Limiter errors fail open: an unavailable counter never blocks governance.
func Middleware(limiter *Limiter, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			subject := "actor:" + requestcontext.ActorID(ctx).String()
			if requestcontext.ActorID(ctx).IsNil() {
				subject = "ip:" + requestcontext.ClientIP(ctx)
			}

			res, err := limiter.Check(ctx, ClassOf(r.Method), subject)
			if err != nil {
				logger.ErrorContext(ctx, "rate limit check failed",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				next.ServeHTTP(w, r)
				return
			}

			if res.Limit > 0 {
				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
				w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
				w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))
			}
			if res.Degraded {
				w.Header().Set("X-RateLimit-Status", "degraded")
			}
			if !res.Allowed {
				w.Header().Set("Retry-After", strconv.Itoa(res.RetryAfter))
				httputil.WriteJSON(w, http.StatusTooManyRequests, httputil.ErrorResponse{
					Error:            "rate_limit_exceeded",
					ErrorDescription: "too many requests, retry after " + strconv.Itoa(res.RetryAfter) + "s",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
