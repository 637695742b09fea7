package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"time"

	"auth_api/internal/common"
	"auth_api/internal/platform/limiter"
)

// RateLimitOpts configures one route class of the governor.
type RateLimitOpts struct {
	// Name partitions counters between route classes sharing a store.
	Name    string
	Limit   int
	Window  time.Duration
	Message string
	// SkipSuccessful excludes requests that complete below 400 from the
	// budget, so legitimate rapid logins are not punished.
	SkipSuccessful bool
	// Skip exempts matching requests entirely (health checks).
	Skip func(r *http.Request) bool
}

// RateLimit enforces a sliding-window budget per client address. A store
// failure fails open: limiting is protection, not a correctness gate.
func RateLimit(store limiter.Store, opts RateLimitOpts, er *common.ErrorResponder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if opts.Skip != nil && opts.Skip(r) {
				next.ServeHTTP(w, r)
				return
			}

			key := opts.Name + ":" + clientAddr(r)
			res, err := store.Hit(r.Context(), key, opts.Window, opts.Limit)
			if err != nil {
				slog.Warn("rate limit store unavailable", "class", opts.Name, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			if !res.Allowed {
				er.Respond(w, r, &common.RateLimitError{
					Message:    opts.Message,
					RetryAfter: limiter.RetryAfterSeconds(res.ResetAt, time.Now()),
				})
				return
			}

			if !opts.SkipSuccessful {
				next.ServeHTTP(w, r)
				return
			}

			ww := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			if ww.status < http.StatusBadRequest {
				if err := store.Forget(r.Context(), key, res.Member); err != nil {
					slog.Warn("rate limit forget failed", "class", opts.Name, "error", err)
				}
			}
		})
	}
}

// clientAddr extracts the client IP. Behind chi's RealIP middleware
// RemoteAddr already reflects X-Forwarded-For / X-Real-IP.
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
