package ratelimit

import (
	"net"
	"net/http"
	"strconv"
	"time"

	limiter "github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// Handler enforces per-client rate limits before delegating to the next
// handler. State lives in an in-process memory store; quote calculation has
// no shared backend to coordinate through.
type Handler struct {
	Limiter *limiter.Limiter
	OnError func(error)
}

// PerMinute builds a handler allowing max requests per client per minute.
func PerMinute(max int) *Handler {
	rate := limiter.Rate{Period: time.Minute, Limit: int64(max)}
	return &Handler{Limiter: limiter.New(memory.NewStore(), rate)}
}

// Middleware implements the http.Handler middleware interface. Limiter
// failures never block traffic; the request proceeds unlimited.
func (h *Handler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h == nil || h.Limiter == nil {
			next.ServeHTTP(w, r)
			return
		}
		lctx, err := h.Limiter.Get(r.Context(), clientKey(r))
		if err != nil {
			if h.OnError != nil {
				h.OnError(err)
			}
			next.ServeHTTP(w, r)
			return
		}

		headers := w.Header()
		headers.Set("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
		headers.Set("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))
		headers.Set("X-RateLimit-Reset", strconv.FormatInt(lctx.Reset, 10))

		if lctx.Reached {
			retryAfter := lctx.Reset - time.Now().Unix()
			if retryAfter < 0 {
				retryAfter = 0
			}
			headers.Set("Retry-After", strconv.FormatInt(retryAfter, 10))
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
