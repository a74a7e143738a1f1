package listings

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/nbfhomes/listings/security"
)

// Middleware wraps next with the full defensive chain: request ID,
// security headers, CORS, rate limiting, and request logging. Order
// matters: the request ID must exist before anything logs, and CORS
// preflights short-circuit before the limiter sees them.
func (h *Handler) Middleware(next http.Handler) http.Handler {
	chain := h.logRequests(h.rateLimit(next))
	chain = h.cors(chain)
	chain = securityHeaders(chain)
	chain = security.RequestIDMiddleware(chain)
	return chain
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		security.SetSecurityHeaders(w)
		next.ServeHTTP(w, r)
	})
}

// cors handles origin allow-listing and preflight requests. Credentials
// are allowed so the storefront can send cookies alongside bearer tokens.
func (h *Handler) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && h.originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Expose-Headers",
				"X-Total-Count, X-RateLimit-Remaining, X-RateLimit-Reset")
		}

		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers",
				"Content-Type, Authorization, X-CSRF-Token, X-Admin-User-Id, X-Requested-With")
			w.Header().Set("Access-Control-Max-Age", "86400")
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (h *Handler) originAllowed(origin string) bool {
	for _, allowed := range h.cfg.Security.AllowedOrigins {
		if strings.EqualFold(origin, allowed) {
			return true
		}
	}
	return false
}

// endpointClass buckets a request path for rate limiting. Listing
// creation gets the tightest ceiling; auth-adjacent paths the next.
func endpointClass(path string) security.EndpointClass {
	switch {
	case strings.HasPrefix(path, "/products/create"):
		return security.ClassCreate
	case strings.Contains(path, "/auth") || strings.Contains(path, "/login") || strings.Contains(path, "/register"):
		return security.ClassAuth
	default:
		return security.ClassGeneral
	}
}

// rateLimit enforces the per-client fixed window and always surfaces the
// window state in response headers so clients can pace themselves.
func (h *Handler) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := security.ClientIdentifier(r, h.cfg.RateLimit.TrustProxy)
		class := endpointClass(r.URL.Path)

		decision, err := h.limiter.Check(clientID, class)
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(decision.Reset.Unix(), 10))
		if err != nil {
			retryAfter := int(time.Until(decision.Reset).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))

			h.auditor.LogRateLimitExceeded(clientID, class)
			h.inst.Metrics().RateLimitExceeded.Add(r.Context(), 1,
				metric.WithAttributes(attribute.String("class", string(class))))
			h.writeError(w, ErrRateLimited())
			return
		}

		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the status code written downstream so the
// logging middleware can report it.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

// logRequests emits one structured line per request and records the
// HTTP metrics.
func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		elapsed := time.Since(start)
		attrs := metric.WithAttributes(
			attribute.String("method", r.Method),
			attribute.Int("status", rec.status),
		)
		h.inst.Metrics().HTTPRequestsTotal.Add(r.Context(), 1, attrs)
		h.inst.Metrics().HTTPRequestDuration.Record(r.Context(), elapsed.Seconds(), attrs)

		h.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", elapsed.Milliseconds(),
			"request_id", security.GetRequestID(r.Context()))
	})
}
