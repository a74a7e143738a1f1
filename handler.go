package listings

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/nbfhomes/listings/auth"
	"github.com/nbfhomes/listings/cache"
	"github.com/nbfhomes/listings/instrumentation"
	"github.com/nbfhomes/listings/providers"
	"github.com/nbfhomes/listings/security"
	"github.com/nbfhomes/listings/storage"
)

// CSRFTokenHeader carries the single-use token on mutating requests.
const CSRFTokenHeader = "X-CSRF-Token"

// Handler owns the HTTP surface of the listings API and all middleware
// state: the response cache, the rate limiter, and the CSRF token store.
type Handler struct {
	cfg    Config
	logger *slog.Logger

	store   storage.Store
	guard   *auth.Guard
	cache   *cache.Cache
	limiter *security.RateLimiter
	csrf    *security.CSRFStore
	auditor *security.Auditor
	inst    *instrumentation.Instrumentation

	startTime time.Time
}

// NewHandler creates a handler with its middleware state. The caller owns
// store and provider; the handler owns everything it creates and releases
// it in Stop.
func NewHandler(cfg Config, store storage.Store, provider providers.Provider, inst *instrumentation.Instrumentation) (*Handler, error) {
	cfg.applyDefaults()

	if inst == nil {
		var err error
		inst, err = instrumentation.New(instrumentation.Config{ServiceName: "listings"})
		if err != nil {
			return nil, err
		}
	}

	return &Handler{
		cfg:    cfg,
		logger: cfg.Logger,
		store:  store,
		guard:  auth.NewGuard(provider, store, store, cfg.Logger),
		cache:  cache.New(cfg.Logger),
		limiter: security.NewRateLimiterWithConfig(
			cfg.RateLimit.Limits, cfg.RateLimit.Window, cfg.RateLimit.MaxEntries, cfg.Logger),
		csrf:      security.NewCSRFStoreWithConfig(cfg.CSRF.TokenTTL, cfg.CSRF.MaxTokens, cfg.Logger),
		auditor:   security.NewAuditor(cfg.Logger, cfg.Security.AuditEnabled),
		inst:      inst,
		startTime: time.Now(),
	}, nil
}

// Stop releases the handler's background resources. Safe to call multiple
// times.
func (h *Handler) Stop() {
	h.cache.Stop()
	h.limiter.Stop()
}

// RegisterRoutes attaches every endpoint to mux. Callers wrap the mux with
// h.Middleware to get the defensive chain.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /products", h.handleListProducts)
	mux.HandleFunc("POST /products", h.handleSearchProducts)
	mux.HandleFunc("GET /products/user/{userId}", h.handleUserProducts)
	mux.HandleFunc("GET /products/{handle}", h.handleGetProduct)
	mux.HandleFunc("POST /products/create", h.handleCreateProduct)
	mux.HandleFunc("PUT /products/{id}", h.handleUpdateProduct)
	mux.HandleFunc("DELETE /products/{id}", h.handleDeleteProduct)

	mux.HandleFunc("GET /collections", h.handleListCollections)
	mux.HandleFunc("GET /collections/{handle}", h.handleGetCollection)
	mux.HandleFunc("GET /collections/{handle}/products", h.handleCollectionProducts)
	mux.HandleFunc("POST /collections/{handle}/products", h.handleCollectionProducts)

	mux.HandleFunc("GET /csrf-token", h.handleCSRFToken)

	mux.HandleFunc("GET /admin/stats", h.handleAdminStats)
	mux.HandleFunc("GET /admin/products", h.handleAdminProducts)
	mux.HandleFunc("PATCH /admin/products/{id}/status", h.handleAdminSetStatus)
	mux.HandleFunc("DELETE /admin/products/{id}", h.handleAdminDelete)
	mux.HandleFunc("GET /admin/users", h.handleAdminUsers)
	mux.HandleFunc("GET /admin/check/{userId}", h.handleAdminCheck)

	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /cart/{id}", h.handleCart)
	mux.HandleFunc("POST /cart", h.handleCart)
	mux.HandleFunc("GET /realtime/subscribe", h.handleRealtimeSubscribe)
}

// handleHealth reports service liveness for load balancers and monitors.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    time.Since(h.startTime).Seconds(),
	})
}

// handleCart serves the static placeholder the storefront cart expects.
func (h *Handler) handleCart(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, emptyCart())
}

// handleRealtimeSubscribe advertises the notification feeds. Clients poll
// this before opening their own realtime channel to the backing platform.
func (h *Handler) handleRealtimeSubscribe(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, realtimeResponse{
		Message: "Real-time notifications service is available",
		Features: []string{
			"new_property_listings",
			"property_status_updates",
			"user_messages",
		},
	})
}

// handleCSRFToken issues a fresh single-use token to an authenticated user.
func (h *Handler) handleCSRFToken(w http.ResponseWriter, r *http.Request) {
	user, err := h.guard.VerifyRequest(r.Context(), r)
	if err != nil {
		h.writeError(w, h.authError(r, err))
		return
	}

	token, err := h.csrf.Issue(user.ID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.inst.Metrics().CSRFIssued.Add(r.Context(), 1)

	h.writeJSON(w, http.StatusOK, csrfTokenResponse{CSRFToken: token})
}

// requireCSRF consumes the request's CSRF token for userID. On failure the
// event is audited and the caller gets a 403.
func (h *Handler) requireCSRF(r *http.Request, userID string) error {
	token := r.Header.Get(CSRFTokenHeader)
	if token == "" || !h.csrf.Validate(token, userID) {
		h.auditor.LogCSRFRejected(userID, security.ClientIdentifier(r, h.cfg.RateLimit.TrustProxy))
		h.inst.Metrics().CSRFRejected.Add(r.Context(), 1)
		return ErrInvalidCSRF()
	}
	return nil
}

// authError maps a guard failure to the wire taxonomy and audits it.
func (h *Handler) authError(r *http.Request, err error) *APIError {
	clientIP := security.ClientIdentifier(r, h.cfg.RateLimit.TrustProxy)
	h.auditor.LogAuthFailure("", clientIP, err.Error())
	h.inst.Metrics().AuthFailures.Add(r.Context(), 1)

	switch {
	case errors.Is(err, auth.ErrMissingToken):
		return ErrUnauthorized("Authentication required")
	case errors.Is(err, auth.ErrMalformedToken):
		return ErrUnauthorized("Invalid token format")
	case errors.Is(err, auth.ErrTokenExpired):
		return ErrUnauthorized("Token expired")
	case errors.Is(err, auth.ErrAccountSuspended):
		return ErrUnauthorized("Account suspended")
	default:
		return ErrUnauthorized("Invalid or expired token")
	}
}
