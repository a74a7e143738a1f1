package listings

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/nbfhomes/listings/auth"
	"github.com/nbfhomes/listings/security"
	"github.com/nbfhomes/listings/storage"
)

// pageParams reads page and limit query parameters with the admin
// defaults. Out-of-range values fall back rather than erroring.
func pageParams(r *http.Request) storage.Page {
	page := storage.Page{Number: 1, Size: 10}
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		page.Number = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 100 {
		page.Size = v
	}
	return page
}

// handleAdminStats serves marketplace-wide counts.
func (h *Handler) handleAdminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.Stats(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, stats)
}

// handleAdminProducts serves the paginated administrative listing view,
// including delisted properties.
func (h *Handler) handleAdminProducts(w http.ResponseWriter, r *http.Request) {
	page := pageParams(r)
	filter := storage.AdminFilter{
		Search: security.SanitizeString(r.URL.Query().Get("search")),
		Status: r.URL.Query().Get("status"),
		Page:   page,
	}

	props, total, err := h.store.AdminList(r.Context(), filter)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	h.writeJSON(w, http.StatusOK, adminProductsResponse{
		Products: props,
		Total:    total,
		Page:     page.Number,
		Limit:    page.Size,
	})
}

// adminError maps an admin guard failure to the wire taxonomy.
func (h *Handler) adminError(r *http.Request, adminID string, err error) *APIError {
	clientIP := security.ClientIdentifier(r, h.cfg.RateLimit.TrustProxy)
	h.auditor.LogAdminDenied(adminID, clientIP, err.Error())

	switch {
	case errors.Is(err, auth.ErrMissingAdminID), errors.Is(err, auth.ErrInvalidAdminID):
		return ErrValidation("adminUserId", "a valid admin user id is required")
	default:
		return ErrForbidden("admin privileges required")
	}
}

// handleAdminSetStatus toggles a listing's availability.
func (h *Handler) handleAdminSetStatus(w http.ResponseWriter, r *http.Request) {
	adminID, err := h.guard.VerifyAdmin(r.Context(), r)
	if err != nil {
		h.writeError(w, h.adminError(r, adminID, err))
		return
	}

	var req StatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, ErrValidation("body", "invalid JSON body"))
		return
	}

	id := r.PathValue("id")
	prop, err := h.store.SetAvailability(r.Context(), id, req.AvailableForSale)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			h.writeError(w, ErrNotFound("Product"))
			return
		}
		h.writeError(w, err)
		return
	}

	h.invalidateProductCaches(prop.Handle)
	h.logger.Info("listing status changed",
		"id", id, "available", req.AvailableForSale, "admin_id", adminID)
	h.writeJSON(w, http.StatusOK, prop)
}

// handleAdminDelete removes any listing regardless of owner.
func (h *Handler) handleAdminDelete(w http.ResponseWriter, r *http.Request) {
	adminID, err := h.guard.VerifyAdmin(r.Context(), r)
	if err != nil {
		h.writeError(w, h.adminError(r, adminID, err))
		return
	}

	id := r.PathValue("id")
	if err := h.store.AdminDelete(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			h.writeError(w, ErrNotFound("Product"))
			return
		}
		h.writeError(w, err)
		return
	}

	h.invalidateProductCaches("")
	h.logger.Info("listing removed by admin", "id", id, "admin_id", adminID)
	h.writeJSON(w, http.StatusOK, successResponse{Success: true, Message: "Product deleted"})
}

// handleAdminUsers serves aggregated per-owner statistics, paginated in
// the handler since the aggregate set is small.
func (h *Handler) handleAdminUsers(w http.ResponseWriter, r *http.Request) {
	owners, err := h.store.OwnerStats(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	page := pageParams(r)
	total := len(owners)
	start := page.Offset()
	if start > total {
		start = total
	}
	end := start + page.Size
	if end > total {
		end = total
	}

	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	h.writeJSON(w, http.StatusOK, adminUsersResponse{
		Users: owners[start:end],
		Total: total,
		Page:  page.Number,
		Limit: page.Size,
	})
}

// handleAdminCheck answers whether a user id has admin rights. Every
// failure mode returns 200 with isAdmin false so probes learn nothing
// from status codes.
func (h *Handler) handleAdminCheck(w http.ResponseWriter, r *http.Request) {
	if !h.adminCheckOriginAllowed(r) {
		h.writeJSON(w, http.StatusOK, adminCheckResponse{Error: "Invalid origin"})
		return
	}

	userID := r.PathValue("userId")
	if !security.Validate(userID, security.KindUUID) {
		h.writeJSON(w, http.StatusOK, adminCheckResponse{Error: "Invalid user ID"})
		return
	}

	h.writeJSON(w, http.StatusOK, adminCheckResponse{
		IsAdmin: h.guard.IsAdmin(r.Context(), userID),
	})
}

// adminCheckOriginAllowed restricts the admin check to the configured
// origins, falling back to the CORS allow-list when none are set.
func (h *Handler) adminCheckOriginAllowed(r *http.Request) bool {
	allowed := h.cfg.Security.AdminCheckOrigins
	if len(allowed) == 0 {
		allowed = h.cfg.Security.AllowedOrigins
	}

	origin := r.Header.Get("Origin")
	if origin == "" {
		origin = r.Header.Get("Referer")
	}
	if origin == "" {
		return false
	}

	for _, a := range allowed {
		if strings.HasPrefix(origin, a) {
			return true
		}
	}
	return false
}
