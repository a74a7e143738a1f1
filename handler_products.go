package listings

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/nbfhomes/listings/internal/util"
	"github.com/nbfhomes/listings/security"
	"github.com/nbfhomes/listings/storage"
)

const (
	cacheKeyAllProperties = "all_properties"
	cacheKeyCollections   = "collections"
)

// Listing fields accepted on create and update.
const (
	maxTitleLength       = 200
	minTitleLength       = 3
	maxDescriptionLength = 5000
	maxAddressLength     = 500
	maxLocationLength    = 200
	maxHandleLength      = 200
	maxContactLength     = 20
)

var createPropertyTypes = map[string]bool{
	"PG": true, "Flat": true, "Room": true, "Hostel": true,
}

var searchPropertyTypes = map[string]bool{
	"PG": true, "Flat": true, "Room": true, "Hostel": true,
	"1BHK": true, "2BHK": true, "3BHK": true,
}

func productCacheKey(handle string) string {
	return "product_" + handle
}

// invalidateProductCaches drops the listing cache and, when a handle is
// known, the cached single listing.
func (h *Handler) invalidateProductCaches(handle string) {
	h.cache.Delete(cacheKeyAllProperties)
	if handle != "" {
		h.cache.Delete(productCacheKey(handle))
	}
}

// handleListProducts serves the full available catalog, cached.
func (h *Handler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	if v, ok := h.cache.Get(cacheKeyAllProperties); ok {
		h.inst.Metrics().CacheHits.Add(r.Context(), 1)
		h.writeJSON(w, http.StatusOK, v)
		return
	}
	h.inst.Metrics().CacheMisses.Add(r.Context(), 1)

	props, err := h.store.List(r.Context(),
		storage.PropertyFilter{AvailableOnly: true}, storage.Sort{}, 0)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.cache.Set(cacheKeyAllProperties, props, h.cfg.Cache.ProductListTTL)
	h.writeJSON(w, http.StatusOK, props)
}

// handleSearchProducts runs a filtered, sorted catalog query. Every
// client-supplied string is validated and sanitized before it reaches
// the store.
func (h *Handler) handleSearchProducts(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, ErrValidation("body", "invalid JSON body"))
		return
	}

	filter, srt, limit, err := h.buildSearch(r, &req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	props, err := h.store.List(r.Context(), filter, srt, limit)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("X-Total-Count", strconv.Itoa(len(props)))
	h.writeJSON(w, http.StatusOK, props)
}

func (h *Handler) buildSearch(r *http.Request, req *SearchRequest) (storage.PropertyFilter, storage.Sort, int, error) {
	var filter storage.PropertyFilter
	var srt storage.Sort

	clientIP := security.ClientIdentifier(r, h.cfg.RateLimit.TrustProxy)
	fail := func(field, msg string) (storage.PropertyFilter, storage.Sort, int, error) {
		h.auditor.LogValidationFailure(clientIP, field)
		return storage.PropertyFilter{}, storage.Sort{}, 0, ErrValidation(field, msg)
	}

	if req.Query != "" {
		if !security.Validate(req.Query, security.KindString) {
			return fail("query", "query must be a string of at most 1000 characters")
		}
		filter.Query = security.SanitizeString(req.Query)
	}

	if req.SortKey != "" {
		key := storage.SortKey(req.SortKey)
		if !storage.ValidSortKey(key) {
			return fail("sortKey", "sortKey must be one of PRICE, CREATED_AT, RELEVANCE")
		}
		srt.Key = key
		srt.Reverse = req.Reverse
	}

	limit := 0
	if req.Limit != nil {
		if !security.Validate(*req.Limit, security.KindNumber) || *req.Limit < 1 || *req.Limit > 1000 {
			return fail("limit", "limit must be a number between 1 and 1000")
		}
		limit = int(*req.Limit)
	}

	if req.MinPrice != "" {
		v, err := strconv.ParseFloat(req.MinPrice, 64)
		if err != nil || v < 0 {
			return fail("minPrice", "minPrice must be a non-negative number")
		}
		filter.MinPrice = &v
	}
	if req.MaxPrice != "" {
		v, err := strconv.ParseFloat(req.MaxPrice, 64)
		if err != nil || v < 0 {
			return fail("maxPrice", "maxPrice must be a non-negative number")
		}
		filter.MaxPrice = &v
	}

	if req.Location != "" {
		if !security.Validate(req.Location, security.KindString) {
			return fail("location", "location must be a string of at most 1000 characters")
		}
		filter.Location = security.SanitizeString(req.Location)
	}

	if req.PropertyType != "" {
		if !searchPropertyTypes[req.PropertyType] {
			return fail("propertyType", "propertyType must be one of PG, Flat, Room, Hostel, 1BHK, 2BHK, 3BHK")
		}
		filter.PropertyType = req.PropertyType
	}

	for _, a := range req.Amenities {
		if !security.Validate(a, security.KindString) {
			return fail("amenities", "amenities must be strings of at most 1000 characters")
		}
		filter.Amenities = append(filter.Amenities, security.SanitizeString(a))
	}

	filter.AvailableOnly = true
	return filter, srt, limit, nil
}

// handleGetProduct serves one listing by handle, cached per handle.
func (h *Handler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	handle := r.PathValue("handle")
	if handle == "" || len(handle) > maxHandleLength {
		h.writeError(w, ErrValidation("handle", "handle must be a string of at most 200 characters"))
		return
	}
	handle = security.SanitizeString(handle)

	key := productCacheKey(handle)
	if v, ok := h.cache.Get(key); ok {
		h.inst.Metrics().CacheHits.Add(r.Context(), 1)
		h.writeJSON(w, http.StatusOK, v)
		return
	}
	h.inst.Metrics().CacheMisses.Add(r.Context(), 1)

	prop, err := h.store.GetByHandle(r.Context(), handle)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			h.writeError(w, ErrNotFound("Product"))
			return
		}
		h.writeError(w, err)
		return
	}

	h.cache.Set(key, prop, h.cfg.Cache.ProductTTL)
	h.writeJSON(w, http.StatusOK, prop)
}

// handleUserProducts lists every listing owned by a user, including
// delisted ones, so owners can manage their inventory.
func (h *Handler) handleUserProducts(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")
	if userID == "" {
		h.writeError(w, ErrValidation("userId", "userId is required"))
		return
	}

	props, err := h.store.ListByUser(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, props)
}

// handleCreateProduct creates a listing for the authenticated user. The
// request must carry a valid single-use CSRF token.
func (h *Handler) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	user, err := h.guard.VerifyRequest(r.Context(), r)
	if err != nil {
		h.writeError(w, h.authError(r, err))
		return
	}
	if err := h.requireCSRF(r, user.ID); err != nil {
		h.writeError(w, err)
		return
	}

	var req PropertyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, ErrValidation("body", "invalid JSON body"))
		return
	}

	if err := h.validatePropertyRequest(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	prop := h.buildProperty(user.ID, &req)
	if err := h.store.Insert(r.Context(), prop); err != nil {
		h.writeError(w, err)
		return
	}

	h.invalidateProductCaches(prop.Handle)
	h.logger.Info("listing created", "id", prop.ID, "handle", prop.Handle, "user_id", user.ID)
	h.writeJSON(w, http.StatusCreated, prop)
}

func (h *Handler) validatePropertyRequest(r *http.Request, req *PropertyRequest) error {
	clientIP := security.ClientIdentifier(r, h.cfg.RateLimit.TrustProxy)
	fail := func(field, msg string) error {
		h.auditor.LogValidationFailure(clientIP, field)
		return ErrValidation(field, msg)
	}

	if len(req.Title) < minTitleLength || len(req.Title) > maxTitleLength {
		return fail("title", "title must be between 3 and 200 characters")
	}
	if len(req.Description) > maxDescriptionLength {
		return fail("description", "description must be at most 5000 characters")
	}
	price, err := strconv.ParseFloat(req.Price, 64)
	if err != nil || price <= 0 {
		return fail("price", "price must be a positive number")
	}
	if len(req.Address) > maxAddressLength {
		return fail("address", "address must be at most 500 characters")
	}
	if len(req.Location) > maxLocationLength {
		return fail("location", "location must be at most 200 characters")
	}
	if !createPropertyTypes[req.Type] {
		return fail("type", "type must be one of PG, Flat, Room, Hostel")
	}
	if len(req.Images) == 0 {
		return fail("images", "at least one image is required")
	}
	for _, img := range req.Images {
		if img == "" || !security.IsValidURL(img) {
			return fail("images", "images must be valid URLs")
		}
	}
	if len(req.ContactNumber) > maxContactLength {
		return fail("contactNumber", "contactNumber must be at most 20 characters")
	}
	return nil
}

// buildProperty assembles the stored listing from a validated request.
// All free-text fields run through the sanitizer first.
func (h *Handler) buildProperty(userID string, req *PropertyRequest) *storage.Property {
	now := time.Now()
	title := security.SanitizeString(req.Title)
	price := storage.Money{Amount: req.Price, CurrencyCode: "INR"}

	prop := &storage.Property{
		ID:          fmt.Sprintf("prop_%d", now.UnixMilli()),
		Handle:      util.Slugify(title),
		Title:       title,
		Description: security.SanitizeString(req.Description),
		PriceRange: storage.PriceRange{
			MinVariantPrice: price,
			MaxVariantPrice: price,
		},
		CurrencyCode: "INR",
		SEO: storage.SEO{
			Title:       title,
			Description: security.SanitizeString(req.Description),
		},
		Tags: []string{
			req.Type,
			security.SanitizeString(req.Location),
			"New Listing",
		},
		AvailableForSale: true,
		UserID:           userID,
		ContactNumber:    security.SanitizeString(req.ContactNumber),
		// The storefront reads the street address back as categoryId.
		CategoryID: security.SanitizeString(req.Address),
		CreatedAt:  now,
	}

	prop.FeaturedImage = storage.Image{
		URL:     req.Images[0],
		AltText: title,
		Width:   800,
		Height:  600,
	}
	for _, img := range req.Images {
		prop.Images = append(prop.Images, storage.Image{
			URL:     img,
			AltText: title,
			Width:   800,
			Height:  600,
		})
	}

	prop.Variants = []storage.Variant{{
		ID:               fmt.Sprintf("var_%d", now.UnixMilli()),
		Title:            "Default Title",
		AvailableForSale: true,
		SelectedOptions: []storage.SelectedOption{
			{Name: "Title", Value: "Default Title"},
		},
		Price: price,
	}}

	return prop
}

// handleUpdateProduct edits a listing. Ownership is checked by the store
// so non-owners cannot learn whether the listing exists.
func (h *Handler) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	user, err := h.guard.VerifyRequest(r.Context(), r)
	if err != nil {
		h.writeError(w, h.authError(r, err))
		return
	}
	if err := h.requireCSRF(r, user.ID); err != nil {
		h.writeError(w, err)
		return
	}

	id := r.PathValue("id")

	var req PropertyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, ErrValidation("body", "invalid JSON body"))
		return
	}
	if err := h.validatePropertyRequest(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	prop := h.buildProperty(user.ID, &req)
	updated, err := h.store.Update(r.Context(), id, user.ID, prop)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			h.writeError(w, ErrNotFoundOrUnauthorized("Property"))
			return
		}
		h.writeError(w, err)
		return
	}

	h.invalidateProductCaches(updated.Handle)
	h.writeJSON(w, http.StatusOK, updated)
}

// handleDeleteProduct removes a listing owned by the authenticated user.
func (h *Handler) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	user, err := h.guard.VerifyRequest(r.Context(), r)
	if err != nil {
		h.writeError(w, h.authError(r, err))
		return
	}
	if err := h.requireCSRF(r, user.ID); err != nil {
		h.writeError(w, err)
		return
	}

	id := r.PathValue("id")
	if err := h.store.Delete(r.Context(), id, user.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			h.writeError(w, ErrNotFoundOrUnauthorized("Property"))
			return
		}
		h.writeError(w, err)
		return
	}

	h.invalidateProductCaches("")
	h.writeJSON(w, http.StatusOK, successResponse{Success: true})
}
