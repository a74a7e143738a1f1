package listings

import (
	"errors"
	"net/http"

	"github.com/nbfhomes/listings/security"
	"github.com/nbfhomes/listings/storage"
)

// collectionKeywords maps a collection handle to the listing title
// keywords it aggregates. Handles outside the map serve the full
// available catalog.
var collectionKeywords = map[string][]string{
	"pgs":           {"PG"},
	"flats":         {"Flat", "1BHK"},
	"private-rooms": {"Room"},
}

func collectionCacheKey(handle string) string {
	return "collection_" + handle
}

// handleListCollections serves every collection, cached.
func (h *Handler) handleListCollections(w http.ResponseWriter, r *http.Request) {
	if v, ok := h.cache.Get(cacheKeyCollections); ok {
		h.inst.Metrics().CacheHits.Add(r.Context(), 1)
		h.writeJSON(w, http.StatusOK, v)
		return
	}
	h.inst.Metrics().CacheMisses.Add(r.Context(), 1)

	cols, err := h.store.ListCollections(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.cache.Set(cacheKeyCollections, cols, h.cfg.Cache.CollectionTTL)
	h.writeJSON(w, http.StatusOK, cols)
}

// handleGetCollection serves one collection by handle, cached per handle.
func (h *Handler) handleGetCollection(w http.ResponseWriter, r *http.Request) {
	handle := r.PathValue("handle")
	if handle == "" || len(handle) > maxHandleLength {
		h.writeError(w, ErrValidation("handle", "handle must be a string of at most 200 characters"))
		return
	}
	handle = security.SanitizeString(handle)

	key := collectionCacheKey(handle)
	if v, ok := h.cache.Get(key); ok {
		h.inst.Metrics().CacheHits.Add(r.Context(), 1)
		h.writeJSON(w, http.StatusOK, v)
		return
	}
	h.inst.Metrics().CacheMisses.Add(r.Context(), 1)

	col, err := h.store.GetCollection(r.Context(), handle)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			h.writeError(w, ErrNotFound("Collection"))
			return
		}
		h.writeError(w, err)
		return
	}

	h.cache.Set(key, col, h.cfg.Cache.CollectionTTL)
	h.writeJSON(w, http.StatusOK, col)
}

// handleCollectionProducts serves the listings belonging to a collection.
// Membership is computed from title keywords rather than stored links.
func (h *Handler) handleCollectionProducts(w http.ResponseWriter, r *http.Request) {
	handle := r.PathValue("handle")
	if handle == "" || len(handle) > maxHandleLength {
		h.writeError(w, ErrValidation("handle", "handle must be a string of at most 200 characters"))
		return
	}
	handle = security.SanitizeString(handle)

	props, err := h.store.ListByTitleKeywords(r.Context(), collectionKeywords[handle])
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, props)
}
