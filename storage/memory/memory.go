package memory

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/nbfhomes/listings/storage"
)

// Store is an in-memory implementation of all storage interfaces.
type Store struct {
	mu sync.RWMutex

	properties  map[string]*storage.Property  // listing ID -> listing
	collections map[string]*storage.Collection // handle -> collection
	userStatus  map[string]string              // user ID -> account status
	admins      map[string]bool                // user ID -> on allow-list

	logger *slog.Logger
}

// Compile-time interface checks.
var (
	_ storage.PropertyStore   = (*Store)(nil)
	_ storage.CollectionStore = (*Store)(nil)
	_ storage.UserStore       = (*Store)(nil)
	_ storage.AdminStore      = (*Store)(nil)
	_ storage.Store           = (*Store)(nil)
)

// NewStore creates a new in-memory store.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		properties:  make(map[string]*storage.Property),
		collections: make(map[string]*storage.Collection),
		userStatus:  make(map[string]string),
		admins:      make(map[string]bool),
		logger:      logger,
	}
}

// List returns listings matching filter, ordered by sort.
func (s *Store) List(ctx context.Context, filter storage.PropertyFilter, srt storage.Sort, limit int) ([]*storage.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*storage.Property
	for _, p := range s.properties {
		if matchesFilter(p, filter) {
			result = append(result, cloneProperty(p))
		}
	}

	sortProperties(result, srt)

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// GetByHandle retrieves one available listing by handle.
func (s *Store) GetByHandle(ctx context.Context, handle string) (*storage.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.properties {
		if p.Handle == handle && p.AvailableForSale {
			return cloneProperty(p), nil
		}
	}
	return nil, storage.ErrNotFound
}

// ListByUser retrieves every listing owned by userID, available or not.
func (s *Store) ListByUser(ctx context.Context, userID string) ([]*storage.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []*storage.Property{}
	for _, p := range s.properties {
		if p.UserID == userID {
			result = append(result, cloneProperty(p))
		}
	}
	sortProperties(result, storage.Sort{})
	return result, nil
}

// ListByTitleKeywords retrieves available listings whose title contains any
// of the keywords, case-insensitively.
func (s *Store) ListByTitleKeywords(ctx context.Context, keywords []string) ([]*storage.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []*storage.Property{}
	for _, p := range s.properties {
		if !p.AvailableForSale {
			continue
		}
		if len(keywords) == 0 || titleContainsAny(p.Title, keywords) {
			result = append(result, cloneProperty(p))
		}
	}
	sortProperties(result, storage.Sort{})
	return result, nil
}

// Insert stores a new listing.
func (s *Store) Insert(ctx context.Context, p *storage.Property) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	s.properties[p.ID] = cloneProperty(p)

	s.logger.Debug("inserted listing", "id", p.ID, "handle", p.Handle)
	return nil
}

// Update replaces the mutable fields of an owned listing.
func (s *Store) Update(ctx context.Context, id, ownerID string, p *storage.Property) (*storage.Property, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.properties[id]
	if !ok || existing.UserID != ownerID {
		return nil, storage.ErrNotFound
	}

	updated := cloneProperty(p)
	updated.ID = existing.ID
	updated.Handle = existing.Handle
	updated.UserID = existing.UserID
	updated.CurrencyCode = existing.CurrencyCode
	updated.AvailableForSale = existing.AvailableForSale
	updated.CreatedAt = existing.CreatedAt
	s.properties[id] = updated

	return cloneProperty(updated), nil
}

// Delete removes an owned listing.
func (s *Store) Delete(ctx context.Context, id, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.properties[id]
	if !ok || existing.UserID != ownerID {
		return storage.ErrNotFound
	}
	delete(s.properties, id)
	return nil
}

// AdminDelete removes a listing regardless of ownership.
func (s *Store) AdminDelete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.properties[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.properties, id)
	return nil
}

// SetAvailability toggles a listing's availability.
func (s *Store) SetAvailability(ctx context.Context, id string, available bool) (*storage.Property, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.properties[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	p.AvailableForSale = available
	return cloneProperty(p), nil
}

// AdminList returns one page of the administrative view plus the total
// number of matching listings.
func (s *Store) AdminList(ctx context.Context, filter storage.AdminFilter) ([]*storage.Property, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*storage.Property
	for _, p := range s.properties {
		if matchesAdminFilter(p, filter) {
			matched = append(matched, cloneProperty(p))
		}
	}
	sortProperties(matched, storage.Sort{})

	total := len(matched)
	start := filter.Page.Offset()
	if start > total {
		start = total
	}
	end := start + filter.Page.Size
	if filter.Page.Size <= 0 || end > total {
		end = total
	}
	return matched[start:end], total, nil
}

// Stats returns aggregate listing counts.
func (s *Store) Stats(ctx context.Context) (*storage.MarketStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &storage.MarketStats{}
	owners := make(map[string]struct{})
	for _, p := range s.properties {
		stats.Total++
		if p.AvailableForSale {
			stats.Active++
		}
		if p.UserID != "" {
			owners[p.UserID] = struct{}{}
		}
	}
	stats.Users = len(owners)
	return stats, nil
}

// OwnerStats aggregates per-owner listing counts across all listings.
func (s *Store) OwnerStats(ctx context.Context) ([]*storage.OwnerStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byOwner := make(map[string]*storage.OwnerStats)
	for _, p := range s.properties {
		if p.UserID == "" {
			continue
		}
		st, ok := byOwner[p.UserID]
		if !ok {
			st = &storage.OwnerStats{UserID: p.UserID, ContactNumber: "N/A"}
			byOwner[p.UserID] = st
		}
		st.TotalProperties++
		if p.AvailableForSale {
			st.ActiveProperties++
		}
		if st.ContactNumber == "N/A" && p.ContactNumber != "" {
			st.ContactNumber = p.ContactNumber
		}
	}

	result := make([]*storage.OwnerStats, 0, len(byOwner))
	for _, st := range byOwner {
		result = append(result, st)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UserID < result[j].UserID })
	return result, nil
}

// ListCollections returns all collections.
func (s *Store) ListCollections(ctx context.Context) ([]*storage.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*storage.Collection, 0, len(s.collections))
	for _, c := range s.collections {
		clone := *c
		result = append(result, &clone)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Handle < result[j].Handle })
	return result, nil
}

// GetCollection retrieves one collection by handle.
func (s *Store) GetCollection(ctx context.Context, handle string) (*storage.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[handle]
	if !ok {
		return nil, storage.ErrNotFound
	}
	clone := *c
	return &clone, nil
}

// GetUserStatus returns the local account status for userID.
func (s *Store) GetUserStatus(ctx context.Context, userID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status, ok := s.userStatus[userID]
	if !ok {
		return "", storage.ErrNotFound
	}
	return status, nil
}

// IsAdmin reports whether userID is on the administrator allow-list.
func (s *Store) IsAdmin(ctx context.Context, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.admins[userID], nil
}

// Close releases backend resources. For the in-memory store it is a no-op.
func (s *Store) Close() error {
	return nil
}

// SetCollection adds or replaces a collection. Used for seeding.
func (s *Store) SetCollection(c *storage.Collection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *c
	s.collections[c.Handle] = &clone
}

// SetUserStatus records a local account status. Used for seeding.
func (s *Store) SetUserStatus(userID, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userStatus[userID] = status
}

// SetAdmin adds or removes a user from the administrator allow-list.
// Used for seeding.
func (s *Store) SetAdmin(userID string, isAdmin bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if isAdmin {
		s.admins[userID] = true
	} else {
		delete(s.admins, userID)
	}
}

func matchesFilter(p *storage.Property, f storage.PropertyFilter) bool {
	if f.AvailableOnly && !p.AvailableForSale {
		return false
	}
	if f.Query != "" && !containsFold(p.Title, f.Query) && !containsFold(p.Description, f.Query) {
		return false
	}
	if f.MinPrice != nil || f.MaxPrice != nil {
		price, ok := minVariantAmount(p)
		if !ok {
			return false
		}
		if f.MinPrice != nil && price < *f.MinPrice {
			return false
		}
		if f.MaxPrice != nil && price > *f.MaxPrice {
			return false
		}
	}
	if f.Location != "" && !tagsContain(p.Tags, f.Location) {
		return false
	}
	if f.PropertyType != "" && !tagsContain(p.Tags, f.PropertyType) {
		return false
	}
	for _, amenity := range f.Amenities {
		if !tagsContain(p.Tags, amenity) {
			return false
		}
	}
	return true
}

func matchesAdminFilter(p *storage.Property, f storage.AdminFilter) bool {
	if f.Search != "" &&
		!containsFold(p.Title, f.Search) &&
		!containsFold(p.Description, f.Search) &&
		!containsFold(p.ContactNumber, f.Search) {
		return false
	}
	switch f.Status {
	case "active":
		return p.AvailableForSale
	case "inactive":
		return !p.AvailableForSale
	}
	return true
}

// sortProperties orders listings per the sort key. The zero Sort and
// SortRelevance both order newest first.
func sortProperties(ps []*storage.Property, srt storage.Sort) {
	switch srt.Key {
	case storage.SortPrice:
		sort.Slice(ps, func(i, j int) bool {
			pi, _ := minVariantAmount(ps[i])
			pj, _ := minVariantAmount(ps[j])
			if srt.Reverse {
				return pi > pj
			}
			return pi < pj
		})
	case storage.SortCreatedAt:
		sort.Slice(ps, func(i, j int) bool {
			if srt.Reverse {
				return ps[i].CreatedAt.After(ps[j].CreatedAt)
			}
			return ps[i].CreatedAt.Before(ps[j].CreatedAt)
		})
	default:
		sort.Slice(ps, func(i, j int) bool {
			if !ps[i].CreatedAt.Equal(ps[j].CreatedAt) {
				return ps[i].CreatedAt.After(ps[j].CreatedAt)
			}
			return ps[i].ID > ps[j].ID
		})
	}
}

func minVariantAmount(p *storage.Property) (float64, bool) {
	v, err := strconv.ParseFloat(p.PriceRange.MinVariantPrice.Amount, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func tagsContain(tags []string, needle string) bool {
	for _, tag := range tags {
		if containsFold(tag, needle) {
			return true
		}
	}
	return false
}

func titleContainsAny(title string, keywords []string) bool {
	for _, kw := range keywords {
		if containsFold(title, kw) {
			return true
		}
	}
	return false
}

func cloneProperty(p *storage.Property) *storage.Property {
	clone := *p
	clone.Images = append([]storage.Image(nil), p.Images...)
	clone.Options = append([]storage.Option(nil), p.Options...)
	clone.Variants = append([]storage.Variant(nil), p.Variants...)
	clone.Tags = append([]string(nil), p.Tags...)
	return &clone
}
