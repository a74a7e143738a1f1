package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a record does not exist. Ownership-filtered
// mutations also return it when the record exists but belongs to someone
// else: callers must not be able to distinguish the two cases.
var ErrNotFound = errors.New("record not found")

// PropertyStore defines the interface for reading and mutating listings.
// All methods accept context.Context for tracing and cancellation.
type PropertyStore interface {
	// List returns listings matching filter, ordered by sort. A limit of 0
	// means no limit.
	List(ctx context.Context, filter PropertyFilter, sort Sort, limit int) ([]*Property, error)

	// GetByHandle retrieves one available listing by its URL handle.
	GetByHandle(ctx context.Context, handle string) (*Property, error)

	// ListByUser retrieves every listing owned by userID, available or not.
	ListByUser(ctx context.Context, userID string) ([]*Property, error)

	// ListByTitleKeywords retrieves available listings whose title contains
	// any of the keywords (case-insensitive). Empty keywords match all
	// available listings.
	ListByTitleKeywords(ctx context.Context, keywords []string) ([]*Property, error)

	// Insert stores a new listing.
	Insert(ctx context.Context, p *Property) error

	// Update replaces the mutable fields of the listing with id, but only
	// if it is owned by ownerID. Returns ErrNotFound when no row matches.
	Update(ctx context.Context, id, ownerID string, p *Property) (*Property, error)

	// Delete removes the listing with id, but only if it is owned by
	// ownerID. Returns ErrNotFound when no row matches.
	Delete(ctx context.Context, id, ownerID string) error

	// AdminDelete removes a listing regardless of ownership.
	AdminDelete(ctx context.Context, id string) error

	// SetAvailability toggles a listing's availability regardless of
	// ownership and returns the updated record.
	SetAvailability(ctx context.Context, id string, available bool) (*Property, error)

	// AdminList returns one page of the administrative view plus the total
	// number of matching listings.
	AdminList(ctx context.Context, filter AdminFilter) ([]*Property, int, error)

	// Stats returns aggregate counts for the admin dashboard.
	Stats(ctx context.Context) (*MarketStats, error)

	// OwnerStats aggregates per-owner listing counts across all listings.
	OwnerStats(ctx context.Context) ([]*OwnerStats, error)
}

// CollectionStore defines the interface for reading curated collections.
type CollectionStore interface {
	// ListCollections returns all collections.
	ListCollections(ctx context.Context) ([]*Collection, error)

	// GetCollection retrieves one collection by handle.
	GetCollection(ctx context.Context, handle string) (*Collection, error)
}

// UserStore exposes the account records consulted by the authentication
// guard after the identity provider has vouched for a token.
type UserStore interface {
	// GetUserStatus returns the local account status for userID, for
	// example "active" or "suspended". Returns ErrNotFound for accounts
	// the provider knows but the local table does not.
	GetUserStatus(ctx context.Context, userID string) (string, error)
}

// AdminStore exposes the allow-list of administrator accounts.
type AdminStore interface {
	// IsAdmin reports whether userID is on the administrator allow-list.
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

// Store aggregates every persistence concern behind one backend.
type Store interface {
	PropertyStore
	CollectionStore
	UserStore
	AdminStore

	// Close releases backend resources.
	Close() error
}
