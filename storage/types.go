package storage

import "time"

// Money is an amount in a named currency. The amount stays a string end to
// end so listing prices round-trip without float formatting drift.
type Money struct {
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currencyCode"`
}

// Image is a listing photo with display metadata.
type Image struct {
	URL     string `json:"url"`
	AltText string `json:"altText"`
	Width   int    `json:"width,omitempty"`
	Height  int    `json:"height,omitempty"`
}

// PriceRange spans the cheapest and most expensive variant of a listing.
type PriceRange struct {
	MinVariantPrice Money `json:"minVariantPrice"`
	MaxVariantPrice Money `json:"maxVariantPrice"`
}

// SEO carries the metadata block served to crawlers for one listing.
type SEO struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Option is a named axis of variation (e.g. furnishing) with its values.
type Option struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// SelectedOption pins one option to a concrete value on a variant.
type SelectedOption struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Variant is one purchasable configuration of a listing.
type Variant struct {
	ID               string           `json:"id"`
	Title            string           `json:"title"`
	Price            Money            `json:"price"`
	AvailableForSale bool             `json:"availableForSale"`
	SelectedOptions  []SelectedOption `json:"selectedOptions"`
}

// Property is one rental listing. The JSON field names match the catalog
// shape the storefront consumes, so handlers can serve stored records
// without a mapping layer.
type Property struct {
	ID               string     `json:"id"`
	Handle           string     `json:"handle"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	PriceRange       PriceRange `json:"priceRange"`
	CurrencyCode     string     `json:"currencyCode"`
	SEO              SEO        `json:"seo"`
	FeaturedImage    Image      `json:"featuredImage"`
	Images           []Image    `json:"images"`
	Options          []Option   `json:"options"`
	Variants         []Variant  `json:"variants"`
	Tags             []string   `json:"tags"`
	AvailableForSale bool       `json:"availableForSale"`
	UserID           string     `json:"userId,omitempty"`
	ContactNumber    string     `json:"contactNumber,omitempty"`
	CategoryID       string     `json:"categoryId,omitempty"`
	CreatedAt        time.Time  `json:"-"`
}

// Collection is a curated grouping of listings addressed by handle.
type Collection struct {
	ID          string    `json:"id"`
	Handle      string    `json:"handle"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Path        string    `json:"path"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// SortKey selects the ordering of a filtered listing query.
type SortKey string

const (
	SortPrice     SortKey = "PRICE"
	SortCreatedAt SortKey = "CREATED_AT"
	SortRelevance SortKey = "RELEVANCE"
)

// ValidSortKey reports whether k is one of the accepted sort keys.
func ValidSortKey(k SortKey) bool {
	switch k {
	case SortPrice, SortCreatedAt, SortRelevance:
		return true
	}
	return false
}

// Sort pairs a sort key with its direction. A zero Sort means newest first.
type Sort struct {
	Key     SortKey
	Reverse bool
}

// PropertyFilter narrows a listing query. Zero-valued fields do not filter.
// MinPrice and MaxPrice apply to the minimum variant price. Location,
// PropertyType, and Amenities all match against listing tags.
type PropertyFilter struct {
	Query         string
	MinPrice      *float64
	MaxPrice      *float64
	Location      string
	PropertyType  string
	Amenities     []string
	AvailableOnly bool
}

// Page is a 1-based page request.
type Page struct {
	Number int
	Size   int
}

// Offset returns the number of records preceding this page.
func (p Page) Offset() int {
	if p.Number < 1 {
		return 0
	}
	return (p.Number - 1) * p.Size
}

// AdminFilter narrows the administrative listing view. Search matches title,
// description, or contact number. Status is "all", "active", or "inactive".
type AdminFilter struct {
	Search string
	Status string
	Page   Page
}

// MarketStats is the aggregate snapshot served to the admin dashboard.
type MarketStats struct {
	Total  int `json:"total"`
	Active int `json:"active"`
	Users  int `json:"users"`
}

// OwnerStats aggregates the listings belonging to one owner.
type OwnerStats struct {
	UserID           string `json:"userId"`
	ContactNumber    string `json:"contactNumber"`
	TotalProperties  int    `json:"totalProperties"`
	ActiveProperties int    `json:"activeProperties"`
}

// User status values recognized by the authentication guard.
const (
	UserStatusActive    = "active"
	UserStatusSuspended = "suspended"
)
