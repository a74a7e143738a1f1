package listings

import "github.com/nbfhomes/listings/storage"

// SearchRequest is the body of the filtered listing search.
type SearchRequest struct {
	Query        string   `json:"query,omitempty"`
	SortKey      string   `json:"sortKey,omitempty"`
	Reverse      bool     `json:"reverse,omitempty"`
	Limit        *float64 `json:"limit,omitempty"`
	MinPrice     string   `json:"minPrice,omitempty"`
	MaxPrice     string   `json:"maxPrice,omitempty"`
	Location     string   `json:"location,omitempty"`
	PropertyType string   `json:"propertyType,omitempty"`
	Amenities    []string `json:"amenities,omitempty"`
}

// PropertyRequest is the body for creating or replacing a listing.
type PropertyRequest struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Price         string   `json:"price"`
	Address       string   `json:"address"`
	Location      string   `json:"location"`
	Type          string   `json:"type"`
	Images        []string `json:"images"`
	ContactNumber string   `json:"contactNumber"`
}

// StatusRequest is the body of the admin availability toggle.
type StatusRequest struct {
	AvailableForSale bool `json:"availableForSale"`
}

// successResponse acknowledges a mutation with no payload to return.
type successResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// csrfTokenResponse carries a freshly issued token.
type csrfTokenResponse struct {
	CSRFToken string `json:"csrfToken"`
}

// adminCheckResponse is the public admin-check answer. Failures carry a
// reason but never a status code that would distinguish them.
type adminCheckResponse struct {
	IsAdmin bool   `json:"isAdmin"`
	Error   string `json:"error,omitempty"`
}

// adminProductsResponse is one page of the administrative listing view.
type adminProductsResponse struct {
	Products []*storage.Property `json:"products"`
	Total    int                 `json:"total"`
	Page     int                 `json:"page"`
	Limit    int                 `json:"limit"`
}

// adminUsersResponse is one page of aggregated owner statistics.
type adminUsersResponse struct {
	Users []*storage.OwnerStats `json:"users"`
	Total int                   `json:"total"`
	Page  int                   `json:"page"`
	Limit int                   `json:"limit"`
}

// realtimeResponse advertises the notification feeds the storefront may
// subscribe to. The transport itself is not served here.
type realtimeResponse struct {
	Message  string   `json:"message"`
	Features []string `json:"features"`
}

// healthResponse reports service liveness.
type healthResponse struct {
	Status    string  `json:"status"`
	Timestamp string  `json:"timestamp"`
	Uptime    float64 `json:"uptime"`
}

// Cart shapes are static placeholders kept for frontend compatibility: the
// storefront expects a cart API even though listings are not purchasable.
type cartMoney struct {
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currencyCode"`
}

type cartCost struct {
	SubtotalAmount cartMoney `json:"subtotalAmount"`
	TotalAmount    cartMoney `json:"totalAmount"`
}

type cartResponse struct {
	ID            string     `json:"id"`
	Lines         []struct{} `json:"lines"`
	Cost          cartCost   `json:"cost"`
	TotalQuantity int        `json:"totalQuantity"`
}

// emptyCart is the placeholder payload served by both cart endpoints.
func emptyCart() cartResponse {
	zero := cartMoney{Amount: "0", CurrencyCode: "INR"}
	return cartResponse{
		ID:    "cart_mock",
		Lines: []struct{}{},
		Cost:  cartCost{SubtotalAmount: zero, TotalAmount: zero},
	}
}
