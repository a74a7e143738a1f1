// Package providers defines the interface for identity providers that vouch
// for bearer tokens, and implements provider-specific clients.
package providers

import "context"

// Provider defines the interface for identity providers. The API never
// issues tokens itself: clients obtain them from a hosted identity service,
// and this interface delegates final token verification to that service.
type Provider interface {
	// Name returns the provider name (e.g., "gotrue", "mock")
	Name() string

	// VerifyToken verifies an access token with the provider and returns
	// the user it belongs to. A non-nil error means the token must be
	// treated as invalid regardless of any local checks that passed.
	VerifyToken(ctx context.Context, accessToken string) (*UserInfo, error)

	// HealthCheck verifies that the provider is reachable and functioning.
	// Useful for readiness probes and startup validation.
	HealthCheck(ctx context.Context) error
}

// UserInfo represents user information from a provider.
type UserInfo struct {
	// ID is the unique user identifier from the provider
	ID string

	// Email is the user's email address
	Email string

	// EmailVerified indicates if the email is verified
	EmailVerified bool

	// Phone is the user's phone number, when the provider has one
	Phone string
}
