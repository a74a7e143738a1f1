// Package mock provides mock implementations of the Provider interface for
// testing.
package mock

import (
	"context"
	"sync"

	"github.com/nbfhomes/listings/providers"
)

// MockProvider is a mock implementation of the Provider interface.
type MockProvider struct {
	// NameFunc is called when Name() is invoked
	NameFunc func() string

	// VerifyTokenFunc is called when VerifyToken() is invoked
	VerifyTokenFunc func(ctx context.Context, accessToken string) (*providers.UserInfo, error)

	// HealthCheckFunc is called when HealthCheck() is invoked
	HealthCheckFunc func(ctx context.Context) error

	// CallCounts tracks how many times each method was called
	CallCounts map[string]int

	mu sync.Mutex
}

var _ providers.Provider = (*MockProvider)(nil)

// NewMockProvider creates a new mock provider with default implementations.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		CallCounts: make(map[string]int),
		NameFunc: func() string {
			return "mock"
		},
		VerifyTokenFunc: func(ctx context.Context, accessToken string) (*providers.UserInfo, error) {
			return &providers.UserInfo{
				ID:            "mock-user-123",
				Email:         "mock@example.com",
				EmailVerified: true,
			}, nil
		},
		HealthCheckFunc: func(ctx context.Context) error {
			return nil
		},
	}
}

// Name returns the provider name.
func (m *MockProvider) Name() string {
	m.mu.Lock()
	m.CallCounts["Name"]++
	fn := m.NameFunc
	m.mu.Unlock()

	if fn == nil {
		return "mock"
	}
	return fn()
}

// VerifyToken verifies an access token.
func (m *MockProvider) VerifyToken(ctx context.Context, accessToken string) (*providers.UserInfo, error) {
	m.mu.Lock()
	m.CallCounts["VerifyToken"]++
	fn := m.VerifyTokenFunc
	m.mu.Unlock()

	if fn == nil {
		return &providers.UserInfo{ID: "mock-user-123"}, nil
	}
	return fn(ctx, accessToken)
}

// HealthCheck verifies the provider is reachable.
func (m *MockProvider) HealthCheck(ctx context.Context) error {
	m.mu.Lock()
	m.CallCounts["HealthCheck"]++
	fn := m.HealthCheckFunc
	m.mu.Unlock()

	if fn == nil {
		return nil
	}
	return fn(ctx)
}

// Calls returns how many times the named method was invoked.
func (m *MockProvider) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CallCounts[method]
}
