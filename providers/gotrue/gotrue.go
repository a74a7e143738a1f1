package gotrue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/nbfhomes/listings/instrumentation"
	"github.com/nbfhomes/listings/providers"
)

// DefaultTimeout bounds verification calls when the caller's context has no
// earlier deadline.
const DefaultTimeout = 10 * time.Second

// ErrTokenRejected is returned when the identity service explicitly refuses
// the token (as opposed to being unreachable).
var ErrTokenRejected = errors.New("identity provider rejected token")

// Config holds GoTrue provider configuration.
type Config struct {
	// BaseURL is the project base, e.g. "https://myproject.supabase.co".
	// The auth path is appended internally.
	BaseURL string

	// APIKey is the publishable API key sent alongside every request.
	APIKey string

	// HTTPClient optionally overrides the default client.
	HTTPClient *http.Client
}

// Provider verifies bearer tokens against a GoTrue user endpoint.
type Provider struct {
	baseURL string
	apiKey  string
	client  *http.Client
	inst    *instrumentation.Instrumentation
}

var _ providers.Provider = (*Provider)(nil)

// NewProvider creates a GoTrue provider.
func NewProvider(cfg *Config) (*Provider, error) {
	if cfg == nil || cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}

	return &Provider{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  client,
	}, nil
}

// SetInstrumentation attaches metrics. Optional; calls are unrecorded
// without it.
func (p *Provider) SetInstrumentation(inst *instrumentation.Instrumentation) {
	p.inst = inst
}

// observe records one identity API call's outcome and duration.
func (p *Provider) observe(ctx context.Context, op string, start time.Time, err error) {
	if p.inst == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("provider", "gotrue"),
		attribute.String("operation", op),
	)
	p.inst.Metrics().ProviderAPICallsTotal.Add(ctx, 1, attrs)
	p.inst.Metrics().ProviderAPIDuration.Record(ctx,
		float64(time.Since(start).Microseconds())/1000.0, attrs)
	if err != nil {
		p.inst.Metrics().ProviderAPIErrors.Add(ctx, 1, attrs)
	}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "gotrue"
}

// VerifyToken asks the identity service who the token belongs to. Any
// non-200 answer rejects the token; transport failures surface as their own
// errors so callers can distinguish "bad token" from "provider down".
func (p *Provider) VerifyToken(ctx context.Context, accessToken string) (info *providers.UserInfo, err error) {
	defer func(start time.Time) { p.observe(ctx, "verify_token", start, err) }(time.Now())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build user request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("apikey", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach identity provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrTokenRejected, resp.StatusCode)
	}

	var user struct {
		ID               string `json:"id"`
		Email            string `json:"email"`
		EmailConfirmedAt string `json:"email_confirmed_at"`
		Phone            string `json:"phone"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}
	if user.ID == "" {
		return nil, fmt.Errorf("%w: response missing user id", ErrTokenRejected)
	}

	return &providers.UserInfo{
		ID:            user.ID,
		Email:         user.Email,
		EmailVerified: user.EmailConfirmedAt != "",
		Phone:         user.Phone,
	}, nil
}

// HealthCheck probes the auth health endpoint.
func (p *Provider) HealthCheck(ctx context.Context) (err error) {
	defer func(start time.Time) { p.observe(ctx, "health_check", start, err) }(time.Now())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/auth/v1/health", nil)
	if err != nil {
		return fmt.Errorf("failed to build health request: %w", err)
	}
	req.Header.Set("apikey", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("identity provider unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("identity provider health check failed with status %d", resp.StatusCode)
	}
	return nil
}
