// Package listings implements the HTTP facade of the property listing API:
// routing, defensive middleware (rate limiting, CSRF, sanitization), and the
// handlers that bridge requests to storage and the identity provider.
package listings

import (
	"log/slog"
	"time"

	"github.com/nbfhomes/listings/security"
)

// Config holds the HTTP handler configuration.
// Structured using composition for better organization and maintainability.
type Config struct {
	// Cache controls the read-path response cache.
	Cache CacheConfig

	// RateLimit controls per-client request budgets.
	RateLimit RateLimitConfig

	// CSRF controls the single-use token lifecycle on mutating endpoints.
	CSRF CSRFConfig

	// Security holds cross-cutting HTTP security settings.
	Security SecurityConfig

	// Logger for structured logging (optional, uses default if not provided)
	Logger *slog.Logger
}

// CacheConfig holds response cache TTLs per endpoint family.
type CacheConfig struct {
	// ProductListTTL caches the full available-listing set.
	// Default: 10 minutes.
	ProductListTTL time.Duration

	// ProductTTL caches individual listings by handle.
	// Default: 15 minutes.
	ProductTTL time.Duration

	// CollectionTTL caches collections and per-collection listings.
	// Default: 30 minutes.
	CollectionTTL time.Duration
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	// Window is the fixed counting window shared by all endpoint classes.
	// Default: 1 minute.
	Window time.Duration

	// Limits are per-class request ceilings within one window.
	// Defaults to security.DefaultClassLimits.
	Limits map[security.EndpointClass]security.ClassLimit

	// MaxEntries bounds tracked (client, class) pairs. Default: 10000.
	MaxEntries int

	// TrustProxy enables trusting CF-Connecting-IP, X-Forwarded-For, and
	// X-Real-IP. Only enable behind a trusted reverse proxy.
	TrustProxy bool
}

// CSRFConfig holds the single-use token settings.
type CSRFConfig struct {
	// TokenTTL is how long an issued token may be consumed.
	// Default: 24 hours.
	TokenTTL time.Duration

	// MaxTokens bounds outstanding tokens. Default: 100000.
	MaxTokens int
}

// SecurityConfig holds cross-cutting HTTP security settings.
type SecurityConfig struct {
	// AllowedOrigins are the origins granted CORS access.
	AllowedOrigins []string

	// AdminCheckOrigins restricts which request origins may call the
	// public admin-check endpoint. Empty means same defaults as
	// AllowedOrigins.
	AdminCheckOrigins []string

	// AuditEnabled turns on security event logging.
	AuditEnabled bool
}

// DefaultConfig returns a configuration with production defaults.
func DefaultConfig() Config {
	return Config{
		Cache: CacheConfig{
			ProductListTTL: 10 * time.Minute,
			ProductTTL:     15 * time.Minute,
			CollectionTTL:  30 * time.Minute,
		},
		RateLimit: RateLimitConfig{
			Window:     security.DefaultWindow,
			Limits:     security.DefaultClassLimits,
			MaxEntries: security.DefaultMaxEntries,
		},
		CSRF: CSRFConfig{
			TokenTTL:  security.DefaultCSRFTokenTTL,
			MaxTokens: security.DefaultMaxCSRFTokens,
		},
		Security: SecurityConfig{
			AuditEnabled: true,
		},
	}
}

// applyDefaults fills zero-valued fields with production defaults.
func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.Cache.ProductListTTL <= 0 {
		c.Cache.ProductListTTL = def.Cache.ProductListTTL
	}
	if c.Cache.ProductTTL <= 0 {
		c.Cache.ProductTTL = def.Cache.ProductTTL
	}
	if c.Cache.CollectionTTL <= 0 {
		c.Cache.CollectionTTL = def.Cache.CollectionTTL
	}
	if c.RateLimit.Window <= 0 {
		c.RateLimit.Window = def.RateLimit.Window
	}
	if len(c.RateLimit.Limits) == 0 {
		c.RateLimit.Limits = def.RateLimit.Limits
	}
	if c.RateLimit.MaxEntries <= 0 {
		c.RateLimit.MaxEntries = def.RateLimit.MaxEntries
	}
	if c.CSRF.TokenTTL <= 0 {
		c.CSRF.TokenTTL = def.CSRF.TokenTTL
	}
	if c.CSRF.MaxTokens <= 0 {
		c.CSRF.MaxTokens = def.CSRF.MaxTokens
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}
