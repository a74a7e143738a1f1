package security

import (
	"crypto/subtle"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/nbfhomes/listings/internal/util"
)

const (
	// DefaultCSRFTokenTTL is how long an issued token may be consumed.
	DefaultCSRFTokenTTL = 24 * time.Hour

	// DefaultMaxCSRFTokens bounds outstanding tokens to protect against
	// issuance floods from an authenticated attacker.
	DefaultMaxCSRFTokens = 100000

	// csrfSweepEvery throttles the opportunistic sweep run on issuance.
	csrfSweepEvery = time.Minute

	// tokenIDLogLength limits how much of a token ID ever reaches logs.
	tokenIDLogLength = 8

	// csrfTokenDelimiter joins the token ID and secret halves on the wire.
	csrfTokenDelimiter = "."
)

// ErrCSRFStoreFull is returned by Issue when the token table is saturated
// even after sweeping expired records.
var ErrCSRFStoreFull = errors.New("csrf token store is full")

// csrfRecord is one outstanding single-use token bound to a user.
type csrfRecord struct {
	secret   string
	userID   string
	issuedAt time.Time
}

// CSRFStore issues and validates single-use, time-bounded CSRF tokens.
//
// A token is an opaque "tokenID.secret" composite. Validation succeeds at
// most once: the record is deleted the moment it validates, so a replayed
// token fails exactly like one that never existed. All malformed or unknown
// input fails closed without revealing which check failed.
type CSRFStore struct {
	mu     sync.Mutex
	tokens map[string]*csrfRecord

	ttl       time.Duration
	maxTokens int
	lastSweep time.Time
	logger    *slog.Logger

	// Statistics
	totalIssued   atomic.Int64
	totalConsumed atomic.Int64
	totalRejected atomic.Int64
}

// NewCSRFStore creates a token store with the default TTL and size bound.
func NewCSRFStore(logger *slog.Logger) *CSRFStore {
	return NewCSRFStoreWithConfig(DefaultCSRFTokenTTL, DefaultMaxCSRFTokens, logger)
}

// NewCSRFStoreWithConfig creates a token store with a custom TTL and maximum
// outstanding token count. Non-positive values fall back to the defaults.
func NewCSRFStoreWithConfig(ttl time.Duration, maxTokens int, logger *slog.Logger) *CSRFStore {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = DefaultCSRFTokenTTL
		logger.Warn("Invalid CSRF token TTL, using default", "ttl", ttl)
	}
	if maxTokens <= 0 {
		maxTokens = DefaultMaxCSRFTokens
		logger.Warn("Invalid CSRF maxTokens, using default", "maxTokens", maxTokens)
	}

	return &CSRFStore{
		tokens:    make(map[string]*csrfRecord),
		ttl:       ttl,
		maxTokens: maxTokens,
		logger:    logger,
	}
}

// Issue creates a new token bound to userID and returns the wire composite.
// Expired records are swept opportunistically here (throttled) so the table
// stays bounded without a dedicated goroutine.
func (s *CSRFStore) Issue(userID string) (string, error) {
	tokenID := uuid.NewString()
	secret := uuid.NewString()
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepLocked(now)

	if len(s.tokens) >= s.maxTokens {
		s.logger.Error("CSRF token table saturated, refusing issuance",
			"current_count", len(s.tokens),
			"max_tokens", s.maxTokens)
		return "", ErrCSRFStoreFull
	}

	s.tokens[tokenID] = &csrfRecord{
		secret:   secret,
		userID:   userID,
		issuedAt: now,
	}
	s.totalIssued.Add(1)

	s.logger.Debug("issued CSRF token",
		"token_id", util.SafeTruncate(tokenID, tokenIDLogLength))

	return tokenID + csrfTokenDelimiter + secret, nil
}

// Validate consumes a token. It succeeds only if the composite parses, the
// record exists and has not expired, the secret half matches exactly, and
// the token was issued to userID. Success deletes the record so the same
// token can never validate twice.
//
// All failure modes return a bare false: distinguishing "expired" from
// "never existed" would leak which token IDs were once live.
func (s *CSRFStore) Validate(token, userID string) bool {
	parts := strings.Split(token, csrfTokenDelimiter)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		s.reject("malformed")
		return false
	}
	tokenID, secret := parts[0], parts[1]

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.tokens[tokenID]
	if !ok {
		s.reject("unknown")
		return false
	}

	if time.Since(rec.issuedAt) > s.ttl {
		delete(s.tokens, tokenID)
		s.reject("expired")
		return false
	}

	secretOK := subtle.ConstantTimeCompare([]byte(rec.secret), []byte(secret)) == 1
	if !secretOK || rec.userID != userID {
		s.reject("mismatch")
		return false
	}

	// Single use: consume on success to prevent replay.
	delete(s.tokens, tokenID)
	s.totalConsumed.Add(1)

	s.logger.Debug("consumed CSRF token",
		"token_id", util.SafeTruncate(tokenID, tokenIDLogLength))

	return true
}

// reject records a failed validation.
func (s *CSRFStore) reject(reason string) {
	s.totalRejected.Add(1)
	s.logger.Debug("rejected CSRF token", "reason", reason)
}

// sweepLocked removes expired records. Throttled so back-to-back issuance
// does not rescan the table every call. Must be called with the mutex held.
func (s *CSRFStore) sweepLocked(now time.Time) {
	if now.Sub(s.lastSweep) < csrfSweepEvery {
		return
	}
	s.lastSweep = now

	removed := 0
	for tokenID, rec := range s.tokens {
		if now.Sub(rec.issuedAt) > s.ttl {
			delete(s.tokens, tokenID)
			removed++
		}
	}

	if removed > 0 {
		s.logger.Debug("swept expired CSRF tokens",
			"removed", removed,
			"remaining", len(s.tokens))
	}
}

// Len returns the number of outstanding tokens.
func (s *CSRFStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokens)
}

// CSRFStats holds token store counters for monitoring.
type CSRFStats struct {
	Outstanding   int   // tokens issued and not yet consumed or swept
	TotalIssued   int64 // tokens issued since start
	TotalConsumed int64 // tokens successfully validated (and deleted)
	TotalRejected int64 // validation failures of any kind
}

// GetStats returns a snapshot of token store counters.
func (s *CSRFStore) GetStats() CSRFStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return CSRFStats{
		Outstanding:   len(s.tokens),
		TotalIssued:   s.totalIssued.Load(),
		TotalConsumed: s.totalConsumed.Load(),
		TotalRejected: s.totalRejected.Load(),
	}
}
