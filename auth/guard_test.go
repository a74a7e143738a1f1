package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nbfhomes/listings/providers"
	"github.com/nbfhomes/listings/providers/mock"
	"github.com/nbfhomes/listings/storage"
	"github.com/nbfhomes/listings/storage/memory"
)

const adminUUID = "550e8400-e29b-41d4-a716-446655440000"

// testToken builds a syntactically valid unsigned token with the given
// expiry. A zero expiry omits the claim.
func testToken(sub string, exp time.Time) string {
	claims := map[string]any{"sub": sub}
	if !exp.IsZero() {
		claims["exp"] = exp.Unix()
	}
	payload, _ := json.Marshal(claims)
	enc := base64.RawURLEncoding
	return fmt.Sprintf("%s.%s.%s",
		enc.EncodeToString([]byte(`{"alg":"none"}`)),
		enc.EncodeToString(payload),
		enc.EncodeToString([]byte("sig")))
}

func newGuard(t *testing.T) (*Guard, *mock.MockProvider, *memory.Store) {
	t.Helper()
	provider := mock.NewMockProvider()
	store := memory.NewStore(nil)
	return NewGuard(provider, store, store, nil), provider, store
}

func TestGuard_Verify(t *testing.T) {
	ctx := context.Background()

	t.Run("missing token", func(t *testing.T) {
		g, provider, _ := newGuard(t)
		if _, err := g.Verify(ctx, ""); !errors.Is(err, ErrMissingToken) {
			t.Errorf("Verify() error = %v, want ErrMissingToken", err)
		}
		if provider.Calls("VerifyToken") != 0 {
			t.Error("provider should not be consulted for a missing token")
		}
	})

	t.Run("malformed tokens", func(t *testing.T) {
		g, provider, _ := newGuard(t)
		for _, token := range []string{
			"no-dots",
			"two.segments",
			"a.b.c.d",
			"head.!!!not-base64!!!.sig",
			"head." + base64.RawURLEncoding.EncodeToString([]byte("not json")) + ".sig",
		} {
			if _, err := g.Verify(ctx, token); !errors.Is(err, ErrMalformedToken) {
				t.Errorf("Verify(%q) error = %v, want ErrMalformedToken", token, err)
			}
		}
		if provider.Calls("VerifyToken") != 0 {
			t.Error("provider should not be consulted for malformed tokens")
		}
	})

	t.Run("expired token skips provider", func(t *testing.T) {
		g, provider, _ := newGuard(t)
		token := testToken("u1", time.Now().Add(-time.Hour))
		if _, err := g.Verify(ctx, token); !errors.Is(err, ErrTokenExpired) {
			t.Errorf("Verify() error = %v, want ErrTokenExpired", err)
		}
		if provider.Calls("VerifyToken") != 0 {
			t.Error("provider must not be consulted for a locally expired token")
		}
	})

	t.Run("provider rejection", func(t *testing.T) {
		g, provider, _ := newGuard(t)
		provider.VerifyTokenFunc = func(ctx context.Context, accessToken string) (*providers.UserInfo, error) {
			return nil, errors.New("provider says no")
		}
		token := testToken("u1", time.Now().Add(time.Hour))
		if _, err := g.Verify(ctx, token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Verify() error = %v, want ErrInvalidToken", err)
		}
	})

	t.Run("suspended account", func(t *testing.T) {
		g, provider, store := newGuard(t)
		provider.VerifyTokenFunc = func(ctx context.Context, accessToken string) (*providers.UserInfo, error) {
			return &providers.UserInfo{ID: "u-suspended"}, nil
		}
		store.SetUserStatus("u-suspended", storage.UserStatusSuspended)

		token := testToken("u-suspended", time.Now().Add(time.Hour))
		if _, err := g.Verify(ctx, token); !errors.Is(err, ErrAccountSuspended) {
			t.Errorf("Verify() error = %v, want ErrAccountSuspended", err)
		}
	})

	t.Run("unknown local account proceeds", func(t *testing.T) {
		g, _, _ := newGuard(t)
		token := testToken("u1", time.Now().Add(time.Hour))
		user, err := g.Verify(ctx, token)
		if err != nil {
			t.Fatalf("Verify() error = %v", err)
		}
		if user.ID != "mock-user-123" {
			t.Errorf("user.ID = %q", user.ID)
		}
	})

	t.Run("active account", func(t *testing.T) {
		g, _, store := newGuard(t)
		store.SetUserStatus("mock-user-123", storage.UserStatusActive)
		token := testToken("u1", time.Now().Add(time.Hour))
		if _, err := g.Verify(ctx, token); err != nil {
			t.Errorf("Verify() error = %v, want nil", err)
		}
	})

	t.Run("token without exp claim reaches provider", func(t *testing.T) {
		g, provider, _ := newGuard(t)
		if _, err := g.Verify(ctx, testToken("u1", time.Time{})); err != nil {
			t.Errorf("Verify() error = %v, want nil", err)
		}
		if provider.Calls("VerifyToken") != 1 {
			t.Error("provider should be consulted when no expiry claim exists")
		}
	})
}

func TestGuard_VerifyAdmin(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		header  string
		seed    bool
		wantErr error
	}{
		{"missing header", "", false, ErrMissingAdminID},
		{"not a uuid", "admin!", false, ErrInvalidAdminID},
		{"not on allow-list", adminUUID, false, ErrAdminRequired},
		{"on allow-list", adminUUID, true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, _, store := newGuard(t)
			if tt.seed {
				store.SetAdmin(adminUUID, true)
			}
			r := httptest.NewRequest("GET", "/admin/stats", nil)
			if tt.header != "" {
				r.Header.Set(AdminIDHeader, tt.header)
			}

			got, err := g.VerifyAdmin(ctx, r)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("VerifyAdmin() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && got != adminUUID {
				t.Errorf("VerifyAdmin() = %q, want %q", got, adminUUID)
			}
		})
	}
}

func TestGuard_IsAdmin(t *testing.T) {
	g, _, store := newGuard(t)
	ctx := context.Background()

	if g.IsAdmin(ctx, adminUUID) {
		t.Error("IsAdmin() = true for unknown user")
	}
	store.SetAdmin(adminUUID, true)
	if !g.IsAdmin(ctx, adminUUID) {
		t.Error("IsAdmin() = false for allow-listed user")
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"no header", "", ""},
		{"bearer", "Bearer abc.def.ghi", "abc.def.ghi"},
		{"case insensitive scheme", "bearer tok.en.x", "tok.en.x"},
		{"wrong scheme", "Basic dXNlcjpwYXNz", ""},
		{"scheme only", "Bearer", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			if got := BearerToken(r); got != tt.want {
				t.Errorf("BearerToken() = %q, want %q", got, tt.want)
			}
		})
	}
}
