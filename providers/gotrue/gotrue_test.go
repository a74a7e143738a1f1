package gotrue

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nbfhomes/listings/instrumentation"
)

func TestNewProvider(t *testing.T) {
	if _, err := NewProvider(nil); err == nil {
		t.Error("NewProvider(nil) should fail")
	}
	if _, err := NewProvider(&Config{BaseURL: "https://x.example.com"}); err == nil {
		t.Error("NewProvider without API key should fail")
	}
	p, err := NewProvider(&Config{BaseURL: "https://x.example.com/", APIKey: "key"})
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	if p.baseURL != "https://x.example.com" {
		t.Errorf("baseURL = %q, trailing slash should be trimmed", p.baseURL)
	}
}

func TestProvider_VerifyToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/user" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("apikey") != "anon-key" {
			t.Error("apikey header missing")
		}
		switch r.Header.Get("Authorization") {
		case "Bearer good-token":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"id":"550e8400-e29b-41d4-a716-446655440000","email":"u@example.com","email_confirmed_at":"2026-01-01T00:00:00Z","phone":"9000000000"}`))
		default:
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"message":"invalid token"}`))
		}
	}))
	defer srv.Close()

	p, err := NewProvider(&Config{BaseURL: srv.URL, APIKey: "anon-key"})
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	ctx := context.Background()

	t.Run("valid token", func(t *testing.T) {
		user, err := p.VerifyToken(ctx, "good-token")
		if err != nil {
			t.Fatalf("VerifyToken() error = %v", err)
		}
		if user.ID != "550e8400-e29b-41d4-a716-446655440000" {
			t.Errorf("user.ID = %q", user.ID)
		}
		if !user.EmailVerified {
			t.Error("EmailVerified = false, want true")
		}
	})

	t.Run("rejected token", func(t *testing.T) {
		_, err := p.VerifyToken(ctx, "bad-token")
		if !errors.Is(err, ErrTokenRejected) {
			t.Errorf("VerifyToken() error = %v, want ErrTokenRejected", err)
		}
	})
}

func TestProvider_VerifyToken_MissingUserID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	p, _ := NewProvider(&Config{BaseURL: srv.URL, APIKey: "k"})
	if _, err := p.VerifyToken(context.Background(), "t"); !errors.Is(err, ErrTokenRejected) {
		t.Errorf("VerifyToken() error = %v, want ErrTokenRejected", err)
	}
}

func TestProvider_Instrumented(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/v1/user" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
	}))
	defer srv.Close()

	inst, err := instrumentation.New(instrumentation.Config{ServiceName: "test"})
	if err != nil {
		t.Fatalf("instrumentation.New() error = %v", err)
	}

	p, _ := NewProvider(&Config{BaseURL: srv.URL, APIKey: "k"})
	p.SetInstrumentation(inst)

	// Every call path records: success, rejection, and health probe.
	ctx := context.Background()
	if _, err := p.VerifyToken(ctx, "t"); !errors.Is(err, ErrTokenRejected) {
		t.Errorf("VerifyToken() error = %v, want ErrTokenRejected", err)
	}
	if err := p.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck() error = %v, want nil", err)
	}
}

func TestProvider_HealthCheck(t *testing.T) {
	healthy := true
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/health" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if !healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	defer srv.Close()

	p, _ := NewProvider(&Config{BaseURL: srv.URL, APIKey: "k"})

	if err := p.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v, want nil", err)
	}
	healthy = false
	if err := p.HealthCheck(context.Background()); err == nil {
		t.Error("HealthCheck() should fail when the endpoint is unhealthy")
	}
}
