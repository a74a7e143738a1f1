package security

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGenerateRequestID(t *testing.T) {
	id := GenerateRequestID()
	if len(id) != 22 {
		t.Errorf("GenerateRequestID() length = %d, want 22", len(id))
	}
	if id == GenerateRequestID() {
		t.Error("two generated IDs should differ")
	}
	if !requestIDPattern.MatchString(id) {
		t.Errorf("generated ID %q does not satisfy its own pattern", id)
	}
}

func TestRequestIDContext(t *testing.T) {
	ctx := WithRequestID(context.Background(), "abc123")
	if got := GetRequestID(ctx); got != "abc123" {
		t.Errorf("GetRequestID() = %q, want %q", got, "abc123")
	}
	if got := GetRequestID(context.Background()); got != "" {
		t.Errorf("GetRequestID() on empty context = %q, want empty", got)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	tests := []struct {
		name     string
		upstream string
		keeps    bool
	}{
		{"valid upstream preserved", "proxy-id_42", true},
		{"missing replaced", "", false},
		{"injection replaced", "bad\r\nSet-Cookie: x", false},
		{"too long replaced", strings.Repeat("a", 200), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = GetRequestID(r.Context())
			}))

			r := httptest.NewRequest("GET", "/", nil)
			if tt.upstream != "" {
				r.Header.Set(RequestIDHeader, tt.upstream)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)

			echoed := w.Header().Get(RequestIDHeader)
			if echoed == "" {
				t.Fatal("response missing request ID header")
			}
			if echoed != seen {
				t.Errorf("header %q and context %q diverge", echoed, seen)
			}

			if tt.keeps && echoed != tt.upstream {
				t.Errorf("upstream ID %q not preserved, got %q", tt.upstream, echoed)
			}
			if !tt.keeps && echoed == tt.upstream {
				t.Errorf("suspicious upstream ID %q was preserved", tt.upstream)
			}
		})
	}
}
