package security

import (
	"math"
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		value any
		kind  Kind
		want  bool
	}{
		{"string ok", "hello", KindString, true},
		{"string empty", "", KindString, true},
		{"string at cap", strings.Repeat("a", MaxStringLength), KindString, true},
		{"string over cap", strings.Repeat("a", MaxStringLength+1), KindString, false},
		{"string wrong type", 42, KindString, false},

		{"number float", 3.14, KindNumber, true},
		{"number int", 42, KindNumber, true},
		{"number int64", int64(7), KindNumber, true},
		{"number zero", 0.0, KindNumber, true},
		{"number negative", -1.5, KindNumber, true},
		{"number NaN", math.NaN(), KindNumber, false},
		{"number Inf", math.Inf(1), KindNumber, false},
		{"number string", "42", KindNumber, false},

		{"email ok", "user@example.com", KindEmail, true},
		{"email subdomain", "a.b@mail.example.co.uk", KindEmail, true},
		{"email no at", "userexample.com", KindEmail, false},
		{"email no domain", "user@", KindEmail, false},
		{"email spaces", "u ser@example.com", KindEmail, false},
		{"email too long", strings.Repeat("a", 250) + "@x.io", KindEmail, false},

		{"url ok", "https://example.com/path?q=1", KindURL, true},
		{"url http", "http://localhost:8080", KindURL, true},
		{"url no scheme", "example.com/path", KindURL, false},
		{"url bare path", "/relative/path", KindURL, false},
		{"url empty", "", KindURL, false},

		{"uuid ok", "550e8400-e29b-41d4-a716-446655440000", KindUUID, true},
		{"uuid uppercase", "550E8400-E29B-41D4-A716-446655440000", KindUUID, true},
		{"uuid short", "550e8400-e29b-41d4-a716", KindUUID, false},
		{"uuid no dashes", "550e8400e29b41d4a716446655440000", KindUUID, false},
		{"uuid non-hex", "550e8400-e29b-41d4-a716-44665544000g", KindUUID, false},
		{"uuid empty", "", KindUUID, false},

		{"boolean true", true, KindBoolean, true},
		{"boolean false", false, KindBoolean, true},
		{"boolean string", "true", KindBoolean, false},

		{"array any", []any{1, "a"}, KindArray, true},
		{"array strings", []string{"a"}, KindArray, true},
		{"array empty", []any{}, KindArray, true},
		{"array not array", "a,b", KindArray, false},

		{"unknown kind", "x", Kind("mystery"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Validate(tt.value, tt.kind); got != tt.want {
				t.Errorf("Validate(%v, %q) = %v, want %v", tt.value, tt.kind, got, tt.want)
			}
		})
	}
}

func TestIsValidURL(t *testing.T) {
	if !IsValidURL("https://cdn.example.com/img.jpg") {
		t.Error("absolute URL should validate")
	}
	if IsValidURL("https://") {
		t.Error("URL without a host should fail")
	}
	if IsValidURL("://bad") {
		t.Error("malformed URL should fail")
	}
}
