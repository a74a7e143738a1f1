package security

import (
	"net/http/httptest"
	"testing"
)

func TestClientIdentifier(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		trustProxy bool
		want       string
	}{
		{
			name:       "direct connection",
			remoteAddr: "203.0.113.7:54321",
			want:       "203.0.113.7",
		},
		{
			name:       "direct ipv6",
			remoteAddr: "[2001:db8::1]:443",
			want:       "2001:db8::1",
		},
		{
			name:       "headers ignored without trustProxy",
			remoteAddr: "203.0.113.7:54321",
			headers:    map[string]string{"X-Forwarded-For": "198.51.100.9"},
			want:       "203.0.113.7",
		},
		{
			name:       "cf-connecting-ip wins",
			remoteAddr: "10.0.0.1:1234",
			headers: map[string]string{
				"CF-Connecting-IP": "203.0.113.7",
				"X-Forwarded-For":  "198.51.100.9",
				"X-Real-IP":        "192.0.2.2",
			},
			trustProxy: true,
			want:       "203.0.113.7",
		},
		{
			name:       "first forwarded-for entry",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Forwarded-For": "198.51.100.9, 10.0.0.2, 10.0.0.3"},
			trustProxy: true,
			want:       "198.51.100.9",
		},
		{
			name:       "x-real-ip fallback",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Real-IP": "192.0.2.2"},
			trustProxy: true,
			want:       "192.0.2.2",
		},
		{
			name:       "spoofed non-ip header collapses to unknown",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Forwarded-For": "not-an-ip"},
			trustProxy: true,
			want:       UnknownClient,
		},
		{
			name:       "no headers with trustProxy",
			remoteAddr: "10.0.0.1:1234",
			trustProxy: true,
			want:       UnknownClient,
		},
		{
			name:       "garbage remote addr",
			remoteAddr: "garbage",
			want:       UnknownClient,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}

			if got := ClientIdentifier(r, tt.trustProxy); got != tt.want {
				t.Errorf("ClientIdentifier() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsValidIP(t *testing.T) {
	valid := []string{"1.2.3.4", "255.255.255.255", "::1", "2001:db8::1"}
	for _, ip := range valid {
		if !IsValidIP(ip) {
			t.Errorf("IsValidIP(%q) = false, want true", ip)
		}
	}

	invalid := []string{"", "256.1.1.1", "1.2.3", "example.com", "1.2.3.4:80"}
	for _, ip := range invalid {
		if IsValidIP(ip) {
			t.Errorf("IsValidIP(%q) = true, want false", ip)
		}
	}
}
