package security

import (
	"net"
	"net/http"
	"strings"
)

// UnknownClient is the shared bucket identifier assigned to requests whose
// origin cannot be established. Collapsing all unidentifiable clients into
// one bucket is deliberate: it trades a shared rate budget for immunity to
// per-request bucket growth from spoofed forwarding headers.
const UnknownClient = "unknown"

// ClientIdentifier derives the rate-limit bucket identifier for a request.
//
// When trustProxy is set, forwarding headers are consulted in order:
// CF-Connecting-IP, the first (client) entry of X-Forwarded-For, then
// X-Real-IP. Only enable trustProxy behind a reverse proxy that strips or
// overwrites these headers; otherwise any client can pick its own bucket.
// Without trustProxy, only the direct connection address is used.
//
// Whatever value is found must parse as an IPv4 or IPv6 address; anything
// else collapses to UnknownClient.
func ClientIdentifier(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if ip := r.Header.Get("CF-Connecting-IP"); IsValidIP(ip) {
			return ip
		}
		if ip := firstForwardedFor(r.Header.Get("X-Forwarded-For")); IsValidIP(ip) {
			return ip
		}
		if ip := r.Header.Get("X-Real-IP"); IsValidIP(ip) {
			return ip
		}
		return UnknownClient
	}

	if ip := ipFromRemoteAddr(r.RemoteAddr); IsValidIP(ip) {
		return ip
	}
	return UnknownClient
}

// firstForwardedFor extracts the leftmost entry of a comma-separated
// X-Forwarded-For chain, which is the original client in the usual
// "client, proxy1, proxy2" layout.
func firstForwardedFor(xff string) string {
	if xff == "" {
		return ""
	}
	first, _, _ := strings.Cut(xff, ",")
	return strings.TrimSpace(first)
}

// ipFromRemoteAddr strips the port from a direct connection address.
func ipFromRemoteAddr(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

// IsValidIP reports whether s is a syntactically valid IPv4 or IPv6 address.
func IsValidIP(s string) bool {
	if s == "" {
		return false
	}
	return net.ParseIP(s) != nil
}
