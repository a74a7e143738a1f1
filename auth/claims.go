package auth

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
)

var errBadPayload = errors.New("token payload not decodable")

// tokenClaims is the subset of JWT claims inspected locally. The signature
// is never checked here: local inspection only exists to fail fast on
// obviously dead tokens before spending a provider round trip.
type tokenClaims struct {
	Exp int64  `json:"exp"`
	Sub string `json:"sub"`
}

// parseClaims decodes the payload segment of a three-part token. The token
// must already be known to have exactly three segments.
func parseClaims(token string) (*tokenClaims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, errBadPayload
	}

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		// Some issuers pad their segments.
		payload, err = base64.URLEncoding.DecodeString(parts[1])
		if err != nil {
			return nil, errBadPayload
		}
	}

	var claims tokenClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, errBadPayload
	}
	return &claims, nil
}
