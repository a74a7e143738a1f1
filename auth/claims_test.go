package auth

import (
	"encoding/base64"
	"testing"
)

func TestParseClaims_PaddedPayload(t *testing.T) {
	// Payload length chosen so standard encoding needs padding.
	payload := []byte(`{"exp":1234567890,"sub":"user-1"}`)
	token := "h." + base64.URLEncoding.EncodeToString(payload) + ".s"

	claims, err := parseClaims(token)
	if err != nil {
		t.Fatalf("parseClaims() error = %v", err)
	}
	if claims.Exp != 1234567890 || claims.Sub != "user-1" {
		t.Errorf("parseClaims() = %+v", claims)
	}
}

func TestParseClaims_RawPayload(t *testing.T) {
	payload := []byte(`{"exp":99,"sub":"x"}`)
	token := "h." + base64.RawURLEncoding.EncodeToString(payload) + ".s"

	claims, err := parseClaims(token)
	if err != nil {
		t.Fatalf("parseClaims() error = %v", err)
	}
	if claims.Exp != 99 {
		t.Errorf("Exp = %d, want 99", claims.Exp)
	}
}
