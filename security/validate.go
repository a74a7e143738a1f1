package security

import (
	"math"
	"net/url"
	"regexp"
)

// Kind names a validation rule applied by Validate.
type Kind string

const (
	KindString  Kind = "string"
	KindNumber  Kind = "number"
	KindEmail   Kind = "email"
	KindURL     Kind = "url"
	KindUUID    Kind = "uuid"
	KindBoolean Kind = "boolean"
	KindArray   Kind = "array"
)

const (
	// MaxStringLength is the ceiling for KindString values.
	MaxStringLength = 1000

	// MaxEmailLength is the RFC 5321 ceiling for a complete address.
	MaxEmailLength = 254
)

var (
	// RFC 5321-ish: permissive local part, label-structured domain.
	emailRe = regexp.MustCompile(`^[a-zA-Z0-9.!#$%&'*+/=?^_` + "`" + `{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)

	// Canonical 8-4-4-4-12 form, case-insensitive.
	uuidRe = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
)

// Validate reports whether v satisfies the named kind. It is a pure
// predicate: it never mutates v and never panics; values of an unexpected
// dynamic type simply fail.
func Validate(v any, kind Kind) bool {
	switch kind {
	case KindString:
		s, ok := v.(string)
		return ok && len(s) <= MaxStringLength
	case KindNumber:
		f, ok := toFloat(v)
		return ok && !math.IsNaN(f) && !math.IsInf(f, 0)
	case KindEmail:
		s, ok := v.(string)
		return ok && len(s) <= MaxEmailLength && emailRe.MatchString(s)
	case KindURL:
		s, ok := v.(string)
		return ok && IsValidURL(s)
	case KindUUID:
		s, ok := v.(string)
		return ok && uuidRe.MatchString(s)
	case KindBoolean:
		_, ok := v.(bool)
		return ok
	case KindArray:
		switch v.(type) {
		case []any, []string:
			return true
		}
		return false
	default:
		return false
	}
}

// IsValidURL reports whether s parses as an absolute URL with both a scheme
// and a host. Scheme-relative or bare-path strings fail.
func IsValidURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.Scheme != "" && u.Host != ""
}

// toFloat widens any numeric value to float64. JSON decoding produces
// float64 for all numbers, but callers may also pass native ints.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
