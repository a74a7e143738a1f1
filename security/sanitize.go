package security

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxSanitizedLength is the hard cap applied to sanitized strings.
const MaxSanitizedLength = 1000

// Tag names that survive the strip pass. Everything else is removed.
// The final escape pass still neutralizes the brackets of surviving tags,
// so even allow-listed markup cannot reach a browser as live HTML.
var allowedTags = map[string]bool{
	"br": true, "p": true, "strong": true, "em": true,
	"ul": true, "ol": true, "li": true,
}

var (
	// Paired containers are removed together with their content; letting the
	// body of a <script> block survive as text would still smuggle payloads
	// into downstream contexts.
	scriptBlockRe = regexp.MustCompile(`(?is)<script\b[^>]*>(.*?)</script>`)
	iframeBlockRe = regexp.MustCompile(`(?is)<iframe\b[^>]*>(.*?)</iframe>`)
	objectBlockRe = regexp.MustCompile(`(?is)<object\b[^>]*>(.*?)</object>`)
	formBlockRe   = regexp.MustCompile(`(?is)<form\b[^>]*>(.*?)</form>`)
	embedTagRe    = regexp.MustCompile(`(?i)<embed\b[^>]*>`)

	jsSchemeRe    = regexp.MustCompile(`(?i)javascript:`)
	vbSchemeRe    = regexp.MustCompile(`(?i)vbscript:`)
	dataSchemeRe  = regexp.MustCompile(`(?i)data:`)
	eventAttrRe   = regexp.MustCompile(`(?i)on\w+\s*=`)
	anyTagRe      = regexp.MustCompile(`<[^>]*>`)
	tagNameRe     = regexp.MustCompile(`(?i)^</?([a-z]+)`)
	escapeCharsRe = strings.NewReplacer("<", "&lt;", ">", "&gt;", "'", "&#39;", `"`, "&quot;")
)

// Sanitize cleans untrusted input. Strings pass through the full pipeline
// below; slices recurse element-wise; string-keyed maps recurse over both
// keys and values. Any other type is returned unchanged.
//
// This is a best-effort denylist, not an HTML parser. Its guarantees are:
// no executable script content survives, no raw angle bracket survives, the
// result is at most MaxSanitizedLength characters, and sanitizing
// already-clean input is a no-op.
func Sanitize(v any) any {
	switch val := v.(type) {
	case string:
		return SanitizeString(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = Sanitize(item)
		}
		return out
	case []string:
		out := make([]string, len(val))
		for i, item := range val {
			out[i] = SanitizeString(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[SanitizeString(k)] = Sanitize(item)
		}
		return out
	default:
		return v
	}
}

// SanitizeString applies the string pipeline: drop dangerous tag blocks with
// their content, neutralize script-capable URI schemes and inline event
// handlers, strip all tags outside the allow-list, entity-escape the four
// characters < > ' ", and truncate to MaxSanitizedLength.
func SanitizeString(s string) string {
	s = scriptBlockRe.ReplaceAllString(s, "")
	s = iframeBlockRe.ReplaceAllString(s, "")
	s = objectBlockRe.ReplaceAllString(s, "")
	s = formBlockRe.ReplaceAllString(s, "")
	s = embedTagRe.ReplaceAllString(s, "")

	s = jsSchemeRe.ReplaceAllString(s, "")
	s = vbSchemeRe.ReplaceAllString(s, "")
	s = dataSchemeRe.ReplaceAllString(s, "")
	s = eventAttrRe.ReplaceAllString(s, "")

	s = anyTagRe.ReplaceAllStringFunc(s, func(tag string) string {
		if m := tagNameRe.FindStringSubmatch(tag); m != nil && allowedTags[strings.ToLower(m[1])] {
			return tag
		}
		return ""
	})

	s = escapeCharsRe.Replace(s)

	if len(s) > MaxSanitizedLength {
		// Back the cut up to a rune boundary so truncation never emits
		// invalid UTF-8.
		cut := MaxSanitizedLength
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut]
	}

	return s
}
