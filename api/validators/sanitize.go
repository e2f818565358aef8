package validators

import "strings"

// SanitizeString trims input and truncates it to maxLen bytes when maxLen > 0.
func SanitizeString(input string, maxLen int) string {
	trimmed := strings.TrimSpace(input)
	if maxLen > 0 && len(trimmed) > maxLen {
		return trimmed[:maxLen]
	}
	return trimmed
}

// HeaderToken trims a header value used as an identifier (cart scope, user
// id, request id) and reports whether it is usable: non-empty, at most maxLen
// bytes and limited to letters, digits and -_.:@.
func HeaderToken(raw string, maxLen int) (string, bool) {
	v := strings.TrimSpace(raw)
	if v == "" || SanitizeString(v, maxLen) != v {
		return v, false
	}
	for _, r := range v {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-' || r == '_' || r == '.' || r == ':' || r == '@':
		default:
			return v, false
		}
	}
	return v, true
}
