package common

import "unicode/utf8"

// DefaultRawBodyLimit is the number of characters of a remote response body
// kept when it is quoted in a failure reason.
const DefaultRawBodyLimit = 256

// TruncateRaw trims the supplied string to the specified rune limit. If limit
// is zero or negative it returns an empty string.
func TruncateRaw(raw string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(raw) <= limit {
		return raw
	}
	return string([]rune(raw)[:limit])
}
