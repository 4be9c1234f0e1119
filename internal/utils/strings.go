package utils

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// DefaultMaxStringLength is used by TruncateString when maxLen <= 0.
const DefaultMaxStringLength = 500

// JSONToString returns the compact JSON encoding of v, or an indented one
// when indent is true. Marshalling failures are reported inline as a JSON
// object so the result is always printable.
func JSONToString(v any, indent ...bool) string {
	var (
		encoded []byte
		err     error
	)
	if len(indent) > 0 && indent[0] {
		encoded, err = json.MarshalIndent(v, "", "  ")
	} else {
		encoded, err = json.Marshal(v)
	}
	if err != nil {
		fallback, _ := json.Marshal(map[string]string{"error": "failed to marshal to JSON: " + err.Error()})
		return string(fallback)
	}
	return string(encoded)
}

// TruncateString cuts s to at most maxLen bytes without splitting a rune and
// notes the original length.
func TruncateString(s string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultMaxStringLength
	}
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return fmt.Sprintf("%s... (truncated, total: %d chars)", s[:cut], len(s))
}
