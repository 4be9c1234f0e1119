package slogobs

import (
	"os"
	"strings"
)

// Format selects how records are rendered.
type Format string

const (
	// FormatCompact renders one line per record:
	// 10:40:35.120 DEBUG message key=value key2="quoted value"
	FormatCompact Format = "compact"

	// FormatJSON renders one JSON object per record.
	FormatJSON Format = "json"
)

// ParseFormat maps a string to a Format. Unknown values yield FormatCompact.
func ParseFormat(s string) Format {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON
	default:
		return FormatCompact
	}
}

// GetFormatFromEnv reads FNCALL_LOG_FORMAT, then LOG_FORMAT.
func GetFormatFromEnv() Format {
	for _, key := range []string{"FNCALL_LOG_FORMAT", "LOG_FORMAT"} {
		if v := os.Getenv(key); v != "" {
			return ParseFormat(v)
		}
	}
	return FormatCompact
}

func (f Format) String() string {
	return string(f)
}
