package logger

import (
	"log/slog"
	"strings"
)

// SanitizedIdentity masks an account number for logging, keeping only the
// last four digits (e.g., "******7890").
func SanitizedIdentity(identity string) string {
	if identity == "" {
		return "[empty]"
	}
	if len(identity) <= 4 {
		return strings.Repeat("*", len(identity))
	}
	return strings.Repeat("*", len(identity)-4) + identity[len(identity)-4:]
}

// RedactedAttr returns a redacted slog attribute for sensitive values.
// In production, returns "[REDACTED]"; in development, returns the actual value.
func RedactedAttr(key, value, env string) slog.Attr {
	if env == "production" {
		return slog.String(key, "[REDACTED]")
	}
	return slog.String(key, value)
}

// SanitizeQueryString checks if a query string contains sensitive parameters
// and returns true if the entire query string should be redacted
func SanitizeQueryString(rawQuery string) bool {
	sensitiveParams := []string{
		"password",
		"token",
		"secret",
		"identity",
		"account",
		"auth",
	}

	query := strings.ToLower(rawQuery)
	for _, param := range sensitiveParams {
		if strings.Contains(query, param) {
			return true
		}
	}
	return false
}
