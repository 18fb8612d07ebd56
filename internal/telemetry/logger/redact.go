package logger

import (
	"log/slog"
	"strings"
)

// jwtPrefix is the base64url encoding of `{"` that starts every JWT header.
const jwtPrefix = "eyJ"

// Key fragments whose values are always hidden.
var sensitiveKeyPatterns = []string{
	"password",
	"secret",
	"token",
	"credential",
	"auth",
	"bearer",
	"key",
}

const redactedValue = "***REDACTED***"

// redactSensitive masks JWT-looking values and hides values under sensitive keys.
func redactSensitive(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindString {
		v := a.Value.String()
		if IsSensitiveValue(v) {
			return slog.String(a.Key, maskValue(v))
		}
		if v != "" && IsSensitiveKey(a.Key) {
			return slog.String(a.Key, redactedValue)
		}
		return a
	}

	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		out := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			out[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	}

	return a
}

// maskValue keeps the first and last four characters of a long value.
func maskValue(v string) string {
	if len(v) <= 12 {
		return "***"
	}
	return v[:4] + "..." + v[len(v)-4:]
}

// RedactString masks v if it looks like a credential.
func RedactString(v string) string {
	if IsSensitiveValue(v) {
		return maskValue(v)
	}
	return v
}

// IsSensitiveKey reports whether a key name suggests credential content.
func IsSensitiveKey(key string) bool {
	k := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(k, pattern) {
			return true
		}
	}
	return false
}

// IsSensitiveValue reports whether v looks like a JWT: three dot-separated
// segments with a JSON header.
func IsSensitiveValue(v string) bool {
	return strings.HasPrefix(v, jwtPrefix) && strings.Count(v, ".") == 2
}
