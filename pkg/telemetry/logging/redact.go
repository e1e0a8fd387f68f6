package logging

import (
	"log/slog"
	"strings"
)

var sensitiveKeys = map[string]struct{}{
	"token":         {},
	"x-token":       {},
	"password":      {},
	"authorization": {},
	"secret":        {},
}

// RedactAttr is a slog ReplaceAttr function that masks the values of
// attributes whose key names a credential.
func RedactAttr(groups []string, a slog.Attr) slog.Attr {
	if _, ok := sensitiveKeys[strings.ToLower(a.Key)]; !ok {
		return a
	}
	if a.Value.Kind() != slog.KindString {
		return slog.String(a.Key, "***")
	}
	return slog.String(a.Key, RedactToken(a.Value.String()))
}

// RedactToken keeps the first four characters of long tokens and masks the
// rest. Short tokens are fully masked.
func RedactToken(token string) string {
	if len(token) <= 8 {
		return "***"
	}
	return token[:4] + "***"
}
