package logger

import (
	"log/slog"
	"strings"
)

// Sensitive key patterns that should be fully redacted.
var sensitiveKeyPatterns = []string{
	"password",
	"secret",
	"token",
	"api_key",
	"apikey",
	"credential",
	"authorization",
	"bearer",
}

// redactedValue is the placeholder for redacted sensitive data.
const redactedValue = "***REDACTED***"

// VoterKey is the attribute key Voter logs identities under.
const VoterKey = "voter"

// Voter returns the attribute for a voter identity. Unless the logger was
// built with ShowIdentities, the value is masked even when it is not an
// e-mail address.
func Voter(identity string) slog.Attr {
	return slog.String(VoterKey, identity)
}

// redactor masks credentials by key name and, when maskIdentities is set,
// voter identities by key and by value.
type redactor struct {
	maskIdentities bool
}

func (r redactor) redact(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		s := a.Value.String()
		if s == "" {
			return a
		}
		if IsSensitiveKey(a.Key) {
			return slog.String(a.Key, redactedValue)
		}
		if !r.maskIdentities {
			return a
		}
		if a.Key == VoterKey {
			return slog.String(a.Key, maskVoter(s))
		}
		if IsSensitiveValue(s) {
			return slog.String(a.Key, MaskIdentity(s))
		}

	case slog.KindGroup:
		attrs := a.Value.Group()
		out := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			out[i] = r.redact(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	}
	return a
}

// maskVoter masks any identity: addresses as MaskIdentity does, other
// values down to their first character.
func maskVoter(identity string) string {
	if strings.IndexByte(identity, '@') >= 0 {
		return MaskIdentity(identity)
	}
	return identity[:1] + "***"
}

// MaskIdentity masks an e-mail address, or a key embedding one, keeping
// the first character of the local part and the domain:
//
//	alice@example.com       -> a***@example.com
//	voter:bob@example.com   -> voter:b***@example.com
//
// Values without '@' are returned unchanged.
func MaskIdentity(value string) string {
	at := strings.LastIndexByte(value, '@')
	if at < 0 {
		return value
	}
	start := strings.LastIndexAny(value[:at], ": ") + 1
	if start == at {
		return value[:at] + "***" + value[at:]
	}
	return value[:start+1] + "***" + value[at:]
}

// RedactString redacts a value before it is placed in a message.
func RedactString(value string) string {
	if IsSensitiveValue(value) {
		return MaskIdentity(value)
	}
	return value
}

// IsSensitiveKey checks if a key name suggests sensitive content.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}

// IsSensitiveValue reports whether value looks like it carries an e-mail
// address: a non-empty local part and a dotted domain after the last '@'.
func IsSensitiveValue(value string) bool {
	at := strings.LastIndexByte(value, '@')
	if at <= 0 || at == len(value)-1 {
		return false
	}
	domain := value[at+1:]
	return strings.Contains(domain, ".") && !strings.ContainsAny(domain, " /")
}
