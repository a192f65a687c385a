package util

import (
	"strings"
	"unicode"
)

// Redacted replaces secret values in log output.
const Redacted = "[redacted]"

// SanitizeString trims whitespace and removes control characters from s.
// Child process output fed into log fields goes through this so escape
// sequences cannot corrupt the log stream.
func SanitizeString(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

// SanitizeEnvValue cleans an environment variable value by removing
// surrounding quotes and trimming whitespace.
func SanitizeEnvValue(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			s = s[1 : len(s)-1]
		}
	}
	return strings.TrimSpace(s)
}

// RedactArgs returns a copy of args with values following credential-like
// flags replaced, so argv can be logged safely.
func RedactArgs(args []string) []string {
	out := make([]string, len(args))
	redactNext := false
	for i, a := range args {
		switch {
		case redactNext:
			out[i] = Redacted
			redactNext = false
		case isCredentialFlag(a):
			out[i] = a
			redactNext = true
		case strings.Contains(a, "="):
			k, _, _ := SplitEnv(a)
			if isCredentialFlag(k) {
				out[i] = k + "=" + Redacted
			} else {
				out[i] = a
			}
		default:
			out[i] = a
		}
	}
	return out
}

func isCredentialFlag(s string) bool {
	s = strings.ToLower(strings.TrimLeft(s, "-"))
	return s == "password" || s == "passwd" || s == "token" || s == "secret" || s == "credential"
}
