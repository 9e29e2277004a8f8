package utils

import "strings"

// MaskEmail masks an email address for safe logging.
// Example: "user@example.com" -> "u***@example.com"
func MaskEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || domain == "" {
		return "***"
	}
	if len(local) <= 1 {
		return local + "***@" + domain
	}
	return local[:1] + "***@" + domain
}

// MaskSecret keeps the first n characters of a credential.
func MaskSecret(secret string, n int) string {
	if len(secret) <= n {
		return "***"
	}
	return secret[:n] + "***"
}
