package logging

import "strings"

// MaskEmail keeps the first character of the local part and the domain:
// alice@example.com -> a***@example.com.
func MaskEmail(email string) string {
	if email == "" {
		return ""
	}
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" {
		return "***"
	}
	return local[:1] + "***@" + domain
}
