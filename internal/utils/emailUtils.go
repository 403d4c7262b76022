package utils

import (
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// NormalizeEmail trims and lower-cases an address. The result is the key
// used for OTP lookups and the one-idea-per-email rule.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// EmailPolicy decides which addresses may request codes and submit ideas.
// An empty Domain accepts any syntactically valid address; otherwise the
// host must be Domain or one of its subdomains.
type EmailPolicy struct {
	Domain string
}

func (p EmailPolicy) Allows(email string) bool {
	if !emailPattern.MatchString(email) {
		return false
	}
	if p.Domain == "" {
		return true
	}
	domain := strings.TrimPrefix(strings.ToLower(p.Domain), "@")
	host := strings.ToLower(email[strings.LastIndex(email, "@")+1:])
	return host == domain || strings.HasSuffix(host, "."+domain)
}
