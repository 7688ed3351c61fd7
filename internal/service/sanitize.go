package service

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	tokenPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)
	botPattern   = regexp.MustCompile(`(?i)bot|crawler|spider|scraper|curl|wget|python|headless`)
)

const maxEmailLength = 254

// sanitizeText trims, drops control characters and angle brackets, and
// collapses runs of whitespace into one space
func sanitizeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	space := false
	for _, r := range s {
		switch {
		case r == '<' || r == '>':
			continue
		case unicode.IsSpace(r):
			space = true
			continue
		case unicode.IsControl(r):
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}

// sanitizeEmail trims, strips and lower-cases an address
func sanitizeEmail(s string) string {
	return strings.ToLower(strings.ReplaceAll(sanitizeText(s), " ", ""))
}

func validEmail(email string) bool {
	return len(email) <= maxEmailLength && emailPattern.MatchString(email)
}

// validFormToken checks the capability token shape before any lookup
func validFormToken(token string) bool {
	return tokenPattern.MatchString(token)
}

// looksLikeBot flags empty and scripted user agents
func looksLikeBot(userAgent string) bool {
	ua := strings.TrimSpace(userAgent)
	return ua == "" || botPattern.MatchString(ua)
}
