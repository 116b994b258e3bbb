package session

import (
	"strings"

	"linkstat/internal/browser"
)

// CookieCredential is one name/value pair taken from a raw Cookie header.
type CookieCredential = browser.Cookie

// ParseCookies splits a raw "a=1; b=2" header into pairs. Segments without
// "=" or with an empty name or value are dropped. Values may contain "=".
func ParseCookies(raw string) []CookieCredential {
	var cookies []CookieCredential
	for _, segment := range strings.Split(raw, ";") {
		name, value, ok := strings.Cut(strings.TrimSpace(segment), "=")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		value = strings.TrimSpace(value)
		if name == "" || value == "" {
			continue
		}
		cookies = append(cookies, CookieCredential{Name: name, Value: value})
	}
	return cookies
}
