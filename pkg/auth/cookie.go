package auth

import (
	"net/url"
)

// CookieSettings contains cookie security settings derived from the base URL.
type CookieSettings struct {
	// Secure indicates whether the cookie should only be sent over HTTPS.
	Secure bool
	// Domain is the cookie domain scope. Empty means host-only.
	Domain string
}

// DeriveCookieSettings determines cookie settings from the server base URL.
// Plain http (local development) yields non-secure cookies; anything else,
// including an unparseable URL, is secure. configCookieDomain, when set, is
// used as the domain as-is.
func DeriveCookieSettings(baseURL string, configCookieDomain string) CookieSettings {
	settings := CookieSettings{Secure: true, Domain: configCookieDomain}
	if baseURL == "" {
		return settings
	}
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return settings
	}
	settings.Secure = parsedURL.Scheme != "http"
	return settings
}
