package auth

import (
	"net/http"
	"time"

	"github.com/jsamuelsen/qc-audit-service/internal/platform/config"
)

// Session cookie names.
const (
	AccessCookie  = "token"
	RefreshCookie = "refresh_token"
)

// Cookies builds the session cookies. Each cookie lives exactly as long as
// the token it carries.
type Cookies struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Secure marks the access cookie Secure; the refresh cookie always is.
	Secure bool
}

// NewCookies derives cookie lifetimes from the token TTLs in cfg.
func NewCookies(cfg *config.JWTConfig) Cookies {
	return Cookies{
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTokenTTL,
		Secure:     cfg.CookieSecure,
	}
}

// Access builds the HTTP-only access cookie.
func (k Cookies) Access(value string) *http.Cookie {
	return sessionCookie(AccessCookie, value, maxAge(k.AccessTTL), k.Secure)
}

// Refresh builds the refresh cookie.
func (k Cookies) Refresh(value string) *http.Cookie {
	return sessionCookie(RefreshCookie, value, maxAge(k.RefreshTTL), true)
}

// ExpireAccess builds a cookie that makes the browser drop the access cookie.
func (k Cookies) ExpireAccess() *http.Cookie {
	return ExpiredCookie(AccessCookie, k.Secure)
}

// ExpireRefresh builds a cookie that makes the browser drop the refresh cookie.
func (k Cookies) ExpireRefresh() *http.Cookie {
	return ExpiredCookie(RefreshCookie, true)
}

// ExpiredCookie builds a cookie that makes the browser drop name.
func ExpiredCookie(name string, secure bool) *http.Cookie {
	c := sessionCookie(name, "", -1, secure)
	c.Expires = time.Unix(0, 0)

	return c
}

// maxAge rounds ttl down to whole seconds, keeping sub-second TTLs alive
// for one second rather than turning them into a session cookie.
func maxAge(ttl time.Duration) int {
	return max(int(ttl/time.Second), 1)
}

func sessionCookie(name, value string, maxAge int, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}
