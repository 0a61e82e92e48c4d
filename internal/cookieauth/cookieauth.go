// Package cookieauth mirrors an identity provider's bearer token into a "token" cookie and reflects the
// presence of that cookie into two mutually exclusive page panels: the login box and the sign-out control.
package cookieauth

import (
	"net/http"
	"strings"
)

// TokenCookieName is the cookie key that carries the bearer token.
const TokenCookieName = "token"

// RootPath is both the cookie path and the navigation target after every auth state change.
const RootPath = "/"

// CookieStore reads the raw cookie header and writes cookies. In a browser this is document.cookie; on the
// server it is the request Cookie header and the response Set-Cookie header.
type CookieStore interface {
	Cookie() string
	SetCookie(c *http.Cookie)
}

// UIPanel is a page element whose visibility can be toggled.
type UIPanel interface {
	SetHidden(hidden bool)
}

// Navigator performs a full page navigation.
type Navigator interface {
	Navigate(path string)
}

// ParseCookieToken returns the value of the first "token" pair in a raw cookie string, or an empty string if
// there is none. Each segment is split at its first "=" only, so values carrying "=" padding survive intact.
func ParseCookieToken(cookie string) string {
	for _, segment := range strings.Split(cookie, ";") {
		key, value, _ := strings.Cut(segment, "=")
		if strings.TrimSpace(key) == TokenCookieName {
			return strings.TrimSpace(value)
		}
	}

	return ""
}

// HasToken reports whether the cookie carries a non-empty token.
func HasToken(cookie string) bool {
	return len(ParseCookieToken(cookie)) > 0
}

// UpdateUI shows the sign-out control and hides the login box when the cookie carries a token, and does the
// reverse otherwise. A nil panel is skipped, the same as a missing page element.
func UpdateUI(cookie string, loginBox, signOut UIPanel) {
	loggedIn := HasToken(cookie)

	if loginBox != nil {
		loginBox.SetHidden(loggedIn)
	}
	if signOut != nil {
		signOut.SetHidden(!loggedIn)
	}
}

// HandleAuthSuccess stores the token issued by the identity provider and reloads the root page. The UI is
// never toggled here; it is derived again from the cookie on the next page load.
func HandleAuthSuccess(store CookieStore, nav Navigator, token string) {
	store.SetCookie(NewTokenCookie(token))
	nav.Navigate(RootPath)
}

// HandleSignOut clears the token cookie by overwriting it with an empty value and reloads the root page.
func HandleSignOut(store CookieStore, nav Navigator) {
	store.SetCookie(NewTokenCookie(""))
	nav.Navigate(RootPath)
}

// NewTokenCookie builds the token cookie. It has no expiry, so it lives for the browser session.
func NewTokenCookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     TokenCookieName,
		Value:    token,
		Path:     RootPath,
		SameSite: http.SameSiteStrictMode,
	}
}

// Serialize renders a cookie the way the login page script assigns it to document.cookie,
// e.g. "token=abc;path=/;SameSite=Strict".
func Serialize(c *http.Cookie) string {
	var b strings.Builder

	b.WriteString(c.Name)
	b.WriteByte('=')
	b.WriteString(c.Value)

	if c.Path != "" {
		b.WriteString(";path=")
		b.WriteString(c.Path)
	}

	if c.SameSite == http.SameSiteStrictMode {
		b.WriteString(";SameSite=Strict")
	}

	return b.String()
}
