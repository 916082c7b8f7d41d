package authapi

import (
	"net/http"
	"strings"
	"time"
)

// webCookies writes and clears the browser-facing credential cookies.
//
// The access and refresh cookies are HttpOnly; the logged-in marker is not, so
// client-side code can render the signed-in state without touching the
// credentials themselves.
type webCookies struct {
	cfg Config
}

func (c webCookies) setSession(w http.ResponseWriter, accessToken string, accessExp time.Time, refreshToken string, refreshExp time.Time) {
	c.set(w, AccessCookieName, accessToken, accessExp, true)
	c.set(w, RefreshCookieName, refreshToken, refreshExp, true)
	c.set(w, LoggedInCookieName, "true", refreshExp, false)
}

func (c webCookies) setAccess(w http.ResponseWriter, accessToken string, accessExp time.Time) {
	c.set(w, AccessCookieName, accessToken, accessExp, true)
}

func (c webCookies) clearSession(w http.ResponseWriter) {
	c.expire(w, AccessCookieName, true)
	c.expire(w, RefreshCookieName, true)
	c.expire(w, LoggedInCookieName, false)
}

func (c webCookies) value(r *http.Request, name string) (string, bool) {
	if r == nil {
		return "", false
	}
	cookie, err := r.Cookie(name)
	if err != nil {
		return "", false
	}
	v := strings.TrimSpace(cookie.Value)
	if v == "" {
		return "", false
	}
	return v, true
}

func (c webCookies) set(w http.ResponseWriter, name, value string, exp time.Time, httpOnly bool) {
	if w == nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     c.cfg.CookiePath,
		Domain:   c.cfg.CookieDomain,
		Expires:  exp,
		HttpOnly: httpOnly,
		Secure:   c.cfg.CookieSecure,
		SameSite: c.cfg.CookieSameSite,
	})
}

func (c webCookies) expire(w http.ResponseWriter, name string, httpOnly bool) {
	if w == nil || strings.TrimSpace(name) == "" {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     c.cfg.CookiePath,
		Domain:   c.cfg.CookieDomain,
		Expires:  time.Unix(0, 0).UTC(),
		MaxAge:   -1,
		HttpOnly: httpOnly,
		Secure:   c.cfg.CookieSecure,
		SameSite: c.cfg.CookieSameSite,
	})
}
