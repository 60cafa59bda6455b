package http

import (
	"net/http"
	"time"

	"dompet/internal/auth"
)

const (
	sessionCookieName = "dompet_session"
	themeCookieName   = "dompet_theme"
)

// setSessionCookie stores the session token as an HTTP-only cookie.
func setSessionCookie(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// currentUser resolves the session cookie to a user.
// Returns auth.ErrSessionInvalid when there is no usable session.
func (s *Server) currentUser(r *http.Request) (auth.User, error) {
	c, err := r.Cookie(sessionCookieName)
	if err != nil || c.Value == "" {
		return auth.User{}, auth.ErrSessionInvalid
	}
	return s.auth.CurrentUser(r.Context(), c.Value)
}

// currentTheme reads the theme cookie, defaulting to light.
func currentTheme(r *http.Request) string {
	if c, err := r.Cookie(themeCookieName); err == nil && c.Value == "dark" {
		return "dark"
	}
	return "light"
}
