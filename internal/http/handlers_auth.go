package http

import (
	"errors"
	"net/http"

	"dompet/internal/auth"
	applog "dompet/internal/log"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.renderPage(w, r, "register.html", map[string]any{"Theme": currentTheme(r)})
	case http.MethodPost:
		s.handleRegisterSubmit(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleRegisterSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeErrorFragment(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	email := sanitizeInput(r.Form.Get("email"))
	password := r.Form.Get("password")
	confirm := r.Form.Get("confirm")

	if password != confirm {
		writeErrorFragment(w, http.StatusUnprocessableEntity, "Passwords do not match")
		return
	}

	user, token, err := s.auth.SignUp(r.Context(), email, password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrEmailTaken):
			writeErrorFragment(w, http.StatusUnprocessableEntity, "That email is already registered")
		case errors.Is(err, auth.ErrInvalidEmail), errors.Is(err, auth.ErrWeakPassword):
			writeErrorFragment(w, http.StatusUnprocessableEntity, err.Error())
		default:
			s.logger.ErrorContext(r.Context(), "Sign up failed", applog.FieldError, err, applog.FieldOperation, applog.OpSignUp)
			writeErrorFragment(w, http.StatusInternalServerError, "Could not create the account")
		}
		return
	}

	s.logger.InfoContext(r.Context(), "User registered", applog.FieldUserID, user.ID, applog.FieldOperation, applog.OpSignUp)
	setSessionCookie(w, token, s.sessionTTL)
	w.Header().Set("HX-Redirect", "/")
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.renderPage(w, r, "login.html", map[string]any{"Theme": currentTheme(r)})
	case http.MethodPost:
		s.handleLoginSubmit(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleLoginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeErrorFragment(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	email := sanitizeInput(r.Form.Get("email"))
	password := r.Form.Get("password")

	user, token, err := s.auth.SignInWithPassword(r.Context(), email, password)
	if err != nil {
		if auth.AuthErr(err) || errors.Is(err, auth.ErrInvalidEmail) {
			writeErrorFragment(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		s.logger.ErrorContext(r.Context(), "Sign in failed", applog.FieldError, err, applog.FieldOperation, applog.OpSignIn)
		writeErrorFragment(w, http.StatusInternalServerError, "Could not sign in")
		return
	}

	s.logger.InfoContext(r.Context(), "User signed in", applog.FieldUserID, user.ID, applog.FieldOperation, applog.OpSignIn)
	setSessionCookie(w, token, s.sessionTTL)
	w.Header().Set("HX-Redirect", "/")
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	if c, err := r.Cookie(sessionCookieName); err == nil {
		_ = s.auth.SignOut(r.Context(), c.Value)
	}
	clearSessionCookie(w)
	w.Header().Set("HX-Redirect", "/login")
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.renderPage(w, r, "forgot.html", map[string]any{"Theme": currentTheme(r)})
	case http.MethodPost:
		s.handleForgotSubmit(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleForgotSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeErrorFragment(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	email := sanitizeInput(r.Form.Get("email"))
	_, err := s.auth.RequestPasswordReset(r.Context(), email)
	if err != nil && !errors.Is(err, auth.ErrUserNotFound) && !errors.Is(err, auth.ErrInvalidEmail) {
		s.logger.ErrorContext(r.Context(), "Password reset request failed", applog.FieldError, err)
		writeErrorFragment(w, http.StatusInternalServerError, "Could not process the request")
		return
	}

	// Unknown addresses get the same answer as known ones so the form
	// cannot be used to probe which emails have accounts.
	writeSuccessFragment(w, "If that email has an account, a reset link is on its way")
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		token := sanitizeInput(r.URL.Query().Get("token"))
		s.renderPage(w, r, "reset_password.html", map[string]any{"Theme": currentTheme(r), "Token": token})
	case http.MethodPost:
		s.handleResetSubmit(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleResetSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeErrorFragment(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	token := sanitizeInput(r.Form.Get("token"))
	password := r.Form.Get("password")
	confirm := r.Form.Get("confirm")

	if password != confirm {
		writeErrorFragment(w, http.StatusUnprocessableEntity, "Passwords do not match")
		return
	}

	if err := s.auth.UpdatePassword(r.Context(), token, password); err != nil {
		switch {
		case errors.Is(err, auth.ErrResetTokenInvalid):
			writeErrorFragment(w, http.StatusUnprocessableEntity, "This reset link is invalid or has expired")
		case errors.Is(err, auth.ErrWeakPassword):
			writeErrorFragment(w, http.StatusUnprocessableEntity, err.Error())
		default:
			s.logger.ErrorContext(r.Context(), "Password update failed", applog.FieldError, err)
			writeErrorFragment(w, http.StatusInternalServerError, "Could not update the password")
		}
		return
	}

	writeSuccessFragment(w, "Password updated. You can sign in now")
}
