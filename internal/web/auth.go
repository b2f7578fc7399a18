package web

import (
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/ewaste/internal/auth"
	"github.com/erazemk/ewaste/internal/model"
	"github.com/erazemk/ewaste/internal/store"
)

type authForm struct {
	PageData
	Name  string
	Email string
}

// LoginPage handles GET /login.
func (s *Server) LoginPage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, "login.html", &authForm{PageData: PageData{Title: "Sign in"}})
}

// LoginSubmit handles POST /login.
func (s *Server) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")
	password := r.FormValue("password")

	fail := func(msg string) {
		s.Templates.RenderStatus(w, http.StatusUnauthorized, "login.html", &authForm{
			PageData: PageData{Title: "Sign in", Error: msg},
			Email:    email,
		})
	}

	if email == "" || password == "" {
		fail("Enter your email and password.")
		return
	}

	user, err := store.GetUserByEmail(r.Context(), s.DB, email)
	if err != nil {
		slog.Error("failed to look up user", "error", err)
	}
	if user == nil {
		fail("Invalid credentials.")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		slog.Warn("login failed", "email", user.Email, "remote", r.RemoteAddr)
		fail("Invalid credentials.")
		return
	}

	token, err := auth.GenerateToken(s.JWTSecret, user)
	if err != nil {
		fail("Sign in failed, try again.")
		return
	}

	setAuthCookie(w, token)
	slog.Info("user logged in", "user", user.Email, "role", user.Role)
	http.Redirect(w, r, model.ViewItems.Path(), http.StatusSeeOther)
}

// SignupPage handles GET /signup.
func (s *Server) SignupPage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, "signup.html", &authForm{PageData: PageData{Title: "Create account"}})
}

// SignupSubmit handles POST /signup.
func (s *Server) SignupSubmit(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.FormValue("name"))
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	fail := func(status int, msg string) {
		s.Templates.RenderStatus(w, status, "signup.html", &authForm{
			PageData: PageData{Title: "Create account", Error: msg},
			Name:     name,
			Email:    email,
		})
	}

	if name == "" || email == "" || password == "" {
		fail(http.StatusBadRequest, "Name, email and password are required.")
		return
	}
	if !strings.Contains(email, "@") {
		fail(http.StatusBadRequest, "Enter a valid email address.")
		return
	}
	if err := model.ValidatePassword(password); err != nil {
		fail(http.StatusBadRequest, "Password must be at least 8 characters.")
		return
	}

	if existing, _ := store.GetUserByEmail(r.Context(), s.DB, email); existing != nil {
		fail(http.StatusConflict, "Email already registered.")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		fail(http.StatusInternalServerError, "Could not create the account.")
		return
	}
	user, err := store.CreateUser(r.Context(), s.DB, email, name, string(hash), model.RoleUser)
	if err != nil {
		fail(http.StatusConflict, "Email already registered.")
		return
	}

	token, err := auth.GenerateToken(s.JWTSecret, user)
	if err != nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	setAuthCookie(w, token)
	slog.Info("user signed up", "user", user.Email)
	http.Redirect(w, r, model.ViewItems.Path(), http.StatusSeeOther)
}

// Logout handles POST /logout. The session token is revoked, not just
// dropped from the browser.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		if claims, err := auth.ValidateToken(s.JWTSecret, cookie.Value); err == nil {
			if err := store.RevokeToken(r.Context(), s.DB, claims.ID, claims.ExpiresAt.Time); err != nil {
				slog.Error("failed to revoke token", "error", err)
			} else {
				slog.Info("user logged out", "user", claims.Email)
			}
		}
	}
	clearAuthCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
