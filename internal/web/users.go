package web

import (
	"log/slog"
	"net/http"
	"strconv"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/ewaste/internal/model"
	"github.com/erazemk/ewaste/internal/store"
)

type usersPage struct {
	PageData
	Users []model.User
}

// UsersPage handles GET /users (admin only).
func (s *Server) UsersPage(w http.ResponseWriter, r *http.Request) {
	users, err := store.ListUsers(r.Context(), s.DB)
	if err != nil {
		slog.Error("failed to list users", "error", err)
	}

	pd := s.page(r, "")
	pd.Title = "Users"
	flash(r, &pd)
	s.Templates.Render(w, "users.html", &usersPage{PageData: pd, Users: users})
}

// UserCreateSubmit handles POST /users (admin only).
func (s *Server) UserCreateSubmit(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")
	name := r.FormValue("name")
	password := r.FormValue("password")
	role := r.FormValue("role")

	if email == "" || !model.ValidRole(role) {
		redirectWith(w, r, "/users", "err", "Email and a valid role are required.")
		return
	}
	if err := model.ValidatePassword(password); err != nil {
		redirectWith(w, r, "/users", "err", "Password must be at least 8 characters.")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, "failed to hash password", http.StatusInternalServerError)
		return
	}

	if _, err := store.CreateUser(r.Context(), s.DB, email, name, string(hash), role); err != nil {
		redirectWith(w, r, "/users", "err", "Email already registered.")
		return
	}
	slog.Info("user created", "user", GetWebClaims(r.Context()).Email, "new_user", email, "role", role)
	redirectWith(w, r, "/users", "ok", "User created.")
}

// UserResetPasswordSubmit handles POST /users/{id}/password (admin only).
func (s *Server) UserResetPasswordSubmit(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Redirect(w, r, "/users", http.StatusSeeOther)
		return
	}

	newPassword := r.FormValue("new_password")
	if err := model.ValidatePassword(newPassword); err != nil {
		redirectWith(w, r, "/users", "err", "Password must be at least 8 characters.")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, "failed to hash password", http.StatusInternalServerError)
		return
	}

	if err := store.UpdateUserPassword(r.Context(), s.DB, id, string(hash)); err != nil {
		slog.Error("failed to reset password", "error", err)
	}
	redirectWith(w, r, "/users", "ok", "Password reset.")
}

// UserUpdateRoleSubmit handles POST /users/{id}/role (admin only).
func (s *Server) UserUpdateRoleSubmit(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Redirect(w, r, "/users", http.StatusSeeOther)
		return
	}

	role := r.FormValue("role")
	if !model.ValidRole(role) {
		redirectWith(w, r, "/users", "err", "Unknown role.")
		return
	}
	if err := store.UpdateUserRole(r.Context(), s.DB, id, role); err != nil {
		slog.Error("failed to update role", "error", err)
	}
	redirectWith(w, r, "/users", "ok", "Role updated.")
}

// UserDeleteSubmit handles POST /users/{id}/delete (admin only).
func (s *Server) UserDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || r.FormValue("confirm") != "yes" {
		http.Redirect(w, r, "/users", http.StatusSeeOther)
		return
	}
	if GetWebClaims(r.Context()).UserID == id {
		redirectWith(w, r, "/users", "err", "You cannot delete yourself.")
		return
	}
	if err := store.DeleteUser(r.Context(), s.DB, id); err != nil {
		slog.Error("failed to delete user", "error", err)
	}
	redirectWith(w, r, "/users", "ok", "User deleted.")
}

// SettingsPage handles GET /settings.
func (s *Server) SettingsPage(w http.ResponseWriter, r *http.Request) {
	pd := s.page(r, "")
	pd.Title = "Settings"
	s.Templates.Render(w, "settings.html", &pd)
}

// SettingsSubmit handles POST /settings (change own password).
func (s *Server) SettingsSubmit(w http.ResponseWriter, r *http.Request) {
	pd := s.page(r, "")
	pd.Title = "Settings"
	claims := pd.User

	currentPassword := r.FormValue("current_password")
	newPassword := r.FormValue("new_password")

	fail := func(msg string) {
		pd.Error = msg
		s.Templates.RenderStatus(w, http.StatusBadRequest, "settings.html", &pd)
	}

	if currentPassword == "" || newPassword == "" {
		fail("Enter your current and new password.")
		return
	}
	if err := model.ValidatePassword(newPassword); err != nil {
		fail("New password must be at least 8 characters.")
		return
	}

	user, err := store.GetUser(r.Context(), s.DB, claims.UserID)
	if err != nil || user == nil {
		fail("Could not load your account.")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		fail("Current password is incorrect.")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		fail("Could not save the password.")
		return
	}
	if err := store.UpdateUserPassword(r.Context(), s.DB, claims.UserID, string(hash)); err != nil {
		fail("Could not save the password.")
		return
	}

	slog.Info("user changed own password", "user", claims.Email)
	pd.Success = "Password changed."
	s.Templates.Render(w, "settings.html", &pd)
}
