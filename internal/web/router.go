package web

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/ewaste/internal/analytics"
	"github.com/erazemk/ewaste/internal/model"
	"github.com/erazemk/ewaste/internal/store"
	webembed "github.com/erazemk/ewaste/web"
)

// NewRouter creates the web page router with all page routes registered.
// cache may be nil.
func NewRouter(db *sql.DB, st *store.Store, cache *analytics.Cache, jwtSecret string) (http.Handler, error) {
	templates, err := LoadTemplates()
	if err != nil {
		return nil, err
	}
	if cache == nil {
		cache = analytics.NewCache(st)
	}

	s := &Server{
		DB:        db,
		Store:     st,
		Analytics: cache,
		Templates: templates,
		JWTSecret: jwtSecret,
	}

	mux := http.NewServeMux()
	cookieAuth := CookieAuthMiddleware(jwtSecret, db)
	page := func(h http.HandlerFunc) http.Handler { return cookieAuth(h) }
	manager := func(h http.HandlerFunc) http.Handler { return cookieAuth(requireRole(model.RoleManager, h)) }
	admin := func(h http.HandlerFunc) http.Handler { return cookieAuth(requireRole(model.RoleAdmin, h)) }

	// Static assets.
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(webembed.StaticFS()))))

	// Public routes.
	mux.HandleFunc("GET /login", s.LoginPage)
	mux.HandleFunc("POST /login", s.LoginSubmit)
	mux.HandleFunc("GET /signup", s.SignupPage)
	mux.HandleFunc("POST /signup", s.SignupSubmit)
	mux.HandleFunc("POST /logout", s.Logout)

	mux.Handle("GET /{$}", page(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, model.ViewItems.Path(), http.StatusSeeOther)
	}))

	mux.Handle("GET /items", page(s.ItemsPage))
	mux.Handle("POST /items", page(s.ItemCreateSubmit))
	mux.Handle("GET /items/{id}", page(s.ItemDetailPage))
	mux.Handle("POST /items/{id}", page(s.ItemUpdateSubmit))
	mux.Handle("POST /items/{id}/stage", page(s.ItemStageSubmit))
	mux.Handle("POST /items/{id}/photo", page(s.ItemPhotoSubmit))
	mux.Handle("GET /items/{id}/photo", page(s.ItemPhotoGet))
	mux.Handle("GET /items/{id}/qr.png", page(s.ItemQRGet))
	mux.Handle("POST /items/{id}/dispose", manager(s.ItemDisposeSubmit))
	mux.Handle("POST /items/{id}/delete", manager(s.ItemDeleteSubmit))
	mux.Handle("POST /items/{id}/quick-schedule", manager(s.ItemQuickScheduleSubmit))

	mux.Handle("GET /scheduling", page(s.SchedulingPage))
	mux.Handle("POST /scheduling", manager(s.PickupCreateSubmit))

	mux.Handle("GET /compliance", page(s.CompliancePage))
	mux.Handle("GET /campaigns", page(s.CampaignsPage))
	mux.Handle("GET /analytics", page(s.AnalyticsPage))

	mux.Handle("GET /vendors", page(s.VendorsPage))
	mux.Handle("POST /vendors", manager(s.VendorCreateSubmit))
	mux.Handle("POST /vendors/{id}", manager(s.VendorUpdateSubmit))
	mux.Handle("POST /vendors/{id}/delete", manager(s.VendorDeleteSubmit))

	mux.Handle("GET /users", admin(s.UsersPage))
	mux.Handle("POST /users", admin(s.UserCreateSubmit))
	mux.Handle("POST /users/{id}/password", admin(s.UserResetPasswordSubmit))
	mux.Handle("POST /users/{id}/role", admin(s.UserUpdateRoleSubmit))
	mux.Handle("POST /users/{id}/delete", admin(s.UserDeleteSubmit))

	mux.Handle("GET /settings", page(s.SettingsPage))
	mux.Handle("POST /settings", page(s.SettingsSubmit))

	return mux, nil
}
