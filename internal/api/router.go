package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/ewaste/internal/analytics"
	"github.com/erazemk/ewaste/internal/model"
	"github.com/erazemk/ewaste/internal/store"
)

// Deps are the shared dependencies of the API handlers.
type Deps struct {
	DB        *sql.DB
	Store     *store.Store
	JWTSecret string
	Analytics *analytics.Cache
	// Events serves the change notification websocket. Optional.
	Events http.Handler
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(d Deps) http.Handler {
	if d.Analytics == nil {
		d.Analytics = analytics.NewCache(d.Store)
	}

	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: d.DB, JWTSecret: d.JWTSecret}
	usersHandler := &UsersHandler{DB: d.DB}
	itemsHandler := &ItemsHandler{DB: d.DB, Store: d.Store}
	pickupsHandler := &PickupsHandler{Store: d.Store}
	vendorsHandler := &VendorsHandler{Store: d.Store}
	reportsHandler := &ReportsHandler{Store: d.Store, Cache: d.Analytics}

	authMW := AuthMiddleware(d.JWTSecret, d.DB)
	requireAdmin := RequireRole(model.RoleAdmin)
	requireManager := RequireRole(model.RoleManager)

	// Public.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/auth/signup", authHandler.Signup)

	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))
	mux.Handle("GET /api/auth/me", authMW(http.HandlerFunc(authHandler.Me)))
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))

	// Users (admin only).
	mux.Handle("GET /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("POST /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.Create))))
	mux.Handle("GET /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Get))))
	mux.Handle("PUT /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Update))))
	mux.Handle("PUT /api/users/{id}/password", authMW(requireAdmin(http.HandlerFunc(usersHandler.ResetPassword))))
	mux.Handle("DELETE /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Delete))))

	// Items: reporting and scanning (all roles), removal (manager+).
	mux.Handle("GET /api/items", authMW(http.HandlerFunc(itemsHandler.List)))
	mux.Handle("POST /api/items", authMW(http.HandlerFunc(itemsHandler.Create)))
	mux.Handle("GET /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Get)))
	mux.Handle("PUT /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Update)))
	mux.Handle("DELETE /api/items/{id}", authMW(requireManager(http.HandlerFunc(itemsHandler.Delete))))
	mux.Handle("POST /api/items/{id}/stage", authMW(http.HandlerFunc(itemsHandler.Stage)))
	mux.Handle("POST /api/items/{id}/dispose", authMW(requireManager(http.HandlerFunc(itemsHandler.Dispose))))
	mux.Handle("POST /api/items/{id}/quick-schedule", authMW(requireManager(http.HandlerFunc(itemsHandler.QuickSchedule))))
	mux.Handle("GET /api/items/{id}/qr.png", authMW(http.HandlerFunc(itemsHandler.QRCode)))
	mux.Handle("GET /api/items/{id}/qr.txt", authMW(http.HandlerFunc(itemsHandler.QRText)))
	mux.Handle("PUT /api/items/{id}/photo", authMW(http.HandlerFunc(itemsHandler.UploadPhoto)))
	mux.Handle("GET /api/items/{id}/photo", authMW(http.HandlerFunc(itemsHandler.GetPhoto)))

	// Pickups and vendors: read (all roles), write (manager+).
	mux.Handle("GET /api/pickups", authMW(http.HandlerFunc(pickupsHandler.List)))
	mux.Handle("POST /api/pickups", authMW(requireManager(http.HandlerFunc(pickupsHandler.Create))))
	mux.Handle("GET /api/vendors", authMW(http.HandlerFunc(vendorsHandler.List)))
	mux.Handle("POST /api/vendors", authMW(requireManager(http.HandlerFunc(vendorsHandler.Create))))
	mux.Handle("PUT /api/vendors/{id}", authMW(requireManager(http.HandlerFunc(vendorsHandler.Update))))
	mux.Handle("DELETE /api/vendors/{id}", authMW(requireManager(http.HandlerFunc(vendorsHandler.Delete))))

	// Reports and exports.
	mux.Handle("GET /api/analytics", authMW(http.HandlerFunc(reportsHandler.Analytics)))
	mux.Handle("GET /api/compliance", authMW(http.HandlerFunc(reportsHandler.Compliance)))
	mux.Handle("GET /api/campaigns", authMW(http.HandlerFunc(reportsHandler.Campaigns)))
	mux.Handle("GET /api/overview", authMW(http.HandlerFunc(reportsHandler.Overview)))
	mux.Handle("GET /api/state", authMW(http.HandlerFunc(reportsHandler.State)))
	mux.Handle("GET /api/export/items.csv", authMW(http.HandlerFunc(reportsHandler.ItemsCSV)))
	mux.Handle("GET /api/export/compliance.csv", authMW(http.HandlerFunc(reportsHandler.ComplianceCSV)))
	mux.Handle("GET /api/export/labels.pdf", authMW(http.HandlerFunc(reportsHandler.LabelsPDF)))

	if d.Events != nil {
		mux.Handle("GET /api/events", authMW(d.Events))
	}

	return mux
}
