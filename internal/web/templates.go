package web

import (
	"database/sql"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/ewaste/internal/analytics"
	"github.com/erazemk/ewaste/internal/auth"
	"github.com/erazemk/ewaste/internal/lifecycle"
	"github.com/erazemk/ewaste/internal/model"
	"github.com/erazemk/ewaste/internal/report"
	"github.com/erazemk/ewaste/internal/store"
	webembed "github.com/erazemk/ewaste/web"
)

// Templates holds parsed HTML templates.
type Templates struct {
	templates map[string]*template.Template
}

// FuncMap returns the template function map.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"roleAtLeast": model.RoleAtLeast,
		"roleName": func(role string) string {
			switch role {
			case model.RoleAdmin:
				return "Administrator"
			case model.RoleManager:
				return "Facilities manager"
			case model.RoleUser:
				return "Staff"
			default:
				return role
			}
		},
		"classBadge": func(t model.ClassificationType) string {
			switch t {
			case model.Hazardous:
				return "badge-hazardous"
			case model.Reusable:
				return "badge-reusable"
			default:
				return "badge-recyclable"
			}
		},
		"statusBadge": func(s model.Status) string {
			switch s {
			case model.StatusDisposed:
				return "badge-disposed"
			case model.StatusRecycled:
				return "badge-done"
			case model.StatusReported:
				return "badge-new"
			default:
				return "badge-progress"
			}
		},
		"date": func(t time.Time) string {
			return t.Local().Format("2006-01-02")
		},
		"datetime": func(t time.Time) string {
			return t.Local().Format("2006-01-02 15:04")
		},
		"pct": func(v float64) string {
			return fmt.Sprintf("%.1f%%", v)
		},
		"kg": func(v float64) string {
			return fmt.Sprintf("%.1f kg", v)
		},
		"stages":       lifecycle.Stages,
		"departments":  model.Departments,
		"categories":   model.Categories,
		"conditions":   model.Conditions,
		"classTypes":   model.ClassificationTypes,
		"views":        model.Views,
		"isTerminal":   func(s model.Status) bool { return s.Terminal() },
		"barHeight":    barHeight,
		"vendorName":   vendorName,
		"inc":          func(i int) int { return i + 1 },
		"classType":    func(name string) model.ClassificationType { return model.ClassificationType(name) },
		"roles":        func() []string { return []string{model.RoleUser, model.RoleManager, model.RoleAdmin} },
		"breakdown":    func(title string, rows []report.Count) breakdown { return breakdown{Title: title, Rows: rows} },
	}
}

// breakdown feeds the shared compliance table template.
type breakdown struct {
	Title string
	Rows  []report.Count
}

// barHeight scales a value to a percentage of max for the CSS bar charts.
func barHeight(v, max int) int {
	if max <= 0 {
		return 0
	}
	return v * 100 / max
}

func vendorName(vendors []model.Vendor, id string) string {
	for _, v := range vendors {
		if v.ID == id {
			return v.Name
		}
	}
	return "Removed vendor"
}

var pages = []string{
	"login.html",
	"signup.html",
	"items.html",
	"item_detail.html",
	"scheduling.html",
	"compliance.html",
	"campaigns.html",
	"analytics.html",
	"vendors.html",
	"users.html",
	"settings.html",
}

// LoadTemplates parses all page templates with the layout.
func LoadTemplates() (*Templates, error) {
	tfs := webembed.TemplatesFS()

	layoutBytes, err := fs.ReadFile(tfs, "layout.html")
	if err != nil {
		return nil, fmt.Errorf("reading layout template: %w", err)
	}

	ts := &Templates{templates: make(map[string]*template.Template)}

	for _, page := range pages {
		pageBytes, err := fs.ReadFile(tfs, page)
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", page, err)
		}

		tmpl := template.New(page).Funcs(FuncMap())
		tmpl, err = tmpl.Parse(string(layoutBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing layout for %s: %w", page, err)
		}
		tmpl, err = tmpl.Parse(string(pageBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", page, err)
		}

		ts.templates[page] = tmpl
	}

	return ts, nil
}

// Render renders a template with the given data.
func (ts *Templates) Render(w http.ResponseWriter, name string, data any) {
	ts.RenderStatus(w, http.StatusOK, name, data)
}

// RenderStatus renders a template with a non-200 status code.
func (ts *Templates) RenderStatus(w http.ResponseWriter, status int, name string, data any) {
	tmpl, ok := ts.templates[name]
	if !ok {
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		slog.Error("failed to render template", "template", name, "error", err)
	}
}

// PageData is the base data passed to all templates.
type PageData struct {
	Title string
	// View selects the highlighted navigation entry.
	View    model.View
	User    *auth.Claims
	Error   string
	Success string
}

// Server holds all dependencies for page handlers.
type Server struct {
	DB        *sql.DB
	Store     *store.Store
	Analytics *analytics.Cache
	Templates *Templates
	JWTSecret string
}

// page builds the base data for an authenticated view.
func (s *Server) page(r *http.Request, view model.View) PageData {
	return PageData{
		Title: view.Title(),
		View:  view,
		User:  GetWebClaims(r.Context()),
	}
}
