package web

import (
	"log/slog"
	"net/http"

	"github.com/erazemk/ewaste/internal/model"
	"github.com/erazemk/ewaste/internal/report"
	"github.com/erazemk/ewaste/internal/store"
)

type vendorsPage struct {
	PageData
	Vendors []model.Vendor
	Summary report.VendorSummary
}

// VendorsPage handles GET /vendors.
func (s *Server) VendorsPage(w http.ResponseWriter, r *http.Request) {
	vendors := s.Store.Vendors()
	pd := s.page(r, model.ViewVendors)
	flash(r, &pd)
	s.Templates.Render(w, "vendors.html", &vendorsPage{
		PageData: pd,
		Vendors:  vendors,
		Summary:  report.Vendors(vendors),
	})
}

func vendorForm(r *http.Request) store.VendorInput {
	return store.VendorInput{
		Name:      r.FormValue("name"),
		Contact:   r.FormValue("contact"),
		Certified: r.FormValue("certified") == "on",
	}
}

// VendorCreateSubmit handles POST /vendors (manager+).
func (s *Server) VendorCreateSubmit(w http.ResponseWriter, r *http.Request) {
	v, err := s.Store.AddVendor(r.Context(), vendorForm(r))
	if err != nil {
		redirectWith(w, r, "/vendors", "err", userMessage(err))
		return
	}
	slog.Info("vendor added", "user", actor(r), "vendor", v.ID, "certified", v.Certified)
	redirectWith(w, r, "/vendors", "ok", v.Name+" added.")
}

// VendorUpdateSubmit handles POST /vendors/{id} (manager+).
func (s *Server) VendorUpdateSubmit(w http.ResponseWriter, r *http.Request) {
	v, err := s.Store.UpdateVendor(r.Context(), r.PathValue("id"), vendorForm(r))
	if err != nil {
		redirectWith(w, r, "/vendors", "err", userMessage(err))
		return
	}
	redirectWith(w, r, "/vendors", "ok", v.Name+" updated.")
}

// VendorDeleteSubmit handles POST /vendors/{id}/delete (manager+).
func (s *Server) VendorDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if r.FormValue("confirm") != "yes" {
		redirectWith(w, r, "/vendors", "err", "Removal was not confirmed.")
		return
	}
	if err := s.Store.RemoveVendor(r.Context(), id); err != nil {
		redirectWith(w, r, "/vendors", "err", userMessage(err))
		return
	}
	slog.Info("vendor removed", "user", actor(r), "vendor", id)
	redirectWith(w, r, "/vendors", "ok", "Vendor removed.")
}
