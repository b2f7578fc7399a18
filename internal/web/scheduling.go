package web

import (
	"log/slog"
	"net/http"

	"github.com/erazemk/ewaste/internal/model"
	"github.com/erazemk/ewaste/internal/store"
)

type schedulingPage struct {
	PageData
	// Reported items are the only ones offered for a new pickup.
	Reported []model.Item
	Pickups  []model.Pickup
	Vendors  []model.Vendor
	Today    string
}

// SchedulingPage handles GET /scheduling.
func (s *Server) SchedulingPage(w http.ResponseWriter, r *http.Request) {
	var reported []model.Item
	for _, it := range s.Store.Items() {
		if it.Status == model.StatusReported {
			reported = append(reported, it)
		}
	}

	pd := s.page(r, model.ViewScheduling)
	flash(r, &pd)
	s.Templates.Render(w, "scheduling.html", &schedulingPage{
		PageData: pd,
		Reported: reported,
		Pickups:  s.Store.Pickups(),
		Vendors:  s.Store.Vendors(),
		Today:    s.Store.Now().Format(model.DateLayout),
	})
}

// PickupCreateSubmit handles POST /scheduling (manager+). A vendor and at
// least one item are required.
func (s *Server) PickupCreateSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		redirectWith(w, r, "/scheduling", "err", "Invalid form.")
		return
	}

	in := store.PickupInput{
		Date:     r.FormValue("date"),
		VendorID: r.FormValue("vendor_id"),
		ItemIDs:  r.Form["item_ids"],
		Notes:    r.FormValue("notes"),
	}
	if _, ok := s.Store.Vendor(in.VendorID); !ok {
		redirectWith(w, r, "/scheduling", "err", "Select a vendor.")
		return
	}
	if len(in.ItemIDs) == 0 {
		redirectWith(w, r, "/scheduling", "err", "Select at least one item.")
		return
	}

	pickup, err := s.Store.SchedulePickup(r.Context(), in)
	if err != nil {
		redirectWith(w, r, "/scheduling", "err", userMessage(err))
		return
	}

	slog.Info("pickup scheduled", "user", actor(r), "pickup", pickup.ID, "vendor", pickup.VendorID, "date", pickup.Date, "items", len(pickup.ItemIDs))
	redirectWith(w, r, "/scheduling", "ok", "Pickup scheduled for "+pickup.Date+".")
}
