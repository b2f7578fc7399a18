package api

import (
	"log/slog"
	"net/http"

	"github.com/erazemk/ewaste/internal/model"
	"github.com/erazemk/ewaste/internal/store"
)

// PickupsHandler handles pickup scheduling.
type PickupsHandler struct {
	Store *store.Store
}

// List handles GET /api/pickups.
func (h *PickupsHandler) List(w http.ResponseWriter, r *http.Request) {
	pickups := h.Store.Pickups()
	if pickups == nil {
		pickups = []model.Pickup{}
	}
	jsonResponse(w, http.StatusOK, pickups)
}

// Create handles POST /api/pickups. Unlike the store, the API insists on a
// known vendor and at least one item.
func (h *PickupsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in store.PickupInput
	if err := decodeJSON(r, &in); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if _, ok := h.Store.Vendor(in.VendorID); !ok {
		jsonError(w, http.StatusBadRequest, "select a vendor")
		return
	}
	if len(in.ItemIDs) == 0 {
		jsonError(w, http.StatusBadRequest, "select at least one item")
		return
	}

	pickup, err := h.Store.SchedulePickup(r.Context(), in)
	if err != nil {
		storeError(w, err, "schedule pickup")
		return
	}

	slog.Info("pickup scheduled", "user", actor(r), "pickup", pickup.ID, "vendor", pickup.VendorID, "date", pickup.Date, "items", len(pickup.ItemIDs))
	jsonResponse(w, http.StatusCreated, pickup)
}
