package api

import (
	"log/slog"
	"net/http"

	"github.com/erazemk/ewaste/internal/model"
	"github.com/erazemk/ewaste/internal/store"
)

// VendorsHandler handles the vendor registry.
type VendorsHandler struct {
	Store *store.Store
}

// List handles GET /api/vendors.
func (h *VendorsHandler) List(w http.ResponseWriter, r *http.Request) {
	vendors := h.Store.Vendors()
	if vendors == nil {
		vendors = []model.Vendor{}
	}
	jsonResponse(w, http.StatusOK, vendors)
}

// Create handles POST /api/vendors.
func (h *VendorsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in store.VendorInput
	if err := decodeJSON(r, &in); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	vendor, err := h.Store.AddVendor(r.Context(), in)
	if err != nil {
		storeError(w, err, "add vendor")
		return
	}

	slog.Info("vendor added", "user", actor(r), "vendor", vendor.ID, "certified", vendor.Certified)
	jsonResponse(w, http.StatusCreated, vendor)
}

// Update handles PUT /api/vendors/{id}.
func (h *VendorsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in store.VendorInput
	if err := decodeJSON(r, &in); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	vendor, err := h.Store.UpdateVendor(r.Context(), r.PathValue("id"), in)
	if err != nil {
		storeError(w, err, "update vendor")
		return
	}
	jsonResponse(w, http.StatusOK, vendor)
}

// Delete handles DELETE /api/vendors/{id}?confirm=true.
func (h *VendorsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !confirmed(r) {
		jsonError(w, http.StatusBadRequest, "confirmation required")
		return
	}

	id := r.PathValue("id")
	if err := h.Store.RemoveVendor(r.Context(), id); err != nil {
		storeError(w, err, "remove vendor")
		return
	}

	slog.Info("vendor removed", "user", actor(r), "vendor", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "vendor removed"})
}
