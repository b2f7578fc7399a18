package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/ewaste/internal/imaging"
	"github.com/erazemk/ewaste/internal/model"
	"github.com/erazemk/ewaste/internal/qr"
	"github.com/erazemk/ewaste/internal/store"
)

// ItemsHandler handles the item table, lifecycle actions, QR tags and photos.
type ItemsHandler struct {
	DB    *sql.DB
	Store *store.Store
}

type stageRequest struct {
	Status model.Status `json:"status"`
}

type disposeRequest struct {
	Confirm bool `json:"confirm"`
}

type disposeResponse struct {
	Item    model.Item `json:"item"`
	Changed bool       `json:"changed"`
}

// List handles GET /api/items?q=&department=&classification=&sort=asc|desc.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.ItemFilter{
		Query:          q.Get("q"),
		Department:     model.Department(q.Get("department")),
		Classification: model.ClassificationType(q.Get("classification")),
		Descending:     q.Get("sort") == "desc",
	}

	items := h.Store.FilterItems(filter)
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Create handles POST /api/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in store.ItemInput
	if err := decodeJSON(r, &in); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.Store.AddItem(r.Context(), in)
	if err != nil {
		storeError(w, err, "create item")
		return
	}

	slog.Info("item reported", "user", actor(r), "item", item.ID, "classification", item.Classification.Type)
	jsonResponse(w, http.StatusCreated, item)
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, ok := h.Store.Item(r.PathValue("id"))
	if !ok {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Update handles PUT /api/items/{id}.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in store.ItemInput
	if err := decodeJSON(r, &in); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.Store.UpdateItem(r.Context(), r.PathValue("id"), in)
	if err != nil {
		storeError(w, err, "update item")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Delete handles DELETE /api/items/{id}?confirm=true.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !confirmed(r) {
		jsonError(w, http.StatusBadRequest, "confirmation required")
		return
	}

	id := r.PathValue("id")
	if err := h.Store.DeleteItem(r.Context(), id); err != nil {
		storeError(w, err, "delete item")
		return
	}
	if err := store.DeleteItemPhoto(r.Context(), h.DB, id); err != nil {
		slog.Warn("failed to delete item photo", "item", id, "error", err)
	}

	slog.Info("item deleted", "user", actor(r), "item", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "item deleted"})
}

// Stage handles POST /api/items/{id}/stage, recording a scan by the caller.
func (h *ItemsHandler) Stage(w http.ResponseWriter, r *http.Request) {
	var req stageRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.Store.MarkStage(r.Context(), r.PathValue("id"), req.Status, actor(r))
	if err != nil {
		storeError(w, err, "mark stage")
		return
	}

	slog.Info("stage marked", "user", actor(r), "item", item.ID, "status", item.Status)
	jsonResponse(w, http.StatusOK, item)
}

// Dispose handles POST /api/items/{id}/dispose. The body must confirm.
func (h *ItemsHandler) Dispose(w http.ResponseWriter, r *http.Request) {
	var req disposeRequest
	if err := decodeJSON(r, &req); err != nil || !req.Confirm {
		jsonError(w, http.StatusBadRequest, "confirmation required")
		return
	}

	item, changed, err := h.Store.DisposeItem(r.Context(), r.PathValue("id"), actor(r))
	if err != nil {
		storeError(w, err, "dispose item")
		return
	}

	if changed {
		slog.Info("item disposed", "user", actor(r), "item", item.ID)
	}
	jsonResponse(w, http.StatusOK, disposeResponse{Item: item, Changed: changed})
}

// QuickSchedule handles POST /api/items/{id}/quick-schedule.
func (h *ItemsHandler) QuickSchedule(w http.ResponseWriter, r *http.Request) {
	pickup, err := h.Store.QuickSchedule(r.Context(), r.PathValue("id"))
	if err != nil {
		storeError(w, err, "schedule pickup")
		return
	}

	slog.Info("pickup scheduled", "user", actor(r), "pickup", pickup.ID, "vendor", pickup.VendorID, "date", pickup.Date)
	jsonResponse(w, http.StatusCreated, pickup)
}

// QRCode handles GET /api/items/{id}/qr.png?size=N.
func (h *ItemsHandler) QRCode(w http.ResponseWriter, r *http.Request) {
	item, ok := h.Store.Item(r.PathValue("id"))
	if !ok {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	size := qr.DefaultSize
	if s := r.URL.Query().Get("size"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 64 || n > 2048 {
			jsonError(w, http.StatusBadRequest, "size must be between 64 and 2048")
			return
		}
		size = n
	}

	png, err := qr.PNG(item, h.Store.Now(), size)
	if err != nil {
		slog.Error("failed to render QR code", "item", item.ID, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to render QR code")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", `inline; filename="`+item.QRID+`.png"`)
	w.Write(png)
}

// QRText handles GET /api/items/{id}/qr.txt, the text encoded in the tag.
func (h *ItemsHandler) QRText(w http.ResponseWriter, r *http.Request) {
	item, ok := h.Store.Item(r.PathValue("id"))
	if !ok {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(qr.Payload(item, h.Store.Now())))
}

// UploadPhoto handles PUT /api/items/{id}/photo.
func (h *ItemsHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := h.Store.Item(id); !ok {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(imaging.MaxUploadBytes); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("photo")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "photo file required")
		return
	}
	defer file.Close()

	photo, err := imaging.ProcessPhoto(file)
	switch {
	case errors.Is(err, imaging.ErrUnsupported):
		jsonError(w, http.StatusBadRequest, "photo must be JPEG, PNG, or WebP")
		return
	case errors.Is(err, imaging.ErrTooLarge):
		jsonError(w, http.StatusRequestEntityTooLarge, "photo too large")
		return
	case err != nil:
		slog.Error("failed to process photo", "item", id, "error", err)
		jsonError(w, http.StatusBadRequest, "could not read photo")
		return
	}

	if err := store.SetItemPhoto(r.Context(), h.DB, id, photo.Image, photo.Thumbnail, photo.MIME); err != nil {
		slog.Error("failed to save photo", "item", id, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to save photo")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "photo uploaded"})
}

// GetPhoto handles GET /api/items/{id}/photo?thumb=1.
func (h *ItemsHandler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	photo, err := store.GetItemPhoto(r.Context(), h.DB, r.PathValue("id"))
	if err != nil {
		slog.Error("failed to get photo", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get photo")
		return
	}
	if photo == nil {
		jsonError(w, http.StatusNotFound, "no photo")
		return
	}

	data := photo.Image
	if r.URL.Query().Get("thumb") == "1" {
		data = photo.Thumbnail
	}

	w.Header().Set("Content-Type", photo.Mime)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.Write(data)
}
