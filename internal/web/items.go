package web

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/erazemk/ewaste/internal/imaging"
	"github.com/erazemk/ewaste/internal/lifecycle"
	"github.com/erazemk/ewaste/internal/model"
	"github.com/erazemk/ewaste/internal/qr"
	"github.com/erazemk/ewaste/internal/store"
)

type itemsPage struct {
	PageData
	Items   []model.Item
	Filter  store.ItemFilter
	Sort    string
	Form    store.ItemInput
	Total   int
	Vendors int
}

// Intake form defaults.
const (
	defaultAgeMonths = 12
	defaultCondition = model.ConditionFair
)

var errBadAge = errors.New("age is not a whole number of months")

// itemForm reads the intake/edit form fields. The age must parse, since
// it decides the classification at intake.
func itemForm(r *http.Request) (store.ItemInput, error) {
	in := store.ItemInput{
		Name:       r.FormValue("name"),
		Department: model.Department(r.FormValue("department")),
		Category:   model.Category(r.FormValue("category")),
		Condition:  model.Condition(r.FormValue("condition")),
		Notes:      r.FormValue("notes"),
	}
	age, err := strconv.Atoi(strings.TrimSpace(r.FormValue("age_months")))
	if err != nil || age < 0 {
		in.AgeMonths = defaultAgeMonths
		return in, errBadAge
	}
	in.AgeMonths = age
	return in, nil
}

// redirectWith sends the browser back to path with a flash message.
func redirectWith(w http.ResponseWriter, r *http.Request, path, key, msg string) {
	http.Redirect(w, r, path+"?"+url.Values{key: {msg}}.Encode(), http.StatusSeeOther)
}

// flash copies ?ok= and ?err= messages into the page data.
func flash(r *http.Request, pd *PageData) {
	if msg := r.URL.Query().Get("ok"); msg != "" {
		pd.Success = msg
	}
	if msg := r.URL.Query().Get("err"); msg != "" {
		pd.Error = msg
	}
}

// userMessage turns a store error into text fit for the page.
func userMessage(err error) string {
	switch {
	case errors.Is(err, errBadAge):
		return "Age must be a whole number of months."
	case errors.Is(err, store.ErrNotFound):
		return "That record no longer exists."
	case errors.Is(err, lifecycle.ErrTerminal):
		return "Disposed items cannot change stage."
	case errors.Is(err, store.ErrNoVendors):
		return "Add a vendor before scheduling pickups."
	case errors.Is(err, store.ErrInvalidInput), errors.Is(err, lifecycle.ErrInvalidStage):
		return err.Error()
	default:
		slog.Error("store operation failed", "error", err)
		return "Something went wrong, try again."
	}
}

func (s *Server) renderItems(w http.ResponseWriter, r *http.Request, status int, form store.ItemInput, errMsg string) {
	q := r.URL.Query()
	filter := store.ItemFilter{
		Query:          q.Get("q"),
		Department:     model.Department(q.Get("department")),
		Classification: model.ClassificationType(q.Get("classification")),
		Descending:     q.Get("sort") == "desc",
	}

	pd := s.page(r, model.ViewItems)
	flash(r, &pd)
	if errMsg != "" {
		pd.Error = errMsg
	}

	s.Templates.RenderStatus(w, status, "items.html", &itemsPage{
		PageData: pd,
		Items:    s.Store.FilterItems(filter),
		Filter:   filter,
		Sort:     q.Get("sort"),
		Form:     form,
		Total:    len(s.Store.Items()),
		Vendors:  len(s.Store.Vendors()),
	})
}

// ItemsPage handles GET /items.
func (s *Server) ItemsPage(w http.ResponseWriter, r *http.Request) {
	s.renderItems(w, r, http.StatusOK, store.ItemInput{AgeMonths: defaultAgeMonths, Condition: defaultCondition}, "")
}

// ItemCreateSubmit handles POST /items.
func (s *Server) ItemCreateSubmit(w http.ResponseWriter, r *http.Request) {
	in, err := itemForm(r)
	if err != nil {
		s.renderItems(w, r, http.StatusBadRequest, in, userMessage(err))
		return
	}
	item, err := s.Store.AddItem(r.Context(), in)
	if err != nil {
		s.renderItems(w, r, http.StatusBadRequest, in, userMessage(err))
		return
	}

	slog.Info("item reported", "user", actor(r), "item", item.ID, "classification", item.Classification.Type)
	redirectWith(w, r, "/items", "ok", item.Name+" added as "+string(item.Classification.Type)+".")
}

type itemDetailPage struct {
	PageData
	Item     model.Item
	Pickup   *model.Pickup
	Vendors  []model.Vendor
	HasPhoto bool
	QRText   string
}

// ItemDetailPage handles GET /items/{id}.
func (s *Server) ItemDetailPage(w http.ResponseWriter, r *http.Request) {
	item, ok := s.Store.Item(r.PathValue("id"))
	if !ok {
		http.NotFound(w, r)
		return
	}

	var pickup *model.Pickup
	if item.PickupID != "" {
		for _, p := range s.Store.Pickups() {
			if p.ID == item.PickupID {
				pickup = &p
				break
			}
		}
	}

	photo, err := store.GetItemPhoto(r.Context(), s.DB, item.ID)
	if err != nil {
		slog.Error("failed to get photo", "item", item.ID, "error", err)
	}

	pd := s.page(r, model.ViewItems)
	pd.Title = item.Name
	flash(r, &pd)
	s.Templates.Render(w, "item_detail.html", &itemDetailPage{
		PageData: pd,
		Item:     item,
		Pickup:   pickup,
		Vendors:  s.Store.Vendors(),
		HasPhoto: photo != nil,
		QRText:   qr.Payload(item, s.Store.Now()),
	})
}

// ItemUpdateSubmit handles POST /items/{id}.
func (s *Server) ItemUpdateSubmit(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	in, err := itemForm(r)
	if err != nil {
		redirectWith(w, r, "/items/"+id, "err", userMessage(err))
		return
	}
	if _, err := s.Store.UpdateItem(r.Context(), id, in); err != nil {
		redirectWith(w, r, "/items/"+id, "err", userMessage(err))
		return
	}
	redirectWith(w, r, "/items/"+id, "ok", "Item updated.")
}

// ItemStageSubmit handles POST /items/{id}/stage, recording a scan.
func (s *Server) ItemStageSubmit(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	item, err := s.Store.MarkStage(r.Context(), id, model.Status(r.FormValue("status")), actor(r))
	if err != nil {
		redirectWith(w, r, "/items/"+id, "err", userMessage(err))
		return
	}

	slog.Info("stage marked", "user", actor(r), "item", id, "status", item.Status)
	redirectWith(w, r, "/items/"+id, "ok", "Marked "+string(item.Status)+".")
}

// ItemDisposeSubmit handles POST /items/{id}/dispose. The form must carry
// confirm=yes, set by the browser's confirmation prompt.
func (s *Server) ItemDisposeSubmit(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if r.FormValue("confirm") != "yes" {
		redirectWith(w, r, "/items/"+id, "err", "Disposal was not confirmed.")
		return
	}

	_, changed, err := s.Store.DisposeItem(r.Context(), id, actor(r))
	if err != nil {
		redirectWith(w, r, "/items", "err", userMessage(err))
		return
	}
	if !changed {
		redirectWith(w, r, "/items/"+id, "ok", "Item was already disposed.")
		return
	}

	slog.Info("item disposed", "user", actor(r), "item", id)
	redirectWith(w, r, "/items/"+id, "ok", "Item disposed.")
}

// ItemDeleteSubmit handles POST /items/{id}/delete (manager+).
func (s *Server) ItemDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if r.FormValue("confirm") != "yes" {
		redirectWith(w, r, "/items/"+id, "err", "Deletion was not confirmed.")
		return
	}

	if err := s.Store.DeleteItem(r.Context(), id); err != nil {
		redirectWith(w, r, "/items", "err", userMessage(err))
		return
	}
	if err := store.DeleteItemPhoto(r.Context(), s.DB, id); err != nil {
		slog.Warn("failed to delete item photo", "item", id, "error", err)
	}

	slog.Info("item deleted", "user", actor(r), "item", id)
	redirectWith(w, r, "/items", "ok", "Item deleted.")
}

// ItemQuickScheduleSubmit handles POST /items/{id}/quick-schedule (manager+).
func (s *Server) ItemQuickScheduleSubmit(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	pickup, err := s.Store.QuickSchedule(r.Context(), id)
	if err != nil {
		redirectWith(w, r, "/items", "err", userMessage(err))
		return
	}

	slog.Info("pickup scheduled", "user", actor(r), "pickup", pickup.ID, "vendor", pickup.VendorID, "date", pickup.Date)
	redirectWith(w, r, "/items", "ok", "Pickup scheduled for "+pickup.Date+".")
}

// ItemPhotoSubmit handles POST /items/{id}/photo.
func (s *Server) ItemPhotoSubmit(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := s.Store.Item(id); !ok {
		http.NotFound(w, r)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(imaging.MaxUploadBytes); err != nil {
		redirectWith(w, r, "/items/"+id, "err", "Photo is too large.")
		return
	}
	file, _, err := r.FormFile("photo")
	if err != nil {
		redirectWith(w, r, "/items/"+id, "err", "Choose a photo to upload.")
		return
	}
	defer file.Close()

	photo, err := imaging.ProcessPhoto(file)
	if err != nil {
		slog.Warn("rejected photo", "item", id, "error", err)
		redirectWith(w, r, "/items/"+id, "err", "Photo must be a JPEG, PNG or WebP image under 10 MB.")
		return
	}
	if err := store.SetItemPhoto(r.Context(), s.DB, id, photo.Image, photo.Thumbnail, photo.MIME); err != nil {
		slog.Error("failed to save photo", "item", id, "error", err)
		redirectWith(w, r, "/items/"+id, "err", "Could not save the photo.")
		return
	}
	redirectWith(w, r, "/items/"+id, "ok", "Photo saved.")
}

// ItemPhotoGet handles GET /items/{id}/photo?thumb=1.
func (s *Server) ItemPhotoGet(w http.ResponseWriter, r *http.Request) {
	photo, err := store.GetItemPhoto(r.Context(), s.DB, r.PathValue("id"))
	if err != nil {
		slog.Error("failed to get photo", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if photo == nil {
		http.NotFound(w, r)
		return
	}

	data := photo.Image
	if r.URL.Query().Get("thumb") == "1" {
		data = photo.Thumbnail
	}
	w.Header().Set("Content-Type", photo.Mime)
	w.Header().Set("Content-Disposition", "inline")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "private, max-age=3600")
	if _, err := w.Write(data); err != nil {
		slog.Error("failed to write photo response", "error", err)
	}
}

// ItemQRGet handles GET /items/{id}/qr.png.
func (s *Server) ItemQRGet(w http.ResponseWriter, r *http.Request) {
	item, ok := s.Store.Item(r.PathValue("id"))
	if !ok {
		http.NotFound(w, r)
		return
	}

	png, err := qr.PNG(item, s.Store.Now(), qr.DefaultSize)
	if err != nil {
		slog.Error("failed to render QR code", "item", item.ID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	if r.URL.Query().Get("download") == "1" {
		w.Header().Set("Content-Disposition", `attachment; filename="`+item.QRID+`.png"`)
	}
	w.Write(png)
}
