package api

import (
	"bytes"
	"log/slog"
	"net/http"
	"strings"

	"github.com/erazemk/ewaste/internal/analytics"
	"github.com/erazemk/ewaste/internal/model"
	"github.com/erazemk/ewaste/internal/qr"
	"github.com/erazemk/ewaste/internal/report"
	"github.com/erazemk/ewaste/internal/store"
)

// ReportsHandler serves the derived views and exports.
type ReportsHandler struct {
	Store *store.Store
	Cache *analytics.Cache
}

type campaignsResponse struct {
	Scoreboard    []report.DepartmentScore `json:"scoreboard"`
	Participation report.Participation     `json:"participation"`
}

type overviewResponse struct {
	report.Overview
	Vendors report.VendorSummary `json:"vendors"`
}

// Analytics handles GET /api/analytics.
func (h *ReportsHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, h.Cache.Report(h.Store.Now()))
}

// Compliance handles GET /api/compliance.
func (h *ReportsHandler) Compliance(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, report.Compliance(h.Store.Items(), h.Store.Pickups(), h.Store.Vendors()))
}

// Campaigns handles GET /api/campaigns.
func (h *ReportsHandler) Campaigns(w http.ResponseWriter, r *http.Request) {
	items := h.Store.Items()
	scores := report.Scoreboard(items)
	if scores == nil {
		scores = []report.DepartmentScore{}
	}
	jsonResponse(w, http.StatusOK, campaignsResponse{
		Scoreboard:    scores,
		Participation: report.ParticipationFor(items, h.Store.Now()),
	})
}

// Overview handles GET /api/overview.
func (h *ReportsHandler) Overview(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, overviewResponse{
		Overview: report.OverviewFor(h.Store.Items(), h.Store.Now()),
		Vendors:  report.Vendors(h.Store.Vendors()),
	})
}

// State handles GET /api/state, the full persisted record.
func (h *ReportsHandler) State(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, h.Store.Snapshot())
}

func attachment(w http.ResponseWriter, contentType, filename string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
}

// ItemsCSV handles GET /api/export/items.csv.
func (h *ReportsHandler) ItemsCSV(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := report.WriteItemsCSV(&buf, h.Store.Items()); err != nil {
		slog.Error("failed to export items", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to export items")
		return
	}
	attachment(w, "text/csv; charset=utf-8", "ewaste-items.csv")
	w.Write(buf.Bytes())
}

// ComplianceCSV handles GET /api/export/compliance.csv.
func (h *ReportsHandler) ComplianceCSV(w http.ResponseWriter, r *http.Request) {
	summary := report.Compliance(h.Store.Items(), h.Store.Pickups(), h.Store.Vendors())

	var buf bytes.Buffer
	if err := report.WriteComplianceCSV(&buf, summary); err != nil {
		slog.Error("failed to export compliance report", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to export compliance report")
		return
	}
	attachment(w, "text/csv; charset=utf-8", "compliance-report.csv")
	w.Write(buf.Bytes())
}

// LabelsPDF handles GET /api/export/labels.pdf?ids=a,b. Without ids every
// item that is not disposed gets a label.
func (h *ReportsHandler) LabelsPDF(w http.ResponseWriter, r *http.Request) {
	var items []model.Item
	if ids := r.URL.Query().Get("ids"); ids != "" {
		for _, id := range strings.Split(ids, ",") {
			if it, ok := h.Store.Item(strings.TrimSpace(id)); ok {
				items = append(items, it)
			}
		}
	} else {
		for _, it := range h.Store.Items() {
			if it.Status != model.StatusDisposed {
				items = append(items, it)
			}
		}
	}
	if len(items) == 0 {
		jsonError(w, http.StatusNotFound, "no items to label")
		return
	}

	pdf, err := qr.LabelSheet(items, h.Store.Now())
	if err != nil {
		slog.Error("failed to render label sheet", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to render labels")
		return
	}
	attachment(w, "application/pdf", "ewaste-labels.pdf")
	w.Write(pdf)
}
