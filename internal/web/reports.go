package web

import (
	"net/http"

	"github.com/erazemk/ewaste/internal/analytics"
	"github.com/erazemk/ewaste/internal/model"
	"github.com/erazemk/ewaste/internal/report"
)

type compliancePage struct {
	PageData
	Summary  report.ComplianceSummary
	Overview report.Overview
}

// CompliancePage handles GET /compliance.
func (s *Server) CompliancePage(w http.ResponseWriter, r *http.Request) {
	items := s.Store.Items()
	s.Templates.Render(w, "compliance.html", &compliancePage{
		PageData: s.page(r, model.ViewCompliance),
		Summary:  report.Compliance(items, s.Store.Pickups(), s.Store.Vendors()),
		Overview: report.OverviewFor(items, s.Store.Now()),
	})
}

type campaignsPage struct {
	PageData
	Scoreboard    []report.DepartmentScore
	Participation report.Participation
	Overview      report.Overview
}

// CampaignsPage handles GET /campaigns.
func (s *Server) CampaignsPage(w http.ResponseWriter, r *http.Request) {
	items := s.Store.Items()
	now := s.Store.Now()
	s.Templates.Render(w, "campaigns.html", &campaignsPage{
		PageData:      s.page(r, model.ViewCampaigns),
		Scoreboard:    report.Scoreboard(items),
		Participation: report.ParticipationFor(items, now),
		Overview:      report.OverviewFor(items, now),
	})
}

type analyticsPage struct {
	PageData
	Report    analytics.Report
	MaxMonth  int
	MaxDept   int
	ClassPcts map[string]float64
}

// AnalyticsPage handles GET /analytics.
func (s *Server) AnalyticsPage(w http.ResponseWriter, r *http.Request) {
	rep := s.Analytics.Report(s.Store.Now())

	p := &analyticsPage{
		PageData:  s.page(r, model.ViewAnalytics),
		Report:    rep,
		ClassPcts: make(map[string]float64, len(rep.Classifications)),
	}
	for _, m := range rep.Months {
		p.MaxMonth = max(p.MaxMonth, m.Total)
	}
	for _, d := range rep.Departments {
		p.MaxDept = max(p.MaxDept, d.Count)
	}
	for _, c := range rep.Classifications {
		p.ClassPcts[c.Name] = analytics.Percent(c.Value, rep.TotalItems)
	}
	s.Templates.Render(w, "analytics.html", p)
}
