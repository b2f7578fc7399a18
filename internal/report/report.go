// Package report builds the compliance, campaign and overview summaries
// and their CSV exports.
package report

import (
	"sort"
	"time"

	"github.com/erazemk/ewaste/internal/model"
)

// Count is one keyed row of a breakdown, in first-appearance order.
type Count struct {
	Key   string `json:"key"`
	Value int    `json:"value"`
}

// counter tallies keys while remembering the order they first appeared in.
type counter struct {
	order []string
	n     map[string]int
}

func newCounter() *counter {
	return &counter{n: make(map[string]int)}
}

func (c *counter) add(key string) {
	if _, ok := c.n[key]; !ok {
		c.order = append(c.order, key)
	}
	c.n[key]++
}

func (c *counter) rows() []Count {
	out := make([]Count, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, Count{Key: k, Value: c.n[k]})
	}
	return out
}

// ComplianceSummary is the regulator-facing view of the inventory.
type ComplianceSummary struct {
	Total            int     `json:"total"`
	WithPickup       int     `json:"withPickup"`
	CertifiedPickups int     `json:"certifiedPickups"`
	Hazardous        int     `json:"hazardous"`
	ByClass          []Count `json:"byClass"`
	ByCategory       []Count `json:"byCategory"`
	ByDepartment     []Count `json:"byDepartment"`
}

// Compliance summarizes items, counting pickups whose vendor is certified.
// Pickups referencing removed vendors are not certified.
func Compliance(items []model.Item, pickups []model.Pickup, vendors []model.Vendor) ComplianceSummary {
	s := ComplianceSummary{Total: len(items)}

	byClass, byCategory, byDept := newCounter(), newCounter(), newCounter()
	for _, it := range items {
		if it.PickupID != "" {
			s.WithPickup++
		}
		if it.Classification.Type == model.Hazardous {
			s.Hazardous++
		}
		byClass.add(string(it.Classification.Type))
		byCategory.add(string(it.Category))
		byDept.add(string(it.Department))
	}

	certified := make(map[string]bool, len(vendors))
	for _, v := range vendors {
		if v.Certified {
			certified[v.ID] = true
		}
	}
	for _, p := range pickups {
		if certified[p.VendorID] {
			s.CertifiedPickups++
		}
	}

	s.ByClass = byClass.rows()
	s.ByCategory = byCategory.rows()
	s.ByDepartment = byDept.rows()
	return s
}

// Campaign points awarded per item by classification.
var points = map[model.ClassificationType]int{
	model.Hazardous:  20,
	model.Reusable:   15,
	model.Recyclable: 10,
}

// DepartmentScore is one row of the campaign scoreboard.
type DepartmentScore struct {
	Department model.Department `json:"department"`
	Count      int              `json:"count"`
	Points     int              `json:"points"`
}

// Scoreboard ranks departments with at least one item by points.
func Scoreboard(items []model.Item) []DepartmentScore {
	byDept := make(map[model.Department]*DepartmentScore)
	for _, it := range items {
		s, ok := byDept[it.Department]
		if !ok {
			s = &DepartmentScore{Department: it.Department}
			byDept[it.Department] = s
		}
		s.Count++
		s.Points += points[it.Classification.Type]
	}

	// Seed in department order so ties rank the same way every time.
	var out []DepartmentScore
	for _, d := range model.Departments() {
		if s, ok := byDept[d]; ok {
			out = append(out, *s)
			delete(byDept, d)
		}
	}
	for _, s := range byDept {
		out = append(out, *s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Points > out[j].Points
	})
	return out
}

// Participation card scoring.
const (
	PointsPerItem   = 10
	PointsPerRecent = 5
	RecentWindow    = 7 * 24 * time.Hour
	ProgressGoal    = 100
)

// Participation is the personal campaign card.
type Participation struct {
	TotalPoints   int     `json:"totalPoints"`
	ItemsReported int     `json:"itemsReported"`
	WeeklyItems   int     `json:"weeklyItems"`
	Progress      float64 `json:"progress"`
}

// ParticipationFor scores the reported items: a fixed amount per item and a
// bonus for items from the last week, with progress capped at the goal.
func ParticipationFor(items []model.Item, now time.Time) Participation {
	p := Participation{ItemsReported: len(items)}
	for _, it := range items {
		if now.Sub(it.CreatedAt) <= RecentWindow {
			p.WeeklyItems++
		}
	}
	p.TotalPoints = p.ItemsReported*PointsPerItem + p.WeeklyItems*PointsPerRecent
	p.Progress = min(float64(p.TotalPoints)/ProgressGoal*100, 100)
	return p
}

// Overview holds the headline KPIs.
type Overview struct {
	Total           int     `json:"total"`
	Hazardous       int     `json:"hazardous"`
	RecoveryRate    float64 `json:"recoveryRate"`
	ActiveCampaigns int     `json:"activeCampaigns"`
}

// OverviewFor computes the headline KPIs. The active campaign count starts
// at one and gains one for each participation milestone reached.
func OverviewFor(items []model.Item, now time.Time) Overview {
	o := Overview{Total: len(items)}

	depts := make(map[model.Department]bool)
	recent, thisMonth := 0, 0
	for _, it := range items {
		if it.Classification.Type == model.Hazardous {
			o.Hazardous++
		}
		depts[it.Department] = true
		if now.Sub(it.CreatedAt) <= 30*24*time.Hour {
			recent++
		}
		created := it.CreatedAt.In(now.Location())
		if created.Year() == now.Year() && created.Month() == now.Month() {
			thisMonth++
		}
	}
	if o.Total > 0 {
		o.RecoveryRate = float64(o.Total-o.Hazardous) / float64(o.Total) * 100
	}

	o.ActiveCampaigns = 1
	if len(depts) >= 2 {
		o.ActiveCampaigns++
	}
	if len(depts) >= 4 {
		o.ActiveCampaigns++
	}
	if recent > 0 {
		o.ActiveCampaigns++
	}
	if thisMonth >= 3 {
		o.ActiveCampaigns++
	}
	if len(depts) == len(model.Departments()) {
		o.ActiveCampaigns++
	}
	return o
}

// VendorSummary counts vendors by certification.
type VendorSummary struct {
	Total      int `json:"total"`
	Certified  int `json:"certified"`
	Unverified int `json:"unverified"`
}

// Vendors summarizes the vendor list.
func Vendors(vendors []model.Vendor) VendorSummary {
	s := VendorSummary{Total: len(vendors)}
	for _, v := range vendors {
		if v.Certified {
			s.Certified++
		}
	}
	s.Unverified = s.Total - s.Certified
	return s
}
