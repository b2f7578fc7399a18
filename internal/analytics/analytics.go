// Package analytics derives the dashboard figures from the item list.
package analytics

import (
	"fmt"
	"sort"
	"time"
	"unicode/utf16"

	"github.com/erazemk/ewaste/internal/model"
)

// EmissionFactor is the kg CO2e avoided per kg of correctly recycled e-waste.
const EmissionFactor = 1.8

// TreeYearKg is the CO2 absorbed by one tree in a year, for the
// "tree years" equivalent.
const TreeYearKg = 21.77

// defaultWeightKg applies to categories missing from weights.
const defaultWeightKg = 1.0

// Approximate weight per item in kg.
var weights = map[model.Category]float64{
	model.CategoryComputer:     7,
	model.CategoryProjector:    3,
	model.CategoryLabEquipment: 10,
	model.CategoryMobileDevice: 0.2,
	model.CategoryBattery:      0.05,
	model.CategoryAccessory:    0.1,
	model.CategoryOther:        1,
}

// Fraction of an item's impact realized at each status.
var progress = map[model.Status]float64{
	model.StatusReported:  0,
	model.StatusScheduled: 0.15,
	model.StatusCollected: 0.35,
	model.StatusSorted:    0.55,
	model.StatusProcessed: 0.75,
	model.StatusRecycled:  1,
	model.StatusDisposed:  0,
}

var categoryColors = map[string]string{
	"Computer":      "#06b6d4",
	"Projector":     "#f97316",
	"Lab Equipment": "#84cc16",
	"Mobile Device": "#8b5cf6",
	"Battery":       "#ef4444",
	"Accessory":     "#22c55e",
	"Other":         "#64748b",
}

var palette = []string{
	"#06b6d4", "#f97316", "#84cc16", "#8b5cf6", "#ef4444",
	"#22c55e", "#eab308", "#10b981", "#a855f7", "#14b8a6",
	"#f43f5e", "#0ea5e9", "#f59e0b", "#34d399", "#64748b",
	"#7c3aed", "#059669", "#f87171", "#38bdf8", "#16a34a",
}

var monthNames = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// WeightKg returns the approximate weight of one item of the category.
func WeightKg(c model.Category) float64 {
	if w, ok := weights[c]; ok {
		return w
	}
	return defaultWeightKg
}

// ProgressMultiplier returns the share of impact realized at status.
func ProgressMultiplier(s model.Status) float64 {
	return progress[s]
}

// FNV-1a 32-bit parameters.
const (
	fnvOffset uint32 = 2166136261
	fnvPrime  uint32 = 16777619
)

// CategoryColor returns the fixed color of a known category, or a stable
// palette color chosen by hashing the name.
func CategoryColor(name string) string {
	if c, ok := categoryColors[name]; ok {
		return c
	}
	return palette[hashName(name)%uint32(len(palette))]
}

// hashName is FNV-1a over the UTF-16 code units of s, one unit per step,
// so stored colors stay the same as those picked by browser clients.
func hashName(s string) uint32 {
	h := fnvOffset
	for _, u := range utf16.Encode([]rune(s)) {
		h ^= uint32(u)
		h *= fnvPrime
	}
	return h
}

// Month is one bar of the monthly volume chart.
type Month struct {
	Label          string  `json:"month"`
	Key            string  `json:"fullMonth"`
	Total          int     `json:"total"`
	IsCurrentMonth bool    `json:"isCurrentMonth"`
	IsFutureMonth  bool    `json:"isFutureMonth"`
	Growth         float64 `json:"growth"`
}

// Slice is one entry of a count distribution.
type Slice struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
	Color string `json:"color,omitempty"`
}

// DepartmentCount is the number of items reported by a department.
type DepartmentCount struct {
	Dept  model.Department `json:"dept"`
	Count int              `json:"count"`
}

// Report holds every derived figure shown on the analytics view.
type Report struct {
	Year            int               `json:"year"`
	Months          []Month           `json:"months"`
	Categories      []Slice           `json:"categories"`
	Departments     []DepartmentCount `json:"departments"`
	Classifications []Slice           `json:"classifications"`
	RecycledCount   int               `json:"recycledCount"`
	ImpactKgCO2     float64           `json:"impactKgCO2"`
	PotentialKgCO2  float64           `json:"potentialKgCO2"`
	TreeYears       float64           `json:"treeYears"`
	TotalItems      int               `json:"totalItems"`
	AvgPerMonth     float64           `json:"avgPerMonth"`
	RecyclingRate   float64           `json:"recyclingRate"`
	PeakMonth       Month             `json:"peakMonth"`
	CurrentMonth    Month             `json:"currentMonth"`
	CurrentGrowth   float64           `json:"currentGrowth"`
	// HasPreviousMonth is false in January, when there is no earlier bar.
	HasPreviousMonth bool `json:"hasPreviousMonth"`
}

// MonthKey formats the YYYY-MM key used to bucket items.
func MonthKey(t time.Time) string {
	return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
}

// Compute derives the report from items as seen at now. Months cover the
// calendar year of now in now's location; all other figures cover every item.
func Compute(items []model.Item, now time.Time) Report {
	loc := now.Location()
	year := now.Year()
	currentMonth := int(now.Month()) - 1

	byMonth := make(map[string]int)
	byCategory := make(map[string]int)
	var categoryOrder []string
	byDept := make(map[model.Department]int)
	var deptOrder []model.Department
	byClass := map[model.ClassificationType]int{}

	r := Report{Year: year, TotalItems: len(items)}

	for _, it := range items {
		byMonth[MonthKey(it.CreatedAt.In(loc))]++

		cat := string(it.Category)
		if _, seen := byCategory[cat]; !seen {
			categoryOrder = append(categoryOrder, cat)
		}
		byCategory[cat]++

		if _, seen := byDept[it.Department]; !seen {
			deptOrder = append(deptOrder, it.Department)
		}
		byDept[it.Department]++

		byClass[it.Classification.Type]++

		if it.Classification.Type == model.Hazardous || it.Status == model.StatusDisposed {
			continue
		}
		full := WeightKg(it.Category) * EmissionFactor
		r.PotentialKgCO2 += full
		r.ImpactKgCO2 += full * ProgressMultiplier(it.Status)
		if it.Status == model.StatusRecycled {
			r.RecycledCount++
		}
	}
	r.TreeYears = r.ImpactKgCO2 / TreeYearKg

	r.Months = make([]Month, 12)
	activeMonths := 0
	for m := range 12 {
		key := fmt.Sprintf("%04d-%02d", year, m+1)
		month := Month{
			Label:          fmt.Sprintf("%s %02d", monthNames[m], year%100),
			Key:            key,
			Total:          byMonth[key],
			IsCurrentMonth: m == currentMonth,
			IsFutureMonth:  m > currentMonth,
		}
		if m > 0 {
			month.Growth = growth(month.Total, r.Months[m-1].Total)
		}
		if month.Total > 0 {
			activeMonths++
		}
		r.Months[m] = month
	}

	r.PeakMonth = r.Months[0]
	for _, m := range r.Months[1:] {
		if m.Total >= r.PeakMonth.Total {
			r.PeakMonth = m
		}
	}
	r.CurrentMonth = r.Months[currentMonth]
	if currentMonth > 0 {
		r.HasPreviousMonth = true
		r.CurrentGrowth = growth(r.CurrentMonth.Total, r.Months[currentMonth-1].Total)
	}

	if activeMonths == 0 {
		activeMonths = 1
	}
	r.AvgPerMonth = float64(r.TotalItems) / float64(activeMonths)
	if r.TotalItems > 0 {
		r.RecyclingRate = float64(r.RecycledCount) / float64(r.TotalItems) * 100
	}

	r.Categories = make([]Slice, 0, len(categoryOrder))
	for _, name := range categoryOrder {
		r.Categories = append(r.Categories, Slice{Name: name, Value: byCategory[name], Color: CategoryColor(name)})
	}

	r.Departments = make([]DepartmentCount, 0, len(deptOrder))
	for _, d := range deptOrder {
		r.Departments = append(r.Departments, DepartmentCount{Dept: d, Count: byDept[d]})
	}
	sort.SliceStable(r.Departments, func(i, j int) bool {
		return r.Departments[i].Count > r.Departments[j].Count
	})

	r.Classifications = make([]Slice, 0, 3)
	for _, t := range model.ClassificationTypes() {
		r.Classifications = append(r.Classifications, Slice{Name: string(t), Value: byClass[t]})
	}

	return r
}

func growth(cur, prev int) float64 {
	if prev == 0 {
		return 0
	}
	return float64(cur-prev) / float64(prev) * 100
}

// Percent returns part as a percentage of total, or 0 if total is 0.
func Percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}
