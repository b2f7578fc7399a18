package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/erazemk/ewaste/internal/model"
)

// ItemsCSVHeader lists the columns of the item export.
var ItemsCSVHeader = []string{
	"id", "name", "department", "category", "ageMonths",
	"condition", "status", "classification", "createdAt",
}

// isoMillis matches the millisecond UTC timestamps stored by browsers.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// WriteItemsCSV writes one row per item.
func WriteItemsCSV(w io.Writer, items []model.Item) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ItemsCSVHeader); err != nil {
		return fmt.Errorf("writing items header: %w", err)
	}
	for _, it := range items {
		err := cw.Write([]string{
			it.ID,
			it.Name,
			string(it.Department),
			string(it.Category),
			strconv.Itoa(it.AgeMonths),
			string(it.Condition),
			string(it.Status),
			string(it.Classification.Type),
			it.CreatedAt.UTC().Format(isoMillis),
		})
		if err != nil {
			return fmt.Errorf("writing item %s: %w", it.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteComplianceCSV writes the summary as Section,Key,Value rows followed
// by the class, category and department blocks, separated by blank lines.
func WriteComplianceCSV(w io.Writer, s ComplianceSummary) error {
	rows := [][]string{
		{"Section", "Key", "Value"},
		{"Summary", "Total Items", strconv.Itoa(s.Total)},
		{"Summary", "Items with Pickups", strconv.Itoa(s.WithPickup)},
		{"Summary", "Certified Pickups", strconv.Itoa(s.CertifiedPickups)},
		{"Summary", "Hazardous Items", strconv.Itoa(s.Hazardous)},
	}

	blocks := []struct {
		header []string
		label  string
		counts []Count
	}{
		{[]string{"By Class", "Type", "Count"}, "Class", s.ByClass},
		{[]string{"By Category", "Type", "Count"}, "Category", s.ByCategory},
		{[]string{"By Department", "Dept", "Count"}, "Department", s.ByDepartment},
	}
	for _, b := range blocks {
		rows = append(rows, []string{}, b.header)
		for _, c := range b.counts {
			rows = append(rows, []string{b.label, c.Key, strconv.Itoa(c.Value)})
		}
	}

	cw := csv.NewWriter(w)
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("writing compliance csv: %w", err)
	}
	return nil
}
