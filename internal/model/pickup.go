package model

import "time"

// DateLayout is the calendar-day format used for pickup dates.
const DateLayout = "2006-01-02"

// Pickup is a scheduled collection binding a vendor to a set of items.
type Pickup struct {
	ID       string   `json:"id"`
	Date     string   `json:"date"`
	VendorID string   `json:"vendorId"`
	ItemIDs  []string `json:"itemIds"`
	Notes    string   `json:"notes,omitempty"`
}

// Valid reports whether the pickup has an identity and a parseable date.
func (p *Pickup) Valid() bool {
	if p.ID == "" {
		return false
	}
	_, err := time.Parse(DateLayout, p.Date)
	return err == nil
}

// Includes reports whether the pickup references the item.
func (p *Pickup) Includes(itemID string) bool {
	for _, id := range p.ItemIDs {
		if id == itemID {
			return true
		}
	}
	return false
}

// State is the single persisted record.
type State struct {
	Items   []Item   `json:"items"`
	Pickups []Pickup `json:"pickups"`
	Vendors []Vendor `json:"vendors"`
}
