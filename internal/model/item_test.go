package model

import (
	"testing"
	"time"
)

func validItem() Item {
	return Item{
		ID:             "it-1",
		QRID:           "it-1",
		Name:           "EliteBook",
		Department:     DeptEngineering,
		Category:       CategoryComputer,
		AgeMonths:      10,
		Condition:      ConditionGood,
		Status:         StatusReported,
		CreatedAt:      time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		Classification: Classification{Type: Reusable},
	}
}

func TestItemValid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Item)
		want   bool
	}{
		{"complete", func(*Item) {}, true},
		{"missing id", func(it *Item) { it.ID = "" }, false},
		{"missing name", func(it *Item) { it.Name = "" }, false},
		{"negative age", func(it *Item) { it.AgeMonths = -1 }, false},
		{"unknown department", func(it *Item) { it.Department = "Library" }, false},
		{"unknown category", func(it *Item) { it.Category = "Fridge" }, false},
		{"unknown condition", func(it *Item) { it.Condition = "Mint" }, false},
		{"unknown status", func(it *Item) { it.Status = "Lost" }, false},
		{"unknown classification", func(it *Item) { it.Classification.Type = "Compostable" }, false},
	}

	for _, tt := range tests {
		it := validItem()
		tt.mutate(&it)
		if got := it.Valid(); got != tt.want {
			t.Errorf("%s: Valid() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestItemCloneDoesNotShareHistory(t *testing.T) {
	it := validItem()
	it.AuditTrail = []AuditEntry{{User: "a", Stage: "Pickup", Status: StatusCollected}}
	at := time.Now()
	it.DisposedAt = &at

	c := it.Clone()
	c.AuditTrail[0].User = "b"
	*c.DisposedAt = at.Add(time.Hour)

	if it.AuditTrail[0].User != "a" {
		t.Error("clone shares audit trail backing array")
	}
	if !it.DisposedAt.Equal(at) {
		t.Error("clone shares disposedAt pointer")
	}
}

func TestStatusTerminal(t *testing.T) {
	for _, s := range Statuses() {
		want := s == StatusDisposed
		if s.Terminal() != want {
			t.Errorf("%s.Terminal() = %v, want %v", s, s.Terminal(), want)
		}
	}
}

func TestParseView(t *testing.T) {
	for _, v := range Views() {
		got, ok := ParseView(string(v))
		if !ok || got != v {
			t.Errorf("ParseView(%q) = %q, %v", v, got, ok)
		}
	}

	got, ok := ParseView("dashboard")
	if ok || got != ViewItems {
		t.Errorf("ParseView(unknown) = %q, %v; want items, false", got, ok)
	}
}

func TestPickupValid(t *testing.T) {
	p := Pickup{ID: "p-1", Date: "2026-10-19", VendorID: "v-eco1", ItemIDs: []string{"it-1"}}
	if !p.Valid() {
		t.Error("expected pickup to be valid")
	}
	if !p.Includes("it-1") || p.Includes("it-2") {
		t.Error("Includes mismatch")
	}

	p.Date = "19/10/2026"
	if p.Valid() {
		t.Error("expected invalid date to fail")
	}
}
