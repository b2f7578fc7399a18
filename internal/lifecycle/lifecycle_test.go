package lifecycle

import (
	"errors"
	"testing"
	"time"

	"github.com/erazemk/ewaste/internal/model"
)

var now = time.Date(2026, 5, 10, 14, 30, 0, 0, time.UTC)

func reported() model.Item {
	return model.Item{
		ID:             "it-1",
		Name:           "Projector",
		Department:     model.DeptSciences,
		Category:       model.CategoryProjector,
		Condition:      model.ConditionFair,
		Status:         model.StatusReported,
		Classification: model.Classification{Type: model.Reusable},
	}
}

func TestSchedule(t *testing.T) {
	it := reported()
	got := Schedule(it, "p-1")

	if got.Status != model.StatusScheduled || got.PickupID != "p-1" {
		t.Errorf("got status %s pickup %q", got.Status, got.PickupID)
	}
	if it.Status != model.StatusReported || it.PickupID != "" {
		t.Error("Schedule mutated its argument")
	}
}

func TestAdvanceAppendsAudit(t *testing.T) {
	it := Schedule(reported(), "p-1")

	it, err := Advance(it, model.StatusCollected, "ops", now)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	it, err = Advance(it, model.StatusProcessed, "ops", now.Add(time.Hour))
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}

	if it.Status != model.StatusProcessed {
		t.Errorf("expected Processed, got %s", it.Status)
	}
	if len(it.AuditTrail) != 2 {
		t.Fatalf("expected 2 audit entries, got %d", len(it.AuditTrail))
	}
	first := it.AuditTrail[0]
	if first.Stage != "Pickup" || first.Status != model.StatusCollected || first.User != "ops" || !first.Date.Equal(now) {
		t.Errorf("unexpected first entry: %+v", first)
	}
	if it.AuditTrail[1].Stage != "Processing" {
		t.Errorf("expected Processing label, got %q", it.AuditTrail[1].Stage)
	}
}

func TestAdvanceAllowsBackwardAndSkips(t *testing.T) {
	it := reported()
	it, err := Advance(it, model.StatusRecycled, "ops", now)
	if err != nil {
		t.Fatalf("skip to Recycled: %v", err)
	}
	it, err = Advance(it, model.StatusCollected, "ops", now)
	if err != nil {
		t.Fatalf("move backward: %v", err)
	}
	if it.Status != model.StatusCollected {
		t.Errorf("expected Collected, got %s", it.Status)
	}
}

func TestAdvanceRejects(t *testing.T) {
	if _, err := Advance(reported(), model.StatusScheduled, "ops", now); !errors.Is(err, ErrInvalidStage) {
		t.Errorf("expected ErrInvalidStage for Scheduled, got %v", err)
	}
	if _, err := Advance(reported(), model.StatusDisposed, "ops", now); !errors.Is(err, ErrInvalidStage) {
		t.Errorf("expected ErrInvalidStage for Disposed, got %v", err)
	}

	disposed, _ := Dispose(reported(), "ops", now)
	if _, err := Advance(disposed, model.StatusSorted, "ops", now); !errors.Is(err, ErrTerminal) {
		t.Errorf("expected ErrTerminal, got %v", err)
	}
}

func TestDisposeIdempotent(t *testing.T) {
	it, changed := Dispose(reported(), "admin", now)
	if !changed {
		t.Fatal("expected first dispose to change the item")
	}
	if it.Status != model.StatusDisposed || it.DisposedBy != "admin" || it.DisposedAt == nil {
		t.Fatalf("unexpected disposed item: %+v", it)
	}
	if len(it.DisposalHistory) != 1 || it.DisposalHistory[0].Action != DisposeAction {
		t.Fatalf("unexpected history: %+v", it.DisposalHistory)
	}

	again, changed := Dispose(it, "someone-else", now.Add(24*time.Hour))
	if changed {
		t.Error("second dispose reported a change")
	}
	if again.DisposedBy != "admin" || !again.DisposedAt.Equal(now) || len(again.DisposalHistory) != 1 {
		t.Errorf("second dispose modified the record: %+v", again)
	}
}

func TestStages(t *testing.T) {
	got := Stages()
	want := []string{"Pickup", "Sorting", "Processing", "Recycling"}
	if len(got) != len(want) {
		t.Fatalf("expected %d stages, got %d", len(want), len(got))
	}
	for i, s := range got {
		if s.Label != want[i] {
			t.Errorf("stage %d: got %q, want %q", i, s.Label, want[i])
		}
	}

	got[0].Label = "changed"
	if Stages()[0].Label != "Pickup" {
		t.Error("Stages exposes internal slice")
	}
}
