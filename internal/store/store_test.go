package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/erazemk/ewaste/internal/db"
	"github.com/erazemk/ewaste/internal/lifecycle"
	"github.com/erazemk/ewaste/internal/model"
)

var testNow = time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

type memPersister struct {
	mu      sync.Mutex
	state   *model.State
	saves   int
	loadErr error
	saveErr error
}

func (m *memPersister) LoadState(context.Context) (*model.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state, m.loadErr
}

func (m *memPersister) SaveState(_ context.Context, s *model.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.state = s
	return nil
}

func newTestStore(t *testing.T, p Persister) *Store {
	t.Helper()
	n := 0
	return Open(context.Background(), p, Options{
		Now: func() time.Time { return testNow },
		NewID: func(prefix string) string {
			n++
			return fmt.Sprintf("%s%d", prefix, n)
		},
	})
}

func laptop(name string) ItemInput {
	return ItemInput{
		Name:       name,
		Department: model.DeptEngineering,
		Category:   model.CategoryComputer,
		AgeMonths:  10,
		Condition:  model.ConditionGood,
	}
}

func TestOpenInstallsDefaultVendors(t *testing.T) {
	s := newTestStore(t, &memPersister{})

	vendors := s.Vendors()
	if len(vendors) != 3 {
		t.Fatalf("expected 3 seed vendors, got %d", len(vendors))
	}
	if vendors[0].ID != "v-eco1" || !vendors[0].Certified {
		t.Errorf("unexpected first vendor: %+v", vendors[0])
	}
	if len(s.Items()) != 0 || len(s.Pickups()) != 0 {
		t.Error("expected empty items and pickups")
	}
}

func TestOpenFallsBackOnLoadError(t *testing.T) {
	s := Open(context.Background(), &memPersister{loadErr: errors.New("corrupt")}, Options{
		SeedVendors: []model.Vendor{{ID: "v-x", Name: "Only"}},
	})
	vendors := s.Vendors()
	if len(vendors) != 1 || vendors[0].ID != "v-x" {
		t.Errorf("expected seed vendor, got %+v", vendors)
	}
}

func TestAddItemClassifiesAndPrepends(t *testing.T) {
	p := &memPersister{}
	s := newTestStore(t, p)
	ctx := context.Background()

	first, err := s.AddItem(ctx, laptop("EliteBook"))
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	second, _ := s.AddItem(ctx, ItemInput{
		Name: "Li-ion pack", Department: model.DeptHostel, Category: model.CategoryBattery,
		AgeMonths: 3, Condition: model.ConditionGood,
	})

	if first.Classification.Type != model.Reusable {
		t.Errorf("expected Reusable, got %s", first.Classification.Type)
	}
	if second.Classification.Type != model.Hazardous {
		t.Errorf("expected Hazardous, got %s", second.Classification.Type)
	}
	if first.Status != model.StatusReported || !first.CreatedAt.Equal(testNow) {
		t.Errorf("unexpected new item: %+v", first)
	}
	if first.QRID != first.ID {
		t.Errorf("expected qrId to equal id, got %q", first.QRID)
	}

	items := s.Items()
	if items[0].ID != second.ID || items[1].ID != first.ID {
		t.Error("expected newest item first")
	}
	if s.Version() != 2 || p.saves != 2 {
		t.Errorf("expected version 2 and 2 saves, got %d and %d", s.Version(), p.saves)
	}
}

func TestAddItemValidation(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()

	bad := []ItemInput{
		{Name: "  ", Department: model.DeptOther, Category: model.CategoryOther, Condition: model.ConditionGood},
		{Name: "x", Department: "Library", Category: model.CategoryOther, Condition: model.ConditionGood},
		{Name: "x", Department: model.DeptOther, Category: "Fridge", Condition: model.ConditionGood},
		{Name: "x", Department: model.DeptOther, Category: model.CategoryOther, Condition: "Mint"},
		{Name: "x", Department: model.DeptOther, Category: model.CategoryOther, Condition: model.ConditionGood, AgeMonths: -1},
	}
	for _, in := range bad {
		if _, err := s.AddItem(ctx, in); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("AddItem(%+v): expected ErrInvalidInput, got %v", in, err)
		}
	}
	if s.Version() != 0 {
		t.Errorf("rejected input bumped version to %d", s.Version())
	}
}

func TestUpdateItemKeepsClassification(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()

	it, _ := s.AddItem(ctx, laptop("EliteBook"))

	edit := laptop("Broken EliteBook")
	edit.Condition = model.ConditionDead
	edit.AgeMonths = 120
	updated, err := s.UpdateItem(ctx, it.ID, edit)
	if err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}
	if updated.Name != "Broken EliteBook" || updated.AgeMonths != 120 {
		t.Errorf("edit not applied: %+v", updated)
	}
	if updated.Classification.Type != model.Reusable {
		t.Errorf("classification was recomputed to %s", updated.Classification.Type)
	}

	if _, err := s.UpdateItem(ctx, "it-missing", edit); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteItem(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()

	a, _ := s.AddItem(ctx, laptop("A"))
	b, _ := s.AddItem(ctx, laptop("B"))

	if err := s.DeleteItem(ctx, a.ID); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}
	if _, ok := s.Item(a.ID); ok {
		t.Error("expected item to be gone")
	}
	if _, ok := s.Item(b.ID); !ok {
		t.Error("expected other item to remain")
	}
	if err := s.DeleteItem(ctx, a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSchedulePickup(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()

	a, _ := s.AddItem(ctx, laptop("A"))
	b, _ := s.AddItem(ctx, laptop("B"))
	c, _ := s.AddItem(ctx, laptop("C"))

	p, err := s.SchedulePickup(ctx, PickupInput{
		Date:     "2026-10-20",
		VendorID: "v-eco1",
		ItemIDs:  []string{a.ID, b.ID},
	})
	if err != nil {
		t.Fatalf("SchedulePickup: %v", err)
	}
	if len(p.ItemIDs) != 2 || p.ItemIDs[0] != a.ID || p.ItemIDs[1] != b.ID {
		t.Errorf("unexpected itemIds: %v", p.ItemIDs)
	}

	for _, id := range []string{a.ID, b.ID} {
		it, _ := s.Item(id)
		if it.Status != model.StatusScheduled || it.PickupID != p.ID {
			t.Errorf("item %s: status %s pickup %q", id, it.Status, it.PickupID)
		}
	}
	untouched, _ := s.Item(c.ID)
	if untouched.Status != model.StatusReported || untouched.PickupID != "" {
		t.Errorf("unreferenced item changed: %+v", untouched)
	}

	if got := s.Pickups(); len(got) != 1 || got[0].ID != p.ID {
		t.Errorf("unexpected pickups: %+v", got)
	}
}

func TestSchedulePickupIsPermissive(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()

	a, _ := s.AddItem(ctx, laptop("A"))
	s.MarkStage(ctx, a.ID, model.StatusSorted, "ops")

	p, err := s.SchedulePickup(ctx, PickupInput{
		Date:    "2026-10-20",
		ItemIDs: []string{a.ID, "it-ghost", a.ID},
	})
	if err != nil {
		t.Fatalf("SchedulePickup: %v", err)
	}
	if len(p.ItemIDs) != 2 {
		t.Errorf("expected duplicates removed, got %v", p.ItemIDs)
	}
	it, _ := s.Item(a.ID)
	if it.Status != model.StatusScheduled {
		t.Errorf("expected non-Reported item to be migrated, got %s", it.Status)
	}
}

func TestSchedulePickupRejectsBadDate(t *testing.T) {
	s := newTestStore(t, nil)
	if _, err := s.SchedulePickup(context.Background(), PickupInput{Date: "next week"}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestQuickSchedule(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()

	it, _ := s.AddItem(ctx, laptop("A"))

	p, err := s.QuickSchedule(ctx, it.ID)
	if err != nil {
		t.Fatalf("QuickSchedule: %v", err)
	}
	if p.VendorID != "v-eco1" {
		t.Errorf("expected first certified vendor, got %q", p.VendorID)
	}
	if p.Date != "2026-10-19" {
		t.Errorf("expected date three days out, got %q", p.Date)
	}
	if p.Notes != QuickScheduleNotes {
		t.Errorf("unexpected notes %q", p.Notes)
	}

	if _, err := s.QuickSchedule(ctx, "it-missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestQuickScheduleOnlyReportedItems(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()

	scheduled, _ := s.AddItem(ctx, laptop("A"))
	if _, err := s.QuickSchedule(ctx, scheduled.ID); err != nil {
		t.Fatalf("QuickSchedule: %v", err)
	}
	if _, err := s.QuickSchedule(ctx, scheduled.ID); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for a scheduled item, got %v", err)
	}

	disposed, _ := s.AddItem(ctx, laptop("B"))
	if _, _, err := s.DisposeItem(ctx, disposed.ID, "admin"); err != nil {
		t.Fatalf("DisposeItem: %v", err)
	}
	version := s.Version()
	if _, err := s.QuickSchedule(ctx, disposed.ID); !errors.Is(err, lifecycle.ErrTerminal) {
		t.Fatalf("expected ErrTerminal, got %v", err)
	}

	got, _ := s.Item(disposed.ID)
	if got.Status != model.StatusDisposed || got.PickupID != "" {
		t.Errorf("disposed item changed: status=%s pickup=%q", got.Status, got.PickupID)
	}
	if s.Version() != version || len(s.Pickups()) != 1 {
		t.Errorf("refused quick schedule must not record a pickup")
	}
}

func TestQuickScheduleFallsBackToFirstVendor(t *testing.T) {
	s := Open(context.Background(), nil, Options{
		SeedVendors: []model.Vendor{{ID: "v-a", Name: "A"}, {ID: "v-b", Name: "B"}},
	})
	ctx := context.Background()
	it, _ := s.AddItem(ctx, laptop("A"))

	p, err := s.QuickSchedule(ctx, it.ID)
	if err != nil {
		t.Fatalf("QuickSchedule: %v", err)
	}
	if p.VendorID != "v-a" {
		t.Errorf("expected first vendor, got %q", p.VendorID)
	}

	s.RemoveVendor(ctx, "v-a")
	s.RemoveVendor(ctx, "v-b")
	if _, err := s.QuickSchedule(ctx, it.ID); !errors.Is(err, ErrNoVendors) {
		t.Errorf("expected ErrNoVendors, got %v", err)
	}
}

func TestMarkStage(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()

	it, _ := s.AddItem(ctx, laptop("A"))

	got, err := s.MarkStage(ctx, it.ID, model.StatusCollected, "ops@campus.edu")
	if err != nil {
		t.Fatalf("MarkStage: %v", err)
	}
	if got.Status != model.StatusCollected || len(got.AuditTrail) != 1 {
		t.Fatalf("unexpected item: %+v", got)
	}
	if got.AuditTrail[0].User != "ops@campus.edu" || got.AuditTrail[0].Stage != "Pickup" {
		t.Errorf("unexpected audit entry: %+v", got.AuditTrail[0])
	}

	if _, err := s.MarkStage(ctx, it.ID, model.StatusReported, "ops"); !errors.Is(err, lifecycle.ErrInvalidStage) {
		t.Errorf("expected ErrInvalidStage, got %v", err)
	}
	if _, err := s.MarkStage(ctx, "it-missing", model.StatusSorted, "ops"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDisposeItemIdempotent(t *testing.T) {
	p := &memPersister{}
	s := newTestStore(t, p)
	ctx := context.Background()

	it, _ := s.AddItem(ctx, laptop("A"))

	first, changed, err := s.DisposeItem(ctx, it.ID, "admin")
	if err != nil || !changed {
		t.Fatalf("DisposeItem: changed=%v err=%v", changed, err)
	}
	v := s.Version()

	second, changed, err := s.DisposeItem(ctx, it.ID, "other")
	if err != nil {
		t.Fatalf("second DisposeItem: %v", err)
	}
	if changed {
		t.Error("second dispose reported a change")
	}
	if s.Version() != v {
		t.Error("no-op dispose bumped the version")
	}
	if second.Status != model.StatusDisposed ||
		!second.DisposedAt.Equal(*first.DisposedAt) ||
		len(second.DisposalHistory) != len(first.DisposalHistory) {
		t.Errorf("no-op dispose changed the record: %+v", second)
	}

	if _, err := s.MarkStage(ctx, it.ID, model.StatusSorted, "ops"); !errors.Is(err, lifecycle.ErrTerminal) {
		t.Errorf("expected ErrTerminal, got %v", err)
	}
}

func TestVendors(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()

	v, err := s.AddVendor(ctx, VendorInput{Name: " E-Rec ", Contact: "e@rec.in", Certified: true})
	if err != nil {
		t.Fatalf("AddVendor: %v", err)
	}
	if v.Name != "E-Rec" {
		t.Errorf("expected trimmed name, got %q", v.Name)
	}
	if s.Vendors()[0].ID != v.ID {
		t.Error("expected new vendor first")
	}

	if _, err := s.AddVendor(ctx, VendorInput{}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}

	up, err := s.UpdateVendor(ctx, v.ID, VendorInput{Name: "E-Rec Ltd", Certified: false})
	if err != nil {
		t.Fatalf("UpdateVendor: %v", err)
	}
	if up.Certified || up.Name != "E-Rec Ltd" {
		t.Errorf("update not applied: %+v", up)
	}
}

func TestRemoveVendorLeavesPickupsOrphaned(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()

	it, _ := s.AddItem(ctx, laptop("A"))
	p, _ := s.SchedulePickup(ctx, PickupInput{Date: "2026-10-20", VendorID: "v-green2", ItemIDs: []string{it.ID}})

	if err := s.RemoveVendor(ctx, "v-green2"); err != nil {
		t.Fatalf("RemoveVendor: %v", err)
	}
	if _, ok := s.Vendor("v-green2"); ok {
		t.Error("expected vendor to be removed")
	}
	pickups := s.Pickups()
	if len(pickups) != 1 || pickups[0].ID != p.ID || pickups[0].VendorID != "v-green2" {
		t.Errorf("expected orphaned pickup to remain, got %+v", pickups)
	}
	if err := s.RemoveVendor(ctx, "v-green2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFilterItems(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()

	s.AddItem(ctx, laptop("bravo"))
	s.AddItem(ctx, laptop("Alpha"))
	s.AddItem(ctx, ItemInput{Name: "Charlie cell", Department: model.DeptSciences, Category: model.CategoryBattery, Condition: model.ConditionDead})

	all := s.FilterItems(ItemFilter{})
	if len(all) != 3 || all[0].Name != "Alpha" || all[2].Name != "Charlie cell" {
		t.Errorf("unexpected A-Z order: %v", names(all))
	}

	desc := s.FilterItems(ItemFilter{Descending: true})
	if desc[0].Name != "Charlie cell" {
		t.Errorf("unexpected Z-A order: %v", names(desc))
	}

	if got := s.FilterItems(ItemFilter{Query: "BATTERY"}); len(got) != 1 {
		t.Errorf("expected category match, got %v", names(got))
	}
	if got := s.FilterItems(ItemFilter{Query: "engineer"}); len(got) != 2 {
		t.Errorf("expected department match, got %v", names(got))
	}
	if got := s.FilterItems(ItemFilter{Query: "it-1"}); len(got) != 1 || got[0].Name != "bravo" {
		t.Errorf("expected id match, got %v", names(got))
	}
	if got := s.FilterItems(ItemFilter{Department: model.DeptSciences}); len(got) != 1 {
		t.Errorf("expected department filter, got %v", names(got))
	}
	if got := s.FilterItems(ItemFilter{Classification: model.Hazardous}); len(got) != 1 {
		t.Errorf("expected classification filter, got %v", names(got))
	}
}

func names(items []model.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Name
	}
	return out
}

func TestSubscribe(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()

	var got []Change
	unsubscribe := s.Subscribe(func(c Change) { got = append(got, c) })

	it, _ := s.AddItem(ctx, laptop("A"))
	s.DeleteItem(ctx, "it-missing")
	s.DeleteItem(ctx, it.ID)
	unsubscribe()
	s.AddItem(ctx, laptop("B"))

	if len(got) != 2 {
		t.Fatalf("expected 2 changes, got %+v", got)
	}
	if got[0].Op != OpAddItem || got[0].ID != it.ID || got[0].Version != 1 {
		t.Errorf("unexpected first change: %+v", got[0])
	}
	if got[1].Op != OpDeleteItem || got[1].Version != 2 {
		t.Errorf("unexpected second change: %+v", got[1])
	}
}

func TestSaveFailureIsIgnored(t *testing.T) {
	p := &memPersister{saveErr: errors.New("disk full")}
	s := newTestStore(t, p)

	if _, err := s.AddItem(context.Background(), laptop("A")); err != nil {
		t.Fatalf("expected save failure to be swallowed, got %v", err)
	}
	if len(s.Items()) != 1 {
		t.Error("expected in-memory state to keep the item")
	}
}

func TestSnapshotIsDetached(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()

	it, _ := s.AddItem(ctx, laptop("A"))
	s.MarkStage(ctx, it.ID, model.StatusCollected, "ops")

	snap := s.Snapshot()
	snap.Items[0].AuditTrail[0].User = "tampered"
	snap.Vendors[0].Name = "tampered"

	again, _ := s.Item(it.ID)
	if again.AuditTrail[0].User != "ops" {
		t.Error("snapshot shares audit trail with the store")
	}
	if v, _ := s.Vendor("v-eco1"); v.Name == "tampered" {
		t.Error("snapshot shares vendors with the store")
	}
}

func TestSQLitePersisterRoundTrip(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	p := &SQLitePersister{DB: database}

	state, err := p.LoadState(ctx)
	if err != nil || state != nil {
		t.Fatalf("expected no state, got %+v %v", state, err)
	}

	s := newTestStore(t, p)
	it, _ := s.AddItem(ctx, laptop("EliteBook"))
	s.SchedulePickup(ctx, PickupInput{Date: "2026-10-20", VendorID: "v-eco1", ItemIDs: []string{it.ID}})
	s.DisposeItem(ctx, it.ID, "admin")

	reopened := Open(ctx, p, Options{})
	got, ok := reopened.Item(it.ID)
	if !ok {
		t.Fatal("expected item after reopen")
	}
	if got.Status != model.StatusDisposed || got.PickupID == "" || got.DisposedBy != "admin" {
		t.Errorf("unexpected reloaded item: %+v", got)
	}
	if len(reopened.Pickups()) != 1 || len(reopened.Vendors()) != 3 {
		t.Errorf("unexpected reloaded pickups/vendors: %d/%d", len(reopened.Pickups()), len(reopened.Vendors()))
	}
}

func TestDecodeStateDropsMalformedRecords(t *testing.T) {
	data := []byte(`{
		"items": [
			{"id":"it-1","name":"Good","department":"Hostel","category":"Accessory","ageMonths":1,
			 "condition":"Good","status":"Reported","createdAt":"2026-01-02T00:00:00Z",
			 "classification":{"type":"Reusable"}},
			{"id":"it-2","name":"Bad enum","department":"Moon","category":"Accessory","ageMonths":1,
			 "condition":"Good","status":"Reported","createdAt":"2026-01-02T00:00:00Z",
			 "classification":{"type":"Reusable"}},
			{"id":42}
		],
		"pickups": [{"id":"p-1","date":"2026-01-05","vendorId":"v-1","itemIds":["it-1"]}, {"id":"p-2","date":"soon"}],
		"vendors": [{"id":"v-1","name":"Vendor"}, {"name":"no id"}]
	}`)

	state, err := DecodeState(data)
	if err != nil {
		t.Fatalf("DecodeState: %v", err)
	}
	if len(state.Items) != 1 || state.Items[0].ID != "it-1" {
		t.Errorf("unexpected items: %+v", state.Items)
	}
	if state.Items[0].QRID != "it-1" {
		t.Errorf("expected qrId backfilled, got %q", state.Items[0].QRID)
	}
	if len(state.Pickups) != 1 || len(state.Vendors) != 1 {
		t.Errorf("unexpected pickups/vendors: %+v %+v", state.Pickups, state.Vendors)
	}

	if _, err := DecodeState([]byte(`not json`)); err == nil {
		t.Error("expected error for unreadable state")
	}
}
