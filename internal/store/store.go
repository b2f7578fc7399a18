package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/ewaste/internal/classify"
	"github.com/erazemk/ewaste/internal/lifecycle"
	"github.com/erazemk/ewaste/internal/model"
)

var (
	// ErrNotFound is returned when an id does not match any record.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput wraps validation failures on operation input.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNoVendors is returned by QuickSchedule when no vendor is registered.
	ErrNoVendors = errors.New("no vendors registered")
)

// QuickScheduleNotes is attached to pickups created by QuickSchedule.
const QuickScheduleNotes = "Auto-scheduled from item table"

// QuickScheduleLead is how far ahead QuickSchedule books the pickup.
const QuickScheduleLead = 3 * 24 * time.Hour

// Mutation names reported in Change.Op.
const (
	OpAddItem       = "add_item"
	OpUpdateItem    = "update_item"
	OpDeleteItem    = "delete_item"
	OpSchedule      = "schedule_pickup"
	OpMarkStage     = "mark_stage"
	OpDispose       = "dispose_item"
	OpAddVendor     = "add_vendor"
	OpUpdateVendor  = "update_vendor"
	OpRemoveVendor  = "remove_vendor"
	OpQuickSchedule = "quick_schedule"
)

// Persister reads and writes the single serialized state record.
type Persister interface {
	// LoadState returns nil, nil when no state has been stored yet.
	LoadState(ctx context.Context) (*model.State, error)
	SaveState(ctx context.Context, state *model.State) error
}

// Change describes one committed mutation.
type Change struct {
	Version uint64
	Op      string
	ID      string
}

// Options configures a Store.
type Options struct {
	// Now defaults to time.Now.
	Now func() time.Time
	// NewID defaults to the prefix followed by a random UUID.
	NewID func(prefix string) string
	// Vendors installed when no state is stored. Defaults to model.DefaultVendors.
	SeedVendors []model.Vendor
}

// Store owns the items, pickups and vendors. All mutations go through its
// methods, replace whole records, and are applied by one writer at a time.
type Store struct {
	mu      sync.RWMutex
	items   []model.Item
	pickups []model.Pickup
	vendors []model.Vendor
	version uint64

	persister Persister
	now       func() time.Time
	newID     func(prefix string) string

	subMu   sync.Mutex
	subs    map[int]func(Change)
	nextSub int
}

// ItemInput holds the user-supplied attributes of an item.
type ItemInput struct {
	Name       string           `json:"name"`
	Department model.Department `json:"department"`
	Category   model.Category   `json:"category"`
	AgeMonths  int              `json:"ageMonths"`
	Condition  model.Condition  `json:"condition"`
	Notes      string           `json:"notes"`
}

// Validate checks that all enumerated fields are known.
func (in *ItemInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Notes = strings.TrimSpace(in.Notes)
	switch {
	case in.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	case !in.Department.Valid():
		return fmt.Errorf("%w: unknown department %q", ErrInvalidInput, in.Department)
	case !in.Category.Valid():
		return fmt.Errorf("%w: unknown category %q", ErrInvalidInput, in.Category)
	case !in.Condition.Valid():
		return fmt.Errorf("%w: unknown condition %q", ErrInvalidInput, in.Condition)
	case in.AgeMonths < 0:
		return fmt.Errorf("%w: age must not be negative", ErrInvalidInput)
	}
	return nil
}

// PickupInput holds the fields of a new pickup.
type PickupInput struct {
	Date     string   `json:"date"`
	VendorID string   `json:"vendorId"`
	ItemIDs  []string `json:"itemIds"`
	Notes    string   `json:"notes"`
}

// VendorInput holds the editable fields of a vendor.
type VendorInput struct {
	Name      string `json:"name"`
	Contact   string `json:"contact"`
	Certified bool   `json:"certified"`
}

// Validate trims the fields and requires a name.
func (in *VendorInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Contact = strings.TrimSpace(in.Contact)
	if in.Name == "" {
		return fmt.Errorf("%w: vendor name is required", ErrInvalidInput)
	}
	return nil
}

// Open loads the stored state once and returns a ready store. Unreadable
// state is logged and replaced by defaults; malformed records are dropped.
func Open(ctx context.Context, p Persister, opts Options) *Store {
	s := &Store{
		persister: p,
		now:       opts.Now,
		newID:     opts.NewID,
		subs:      make(map[int]func(Change)),
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = func(prefix string) string { return prefix + uuid.NewString() }
	}

	var state *model.State
	if p != nil {
		var err error
		state, err = p.LoadState(ctx)
		if err != nil {
			slog.Warn("loading stored state, using defaults", "error", err)
			state = nil
		}
	}

	if state == nil {
		vendors := opts.SeedVendors
		if len(vendors) == 0 {
			vendors = model.DefaultVendors()
		}
		s.vendors = append([]model.Vendor(nil), vendors...)
		return s
	}

	s.items = state.Items
	s.pickups = state.Pickups
	s.vendors = state.Vendors
	return s
}

// Subscribe registers fn to be called after every committed mutation.
// fn runs on the writer's goroutine and must not block or call back into
// the store's mutating methods. The returned func unsubscribes.
func (s *Store) Subscribe(fn func(Change)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

// mutate runs fn under the write lock. If fn succeeds the version is bumped,
// the state is persisted best-effort, and subscribers are notified.
func (s *Store) mutate(ctx context.Context, op string, fn func() (string, error)) error {
	s.mu.Lock()
	id, err := fn()
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.version++
	change := Change{Version: s.version, Op: op, ID: id}
	if s.persister != nil {
		if err := s.persister.SaveState(context.WithoutCancel(ctx), s.snapshotLocked()); err != nil {
			slog.Warn("persisting state", "op", op, "version", change.Version, "error", err)
		}
	}
	s.mu.Unlock()

	s.subMu.Lock()
	subs := make([]func(Change), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subMu.Unlock()

	for _, fn := range subs {
		fn(change)
	}
	return nil
}

func (s *Store) snapshotLocked() *model.State {
	state := &model.State{
		Items:   make([]model.Item, len(s.items)),
		Pickups: make([]model.Pickup, len(s.pickups)),
		Vendors: append([]model.Vendor{}, s.vendors...),
	}
	for i, it := range s.items {
		state.Items[i] = it.Clone()
	}
	for i, p := range s.pickups {
		p.ItemIDs = append([]string{}, p.ItemIDs...)
		state.Pickups[i] = p
	}
	return state
}

func (s *Store) itemIndex(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) vendorIndex(id string) int {
	for i := range s.vendors {
		if s.vendors[i].ID == id {
			return i
		}
	}
	return -1
}

// Version returns the number of committed mutations since Open.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Now returns the store clock's current time.
func (s *Store) Now() time.Time {
	return s.now()
}

// Snapshot returns a deep copy of the full state.
func (s *Store) Snapshot() *model.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Items returns a copy of all items, newest first.
func (s *Store) Items() []model.Item {
	return s.Snapshot().Items
}

// Item returns the item with the given id, or false.
func (s *Store) Item(id string) (model.Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.itemIndex(id); i >= 0 {
		return s.items[i].Clone(), true
	}
	return model.Item{}, false
}

// Pickups returns a copy of all pickups, newest first.
func (s *Store) Pickups() []model.Pickup {
	return s.Snapshot().Pickups
}

// Vendors returns a copy of all vendors, newest first.
func (s *Store) Vendors() []model.Vendor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Vendor{}, s.vendors...)
}

// Vendor returns the vendor with the given id, or false.
func (s *Store) Vendor(id string) (model.Vendor, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.vendorIndex(id); i >= 0 {
		return s.vendors[i], true
	}
	return model.Vendor{}, false
}

// ItemFilter narrows and orders the item table.
type ItemFilter struct {
	// Query matches name, category, department or id, case-insensitively.
	Query          string
	Department     model.Department
	Classification model.ClassificationType
	// Descending sorts Z-A by name instead of A-Z.
	Descending bool
}

// FilterItems returns the items matching f, sorted by name.
func (s *Store) FilterItems(f ItemFilter) []model.Item {
	q := strings.ToLower(strings.TrimSpace(f.Query))

	var out []model.Item
	for _, it := range s.Items() {
		if f.Department != "" && it.Department != f.Department {
			continue
		}
		if f.Classification != "" && it.Classification.Type != f.Classification {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(it.Name), q) &&
			!strings.Contains(strings.ToLower(string(it.Category)), q) &&
			!strings.Contains(strings.ToLower(string(it.Department)), q) &&
			!strings.Contains(strings.ToLower(it.ID), q) {
			continue
		}
		out = append(out, it)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := strings.ToLower(out[i].Name), strings.ToLower(out[j].Name)
		if f.Descending {
			return a > b
		}
		return a < b
	})
	return out
}

// AddItem classifies a new item and prepends it with status Reported.
func (s *Store) AddItem(ctx context.Context, in ItemInput) (model.Item, error) {
	if err := in.Validate(); err != nil {
		return model.Item{}, err
	}

	var created model.Item
	err := s.mutate(ctx, OpAddItem, func() (string, error) {
		id := s.newID("it-")
		created = model.Item{
			ID:         id,
			QRID:       id,
			Name:       in.Name,
			Department: in.Department,
			Category:   in.Category,
			AgeMonths:  in.AgeMonths,
			Condition:  in.Condition,
			Notes:      in.Notes,
			Status:     model.StatusReported,
			CreatedAt:  s.now(),
			Classification: classify.Classify(classify.Input{
				Category:  in.Category,
				Name:      in.Name,
				AgeMonths: in.AgeMonths,
				Condition: in.Condition,
			}),
		}
		s.items = append([]model.Item{created}, s.items...)
		return id, nil
	})
	return created.Clone(), err
}

// UpdateItem replaces the descriptive attributes of an item. The stored
// classification is kept as it was at intake.
func (s *Store) UpdateItem(ctx context.Context, id string, in ItemInput) (model.Item, error) {
	if err := in.Validate(); err != nil {
		return model.Item{}, err
	}

	var updated model.Item
	err := s.mutate(ctx, OpUpdateItem, func() (string, error) {
		i := s.itemIndex(id)
		if i < 0 {
			return "", ErrNotFound
		}
		it := s.items[i].Clone()
		it.Name = in.Name
		it.Department = in.Department
		it.Category = in.Category
		it.AgeMonths = in.AgeMonths
		it.Condition = in.Condition
		it.Notes = in.Notes
		s.items[i] = it
		updated = it
		return id, nil
	})
	return updated.Clone(), err
}

// DeleteItem removes the item outright. Pickups keep referencing its id.
func (s *Store) DeleteItem(ctx context.Context, id string) error {
	return s.mutate(ctx, OpDeleteItem, func() (string, error) {
		i := s.itemIndex(id)
		if i < 0 {
			return "", ErrNotFound
		}
		s.items = append(s.items[:i:i], s.items[i+1:]...)
		return id, nil
	})
}

// SchedulePickup records a pickup and moves every referenced item to
// Scheduled with a back-reference. Items are migrated whatever their
// current status; ids that match no item stay on the pickup untouched.
func (s *Store) SchedulePickup(ctx context.Context, in PickupInput) (model.Pickup, error) {
	if _, err := time.Parse(model.DateLayout, in.Date); err != nil {
		return model.Pickup{}, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
	}
	return s.schedule(ctx, OpSchedule, in, nil)
}

// schedule applies the pickup under the write lock. guard, if set, runs
// first under the same lock and can veto the pickup.
func (s *Store) schedule(ctx context.Context, op string, in PickupInput, guard func() error) (model.Pickup, error) {
	var created model.Pickup
	err := s.mutate(ctx, op, func() (string, error) {
		if guard != nil {
			if err := guard(); err != nil {
				return "", err
			}
		}
		created = model.Pickup{
			ID:       s.newID("p-"),
			Date:     in.Date,
			VendorID: in.VendorID,
			ItemIDs:  dedupe(in.ItemIDs),
			Notes:    strings.TrimSpace(in.Notes),
		}
		for _, itemID := range created.ItemIDs {
			if i := s.itemIndex(itemID); i >= 0 {
				s.items[i] = lifecycle.Schedule(s.items[i], created.ID)
			}
		}
		s.pickups = append([]model.Pickup{created}, s.pickups...)
		return created.ID, nil
	})
	created.ItemIDs = append([]string(nil), created.ItemIDs...)
	return created, err
}

// QuickSchedule books a single Reported item with the first certified
// vendor (or the first vendor if none is certified) a few days from now.
// Disposed items fail with lifecycle.ErrTerminal and items already past
// Reported with ErrInvalidInput.
func (s *Store) QuickSchedule(ctx context.Context, itemID string) (model.Pickup, error) {
	if _, ok := s.Item(itemID); !ok {
		return model.Pickup{}, ErrNotFound
	}

	vendors := s.Vendors()
	if len(vendors) == 0 {
		return model.Pickup{}, ErrNoVendors
	}
	vendor := vendors[0]
	for _, v := range vendors {
		if v.Certified {
			vendor = v
			break
		}
	}

	return s.schedule(ctx, OpQuickSchedule, PickupInput{
		Date:     s.now().Add(QuickScheduleLead).Format(model.DateLayout),
		VendorID: vendor.ID,
		ItemIDs:  []string{itemID},
		Notes:    QuickScheduleNotes,
	}, func() error {
		i := s.itemIndex(itemID)
		switch {
		case i < 0:
			return ErrNotFound
		case s.items[i].Status.Terminal():
			return lifecycle.ErrTerminal
		case s.items[i].Status != model.StatusReported:
			return fmt.Errorf("%w: item is already %s", ErrInvalidInput, s.items[i].Status)
		}
		return nil
	})
}

// MarkStage records a scan: the item moves to status and an audit entry
// naming actor is appended.
func (s *Store) MarkStage(ctx context.Context, id string, status model.Status, actor string) (model.Item, error) {
	var updated model.Item
	err := s.mutate(ctx, OpMarkStage, func() (string, error) {
		i := s.itemIndex(id)
		if i < 0 {
			return "", ErrNotFound
		}
		it, err := lifecycle.Advance(s.items[i], status, actor, s.now())
		if err != nil {
			return "", err
		}
		s.items[i] = it
		updated = it
		return id, nil
	})
	return updated.Clone(), err
}

// errUnchanged aborts a mutation that turned out to be a no-op.
var errUnchanged = errors.New("unchanged")

// DisposeItem marks the item disposed by actor. Disposing an already
// disposed item changes nothing and reports false.
func (s *Store) DisposeItem(ctx context.Context, id string, actor string) (model.Item, bool, error) {
	var result model.Item
	err := s.mutate(ctx, OpDispose, func() (string, error) {
		i := s.itemIndex(id)
		if i < 0 {
			return "", ErrNotFound
		}
		it, changed := lifecycle.Dispose(s.items[i], actor, s.now())
		result = it
		if !changed {
			return "", errUnchanged
		}
		s.items[i] = it
		return id, nil
	})
	if errors.Is(err, errUnchanged) {
		return result.Clone(), false, nil
	}
	return result.Clone(), err == nil, err
}

// AddVendor prepends a new vendor.
func (s *Store) AddVendor(ctx context.Context, in VendorInput) (model.Vendor, error) {
	if err := in.Validate(); err != nil {
		return model.Vendor{}, err
	}

	var created model.Vendor
	err := s.mutate(ctx, OpAddVendor, func() (string, error) {
		created = model.Vendor{
			ID:        s.newID("v-"),
			Name:      in.Name,
			Contact:   in.Contact,
			Certified: in.Certified,
		}
		s.vendors = append([]model.Vendor{created}, s.vendors...)
		return created.ID, nil
	})
	return created, err
}

// UpdateVendor replaces a vendor's editable fields.
func (s *Store) UpdateVendor(ctx context.Context, id string, in VendorInput) (model.Vendor, error) {
	if err := in.Validate(); err != nil {
		return model.Vendor{}, err
	}

	var updated model.Vendor
	err := s.mutate(ctx, OpUpdateVendor, func() (string, error) {
		i := s.vendorIndex(id)
		if i < 0 {
			return "", ErrNotFound
		}
		updated = model.Vendor{ID: id, Name: in.Name, Contact: in.Contact, Certified: in.Certified}
		s.vendors[i] = updated
		return id, nil
	})
	return updated, err
}

// RemoveVendor deletes a vendor. Pickups referencing it are left as they are.
func (s *Store) RemoveVendor(ctx context.Context, id string) error {
	return s.mutate(ctx, OpRemoveVendor, func() (string, error) {
		i := s.vendorIndex(id)
		if i < 0 {
			return "", ErrNotFound
		}
		s.vendors = append(s.vendors[:i:i], s.vendors[i+1:]...)
		return id, nil
	})
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
