// Package lifecycle implements item status transitions.
//
// Every function works on a copy of the item and returns the replacement
// record; callers store the result as a whole.
package lifecycle

import (
	"errors"
	"time"

	"github.com/erazemk/ewaste/internal/model"
)

var (
	// ErrTerminal is returned when a transition is attempted on a disposed item.
	ErrTerminal = errors.New("item is disposed")
	// ErrInvalidStage is returned for targets that are not scan stages.
	ErrInvalidStage = errors.New("not a scan stage")
)

// DisposeAction is the action recorded in the disposal history.
const DisposeAction = "Disposed"

// Stage is a scan checkpoint and the status it produces.
type Stage struct {
	Label  string
	Status model.Status
}

var stages = []Stage{
	{Label: "Pickup", Status: model.StatusCollected},
	{Label: "Sorting", Status: model.StatusSorted},
	{Label: "Processing", Status: model.StatusProcessed},
	{Label: "Recycling", Status: model.StatusRecycled},
}

// Stages returns the scan stages in the order the UI offers them.
func Stages() []Stage {
	return append([]Stage(nil), stages...)
}

// StageFor returns the stage producing status.
func StageFor(status model.Status) (Stage, bool) {
	for _, s := range stages {
		if s.Status == status {
			return s, true
		}
	}
	return Stage{}, false
}

// Schedule attaches the item to a pickup. The current status is not checked.
func Schedule(it model.Item, pickupID string) model.Item {
	out := it.Clone()
	out.Status = model.StatusScheduled
	out.PickupID = pickupID
	return out
}

// Advance moves the item to a scan stage and appends an audit entry.
// Stages may be skipped or repeated; only disposed items are refused.
func Advance(it model.Item, target model.Status, actor string, at time.Time) (model.Item, error) {
	stage, ok := StageFor(target)
	if !ok {
		return it, ErrInvalidStage
	}
	if it.Status.Terminal() {
		return it, ErrTerminal
	}

	out := it.Clone()
	out.Status = stage.Status
	out.AuditTrail = append(out.AuditTrail, model.AuditEntry{
		Date:   at,
		User:   actor,
		Stage:  stage.Label,
		Status: stage.Status,
	})
	return out, nil
}

// Dispose marks the item as disposed. It reports false and returns the item
// unchanged if it was already disposed.
func Dispose(it model.Item, actor string, at time.Time) (model.Item, bool) {
	if it.Status == model.StatusDisposed {
		return it, false
	}

	out := it.Clone()
	out.Status = model.StatusDisposed
	out.DisposedAt = &at
	out.DisposedBy = actor
	out.DisposalHistory = append(out.DisposalHistory, model.DisposalEntry{
		Date:   at,
		User:   actor,
		Action: DisposeAction,
	})
	return out, true
}
