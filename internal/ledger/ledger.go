// Package ledger implements the slot allocation engine: up to MaxSlots
// concurrently active reading plans per owner, one of them current.
//
// Every operation is a pure transformation — it returns a new ledger value
// and never mutates its input. Durability is the caller's concern; services
// load a ledger, apply one operation, and persist the result as a single
// read-modify-write step.
package ledger

import (
	"time"

	"github.com/google/uuid"

	"github.com/euangelion/plan-service/internal/model"
)

// DefaultMaxSlots is the fixed ledger capacity.
const DefaultMaxSlots = 3

// DefaultTotalDays is the length of a newly activated plan.
const DefaultTotalDays = 7

// New returns an empty ledger with the default capacity.
func New() model.SlotLedger {
	return model.SlotLedger{Slots: nil, SwitchCount: 0, MaxSlots: DefaultMaxSlots}
}

// ActiveSlots returns the non-archived slots in ledger order. A completed
// slot still occupies the ledger until explicitly archived, so it is active
// here.
func ActiveSlots(l model.SlotLedger) []model.Slot {
	var out []model.Slot
	for _, s := range l.Slots {
		if s.Status != model.SlotArchived {
			out = append(out, s)
		}
	}
	return out
}

// CurrentSlot returns the current slot, if any.
func CurrentSlot(l model.SlotLedger) (model.Slot, bool) {
	for _, s := range l.Slots {
		if s.Status == model.SlotCurrent {
			return s, true
		}
	}
	return model.Slot{}, false
}

// FindSlot returns the slot with the given id, if present.
func FindSlot(l model.SlotLedger, slotID string) (model.Slot, bool) {
	for _, s := range l.Slots {
		if s.ID == slotID {
			return s, true
		}
	}
	return model.Slot{}, false
}

// CanActivate reports whether the ledger has room for another active slot.
func CanActivate(l model.SlotLedger) bool {
	return len(ActiveSlots(l)) < l.MaxSlots
}

func cloneSlots(l model.SlotLedger) []model.Slot {
	out := make([]model.Slot, len(l.Slots))
	copy(out, l.Slots)
	return out
}

// Activate creates a new slot for seriesKey. When makeCurrent is true the
// new slot becomes current and the previous current slot (if any) is demoted
// to queued — exactly one demotion. Fails with DuplicateSeriesError when a
// non-archived slot already carries the series, or SlotsFullError at
// capacity.
func Activate(l model.SlotLedger, seriesKey string, makeCurrent bool) (model.SlotLedger, error) {
	for _, s := range l.Slots {
		if s.SeriesKey == seriesKey && s.Status != model.SlotArchived {
			return model.SlotLedger{}, DuplicateSeriesError{SeriesKey: seriesKey}
		}
	}
	if !CanActivate(l) {
		return model.SlotLedger{}, SlotsFullError{MaxSlots: l.MaxSlots}
	}

	status := model.SlotQueued
	if makeCurrent {
		status = model.SlotCurrent
	}
	slot := model.Slot{
		ID:          uuid.New().String(),
		SeriesKey:   seriesKey,
		Status:      status,
		CurrentDay:  1,
		TotalDays:   DefaultTotalDays,
		ActivatedAt: time.Now().UTC(),
	}

	slots := cloneSlots(l)
	if makeCurrent {
		for i := range slots {
			if slots[i].Status == model.SlotCurrent {
				slots[i].Status = model.SlotQueued
				break
			}
		}
	}
	l.Slots = append(slots, slot)
	return l, nil
}

// Replace archives the target slot with reason replaced and creates a new
// slot for newSeriesKey that inherits the archived slot's status (current
// stays current, queued stays queued). Increments SwitchCount.
func Replace(l model.SlotLedger, slotID, newSeriesKey string) (model.SlotLedger, error) {
	target, ok := FindSlot(l, slotID)
	if !ok {
		return model.SlotLedger{}, SlotNotFoundError{SlotID: slotID}
	}
	if target.Status == model.SlotArchived {
		return model.SlotLedger{}, SlotArchivedError{SlotID: slotID}
	}

	now := time.Now().UTC()
	reason := model.ArchiveReplaced

	inherited := target.Status
	if inherited == model.SlotCompleted {
		// A completed slot being replaced yields a fresh queued plan.
		inherited = model.SlotQueued
	}

	slots := cloneSlots(l)
	for i := range slots {
		if slots[i].ID == slotID {
			slots[i].Status = model.SlotArchived
			slots[i].ArchivedAt = &now
			slots[i].ArchiveReason = &reason
		}
	}
	slots = append(slots, model.Slot{
		ID:          uuid.New().String(),
		SeriesKey:   newSeriesKey,
		Status:      inherited,
		CurrentDay:  1,
		TotalDays:   DefaultTotalDays,
		ActivatedAt: now,
	})

	l.Slots = slots
	l.SwitchCount++
	return l, nil
}

// SwitchCurrent promotes the target slot to current and demotes the previous
// current slot (if any) to queued. Increments SwitchCount. Fails with
// SlotNotFoundError or SlotArchivedError for missing or archived targets.
func SwitchCurrent(l model.SlotLedger, slotID string) (model.SlotLedger, error) {
	target, ok := FindSlot(l, slotID)
	if !ok {
		return model.SlotLedger{}, SlotNotFoundError{SlotID: slotID}
	}
	if target.Status == model.SlotArchived {
		return model.SlotLedger{}, SlotArchivedError{SlotID: slotID}
	}

	slots := cloneSlots(l)
	for i := range slots {
		switch {
		case slots[i].ID == slotID:
			slots[i].Status = model.SlotCurrent
		case slots[i].Status == model.SlotCurrent:
			slots[i].Status = model.SlotQueued
		}
	}

	l.Slots = slots
	l.SwitchCount++
	return l, nil
}

// Archive stamps the target slot archived with the given reason, freeing a
// slot for future activation. Other slots are untouched.
func Archive(l model.SlotLedger, slotID string, reason model.ArchiveReason) (model.SlotLedger, error) {
	if _, ok := FindSlot(l, slotID); !ok {
		return model.SlotLedger{}, SlotNotFoundError{SlotID: slotID}
	}

	now := time.Now().UTC()
	slots := cloneSlots(l)
	for i := range slots {
		if slots[i].ID == slotID {
			slots[i].Status = model.SlotArchived
			slots[i].ArchivedAt = &now
			r := reason
			slots[i].ArchiveReason = &r
		}
	}
	l.Slots = slots
	return l, nil
}

// Restore returns an archived slot to the active set as queued — never
// current — clearing archive fields and preserving progress. Fails with
// NotArchivedError when the slot isn't archived, or SlotsFullError when
// restoring would exceed capacity.
func Restore(l model.SlotLedger, slotID string) (model.SlotLedger, error) {
	target, ok := FindSlot(l, slotID)
	if !ok || target.Status != model.SlotArchived {
		return model.SlotLedger{}, NotArchivedError{SlotID: slotID}
	}
	if !CanActivate(l) {
		return model.SlotLedger{}, SlotsFullError{MaxSlots: l.MaxSlots}
	}

	slots := cloneSlots(l)
	for i := range slots {
		if slots[i].ID == slotID {
			slots[i].Status = model.SlotQueued
			slots[i].ArchivedAt = nil
			slots[i].ArchiveReason = nil
		}
	}
	l.Slots = slots
	return l, nil
}

// ArchiveCompleted archives every completed slot with reason week_end. Used
// at the recurring weekly boundary; a no-op when nothing is completed.
func ArchiveCompleted(l model.SlotLedger) model.SlotLedger {
	now := time.Now().UTC()
	slots := cloneSlots(l)
	for i := range slots {
		if slots[i].Status == model.SlotCompleted {
			slots[i].Status = model.SlotArchived
			slots[i].ArchivedAt = &now
			r := model.ArchiveWeekEnd
			slots[i].ArchiveReason = &r
		}
	}
	l.Slots = slots
	return l
}
