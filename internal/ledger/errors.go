package ledger

import (
	"errors"
	"fmt"
)

// SlotsFullError reports an activation or restore that would exceed the
// ledger's capacity. The caller must explicitly replace or choose otherwise;
// it is never auto-resolved.
type SlotsFullError struct {
	MaxSlots int
}

func (e SlotsFullError) Error() string {
	return fmt.Sprintf("all %d slots full: replace required", e.MaxSlots)
}

// IsSlotsFullError checks if err is a SlotsFullError (including wrapped errors).
func IsSlotsFullError(err error) bool {
	var se SlotsFullError
	return errors.As(err, &se)
}

// DuplicateSeriesError reports an activation for a series that already
// occupies a non-archived slot.
type DuplicateSeriesError struct {
	SeriesKey string
}

func (e DuplicateSeriesError) Error() string {
	return fmt.Sprintf("series %q already active", e.SeriesKey)
}

func IsDuplicateSeriesError(err error) bool {
	var de DuplicateSeriesError
	return errors.As(err, &de)
}

// SlotNotFoundError reports an operation on a slot id absent from the ledger.
type SlotNotFoundError struct {
	SlotID string
}

func (e SlotNotFoundError) Error() string {
	return fmt.Sprintf("slot %q not found", e.SlotID)
}

func IsSlotNotFoundError(err error) bool {
	var ne SlotNotFoundError
	return errors.As(err, &ne)
}

// SlotArchivedError reports a replace or switch against an archived slot.
type SlotArchivedError struct {
	SlotID string
}

func (e SlotArchivedError) Error() string {
	return fmt.Sprintf("slot %q is archived", e.SlotID)
}

func IsSlotArchivedError(err error) bool {
	var ae SlotArchivedError
	return errors.As(err, &ae)
}

// NotArchivedError reports a restore against a slot that is not archived.
type NotArchivedError struct {
	SlotID string
}

func (e NotArchivedError) Error() string {
	return fmt.Sprintf("slot %q is not archived", e.SlotID)
}

func IsNotArchivedError(err error) bool {
	var ne NotArchivedError
	return errors.As(err, &ne)
}
