package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/euangelion/plan-service/internal/ledger"
	"github.com/euangelion/plan-service/internal/model"
	"github.com/euangelion/plan-service/internal/store/memory"
)

func TestGetLedgerEmptyForNewOwner(t *testing.T) {
	svc := NewSlotService(memory.New())

	l, err := svc.GetLedger(context.Background(), "fresh-owner")
	require.NoError(t, err)
	assert.Empty(t, l.Slots)
	assert.Equal(t, ledger.DefaultMaxSlots, l.MaxSlots)
}

func TestActivatePersistsAcrossLoads(t *testing.T) {
	svc := NewSlotService(memory.New())
	ctx := context.Background()

	l, err := svc.Activate(ctx, "owner-1", "anxiety", true)
	require.NoError(t, err)
	require.Len(t, l.Slots, 1)
	assert.Equal(t, model.SlotCurrent, l.Slots[0].Status)

	reloaded, err := svc.GetLedger(ctx, "owner-1")
	require.NoError(t, err)
	require.Len(t, reloaded.Slots, 1)
	assert.Equal(t, "anxiety", reloaded.Slots[0].SeriesKey)
}

func TestActivateFourthSlotFails(t *testing.T) {
	svc := NewSlotService(memory.New())
	ctx := context.Background()

	for _, series := range []string{"anxiety", "grief", "identity"} {
		_, err := svc.Activate(ctx, "owner-1", series, false)
		require.NoError(t, err)
	}

	_, err := svc.Activate(ctx, "owner-1", "purpose", false)
	require.Error(t, err)
	assert.True(t, ledger.IsSlotsFullError(err))
}

func TestOwnersLedgersAreIsolated(t *testing.T) {
	svc := NewSlotService(memory.New())
	ctx := context.Background()

	_, err := svc.Activate(ctx, "owner-1", "anxiety", true)
	require.NoError(t, err)

	other, err := svc.GetLedger(ctx, "owner-2")
	require.NoError(t, err)
	assert.Empty(t, other.Slots)
}

func TestReplaceArchivesOldSlot(t *testing.T) {
	svc := NewSlotService(memory.New())
	ctx := context.Background()

	l, err := svc.Activate(ctx, "owner-1", "anxiety", true)
	require.NoError(t, err)
	oldID := l.Slots[0].ID

	next, err := svc.Replace(ctx, "owner-1", oldID, "grief")
	require.NoError(t, err)

	active := ledger.ActiveSlots(*next)
	require.Len(t, active, 1)
	assert.Equal(t, "grief", active[0].SeriesKey)
	assert.Equal(t, model.SlotCurrent, active[0].Status)

	old, ok := ledger.FindSlot(*next, oldID)
	require.True(t, ok)
	assert.Equal(t, model.SlotArchived, old.Status)
	require.NotNil(t, old.ArchiveReason)
	assert.Equal(t, model.ArchiveReplaced, *old.ArchiveReason)
}

func TestSwitchCurrentMovesCurrentMarker(t *testing.T) {
	svc := NewSlotService(memory.New())
	ctx := context.Background()

	l, err := svc.Activate(ctx, "owner-1", "anxiety", true)
	require.NoError(t, err)
	l, err = svc.Activate(ctx, "owner-1", "grief", false)
	require.NoError(t, err)

	var queuedID string
	for _, s := range l.Slots {
		if s.Status == model.SlotQueued {
			queuedID = s.ID
		}
	}
	require.NotEmpty(t, queuedID)

	next, err := svc.SwitchCurrent(ctx, "owner-1", queuedID)
	require.NoError(t, err)

	cur, ok := ledger.CurrentSlot(*next)
	require.True(t, ok)
	assert.Equal(t, "grief", cur.SeriesKey)
	assert.Equal(t, 1, next.SwitchCount)
}

func TestArchiveValidatesReason(t *testing.T) {
	svc := NewSlotService(memory.New())
	ctx := context.Background()

	l, err := svc.Activate(ctx, "owner-1", "anxiety", true)
	require.NoError(t, err)
	slotID := l.Slots[0].ID

	_, err = svc.Archive(ctx, "owner-1", slotID, model.ArchiveReason("rage_quit"))
	assert.ErrorIs(t, err, model.ErrValidation)

	next, err := svc.Archive(ctx, "owner-1", slotID, model.ArchiveWeekEnd)
	require.NoError(t, err)
	assert.Empty(t, ledger.ActiveSlots(*next))
}

func TestArchiveThenRestore(t *testing.T) {
	svc := NewSlotService(memory.New())
	ctx := context.Background()

	l, err := svc.Activate(ctx, "owner-1", "anxiety", true)
	require.NoError(t, err)
	slotID := l.Slots[0].ID

	_, err = svc.Archive(ctx, "owner-1", slotID, model.ArchiveCompleted)
	require.NoError(t, err)

	next, err := svc.Restore(ctx, "owner-1", slotID)
	require.NoError(t, err)

	restored, ok := ledger.FindSlot(*next, slotID)
	require.True(t, ok)
	assert.Equal(t, model.SlotQueued, restored.Status)
	assert.Nil(t, restored.ArchiveReason)
}

func TestArchiveCompletedSweepsWeekEnd(t *testing.T) {
	st := memory.New()
	svc := NewSlotService(st)
	ctx := context.Background()

	l := ledger.New()
	l.Slots = []model.Slot{
		{ID: "slot-done", SeriesKey: "anxiety", Status: model.SlotCompleted, CurrentDay: 7, TotalDays: 7},
		{ID: "slot-live", SeriesKey: "grief", Status: model.SlotCurrent, CurrentDay: 3, TotalDays: 7},
	}
	require.NoError(t, st.Ledgers().Put(ctx, "owner-1", &l))

	next, err := svc.ArchiveCompleted(ctx, "owner-1")
	require.NoError(t, err)

	done, ok := ledger.FindSlot(*next, "slot-done")
	require.True(t, ok)
	assert.Equal(t, model.SlotArchived, done.Status)
	require.NotNil(t, done.ArchiveReason)
	assert.Equal(t, model.ArchiveWeekEnd, *done.ArchiveReason)

	live, ok := ledger.FindSlot(*next, "slot-live")
	require.True(t, ok)
	assert.Equal(t, model.SlotCurrent, live.Status)
}

func TestFailedOperationLeavesLedgerUntouched(t *testing.T) {
	svc := NewSlotService(memory.New())
	ctx := context.Background()

	_, err := svc.Activate(ctx, "owner-1", "anxiety", true)
	require.NoError(t, err)

	_, err = svc.SwitchCurrent(ctx, "owner-1", "no-such-slot")
	require.Error(t, err)
	assert.True(t, ledger.IsSlotNotFoundError(err))

	l, err := svc.GetLedger(ctx, "owner-1")
	require.NoError(t, err)
	require.Len(t, l.Slots, 1)
	assert.Equal(t, model.SlotCurrent, l.Slots[0].Status)
	assert.Equal(t, 0, l.SwitchCount)
}
