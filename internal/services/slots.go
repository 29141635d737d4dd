package services

import (
	"context"
	"errors"

	"github.com/euangelion/plan-service/internal/ledger"
	"github.com/euangelion/plan-service/internal/model"
	"github.com/euangelion/plan-service/internal/store"
)

// SlotService orchestrates slot ledger use cases: load the owner's ledger,
// apply one pure operation, persist the result. The ledger package owns the
// rules; this service owns durability.
type SlotService struct {
	store store.Store
}

func NewSlotService(s store.Store) *SlotService { return &SlotService{store: s} }

func (s *SlotService) load(ctx context.Context, owner string) (model.SlotLedger, error) {
	l, err := s.store.Ledgers().Get(ctx, owner)
	if errors.Is(err, model.ErrNotFound) {
		return ledger.New(), nil
	}
	if err != nil {
		return model.SlotLedger{}, err
	}
	return *l, nil
}

func (s *SlotService) save(ctx context.Context, owner string, l model.SlotLedger) (*model.SlotLedger, error) {
	if err := s.store.Ledgers().Put(ctx, owner, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// GetLedger returns the owner's ledger, empty when none exists yet.
func (s *SlotService) GetLedger(ctx context.Context, owner string) (*model.SlotLedger, error) {
	l, err := s.load(ctx, owner)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// Activate adds a slot for seriesKey, optionally as current.
func (s *SlotService) Activate(ctx context.Context, owner, seriesKey string, makeCurrent bool) (*model.SlotLedger, error) {
	l, err := s.load(ctx, owner)
	if err != nil {
		return nil, err
	}
	next, err := ledger.Activate(l, seriesKey, makeCurrent)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, owner, next)
}

// Replace swaps the target slot for a new series, archiving the old slot.
func (s *SlotService) Replace(ctx context.Context, owner, slotID, seriesKey string) (*model.SlotLedger, error) {
	l, err := s.load(ctx, owner)
	if err != nil {
		return nil, err
	}
	next, err := ledger.Replace(l, slotID, seriesKey)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, owner, next)
}

// SwitchCurrent promotes the target slot to current.
func (s *SlotService) SwitchCurrent(ctx context.Context, owner, slotID string) (*model.SlotLedger, error) {
	l, err := s.load(ctx, owner)
	if err != nil {
		return nil, err
	}
	next, err := ledger.SwitchCurrent(l, slotID)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, owner, next)
}

// Archive removes the target slot from the active set with the given reason.
func (s *SlotService) Archive(ctx context.Context, owner, slotID string, reason model.ArchiveReason) (*model.SlotLedger, error) {
	switch reason {
	case model.ArchiveCompleted, model.ArchiveReplaced, model.ArchiveWeekEnd:
	default:
		return nil, model.ErrValidation
	}
	l, err := s.load(ctx, owner)
	if err != nil {
		return nil, err
	}
	next, err := ledger.Archive(l, slotID, reason)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, owner, next)
}

// ArchiveCompleted archives every completed slot with reason week_end. Runs
// at the recurring weekly boundary; a no-op ledger still round-trips.
func (s *SlotService) ArchiveCompleted(ctx context.Context, owner string) (*model.SlotLedger, error) {
	l, err := s.load(ctx, owner)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, owner, ledger.ArchiveCompleted(l))
}

// Restore returns an archived slot to the active set as queued.
func (s *SlotService) Restore(ctx context.Context, owner, slotID string) (*model.SlotLedger, error) {
	l, err := s.load(ctx, owner)
	if err != nil {
		return nil, err
	}
	next, err := ledger.Restore(l, slotID)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, owner, next)
}
