package store

import (
	"context"

	"github.com/euangelion/plan-service/internal/model"
)

// Store exposes persistence operations required by services.
// Implementations live under internal/store/<driver>/ (e.g., postgres, sqlite).
type Store interface {
	Plans() Plans
	Ledgers() Ledgers
	Days() Days
	Runs() Runs
}

// Plans persists plan instances keyed by token.
type Plans interface {
	Create(ctx context.Context, p *model.PlanInstance) (*model.PlanInstance, error)
	Get(ctx context.Context, token string) (*model.PlanInstance, error)
	ListByOwner(ctx context.Context, ownerSessionKey string) ([]*model.PlanInstance, error)
}

// Ledgers persists whole slot ledgers keyed by owner session. Callers do
// read-modify-write of the full ledger value.
type Ledgers interface {
	Get(ctx context.Context, ownerSessionKey string) (*model.SlotLedger, error)
	Put(ctx context.Context, ownerSessionKey string, l *model.SlotLedger) error
}

// Days persists per-day content within a plan. Put upserts; a ready day's
// content is overwritten only by an identical-day upsert, never regenerated
// silently by the coordinator.
type Days interface {
	Put(ctx context.Context, token string, d *model.PlanDay) error
	Get(ctx context.Context, token string, day int) (*model.PlanDay, error)
	List(ctx context.Context, token string) ([]*model.PlanDay, error)
	// IsDayPending is the cross-instance guard: it reports whether the day
	// still needs generation according to durable state. Absent plan rows
	// fail open (true) so a store lagging behind plan creation cannot wedge
	// generation; an existing ready day reports false.
	IsDayPending(ctx context.Context, token string, day int) (bool, error)
}

// Runs persists audit-run generation context (outline plus answer text).
type Runs interface {
	Put(ctx context.Context, rc *model.RunContext) error
	Get(ctx context.Context, auditRunID string) (*model.RunContext, error)
}
