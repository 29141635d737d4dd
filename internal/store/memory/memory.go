// Package memory is an in-process store.Store used by tests and ephemeral
// deployments. All methods copy values on the way in and out so callers can
// never alias stored state.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/euangelion/plan-service/internal/model"
	"github.com/euangelion/plan-service/internal/store"
)

// Store is an in-memory store.Store.
type Store struct {
	mu      sync.RWMutex
	plans   map[string]model.PlanInstance
	days    map[string]map[int]model.PlanDay
	ledgers map[string]model.SlotLedger
	runs    map[string]model.RunContext
}

// New builds an empty in-memory store.
func New() *Store {
	return &Store{
		plans:   make(map[string]model.PlanInstance),
		days:    make(map[string]map[int]model.PlanDay),
		ledgers: make(map[string]model.SlotLedger),
		runs:    make(map[string]model.RunContext),
	}
}

func (s *Store) Plans() store.Plans     { return plansView{s} }
func (s *Store) Ledgers() store.Ledgers { return ledgersView{s} }
func (s *Store) Days() store.Days       { return daysView{s} }
func (s *Store) Runs() store.Runs       { return runsView{s} }

type plansView struct{ s *Store }

func (v plansView) Create(ctx context.Context, in *model.PlanInstance) (*model.PlanInstance, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	out := *in
	if out.CreatedAt.IsZero() {
		out.CreatedAt = time.Now().UTC()
	}
	v.s.plans[out.Token] = out
	res := out
	return &res, nil
}

func (v plansView) Get(ctx context.Context, token string) (*model.PlanInstance, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	p, ok := v.s.plans[token]
	if !ok {
		return nil, model.ErrNotFound
	}
	out := p
	return &out, nil
}

func (v plansView) ListByOwner(ctx context.Context, owner string) ([]*model.PlanInstance, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	var out []*model.PlanInstance
	for _, p := range v.s.plans {
		if p.OwnerSessionKey == owner {
			cp := p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].CreatedAt.Before(out[b].CreatedAt) })
	return out, nil
}

type ledgersView struct{ s *Store }

func (v ledgersView) Get(ctx context.Context, owner string) (*model.SlotLedger, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	l, ok := v.s.ledgers[owner]
	if !ok {
		return nil, model.ErrNotFound
	}
	out := l
	out.Slots = append([]model.Slot(nil), l.Slots...)
	return &out, nil
}

func (v ledgersView) Put(ctx context.Context, owner string, in *model.SlotLedger) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	cp := *in
	cp.Slots = append([]model.Slot(nil), in.Slots...)
	v.s.ledgers[owner] = cp
	return nil
}

type daysView struct{ s *Store }

func (v daysView) Put(ctx context.Context, token string, in *model.PlanDay) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	byDay, ok := v.s.days[token]
	if !ok {
		byDay = make(map[int]model.PlanDay)
		v.s.days[token] = byDay
	}
	byDay[in.Day] = *in
	return nil
}

func (v daysView) Get(ctx context.Context, token string, day int) (*model.PlanDay, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	d, ok := v.s.days[token][day]
	if !ok {
		return nil, model.ErrNotFound
	}
	out := d
	return &out, nil
}

func (v daysView) List(ctx context.Context, token string) ([]*model.PlanDay, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	var out []*model.PlanDay
	for _, d := range v.s.days[token] {
		cp := d
		out = append(out, &cp)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Day < out[b].Day })
	return out, nil
}

func (v daysView) IsDayPending(ctx context.Context, token string, day int) (bool, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	d, ok := v.s.days[token][day]
	if !ok {
		return true, nil
	}
	return d.Status != model.DayReady, nil
}

type runsView struct{ s *Store }

func (v runsView) Put(ctx context.Context, rc *model.RunContext) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	v.s.runs[rc.AuditRunID] = *rc
	return nil
}

func (v runsView) Get(ctx context.Context, runID string) (*model.RunContext, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	rc, ok := v.s.runs[runID]
	if !ok {
		return nil, model.ErrNotFound
	}
	out := rc
	return &out, nil
}
