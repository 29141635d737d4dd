// Package storetest holds a driver-agnostic compliance suite for store.Store
// implementations.
package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/euangelion/plan-service/internal/model"
	"github.com/euangelion/plan-service/internal/store"
)

// Run exercises a minimal compliance suite against a store.Store
// implementation. makeStore should provide a clean, isolated store.
func Run(t *testing.T, makeStore func(t *testing.T) store.Store) {
	t.Helper()

	s := makeStore(t)
	ctx := context.Background()

	owner := "session-" + uuid.New().String()
	token := "plan-" + uuid.New().String()
	runID := "run-" + uuid.New().String()

	// Plans
	if _, err := s.Plans().Get(ctx, token); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Plans.Get missing: want ErrNotFound, got %v", err)
	}
	created, err := s.Plans().Create(ctx, &model.PlanInstance{
		Token:           token,
		OwnerSessionKey: owner,
		AuditRunID:      runID,
		SeriesKey:       "identity",
		PlanType:        model.PlanGenerative,
		Title:           "Who You Are",
		Timezone:        "UTC",
	})
	if err != nil {
		t.Fatalf("Plans.Create: %v", err)
	}
	if created.CreatedAt.IsZero() {
		t.Fatal("Plans.Create: CreatedAt not stamped")
	}
	got, err := s.Plans().Get(ctx, token)
	if err != nil || got.OwnerSessionKey != owner || got.PlanType != model.PlanGenerative {
		t.Fatalf("Plans.Get: got=%+v err=%v", got, err)
	}
	listed, err := s.Plans().ListByOwner(ctx, owner)
	if err != nil || len(listed) != 1 {
		t.Fatalf("Plans.ListByOwner: got=%d err=%v", len(listed), err)
	}

	// Ledgers
	if _, err := s.Ledgers().Get(ctx, owner); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Ledgers.Get missing: want ErrNotFound, got %v", err)
	}
	ledger := &model.SlotLedger{
		Slots:       []model.Slot{{ID: "slot-1", SeriesKey: "identity", Status: model.SlotCurrent, CurrentDay: 2, TotalDays: 7}},
		SwitchCount: 3,
		MaxSlots:    3,
	}
	if err := s.Ledgers().Put(ctx, owner, ledger); err != nil {
		t.Fatalf("Ledgers.Put: %v", err)
	}
	gotLedger, err := s.Ledgers().Get(ctx, owner)
	if err != nil || gotLedger.SwitchCount != 3 || len(gotLedger.Slots) != 1 {
		t.Fatalf("Ledgers.Get: got=%+v err=%v", gotLedger, err)
	}
	gotLedger.Slots[0].CurrentDay = 5
	if err := s.Ledgers().Put(ctx, owner, gotLedger); err != nil {
		t.Fatalf("Ledgers.Put update: %v", err)
	}
	again, err := s.Ledgers().Get(ctx, owner)
	if err != nil || again.Slots[0].CurrentDay != 5 {
		t.Fatalf("Ledgers round trip: got=%+v err=%v", again, err)
	}

	// Days
	pending, err := s.Days().IsDayPending(ctx, token, 1)
	if err != nil || !pending {
		t.Fatalf("IsDayPending absent row: got=%v err=%v (want fail-open true)", pending, err)
	}
	day := &model.PlanDay{Day: 1, DayType: model.DayStandard, Status: model.DayPending, Title: "Opening"}
	if err := s.Days().Put(ctx, token, day); err != nil {
		t.Fatalf("Days.Put: %v", err)
	}
	pending, err = s.Days().IsDayPending(ctx, token, 1)
	if err != nil || !pending {
		t.Fatalf("IsDayPending pending row: got=%v err=%v", pending, err)
	}
	day.Status = model.DayReady
	day.Reflection = "ready body"
	day.UsedChunkIDs = []string{"ref:a.md:0"}
	if err := s.Days().Put(ctx, token, day); err != nil {
		t.Fatalf("Days.Put upsert: %v", err)
	}
	pending, err = s.Days().IsDayPending(ctx, token, 1)
	if err != nil || pending {
		t.Fatalf("IsDayPending ready row: got=%v err=%v", pending, err)
	}
	gotDay, err := s.Days().Get(ctx, token, 1)
	if err != nil || gotDay.Status != model.DayReady || gotDay.Reflection != "ready body" {
		t.Fatalf("Days.Get: got=%+v err=%v", gotDay, err)
	}
	if len(gotDay.UsedChunkIDs) != 1 || gotDay.UsedChunkIDs[0] != "ref:a.md:0" {
		t.Fatalf("Days.Get: UsedChunkIDs lost: %+v", gotDay.UsedChunkIDs)
	}
	if err := s.Days().Put(ctx, token, &model.PlanDay{Day: 2, DayType: model.DayStandard, Status: model.DayPending}); err != nil {
		t.Fatalf("Days.Put day 2: %v", err)
	}
	all, err := s.Days().List(ctx, token)
	if err != nil || len(all) != 2 || all[0].Day != 1 || all[1].Day != 2 {
		t.Fatalf("Days.List: got=%d err=%v", len(all), err)
	}

	// Runs
	if _, err := s.Runs().Get(ctx, runID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Runs.Get missing: want ErrNotFound, got %v", err)
	}
	rc := &model.RunContext{
		AuditRunID: runID,
		AnswerText: "I feel unmoored lately.",
		Outline: model.PlanOutline{
			ID:    "outline-1",
			Title: "Hope That Holds",
			DayOutlines: []model.DayOutline{
				{Day: 1, DayType: model.DayStandard, ChiasticPosition: model.ChiasticA, Title: "Opening", ScriptureReference: "Hebrews 6:19", PardesLevel: model.PardesPeshat},
			},
		},
	}
	if err := s.Runs().Put(ctx, rc); err != nil {
		t.Fatalf("Runs.Put: %v", err)
	}
	gotRun, err := s.Runs().Get(ctx, runID)
	if err != nil || gotRun.Outline.Title != "Hope That Holds" || len(gotRun.Outline.DayOutlines) != 1 {
		t.Fatalf("Runs.Get: got=%+v err=%v", gotRun, err)
	}
}
