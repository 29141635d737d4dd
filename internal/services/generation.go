package services

import (
	"context"
	"sort"

	"github.com/rs/zerolog"

	"github.com/euangelion/plan-service/internal/compose"
	"github.com/euangelion/plan-service/internal/corpus"
	"github.com/euangelion/plan-service/internal/generative"
	"github.com/euangelion/plan-service/internal/locks"
	"github.com/euangelion/plan-service/internal/model"
	"github.com/euangelion/plan-service/internal/store"
)

// DefaultLengthMinutes is the reading length used until a per-plan
// preference is stored on the plan instance.
const DefaultLengthMinutes = 10

// Generation result statuses.
const (
	StatusComplete          = "complete"
	StatusPartial           = "partial"
	StatusAlreadyGenerating = "already_generating"
)

// ChunkRetriever is the corpus dependency of generation.
type ChunkRetriever interface {
	Retrieve(req corpus.RetrievalRequest) corpus.RetrievalResult
}

// ContextStrategy resolves the generation context for a plan. Strategies are
// tried in order; the first to return true wins.
type ContextStrategy func(ctx context.Context, plan *model.PlanInstance, supplied *model.RunContext) (*model.RunContext, bool)

// FromStore resolves context from the durable audit-run record.
func FromStore(runs store.Runs) ContextStrategy {
	return func(ctx context.Context, plan *model.PlanInstance, _ *model.RunContext) (*model.RunContext, bool) {
		rc, err := runs.Get(ctx, plan.AuditRunID)
		if err != nil || len(rc.Outline.DayOutlines) == 0 {
			return nil, false
		}
		return rc, true
	}
}

// FromCaller resolves context from the request body, letting a client that
// still holds the outline bridge a store that lost the run record.
func FromCaller() ContextStrategy {
	return func(_ context.Context, _ *model.PlanInstance, supplied *model.RunContext) (*model.RunContext, bool) {
		if supplied == nil || len(supplied.Outline.DayOutlines) == 0 {
			return nil, false
		}
		return supplied, true
	}
}

// GenerateNextResult is the outcome of one generate-next call. Contention is
// an advisory outcome, not an error.
type GenerateNextResult struct {
	Status         string         `json:"status"`
	Message        string         `json:"message,omitempty"`
	GeneratedDay   *model.PlanDay `json:"generatedDay,omitempty"`
	TotalDays      int            `json:"totalDays"`
	CompletedDays  int            `json:"completedDays"`
	NextPendingDay *int           `json:"nextPendingDay"`
}

// GenerationCoordinator drives progressive day generation: one pending day
// per call, lowest day number first, at most one generation per plan per
// process at a time.
type GenerationCoordinator struct {
	store      store.Store
	locks      *locks.Store
	corpus     ChunkRetriever
	adapter    *generative.Adapter
	strategies []ContextStrategy
	minutes    int
	log        zerolog.Logger
}

func NewGenerationCoordinator(s store.Store, lk *locks.Store, c ChunkRetriever, a *generative.Adapter, lengthMinutes int, log zerolog.Logger) *GenerationCoordinator {
	if lengthMinutes <= 0 {
		lengthMinutes = DefaultLengthMinutes
	}
	return &GenerationCoordinator{
		store:      s,
		locks:      lk,
		corpus:     c,
		adapter:    a,
		strategies: []ContextStrategy{FromStore(s.Runs()), FromCaller()},
		minutes:    lengthMinutes,
		log:        log,
	}
}

func isDayReady(d *model.PlanDay) bool {
	return d.Status == model.DayReady
}

func sortDays(days []*model.PlanDay) {
	sort.Slice(days, func(a, b int) bool { return days[a].Day < days[b].Day })
}

func summarize(days []*model.PlanDay) (completed int, nextPending *int) {
	for _, d := range days {
		if isDayReady(d) {
			completed++
		} else if nextPending == nil {
			n := d.Day
			nextPending = &n
		}
	}
	return completed, nextPending
}

// mergeSuppliedDays fills gaps in the stored day collection from a
// caller-supplied outline snapshot. Store rows win on conflict; they may
// already hold generated content. Days merged in are pending skeletons and
// are persisted only once generated.
func mergeSuppliedDays(days []*model.PlanDay, supplied *model.RunContext) []*model.PlanDay {
	if supplied == nil || len(supplied.Outline.DayOutlines) <= len(days) {
		return days
	}
	stored := make(map[int]bool, len(days))
	for _, d := range days {
		stored[d.Day] = true
	}
	for _, o := range supplied.Outline.DayOutlines {
		if stored[o.Day] {
			continue
		}
		days = append(days, &model.PlanDay{
			Day:                o.Day,
			DayType:            o.DayType,
			Status:             model.DayPending,
			Title:              o.Title,
			ScriptureReference: o.ScriptureReference,
			ChiasticPosition:   o.ChiasticPosition,
			PardesLevel:        o.PardesLevel,
		})
	}
	return days
}

// retrieveForOutline fetches reference chunks for a standard day. Closing
// days derive from prior days and get none.
func retrieveForOutline(c ChunkRetriever, plan model.PlanOutline, outline model.DayOutline, exclude []string, adapter *generative.Adapter) []corpus.Chunk {
	if outline.DayType == model.DaySabbath || outline.DayType == model.DayReview {
		return nil
	}
	themes := []string{}
	if outline.TopicFocus != "" {
		themes = append(themes, outline.TopicFocus)
	}
	themes = append(themes, plan.ReferenceSeeds...)

	limit := corpus.DefaultChunkLimit
	if adapter != nil && adapter.GenerativeEnabled() {
		// The provider path carries chunks in its prompt; a handful of
		// top-scored chunks is enough and keeps token cost bounded.
		limit = 4
	}
	res := c.Retrieve(corpus.RetrievalRequest{
		Themes:           themes,
		ScriptureAnchors: []string{outline.ScriptureReference},
		Topic:            outline.Title + " " + outline.TopicFocus,
		ExcludeChunkIDs:  exclude,
		Limit:            limit,
	})
	return res.Chunks
}

// GenerateNext generates the lowest-numbered pending day of the plan.
//
// Sequence: ownership check, advisory lock, day resolution from the durable
// store merged with any caller-supplied snapshot (store rows win),
// cross-instance pending re-check, context resolution, dispatch on day type,
// persist ready, release. A ready day is never regenerated; losing the lock
// yields an advisory already_generating result, not an error.
func (g *GenerationCoordinator) GenerateNext(ctx context.Context, token, owner string, supplied *model.RunContext) (*GenerateNextResult, error) {
	plan, err := g.store.Plans().Get(ctx, token)
	if err != nil {
		return nil, err
	}
	if plan.OwnerSessionKey != owner {
		return nil, &AccessDeniedError{PlanToken: token}
	}

	if !g.locks.TryAcquire(token) {
		return &GenerateNextResult{
			Status:  StatusAlreadyGenerating,
			Message: "A day is already being generated for this plan. Please wait.",
		}, nil
	}
	defer g.locks.Release(token)

	days, err := g.store.Days().List(ctx, token)
	if err != nil {
		return nil, err
	}
	days = mergeSuppliedDays(days, supplied)
	sortDays(days)

	var pending *model.PlanDay
	for _, d := range days {
		if d.Status == model.DayPending {
			pending = d
			break
		}
	}
	if pending == nil {
		completed, _ := summarize(days)
		return &GenerateNextResult{
			Status:        StatusComplete,
			Message:       "All days have been generated.",
			TotalDays:     len(days),
			CompletedDays: completed,
		}, nil
	}

	// Cross-instance guard: another instance may have generated this day
	// since our read. Re-check durable state before spending provider calls.
	stillPending, err := g.store.Days().IsDayPending(ctx, token, pending.Day)
	if err != nil {
		return nil, err
	}
	if !stillPending {
		refreshed, err := g.store.Days().List(ctx, token)
		if err != nil {
			return nil, err
		}
		refreshed = mergeSuppliedDays(refreshed, supplied)
		sortDays(refreshed)
		completed, next := summarize(refreshed)
		status := StatusComplete
		if next != nil {
			status = StatusPartial
		}
		var generated *model.PlanDay
		for _, d := range refreshed {
			if d.Day == pending.Day {
				generated = d
				break
			}
		}
		return &GenerateNextResult{
			Status:         status,
			GeneratedDay:   generated,
			TotalDays:      len(refreshed),
			CompletedDays:  completed,
			NextPendingDay: next,
		}, nil
	}

	var rc *model.RunContext
	for _, strategy := range g.strategies {
		if resolved, ok := strategy(ctx, plan, supplied); ok {
			rc = resolved
			break
		}
	}
	if rc == nil {
		return nil, &OutlineMissingError{PlanToken: token, Day: pending.Day}
	}

	var outline *model.DayOutline
	for i := range rc.Outline.DayOutlines {
		if rc.Outline.DayOutlines[i].Day == pending.Day {
			outline = &rc.Outline.DayOutlines[i]
			break
		}
	}
	if outline == nil {
		return nil, &OutlineMissingError{PlanToken: token, Day: pending.Day}
	}

	var readyDays []model.PlanDay
	var previousModuleSets [][]model.ModuleType
	var usedChunkIDs []string
	for _, d := range days {
		if !isDayReady(d) {
			continue
		}
		readyDays = append(readyDays, *d)
		if len(d.Modules) > 0 {
			var set []model.ModuleType
			for _, m := range d.Modules {
				set = append(set, m.Type)
			}
			previousModuleSets = append(previousModuleSets, set)
		}
		usedChunkIDs = append(usedChunkIDs, compose.ReferencedChunkIDs(*d)...)
	}

	generated := g.adapter.GenerateDay(ctx, generative.DayRequest{
		Outline:            *outline,
		Plan:               rc.Outline,
		AnswerText:         rc.AnswerText,
		LengthMinutes:      g.minutes,
		TotalDays:          len(days),
		PreviousDays:       readyDays,
		PreviousModuleSets: previousModuleSets,
		Chunks:             retrieveForOutline(g.corpus, rc.Outline, *outline, usedChunkIDs, g.adapter),
	})

	if err := g.store.Days().Put(ctx, token, &generated); err != nil {
		return nil, err
	}

	updated, err := g.store.Days().List(ctx, token)
	if err != nil {
		return nil, err
	}
	updated = mergeSuppliedDays(updated, supplied)
	sortDays(updated)
	completed, next := summarize(updated)
	status := StatusPartial
	if completed >= len(updated) {
		status = StatusComplete
	}

	g.log.Info().
		Str("planToken", token).
		Int("day", generated.Day).
		Str("dayType", string(generated.DayType)).
		Int("completed", completed).
		Int("total", len(updated)).
		Msg("day generated")

	return &GenerateNextResult{
		Status:         status,
		GeneratedDay:   &generated,
		TotalDays:      len(updated),
		CompletedDays:  completed,
		NextPendingDay: next,
	}, nil
}

// DayStatusEntry is one day's generation state for polling clients.
type DayStatusEntry struct {
	Day     int             `json:"day"`
	DayType model.DayType   `json:"dayType"`
	Status  model.DayStatus `json:"generationStatus"`
	Title   string          `json:"title,omitempty"`
}

// GenerationStatusResult summarizes a plan's generation progress.
type GenerationStatusResult struct {
	PlanToken      string           `json:"planToken"`
	Days           []DayStatusEntry `json:"days"`
	TotalDays      int              `json:"totalDays"`
	CompletedDays  int              `json:"completedDays"`
	NextPendingDay *int             `json:"nextPendingDay"`
	Complete       bool             `json:"complete"`
}

// GenerationStatus is the read-only companion to GenerateNext.
func (g *GenerationCoordinator) GenerationStatus(ctx context.Context, token, owner string) (*GenerationStatusResult, error) {
	plan, err := g.store.Plans().Get(ctx, token)
	if err != nil {
		return nil, err
	}
	if plan.OwnerSessionKey != owner {
		return nil, &AccessDeniedError{PlanToken: token}
	}

	days, err := g.store.Days().List(ctx, token)
	if err != nil {
		return nil, err
	}
	sortDays(days)
	completed, next := summarize(days)

	out := &GenerationStatusResult{
		PlanToken:      token,
		TotalDays:      len(days),
		CompletedDays:  completed,
		NextPendingDay: next,
		Complete:       next == nil,
	}
	for _, d := range days {
		out.Days = append(out.Days, DayStatusEntry{
			Day:     d.Day,
			DayType: d.DayType,
			Status:  d.Status,
			Title:   d.Title,
		})
	}
	return out, nil
}
