package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/euangelion/plan-service/internal/corpus"
	"github.com/euangelion/plan-service/internal/generative"
	"github.com/euangelion/plan-service/internal/locks"
	"github.com/euangelion/plan-service/internal/model"
	"github.com/euangelion/plan-service/internal/store"
	"github.com/euangelion/plan-service/internal/store/memory"
)

const testOwner = "session-abc"

func testOutline() model.PlanOutline {
	outline := model.PlanOutline{
		ID:              "run-1",
		Angle:           "peace under pressure",
		Title:           "Held in the Storm",
		Question:        "Where is God when the storm does not stop?",
		ScriptureAnchor: "Mark 4:39",
		ReferenceSeeds:  []string{"peace", "rest"},
	}
	titles := []string{"The Storm Named", "Deeper Waters", "The Word That Stills", "Walking on Water", "After the Calm"}
	for i := 0; i < 5; i++ {
		outline.DayOutlines = append(outline.DayOutlines, model.DayOutline{
			Day:                i + 1,
			DayType:            model.DayStandard,
			ChiasticPosition:   model.WeekChiastic[i],
			Title:              titles[i],
			ScriptureReference: fmt.Sprintf("Mark 4:%d", 35+i),
			TopicFocus:         "peace in the storm",
			PardesLevel:        model.WeekPardes[i],
		})
	}
	outline.DayOutlines = append(outline.DayOutlines,
		model.DayOutline{Day: 6, DayType: model.DaySabbath, ChiasticPosition: model.ChiasticSabbath, Title: "Sabbath Rest", PardesLevel: model.PardesSabbath},
		model.DayOutline{Day: 7, DayType: model.DayReview, ChiasticPosition: model.ChiasticReview, Title: "Week in Review", PardesLevel: model.PardesReview},
	)
	return outline
}

func testCorpus(n int) *corpus.Index {
	var chunks []corpus.Chunk
	for i := 0; i < n; i++ {
		chunks = append(chunks, corpus.Chunk{
			ID:         fmt.Sprintf("ref:src%02d.md:0", i),
			Source:     fmt.Sprintf("commentaries/src%02d.md", i),
			SourceType: corpus.SourceCommentary,
			Title:      fmt.Sprintf("Commentary %02d", i),
			Content:    "The peace of God stills the storm and steadies the heart at rest.",
			WordCount:  12,
		})
	}
	return corpus.NewFromChunks(chunks)
}

type env struct {
	store   store.Store
	locks   *locks.Store
	coord   *GenerationCoordinator
	plans   *PlanService
	adapter *generative.Adapter
}

func newEnv(t *testing.T, provider generative.TextProvider, cfg generative.Config) *env {
	t.Helper()
	st := memory.New()
	lk := locks.NewStore(time.Minute)
	idx := testCorpus(30)
	adapter := generative.New(provider, cfg, zerolog.Nop())
	return &env{
		store:   st,
		locks:   lk,
		coord:   NewGenerationCoordinator(st, lk, idx, adapter, DefaultLengthMinutes, zerolog.Nop()),
		plans:   NewPlanService(st, adapter, idx, DefaultLengthMinutes, zerolog.Nop()),
		adapter: adapter,
	}
}

func createTestPlan(t *testing.T, e *env) *model.PlanInstance {
	t.Helper()
	res, err := e.plans.CreatePlan(context.Background(), CreatePlanRequest{
		OwnerSessionKey: testOwner,
		SeriesKey:       "peace",
		PlanType:        model.PlanGenerative,
		Timezone:        "UTC",
		Outline:         testOutline(),
		AnswerText:      "The storms in my life will not quiet down.",
	})
	require.NoError(t, err)
	return res.Plan
}

func TestCreatePlanComposesFirstDay(t *testing.T) {
	e := newEnv(t, nil, generative.Config{})
	plan := createTestPlan(t, e)

	days, err := e.store.Days().List(context.Background(), plan.Token)
	require.NoError(t, err)
	require.Len(t, days, 7)

	assert.Equal(t, model.DayReady, days[0].Status)
	assert.NotEmpty(t, days[0].Reflection)
	for _, d := range days[1:] {
		assert.Equal(t, model.DayPending, d.Status)
	}
}

func TestGenerateNextSequentialToCompletion(t *testing.T) {
	e := newEnv(t, nil, generative.Config{})
	plan := createTestPlan(t, e)
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		res, err := e.coord.GenerateNext(ctx, plan.Token, testOwner, nil)
		require.NoError(t, err)
		require.NotNil(t, res.GeneratedDay)
		assert.Equal(t, i+2, res.GeneratedDay.Day)
		assert.Equal(t, model.DayReady, res.GeneratedDay.Status)
		if i < 5 {
			assert.Equal(t, StatusPartial, res.Status)
			require.NotNil(t, res.NextPendingDay)
			assert.Equal(t, i+3, *res.NextPendingDay)
		} else {
			assert.Equal(t, StatusComplete, res.Status)
			assert.Nil(t, res.NextPendingDay)
		}
	}

	// One more call on a complete plan.
	res, err := e.coord.GenerateNext(ctx, plan.Token, testOwner, nil)
	require.NoError(t, err)
	assert.Equal(t, StatusComplete, res.Status)
	assert.Equal(t, 7, res.CompletedDays)
	assert.Nil(t, res.GeneratedDay)
}

func TestNoChunkReuseAcrossPlan(t *testing.T) {
	e := newEnv(t, nil, generative.Config{})
	plan := createTestPlan(t, e)
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		_, err := e.coord.GenerateNext(ctx, plan.Token, testOwner, nil)
		require.NoError(t, err)
	}

	days, err := e.store.Days().List(ctx, plan.Token)
	require.NoError(t, err)

	seen := map[string]int{}
	for _, d := range days {
		for _, id := range d.UsedChunkIDs {
			seen[id]++
			assert.Equalf(t, 1, seen[id], "chunk %s woven into more than one day", id)
		}
	}
	assert.NotEmpty(t, seen)
}

func TestGenerateNextOwnership(t *testing.T) {
	e := newEnv(t, nil, generative.Config{})
	plan := createTestPlan(t, e)

	_, err := e.coord.GenerateNext(context.Background(), plan.Token, "someone-else", nil)
	require.Error(t, err)
	assert.True(t, IsAccessDeniedError(err))

	_, err = e.coord.GenerateNext(context.Background(), "plan_missing", testOwner, nil)
	assert.True(t, errors.Is(err, model.ErrNotFound))
}

type slowProvider struct {
	delay  time.Duration
	output string
}

func (p *slowProvider) Generate(ctx context.Context, req generative.Request) (string, error) {
	select {
	case <-time.After(p.delay):
	case <-ctx.Done():
		return "", ctx.Err()
	}
	return p.output, nil
}

const providerDayJSON = `{"title":"Stilled","scriptureReference":"Mark 4:39","scriptureText":"Peace, be still.","reflection":"The word that stills the storm still speaks.","prayer":"Quiet me.","nextStep":"Sit in silence for two minutes.","journalPrompt":"What storm needs the word today?","modules":[{"type":"scripture","heading":"READ","content":{}},{"type":"reflection","heading":"REFLECT","content":{}},{"type":"prayer","heading":"PRAY","content":{}}],"totalWords":800,"sourcesUsed":[]}`

func TestConcurrentGenerateNextOneWinnerOneAdvisory(t *testing.T) {
	e := newEnv(t, &slowProvider{delay: 150 * time.Millisecond, output: providerDayJSON}, generative.Config{Enabled: true})
	plan := createTestPlan(t, e)
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make([]*GenerateNextResult, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i == 1 {
				// Let the first caller take the lock.
				time.Sleep(30 * time.Millisecond)
			}
			results[i], errs[i] = e.coord.GenerateNext(ctx, plan.Token, testOwner, nil)
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	var advisory, generated int
	for _, r := range results {
		switch r.Status {
		case StatusAlreadyGenerating:
			advisory++
			assert.Nil(t, r.GeneratedDay)
		default:
			generated++
			require.NotNil(t, r.GeneratedDay)
			assert.Equal(t, model.DayReady, r.GeneratedDay.Status)
			assert.Equal(t, 2, r.GeneratedDay.Day)
		}
	}
	assert.Equal(t, 1, advisory)
	assert.Equal(t, 1, generated)

	// The advisory response left the day untouched: exactly one day 2 exists
	// and it is ready.
	d, err := e.store.Days().Get(ctx, plan.Token, 2)
	require.NoError(t, err)
	assert.Equal(t, model.DayReady, d.Status)
}

type failingProvider struct{}

func (failingProvider) Generate(ctx context.Context, req generative.Request) (string, error) {
	return "", errors.New("provider unavailable")
}

func TestProviderFailureStillYieldsReadyDay(t *testing.T) {
	e := newEnv(t, failingProvider{}, generative.Config{Enabled: true, GenerativeClosingDays: true})
	plan := createTestPlan(t, e)
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		res, err := e.coord.GenerateNext(ctx, plan.Token, testOwner, nil)
		require.NoError(t, err)
		require.NotNil(t, res.GeneratedDay)
		assert.Equal(t, model.DayReady, res.GeneratedDay.Status)
		assert.NotEmpty(t, res.GeneratedDay.Reflection)
	}

	status, err := e.coord.GenerationStatus(ctx, plan.Token, testOwner)
	require.NoError(t, err)
	assert.True(t, status.Complete)
	assert.Equal(t, 7, status.CompletedDays)
}

func TestOutlineMissingAndCallerFallback(t *testing.T) {
	e := newEnv(t, nil, generative.Config{})
	ctx := context.Background()

	// A plan whose run record never made it to the store.
	_, err := e.store.Plans().Create(ctx, &model.PlanInstance{
		Token:           "plan_orphan",
		OwnerSessionKey: testOwner,
		AuditRunID:      "run-lost",
		PlanType:        model.PlanGenerative,
	})
	require.NoError(t, err)
	require.NoError(t, e.store.Days().Put(ctx, "plan_orphan", &model.PlanDay{
		Day: 1, DayType: model.DayStandard, Status: model.DayPending,
	}))

	_, err = e.coord.GenerateNext(ctx, "plan_orphan", testOwner, nil)
	require.Error(t, err)
	assert.True(t, IsOutlineMissingError(err))

	// A caller still holding the outline bridges the gap.
	rc := &model.RunContext{AuditRunID: "run-lost", Outline: testOutline(), AnswerText: "still here"}
	res, err := e.coord.GenerateNext(ctx, "plan_orphan", testOwner, rc)
	require.NoError(t, err)
	require.NotNil(t, res.GeneratedDay)
	assert.Equal(t, 1, res.GeneratedDay.Day)
	assert.Equal(t, model.DayReady, res.GeneratedDay.Status)

	// The supplied outline fills the day gaps the store never had.
	assert.Equal(t, StatusPartial, res.Status)
	assert.Equal(t, 7, res.TotalDays)
	require.NotNil(t, res.NextPendingDay)
	assert.Equal(t, 2, *res.NextPendingDay)
}

// notPendingDays forces the cross-instance re-check to report the day as
// already generated elsewhere.
type notPendingDays struct {
	store.Days
}

func (d notPendingDays) IsDayPending(ctx context.Context, token string, day int) (bool, error) {
	return false, nil
}

type recheckStore struct {
	store.Store
}

func (s recheckStore) Days() store.Days { return notPendingDays{s.Store.Days()} }

func TestCrossInstanceRecheckSkipsGeneration(t *testing.T) {
	base := memory.New()
	lk := locks.NewStore(time.Minute)
	idx := testCorpus(10)
	adapter := generative.New(nil, generative.Config{}, zerolog.Nop())
	plans := NewPlanService(base, adapter, idx, DefaultLengthMinutes, zerolog.Nop())

	res, err := plans.CreatePlan(context.Background(), CreatePlanRequest{
		OwnerSessionKey: testOwner,
		SeriesKey:       "peace",
		Outline:         testOutline(),
	})
	require.NoError(t, err)

	coord := NewGenerationCoordinator(recheckStore{base}, lk, idx, adapter, DefaultLengthMinutes, zerolog.Nop())
	out, err := coord.GenerateNext(context.Background(), res.Plan.Token, testOwner, nil)
	require.NoError(t, err)

	// The re-check said the day is handled elsewhere, so nothing was
	// composed locally: the stored day is still the pending skeleton.
	assert.Equal(t, StatusPartial, out.Status)
	d, err := base.Days().Get(context.Background(), res.Plan.Token, 2)
	require.NoError(t, err)
	assert.Equal(t, model.DayPending, d.Status)
	assert.Empty(t, d.Reflection)
}

func TestGenerationStatus(t *testing.T) {
	e := newEnv(t, nil, generative.Config{})
	plan := createTestPlan(t, e)
	ctx := context.Background()

	status, err := e.coord.GenerationStatus(ctx, plan.Token, testOwner)
	require.NoError(t, err)
	assert.Equal(t, 7, status.TotalDays)
	assert.Equal(t, 1, status.CompletedDays)
	require.NotNil(t, status.NextPendingDay)
	assert.Equal(t, 2, *status.NextPendingDay)
	assert.False(t, status.Complete)

	_, err = e.coord.GenerationStatus(ctx, plan.Token, "intruder")
	assert.True(t, IsAccessDeniedError(err))
}
