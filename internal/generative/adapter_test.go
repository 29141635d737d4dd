package generative

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/euangelion/plan-service/internal/corpus"
	"github.com/euangelion/plan-service/internal/model"
)

type fakeProvider struct {
	output string
	err    error
	calls  int
}

func (f *fakeProvider) Generate(ctx context.Context, req Request) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.output, nil
}

const goodDayJSON = `{
  "title": "Anchored in the Deep",
  "scriptureReference": "Hebrews 6:19",
  "scriptureText": "We have this hope as an anchor for the soul.",
  "reflection": "Hope holds when nothing else does. The anchor does not remove the storm; it holds the vessel through it.",
  "prayer": "Lord, hold me fast.",
  "nextStep": "Write the word hope somewhere you will see it today.",
  "journalPrompt": "Where does your hope actually rest?",
  "modules": [
    {"type": "scripture", "heading": "TODAY'S READING", "content": {"reference": "Hebrews 6:19"}},
    {"type": "teaching", "heading": "THE ANCHOR", "content": {"text": "An anchor image from maritime life."}},
    {"type": "prayer", "heading": "PRAY", "content": {"text": "Lord, hold me fast."}}
  ],
  "totalWords": 900,
  "sourcesUsed": ["Matthew Henry on Hebrews"]
}`

func standardRequest() DayRequest {
	return DayRequest{
		Outline: model.DayOutline{
			Day:                2,
			DayType:            model.DayStandard,
			ChiasticPosition:   model.ChiasticB,
			Title:              "Anchored",
			ScriptureReference: "Hebrews 6:19",
			TopicFocus:         "hope as anchor",
			PardesLevel:        model.PardesRemez,
		},
		Plan:          model.PlanOutline{Title: "Hope That Holds", Angle: "hope under pressure"},
		AnswerText:    "I feel unmoored lately.",
		LengthMinutes: 15,
		TotalDays:     7,
		Chunks: []corpus.Chunk{
			{ID: "ref:a.md:0", Source: "a.md", SourceType: corpus.SourceCommentary,
				Title: "Matthew Henry on Hebrews", Content: "The anchor of the soul holds.", WordCount: 120},
		},
	}
}

func TestGenerateDayUsesProviderOutput(t *testing.T) {
	p := &fakeProvider{output: goodDayJSON}
	a := New(p, Config{Enabled: true}, zerolog.Nop())

	day := a.GenerateDay(context.Background(), standardRequest())

	assert.Equal(t, 1, p.calls)
	assert.Equal(t, model.DayReady, day.Status)
	assert.Equal(t, "Anchored in the Deep", day.Title)
	assert.Equal(t, model.ChiasticB, day.ChiasticPosition)
	assert.Equal(t, []string{"ref:a.md:0"}, day.UsedChunkIDs)
	require.NotEmpty(t, day.Modules)
	assert.Equal(t, model.ModuleScripture, day.Modules[0].Type)
}

func TestGenerateDayFallsBackOnProviderError(t *testing.T) {
	p := &fakeProvider{err: errors.New("connection refused")}
	a := New(p, Config{Enabled: true}, zerolog.Nop())

	day := a.GenerateDay(context.Background(), standardRequest())

	assert.Equal(t, model.DayReady, day.Status)
	assert.Equal(t, "Anchored", day.Title)
	assert.Equal(t, []string{"ref:a.md:0"}, day.UsedChunkIDs)
	assert.Contains(t, day.Reflection, "The anchor of the soul holds.")
}

func TestGenerateDayFallsBackOnUnparseableOutput(t *testing.T) {
	p := &fakeProvider{output: "I'm sorry, I can't produce JSON today."}
	a := New(p, Config{Enabled: true}, zerolog.Nop())

	day := a.GenerateDay(context.Background(), standardRequest())

	assert.Equal(t, model.DayReady, day.Status)
	assert.Equal(t, "Anchored", day.Title)
}

func TestGenerateDayDisabledSkipsProvider(t *testing.T) {
	p := &fakeProvider{output: goodDayJSON}
	a := New(p, Config{Enabled: false}, zerolog.Nop())

	day := a.GenerateDay(context.Background(), standardRequest())

	assert.Zero(t, p.calls)
	assert.Equal(t, model.DayReady, day.Status)
}

func TestGenerateSabbathDeterministicByDefault(t *testing.T) {
	p := &fakeProvider{output: goodDayJSON}
	a := New(p, Config{Enabled: true}, zerolog.Nop())

	req := standardRequest()
	req.Outline.Day = 6
	req.Outline.DayType = model.DaySabbath
	req.PreviousDays = []model.PlanDay{
		{Day: 1, DayType: model.DayStandard, Title: "One", ScriptureReference: "Genesis 1:1"},
	}

	day := a.GenerateDay(context.Background(), req)

	assert.Zero(t, p.calls)
	assert.Equal(t, model.DaySabbath, day.DayType)
	assert.Equal(t, "Sabbath Rest", day.Title)
}

func TestGenerateClosingDaysWithFlag(t *testing.T) {
	p := &fakeProvider{output: goodDayJSON}
	a := New(p, Config{Enabled: true, GenerativeClosingDays: true}, zerolog.Nop())

	req := standardRequest()
	req.Outline.Day = 7
	req.Outline.DayType = model.DayReview

	day := a.GenerateDay(context.Background(), req)

	assert.Equal(t, 1, p.calls)
	assert.Equal(t, model.DayReview, day.DayType)
	assert.Equal(t, model.ChiasticReview, day.ChiasticPosition)
	assert.Equal(t, "Anchored in the Deep", day.Title)
}

func TestParseDayStripsFencesAndValidatesModules(t *testing.T) {
	fenced := "```json\n" + `{"title":"T","scriptureReference":"John 1:1","scriptureText":"In the beginning","reflection":"body","prayer":"p","nextStep":"n","journalPrompt":"j","modules":[{"type":"teaching","heading":"H","content":{"text":"t"}},{"type":"nonsense","heading":"X","content":{}}],"totalWords":100}` + "\n```"

	parsed, ok := parseDay(fenced)
	require.True(t, ok)
	assert.Equal(t, "T", parsed.Title)

	var types []model.ModuleType
	for _, m := range parsed.Modules {
		types = append(types, m.Type)
	}
	assert.NotContains(t, types, model.ModuleType("nonsense"))
	assert.Contains(t, types, model.ModuleScripture)
	assert.True(t, containsAnchor(types))
}

func containsAnchor(types []model.ModuleType) bool {
	for _, t := range types {
		if t == model.ModuleReflection || t == model.ModulePrayer {
			return true
		}
	}
	return false
}

func TestParseDayRejectsIncomplete(t *testing.T) {
	_, ok := parseDay(`{"title":"T","scriptureReference":"John 1:1"}`)
	assert.False(t, ok)

	_, ok = parseDay("")
	assert.False(t, ok)

	_, ok = parseDay("not json at all")
	assert.False(t, ok)
}

func TestModuleBudgetScalesWithLength(t *testing.T) {
	assert.Equal(t, minModules, moduleBudget(wordTargetFromMinutes(5)))
	assert.Equal(t, 6, moduleBudget(wordTargetFromMinutes(30)))
	assert.Equal(t, maxModules, moduleBudget(wordTargetFromMinutes(60)))
}
