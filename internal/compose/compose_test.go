package compose

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/euangelion/plan-service/internal/corpus"
	"github.com/euangelion/plan-service/internal/model"
)

func chunkOf(id string, st corpus.SourceType, words int) corpus.Chunk {
	content := strings.TrimSpace(strings.Repeat("word ", words))
	return corpus.Chunk{
		ID:         id,
		Source:     "src/" + id + ".md",
		SourceType: st,
		Title:      "Title " + id,
		Content:    content,
		WordCount:  words,
	}
}

func standardParams(chunks []corpus.Chunk) DayParams {
	return DayParams{
		DayNumber:          2,
		TotalDays:          7,
		Chiastic:           model.ChiasticB,
		Pardes:             model.PardesRemez,
		Title:              "Held in the Storm",
		ScriptureReference: "Mark 4:39",
		ScriptureText:      "Peace, be still.",
		Prayer:             "Lord, quiet the storm in me.",
		NextStep:           "Name one fear aloud today.",
		JournalPrompt:      "Where do you feel the storm most?",
		TargetWords:        1500,
		Chunks:             chunks,
	}
}

func TestComposeDayWeavesChunksWithinTolerance(t *testing.T) {
	chunks := []corpus.Chunk{
		chunkOf("c1", corpus.SourceBible, 150),
		chunkOf("c2", corpus.SourceCommentary, 150),
		chunkOf("c3", corpus.SourceCommentary, 150),
		chunkOf("c4", corpus.SourceTheology, 150),
		chunkOf("c5", corpus.SourceLexicon, 150),
	}
	day := ComposeDay(standardParams(chunks))

	assert.Equal(t, model.DayReady, day.Status)
	assert.Equal(t, model.DayStandard, day.DayType)
	assert.Equal(t, model.ChiasticB, day.ChiasticPosition)
	assert.Len(t, day.UsedChunkIDs, 5)
	assert.LessOrEqual(t, day.TotalWords, 1500+1500*15/100)
	assert.Contains(t, day.Reflection, "Mark 4:39")
}

func TestComposeDayStopsBeforeOvershoot(t *testing.T) {
	var chunks []corpus.Chunk
	for i := 0; i < 8; i++ {
		chunks = append(chunks, chunkOf("c"+string(rune('a'+i)), corpus.SourceCommentary, 200))
	}
	p := standardParams(chunks)
	p.TargetWords = MinWordTarget // clamped floor: 1200

	day := ComposeDay(p)
	budget := MinWordTarget + MinWordTarget*15/100
	assert.LessOrEqual(t, day.TotalWords, budget)
	assert.Less(t, len(day.UsedChunkIDs), 8)
}

func TestComposeDaySoftDegradationWhenMaterialShort(t *testing.T) {
	day := ComposeDay(standardParams([]corpus.Chunk{chunkOf("only", corpus.SourceTheology, 50)}))

	assert.Equal(t, model.DayReady, day.Status)
	assert.Equal(t, []string{"only"}, day.UsedChunkIDs)
	assert.Less(t, day.TotalWords, MinWordTarget)
}

func TestComposeDayNoChunks(t *testing.T) {
	day := ComposeDay(standardParams(nil))

	assert.Equal(t, model.DayReady, day.Status)
	assert.Empty(t, day.UsedChunkIDs)
	require.NotNil(t, day.Composition)
	assert.Equal(t, 100, day.Composition.GeneratedPercentage)
}

func TestComposeDayWeaveOrder(t *testing.T) {
	chunks := []corpus.Chunk{
		chunkOf("lex", corpus.SourceLexicon, 60),
		chunkOf("com", corpus.SourceCommentary, 60),
		chunkOf("bib", corpus.SourceBible, 60),
	}
	day := ComposeDay(standardParams(chunks))
	assert.Equal(t, []string{"bib", "com", "lex"}, day.UsedChunkIDs)
}

func TestEndnotesCarryReferenceProvenance(t *testing.T) {
	chunks := []corpus.Chunk{
		chunkOf("c1", corpus.SourceCommentary, 100),
		chunkOf("c2", corpus.SourceTheology, 100),
	}
	day := ComposeDay(standardParams(chunks))

	var refNotes []string
	for _, n := range day.Endnotes {
		if n.Source == "Reference" {
			refNotes = append(refNotes, n.Note)
		}
	}
	assert.ElementsMatch(t, day.UsedChunkIDs, refNotes)
	assert.Equal(t, "Scripture", day.Endnotes[0].Source)
	assert.Equal(t, "Mark 4:39", day.Endnotes[0].Note)
}

func TestReferencedChunkIDsFallsBackToEndnotes(t *testing.T) {
	day := model.PlanDay{
		Endnotes: []model.Endnote{
			{ID: 1, Source: "Scripture", Note: "John 1:1"},
			{ID: 2, Source: "Reference", Note: "ref:a.md:0"},
			{ID: 3, Source: "Reference", Note: "ref:a.md:1"},
		},
	}
	assert.Equal(t, []string{"ref:a.md:0", "ref:a.md:1"}, ReferencedChunkIDs(day))

	day.UsedChunkIDs = []string{"explicit"}
	assert.Equal(t, []string{"explicit"}, ReferencedChunkIDs(day))
}

func TestWordTargetClamping(t *testing.T) {
	assert.Equal(t, MinWordTarget, ClampWordTarget(10))
	assert.Equal(t, MaxWordTarget, ClampWordTarget(100_000))
	assert.Equal(t, 3000, WordTargetFromMinutes(20))
	assert.Equal(t, MinWordTarget, WordTargetFromMinutes(1))
}

func TestComposeSabbathUsesPivotPassage(t *testing.T) {
	prior := []model.PlanDay{
		{Day: 1, DayType: model.DayStandard, Title: "One", ScriptureReference: "Genesis 1:1"},
		{Day: 2, DayType: model.DayStandard, Title: "Two", ScriptureReference: "Exodus 3:14"},
		{Day: 3, DayType: model.DayStandard, Title: "Three", ScriptureReference: "Isaiah 40:31"},
		{Day: 4, DayType: model.DayStandard, Title: "Four", ScriptureReference: "John 15:5"},
	}
	day := ComposeSabbath(6, prior, "Held")

	assert.Equal(t, 6, day.Day)
	assert.Equal(t, model.DaySabbath, day.DayType)
	assert.Equal(t, model.DayReady, day.Status)
	assert.Equal(t, "Isaiah 40:31", day.ScriptureReference)
	assert.Equal(t, model.ChiasticSabbath, day.ChiasticPosition)
	assert.Empty(t, day.UsedChunkIDs)
}

func TestComposeSabbathWithNoPriorDays(t *testing.T) {
	day := ComposeSabbath(6, nil, "Held")
	assert.Equal(t, "Psalm 46:10", day.ScriptureReference)
	assert.Equal(t, model.DayReady, day.Status)
}

func TestComposeReviewListsWeek(t *testing.T) {
	prior := []model.PlanDay{
		{Day: 1, DayType: model.DayStandard, Title: "One", ScriptureReference: "Genesis 1:1"},
		{Day: 2, DayType: model.DayStandard, Title: "Two", ScriptureReference: "Exodus 3:14"},
		{Day: 3, DayType: model.DayStandard, Title: "Three", ScriptureReference: "Isaiah 40:31"},
		{Day: 6, DayType: model.DaySabbath, Title: "Sabbath Rest", ScriptureReference: "Isaiah 40:31"},
	}
	day := ComposeReview(7, prior, "Held")

	assert.Equal(t, 7, day.Day)
	assert.Equal(t, model.DayReview, day.DayType)
	assert.Equal(t, "Exodus 3:14", day.ScriptureReference)
	assert.Contains(t, day.Reflection, "Day 2: Two (Exodus 3:14)")
	assert.NotContains(t, day.Reflection, "Sabbath Rest (")
}
