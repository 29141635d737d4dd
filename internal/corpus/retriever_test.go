package corpus

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testChunk(id, source string, st SourceType, content string) Chunk {
	return Chunk{
		ID:         id,
		Source:     source,
		SourceType: st,
		Title:      source,
		Content:    content,
	}
}

func testIndex() *Index {
	return NewFromChunks([]Chunk{
		testChunk("c1", "commentaries/romans.md", SourceCommentary,
			"Paul writes to the Romans about grace and peace through faith in Christ."),
		testChunk("c2", "commentaries/romans.md", SourceCommentary,
			"The peace of God guards the heart; anxiety yields to trust."),
		testChunk("c3", "theology/rest.md", SourceTheology,
			"Sabbath rest is woven into creation; peace is its fruit."),
		testChunk("c4", "bibles/psalms.md", SourceBible,
			"Psalm 46:10 Be still and know that I am God."),
		testChunk("c5", "lexicons/greek.md", SourceLexicon,
			"Eirene: the Greek word for peace, wholeness, tranquility."),
	})
}

func TestRetrieveIsDeterministic(t *testing.T) {
	idx := testIndex()
	req := RetrievalRequest{
		Themes:           []string{"peace"},
		ScriptureAnchors: []string{"Psalm 46:10"},
		Topic:            "finding peace in anxious seasons",
		Limit:            3,
	}

	first := idx.Retrieve(req)
	second := idx.Retrieve(req)

	require.Equal(t, len(first.Chunks), len(second.Chunks))
	for i := range first.Chunks {
		assert.Equal(t, first.Chunks[i].ID, second.Chunks[i].ID)
	}
}

func TestRetrieveHonorsExclusions(t *testing.T) {
	idx := testIndex()
	req := RetrievalRequest{Themes: []string{"peace"}, Topic: "peace", Limit: 10}

	all := idx.Retrieve(req)
	require.NotEmpty(t, all.Chunks)

	req.ExcludeChunkIDs = []string{all.Chunks[0].ID}
	filtered := idx.Retrieve(req)
	for _, c := range filtered.Chunks {
		assert.NotEqual(t, all.Chunks[0].ID, c.ID)
	}
}

func TestRetrieveEnforcesSourceDiversity(t *testing.T) {
	var chunks []Chunk
	for i := 0; i < 10; i++ {
		chunks = append(chunks, testChunk(
			"big-"+string(rune('a'+i)), "commentaries/big.md", SourceCommentary,
			"peace peace peace grace mercy"))
	}
	chunks = append(chunks, testChunk("other", "theology/other.md", SourceTheology, "peace and quietness"))
	idx := NewFromChunks(chunks)

	res := idx.Retrieve(RetrievalRequest{Themes: []string{"peace"}, Topic: "peace", Limit: 5})

	bySource := map[string]int{}
	for _, c := range res.Chunks {
		bySource[c.Source]++
	}
	assert.LessOrEqual(t, bySource["commentaries/big.md"], 3)
	assert.Equal(t, 1, bySource["theology/other.md"])
}

func TestRetrieveEmptyCorpus(t *testing.T) {
	idx := NewFromChunks(nil)
	res := idx.Retrieve(RetrievalRequest{Themes: []string{"peace"}, Topic: "peace"})
	assert.Empty(t, res.Chunks)
	assert.Equal(t, []string{"peace"}, res.Coverage.ThemesMissed)
}

func TestRetrieveCoverageReport(t *testing.T) {
	idx := testIndex()
	res := idx.Retrieve(RetrievalRequest{
		Themes:           []string{"peace", "zebra"},
		ScriptureAnchors: []string{"Psalm 46"},
		Topic:            "peace",
		Limit:            5,
	})
	assert.Contains(t, res.Coverage.ThemesHit, "peace")
	assert.Contains(t, res.Coverage.ThemesMissed, "zebra")
	assert.True(t, res.Coverage.ScriptureHit)
}

func TestChunkTextSplitsAtHeadings(t *testing.T) {
	paragraph := strings.Repeat("word ", 60)
	text := "# First Section\n" + paragraph + "\n\n# Second Section\n" + paragraph

	chunks := ChunkText(text, "theology/notes.md", SourceTheology, ChunkingOptions{
		MinWords: 40, MaxWords: 800, TargetWords: 400,
	})

	require.Len(t, chunks, 2)
	assert.Equal(t, "ref:theology/notes.md:0", chunks[0].ID)
	assert.Equal(t, "Second Section", chunks[1].Title)
	assert.Equal(t, SourceTheology, chunks[0].SourceType)
	assert.Equal(t, 2, chunks[0].Priority)
}

func TestExtractKeywordsFiltersStopWords(t *testing.T) {
	kws := ExtractKeywords("These words should carry grace through every trial")
	assert.Contains(t, kws, "grace")
	assert.Contains(t, kws, "trial")
	assert.NotContains(t, kws, "these")
	assert.NotContains(t, kws, "through")
}

func TestExtractScriptureRefs(t *testing.T) {
	refs := ExtractScriptureRefs("Compare Romans 8:28 with Psalm 46:10 and Romans 8:28 again.")
	assert.Len(t, refs, 2)
	assert.Contains(t, refs, "Romans 8:28")
	assert.Contains(t, refs, "Psalm 46:10")
}

func TestDetectSourceType(t *testing.T) {
	assert.Equal(t, SourceCommentary, DetectSourceType("content/reference/commentaries/romans.md"))
	assert.Equal(t, SourceBible, DetectSourceType("content/reference/bibles/web.txt"))
	assert.Equal(t, SourceLexicon, DetectSourceType("content/reference/lexicons/greek.md"))
	assert.Equal(t, SourceTheology, DetectSourceType("content/reference/misc/essays.md"))
}
