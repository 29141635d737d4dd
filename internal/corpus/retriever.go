package corpus

import (
	"sort"
	"strings"
)

// DefaultChunkLimit is the retrieval size that supports the composition
// engine's reference-first target.
const DefaultChunkLimit = 20

// RetrievalRequest selects chunks for one day's composition.
type RetrievalRequest struct {
	Themes           []string
	ScriptureAnchors []string
	Topic            string
	ExcludeChunkIDs  []string
	Limit            int
}

// CoverageReport records how well retrieval matched the request.
type CoverageReport struct {
	ThemesHit    []string
	ThemesMissed []string
	ScriptureHit bool
}

// RetrievalResult carries the selected chunks in score order.
type RetrievalResult struct {
	Chunks     []Chunk
	TotalScore float64
	Coverage   CoverageReport
}

type scoredChunk struct {
	chunk Chunk
	score float64
}

// scoreChunk weights theme matches highest, scripture matches above plain
// topic keywords, adds source priority, and breaks ties deterministically
// from the chunk id so identical inputs always rank identically.
func scoreChunk(c Chunk, queryKeywords, scriptureKeywords, themeKeywords []string) float64 {
	var score float64
	for _, kw := range queryKeywords {
		if strings.Contains(c.normalized, kw) {
			score += 2
		}
	}
	for _, kw := range scriptureKeywords {
		if strings.Contains(c.normalized, kw) {
			score += 3
		}
	}
	for _, theme := range themeKeywords {
		if strings.Contains(c.normalized, strings.ToLower(theme)) {
			score += 4
		}
	}
	score += float64(c.Priority)
	if len(c.ID) > 0 {
		score += float64(int(c.ID[len(c.ID)-1])%83) / 1000
	}
	return score
}

// enforceDiversity caps how many chunks any single source file contributes,
// so one large commentary cannot monopolize a day.
func enforceDiversity(scored []scoredChunk, limit, maxPerSource int) []scoredChunk {
	var out []scoredChunk
	countBySource := make(map[string]int)
	for _, entry := range scored {
		if len(out) >= limit {
			break
		}
		if countBySource[entry.chunk.Source] >= maxPerSource {
			continue
		}
		countBySource[entry.chunk.Source]++
		out = append(out, entry)
	}
	return out
}

// Retrieve selects up to req.Limit chunks relevant to the request, excluding
// any id in req.ExcludeChunkIDs. Deterministic given identical inputs and
// corpus state: two-pass keyword scoring then source-diversity enforcement.
func (i *Index) Retrieve(req RetrievalRequest) RetrievalResult {
	limit := req.Limit
	if limit <= 0 {
		limit = DefaultChunkLimit
	}

	if len(i.chunks) == 0 {
		return RetrievalResult{
			Coverage: CoverageReport{ThemesMissed: append([]string(nil), req.Themes...)},
		}
	}

	exclude := make(map[string]bool, len(req.ExcludeChunkIDs))
	for _, id := range req.ExcludeChunkIDs {
		exclude[id] = true
	}

	queryKeywords := ExtractKeywords(req.Topic)
	var scriptureKeywords []string
	for _, ref := range req.ScriptureAnchors {
		cleaned := nonAlnumRx.ReplaceAllString(strings.ToLower(ref), " ")
		for _, w := range strings.Fields(cleaned) {
			if len(w) >= 2 {
				scriptureKeywords = append(scriptureKeywords, w)
			}
		}
	}
	var themeKeywords []string
	for _, t := range req.Themes {
		if len(t) >= 3 {
			themeKeywords = append(themeKeywords, t)
		}
	}

	var scored []scoredChunk
	for _, c := range i.chunks {
		if exclude[c.ID] {
			continue
		}
		s := scoreChunk(c, queryKeywords, scriptureKeywords, themeKeywords)
		if s > 0 {
			scored = append(scored, scoredChunk{chunk: c, score: s})
		}
	}
	sort.SliceStable(scored, func(a, b int) bool { return scored[a].score > scored[b].score })

	maxPerSource := (limit + 4) / 5
	if maxPerSource < 3 {
		maxPerSource = 3
	}
	selected := enforceDiversity(scored, limit, maxPerSource)

	var sb strings.Builder
	for _, s := range selected {
		sb.WriteString(s.chunk.normalized)
		sb.WriteByte(' ')
	}
	allContent := sb.String()

	cov := CoverageReport{}
	for _, t := range themeKeywords {
		if strings.Contains(allContent, strings.ToLower(t)) {
			cov.ThemesHit = append(cov.ThemesHit, t)
		} else {
			cov.ThemesMissed = append(cov.ThemesMissed, t)
		}
	}
	for _, kw := range scriptureKeywords {
		if strings.Contains(allContent, kw) {
			cov.ScriptureHit = true
			break
		}
	}

	result := RetrievalResult{Coverage: cov}
	for _, s := range selected {
		result.Chunks = append(result.Chunks, s.chunk)
		result.TotalScore += s.score
	}
	return result
}
