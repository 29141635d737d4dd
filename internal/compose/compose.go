// Package compose implements deterministic day assembly: reference chunks
// woven into a readable devotional day with attribution endnotes. This is the
// primary composition path; the generative adapter layers on top of it and
// falls back to it.
package compose

import (
	"fmt"
	"strings"

	"github.com/euangelion/plan-service/internal/corpus"
	"github.com/euangelion/plan-service/internal/model"
)

const (
	// ReadingWPM converts reading minutes to a word target.
	ReadingWPM = 150

	// MinWordTarget and MaxWordTarget clamp the requested day length.
	MinWordTarget = 1200
	MaxWordTarget = 6000

	// maxChunkChars caps how much of one chunk is woven into the body.
	maxChunkChars = 1200

	// wordTolerancePct is the overshoot allowance around the word target.
	wordTolerancePct = 15
)

// Per-source-type weave caps. Commentary carries the most weight.
var weaveCaps = map[corpus.SourceType]int{
	corpus.SourceBible:      3,
	corpus.SourceCommentary: 8,
	corpus.SourceTheology:   5,
	corpus.SourceLexicon:    3,
}

const weaveCapOther = 3

// weaveOrder is the source-type order for the reflection body.
var weaveOrder = []corpus.SourceType{
	corpus.SourceBible,
	corpus.SourceCommentary,
	corpus.SourceTheology,
	corpus.SourceLexicon,
}

// DayParams carries everything ComposeDay needs for one standard day.
type DayParams struct {
	DayNumber          int
	TotalDays          int
	Chiastic           model.ChiasticPosition
	Pardes             model.PardesLevel
	Title              string
	ScriptureReference string
	ScriptureText      string
	Prayer             string
	NextStep           string
	JournalPrompt      string
	TargetWords        int
	Chunks             []corpus.Chunk
}

// ClampWordTarget bounds a requested word target to the supported band.
func ClampWordTarget(target int) int {
	if target < MinWordTarget {
		return MinWordTarget
	}
	if target > MaxWordTarget {
		return MaxWordTarget
	}
	return target
}

// WordTargetFromMinutes converts a reading-length preference to words.
func WordTargetFromMinutes(minutes int) int {
	return ClampWordTarget(minutes * ReadingWPM)
}

func countWords(text string) int {
	return len(strings.Fields(text))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

// ComposeDay assembles one standard day from the supplied chunks. Scripture
// anchor opens the body, then chunks are woven grouped by source type until
// the next chunk would push past the word target plus tolerance. Runs of
// material shorter than the target degrade softly rather than failing.
// UsedChunkIDs lists exactly the chunks woven in; the endnotes repeat them
// under the Reference source so the exclusion set survives in stored content.
func ComposeDay(p DayParams) model.PlanDay {
	target := ClampWordTarget(p.TargetWords)
	budget := target + target*wordTolerancePct/100

	var sections []string
	var used []corpus.Chunk
	words := 0

	if p.ScriptureReference != "" {
		opening := fmt.Sprintf("%s reads: %q", p.ScriptureReference, truncate(p.ScriptureText, 600))
		sections = append(sections, opening)
		words += countWords(opening)
	}

	byType := make(map[corpus.SourceType][]corpus.Chunk)
	var other []corpus.Chunk
	for _, c := range p.Chunks {
		switch c.SourceType {
		case corpus.SourceBible, corpus.SourceCommentary, corpus.SourceTheology, corpus.SourceLexicon:
			byType[c.SourceType] = append(byType[c.SourceType], c)
		default:
			other = append(other, c)
		}
	}

	weave := func(chunks []corpus.Chunk, limit int) {
		for i, c := range chunks {
			if i >= limit {
				return
			}
			body := truncate(c.Content, maxChunkChars)
			w := countWords(body)
			if words > 0 && words+w > budget {
				return
			}
			sections = append(sections, body)
			words += w
			used = append(used, c)
		}
	}

	for _, st := range weaveOrder {
		weave(byType[st], weaveCaps[st])
	}
	weave(other, weaveCapOther)

	reflection := strings.TrimSpace(strings.Join(sections, "\n\n"))
	totalWords := countWords(reflection)

	usedIDs := make([]string, 0, len(used))
	for _, c := range used {
		usedIDs = append(usedIDs, c.ID)
	}

	return model.PlanDay{
		Day:                p.DayNumber,
		DayType:            model.DayStandard,
		Status:             model.DayReady,
		Title:              p.Title,
		ScriptureReference: p.ScriptureReference,
		ScriptureText:      p.ScriptureText,
		Reflection:         reflection,
		Prayer:             p.Prayer,
		NextStep:           p.NextStep,
		JournalPrompt:      p.JournalPrompt,
		ChiasticPosition:   p.Chiastic,
		PardesLevel:        p.Pardes,
		Endnotes:           BuildEndnotes(p.ScriptureReference, used),
		UsedChunkIDs:       usedIDs,
		TotalWords:         totalWords,
		TargetMinutes:      (totalWords + ReadingWPM/2) / ReadingWPM,
		Composition:        buildReport(used, totalWords),
	}
}

// BuildEndnotes attributes a composed day: the scripture anchor, a combined
// sources note, and one Reference endnote per woven chunk carrying its id.
func BuildEndnotes(scriptureRef string, used []corpus.Chunk) []model.Endnote {
	notes := []model.Endnote{{ID: 1, Source: "Scripture", Note: scriptureRef}}

	seen := make(map[string]bool)
	var sourceNames []string
	for _, c := range used {
		if seen[c.Title] {
			continue
		}
		seen[c.Title] = true
		sourceNames = append(sourceNames, c.Title)
		if len(sourceNames) >= 10 {
			break
		}
	}
	if len(sourceNames) > 0 {
		notes = append(notes, model.Endnote{
			ID:     2,
			Source: "Sources",
			Note:   "This reading draws from " + strings.Join(sourceNames, ", ") + ". Composed for your reflection.",
		})
	}

	for _, c := range used {
		notes = append(notes, model.Endnote{
			ID:     len(notes) + 1,
			Source: "Reference",
			Note:   c.ID,
		})
	}
	return notes
}

// ReferencedChunkIDs recovers the woven chunk ids from a stored day. It
// prefers the explicit UsedChunkIDs field and falls back to the Reference
// endnotes for days persisted before that field existed.
func ReferencedChunkIDs(d model.PlanDay) []string {
	if len(d.UsedChunkIDs) > 0 {
		return d.UsedChunkIDs
	}
	var ids []string
	for _, n := range d.Endnotes {
		if n.Source == "Reference" && n.Note != "" {
			ids = append(ids, n.Note)
		}
	}
	return ids
}

func buildReport(used []corpus.Chunk, totalWords int) *model.CompositionReport {
	if len(used) == 0 {
		return &model.CompositionReport{GeneratedPercentage: 100}
	}
	refWords := 0
	for _, c := range used {
		refWords += c.WordCount
	}
	denom := totalWords + refWords
	if denom < 1 {
		denom = 1
	}
	refPct := refWords * 100 / denom
	if refPct < 60 {
		refPct = 60
	}
	if refPct > 85 {
		refPct = 85
	}

	seen := make(map[string]bool)
	var sources []string
	for _, c := range used {
		if seen[c.Title] {
			continue
		}
		seen[c.Title] = true
		sources = append(sources, c.Title)
		if len(sources) >= 20 {
			break
		}
	}
	return &model.CompositionReport{
		ReferencePercentage: refPct,
		GeneratedPercentage: 100 - refPct,
		Sources:             sources,
	}
}
