package generative

import (
	"fmt"
	"strings"

	"github.com/euangelion/plan-service/internal/corpus"
	"github.com/euangelion/plan-service/internal/model"
)

const (
	readingWPM = 150

	minModules = 3
	maxModules = 10

	// maxChunkChars caps per-chunk reference context in the prompt.
	maxChunkChars = 1200
)

func wordTargetFromMinutes(minutes int) int {
	if minutes < 5 {
		minutes = 5
	}
	if minutes > 60 {
		minutes = 60
	}
	return minutes * readingWPM
}

func moduleBudget(wordTarget int) int {
	b := wordTarget / 750
	if b < minModules {
		b = minModules
	}
	if b > maxModules {
		b = maxModules
	}
	return b
}

func maxOutputTokens(wordTarget int) int {
	t := wordTarget * 3 / 2
	if t < 1500 {
		t = 1500
	}
	if t > 8000 {
		t = 8000
	}
	return t
}

func buildStandardSystemPrompt(wordTarget, budget int, pardes model.PardesLevel, chiastic model.ChiasticPosition, previousModuleSets [][]model.ModuleType) string {
	var previousNote string
	if len(previousModuleSets) > 0 {
		var sets []string
		for i, set := range previousModuleSets {
			var names []string
			for _, m := range set {
				names = append(names, string(m))
			}
			sets = append(sets, fmt.Sprintf("D%d:[%s]", i+1, strings.Join(names, ",")))
		}
		previousNote = "\nPrevious days' modules (vary yours): " + strings.Join(sets, " ")
	}

	return fmt.Sprintf(`You are a devotional writer for a Christian devotional service.

VOICE: 60%% warm, 40%% authoritative. No exclamation marks. No cliches. Honest about difficulty. Thoughtful pastor who reads widely.

COMPOSITION: 80%% from provided reference material (quote, paraphrase, build upon). 20%% generated bridges. Every claim grounded in Scripture or references.

THEOLOGY: Nicene orthodoxy baseline. All traditions represented. Scripture primary. Acknowledge uncertainty.

PaRDeS: %s (peshat=literal, remez=allegory, derash=application, sod=contemplative, integrated=all four)

CHIASTIC: %s (A=tension, B=complexity, C=pivot/revelation, B'=application, A'=resolution)

LENGTH: ~%d words. MODULES: Pick %d from: scripture,teaching,vocab,story,insight,bridge,reflection,comprehension,takeaway,prayer,profile,resource
Must include 'scripture' + 'reflection' or 'prayer'. Vary across week.%s

RULES: Real Scripture refs only. Accurate quotes and attribution. Correct Hebrew/Greek. Verifiable history.

STRICT JSON only:
{"title":string,"scriptureReference":string,"scriptureText":"1-3 verses","reflection":"multi-paragraph","prayer":string,"nextStep":string,"journalPrompt":string,"modules":[{"type":string,"heading":string,"content":{}}],"totalWords":number,"sourcesUsed":[string]}`,
		pardes, chiastic, wordTarget, budget, previousNote)
}

func buildSabbathSystemPrompt(wordTarget int) string {
	return fmt.Sprintf(`You are a devotional writer. Write a Sabbath rest and review day.

This is the rest day of the plan. NO new teaching. Instead:
- Summarize key insights from the prior days
- Guided review questions tied to the reader's original reflection
- Rest practices and contemplative exercises
- Lighter modules: scripture callback, reflection, prayer

VOICE: Gentle, restful, inviting stillness. No urgency.
TARGET LENGTH: ~%d words

Return STRICT JSON only:
{"title":string,"scriptureReference":"callback to a key passage","scriptureText":string,"reflection":string,"prayer":string,"nextStep":string,"journalPrompt":string,"modules":[{"type":string,"heading":string,"content":{}}],"totalWords":number}`, wordTarget)
}

func buildReviewSystemPrompt(wordTarget int) string {
	return fmt.Sprintf(`You are a devotional writer. Write a Week Review and Discernment day.

This is the closing day of the plan. Purpose:
- Brief week summary and integration
- 2-3 suggestions for what comes next
- Forward-looking discernment prompt

VOICE: Encouraging, forward-looking, empowering.
TARGET LENGTH: ~%d words

Return STRICT JSON only:
{"title":string,"scriptureReference":"integrating Scripture","scriptureText":string,"reflection":string,"prayer":string,"nextStep":string,"journalPrompt":string,"modules":[{"type":string,"heading":string,"content":{}}],"totalWords":number}`, wordTarget)
}

func buildStandardUserPrompt(outline model.DayOutline, plan model.PlanOutline, answerText string, chunks []corpus.Chunk) string {
	referenceContext := "No reference library material available. Generate from theological knowledge while maintaining accuracy."
	if len(chunks) > 0 {
		var parts []string
		for _, c := range chunks {
			content := c.Content
			if len(content) > maxChunkChars {
				content = content[:maxChunkChars]
			}
			parts = append(parts, fmt.Sprintf("[%s: %s]\n%s", c.SourceType, c.Source, content))
		}
		referenceContext = strings.Join(parts, "\n\n---\n\n")
	}

	return strings.Join([]string{
		fmt.Sprintf("Day %d: %q", outline.Day, outline.Title),
		"Scripture: " + outline.ScriptureReference,
		"Topic focus: " + outline.TopicFocus,
		"Plan angle: " + plan.Angle,
		"Plan title: " + plan.Title,
		fmt.Sprintf("Reader's reflection: %q", answerText),
		"",
		"REFERENCE MATERIAL (use as primary source, quote, paraphrase, build upon):",
		referenceContext,
	}, "\n")
}

func buildClosingUserPrompt(plan model.PlanOutline, answerText string, previousDays []model.PlanDay, withExcerpts bool) string {
	var summaries []string
	for _, d := range previousDays {
		if withExcerpts {
			excerpt := d.Reflection
			if len(excerpt) > 200 {
				excerpt = excerpt[:200]
			}
			summaries = append(summaries, fmt.Sprintf("Day %d %q: %s. %s", d.Day, d.Title, d.ScriptureReference, excerpt))
		} else {
			summaries = append(summaries, fmt.Sprintf("Day %d %q: %s", d.Day, d.Title, d.ScriptureReference))
		}
	}

	return strings.Join([]string{
		fmt.Sprintf("Plan: %q", plan.Title),
		"Angle: " + plan.Angle,
		fmt.Sprintf("Reader's original reflection: %q", answerText),
		"",
		"Week summary:",
		strings.Join(summaries, "\n"),
	}, "\n")
}
