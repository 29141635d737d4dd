package generative

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/euangelion/plan-service/internal/compose"
	"github.com/euangelion/plan-service/internal/corpus"
	"github.com/euangelion/plan-service/internal/model"
)

// Config controls the adapter's routing.
type Config struct {
	// Enabled gates the provider path entirely; false means every day is
	// built deterministically.
	Enabled bool
	// GenerativeClosingDays routes sabbath and review days through the
	// provider. Off by default: closing days read best deterministic.
	GenerativeClosingDays bool
}

// Adapter builds plan days, preferring the text provider and falling back to
// deterministic composition. GenerateDay never fails for content reasons.
type Adapter struct {
	provider TextProvider
	cfg      Config
	log      zerolog.Logger
}

func New(provider TextProvider, cfg Config, log zerolog.Logger) *Adapter {
	return &Adapter{provider: provider, cfg: cfg, log: log}
}

// GenerativeEnabled reports whether the provider path is live.
func (a *Adapter) GenerativeEnabled() bool {
	return a.cfg.Enabled && a.provider != nil
}

// DayRequest carries everything needed to build one day. Chunks are
// pre-retrieved with the plan's exclusion set already applied.
type DayRequest struct {
	Outline            model.DayOutline
	Plan               model.PlanOutline
	AnswerText         string
	LengthMinutes      int
	TotalDays          int
	PreviousDays       []model.PlanDay
	PreviousModuleSets [][]model.ModuleType
	Chunks             []corpus.Chunk
}

// GenerateDay builds the requested day. Standard days try the provider when
// enabled; sabbath and review days stay deterministic unless the closing-days
// flag is set. Any provider error, timeout, or unparseable output falls back
// to the deterministic builder for the same day type.
func (a *Adapter) GenerateDay(ctx context.Context, req DayRequest) model.PlanDay {
	switch req.Outline.DayType {
	case model.DaySabbath:
		return a.closingDay(ctx, req, true)
	case model.DayReview:
		return a.closingDay(ctx, req, false)
	default:
		return a.standardDay(ctx, req)
	}
}

func (a *Adapter) deterministicParams(req DayRequest) compose.DayParams {
	return compose.DayParams{
		DayNumber:          req.Outline.Day,
		TotalDays:          req.TotalDays,
		Chiastic:           req.Outline.ChiasticPosition,
		Pardes:             req.Outline.PardesLevel,
		Title:              req.Outline.Title,
		ScriptureReference: req.Outline.ScriptureReference,
		TargetWords:        compose.WordTargetFromMinutes(req.LengthMinutes),
		Chunks:             req.Chunks,
	}
}

func (a *Adapter) standardDay(ctx context.Context, req DayRequest) model.PlanDay {
	if !a.cfg.Enabled || a.provider == nil {
		return compose.ComposeDay(a.deterministicParams(req))
	}

	wordTarget := wordTargetFromMinutes(req.LengthMinutes)
	system := buildStandardSystemPrompt(wordTarget, moduleBudget(wordTarget),
		req.Outline.PardesLevel, req.Outline.ChiasticPosition, req.PreviousModuleSets)
	prompt := buildStandardUserPrompt(req.Outline, req.Plan, req.AnswerText, req.Chunks)

	raw, err := a.provider.Generate(ctx, Request{
		System:    system,
		Prompt:    prompt,
		MaxTokens: maxOutputTokens(wordTarget),
	})
	if err != nil {
		a.log.Warn().Err(err).Int("day", req.Outline.Day).Msg("provider failed, composing deterministically")
		return compose.ComposeDay(a.deterministicParams(req))
	}
	parsed, ok := parseDay(raw)
	if !ok {
		a.log.Warn().Int("day", req.Outline.Day).Msg("unparseable provider output, composing deterministically")
		return compose.ComposeDay(a.deterministicParams(req))
	}

	usedIDs := make([]string, 0, len(req.Chunks))
	refWords := 0
	seen := make(map[string]bool)
	var sources []string
	for _, c := range req.Chunks {
		usedIDs = append(usedIDs, c.ID)
		refWords += c.WordCount
		if !seen[c.Title] {
			seen[c.Title] = true
			sources = append(sources, c.Title)
		}
	}
	for _, s := range parsed.SourcesUsed {
		if !seen[s] {
			seen[s] = true
			sources = append(sources, s)
		}
	}
	if len(sources) > 20 {
		sources = sources[:20]
	}

	refPct := 0
	if parsed.TotalWords > 0 {
		refPct = refWords * 100 / parsed.TotalWords
		if refPct > 100 {
			refPct = 100
		}
	}

	return model.PlanDay{
		Day:                req.Outline.Day,
		DayType:            model.DayStandard,
		Status:             model.DayReady,
		Title:              parsed.Title,
		ScriptureReference: parsed.ScriptureReference,
		ScriptureText:      parsed.ScriptureText,
		Reflection:         parsed.Reflection,
		Prayer:             parsed.Prayer,
		NextStep:           parsed.NextStep,
		JournalPrompt:      parsed.JournalPrompt,
		ChiasticPosition:   req.Outline.ChiasticPosition,
		PardesLevel:        req.Outline.PardesLevel,
		Modules:            parsed.Modules,
		Endnotes:           compose.BuildEndnotes(parsed.ScriptureReference, req.Chunks),
		UsedChunkIDs:       usedIDs,
		TotalWords:         parsed.TotalWords,
		TargetMinutes:      req.LengthMinutes,
		Composition: &model.CompositionReport{
			ReferencePercentage: refPct,
			GeneratedPercentage: 100 - refPct,
			Sources:             sources,
		},
	}
}

func (a *Adapter) closingDay(ctx context.Context, req DayRequest, sabbath bool) model.PlanDay {
	fallback := func() model.PlanDay {
		if sabbath {
			return compose.ComposeSabbath(req.Outline.Day, req.PreviousDays, req.Plan.Title)
		}
		return compose.ComposeReview(req.Outline.Day, req.PreviousDays, req.Plan.Title)
	}
	if !a.cfg.Enabled || !a.cfg.GenerativeClosingDays || a.provider == nil {
		return fallback()
	}

	// Closing days are lighter reads than standard days.
	minutes := req.LengthMinutes * 6 / 10
	if !sabbath {
		minutes = req.LengthMinutes * 4 / 10
	}
	if minutes < 5 {
		minutes = 5
	}
	wordTarget := wordTargetFromMinutes(minutes)

	var system string
	if sabbath {
		system = buildSabbathSystemPrompt(wordTarget)
	} else {
		system = buildReviewSystemPrompt(wordTarget)
	}
	prompt := buildClosingUserPrompt(req.Plan, req.AnswerText, req.PreviousDays, sabbath)

	raw, err := a.provider.Generate(ctx, Request{
		System:    system,
		Prompt:    prompt,
		MaxTokens: maxOutputTokens(wordTarget),
	})
	if err != nil {
		a.log.Warn().Err(err).Int("day", req.Outline.Day).Msg("provider failed, composing closing day deterministically")
		return fallback()
	}
	parsed, ok := parseDay(raw)
	if !ok {
		return fallback()
	}

	dayType := model.DayReview
	chiastic := model.ChiasticReview
	pardes := model.PardesReview
	note := "Week review and next-week discernment."
	if sabbath {
		dayType = model.DaySabbath
		chiastic = model.ChiasticSabbath
		pardes = model.PardesSabbath
		note = "Sabbath rest and review, no new teaching."
	}

	return model.PlanDay{
		Day:                req.Outline.Day,
		DayType:            dayType,
		Status:             model.DayReady,
		Title:              parsed.Title,
		ScriptureReference: parsed.ScriptureReference,
		ScriptureText:      parsed.ScriptureText,
		Reflection:         parsed.Reflection,
		Prayer:             parsed.Prayer,
		NextStep:           parsed.NextStep,
		JournalPrompt:      parsed.JournalPrompt,
		ChiasticPosition:   chiastic,
		PardesLevel:        pardes,
		Modules:            parsed.Modules,
		Endnotes: []model.Endnote{
			{ID: 1, Source: "Scripture", Note: parsed.ScriptureReference},
			{ID: 2, Source: "Day Type", Note: note},
		},
		TotalWords:    parsed.TotalWords,
		TargetMinutes: minutes,
	}
}
