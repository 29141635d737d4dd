package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/euangelion/plan-service/internal/generative"
	"github.com/euangelion/plan-service/internal/model"
	"github.com/euangelion/plan-service/internal/store"
)

// PlanService creates plan instances and their pending-day skeletons.
type PlanService struct {
	store   store.Store
	adapter *generative.Adapter
	corpus  ChunkRetriever
	minutes int
	log     zerolog.Logger
}

func NewPlanService(s store.Store, adapter *generative.Adapter, corpus ChunkRetriever, lengthMinutes int, log zerolog.Logger) *PlanService {
	if lengthMinutes <= 0 {
		lengthMinutes = DefaultLengthMinutes
	}
	return &PlanService{store: s, adapter: adapter, corpus: corpus, minutes: lengthMinutes, log: log}
}

// CreatePlanRequest carries everything needed to mint a plan.
type CreatePlanRequest struct {
	OwnerSessionKey   string
	SeriesKey         string
	PlanType          model.PlanType
	StartPolicy       string
	OnboardingVariant string
	Timezone          string
	Outline           model.PlanOutline
	AnswerText        string
}

// CreatePlanResult is the minted plan with its day skeleton.
type CreatePlanResult struct {
	Plan *model.PlanInstance
	Days []*model.PlanDay
}

// CreatePlan mints a token, persists the plan instance with its generation
// context, composes day 1 immediately, and stores days 2..N as pending
// skeletons for progressive generation.
func (s *PlanService) CreatePlan(ctx context.Context, req CreatePlanRequest) (*CreatePlanResult, error) {
	if req.OwnerSessionKey == "" || len(req.Outline.DayOutlines) == 0 {
		return nil, model.ErrValidation
	}
	planType := req.PlanType
	if planType == "" {
		planType = model.PlanGenerative
	}

	token := "plan_" + strings.ReplaceAll(uuid.New().String(), "-", "")
	runID := req.Outline.ID
	if runID == "" {
		runID = uuid.New().String()
	}

	plan, err := s.store.Plans().Create(ctx, &model.PlanInstance{
		Token:             token,
		OwnerSessionKey:   req.OwnerSessionKey,
		AuditRunID:        runID,
		SeriesKey:         req.SeriesKey,
		PlanType:          planType,
		Title:             req.Outline.Title,
		StartPolicy:       req.StartPolicy,
		OnboardingVariant: req.OnboardingVariant,
		Timezone:          req.Timezone,
		CreatedAt:         time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	if err := s.store.Runs().Put(ctx, &model.RunContext{
		AuditRunID: runID,
		Outline:    req.Outline,
		AnswerText: req.AnswerText,
	}); err != nil {
		return nil, err
	}

	var days []*model.PlanDay
	for i, outline := range req.Outline.DayOutlines {
		var day model.PlanDay
		if i == 0 {
			// Day 1 is composed at creation so the reader can start
			// immediately; the rest generate progressively.
			day = s.adapter.GenerateDay(ctx, generative.DayRequest{
				Outline:       outline,
				Plan:          req.Outline,
				AnswerText:    req.AnswerText,
				LengthMinutes: s.minutes,
				TotalDays:     len(req.Outline.DayOutlines),
				Chunks:        retrieveForOutline(s.corpus, req.Outline, outline, nil, s.adapter),
			})
		} else {
			day = model.PlanDay{
				Day:                outline.Day,
				DayType:            outline.DayType,
				Status:             model.DayPending,
				Title:              outline.Title,
				ScriptureReference: outline.ScriptureReference,
				ChiasticPosition:   outline.ChiasticPosition,
				PardesLevel:        outline.PardesLevel,
			}
		}
		if err := s.store.Days().Put(ctx, token, &day); err != nil {
			return nil, err
		}
		d := day
		days = append(days, &d)
	}

	s.log.Info().
		Str("planToken", token).
		Int("days", len(days)).
		Str("planType", string(planType)).
		Msg("plan created")

	return &CreatePlanResult{Plan: plan, Days: days}, nil
}

// GetPlan returns the plan for token, enforcing ownership.
func (s *PlanService) GetPlan(ctx context.Context, token, owner string) (*model.PlanInstance, error) {
	plan, err := s.store.Plans().Get(ctx, token)
	if err != nil {
		return nil, err
	}
	if plan.OwnerSessionKey != owner {
		return nil, &AccessDeniedError{PlanToken: token}
	}
	return plan, nil
}
