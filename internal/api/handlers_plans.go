package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/euangelion/plan-service/internal/api/respond"
	"github.com/euangelion/plan-service/internal/api/validate"
	"github.com/euangelion/plan-service/internal/model"
	"github.com/euangelion/plan-service/internal/services"
)

// PlanHandler provides HTTP transport for plan creation and progressive
// generation.
type PlanHandler struct {
	plans *services.PlanService
	coord *services.GenerationCoordinator
}

func NewPlanHandler(plans *services.PlanService, coord *services.GenerationCoordinator) *PlanHandler {
	return &PlanHandler{plans: plans, coord: coord}
}

// writePlanError maps plan and generation errors to HTTP status codes.
func writePlanError(w http.ResponseWriter, err error) {
	switch {
	case services.IsAccessDeniedError(err):
		respond.WriteForbidden(w, err.Error())
	case services.IsOutlineMissingError(err):
		respond.WriteUnprocessable(w, err.Error())
	case errors.Is(err, model.ErrNotFound):
		respond.WriteNotFound(w, "plan not found")
	case errors.Is(err, model.ErrValidation):
		respond.WriteBadRequest(w, err.Error())
	default:
		respond.WriteServiceUnavailable(w, "store unavailable, retry shortly")
	}
}

// CreatePlan POST /api/plans
func (h *PlanHandler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	owner, ok := sessionKey(w, r)
	if !ok {
		return
	}
	var req struct {
		SeriesKey         string            `json:"seriesKey"`
		PlanType          model.PlanType    `json:"planType,omitempty"`
		StartPolicy       string            `json:"startPolicy,omitempty"`
		OnboardingVariant string            `json:"onboardingVariant,omitempty"`
		Timezone          string            `json:"timezone,omitempty"`
		Outline           model.PlanOutline `json:"outline"`
		AnswerText        string            `json:"answerText,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if req.SeriesKey != "" {
		if err := validate.SeriesKey(req.SeriesKey); err != nil {
			respond.WriteBadRequest(w, err.Error())
			return
		}
	}
	res, err := h.plans.CreatePlan(r.Context(), services.CreatePlanRequest{
		OwnerSessionKey:   owner,
		SeriesKey:         req.SeriesKey,
		PlanType:          req.PlanType,
		StartPolicy:       req.StartPolicy,
		OnboardingVariant: req.OnboardingVariant,
		Timezone:          req.Timezone,
		Outline:           req.Outline,
		AnswerText:        req.AnswerText,
	})
	if err != nil {
		writePlanError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"plan": res.Plan,
		"days": res.Days,
	})
}

// GetPlan GET /api/plans/{token}
func (h *PlanHandler) GetPlan(w http.ResponseWriter, r *http.Request) {
	owner, ok := sessionKey(w, r)
	if !ok {
		return
	}
	token := mux.Vars(r)["token"]
	if err := validate.PlanToken(token); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	plan, err := h.plans.GetPlan(r.Context(), token, owner)
	if err != nil {
		writePlanError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, plan)
}

// GenerateNext POST /api/plans/{token}/generate-next
//
// The body is an optional fallback context for stores that lost the audit
// run record. Contention returns 200 with an advisory status, not an error.
func (h *PlanHandler) GenerateNext(w http.ResponseWriter, r *http.Request) {
	owner, ok := sessionKey(w, r)
	if !ok {
		return
	}
	token := mux.Vars(r)["token"]
	if err := validate.PlanToken(token); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}

	var supplied *model.RunContext
	var body struct {
		Context *model.RunContext `json:"context,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && err != io.EOF {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	supplied = body.Context

	res, err := h.coord.GenerateNext(r.Context(), token, owner, supplied)
	if err != nil {
		writePlanError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, res)
}

// GenerationStatus GET /api/plans/{token}/generation-status
func (h *PlanHandler) GenerationStatus(w http.ResponseWriter, r *http.Request) {
	owner, ok := sessionKey(w, r)
	if !ok {
		return
	}
	token := mux.Vars(r)["token"]
	if err := validate.PlanToken(token); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	res, err := h.coord.GenerationStatus(r.Context(), token, owner)
	if err != nil {
		writePlanError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, res)
}
