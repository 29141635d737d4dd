package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/euangelion/plan-service/internal/api/respond"
	"github.com/euangelion/plan-service/internal/api/validate"
	"github.com/euangelion/plan-service/internal/ledger"
	"github.com/euangelion/plan-service/internal/model"
	"github.com/euangelion/plan-service/internal/services"
)

// SlotHandler provides HTTP transport for slot ledger operations.
type SlotHandler struct {
	slots *services.SlotService
}

func NewSlotHandler(svc *services.SlotService) *SlotHandler {
	return &SlotHandler{slots: svc}
}

// sessionKey resolves the owner session from the X-Session-Token header.
// Identity issuance is out of scope; the header is the contract.
func sessionKey(w http.ResponseWriter, r *http.Request) (string, bool) {
	key := r.Header.Get("X-Session-Token")
	if err := validate.SessionKey(key); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return "", false
	}
	return key, true
}

// writeLedgerError maps ledger and store errors to HTTP status codes.
func writeLedgerError(w http.ResponseWriter, err error) {
	switch {
	case ledger.IsSlotsFullError(err), ledger.IsDuplicateSeriesError(err),
		ledger.IsSlotArchivedError(err), ledger.IsNotArchivedError(err):
		respond.WriteConflict(w, err.Error())
	case ledger.IsSlotNotFoundError(err):
		respond.WriteNotFound(w, err.Error())
	case err == model.ErrValidation:
		respond.WriteBadRequest(w, err.Error())
	default:
		// Anything else at this layer is the store misbehaving.
		respond.WriteServiceUnavailable(w, "store unavailable, retry shortly")
	}
}

// GetLedger GET /api/slots
func (h *SlotHandler) GetLedger(w http.ResponseWriter, r *http.Request) {
	owner, ok := sessionKey(w, r)
	if !ok {
		return
	}
	l, err := h.slots.GetLedger(r.Context(), owner)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, l)
}

// Activate POST /api/slots/activate
func (h *SlotHandler) Activate(w http.ResponseWriter, r *http.Request) {
	owner, ok := sessionKey(w, r)
	if !ok {
		return
	}
	var req struct {
		SeriesKey   string `json:"seriesKey"`
		MakeCurrent bool   `json:"makeCurrent"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := validate.SeriesKey(req.SeriesKey); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	l, err := h.slots.Activate(r.Context(), owner, req.SeriesKey, req.MakeCurrent)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, l)
}

// Replace POST /api/slots/{slotId}/replace
func (h *SlotHandler) Replace(w http.ResponseWriter, r *http.Request) {
	owner, ok := sessionKey(w, r)
	if !ok {
		return
	}
	slotID := mux.Vars(r)["slotId"]
	if err := validate.SlotID(slotID); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	var req struct {
		SeriesKey string `json:"seriesKey"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := validate.SeriesKey(req.SeriesKey); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	l, err := h.slots.Replace(r.Context(), owner, slotID, req.SeriesKey)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, l)
}

// SwitchCurrent POST /api/slots/{slotId}/switch
func (h *SlotHandler) SwitchCurrent(w http.ResponseWriter, r *http.Request) {
	owner, ok := sessionKey(w, r)
	if !ok {
		return
	}
	slotID := mux.Vars(r)["slotId"]
	if err := validate.SlotID(slotID); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	l, err := h.slots.SwitchCurrent(r.Context(), owner, slotID)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, l)
}

// Archive POST /api/slots/{slotId}/archive
func (h *SlotHandler) Archive(w http.ResponseWriter, r *http.Request) {
	owner, ok := sessionKey(w, r)
	if !ok {
		return
	}
	slotID := mux.Vars(r)["slotId"]
	if err := validate.SlotID(slotID); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	var req struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	l, err := h.slots.Archive(r.Context(), owner, slotID, model.ArchiveReason(req.Reason))
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, l)
}

// ArchiveCompleted POST /api/slots/archive-completed
// The recurring week-end boundary: every completed slot leaves the active
// set with reason week_end.
func (h *SlotHandler) ArchiveCompleted(w http.ResponseWriter, r *http.Request) {
	owner, ok := sessionKey(w, r)
	if !ok {
		return
	}
	l, err := h.slots.ArchiveCompleted(r.Context(), owner)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, l)
}

// Restore POST /api/slots/{slotId}/restore
func (h *SlotHandler) Restore(w http.ResponseWriter, r *http.Request) {
	owner, ok := sessionKey(w, r)
	if !ok {
		return
	}
	slotID := mux.Vars(r)["slotId"]
	if err := validate.SlotID(slotID); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	l, err := h.slots.Restore(r.Context(), owner, slotID)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, l)
}
