package api

import (
	"github.com/gorilla/mux"

	"github.com/euangelion/plan-service/internal/api/recovery"
	"github.com/euangelion/plan-service/internal/services"
)

// RouterDeps carries the wired services the HTTP surface exposes.
type RouterDeps struct {
	Slots       *services.SlotService
	Plans       *services.PlanService
	Coordinator *services.GenerationCoordinator
	HealthProbe func() bool
}

// NewRouter creates the HTTP router with all API routes.
func NewRouter(deps RouterDeps) *mux.Router {
	router := mux.NewRouter()

	router.Use(recovery.Middleware)

	healthHandler := NewHealthHandler(deps.HealthProbe)
	slotHandler := NewSlotHandler(deps.Slots)
	planHandler := NewPlanHandler(deps.Plans, deps.Coordinator)

	// Health endpoint
	router.HandleFunc("/api/health", healthHandler.CheckHealth).Methods("GET")

	// Slot ledger endpoints
	router.HandleFunc("/api/slots", slotHandler.GetLedger).Methods("GET")
	router.HandleFunc("/api/slots/activate", slotHandler.Activate).Methods("POST")
	router.HandleFunc("/api/slots/archive-completed", slotHandler.ArchiveCompleted).Methods("POST")
	router.HandleFunc("/api/slots/{slotId:[0-9a-fA-F-]{36}}/replace", slotHandler.Replace).Methods("POST")
	router.HandleFunc("/api/slots/{slotId:[0-9a-fA-F-]{36}}/switch", slotHandler.SwitchCurrent).Methods("POST")
	router.HandleFunc("/api/slots/{slotId:[0-9a-fA-F-]{36}}/archive", slotHandler.Archive).Methods("POST")
	router.HandleFunc("/api/slots/{slotId:[0-9a-fA-F-]{36}}/restore", slotHandler.Restore).Methods("POST")

	// Plan endpoints
	router.HandleFunc("/api/plans", planHandler.CreatePlan).Methods("POST")
	router.HandleFunc("/api/plans/{token}", planHandler.GetPlan).Methods("GET")
	router.HandleFunc("/api/plans/{token}/generate-next", planHandler.GenerateNext).Methods("POST")
	router.HandleFunc("/api/plans/{token}/generation-status", planHandler.GenerationStatus).Methods("GET")

	return router
}
