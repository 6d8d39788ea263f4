package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/drevalle/caterops/internal/httpx"
	"github.com/drevalle/caterops/internal/services"
)

type SimulationHandler struct {
	Svc *services.SimulationService
}

func NewSimulationHandler(svc *services.SimulationService) *SimulationHandler {
	return &SimulationHandler{Svc: svc}
}

// Inflation: POST /simulation/inflation – what-if cost bump on one category.
func (h *SimulationHandler) Inflation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Category   string  `json:"category"`
		Percentage float64 `json:"percentage"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	result, err := h.Svc.SimulateInflation(req.Category, req.Percentage)
	if err != nil {
		if httpx.EngineError(w, err) {
			return
		}
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"error": err.Error()})
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}
