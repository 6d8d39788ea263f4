package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/drevalle/caterops/internal/httpx"
	"github.com/drevalle/caterops/internal/services"
)

type EstimationHandler struct {
	Svc *services.EstimationService
}

func NewEstimationHandler(svc *services.EstimationService) *EstimationHandler {
	return &EstimationHandler{Svc: svc}
}

// Beverages: POST /estimation/beverages
func (h *EstimationHandler) Beverages(w http.ResponseWriter, r *http.Request) {
	var req services.EstimationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	result, err := h.Svc.Beverages(req)
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"error": err.Error()})
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}
