package handlers

import (
	"net/http"
	"time"

	"github.com/drevalle/caterops/internal/httpx"
	"github.com/drevalle/caterops/internal/services"
)

type ProductionHandler struct {
	Svc *services.ProductionService
}

func NewProductionHandler(svc *services.ProductionService) *ProductionHandler {
	return &ProductionHandler{Svc: svc}
}

// dateRange parses start/end query params, defaulting to the next 7 days.
func dateRange(r *http.Request) (time.Time, time.Time, bool) {
	start := time.Now().UTC().Truncate(24 * time.Hour)
	if v := r.URL.Query().Get("start"); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return time.Time{}, time.Time{}, false
		}
		start = t
	}
	end := start.AddDate(0, 0, 7)
	if v := r.URL.Query().Get("end"); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return time.Time{}, time.Time{}, false
		}
		end = t
	}
	return start, end, true
}

// Plan: GET /production/plan?start=YYYY-MM-DD&end=YYYY-MM-DD
func (h *ProductionHandler) Plan(w http.ResponseWriter, r *http.Request) {
	start, end, ok := dateRange(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_date", map[string]string{"expected": dateLayout})
		return
	}
	plan, err := h.Svc.Plan(start, end)
	if err != nil {
		if httpx.EngineError(w, err) {
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_build_plan", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"period":      map[string]string{"start": start.Format(dateLayout), "end": end.Format(dateLayout)},
		"events":      plan.Events,
		"sub_recipes": plan.SubRecipes,
		"ingredients": plan.Ingredients,
	})
}

// ShoppingList: GET /production/shopping-list?start=...&end=... – the plan
// netted to what actually needs purchasing.
func (h *ProductionHandler) ShoppingList(w http.ResponseWriter, r *http.Request) {
	start, end, ok := dateRange(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_date", map[string]string{"expected": dateLayout})
		return
	}
	plan, err := h.Svc.Plan(start, end)
	if err != nil {
		if httpx.EngineError(w, err) {
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_build_plan", nil)
		return
	}
	items := plan.ShoppingList()
	httpx.JSON(w, http.StatusOK, map[string]any{
		"period":      map[string]string{"start": start.Format(dateLayout), "end": end.Format(dateLayout)},
		"total_items": len(items),
		"items":       items,
	})
}
