package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/drevalle/caterops/internal/costing"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	var body []byte
	var err error
	if payload != nil {
		body, err = json.Marshal(payload)
		if err != nil {
			http.Error(w, `{"error":"encode_error"}`, http.StatusInternalServerError)
			return
		}
	} else {
		body = []byte("null")
	}
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		_ = err
	}
}

func JSONError(w http.ResponseWriter, status int, msg string, details any) {
	JSON(w, status, ErrorResponse{Error: msg, Details: details})
}

// EngineError maps the costing error taxonomy to stable response codes with
// enough context (offending ids, cycle path) for the caller to decide whether
// to skip, warn, or abort. Returns false if err is not an engine fault.
func EngineError(w http.ResponseWriter, err error) bool {
	var (
		invalid  *costing.InvalidIngredientDataError
		units    *costing.IncompatibleUnitsError
		cyclic   *costing.CyclicRecipeError
		dangling *costing.DanglingReferenceError
		depth    *costing.DepthLimitExceededError
	)
	switch {
	case errors.As(err, &invalid):
		JSONError(w, http.StatusUnprocessableEntity, "invalid_ingredient_data",
			map[string]any{"ingredient_id": invalid.IngredientID, "reason": invalid.Reason})
	case errors.As(err, &units):
		JSONError(w, http.StatusUnprocessableEntity, "incompatible_units",
			map[string]any{"from": units.FromUnit, "to": units.ToUnit})
	case errors.As(err, &cyclic):
		JSONError(w, http.StatusUnprocessableEntity, "cyclic_recipe",
			map[string]any{"path": cyclic.Path})
	case errors.As(err, &dangling):
		JSONError(w, http.StatusUnprocessableEntity, "dangling_reference",
			map[string]any{"kind": dangling.Kind, "id": dangling.ID})
	case errors.As(err, &depth):
		JSONError(w, http.StatusUnprocessableEntity, "depth_limit_exceeded",
			map[string]any{"limit": depth.Limit, "recipe_id": depth.RecipeID})
	default:
		return false
	}
	return true
}
