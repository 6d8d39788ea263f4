package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/drevalle/caterops/internal/costing"
	"github.com/drevalle/caterops/internal/httpx"
	"github.com/drevalle/caterops/internal/models"
	"github.com/drevalle/caterops/internal/services"
)

type RecipeHandler struct {
	DB  *gorm.DB
	Svc *services.RecipeService
	// svcFor builds a tx-scoped service for cycle checks inside a transaction
	svcFor func(db *gorm.DB) *services.RecipeService
}

func NewRecipeHandler(db *gorm.DB, svc *services.RecipeService, svcFor func(*gorm.DB) *services.RecipeService) *RecipeHandler {
	return &RecipeHandler{DB: db, Svc: svc, svcFor: svcFor}
}

func validRecipeType(t string) bool {
	switch t {
	case models.RecipeFinalDish, models.RecipeSubRecipe, models.RecipeBeverage, models.RecipeDessert, models.RecipeAppetizer:
		return true
	}
	return false
}

type recipeItemReq struct {
	IngredientID  *uint           `json:"ingredient_id"`
	ChildRecipeID *uint           `json:"child_recipe_id"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitID        uint            `json:"unit_id"`
	Notes         string          `json:"notes"`
	IsScalable    *bool           `json:"is_scalable"`
}

type recipeReq struct {
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	RecipeType      string          `json:"recipe_type"`
	YieldQuantity   decimal.Decimal `json:"yield_quantity"`
	YieldUnitID     uint            `json:"yield_unit_id"`
	TargetMargin    *float64        `json:"target_margin"`
	PreparationTime int             `json:"preparation_time"`
	Instructions    string          `json:"instructions"`
	ShelfLifeHours  int             `json:"shelf_life_hours"`
	Items           []recipeItemReq `json:"items"`
	TagIDs          []uint          `json:"tag_ids"`
}

func (req *recipeReq) validate() map[string]string {
	problems := map[string]string{}
	if strings.TrimSpace(req.Name) == "" {
		problems["name"] = "required"
	}
	if req.RecipeType != "" && !validRecipeType(req.RecipeType) {
		problems["recipe_type"] = "unknown"
	}
	if !req.YieldQuantity.IsPositive() {
		problems["yield_quantity"] = "must_be_positive"
	}
	if req.TargetMargin != nil && (*req.TargetMargin < 0 || *req.TargetMargin > 0.99) {
		problems["target_margin"] = "must_be_in_[0,0.99]"
	}
	for i, it := range req.Items {
		if (it.IngredientID == nil) == (it.ChildRecipeID == nil) {
			problems["items"] = "exactly_one_of_ingredient_or_child_recipe"
			break
		}
		if !it.Quantity.IsPositive() {
			problems["items"] = "quantity_must_be_positive"
			break
		}
		if it.UnitID == 0 {
			problems["items"] = "unit_required"
			break
		}
		_ = i
	}
	if len(problems) == 0 {
		return nil
	}
	return problems
}

func (req *recipeReq) buildItems(recipeID uint) []models.RecipeItem {
	items := make([]models.RecipeItem, 0, len(req.Items))
	for _, it := range req.Items {
		scalable := true
		if it.IsScalable != nil {
			scalable = *it.IsScalable
		}
		items = append(items, models.RecipeItem{
			ParentRecipeID: recipeID,
			IngredientID:   it.IngredientID,
			ChildRecipeID:  it.ChildRecipeID,
			Quantity:       it.Quantity,
			UnitID:         it.UnitID,
			Notes:          it.Notes,
			IsScalable:     scalable,
		})
	}
	return items
}

// checkComposition runs a cost rollup inside the transaction so cyclic or
// dangling compositions are rejected before they are committed.
func (h *RecipeHandler) checkComposition(tx *gorm.DB, recipeID uint) error {
	_, err := h.svcFor(tx).Cost(recipeID)
	return err
}

// List: GET /recipes – costs computed on the fly, never read from storage.
func (h *RecipeHandler) List(w http.ResponseWriter, r *http.Request) {
	dbq := h.DB.Model(&models.Recipe{})
	if t := r.URL.Query().Get("type"); t != "" {
		dbq = dbq.Where("recipe_type = ?", t)
	}
	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		like := "%" + strings.ToLower(searchSanitizer.ReplaceAllString(q, "")) + "%"
		dbq = dbq.Where("lower(name) LIKE ?", like)
	}
	var recipes []models.Recipe
	if err := dbq.Preload("Items").Preload("Tags").Order("name asc").Find(&recipes).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_recipes", nil)
		return
	}

	type recipeView struct {
		models.Recipe
		TotalCost      *decimal.Decimal `json:"total_cost,omitempty"`
		CostPerPortion *decimal.Decimal `json:"cost_per_portion,omitempty"`
		SuggestedPrice *decimal.Decimal `json:"suggested_price,omitempty"`
		CostError      string           `json:"cost_error,omitempty"`
	}
	views := make([]recipeView, 0, len(recipes))
	for i := range recipes {
		v := recipeView{Recipe: recipes[i]}
		// a recipe with corrupt composition is listed with the fault instead
		// of hiding the whole catalog behind one bad row
		if rc, err := h.Svc.Cost(recipes[i].ID); err != nil {
			v.CostError = err.Error()
		} else {
			v.TotalCost = &rc.TotalCost
			v.CostPerPortion = &rc.CostPerPortion
			v.SuggestedPrice = &rc.SuggestedPrice
		}
		views = append(views, v)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": views, "total": len(views)})
}

// Create: POST /recipes
func (h *RecipeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req recipeReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if problems := req.validate(); problems != nil {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", problems)
		return
	}
	rec := models.Recipe{
		Name:            strings.TrimSpace(req.Name),
		Description:     req.Description,
		RecipeType:      req.RecipeType,
		YieldQuantity:   req.YieldQuantity,
		YieldUnitID:     req.YieldUnitID,
		TargetMargin:    0.35,
		PreparationTime: req.PreparationTime,
		Instructions:    req.Instructions,
		ShelfLifeHours:  req.ShelfLifeHours,
	}
	if rec.RecipeType == "" {
		rec.RecipeType = models.RecipeFinalDish
	}
	if req.TargetMargin != nil {
		rec.TargetMargin = *req.TargetMargin
	}

	var compositionErr error
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&rec).Error; err != nil {
			return err
		}
		if items := req.buildItems(rec.ID); len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		if len(req.TagIDs) > 0 {
			var tags []models.Tag
			if err := tx.Where("id IN ?", req.TagIDs).Find(&tags).Error; err != nil {
				return err
			}
			if err := tx.Model(&rec).Association("Tags").Replace(tags); err != nil {
				return err
			}
		}
		if err := h.checkComposition(tx, rec.ID); err != nil {
			compositionErr = err
			return err
		}
		return nil
	})
	if err != nil {
		if compositionErr != nil && httpx.EngineError(w, compositionErr) {
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_create_recipe", nil)
		return
	}
	rc, err := h.Svc.Cost(rec.ID)
	if err != nil {
		if httpx.EngineError(w, err) {
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_cost_recipe", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"id": rec.ID, "name": rec.Name, "cost": rc})
}

// Cost: GET /recipes/cost?id=... – full per-item breakdown.
func (h *RecipeHandler) Cost(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var rec models.Recipe
	if err := h.DB.First(&rec, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_recipe", nil)
		return
	}
	rc, err := h.Svc.Cost(id)
	if err != nil {
		if httpx.EngineError(w, err) {
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_cost_recipe", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, rc)
}

// Scale: GET /recipes/scale?id=...&target=...
func (h *RecipeHandler) Scale(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	target, err := decimal.NewFromString(r.URL.Query().Get("target"))
	if err != nil || !target.IsPositive() {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_target", nil)
		return
	}
	scaled, err := h.Svc.Scale(id, target)
	if err != nil {
		if errors.Is(err, costing.ErrNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		if httpx.EngineError(w, err) {
			return
		}
		httpx.JSONError(w, http.StatusBadRequest, "failed_to_scale_recipe", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, scaled)
}

// Update: POST /recipes/update?id=... – replaces header fields and items,
// re-validating the composition inside the transaction.
func (h *RecipeHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var rec models.Recipe
	if err := h.DB.First(&rec, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_recipe", nil)
		return
	}
	var req recipeReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if problems := req.validate(); problems != nil {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", problems)
		return
	}

	rec.Name = strings.TrimSpace(req.Name)
	rec.Description = req.Description
	if req.RecipeType != "" {
		rec.RecipeType = req.RecipeType
	}
	rec.YieldQuantity = req.YieldQuantity
	rec.YieldUnitID = req.YieldUnitID
	if req.TargetMargin != nil {
		rec.TargetMargin = *req.TargetMargin
	}
	rec.PreparationTime = req.PreparationTime
	rec.Instructions = req.Instructions
	rec.ShelfLifeHours = req.ShelfLifeHours

	var compositionErr error
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&rec).Error; err != nil {
			return err
		}
		if err := tx.Where("parent_recipe_id = ?", rec.ID).Delete(&models.RecipeItem{}).Error; err != nil {
			return err
		}
		if items := req.buildItems(rec.ID); len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		if err := h.checkComposition(tx, rec.ID); err != nil {
			compositionErr = err
			return err
		}
		return nil
	})
	if err != nil {
		if compositionErr != nil && httpx.EngineError(w, compositionErr) {
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_update_recipe", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"id": rec.ID, "status": "updated"})
}

// Delete: POST /recipes/delete?id=... Refused while the recipe is used as a
// sub-recipe or ordered by an event still in play.
func (h *RecipeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var itemRefs int64
	if err := h.DB.Model(&models.RecipeItem{}).Where("child_recipe_id = ?", id).Count(&itemRefs).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_check_references", nil)
		return
	}
	var orderRefs int64
	if err := h.DB.Model(&models.EventOrder{}).
		Joins("JOIN events ON events.id = event_orders.event_id").
		Where("event_orders.recipe_id = ? AND events.status IN ?", id,
			[]string{models.EventDraft, models.EventConfirmed}).
		Count(&orderRefs).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_check_references", nil)
		return
	}
	if itemRefs > 0 || orderRefs > 0 {
		httpx.JSONError(w, http.StatusBadRequest, "recipe_in_use",
			map[string]int64{"recipe_items": itemRefs, "event_orders": orderRefs})
		return
	}
	res := h.DB.Delete(&models.Recipe{}, id)
	if res.Error != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_delete_recipe", nil)
		return
	}
	if res.RowsAffected == 0 {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
