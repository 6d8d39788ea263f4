package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/drevalle/caterops/internal/costing"
	"github.com/drevalle/caterops/internal/httpx"
	"github.com/drevalle/caterops/internal/models"
)

// IngredientHandler serves the ingredient catalog. Cost changes append a
// price history row so inflation stays traceable.
type IngredientHandler struct {
	DB       *gorm.DB
	Resolver *costing.CostResolver
}

func NewIngredientHandler(db *gorm.DB, resolver *costing.CostResolver) *IngredientHandler {
	if resolver == nil {
		resolver = &costing.CostResolver{}
	}
	return &IngredientHandler{DB: db, Resolver: resolver}
}

var searchSanitizer = regexp.MustCompile(`[^a-zA-Z0-9 \-_]`)

type ingredientView struct {
	models.Ingredient
	RealCostPerUsageUnit *decimal.Decimal `json:"real_cost_per_usage_unit,omitempty"`
	CostError            string           `json:"cost_error,omitempty"`
}

func (h *IngredientHandler) view(ing models.Ingredient) ingredientView {
	v := ingredientView{Ingredient: ing}
	cost, err := h.Resolver.CostPerUsageUnit(&ing)
	if err != nil {
		// list rendering skips the bad ingredient with a warning; the fault
		// still propagates wherever the cost feeds a computation
		v.CostError = err.Error()
		return v
	}
	v.RealCostPerUsageUnit = &cost
	return v
}

// List: GET /ingredients
func (h *IngredientHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	offset := 0
	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 1 {
			offset = (n - 1) * limit
		}
	}
	dbq := h.DB.Model(&models.Ingredient{})
	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		like := "%" + strings.ToLower(searchSanitizer.ReplaceAllString(q, "")) + "%"
		dbq = dbq.Where("lower(name) LIKE ? OR lower(sku) LIKE ?", like, like)
	}
	if cat := strings.TrimSpace(r.URL.Query().Get("category")); cat != "" {
		dbq = dbq.Where("category = ?", cat)
	}
	var total int64
	dbq.Count(&total)
	var ings []models.Ingredient
	if err := dbq.Order("name asc").Limit(limit).Offset(offset).Find(&ings).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_ingredients", nil)
		return
	}
	views := make([]ingredientView, 0, len(ings))
	for _, ing := range ings {
		views = append(views, h.view(ing))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": views, "total": total, "limit": limit, "offset": offset})
}

type ingredientReq struct {
	Name              string          `json:"name"`
	SKU               string          `json:"sku"`
	Description       string          `json:"description"`
	Category          string          `json:"category"`
	PurchaseUnitID    uint            `json:"purchase_unit_id"`
	UsageUnitID       uint            `json:"usage_unit_id"`
	ConversionRatio   decimal.Decimal `json:"conversion_ratio"`
	CurrentCost       decimal.Decimal `json:"current_cost"`
	YieldFactor       float64         `json:"yield_factor"`
	TaxRate           *float64        `json:"tax_rate"`
	StockQuantity     decimal.Decimal `json:"stock_quantity"`
	MinStockThreshold decimal.Decimal `json:"min_stock_threshold"`
	ScalingType       string          `json:"scaling_type"`
}

func (req *ingredientReq) validate(db *gorm.DB) map[string]string {
	problems := map[string]string{}
	if strings.TrimSpace(req.Name) == "" {
		problems["name"] = "required"
	}
	if !req.ConversionRatio.IsPositive() {
		problems["conversion_ratio"] = "must_be_positive"
	}
	if req.CurrentCost.IsNegative() {
		problems["current_cost"] = "must_not_be_negative"
	}
	if req.YieldFactor <= 0 || req.YieldFactor > 1 {
		problems["yield_factor"] = "must_be_in_(0,1]"
	}
	if req.ScalingType != "" && req.ScalingType != models.ScalingLinear && req.ScalingType != models.ScalingLogarithmic {
		problems["scaling_type"] = "unknown"
	}
	var count int64
	db.Model(&models.Unit{}).Where("id IN ?", []uint{req.PurchaseUnitID, req.UsageUnitID}).Count(&count)
	want := int64(2)
	if req.PurchaseUnitID == req.UsageUnitID {
		want = 1
	}
	if count != want {
		problems["units"] = "unknown_unit"
	}
	if len(problems) == 0 {
		return nil
	}
	return problems
}

// Create: POST /ingredients
func (h *IngredientHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ingredientReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if problems := req.validate(h.DB); problems != nil {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", problems)
		return
	}
	ing := models.Ingredient{
		Name:              strings.TrimSpace(req.Name),
		SKU:               strings.TrimSpace(req.SKU),
		Description:       req.Description,
		Category:          strings.TrimSpace(req.Category),
		PurchaseUnitID:    req.PurchaseUnitID,
		UsageUnitID:       req.UsageUnitID,
		ConversionRatio:   req.ConversionRatio,
		CurrentCost:       req.CurrentCost,
		YieldFactor:       req.YieldFactor,
		StockQuantity:     req.StockQuantity,
		MinStockThreshold: req.MinStockThreshold,
		ScalingType:       req.ScalingType,
	}
	if ing.ScalingType == "" {
		ing.ScalingType = models.ScalingLinear
	}
	if req.TaxRate != nil {
		ing.TaxRate = *req.TaxRate
	} else {
		ing.TaxRate = 0.21
	}
	if err := h.DB.Create(&ing).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_create_ingredient", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, h.view(ing))
}

// Update: POST /ingredients/update?id=... A cost change is logged to the
// price history inside the same transaction.
func (h *IngredientHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var ing models.Ingredient
	if err := h.DB.First(&ing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_ingredient", nil)
		return
	}
	var req ingredientReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if problems := req.validate(h.DB); problems != nil {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", problems)
		return
	}

	oldCost := ing.CurrentCost
	ing.Name = strings.TrimSpace(req.Name)
	ing.SKU = strings.TrimSpace(req.SKU)
	ing.Description = req.Description
	ing.Category = strings.TrimSpace(req.Category)
	ing.PurchaseUnitID = req.PurchaseUnitID
	ing.UsageUnitID = req.UsageUnitID
	ing.ConversionRatio = req.ConversionRatio
	ing.CurrentCost = req.CurrentCost
	ing.YieldFactor = req.YieldFactor
	ing.StockQuantity = req.StockQuantity
	ing.MinStockThreshold = req.MinStockThreshold
	if req.ScalingType != "" {
		ing.ScalingType = req.ScalingType
	}
	if req.TaxRate != nil {
		ing.TaxRate = *req.TaxRate
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&ing).Error; err != nil {
			return err
		}
		if !oldCost.Equal(ing.CurrentCost) {
			hist := models.IngredientPriceHistory{IngredientID: ing.ID, OldCost: oldCost, NewCost: ing.CurrentCost}
			if err := tx.Create(&hist).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_update_ingredient", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, h.view(ing))
}

// Delete: POST /ingredients/delete?id=... Refused while recipe items still
// reference the ingredient: deleting it would dangle every one of them.
func (h *IngredientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var refs int64
	if err := h.DB.Model(&models.RecipeItem{}).Where("ingredient_id = ?", id).Count(&refs).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_check_references", nil)
		return
	}
	if refs > 0 {
		httpx.JSONError(w, http.StatusBadRequest, "ingredient_in_use", map[string]int64{"recipe_items": refs})
		return
	}
	res := h.DB.Delete(&models.Ingredient{}, id)
	if res.Error != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_delete_ingredient", nil)
		return
	}
	if res.RowsAffected == 0 {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// LowStock: GET /ingredients/low-stock
func (h *IngredientHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	var ings []models.Ingredient
	if err := h.DB.Where("stock_quantity < min_stock_threshold").Order("name asc").Find(&ings).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_ingredients", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": ings, "total": len(ings)})
}

// History: GET /ingredients/history?id=...
func (h *IngredientHandler) History(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var rows []models.IngredientPriceHistory
	if err := h.DB.Where("ingredient_id = ?", id).Order("created_at desc").Find(&rows).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_history", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": rows})
}

// idParam parses the required id query parameter.
func idParam(w http.ResponseWriter, r *http.Request) (uint, bool) {
	idStr := r.URL.Query().Get("id")
	if idStr == "" {
		httpx.JSONError(w, http.StatusBadRequest, "missing_id", nil)
		return 0, false
	}
	id, err := strconv.Atoi(idStr)
	if err != nil || id <= 0 {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return 0, false
	}
	return uint(id), true
}
