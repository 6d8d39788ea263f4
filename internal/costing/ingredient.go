package costing

import (
	"github.com/shopspring/decimal"

	"github.com/drevalle/caterops/internal/models"
)

// CostResolver computes the effective cost of one usage unit of an
// ingredient, folding in yield loss:
//
//	costPerUsageUnit = currentCost / conversionRatio / yieldFactor
//
// IncludeTax additionally folds the ingredient's tax rate into the cost. The
// source data never settles whether tax belongs in cost or in downstream
// pricing, so it is an explicit configuration choice (COST_INCLUDE_TAX),
// defaulting to cost without tax.
type CostResolver struct {
	IncludeTax bool
}

func (r *CostResolver) CostPerUsageUnit(ing *models.Ingredient) (decimal.Decimal, error) {
	if !ing.ConversionRatio.IsPositive() {
		return decimal.Zero, &InvalidIngredientDataError{IngredientID: ing.ID, Reason: "conversion ratio must be positive"}
	}
	if ing.YieldFactor <= 0 || ing.YieldFactor > 1 {
		return decimal.Zero, &InvalidIngredientDataError{IngredientID: ing.ID, Reason: "yield factor must be in (0, 1]"}
	}
	if ing.CurrentCost.IsNegative() {
		return decimal.Zero, &InvalidIngredientDataError{IngredientID: ing.ID, Reason: "current cost must not be negative"}
	}
	cost := ing.CurrentCost.
		Div(ing.ConversionRatio).
		Div(decimal.NewFromFloat(ing.YieldFactor))
	if r.IncludeTax && ing.TaxRate > 0 {
		cost = cost.Mul(decimal.NewFromFloat(1 + ing.TaxRate))
	}
	return cost, nil
}
