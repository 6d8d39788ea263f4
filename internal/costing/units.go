package costing

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/drevalle/caterops/internal/models"
)

// Converter performs linear unit conversions. Units in the same category
// convert through the category base unit; the purchase and usage units of an
// ingredient additionally convert through the ingredient's declared ratio.
// Anything else is refused: approximating across categories would silently
// corrupt quantities.
type Converter struct {
	snap Snapshot
}

func NewConverter(snap Snapshot) *Converter {
	return &Converter{snap: snap}
}

// Convert converts qty from one unit to another via the unit table.
func (c *Converter) Convert(qty decimal.Decimal, fromID, toID uint) (decimal.Decimal, error) {
	if fromID == toID {
		return qty, nil
	}
	from, err := c.unit(fromID)
	if err != nil {
		return decimal.Zero, err
	}
	to, err := c.unit(toID)
	if err != nil {
		return decimal.Zero, err
	}
	if from.CategoryID != to.CategoryID || from.ConversionToBase <= 0 || to.ConversionToBase <= 0 {
		return decimal.Zero, &IncompatibleUnitsError{FromUnit: from.Abbreviation, ToUnit: to.Abbreviation}
	}
	return qty.Mul(decimal.NewFromFloat(from.ConversionToBase)).
		Div(decimal.NewFromFloat(to.ConversionToBase)), nil
}

// ToUsageUnit converts qty into the ingredient's usage unit. The ingredient's
// purchase unit converts by multiplying with the declared ratio even when the
// two units live in different categories (the ratio is the declared link).
func (c *Converter) ToUsageUnit(qty decimal.Decimal, fromID uint, ing *models.Ingredient) (decimal.Decimal, error) {
	switch fromID {
	case ing.UsageUnitID:
		return qty, nil
	case ing.PurchaseUnitID:
		if !ing.ConversionRatio.IsPositive() {
			return decimal.Zero, &InvalidIngredientDataError{IngredientID: ing.ID, Reason: "conversion ratio must be positive"}
		}
		return qty.Mul(ing.ConversionRatio), nil
	default:
		return c.Convert(qty, fromID, ing.UsageUnitID)
	}
}

// ToPurchaseUnit is the inverse direction: usage quantities divide by the
// ratio.
func (c *Converter) ToPurchaseUnit(qty decimal.Decimal, fromID uint, ing *models.Ingredient) (decimal.Decimal, error) {
	switch fromID {
	case ing.PurchaseUnitID:
		return qty, nil
	case ing.UsageUnitID:
		if !ing.ConversionRatio.IsPositive() {
			return decimal.Zero, &InvalidIngredientDataError{IngredientID: ing.ID, Reason: "conversion ratio must be positive"}
		}
		return qty.Div(ing.ConversionRatio), nil
	default:
		return c.Convert(qty, fromID, ing.PurchaseUnitID)
	}
}

func (c *Converter) unit(id uint) (*models.Unit, error) {
	u, err := c.snap.Unit(id)
	if errors.Is(err, ErrNotFound) {
		return nil, &DanglingReferenceError{Kind: "unit", ID: id}
	}
	return u, err
}
