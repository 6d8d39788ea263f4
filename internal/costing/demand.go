package costing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/drevalle/caterops/internal/models"
)

// IngredientDemand accumulates the required quantity of one ingredient, in
// its usage unit.
type IngredientDemand struct {
	IngredientID  uint            `json:"id"`
	Name          string          `json:"name"`
	SKU           string          `json:"sku,omitempty"`
	Category      string          `json:"category,omitempty"`
	UnitID        uint            `json:"unit_id"`
	Unit          string          `json:"unit"`
	TotalRequired decimal.Decimal `json:"total_required"`
	Events        []string        `json:"events"`
}

// SubRecipeDemand accumulates the required quantity of one sub-recipe, in its
// yield unit. The quantity is absolute: it stays on the prep sheet even
// though the expansion also unpacks it into raw ingredients.
type SubRecipeDemand struct {
	RecipeID      uint            `json:"id"`
	Name          string          `json:"name"`
	UnitID        uint            `json:"unit_id,omitempty"`
	Unit          string          `json:"unit"`
	TotalQuantity decimal.Decimal `json:"total_quantity"`
	Events        []string        `json:"events"`
}

// Demand is the accumulated expansion of one or more events.
type Demand struct {
	Ingredients map[uint]*IngredientDemand
	SubRecipes  map[uint]*SubRecipeDemand
}

func NewDemand() *Demand {
	return &Demand{
		Ingredients: map[uint]*IngredientDemand{},
		SubRecipes:  map[uint]*SubRecipeDemand{},
	}
}

// DemandExpander walks the same item graph as the cost engine but accumulates
// quantities instead of costs.
type DemandExpander struct {
	snap     Snapshot
	conv     *Converter
	maxDepth int
}

func NewDemandExpander(snap Snapshot, maxDepth int) *DemandExpander {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &DemandExpander{snap: snap, conv: NewConverter(snap), maxDepth: maxDepth}
}

// Expand computes the full ingredient and sub-recipe demand of one event.
func (x *DemandExpander) Expand(ev *models.Event) (*Demand, error) {
	d := NewDemand()
	if err := x.ExpandInto(d, ev); err != nil {
		return nil, err
	}
	return d, nil
}

// ExpandInto accumulates an event's demand into d, so callers can merge
// several events without a second pass. Summation is commutative, so the
// event order never changes the totals.
func (x *DemandExpander) ExpandInto(d *Demand, ev *models.Event) error {
	for i := range ev.Orders {
		order := &ev.Orders[i]
		rec, err := x.recipe(order.RecipeID)
		if err != nil {
			return err
		}
		w := &demandWalk{expander: x, demand: d, event: ev.Name, onStack: map[uint]bool{}}
		// Ordering mise-en-place directly is allowed; a sub_recipe-typed
		// order lands on the prep sheet like any nested sub-recipe.
		if err := w.explode(rec, order.Quantity, rec.RecipeType == models.RecipeSubRecipe); err != nil {
			return err
		}
	}
	return nil
}

type demandWalk struct {
	expander *DemandExpander
	demand   *Demand
	event    string
	onStack  map[uint]bool
	path     []uint
}

// explode accumulates the demand of `needed` yield units of rec. asPrep marks
// recipes that belong on the prep sheet: every recipe reached through a
// sub-recipe item, plus top-level sub_recipe-typed orders.
func (w *demandWalk) explode(rec *models.Recipe, needed decimal.Decimal, asPrep bool) error {
	if w.onStack[rec.ID] {
		cycle := append(append([]uint{}, w.path...), rec.ID)
		return &CyclicRecipeError{Path: cycle}
	}
	if len(w.path) >= w.expander.maxDepth {
		return &DepthLimitExceededError{Limit: w.expander.maxDepth, RecipeID: rec.ID}
	}
	if !rec.YieldQuantity.IsPositive() {
		return fmt.Errorf("recipe %d: yield quantity must be positive", rec.ID)
	}

	if asPrep {
		if err := w.recordPrep(rec, needed); err != nil {
			return err
		}
	}

	w.onStack[rec.ID] = true
	w.path = append(w.path, rec.ID)
	defer func() {
		delete(w.onStack, rec.ID)
		w.path = w.path[:len(w.path)-1]
	}()

	factor := needed.Div(rec.YieldQuantity)
	for i := range rec.Items {
		it := &rec.Items[i]
		ref, err := it.Ref()
		if err != nil {
			return fmt.Errorf("recipe %d item %d: %w", rec.ID, it.ID, err)
		}
		scaled := it.Quantity.Mul(factor)

		switch ref.Kind {
		case models.RefIngredient:
			if err := w.recordIngredient(ref.ID, scaled, it.UnitID); err != nil {
				return err
			}
		case models.RefSubRecipe:
			child, err := w.expander.recipe(ref.ID)
			if err != nil {
				return err
			}
			if err := w.explode(child, scaled, true); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *demandWalk) recordIngredient(id uint, qty decimal.Decimal, unitID uint) error {
	ing, err := w.expander.snap.Ingredient(id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return &DanglingReferenceError{Kind: "ingredient", ID: id}
		}
		return err
	}
	usageQty, err := w.expander.conv.ToUsageUnit(qty, unitID, ing)
	if err != nil {
		return err
	}

	agg, ok := w.demand.Ingredients[id]
	if !ok {
		unitName := ""
		if u, err := w.expander.snap.Unit(ing.UsageUnitID); err == nil {
			unitName = u.Abbreviation
		}
		agg = &IngredientDemand{
			IngredientID:  id,
			Name:          ing.Name,
			SKU:           ing.SKU,
			Category:      ing.Category,
			UnitID:        ing.UsageUnitID,
			Unit:          unitName,
			TotalRequired: decimal.Zero,
		}
		w.demand.Ingredients[id] = agg
	}
	agg.TotalRequired = agg.TotalRequired.Add(usageQty)
	agg.Events = appendUnique(agg.Events, w.event)
	return nil
}

func (w *demandWalk) recordPrep(rec *models.Recipe, needed decimal.Decimal) error {
	agg, ok := w.demand.SubRecipes[rec.ID]
	if !ok {
		unitName := "units"
		if rec.YieldUnitID != 0 {
			if u, err := w.expander.snap.Unit(rec.YieldUnitID); err == nil {
				unitName = u.Abbreviation
			}
		}
		agg = &SubRecipeDemand{
			RecipeID:      rec.ID,
			Name:          rec.Name,
			UnitID:        rec.YieldUnitID,
			Unit:          unitName,
			TotalQuantity: decimal.Zero,
		}
		w.demand.SubRecipes[rec.ID] = agg
	}
	agg.TotalQuantity = agg.TotalQuantity.Add(needed)
	agg.Events = appendUnique(agg.Events, w.event)
	return nil
}

func (x *DemandExpander) recipe(id uint) (*models.Recipe, error) {
	rec, err := x.snap.Recipe(id)
	if errors.Is(err, ErrNotFound) {
		return nil, &DanglingReferenceError{Kind: "recipe", ID: id}
	}
	return rec, err
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
