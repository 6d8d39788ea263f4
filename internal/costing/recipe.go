package costing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/drevalle/caterops/internal/models"
)

// DefaultMaxDepth bounds recipe recursion as a backstop on top of explicit
// cycle detection.
const DefaultMaxDepth = 50

// CostEngine rolls up the cost of a recipe tree: ingredients and nested
// sub-recipes, depth-first, all arithmetic in decimals with no intermediate
// rounding.
type CostEngine struct {
	snap     Snapshot
	conv     *Converter
	resolver *CostResolver
	maxDepth int
}

func NewCostEngine(snap Snapshot, resolver *CostResolver, maxDepth int) *CostEngine {
	if resolver == nil {
		resolver = &CostResolver{}
	}
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &CostEngine{snap: snap, conv: NewConverter(snap), resolver: resolver, maxDepth: maxDepth}
}

// ItemCost is one line of a recipe cost breakdown.
type ItemCost struct {
	ItemID   uint            `json:"item_id"`
	Kind     string          `json:"kind"` // "ingredient" or "recipe"
	RefID    uint            `json:"ref_id"`
	Name     string          `json:"name"`
	Quantity decimal.Decimal `json:"quantity"`
	UnitID   uint            `json:"unit_id"`
	Cost     decimal.Decimal `json:"cost"`
}

// RecipeCost is the rolled-up result for one recipe. Nothing here is ever
// persisted: it always reflects current ingredient costs.
type RecipeCost struct {
	RecipeID       uint            `json:"recipe_id"`
	Name           string          `json:"name"`
	TotalCost      decimal.Decimal `json:"total_cost"`
	CostPerPortion decimal.Decimal `json:"cost_per_portion"`
	SuggestedPrice decimal.Decimal `json:"suggested_price"`
	Items          []ItemCost      `json:"items"`
}

// Cost computes the total cost, cost per portion and suggested price of the
// recipe, recursing through sub-recipe items.
func (e *CostEngine) Cost(recipeID uint) (*RecipeCost, error) {
	w := &costWalk{engine: e, onStack: map[uint]bool{}}
	return w.cost(recipeID)
}

// costWalk carries the per-computation recursion state: the set of recipe ids
// currently on the stack plus the ordered path for cycle reporting.
type costWalk struct {
	engine  *CostEngine
	onStack map[uint]bool
	path    []uint
}

func (w *costWalk) cost(recipeID uint) (*RecipeCost, error) {
	if w.onStack[recipeID] {
		cycle := append(append([]uint{}, w.path...), recipeID)
		return nil, &CyclicRecipeError{Path: cycle}
	}
	if len(w.path) >= w.engine.maxDepth {
		return nil, &DepthLimitExceededError{Limit: w.engine.maxDepth, RecipeID: recipeID}
	}

	rec, err := w.engine.snap.Recipe(recipeID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, &DanglingReferenceError{Kind: "recipe", ID: recipeID}
		}
		return nil, err
	}
	if !rec.YieldQuantity.IsPositive() {
		return nil, fmt.Errorf("recipe %d: yield quantity must be positive", rec.ID)
	}
	if rec.TargetMargin < 0 || rec.TargetMargin > 0.99 {
		return nil, fmt.Errorf("recipe %d: target margin must be in [0, 0.99]", rec.ID)
	}

	w.onStack[recipeID] = true
	w.path = append(w.path, recipeID)
	defer func() {
		delete(w.onStack, recipeID)
		w.path = w.path[:len(w.path)-1]
	}()

	total := decimal.Zero
	items := make([]ItemCost, 0, len(rec.Items))
	for i := range rec.Items {
		line, err := w.itemCost(rec, &rec.Items[i])
		if err != nil {
			return nil, err
		}
		total = total.Add(line.Cost)
		items = append(items, line)
	}

	cpp := total.Div(rec.YieldQuantity)
	price := cpp.Div(decimal.NewFromFloat(1 - rec.TargetMargin))
	return &RecipeCost{
		RecipeID:       rec.ID,
		Name:           rec.Name,
		TotalCost:      total,
		CostPerPortion: cpp,
		SuggestedPrice: price,
		Items:          items,
	}, nil
}

func (w *costWalk) itemCost(rec *models.Recipe, it *models.RecipeItem) (ItemCost, error) {
	ref, err := it.Ref()
	if err != nil {
		return ItemCost{}, fmt.Errorf("recipe %d item %d: %w", rec.ID, it.ID, err)
	}
	line := ItemCost{ItemID: it.ID, RefID: ref.ID, Quantity: it.Quantity, UnitID: it.UnitID}

	switch ref.Kind {
	case models.RefIngredient:
		ing, err := w.engine.snap.Ingredient(ref.ID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return ItemCost{}, &DanglingReferenceError{Kind: "ingredient", ID: ref.ID}
			}
			return ItemCost{}, err
		}
		qty, err := w.engine.conv.ToUsageUnit(it.Quantity, it.UnitID, ing)
		if err != nil {
			return ItemCost{}, err
		}
		per, err := w.engine.resolver.CostPerUsageUnit(ing)
		if err != nil {
			return ItemCost{}, err
		}
		line.Kind = "ingredient"
		line.Name = ing.Name
		line.Cost = qty.Mul(per)

	case models.RefSubRecipe:
		// Item quantity is expressed in the child's yield units, so the cost
		// per yield unit times the quantity is the line cost.
		child, err := w.cost(ref.ID)
		if err != nil {
			return ItemCost{}, err
		}
		line.Kind = "recipe"
		line.Name = child.Name
		line.Cost = child.CostPerPortion.Mul(it.Quantity)
	}
	return line, nil
}
