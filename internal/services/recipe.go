package services

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/drevalle/caterops/internal/costing"
	"github.com/drevalle/caterops/internal/models"
)

// RecipeService runs cost rollups and scaling over the live catalog. Costs
// are recomputed on every read; nothing derived is ever persisted.
type RecipeService struct {
	db         *gorm.DB
	includeTax bool
	maxDepth   int
}

func NewRecipeService(db *gorm.DB, includeTax bool, maxDepth int) *RecipeService {
	return &RecipeService{db: db, includeTax: includeTax, maxDepth: maxDepth}
}

func (s *RecipeService) engine(snap costing.Snapshot) *costing.CostEngine {
	return costing.NewCostEngine(snap, &costing.CostResolver{IncludeTax: s.includeTax}, s.maxDepth)
}

// Cost computes the current rollup for one recipe.
func (s *RecipeService) Cost(recipeID uint) (*costing.RecipeCost, error) {
	return s.engine(newSnapshot(s.db)).Cost(recipeID)
}

// CostAll computes rollups for a list of recipes over one shared snapshot,
// for the list view.
func (s *RecipeService) CostAll(recipeIDs []uint) (map[uint]*costing.RecipeCost, error) {
	engine := s.engine(newSnapshot(s.db))
	out := make(map[uint]*costing.RecipeCost, len(recipeIDs))
	for _, id := range recipeIDs {
		rc, err := engine.Cost(id)
		if err != nil {
			return nil, err
		}
		out[id] = rc
	}
	return out, nil
}

// logScalingExponent dampens quantities that must not grow linearly with
// batch size (salt, spices): new = old * factor^0.85, applied when scaling up.
const logScalingExponent = 0.85

type ScaledItem struct {
	ItemID           uint            `json:"item_id"`
	Name             string          `json:"name"`
	Kind             string          `json:"kind"`
	OriginalQuantity decimal.Decimal `json:"original_quantity"`
	NewQuantity      decimal.Decimal `json:"new_quantity"`
	UnitID           uint            `json:"unit_id"`
	ScalingType      string          `json:"scaling_type"`
}

type ScaledRecipe struct {
	RecipeID      uint            `json:"recipe_id"`
	Name          string          `json:"name"`
	OriginalYield decimal.Decimal `json:"original_yield"`
	TargetYield   decimal.Decimal `json:"target_yield"`
	Factor        decimal.Decimal `json:"scaling_factor"`
	Items         []ScaledItem    `json:"items"`
}

// Scale resizes a recipe to a target yield. Ingredient lines marked
// logarithmic scale as factor^0.85 when scaling up; items flagged not
// scalable keep their quantity; everything else, sub-recipes included, scales
// linearly.
func (s *RecipeService) Scale(recipeID uint, target decimal.Decimal) (*ScaledRecipe, error) {
	if !target.IsPositive() {
		return nil, fmt.Errorf("target yield must be positive")
	}
	snap := newSnapshot(s.db)
	rec, err := snap.Recipe(recipeID)
	if err != nil {
		return nil, err
	}
	if !rec.YieldQuantity.IsPositive() {
		return nil, fmt.Errorf("recipe %d: yield quantity must be positive", rec.ID)
	}

	factor := target.Div(rec.YieldQuantity)
	scalingUp := factor.GreaterThan(decimal.NewFromInt(1))
	out := &ScaledRecipe{
		RecipeID:      rec.ID,
		Name:          rec.Name,
		OriginalYield: rec.YieldQuantity,
		TargetYield:   target,
		Factor:        factor,
		Items:         make([]ScaledItem, 0, len(rec.Items)),
	}

	for i := range rec.Items {
		it := &rec.Items[i]
		ref, err := it.Ref()
		if err != nil {
			return nil, fmt.Errorf("recipe %d item %d: %w", rec.ID, it.ID, err)
		}
		line := ScaledItem{
			ItemID:           it.ID,
			OriginalQuantity: it.Quantity,
			UnitID:           it.UnitID,
			ScalingType:      models.ScalingLinear,
		}

		logarithmic := false
		switch ref.Kind {
		case models.RefIngredient:
			ing, err := snap.Ingredient(ref.ID)
			if err != nil {
				if errors.Is(err, costing.ErrNotFound) {
					return nil, &costing.DanglingReferenceError{Kind: "ingredient", ID: ref.ID}
				}
				return nil, err
			}
			line.Kind = "ingredient"
			line.Name = ing.Name
			logarithmic = ing.ScalingType == models.ScalingLogarithmic
		case models.RefSubRecipe:
			child, err := snap.Recipe(ref.ID)
			if err != nil {
				if errors.Is(err, costing.ErrNotFound) {
					return nil, &costing.DanglingReferenceError{Kind: "recipe", ID: ref.ID}
				}
				return nil, err
			}
			line.Kind = "recipe"
			line.Name = child.Name
		}

		switch {
		case !it.IsScalable:
			line.NewQuantity = it.Quantity
			line.ScalingType = "fixed"
		case logarithmic && scalingUp:
			f, _ := factor.Float64()
			damped := decimal.NewFromFloat(math.Pow(f, logScalingExponent))
			line.NewQuantity = it.Quantity.Mul(damped)
			line.ScalingType = models.ScalingLogarithmic
		default:
			line.NewQuantity = it.Quantity.Mul(factor)
		}
		out.Items = append(out.Items, line)
	}
	return out, nil
}
