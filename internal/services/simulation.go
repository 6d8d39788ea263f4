package services

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/drevalle/caterops/internal/costing"
	"github.com/drevalle/caterops/internal/models"
)

// SimulationService answers "what if every ingredient in a category gets X%
// more expensive" by recomputing every recipe through the real engine over a
// cost-adjusted snapshot, so the impact propagates through nested sub-recipes
// instead of stopping at direct usages.
type SimulationService struct {
	db         *gorm.DB
	includeTax bool
	maxDepth   int
}

func NewSimulationService(db *gorm.DB, includeTax bool, maxDepth int) *SimulationService {
	return &SimulationService{db: db, includeTax: includeTax, maxDepth: maxDepth}
}

type RecipeImpact struct {
	RecipeID     uint            `json:"recipe_id"`
	Name         string          `json:"recipe_name"`
	OriginalCost decimal.Decimal `json:"original_cost"`
	NewCost      decimal.Decimal `json:"new_cost"`
	Increase     decimal.Decimal `json:"increase_amount"`
}

type InflationResult struct {
	Category            string         `json:"category"`
	Percentage          float64        `json:"percentage"`
	AffectedIngredients int            `json:"affected_ingredients"`
	Impacted            []RecipeImpact `json:"impacted_recipes"`
}

func (s *SimulationService) SimulateInflation(category string, percentage float64) (*InflationResult, error) {
	if category == "" {
		return nil, fmt.Errorf("category is required")
	}

	var ingredients []models.Ingredient
	if err := s.db.Find(&ingredients).Error; err != nil {
		return nil, err
	}
	var recipes []models.Recipe
	if err := s.db.Preload("Items").Find(&recipes).Error; err != nil {
		return nil, err
	}
	var units []models.Unit
	if err := s.db.Find(&units).Error; err != nil {
		return nil, err
	}

	multiplier := decimal.NewFromFloat(1 + percentage/100)
	baseline := costing.NewMapSnapshot()
	adjusted := costing.NewMapSnapshot()
	affected := 0
	for i := range ingredients {
		ing := ingredients[i]
		baseline.AddIngredient(&ing)
		if ing.Category == category {
			bumped := ing
			bumped.CurrentCost = ing.CurrentCost.Mul(multiplier)
			adjusted.AddIngredient(&bumped)
			affected++
		} else {
			adjusted.AddIngredient(&ing)
		}
	}
	for i := range recipes {
		baseline.AddRecipe(&recipes[i])
		adjusted.AddRecipe(&recipes[i])
	}
	for i := range units {
		baseline.AddUnit(&units[i])
		adjusted.AddUnit(&units[i])
	}

	result := &InflationResult{
		Category:            category,
		Percentage:          percentage,
		AffectedIngredients: affected,
		Impacted:            []RecipeImpact{},
	}
	if affected == 0 {
		return result, nil
	}

	resolver := &costing.CostResolver{IncludeTax: s.includeTax}
	baseEngine := costing.NewCostEngine(baseline, resolver, s.maxDepth)
	adjEngine := costing.NewCostEngine(adjusted, resolver, s.maxDepth)

	for i := range recipes {
		id := recipes[i].ID
		base, err := baseEngine.Cost(id)
		if err != nil {
			return nil, err
		}
		adj, err := adjEngine.Cost(id)
		if err != nil {
			return nil, err
		}
		if adj.TotalCost.Equal(base.TotalCost) {
			continue
		}
		result.Impacted = append(result.Impacted, RecipeImpact{
			RecipeID:     id,
			Name:         recipes[i].Name,
			OriginalCost: base.TotalCost,
			NewCost:      adj.TotalCost,
			Increase:     adj.TotalCost.Sub(base.TotalCost),
		})
	}
	sort.Slice(result.Impacted, func(i, j int) bool {
		return result.Impacted[i].Increase.GreaterThan(result.Impacted[j].Increase)
	})
	return result, nil
}
