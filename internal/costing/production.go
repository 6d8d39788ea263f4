package costing

import (
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/drevalle/caterops/internal/models"
)

// Policy decides which event statuses feed production aggregation. Confirmed
// events always count; whether completed events still matter for purchasing
// is a business choice, so it is a flag rather than a constant.
type Policy struct {
	IncludeCompleted bool
}

func (p Policy) Includes(status string) bool {
	switch status {
	case models.EventConfirmed:
		return true
	case models.EventCompleted:
		return p.IncludeCompleted
	default:
		return false
	}
}

// PlanEvent identifies one event that contributed to a plan.
type PlanEvent struct {
	ID     uint      `json:"id"`
	Name   string    `json:"name"`
	Date   time.Time `json:"date"`
	Guests int       `json:"guests"`
}

// IngredientLine is one ingredient of a production plan, netted against
// stock. Stock and ToBuy are in the ingredient's usage unit.
type IngredientLine struct {
	IngredientDemand
	Stock decimal.Decimal `json:"stock"`
	ToBuy decimal.Decimal `json:"to_buy"`
}

// Plan is the consolidated prep sheet and shopping input for a date range.
// It is computed on demand and never persisted.
type Plan struct {
	Start       time.Time         `json:"start"`
	End         time.Time         `json:"end"`
	Events      []PlanEvent       `json:"events"`
	SubRecipes  []SubRecipeDemand `json:"sub_recipes"`
	Ingredients []IngredientLine  `json:"ingredients"`
}

// Aggregator merges demand across events into a Plan.
type Aggregator struct {
	snap     Snapshot
	expander *DemandExpander
	policy   Policy
}

func NewAggregator(snap Snapshot, policy Policy, maxDepth int) *Aggregator {
	return &Aggregator{
		snap:     snap,
		expander: NewDemandExpander(snap, maxDepth),
		policy:   policy,
	}
}

// Aggregate filters events to the policy statuses and the inclusive
// [start, end] date range, expands each, and merges the totals. Zero matching
// events yield an empty plan, not an error. Totals are sums in a common unit,
// so the result does not depend on event order; the slices are sorted by id
// only to keep output stable.
func (a *Aggregator) Aggregate(start, end time.Time, events []*models.Event) (*Plan, error) {
	plan := &Plan{
		Start:       start,
		End:         end,
		Events:      []PlanEvent{},
		SubRecipes:  []SubRecipeDemand{},
		Ingredients: []IngredientLine{},
	}

	demand := NewDemand()
	for _, ev := range events {
		if !a.policy.Includes(ev.Status) {
			continue
		}
		if ev.EventDate.Before(start) || ev.EventDate.After(end) {
			continue
		}
		if err := a.expander.ExpandInto(demand, ev); err != nil {
			return nil, err
		}
		plan.Events = append(plan.Events, PlanEvent{
			ID:     ev.ID,
			Name:   ev.Name,
			Date:   ev.EventDate,
			Guests: ev.GuestCount,
		})
	}

	for id, d := range demand.Ingredients {
		stock, err := a.stockInUsageUnits(id)
		if err != nil {
			return nil, err
		}
		toBuy := d.TotalRequired.Sub(stock)
		if toBuy.IsNegative() {
			toBuy = decimal.Zero
		}
		plan.Ingredients = append(plan.Ingredients, IngredientLine{
			IngredientDemand: *d,
			Stock:            stock,
			ToBuy:            toBuy,
		})
	}
	for _, d := range demand.SubRecipes {
		plan.SubRecipes = append(plan.SubRecipes, *d)
	}

	sort.Slice(plan.Ingredients, func(i, j int) bool {
		return plan.Ingredients[i].IngredientID < plan.Ingredients[j].IngredientID
	})
	sort.Slice(plan.SubRecipes, func(i, j int) bool {
		return plan.SubRecipes[i].RecipeID < plan.SubRecipes[j].RecipeID
	})
	return plan, nil
}

// ShoppingList filters a plan down to the ingredients that actually need
// purchasing. Fully stocked ingredients stay on the plan but drop off the
// list.
func (p *Plan) ShoppingList() []IngredientLine {
	items := []IngredientLine{}
	for _, line := range p.Ingredients {
		if line.ToBuy.IsPositive() {
			items = append(items, line)
		}
	}
	return items
}

// stockInUsageUnits converts the on-hand amount, stored in purchase-unit
// terms, into the usage unit demand is accumulated in.
func (a *Aggregator) stockInUsageUnits(ingredientID uint) (decimal.Decimal, error) {
	ing, err := a.snap.Ingredient(ingredientID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return decimal.Zero, &DanglingReferenceError{Kind: "ingredient", ID: ingredientID}
		}
		return decimal.Zero, err
	}
	if !ing.ConversionRatio.IsPositive() {
		return decimal.Zero, &InvalidIngredientDataError{IngredientID: ing.ID, Reason: "conversion ratio must be positive"}
	}
	return ing.StockQuantity.Mul(ing.ConversionRatio), nil
}
