package costing

import (
	"errors"
	"testing"
	"time"

	"github.com/drevalle/caterops/internal/models"
)

// cateringSnapshot: Bread (sub-recipe, yields 10) from 500 g flour; Sandwich
// (final dish, yields 1) from 2 bread portions + 40 g ham.
func cateringSnapshot() *MapSnapshot {
	s := breadSnapshot()
	s.AddIngredient(&models.Ingredient{ID: 2, Name: "Ham", Category: "Meats",
		PurchaseUnitID: unitKilo, UsageUnitID: unitGram,
		ConversionRatio: d("1000"), CurrentCost: d("5.00"), YieldFactor: 1.0})
	s.AddRecipe(&models.Recipe{
		ID: 20, Name: "Sandwich", RecipeType: models.RecipeFinalDish,
		YieldQuantity: d("1"), TargetMargin: 0.5,
		Items: []models.RecipeItem{
			{ID: 201, ParentRecipeID: 20, ChildRecipeID: uintPtr(10), Quantity: d("2"), UnitID: unitPc},
			{ID: 202, ParentRecipeID: 20, IngredientID: uintPtr(2), Quantity: d("40"), UnitID: unitGram},
		},
	})
	return s
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func sandwichOrder(qty string) []models.EventOrder {
	return []models.EventOrder{{RecipeID: 20, Quantity: d(qty)}}
}

func TestExpandEvent(t *testing.T) {
	snap := cateringSnapshot()
	x := NewDemandExpander(snap, 0)

	ev := &models.Event{ID: 1, Name: "Gala", Status: models.EventConfirmed,
		EventDate: day("2026-09-05"), GuestCount: 20, Orders: sandwichOrder("20")}
	demand, err := x.Expand(ev)
	if err != nil {
		t.Fatalf("expand: %v", err)
	}

	// 20 sandwiches -> 40 bread portions -> 4 batches -> 2000 g flour
	fl := demand.Ingredients[1]
	if fl == nil || !fl.TotalRequired.Equal(d("2000")) {
		t.Fatalf("flour demand: expected 2000 g, got %#v", fl)
	}
	if fl.Unit != "g" {
		t.Fatalf("flour unit: expected g, got %q", fl.Unit)
	}
	ham := demand.Ingredients[2]
	if ham == nil || !ham.TotalRequired.Equal(d("800")) {
		t.Fatalf("ham demand: expected 800 g, got %#v", ham)
	}

	// bread stays on the prep sheet with its absolute quantity
	bread := demand.SubRecipes[10]
	if bread == nil || !bread.TotalQuantity.Equal(d("40")) {
		t.Fatalf("bread prep: expected 40, got %#v", bread)
	}
	if len(bread.Events) != 1 || bread.Events[0] != "Gala" {
		t.Fatalf("bread events: %#v", bread.Events)
	}
}

func TestExpandDirectSubRecipeOrder(t *testing.T) {
	snap := cateringSnapshot()
	x := NewDemandExpander(snap, 0)

	// kitchens order mise-en-place directly
	ev := &models.Event{ID: 2, Name: "Prep day", Status: models.EventConfirmed,
		EventDate: day("2026-09-06"), GuestCount: 1,
		Orders: []models.EventOrder{{RecipeID: 10, Quantity: d("30")}}}
	demand, err := x.Expand(ev)
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	bread := demand.SubRecipes[10]
	if bread == nil || !bread.TotalQuantity.Equal(d("30")) {
		t.Fatalf("bread prep: expected 30, got %#v", bread)
	}
	if fl := demand.Ingredients[1]; fl == nil || !fl.TotalRequired.Equal(d("1500")) {
		t.Fatalf("flour: expected 1500 g, got %#v", fl)
	}
}

func TestExpandCycleFails(t *testing.T) {
	s := newTestSnapshot()
	s.AddRecipe(&models.Recipe{ID: 1, Name: "A", YieldQuantity: d("1"),
		Items: []models.RecipeItem{{ID: 11, ParentRecipeID: 1, ChildRecipeID: uintPtr(2), Quantity: d("1"), UnitID: unitPc}}})
	s.AddRecipe(&models.Recipe{ID: 2, Name: "B", YieldQuantity: d("1"),
		Items: []models.RecipeItem{{ID: 22, ParentRecipeID: 2, ChildRecipeID: uintPtr(1), Quantity: d("1"), UnitID: unitPc}}})

	x := NewDemandExpander(s, 0)
	ev := &models.Event{ID: 1, Name: "Oops", Orders: []models.EventOrder{{RecipeID: 1, Quantity: d("1")}}}
	_, err := x.Expand(ev)
	var ce *CyclicRecipeError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CyclicRecipeError, got %v", err)
	}
}

func TestAggregateFiltersStatusAndRange(t *testing.T) {
	snap := cateringSnapshot()
	agg := NewAggregator(snap, Policy{}, 0)

	events := []*models.Event{
		{ID: 1, Name: "E1", Status: models.EventConfirmed, EventDate: day("2026-09-05"), GuestCount: 20, Orders: sandwichOrder("20")},
		{ID: 2, Name: "E2", Status: models.EventDraft, EventDate: day("2026-09-06"), GuestCount: 5, Orders: sandwichOrder("5")},
		{ID: 3, Name: "E3", Status: models.EventConfirmed, EventDate: day("2026-10-01"), GuestCount: 50, Orders: sandwichOrder("50")},
		{ID: 4, Name: "E4", Status: models.EventCancelled, EventDate: day("2026-09-05"), GuestCount: 5, Orders: sandwichOrder("5")},
	}
	plan, err := agg.Aggregate(day("2026-09-01"), day("2026-09-30"), events)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if len(plan.Events) != 1 || plan.Events[0].ID != 1 {
		t.Fatalf("expected only E1, got %#v", plan.Events)
	}
	// only E1's 20 sandwiches: 2000 g flour
	if len(plan.Ingredients) != 2 {
		t.Fatalf("expected 2 ingredient lines, got %d", len(plan.Ingredients))
	}
	if !plan.Ingredients[0].TotalRequired.Equal(d("2000")) {
		t.Fatalf("flour: expected 2000, got %s", plan.Ingredients[0].TotalRequired)
	}
}

func TestAggregateCompletedPolicy(t *testing.T) {
	snap := cateringSnapshot()
	events := []*models.Event{
		{ID: 1, Name: "Past", Status: models.EventCompleted, EventDate: day("2026-09-05"), GuestCount: 10, Orders: sandwichOrder("10")},
	}

	plan, err := NewAggregator(snap, Policy{}, 0).Aggregate(day("2026-09-01"), day("2026-09-30"), events)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if len(plan.Events) != 0 {
		t.Fatalf("completed events excluded by default, got %#v", plan.Events)
	}

	plan, err = NewAggregator(snap, Policy{IncludeCompleted: true}, 0).Aggregate(day("2026-09-01"), day("2026-09-30"), events)
	if err != nil {
		t.Fatalf("aggregate with policy: %v", err)
	}
	if len(plan.Events) != 1 {
		t.Fatalf("completed events included with policy, got %#v", plan.Events)
	}
}

func TestAggregateCommutative(t *testing.T) {
	snap := cateringSnapshot()
	agg := NewAggregator(snap, Policy{}, 0)
	e1 := &models.Event{ID: 1, Name: "E1", Status: models.EventConfirmed, EventDate: day("2026-09-05"), GuestCount: 20, Orders: sandwichOrder("20")}
	e2 := &models.Event{ID: 2, Name: "E2", Status: models.EventConfirmed, EventDate: day("2026-09-06"), GuestCount: 8, Orders: sandwichOrder("8")}

	a, err := agg.Aggregate(day("2026-09-01"), day("2026-09-30"), []*models.Event{e1, e2})
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	b, err := agg.Aggregate(day("2026-09-01"), day("2026-09-30"), []*models.Event{e2, e1})
	if err != nil {
		t.Fatalf("aggregate reversed: %v", err)
	}
	if len(a.Ingredients) != len(b.Ingredients) {
		t.Fatalf("line count differs: %d vs %d", len(a.Ingredients), len(b.Ingredients))
	}
	for i := range a.Ingredients {
		if !a.Ingredients[i].TotalRequired.Equal(b.Ingredients[i].TotalRequired) {
			t.Fatalf("ingredient %d differs by event order", a.Ingredients[i].IngredientID)
		}
	}
	for i := range a.SubRecipes {
		if !a.SubRecipes[i].TotalQuantity.Equal(b.SubRecipes[i].TotalQuantity) {
			t.Fatalf("sub-recipe %d differs by event order", a.SubRecipes[i].RecipeID)
		}
	}
}

func TestAggregateStockNetting(t *testing.T) {
	snap := cateringSnapshot()
	// 5 kg of flour on hand = 5000 g in usage units
	snap.Ingredients[1].StockQuantity = d("5")
	agg := NewAggregator(snap, Policy{}, 0)

	// 120 sandwiches -> 240 bread portions -> 24 batches -> 12000 g flour
	events := []*models.Event{
		{ID: 1, Name: "Big one", Status: models.EventConfirmed, EventDate: day("2026-09-05"), GuestCount: 120, Orders: sandwichOrder("120")},
	}
	plan, err := agg.Aggregate(day("2026-09-01"), day("2026-09-30"), events)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	fl := plan.Ingredients[0]
	if !fl.TotalRequired.Equal(d("12000")) || !fl.Stock.Equal(d("5000")) || !fl.ToBuy.Equal(d("7000")) {
		t.Fatalf("netting: required=%s stock=%s toBuy=%s", fl.TotalRequired, fl.Stock, fl.ToBuy)
	}

	// with 20 kg on hand the flour drops off the shopping list but stays on
	// the plan
	snap.Ingredients[1].StockQuantity = d("20")
	plan, err = agg.Aggregate(day("2026-09-01"), day("2026-09-30"), events)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	fl = plan.Ingredients[0]
	if !fl.ToBuy.IsZero() {
		t.Fatalf("expected toBuy 0, got %s", fl.ToBuy)
	}
	for _, line := range plan.ShoppingList() {
		if line.IngredientID == 1 {
			t.Fatal("fully stocked flour must not appear on the shopping list")
		}
	}
	if len(plan.Ingredients) != 2 {
		t.Fatalf("plan keeps all ingredient totals, got %d", len(plan.Ingredients))
	}
	for _, line := range plan.ShoppingList() {
		if line.ToBuy.IsNegative() {
			t.Fatalf("toBuy must never be negative: %s", line.ToBuy)
		}
	}
}

func TestAggregateEmptyRange(t *testing.T) {
	agg := NewAggregator(cateringSnapshot(), Policy{}, 0)
	plan, err := agg.Aggregate(day("2026-01-01"), day("2026-01-31"), nil)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if len(plan.Events) != 0 || len(plan.Ingredients) != 0 || len(plan.SubRecipes) != 0 {
		t.Fatalf("expected empty plan, got %#v", plan)
	}
}
