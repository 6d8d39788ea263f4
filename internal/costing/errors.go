package costing

import (
	"fmt"
	"strconv"
	"strings"
)

// The engine treats every error below as a data-integrity fault: it propagates
// them unmodified and never substitutes a default or zero value, because a
// silently wrong number corrupts pricing and purchasing decisions downstream.

// InvalidIngredientDataError reports an ingredient whose cost parameters make
// any derived cost meaningless.
type InvalidIngredientDataError struct {
	IngredientID uint
	Reason       string
}

func (e *InvalidIngredientDataError) Error() string {
	return fmt.Sprintf("ingredient %d: %s", e.IngredientID, e.Reason)
}

// IncompatibleUnitsError reports a conversion between units not linked by any
// declared ratio (e.g. mass to volume).
type IncompatibleUnitsError struct {
	FromUnit string
	ToUnit   string
}

func (e *IncompatibleUnitsError) Error() string {
	return fmt.Sprintf("no conversion path from %q to %q", e.FromUnit, e.ToUnit)
}

// CyclicRecipeError reports a recipe that reaches itself through sub-recipe
// items. Path holds the ids on the recursion stack, the offending id repeated
// last.
type CyclicRecipeError struct {
	Path []uint
}

func (e *CyclicRecipeError) Error() string {
	parts := make([]string, len(e.Path))
	for i, id := range e.Path {
		parts[i] = strconv.FormatUint(uint64(id), 10)
	}
	return "cyclic recipe composition: " + strings.Join(parts, " -> ")
}

// DanglingReferenceError reports a reference to a deleted or never-existing
// entity. Kind is one of "ingredient", "recipe", "unit".
type DanglingReferenceError struct {
	Kind string
	ID   uint
}

func (e *DanglingReferenceError) Error() string {
	return fmt.Sprintf("dangling reference: %s %d not found", e.Kind, e.ID)
}

// DepthLimitExceededError reports the defensive recursion cutoff, a backstop
// for pathological composition that explicit cycle detection did not classify.
type DepthLimitExceededError struct {
	Limit    int
	RecipeID uint
}

func (e *DepthLimitExceededError) Error() string {
	return fmt.Sprintf("recipe %d: recursion depth limit %d exceeded", e.RecipeID, e.Limit)
}
