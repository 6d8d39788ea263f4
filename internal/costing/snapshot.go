package costing

import (
	"errors"

	"github.com/drevalle/caterops/internal/models"
)

// ErrNotFound is returned by Snapshot implementations for missing entities.
// The engine maps it to a DanglingReferenceError naming the reference.
var ErrNotFound = errors.New("not found")

// Snapshot is an immutable read view of the catalog a computation runs over.
// All engine operations are pure functions of a Snapshot: no caching of
// derived costs, no mutation, so concurrent computations need no locking.
type Snapshot interface {
	Ingredient(id uint) (*models.Ingredient, error)
	// Recipe returns the recipe with its Items loaded.
	Recipe(id uint) (*models.Recipe, error)
	Unit(id uint) (*models.Unit, error)
}

// MapSnapshot is an in-memory Snapshot. Tests build fixtures with it, and the
// inflation simulation overlays adjusted ingredient costs on one.
type MapSnapshot struct {
	Ingredients map[uint]*models.Ingredient
	Recipes     map[uint]*models.Recipe
	Units       map[uint]*models.Unit
}

func NewMapSnapshot() *MapSnapshot {
	return &MapSnapshot{
		Ingredients: map[uint]*models.Ingredient{},
		Recipes:     map[uint]*models.Recipe{},
		Units:       map[uint]*models.Unit{},
	}
}

func (s *MapSnapshot) Ingredient(id uint) (*models.Ingredient, error) {
	if ing, ok := s.Ingredients[id]; ok {
		return ing, nil
	}
	return nil, ErrNotFound
}

func (s *MapSnapshot) Recipe(id uint) (*models.Recipe, error) {
	if rec, ok := s.Recipes[id]; ok {
		return rec, nil
	}
	return nil, ErrNotFound
}

func (s *MapSnapshot) Unit(id uint) (*models.Unit, error) {
	if u, ok := s.Units[id]; ok {
		return u, nil
	}
	return nil, ErrNotFound
}

func (s *MapSnapshot) AddIngredient(ing *models.Ingredient) { s.Ingredients[ing.ID] = ing }
func (s *MapSnapshot) AddRecipe(rec *models.Recipe)         { s.Recipes[rec.ID] = rec }
func (s *MapSnapshot) AddUnit(u *models.Unit)               { s.Units[u.ID] = u }
