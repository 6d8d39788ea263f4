package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/drevalle/caterops/internal/costing"
	"github.com/drevalle/caterops/internal/models"
)

// dbSnapshot adapts gorm to costing.Snapshot. Entities are memoized per
// snapshot so one computation sees one consistent view and deep recipe trees
// do not refetch shared ingredients.
type dbSnapshot struct {
	db          *gorm.DB
	ingredients map[uint]*models.Ingredient
	recipes     map[uint]*models.Recipe
	units       map[uint]*models.Unit
	unitsLoaded bool
}

func newSnapshot(db *gorm.DB) *dbSnapshot {
	return &dbSnapshot{
		db:          db,
		ingredients: map[uint]*models.Ingredient{},
		recipes:     map[uint]*models.Recipe{},
		units:       map[uint]*models.Unit{},
	}
}

func (s *dbSnapshot) Ingredient(id uint) (*models.Ingredient, error) {
	if ing, ok := s.ingredients[id]; ok {
		return ing, nil
	}
	var ing models.Ingredient
	if err := s.db.First(&ing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, costing.ErrNotFound
		}
		return nil, err
	}
	s.ingredients[id] = &ing
	return &ing, nil
}

func (s *dbSnapshot) Recipe(id uint) (*models.Recipe, error) {
	if rec, ok := s.recipes[id]; ok {
		return rec, nil
	}
	var rec models.Recipe
	if err := s.db.Preload("Items").First(&rec, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, costing.ErrNotFound
		}
		return nil, err
	}
	s.recipes[id] = &rec
	return &rec, nil
}

// Unit loads the whole unit table once; it is tiny and every conversion needs
// it.
func (s *dbSnapshot) Unit(id uint) (*models.Unit, error) {
	if !s.unitsLoaded {
		var units []models.Unit
		if err := s.db.Find(&units).Error; err != nil {
			return nil, err
		}
		for i := range units {
			s.units[units[i].ID] = &units[i]
		}
		s.unitsLoaded = true
	}
	if u, ok := s.units[id]; ok {
		return u, nil
	}
	return nil, costing.ErrNotFound
}
