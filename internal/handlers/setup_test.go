package handlers

import (
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/drevalle/caterops/internal/db"
	"github.com/drevalle/caterops/internal/models"
	"github.com/drevalle/caterops/internal/services"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// Unique in-memory database per test to avoid cross-test collisions.
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	db.SeedUnits(gdb)
	return gdb
}

func unitID(t *testing.T, gdb *gorm.DB, abbr string) uint {
	t.Helper()
	var u models.Unit
	if err := gdb.Where("abbreviation = ?", abbr).First(&u).Error; err != nil {
		t.Fatalf("unit %s: %v", abbr, err)
	}
	return u.ID
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func recipeSvcFor(gdb *gorm.DB) *services.RecipeService {
	return services.NewRecipeService(gdb, false, 0)
}

func seedFlour(t *testing.T, gdb *gorm.DB) *models.Ingredient {
	t.Helper()
	ing := models.Ingredient{
		Name:            "Flour",
		SKU:             "FLR-1",
		Category:        "dry",
		PurchaseUnitID:  unitID(t, gdb, "kg"),
		UsageUnitID:     unitID(t, gdb, "g"),
		ConversionRatio: d("1000"),
		CurrentCost:     d("2"),
		YieldFactor:     1,
		ScalingType:     models.ScalingLinear,
	}
	if err := gdb.Create(&ing).Error; err != nil {
		t.Fatalf("flour: %v", err)
	}
	return &ing
}

// seedBread: 10 portions from 500 g flour at 50% margin.
func seedBread(t *testing.T, gdb *gorm.DB, flourID uint) *models.Recipe {
	t.Helper()
	rec := models.Recipe{
		Name:          "Bread",
		RecipeType:    models.RecipeFinalDish,
		YieldQuantity: d("10"),
		TargetMargin:  0.5,
	}
	if err := gdb.Create(&rec).Error; err != nil {
		t.Fatalf("bread: %v", err)
	}
	item := models.RecipeItem{
		ParentRecipeID: rec.ID,
		IngredientID:   &flourID,
		Quantity:       d("500"),
		UnitID:         unitID(t, gdb, "g"),
		IsScalable:     true,
	}
	if err := gdb.Create(&item).Error; err != nil {
		t.Fatalf("bread item: %v", err)
	}
	return &rec
}
