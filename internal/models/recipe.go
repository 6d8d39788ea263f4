package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Recipe types. Informational for cost math; sub_recipe additionally marks a
// preparation that shows up on production prep sheets.
const (
	RecipeFinalDish = "final_dish"
	RecipeSubRecipe = "sub_recipe"
	RecipeBeverage  = "beverage"
	RecipeDessert   = "dessert"
	RecipeAppetizer = "appetizer"
)

type Recipe struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:200;not null;index" json:"name"`
	Description string `json:"description,omitempty"`
	RecipeType  string `gorm:"size:20;not null;default:'final_dish';index" json:"recipe_type"`

	// Portions produced (or, for a sub-recipe, yield-units produced).
	YieldQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null;default:1" json:"yield_quantity"`
	YieldUnitID   uint            `json:"yield_unit_id,omitempty"`
	YieldUnit     Unit            `gorm:"foreignKey:YieldUnitID" json:"-"`

	// Pricing margin in [0, 0.99]: price = cost / (1 - margin).
	TargetMargin float64 `gorm:"not null;default:0.35" json:"target_margin"`

	PreparationTime int    `gorm:"default:0" json:"preparation_time,omitempty"` // minutes
	Instructions    string `json:"instructions,omitempty"`
	ShelfLifeHours  int    `gorm:"default:24" json:"shelf_life_hours,omitempty"`

	Items []RecipeItem `gorm:"foreignKey:ParentRecipeID" json:"items,omitempty"`
	Tags  []Tag        `gorm:"many2many:recipe_tags" json:"tags,omitempty"`

	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// RecipeItem is one line of a recipe: either an ingredient or a nested
// sub-recipe, never both and never neither.
type RecipeItem struct {
	ID             uint `gorm:"primaryKey" json:"id"`
	ParentRecipeID uint `gorm:"not null;index" json:"parent_recipe_id"`

	IngredientID  *uint       `json:"ingredient_id,omitempty"`
	ChildRecipeID *uint       `json:"child_recipe_id,omitempty"`
	Ingredient    *Ingredient `gorm:"foreignKey:IngredientID" json:"-"`
	ChildRecipe   *Recipe     `gorm:"foreignKey:ChildRecipeID" json:"-"`

	Quantity   decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"quantity"`
	UnitID     uint            `gorm:"not null" json:"unit_id"`
	Unit       Unit            `gorm:"foreignKey:UnitID" json:"-"`
	Notes      string          `gorm:"size:500" json:"notes,omitempty"`
	IsScalable bool            `gorm:"not null;default:true" json:"is_scalable"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Tag is a display-only label attached to recipes.
type Tag struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:100;not null;unique" json:"name"`
}

var ErrItemRefInvalid = errors.New("recipe item must reference exactly one of ingredient or child recipe")

// RefKind discriminates the two item variants.
type RefKind int

const (
	RefIngredient RefKind = iota
	RefSubRecipe
)

// ItemRef is the resolved tagged variant of a RecipeItem reference.
type ItemRef struct {
	Kind RefKind
	ID   uint
}

// Ref resolves the polymorphic reference, rejecting rows where zero or both
// sides are set.
func (ri *RecipeItem) Ref() (ItemRef, error) {
	switch {
	case ri.IngredientID != nil && ri.ChildRecipeID == nil:
		return ItemRef{Kind: RefIngredient, ID: *ri.IngredientID}, nil
	case ri.ChildRecipeID != nil && ri.IngredientID == nil:
		return ItemRef{Kind: RefSubRecipe, ID: *ri.ChildRecipeID}, nil
	default:
		return ItemRef{}, ErrItemRefInvalid
	}
}

// BeforeSave rejects malformed items at construction time instead of leaving
// the two nullable columns to be checked ad hoc at every use site.
func (ri *RecipeItem) BeforeSave(*gorm.DB) error {
	if _, err := ri.Ref(); err != nil {
		return err
	}
	if !ri.Quantity.IsPositive() {
		return errors.New("recipe item quantity must be positive")
	}
	return nil
}
