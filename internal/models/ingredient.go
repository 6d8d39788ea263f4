package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Ingredient scaling behavior when a recipe is resized.
const (
	ScalingLinear      = "linear"
	ScalingLogarithmic = "logarithmic" // salt, spices: quantity grows as factor^0.85
)

type Ingredient struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:200;not null;index" json:"name"`
	SKU         string `gorm:"size:50;uniqueIndex" json:"sku,omitempty"`
	Description string `json:"description,omitempty"`
	Category    string `gorm:"size:100;index" json:"category,omitempty"`

	PurchaseUnitID uint `gorm:"not null" json:"purchase_unit_id"` // kg, l
	UsageUnitID    uint `gorm:"not null" json:"usage_unit_id"`    // g, ml
	PurchaseUnit   Unit `gorm:"foreignKey:PurchaseUnitID" json:"-"`
	UsageUnit      Unit `gorm:"foreignKey:UsageUnitID" json:"-"`

	// Usage units per one purchase unit (1 kg purchased = 1000 g used).
	ConversionRatio decimal.Decimal `gorm:"type:decimal(18,4);not null;default:1" json:"conversion_ratio"`

	// Cost per one purchase unit.
	CurrentCost decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"current_cost"`

	// Usable fraction after trim/waste; 1.0 means no loss.
	YieldFactor float64 `gorm:"not null;default:1" json:"yield_factor"`

	// Informational; folded into costs only when the resolver is configured to.
	TaxRate float64 `gorm:"default:0.21" json:"tax_rate"`

	// On-hand amount, in purchase-unit terms.
	StockQuantity     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"stock_quantity"`
	MinStockThreshold decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"min_stock_threshold"`

	ScalingType string `gorm:"size:20;not null;default:'linear'" json:"scaling_type"`

	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// IngredientPriceHistory logs cost changes to track supplier inflation.
type IngredientPriceHistory struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	IngredientID uint            `gorm:"not null;index" json:"ingredient_id"`
	Ingredient   Ingredient      `gorm:"foreignKey:IngredientID" json:"-"`
	OldCost      decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"old_cost"`
	NewCost      decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"new_cost"`
	CreatedAt    time.Time       `json:"created_at"`
}
