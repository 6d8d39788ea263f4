package models

import "time"

// Measurement units. Conversion inside a category is linear through the
// category's base unit (Weight -> g, Volume -> ml, Count -> unit).
type UnitCategory struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:50;not null;unique" json:"name"` // Weight, Volume, Count
	Description string `gorm:"size:200" json:"description,omitempty"`
	Units       []Unit `gorm:"foreignKey:CategoryID" json:"units,omitempty"`
}

type Unit struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Name         string `gorm:"size:100;not null" json:"name"`            // Kilogram, Liter
	Abbreviation string `gorm:"size:20;not null;unique" json:"abbreviation"` // kg, l
	CategoryID   uint   `gorm:"not null;index" json:"category_id"`
	Category     UnitCategory `gorm:"foreignKey:CategoryID" json:"-"`
	// Units of the category base per one of this unit (1 kg = 1000 g).
	ConversionToBase float64 `gorm:"not null;default:1" json:"conversion_to_base"`
	IsBaseUnit       bool    `gorm:"default:false" json:"is_base_unit"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
