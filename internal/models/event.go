package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Event lifecycle. Only confirmed (and, by policy, completed) events feed
// production aggregation.
const (
	EventDraft     = "draft"
	EventConfirmed = "confirmed"
	EventCompleted = "completed"
	EventCancelled = "cancelled"
)

type Event struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	EventNumber string `gorm:"size:50;uniqueIndex" json:"event_number"` // EVT-2026-ab12cd34
	Name        string `gorm:"size:200;not null" json:"name"`
	Description string `json:"description,omitempty"`

	ClientName  string `gorm:"size:200;not null" json:"client_name"`
	ClientEmail string `gorm:"size:200" json:"client_email,omitempty"`
	ClientPhone string `gorm:"size:50" json:"client_phone,omitempty"`

	EventDate  time.Time `gorm:"not null;index" json:"event_date"`
	GuestCount int       `gorm:"not null" json:"guest_count"`
	VenueName  string    `gorm:"size:200" json:"venue_name,omitempty"`

	Status string `gorm:"size:20;not null;default:'draft';index" json:"status"`

	Orders []EventOrder `gorm:"foreignKey:EventID" json:"orders,omitempty"`

	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// EventOrder is a line item sold for an event. Price and cost are frozen at
// order creation so later ingredient price changes do not rewrite history.
type EventOrder struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	EventID  uint   `gorm:"not null;index" json:"event_id"`
	RecipeID uint   `gorm:"not null" json:"recipe_id"`
	Recipe   Recipe `gorm:"foreignKey:RecipeID" json:"-"`

	Quantity        decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"quantity"`
	UnitPriceFrozen decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"unit_price_frozen"`
	CostAtSale      decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"cost_at_sale"`
	Notes           string          `gorm:"size:500" json:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// TotalPrice is the frozen client price for the line.
func (o *EventOrder) TotalPrice() decimal.Decimal {
	return o.Quantity.Mul(o.UnitPriceFrozen)
}

// TotalCost is the frozen production cost for the line.
func (o *EventOrder) TotalCost() decimal.Decimal {
	return o.Quantity.Mul(o.CostAtSale)
}
