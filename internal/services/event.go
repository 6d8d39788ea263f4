package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/drevalle/caterops/internal/models"
)

var (
	ErrEventNotFound  = errors.New("event not found")
	ErrRecipeNotFound = errors.New("recipe not found")
)

// EventService manages event lifecycle and order lines. Order lines freeze
// the engine's price and cost at creation time so later ingredient price
// changes do not rewrite sold history.
type EventService struct {
	db      *gorm.DB
	recipes *RecipeService
}

func NewEventService(db *gorm.DB, recipes *RecipeService) *EventService {
	return &EventService{db: db, recipes: recipes}
}

func validStatus(s string) bool {
	switch s {
	case models.EventDraft, models.EventConfirmed, models.EventCompleted, models.EventCancelled:
		return true
	}
	return false
}

// Create validates and stores a new event, generating an event number when
// none is supplied.
func (s *EventService) Create(ev *models.Event) error {
	if strings.TrimSpace(ev.Name) == "" || strings.TrimSpace(ev.ClientName) == "" {
		return fmt.Errorf("name and client_name are required")
	}
	if ev.GuestCount < 1 {
		return fmt.Errorf("guest count must be at least 1")
	}
	if ev.Status == "" {
		ev.Status = models.EventDraft
	}
	if !validStatus(ev.Status) {
		return fmt.Errorf("invalid status %q", ev.Status)
	}
	if ev.EventNumber == "" {
		ev.EventNumber = newEventNumber(ev)
	}
	return s.db.Create(ev).Error
}

func newEventNumber(ev *models.Event) string {
	return fmt.Sprintf("EVT-%d-%s", ev.EventDate.Year(), uuid.NewString()[:8])
}

// AddOrder prices an order line through the cost engine and freezes the
// result. priceOverride, when set, replaces the suggested price but the cost
// snapshot is always the engine's.
func (s *EventService) AddOrder(eventID, recipeID uint, qty decimal.Decimal, priceOverride *decimal.Decimal, notes string) (*models.EventOrder, error) {
	if !qty.IsPositive() {
		return nil, fmt.Errorf("order quantity must be positive")
	}
	var ev models.Event
	if err := s.db.First(&ev, eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	var rec models.Recipe
	if err := s.db.First(&rec, recipeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, err
	}

	cost, err := s.recipes.Cost(recipeID)
	if err != nil {
		return nil, err
	}
	price := cost.SuggestedPrice
	if priceOverride != nil {
		price = *priceOverride
	}
	order := &models.EventOrder{
		EventID:         eventID,
		RecipeID:        recipeID,
		Quantity:        qty,
		UnitPriceFrozen: price,
		CostAtSale:      cost.CostPerPortion,
		Notes:           notes,
	}
	if err := s.db.Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

// UpdateStatus moves an event through its lifecycle. Frozen order prices are
// deliberately left untouched.
func (s *EventService) UpdateStatus(eventID uint, status string) (*models.Event, error) {
	if !validStatus(status) {
		return nil, fmt.Errorf("invalid status %q", status)
	}
	var ev models.Event
	if err := s.db.First(&ev, eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	if err := s.db.Model(&ev).Update("status", status).Error; err != nil {
		return nil, err
	}
	ev.Status = status
	return &ev, nil
}

// Financials sums the frozen order lines of an event.
type Financials struct {
	TotalCost    decimal.Decimal `json:"total_cost"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	Margin       decimal.Decimal `json:"margin"`
}

func (s *EventService) Financials(ev *models.Event) Financials {
	f := Financials{TotalCost: decimal.Zero, TotalRevenue: decimal.Zero, Margin: decimal.Zero}
	for i := range ev.Orders {
		f.TotalCost = f.TotalCost.Add(ev.Orders[i].TotalCost())
		f.TotalRevenue = f.TotalRevenue.Add(ev.Orders[i].TotalPrice())
	}
	if f.TotalRevenue.IsPositive() {
		f.Margin = f.TotalRevenue.Sub(f.TotalCost).Div(f.TotalRevenue)
	}
	return f
}
