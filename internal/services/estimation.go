package services

import (
	"fmt"
	"math"
)

// Beverage estimation: standard catering consumption factors per guest,
// adjusted by season and event type. Independent of the recipe catalog.

const (
	SeasonSummer = "summer"
	SeasonWinter = "winter"
	SeasonSpring = "spring"
	SeasonAutumn = "autumn"
)

const (
	EventTypeWedding   = "wedding"
	EventTypeCorporate = "corporate"
	EventTypeBirthday  = "birthday"
)

type EstimationRequest struct {
	GuestCount    int    `json:"guest_count"`
	DurationHours int    `json:"duration_hours"`
	Season        string `json:"season"`
	EventType     string `json:"event_type"`
}

type EstimationResult struct {
	SoftDrinksLiters float64 `json:"soft_drinks_liters"`
	WineBottles      float64 `json:"wine_bottles"`
	ChampagneBottles float64 `json:"champagne_bottles"`
	BeerLiters       float64 `json:"beer_liters"`
	IceKg            float64 `json:"ice_kg"`
	FingerFoodPieces int     `json:"finger_food_pieces"`
}

type EstimationService struct{}

func NewEstimationService() *EstimationService { return &EstimationService{} }

// Beverages computes consumption estimates. Soft drinks and beer scale with
// duration; wine, champagne and ice are per-head totals.
func (s *EstimationService) Beverages(req EstimationRequest) (*EstimationResult, error) {
	if req.GuestCount < 1 {
		return nil, fmt.Errorf("guest count must be at least 1")
	}
	if req.DurationHours < 1 {
		return nil, fmt.Errorf("duration must be at least 1 hour")
	}

	var softDrink, ice, beer float64
	switch req.Season {
	case SeasonSummer:
		softDrink, ice, beer = 0.6, 1.0, 0.5
	case SeasonWinter:
		softDrink, ice, beer = 0.3, 0.4, 0.2
	case SeasonSpring, SeasonAutumn:
		softDrink, ice, beer = 0.45, 0.7, 0.35
	default:
		return nil, fmt.Errorf("unknown season %q", req.Season)
	}

	var wine, champagne float64
	switch req.EventType {
	case EventTypeWedding:
		wine, champagne = 0.4, 0.2
		beer *= 1.2
		softDrink *= 0.8
	case EventTypeCorporate:
		wine, champagne = 0.2, 0.05
		beer *= 0.8
	case EventTypeBirthday:
		wine, champagne = 0.25, 0.1
	default:
		return nil, fmt.Errorf("unknown event type %q", req.EventType)
	}

	guests := float64(req.GuestCount)
	hours := float64(req.DurationHours)

	// short receptions get light canapés, longer ones a full cocktail round
	pieces := 5
	if req.DurationHours >= 3 {
		pieces = 14
	}
	if req.EventType == EventTypeCorporate && pieces > 3 {
		pieces -= 2
	}

	return &EstimationResult{
		SoftDrinksLiters: round1(guests * softDrink * hours),
		WineBottles:      round1(guests * wine),
		ChampagneBottles: round1(guests * champagne),
		BeerLiters:       round1(guests * beer * hours),
		IceKg:            round1(guests * ice),
		FingerFoodPieces: req.GuestCount * pieces,
	}, nil
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
