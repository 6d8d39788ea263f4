package services

import "testing"

func TestBeveragesSummerWedding(t *testing.T) {
	svc := NewEstimationService()
	res, err := svc.Beverages(EstimationRequest{GuestCount: 100, DurationHours: 4, Season: SeasonSummer, EventType: EventTypeWedding})
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	// summer soft drinks 0.6 l/h, weddings shift 20% of it to alcohol
	if res.SoftDrinksLiters != 192 {
		t.Fatalf("soft drinks: got %v want 192", res.SoftDrinksLiters)
	}
	if res.WineBottles != 40 {
		t.Fatalf("wine: got %v want 40", res.WineBottles)
	}
	if res.ChampagneBottles != 20 {
		t.Fatalf("champagne: got %v want 20", res.ChampagneBottles)
	}
	if res.BeerLiters != 240 {
		t.Fatalf("beer: got %v want 240", res.BeerLiters)
	}
	if res.IceKg != 100 {
		t.Fatalf("ice: got %v want 100", res.IceKg)
	}
	if res.FingerFoodPieces != 1400 {
		t.Fatalf("finger food: got %v want 1400", res.FingerFoodPieces)
	}
}

func TestBeveragesCorporateShortReception(t *testing.T) {
	svc := NewEstimationService()
	res, err := svc.Beverages(EstimationRequest{GuestCount: 50, DurationHours: 2, Season: SeasonWinter, EventType: EventTypeCorporate})
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	// short reception: light canapés, minus the corporate reduction
	if res.FingerFoodPieces != 150 {
		t.Fatalf("finger food: got %v want 150", res.FingerFoodPieces)
	}
	if res.ChampagneBottles != 2.5 {
		t.Fatalf("champagne: got %v want 2.5", res.ChampagneBottles)
	}
}

func TestBeveragesValidation(t *testing.T) {
	svc := NewEstimationService()
	cases := []EstimationRequest{
		{GuestCount: 0, DurationHours: 3, Season: SeasonSummer, EventType: EventTypeBirthday},
		{GuestCount: 10, DurationHours: 0, Season: SeasonSummer, EventType: EventTypeBirthday},
		{GuestCount: 10, DurationHours: 3, Season: "monsoon", EventType: EventTypeBirthday},
		{GuestCount: 10, DurationHours: 3, Season: SeasonSummer, EventType: "festival"},
	}
	for i, req := range cases {
		if _, err := svc.Beverages(req); err == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}
}
