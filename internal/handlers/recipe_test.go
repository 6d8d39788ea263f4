package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/drevalle/caterops/internal/models"
)

func TestRecipeCostEndpoint(t *testing.T) {
	gdb := setupTestDB(t)
	h := NewRecipeHandler(gdb, recipeSvcFor(gdb), recipeSvcFor)
	flour := seedFlour(t, gdb)
	bread := seedBread(t, gdb, flour.ID)

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/recipes/cost?id=%d", bread.ID), nil)
	w := httptest.NewRecorder()
	h.Cost(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	var rc struct {
		TotalCost      decimal.Decimal `json:"total_cost"`
		CostPerPortion decimal.Decimal `json:"cost_per_portion"`
		SuggestedPrice decimal.Decimal `json:"suggested_price"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &rc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !rc.TotalCost.Equal(d("1")) || !rc.CostPerPortion.Equal(d("0.1")) || !rc.SuggestedPrice.Equal(d("0.2")) {
		t.Fatalf("unexpected cost: %+v", rc)
	}

	req404 := httptest.NewRequest(http.MethodGet, "/recipes/cost?id=999", nil)
	w404 := httptest.NewRecorder()
	h.Cost(w404, req404)
	if w404.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", w404.Code)
	}
}

func TestRecipeCreateEndpoint(t *testing.T) {
	gdb := setupTestDB(t)
	h := NewRecipeHandler(gdb, recipeSvcFor(gdb), recipeSvcFor)
	flour := seedFlour(t, gdb)

	body := fmt.Sprintf(`{"name":"Focaccia","yield_quantity":8,"target_margin":0.5,"items":[{"ingredient_id":%d,"quantity":400,"unit_id":%d}]}`,
		flour.ID, unitID(t, gdb, "g"))
	req := httptest.NewRequest(http.MethodPost, "/recipes", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.Create(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		ID   uint `json:"id"`
		Cost struct {
			TotalCost decimal.Decimal `json:"total_cost"`
		} `json:"cost"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Cost.TotalCost.Equal(d("0.8")) {
		t.Fatalf("total cost: got %s want 0.8", resp.Cost.TotalCost)
	}
}

func TestRecipeCreateRejectsItemWithBothRefs(t *testing.T) {
	gdb := setupTestDB(t)
	h := NewRecipeHandler(gdb, recipeSvcFor(gdb), recipeSvcFor)
	flour := seedFlour(t, gdb)
	bread := seedBread(t, gdb, flour.ID)

	body := fmt.Sprintf(`{"name":"Broken","yield_quantity":1,"items":[{"ingredient_id":%d,"child_recipe_id":%d,"quantity":1,"unit_id":%d}]}`,
		flour.ID, bread.ID, unitID(t, gdb, "g"))
	req := httptest.NewRequest(http.MethodPost, "/recipes", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.Create(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestRecipeUpdateRejectsCycle(t *testing.T) {
	gdb := setupTestDB(t)
	h := NewRecipeHandler(gdb, recipeSvcFor(gdb), recipeSvcFor)
	flour := seedFlour(t, gdb)
	bread := seedBread(t, gdb, flour.ID)

	// A recipe that contains itself must be rejected and rolled back.
	body := fmt.Sprintf(`{"name":"Bread","yield_quantity":10,"items":[{"child_recipe_id":%d,"quantity":1,"unit_id":%d}]}`,
		bread.ID, unitID(t, gdb, "unit"))
	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/recipes/update?id=%d", bread.ID), strings.NewReader(body))
	w := httptest.NewRecorder()
	h.Update(w, req)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		Error   string `json:"error"`
		Details struct {
			Path []uint `json:"path"`
		} `json:"details"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error != "cyclic_recipe" {
		t.Fatalf("unexpected error: %s", resp.Error)
	}
	if len(resp.Details.Path) != 2 || resp.Details.Path[0] != bread.ID || resp.Details.Path[1] != bread.ID {
		t.Fatalf("unexpected cycle path: %v", resp.Details.Path)
	}

	// The transaction rolled back: the original flour item survives.
	var items []models.RecipeItem
	if err := gdb.Where("parent_recipe_id = ?", bread.ID).Find(&items).Error; err != nil {
		t.Fatalf("items: %v", err)
	}
	if len(items) != 1 || items[0].IngredientID == nil || *items[0].IngredientID != flour.ID {
		t.Fatalf("composition not rolled back: %+v", items)
	}
}

func TestRecipeScaleEndpoint(t *testing.T) {
	gdb := setupTestDB(t)
	h := NewRecipeHandler(gdb, recipeSvcFor(gdb), recipeSvcFor)
	flour := seedFlour(t, gdb)
	bread := seedBread(t, gdb, flour.ID)

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/recipes/scale?id=%d&target=40", bread.ID), nil)
	w := httptest.NewRecorder()
	h.Scale(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		Factor decimal.Decimal `json:"scaling_factor"`
		Items  []struct {
			NewQuantity decimal.Decimal `json:"new_quantity"`
		} `json:"items"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Factor.Equal(d("4")) {
		t.Fatalf("factor: got %s want 4", resp.Factor)
	}
	if len(resp.Items) != 1 || !resp.Items[0].NewQuantity.Equal(d("2000")) {
		t.Fatalf("items: %+v", resp.Items)
	}

	bad := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/recipes/scale?id=%d&target=-1", bread.ID), nil)
	wBad := httptest.NewRecorder()
	h.Scale(wBad, bad)
	if wBad.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", wBad.Code)
	}
}

func TestRecipeDeleteRefusedWhileUsed(t *testing.T) {
	gdb := setupTestDB(t)
	h := NewRecipeHandler(gdb, recipeSvcFor(gdb), recipeSvcFor)
	flour := seedFlour(t, gdb)
	bread := seedBread(t, gdb, flour.ID)

	parent := models.Recipe{Name: "Sandwich", YieldQuantity: d("1"), TargetMargin: 0.5}
	if err := gdb.Create(&parent).Error; err != nil {
		t.Fatalf("parent: %v", err)
	}
	item := models.RecipeItem{ParentRecipeID: parent.ID, ChildRecipeID: &bread.ID, Quantity: d("2"), UnitID: unitID(t, gdb, "unit")}
	if err := gdb.Create(&item).Error; err != nil {
		t.Fatalf("item: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/recipes/delete?id=%d", bread.ID), nil)
	w := httptest.NewRecorder()
	h.Delete(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d body=%s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "recipe_in_use") {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}

	// The parent itself is unreferenced and deletes fine.
	req2 := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/recipes/delete?id=%d", parent.ID), nil)
	w2 := httptest.NewRecorder()
	h.Delete(w2, req2)
	if w2.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w2.Code, w2.Body.String())
	}
}
