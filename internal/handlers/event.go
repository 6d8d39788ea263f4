package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/drevalle/caterops/internal/httpx"
	"github.com/drevalle/caterops/internal/models"
	"github.com/drevalle/caterops/internal/services"
)

type EventHandler struct {
	DB  *gorm.DB
	Svc *services.EventService
}

func NewEventHandler(db *gorm.DB, svc *services.EventService) *EventHandler {
	return &EventHandler{DB: db, Svc: svc}
}

const dateLayout = "2006-01-02"

// List: GET /events
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	dbq := h.DB.Model(&models.Event{})
	if s := r.URL.Query().Get("status"); s != "" {
		dbq = dbq.Where("status = ?", s)
	}
	if from := r.URL.Query().Get("from"); from != "" {
		if t, err := time.Parse(dateLayout, from); err == nil {
			dbq = dbq.Where("event_date >= ?", t)
		}
	}
	if to := r.URL.Query().Get("to"); to != "" {
		if t, err := time.Parse(dateLayout, to); err == nil {
			dbq = dbq.Where("event_date <= ?", t)
		}
	}
	var events []models.Event
	if err := dbq.Preload("Orders").Order("event_date asc").Find(&events).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_events", nil)
		return
	}

	type eventView struct {
		models.Event
		Financials services.Financials `json:"financials"`
	}
	views := make([]eventView, 0, len(events))
	for i := range events {
		views = append(views, eventView{Event: events[i], Financials: h.Svc.Financials(&events[i])})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": views, "total": len(views)})
}

// Create: POST /events
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		ClientName  string `json:"client_name"`
		ClientEmail string `json:"client_email"`
		ClientPhone string `json:"client_phone"`
		EventDate   string `json:"event_date"`
		GuestCount  int    `json:"guest_count"`
		VenueName   string `json:"venue_name"`
		Status      string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	date, err := time.Parse(dateLayout, req.EventDate)
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"event_date": "expected YYYY-MM-DD"})
		return
	}
	ev := models.Event{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		ClientName:  strings.TrimSpace(req.ClientName),
		ClientEmail: req.ClientEmail,
		ClientPhone: req.ClientPhone,
		EventDate:   date,
		GuestCount:  req.GuestCount,
		VenueName:   req.VenueName,
		Status:      req.Status,
	}
	if err := h.Svc.Create(&ev); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"error": err.Error()})
		return
	}
	httpx.JSON(w, http.StatusCreated, ev)
}

// AddOrder: POST /events/orders – the engine prices the line and the result
// is frozen on the order.
func (h *EventHandler) AddOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EventID   uint             `json:"event_id"`
		RecipeID  uint             `json:"recipe_id"`
		Quantity  decimal.Decimal  `json:"quantity"`
		UnitPrice *decimal.Decimal `json:"unit_price"`
		Notes     string           `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if req.EventID == 0 || req.RecipeID == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"event_id": "required", "recipe_id": "required"})
		return
	}
	order, err := h.Svc.AddOrder(req.EventID, req.RecipeID, req.Quantity, req.UnitPrice, req.Notes)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEventNotFound), errors.Is(err, services.ErrRecipeNotFound):
			httpx.JSONError(w, http.StatusNotFound, "not_found", map[string]string{"error": err.Error()})
		case httpx.EngineError(w, err):
		default:
			httpx.JSONError(w, http.StatusBadRequest, "failed_to_add_order", map[string]string{"error": err.Error()})
		}
		return
	}
	httpx.JSON(w, http.StatusCreated, order)
}

// Status: POST /events/status
func (h *EventHandler) Status(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EventID uint   `json:"event_id"`
		Status  string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	ev, err := h.Svc.UpdateStatus(req.EventID, req.Status)
	if err != nil {
		if errors.Is(err, services.ErrEventNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"error": err.Error()})
		return
	}
	httpx.JSON(w, http.StatusOK, ev)
}

// Delete: POST /events/delete?id=...
func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ?", id).Delete(&models.EventOrder{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Event{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_delete_event", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
