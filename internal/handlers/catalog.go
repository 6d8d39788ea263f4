package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/drevalle/caterops/internal/httpx"
	"github.com/drevalle/caterops/internal/models"
)

// CatalogHandler serves the configuration vocabularies: units and tags. The
// engine treats both as opaque identifiers except for declared conversion
// ratios.
type CatalogHandler struct {
	DB *gorm.DB
}

func NewCatalogHandler(db *gorm.DB) *CatalogHandler {
	return &CatalogHandler{DB: db}
}

// Units: GET /units
func (h *CatalogHandler) Units(w http.ResponseWriter, r *http.Request) {
	var categories []models.UnitCategory
	if err := h.DB.Preload("Units").Find(&categories).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_units", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"categories": categories})
}

// Tags: GET /tags
func (h *CatalogHandler) Tags(w http.ResponseWriter, r *http.Request) {
	var tags []models.Tag
	if err := h.DB.Order("name asc").Find(&tags).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_tags", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": tags})
}

// CreateTag: POST /tags
func (h *CatalogHandler) CreateTag(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"name": "required"})
		return
	}
	tag := models.Tag{Name: name}
	if err := h.DB.Create(&tag).Error; err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "failed_to_create_tag", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, tag)
}
