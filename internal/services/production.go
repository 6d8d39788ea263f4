package services

import (
	"time"

	"gorm.io/gorm"

	"github.com/drevalle/caterops/internal/costing"
	"github.com/drevalle/caterops/internal/models"
)

// ProductionService consolidates event demand into prep sheets and shopping
// lists.
type ProductionService struct {
	db       *gorm.DB
	policy   costing.Policy
	maxDepth int
}

func NewProductionService(db *gorm.DB, policy costing.Policy, maxDepth int) *ProductionService {
	return &ProductionService{db: db, policy: policy, maxDepth: maxDepth}
}

// Plan aggregates all in-policy events whose date falls in [start, end].
func (s *ProductionService) Plan(start, end time.Time) (*costing.Plan, error) {
	statuses := []string{models.EventConfirmed}
	if s.policy.IncludeCompleted {
		statuses = append(statuses, models.EventCompleted)
	}
	var events []*models.Event
	if err := s.db.Preload("Orders").
		Where("event_date >= ? AND event_date <= ? AND status IN ?", start, end, statuses).
		Find(&events).Error; err != nil {
		return nil, err
	}
	agg := costing.NewAggregator(newSnapshot(s.db), s.policy, s.maxDepth)
	return agg.Aggregate(start, end, events)
}
