package repository

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"produce-lens/internal/model"
)

const maxListLimit = 200

type PredictionRepository struct {
	db *gorm.DB
}

func NewPredictionRepository(db *gorm.DB) *PredictionRepository {
	return &PredictionRepository{db: db}
}

// Create inserts a prediction; a redelivered record with the same request id is ignored.
func (r *PredictionRepository) Create(prediction *model.Prediction) error {
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "request_id"}},
		DoNothing: true,
	}).Create(prediction).Error
	if err != nil {
		return fmt.Errorf("create prediction failed: %w", err)
	}
	return nil
}

func (r *PredictionRepository) ListRecent(limit int) ([]model.Prediction, error) {
	switch {
	case limit <= 0:
		limit = 50
	case limit > maxListLimit:
		limit = maxListLimit
	}

	var predictions []model.Prediction
	if err := r.db.Order("created_at DESC").Limit(limit).Find(&predictions).Error; err != nil {
		return nil, fmt.Errorf("list predictions failed: %w", err)
	}
	return predictions, nil
}
