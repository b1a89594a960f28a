package repository

import (
	"context"

	"TipsSync/internal/model"

	"gorm.io/gorm"
)

// IngestionRunRepository 入库运行记录
type IngestionRunRepository interface {
	Create(ctx context.Context, run *model.IngestionRun) error
	// ListRecent 最近的运行记录，新的在前
	ListRecent(ctx context.Context, limit int) ([]*model.IngestionRun, error)
}

type ingestionRunRepository struct {
	db *gorm.DB
}

func NewIngestionRunRepository(db *gorm.DB) IngestionRunRepository {
	return &ingestionRunRepository{db: db}
}

func (r *ingestionRunRepository) Create(ctx context.Context, run *model.IngestionRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *ingestionRunRepository) ListRecent(ctx context.Context, limit int) ([]*model.IngestionRun, error) {
	limit = clampLimit(limit)
	var runs []*model.IngestionRun
	if err := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Limit(limit).Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 20
	}
	return limit
}
