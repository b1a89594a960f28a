package repository

import (
	"context"

	"TipsSync/internal/model"

	"gorm.io/gorm"
)

// FameRepository 精选（tipsFame）读取
type FameRepository interface {
	ListByDay(ctx context.Context, siku string) ([]*model.FameTip, error)
}

type fameRepository struct {
	db *gorm.DB
}

func NewFameRepository(db *gorm.DB) FameRepository {
	return &fameRepository{db: db}
}

func (r *fameRepository) ListByDay(ctx context.Context, siku string) ([]*model.FameTip, error) {
	var tips []*model.FameTip
	if err := r.db.WithContext(ctx).Where("siku = ?", siku).Order("time ASC").Order("id ASC").Find(&tips).Error; err != nil {
		return nil, err
	}
	return tips, nil
}
