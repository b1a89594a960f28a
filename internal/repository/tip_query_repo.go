package repository

import (
	"context"

	"TipsSync/internal/model"

	"gorm.io/gorm"
)

// TipFilter 列表筛选条件
type TipFilter struct {
	Date    string // YYYY-MM-DD，必填
	Premium *bool  // 为空时返回全部
}

// TipQueryRepository 面向前端读取的仓储接口
type TipQueryRepository interface {
	// ListTips 按日期（与等级）查询，按开赛时间升序
	ListTips(ctx context.Context, filter TipFilter) ([]*model.Tip, error)
}

type tipQueryRepository struct {
	db *gorm.DB
}

// NewTipQueryRepository 创建 TipQueryRepository 实例
func NewTipQueryRepository(db *gorm.DB) TipQueryRepository {
	return &tipQueryRepository{db: db}
}

func (r *tipQueryRepository) ListTips(ctx context.Context, filter TipFilter) ([]*model.Tip, error) {
	db := r.db.WithContext(ctx).Model(&model.Tip{}).Where("date = ?", filter.Date)
	if filter.Premium != nil {
		db = db.Where("is_premium = ?", *filter.Premium)
	}

	var tips []*model.Tip
	if err := db.Order("time ASC").Order("id ASC").Find(&tips).Error; err != nil {
		return nil, err
	}
	return tips, nil
}
