package repository

import (
	"context"
	"fmt"

	"TipsSync/internal/interfaces"
	"TipsSync/internal/model"

	"gorm.io/gorm"
)

// 单批插入条数
const insertBatchSize = 200

type TipRepository struct {
	db *gorm.DB
}

func NewTipRepository(db *gorm.DB) interfaces.TipStore {
	return &TipRepository{db: db}
}

// CountByDate 某日已入库的 tips 数量
func (r *TipRepository) CountByDate(ctx context.Context, date string) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.Tip{}).Where("date = ?", date).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("统计tips失败: %w, date: %s", err, date)
	}
	return n, nil
}

// DeleteByDate 删除某日全部 tips，返回删除条数
func (r *TipRepository) DeleteByDate(ctx context.Context, date string) (int64, error) {
	res := r.db.WithContext(ctx).Where("date = ?", date).Delete(&model.Tip{})
	if res.Error != nil {
		return 0, fmt.Errorf("删除tips失败: %w, date: %s", res.Error, date)
	}
	return res.RowsAffected, nil
}

// InsertMany 批量插入，返回实际写入条数
func (r *TipRepository) InsertMany(ctx context.Context, tips []*model.Tip) (int, error) {
	if len(tips) == 0 {
		return 0, nil
	}
	for _, t := range tips {
		if t.Status == "" {
			t.Status = model.StatusPending
		}
	}
	res := r.db.WithContext(ctx).CreateInBatches(tips, insertBatchSize)
	if res.Error != nil {
		return 0, fmt.Errorf("批量保存tips失败: %w", res.Error)
	}
	return int(res.RowsAffected), nil
}

// Transaction 删除+插入在同一事务内完成，fn 出错或 panic 时回滚
func (r *TipRepository) Transaction(ctx context.Context, fn func(store interfaces.TipStore) error) (err error) {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return fmt.Errorf("开启事务失败: %w", tx.Error)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			err = fmt.Errorf("事务执行异常: %v", p)
		}
	}()

	if err := fn(&TipRepository{db: tx}); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("提交事务失败: %w", err)
	}
	return nil
}
