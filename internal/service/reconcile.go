package service

import (
	"context"
	"fmt"

	"TipsSync/internal/classifier"
	"TipsSync/internal/interfaces"
	"TipsSync/internal/model"

	"github.com/sirupsen/logrus"
)

// ReconcileOutcome 一次按日期替换的结果
type ReconcileOutcome struct {
	Accepted bool
	Saved    int
	Cleared  int64
	Skipped  bool
	Existing int64
	Message  string
}

// Reconciler 决定是否用候选集整体替换某日的 tips。调用方负责按日期加锁
type Reconciler struct {
	store  interfaces.TipStore
	policy classifier.ReplacementPolicy
	logger *logrus.Logger
}

func NewReconciler(store interfaces.TipStore, policy classifier.ReplacementPolicy, logger *logrus.Logger) *Reconciler {
	return &Reconciler{store: store, policy: policy, logger: logger}
}

// Policy 生效的替换策略
func (r *Reconciler) Policy() classifier.ReplacementPolicy {
	return r.policy
}

// Reconcile 统计已有条数，按策略跳过或在同一事务内先删后插
func (r *Reconciler) Reconcile(ctx context.Context, date string, candidates []*model.Tip) (ReconcileOutcome, error) {
	existing, err := r.store.CountByDate(ctx, date)
	if err != nil {
		return ReconcileOutcome{}, err
	}
	r.logger.WithFields(logrus.Fields{
		"date":       date,
		"existing":   existing,
		"candidates": len(candidates),
		"policy":     r.policy,
	}).Info("已有tips统计完成")

	if !r.policy.ShouldReplace(len(candidates), existing) {
		return ReconcileOutcome{
			Skipped:  true,
			Existing: existing,
			Message:  fmt.Sprintf("No update needed. Existing tips: %d, Scraped tips: %d", existing, len(candidates)),
		}, nil
	}

	var (
		cleared int64
		saved   int
	)
	err = r.store.Transaction(ctx, func(tx interfaces.TipStore) error {
		var err error
		if cleared, err = tx.DeleteByDate(ctx, date); err != nil {
			return err
		}
		saved, err = tx.InsertMany(ctx, candidates)
		return err
	})
	if err != nil {
		return ReconcileOutcome{Existing: existing}, fmt.Errorf("替换%s的tips失败: %w", date, err)
	}

	r.logger.WithFields(logrus.Fields{
		"date":    date,
		"cleared": cleared,
		"saved":   saved,
	}).Info("tips替换完成")

	return ReconcileOutcome{
		Accepted: true,
		Saved:    saved,
		Cleared:  cleared,
		Existing: existing,
		Message:  fmt.Sprintf("Successfully processed and saved tips for %s", date),
	}, nil
}
