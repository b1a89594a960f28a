package service

import (
	"context"
	"fmt"
	"time"

	"TipsSync/internal/model"
	"TipsSync/internal/repository"

	"github.com/sirupsen/logrus"
)

// TipService 面向前端的 tips 读取
type TipService struct {
	repo   repository.TipQueryRepository
	logger *logrus.Logger
}

func NewTipService(repo repository.TipQueryRepository, logger *logrus.Logger) *TipService {
	return &TipService{repo: repo, logger: logger}
}

// TipView 列表返回的单条 tip
type TipView struct {
	ID        uint64 `json:"id"`
	Match     string `json:"match"`
	League    string `json:"league"`
	Tip       string `json:"tip"`
	Odds      string `json:"odds"`
	IsPremium bool   `json:"isPremium"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	Status    string `json:"status"`
}

// ListTips 某日 tips，premium 为空时返回两档
func (s *TipService) ListTips(ctx context.Context, date string, premium *bool) ([]TipView, error) {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return nil, fmt.Errorf("日期格式无效（应为YYYY-MM-DD）: %q", date)
	}
	tips, err := s.repo.ListTips(ctx, repository.TipFilter{Date: date, Premium: premium})
	if err != nil {
		s.logger.WithError(err).WithField("date", date).Error("查询tips失败")
		return nil, err
	}

	views := make([]TipView, 0, len(tips))
	for _, t := range tips {
		views = append(views, toView(t))
	}
	return views, nil
}

func toView(t *model.Tip) TipView {
	odds := model.NoOddsAvailable
	if t.Odds != nil {
		odds = *t.Odds
	}
	return TipView{
		ID:        t.ID,
		Match:     t.Match,
		League:    t.League,
		Tip:       t.Tip,
		Odds:      odds,
		IsPremium: t.IsPremium,
		Date:      t.Date,
		Time:      t.Time,
		Status:    t.Status,
	}
}
