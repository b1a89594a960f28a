package service

import (
	"context"
	"math/rand"
	"sync"

	"TipsSync/internal/model"
	"TipsSync/internal/repository"

	"github.com/sirupsen/logrus"
)

const defaultHighlights = 10

// HighlightsService 从精选数据源按日随机抽样
type HighlightsService struct {
	repo   repository.FameRepository
	size   int
	logger *logrus.Logger

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewHighlightsService rnd 为空时随机取种子；测试中传入固定种子
func NewHighlightsService(repo repository.FameRepository, size int, rnd *rand.Rand, logger *logrus.Logger) *HighlightsService {
	if size <= 0 {
		size = defaultHighlights
	}
	if rnd == nil {
		rnd = rand.New(rand.NewSource(rand.Int63()))
	}
	return &HighlightsService{repo: repo, size: size, rnd: rnd, logger: logger}
}

// Sample 返回某日最多 n 条精选，n<=0 时使用配置的条数
func (s *HighlightsService) Sample(ctx context.Context, siku string, n int) ([]*model.FameTip, error) {
	if n <= 0 {
		n = s.size
	}
	tips, err := s.repo.ListByDay(ctx, siku)
	if err != nil {
		s.logger.WithError(err).WithField("siku", siku).Error("查询精选失败")
		return nil, err
	}

	s.mu.Lock()
	s.rnd.Shuffle(len(tips), func(i, j int) { tips[i], tips[j] = tips[j], tips[i] })
	s.mu.Unlock()

	if len(tips) > n {
		tips = tips[:n]
	}
	return tips, nil
}
