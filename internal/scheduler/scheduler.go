// Package scheduler 定时抓取次日 tips
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"
	_ "time/tzdata" // 容器镜像可能没有时区数据

	"TipsSync/internal/config"
	"TipsSync/internal/service"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const jobTimeout = 5 * time.Minute

// Processor 执行单日入库
type Processor interface {
	ProcessTipsForDate(ctx context.Context, date string, html string, source string) *service.IngestResult
}

type Scheduler struct {
	cron      *cron.Cron
	location  *time.Location
	processor Processor
	logger    *logrus.Logger
	now       func() time.Time

	mu      sync.Mutex
	entryID cron.EntryID
	started bool
}

func New(cfg *config.ScheduleConfig, processor Processor, logger *logrus.Logger) (*Scheduler, error) {
	tz := cfg.Timezone
	if tz == "" {
		tz = "Africa/Nairobi"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("加载时区%q失败: %w", tz, err)
	}

	s := &Scheduler{
		cron:      cron.New(cron.WithLocation(loc)),
		location:  loc,
		processor: processor,
		logger:    logger,
		now:       time.Now,
	}
	id, err := s.cron.AddFunc(cfg.Cron, func() { s.RunOnce() })
	if err != nil {
		return nil, fmt.Errorf("添加定时任务失败（cron: %q）: %w", cfg.Cron, err)
	}
	s.entryID = id
	return s, nil
}

// TargetDate 定时任务处理的日期：所在时区的明天
func (s *Scheduler) TargetDate() string {
	return s.now().In(s.location).AddDate(0, 0, 1).Format("2006-01-02")
}

// RunOnce 立即处理一次
func (s *Scheduler) RunOnce() *service.IngestResult {
	date := s.TargetDate()
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	res := s.processor.ProcessTipsForDate(ctx, date, "", service.SourceSchedule)
	s.logger.WithFields(logrus.Fields{
		"date":    date,
		"success": res.Success,
		"saved":   res.Saved,
		"message": res.Message,
	}).Info("定时抓取完成")
	return res
}

// Next 下一次触发时间（未启动时为零值）
func (s *Scheduler) Next() time.Time {
	return s.cron.Entry(s.entryID).Next
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		s.cron.Start()
		s.started = true
		s.logger.WithField("next", s.Next()).Info("定时抓取已启动")
	}
}

// Stop 停止调度并等待正在执行的任务结束
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		<-s.cron.Stop().Done()
		s.started = false
	}
}
