package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"TipsSync/internal/classifier"
	"TipsSync/internal/interfaces"
	"TipsSync/internal/metrics"
	"TipsSync/internal/model"
	"TipsSync/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// 入库来源
const (
	SourceUpload   = "upload"
	SourceNetwork  = "network"
	SourceSchedule = "schedule"
)

const dateLayout = "2006-01-02"

// IngestResult 返回给管理端的处理结果；失败也是结果，不会以 error 形式抛出
type IngestResult struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	Processed   int    `json:"processed"`
	Saved       int    `json:"saved"`
	Cleared     *int64 `json:"cleared,omitempty"`
	Skipped     bool   `json:"skipped,omitempty"`
	FreeTips    *int   `json:"freeTips,omitempty"`
	PremiumTips *int   `json:"premiumTips,omitempty"`
	Error       string `json:"error,omitempty"`
	RunID       string `json:"runId,omitempty"`
}

// IngestService 抓取 -> 抽取 -> 分类 -> 按日期替换
type IngestService struct {
	fetcher    interfaces.PageFetcher
	extractor  interfaces.TableExtractor
	classifier *classifier.Classifier
	reconciler *Reconciler
	locker     interfaces.DateLocker
	runs       repository.IngestionRunRepository
	logger     *logrus.Logger
}

func NewIngestService(
	fetcher interfaces.PageFetcher,
	extractor interfaces.TableExtractor,
	c *classifier.Classifier,
	reconciler *Reconciler,
	locker interfaces.DateLocker,
	runs repository.IngestionRunRepository,
	logger *logrus.Logger,
) *IngestService {
	return &IngestService{
		fetcher:    fetcher,
		extractor:  extractor,
		classifier: c,
		reconciler: reconciler,
		locker:     locker,
		runs:       runs,
		logger:     logger,
	}
}

// ProcessTipsForDate 处理某日 tips。html 非空时跳过网络抓取
func (s *IngestService) ProcessTipsForDate(ctx context.Context, date string, html string, source string) (result *IngestResult) {
	start := time.Now()
	rs := s.classifier.Ruleset()
	log := s.logger.WithFields(logrus.Fields{
		"date":    date,
		"source":  source,
		"ruleset": rs.Name,
	})
	var stats *classifier.ClassificationStats

	defer func() {
		if p := recover(); p != nil {
			log.WithField("panic", fmt.Sprint(p)).Error("处理tips异常")
			result = failure(fmt.Errorf("%v", p))
		}
		s.finish(date, source, result, stats, time.Since(start))
	}()

	if _, err := time.Parse(dateLayout, date); err != nil {
		return failure(fmt.Errorf("日期格式无效（应为YYYY-MM-DD）: %q", date))
	}

	log.Info("开始处理tips")
	page := s.fetcher.FetchPage(ctx, date, html)
	if page == "" {
		metrics.FetchFailures.Inc()
	}
	rows := s.extractor.Extract(page)
	metrics.RowsScraped.Add(float64(len(rows)))
	if len(rows) == 0 {
		log.Warn("未抓取到任何tips")
		return &IngestResult{Message: "No tips found to process"}
	}
	log.WithField("rows", len(rows)).Info("页面抽取完成")

	candidates := s.buildCandidates(date, rows, log)
	st := s.classifier.Stats(scoresOf(rows))
	stats = &st

	if len(candidates) == 0 {
		return &IngestResult{Message: "No valid tips to save after processing", Processed: len(rows)}
	}
	log.WithField("candidates", len(candidates)).Info("分类完成")

	unlock, err := s.locker.Lock(ctx, date)
	if err != nil {
		return failure(err)
	}
	defer unlock()

	outcome, err := s.reconciler.Reconcile(ctx, date, candidates)
	if err != nil {
		return failure(err)
	}
	if outcome.Skipped {
		log.WithField("existing", outcome.Existing).Info("已有数据不少于本次抓取，跳过替换")
		return &IngestResult{
			Message:   outcome.Message,
			Processed: len(rows),
			Skipped:   true,
		}
	}

	free, premium := countTiers(candidates)
	cleared := outcome.Cleared
	return &IngestResult{
		Success:     true,
		Message:     outcome.Message,
		Processed:   len(rows),
		Saved:       outcome.Saved,
		Cleared:     &cleared,
		FreeTips:    &free,
		PremiumTips: &premium,
	}
}

// buildCandidates 调整开赛时间、过滤发布时段、两档分类并细化赔率
func (s *IngestService) buildCandidates(date string, rows []model.RawRow, log *logrus.Entry) []*model.Tip {
	rs := s.classifier.Ruleset()
	var tips []*model.Tip
	for _, row := range rows {
		adjusted, hour, ok := rs.AdjustKickoff(row.KickoffTime)
		if !ok || !rs.Publishable(hour) {
			continue
		}

		outs := s.classifier.ClassifyRow(row)
		if len(outs) == 0 {
			if !s.classifiable(row.PredictedScore) {
				metrics.RowsUnclassified.Inc()
				log.WithFields(logrus.Fields{
					"score":  row.PredictedScore,
					"match":  row.MatchTitle(),
					"league": row.League,
				}).Warn("无法分类的比分，已跳过")
			}
			continue
		}

		for _, out := range outs {
			odds := out.RefinedOdds
			tips = append(tips, &model.Tip{
				Match:     row.MatchTitle(),
				League:    row.League,
				Tip:       string(out.Market),
				Odds:      &odds,
				IsPremium: out.IsPremium(),
				Date:      date,
				Time:      adjusted,
				Status:    model.StatusPending,
			})
		}
	}
	return tips
}

// classifiable 区分“无规则命中”与“被赔率细化丢弃”
func (s *IngestService) classifiable(score string) bool {
	if _, ok := s.classifier.Classify(score, model.TierFree); ok {
		return true
	}
	_, ok := s.classifier.Classify(score, model.TierPremium)
	return ok
}

// finish 记录指标和运行记录，不影响返回结果
func (s *IngestService) finish(date, source string, result *IngestResult, stats *classifier.ClassificationStats, elapsed time.Duration) {
	if result == nil {
		return
	}
	outcome := "failed"
	switch {
	case result.Success:
		outcome = "saved"
	case result.Skipped:
		outcome = "skipped"
	}
	metrics.IngestRuns.WithLabelValues(source, outcome).Inc()
	metrics.IngestDuration.Observe(elapsed.Seconds())
	if result.Success {
		if result.FreeTips != nil {
			metrics.TipsSaved.WithLabelValues(string(model.TierFree)).Add(float64(*result.FreeTips))
		}
		if result.PremiumTips != nil {
			metrics.TipsSaved.WithLabelValues(string(model.TierPremium)).Add(float64(*result.PremiumTips))
		}
	}

	if s.runs == nil {
		return
	}
	run := &model.IngestionRun{
		RunUUID:    uuid.NewString(),
		Date:       date,
		Source:     source,
		Ruleset:    s.classifier.Ruleset().Name,
		Processed:  result.Processed,
		Saved:      result.Saved,
		Skipped:    result.Skipped,
		Success:    result.Success,
		Message:    result.Message,
		DurationMs: elapsed.Milliseconds(),
	}
	if result.Cleared != nil {
		run.Cleared = *result.Cleared
	}
	if stats != nil {
		if b, err := json.Marshal(stats); err == nil {
			run.Stats = datatypes.JSON(b)
		}
	}

	// 请求 ctx 可能已结束，运行记录单独给超时
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.runs.Create(ctx, run); err != nil {
		s.logger.WithError(err).WithField("date", date).Warn("保存运行记录失败")
		return
	}
	result.RunID = run.RunUUID
}

func failure(err error) *IngestResult {
	return &IngestResult{
		Message: "Error processing tips: " + err.Error(),
		Error:   err.Error(),
	}
}

func scoresOf(rows []model.RawRow) []string {
	scores := make([]string, len(rows))
	for i := range rows {
		scores[i] = rows[i].PredictedScore
	}
	return scores
}

func countTiers(tips []*model.Tip) (free, premium int) {
	for _, t := range tips {
		if t.IsPremium {
			premium++
		} else {
			free++
		}
	}
	return free, premium
}
