package api

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"TipsSync/internal/classifier"
	"TipsSync/internal/repository"
	"TipsSync/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// 上传页面大小上限
const maxUploadBytes = 10 << 20

// TipsProcessor 单日入库入口
type TipsProcessor interface {
	ProcessTipsForDate(ctx context.Context, date string, html string, source string) *service.IngestResult
}

// IngestHandler 管理端：上传页面/触发抓取/分类统计/运行记录
type IngestHandler struct {
	processor  TipsProcessor
	classifier *classifier.Classifier
	runs       repository.IngestionRunRepository
	logger     *logrus.Logger
}

func NewIngestHandler(processor TipsProcessor, c *classifier.Classifier, runs repository.IngestionRunRepository, logger *logrus.Logger) *IngestHandler {
	return &IngestHandler{
		processor:  processor,
		classifier: c,
		runs:       runs,
		logger:     logger,
	}
}

// UploadTips 管理员上传原站页面（不走网络抓取）
// POST /admin/tips/upload  multipart: date2, htmfile
func (h *IngestHandler) UploadTips(c *gin.Context) {
	date := c.PostForm("date2")
	if date == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date2 is required"})
		return
	}
	fh, err := c.FormFile("htmfile")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "htmfile is required"})
		return
	}
	if fh.Size > maxUploadBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "htmfile is too large"})
		return
	}

	f, err := fh.Open()
	if err != nil {
		h.logger.WithError(err).Error("打开上传文件失败")
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read htmfile"})
		return
	}
	defer func() {
		if err := f.Close(); err != nil {
			h.logger.Errorf("关闭上传文件失败: %v", err)
		}
	}()
	body, err := io.ReadAll(io.LimitReader(f, maxUploadBytes))
	if err != nil {
		h.logger.WithError(err).Error("读取上传文件失败")
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read htmfile"})
		return
	}
	if len(body) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "htmfile is empty"})
		return
	}

	res := h.processor.ProcessTipsForDate(c.Request.Context(), date, string(body), service.SourceUpload)
	h.logger.WithFields(logrus.Fields{
		"date":    date,
		"file":    fh.Filename,
		"success": res.Success,
	}).Info("上传页面处理完成")
	c.JSON(http.StatusOK, res)
}

// SyncDate 经抓取代理获取指定日期
// POST /admin/tips/sync/:date
func (h *IngestHandler) SyncDate(c *gin.Context) {
	date := c.Param("date")
	res := h.processor.ProcessTipsForDate(c.Request.Context(), date, "", service.SourceNetwork)
	if !res.Success {
		h.logger.WithField("date", date).Warnf("同步未完成: %s", res.Message)
	}
	c.JSON(http.StatusOK, res)
}

type classifyStatsRequest struct {
	Scores []string `json:"scores" binding:"required"`
}

// ClassifyStats 对一批比分做分类统计（诊断用）
// POST /admin/tips/classify-stats {"scores": ["2:0", "1:1"]}
func (h *IngestHandler) ClassifyStats(c *gin.Context) {
	var req classifyStatsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ruleset": h.classifier.Ruleset().Name,
		"stats":   h.classifier.Stats(req.Scores),
	})
}

// ListIngestions 最近的入库运行记录
// GET /admin/ingestions?limit=20
func (h *IngestHandler) ListIngestions(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a number"})
		return
	}
	runs, err := h.runs.ListRecent(c.Request.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("ListIngestions failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": runs})
}
