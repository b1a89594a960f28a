package api

import (
	"net/http"
	"strconv"

	"TipsSync/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// TipHandler 提供给前端的 tips 查询接口
type TipHandler struct {
	tipService *service.TipService
	highlights *service.HighlightsService
	logger     *logrus.Logger
}

func NewTipHandler(tips *service.TipService, highlights *service.HighlightsService, logger *logrus.Logger) *TipHandler {
	return &TipHandler{
		tipService: tips,
		highlights: highlights,
		logger:     logger,
	}
}

// ListTips 某日 tips，按开赛时间排序
// GET /api/tips?date=2025-01-15&premium=false
func (h *TipHandler) ListTips(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date is required"})
		return
	}

	var premium *bool
	if raw := c.Query("premium"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "premium must be true or false"})
			return
		}
		premium = &v
	}

	items, err := h.tipService.ListTips(c.Request.Context(), date, premium)
	if err != nil {
		h.logger.WithError(err).Error("ListTips failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": date, "items": items})
}

// Highlights 精选抽样
// GET /api/highlights?siku=2025-01-15&n=10
func (h *TipHandler) Highlights(c *gin.Context) {
	siku := c.Query("siku")
	if siku == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "siku is required"})
		return
	}
	n, err := strconv.Atoi(c.DefaultQuery("n", "0"))
	if err != nil || n < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "n must be a non-negative number"})
		return
	}

	items, err := h.highlights.Sample(c.Request.Context(), siku, n)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"siku": siku, "items": items})
}
