package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes 注册管理端与前端读取接口
func RegisterRoutes(r *gin.Engine, ingest *IngestHandler, tips *TipHandler) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	admin := r.Group("/admin")
	admin.POST("/tips/upload", ingest.UploadTips)
	admin.POST("/tips/sync/:date", ingest.SyncDate)
	admin.POST("/tips/classify-stats", ingest.ClassifyStats)
	admin.GET("/ingestions", ingest.ListIngestions)

	r.GET("/api/tips", tips.ListTips)
	r.GET("/api/highlights", tips.Highlights)
}
