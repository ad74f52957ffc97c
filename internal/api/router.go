// Package api exposes the engine over a small JSON HTTP API.
package api

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/fakeyudi/timerdeck/internal/engine"
	"github.com/fakeyudi/timerdeck/internal/logging"
)

// NewRouter builds the gin engine serving e.
func NewRouter(e *engine.Engine, logger *log.Logger) *gin.Engine {
	if logger == nil {
		logger = logging.Discard()
	}
	h := &Handler{engine: e, log: logger}

	r := gin.New()
	r.Use(requestLogger(logger), gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.GET("/timers", h.ListTimers)
	api.POST("/timers", h.CreateTimer)
	api.DELETE("/timers/:id", h.RemoveTimer)
	api.POST("/timers/:id/:op", h.TimerOp)

	api.GET("/categories", h.ListCategories)
	api.POST("/categories/:name/:op", h.CategoryOp)

	api.GET("/history", h.GetHistory)
	api.DELETE("/history", h.ClearHistory)
	api.GET("/history/export", h.ExportHistory)

	api.GET("/notifications", h.ListNotifications)
	api.POST("/notifications/ack", h.AckNotification)

	return r
}

func requestLogger(logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"took", time.Since(start),
		)
	}
}
