package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/livestock/internal/service/reporting"
)

// ReportHandler exposes herd summary reporting over HTTP.
type ReportHandler struct {
	svc    *reporting.Service
	logger *zap.Logger
}

// NewReportHandler constructs the HTTP handler adapter.
func NewReportHandler(svc *reporting.Service, logger *zap.Logger) *ReportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportHandler{svc: svc, logger: logger}
}

// DailySummary builds the summary for the current day without persisting it.
func (h *ReportHandler) DailySummary(c *gin.Context) {
	summary, err := h.svc.BuildDailySummary(c.Request.Context(), time.Now())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// PublishDailySummary builds, stores and exports the summary for the current
// day. The scheduler calls the same service path on its cron schedule.
func (h *ReportHandler) PublishDailySummary(c *gin.Context) {
	summary, err := h.svc.PublishDailySummary(c.Request.Context(), time.Now())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
