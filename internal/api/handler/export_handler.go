package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/francovalli123/StudyO/internal/service"
	"github.com/francovalli123/StudyO/pkg/response"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportProgress 导出进度 Excel
// GET /api/v1/export/progress
func (h *ExportHandler) ExportProgress(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportProgressXLSX(c.Request.Context(), userID)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// ExportSessions 导出会话日历
// GET /api/v1/export/sessions.ics?from=2025-07-01&to=2025-07-31
func (h *ExportHandler) ExportSessions(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	// 缺省导出最近 30 天
	to := time.Now().UTC()
	from := to.AddDate(0, 0, -30)
	if v := c.Query("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			response.BadRequest(c, 10001, "from 日期格式无效")
			return
		}
		from = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			response.BadRequest(c, 10001, "to 日期格式无效")
			return
		}
		to = t.Add(24*time.Hour - time.Nanosecond)
	}

	buf, filename, err := h.exportSvc.ExportSessionsICS(c.Request.Context(), userID, from, to)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", buf.Bytes())
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportNoData):
		response.NotFound(c, 27001, err.Error())
	case errors.Is(err, service.ErrExportUserNotFound):
		response.NotFound(c, 27002, err.Error())
	default:
		response.InternalError(c)
	}
}
