package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/francovalli123/StudyO/internal/dto"
	"github.com/francovalli123/StudyO/internal/service"
	"github.com/francovalli123/StudyO/pkg/response"
)

// PomodoroHandler 专注会话模块 HTTP 处理器
type PomodoroHandler struct {
	pomodoroSvc service.PomodoroService
}

// NewPomodoroHandler 创建 PomodoroHandler
func NewPomodoroHandler(pomodoroSvc service.PomodoroService) *PomodoroHandler {
	return &PomodoroHandler{pomodoroSvc: pomodoroSvc}
}

// CreateSession 上报专注会话
// POST /api/v1/sessions
func (h *PomodoroHandler) CreateSession(c *gin.Context) {
	var req dto.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	session, err := h.pomodoroSvc.Create(c.Request.Context(), userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSessionTimeInvalid):
			response.BadRequest(c, 23001, err.Error())
		case errors.Is(err, service.ErrSessionDuplicate):
			response.Conflict(c, 23002, err.Error())
		case errors.Is(err, service.ErrSessionSubjectAbsent):
			response.BadRequest(c, 23003, err.Error())
		default:
			response.InternalError(c)
		}
		return
	}

	response.Created(c, session)
}

// ListSessions 查询会话列表
// GET /api/v1/sessions?from=2025-07-14&to=2025-07-20&page=1&page_size=20
func (h *PomodoroHandler) ListSessions(c *gin.Context) {
	var query dto.SessionListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	sessions, total, err := h.pomodoroSvc.List(c.Request.Context(), userID, &query)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, sessions, total, query.Page, query.PageSize)
}

// DeleteSession 删除会话
// DELETE /api/v1/sessions/:id
func (h *PomodoroHandler) DeleteSession(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "会话ID不能为空")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.pomodoroSvc.Delete(c.Request.Context(), userID, id); err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			response.NotFound(c, 23004, err.Error())
			return
		}
		response.InternalError(c)
		return
	}

	response.NoContent(c)
}
