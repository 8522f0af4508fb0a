package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/francovalli123/StudyO/internal/dto"
	"github.com/francovalli123/StudyO/internal/service"
	"github.com/francovalli123/StudyO/pkg/response"
)

// ObjectiveHandler 周目标模块 HTTP 处理器
type ObjectiveHandler struct {
	objectiveSvc service.ObjectiveService
}

// NewObjectiveHandler 创建 ObjectiveHandler
func NewObjectiveHandler(objectiveSvc service.ObjectiveService) *ObjectiveHandler {
	return &ObjectiveHandler{objectiveSvc: objectiveSvc}
}

// ListObjectives 获取当前周目标
// GET /api/v1/objectives
func (h *ObjectiveHandler) ListObjectives(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	objectives, err := h.objectiveSvc.List(c.Request.Context(), userID)
	if err != nil {
		h.handleObjectiveError(c, err)
		return
	}

	response.OK(c, gin.H{"list": objectives})
}

// CreateObjective 创建周目标
// POST /api/v1/objectives
func (h *ObjectiveHandler) CreateObjective(c *gin.Context) {
	var req dto.CreateObjectiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	objective, err := h.objectiveSvc.Create(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleObjectiveError(c, err)
		return
	}

	response.Created(c, objective)
}

// UpdateObjective 更新周目标
// PUT /api/v1/objectives/:id
func (h *ObjectiveHandler) UpdateObjective(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "目标ID不能为空")
		return
	}

	var req dto.UpdateObjectiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	objective, err := h.objectiveSvc.Update(c.Request.Context(), userID, id, &req)
	if err != nil {
		h.handleObjectiveError(c, err)
		return
	}

	response.OK(c, objective)
}

// DeleteObjective 删除周目标
// DELETE /api/v1/objectives/:id
func (h *ObjectiveHandler) DeleteObjective(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "目标ID不能为空")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.objectiveSvc.Delete(c.Request.Context(), userID, id); err != nil {
		h.handleObjectiveError(c, err)
		return
	}

	response.NoContent(c)
}

// GetObjectiveStats 获取当前周目标统计
// GET /api/v1/objectives/stats
func (h *ObjectiveHandler) GetObjectiveStats(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	stats, err := h.objectiveSvc.Stats(c.Request.Context(), userID)
	if err != nil {
		h.handleObjectiveError(c, err)
		return
	}

	response.OK(c, stats)
}

// ListObjectiveHistory 获取历史周目标
// GET /api/v1/objectives/history?page=1&page_size=20
func (h *ObjectiveHandler) ListObjectiveHistory(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	page, pageSize := parsePagination(c)
	histories, total, err := h.objectiveSvc.ListHistory(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		h.handleObjectiveError(c, err)
		return
	}

	response.OKPage(c, histories, total, page, pageSize)
}

func (h *ObjectiveHandler) handleObjectiveError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrObjectiveNotFound):
		response.NotFound(c, 25001, err.Error())
	case errors.Is(err, service.ErrObjectiveArchived):
		response.Conflict(c, 25002, err.Error())
	default:
		response.InternalError(c)
	}
}
