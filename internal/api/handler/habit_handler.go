package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/francovalli123/StudyO/internal/dto"
	"github.com/francovalli123/StudyO/internal/service"
	"github.com/francovalli123/StudyO/pkg/response"
)

// HabitHandler 习惯模块 HTTP 处理器
type HabitHandler struct {
	habitSvc service.HabitService
}

// NewHabitHandler 创建 HabitHandler
func NewHabitHandler(habitSvc service.HabitService) *HabitHandler {
	return &HabitHandler{habitSvc: habitSvc}
}

// ListHabits 获取习惯列表
// GET /api/v1/habits
func (h *HabitHandler) ListHabits(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	habits, err := h.habitSvc.List(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": habits})
}

// CreateHabit 创建习惯
// POST /api/v1/habits
func (h *HabitHandler) CreateHabit(c *gin.Context) {
	var req dto.CreateHabitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	habit, err := h.habitSvc.Create(c.Request.Context(), userID, &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.Created(c, habit)
}

// UpdateHabit 更新习惯
// PUT /api/v1/habits/:id
func (h *HabitHandler) UpdateHabit(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "习惯ID不能为空")
		return
	}

	var req dto.UpdateHabitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	habit, err := h.habitSvc.Update(c.Request.Context(), userID, id, &req)
	if err != nil {
		h.handleHabitError(c, err)
		return
	}

	response.OK(c, habit)
}

// DeleteHabit 删除习惯
// DELETE /api/v1/habits/:id
func (h *HabitHandler) DeleteHabit(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "习惯ID不能为空")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.habitSvc.Delete(c.Request.Context(), userID, id); err != nil {
		h.handleHabitError(c, err)
		return
	}

	response.NoContent(c)
}

// CheckInHabit 习惯打卡
// POST /api/v1/habits/:id/check-in
func (h *HabitHandler) CheckInHabit(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "习惯ID不能为空")
		return
	}

	var req dto.CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	habit, err := h.habitSvc.CheckIn(c.Request.Context(), userID, id, &req)
	if err != nil {
		h.handleHabitError(c, err)
		return
	}

	response.OK(c, habit)
}

func (h *HabitHandler) handleHabitError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrHabitNotFound):
		response.NotFound(c, 26001, err.Error())
	case errors.Is(err, service.ErrHabitAlreadyChecked):
		response.Conflict(c, 26002, err.Error())
	case errors.Is(err, service.ErrHabitDateInvalid):
		response.BadRequest(c, 26003, err.Error())
	default:
		response.InternalError(c)
	}
}
