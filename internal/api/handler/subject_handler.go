package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/francovalli123/StudyO/internal/dto"
	"github.com/francovalli123/StudyO/internal/service"
	"github.com/francovalli123/StudyO/pkg/response"
)

// SubjectHandler 学科模块 HTTP 处理器
type SubjectHandler struct {
	subjectSvc service.SubjectService
}

// NewSubjectHandler 创建 SubjectHandler
func NewSubjectHandler(subjectSvc service.SubjectService) *SubjectHandler {
	return &SubjectHandler{subjectSvc: subjectSvc}
}

// ListSubjects 获取学科列表
// GET /api/v1/subjects
func (h *SubjectHandler) ListSubjects(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	subjects, err := h.subjectSvc.List(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": subjects})
}

// CreateSubject 创建学科
// POST /api/v1/subjects
func (h *SubjectHandler) CreateSubject(c *gin.Context) {
	var req dto.CreateSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	subject, err := h.subjectSvc.Create(c.Request.Context(), userID, &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.Created(c, subject)
}

// UpdateSubject 更新学科
// PUT /api/v1/subjects/:id
func (h *SubjectHandler) UpdateSubject(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "学科ID不能为空")
		return
	}

	var req dto.UpdateSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	subject, err := h.subjectSvc.Update(c.Request.Context(), userID, id, &req)
	if err != nil {
		if errors.Is(err, service.ErrSubjectNotFound) {
			response.NotFound(c, 22001, err.Error())
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, subject)
}

// DeleteSubject 删除学科
// DELETE /api/v1/subjects/:id
func (h *SubjectHandler) DeleteSubject(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "学科ID不能为空")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.subjectSvc.Delete(c.Request.Context(), userID, id); err != nil {
		if errors.Is(err, service.ErrSubjectNotFound) {
			response.NotFound(c, 22001, err.Error())
			return
		}
		response.InternalError(c)
		return
	}

	response.NoContent(c)
}
