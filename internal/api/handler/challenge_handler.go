package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/francovalli123/StudyO/internal/service"
	"github.com/francovalli123/StudyO/pkg/response"
)

// ChallengeHandler 周挑战模块 HTTP 处理器
type ChallengeHandler struct {
	challengeSvc service.ChallengeService
}

// NewChallengeHandler 创建 ChallengeHandler
func NewChallengeHandler(challengeSvc service.ChallengeService) *ChallengeHandler {
	return &ChallengeHandler{challengeSvc: challengeSvc}
}

// GetActiveChallenge 获取当前周挑战快照
// GET /api/v1/challenges/active
//
// 读取即评估：不存在则创建本周挑战，存在则重算进度后返回。
// 只有未知挑战类型等不可恢复错误才返回 500。
func (h *ChallengeHandler) GetActiveChallenge(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	challenge, err := h.challengeSvc.GetActive(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrChallengeUserNotFound) {
			response.NotFound(c, 24001, err.Error())
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, challenge)
}

// ListChallengeHistory 获取历史挑战列表
// GET /api/v1/challenges?page=1&page_size=20
func (h *ChallengeHandler) ListChallengeHistory(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	page, pageSize := parsePagination(c)
	challenges, total, err := h.challengeSvc.ListHistory(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, challenges, total, page, pageSize)
}

// parsePagination 解析分页参数，非法值回落到默认
func parsePagination(c *gin.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}
