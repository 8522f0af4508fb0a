package dto

import (
	"time"

	"github.com/francovalli123/StudyO/internal/model"
)

// CreateSessionRequest 上报专注会话请求
// 时间统一为 UTC，RFC3339 格式
type CreateSessionRequest struct {
	SubjectID       *string   `json:"subject_id"       binding:"omitempty,uuid"`
	StartTime       time.Time `json:"start_time"       binding:"required"`
	EndTime         time.Time `json:"end_time"         binding:"required"`
	DurationMinutes float64   `json:"duration_minutes" binding:"required,gt=0"`
}

// SessionResponse 专注会话响应
type SessionResponse struct {
	SessionID       string  `json:"session_id"`
	SubjectID       *string `json:"subject_id,omitempty"`
	SubjectName     string  `json:"subject_name,omitempty"`
	StartTime       string  `json:"start_time"`
	EndTime         string  `json:"end_time"`
	DurationMinutes float64 `json:"duration_minutes"`
}

// NewSessionResponse 由模型构造会话响应
func NewSessionResponse(s *model.PomodoroSession) *SessionResponse {
	resp := &SessionResponse{
		SessionID:       s.SessionID,
		SubjectID:       s.SubjectID,
		StartTime:       s.StartTime.UTC().Format(time.RFC3339),
		EndTime:         s.EndTime.UTC().Format(time.RFC3339),
		DurationMinutes: s.DurationMinutes,
	}
	if s.Subject != nil {
		resp.SubjectName = s.Subject.Name
	}
	return resp
}

// SessionListQuery 会话列表查询参数
type SessionListQuery struct {
	From     string `form:"from"      binding:"omitempty,datetime=2006-01-02"`
	To       string `form:"to"        binding:"omitempty,datetime=2006-01-02"`
	Page     int    `form:"page,default=1"      binding:"min=1"`
	PageSize int    `form:"page_size,default=20" binding:"min=1,max=100"`
}
