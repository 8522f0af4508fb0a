package dto

import "github.com/francovalli123/StudyO/internal/model"

// CreateObjectiveRequest 创建周目标请求
type CreateObjectiveRequest struct {
	Title       string `json:"title"       binding:"required,max=200"`
	Description string `json:"description" binding:"omitempty,max=2000"`
	Area        string `json:"area"        binding:"omitempty,max=100"`
	Priority    int    `json:"priority"    binding:"omitempty,min=0,max=10"`
}

// UpdateObjectiveRequest 更新周目标请求
type UpdateObjectiveRequest struct {
	Title       *string `json:"title"        binding:"omitempty,max=200"`
	Description *string `json:"description"  binding:"omitempty,max=2000"`
	Area        *string `json:"area"         binding:"omitempty,max=100"`
	Priority    *int    `json:"priority"     binding:"omitempty,min=0,max=10"`
	IsCompleted *bool   `json:"is_completed"`
}

// ObjectiveResponse 周目标响应
type ObjectiveResponse struct {
	ObjectiveID string  `json:"objective_id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Area        string  `json:"area"`
	Priority    int     `json:"priority"`
	IsCompleted bool    `json:"is_completed"`
	CompletedAt *string `json:"completed_at,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

// NewObjectiveResponse 由模型构造目标响应
func NewObjectiveResponse(o *model.WeeklyObjective) *ObjectiveResponse {
	resp := &ObjectiveResponse{
		ObjectiveID: o.ObjectiveID,
		Title:       o.Title,
		Description: o.Description,
		Area:        o.Area,
		Priority:    o.Priority,
		IsCompleted: o.IsCompleted,
		CreatedAt:   o.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
	if o.CompletedAt != nil {
		s := o.CompletedAt.UTC().Format("2006-01-02T15:04:05Z07:00")
		resp.CompletedAt = &s
	}
	return resp
}

// ObjectiveStatsResponse 当前周目标统计
type ObjectiveStatsResponse struct {
	Total          int     `json:"total"`
	Completed      int     `json:"completed"`
	Pending        int     `json:"pending"`
	CompletionRate float64 `json:"completion_rate"` // 0~100，总数为 0 时为 0
}

// ObjectiveHistoryResponse 历史周目标响应
type ObjectiveHistoryResponse struct {
	HistoryID     string  `json:"history_id"`
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	Area          string  `json:"area"`
	Priority      int     `json:"priority"`
	WasCompleted  bool    `json:"was_completed"`
	CompletedAt   *string `json:"completed_at,omitempty"`
	WeekStartDate string  `json:"week_start_date"` // YYYY-MM-DD
	WeekEndDate   string  `json:"week_end_date"`   // YYYY-MM-DD
}

// NewObjectiveHistoryResponse 由历史快照构造响应
func NewObjectiveHistoryResponse(h *model.WeeklyObjectiveHistory) *ObjectiveHistoryResponse {
	resp := &ObjectiveHistoryResponse{
		HistoryID:     h.HistoryID,
		Title:         h.Title,
		Description:   h.Description,
		Area:          h.Area,
		Priority:      h.Priority,
		WasCompleted:  h.WasCompleted,
		WeekStartDate: h.WeekStartDate.Format("2006-01-02"),
		WeekEndDate:   h.WeekEndDate.Format("2006-01-02"),
	}
	if h.CompletedAt != nil {
		s := h.CompletedAt.UTC().Format("2006-01-02T15:04:05Z07:00")
		resp.CompletedAt = &s
	}
	return resp
}

// RolloverResult 轮转执行结果
type RolloverResult struct {
	Performed     bool     `json:"performed"`
	Reason        string   `json:"reason,omitempty"` // 未执行时的守卫原因
	ArchivedCount int      `json:"archived_count"`
	WeekStart     string   `json:"week_start,omitempty"` // 被归档周的起点
	WeekEnd       string   `json:"week_end,omitempty"`
	Errors        []string `json:"errors,omitempty"` // 逐用户扫描时收集的错误
}
