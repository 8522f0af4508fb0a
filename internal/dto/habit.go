package dto

import "github.com/francovalli123/StudyO/internal/model"

// CreateHabitRequest 创建习惯请求
type CreateHabitRequest struct {
	Name  string `json:"name"   binding:"required,max=100"`
	IsKey bool   `json:"is_key"`
}

// UpdateHabitRequest 更新习惯请求
type UpdateHabitRequest struct {
	Name     *string `json:"name"      binding:"omitempty,max=100"`
	IsKey    *bool   `json:"is_key"`
	IsActive *bool   `json:"is_active"`
}

// HabitResponse 习惯响应
type HabitResponse struct {
	HabitID        string `json:"habit_id"`
	Name           string `json:"name"`
	IsKey          bool   `json:"is_key"`
	Streak         int    `json:"streak"`
	IsActive       bool   `json:"is_active"`
	CompletedToday bool   `json:"completed_today"`
}

// NewHabitResponse 由模型构造习惯响应
func NewHabitResponse(h *model.Habit, completedToday bool) *HabitResponse {
	return &HabitResponse{
		HabitID:        h.HabitID,
		Name:           h.Name,
		IsKey:          h.IsKey,
		Streak:         h.Streak,
		IsActive:       h.IsActive,
		CompletedToday: completedToday,
	}
}

// CheckInRequest 习惯打卡请求
type CheckInRequest struct {
	RecordDate string `json:"record_date" binding:"omitempty,datetime=2006-01-02"` // 缺省为用户本地今天
}
