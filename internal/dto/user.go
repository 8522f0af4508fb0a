package dto

import "github.com/francovalli123/StudyO/internal/model"

// UserResponse 用户信息响应
type UserResponse struct {
	UserID                  string                 `json:"user_id"`
	Username                string                 `json:"username"`
	Email                   string                 `json:"email"`
	Country                 string                 `json:"country"`
	Timezone                string                 `json:"timezone"`
	Language                string                 `json:"language"`
	NotificationPreferences map[string]interface{} `json:"notification_preferences"`
}

// NewUserResponse 由模型构造用户响应（通知偏好已合并默认值）
func NewUserResponse(u *model.User) *UserResponse {
	return &UserResponse{
		UserID:                  u.UserID,
		Username:                u.Username,
		Email:                   u.Email,
		Country:                 u.Country,
		Timezone:                u.Timezone,
		Language:                u.Language,
		NotificationPreferences: u.NotificationPrefs(),
	}
}

// UpdateProfileRequest 更新个人资料请求
// 指针字段区分"未传"与"置空"
type UpdateProfileRequest struct {
	Username *string `json:"username" binding:"omitempty,min=3,max=100"`
	Country  *string `json:"country"  binding:"omitempty,len=2"`
	Timezone *string `json:"timezone" binding:"omitempty,max=50"`
	Language *string `json:"language" binding:"omitempty,oneof=es en zh pt"`
}

// UpdateNotificationPreferencesRequest 更新通知偏好请求
// 只更新提交的键，未提交的键保持原值
type UpdateNotificationPreferencesRequest struct {
	Preferences map[string]interface{} `json:"preferences" binding:"required"`
}
