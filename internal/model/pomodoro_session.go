package model

import "time"

// PomodoroSession 专注会话表 — 对应 pomodoro_sessions
//
// (user_id, start_time, end_time, duration_minutes) 上有唯一约束，
// 客户端重试产生的重复上报会被数据库拒绝，服务层按幂等处理。
type PomodoroSession struct {
	SessionID       string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"session_id"`
	UserID          string    `gorm:"type:uuid;not null;index"                       json:"user_id"`
	SubjectID       *string   `gorm:"type:uuid"                                      json:"subject_id,omitempty"`
	StartTime       time.Time `gorm:"not null"                                       json:"start_time"` // UTC
	EndTime         time.Time `gorm:"not null"                                       json:"end_time"`   // UTC
	DurationMinutes float64   `gorm:"not null"                                       json:"duration_minutes"`
	BaseModel

	User    *User    `gorm:"foreignKey:UserID;references:UserID"          json:"-"`
	Subject *Subject `gorm:"foreignKey:SubjectID;references:SubjectID"    json:"subject,omitempty"`
}

// TableName 指定表名
func (PomodoroSession) TableName() string { return "pomodoro_sessions" }
