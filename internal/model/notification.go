package model

import "time"

// NotificationType 通知类型
type NotificationType string

const (
	NotifyKeyHabitsReminder        NotificationType = "key_habits_reminder"        // 每日关键习惯提醒
	NotifyWeeklyChallengeReminder  NotificationType = "weekly_challenge_reminder"  // 周日挑战冲刺提醒
	NotifyWeeklyObjectivesReminder NotificationType = "weekly_objectives_reminder" // 周六未完成目标提醒
	NotifyWeeklySummary            NotificationType = "weekly_summary"             // 周一上周总结
)

// NotificationStatus 通知投递状态
type NotificationStatus string

const (
	NotificationStatusSent   NotificationStatus = "sent"
	NotificationStatusFailed NotificationStatus = "failed"
)

// Notification 通知发送记录表 — 对应 notifications
//
// 每次实际投递（或投递失败）落一条记录，窗口去重依据 type + sent_at。
type Notification struct {
	NotificationID string             `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"notification_id"`
	UserID         string             `gorm:"type:uuid;not null;index"                       json:"user_id"`
	Type           NotificationType   `gorm:"type:varchar(40);not null"                      json:"type"`
	Status         NotificationStatus `gorm:"type:varchar(10);not null"                      json:"status"`
	Message        string             `gorm:"type:text;not null;default:''"                  json:"message"`
	Metadata       JSONMap            `gorm:"type:jsonb;not null;default:'{}'"               json:"metadata"`
	SentAt         time.Time          `gorm:"not null"                                       json:"sent_at"`
	CreatedAt      time.Time          `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`

	User *User `gorm:"foreignKey:UserID;references:UserID" json:"-"`
}

// TableName 指定表名
func (Notification) TableName() string { return "notifications" }
