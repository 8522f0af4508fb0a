package model

import "time"

// User 用户表 — 对应 users
type User struct {
	UserID       string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Username     string `gorm:"type:varchar(100);not null;uniqueIndex"         json:"username"`
	Email        string `gorm:"type:varchar(255);not null;uniqueIndex"         json:"email"`
	PasswordHash string `gorm:"type:varchar(255);not null"                     json:"-"`
	Country      string `gorm:"type:varchar(2);not null;default:''"            json:"country"`  // ISO 国家代码，时区缺失时的推断依据
	Timezone     string `gorm:"type:varchar(50);not null;default:'UTC'"        json:"timezone"` // IANA 时区标识，允许无效值（运行时降级）
	Language     string `gorm:"type:varchar(5);not null;default:'es'"          json:"language"`
	// 通知偏好，结构: {"key_habits_reminder_enabled": true, "key_habits_reminder_hour": 20, ...}
	NotificationPreferences JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"notification_preferences"`
	IsActive                bool    `gorm:"not null;default:true"            json:"is_active"`
	BaseModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// notificationDefaults 通知偏好默认值
var notificationDefaults = map[string]interface{}{
	"key_habits_reminder_enabled":       true,
	"key_habits_reminder_hour":          20, // 20:00 本地时间
	"weekly_challenge_reminder_enabled": true,
	"weekly_objectives_reminder_enabled": true,
	"weekly_summary_enabled":            true,
}

// NotificationPrefs 返回合并默认值后的通知偏好
func (u *User) NotificationPrefs() map[string]interface{} {
	prefs := make(map[string]interface{}, len(notificationDefaults))
	for k, v := range notificationDefaults {
		prefs[k] = v
	}
	for k, v := range u.NotificationPreferences {
		prefs[k] = v
	}
	return prefs
}

// IsNotificationEnabled 判断某类通知是否开启
func (u *User) IsNotificationEnabled(key string) bool {
	v, ok := u.NotificationPrefs()[key+"_enabled"]
	if !ok {
		return true
	}
	enabled, ok := v.(bool)
	if !ok {
		return true
	}
	return enabled
}

// ReminderHour 提取配置的提醒小时，非法值回落到 defaultHour
func (u *User) ReminderHour(key string, defaultHour int) int {
	v, ok := u.NotificationPrefs()[key+"_hour"]
	if !ok {
		return defaultHour
	}
	// JSONB 反序列化后数字是 float64，也兼容直接设置的 int
	switch n := v.(type) {
	case float64:
		if h := int(n); h >= 0 && h <= 23 {
			return h
		}
	case int:
		if n >= 0 && n <= 23 {
			return n
		}
	}
	return defaultHour
}

// PasswordReset 密码重置令牌表 — 对应 password_resets
type PasswordReset struct {
	ResetID   string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"reset_id"`
	UserID    string     `gorm:"type:uuid;not null"                             json:"user_id"`
	TokenHash string     `gorm:"type:varchar(64);not null;uniqueIndex"          json:"-"`
	ExpiresAt time.Time  `gorm:"not null"                                       json:"expires_at"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	CreatedAt time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`

	User *User `gorm:"foreignKey:UserID;references:UserID" json:"-"`
}

// TableName 指定表名
func (PasswordReset) TableName() string { return "password_resets" }
