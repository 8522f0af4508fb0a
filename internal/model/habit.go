package model

import "time"

// Habit 习惯表 — 对应 habits
type Habit struct {
	HabitID   string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"habit_id"`
	UserID    string `gorm:"type:uuid;not null;index"                       json:"user_id"`
	Name      string `gorm:"type:varchar(100);not null"                     json:"name"`
	IsKey     bool   `gorm:"not null;default:false"                         json:"is_key"` // 关键习惯参与每日提醒
	Streak    int    `gorm:"not null;default:0"                             json:"streak"`
	IsActive  bool   `gorm:"not null;default:true"                          json:"is_active"`
	BaseModel

	User *User `gorm:"foreignKey:UserID;references:UserID" json:"-"`
}

// TableName 指定表名
func (Habit) TableName() string { return "habits" }

// HabitRecord 习惯打卡记录表 — 对应 habit_records
//
// (habit_id, record_date) 唯一：每习惯每天至多一条打卡。
type HabitRecord struct {
	RecordID   string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"    json:"record_id"`
	HabitID    string    `gorm:"type:uuid;not null;uniqueIndex:uk_record_habit_date" json:"habit_id"`
	RecordDate time.Time `gorm:"type:date;not null;uniqueIndex:uk_record_habit_date" json:"record_date"`
	Completed  bool      `gorm:"not null;default:true"                             json:"completed"`
	CreatedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"                json:"created_at"`

	Habit *Habit `gorm:"foreignKey:HabitID;references:HabitID" json:"-"`
}

// TableName 指定表名
func (HabitRecord) TableName() string { return "habit_records" }
