package model

import "time"

// WeeklyObjective 周目标表 — 对应 weekly_objectives
//
// 活跃目标属于"当前周"；周一轮转时快照进历史表并整体归档（is_active=false）。
type WeeklyObjective struct {
	ObjectiveID string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"objective_id"`
	UserID      string     `gorm:"type:uuid;not null;index"                       json:"user_id"`
	Title       string     `gorm:"type:varchar(200);not null"                     json:"title"`
	Description string     `gorm:"type:text;not null;default:''"                  json:"description"`
	Area        string     `gorm:"type:varchar(100);not null;default:''"          json:"area"` // 生活领域标签，如 Estudio/Salud
	Priority    int        `gorm:"not null;default:0"                             json:"priority"`
	IsCompleted bool       `gorm:"not null;default:false"                         json:"is_completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	IsActive    bool       `gorm:"not null;default:true;index"                    json:"is_active"`
	ArchivedAt  *time.Time `json:"archived_at,omitempty"`
	BaseModel

	User *User `gorm:"foreignKey:UserID;references:UserID" json:"-"`
}

// TableName 指定表名
func (WeeklyObjective) TableName() string { return "weekly_objectives" }

// WeeklyObjectiveHistory 周目标历史快照表 — 对应 weekly_objective_histories
//
// 轮转时按目标逐条写入，记录该目标在被归档周的最终完成状态。
// 历史行没有唯一约束，幂等性由轮转前的守卫条件保证。
type WeeklyObjectiveHistory struct {
	HistoryID     string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"history_id"`
	UserID        string     `gorm:"type:uuid;not null;index"                       json:"user_id"`
	ObjectiveID   string     `gorm:"type:uuid;not null"                             json:"objective_id"`
	Title         string     `gorm:"type:varchar(200);not null"                     json:"title"`
	Description   string     `gorm:"type:text;not null;default:''"                  json:"description"`
	Area          string     `gorm:"type:varchar(100);not null;default:'General'"   json:"area"` // 快照时空领域回落为 General
	Priority      int        `gorm:"not null;default:0"                             json:"priority"`
	WasCompleted  bool       `gorm:"not null;default:false"                         json:"was_completed"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	WeekStartDate time.Time  `gorm:"type:date;not null;index"                       json:"week_start_date"`
	WeekEndDate   time.Time  `gorm:"type:date;not null"                             json:"week_end_date"`
	CreatedAt     time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (WeeklyObjectiveHistory) TableName() string { return "weekly_objective_histories" }
