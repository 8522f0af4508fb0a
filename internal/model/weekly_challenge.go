package model

import "time"

// WeeklyChallengeType 周挑战类型
type WeeklyChallengeType string

const (
	ChallengeMarathonProductivity WeeklyChallengeType = "MARATHON_PRODUCTIVITY" // 本周完成 20 个专注会话
	ChallengeFocusDeepWork        WeeklyChallengeType = "FOCUS_DEEP_WORK"       // 4 天有 ≥2 个 ≥50 分钟的会话
	ChallengeSubjectFocus         WeeklyChallengeType = "SUBJECT_FOCUS"         // 单一学科最多会话数达到 10
	ChallengeEarlyStart           WeeklyChallengeType = "EARLY_START"           // 5 天在本地 10:00 前开始学习
	ChallengeStrongFinish         WeeklyChallengeType = "STRONG_FINISH"         // 4 天在本地 18:00 及之后有会话
	ChallengeQualityOverQuantity  WeeklyChallengeType = "QUALITY_OVER_QUANTITY" // 平均会话时长 ≥40 分钟
	ChallengeCleanFocus           WeeklyChallengeType = "CLEAN_FOCUS"           // 5 天没有 <25 分钟的碎片会话
)

// AllChallengeTypes 随机选取新挑战时的候选全集
var AllChallengeTypes = []WeeklyChallengeType{
	ChallengeMarathonProductivity,
	ChallengeFocusDeepWork,
	ChallengeSubjectFocus,
	ChallengeEarlyStart,
	ChallengeStrongFinish,
	ChallengeQualityOverQuantity,
	ChallengeCleanFocus,
}

// WeeklyChallengeStatus 周挑战状态
type WeeklyChallengeStatus string

const (
	ChallengeStatusActive    WeeklyChallengeStatus = "active"
	ChallengeStatusCompleted WeeklyChallengeStatus = "completed" // 终态
	ChallengeStatusFailed    WeeklyChallengeStatus = "failed"    // 终态，周结束仍未达标
)

// IsTerminal 判断状态是否为终态（终态挑战不再重算）
func (s WeeklyChallengeStatus) IsTerminal() bool {
	return s == ChallengeStatusCompleted || s == ChallengeStatusFailed
}

// WeeklyChallenge 周挑战表 — 对应 weekly_challenges
//
// (user_id, week_start) 唯一：每用户每周恰好一条记录，
// 类型在该周首次创建时随机确定并冻结。
type WeeklyChallenge struct {
	ChallengeID   string                `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"       json:"challenge_id"`
	UserID        string                `gorm:"type:uuid;not null;uniqueIndex:uk_challenge_user_week" json:"user_id"`
	WeekStart     time.Time             `gorm:"type:date;not null;uniqueIndex:uk_challenge_user_week" json:"week_start"`
	WeekEnd       time.Time             `gorm:"type:date;not null"                                    json:"week_end"`
	ChallengeType WeeklyChallengeType   `gorm:"type:varchar(30);not null"                             json:"challenge_type"`
	CurrentValue  float64               `gorm:"not null;default:0"                                    json:"current_value"`
	TargetValue   float64               `gorm:"not null"                                              json:"target_value"`
	Status        WeeklyChallengeStatus `gorm:"type:varchar(10);not null;default:'active'"            json:"status"`
	CompletedAt   *time.Time            `json:"completed_at,omitempty"`
	BaseModel

	User *User `gorm:"foreignKey:UserID;references:UserID" json:"-"`
}

// TableName 指定表名
func (WeeklyChallenge) TableName() string { return "weekly_challenges" }
