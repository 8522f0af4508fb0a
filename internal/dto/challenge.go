package dto

import (
	"math"

	"github.com/francovalli123/StudyO/internal/model"
)

// ChallengeResponse 周挑战快照响应
type ChallengeResponse struct {
	ChallengeID        string  `json:"challenge_id"`
	Title              string  `json:"title"`       // 按用户语言本地化
	Description        string  `json:"description"` // 按用户语言本地化
	ChallengeType      string  `json:"challenge_type"`
	CurrentValue       float64 `json:"current_value"`
	TargetValue        float64 `json:"target_value"`
	ProgressPercentage float64 `json:"progress_percentage"`
	Status             string  `json:"status"`
	WeekStart          string  `json:"week_start"` // YYYY-MM-DD
	WeekEnd            string  `json:"week_end"`   // YYYY-MM-DD
}

// NewChallengeResponse 由挑战模型与本地化文案构造响应
// 进度百分比 = min(100, 当前/目标×100)，保留两位小数；目标为 0 时恒为 0
func NewChallengeResponse(c *model.WeeklyChallenge, title, description string) *ChallengeResponse {
	var progress float64
	if c.TargetValue > 0 {
		progress = math.Round(c.CurrentValue/c.TargetValue*100*100) / 100
		if progress > 100 {
			progress = 100
		}
	}
	return &ChallengeResponse{
		ChallengeID:        c.ChallengeID,
		Title:              title,
		Description:        description,
		ChallengeType:      string(c.ChallengeType),
		CurrentValue:       c.CurrentValue,
		TargetValue:        c.TargetValue,
		ProgressPercentage: progress,
		Status:             string(c.Status),
		WeekStart:          c.WeekStart.Format("2006-01-02"),
		WeekEnd:            c.WeekEnd.Format("2006-01-02"),
	}
}
