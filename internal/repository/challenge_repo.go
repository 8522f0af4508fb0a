package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/francovalli123/StudyO/internal/model"
)

// ChallengeRepository 周挑战数据访问接口
type ChallengeRepository interface {
	Create(ctx context.Context, challenge *model.WeeklyChallenge) error
	// GetForWeek 按 (user_id, week_start) 取唯一记录
	GetForWeek(ctx context.Context, userID string, weekStart time.Time) (*model.WeeklyChallenge, error)
	// UpdateFields 仅更新仍为 active 的挑战，终态记录不被覆盖
	UpdateFields(ctx context.Context, challengeID string, fields map[string]interface{}) error
	// ExpireActiveBefore 把 week_start 早于 cutoff 的 active 挑战批量置为 failed
	ExpireActiveBefore(ctx context.Context, userID string, cutoff time.Time) (int64, error)
	ListByUser(ctx context.Context, userID string, offset, limit int) ([]model.WeeklyChallenge, int64, error)
}

type challengeRepo struct {
	db *gorm.DB
}

// NewChallengeRepo 创建 ChallengeRepository 实例
func NewChallengeRepo(db *gorm.DB) ChallengeRepository {
	return &challengeRepo{db: db}
}

func (r *challengeRepo) Create(ctx context.Context, challenge *model.WeeklyChallenge) error {
	return r.db.WithContext(ctx).Create(challenge).Error
}

func (r *challengeRepo) GetForWeek(ctx context.Context, userID string, weekStart time.Time) (*model.WeeklyChallenge, error) {
	var challenge model.WeeklyChallenge
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND week_start = ?", userID, weekStart).
		First(&challenge).Error
	if err != nil {
		return nil, err
	}
	return &challenge, nil
}

func (r *challengeRepo) UpdateFields(ctx context.Context, challengeID string, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&model.WeeklyChallenge{}).
		Where("challenge_id = ? AND status = ?", challengeID, model.ChallengeStatusActive).
		Updates(fields).Error
}

func (r *challengeRepo) ExpireActiveBefore(ctx context.Context, userID string, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.WeeklyChallenge{}).
		Where("user_id = ? AND status = ? AND week_start < ?", userID, model.ChallengeStatusActive, cutoff).
		Update("status", model.ChallengeStatusFailed)
	return res.RowsAffected, res.Error
}

func (r *challengeRepo) ListByUser(ctx context.Context, userID string, offset, limit int) ([]model.WeeklyChallenge, int64, error) {
	var challenges []model.WeeklyChallenge
	var total int64

	db := r.db.WithContext(ctx).Model(&model.WeeklyChallenge{}).Where("user_id = ?", userID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Offset(offset).Limit(limit).
		Order("week_start DESC").
		Find(&challenges).Error; err != nil {
		return nil, 0, err
	}
	return challenges, total, nil
}
