package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/francovalli123/StudyO/internal/model"
)

// ObjectiveHistoryRepository 周目标历史快照数据访问接口
type ObjectiveHistoryRepository interface {
	BulkCreate(ctx context.Context, histories []model.WeeklyObjectiveHistory) error
	// LatestForUser 取用户最近一条历史（按周起点倒序），无历史返回 gorm.ErrRecordNotFound
	LatestForUser(ctx context.Context, userID string) (*model.WeeklyObjectiveHistory, error)
	// ExistsForWeek 判断是否已有精确匹配 (week_start_date, week_end_date) 的历史
	ExistsForWeek(ctx context.Context, userID string, weekStart, weekEnd time.Time) (bool, error)
	ListByUser(ctx context.Context, userID string, offset, limit int) ([]model.WeeklyObjectiveHistory, int64, error)
}

type objectiveHistoryRepo struct {
	db *gorm.DB
}

// NewObjectiveHistoryRepo 创建 ObjectiveHistoryRepository 实例
func NewObjectiveHistoryRepo(db *gorm.DB) ObjectiveHistoryRepository {
	return &objectiveHistoryRepo{db: db}
}

func (r *objectiveHistoryRepo) BulkCreate(ctx context.Context, histories []model.WeeklyObjectiveHistory) error {
	if len(histories) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&histories).Error
}

func (r *objectiveHistoryRepo) LatestForUser(ctx context.Context, userID string) (*model.WeeklyObjectiveHistory, error) {
	var history model.WeeklyObjectiveHistory
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("week_start_date DESC").
		First(&history).Error
	if err != nil {
		return nil, err
	}
	return &history, nil
}

func (r *objectiveHistoryRepo) ExistsForWeek(ctx context.Context, userID string, weekStart, weekEnd time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.WeeklyObjectiveHistory{}).
		Where("user_id = ? AND week_start_date = ? AND week_end_date = ?", userID, weekStart, weekEnd).
		Count(&count).Error
	return count > 0, err
}

func (r *objectiveHistoryRepo) ListByUser(ctx context.Context, userID string, offset, limit int) ([]model.WeeklyObjectiveHistory, int64, error) {
	var histories []model.WeeklyObjectiveHistory
	var total int64

	db := r.db.WithContext(ctx).Model(&model.WeeklyObjectiveHistory{}).Where("user_id = ?", userID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Offset(offset).Limit(limit).
		Order("week_start_date DESC, created_at ASC").
		Find(&histories).Error; err != nil {
		return nil, 0, err
	}
	return histories, total, nil
}
