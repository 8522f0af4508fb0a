package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/francovalli123/StudyO/internal/model"
)

// ObjectiveRepository 周目标数据访问接口
type ObjectiveRepository interface {
	Create(ctx context.Context, objective *model.WeeklyObjective) error
	GetByID(ctx context.Context, userID, objectiveID string) (*model.WeeklyObjective, error)
	ListActive(ctx context.Context, userID string) ([]model.WeeklyObjective, error)
	// CountActiveIncomplete 活跃且未完成的目标数，轮转守卫与周六提醒用
	CountActiveIncomplete(ctx context.Context, userID string) (int64, error)
	CountActive(ctx context.Context, userID string) (int64, error)
	Update(ctx context.Context, objective *model.WeeklyObjective) error
	Delete(ctx context.Context, userID, objectiveID string) error
	// ArchiveActive 批量归档用户全部活跃目标，返回归档条数
	ArchiveActive(ctx context.Context, userID string, archivedAt time.Time) (int64, error)
}

type objectiveRepo struct {
	db *gorm.DB
}

// NewObjectiveRepo 创建 ObjectiveRepository 实例
func NewObjectiveRepo(db *gorm.DB) ObjectiveRepository {
	return &objectiveRepo{db: db}
}

func (r *objectiveRepo) Create(ctx context.Context, objective *model.WeeklyObjective) error {
	return r.db.WithContext(ctx).Create(objective).Error
}

func (r *objectiveRepo) GetByID(ctx context.Context, userID, objectiveID string) (*model.WeeklyObjective, error) {
	var objective model.WeeklyObjective
	err := r.db.WithContext(ctx).
		Where("objective_id = ? AND user_id = ?", objectiveID, userID).
		First(&objective).Error
	if err != nil {
		return nil, err
	}
	return &objective, nil
}

func (r *objectiveRepo) ListActive(ctx context.Context, userID string) ([]model.WeeklyObjective, error) {
	var objectives []model.WeeklyObjective
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("created_at ASC").
		Find(&objectives).Error
	return objectives, err
}

func (r *objectiveRepo) CountActiveIncomplete(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.WeeklyObjective{}).
		Where("user_id = ? AND is_active = ? AND is_completed = ?", userID, true, false).
		Count(&count).Error
	return count, err
}

func (r *objectiveRepo) CountActive(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.WeeklyObjective{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Count(&count).Error
	return count, err
}

func (r *objectiveRepo) Update(ctx context.Context, objective *model.WeeklyObjective) error {
	return r.db.WithContext(ctx).Save(objective).Error
}

func (r *objectiveRepo) Delete(ctx context.Context, userID, objectiveID string) error {
	return r.db.WithContext(ctx).
		Where("objective_id = ? AND user_id = ?", objectiveID, userID).
		Delete(&model.WeeklyObjective{}).Error
}

func (r *objectiveRepo) ArchiveActive(ctx context.Context, userID string, archivedAt time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.WeeklyObjective{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Updates(map[string]interface{}{
			"is_active":   false,
			"archived_at": archivedAt,
		})
	return res.RowsAffected, res.Error
}
