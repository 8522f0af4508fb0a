package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/francovalli123/StudyO/internal/model"
)

// HabitRecordRepository 习惯打卡记录数据访问接口
type HabitRecordRepository interface {
	Create(ctx context.Context, record *model.HabitRecord) error
	// CompletedOn 判断习惯在某个日历日期是否已打卡
	CompletedOn(ctx context.Context, habitID string, date time.Time) (bool, error)
	// CompletedSetOn 批量取某用户在 date 已打卡的习惯 ID 集合
	CompletedSetOn(ctx context.Context, habitIDs []string, date time.Time) (map[string]bool, error)
	ListByHabit(ctx context.Context, habitID string, from, to time.Time) ([]model.HabitRecord, error)
}

type habitRecordRepo struct {
	db *gorm.DB
}

// NewHabitRecordRepo 创建 HabitRecordRepository 实例
func NewHabitRecordRepo(db *gorm.DB) HabitRecordRepository {
	return &habitRecordRepo{db: db}
}

func (r *habitRecordRepo) Create(ctx context.Context, record *model.HabitRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *habitRecordRepo) CompletedOn(ctx context.Context, habitID string, date time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.HabitRecord{}).
		Where("habit_id = ? AND record_date = ? AND completed = ?", habitID, date, true).
		Count(&count).Error
	return count > 0, err
}

func (r *habitRecordRepo) CompletedSetOn(ctx context.Context, habitIDs []string, date time.Time) (map[string]bool, error) {
	done := make(map[string]bool, len(habitIDs))
	if len(habitIDs) == 0 {
		return done, nil
	}
	var records []model.HabitRecord
	err := r.db.WithContext(ctx).
		Where("habit_id IN ? AND record_date = ? AND completed = ?", habitIDs, date, true).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		done[rec.HabitID] = true
	}
	return done, nil
}

func (r *habitRecordRepo) ListByHabit(ctx context.Context, habitID string, from, to time.Time) ([]model.HabitRecord, error) {
	var records []model.HabitRecord
	err := r.db.WithContext(ctx).
		Where("habit_id = ? AND record_date >= ? AND record_date <= ?", habitID, from, to).
		Order("record_date ASC").
		Find(&records).Error
	return records, err
}
