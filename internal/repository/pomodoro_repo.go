package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/francovalli123/StudyO/internal/model"
)

// PomodoroRepository 专注会话数据访问接口
type PomodoroRepository interface {
	Create(ctx context.Context, session *model.PomodoroSession) error
	GetByID(ctx context.Context, userID, sessionID string) (*model.PomodoroSession, error)
	// ListInWindow 查询用户在 [fromUTC, toUTC] 内开始的全部会话，按开始时间升序
	ListInWindow(ctx context.Context, userID string, fromUTC, toUTC time.Time) ([]model.PomodoroSession, error)
	List(ctx context.Context, userID string, fromUTC, toUTC *time.Time, offset, limit int) ([]model.PomodoroSession, int64, error)
	Delete(ctx context.Context, userID, sessionID string) error
}

type pomodoroRepo struct {
	db *gorm.DB
}

// NewPomodoroRepo 创建 PomodoroRepository 实例
func NewPomodoroRepo(db *gorm.DB) PomodoroRepository {
	return &pomodoroRepo{db: db}
}

func (r *pomodoroRepo) Create(ctx context.Context, session *model.PomodoroSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *pomodoroRepo) GetByID(ctx context.Context, userID, sessionID string) (*model.PomodoroSession, error) {
	var session model.PomodoroSession
	err := r.db.WithContext(ctx).
		Preload("Subject").
		Where("session_id = ? AND user_id = ?", sessionID, userID).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *pomodoroRepo) ListInWindow(ctx context.Context, userID string, fromUTC, toUTC time.Time) ([]model.PomodoroSession, error) {
	var sessions []model.PomodoroSession
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND start_time >= ? AND start_time <= ?", userID, fromUTC, toUTC).
		Order("start_time ASC").
		Find(&sessions).Error
	return sessions, err
}

func (r *pomodoroRepo) List(ctx context.Context, userID string, fromUTC, toUTC *time.Time, offset, limit int) ([]model.PomodoroSession, int64, error) {
	var sessions []model.PomodoroSession
	var total int64

	db := r.db.WithContext(ctx).Model(&model.PomodoroSession{}).Where("user_id = ?", userID)
	if fromUTC != nil {
		db = db.Where("start_time >= ?", *fromUTC)
	}
	if toUTC != nil {
		db = db.Where("start_time <= ?", *toUTC)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Preload("Subject").
		Offset(offset).Limit(limit).
		Order("start_time DESC").
		Find(&sessions).Error; err != nil {
		return nil, 0, err
	}
	return sessions, total, nil
}

func (r *pomodoroRepo) Delete(ctx context.Context, userID, sessionID string) error {
	return r.db.WithContext(ctx).
		Where("session_id = ? AND user_id = ?", sessionID, userID).
		Delete(&model.PomodoroSession{}).Error
}
