package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/francovalli123/StudyO/internal/model"
)

// NotificationRepository 通知记录数据访问接口
type NotificationRepository interface {
	Create(ctx context.Context, notification *model.Notification) error
	// ExistsRecent 判断用户某类通知在 since 之后是否已发送过（数据库层去重）
	ExistsRecent(ctx context.Context, userID string, typ model.NotificationType, since time.Time) (bool, error)
	ListByUser(ctx context.Context, userID string, offset, limit int) ([]model.Notification, int64, error)
}

type notificationRepo struct {
	db *gorm.DB
}

// NewNotificationRepo 创建 NotificationRepository 实例
func NewNotificationRepo(db *gorm.DB) NotificationRepository {
	return &notificationRepo{db: db}
}

func (r *notificationRepo) Create(ctx context.Context, notification *model.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *notificationRepo) ExistsRecent(ctx context.Context, userID string, typ model.NotificationType, since time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("user_id = ? AND type = ? AND status = ? AND sent_at >= ?", userID, typ, model.NotificationStatusSent, since).
		Count(&count).Error
	return count > 0, err
}

func (r *notificationRepo) ListByUser(ctx context.Context, userID string, offset, limit int) ([]model.Notification, int64, error) {
	var notifications []model.Notification
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Notification{}).Where("user_id = ?", userID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Offset(offset).Limit(limit).
		Order("sent_at DESC").
		Find(&notifications).Error; err != nil {
		return nil, 0, err
	}
	return notifications, total, nil
}
