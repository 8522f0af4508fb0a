package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/francovalli123/StudyO/internal/model"
)

// PasswordResetRepository 密码重置令牌数据访问接口
type PasswordResetRepository interface {
	Create(ctx context.Context, reset *model.PasswordReset) error
	GetValidByTokenHash(ctx context.Context, tokenHash string, now time.Time) (*model.PasswordReset, error)
	MarkUsed(ctx context.Context, resetID string, usedAt time.Time) error
	// InvalidateForUser 作废某用户所有未使用的令牌（签发新令牌前调用）
	InvalidateForUser(ctx context.Context, userID string, now time.Time) error
}

type passwordResetRepo struct {
	db *gorm.DB
}

// NewPasswordResetRepo 创建 PasswordResetRepository 实例
func NewPasswordResetRepo(db *gorm.DB) PasswordResetRepository {
	return &passwordResetRepo{db: db}
}

func (r *passwordResetRepo) Create(ctx context.Context, reset *model.PasswordReset) error {
	return r.db.WithContext(ctx).Create(reset).Error
}

func (r *passwordResetRepo) GetValidByTokenHash(ctx context.Context, tokenHash string, now time.Time) (*model.PasswordReset, error) {
	var reset model.PasswordReset
	err := r.db.WithContext(ctx).
		Where("token_hash = ? AND used_at IS NULL AND expires_at > ?", tokenHash, now).
		First(&reset).Error
	if err != nil {
		return nil, err
	}
	return &reset, nil
}

func (r *passwordResetRepo) MarkUsed(ctx context.Context, resetID string, usedAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.PasswordReset{}).
		Where("reset_id = ? AND used_at IS NULL", resetID).
		Update("used_at", usedAt).Error
}

func (r *passwordResetRepo) InvalidateForUser(ctx context.Context, userID string, now time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.PasswordReset{}).
		Where("user_id = ? AND used_at IS NULL", userID).
		Update("used_at", now).Error
}
