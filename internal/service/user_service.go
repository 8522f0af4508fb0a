package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/francovalli123/StudyO/internal/dto"
	"github.com/francovalli123/StudyO/internal/model"
	"github.com/francovalli123/StudyO/internal/repository"
	pkgerrors "github.com/francovalli123/StudyO/pkg/errors"
	"github.com/francovalli123/StudyO/pkg/timewindow"
)

// ── 用户模块业务错误 ──

var (
	ErrUserNotFound    = errors.New("用户不存在")
	ErrTimezoneInvalid = errors.New("时区标识无效")
	ErrUsernameTaken   = errors.New("用户名已被占用")
)

// UserService 用户业务接口
type UserService interface {
	GetProfile(ctx context.Context, userID string) (*dto.UserResponse, error)
	UpdateProfile(ctx context.Context, userID string, req *dto.UpdateProfileRequest) (*dto.UserResponse, error)
	UpdateNotificationPreferences(ctx context.Context, userID string, req *dto.UpdateNotificationPreferencesRequest) (*dto.UserResponse, error)
}

type userService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewUserService 创建 UserService 实例
func NewUserService(repo *repository.Repository, logger *zap.Logger) UserService {
	return &userService{repo: repo, logger: logger}
}

func (s *userService) GetProfile(ctx context.Context, userID string) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return dto.NewUserResponse(user), nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID string, req *dto.UpdateProfileRequest) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if req.Username != nil {
		user.Username = *req.Username
	}
	if req.Country != nil {
		user.Country = *req.Country
	}
	if req.Timezone != nil {
		// 存储前校验，避免把垃圾时区落库后到处降级
		if _, fallback := timewindow.Resolve(*req.Timezone, ""); fallback {
			return nil, ErrTimezoneInvalid
		}
		user.Timezone = *req.Timezone
	}
	if req.Language != nil {
		user.Language = *req.Language
	}

	if err := s.repo.User.Update(ctx, user); err != nil {
		if pkgerrors.IsDuplicateKey(err) {
			return nil, ErrUsernameTaken
		}
		s.logger.Error("更新用户资料失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return dto.NewUserResponse(user), nil
}

func (s *userService) UpdateNotificationPreferences(ctx context.Context, userID string, req *dto.UpdateNotificationPreferencesRequest) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if user.NotificationPreferences == nil {
		user.NotificationPreferences = model.JSONMap{}
	}
	for k, v := range req.Preferences {
		user.NotificationPreferences[k] = v
	}

	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("更新通知偏好失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return dto.NewUserResponse(user), nil
}
