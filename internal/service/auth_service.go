package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/francovalli123/StudyO/config"
	"github.com/francovalli123/StudyO/internal/dto"
	"github.com/francovalli123/StudyO/internal/model"
	"github.com/francovalli123/StudyO/internal/repository"
	pkgerrors "github.com/francovalli123/StudyO/pkg/errors"
	"github.com/francovalli123/StudyO/pkg/jwt"
	"github.com/francovalli123/StudyO/pkg/mailer"
	"github.com/francovalli123/StudyO/pkg/redis"
)

// ── 认证模块业务错误 ──

var (
	ErrUserExists          = errors.New("用户名或邮箱已被注册")
	ErrInvalidCredentials  = errors.New("邮箱或密码错误")
	ErrUserDisabled        = errors.New("账号已停用")
	ErrInvalidRefreshToken = errors.New("刷新令牌无效")
	ErrOldPasswordWrong    = errors.New("原密码错误")
	ErrResetTokenInvalid   = errors.New("重置令牌无效或已过期")
)

// AuthService 认证业务接口
type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.LoginResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)
	Refresh(ctx context.Context, req *dto.RefreshRequest) (*dto.RefreshResponse, error)
	// Logout 将当前 Token 的 jti 加入黑名单
	Logout(ctx context.Context, claims *jwt.Claims) error
	ChangePassword(ctx context.Context, userID string, req *dto.ChangePasswordRequest) error
	// ForgotPassword 签发重置令牌并邮件发送；邮箱不存在时静默成功，避免枚举
	ForgotPassword(ctx context.Context, req *dto.ForgotPasswordRequest) error
	ResetPassword(ctx context.Context, req *dto.ResetPasswordRequest) error
}

type authService struct {
	repo       *repository.Repository
	jwtManager *jwt.Manager
	cache      *redis.Client // 允许为 nil，黑名单降级为不可用
	mail       mailer.Mailer
	authCfg    *config.AuthConfig
	mailCfg    *config.MailConfig
	logger     *zap.Logger
}

// NewAuthService 创建 AuthService 实例
func NewAuthService(repo *repository.Repository, jwtManager *jwt.Manager, cache *redis.Client,
	mail mailer.Mailer, authCfg *config.AuthConfig, mailCfg *config.MailConfig, logger *zap.Logger) AuthService {
	return &authService{
		repo:       repo,
		jwtManager: jwtManager,
		cache:      cache,
		mail:       mail,
		authCfg:    authCfg,
		mailCfg:    mailCfg,
		logger:     logger,
	}
}

// ────────────────────── Register ──────────────────────

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.LoginResponse, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username:                req.Username,
		Email:                   req.Email,
		PasswordHash:            string(hash),
		Country:                 req.Country,
		Timezone:                req.Timezone,
		Language:                req.Language,
		NotificationPreferences: model.JSONMap{},
		IsActive:                true,
	}
	if user.Timezone == "" {
		user.Timezone = "UTC"
	}
	if user.Language == "" {
		user.Language = "es"
	}

	if err := s.repo.User.Create(ctx, user); err != nil {
		if pkgerrors.IsDuplicateKey(err) {
			return nil, ErrUserExists
		}
		s.logger.Error("创建用户失败", zap.String("email", req.Email), zap.Error(err))
		return nil, err
	}

	s.logger.Info("用户注册成功", zap.String("user_id", user.UserID), zap.String("username", user.Username))
	return s.issueTokens(user)
}

// ────────────────────── Login ──────────────────────

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.repo.User.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUserDisabled
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issueTokens(user)
}

func (s *authService) issueTokens(user *model.User) (*dto.LoginResponse, error) {
	access, err := s.jwtManager.GenerateAccessToken(user.UserID)
	if err != nil {
		return nil, err
	}
	refresh, err := s.jwtManager.GenerateRefreshToken(user.UserID)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         dto.NewUserResponse(user),
	}, nil
}

// ────────────────────── Refresh ──────────────────────

func (s *authService) Refresh(ctx context.Context, req *dto.RefreshRequest) (*dto.RefreshResponse, error) {
	claims, err := s.jwtManager.ParseToken(req.RefreshToken)
	if err != nil || claims.TokenType != "refresh" {
		return nil, ErrInvalidRefreshToken
	}

	if s.cache != nil {
		blacklisted, err := s.cache.IsBlacklisted(ctx, claims.ID)
		if err != nil {
			s.logger.Warn("黑名单检查失败", zap.Error(err))
		} else if blacklisted {
			return nil, ErrInvalidRefreshToken
		}
	}

	user, err := s.repo.User.GetByID(ctx, claims.UserID)
	if err != nil || !user.IsActive {
		return nil, ErrInvalidRefreshToken
	}

	// 旧刷新令牌作废，防止重放
	s.blacklist(ctx, claims)

	access, err := s.jwtManager.GenerateAccessToken(user.UserID)
	if err != nil {
		return nil, err
	}
	refresh, err := s.jwtManager.GenerateRefreshToken(user.UserID)
	if err != nil {
		return nil, err
	}
	return &dto.RefreshResponse{AccessToken: access, RefreshToken: refresh}, nil
}

// ────────────────────── Logout ──────────────────────

func (s *authService) Logout(ctx context.Context, claims *jwt.Claims) error {
	s.blacklist(ctx, claims)
	return nil
}

func (s *authService) blacklist(ctx context.Context, claims *jwt.Claims) {
	if s.cache == nil || claims.ExpiresAt == nil {
		return
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if err := s.cache.BlacklistToken(ctx, claims.ID, ttl); err != nil {
		s.logger.Warn("加入 Token 黑名单失败", zap.String("jti", claims.ID), zap.Error(err))
	}
}

// ────────────────────── ChangePassword ──────────────────────

func (s *authService) ChangePassword(ctx context.Context, userID string, req *dto.ChangePasswordRequest) error {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)) != nil {
		return ErrOldPasswordWrong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.PasswordHash = string(hash)
	return s.repo.User.Update(ctx, user)
}

// ────────────────────── ForgotPassword / ResetPassword ──────────────────────

func (s *authService) ForgotPassword(ctx context.Context, req *dto.ForgotPasswordRequest) error {
	user, err := s.repo.User.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil // 不暴露邮箱是否存在
		}
		return err
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return err
	}
	token := hex.EncodeToString(raw)
	hash := sha256.Sum256([]byte(token))
	now := time.Now().UTC()

	if err := s.repo.PasswordReset.InvalidateForUser(ctx, user.UserID, now); err != nil {
		return err
	}
	reset := &model.PasswordReset{
		UserID:    user.UserID,
		TokenHash: hex.EncodeToString(hash[:]),
		ExpiresAt: now.Add(s.authCfg.PasswordResetTokenTTL),
	}
	if err := s.repo.PasswordReset.Create(ctx, reset); err != nil {
		s.logger.Error("创建重置令牌失败", zap.String("user_id", user.UserID), zap.Error(err))
		return err
	}

	link := fmt.Sprintf("%s/reset-password?token=%s", s.mailCfg.SiteURL, token)
	body := fmt.Sprintf("<p>点击链接重置你的 %s 密码（%d 分钟内有效）：</p><p><a href=%q>%s</a></p>",
		s.mailCfg.SiteName, int(s.authCfg.PasswordResetTokenTTL.Minutes()), link, link)
	if err := s.mail.Send(user.Email, "重置密码", body); err != nil {
		s.logger.Error("发送重置邮件失败", zap.String("user_id", user.UserID), zap.Error(err))
		return err
	}
	return nil
}

func (s *authService) ResetPassword(ctx context.Context, req *dto.ResetPasswordRequest) error {
	hash := sha256.Sum256([]byte(req.Token))
	now := time.Now().UTC()

	reset, err := s.repo.PasswordReset.GetValidByTokenHash(ctx, hex.EncodeToString(hash[:]), now)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrResetTokenInvalid
		}
		return err
	}

	user, err := s.repo.User.GetByID(ctx, reset.UserID)
	if err != nil {
		return err
	}
	newHash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.PasswordHash = string(newHash)
	if err := s.repo.User.Update(ctx, user); err != nil {
		return err
	}
	return s.repo.PasswordReset.MarkUsed(ctx, reset.ResetID, now)
}
