package service

import (
	"go.uber.org/zap"

	"github.com/francovalli123/StudyO/config"
	"github.com/francovalli123/StudyO/internal/repository"
	"github.com/francovalli123/StudyO/pkg/jwt"
	"github.com/francovalli123/StudyO/pkg/mailer"
	"github.com/francovalli123/StudyO/pkg/redis"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth         AuthService
	User         UserService
	Subject      SubjectService
	Pomodoro     PomodoroService
	Challenge    ChallengeService
	Rollover     RolloverService
	Objective    ObjectiveService
	Habit        HabitService
	Notification NotificationService
	Export       ExportService
}

// NewService 创建 Service 聚合
// cache 允许为 nil：Redis 不可用时黑名单与通知去重兜底降级
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	cache *redis.Client,
	mail mailer.Mailer,
	logger *zap.Logger,
) *Service {
	challenge := NewChallengeService(repo, logger)
	rollover := NewRolloverService(repo, logger)

	return &Service{
		Auth:         NewAuthService(repo, jwtMgr, cache, mail, &cfg.Auth, &cfg.Mail, logger),
		User:         NewUserService(repo, logger),
		Subject:      NewSubjectService(repo, logger),
		Pomodoro:     NewPomodoroService(repo, challenge, logger),
		Challenge:    challenge,
		Rollover:     rollover,
		Objective:    NewObjectiveService(repo, rollover, logger),
		Habit:        NewHabitService(repo, logger),
		Notification: NewNotificationService(repo, mail, cache, logger),
		Export:       NewExportService(repo, logger),
	}
}
