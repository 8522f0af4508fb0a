package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/francovalli123/StudyO/internal/dto"
	"github.com/francovalli123/StudyO/internal/model"
	"github.com/francovalli123/StudyO/internal/repository"
	pkgerrors "github.com/francovalli123/StudyO/pkg/errors"
)

// ── 专注会话模块业务错误 ──

var (
	ErrSessionNotFound      = errors.New("会话不存在")
	ErrSessionTimeInvalid   = errors.New("会话结束时间必须晚于开始时间")
	ErrSessionDuplicate     = errors.New("会话已存在")
	ErrSessionSubjectAbsent = errors.New("学科不存在")
)

// PomodoroService 专注会话业务接口
type PomodoroService interface {
	// Create 落库会话并异步触发本周挑战重算
	Create(ctx context.Context, userID string, req *dto.CreateSessionRequest) (*dto.SessionResponse, error)
	List(ctx context.Context, userID string, query *dto.SessionListQuery) ([]dto.SessionResponse, int64, error)
	Delete(ctx context.Context, userID, sessionID string) error
}

type pomodoroService struct {
	repo      *repository.Repository
	challenge ChallengeService
	logger    *zap.Logger
}

// NewPomodoroService 创建 PomodoroService 实例
func NewPomodoroService(repo *repository.Repository, challenge ChallengeService, logger *zap.Logger) PomodoroService {
	return &pomodoroService{repo: repo, challenge: challenge, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *pomodoroService) Create(ctx context.Context, userID string, req *dto.CreateSessionRequest) (*dto.SessionResponse, error) {
	if !req.EndTime.After(req.StartTime) {
		return nil, ErrSessionTimeInvalid
	}
	if req.SubjectID != nil {
		if _, err := s.repo.Subject.GetByID(ctx, userID, *req.SubjectID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrSessionSubjectAbsent
			}
			return nil, err
		}
	}

	session := &model.PomodoroSession{
		UserID:          userID,
		SubjectID:       req.SubjectID,
		StartTime:       req.StartTime.UTC(),
		EndTime:         req.EndTime.UTC(),
		DurationMinutes: req.DurationMinutes,
	}
	if err := s.repo.Pomodoro.Create(ctx, session); err != nil {
		// 客户端重试触发唯一约束，按幂等冲突处理
		if pkgerrors.IsDuplicateKey(err) {
			return nil, ErrSessionDuplicate
		}
		s.logger.Error("创建会话失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	// 会话落库后异步重算挑战，失败只记日志，不影响上报响应
	s.challenge.EvaluateAsync(userID)

	return dto.NewSessionResponse(session), nil
}

// ────────────────────── List ──────────────────────

func (s *pomodoroService) List(ctx context.Context, userID string, query *dto.SessionListQuery) ([]dto.SessionResponse, int64, error) {
	var fromUTC, toUTC *time.Time
	if query.From != "" {
		t, err := time.Parse("2006-01-02", query.From)
		if err == nil {
			fromUTC = &t
		}
	}
	if query.To != "" {
		t, err := time.Parse("2006-01-02", query.To)
		if err == nil {
			end := t.Add(24*time.Hour - time.Nanosecond)
			toUTC = &end
		}
	}

	sessions, total, err := s.repo.Pomodoro.List(ctx, userID, fromUTC, toUTC, (query.Page-1)*query.PageSize, query.PageSize)
	if err != nil {
		s.logger.Error("查询会话失败", zap.String("user_id", userID), zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.SessionResponse, 0, len(sessions))
	for i := range sessions {
		result = append(result, *dto.NewSessionResponse(&sessions[i]))
	}
	return result, total, nil
}

// ────────────────────── Delete ──────────────────────

func (s *pomodoroService) Delete(ctx context.Context, userID, sessionID string) error {
	if _, err := s.repo.Pomodoro.GetByID(ctx, userID, sessionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSessionNotFound
		}
		return err
	}
	if err := s.repo.Pomodoro.Delete(ctx, userID, sessionID); err != nil {
		return err
	}

	// 删除同样影响本周进度
	s.challenge.EvaluateAsync(userID)
	return nil
}
