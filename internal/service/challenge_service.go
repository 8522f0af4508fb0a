package service

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/francovalli123/StudyO/internal/dto"
	"github.com/francovalli123/StudyO/internal/evaluator"
	"github.com/francovalli123/StudyO/internal/model"
	"github.com/francovalli123/StudyO/internal/repository"
	pkgerrors "github.com/francovalli123/StudyO/pkg/errors"
	"github.com/francovalli123/StudyO/pkg/timewindow"
)

// ── 周挑战模块业务错误 ──

var (
	ErrChallengeUserNotFound = errors.New("用户不存在")
)

// ChallengeService 周挑战业务接口
type ChallengeService interface {
	// GetActive 返回用户当前周的挑战快照，不存在则创建并评估
	GetActive(ctx context.Context, userID string) (*dto.ChallengeResponse, error)
	// EnsureAndEvaluate 保证当前周挑战存在并重算进度，返回最新模型
	EnsureAndEvaluate(ctx context.Context, user *model.User, now time.Time) (*model.WeeklyChallenge, error)
	// EvaluateAsync 在独立 goroutine 中评估，错误只记日志（会话落库后的触发路径）
	EvaluateAsync(userID string)
	ListHistory(ctx context.Context, userID string, page, pageSize int) ([]dto.ChallengeResponse, int64, error)
}

type challengeService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewChallengeService 创建 ChallengeService 实例
func NewChallengeService(repo *repository.Repository, logger *zap.Logger) ChallengeService {
	return &challengeService{repo: repo, logger: logger}
}

// ────────────────────── GetActive ──────────────────────

func (s *challengeService) GetActive(ctx context.Context, userID string) (*dto.ChallengeResponse, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChallengeUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	challenge, err := s.EnsureAndEvaluate(ctx, user, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	title, description := evaluator.Metadata(challenge.ChallengeType, user.Language)
	return dto.NewChallengeResponse(challenge, title, description), nil
}

// ────────────────────── EnsureAndEvaluate ──────────────────────

// EnsureAndEvaluate 是挑战生命周期的唯一入口：
//  1. 把早于本周的 active 挑战批量置为 failed
//  2. 按 (user_id, week_start) 取或建本周记录，类型在创建时随机确定并冻结
//  3. 重算进度；终态记录跳过，不再覆盖
//
// 未知挑战类型的错误向上冒泡，绝不吞掉：静默跳过会让旧记录永远卡在 active。
func (s *challengeService) EnsureAndEvaluate(ctx context.Context, user *model.User, now time.Time) (*model.WeeklyChallenge, error) {
	loc, fallback := timewindow.Resolve(user.Timezone, user.Country)
	if fallback {
		s.logger.Warn("用户时区无效，已降级",
			zap.String("user_id", user.UserID),
			zap.String("timezone", user.Timezone),
			zap.String("country", user.Country),
			zap.String("resolved", loc.String()))
	}
	week := timewindow.WeekOf(loc, now)

	// 先过期后解析，保证历史周的 active 记录不会泄漏到本周
	expired, err := s.repo.Challenge.ExpireActiveBefore(ctx, user.UserID, week.StartDate)
	if err != nil {
		s.logger.Error("过期历史挑战失败", zap.String("user_id", user.UserID), zap.Error(err))
		return nil, err
	}
	if expired > 0 {
		s.logger.Info("历史挑战已过期",
			zap.String("user_id", user.UserID),
			zap.Int64("count", expired))
	}

	challenge, err := s.getOrCreate(ctx, user.UserID, week)
	if err != nil {
		return nil, err
	}

	// 终态不重算
	if challenge.Status.IsTerminal() {
		return challenge, nil
	}

	ev, err := evaluator.New(challenge.ChallengeType, s.repo.Pomodoro, user.UserID, week, loc)
	if err != nil {
		s.logger.Error("构造评估器失败",
			zap.String("user_id", user.UserID),
			zap.String("challenge_type", string(challenge.ChallengeType)),
			zap.Error(err))
		return nil, err
	}
	result, err := ev.Evaluate(ctx, now)
	if err != nil {
		s.logger.Error("评估挑战失败", zap.String("challenge_id", challenge.ChallengeID), zap.Error(err))
		return nil, err
	}

	fields := make(map[string]interface{})
	if result.CurrentValue != challenge.CurrentValue {
		fields["current_value"] = result.CurrentValue
	}
	if result.Completed {
		fields["status"] = model.ChallengeStatusCompleted
		fields["completed_at"] = now
	}
	if len(fields) > 0 {
		// UpdateFields 带 status=active 守卫，并发下终态不会被回写
		if err := s.repo.Challenge.UpdateFields(ctx, challenge.ChallengeID, fields); err != nil {
			s.logger.Error("更新挑战进度失败", zap.String("challenge_id", challenge.ChallengeID), zap.Error(err))
			return nil, err
		}
		challenge.CurrentValue = result.CurrentValue
		if result.Completed {
			challenge.Status = model.ChallengeStatusCompleted
			challenge.CompletedAt = &now
		}
	}

	return challenge, nil
}

// getOrCreate 解析本周挑战记录，并发创建冲突时回读已有记录
func (s *challengeService) getOrCreate(ctx context.Context, userID string, week timewindow.Week) (*model.WeeklyChallenge, error) {
	challenge, err := s.repo.Challenge.GetForWeek(ctx, userID, week.StartDate)
	if err == nil {
		return challenge, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询本周挑战失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	typ := model.AllChallengeTypes[rand.Intn(len(model.AllChallengeTypes))]
	target, err := evaluator.TargetValue(typ)
	if err != nil {
		return nil, err
	}

	challenge = &model.WeeklyChallenge{
		UserID:        userID,
		WeekStart:     week.StartDate,
		WeekEnd:       week.EndDate,
		ChallengeType: typ,
		CurrentValue:  0,
		TargetValue:   target,
		Status:        model.ChallengeStatusActive,
	}
	if err := s.repo.Challenge.Create(ctx, challenge); err != nil {
		// 唯一约束冲突说明并发请求先建了记录，回读即可
		if pkgerrors.IsDuplicateKey(err) {
			s.logger.Info("本周挑战并发创建冲突，回读已有记录", zap.String("user_id", userID))
			return s.repo.Challenge.GetForWeek(ctx, userID, week.StartDate)
		}
		s.logger.Error("创建本周挑战失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("创建本周挑战",
		zap.String("user_id", userID),
		zap.String("challenge_type", string(typ)),
		zap.Time("week_start", week.StartDate))
	return challenge, nil
}

// ────────────────────── EvaluateAsync ──────────────────────

func (s *challengeService) EvaluateAsync(userID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		user, err := s.repo.User.GetByID(ctx, userID)
		if err != nil {
			s.logger.Error("异步评估加载用户失败", zap.String("user_id", userID), zap.Error(err))
			return
		}
		if _, err := s.EnsureAndEvaluate(ctx, user, time.Now().UTC()); err != nil {
			s.logger.Error("异步评估挑战失败", zap.String("user_id", userID), zap.Error(err))
		}
	}()
}

// ────────────────────── ListHistory ──────────────────────

func (s *challengeService) ListHistory(ctx context.Context, userID string, page, pageSize int) ([]dto.ChallengeResponse, int64, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, ErrChallengeUserNotFound
		}
		return nil, 0, err
	}

	challenges, total, err := s.repo.Challenge.ListByUser(ctx, userID, (page-1)*pageSize, pageSize)
	if err != nil {
		s.logger.Error("查询挑战历史失败", zap.String("user_id", userID), zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.ChallengeResponse, 0, len(challenges))
	for i := range challenges {
		title, description := evaluator.Metadata(challenges[i].ChallengeType, user.Language)
		result = append(result, *dto.NewChallengeResponse(&challenges[i], title, description))
	}
	return result, total, nil
}
