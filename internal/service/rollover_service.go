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
	"github.com/francovalli123/StudyO/pkg/timewindow"
)

// 轮转跳过原因，写入 RolloverResult.Reason
const (
	reasonAlreadyPerformed = "本周已执行过轮转"
	reasonHistoryExists    = "本周历史已存在且无活跃目标"
	reasonNothingToArchive = "没有可归档的活跃目标"
)

// sweepBatchSize 全量扫描时的分批大小
const sweepBatchSize = 200

// RolloverService 周目标轮转业务接口
//
// 轮转是"归档而非删除"：活跃目标快照进历史表后整体置为 is_active=false。
// 同一逻辑同时服务于调度器的周一扫描和请求路径上的惰性触发，多次执行幂等。
type RolloverService interface {
	// EnsureForUser 判断并按需执行用户的周轮转，可安全重复调用
	EnsureForUser(ctx context.Context, user *model.User, now time.Time) (*dto.RolloverResult, error)
	// SweepAll 对全部活跃用户执行轮转，逐用户收集错误而不中断
	SweepAll(ctx context.Context, now time.Time) (*dto.RolloverResult, error)
}

type rolloverService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewRolloverService 创建 RolloverService 实例
func NewRolloverService(repo *repository.Repository, logger *zap.Logger) RolloverService {
	return &rolloverService{repo: repo, logger: logger}
}

// ────────────────────── EnsureForUser ──────────────────────

func (s *rolloverService) EnsureForUser(ctx context.Context, user *model.User, now time.Time) (*dto.RolloverResult, error) {
	loc, _ := timewindow.Resolve(user.Timezone, user.Country)
	week := timewindow.WeekOf(loc, now)

	should, err := s.shouldPerform(ctx, user.UserID, week)
	if err != nil {
		return nil, err
	}
	if !should {
		return &dto.RolloverResult{Performed: false, Reason: reasonAlreadyPerformed}, nil
	}

	return s.perform(ctx, user.UserID, week, now)
}

// shouldPerform 第一层守卫：最近一次历史的 (ISO年, ISO周) 与当前周比较
//
// 必须带 ISO 年一起比较，年末的周 1 和上一年的周 1 同号但不是同一周。
func (s *rolloverService) shouldPerform(ctx context.Context, userID string, week timewindow.Week) (bool, error) {
	latest, err := s.repo.ObjectiveHistory.LatestForUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 从未轮转过：有活跃目标就执行
			count, cErr := s.repo.Objective.CountActive(ctx, userID)
			if cErr != nil {
				s.logger.Error("统计活跃目标失败", zap.String("user_id", userID), zap.Error(cErr))
				return false, cErr
			}
			return count > 0, nil
		}
		s.logger.Error("查询最近轮转历史失败", zap.String("user_id", userID), zap.Error(err))
		return false, err
	}

	lastYear, lastWeek := timewindow.ISOWeekOf(latest.WeekStartDate)
	return lastYear != week.ISOYear || lastWeek != week.ISOWeek, nil
}

// perform 执行轮转：历史快照与归档在同一事务内完成
func (s *rolloverService) perform(ctx context.Context, userID string, week timewindow.Week, now time.Time) (*dto.RolloverResult, error) {
	// 第二层守卫：精确 (week_start, week_end) 的历史已存在且无活跃目标
	exists, err := s.repo.ObjectiveHistory.ExistsForWeek(ctx, userID, week.StartDate, week.EndDate)
	if err != nil {
		s.logger.Error("检查本周历史失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	actives, err := s.repo.Objective.ListActive(ctx, userID)
	if err != nil {
		s.logger.Error("查询活跃目标失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	if exists && len(actives) == 0 {
		return &dto.RolloverResult{Performed: false, Reason: reasonHistoryExists}, nil
	}
	if len(actives) == 0 {
		return &dto.RolloverResult{Performed: false, Reason: reasonNothingToArchive}, nil
	}

	histories := make([]model.WeeklyObjectiveHistory, 0, len(actives))
	for i := range actives {
		o := &actives[i]
		var completedAt *time.Time
		if o.IsCompleted {
			t := now
			completedAt = &t
		}
		area := o.Area
		if area == "" {
			area = "General"
		}
		histories = append(histories, model.WeeklyObjectiveHistory{
			UserID:        o.UserID,
			ObjectiveID:   o.ObjectiveID,
			Title:         o.Title,
			Description:   o.Description,
			Area:          area,
			Priority:      o.Priority,
			WasCompleted:  o.IsCompleted,
			CompletedAt:   completedAt,
			WeekStartDate: week.StartDate,
			WeekEndDate:   week.EndDate,
		})
	}

	result := &dto.RolloverResult{
		Performed: true,
		WeekStart: week.StartDate.Format("2006-01-02"),
		WeekEnd:   week.EndDate.Format("2006-01-02"),
	}

	var archived int64
	txErr := s.repo.WithTx(ctx, func(txRepo *repository.Repository) error {
		if err := txRepo.ObjectiveHistory.BulkCreate(ctx, histories); err != nil {
			return err
		}
		n, err := txRepo.Objective.ArchiveActive(ctx, userID, now)
		if err != nil {
			return err
		}
		archived = n
		return nil
	})
	if txErr != nil {
		// 错误收集进结果而不上抛，与扫描路径的"尽力而为"语义一致
		s.logger.Error("轮转事务失败", zap.String("user_id", userID), zap.Error(txErr))
		result.Errors = append(result.Errors, txErr.Error())
		return result, nil
	}

	result.ArchivedCount = int(archived)
	s.logger.Info("周轮转完成",
		zap.String("user_id", userID),
		zap.Int("archived", result.ArchivedCount),
		zap.String("week_start", result.WeekStart))
	return result, nil
}

// ────────────────────── SweepAll ──────────────────────

func (s *rolloverService) SweepAll(ctx context.Context, now time.Time) (*dto.RolloverResult, error) {
	total := &dto.RolloverResult{}

	for offset := 0; ; offset += sweepBatchSize {
		users, err := s.repo.User.ListActive(ctx, offset, sweepBatchSize)
		if err != nil {
			s.logger.Error("扫描用户失败", zap.Int("offset", offset), zap.Error(err))
			return total, err
		}
		if len(users) == 0 {
			break
		}

		for i := range users {
			res, err := s.EnsureForUser(ctx, &users[i], now)
			if err != nil {
				// 单用户失败不中断整体扫描
				total.Errors = append(total.Errors, users[i].UserID+": "+err.Error())
				continue
			}
			if res.Performed {
				total.Performed = true
				total.ArchivedCount += res.ArchivedCount
				total.Errors = append(total.Errors, res.Errors...)
			}
		}
	}

	s.logger.Info("周轮转扫描完成",
		zap.Int("archived_total", total.ArchivedCount),
		zap.Int("errors", len(total.Errors)))
	return total, nil
}
