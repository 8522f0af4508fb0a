package service

import (
	"context"
	"errors"
	"math"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/francovalli123/StudyO/internal/dto"
	"github.com/francovalli123/StudyO/internal/model"
	"github.com/francovalli123/StudyO/internal/repository"
)

// ── 周目标模块业务错误 ──

var (
	ErrObjectiveNotFound = errors.New("目标不存在")
	ErrObjectiveArchived = errors.New("目标已归档，不可修改")
)

// ObjectiveService 周目标业务接口
type ObjectiveService interface {
	Create(ctx context.Context, userID string, req *dto.CreateObjectiveRequest) (*dto.ObjectiveResponse, error)
	// List 返回当前周的活跃目标；读取前惰性触发轮转，保证跨周后首个请求看到干净的一周
	List(ctx context.Context, userID string) ([]dto.ObjectiveResponse, error)
	Update(ctx context.Context, userID, objectiveID string, req *dto.UpdateObjectiveRequest) (*dto.ObjectiveResponse, error)
	Delete(ctx context.Context, userID, objectiveID string) error
	Stats(ctx context.Context, userID string) (*dto.ObjectiveStatsResponse, error)
	ListHistory(ctx context.Context, userID string, page, pageSize int) ([]dto.ObjectiveHistoryResponse, int64, error)
}

type objectiveService struct {
	repo     *repository.Repository
	rollover RolloverService
	logger   *zap.Logger
}

// NewObjectiveService 创建 ObjectiveService 实例
func NewObjectiveService(repo *repository.Repository, rollover RolloverService, logger *zap.Logger) ObjectiveService {
	return &objectiveService{repo: repo, rollover: rollover, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *objectiveService) Create(ctx context.Context, userID string, req *dto.CreateObjectiveRequest) (*dto.ObjectiveResponse, error) {
	objective := &model.WeeklyObjective{
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		Area:        req.Area,
		Priority:    req.Priority,
		IsActive:    true,
	}
	if err := s.repo.Objective.Create(ctx, objective); err != nil {
		s.logger.Error("创建目标失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return dto.NewObjectiveResponse(objective), nil
}

// ────────────────────── List ──────────────────────

func (s *objectiveService) List(ctx context.Context, userID string) ([]dto.ObjectiveResponse, error) {
	if err := s.lazyRollover(ctx, userID); err != nil {
		return nil, err
	}

	objectives, err := s.repo.Objective.ListActive(ctx, userID)
	if err != nil {
		s.logger.Error("查询活跃目标失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.ObjectiveResponse, 0, len(objectives))
	for i := range objectives {
		result = append(result, *dto.NewObjectiveResponse(&objectives[i]))
	}
	return result, nil
}

// lazyRollover 请求路径上的惰性轮转，调度器漏跑时兜底
func (s *objectiveService) lazyRollover(ctx context.Context, userID string) error {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrObjectiveNotFound
		}
		return err
	}
	if _, err := s.rollover.EnsureForUser(ctx, user, time.Now().UTC()); err != nil {
		return err
	}
	return nil
}

// ────────────────────── Update ──────────────────────

func (s *objectiveService) Update(ctx context.Context, userID, objectiveID string, req *dto.UpdateObjectiveRequest) (*dto.ObjectiveResponse, error) {
	objective, err := s.repo.Objective.GetByID(ctx, userID, objectiveID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrObjectiveNotFound
		}
		s.logger.Error("查询目标失败", zap.String("objective_id", objectiveID), zap.Error(err))
		return nil, err
	}
	if !objective.IsActive {
		return nil, ErrObjectiveArchived
	}

	if req.Title != nil {
		objective.Title = *req.Title
	}
	if req.Description != nil {
		objective.Description = *req.Description
	}
	if req.Area != nil {
		objective.Area = *req.Area
	}
	if req.Priority != nil {
		objective.Priority = *req.Priority
	}
	if req.IsCompleted != nil && *req.IsCompleted != objective.IsCompleted {
		objective.IsCompleted = *req.IsCompleted
		if *req.IsCompleted {
			now := time.Now().UTC()
			objective.CompletedAt = &now
		} else {
			objective.CompletedAt = nil
		}
	}

	if err := s.repo.Objective.Update(ctx, objective); err != nil {
		s.logger.Error("更新目标失败", zap.String("objective_id", objectiveID), zap.Error(err))
		return nil, err
	}
	return dto.NewObjectiveResponse(objective), nil
}

// ────────────────────── Delete ──────────────────────

func (s *objectiveService) Delete(ctx context.Context, userID, objectiveID string) error {
	if _, err := s.repo.Objective.GetByID(ctx, userID, objectiveID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrObjectiveNotFound
		}
		return err
	}
	return s.repo.Objective.Delete(ctx, userID, objectiveID)
}

// ────────────────────── Stats ──────────────────────

func (s *objectiveService) Stats(ctx context.Context, userID string) (*dto.ObjectiveStatsResponse, error) {
	if err := s.lazyRollover(ctx, userID); err != nil {
		return nil, err
	}

	objectives, err := s.repo.Objective.ListActive(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats := &dto.ObjectiveStatsResponse{Total: len(objectives)}
	for i := range objectives {
		if objectives[i].IsCompleted {
			stats.Completed++
		}
	}
	stats.Pending = stats.Total - stats.Completed
	if stats.Total > 0 {
		stats.CompletionRate = math.Round(float64(stats.Completed)/float64(stats.Total)*100*100) / 100
	}
	return stats, nil
}

// ────────────────────── ListHistory ──────────────────────

func (s *objectiveService) ListHistory(ctx context.Context, userID string, page, pageSize int) ([]dto.ObjectiveHistoryResponse, int64, error) {
	histories, total, err := s.repo.ObjectiveHistory.ListByUser(ctx, userID, (page-1)*pageSize, pageSize)
	if err != nil {
		s.logger.Error("查询目标历史失败", zap.String("user_id", userID), zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.ObjectiveHistoryResponse, 0, len(histories))
	for i := range histories {
		result = append(result, *dto.NewObjectiveHistoryResponse(&histories[i]))
	}
	return result, total, nil
}
