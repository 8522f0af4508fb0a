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
	"github.com/francovalli123/StudyO/pkg/timewindow"
)

// ── 习惯模块业务错误 ──

var (
	ErrHabitNotFound       = errors.New("习惯不存在")
	ErrHabitAlreadyChecked = errors.New("今日已打卡")
	ErrHabitDateInvalid    = errors.New("打卡日期格式无效")
)

// HabitService 习惯业务接口
type HabitService interface {
	Create(ctx context.Context, userID string, req *dto.CreateHabitRequest) (*dto.HabitResponse, error)
	// List 返回习惯及"用户本地今天是否已打卡"
	List(ctx context.Context, userID string) ([]dto.HabitResponse, error)
	Update(ctx context.Context, userID, habitID string, req *dto.UpdateHabitRequest) (*dto.HabitResponse, error)
	Delete(ctx context.Context, userID, habitID string) error
	// CheckIn 打卡并累进连续天数，同日重复打卡返回 ErrHabitAlreadyChecked
	CheckIn(ctx context.Context, userID, habitID string, req *dto.CheckInRequest) (*dto.HabitResponse, error)
}

type habitService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewHabitService 创建 HabitService 实例
func NewHabitService(repo *repository.Repository, logger *zap.Logger) HabitService {
	return &habitService{repo: repo, logger: logger}
}

func (s *habitService) Create(ctx context.Context, userID string, req *dto.CreateHabitRequest) (*dto.HabitResponse, error) {
	habit := &model.Habit{
		UserID:   userID,
		Name:     req.Name,
		IsKey:    req.IsKey,
		IsActive: true,
	}
	if err := s.repo.Habit.Create(ctx, habit); err != nil {
		s.logger.Error("创建习惯失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return dto.NewHabitResponse(habit, false), nil
}

func (s *habitService) List(ctx context.Context, userID string) ([]dto.HabitResponse, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	habits, err := s.repo.Habit.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("查询习惯失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	loc, _ := timewindow.Resolve(user.Timezone, user.Country)
	today := timewindow.Date(loc, time.Now().UTC())

	ids := make([]string, 0, len(habits))
	for i := range habits {
		ids = append(ids, habits[i].HabitID)
	}
	done, err := s.repo.HabitRecord.CompletedSetOn(ctx, ids, today)
	if err != nil {
		return nil, err
	}

	result := make([]dto.HabitResponse, 0, len(habits))
	for i := range habits {
		result = append(result, *dto.NewHabitResponse(&habits[i], done[habits[i].HabitID]))
	}
	return result, nil
}

func (s *habitService) Update(ctx context.Context, userID, habitID string, req *dto.UpdateHabitRequest) (*dto.HabitResponse, error) {
	habit, err := s.repo.Habit.GetByID(ctx, userID, habitID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHabitNotFound
		}
		return nil, err
	}

	if req.Name != nil {
		habit.Name = *req.Name
	}
	if req.IsKey != nil {
		habit.IsKey = *req.IsKey
	}
	if req.IsActive != nil {
		habit.IsActive = *req.IsActive
	}

	if err := s.repo.Habit.Update(ctx, habit); err != nil {
		s.logger.Error("更新习惯失败", zap.String("habit_id", habitID), zap.Error(err))
		return nil, err
	}
	return dto.NewHabitResponse(habit, false), nil
}

func (s *habitService) Delete(ctx context.Context, userID, habitID string) error {
	if _, err := s.repo.Habit.GetByID(ctx, userID, habitID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrHabitNotFound
		}
		return err
	}
	return s.repo.Habit.Delete(ctx, userID, habitID)
}

func (s *habitService) CheckIn(ctx context.Context, userID, habitID string, req *dto.CheckInRequest) (*dto.HabitResponse, error) {
	habit, err := s.repo.Habit.GetByID(ctx, userID, habitID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHabitNotFound
		}
		return nil, err
	}

	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	loc, _ := timewindow.Resolve(user.Timezone, user.Country)

	date := timewindow.Date(loc, time.Now().UTC())
	if req.RecordDate != "" {
		parsed, err := time.Parse("2006-01-02", req.RecordDate)
		if err != nil {
			return nil, ErrHabitDateInvalid
		}
		date = parsed
	}

	record := &model.HabitRecord{
		HabitID:    habitID,
		RecordDate: date,
		Completed:  true,
	}
	if err := s.repo.HabitRecord.Create(ctx, record); err != nil {
		if pkgerrors.IsDuplicateKey(err) {
			return nil, ErrHabitAlreadyChecked
		}
		s.logger.Error("打卡失败", zap.String("habit_id", habitID), zap.Error(err))
		return nil, err
	}

	// 昨天有打卡则累进，否则重置为 1
	yesterday, err := s.repo.HabitRecord.CompletedOn(ctx, habitID, date.AddDate(0, 0, -1))
	if err != nil {
		return nil, err
	}
	if yesterday {
		habit.Streak++
	} else {
		habit.Streak = 1
	}
	if err := s.repo.Habit.Update(ctx, habit); err != nil {
		return nil, err
	}

	return dto.NewHabitResponse(habit, true), nil
}
