package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/francovalli123/StudyO/internal/dto"
	"github.com/francovalli123/StudyO/internal/model"
	"github.com/francovalli123/StudyO/internal/repository"
)

// ── 学科模块业务错误 ──

var ErrSubjectNotFound = errors.New("学科不存在")

// SubjectService 学科业务接口
type SubjectService interface {
	Create(ctx context.Context, userID string, req *dto.CreateSubjectRequest) (*dto.SubjectResponse, error)
	List(ctx context.Context, userID string) ([]dto.SubjectResponse, error)
	Update(ctx context.Context, userID, subjectID string, req *dto.UpdateSubjectRequest) (*dto.SubjectResponse, error)
	Delete(ctx context.Context, userID, subjectID string) error
}

type subjectService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewSubjectService 创建 SubjectService 实例
func NewSubjectService(repo *repository.Repository, logger *zap.Logger) SubjectService {
	return &subjectService{repo: repo, logger: logger}
}

func (s *subjectService) Create(ctx context.Context, userID string, req *dto.CreateSubjectRequest) (*dto.SubjectResponse, error) {
	subject := &model.Subject{
		UserID:   userID,
		Name:     req.Name,
		IsActive: true,
	}
	if req.Color != "" {
		subject.Color = req.Color
	}
	if err := s.repo.Subject.Create(ctx, subject); err != nil {
		s.logger.Error("创建学科失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return dto.NewSubjectResponse(subject), nil
}

func (s *subjectService) List(ctx context.Context, userID string) ([]dto.SubjectResponse, error) {
	subjects, err := s.repo.Subject.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("查询学科失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	result := make([]dto.SubjectResponse, 0, len(subjects))
	for i := range subjects {
		result = append(result, *dto.NewSubjectResponse(&subjects[i]))
	}
	return result, nil
}

func (s *subjectService) Update(ctx context.Context, userID, subjectID string, req *dto.UpdateSubjectRequest) (*dto.SubjectResponse, error) {
	subject, err := s.repo.Subject.GetByID(ctx, userID, subjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubjectNotFound
		}
		return nil, err
	}

	if req.Name != nil {
		subject.Name = *req.Name
	}
	if req.Color != nil {
		subject.Color = *req.Color
	}
	if req.IsActive != nil {
		subject.IsActive = *req.IsActive
	}

	if err := s.repo.Subject.Update(ctx, subject); err != nil {
		s.logger.Error("更新学科失败", zap.String("subject_id", subjectID), zap.Error(err))
		return nil, err
	}
	return dto.NewSubjectResponse(subject), nil
}

func (s *subjectService) Delete(ctx context.Context, userID, subjectID string) error {
	if _, err := s.repo.Subject.GetByID(ctx, userID, subjectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSubjectNotFound
		}
		return err
	}
	return s.repo.Subject.Delete(ctx, userID, subjectID)
}
