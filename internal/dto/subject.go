package dto

import "github.com/francovalli123/StudyO/internal/model"

// CreateSubjectRequest 创建学科请求
type CreateSubjectRequest struct {
	Name  string `json:"name"  binding:"required,max=100"`
	Color string `json:"color" binding:"omitempty,hexcolor"`
}

// UpdateSubjectRequest 更新学科请求
type UpdateSubjectRequest struct {
	Name     *string `json:"name"      binding:"omitempty,max=100"`
	Color    *string `json:"color"     binding:"omitempty,hexcolor"`
	IsActive *bool   `json:"is_active"`
}

// SubjectResponse 学科响应
type SubjectResponse struct {
	SubjectID string `json:"subject_id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	IsActive  bool   `json:"is_active"`
}

// NewSubjectResponse 由模型构造学科响应
func NewSubjectResponse(s *model.Subject) *SubjectResponse {
	return &SubjectResponse{
		SubjectID: s.SubjectID,
		Name:      s.Name,
		Color:     s.Color,
		IsActive:  s.IsActive,
	}
}
