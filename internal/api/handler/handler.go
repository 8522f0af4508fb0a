package handler

import "github.com/francovalli123/StudyO/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth      *AuthHandler
	User      *UserHandler
	Subject   *SubjectHandler
	Pomodoro  *PomodoroHandler
	Challenge *ChallengeHandler
	Objective *ObjectiveHandler
	Habit     *HabitHandler
	Export    *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:      NewAuthHandler(svc.Auth),
		User:      NewUserHandler(svc.User),
		Subject:   NewSubjectHandler(svc.Subject),
		Pomodoro:  NewPomodoroHandler(svc.Pomodoro),
		Challenge: NewChallengeHandler(svc.Challenge),
		Objective: NewObjectiveHandler(svc.Objective),
		Habit:     NewHabitHandler(svc.Habit),
		Export:    NewExportHandler(svc.Export),
	}
}
