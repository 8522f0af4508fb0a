package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	User             UserRepository
	PasswordReset    PasswordResetRepository
	Subject          SubjectRepository
	Pomodoro         PomodoroRepository
	Challenge        ChallengeRepository
	Objective        ObjectiveRepository
	ObjectiveHistory ObjectiveHistoryRepository
	Habit            HabitRepository
	HabitRecord      HabitRecordRepository
	Notification     NotificationRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:               db,
		User:             NewUserRepo(db),
		PasswordReset:    NewPasswordResetRepo(db),
		Subject:          NewSubjectRepo(db),
		Pomodoro:         NewPomodoroRepo(db),
		Challenge:        NewChallengeRepo(db),
		Objective:        NewObjectiveRepo(db),
		ObjectiveHistory: NewObjectiveHistoryRepo(db),
		Habit:            NewHabitRepo(db),
		HabitRecord:      NewHabitRecordRepo(db),
		Notification:     NewNotificationRepo(db),
	}
}

// WithTx 在单个事务中执行 fn，fn 内通过事务版聚合访问数据
// fn 返回 error 时整体回滚；手工拼装的聚合（无 db）直接执行，不包事务
func (r *Repository) WithTx(ctx context.Context, fn func(txRepo *Repository) error) error {
	if r.db == nil {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}
