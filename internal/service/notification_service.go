package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/francovalli123/StudyO/internal/model"
	"github.com/francovalli123/StudyO/internal/repository"
	"github.com/francovalli123/StudyO/pkg/mailer"
	"github.com/francovalli123/StudyO/pkg/redis"
	"github.com/francovalli123/StudyO/pkg/timewindow"
)

// 各类通知的触发参数
const (
	defaultKeyHabitsHour = 20 // 本地 20:00，可被用户偏好覆盖

	challengeReminderWeekday  = time.Sunday
	challengeReminderHour     = 12
	objectivesReminderWeekday = time.Saturday
	objectivesReminderHour    = 12
	summaryWeekday            = time.Monday
	summaryHour               = 0
	summaryMinute             = 5

	keyHabitsDedupWindow = 1 * time.Hour
	weeklyDedupWindow    = 2 * time.Hour

	// 调度周期为 5 分钟，触发窗口取同样宽度保证恰好命中一次
	minuteWindow = 5
)

// NotificationService 通知扫描业务接口
//
// 四个 Sweep 由调度器每 5 分钟全部调一次，各自按用户本地时间判断是否落入
// 发送窗口。窗口判定加两层去重（Redis SetNX 兜底 + 通知表回查），
// 多实例部署和调度重叠都不会重复发信。
type NotificationService interface {
	SweepKeyHabits(ctx context.Context, now time.Time) error
	SweepChallengeReminder(ctx context.Context, now time.Time) error
	SweepObjectivesReminder(ctx context.Context, now time.Time) error
	SweepWeeklySummary(ctx context.Context, now time.Time) error
}

type notificationService struct {
	repo   *repository.Repository
	mail   mailer.Mailer
	cache  *redis.Client // 允许为 nil，降级为仅数据库去重
	logger *zap.Logger
}

// NewNotificationService 创建 NotificationService 实例
func NewNotificationService(repo *repository.Repository, mail mailer.Mailer, cache *redis.Client, logger *zap.Logger) NotificationService {
	return &notificationService{repo: repo, mail: mail, cache: cache, logger: logger}
}

// inMinuteWindow 判断本地时刻是否落在 [hour:minute, hour:minute+5) 窗口内
func inMinuteWindow(local time.Time, hour, minute int) bool {
	return local.Hour() == hour && local.Minute() >= minute && local.Minute() < minute+minuteWindow
}

// sweep 遍历活跃用户并对每个用户执行 fn，单用户错误只记日志
func (s *notificationService) sweep(ctx context.Context, name string, fn func(ctx context.Context, user *model.User) error) error {
	for offset := 0; ; offset += sweepBatchSize {
		users, err := s.repo.User.ListActive(ctx, offset, sweepBatchSize)
		if err != nil {
			s.logger.Error("通知扫描读取用户失败", zap.String("sweep", name), zap.Error(err))
			return err
		}
		if len(users) == 0 {
			return nil
		}
		for i := range users {
			if err := fn(ctx, &users[i]); err != nil {
				s.logger.Error("通知处理失败",
					zap.String("sweep", name),
					zap.String("user_id", users[i].UserID),
					zap.Error(err))
			}
		}
	}
}

// alreadySent 去重判定：先 Redis SetNX 抢占，再回查通知表
func (s *notificationService) alreadySent(ctx context.Context, userID string, typ model.NotificationType, window time.Duration, now time.Time) (bool, error) {
	if s.cache != nil {
		first, err := s.cache.MarkNotified(ctx, userID, string(typ), window)
		if err != nil {
			// Redis 故障时退回数据库去重，不阻断发送
			s.logger.Warn("Redis 去重失败，退回数据库判定", zap.Error(err))
		} else if !first {
			return true, nil
		}
	}
	return s.repo.Notification.ExistsRecent(ctx, userID, typ, now.Add(-window))
}

// deliver 发送邮件并落通知记录，投递失败也会留痕
func (s *notificationService) deliver(ctx context.Context, user *model.User, typ model.NotificationType, subject, body string, meta model.JSONMap, now time.Time) error {
	status := model.NotificationStatusSent
	sendErr := s.mail.Send(user.Email, subject, body)
	if sendErr != nil {
		status = model.NotificationStatusFailed
		s.logger.Error("发送通知邮件失败",
			zap.String("user_id", user.UserID),
			zap.String("type", string(typ)),
			zap.Error(sendErr))
	}

	record := &model.Notification{
		UserID:   user.UserID,
		Type:     typ,
		Status:   status,
		Message:  subject,
		Metadata: meta,
		SentAt:   now,
	}
	if err := s.repo.Notification.Create(ctx, record); err != nil {
		s.logger.Error("写通知记录失败", zap.String("user_id", user.UserID), zap.Error(err))
		return err
	}
	return sendErr
}

// ────────────────────── 每日关键习惯提醒 ──────────────────────

func (s *notificationService) SweepKeyHabits(ctx context.Context, now time.Time) error {
	return s.sweep(ctx, "key_habits", func(ctx context.Context, user *model.User) error {
		if !user.IsNotificationEnabled("key_habits_reminder") {
			return nil
		}
		loc, _ := timewindow.Resolve(user.Timezone, user.Country)
		local := now.In(loc)
		hour := user.ReminderHour("key_habits_reminder", defaultKeyHabitsHour)
		if !inMinuteWindow(local, hour, 0) {
			return nil
		}

		habits, err := s.repo.Habit.ListKey(ctx, user.UserID)
		if err != nil {
			return err
		}
		if len(habits) == 0 {
			return nil
		}

		today := timewindow.Date(loc, now)
		ids := make([]string, 0, len(habits))
		for i := range habits {
			ids = append(ids, habits[i].HabitID)
		}
		done, err := s.repo.HabitRecord.CompletedSetOn(ctx, ids, today)
		if err != nil {
			return err
		}

		var pending []string
		for i := range habits {
			if !done[habits[i].HabitID] {
				pending = append(pending, habits[i].Name)
			}
		}
		if len(pending) == 0 {
			return nil
		}

		sent, err := s.alreadySent(ctx, user.UserID, model.NotifyKeyHabitsReminder, keyHabitsDedupWindow, now)
		if err != nil || sent {
			return err
		}

		subject := fmt.Sprintf("还有 %d 个关键习惯待完成", len(pending))
		body := fmt.Sprintf("<p>今天还没完成的关键习惯：</p><ul><li>%s</li></ul>",
			strings.Join(pending, "</li><li>"))
		return s.deliver(ctx, user, model.NotifyKeyHabitsReminder, subject, body,
			model.JSONMap{"pending": pending}, now)
	})
}

// ────────────────────── 周日挑战冲刺提醒 ──────────────────────

func (s *notificationService) SweepChallengeReminder(ctx context.Context, now time.Time) error {
	return s.sweep(ctx, "weekly_challenge", func(ctx context.Context, user *model.User) error {
		if !user.IsNotificationEnabled("weekly_challenge_reminder") {
			return nil
		}
		loc, _ := timewindow.Resolve(user.Timezone, user.Country)
		local := now.In(loc)
		if local.Weekday() != challengeReminderWeekday || !inMinuteWindow(local, challengeReminderHour, 0) {
			return nil
		}

		week := timewindow.WeekOf(loc, now)
		challenge, err := s.repo.Challenge.GetForWeek(ctx, user.UserID, week.StartDate)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil // 本周还没有挑战，不提醒
			}
			return err
		}
		if challenge.Status != model.ChallengeStatusActive {
			return nil
		}

		sent, err := s.alreadySent(ctx, user.UserID, model.NotifyWeeklyChallengeReminder, weeklyDedupWindow, now)
		if err != nil || sent {
			return err
		}

		subject := "周挑战最后冲刺"
		body := fmt.Sprintf("<p>本周挑战进度 %.1f / %.1f，今天是最后一天，加油！</p>",
			challenge.CurrentValue, challenge.TargetValue)
		return s.deliver(ctx, user, model.NotifyWeeklyChallengeReminder, subject, body,
			model.JSONMap{
				"challenge_type": string(challenge.ChallengeType),
				"current_value":  challenge.CurrentValue,
				"target_value":   challenge.TargetValue,
			}, now)
	})
}

// ────────────────────── 周六未完成目标提醒 ──────────────────────

func (s *notificationService) SweepObjectivesReminder(ctx context.Context, now time.Time) error {
	return s.sweep(ctx, "weekly_objectives", func(ctx context.Context, user *model.User) error {
		if !user.IsNotificationEnabled("weekly_objectives_reminder") {
			return nil
		}
		loc, _ := timewindow.Resolve(user.Timezone, user.Country)
		local := now.In(loc)
		if local.Weekday() != objectivesReminderWeekday || !inMinuteWindow(local, objectivesReminderHour, 0) {
			return nil
		}

		count, err := s.repo.Objective.CountActiveIncomplete(ctx, user.UserID)
		if err != nil {
			return err
		}
		if count == 0 {
			return nil
		}

		sent, err := s.alreadySent(ctx, user.UserID, model.NotifyWeeklyObjectivesReminder, weeklyDedupWindow, now)
		if err != nil || sent {
			return err
		}

		subject := fmt.Sprintf("本周还有 %d 个目标未完成", count)
		body := fmt.Sprintf("<p>本周还剩 %d 个目标没有完成，周末是赶上进度的好时机。</p>", count)
		return s.deliver(ctx, user, model.NotifyWeeklyObjectivesReminder, subject, body,
			model.JSONMap{"pending_count": count}, now)
	})
}

// ────────────────────── 周一上周总结 ──────────────────────

func (s *notificationService) SweepWeeklySummary(ctx context.Context, now time.Time) error {
	return s.sweep(ctx, "weekly_summary", func(ctx context.Context, user *model.User) error {
		if !user.IsNotificationEnabled("weekly_summary") {
			return nil
		}
		loc, _ := timewindow.Resolve(user.Timezone, user.Country)
		local := now.In(loc)
		if local.Weekday() != summaryWeekday || !inMinuteWindow(local, summaryHour, summaryMinute) {
			return nil
		}

		// 上一周窗口：往回退 7 天再取周边界
		lastWeek := timewindow.WeekOf(loc, now.AddDate(0, 0, -7))
		sessions, err := s.repo.Pomodoro.ListInWindow(ctx, user.UserID, lastWeek.StartUTC, lastWeek.EndUTC)
		if err != nil {
			return err
		}
		var totalMinutes float64
		for i := range sessions {
			totalMinutes += sessions[i].DurationMinutes
		}

		sent, err := s.alreadySent(ctx, user.UserID, model.NotifyWeeklySummary, weeklyDedupWindow, now)
		if err != nil || sent {
			return err
		}

		subject := "你的上周学习总结"
		body := fmt.Sprintf("<p>上周你完成了 %d 个专注会话，累计 %.0f 分钟。新的一周开始了！</p>",
			len(sessions), totalMinutes)
		return s.deliver(ctx, user, model.NotifyWeeklySummary, subject, body,
			model.JSONMap{
				"session_count": len(sessions),
				"total_minutes": totalMinutes,
				"week_start":    lastWeek.StartDate.Format("2006-01-02"),
			}, now)
	})
}
