package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/francovalli123/StudyO/internal/model"
	"github.com/francovalli123/StudyO/internal/repository"
)

// ── 测试辅助 ──

type notifyFixture struct {
	svc       NotificationService
	users     *mockUserRepo
	habits    *mockHabitRepo
	records   *mockHabitRecordRepo
	challenge *mockChallengeRepo
	objective *mockObjectiveRepo
	pomodoro  *mockPomodoroRepo
	notify    *mockNotificationRepo
	mail      *fakeMailer
}

func setupTestNotificationService() *notifyFixture {
	f := &notifyFixture{
		users:     newMockUserRepo(),
		habits:    newMockHabitRepo(),
		records:   newMockHabitRecordRepo(),
		challenge: newMockChallengeRepo(),
		objective: newMockObjectiveRepo(),
		pomodoro:  newMockPomodoroRepo(),
		notify:    newMockNotificationRepo(),
		mail:      &fakeMailer{},
	}
	repo := &repository.Repository{
		User:         f.users,
		Habit:        f.habits,
		HabitRecord:  f.records,
		Challenge:    f.challenge,
		Objective:    f.objective,
		Pomodoro:     f.pomodoro,
		Notification: f.notify,
	}
	// cache 传 nil：去重完全走通知表回查
	f.svc = NewNotificationService(repo, f.mail, nil, zap.NewNop())
	return f
}

func (f *notifyFixture) addUser(t *testing.T, user *model.User) {
	t.Helper()
	if err := f.users.Create(context.Background(), user); err != nil {
		t.Fatalf("创建用户失败: %v", err)
	}
}

func (f *notifyFixture) addKeyHabit(userID, name string) *model.Habit {
	h := &model.Habit{UserID: userID, Name: name, IsKey: true, IsActive: true}
	_ = f.habits.Create(context.Background(), h)
	return h
}

// ── 每日关键习惯提醒 ──

// 本地（UTC）20:02，落在默认 20:00 触发窗口内
var keyHabitsNow = time.Date(2025, 7, 16, 20, 2, 0, 0, time.UTC)

func TestNotificationService_KeyHabits_SendsWhenPending(t *testing.T) {
	f := setupTestNotificationService()
	user := utcUser("user-1")
	f.addUser(t, user)
	f.addKeyHabit(user.UserID, "背单词")
	f.addKeyHabit(user.UserID, "晨间复盘")

	if err := f.svc.SweepKeyHabits(context.Background(), keyHabitsNow); err != nil {
		t.Fatalf("SweepKeyHabits 应成功: %v", err)
	}
	if len(f.mail.sent) != 1 {
		t.Fatalf("期望发送1封邮件，实际=%d", len(f.mail.sent))
	}
	if f.mail.sent[0].to != user.Email {
		t.Errorf("期望收件人=%s，实际=%s", user.Email, f.mail.sent[0].to)
	}
	if len(f.notify.notifications) != 1 {
		t.Fatalf("期望1条通知记录，实际=%d", len(f.notify.notifications))
	}
	record := f.notify.notifications[0]
	if record.Type != model.NotifyKeyHabitsReminder {
		t.Errorf("期望类型key_habits_reminder，实际=%s", record.Type)
	}
	if record.Status != model.NotificationStatusSent {
		t.Errorf("期望状态sent，实际=%s", record.Status)
	}
}

func TestNotificationService_KeyHabits_OutsideWindow(t *testing.T) {
	f := setupTestNotificationService()
	user := utcUser("user-1")
	f.addUser(t, user)
	f.addKeyHabit(user.UserID, "背单词")

	// 19:02 不在窗口内
	early := time.Date(2025, 7, 16, 19, 2, 0, 0, time.UTC)
	if err := f.svc.SweepKeyHabits(context.Background(), early); err != nil {
		t.Fatalf("SweepKeyHabits 应成功: %v", err)
	}
	if len(f.mail.sent) != 0 {
		t.Errorf("窗口外不应发信，实际发送=%d", len(f.mail.sent))
	}
}

func TestNotificationService_KeyHabits_Deduplicated(t *testing.T) {
	f := setupTestNotificationService()
	user := utcUser("user-1")
	f.addUser(t, user)
	f.addKeyHabit(user.UserID, "背单词")

	if err := f.svc.SweepKeyHabits(context.Background(), keyHabitsNow); err != nil {
		t.Fatalf("首次扫描应成功: %v", err)
	}
	// 同一窗口内的下一轮扫描
	if err := f.svc.SweepKeyHabits(context.Background(), keyHabitsNow.Add(3*time.Minute)); err != nil {
		t.Fatalf("重复扫描应成功: %v", err)
	}
	if len(f.mail.sent) != 1 {
		t.Errorf("去重后仍应只有1封邮件，实际=%d", len(f.mail.sent))
	}
}

func TestNotificationService_KeyHabits_DisabledByPreference(t *testing.T) {
	f := setupTestNotificationService()
	user := utcUser("user-1")
	user.NotificationPreferences = model.JSONMap{"key_habits_reminder_enabled": false}
	f.addUser(t, user)
	f.addKeyHabit(user.UserID, "背单词")

	if err := f.svc.SweepKeyHabits(context.Background(), keyHabitsNow); err != nil {
		t.Fatalf("SweepKeyHabits 应成功: %v", err)
	}
	if len(f.mail.sent) != 0 {
		t.Errorf("偏好关闭不应发信，实际=%d", len(f.mail.sent))
	}
}

func TestNotificationService_KeyHabits_AllCompleted(t *testing.T) {
	f := setupTestNotificationService()
	user := utcUser("user-1")
	f.addUser(t, user)
	habit := f.addKeyHabit(user.UserID, "背单词")

	today := time.Date(2025, 7, 16, 0, 0, 0, 0, time.UTC)
	_ = f.records.Create(context.Background(), &model.HabitRecord{
		HabitID:    habit.HabitID,
		RecordDate: today,
		Completed:  true,
	})

	if err := f.svc.SweepKeyHabits(context.Background(), keyHabitsNow); err != nil {
		t.Fatalf("SweepKeyHabits 应成功: %v", err)
	}
	if len(f.mail.sent) != 0 {
		t.Errorf("全部已打卡不应发信，实际=%d", len(f.mail.sent))
	}
}

func TestNotificationService_KeyHabits_CustomHour(t *testing.T) {
	f := setupTestNotificationService()
	user := utcUser("user-1")
	// JSONB 数字反序列化后是 float64
	user.NotificationPreferences = model.JSONMap{"key_habits_reminder_hour": float64(7)}
	f.addUser(t, user)
	f.addKeyHabit(user.UserID, "晨间复盘")

	morning := time.Date(2025, 7, 16, 7, 1, 0, 0, time.UTC)
	if err := f.svc.SweepKeyHabits(context.Background(), morning); err != nil {
		t.Fatalf("SweepKeyHabits 应成功: %v", err)
	}
	if len(f.mail.sent) != 1 {
		t.Errorf("自定义提醒时间应生效，实际发送=%d", len(f.mail.sent))
	}

	// 默认的 20:00 不再触发
	if err := f.svc.SweepKeyHabits(context.Background(), keyHabitsNow); err != nil {
		t.Fatalf("SweepKeyHabits 应成功: %v", err)
	}
	if len(f.mail.sent) != 1 {
		t.Errorf("默认时间不应再触发，实际发送=%d", len(f.mail.sent))
	}
}

func TestNotificationService_KeyHabits_FailedSendRecorded(t *testing.T) {
	f := setupTestNotificationService()
	user := utcUser("user-1")
	f.addUser(t, user)
	f.addKeyHabit(user.UserID, "背单词")
	f.mail.sendErr = errors.New("smtp timeout")

	// 单用户投递失败只记日志，整体扫描不报错
	if err := f.svc.SweepKeyHabits(context.Background(), keyHabitsNow); err != nil {
		t.Fatalf("SweepKeyHabits 应成功: %v", err)
	}
	if len(f.notify.notifications) != 1 {
		t.Fatalf("投递失败也应留痕，实际=%d", len(f.notify.notifications))
	}
	if f.notify.notifications[0].Status != model.NotificationStatusFailed {
		t.Errorf("期望状态failed，实际=%s", f.notify.notifications[0].Status)
	}
}

// ── 周日挑战冲刺提醒 ──

// 2025-07-20 是周日，本地（UTC）12:01
var challengeReminderNow = time.Date(2025, 7, 20, 12, 1, 0, 0, time.UTC)

func TestNotificationService_ChallengeReminder_ActiveChallenge(t *testing.T) {
	f := setupTestNotificationService()
	user := utcUser("user-1")
	f.addUser(t, user)
	seedChallenge(f.challenge, user.UserID, model.ChallengeMarathonProductivity, 20, model.ChallengeStatusActive)

	if err := f.svc.SweepChallengeReminder(context.Background(), challengeReminderNow); err != nil {
		t.Fatalf("SweepChallengeReminder 应成功: %v", err)
	}
	if len(f.mail.sent) != 1 {
		t.Fatalf("期望发送1封邮件，实际=%d", len(f.mail.sent))
	}
	if f.notify.notifications[0].Type != model.NotifyWeeklyChallengeReminder {
		t.Errorf("期望类型weekly_challenge_reminder，实际=%s", f.notify.notifications[0].Type)
	}
}

func TestNotificationService_ChallengeReminder_SkipsTerminal(t *testing.T) {
	f := setupTestNotificationService()
	user := utcUser("user-1")
	f.addUser(t, user)
	seedChallenge(f.challenge, user.UserID, model.ChallengeMarathonProductivity, 20, model.ChallengeStatusCompleted)

	if err := f.svc.SweepChallengeReminder(context.Background(), challengeReminderNow); err != nil {
		t.Fatalf("SweepChallengeReminder 应成功: %v", err)
	}
	if len(f.mail.sent) != 0 {
		t.Errorf("已完成挑战不应提醒，实际=%d", len(f.mail.sent))
	}
}

func TestNotificationService_ChallengeReminder_NotSunday(t *testing.T) {
	f := setupTestNotificationService()
	user := utcUser("user-1")
	f.addUser(t, user)
	seedChallenge(f.challenge, user.UserID, model.ChallengeMarathonProductivity, 20, model.ChallengeStatusActive)

	// 周三中午
	if err := f.svc.SweepChallengeReminder(context.Background(), evalNow); err != nil {
		t.Fatalf("SweepChallengeReminder 应成功: %v", err)
	}
	if len(f.mail.sent) != 0 {
		t.Errorf("非周日不应提醒，实际=%d", len(f.mail.sent))
	}
}

func TestNotificationService_ChallengeReminder_NoChallengeYet(t *testing.T) {
	f := setupTestNotificationService()
	user := utcUser("user-1")
	f.addUser(t, user)

	if err := f.svc.SweepChallengeReminder(context.Background(), challengeReminderNow); err != nil {
		t.Fatalf("本周无挑战时应静默跳过: %v", err)
	}
	if len(f.mail.sent) != 0 {
		t.Errorf("无挑战不应提醒，实际=%d", len(f.mail.sent))
	}
}

// ── 周六未完成目标提醒 ──

// 2025-07-19 是周六，本地（UTC）12:03
var objectivesReminderNow = time.Date(2025, 7, 19, 12, 3, 0, 0, time.UTC)

func TestNotificationService_ObjectivesReminder_PendingObjectives(t *testing.T) {
	f := setupTestNotificationService()
	user := utcUser("user-1")
	f.addUser(t, user)
	seedObjective(f.objective, user.UserID, "读完第三章", false)
	seedObjective(f.objective, user.UserID, "整理错题本", true)

	if err := f.svc.SweepObjectivesReminder(context.Background(), objectivesReminderNow); err != nil {
		t.Fatalf("SweepObjectivesReminder 应成功: %v", err)
	}
	if len(f.mail.sent) != 1 {
		t.Fatalf("期望发送1封邮件，实际=%d", len(f.mail.sent))
	}
	if f.notify.notifications[0].Type != model.NotifyWeeklyObjectivesReminder {
		t.Errorf("期望类型weekly_objectives_reminder，实际=%s", f.notify.notifications[0].Type)
	}
}

func TestNotificationService_ObjectivesReminder_AllDone(t *testing.T) {
	f := setupTestNotificationService()
	user := utcUser("user-1")
	f.addUser(t, user)
	seedObjective(f.objective, user.UserID, "读完第三章", true)

	if err := f.svc.SweepObjectivesReminder(context.Background(), objectivesReminderNow); err != nil {
		t.Fatalf("SweepObjectivesReminder 应成功: %v", err)
	}
	if len(f.mail.sent) != 0 {
		t.Errorf("目标全部完成不应提醒，实际=%d", len(f.mail.sent))
	}
}

// ── 周一上周总结 ──

// 2025-07-21 是周一，本地（UTC）00:06，落在 00:05 起的窗口内
var summaryNow = time.Date(2025, 7, 21, 0, 6, 0, 0, time.UTC)

func TestNotificationService_WeeklySummary_CountsLastWeek(t *testing.T) {
	f := setupTestNotificationService()
	user := utcUser("user-1")
	f.addUser(t, user)

	// 两条上周会话，一条本周会话
	seedSessions(f.pomodoro, user.UserID, 2, 45)
	f.pomodoro.sessions = append(f.pomodoro.sessions, &model.PomodoroSession{
		SessionID:       "this-week",
		UserID:          user.UserID,
		StartTime:       summaryNow.Add(8 * time.Hour),
		EndTime:         summaryNow.Add(8*time.Hour + 30*time.Minute),
		DurationMinutes: 30,
	})

	if err := f.svc.SweepWeeklySummary(context.Background(), summaryNow); err != nil {
		t.Fatalf("SweepWeeklySummary 应成功: %v", err)
	}
	if len(f.mail.sent) != 1 {
		t.Fatalf("期望发送1封总结，实际=%d", len(f.mail.sent))
	}
	record := f.notify.notifications[0]
	if record.Type != model.NotifyWeeklySummary {
		t.Errorf("期望类型weekly_summary，实际=%s", record.Type)
	}
	if got := record.Metadata["session_count"]; got != 2 {
		t.Errorf("期望统计上周2条会话，实际=%v", got)
	}
	if got := record.Metadata["week_start"]; got != "2025-07-14" {
		t.Errorf("期望上周起点2025-07-14，实际=%v", got)
	}
}

func TestNotificationService_WeeklySummary_OutsideWindow(t *testing.T) {
	f := setupTestNotificationService()
	user := utcUser("user-1")
	f.addUser(t, user)
	seedSessions(f.pomodoro, user.UserID, 2, 45)

	// 周一 00:02 在 00:05 窗口之前
	early := time.Date(2025, 7, 21, 0, 2, 0, 0, time.UTC)
	if err := f.svc.SweepWeeklySummary(context.Background(), early); err != nil {
		t.Fatalf("SweepWeeklySummary 应成功: %v", err)
	}
	if len(f.mail.sent) != 0 {
		t.Errorf("窗口外不应发信，实际=%d", len(f.mail.sent))
	}
}

// ── 多用户时区隔离 ──

func TestNotificationService_KeyHabits_PerUserTimezone(t *testing.T) {
	f := setupTestNotificationService()

	utc := utcUser("user-utc")
	f.addUser(t, utc)
	f.addKeyHabit(utc.UserID, "背单词")

	tokyo := utcUser("user-tokyo")
	tokyo.Timezone = "Asia/Tokyo"
	f.addUser(t, tokyo)
	f.addKeyHabit(tokyo.UserID, "背单词")

	// UTC 20:02 = 东京次日 05:02，只有 UTC 用户在窗口内
	if err := f.svc.SweepKeyHabits(context.Background(), keyHabitsNow); err != nil {
		t.Fatalf("SweepKeyHabits 应成功: %v", err)
	}
	if len(f.mail.sent) != 1 {
		t.Fatalf("期望只有UTC用户收到提醒，实际=%d", len(f.mail.sent))
	}
	if f.mail.sent[0].to != utc.Email {
		t.Errorf("期望收件人=%s，实际=%s", utc.Email, f.mail.sent[0].to)
	}

	// 东京本地 20:01 = UTC 11:01
	tokyoEvening := time.Date(2025, 7, 16, 11, 1, 0, 0, time.UTC)
	if err := f.svc.SweepKeyHabits(context.Background(), tokyoEvening); err != nil {
		t.Fatalf("SweepKeyHabits 应成功: %v", err)
	}
	if len(f.mail.sent) != 2 {
		t.Fatalf("期望东京用户也收到提醒，实际=%d", len(f.mail.sent))
	}
	if f.mail.sent[1].to != tokyo.Email {
		t.Errorf("期望收件人=%s，实际=%s", tokyo.Email, f.mail.sent[1].to)
	}
}
