//go:build integration

package repository_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	pkgerrors "github.com/francovalli123/StudyO/pkg/errors"

	"github.com/francovalli123/StudyO/internal/model"
	"github.com/francovalli123/StudyO/internal/repository"
)

// ═══════════════════════════════════════════════════════════
// Test Setup
// ═══════════════════════════════════════════════════════════

var testDB *gorm.DB

func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		dsn = "host=localhost port=5433 user=studyo password=studyo_password dbname=studyo_test sslmode=disable TimeZone=UTC"
	}

	var err error
	testDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "无法连接测试数据库: %v\n", err)
		os.Exit(1)
	}

	// 自动迁移测试表结构
	err = testDB.AutoMigrate(
		&model.User{},
		&model.PasswordReset{},
		&model.Subject{},
		&model.PomodoroSession{},
		&model.WeeklyChallenge{},
		&model.WeeklyObjective{},
		&model.WeeklyObjectiveHistory{},
		&model.Habit{},
		&model.HabitRecord{},
		&model.Notification{},
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "AutoMigrate 失败: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()
	os.Exit(code)
}

// setupTestUser 创建测试用户并返回清理函数
func setupTestUser(t *testing.T) (user *model.User, cleanup func()) {
	t.Helper()
	ctx := context.Background()

	user = &model.User{
		Username:     fmt.Sprintf("测试用户-%d", time.Now().UnixNano()),
		Email:        fmt.Sprintf("test%d@studyo.test", time.Now().UnixNano()),
		PasswordHash: "$2a$10$placeholder",
		Country:      "AR",
		Timezone:     "America/Argentina/Buenos_Aires",
		Language:     "es",
		IsActive:     true,
	}
	if err := testDB.WithContext(ctx).Create(user).Error; err != nil {
		t.Fatalf("创建用户失败: %v", err)
	}

	cleanup = func() {
		testDB.Where("user_id = ?", user.UserID).Delete(&model.WeeklyObjectiveHistory{})
		testDB.Where("user_id = ?", user.UserID).Delete(&model.WeeklyObjective{})
		testDB.Where("user_id = ?", user.UserID).Delete(&model.WeeklyChallenge{})
		testDB.Where("user_id = ?", user.UserID).Delete(&model.PomodoroSession{})
		testDB.Where("user_id = ?", user.UserID).Delete(&model.User{})
	}
	return
}

// ═══════════════════════════════════════════════════════════
// Test: Transaction
// ═══════════════════════════════════════════════════════════

func TestWithTx_Rollback(t *testing.T) {
	user, cleanup := setupTestUser(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	var objectiveID string
	sentinel := errors.New("强制回滚")
	err := repo.WithTx(ctx, func(txRepo *repository.Repository) error {
		obj := &model.WeeklyObjective{
			UserID:   user.UserID,
			Title:    "事务内目标",
			IsActive: true,
		}
		if err := txRepo.Objective.Create(ctx, obj); err != nil {
			return err
		}
		objectiveID = obj.ObjectiveID
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("WithTx 应透传 fn 的错误，实际: %v", err)
	}

	// 验证数据未持久化
	_, err = repo.Objective.GetByID(ctx, user.UserID, objectiveID)
	if !pkgerrors.IsNotFound(err) {
		t.Fatalf("期望回滚后查不到目标，实际: %v", err)
	}
}

func TestWithTx_Commit(t *testing.T) {
	user, cleanup := setupTestUser(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	var objectiveID string
	err := repo.WithTx(ctx, func(txRepo *repository.Repository) error {
		obj := &model.WeeklyObjective{
			UserID:   user.UserID,
			Title:    "事务内目标",
			IsActive: true,
		}
		if err := txRepo.Objective.Create(ctx, obj); err != nil {
			return err
		}
		objectiveID = obj.ObjectiveID
		return nil
	})
	if err != nil {
		t.Fatalf("WithTx 应成功: %v", err)
	}

	// 验证数据已持久化
	found, err := repo.Objective.GetByID(ctx, user.UserID, objectiveID)
	if err != nil {
		t.Fatalf("提交后查询目标失败: %v", err)
	}
	if found.Title != "事务内目标" {
		t.Errorf("Title 不匹配: expected 事务内目标, got %s", found.Title)
	}
}

// 轮转事务：快照写入与归档要么同时生效，要么同时回滚
func TestWithTx_ArchiveWithSnapshot(t *testing.T) {
	user, cleanup := setupTestUser(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	obj := &model.WeeklyObjective{
		UserID:   user.UserID,
		Title:    "待归档目标",
		IsActive: true,
	}
	if err := repo.Objective.Create(ctx, obj); err != nil {
		t.Fatalf("创建目标失败: %v", err)
	}

	weekStart := time.Date(2025, 7, 14, 0, 0, 0, 0, time.UTC)
	weekEnd := weekStart.AddDate(0, 0, 6)
	now := time.Now().UTC()

	err := repo.WithTx(ctx, func(txRepo *repository.Repository) error {
		histories := []model.WeeklyObjectiveHistory{{
			UserID:        user.UserID,
			ObjectiveID:   obj.ObjectiveID,
			Title:         obj.Title,
			WasCompleted:  false,
			WeekStartDate: weekStart,
			WeekEndDate:   weekEnd,
		}}
		if err := txRepo.ObjectiveHistory.BulkCreate(ctx, histories); err != nil {
			return err
		}
		_, err := txRepo.Objective.ArchiveActive(ctx, user.UserID, now)
		return err
	})
	if err != nil {
		t.Fatalf("归档事务应成功: %v", err)
	}

	actives, err := repo.Objective.ListActive(ctx, user.UserID)
	if err != nil {
		t.Fatalf("ListActive 失败: %v", err)
	}
	if len(actives) != 0 {
		t.Errorf("归档后不应有活跃目标，实际=%d", len(actives))
	}
	exists, err := repo.ObjectiveHistory.ExistsForWeek(ctx, user.UserID, weekStart, weekEnd)
	if err != nil {
		t.Fatalf("ExistsForWeek 失败: %v", err)
	}
	if !exists {
		t.Error("快照应已写入历史表")
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Unique Constraint (one challenge per user per week)
// ═══════════════════════════════════════════════════════════

func TestChallenge_UniquePerUserWeek(t *testing.T) {
	user, cleanup := setupTestUser(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()
	weekStart := time.Date(2025, 7, 14, 0, 0, 0, 0, time.UTC)

	first := &model.WeeklyChallenge{
		UserID:        user.UserID,
		WeekStart:     weekStart,
		WeekEnd:       weekStart.AddDate(0, 0, 6),
		ChallengeType: model.ChallengeMarathonProductivity,
		TargetValue:   20,
		Status:        model.ChallengeStatusActive,
	}
	if err := repo.Challenge.Create(ctx, first); err != nil {
		t.Fatalf("创建第一条挑战失败: %v", err)
	}

	// 同一 (user, week_start) 的第二条应违反唯一约束
	second := &model.WeeklyChallenge{
		UserID:        user.UserID,
		WeekStart:     weekStart,
		WeekEnd:       weekStart.AddDate(0, 0, 6),
		ChallengeType: model.ChallengeEarlyStart,
		TargetValue:   5,
		Status:        model.ChallengeStatusActive,
	}
	err := repo.Challenge.Create(ctx, second)
	if err == nil {
		t.Fatal("期望唯一约束违反，但创建成功了")
	}
	if !pkgerrors.IsDuplicateKey(err) {
		t.Errorf("期望 gorm.ErrDuplicatedKey，得到: %v", err)
	}

	// 冲突后按周回查应命中先创建的记录
	found, err := repo.Challenge.GetForWeek(ctx, user.UserID, weekStart)
	if err != nil {
		t.Fatalf("GetForWeek 失败: %v", err)
	}
	if found.ChallengeID != first.ChallengeID {
		t.Errorf("ID 不匹配: expected %s, got %s", first.ChallengeID, found.ChallengeID)
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Terminal Status Guard
// ═══════════════════════════════════════════════════════════

func TestChallenge_UpdateFields_SkipsTerminal(t *testing.T) {
	user, cleanup := setupTestUser(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()
	weekStart := time.Date(2025, 7, 14, 0, 0, 0, 0, time.UTC)

	done := &model.WeeklyChallenge{
		UserID:        user.UserID,
		WeekStart:     weekStart,
		WeekEnd:       weekStart.AddDate(0, 0, 6),
		ChallengeType: model.ChallengeMarathonProductivity,
		CurrentValue:  20,
		TargetValue:   20,
		Status:        model.ChallengeStatusCompleted,
	}
	if err := repo.Challenge.Create(ctx, done); err != nil {
		t.Fatalf("创建挑战失败: %v", err)
	}

	// 终态挑战不应被重算覆盖
	err := repo.Challenge.UpdateFields(ctx, done.ChallengeID, map[string]interface{}{
		"current_value": 3,
		"status":        model.ChallengeStatusActive,
	})
	if err != nil {
		t.Fatalf("UpdateFields 不应报错: %v", err)
	}

	found, err := repo.Challenge.GetForWeek(ctx, user.UserID, weekStart)
	if err != nil {
		t.Fatalf("GetForWeek 失败: %v", err)
	}
	if found.Status != model.ChallengeStatusCompleted {
		t.Errorf("终态不应被覆盖，实际=%s", found.Status)
	}
	if found.CurrentValue != 20 {
		t.Errorf("终态进度不应被覆盖，实际=%v", found.CurrentValue)
	}
}

func TestChallenge_ExpireActiveBefore(t *testing.T) {
	user, cleanup := setupTestUser(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()
	staleWeek := time.Date(2025, 7, 7, 0, 0, 0, 0, time.UTC)
	currentWeek := time.Date(2025, 7, 14, 0, 0, 0, 0, time.UTC)

	for _, ws := range []time.Time{staleWeek, currentWeek} {
		ch := &model.WeeklyChallenge{
			UserID:        user.UserID,
			WeekStart:     ws,
			WeekEnd:       ws.AddDate(0, 0, 6),
			ChallengeType: model.ChallengeCleanFocus,
			TargetValue:   5,
			Status:        model.ChallengeStatusActive,
		}
		if err := repo.Challenge.Create(ctx, ch); err != nil {
			t.Fatalf("创建挑战失败: %v", err)
		}
	}

	expired, err := repo.Challenge.ExpireActiveBefore(ctx, user.UserID, currentWeek)
	if err != nil {
		t.Fatalf("ExpireActiveBefore 失败: %v", err)
	}
	if expired != 1 {
		t.Errorf("期望过期1条，实际=%d", expired)
	}

	stale, err := repo.Challenge.GetForWeek(ctx, user.UserID, staleWeek)
	if err != nil {
		t.Fatalf("GetForWeek 失败: %v", err)
	}
	if stale.Status != model.ChallengeStatusFailed {
		t.Errorf("过周挑战应置为 failed，实际=%s", stale.Status)
	}
	current, err := repo.Challenge.GetForWeek(ctx, user.UserID, currentWeek)
	if err != nil {
		t.Fatalf("GetForWeek 失败: %v", err)
	}
	if current.Status != model.ChallengeStatusActive {
		t.Errorf("本周挑战不应被过期，实际=%s", current.Status)
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Pomodoro Window Query
// ═══════════════════════════════════════════════════════════

func TestPomodoro_ListInWindow(t *testing.T) {
	user, cleanup := setupTestUser(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()
	weekStart := time.Date(2025, 7, 14, 0, 0, 0, 0, time.UTC)

	// 窗口内 3 条、窗口前 1 条
	starts := []time.Time{
		weekStart.Add(-time.Hour),
		weekStart,
		weekStart.Add(26 * time.Hour),
		weekStart.AddDate(0, 0, 6).Add(23 * time.Hour),
	}
	for _, s := range starts {
		sess := &model.PomodoroSession{
			UserID:          user.UserID,
			StartTime:       s,
			EndTime:         s.Add(30 * time.Minute),
			DurationMinutes: 30,
		}
		if err := repo.Pomodoro.Create(ctx, sess); err != nil {
			t.Fatalf("创建会话失败: %v", err)
		}
	}

	weekEnd := weekStart.AddDate(0, 0, 7).Add(-time.Second)
	list, err := repo.Pomodoro.ListInWindow(ctx, user.UserID, weekStart, weekEnd)
	if err != nil {
		t.Fatalf("ListInWindow 失败: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("期望窗口内3条会话，实际=%d", len(list))
	}
	// 按开始时间升序
	for i := 1; i < len(list); i++ {
		if list[i].StartTime.Before(list[i-1].StartTime) {
			t.Error("会话应按开始时间升序返回")
		}
	}
}

func TestPomodoro_DuplicateRejected(t *testing.T) {
	user, cleanup := setupTestUser(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()
	start := time.Date(2025, 7, 16, 9, 0, 0, 0, time.UTC)

	sess := &model.PomodoroSession{
		UserID:          user.UserID,
		StartTime:       start,
		EndTime:         start.Add(25 * time.Minute),
		DurationMinutes: 25,
	}
	if err := repo.Pomodoro.Create(ctx, sess); err != nil {
		t.Fatalf("创建会话失败: %v", err)
	}

	dup := &model.PomodoroSession{
		UserID:          user.UserID,
		StartTime:       start,
		EndTime:         start.Add(25 * time.Minute),
		DurationMinutes: 25,
	}
	err := repo.Pomodoro.Create(ctx, dup)
	if err == nil {
		t.Fatal("期望唯一约束违反，但创建成功了。确保已运行迁移中的 uq_pomodoro_session_per_user_time_window 约束")
	}
	if !pkgerrors.IsDuplicateKey(err) {
		t.Errorf("期望 gorm.ErrDuplicatedKey，得到: %v", err)
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Objective History
// ═══════════════════════════════════════════════════════════

func TestObjectiveHistory_LatestForUser(t *testing.T) {
	user, cleanup := setupTestUser(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	// 两周历史，Latest 应命中较新的一周
	older := time.Date(2025, 7, 7, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2025, 7, 14, 0, 0, 0, 0, time.UTC)
	histories := []model.WeeklyObjectiveHistory{
		{
			UserID:        user.UserID,
			ObjectiveID:   "11111111-1111-1111-1111-111111111111",
			Title:         "旧周目标",
			WeekStartDate: older,
			WeekEndDate:   older.AddDate(0, 0, 6),
		},
		{
			UserID:        user.UserID,
			ObjectiveID:   "22222222-2222-2222-2222-222222222222",
			Title:         "新周目标",
			WeekStartDate: newer,
			WeekEndDate:   newer.AddDate(0, 0, 6),
		},
	}
	if err := repo.ObjectiveHistory.BulkCreate(ctx, histories); err != nil {
		t.Fatalf("BulkCreate 失败: %v", err)
	}

	latest, err := repo.ObjectiveHistory.LatestForUser(ctx, user.UserID)
	if err != nil {
		t.Fatalf("LatestForUser 失败: %v", err)
	}
	if !latest.WeekStartDate.Equal(newer) {
		t.Errorf("期望最新历史周起点=%v，实际=%v", newer, latest.WeekStartDate)
	}
}

func TestObjectiveHistory_LatestForUser_Empty(t *testing.T) {
	user, cleanup := setupTestUser(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)

	_, err := repo.ObjectiveHistory.LatestForUser(context.Background(), user.UserID)
	if !pkgerrors.IsNotFound(err) {
		t.Errorf("无历史期望 gorm.ErrRecordNotFound，得到: %v", err)
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Habit Record Unique Constraint
// ═══════════════════════════════════════════════════════════

func TestHabitRecord_UniquePerDay(t *testing.T) {
	user, cleanup := setupTestUser(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	habit := &model.Habit{UserID: user.UserID, Name: "背单词", IsActive: true}
	if err := repo.Habit.Create(ctx, habit); err != nil {
		t.Fatalf("创建习惯失败: %v", err)
	}
	defer func() {
		testDB.Where("habit_id = ?", habit.HabitID).Delete(&model.HabitRecord{})
		testDB.Where("habit_id = ?", habit.HabitID).Delete(&model.Habit{})
	}()

	day := time.Date(2025, 7, 16, 0, 0, 0, 0, time.UTC)
	if err := repo.HabitRecord.Create(ctx, &model.HabitRecord{
		HabitID:    habit.HabitID,
		RecordDate: day,
		Completed:  true,
	}); err != nil {
		t.Fatalf("首次打卡落库失败: %v", err)
	}

	err := repo.HabitRecord.Create(ctx, &model.HabitRecord{
		HabitID:    habit.HabitID,
		RecordDate: day,
		Completed:  true,
	})
	if err == nil {
		t.Fatal("期望唯一约束违反，但创建成功了")
	}
	if !pkgerrors.IsDuplicateKey(err) {
		t.Errorf("期望 gorm.ErrDuplicatedKey，得到: %v", err)
	}
}
