package scheduler

import (
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/francovalli123/StudyO/config"
	"github.com/francovalli123/StudyO/internal/service"
)

// 测试用的 cron 表达式永远不会在测试生命周期内触发
func testSchedulerConfig(t *testing.T) *config.SchedulerConfig {
	t.Helper()
	return &config.SchedulerConfig{
		Enabled:      true,
		LockPath:     filepath.Join(t.TempDir(), "scheduler.lock"),
		MisfireGrace: 5 * time.Minute,
		NotifySpec:   "0 0 1 1 *",
		RolloverSpec: "0 0 1 1 *",
	}
}

func TestScheduler_StartStop(t *testing.T) {
	cfg := testSchedulerConfig(t)
	s := New(cfg, &service.Service{}, zap.NewNop())

	if err := s.Start(); err != nil {
		t.Fatalf("Start 应成功: %v", err)
	}
	if !s.started {
		t.Fatal("Start 后应处于运行状态")
	}

	s.Stop()
	if s.started {
		t.Error("Stop 后应处于停止状态")
	}
}

func TestScheduler_StartIdempotent(t *testing.T) {
	cfg := testSchedulerConfig(t)
	s := New(cfg, &service.Service{}, zap.NewNop())

	if err := s.Start(); err != nil {
		t.Fatalf("首次 Start 应成功: %v", err)
	}
	defer s.Stop()

	if err := s.Start(); err != nil {
		t.Fatalf("重复 Start 应幂等: %v", err)
	}
}

func TestScheduler_StopWithoutStart(t *testing.T) {
	cfg := testSchedulerConfig(t)
	s := New(cfg, &service.Service{}, zap.NewNop())

	// 未启动时 Stop 应为空操作
	s.Stop()
	s.Stop()
}

func TestScheduler_LockHeldByOtherInstance(t *testing.T) {
	cfg := testSchedulerConfig(t)

	first := New(cfg, &service.Service{}, zap.NewNop())
	if err := first.Start(); err != nil {
		t.Fatalf("首个实例 Start 应成功: %v", err)
	}
	defer first.Stop()

	// 同一把文件锁的第二个实例：降级为无调度器模式，不报错
	second := New(cfg, &service.Service{}, zap.NewNop())
	if err := second.Start(); err != nil {
		t.Fatalf("锁被占用时 Start 不应报错: %v", err)
	}
	if second.started {
		t.Error("未抢到锁的实例不应进入运行状态")
	}

	// 首个实例释放后可以接管
	first.Stop()
	if err := second.Start(); err != nil {
		t.Fatalf("锁释放后 Start 应成功: %v", err)
	}
	if !second.started {
		t.Error("锁释放后应能正常启动")
	}
	second.Stop()
}

func TestScheduler_RegistersRolloverAndFourNotifyJobs(t *testing.T) {
	cfg := testSchedulerConfig(t)
	s := New(cfg, &service.Service{}, zap.NewNop())

	if err := s.Start(); err != nil {
		t.Fatalf("Start 应成功: %v", err)
	}
	defer s.Stop()

	// 周轮转 1 个 + 四类通知各 1 个，互相独立的 cron 条目
	if got := len(s.cron.Entries()); got != 5 {
		t.Errorf("应注册 5 个定时任务条目, got %d", got)
	}
	if got := len(s.notificationJobs()); got != 4 {
		t.Errorf("应有 4 类通知扫描任务, got %d", got)
	}
	names := map[string]bool{}
	for _, job := range s.notificationJobs() {
		names[job.name] = true
	}
	for _, want := range []string{
		"notify_key_habits",
		"notify_weekly_challenge",
		"notify_weekly_objectives",
		"notify_weekly_summary",
	} {
		if !names[want] {
			t.Errorf("缺少通知任务 %s", want)
		}
	}
}

func TestScheduler_InvalidSpecRejected(t *testing.T) {
	cfg := testSchedulerConfig(t)
	cfg.RolloverSpec = "not a cron spec"
	s := New(cfg, &service.Service{}, zap.NewNop())

	if err := s.Start(); err == nil {
		t.Error("非法 cron 表达式应返回错误")
		s.Stop()
	}
}
