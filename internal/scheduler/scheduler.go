// Package scheduler 驱动周轮转与通知扫描的定时任务。
//
// 调度语义：
//   - 同一任务不并发（SkipIfStillRunning），panic 不会杀死调度循环（Recover）
//   - 文件锁保证同机多进程只有一个调度器实例在跑
//   - 错过调度超过宽限期的触发直接跳过，避免重启后补跑一堆过期任务
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/francovalli123/StudyO/config"
	"github.com/francovalli123/StudyO/internal/service"
)

// 单个任务执行的超时上限
const jobTimeout = 10 * time.Minute

// Scheduler 定时任务调度器
type Scheduler struct {
	cfg    *config.SchedulerConfig
	svc    *service.Service
	logger *zap.Logger

	cron     *cron.Cron
	fileLock *flock.Flock

	mu      sync.Mutex
	started bool
}

// New 创建调度器实例
func New(cfg *config.SchedulerConfig, svc *service.Service, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cfg:      cfg,
		svc:      svc,
		logger:   logger,
		fileLock: flock.New(cfg.LockPath),
	}
}

// Start 注册任务并启动调度循环
//
// 文件锁被其他进程持有时不报错，本进程以"无调度器"模式继续服务 HTTP。
// 重复调用幂等。
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}

	locked, err := s.fileLock.TryLock()
	if err != nil {
		return err
	}
	if !locked {
		s.logger.Warn("调度器文件锁被占用，本实例不启动调度",
			zap.String("lock_path", s.cfg.LockPath))
		return nil
	}

	cronLogger := &zapCronLogger{logger: s.logger}
	s.cron = cron.New(
		cron.WithLocation(time.UTC),
		cron.WithChain(
			cron.Recover(cronLogger),
			cron.SkipIfStillRunning(cronLogger),
		),
	)

	if err := s.addJob("weekly_rollover", s.cfg.RolloverSpec, s.runRollover); err != nil {
		return err
	}
	// 四类通知各注册一个任务：SkipIfStillRunning 按任务生效，
	// 某一类扫描变慢不会拖住其他三类
	for _, sweep := range s.notificationJobs() {
		if err := s.addJob(sweep.name, s.cfg.NotifySpec, sweep.fn); err != nil {
			return err
		}
	}

	s.cron.Start()
	s.started = true
	s.logger.Info("调度器已启动",
		zap.String("rollover_spec", s.cfg.RolloverSpec),
		zap.String("notify_spec", s.cfg.NotifySpec))
	return nil
}

// addJob 注册任务并套上错过宽限期守卫
func (s *Scheduler) addJob(name, spec string, fn func(ctx context.Context, now time.Time)) error {
	var entryID cron.EntryID
	id, err := s.cron.AddFunc(spec, func() {
		now := time.Now().UTC()

		// Prev 是本次触发的排定时刻；落后超过宽限期说明调度被长时间阻塞，放弃补跑
		scheduled := s.cron.Entry(entryID).Prev
		if !scheduled.IsZero() && now.Sub(scheduled) > s.cfg.MisfireGrace {
			s.logger.Warn("任务错过调度窗口，跳过本次执行",
				zap.String("job", name),
				zap.Time("scheduled", scheduled),
				zap.Duration("late", now.Sub(scheduled)))
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		start := time.Now()
		fn(ctx, now)
		s.logger.Info("任务执行完成",
			zap.String("job", name),
			zap.Duration("elapsed", time.Since(start)))
	})
	if err != nil {
		return err
	}
	entryID = id
	return nil
}

// Stop 停止调度并等待在跑任务结束，随后释放文件锁
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}

	<-s.cron.Stop().Done()
	if err := s.fileLock.Unlock(); err != nil {
		s.logger.Warn("释放调度器文件锁失败", zap.Error(err))
	}
	s.started = false
	s.logger.Info("调度器已停止")
}

// ────────────────────── 任务实现 ──────────────────────

func (s *Scheduler) runRollover(ctx context.Context, now time.Time) {
	result, err := s.svc.Rollover.SweepAll(ctx, now)
	if err != nil {
		s.logger.Error("周轮转扫描失败", zap.Error(err))
		return
	}
	if len(result.Errors) > 0 {
		s.logger.Warn("周轮转存在失败用户", zap.Strings("errors", result.Errors))
	}
}

type notificationJob struct {
	name string
	fn   func(ctx context.Context, now time.Time)
}

func (s *Scheduler) notificationJobs() []notificationJob {
	sweep := func(name string, fn func(ctx context.Context, now time.Time) error) notificationJob {
		return notificationJob{name: name, fn: func(ctx context.Context, now time.Time) {
			if err := fn(ctx, now); err != nil {
				s.logger.Error("通知扫描失败", zap.String("sweep", name), zap.Error(err))
			}
		}}
	}
	return []notificationJob{
		sweep("notify_key_habits", func(ctx context.Context, now time.Time) error {
			return s.svc.Notification.SweepKeyHabits(ctx, now)
		}),
		sweep("notify_weekly_challenge", func(ctx context.Context, now time.Time) error {
			return s.svc.Notification.SweepChallengeReminder(ctx, now)
		}),
		sweep("notify_weekly_objectives", func(ctx context.Context, now time.Time) error {
			return s.svc.Notification.SweepObjectivesReminder(ctx, now)
		}),
		sweep("notify_weekly_summary", func(ctx context.Context, now time.Time) error {
			return s.svc.Notification.SweepWeeklySummary(ctx, now)
		}),
	}
}

// ────────────────────── cron 日志适配 ──────────────────────

// zapCronLogger 把 cron 的日志接到 zap
type zapCronLogger struct {
	logger *zap.Logger
}

func (l *zapCronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Infow(msg, keysAndValues...)
}

func (l *zapCronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
