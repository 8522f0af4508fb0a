// Package evaluator 实现七种周挑战的进度判定。
//
// 每个评估器拿到用户本地周窗口内的全部专注会话，产出当前值/目标值/是否达标。
// 时间类挑战（早起、收尾、无碎片）一律按用户本地时区的日历日分桶，
// 不能用 UTC 日期，否则跨午夜的会话会落错天。
package evaluator

import (
	"context"
	"time"

	"github.com/francovalli123/StudyO/internal/model"
	"github.com/francovalli123/StudyO/pkg/errors"
	"github.com/francovalli123/StudyO/pkg/timewindow"
)

// SessionSource 会话读取接口，由 repository 层实现
type SessionSource interface {
	ListInWindow(ctx context.Context, userID string, fromUTC, toUTC time.Time) ([]model.PomodoroSession, error)
}

// Result 一次评估的产出
type Result struct {
	CurrentValue float64
	TargetValue  float64
	Completed    bool
}

// Evaluator 单个挑战类型的评估器
type Evaluator interface {
	// Evaluate 计算截至 now 的进度；now 参与"已过天数"类规则的判定
	Evaluate(ctx context.Context, now time.Time) (Result, error)
}

// deps 评估器共享的依赖与周上下文
type deps struct {
	source SessionSource
	userID string
	week   timewindow.Week
	loc    *time.Location
}

// sessions 拉取本周窗口内的全部会话
func (d deps) sessions(ctx context.Context) ([]model.PomodoroSession, error) {
	return d.source.ListInWindow(ctx, d.userID, d.week.StartUTC, d.week.EndUTC)
}

// localDate 会话开始时刻的本地日历日期
func (d deps) localDate(s *model.PomodoroSession) time.Time {
	return timewindow.Date(d.loc, s.StartTime)
}

// builders 挑战类型 → 构造函数的封闭映射，新增类型必须在此注册
var builders = map[model.WeeklyChallengeType]func(deps) Evaluator{
	model.ChallengeMarathonProductivity: func(d deps) Evaluator { return &marathonEvaluator{d} },
	model.ChallengeFocusDeepWork:        func(d deps) Evaluator { return &deepWorkEvaluator{d} },
	model.ChallengeSubjectFocus:         func(d deps) Evaluator { return &subjectFocusEvaluator{d} },
	model.ChallengeEarlyStart:           func(d deps) Evaluator { return &earlyStartEvaluator{d} },
	model.ChallengeStrongFinish:         func(d deps) Evaluator { return &strongFinishEvaluator{d} },
	model.ChallengeQualityOverQuantity:  func(d deps) Evaluator { return &qualityEvaluator{d} },
	model.ChallengeCleanFocus:           func(d deps) Evaluator { return &cleanFocusEvaluator{d} },
}

// New 按挑战类型构造评估器
// 未注册的类型返回 errors.ErrUnknownChallengeType，调用方必须让其向上冒泡
func New(typ model.WeeklyChallengeType, source SessionSource, userID string, week timewindow.Week, loc *time.Location) (Evaluator, error) {
	build, ok := builders[typ]
	if !ok {
		return nil, errors.ErrUnknownChallengeType
	}
	return build(deps{source: source, userID: userID, week: week, loc: loc}), nil
}

// TargetValue 某挑战类型的目标值，创建挑战记录时使用
func TargetValue(typ model.WeeklyChallengeType) (float64, error) {
	meta, ok := metadata[typ]
	if !ok {
		return 0, errors.ErrUnknownChallengeType
	}
	return meta.target, nil
}
