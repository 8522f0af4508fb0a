package evaluator

import (
	"context"
	"time"

	"github.com/francovalli123/StudyO/internal/model"
)

// 早起判定：本地开始时刻严格早于 10:00
const earlyStartHour = 10

// earlyStartEvaluator 早起学习：统计"有会话在本地 10:00 前开始"的天数
type earlyStartEvaluator struct {
	deps
}

func (e *earlyStartEvaluator) Evaluate(ctx context.Context, _ time.Time) (Result, error) {
	sessions, err := e.sessions(ctx)
	if err != nil {
		return Result{}, err
	}

	days := make(map[time.Time]bool)
	for i := range sessions {
		local := sessions[i].StartTime.In(e.loc)
		if local.Hour() < earlyStartHour {
			days[e.localDate(&sessions[i])] = true
		}
	}

	target := metadata[model.ChallengeEarlyStart].target
	current := float64(len(days))
	return Result{CurrentValue: current, TargetValue: target, Completed: current >= target}, nil
}
