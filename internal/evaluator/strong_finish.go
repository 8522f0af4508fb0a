package evaluator

import (
	"context"
	"time"

	"github.com/francovalli123/StudyO/internal/model"
)

// 收尾判定：本地开始时刻在 18:00 及之后
const strongFinishHour = 18

// strongFinishEvaluator 强势收尾：统计"有会话在本地 18:00 后开始"的天数
type strongFinishEvaluator struct {
	deps
}

func (e *strongFinishEvaluator) Evaluate(ctx context.Context, _ time.Time) (Result, error) {
	sessions, err := e.sessions(ctx)
	if err != nil {
		return Result{}, err
	}

	days := make(map[time.Time]bool)
	for i := range sessions {
		local := sessions[i].StartTime.In(e.loc)
		if local.Hour() >= strongFinishHour {
			days[e.localDate(&sessions[i])] = true
		}
	}

	target := metadata[model.ChallengeStrongFinish].target
	current := float64(len(days))
	return Result{CurrentValue: current, TargetValue: target, Completed: current >= target}, nil
}
